package commands

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/temirov/ctxdump/internal/exclusion"
	"github.com/temirov/ctxdump/internal/types"
	"github.com/temirov/ctxdump/internal/utils"
)

const (
	// errorCollectRootFormat is used when the scan root itself cannot be listed.
	errorCollectRootFormat = "collecting files under %s: %w"
	// errorAbsolutePathFormat is used when the absolute path cannot be determined.
	errorAbsolutePathFormat = "getting absolute path for %s: %w"
)

// FileCollector gathers the files that survive exclusion in one traversal.
type FileCollector struct {
	walker *Walker
	order  SortOrder
}

// NewFileCollector returns a FileCollector listing directories through walker.
func NewFileCollector(walker *Walker) *FileCollector {
	return &FileCollector{walker: walker, order: walker.options.Order}
}

// CollectFiles walks root depth first and returns every included file sorted by
// relative path. Excluded directories are dropped before they are opened.
// Subdirectories that cannot be listed are skipped with a warning; an empty
// result is not an error.
func (collector *FileCollector) CollectFiles(root string) (types.ScanResult, error) {
	absoluteRoot, absolutePathError := filepath.Abs(root)
	if absolutePathError != nil {
		return types.ScanResult{}, fmt.Errorf(errorAbsolutePathFormat, root, absolutePathError)
	}
	absoluteRoot = filepath.Clean(absoluteRoot)

	rootEntries, listError := collector.walker.List(absoluteRoot)
	if listError != nil {
		return types.ScanResult{}, fmt.Errorf(errorCollectRootFormat, absoluteRoot, listError)
	}

	var files []types.FileEntry
	collector.visit(absoluteRoot, rootEntries, &files)

	less := collector.order.Less()
	sort.SliceStable(files, func(firstIndex, secondIndex int) bool {
		return less(files[firstIndex].RelativePath, files[secondIndex].RelativePath)
	})
	return types.ScanResult{Root: absoluteRoot, Files: files}, nil
}

func (collector *FileCollector) visit(root string, entries []Entry, files *[]types.FileEntry) {
	for _, entry := range entries {
		if entry.IsDir {
			if !entry.descend() {
				continue
			}
			childEntries, listError := collector.walker.List(entry.Path)
			if listError != nil {
				collector.walker.warn(fmt.Sprintf(warningListDirectoryFormat, entry.Path, listError))
				continue
			}
			collector.visit(root, childEntries, files)
			continue
		}
		*files = append(*files, types.FileEntry{
			AbsolutePath: entry.Path,
			RelativePath: utils.RelativePathOrSelf(entry.Path, root),
			Extension:    exclusion.Extension(entry.Name),
		})
	}
}
