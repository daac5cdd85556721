package commands

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/temirov/ctxdump/internal/exclusion"
)

const (
	// warningListDirectoryFormat is used when a directory cannot be listed.
	warningListDirectoryFormat = "Warning: unable to list %s: %v"
	// warningStatEntryFormat is used when a symbolic link target cannot be resolved.
	warningStatEntryFormat = "Warning: unable to stat %s: %v"
)

// Entry is one non-excluded child of a listed directory.
type Entry struct {
	Name string
	Path string
	// IsDir is true for directories and for symbolic links that resolve to one.
	IsDir     bool
	IsSymlink bool
}

// descend reports whether traversal should enter the entry. Linked directories
// are shown but never entered.
func (entry Entry) descend() bool {
	return entry.IsDir && !entry.IsSymlink
}

// WalkOptions configures the shared exclusion-aware directory lister.
type WalkOptions struct {
	Matcher       exclusion.Matcher
	Order         SortOrder
	Warn          func(message string)
	ReadDirectory func(path string) ([]fs.DirEntry, error)
}

// Walker lists directories once, dropping excluded entries before callers can descend into them.
// TreeRenderer and FileCollector share it so both passes see the same entries.
type Walker struct {
	options WalkOptions
}

// NewWalker returns a Walker with defaults applied to the unset options.
func NewWalker(options WalkOptions) *Walker {
	if options.Matcher == nil {
		options.Matcher = exclusion.Set{}
	}
	if options.Order == "" {
		options.Order = SortLexical
	}
	if options.Warn == nil {
		options.Warn = func(string) {}
	}
	if options.ReadDirectory == nil {
		options.ReadDirectory = os.ReadDir
	}
	return &Walker{options: options}
}

// List returns the sorted, non-excluded children of directory.
func (walker *Walker) List(directory string) ([]Entry, error) {
	directoryEntries, readError := walker.options.ReadDirectory(directory)
	if readError != nil {
		return nil, fmt.Errorf("reading directory %s: %w", directory, readError)
	}

	entries := make([]Entry, 0, len(directoryEntries))
	for _, directoryEntry := range directoryEntries {
		childPath := filepath.Join(directory, directoryEntry.Name())
		entry := Entry{
			Name:      directoryEntry.Name(),
			Path:      childPath,
			IsDir:     directoryEntry.IsDir(),
			IsSymlink: directoryEntry.Type()&fs.ModeSymlink != 0,
		}
		if entry.IsSymlink {
			targetInfo, statError := os.Stat(childPath)
			if statError != nil {
				walker.options.Warn(fmt.Sprintf(warningStatEntryFormat, childPath, statError))
			} else {
				entry.IsDir = targetInfo.IsDir()
			}
		}
		if walker.options.Matcher.IsExcluded(childPath, entry.IsDir) {
			continue
		}
		entries = append(entries, entry)
	}

	less := walker.options.Order.Less()
	sort.SliceStable(entries, func(firstIndex, secondIndex int) bool {
		return less(entries[firstIndex].Name, entries[secondIndex].Name)
	})
	return entries, nil
}

// warn forwards a message to the configured warning sink.
func (walker *Walker) warn(message string) {
	walker.options.Warn(message)
}
