// Package exclusion decides which folders and files are left out of a context document.
package exclusion

import (
	"path/filepath"
	"sort"
	"strings"
)

const extensionSeparator = "."

// Matcher reports whether a filesystem entry is excluded.
type Matcher interface {
	IsExcluded(entryPath string, isDir bool) bool
}

// Set holds the three exclusion lists for a run. A Set is never mutated after construction.
type Set struct {
	folders    map[string]struct{}
	files      map[string]struct{}
	extensions map[string]struct{}
}

// NewSet builds a Set. Folder and file names are kept verbatim; extensions are
// lowercased and given a leading dot when missing.
func NewSet(folders []string, files []string, extensions []string) Set {
	set := Set{
		folders:    make(map[string]struct{}, len(folders)),
		files:      make(map[string]struct{}, len(files)),
		extensions: make(map[string]struct{}, len(extensions)),
	}
	for _, folderName := range folders {
		if trimmed := strings.TrimSpace(folderName); trimmed != "" {
			set.folders[trimmed] = struct{}{}
		}
	}
	for _, fileName := range files {
		if trimmed := strings.TrimSpace(fileName); trimmed != "" {
			set.files[trimmed] = struct{}{}
		}
	}
	for _, extension := range extensions {
		if normalized := NormalizeExtension(extension); normalized != "" {
			set.extensions[normalized] = struct{}{}
		}
	}
	return set
}

// ParseList splits newline or whitespace separated tokens.
func ParseList(text string) []string {
	return strings.Fields(text)
}

// NormalizeExtension lowercases an extension token and ensures a leading dot.
func NormalizeExtension(extension string) string {
	trimmed := strings.ToLower(strings.TrimSpace(extension))
	if trimmed == "" || trimmed == extensionSeparator {
		return ""
	}
	if !strings.HasPrefix(trimmed, extensionSeparator) {
		trimmed = extensionSeparator + trimmed
	}
	return trimmed
}

// Extension returns the extension of a base name including its leading dot.
// Leading dots are part of the stem, so ".bashrc" has no extension.
func Extension(name string) string {
	stem := strings.TrimLeft(name, extensionSeparator)
	separatorIndex := strings.LastIndex(stem, extensionSeparator)
	if separatorIndex < 0 {
		return ""
	}
	return stem[separatorIndex:]
}

// IsExcluded reports whether the entry at entryPath is excluded by name or,
// for files, by extension.
func (set Set) IsExcluded(entryPath string, isDir bool) bool {
	baseName := filepath.Base(entryPath)
	if set.IsFolderExcluded(baseName) || set.IsFileExcluded(baseName) {
		return true
	}
	if isDir {
		return false
	}
	return set.IsExtensionExcluded(Extension(baseName))
}

// IsFolderExcluded reports whether name is listed as an excluded folder.
func (set Set) IsFolderExcluded(name string) bool {
	_, excluded := set.folders[name]
	return excluded
}

// IsFileExcluded reports whether name is listed as an excluded file.
func (set Set) IsFileExcluded(name string) bool {
	_, excluded := set.files[name]
	return excluded
}

// IsExtensionExcluded reports whether extension is listed, ignoring case.
func (set Set) IsExtensionExcluded(extension string) bool {
	if extension == "" {
		return false
	}
	_, excluded := set.extensions[strings.ToLower(extension)]
	return excluded
}

// Folders returns the excluded folder names in sorted order.
func (set Set) Folders() []string {
	return sortedKeys(set.folders)
}

// Files returns the excluded file names in sorted order.
func (set Set) Files() []string {
	return sortedKeys(set.files)
}

// Extensions returns the normalized excluded extensions in sorted order.
func (set Set) Extensions() []string {
	return sortedKeys(set.extensions)
}

func sortedKeys(values map[string]struct{}) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

var _ Matcher = Set{}
