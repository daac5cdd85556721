package exclusion

import (
	"fmt"
	"os"
	"path/filepath"

	gitignore "github.com/monochromegane/go-gitignore"
)

// GitIgnoreFileName is the name of the Git ignore file consulted at the scan root.
const GitIgnoreFileName = ".gitignore"

// Chain excludes an entry when any of its matchers excludes it.
type Chain []Matcher

// IsExcluded implements Matcher.
func (chain Chain) IsExcluded(entryPath string, isDir bool) bool {
	for _, matcher := range chain {
		if matcher != nil && matcher.IsExcluded(entryPath, isDir) {
			return true
		}
	}
	return false
}

type gitIgnoreMatcher struct {
	matcher gitignore.IgnoreMatcher
}

// IsExcluded expects an absolute entry path.
func (ignore gitIgnoreMatcher) IsExcluded(entryPath string, isDir bool) bool {
	return ignore.matcher.Match(entryPath, isDir)
}

// LoadGitIgnore returns a Matcher for the .gitignore at the root of rootDirectory.
// It returns nil without error when the file does not exist.
func LoadGitIgnore(rootDirectory string) (Matcher, error) {
	absoluteRoot, absoluteError := filepath.Abs(rootDirectory)
	if absoluteError != nil {
		return nil, fmt.Errorf("resolve %s: %w", rootDirectory, absoluteError)
	}
	gitIgnorePath := filepath.Join(absoluteRoot, GitIgnoreFileName)
	if _, statError := os.Stat(gitIgnorePath); statError != nil {
		if os.IsNotExist(statError) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat %s: %w", gitIgnorePath, statError)
	}
	matcher, parseError := gitignore.NewGitIgnore(gitIgnorePath, absoluteRoot)
	if parseError != nil {
		return nil, fmt.Errorf("parse %s: %w", gitIgnorePath, parseError)
	}
	return gitIgnoreMatcher{matcher: matcher}, nil
}
