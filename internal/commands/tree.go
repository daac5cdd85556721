// Package commands contains the traversal logic shared by the tree diagram and the file collection pass.
package commands

import (
	"fmt"
	"strings"
)

const (
	treeBranchConnector = "├── "
	treeLastConnector   = "└── "
	treeBranchPadding   = "│   "
	treeLastPadding     = "    "
	treeLineTerminator  = "\n"
)

// TreeRenderer renders a directory subtree as box-drawing lines.
type TreeRenderer struct {
	walker *Walker
}

// NewTreeRenderer returns a TreeRenderer listing directories through walker.
func NewTreeRenderer(walker *Walker) *TreeRenderer {
	return &TreeRenderer{walker: walker}
}

// Render returns the tree lines below directory. The directory itself is not printed.
func (renderer *TreeRenderer) Render(directory string) string {
	return renderer.RenderTree(directory, "")
}

// RenderTree returns the tree lines below directory with every line starting with prefix.
// A directory that cannot be listed renders as an empty subtree.
func (renderer *TreeRenderer) RenderTree(directory string, prefix string) string {
	var builder strings.Builder
	renderer.writeTree(&builder, directory, prefix)
	return builder.String()
}

func (renderer *TreeRenderer) writeTree(builder *strings.Builder, directory string, prefix string) {
	entries, listError := renderer.walker.List(directory)
	if listError != nil {
		renderer.walker.warn(fmt.Sprintf(warningListDirectoryFormat, directory, listError))
		return
	}
	lastIndex := len(entries) - 1
	for entryIndex, entry := range entries {
		connector := treeBranchConnector
		childPrefix := prefix + treeBranchPadding
		if entryIndex == lastIndex {
			connector = treeLastConnector
			childPrefix = prefix + treeLastPadding
		}
		builder.WriteString(prefix)
		builder.WriteString(connector)
		builder.WriteString(entry.Name)
		builder.WriteString(treeLineTerminator)
		if entry.descend() {
			renderer.writeTree(builder, entry.Path, childPrefix)
		}
	}
}
