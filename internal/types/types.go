// Package types defines every cross‑package data structure used by the ctxdump CLI.
package types

const (
	// LanguageHintFallback is the fence language used for files without an extension.
	LanguageHintFallback = "text"

	// DefaultOutputFileName is the document name used when no output path is configured.
	DefaultOutputFileName = "project_context.md"
)

// FileEntry describes one file selected for aggregation.
type FileEntry struct {
	AbsolutePath string
	// RelativePath is slash separated and relative to the scan root.
	RelativePath string
	// Extension keeps its leading dot and original case; empty when absent.
	Extension string
}

// LanguageHint returns the fence language for the entry.
func (entry FileEntry) LanguageHint() string {
	if len(entry.Extension) > 1 {
		return entry.Extension[1:]
	}
	return LanguageHintFallback
}

// ScanResult is the ordered list of files produced by one collection pass.
type ScanResult struct {
	Root  string
	Files []FileEntry
}

// Len reports the number of collected files.
func (result ScanResult) Len() int {
	return len(result.Files)
}

// RunSummary captures aggregate information about a completed document.
type RunSummary struct {
	OutputPath   string `json:"outputPath"`
	FilesWritten int    `json:"filesWritten"`
	TotalFiles   int    `json:"totalFiles"`
	BytesWritten int64  `json:"bytesWritten"`
	Tokens       int    `json:"tokens,omitempty"`
	Model        string `json:"model,omitempty"`
}
