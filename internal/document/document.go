// Package document writes the aggregated project context in its Markdown layout.
package document

import (
	"fmt"
	"io"
	"strings"
)

const (
	headerFormat         = "# Project Context for: %s\n\n## Project Structure\n\n```\n%s/\n%s```\n\n## File Contents\n\n"
	fileStartFormat      = "--- START OF FILE: %s ---\n"
	fileEndFormat        = "--- END OF FILE: %s ---\n\n"
	fenceOpenFormat      = "```%s\n"
	fenceClose           = "\n```\n"
	readErrorNoteFormat  = "Could not read file. Error: %v\n\n"
	binaryContentMessage = "(binary content omitted)"
)

// Writer appends document sections to an underlying stream and counts bytes.
// The first write failure is retained and returned by every later call.
type Writer struct {
	destination  io.Writer
	bytesWritten int64
	writeError   error
}

// NewWriter returns a Writer appending to destination.
func NewWriter(destination io.Writer) *Writer {
	return &Writer{destination: destination}
}

// WriteHeader writes the title, the fenced structure diagram and the contents marker.
func (writer *Writer) WriteHeader(projectName string, tree string) error {
	return writer.printf(headerFormat, projectName, projectName, tree)
}

// WriteFile writes one delimited file section. Content is trimmed of
// surrounding whitespace before it is fenced.
func (writer *Writer) WriteFile(relativePath string, languageHint string, content string) error {
	if err := writer.printf(fileStartFormat, relativePath); err != nil {
		return err
	}
	if err := writer.printf(fenceOpenFormat, languageHint); err != nil {
		return err
	}
	if err := writer.printf("%s", strings.TrimSpace(content)); err != nil {
		return err
	}
	if err := writer.printf("%s", fenceClose); err != nil {
		return err
	}
	return writer.printf(fileEndFormat, relativePath)
}

// WriteBinaryFile writes a section whose fence holds only a placeholder note.
func (writer *Writer) WriteBinaryFile(relativePath string, languageHint string) error {
	return writer.WriteFile(relativePath, languageHint, binaryContentMessage)
}

// WriteReadError writes the start delimiter followed by an inline note for a
// file that could not be read. No fence or end delimiter follows.
func (writer *Writer) WriteReadError(relativePath string, readError error) error {
	if err := writer.printf(fileStartFormat, relativePath); err != nil {
		return err
	}
	return writer.printf(readErrorNoteFormat, readError)
}

// BytesWritten reports the number of bytes accepted by the destination.
func (writer *Writer) BytesWritten() int64 {
	return writer.bytesWritten
}

func (writer *Writer) printf(format string, arguments ...any) error {
	if writer.writeError != nil {
		return writer.writeError
	}
	written, err := fmt.Fprintf(writer.destination, format, arguments...)
	writer.bytesWritten += int64(written)
	if err != nil {
		writer.writeError = fmt.Errorf("writing document: %w", err)
	}
	return writer.writeError
}
