// Package config loads ctxdump configuration files and exclusion list files.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/temirov/ctxdump/internal/exclusion"
	"github.com/temirov/ctxdump/internal/utils"
)

const (
	// foldersSectionHeader identifies the section listing excluded folder names.
	foldersSectionHeader = "[folders]"
	// filesSectionHeader identifies the section listing excluded file names.
	filesSectionHeader = "[files]"
	// extensionsSectionHeader identifies the section listing excluded extensions.
	extensionsSectionHeader = "[extensions]"
	commentPrefix           = "#"
)

// LoadExclusionsFile reads a sectioned exclusions file. Each section that
// appears replaces the corresponding default list, even when it is empty;
// absent sections stay nil. Entries are whitespace separated.
//
// #nosec G304
func LoadExclusionsFile(exclusionsFilePath string) (ExclusionConfiguration, error) {
	fileHandle, openFileError := os.Open(exclusionsFilePath)
	if openFileError != nil {
		return ExclusionConfiguration{}, fmt.Errorf("open exclusions file %s: %w", exclusionsFilePath, openFileError)
	}
	defer func() {
		closeError := fileHandle.Close()
		if closeError != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close %s: %v\n", exclusionsFilePath, closeError)
		}
	}()

	var configuration ExclusionConfiguration
	var currentSection *[]string
	lineNumber := 0
	scanner := bufio.NewScanner(fileHandle)
	for scanner.Scan() {
		lineNumber++
		trimmedLine := strings.TrimSpace(scanner.Text())
		if trimmedLine == "" || strings.HasPrefix(trimmedLine, commentPrefix) {
			continue
		}
		switch {
		case strings.EqualFold(trimmedLine, foldersSectionHeader):
			currentSection = startSection(&configuration.Folders)
			continue
		case strings.EqualFold(trimmedLine, filesSectionHeader):
			currentSection = startSection(&configuration.Files)
			continue
		case strings.EqualFold(trimmedLine, extensionsSectionHeader):
			currentSection = startSection(&configuration.Extensions)
			continue
		case strings.HasPrefix(trimmedLine, "["):
			return ExclusionConfiguration{}, fmt.Errorf("%s:%d: unknown section %s", exclusionsFilePath, lineNumber, trimmedLine)
		}
		if currentSection == nil {
			return ExclusionConfiguration{}, fmt.Errorf("%s:%d: entry %q appears before any section", exclusionsFilePath, lineNumber, trimmedLine)
		}
		*currentSection = append(*currentSection, exclusion.ParseList(trimmedLine)...)
	}
	if scanError := scanner.Err(); scanError != nil {
		return ExclusionConfiguration{}, fmt.Errorf("read exclusions file %s: %w", exclusionsFilePath, scanError)
	}

	configuration.Folders = dedupeSection(configuration.Folders)
	configuration.Files = dedupeSection(configuration.Files)
	configuration.Extensions = dedupeSection(configuration.Extensions)
	return configuration, nil
}

func startSection(section *[]string) *[]string {
	if *section == nil {
		*section = []string{}
	}
	return section
}

func dedupeSection(section []string) []string {
	if section == nil {
		return nil
	}
	return utils.DeduplicatePatterns(section)
}

// ExclusionSet builds the effective exclusion set, using the built-in
// default list for every list left nil.
func (config ExclusionConfiguration) ExclusionSet() exclusion.Set {
	folders := config.Folders
	if folders == nil {
		folders = exclusion.DefaultFolders
	}
	files := config.Files
	if files == nil {
		files = exclusion.DefaultFiles
	}
	extensions := config.Extensions
	if extensions == nil {
		extensions = exclusion.DefaultExtensions
	}
	return exclusion.NewSet(folders, files, extensions)
}

// RenderExclusionsFile formats lists in the layout read by LoadExclusionsFile.
func RenderExclusionsFile(config ExclusionConfiguration) string {
	var builder strings.Builder
	sections := []struct {
		header  string
		entries []string
	}{
		{header: foldersSectionHeader, entries: config.Folders},
		{header: filesSectionHeader, entries: config.Files},
		{header: extensionsSectionHeader, entries: config.Extensions},
	}
	for sectionIndex, section := range sections {
		if sectionIndex > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(section.header)
		builder.WriteString("\n")
		for _, entry := range section.entries {
			builder.WriteString(entry)
			builder.WriteString("\n")
		}
	}
	return builder.String()
}
