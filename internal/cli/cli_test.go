package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/temirov/ctxdump/internal/services/stream"
	"github.com/temirov/ctxdump/internal/tokenizer"
	"github.com/temirov/ctxdump/internal/types"
	"github.com/temirov/ctxdump/internal/utils"
)

type fakeCopier struct {
	copied []string
	fail   func(text string) error
}

func (copier *fakeCopier) Copy(text string) error {
	if copier.fail != nil {
		if err := copier.fail(text); err != nil {
			return err
		}
	}
	copier.copied = append(copier.copied, text)
	return nil
}

type runeCounter struct{}

func (runeCounter) Name() string { return "runes" }

func (runeCounter) CountString(input string) (int, error) { return len([]rune(input)), nil }

type commandHarness struct {
	env              environment
	stdout           *bytes.Buffer
	stderr           *bytes.Buffer
	copier           *fakeCopier
	workingDirectory string
}

func newHarness(t *testing.T) *commandHarness {
	t.Helper()
	homeDirectory := t.TempDir()
	t.Setenv("HOME", homeDirectory)
	t.Setenv("USERPROFILE", homeDirectory)
	workingDirectory := t.TempDir()
	harness := &commandHarness{
		stdout:           &bytes.Buffer{},
		stderr:           &bytes.Buffer{},
		copier:           &fakeCopier{},
		workingDirectory: workingDirectory,
	}
	harness.env = environment{
		stdout: harness.stdout,
		stderr: harness.stderr,
		logger: zap.NewNop(),
		copier: harness.copier,
		newCounter: func(tokenizer.Config) (tokenizer.Counter, string, error) {
			return runeCounter{}, "runes", nil
		},
		getwd: func() (string, error) { return workingDirectory, nil },
	}
	return harness
}

func (harness *commandHarness) execute(ctx context.Context, arguments ...string) error {
	command := createRootCommand(harness.env)
	command.SetArgs(normalizeBooleanFlagArguments(command, arguments))
	return command.ExecuteContext(ctx)
}

func (harness *commandHarness) events(t *testing.T) []stream.Event {
	t.Helper()
	var events []stream.Event
	for _, line := range strings.Split(strings.TrimSpace(harness.stdout.String()), "\n") {
		var event stream.Event
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			t.Fatalf("decode event %q: %v", line, err)
		}
		events = append(events, event)
	}
	return events
}

func writeProjectFile(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func newProject(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "proj")
	writeProjectFile(t, filepath.Join(root, "main.go"), "package main\n")
	writeProjectFile(t, filepath.Join(root, "node_modules", "dep.js"), "module.exports = 1")
	writeProjectFile(t, filepath.Join(root, "secret.txt"), "hidden")
	return root
}

func readDocument(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read document: %v", err)
	}
	return string(data)
}

func completionEvent(t *testing.T, events []stream.Event) stream.Event {
	t.Helper()
	for _, event := range events {
		if event.Kind == stream.EventKindCompleted {
			return event
		}
	}
	t.Fatalf("no completion event in %d events", len(events))
	return stream.Event{}
}

func TestRootCommandWritesDocumentAndCopies(t *testing.T) {
	harness := newHarness(t)
	root := newProject(t)
	outputPath := filepath.Join(t.TempDir(), "context.md")

	if err := harness.execute(context.Background(), root, "-o", outputPath, "--progress", "json", "--copy"); err != nil {
		t.Fatalf("execute: %v", err)
	}

	document := readDocument(t, outputPath)
	if !strings.HasPrefix(document, "# Project Context for: proj\n") {
		t.Fatalf("unexpected document header:\n%s", document)
	}
	if strings.Contains(document, "node_modules") {
		t.Fatalf("default exclusions were not applied")
	}
	if !strings.Contains(document, "--- START OF FILE: main.go ---\n```go\npackage main\n```") {
		t.Fatalf("missing main.go section:\n%s", document)
	}
	if len(harness.copier.copied) != 1 || harness.copier.copied[0] != document {
		t.Fatalf("expected the document on the clipboard")
	}

	events := harness.events(t)
	if events[len(events)-1].Kind != stream.EventKindFinished {
		t.Fatalf("expected finished last")
	}
	completed := completionEvent(t, events)
	if completed.Summary == nil || completed.Summary.FilesWritten != 2 || completed.Summary.OutputPath != outputPath {
		t.Fatalf("unexpected summary %+v", completed.Summary)
	}
}

func TestRootCommandReportsTokenEstimate(t *testing.T) {
	harness := newHarness(t)
	root := newProject(t)
	outputPath := filepath.Join(t.TempDir(), "context.md")

	if err := harness.execute(context.Background(), root, "--output", outputPath, "--progress=json", "--tokens"); err != nil {
		t.Fatalf("execute: %v", err)
	}
	document := readDocument(t, outputPath)
	completed := completionEvent(t, harness.events(t))
	if completed.Summary.Tokens != len([]rune(document)) || completed.Summary.Model != "runes" {
		t.Fatalf("unexpected token estimate %+v", completed.Summary)
	}
}

func TestRootCommandRejectsInvalidRoot(t *testing.T) {
	harness := newHarness(t)
	outputPath := filepath.Join(t.TempDir(), "context.md")
	err := harness.execute(context.Background(), filepath.Join(t.TempDir(), "missing"), "-o", outputPath, "--progress", "json")
	if !errors.Is(err, stream.ErrInvalidRoot) {
		t.Fatalf("expected ErrInvalidRoot, got %v", err)
	}
	if harness.stdout.Len() != 0 {
		t.Fatalf("expected no events, got %s", harness.stdout.String())
	}
	if _, statErr := os.Stat(outputPath); !os.IsNotExist(statErr) {
		t.Fatalf("expected no output file")
	}
}

func TestRootCommandExclusionFlagsReplaceDefaults(t *testing.T) {
	harness := newHarness(t)
	root := newProject(t)
	outputPath := filepath.Join(t.TempDir(), "context.md")

	if err := harness.execute(context.Background(), root, "-o", outputPath, "--progress", "json", "--exclude-folders=", "--exclude-files", "secret.txt"); err != nil {
		t.Fatalf("execute: %v", err)
	}
	document := readDocument(t, outputPath)
	if !strings.Contains(document, "--- START OF FILE: node_modules/dep.js ---") {
		t.Fatalf("expected node_modules once folder defaults are replaced:\n%s", document)
	}
	if strings.Contains(document, "secret.txt") {
		t.Fatalf("expected secret.txt to be excluded")
	}
}

func TestRootCommandSplitsWhitespaceSeparatedExclusions(t *testing.T) {
	harness := newHarness(t)
	root := newProject(t)
	writeProjectFile(t, filepath.Join(root, "vendor", "lib.go"), "package lib")
	outputPath := filepath.Join(t.TempDir(), "context.md")

	if err := harness.execute(context.Background(), root, "-o", outputPath, "--progress", "json", "--exclude-folders", "vendor node_modules"); err != nil {
		t.Fatalf("execute: %v", err)
	}
	document := readDocument(t, outputPath)
	if strings.Contains(document, "vendor") || strings.Contains(document, "node_modules") {
		t.Fatalf("expected both folders to be excluded:\n%s", document)
	}
}

func TestRootCommandCopiesWhenConfigurationEnablesClipboard(t *testing.T) {
	harness := newHarness(t)
	root := newProject(t)
	outputPath := filepath.Join(t.TempDir(), "context.md")
	writeProjectFile(t, filepath.Join(harness.workingDirectory, utils.ConfigFileName), "clipboard: true\n")

	if err := harness.execute(context.Background(), root, "-o", outputPath, "--progress", "json"); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(harness.copier.copied) != 1 || harness.copier.copied[0] != readDocument(t, outputPath) {
		t.Fatalf("expected the configured clipboard copy, got %d copies", len(harness.copier.copied))
	}
}

func TestRootCommandUsesConfigurationAndExclusionsFile(t *testing.T) {
	harness := newHarness(t)
	root := newProject(t)
	writeProjectFile(t, filepath.Join(root, "notes.md"), "# Notes")
	configuredOutput := filepath.Join(t.TempDir(), "configured.md")
	configuration := "output: " + configuredOutput + "\nprogress: json\nclipboard: true\nexclusions:\n  files: [secret.txt]\n"
	writeProjectFile(t, filepath.Join(harness.workingDirectory, utils.ConfigFileName), configuration)
	exclusionsPath := filepath.Join(t.TempDir(), "exclusions.txt")
	writeProjectFile(t, exclusionsPath, "[extensions]\ngo\n")

	if err := harness.execute(context.Background(), root, "--exclusions-file", exclusionsPath, "--copy=false"); err != nil {
		t.Fatalf("execute: %v", err)
	}
	document := readDocument(t, configuredOutput)
	if strings.Contains(document, "main.go") || strings.Contains(document, "secret.txt") || strings.Contains(document, "node_modules") {
		t.Fatalf("unexpected entries in document:\n%s", document)
	}
	if !strings.Contains(document, "--- START OF FILE: notes.md ---\n```md\n# Notes\n```") {
		t.Fatalf("missing notes.md section:\n%s", document)
	}
	if len(harness.copier.copied) != 0 {
		t.Fatalf("--copy=false must override the configuration")
	}
	completed := completionEvent(t, harness.events(t))
	if completed.Summary.TotalFiles != 1 {
		t.Fatalf("expected one aggregated file, got %+v", completed.Summary)
	}
}

func TestRootCommandHonorsGitignore(t *testing.T) {
	harness := newHarness(t)
	root := newProject(t)
	writeProjectFile(t, filepath.Join(root, ".gitignore"), "secret.txt\n")
	outputPath := filepath.Join(t.TempDir(), "context.md")

	if err := harness.execute(context.Background(), root, "-o", outputPath, "--progress", "json", "--gitignore"); err != nil {
		t.Fatalf("execute: %v", err)
	}
	document := readDocument(t, outputPath)
	if strings.Contains(document, "secret.txt") {
		t.Fatalf("expected .gitignore entries to be skipped:\n%s", document)
	}
	if !strings.Contains(document, "--- START OF FILE: .gitignore ---") {
		t.Fatalf("expected .gitignore itself to be aggregated")
	}
}

func TestRootCommandStoppedRunKeepsPartialDocument(t *testing.T) {
	harness := newHarness(t)
	root := newProject(t)
	outputPath := filepath.Join(t.TempDir(), "context.md")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := harness.execute(ctx, root, "-o", outputPath, "--progress", "json"); err != nil {
		t.Fatalf("a stopped run is not an error: %v", err)
	}
	document := readDocument(t, outputPath)
	if !strings.HasSuffix(document, "## File Contents\n\n") {
		t.Fatalf("expected only the header in the partial document:\n%s", document)
	}
	events := harness.events(t)
	last := events[len(events)-1]
	if last.Kind != stream.EventKindFinished || last.Phase != stream.PhaseStoppedByUser {
		t.Fatalf("unexpected final event %+v", last)
	}
}

func TestRootCommandRejectsUnknownProgressFormat(t *testing.T) {
	harness := newHarness(t)
	root := newProject(t)
	if err := harness.execute(context.Background(), root, "--progress", "xml"); err == nil {
		t.Fatalf("expected error for unknown progress format")
	}
}

func TestDefaultsCommandPrintsExclusionsFile(t *testing.T) {
	harness := newHarness(t)
	if err := harness.execute(context.Background(), "defaults"); err != nil {
		t.Fatalf("execute: %v", err)
	}
	printed := harness.stdout.String()
	if !strings.HasPrefix(printed, "[folders]\nnode_modules\n") || !strings.Contains(printed, "\n[extensions]\n.png\n") {
		t.Fatalf("unexpected defaults output:\n%s", printed)
	}
}

func TestInitCommandWritesConfiguration(t *testing.T) {
	harness := newHarness(t)
	if err := harness.execute(context.Background(), "init"); err != nil {
		t.Fatalf("execute: %v", err)
	}
	expectedPath := filepath.Join(harness.workingDirectory, utils.ConfigFileName)
	if !strings.Contains(harness.stdout.String(), expectedPath) {
		t.Fatalf("expected path in output, got %q", harness.stdout.String())
	}
	if err := harness.execute(context.Background(), "init"); err == nil {
		t.Fatalf("expected error when the configuration exists")
	}
	if err := harness.execute(context.Background(), "init", "--force"); err != nil {
		t.Fatalf("expected --force to overwrite: %v", err)
	}
}

func TestVersionFlagPrintsVersion(t *testing.T) {
	harness := newHarness(t)
	if err := harness.execute(context.Background(), "--version"); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.HasPrefix(harness.stdout.String(), "ctxdump version: ") {
		t.Fatalf("unexpected version output %q", harness.stdout.String())
	}
}

func TestDefaultOutputPathPrefersDownloads(t *testing.T) {
	homeDirectory := t.TempDir()
	t.Setenv("HOME", homeDirectory)
	t.Setenv("USERPROFILE", homeDirectory)
	if path := defaultOutputPath(); path != filepath.Join(homeDirectory, types.DefaultOutputFileName) {
		t.Fatalf("expected home fallback, got %s", path)
	}
	if err := os.Mkdir(filepath.Join(homeDirectory, "Downloads"), 0o755); err != nil {
		t.Fatalf("mkdir Downloads: %v", err)
	}
	if path := defaultOutputPath(); path != filepath.Join(homeDirectory, "Downloads", types.DefaultOutputFileName) {
		t.Fatalf("expected Downloads path, got %s", path)
	}
	if expanded := expandHome("~/out.md"); expanded != filepath.Join(homeDirectory, "out.md") {
		t.Fatalf("unexpected expansion %s", expanded)
	}
}

func TestClipboardHookFallsBackToPath(t *testing.T) {
	harness := newHarness(t)
	missingDocument := filepath.Join(t.TempDir(), "missing.md")
	hook := clipboardHook(harness.env)

	_, err := hook(&types.RunSummary{OutputPath: missingDocument})
	if err == nil || !strings.Contains(err.Error(), "copied the output path instead") {
		t.Fatalf("expected fallback error, got %v", err)
	}
	if len(harness.copier.copied) != 1 || harness.copier.copied[0] != missingDocument {
		t.Fatalf("expected the path on the clipboard, got %v", harness.copier.copied)
	}
}
