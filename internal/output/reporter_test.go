package output_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/ctxdump/internal/output"
	"github.com/temirov/ctxdump/internal/services/stream"
	"github.com/temirov/ctxdump/internal/types"
)

func completedRun() []stream.Event {
	return []stream.Event{
		{Kind: stream.EventKindStatus, Phase: stream.PhaseScanning, Level: stream.LevelInfo, Message: "Scanning for relevant files in demo..."},
		{Kind: stream.EventKindFileCount, Phase: stream.PhaseCollecting, Count: 2},
		{Kind: stream.EventKindStatus, Phase: stream.PhaseCollecting, Level: stream.LevelInfo, Message: "Found 2 files. Writing to output..."},
		{Kind: stream.EventKindStatus, Phase: stream.PhaseWriting, Level: stream.LevelInfo, Message: "Processing: a.go", Path: "a.go"},
		{Kind: stream.EventKindProgress, Phase: stream.PhaseWriting, Percent: 50},
		{Kind: stream.EventKindStatus, Phase: stream.PhaseWriting, Level: stream.LevelInfo, Message: "Processing: b.go", Path: "b.go"},
		{Kind: stream.EventKindProgress, Phase: stream.PhaseWriting, Percent: 100},
		{Kind: stream.EventKindStatus, Phase: stream.PhaseCompleted, Level: stream.LevelSuccess, Message: "Success! Project context saved."},
		{
			Kind:    stream.EventKindCompleted,
			Phase:   stream.PhaseCompleted,
			Path:    "/tmp/out.md",
			Summary: &types.RunSummary{OutputPath: "/tmp/out.md", FilesWritten: 2, TotalFiles: 2, BytesWritten: 2048},
		},
		{Kind: stream.EventKindFinished, Phase: stream.PhaseCompleted},
	}
}

func TestParseMode(testingHandle *testing.T) {
	testCases := []struct {
		input    string
		expected output.Mode
		failure  bool
	}{
		{input: "", expected: output.ModeAuto},
		{input: "JSON", expected: output.ModeJSON},
		{input: " plain ", expected: output.ModePlain},
		{input: "terminal", expected: output.ModeTerminal},
		{input: "xml", failure: true},
	}
	for _, testCase := range testCases {
		mode, err := output.ParseMode(testCase.input)
		if testCase.failure {
			if err == nil {
				testingHandle.Fatalf("expected error for %q", testCase.input)
			}
			continue
		}
		if err != nil || mode != testCase.expected {
			testingHandle.Fatalf("ParseMode(%q) = %q, %v", testCase.input, mode, err)
		}
	}
}

func TestResolveModeWithoutTerminal(testingHandle *testing.T) {
	if mode := output.ResolveMode(output.ModeAuto, nil); mode != output.ModePlain {
		testingHandle.Fatalf("expected plain mode, got %s", mode)
	}
	if mode := output.ResolveMode(output.ModeJSON, nil); mode != output.ModeJSON {
		testingHandle.Fatalf("explicit mode must be kept, got %s", mode)
	}
}

func TestTerminalReporterRendersStatusAndBar(testingHandle *testing.T) {
	var stderr bytes.Buffer
	reporter := output.NewReporter(output.ReporterOptions{Mode: output.ModeTerminal, Stderr: &stderr})
	for _, event := range completedRun() {
		reporter.Handle(event)
	}
	if err := reporter.Flush(); err != nil {
		testingHandle.Fatalf("flush: %v", err)
	}

	rendered := stderr.String()
	for _, fragment := range []string{
		"Scanning for relevant files in demo...\n",
		"Found 2 files. Writing to output...\n",
		"100%",
		"b.go",
		"Success! Project context saved.\n",
		"Saved 2 of 2 files (2kb) to /tmp/out.md\n",
	} {
		if !strings.Contains(rendered, fragment) {
			testingHandle.Fatalf("expected %q in output:\n%s", fragment, rendered)
		}
	}
	if strings.Contains(rendered, "Processing: a.go\n") {
		testingHandle.Fatalf("per-file statuses belong on the progress line")
	}
	if reporter.Outcome() != stream.PhaseCompleted {
		testingHandle.Fatalf("unexpected outcome %s", reporter.Outcome())
	}
}

func TestReporterRunsCompletionHooks(testingHandle *testing.T) {
	var stderr bytes.Buffer
	tokenHook := func(summary *types.RunSummary) (string, error) {
		summary.Tokens = 42
		summary.Model = "stub"
		return "", nil
	}
	copyHook := func(summary *types.RunSummary) (string, error) {
		return "", errors.New("clipboard unavailable")
	}
	noteHook := func(summary *types.RunSummary) (string, error) {
		return "Copied to clipboard.", nil
	}
	reporter := output.NewReporter(output.ReporterOptions{
		Mode:   output.ModeTerminal,
		Stderr: &stderr,
		Hooks:  []output.CompletionHook{tokenHook, copyHook, noteHook},
	})
	for _, event := range completedRun() {
		reporter.Handle(event)
	}

	rendered := stderr.String()
	for _, fragment := range []string{", 42 tokens (stub)", "Warning: clipboard unavailable", "Copied to clipboard."} {
		if !strings.Contains(rendered, fragment) {
			testingHandle.Fatalf("expected %q in output:\n%s", fragment, rendered)
		}
	}
	summary := reporter.Summary()
	if summary == nil || summary.Tokens != 42 {
		testingHandle.Fatalf("expected enriched summary, got %+v", summary)
	}
}

func TestPlainReporterLogsEvents(testingHandle *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	reporter := output.NewReporter(output.ReporterOptions{Mode: output.ModePlain, Logger: zap.New(core)})
	events := completedRun()
	events = append(events[:len(events)-1],
		stream.Event{Kind: stream.EventKindError, Phase: stream.PhaseFailed, Level: stream.LevelError, Message: "An error occurred: boom"},
		stream.Event{Kind: stream.EventKindFinished, Phase: stream.PhaseFailed},
	)
	for _, event := range events {
		reporter.Handle(event)
	}

	if logs.FilterMessage("Processing: a.go").FilterField(zap.String("path", "a.go")).Len() != 1 {
		testingHandle.Fatalf("expected per-file status entry")
	}
	if logs.FilterMessage("document written").FilterField(zap.Int("files", 2)).Len() != 1 {
		testingHandle.Fatalf("expected completion entry")
	}
	errorEntries := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	if len(errorEntries) != 1 || errorEntries[0].Message != "An error occurred: boom" {
		testingHandle.Fatalf("unexpected error entries: %+v", errorEntries)
	}
	if reporter.Outcome() != stream.PhaseFailed || reporter.LastError() != "An error occurred: boom" {
		testingHandle.Fatalf("unexpected outcome %s / %s", reporter.Outcome(), reporter.LastError())
	}
}

func TestJSONReporterWritesOneObjectPerEvent(testingHandle *testing.T) {
	var stdout bytes.Buffer
	reporter := output.NewReporter(output.ReporterOptions{Mode: output.ModeJSON, Stdout: &stdout})
	events := completedRun()
	for _, event := range events {
		reporter.Handle(event)
	}
	if err := reporter.Flush(); err != nil {
		testingHandle.Fatalf("flush: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	if len(lines) != len(events) {
		testingHandle.Fatalf("expected %d lines, got %d", len(events), len(lines))
	}
	var last stream.Event
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &last); err != nil {
		testingHandle.Fatalf("decode last line: %v", err)
	}
	if last.Kind != stream.EventKindFinished || last.Phase != stream.PhaseCompleted {
		testingHandle.Fatalf("unexpected last event %+v", last)
	}
	var completed stream.Event
	if err := json.Unmarshal([]byte(lines[len(lines)-2]), &completed); err != nil {
		testingHandle.Fatalf("decode completion line: %v", err)
	}
	if completed.Summary == nil || completed.Summary.BytesWritten != 2048 {
		testingHandle.Fatalf("unexpected summary %+v", completed.Summary)
	}
}
