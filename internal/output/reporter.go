package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/temirov/ctxdump/internal/services/stream"
	"github.com/temirov/ctxdump/internal/types"
)

// Mode selects how events are presented.
type Mode string

const (
	ModeAuto     Mode = "auto"
	ModeTerminal Mode = "terminal"
	ModePlain    Mode = "plain"
	ModeJSON     Mode = "json"

	errorUnknownModeFormat = "unknown progress format %q (expected auto, terminal, plain or json)"
	hookFailedFormat       = "Warning: %v"
)

// ParseMode validates a user supplied mode name.
func ParseMode(value string) (Mode, error) {
	switch mode := Mode(strings.ToLower(strings.TrimSpace(value))); mode {
	case "":
		return ModeAuto, nil
	case ModeAuto, ModeTerminal, ModePlain, ModeJSON:
		return mode, nil
	default:
		return "", fmt.Errorf(errorUnknownModeFormat, value)
	}
}

// ResolveMode replaces ModeAuto with ModeTerminal when file is a terminal and
// ModePlain otherwise.
func ResolveMode(mode Mode, file *os.File) Mode {
	if mode != ModeAuto {
		return mode
	}
	if file != nil && term.IsTerminal(int(file.Fd())) {
		return ModeTerminal
	}
	return ModePlain
}

// TerminalWidth returns the width of file in cells, or zero when unknown.
func TerminalWidth(file *os.File) int {
	if file == nil {
		return 0
	}
	width, _, err := term.GetSize(int(file.Fd()))
	if err != nil {
		return 0
	}
	return width
}

// CompletionHook runs once a document has been written. It may enrich the
// summary in place and returns an optional note for the user.
type CompletionHook func(summary *types.RunSummary) (string, error)

// ReporterOptions configures NewReporter.
type ReporterOptions struct {
	Mode   Mode
	Stderr io.Writer
	Stdout io.Writer
	// Width is the terminal width used by ModeTerminal.
	Width  int
	Logger *zap.Logger
	Hooks  []CompletionHook
}

// Reporter is the stream.Observer of the command line: it runs completion
// hooks, renders events and remembers how the run ended.
type Reporter struct {
	renderer  StreamRenderer
	hooks     []CompletionHook
	logger    *zap.Logger
	outcome   stream.RunPhase
	summary   *types.RunSummary
	lastError string
}

// NewReporter builds a Reporter for the resolved mode. ModeAuto is treated
// as ModePlain; call ResolveMode first to detect terminals.
func NewReporter(options ReporterOptions) *Reporter {
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	stderr := options.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	stdout := options.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	var renderer StreamRenderer
	switch options.Mode {
	case ModeTerminal:
		renderer = NewTerminalRenderer(stderr, options.Width)
	case ModeJSON:
		renderer = NewJSONStreamRenderer(stdout)
	default:
		renderer = NewPlainRenderer(logger)
	}
	return &Reporter{renderer: renderer, hooks: options.Hooks, logger: logger, outcome: stream.PhaseIdle}
}

// Handle implements stream.Observer.
func (reporter *Reporter) Handle(event stream.Event) {
	switch event.Kind {
	case stream.EventKindCompleted:
		if event.Summary != nil {
			summary := *event.Summary
			notes := reporter.runHooks(&summary)
			event.Summary = &summary
			reporter.summary = &summary
			reporter.renderer.Handle(event)
			for _, note := range notes {
				reporter.renderer.Handle(note)
			}
			return
		}
	case stream.EventKindError:
		reporter.lastError = event.Message
	case stream.EventKindFinished:
		reporter.outcome = event.Phase
	}
	reporter.renderer.Handle(event)
}

// Flush finalizes rendering.
func (reporter *Reporter) Flush() error {
	return reporter.renderer.Flush()
}

// Outcome is the phase carried by the finished event, or PhaseIdle before it.
func (reporter *Reporter) Outcome() stream.RunPhase {
	return reporter.outcome
}

// Summary returns the enriched summary of a completed run, or nil.
func (reporter *Reporter) Summary() *types.RunSummary {
	return reporter.summary
}

// LastError returns the message of the last error event.
func (reporter *Reporter) LastError() string {
	return reporter.lastError
}

func (reporter *Reporter) runHooks(summary *types.RunSummary) []stream.Event {
	var notes []stream.Event
	for _, hook := range reporter.hooks {
		note, err := hook(summary)
		if err != nil {
			reporter.logger.Debug("completion hook failed", zap.Error(err))
			notes = append(notes, stream.Event{
				Version: stream.SchemaVersion,
				Kind:    stream.EventKindStatus,
				Phase:   stream.PhaseCompleted,
				Level:   stream.LevelWarning,
				Message: fmt.Sprintf(hookFailedFormat, err),
			})
			continue
		}
		if note == "" {
			continue
		}
		notes = append(notes, stream.Event{
			Version: stream.SchemaVersion,
			Kind:    stream.EventKindStatus,
			Phase:   stream.PhaseCompleted,
			Level:   stream.LevelInfo,
			Message: note,
		})
	}
	return notes
}
