package stream

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/ctxdump/internal/commands"
	"github.com/temirov/ctxdump/internal/document"
	"github.com/temirov/ctxdump/internal/exclusion"
	"github.com/temirov/ctxdump/internal/types"
	"github.com/temirov/ctxdump/internal/utils"
)

const (
	statusScanningFormat   = "Scanning for relevant files in %s..."
	statusFoundFormat      = "Found %d files. Writing to output..."
	statusProcessingFormat = "Processing: %s"
	statusNoFilesMessage   = "No files found to process after exclusions."
	statusStoppedMessage   = "Process stopped by user."
	statusSuccessMessage   = "Success! Project context saved."

	errorRootFormat         = "%w: %s"
	errorResolveRootFormat  = "resolving root %s: %w"
	errorCreateOutputFormat = "creating output %s: %w"
	errorCloseOutputFormat  = "closing output %s: %w"
	errorEventFormat        = "An error occurred: %v"
)

// ErrInvalidRoot is returned when the scan root is missing or not a directory.
var ErrInvalidRoot = errors.New("root directory does not exist or is not a directory")

// RunState describes one aggregation run.
type RunState struct {
	Root       string
	OutputPath string
	// Matcher decides exclusions; exclusion.DefaultSet is used when nil.
	Matcher exclusion.Matcher
	Order   commands.SortOrder
}

// Aggregator writes the project context document and reports progress to an Observer.
type Aggregator struct {
	logger   *zap.Logger
	readFile func(path string) ([]byte, error)
	now      func() time.Time
}

// NewAggregator returns an Aggregator logging diagnostics to logger.
func NewAggregator(logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{logger: logger, readFile: os.ReadFile, now: time.Now}
}

// ValidateRoot resolves root to an absolute directory path.
func ValidateRoot(root string) (string, error) {
	absoluteRoot, absoluteError := filepath.Abs(root)
	if absoluteError != nil {
		return "", fmt.Errorf(errorResolveRootFormat, root, absoluteError)
	}
	info, statError := os.Stat(absoluteRoot)
	if statError != nil || !info.IsDir() {
		return "", fmt.Errorf(errorRootFormat, ErrInvalidRoot, root)
	}
	return filepath.Clean(absoluteRoot), nil
}

// Run aggregates state.Root into state.OutputPath. An invalid root returns
// ErrInvalidRoot before any event is emitted. Otherwise the last event is
// always EventKindFinished. Cancellation of ctx is observed between files and
// ends the run in PhaseStoppedByUser with a nil error; the partial document is
// kept. The returned path is empty when nothing was written.
func (aggregator *Aggregator) Run(ctx context.Context, state RunState, observer Observer) (outputPath string, err error) {
	absoluteRoot, validationError := ValidateRoot(state.Root)
	if validationError != nil {
		return "", validationError
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if observer == nil {
		observer = nopObserver{}
	}
	emitter := &emitter{observer: observer, phase: PhaseIdle, now: aggregator.now}
	defer emitter.finish()
	defer func() {
		if err != nil {
			emitter.fail(err)
		}
	}()

	projectName := filepath.Base(absoluteRoot)
	emitter.enter(PhaseScanning)
	emitter.status(LevelInfo, fmt.Sprintf(statusScanningFormat, projectName), "")

	matcher := state.Matcher
	if matcher == nil {
		matcher = exclusion.DefaultSet()
	}
	walker := commands.NewWalker(commands.WalkOptions{
		Matcher: matcher,
		Order:   state.Order,
		Warn: func(message string) {
			aggregator.logger.Warn(message)
		},
	})

	emitter.enter(PhaseCollecting)
	scanResult, collectError := commands.NewFileCollector(walker).CollectFiles(absoluteRoot)
	if collectError != nil {
		return "", collectError
	}
	totalFiles := scanResult.Len()
	if totalFiles == 0 {
		emitter.status(LevelWarning, statusNoFilesMessage, "")
		emitter.fileCount(0)
		emitter.enter(PhaseCompleted)
		return "", nil
	}
	emitter.fileCount(totalFiles)
	emitter.status(LevelInfo, fmt.Sprintf(statusFoundFormat, totalFiles), "")

	emitter.enter(PhaseWriting)
	absoluteOutput, outputError := filepath.Abs(state.OutputPath)
	if outputError != nil {
		return "", fmt.Errorf(errorCreateOutputFormat, state.OutputPath, outputError)
	}
	outputFile, createError := os.Create(absoluteOutput)
	if createError != nil {
		return "", fmt.Errorf(errorCreateOutputFormat, absoluteOutput, createError)
	}
	buffered := bufio.NewWriter(outputFile)
	defer func() {
		flushError := buffered.Flush()
		closeError := outputFile.Close()
		if err == nil {
			if flushError == nil {
				flushError = closeError
			}
			if flushError != nil {
				outputPath = ""
				err = fmt.Errorf(errorCloseOutputFormat, absoluteOutput, flushError)
			}
		}
	}()

	writer := document.NewWriter(buffered)
	tree := commands.NewTreeRenderer(walker).Render(absoluteRoot)
	if headerError := writer.WriteHeader(projectName, tree); headerError != nil {
		return "", headerError
	}

	filesWritten := 0
	for fileIndex, entry := range scanResult.Files {
		if ctx.Err() != nil {
			emitter.enter(PhaseStoppedByUser)
			emitter.status(LevelWarning, statusStoppedMessage, "")
			return absoluteOutput, nil
		}
		emitter.status(LevelInfo, fmt.Sprintf(statusProcessingFormat, entry.RelativePath), entry.RelativePath)
		if writeError := aggregator.writeEntry(writer, entry); writeError != nil {
			return "", writeError
		}
		filesWritten++
		emitter.progress(percentComplete(fileIndex+1, totalFiles))
	}

	emitter.enter(PhaseCompleted)
	emitter.status(LevelSuccess, statusSuccessMessage, "")
	emitter.completed(types.RunSummary{
		OutputPath:   absoluteOutput,
		FilesWritten: filesWritten,
		TotalFiles:   totalFiles,
		BytesWritten: writer.BytesWritten(),
	})
	return absoluteOutput, nil
}

// writeEntry appends one file section. Read failures become inline notes;
// only failures of the document itself are returned.
func (aggregator *Aggregator) writeEntry(writer *document.Writer, entry types.FileEntry) error {
	data, readError := aggregator.readFile(entry.AbsolutePath)
	if readError != nil {
		aggregator.logger.Debug("file read failed", zap.String("path", entry.RelativePath), zap.Error(readError))
		return writer.WriteReadError(entry.RelativePath, readError)
	}
	if utils.IsBinary(data) {
		return writer.WriteBinaryFile(entry.RelativePath, entry.LanguageHint())
	}
	text, decodeError := utils.DecodeText(data)
	if decodeError != nil {
		return writer.WriteReadError(entry.RelativePath, decodeError)
	}
	return writer.WriteFile(entry.RelativePath, entry.LanguageHint(), text)
}

func percentComplete(processed int, total int) int {
	return int(math.Round(float64(processed) / float64(total) * 100))
}

type emitter struct {
	observer Observer
	phase    RunPhase
	now      func() time.Time
}

func (e *emitter) enter(phase RunPhase) {
	e.phase = phase
}

func (e *emitter) send(event Event) {
	event.Version = SchemaVersion
	event.Phase = e.phase
	event.EmittedAt = e.now().UTC()
	e.observer.Handle(event)
}

func (e *emitter) status(level Level, message string, path string) {
	e.send(Event{Kind: EventKindStatus, Level: level, Message: message, Path: path})
}

func (e *emitter) progress(percent int) {
	e.send(Event{Kind: EventKindProgress, Percent: percent})
}

func (e *emitter) fileCount(count int) {
	e.send(Event{Kind: EventKindFileCount, Count: count})
}

func (e *emitter) completed(summary types.RunSummary) {
	e.send(Event{Kind: EventKindCompleted, Level: LevelSuccess, Path: summary.OutputPath, Summary: &summary})
}

func (e *emitter) fail(err error) {
	e.enter(PhaseFailed)
	e.send(Event{Kind: EventKindError, Level: LevelError, Message: fmt.Sprintf(errorEventFormat, err)})
}

func (e *emitter) finish() {
	e.send(Event{Kind: EventKindFinished})
}
