package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/temirov/ctxdump/internal/services/stream"
	"github.com/temirov/ctxdump/internal/utils"
)

const (
	defaultBarWidth    = 40
	minimumBarWidth    = 10
	pathTail           = "…"
	completedFormat    = "Saved %d of %d files (%s) to %s"
	tokensSuffixFormat = ", %d tokens (%s)"
	colorSuccess       = lipgloss.Color("#2e7d32")
	colorWarning       = lipgloss.Color("#ff8c00")
	colorError         = lipgloss.Color("#d32f2f")
	colorMuted         = lipgloss.Color("#808080")
)

type terminalRenderer struct {
	writer       io.Writer
	bar          progress.Model
	infoStyle    lipgloss.Style
	warningStyle lipgloss.Style
	successStyle lipgloss.Style
	errorStyle   lipgloss.Style
	mutedStyle   lipgloss.Style
	width        int
	currentPath  string
	barVisible   bool
	renderError  error
}

// NewTerminalRenderer draws styled status lines and a redrawn progress bar.
// width is the terminal width in cells; zero selects a default.
func NewTerminalRenderer(writer io.Writer, width int) StreamRenderer {
	styles := lipgloss.NewRenderer(writer)
	barWidth := defaultBarWidth
	if width > 0 && width/2 < barWidth {
		barWidth = max(width/2, minimumBarWidth)
	}
	return &terminalRenderer{
		writer:       writer,
		bar:          progress.New(progress.WithDefaultGradient(), progress.WithWidth(barWidth)),
		infoStyle:    styles.NewStyle(),
		warningStyle: styles.NewStyle().Foreground(colorWarning),
		successStyle: styles.NewStyle().Foreground(colorSuccess).Bold(true),
		errorStyle:   styles.NewStyle().Foreground(colorError).Bold(true),
		mutedStyle:   styles.NewStyle().Foreground(colorMuted),
		width:        width,
	}
}

func (renderer *terminalRenderer) Handle(event stream.Event) {
	switch event.Kind {
	case stream.EventKindStatus:
		if event.Path != "" {
			renderer.currentPath = event.Path
			return
		}
		renderer.line(renderer.styleFor(event.Level).Render(event.Message))
	case stream.EventKindProgress:
		renderer.drawBar(event.Percent)
	case stream.EventKindCompleted:
		summary := event.Summary
		if summary == nil {
			return
		}
		message := fmt.Sprintf(completedFormat, summary.FilesWritten, summary.TotalFiles, utils.FormatFileSize(summary.BytesWritten), summary.OutputPath)
		if summary.Tokens > 0 {
			message += fmt.Sprintf(tokensSuffixFormat, summary.Tokens, summary.Model)
		}
		renderer.line(renderer.successStyle.Render(message))
	case stream.EventKindError:
		renderer.line(renderer.errorStyle.Render(event.Message))
	case stream.EventKindFinished:
		renderer.endBar()
	}
}

func (renderer *terminalRenderer) Flush() error {
	renderer.endBar()
	return renderer.renderError
}

func (renderer *terminalRenderer) styleFor(level stream.Level) lipgloss.Style {
	switch level {
	case stream.LevelWarning:
		return renderer.warningStyle
	case stream.LevelSuccess:
		return renderer.successStyle
	case stream.LevelError:
		return renderer.errorStyle
	default:
		return renderer.infoStyle
	}
}

func (renderer *terminalRenderer) drawBar(percent int) {
	var builder strings.Builder
	builder.WriteString("\r")
	builder.WriteString(ansi.EraseEntireLine)
	builder.WriteString(renderer.bar.ViewAs(float64(percent) / 100))
	if renderer.currentPath != "" {
		builder.WriteString(" ")
		builder.WriteString(renderer.mutedStyle.Render(renderer.fitPath(renderer.currentPath)))
	}
	renderer.write(builder.String())
	renderer.barVisible = true
}

// fitPath shortens path so the bar line does not wrap.
func (renderer *terminalRenderer) fitPath(path string) string {
	if renderer.width <= 0 {
		return path
	}
	available := renderer.width - renderer.bar.Width - len(" 100% ") - 1
	if available < len(pathTail)+1 {
		return ""
	}
	return ansi.Truncate(path, available, pathTail)
}

func (renderer *terminalRenderer) line(text string) {
	renderer.endBar()
	renderer.write(text + "\n")
}

func (renderer *terminalRenderer) endBar() {
	if !renderer.barVisible {
		return
	}
	renderer.barVisible = false
	renderer.write("\n")
}

func (renderer *terminalRenderer) write(text string) {
	if renderer.renderError != nil {
		return
	}
	if _, err := io.WriteString(renderer.writer, text); err != nil {
		renderer.renderError = fmt.Errorf("writing progress: %w", err)
	}
}
