package output

import (
	"go.uber.org/zap"

	"github.com/temirov/ctxdump/internal/services/stream"
)

type plainRenderer struct {
	logger *zap.Logger
}

// NewPlainRenderer logs every event through logger. It is used when the
// destination is not a terminal.
func NewPlainRenderer(logger *zap.Logger) StreamRenderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &plainRenderer{logger: logger}
}

func (renderer *plainRenderer) Handle(event stream.Event) {
	phase := zap.String("phase", string(event.Phase))
	switch event.Kind {
	case stream.EventKindStatus:
		fields := []zap.Field{phase}
		if event.Path != "" {
			fields = append(fields, zap.String("path", event.Path))
		}
		if event.Level == stream.LevelWarning {
			renderer.logger.Warn(event.Message, fields...)
			return
		}
		renderer.logger.Info(event.Message, fields...)
	case stream.EventKindProgress:
		renderer.logger.Debug("progress", zap.Int("percent", event.Percent))
	case stream.EventKindFileCount:
		renderer.logger.Info("files collected", zap.Int("count", event.Count))
	case stream.EventKindCompleted:
		fields := []zap.Field{zap.String("output", event.Path)}
		if summary := event.Summary; summary != nil {
			fields = append(fields,
				zap.Int("files", summary.FilesWritten),
				zap.Int64("bytes", summary.BytesWritten),
			)
			if summary.Tokens > 0 {
				fields = append(fields, zap.Int("tokens", summary.Tokens), zap.String("model", summary.Model))
			}
		}
		renderer.logger.Info("document written", fields...)
	case stream.EventKindError:
		renderer.logger.Error(event.Message, phase)
	case stream.EventKindFinished:
		renderer.logger.Debug("finished", phase)
	}
}

func (renderer *plainRenderer) Flush() error {
	return nil
}
