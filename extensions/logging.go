package extensions

import (
	"context"
	"errors"
	"log/slog"
	"time"

	vitel "github.com/pumped-fn/vitel-go"
)

// LoggingExtension logs all operations
type LoggingExtension struct {
	vitel.BaseExtension
	logger *slog.Logger
}

// NewLoggingExtension creates a new logging extension. A nil logger logs
// through the app logger.
func NewLoggingExtension(logger *slog.Logger) *LoggingExtension {
	return &LoggingExtension{
		BaseExtension: vitel.NewBaseExtension("logging"),
		logger:        logger,
	}
}

func (e *LoggingExtension) Init(app *vitel.App) error {
	if e.logger == nil {
		e.logger = app.Logger()
	}
	e.logger = e.logger.With("extension", e.Name())
	return nil
}

func (e *LoggingExtension) Wrap(ctx context.Context, next func() (any, error), op *vitel.Operation) (any, error) {
	start := time.Now()
	e.logger.DebugContext(ctx, "operation starting", "op", op.Kind, "name", op.Name)
	result, err := next()

	duration := time.Since(start)
	if err != nil {
		e.logger.ErrorContext(ctx, "operation failed", "op", op.Kind, "name", op.Name, "duration", duration, "error", err)
	} else {
		e.logger.InfoContext(ctx, "operation completed", "op", op.Kind, "name", op.Name, "duration", duration)
	}

	return result, err
}

// OnError reports lifecycle failures. Wrap already reports failed operations.
func (e *LoggingExtension) OnError(err error, op *vitel.Operation, app *vitel.App) {
	if op.Kind != vitel.OpLifecycle {
		return
	}

	attrs := []any{"service", op.Name, "error", err}
	var lerr *vitel.LifecycleInitError
	if errors.As(err, &lerr) {
		attrs = append(attrs, "stage", lerr.Stage)
	}
	e.logger.Warn("service lifecycle failed", attrs...)
}
