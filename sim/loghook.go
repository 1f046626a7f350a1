package sim

import (
	"context"
	"log/slog"
)

// A LogHook writes every hook invocation as a structured log record.
type LogHook struct {
	Logger *slog.Logger
	Level  slog.Level
}

// NewLogHook creates a LogHook that logs at debug level.
func NewLogHook(logger *slog.Logger) *LogHook {
	return &LogHook{Logger: logger, Level: slog.LevelDebug}
}

// Func logs the hook position and the item.
func (h *LogHook) Func(ctx HookCtx) {
	attrs := []any{slog.String("pos", ctx.Pos.Name)}
	if ctx.Item != nil {
		attrs = append(attrs, slog.Any("item", ctx.Item))
	}

	if ctx.Detail != nil {
		attrs = append(attrs, slog.Any("detail", ctx.Detail))
	}

	h.Logger.Log(context.Background(), h.Level, "hook", attrs...)
}
