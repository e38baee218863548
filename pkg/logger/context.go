package logger

import (
	"context"
	"log/slog"
)

type ctxKey string

const loggerKey ctxKey = "logger"

// With returns ctx carrying the context logger extended with fields.
func With(ctx context.Context, fields ...any) context.Context {
	return Attach(ctx, From(ctx).With(fields...))
}

// Attach stores l in ctx as-is.
func Attach(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// From returns the logger stored in ctx, or the process logger.
func From(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
			return l
		}
	}
	return LoggerWrapper()
}
