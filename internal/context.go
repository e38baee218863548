package internal

import (
	"context"
	"time"
)

type ctxKey string

const ContextTodayKey ctxKey = "today"

// ContextWithToday pins the ledger's notion of "now" for everything done
// under ctx, so one request or one worker tick sees a single date.
func ContextWithToday(ctx context.Context, now time.Time) context.Context {
	return context.WithValue(ctx, ContextTodayKey, now)
}

// TodayFromContext returns the time pinned on ctx, if any.
func TodayFromContext(ctx context.Context) (time.Time, bool) {
	if ctx == nil {
		return time.Time{}, false
	}
	now, ok := ctx.Value(ContextTodayKey).(time.Time)
	return now, ok
}
