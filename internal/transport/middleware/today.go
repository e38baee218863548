package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/frahmantamala/pennytrack/internal"
)

// PinToday fixes the ledger date for the rest of the request, so an entry and
// the budget check that follows it agree on the month.
func PinToday(now func(context.Context) time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := internal.ContextWithToday(r.Context(), now(r.Context()))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
