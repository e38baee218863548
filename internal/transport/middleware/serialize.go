package middleware

import (
	"net/http"
	"sync"
)

// Serialize runs at most one request at a time. The ledger components keep
// unsynchronized in-memory state and are not safe for concurrent use.
func Serialize(mu *sync.Mutex) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			defer mu.Unlock()
			next.ServeHTTP(w, r)
		})
	}
}
