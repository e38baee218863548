package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/frahmantamala/pennytrack/internal"
	"github.com/frahmantamala/pennytrack/internal/transport/middleware"
	"github.com/frahmantamala/pennytrack/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestMiddleware(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Middleware Suite")
}

var _ = Describe("RecoveryMiddleware", func() {
	It("should turn a panic into a 500 JSON response", func() {
		h := middleware.RecoveryMiddleware(logger.Discard())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/entries", nil))

		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		Expect(rec.Header().Get("Content-Type")).To(Equal("application/json"))
		Expect(rec.Body.String()).To(ContainSubstring("internal server error"))
	})
})

var _ = Describe("RequestID", func() {
	It("should echo the caller's id or mint one", func() {
		h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set(middleware.RequestIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		Expect(rec.Header().Get(middleware.RequestIDHeader)).To(Equal("abc-123"))

		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		Expect(rec.Header().Get(middleware.RequestIDHeader)).To(HaveLen(36))
	})
})

var _ = Describe("Serialize", func() {
	It("should never run two requests at once", func() {
		var inFlight, peak int32
		h := middleware.Serialize(&sync.Mutex{})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			atomic.AddInt32(&inFlight, -1)
		}))

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/entries", nil))
			}()
		}
		wg.Wait()
		Expect(atomic.LoadInt32(&peak)).To(Equal(int32(1)))
	})
})

var _ = Describe("PinToday", func() {
	It("should pin one date for the whole request", func() {
		fixed := time.Date(2024, time.February, 29, 23, 59, 0, 0, time.UTC)
		var seen time.Time
		var pinned bool
		h := middleware.PinToday(func(context.Context) time.Time { return fixed })(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			seen, pinned = internal.TodayFromContext(r.Context())
		}))

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/entries", nil))
		Expect(pinned).To(BeTrue())
		Expect(seen).To(Equal(fixed))
	})
})
