package rest

import (
	"database/sql"
	"log/slog"
	"net/http"
	"sync"

	"github.com/frahmantamala/pennytrack/api"
	"github.com/frahmantamala/pennytrack/internal/ledger"
	"github.com/frahmantamala/pennytrack/internal/transport/middleware"
	"github.com/frahmantamala/pennytrack/internal/transport/swagger"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi"
)

// RegisterAllRoutes mounts the ledger API on router. doc is the loaded
// OpenAPI document every /api/v1 request is validated against.
func RegisterAllRoutes(router *chi.Mux, l *ledger.Ledger, doc *openapi3.T, logger *slog.Logger) error {
	var db *sql.DB
	if l.DB() != nil {
		sqlDB, err := l.DB().DB()
		if err != nil {
			return err
		}
		db = sqlDB
	}
	healthHandler := NewHealthHandler(l.Config.Storage.Backend, db, l.Config.Storage.DataDir)
	handler := NewHandler(l, logger)

	validate, err := middleware.ValidateRequests(doc, logger)
	if err != nil {
		return err
	}

	// Apply global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	// OpenAPI document at the root, outside the API prefix
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(api.Spec)
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	var mu sync.Mutex

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Group(func(lr chi.Router) {
			lr.Use(validate)
			lr.Use(middleware.Serialize(&mu))
			lr.Use(middleware.PinToday(l.Now))

			lr.Route("/entries", func(er chi.Router) {
				er.Get("/", handler.ListEntries)
				er.Post("/", handler.AddEntry)
				er.Get("/{id}", handler.GetEntry)
				er.Patch("/{id}", handler.UpdateEntry)
				er.Delete("/{id}", handler.DeleteEntry)
			})
			lr.Get("/categories", handler.ListCategories)

			lr.Route("/budgets", func(br chi.Router) {
				br.Get("/", handler.ListBudgets)
				br.Put("/", handler.SetBudget)
				br.Get("/status", handler.BudgetStatus)
				br.Delete("/{key}", handler.DeleteBudget)
			})

			lr.Route("/recurring", func(rr chi.Router) {
				rr.Get("/", handler.ListRules)
				rr.Post("/", handler.AddRule)
				rr.Post("/run", handler.RunRules)
				rr.Get("/upcoming", handler.UpcomingRules)
				rr.Delete("/{position}", handler.DeleteRule)
			})

			lr.Route("/reports", func(pr chi.Router) {
				pr.Get("/summary", handler.MonthlySummary)
				pr.Get("/stats", handler.Statistics)
				pr.Get("/compare", handler.Compare)
			})

			lr.Get("/settings", handler.GetSettings)
			lr.Patch("/settings", handler.SetSetting)
		})
	})
	return nil
}
