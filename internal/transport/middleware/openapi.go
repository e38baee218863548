package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/pennytrack/internal"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
)

// ValidateRequests checks every request that matches an operation of doc
// against its parameters and body schema. Requests for paths the document
// does not describe pass through untouched.
func ValidateRequests(doc *openapi3.T, logger *slog.Logger) (func(http.Handler) http.Handler, error) {
	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, err
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, pathParams, err := router.FindRoute(r)
			if err != nil {
				if errors.Is(err, routers.ErrPathNotFound) || errors.Is(err, routers.ErrMethodNotAllowed) {
					next.ServeHTTP(w, r)
					return
				}
				writeValidationError(w, logger, err)
				return
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: pathParams,
				Route:      route,
				Options: &openapi3filter.Options{
					AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
					MultiError:         false,
				},
			}
			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				writeValidationError(w, logger, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}, nil
}

func writeValidationError(w http.ResponseWriter, logger *slog.Logger, err error) {
	logger.Debug("request rejected by schema", "error", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(internal.Response{
		Error: internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed),
	})
}
