package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/pennytrack/internal"
	"github.com/frahmantamala/pennytrack/pkg/logger"
)

// maxBodyBytes bounds every request body.
const maxBodyBytes = 1 << 20

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger *slog.Logger
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
		if lg == nil {
			lg = slog.Default()
		}
	}
	return &BaseHandler{Logger: lg}
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes an error response in the same envelope as AppError.
func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	h.Logger.Warn("http error", "status", status, "message", message)
	h.WriteJSON(w, status, internal.Response{Error: &internal.AppError{
		Type:    internal.ErrorTypeValidation,
		Code:    internal.ErrCodeValidationFailed,
		Message: message,
	}})
}

// HandleServiceError maps an error from the ledger to its HTTP status. Errors
// that are not AppErrors become 500 without exposing their text.
func (h *BaseHandler) HandleServiceError(w http.ResponseWriter, err error) {
	if appErr, ok := internal.IsAppError(err); ok {
		status, body := appErr.ToHTTPResponse()
		if status == 0 {
			status = http.StatusInternalServerError
		}
		if status >= http.StatusInternalServerError {
			h.Logger.Error("service error", "error", err)
		}
		h.WriteJSON(w, status, body)
		return
	}

	h.Logger.Error("unexpected service error", "error", err)
	h.WriteJSON(w, http.StatusInternalServerError, internal.Response{
		Error: internal.NewInternalError("internal server error", nil),
	})
}

// DecodeJSON reads a JSON body into dst, rejecting unknown fields.
func (h *BaseHandler) DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
