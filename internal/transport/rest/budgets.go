package rest

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/frahmantamala/pennytrack/internal"
	"github.com/frahmantamala/pennytrack/internal/budget"
	"github.com/frahmantamala/pennytrack/internal/core/date"
	"github.com/go-chi/chi"
)

type setBudgetRequest struct {
	Month    string      `json:"month"`
	Category string      `json:"category"`
	Amount   json.Number `json:"amount"`
}

type budgetStatusResponse struct {
	Month date.Month    `json:"month"`
	Lines []budget.Line `json:"lines"`
}

func (h *Handler) ListBudgets(w http.ResponseWriter, _ *http.Request) {
	h.WriteJSON(w, http.StatusOK, map[string][]budget.Budget{"budgets": h.Ledger.Budgets.List()})
}

func (h *Handler) SetBudget(w http.ResponseWriter, r *http.Request) {
	var req setBudgetRequest
	if err := h.DecodeJSON(w, r, &req); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	b, err := h.Ledger.Budgets.Set(budget.SetBudgetDTO{
		Month:    req.Month,
		Category: req.Category,
		Amount:   req.Amount.String(),
	})
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) DeleteBudget(w http.ResponseWriter, r *http.Request) {
	raw, err := url.PathUnescape(chi.URLParam(r, "key"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid budget key")
		return
	}
	key, err := budget.ParseKey(raw)
	if err != nil {
		h.HandleServiceError(w, internal.NewValidationFieldError("key", err.Error(), internal.ErrCodeInvalidMonth))
		return
	}
	if err := h.Ledger.Budgets.Delete(key); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) BudgetStatus(w http.ResponseWriter, r *http.Request) {
	month, err := h.queryMonth(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	lines := h.Ledger.Budgets.MonthStatus(month)
	if lines == nil {
		lines = []budget.Line{}
	}
	h.WriteJSON(w, http.StatusOK, budgetStatusResponse{Month: month, Lines: lines})
}

// queryMonth reads ?month=YYYY-MM, defaulting to the current month.
func (h *Handler) queryMonth(r *http.Request) (date.Month, error) {
	v := r.URL.Query().Get("month")
	if v == "" {
		return h.Ledger.Today(r.Context()).Period(), nil
	}
	m, err := date.ParseMonth(v)
	if err != nil {
		return date.Month{}, internal.NewValidationFieldError("month", "month must be YYYY-MM", internal.ErrCodeInvalidMonth)
	}
	return m, nil
}
