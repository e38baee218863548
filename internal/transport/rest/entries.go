package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/frahmantamala/pennytrack/internal"
	"github.com/frahmantamala/pennytrack/internal/budget"
	"github.com/frahmantamala/pennytrack/internal/core/date"
	"github.com/frahmantamala/pennytrack/internal/entry"
	"github.com/frahmantamala/pennytrack/internal/ledger"
	"github.com/frahmantamala/pennytrack/internal/recurrence"
	"github.com/frahmantamala/pennytrack/internal/report"
	"github.com/frahmantamala/pennytrack/internal/transport"
	"github.com/go-chi/chi"
	"github.com/shopspring/decimal"
)

// Handler serves the ledger API. Requests reach it one at a time.
type Handler struct {
	*transport.BaseHandler
	Ledger *ledger.Ledger
}

func NewHandler(l *ledger.Ledger, lg *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Ledger:      l,
	}
}

type addEntryRequest struct {
	Amount    json.Number `json:"amount"`
	Date      string      `json:"date"`
	Category  string      `json:"category"`
	Note      string      `json:"note"`
	Type      entry.Kind  `json:"type"`
	Recurring string      `json:"recurring"`
}

type addEntryResponse struct {
	Entry *entry.Entry     `json:"entry"`
	Alert *budget.Alert    `json:"alert"`
	Rule  *recurrence.Rule `json:"rule"`
}

type updateEntryRequest struct {
	Amount   *json.Number `json:"amount"`
	Date     *string      `json:"date"`
	Category *string      `json:"category"`
	Note     *string      `json:"note"`
	Type     *entry.Kind  `json:"type"`
}

type entryListResponse struct {
	Entries []entry.Entry `json:"entries"`
	Totals  report.Totals `json:"totals"`
}

func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	preds, err := entryFilter(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	entries := h.Ledger.Entries.Query(preds...)
	h.WriteJSON(w, http.StatusOK, entryListResponse{Entries: entries, Totals: report.Totalize(entries)})
}

func (h *Handler) AddEntry(w http.ResponseWriter, r *http.Request) {
	var req addEntryRequest
	if err := h.DecodeJSON(w, r, &req); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	added, rule, err := h.Ledger.AddEntry(r.Context(), entry.CreateEntryDTO{
		Date:     req.Date,
		Amount:   req.Amount.String(),
		Category: req.Category,
		Note:     req.Note,
		Kind:     req.Type,
	}, req.Recurring)
	if err != nil {
		h.Logger.Debug("AddEntry: rejected", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	resp := addEntryResponse{Entry: added, Rule: rule}
	if alert, ok := h.Ledger.Budgets.Check(*added); ok {
		resp.Alert = alert
	}
	h.WriteJSON(w, http.StatusCreated, resp)
}

func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	e, err := h.Ledger.Entries.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	var req updateEntryRequest
	if err := h.DecodeJSON(w, r, &req); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	dto := entry.UpdateEntryDTO{
		Date:     req.Date,
		Category: req.Category,
		Note:     req.Note,
		Kind:     req.Type,
	}
	if req.Amount != nil {
		amount := req.Amount.String()
		dto.Amount = &amount
	}
	if dto.IsEmpty() {
		h.WriteError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	updated, err := h.Ledger.Entries.Update(r.Context(), chi.URLParam(r, "id"), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := h.Ledger.Entries.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListCategories(w http.ResponseWriter, _ *http.Request) {
	h.WriteJSON(w, http.StatusOK, map[string][]string{
		"categories": h.Ledger.Entries.Categories(),
		"recent":     h.Ledger.Entries.RecentCategories(10),
	})
}

// entryFilter turns the query string of GET /entries into predicates.
func entryFilter(r *http.Request) ([]entry.Predicate, error) {
	q := r.URL.Query()
	var preds []entry.Predicate

	if v := q.Get("month"); v != "" {
		m, err := date.ParseMonth(v)
		if err != nil {
			return nil, internal.NewValidationFieldError("month", "month must be YYYY-MM", internal.ErrCodeInvalidMonth)
		}
		preds = append(preds, entry.InMonth(m))
	}
	if v := q.Get("category"); v != "" {
		preds = append(preds, entry.CategoryFold(v))
	}
	if v := q.Get("type"); v != "" {
		preds = append(preds, entry.OfKind(entry.Kind(strings.ToLower(v))))
	}

	from, err := queryDate(q.Get("from"), "from")
	if err != nil {
		return nil, err
	}
	to, err := queryDate(q.Get("to"), "to")
	if err != nil {
		return nil, err
	}
	if !from.IsZero() || !to.IsZero() {
		preds = append(preds, entry.Between(from, to))
	}

	lo, err := queryAmount(q.Get("min"), "min")
	if err != nil {
		return nil, err
	}
	hi, err := queryAmount(q.Get("max"), "max")
	if err != nil {
		return nil, err
	}
	if lo != nil || hi != nil {
		preds = append(preds, entry.AmountBetween(lo, hi))
	}

	if v := q.Get("note"); v != "" {
		fuzzy, _ := strconv.ParseBool(q.Get("fuzzy"))
		if fuzzy {
			preds = append(preds, entry.NoteMatches(v))
		} else {
			preds = append(preds, entry.NoteContains(v))
		}
	}
	return preds, nil
}

func queryDate(v, field string) (date.Date, error) {
	if v == "" {
		return date.Date{}, nil
	}
	d, err := date.Parse(v)
	if err != nil {
		return date.Date{}, internal.NewValidationFieldError(field, field+" must be YYYY-MM-DD", internal.ErrCodeInvalidDate)
	}
	return d, nil
}

func queryAmount(v, field string) (*decimal.Decimal, error) {
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, internal.NewValidationFieldError(field, field+" must be a number", internal.ErrCodeInvalidAmount)
	}
	return &d, nil
}
