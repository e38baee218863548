package rest

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/frahmantamala/pennytrack/internal/entry"
	"github.com/frahmantamala/pennytrack/internal/recurrence"
	"github.com/go-chi/chi"
)

const defaultUpcomingDays = 30

type addRuleRequest struct {
	Amount    json.Number `json:"amount"`
	Category  string      `json:"category"`
	Note      string      `json:"note"`
	Frequency string      `json:"frequency"`
	Start     string      `json:"start"`
}

// ruleView is a rule with the position used to delete it.
type ruleView struct {
	Position int `json:"position"`
	recurrence.Rule
}

func (h *Handler) ListRules(w http.ResponseWriter, _ *http.Request) {
	rules := h.Ledger.Rules.Rules()
	views := make([]ruleView, len(rules))
	for i, rule := range rules {
		views[i] = ruleView{Position: i + 1, Rule: rule}
	}
	h.WriteJSON(w, http.StatusOK, map[string][]ruleView{"rules": views})
}

func (h *Handler) AddRule(w http.ResponseWriter, r *http.Request) {
	var req addRuleRequest
	if err := h.DecodeJSON(w, r, &req); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	rule, err := h.Ledger.Rules.Add(recurrence.CreateRuleDTO{
		Amount:    req.Amount.String(),
		Category:  req.Category,
		Note:      req.Note,
		Frequency: req.Frequency,
		Start:     req.Start,
	})
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, ruleView{Position: len(h.Ledger.Rules.Rules()), Rule: *rule})
}

func (h *Handler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	position, err := strconv.Atoi(chi.URLParam(r, "position"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "position must be an integer")
		return
	}
	if _, err := h.Ledger.Rules.Remove(position); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RunRules(w http.ResponseWriter, r *http.Request) {
	created, err := h.Ledger.Rules.Run(r.Context(), h.Ledger.Today(r.Context()))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	added := make([]entry.Entry, len(created))
	for i, e := range created {
		added[i] = *e
	}
	h.WriteJSON(w, http.StatusOK, map[string][]entry.Entry{"added": added})
}

func (h *Handler) UpcomingRules(w http.ResponseWriter, r *http.Request) {
	days := defaultUpcomingDays
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.WriteError(w, http.StatusBadRequest, "days must be a non-negative integer")
			return
		}
		days = n
	}
	occurrences, err := h.Ledger.Rules.Upcoming(h.Ledger.Today(r.Context()), days)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if occurrences == nil {
		occurrences = []recurrence.Occurrence{}
	}
	h.WriteJSON(w, http.StatusOK, map[string][]recurrence.Occurrence{"upcoming": occurrences})
}
