package rest

import (
	"net/http"

	"github.com/frahmantamala/pennytrack/internal"
	"github.com/frahmantamala/pennytrack/internal/report"
	"github.com/frahmantamala/pennytrack/internal/settings"
)

type settingRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type settingsResponse struct {
	Settings settings.Settings `json:"settings"`
	Extra    []string          `json:"extra_keys,omitempty"`
}

func (h *Handler) MonthlySummary(w http.ResponseWriter, r *http.Request) {
	month, err := h.queryMonth(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	summary := report.Monthly(month, h.Ledger.Entries.All(), h.Ledger.Budgets.MonthStatus(month))
	h.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) Statistics(w http.ResponseWriter, _ *http.Request) {
	stats, ok := report.Stats(h.Ledger.Entries.All())
	if !ok {
		h.WriteJSON(w, http.StatusOK, map[string]int{"expense_count": 0})
		return
	}
	h.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var current, base report.Period
	if q.Get("from") != "" || q.Get("base_from") != "" {
		var err error
		if current, err = h.rangeParam(q.Get("from"), q.Get("to")); err != nil {
			h.HandleServiceError(w, err)
			return
		}
		if base, err = h.rangeParam(q.Get("base_from"), q.Get("base_to")); err != nil {
			h.HandleServiceError(w, err)
			return
		}
	} else {
		month, err := h.queryMonth(r)
		if err != nil {
			h.HandleServiceError(w, err)
			return
		}
		current = report.MonthPeriod(month)
		base = report.MonthPeriod(month.Previous())
		if q.Get("against") == "year" {
			base = report.MonthPeriod(month.YearAgo())
		}
	}

	h.WriteJSON(w, http.StatusOK, report.Compare(h.Ledger.Entries.All(), current, base))
}

func (h *Handler) rangeParam(from, to string) (report.Period, error) {
	f, err := queryDate(from, "from")
	if err != nil {
		return report.Period{}, err
	}
	t, err := queryDate(to, "to")
	if err != nil {
		return report.Period{}, err
	}
	if f.IsZero() || t.IsZero() || t.Before(f) {
		return report.Period{}, internal.NewValidationError("a range needs from <= to", internal.ErrCodeInvalidDate)
	}
	return report.Period{Label: f.String() + " to " + t.String(), From: f, To: t}, nil
}

func (h *Handler) GetSettings(w http.ResponseWriter, _ *http.Request) {
	h.WriteJSON(w, http.StatusOK, settingsResponse{
		Settings: h.Ledger.Settings.Settings(),
		Extra:    h.Ledger.Settings.Extra(),
	})
}

func (h *Handler) SetSetting(w http.ResponseWriter, r *http.Request) {
	var req settingRequest
	if err := h.DecodeJSON(w, r, &req); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.Ledger.Settings.Set(req.Key, req.Value); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.GetSettings(w, r)
}
