package budget

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	errors "github.com/frahmantamala/pennytrack/internal"
	"github.com/frahmantamala/pennytrack/internal/core/common/validation"
	"github.com/frahmantamala/pennytrack/internal/core/date"
	"github.com/frahmantamala/pennytrack/internal/core/events"
	"github.com/frahmantamala/pennytrack/internal/entry"
	"github.com/shopspring/decimal"
)

type Repository interface {
	Load() ([]*Budget, error)
	Save(budgets []*Budget) error
}

// EntrySource is the read side of entry.Store.
type EntrySource interface {
	Query(preds ...entry.Predicate) []entry.Entry
}

// Alert is raised when an expense pushes its budget to warning or over.
type Alert struct {
	Budget Budget          `json:"budget"`
	Spend  decimal.Decimal `json:"spend"`
	Classification
}

// Line is one row of a month's budget status.
type Line struct {
	Budget    Budget          `json:"budget"`
	Spend     decimal.Decimal `json:"spend"`
	Remaining decimal.Decimal `json:"remaining"`
	Classification
}

type SetBudgetDTO struct {
	Month    string `json:"month"`
	Category string `json:"category"`
	Amount   string `json:"amount"`
}

func (dto SetBudgetDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("month", dto.Month).Required().MonthText()
	v.Field("category", dto.Category).Required()
	v.Field("amount", dto.Amount).Required().NonNegativeAmount()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type Evaluator struct {
	repo    Repository
	entries EntrySource
	bus     *events.EventBus
	logger  *slog.Logger
	budgets map[Key]decimal.Decimal
}

func NewEvaluator(repo Repository, entries EntrySource, bus *events.EventBus, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{
		repo:    repo,
		entries: entries,
		bus:     bus,
		logger:  logger,
		budgets: make(map[Key]decimal.Decimal),
	}
}

// Load reads the thresholds. Unreadable storage leaves no budgets set.
func (ev *Evaluator) Load() {
	budgets, err := ev.repo.Load()
	if err != nil {
		ev.logger.Warn("budgets unreadable, continuing without them", "error", err)
		budgets = nil
	}
	ev.budgets = make(map[Key]decimal.Decimal, len(budgets))
	for _, b := range budgets {
		ev.budgets[b.Key] = b.Threshold
	}
}

// ThresholdFor looks up the exact (month, category) key.
func (ev *Evaluator) ThresholdFor(month date.Month, category string) (decimal.Decimal, bool) {
	t, ok := ev.budgets[Key{Month: month, Category: category}]
	return t, ok
}

// SpendFor sums the expenses of category in month. Income never counts.
func (ev *Evaluator) SpendFor(month date.Month, category string) decimal.Decimal {
	total := decimal.Zero
	for _, e := range ev.entries.Query(entry.Expenses(), entry.InMonth(month), entry.InCategory(category)) {
		total = total.Add(e.Amount)
	}
	return total
}

// Set creates or replaces a threshold and persists immediately.
func (ev *Evaluator) Set(dto SetBudgetDTO) (*Budget, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	month, _ := date.ParseMonth(dto.Month)
	b := &Budget{
		Key:       Key{Month: month, Category: strings.TrimSpace(dto.Category)},
		Threshold: decimal.RequireFromString(strings.TrimSpace(dto.Amount)).Round(2),
	}

	next := ev.copyBudgets()
	next[b.Key] = b.Threshold
	if err := ev.save(next); err != nil {
		return nil, err
	}
	ev.logger.Info("budget set", "key", b.Key.String(), "amount", b.Threshold.StringFixed(2))
	return b, nil
}

// Delete removes a threshold and persists immediately.
func (ev *Evaluator) Delete(key Key) error {
	if _, ok := ev.budgets[key]; !ok {
		return errors.ErrBudgetNotFound
	}
	next := ev.copyBudgets()
	delete(next, key)
	if err := ev.save(next); err != nil {
		return err
	}
	ev.logger.Info("budget deleted", "key", key.String())
	return nil
}

// List returns every budget ordered by key.
func (ev *Evaluator) List() []Budget {
	out := make([]Budget, 0, len(ev.budgets))
	for k, t := range ev.budgets {
		out = append(out, Budget{Key: k, Threshold: t})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key.String() < out[j].Key.String()
	})
	return out
}

// Check classifies the budget an expense belongs to. It reports false for
// income, for expenses without a budget, and while the budget is ok.
func (ev *Evaluator) Check(e entry.Entry) (*Alert, bool) {
	if !e.IsExpense() {
		return nil, false
	}
	month := e.Date.Period()
	threshold, ok := ev.ThresholdFor(month, e.Category)
	if !ok {
		return nil, false
	}
	spend := ev.SpendFor(month, e.Category)
	c := Classify(spend, threshold)
	if c.Status == StatusOk {
		return nil, false
	}
	return &Alert{
		Budget:         Budget{Key: Key{Month: month, Category: e.Category}, Threshold: threshold},
		Spend:          spend,
		Classification: c,
	}, true
}

// MonthStatus reports every budget of month with its current spend.
func (ev *Evaluator) MonthStatus(month date.Month) []Line {
	var lines []Line
	for _, b := range ev.List() {
		if b.Key.Month != month {
			continue
		}
		spend := ev.SpendFor(month, b.Key.Category)
		lines = append(lines, Line{
			Budget:         b,
			Spend:          spend,
			Remaining:      b.Threshold.Sub(spend),
			Classification: Classify(spend, b.Threshold),
		})
	}
	return lines
}

// HandleEntryAppended re-evaluates the budget of a newly added expense and
// publishes a budget.alert when it is no longer ok.
func (ev *Evaluator) HandleEntryAppended(ctx context.Context, event events.Event) error {
	appended, ok := event.(*events.EntryAppendedEvent)
	if !ok {
		return fmt.Errorf("expected EntryAppendedEvent, got %T", event)
	}
	if appended.Kind != string(entry.KindExpense) {
		return nil
	}
	on, err := date.Parse(appended.Date)
	if err != nil {
		return err
	}

	alert, raised := ev.Check(entry.Entry{
		ID:       appended.EntryID,
		Date:     on,
		Amount:   decimal.RequireFromString(appended.Amount),
		Category: appended.Category,
		Kind:     entry.KindExpense,
	})
	if !raised {
		return nil
	}

	ev.logger.Info("budget threshold reached",
		"key", alert.Budget.Key.String(),
		"spend", alert.Spend.StringFixed(2),
		"status", alert.Status)

	if ev.bus == nil {
		return nil
	}
	return ev.bus.PublishSync(ctx, events.NewBudgetAlertEvent(
		alert.Budget.Key.String(),
		alert.Budget.Key.Month.String(),
		alert.Budget.Key.Category,
		alert.Spend.StringFixed(2),
		alert.Budget.Threshold.StringFixed(2),
		alert.Percent.StringFixed(1),
		string(alert.Status),
	))
}

func (ev *Evaluator) RegisterEventHandlers(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeEntryAppended, ev.HandleEntryAppended)
}

func (ev *Evaluator) copyBudgets() map[Key]decimal.Decimal {
	next := make(map[Key]decimal.Decimal, len(ev.budgets)+1)
	for k, t := range ev.budgets {
		next[k] = t
	}
	return next
}

func (ev *Evaluator) save(budgets map[Key]decimal.Decimal) error {
	list := make([]*Budget, 0, len(budgets))
	for k, t := range budgets {
		list = append(list, &Budget{Key: k, Threshold: t})
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Key.String() < list[j].Key.String()
	})
	if err := ev.repo.Save(list); err != nil {
		ev.logger.Error("failed to save budgets", "error", err)
		return fmt.Errorf("save budgets: %w", err)
	}
	ev.Load()
	return nil
}

// AlertFromEvent rebuilds the Alert carried by a budget.alert event.
func AlertFromEvent(ev *events.BudgetAlertEvent) (Alert, error) {
	key, err := ParseKey(ev.Key)
	if err != nil {
		return Alert{}, err
	}
	spend, err := decimal.NewFromString(ev.Spend)
	if err != nil {
		return Alert{}, fmt.Errorf("alert spend: %w", err)
	}
	threshold, err := decimal.NewFromString(ev.Threshold)
	if err != nil {
		return Alert{}, fmt.Errorf("alert threshold: %w", err)
	}
	percent, err := decimal.NewFromString(ev.Percent)
	if err != nil {
		return Alert{}, fmt.Errorf("alert percent: %w", err)
	}
	return Alert{
		Budget: Budget{Key: key, Threshold: threshold},
		Spend:  spend,
		Classification: Classification{
			Status:     Status(ev.Status),
			Percent:    percent,
			Degenerate: threshold.IsZero(),
		},
	}, nil
}
