package recurrence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/pennytrack/internal"
	"github.com/frahmantamala/pennytrack/internal/core/date"
	"github.com/frahmantamala/pennytrack/internal/core/events"
	"github.com/frahmantamala/pennytrack/internal/entry"
)

// Repository persists the rule list as a whole.
type Repository interface {
	Load() ([]*Rule, error)
	Save(rules []*Rule) error
}

// EntryAppender is the part of entry.Store the engine writes through.
type EntryAppender interface {
	Append(ctx context.Context, dto entry.CreateEntryDTO) (*entry.Entry, error)
}

// Engine materializes due rules into the entry store.
type Engine struct {
	repo    Repository
	entries EntryAppender
	bus     *events.EventBus
	logger  *slog.Logger
	clock   func() time.Time
	rules   []*Rule
}

func NewEngine(repo Repository, entries EntryAppender, bus *events.EventBus, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		repo:    repo,
		entries: entries,
		bus:     bus,
		logger:  logger,
		clock:   time.Now,
	}
}

// WithClock replaces the source of "today" for Add.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.clock = now
	return e
}

// Load reads the rule list. An unreadable list is treated as empty.
func (e *Engine) Load() {
	rules, err := e.repo.Load()
	if err != nil {
		e.logger.Warn("recurring rules unreadable, continuing without them", "error", err)
		rules = nil
	}
	e.rules = rules
}

// Run appends one expense dated today for every due rule and moves the
// rule's LastMaterialized to today. Missed periods are not caught up. A rule
// that cannot be materialized is left as it was and the others still run;
// every failure is reported in the returned error.
func (e *Engine) Run(ctx context.Context, today date.Date) ([]*entry.Entry, error) {
	var (
		created []*entry.Entry
		errs    []error
	)

	for i, rule := range e.rules {
		checker, err := GetDuenessChecker(rule.Frequency)
		if err != nil {
			e.logger.Warn("skipping recurring rule", "index", i+1, "error", err)
			continue
		}
		if !checker.IsDue(rule.LastMaterialized, today) {
			continue
		}

		added, err := e.entries.Append(ctx, rule.entryDTO(today))
		if err != nil {
			e.logger.Error("failed to materialize recurring rule",
				"index", i+1,
				"category", rule.Category,
				"error", err)
			errs = append(errs, fmt.Errorf("materialize rule %d: %w", i+1, err))
			continue
		}

		rule.LastMaterialized = today
		created = append(created, added)

		e.logger.Info("recurring expense added",
			"entry_id", added.ID,
			"category", rule.Category,
			"amount", rule.Amount.StringFixed(2),
			"frequency", rule.Frequency)

		if e.bus != nil {
			event := events.NewRecurrenceMaterializedEvent(added.ID, rule.Amount.StringFixed(2), rule.Category, string(rule.Frequency))
			if err := e.bus.PublishSync(ctx, event); err != nil {
				e.logger.Warn("recurrence handlers failed", "error", err)
			}
		}
	}

	if len(created) > 0 {
		if err := e.persist(); err != nil {
			errs = append(errs, err)
		}
	}
	return created, errors.Join(errs...)
}

func (e *Engine) persist() error {
	if err := e.repo.Save(e.rules); err != nil {
		e.logger.Error("failed to save recurring rules", "error", err)
		return fmt.Errorf("save recurring rules: %w", err)
	}
	e.Load()
	return nil
}

// Add registers a new rule and persists the list.
func (e *Engine) Add(dto CreateRuleDTO) (*Rule, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	rule := dto.build(date.Of(e.clock()))
	e.rules = append(e.rules, rule)
	if err := e.persist(); err != nil {
		e.rules = e.rules[:len(e.rules)-1]
		return nil, err
	}
	e.logger.Info("recurring rule added", "category", rule.Category, "frequency", rule.Frequency)
	c := *rule
	return &c, nil
}

// Remove deletes the rule at the 1-based position shown by Rules.
func (e *Engine) Remove(position int) (*Rule, error) {
	if position < 1 || position > len(e.rules) {
		return nil, internal.ErrRuleNotFound
	}
	removed := *e.rules[position-1]

	next := make([]*Rule, 0, len(e.rules)-1)
	next = append(next, e.rules[:position-1]...)
	next = append(next, e.rules[position:]...)

	if err := e.repo.Save(next); err != nil {
		return nil, fmt.Errorf("save recurring rules: %w", err)
	}
	e.Load()
	e.logger.Info("recurring rule removed", "position", position, "category", removed.Category)
	return &removed, nil
}

// Rules returns a copy of the rule list in stored order.
func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	for i, r := range e.rules {
		out[i] = *r
	}
	return out
}
