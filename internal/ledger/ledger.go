// Package ledger assembles the entry store, budget evaluator, recurrence
// engine and settings over the configured storage backend.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/frahmantamala/pennytrack/internal"
	"github.com/frahmantamala/pennytrack/internal/budget"
	budgetFile "github.com/frahmantamala/pennytrack/internal/budget/jsonfile"
	budgetSQL "github.com/frahmantamala/pennytrack/internal/budget/sqlstore"
	"github.com/frahmantamala/pennytrack/internal/core/date"
	"github.com/frahmantamala/pennytrack/internal/core/events"
	"github.com/frahmantamala/pennytrack/internal/database"
	"github.com/frahmantamala/pennytrack/internal/entry"
	"github.com/frahmantamala/pennytrack/internal/entry/csvfile"
	entrySQL "github.com/frahmantamala/pennytrack/internal/entry/sqlstore"
	"github.com/frahmantamala/pennytrack/internal/export"
	"github.com/frahmantamala/pennytrack/internal/recurrence"
	ruleFile "github.com/frahmantamala/pennytrack/internal/recurrence/jsonfile"
	ruleSQL "github.com/frahmantamala/pennytrack/internal/recurrence/sqlstore"
	"github.com/frahmantamala/pennytrack/internal/settings"
	"gorm.io/gorm"
)

type Ledger struct {
	Config   internal.Config
	Bus      *events.EventBus
	Entries  *entry.Store
	Budgets  *budget.Evaluator
	Rules    *recurrence.Engine
	Settings *settings.Manager

	// Materialized holds the entries the startup recurrence run added.
	Materialized []*entry.Entry

	db     *gorm.DB
	logger *slog.Logger
	clock  func() time.Time
}

type Option func(*Ledger)

// WithClock fixes the time source, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.clock = now }
}

type repositories struct {
	entries entry.Repository
	rules   recurrence.Repository
	budgets budget.Repository
}

// Open connects the backend named by cfg.Storage.Backend, loads every
// component and, when configured, runs the recurrence engine once.
func Open(ctx context.Context, cfg internal.Config, logger *slog.Logger, opts ...Option) (*Ledger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Ledger{Config: cfg, logger: logger, clock: time.Now}
	for _, opt := range opts {
		opt(l)
	}

	if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	repos, err := l.openRepositories(ctx)
	if err != nil {
		return nil, err
	}

	l.Bus = events.NewEventBus(logger.With("component", "events"))

	l.Entries = entry.NewStore(repos.entries, l.Bus, logger.With("component", "entries")).WithClock(l.clock)
	if err := l.Entries.LoadOrReset(); err != nil {
		_ = l.Close()
		return nil, err
	}

	l.Budgets = budget.NewEvaluator(repos.budgets, l.Entries, l.Bus, logger.With("component", "budgets"))
	l.Budgets.Load()
	l.Budgets.RegisterEventHandlers(l.Bus)

	l.Rules = recurrence.NewEngine(repos.rules, l.Entries, l.Bus, logger.With("component", "recurrence")).WithClock(l.clock)
	l.Rules.Load()

	l.Settings = settings.Open(cfg.Storage.SettingsPath(), logger.With("component", "settings"))

	if cfg.Recurrence.RunOnStart {
		created, err := l.Rules.Run(ctx, l.Today(ctx))
		l.Materialized = created
		if err != nil {
			logger.Warn("recurring run incomplete", "error", err, "added", len(created))
		}
	}

	logger.Debug("ledger opened",
		"backend", cfg.Storage.Backend,
		"entries", l.Entries.Len(),
		"rules", len(l.Rules.Rules()))

	return l, nil
}

func (l *Ledger) openRepositories(ctx context.Context) (repositories, error) {
	storage := l.Config.Storage
	if storage.Backend == internal.BackendFile {
		return repositories{
			entries: csvfile.NewEntryRepository(storage.EntriesPath()),
			rules:   ruleFile.NewRuleRepository(storage.RulesPath()),
			budgets: budgetFile.NewBudgetRepository(storage.BudgetsPath()),
		}, nil
	}

	gdb, err := database.Open(storage)
	if err != nil {
		return repositories{}, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return repositories{}, err
	}
	if err := database.Migrate(ctx, sqlDB, storage.Backend, false); err != nil {
		_ = database.Close(gdb)
		return repositories{}, err
	}
	l.db = gdb

	return repositories{
		entries: entrySQL.NewEntryRepository(gdb),
		rules:   ruleSQL.NewRuleRepository(gdb),
		budgets: budgetSQL.NewBudgetRepository(gdb),
	}, nil
}

// DB is the SQL connection, nil for the file backend.
func (l *Ledger) DB() *gorm.DB {
	return l.db
}

// Today is the date pinned on ctx, or the ledger clock's date.
func (l *Ledger) Today(ctx context.Context) date.Date {
	return date.Of(l.Now(ctx))
}

func (l *Ledger) Now(ctx context.Context) time.Time {
	if now, ok := internal.TodayFromContext(ctx); ok {
		return now
	}
	return l.clock()
}

// AddEntry appends dto and, when frequency is set, registers a recurring
// rule for it counting from the entry date. Only expenses recur.
func (l *Ledger) AddEntry(ctx context.Context, dto entry.CreateEntryDTO, frequency string) (*entry.Entry, *recurrence.Rule, error) {
	var freq recurrence.Frequency
	if frequency != "" {
		if dto.Kind == entry.KindIncome {
			return nil, nil, internal.NewValidationFieldError("frequency", "income cannot recur", internal.ErrCodeInvalidFrequency)
		}
		f, err := recurrence.ParseFrequency(frequency)
		if err != nil {
			return nil, nil, err
		}
		freq = f
	}

	added, err := l.Entries.Append(ctx, dto)
	if err != nil {
		return nil, nil, err
	}
	if freq == "" {
		return added, nil, nil
	}

	rule, err := l.Rules.Add(recurrence.CreateRuleDTO{
		Amount:    added.Amount.StringFixed(2),
		Category:  added.Category,
		Note:      added.Note,
		Frequency: string(freq),
		Start:     added.Date.String(),
	})
	if err != nil {
		return added, nil, fmt.Errorf("entry %s added but its rule was not: %w", added.ID, err)
	}
	return added, rule, nil
}

// Backup copies the data files into a timestamped directory. Unless force
// is set it does nothing while backups are disabled in the settings.
func (l *Ledger) Backup(ctx context.Context, force bool) (string, []string, error) {
	if !force && !l.Settings.Settings().BackupEnabled {
		return "", nil, ErrBackupDisabled
	}
	return export.Backup(ctx, l.Config.Storage.BackupRoot(), l.Config.Storage.DataFiles(), l.Now(ctx), l.logger)
}

var ErrBackupDisabled = errors.New("backups are disabled in the settings")

func (l *Ledger) Close() error {
	if l.db == nil {
		return nil
	}
	err := database.Close(l.db)
	l.db = nil
	return err
}
