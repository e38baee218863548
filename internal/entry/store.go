package entry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/frahmantamala/pennytrack/internal"
	"github.com/frahmantamala/pennytrack/internal/core/date"
	"github.com/frahmantamala/pennytrack/internal/core/events"
)

// Repository is the durable backing of a Store.
type Repository interface {
	// LoadAll returns every entry in storage order. Unreadable data yields an
	// error wrapping internal.ErrStorageCorrupt.
	LoadAll() ([]*Entry, error)
	Append(e *Entry) error
	ReplaceAll(entries []*Entry) error
	// HighWater returns the largest id ever handed out, even if since removed.
	HighWater() (int64, error)
	SetHighWater(n int64) error
}

// Quarantiner is implemented by repositories that can move unreadable data
// out of the way, returning where it went.
type Quarantiner interface {
	Quarantine() (string, error)
}

// Store is the in-memory entry set. Every mutation writes through to the
// repository and then reloads the cache from it.
type Store struct {
	repo      Repository
	bus       *events.EventBus
	logger    *slog.Logger
	clock     func() time.Time
	entries   []*Entry
	highWater int64
	// reset is set while storage holds data the store gave up on; the next
	// write replaces it whole.
	reset bool
}

func NewStore(repo Repository, bus *events.EventBus, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		repo:   repo,
		bus:    bus,
		logger: logger,
		clock:  time.Now,
	}
}

// WithClock replaces the source of "today" used for undated entries.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.clock = now
	return s
}

// Load replaces the cache with the repository contents. An unreadable id
// high-water mark is not fatal: the ids in storage still bound NextID.
func (s *Store) Load() error {
	entries, err := s.repo.LoadAll()
	if err != nil {
		return fmt.Errorf("load entries: %w", err)
	}
	highWater, err := s.repo.HighWater()
	if err != nil {
		if !internal.IsStorageCorrupt(err) {
			return fmt.Errorf("load entry sequence: %w", err)
		}
		s.logger.Warn("entry sequence unreadable, using the highest stored id", "error", err)
		highWater = 0
	}
	s.entries = entries
	s.highWater = highWater
	return nil
}

// LoadOrReset is Load, except that corrupt storage leaves the store empty
// with a warning instead of failing. The unreadable data is moved aside when
// the repository supports it, and the next write replaces it either way.
func (s *Store) LoadOrReset() error {
	err := s.Load()
	if err == nil {
		return nil
	}
	if !internal.IsStorageCorrupt(err) {
		return err
	}
	s.logger.Warn("entry storage unreadable, starting with an empty ledger", "error", err)
	s.entries = nil
	s.highWater = 0
	s.reset = true
	if n, err := s.repo.HighWater(); err == nil {
		s.highWater = n
	}
	if q, ok := s.repo.(Quarantiner); ok {
		moved, err := q.Quarantine()
		if err != nil {
			s.logger.Error("failed to move unreadable entries aside", "error", err)
		} else if moved != "" {
			s.logger.Warn("unreadable entries moved aside", "path", moved)
		}
	}
	return nil
}

// write persists e, rewriting the whole store after a reset.
func (s *Store) write(e *Entry) error {
	if !s.reset {
		return s.repo.Append(e)
	}
	if err := s.repo.ReplaceAll(append(s.snapshot(), e)); err != nil {
		return err
	}
	s.reset = false
	return nil
}

// today is the date pinned on ctx, falling back to the store clock.
func (s *Store) today(ctx context.Context) date.Date {
	if now, ok := internal.TodayFromContext(ctx); ok {
		return date.Of(now)
	}
	return date.Of(s.clock())
}

// NextID returns the id the next appended entry will get.
func (s *Store) NextID() string {
	max := s.highWater
	for _, e := range s.entries {
		if n, ok := idNumber(e.ID); ok && n > max {
			max = n
		}
	}
	return strconv.FormatInt(max+1, 10)
}

// Append validates dto, assigns the next id and persists the entry.
func (s *Store) Append(ctx context.Context, dto CreateEntryDTO) (*Entry, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Debug("entry validation failed", "error", err)
		return nil, err
	}

	e := dto.build(s.today(ctx))
	e.ID = s.NextID()

	if err := s.write(e); err != nil {
		s.logger.Error("failed to append entry", "error", err, "entry_id", e.ID)
		return nil, fmt.Errorf("append entry: %w", err)
	}
	if err := s.Load(); err != nil {
		return nil, err
	}

	stored, err := s.Get(e.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("entry added",
		"entry_id", stored.ID,
		"kind", stored.Kind,
		"amount", stored.Amount.StringFixed(2),
		"category", stored.Category)

	if s.bus != nil {
		event := events.NewEntryAppendedEvent(stored.ID, stored.Date.String(), stored.Amount.StringFixed(2), stored.Category, string(stored.Kind))
		if err := s.bus.PublishSync(ctx, event); err != nil {
			s.logger.Warn("entry appended handlers failed", "error", err, "entry_id", stored.ID)
		}
	}

	return stored, nil
}

// Update applies a partial update to the entry with id.
func (s *Store) Update(_ context.Context, id string, dto UpdateEntryDTO) (*Entry, error) {
	idx := s.indexOf(id)
	if idx < 0 {
		return nil, internal.ErrEntryNotFound
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	next := s.snapshot()
	updated := *next[idx]
	dto.apply(&updated)
	next[idx] = &updated

	if err := s.repo.ReplaceAll(next); err != nil {
		s.logger.Error("failed to rewrite entries", "error", err, "entry_id", id)
		return nil, fmt.Errorf("update entry: %w", err)
	}
	s.reset = false
	if err := s.Load(); err != nil {
		return nil, err
	}

	s.logger.Info("entry updated", "entry_id", id)
	return s.Get(id)
}

// Remove deletes the entry with id.
func (s *Store) Remove(_ context.Context, id string) error {
	idx := s.indexOf(id)
	if idx < 0 {
		return internal.ErrEntryNotFound
	}

	top, _ := strconv.ParseInt(s.NextID(), 10, 64)
	if err := s.repo.SetHighWater(top - 1); err != nil {
		return fmt.Errorf("remove entry: %w", err)
	}

	current := s.snapshot()
	next := make([]*Entry, 0, len(current)-1)
	next = append(next, current[:idx]...)
	next = append(next, current[idx+1:]...)

	if err := s.repo.ReplaceAll(next); err != nil {
		s.logger.Error("failed to rewrite entries", "error", err, "entry_id", id)
		return fmt.Errorf("remove entry: %w", err)
	}
	s.reset = false
	if err := s.Load(); err != nil {
		return err
	}

	s.logger.Info("entry removed", "entry_id", id)
	return nil
}

// Get returns a copy of the entry with id.
func (s *Store) Get(id string) (*Entry, error) {
	idx := s.indexOf(id)
	if idx < 0 {
		return nil, internal.ErrEntryNotFound
	}
	e := *s.entries[idx]
	return &e, nil
}

// Query returns the entries matching every predicate, in insertion order.
// The result is a snapshot; later mutations do not affect it.
func (s *Store) Query(preds ...Predicate) []Entry {
	result := make([]Entry, 0)
	for _, e := range s.entries {
		if matchAll(e, preds) {
			result = append(result, *e)
		}
	}
	return result
}

// All returns every entry in insertion order.
func (s *Store) All() []Entry {
	return s.Query()
}

func (s *Store) Len() int {
	return len(s.entries)
}

// Categories returns every category in use, sorted.
func (s *Store) Categories() []string {
	return distinctCategories(s.entries)
}

// RecentCategories returns the distinct expense categories among the last n
// entries, sorted.
func (s *Store) RecentCategories(n int) []string {
	start := len(s.entries) - n
	if start < 0 {
		start = 0
	}
	recent := make([]*Entry, 0, n)
	for _, e := range s.entries[start:] {
		if e.IsExpense() {
			recent = append(recent, e)
		}
	}
	return distinctCategories(recent)
}

func (s *Store) indexOf(id string) int {
	for i, e := range s.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) snapshot() []*Entry {
	out := make([]*Entry, len(s.entries))
	for i, e := range s.entries {
		c := *e
		out[i] = &c
	}
	return out
}

func distinctCategories(entries []*Entry) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, e := range entries {
		if _, ok := seen[e.Category]; ok {
			continue
		}
		seen[e.Category] = struct{}{}
		out = append(out, e.Category)
	}
	sort.Strings(out)
	return out
}
