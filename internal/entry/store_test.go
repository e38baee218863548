package entry_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/frahmantamala/pennytrack/internal"
	"github.com/frahmantamala/pennytrack/internal/core/events"
	"github.com/frahmantamala/pennytrack/internal/entry"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
)

func TestEntryStore(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Entry Store Suite")
}

// MockRepository implements entry.Repository in memory
type MockRepository struct {
	entries    []*entry.Entry
	highWater  int64
	shouldFail bool
	failError  error
	loadError  error
	seqError   error
	appends    int
	replaces   int
	quarantine int
}

func NewMockRepository() *MockRepository {
	return &MockRepository{}
}

func (m *MockRepository) LoadAll() ([]*entry.Entry, error) {
	if m.loadError != nil {
		return nil, m.loadError
	}
	out := make([]*entry.Entry, len(m.entries))
	for i, e := range m.entries {
		c := *e
		out[i] = &c
	}
	return out, nil
}

func (m *MockRepository) Append(e *entry.Entry) error {
	if m.shouldFail {
		return m.failError
	}
	m.appends++
	c := *e
	m.entries = append(m.entries, &c)
	return nil
}

func (m *MockRepository) ReplaceAll(entries []*entry.Entry) error {
	if m.shouldFail {
		return m.failError
	}
	m.replaces++
	m.entries = make([]*entry.Entry, len(entries))
	for i, e := range entries {
		c := *e
		m.entries[i] = &c
	}
	return nil
}

func (m *MockRepository) HighWater() (int64, error) {
	if m.seqError != nil {
		return 0, m.seqError
	}
	return m.highWater, nil
}

func (m *MockRepository) Quarantine() (string, error) {
	m.quarantine++
	m.entries = nil
	m.loadError = nil
	return "expenses.csv.corrupt", nil
}

func (m *MockRepository) SetHighWater(n int64) error {
	if m.shouldFail {
		return m.failError
	}
	m.highWater = n
	return nil
}

func strPtr(s string) *string { return &s }

var _ = Describe("Entry Store", func() {
	var (
		repo   *MockRepository
		store  *entry.Store
		bus    *events.EventBus
		ctx    context.Context
		logger *slog.Logger
	)

	BeforeEach(func() {
		ctx = context.Background()
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		repo = NewMockRepository()
		bus = events.NewEventBus(logger)
		store = entry.NewStore(repo, bus, logger).WithClock(func() time.Time {
			return time.Date(2024, time.February, 10, 9, 30, 0, 0, time.UTC)
		})
		Expect(store.Load()).To(Succeed())
	})

	Describe("Append", func() {
		It("should assign sequential ids starting at 1", func() {
			first, err := store.Append(ctx, entry.CreateEntryDTO{Amount: "12.5", Category: "Food"})
			Expect(err).NotTo(HaveOccurred())
			second, err := store.Append(ctx, entry.CreateEntryDTO{Amount: "3", Category: "Transport"})
			Expect(err).NotTo(HaveOccurred())

			Expect(first.ID).To(Equal("1"))
			Expect(second.ID).To(Equal("2"))
			Expect(store.Len()).To(Equal(2))
		})

		It("should default the date to today and the kind to expense", func() {
			e, err := store.Append(ctx, entry.CreateEntryDTO{Amount: "4.20"})
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Date.String()).To(Equal("2024-02-10"))
			Expect(e.Kind).To(Equal(entry.KindExpense))
			Expect(e.Category).To(Equal(entry.DefaultCategory))
		})

		It("should round amounts to two decimals", func() {
			e, err := store.Append(ctx, entry.CreateEntryDTO{Amount: "9.999", Category: "Food"})
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Amount.StringFixed(2)).To(Equal("10.00"))
		})

		It("should reject a non-positive amount", func() {
			_, err := store.Append(ctx, entry.CreateEntryDTO{Amount: "0", Category: "Food"})
			Expect(err).To(HaveOccurred())
			Expect(internal.IsValidation(err)).To(BeTrue())
			Expect(store.Len()).To(BeZero())
		})

		It("should reject a malformed date", func() {
			_, err := store.Append(ctx, entry.CreateEntryDTO{Amount: "5", Date: "2024-13-01"})
			Expect(internal.IsValidation(err)).To(BeTrue())
		})

		It("should not reuse the id of a removed maximum", func() {
			_, err := store.Append(ctx, entry.CreateEntryDTO{Amount: "1"})
			Expect(err).NotTo(HaveOccurred())
			_, err = store.Append(ctx, entry.CreateEntryDTO{Amount: "2"})
			Expect(err).NotTo(HaveOccurred())
			Expect(store.Remove(ctx, "2")).To(Succeed())

			next, err := store.Append(ctx, entry.CreateEntryDTO{Amount: "3"})
			Expect(err).NotTo(HaveOccurred())
			Expect(next.ID).To(Equal("3"))
		})

		It("should publish entry.appended", func() {
			var got *events.EntryAppendedEvent
			bus.Subscribe(events.EventTypeEntryAppended, func(_ context.Context, ev events.Event) error {
				got = ev.(*events.EntryAppendedEvent)
				return nil
			})

			_, err := store.Append(ctx, entry.CreateEntryDTO{Amount: "7", Category: "Food", Date: "2024-02-01"})
			Expect(err).NotTo(HaveOccurred())
			Expect(got).NotTo(BeNil())
			Expect(got.Amount).To(Equal("7.00"))
			Expect(got.Date).To(Equal("2024-02-01"))
			Expect(got.Kind).To(Equal("expense"))
		})

		It("should surface repository errors", func() {
			repo.shouldFail = true
			repo.failError = errors.New("disk full")
			_, err := store.Append(ctx, entry.CreateEntryDTO{Amount: "1"})
			Expect(err).To(MatchError(ContainSubstring("disk full")))
		})
	})

	Describe("Update", func() {
		BeforeEach(func() {
			_, err := store.Append(ctx, entry.CreateEntryDTO{Amount: "10", Category: "Food", Note: "lunch", Date: "2024-02-01"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("should change only the given fields", func() {
			updated, err := store.Update(ctx, "1", entry.UpdateEntryDTO{Note: strPtr("dinner")})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Note).To(Equal("dinner"))
			Expect(updated.Category).To(Equal("Food"))
			Expect(updated.Amount.StringFixed(2)).To(Equal("10.00"))
			Expect(updated.Date.String()).To(Equal("2024-02-01"))
		})

		It("should return not found and leave the store unchanged for an unknown id", func() {
			before := store.All()
			_, err := store.Update(ctx, "99", entry.UpdateEntryDTO{Amount: strPtr("1")})
			Expect(errors.Is(err, internal.ErrEntryNotFound)).To(BeTrue())
			Expect(store.All()).To(Equal(before))
		})

		It("should reject an invalid amount", func() {
			_, err := store.Update(ctx, "1", entry.UpdateEntryDTO{Amount: strPtr("-3")})
			Expect(internal.IsValidation(err)).To(BeTrue())
			got, _ := store.Get("1")
			Expect(got.Amount.StringFixed(2)).To(Equal("10.00"))
		})
	})

	It("should date an undated entry with the day pinned on the context", func() {
		pinned := internal.ContextWithToday(ctx, time.Date(2024, time.March, 1, 23, 0, 0, 0, time.UTC))
		e, err := store.Append(pinned, entry.CreateEntryDTO{Amount: "2"})
		Expect(err).NotTo(HaveOccurred())
		Expect(e.Date.String()).To(Equal("2024-03-01"))
	})

	Describe("Remove", func() {
		It("should return not found for an unknown id", func() {
			err := store.Remove(ctx, "5")
			Expect(internal.IsNotFound(err)).To(BeTrue())
		})
	})

	Describe("Query", func() {
		BeforeEach(func() {
			for _, dto := range []entry.CreateEntryDTO{
				{Amount: "100", Category: "Food", Date: "2024-02-03", Note: "Coffee beans"},
				{Amount: "50", Category: "Food", Date: "2024-02-15"},
				{Amount: "2000", Category: "Salary", Date: "2024-02-01", Kind: entry.KindIncome},
				{Amount: "30", Category: "Transport", Date: "2024-01-20"},
			} {
				_, err := store.Append(ctx, dto)
				Expect(err).NotTo(HaveOccurred())
			}
		})

		It("should combine predicates", func() {
			got := store.Query(entry.Expenses(), entry.InCategory("Food"))
			Expect(got).To(HaveLen(2))
			Expect(got[0].ID).To(Equal("1"))
			Expect(got[1].ID).To(Equal("2"))
		})

		It("should return a snapshot", func() {
			got := store.Query(entry.InCategory("Food"))
			got[0].Category = "Changed"
			again, _ := store.Get("1")
			Expect(again.Category).To(Equal("Food"))
		})

		It("should filter by amount and note", func() {
			lo := decimal.RequireFromString("40")
			Expect(store.Query(entry.AmountBetween(&lo, nil), entry.Expenses())).To(HaveLen(2))
			Expect(store.Query(entry.NoteContains("coffee"))).To(HaveLen(1))
			Expect(store.Query(entry.NoteMatches("cofe"))).To(HaveLen(1))
		})

		It("should list recent expense categories", func() {
			Expect(store.RecentCategories(3)).To(Equal([]string{"Food", "Transport"}))
			Expect(store.Categories()).To(Equal([]string{"Food", "Salary", "Transport"}))
		})
	})

	Describe("LoadOrReset", func() {
		It("should start empty when storage is corrupt", func() {
			repo.loadError = internal.ErrStorageCorrupt.WithCause(errors.New("bad row"))
			Expect(store.LoadOrReset()).To(Succeed())
			Expect(store.Len()).To(BeZero())
			Expect(store.NextID()).To(Equal("1"))
		})

		It("should move corrupt data aside and rewrite storage on the next append", func() {
			repo.entries = []*entry.Entry{{ID: "1", Category: "Food"}}
			repo.loadError = internal.ErrStorageCorrupt.WithCause(errors.New("bad row"))
			Expect(store.LoadOrReset()).To(Succeed())
			Expect(repo.quarantine).To(Equal(1))

			added, err := store.Append(ctx, entry.CreateEntryDTO{Amount: "5", Category: "Food"})
			Expect(err).NotTo(HaveOccurred())
			Expect(added.ID).To(Equal("1"))
			Expect(repo.replaces).To(Equal(1))
			Expect(repo.appends).To(BeZero())

			_, err = store.Append(ctx, entry.CreateEntryDTO{Amount: "6", Category: "Food"})
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.appends).To(Equal(1))
			Expect(store.Len()).To(Equal(2))
		})

		It("should keep the entries when only the sequence is unreadable", func() {
			repo.entries = []*entry.Entry{{ID: "4", Category: "Food"}, {ID: "9", Category: "Rent"}}
			repo.seqError = internal.ErrStorageCorrupt.WithCause(errors.New("garbled"))
			Expect(store.LoadOrReset()).To(Succeed())
			Expect(store.Len()).To(Equal(2))
			Expect(store.NextID()).To(Equal("10"))
			Expect(repo.quarantine).To(BeZero())
		})

		It("should fail on other errors", func() {
			repo.loadError = errors.New("permission denied")
			Expect(store.LoadOrReset()).NotTo(Succeed())
		})
	})
})

var _ = Describe("SuggestCategory", func() {
	It("should rank known categories by closeness", func() {
		got := entry.SuggestCategory("fod", []string{"Transport", "Food", "Foodstuffs"})
		Expect(got).To(ContainElement("Food"))
		Expect(got).NotTo(ContainElement("Transport"))
	})
})
