package recurrence_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/frahmantamala/pennytrack/internal"
	"github.com/frahmantamala/pennytrack/internal/core/date"
	"github.com/frahmantamala/pennytrack/internal/core/events"
	"github.com/frahmantamala/pennytrack/internal/entry"
	"github.com/frahmantamala/pennytrack/internal/recurrence"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
)

func TestRecurrence(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Recurrence Suite")
}

// MockRuleRepository implements recurrence.Repository for testing
type MockRuleRepository struct {
	rules      []*recurrence.Rule
	saves      int
	shouldFail bool
	failError  error
	saveError  error
}

func (m *MockRuleRepository) Load() ([]*recurrence.Rule, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	out := make([]*recurrence.Rule, len(m.rules))
	for i, r := range m.rules {
		c := *r
		out[i] = &c
	}
	return out, nil
}

func (m *MockRuleRepository) Save(rules []*recurrence.Rule) error {
	if m.saveError != nil {
		return m.saveError
	}
	m.saves++
	m.rules = make([]*recurrence.Rule, len(rules))
	for i, r := range rules {
		c := *r
		m.rules[i] = &c
	}
	return nil
}

// MockAppender records the entries the engine materializes
type MockAppender struct {
	appended   []entry.CreateEntryDTO
	shouldFail bool
}

func (m *MockAppender) Append(_ context.Context, dto entry.CreateEntryDTO) (*entry.Entry, error) {
	if m.shouldFail {
		return nil, errors.New("entries unavailable")
	}
	if !decimal.RequireFromString(dto.Amount).IsPositive() {
		return nil, internal.NewValidationFieldError("amount", "amount must be positive", internal.ErrCodeInvalidAmount)
	}
	m.appended = append(m.appended, dto)
	return &entry.Entry{
		ID:       strconv.Itoa(len(m.appended)),
		Date:     date.MustParse(dto.Date),
		Amount:   decimal.RequireFromString(dto.Amount),
		Category: dto.Category,
		Note:     dto.Note,
		Kind:     entry.KindExpense,
	}, nil
}

func rule(amount, category string, freq recurrence.Frequency, last string) *recurrence.Rule {
	return &recurrence.Rule{
		Amount:           decimal.RequireFromString(amount),
		Category:         category,
		Frequency:        freq,
		LastMaterialized: date.MustParse(last),
	}
}

var _ = Describe("Recurrence Engine", func() {
	var (
		repo     *MockRuleRepository
		appender *MockAppender
		engine   *recurrence.Engine
		ctx      context.Context
	)

	newEngine := func(rules ...*recurrence.Rule) {
		repo.rules = rules
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		engine = recurrence.NewEngine(repo, appender, events.NewEventBus(logger), logger).WithClock(func() time.Time {
			return time.Date(2024, time.March, 5, 12, 0, 0, 0, time.UTC)
		})
		engine.Load()
	}

	BeforeEach(func() {
		ctx = context.Background()
		repo = &MockRuleRepository{}
		appender = &MockAppender{}
	})

	Describe("Run", func() {
		It("should fire a monthly rule after 28 days and not before", func() {
			newEngine(rule("9.99", "Subscriptions", recurrence.Monthly, "2024-01-01"))

			created, err := engine.Run(ctx, date.MustParse("2024-01-28"))
			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(BeEmpty())
			Expect(repo.saves).To(BeZero())

			created, err = engine.Run(ctx, date.MustParse("2024-01-29"))
			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(HaveLen(1))
			Expect(appender.appended[0]).To(Equal(entry.CreateEntryDTO{
				Date:     "2024-01-29",
				Amount:   "9.99",
				Category: "Subscriptions",
				Kind:     entry.KindExpense,
			}))
			Expect(engine.Rules()[0].LastMaterialized.String()).To(Equal("2024-01-29"))
			Expect(repo.rules[0].LastMaterialized.String()).To(Equal("2024-01-29"))
		})

		It("should add nothing on a second run the same day", func() {
			newEngine(rule("5", "Coffee", recurrence.Daily, "2024-02-01"))

			first, err := engine.Run(ctx, date.MustParse("2024-02-02"))
			Expect(err).NotTo(HaveOccurred())
			Expect(first).To(HaveLen(1))

			second, err := engine.Run(ctx, date.MustParse("2024-02-02"))
			Expect(err).NotTo(HaveOccurred())
			Expect(second).To(BeEmpty())
			Expect(appender.appended).To(HaveLen(1))
		})

		It("should not catch up missed periods", func() {
			newEngine(rule("5", "Coffee", recurrence.Daily, "2024-02-01"))

			created, err := engine.Run(ctx, date.MustParse("2024-02-10"))
			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(HaveLen(1))
			Expect(created[0].Date.String()).To(Equal("2024-02-10"))
		})

		It("should fire a weekly rule after seven days", func() {
			newEngine(rule("20", "Cleaning", recurrence.Weekly, "2024-01-01"))

			created, _ := engine.Run(ctx, date.MustParse("2024-01-07"))
			Expect(created).To(BeEmpty())
			created, _ = engine.Run(ctx, date.MustParse("2024-01-08"))
			Expect(created).To(HaveLen(1))
		})

		It("should only fire the rules that are due", func() {
			newEngine(
				rule("5", "Coffee", recurrence.Daily, "2024-02-01"),
				rule("20", "Cleaning", recurrence.Weekly, "2024-02-01"),
			)

			created, err := engine.Run(ctx, date.MustParse("2024-02-03"))
			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(HaveLen(1))
			Expect(created[0].Category).To(Equal("Coffee"))
			Expect(engine.Rules()[1].LastMaterialized.String()).To(Equal("2024-02-01"))
		})

		It("should leave the rule unchanged when the append fails", func() {
			newEngine(rule("5", "Coffee", recurrence.Daily, "2024-02-01"))
			appender.shouldFail = true

			_, err := engine.Run(ctx, date.MustParse("2024-02-05"))
			Expect(err).To(HaveOccurred())
			Expect(engine.Rules()[0].LastMaterialized.String()).To(Equal("2024-02-01"))
		})

		It("should keep running the other rules when one cannot be added", func() {
			newEngine(
				rule("0", "Broken", recurrence.Daily, "2024-02-01"),
				rule("5", "Coffee", recurrence.Daily, "2024-02-01"),
			)

			created, err := engine.Run(ctx, date.MustParse("2024-02-05"))
			Expect(err).To(MatchError(ContainSubstring("materialize rule 1")))
			Expect(created).To(HaveLen(1))
			Expect(created[0].Category).To(Equal("Coffee"))

			Expect(repo.saves).To(Equal(1))
			Expect(repo.rules[0].LastMaterialized.String()).To(Equal("2024-02-01"))
			Expect(repo.rules[1].LastMaterialized.String()).To(Equal("2024-02-05"))
		})

		It("should report a failure to save the advanced rules", func() {
			newEngine(rule("5", "Coffee", recurrence.Daily, "2024-02-01"))
			repo.saveError = errors.New("read-only")

			created, err := engine.Run(ctx, date.MustParse("2024-02-05"))
			Expect(created).To(HaveLen(1))
			Expect(err).To(MatchError(ContainSubstring("save recurring rules")))
		})
	})

	Describe("Load", func() {
		It("should treat an unreadable rule list as empty", func() {
			repo.shouldFail = true
			repo.failError = internal.ErrStorageCorrupt
			newEngine(rule("5", "Coffee", recurrence.Daily, "2024-02-01"))

			Expect(engine.Rules()).To(BeEmpty())
			created, err := engine.Run(ctx, date.MustParse("2024-03-01"))
			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(BeEmpty())
		})
	})

	Describe("Add", func() {
		BeforeEach(func() {
			newEngine()
		})

		It("should start the schedule today by default", func() {
			added, err := engine.Add(recurrence.CreateRuleDTO{Amount: "15", Category: "Gym", Frequency: "Weekly"})
			Expect(err).NotTo(HaveOccurred())
			Expect(added.Frequency).To(Equal(recurrence.Weekly))
			Expect(added.LastMaterialized.String()).To(Equal("2024-03-05"))
			Expect(repo.rules).To(HaveLen(1))
		})

		It("should default to monthly", func() {
			added, err := engine.Add(recurrence.CreateRuleDTO{Amount: "15", Category: "Gym", Start: "2024-01-01"})
			Expect(err).NotTo(HaveOccurred())
			Expect(added.Frequency).To(Equal(recurrence.Monthly))
			Expect(added.LastMaterialized.String()).To(Equal("2024-01-01"))
		})

		It("should reject an unknown frequency", func() {
			_, err := engine.Add(recurrence.CreateRuleDTO{Amount: "15", Frequency: "yearly"})
			Expect(internal.IsValidation(err)).To(BeTrue())
			Expect(engine.Rules()).To(BeEmpty())
		})
	})

	Describe("Remove", func() {
		BeforeEach(func() {
			newEngine(
				rule("5", "Coffee", recurrence.Daily, "2024-02-01"),
				rule("20", "Cleaning", recurrence.Weekly, "2024-02-01"),
			)
		})

		It("should remove by 1-based position", func() {
			removed, err := engine.Remove(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(removed.Category).To(Equal("Coffee"))
			Expect(engine.Rules()).To(HaveLen(1))
			Expect(engine.Rules()[0].Category).To(Equal("Cleaning"))
		})

		It("should reject positions out of range", func() {
			_, err := engine.Remove(0)
			Expect(errors.Is(err, internal.ErrRuleNotFound)).To(BeTrue())
			_, err = engine.Remove(3)
			Expect(errors.Is(err, internal.ErrRuleNotFound)).To(BeTrue())
			Expect(engine.Rules()).To(HaveLen(2))
		})
	})

	Describe("Upcoming", func() {
		It("should project every firing in the window in date order", func() {
			newEngine(
				rule("20", "Cleaning", recurrence.Weekly, "2024-01-01"),
				rule("9.99", "Subscriptions", recurrence.Monthly, "2023-12-01"),
			)

			got, err := engine.Upcoming(date.MustParse("2024-01-03"), 14)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(3))
			Expect(got[0].Date.String()).To(Equal("2024-01-03"))
			Expect(got[0].Position).To(Equal(2))
			Expect(got[1].Date.String()).To(Equal("2024-01-08"))
			Expect(got[2].Date.String()).To(Equal("2024-01-15"))
		})
	})
})

var _ = Describe("ParseFrequency", func() {
	It("should accept known frequencies in any case", func() {
		f, err := recurrence.ParseFrequency(" Daily ")
		Expect(err).NotTo(HaveOccurred())
		Expect(f).To(Equal(recurrence.Daily))
	})

	It("should reject unknown frequencies", func() {
		_, err := recurrence.ParseFrequency("fortnightly")
		Expect(internal.IsValidation(err)).To(BeTrue())
	})
})
