package ledger_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/frahmantamala/pennytrack/internal"
	"github.com/frahmantamala/pennytrack/internal/budget"
	"github.com/frahmantamala/pennytrack/internal/core/events"
	"github.com/frahmantamala/pennytrack/internal/entry"
	"github.com/frahmantamala/pennytrack/internal/ledger"
	"github.com/frahmantamala/pennytrack/internal/settings"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestLedger(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Ledger Suite")
}

var _ = Describe("Ledger", func() {
	var (
		cfg    internal.Config
		ctx    context.Context
		logger *slog.Logger
		clock  func() time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		cfg = internal.DefaultConfig()
		cfg.Storage.DataDir = filepath.Join(GinkgoT().TempDir(), "pennytrack")
		clock = func() time.Time { return time.Date(2024, time.January, 29, 8, 0, 0, 0, time.UTC) }
	})

	open := func() *ledger.Ledger {
		l, err := ledger.Open(ctx, cfg, logger, ledger.WithClock(clock))
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(l.Close)
		return l
	}

	writeData := func(name, content string) {
		Expect(os.MkdirAll(cfg.Storage.DataDir, 0o755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(cfg.Storage.DataDir, name), []byte(content), 0o644)).To(Succeed())
	}

	Context("with the file backend", func() {
		It("should start empty in a new data dir", func() {
			l := open()
			Expect(l.Entries.Len()).To(BeZero())
			Expect(l.Rules.Rules()).To(BeEmpty())
			Expect(l.Settings.Settings()).To(Equal(settings.Defaults()))
		})

		It("should materialize due rules at startup", func() {
			writeData("recurring.json", `[{"amount":"9.99","category":"Subscriptions","note":"music","frequency":"monthly","last_added":"2024-01-01"}]`)

			l := open()
			Expect(l.Materialized).To(HaveLen(1))
			Expect(l.Materialized[0].Date.String()).To(Equal("2024-01-29"))
			Expect(l.Materialized[0].Amount.StringFixed(2)).To(Equal("9.99"))
			Expect(l.Rules.Rules()[0].LastMaterialized.String()).To(Equal("2024-01-29"))

			Expect(l.Close()).To(Succeed())
			again, err := ledger.Open(ctx, cfg, logger, ledger.WithClock(clock))
			Expect(err).NotTo(HaveOccurred())
			Expect(again.Materialized).To(BeEmpty())
			Expect(again.Entries.Len()).To(Equal(1))
		})

		It("should prefer the date pinned on the context", func() {
			l := open()
			Expect(l.Today(ctx).String()).To(Equal("2024-01-29"))

			pinned := internal.ContextWithToday(ctx, time.Date(2024, time.February, 3, 9, 0, 0, 0, time.UTC))
			Expect(l.Today(pinned).String()).To(Equal("2024-02-03"))
			e, _, err := l.AddEntry(pinned, entry.CreateEntryDTO{Amount: "1"}, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Date.String()).To(Equal("2024-02-03"))
		})

		It("should skip the startup run when disabled", func() {
			writeData("recurring.json", `[{"amount":"9.99","category":"Subscriptions","note":"","frequency":"daily","last_added":"2024-01-01"}]`)
			cfg.Recurrence.RunOnStart = false

			l := open()
			Expect(l.Materialized).To(BeEmpty())
			Expect(l.Entries.Len()).To(BeZero())
		})

		DescribeTable("should recover from a corrupt entries file",
			func(content string) {
				writeData("expenses.csv", content)

				l := open()
				Expect(l.Entries.Len()).To(BeZero())

				aside, err := filepath.Glob(filepath.Join(cfg.Storage.DataDir, "expenses.csv.corrupt-*"))
				Expect(err).NotTo(HaveOccurred())
				Expect(aside).To(HaveLen(1))
				raw, err := os.ReadFile(aside[0])
				Expect(err).NotTo(HaveOccurred())
				Expect(string(raw)).To(Equal(content))

				added, err := l.Entries.Append(ctx, entry.CreateEntryDTO{Amount: "5", Category: "Food"})
				Expect(err).NotTo(HaveOccurred())
				Expect(added.ID).To(Equal("1"))
				Expect(l.Close()).To(Succeed())

				again, err := ledger.Open(ctx, cfg, logger, ledger.WithClock(clock))
				Expect(err).NotTo(HaveOccurred())
				DeferCleanup(again.Close)
				Expect(again.Entries.Len()).To(Equal(1))
				got, err := again.Entries.Get("1")
				Expect(err).NotTo(HaveOccurred())
				Expect(got.Amount.StringFixed(2)).To(Equal("5.00"))
			},
			Entry("with a bad row", "ID,Date,Amount,Category,Note,Type\n1,not-a-date,3,Food,,expense\n"),
			Entry("with a bad header", "garbage\"x\n1,2024-01-01,3,Food,,expense\n"),
		)

		It("should add a recurring expense and register its rule", func() {
			l := open()
			e, rule, err := l.AddEntry(ctx, entry.CreateEntryDTO{Amount: "15", Category: "Gym", Date: "2024-01-20"}, "weekly")
			Expect(err).NotTo(HaveOccurred())
			Expect(e.ID).To(Equal("1"))
			Expect(rule).NotTo(BeNil())
			Expect(rule.LastMaterialized.String()).To(Equal("2024-01-20"))
			Expect(l.Rules.Rules()).To(HaveLen(1))
		})

		It("should refuse recurring income", func() {
			l := open()
			_, _, err := l.AddEntry(ctx, entry.CreateEntryDTO{Amount: "15", Kind: entry.KindIncome}, "monthly")
			Expect(internal.IsValidation(err)).To(BeTrue())
			Expect(l.Entries.Len()).To(BeZero())
		})

		It("should refuse an unknown frequency before adding anything", func() {
			l := open()
			_, _, err := l.AddEntry(ctx, entry.CreateEntryDTO{Amount: "15"}, "hourly")
			Expect(internal.IsValidation(err)).To(BeTrue())
			Expect(l.Entries.Len()).To(BeZero())
		})

		It("should publish a budget alert after an expense", func() {
			l := open()
			_, err := l.Budgets.Set(budget.SetBudgetDTO{Month: "2024-01", Category: "Food", Amount: "100"})
			Expect(err).NotTo(HaveOccurred())

			var alerts []budget.Alert
			l.Bus.Subscribe(events.EventTypeBudgetAlert, func(_ context.Context, ev events.Event) error {
				a, err := budget.AlertFromEvent(ev.(*events.BudgetAlertEvent))
				alerts = append(alerts, a)
				return err
			})

			_, _, err = l.AddEntry(ctx, entry.CreateEntryDTO{Amount: "50", Category: "Food"}, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(alerts).To(BeEmpty())

			_, _, err = l.AddEntry(ctx, entry.CreateEntryDTO{Amount: "35", Category: "Food"}, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(alerts).To(HaveLen(1))
			Expect(alerts[0].Status).To(Equal(budget.StatusWarning))
		})

		It("should back up only when enabled or forced", func() {
			l := open()
			_, _, err := l.AddEntry(ctx, entry.CreateEntryDTO{Amount: "5"}, "")
			Expect(err).NotTo(HaveOccurred())

			dir, files, err := l.Backup(ctx, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(dir).To(Equal(filepath.Join(cfg.Storage.DataDir, "backup_20240129_080000")))
			Expect(files).To(ContainElement("expenses.csv"))

			Expect(l.Settings.Set(settings.KeyBackupEnabled, "false")).To(Succeed())
			_, _, err = l.Backup(ctx, false)
			Expect(errors.Is(err, ledger.ErrBackupDisabled)).To(BeTrue())

			_, files, err = l.Backup(ctx, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(files).To(ContainElement("config.json"))
		})
	})

	Context("with the sqlite backend", func() {
		BeforeEach(func() {
			cfg.Storage.Backend = internal.BackendSQLite
		})

		It("should persist entries, rules and budgets in the database", func() {
			l := open()
			Expect(l.DB()).NotTo(BeNil())

			_, _, err := l.AddEntry(ctx, entry.CreateEntryDTO{Amount: "20", Category: "Books", Date: "2024-01-02"}, "daily")
			Expect(err).NotTo(HaveOccurred())
			_, err = l.Budgets.Set(budget.SetBudgetDTO{Month: "2024-01", Category: "Books", Amount: "50"})
			Expect(err).NotTo(HaveOccurred())
			Expect(l.Entries.Remove(ctx, "1")).To(Succeed())
			Expect(l.Close()).To(Succeed())

			again, err := ledger.Open(ctx, cfg, logger, ledger.WithClock(clock))
			Expect(err).NotTo(HaveOccurred())
			defer again.Close()

			Expect(again.Materialized).To(HaveLen(1))
			Expect(again.Materialized[0].ID).To(Equal("2"))
			Expect(again.Budgets.List()).To(HaveLen(1))
			Expect(again.Rules.Rules()[0].LastMaterialized.String()).To(Equal("2024-01-29"))
		})
	})
})
