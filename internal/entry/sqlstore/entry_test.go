package sqlstore_test

import (
	"context"
	"testing"

	"github.com/frahmantamala/pennytrack/internal"
	"github.com/frahmantamala/pennytrack/internal/core/date"
	"github.com/frahmantamala/pennytrack/internal/database"
	"github.com/frahmantamala/pennytrack/internal/entry"
	"github.com/frahmantamala/pennytrack/internal/entry/sqlstore"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func TestEntrySQLStore(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Entry SQL Store Suite")
}

// openMigrated returns a sqlite database in a temp dir with the ledger schema.
func openMigrated() *gorm.DB {
	cfg := internal.StorageConfig{
		Backend:      internal.BackendSQLite,
		DataDir:      GinkgoT().TempDir(),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}
	gdb, err := database.Open(cfg)
	Expect(err).NotTo(HaveOccurred())
	sqlDB, err := gdb.DB()
	Expect(err).NotTo(HaveOccurred())
	Expect(database.Migrate(context.Background(), sqlDB, cfg.Backend, false)).To(Succeed())
	DeferCleanup(func() { _ = database.Close(gdb) })
	return gdb
}

func sample(id, on, amount, category string) *entry.Entry {
	return &entry.Entry{
		ID:       id,
		Date:     date.MustParse(on),
		Amount:   decimal.RequireFromString(amount),
		Category: category,
		Kind:     entry.KindExpense,
	}
}

var _ = Describe("Entry SQL Repository", func() {
	var (
		gdb  *gorm.DB
		repo entry.Repository
	)

	BeforeEach(func() {
		gdb = openMigrated()
		repo = sqlstore.NewEntryRepository(gdb)
	})

	It("should keep insertion order", func() {
		Expect(repo.Append(sample("1", "2024-02-05", "10", "Food"))).To(Succeed())
		Expect(repo.Append(sample("2", "2024-02-01", "2.5", "Transport"))).To(Succeed())

		entries, err := repo.LoadAll()
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(2))
		Expect(entries[0].ID).To(Equal("1"))
		Expect(entries[1].Amount.StringFixed(2)).To(Equal("2.50"))
		Expect(entries[1].Kind).To(Equal(entry.KindExpense))
	})

	It("should replace all rows in one transaction", func() {
		Expect(repo.Append(sample("1", "2024-02-05", "10", "Food"))).To(Succeed())
		Expect(repo.Append(sample("2", "2024-02-06", "11", "Food"))).To(Succeed())

		Expect(repo.ReplaceAll([]*entry.Entry{sample("2", "2024-02-06", "12", "Food")})).To(Succeed())

		entries, err := repo.LoadAll()
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].Amount.StringFixed(2)).To(Equal("12.00"))
	})

	It("should upsert the high-water mark", func() {
		n, err := repo.HighWater()
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(BeZero())

		Expect(repo.SetHighWater(3)).To(Succeed())
		Expect(repo.SetHighWater(5)).To(Succeed())

		n, err = repo.HighWater()
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(int64(5)))
	})

	It("should never reuse ids through the store", func() {
		store := entry.NewStore(repo, nil, nil)
		Expect(store.Load()).To(Succeed())
		ctx := context.Background()

		_, err := store.Append(ctx, entry.CreateEntryDTO{Amount: "1", Date: "2024-01-01"})
		Expect(err).NotTo(HaveOccurred())
		_, err = store.Append(ctx, entry.CreateEntryDTO{Amount: "2", Date: "2024-01-01"})
		Expect(err).NotTo(HaveOccurred())
		Expect(store.Remove(ctx, "2")).To(Succeed())

		reopened := entry.NewStore(sqlstore.NewEntryRepository(gdb), nil, nil)
		Expect(reopened.Load()).To(Succeed())
		Expect(reopened.NextID()).To(Equal("3"))
	})

	It("should report a malformed row as corrupt storage", func() {
		Expect(gdb.Exec("INSERT INTO entries (entry_id, date, amount, category, note, type) VALUES ('1', 'yesterday', '1', 'x', '', 'expense')").Error).To(Succeed())

		_, err := repo.LoadAll()
		Expect(internal.IsStorageCorrupt(err)).To(BeTrue())
	})
})
