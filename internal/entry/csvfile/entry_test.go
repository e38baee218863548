package csvfile_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/frahmantamala/pennytrack/internal"
	"github.com/frahmantamala/pennytrack/internal/core/date"
	"github.com/frahmantamala/pennytrack/internal/entry"
	"github.com/frahmantamala/pennytrack/internal/entry/csvfile"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
)

func TestEntryCSVFile(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Entry CSV File Suite")
}

func sample(id, on, amount, category string, kind entry.Kind) *entry.Entry {
	return &entry.Entry{
		ID:       id,
		Date:     date.MustParse(on),
		Amount:   decimal.RequireFromString(amount),
		Category: category,
		Note:     "note " + id,
		Kind:     kind,
	}
}

var _ = Describe("Entry CSV Repository", func() {
	var (
		path string
		repo entry.Repository
	)

	BeforeEach(func() {
		path = filepath.Join(GinkgoT().TempDir(), "expenses.csv")
		repo = csvfile.NewEntryRepository(path)
	})

	It("should read a missing file as empty", func() {
		entries, err := repo.LoadAll()
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(BeEmpty())

		n, err := repo.HighWater()
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(BeZero())
	})

	It("should write the header and two decimal amounts", func() {
		Expect(repo.Append(sample("1", "2024-02-01", "12.5", "Food", entry.KindExpense))).To(Succeed())
		Expect(repo.Append(sample("2", "2024-02-02", "2000", "Salary", entry.KindIncome))).To(Succeed())

		raw, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
		Expect(lines).To(Equal([]string{
			"ID,Date,Amount,Category,Note,Type",
			"1,2024-02-01,12.50,Food,note 1,expense",
			"2,2024-02-02,2000.00,Salary,note 2,income",
		}))

		entries, err := repo.LoadAll()
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(2))
		Expect(entries[1].Kind).To(Equal(entry.KindIncome))
		Expect(entries[0].Amount.Equal(decimal.RequireFromString("12.50"))).To(BeTrue())
	})

	It("should treat rows without a Type column as expenses", func() {
		legacy := "\ufeffID,Date,Amount,Category,Note\n1,2023-12-30,4.20,Coffee,\"flat white, large\"\n"
		Expect(os.WriteFile(path, []byte(legacy), 0o644)).To(Succeed())

		entries, err := repo.LoadAll()
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].Kind).To(Equal(entry.KindExpense))
		Expect(entries[0].Note).To(Equal("flat white, large"))

		Expect(repo.Append(sample("2", "2024-01-02", "1", "Food", entry.KindIncome))).To(Succeed())
		raw, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(raw)).To(HavePrefix("ID,Date,Amount,Category,Note,Type\n"))
		Expect(string(raw)).To(ContainSubstring("1,2023-12-30,4.20,Coffee,\"flat white, large\",expense"))
	})

	It("should report a malformed amount as corrupt storage", func() {
		Expect(os.WriteFile(path, []byte("ID,Date,Amount,Category,Note,Type\n1,2024-01-01,abc,Food,,expense\n"), 0o644)).To(Succeed())

		_, err := repo.LoadAll()
		Expect(internal.IsStorageCorrupt(err)).To(BeTrue())
	})

	It("should report a missing column as corrupt storage", func() {
		Expect(os.WriteFile(path, []byte("Date,Amount\n2024-01-01,3\n"), 0o644)).To(Succeed())

		_, err := repo.LoadAll()
		Expect(internal.IsStorageCorrupt(err)).To(BeTrue())
	})

	It("should replace all rows", func() {
		Expect(repo.Append(sample("1", "2024-02-01", "1", "Food", entry.KindExpense))).To(Succeed())
		Expect(repo.Append(sample("2", "2024-02-02", "2", "Food", entry.KindExpense))).To(Succeed())

		Expect(repo.ReplaceAll([]*entry.Entry{sample("2", "2024-02-02", "2", "Food", entry.KindExpense)})).To(Succeed())

		entries, err := repo.LoadAll()
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].ID).To(Equal("2"))
	})

	It("should persist the high-water mark in a sidecar", func() {
		Expect(repo.SetHighWater(7)).To(Succeed())

		n, err := csvfile.NewEntryRepository(path).HighWater()
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(int64(7)))
		Expect(path + ".seq").To(BeAnExistingFile())
	})

	It("should keep a readable ledger when the sidecar is garbled", func() {
		Expect(repo.Append(sample("1", "2024-02-01", "1", "Food", entry.KindExpense))).To(Succeed())
		Expect(repo.Append(sample("2", "2024-02-02", "2", "Food", entry.KindExpense))).To(Succeed())
		Expect(os.WriteFile(path+".seq", []byte("twelve\n"), 0o644)).To(Succeed())

		_, err := repo.HighWater()
		Expect(internal.IsStorageCorrupt(err)).To(BeTrue())

		store := entry.NewStore(repo, nil, nil)
		Expect(store.LoadOrReset()).To(Succeed())
		Expect(store.Len()).To(Equal(2))

		added, err := store.Append(context.Background(), entry.CreateEntryDTO{Amount: "3", Category: "Food", Date: "2024-02-03"})
		Expect(err).NotTo(HaveOccurred())
		Expect(added.ID).To(Equal("3"))
		aside, _ := filepath.Glob(path + ".corrupt-*")
		Expect(aside).To(BeEmpty())
	})

	It("should move an unreadable file aside", func() {
		Expect(os.WriteFile(path, []byte("garbage\"x\n"), 0o644)).To(Succeed())

		moved, err := repo.(entry.Quarantiner).Quarantine()
		Expect(err).NotTo(HaveOccurred())
		Expect(moved).To(HavePrefix(path + ".corrupt-"))
		Expect(path).NotTo(BeAnExistingFile())

		raw, err := os.ReadFile(moved)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(raw)).To(Equal("garbage\"x\n"))
	})
})
