package jsonfile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/frahmantamala/pennytrack/internal"
	"github.com/frahmantamala/pennytrack/internal/budget"
	"github.com/frahmantamala/pennytrack/internal/budget/jsonfile"
	"github.com/frahmantamala/pennytrack/internal/core/date"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
)

func TestBudgetJSONFile(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Budget JSON File Suite")
}

var _ = Describe("Budget JSON Repository", func() {
	var (
		path string
		repo budget.Repository
	)

	BeforeEach(func() {
		path = filepath.Join(GinkgoT().TempDir(), "budgets.json")
		repo = jsonfile.NewBudgetRepository(path)
	})

	It("should load no budgets when the file is missing", func() {
		budgets, err := repo.Load()
		Expect(err).NotTo(HaveOccurred())
		Expect(budgets).To(BeEmpty())
	})

	It("should store keys as YYYY-MM:Category with numeric thresholds", func() {
		Expect(repo.Save([]*budget.Budget{{
			Key:       budget.Key{Month: date.NewMonth(2024, 2), Category: "Food"},
			Threshold: decimal.RequireFromString("300"),
		}})).To(Succeed())

		raw, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(raw)).To(ContainSubstring(`"2024-02:Food": 300.00`))

		budgets, err := repo.Load()
		Expect(err).NotTo(HaveOccurred())
		Expect(budgets).To(HaveLen(1))
		Expect(budgets[0].Key.Category).To(Equal("Food"))
		Expect(budgets[0].Threshold.Equal(decimal.NewFromInt(300))).To(BeTrue())
	})

	It("should read thresholds written as plain numbers", func() {
		Expect(os.WriteFile(path, []byte(`{"2024-03:Rent": 1200, "2024-03:Fun": 49.5}`), 0o644)).To(Succeed())

		budgets, err := repo.Load()
		Expect(err).NotTo(HaveOccurred())
		Expect(budgets).To(HaveLen(2))
	})

	It("should report a bad key as corrupt storage", func() {
		Expect(os.WriteFile(path, []byte(`{"March:Rent": 1200}`), 0o644)).To(Succeed())

		_, err := repo.Load()
		Expect(internal.IsStorageCorrupt(err)).To(BeTrue())
	})

	It("should report invalid JSON as corrupt storage", func() {
		Expect(os.WriteFile(path, []byte(`[1,2`), 0o644)).To(Succeed())

		_, err := repo.Load()
		Expect(internal.IsStorageCorrupt(err)).To(BeTrue())
	})
})
