package database_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/frahmantamala/pennytrack/internal"
	"github.com/frahmantamala/pennytrack/internal/database"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

func TestDatabase(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Database Suite")
}

var _ = Describe("Database", func() {
	var (
		gdb *gorm.DB
		cfg internal.StorageConfig
	)

	BeforeEach(func() {
		cfg = internal.StorageConfig{
			Backend:      internal.BackendSQLite,
			DataDir:      filepath.Join(GinkgoT().TempDir(), "data"),
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		}
		var err error
		gdb, err = database.Open(cfg)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() {
			Expect(database.Close(gdb)).To(Succeed())
		})
	})

	It("should create the sqlite file under the data dir", func() {
		Expect(cfg.GetDSN()).To(BeAnExistingFile())
	})

	It("should reject the file backend", func() {
		_, err := database.Open(internal.StorageConfig{Backend: internal.BackendFile, DataDir: cfg.DataDir})
		Expect(err).To(HaveOccurred())
	})

	It("should apply and roll back the embedded migrations", func() {
		sqlDB, err := gdb.DB()
		Expect(err).NotTo(HaveOccurred())
		ctx := context.Background()

		Expect(database.Migrate(ctx, sqlDB, cfg.Backend, false)).To(Succeed())
		for _, table := range []string{"entries", "ledger_sequences", "recurring_rules", "budgets", "schema_migrations"} {
			Expect(gdb.Migrator().HasTable(table)).To(BeTrue(), table)
		}

		Expect(database.Migrate(ctx, sqlDB, cfg.Backend, false)).To(Succeed())

		Expect(database.Migrate(ctx, sqlDB, cfg.Backend, true)).To(Succeed())
		Expect(gdb.Migrator().HasTable("budgets")).To(BeFalse())
		Expect(gdb.Migrator().HasTable("entries")).To(BeTrue())
	})

	It("should map backends to goose dialects", func() {
		Expect(database.Dialect(internal.BackendPostgres)).To(Equal("postgres"))
		Expect(database.Dialect(internal.BackendSQLite)).To(Equal("sqlite3"))
	})
})
