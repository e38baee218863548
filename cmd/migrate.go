package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/frahmantamala/pennytrack/internal"
	"github.com/frahmantamala/pennytrack/internal/database"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "to run the embedded sql migrations against the sqlite or postgres backend",
	}
	migrateRollback bool
	migrateDir      string
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "to rollback the latest version of sql migration")
	migrateCmd.PersistentFlags().StringVarP(&migrateDir, "dir", "d", "", "read migrations from this directory instead of the embedded ones")
}

func runMigration(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	cfg, err := loadConfig(configDir)
	if err != nil {
		log.Fatal(err)
	}
	if cfg.Storage.Backend == internal.BackendFile {
		return fmt.Errorf("the file backend has no schema; set storage.backend to sqlite or postgres")
	}

	driver := "pgx"
	if cfg.Storage.Backend == internal.BackendSQLite {
		driver = "sqlite3"
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.GetDSN()), 0o755); err != nil {
			return err
		}
	}

	sqlDB, err := goose.OpenDBWithDriver(driver, cfg.Storage.GetDSN())
	if err != nil {
		log.Fatalf("goose: failed to open DB: %v\n", err)
	}
	defer sqlDB.Close()

	if migrateDir == "" {
		if err := database.Migrate(ctx, sqlDB, cfg.Storage.Backend, migrateRollback); err != nil {
			log.Fatalf("goose: %v", err)
		}
		return nil
	}

	goose.SetTableName("schema_migrations")
	command := "up"
	if migrateRollback {
		command = "down"
	}
	if err := goose.RunContext(ctx, command, sqlDB, migrateDir); err != nil {
		log.Fatalf("goose %s: %v", command, err)
	}

	return nil
}
