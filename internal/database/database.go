// Package database opens the GORM connection for the SQL backends and keeps
// their schema current with goose.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/frahmantamala/pennytrack/db"
	"github.com/frahmantamala/pennytrack/internal"
	"github.com/pressly/goose/v3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Dialect maps a storage backend to its goose dialect name.
func Dialect(backend string) string {
	if backend == internal.BackendPostgres {
		return "postgres"
	}
	return "sqlite3"
}

// Open connects to the configured SQL backend.
func Open(cfg internal.StorageConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Backend {
	case internal.BackendSQLite:
		dsn := cfg.GetDSN()
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		dialector = sqlite.Open(dsn)
	case internal.BackendPostgres:
		dialector = postgres.Open(cfg.GetDSN())
	default:
		return nil, fmt.Errorf("backend %q is not a SQL backend", cfg.Backend)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return gdb, nil
}

// Migrate applies the embedded migrations for backend. With rollback set it
// reverts the latest one instead.
func Migrate(ctx context.Context, sqlDB *sql.DB, backend string, rollback bool) error {
	dialect := Dialect(backend)

	goose.SetBaseFS(db.Migrations)
	defer goose.SetBaseFS(nil)
	goose.SetTableName("schema_migrations")
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}

	command := "up"
	if rollback {
		command = "down"
	}
	if err := goose.RunContext(ctx, command, sqlDB, db.Dir(dialect)); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

func Close(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
