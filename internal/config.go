package internal

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

type Config struct {
	Storage    StorageConfig    `mapstructure:"storage"`
	Server     ServerConfig     `mapstructure:"http_server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Recurrence RecurrenceConfig `mapstructure:"recurrence"`
}

type StorageConfig struct {
	Backend      string `mapstructure:"backend"`
	DataDir      string `mapstructure:"data_dir"`
	EntriesFile  string `mapstructure:"entries_file"`
	RulesFile    string `mapstructure:"rules_file"`
	BudgetsFile  string `mapstructure:"budgets_file"`
	SettingsFile string `mapstructure:"settings_file"`
	BackupDir    string `mapstructure:"backup_dir"`
	Source       string `mapstructure:"source"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type ServerConfig struct {
	Address           string        `mapstructure:"address"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type RecurrenceConfig struct {
	RunOnStart bool `mapstructure:"run_on_start"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		Storage: StorageConfig{
			Backend:      BackendFile,
			DataDir:      filepath.Join(xdg.DataHome, "pennytrack"),
			EntriesFile:  "expenses.csv",
			RulesFile:    "recurring.json",
			BudgetsFile:  "budgets.json",
			SettingsFile: "config.json",
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		},
		Server: ServerConfig{
			Address:           "127.0.0.1:8088",
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			IdleTimeout:       60 * time.Second,
			WriteTimeout:      10 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
		Recurrence: RecurrenceConfig{
			RunOnStart: true,
		},
	}
}

// ----------------- PATHS -----------------

func (c *StorageConfig) path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

func (c *StorageConfig) EntriesPath() string  { return c.path(c.EntriesFile) }
func (c *StorageConfig) RulesPath() string    { return c.path(c.RulesFile) }
func (c *StorageConfig) BudgetsPath() string  { return c.path(c.BudgetsFile) }
func (c *StorageConfig) SettingsPath() string { return c.path(c.SettingsFile) }

func (c *StorageConfig) BackupRoot() string {
	if c.BackupDir == "" {
		return c.DataDir
	}
	return c.path(c.BackupDir)
}

// DataFiles lists the files that make up the ledger on disk.
func (c *StorageConfig) DataFiles() []string {
	files := []string{c.SettingsPath()}
	switch c.Backend {
	case BackendFile:
		files = append(files, c.EntriesPath(), c.EntriesPath()+".seq", c.BudgetsPath(), c.RulesPath())
	case BackendSQLite:
		files = append(files, c.GetDSN())
	}
	return files
}

func (c *StorageConfig) GetDSN() string {
	if c.Backend == BackendSQLite && c.Source == "" {
		return filepath.Join(c.DataDir, "pennytrack.db")
	}
	return c.Source
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Storage.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("storage config: %v", err))
	}

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("logging config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *StorageConfig) Validate() error {
	switch c.Backend {
	case BackendFile, BackendSQLite:
	case BackendPostgres:
		if c.Source == "" {
			return errors.New("source is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.DataDir == "" {
		return errors.New("data_dir is required")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *ServerConfig) Validate() error {
	if c.Address == "" {
		return errors.New("address is required")
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *LoggingConfig) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown level %q", c.Level)
	}
	if c.Format != "json" && c.Format != "text" {
		return fmt.Errorf("unknown format %q", c.Format)
	}
	return nil
}
