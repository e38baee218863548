package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/frahmantamala/pennytrack/internal"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configDir   string
	dataDir     string
	backendFlag string
	logLevel    string
	noColors    bool
)

var rootCmd = &cobra.Command{
	Use:   "pennytrack",
	Short: "Penny Track",
	Long:  `Personal finance ledger: expenses, income, budgets and recurring expenses.`,

	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads pennytrack.yml from path, the working directory or the
// XDG config dir, in that order, over the built-in defaults. Environment
// variables prefixed PENNYTRACK_ override the file; a .env file in the
// working directory is loaded first.
func loadConfig(path string) (*internal.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env: %w", err)
	}

	v := viper.New()
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")
	v.AddConfigPath(filepath.Join(xdg.ConfigHome, "pennytrack"))
	v.SetConfigName("pennytrack")
	v.SetConfigType("yml")
	v.SetEnvPrefix("PENNYTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, internal.DefaultConfig())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg internal.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	applyFlags(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("error validating config: %w", err)
	}
	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, d internal.Config) {
	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.data_dir", d.Storage.DataDir)
	v.SetDefault("storage.entries_file", d.Storage.EntriesFile)
	v.SetDefault("storage.rules_file", d.Storage.RulesFile)
	v.SetDefault("storage.budgets_file", d.Storage.BudgetsFile)
	v.SetDefault("storage.settings_file", d.Storage.SettingsFile)
	v.SetDefault("storage.backup_dir", d.Storage.BackupDir)
	v.SetDefault("storage.source", d.Storage.Source)
	v.SetDefault("storage.max_open_conns", d.Storage.MaxOpenConns)
	v.SetDefault("storage.max_idle_conns", d.Storage.MaxIdleConns)

	v.SetDefault("http_server.address", d.Server.Address)
	v.SetDefault("http_server.read_header_timeout", d.Server.ReadHeaderTimeout)
	v.SetDefault("http_server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("http_server.idle_timeout", d.Server.IdleTimeout)
	v.SetDefault("http_server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("http_server.shutdown_timeout", d.Server.ShutdownTimeout)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)

	v.SetDefault("recurrence.run_on_start", d.Recurrence.RunOnStart)
}

func applyFlags(cfg *internal.Config) {
	if dataDir != "" {
		cfg.Storage.DataDir = dataDir
	}
	if backendFlag != "" {
		cfg.Storage.Backend = backendFlag
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "directory containing pennytrack.yml")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory holding the ledger files (overrides config)")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "storage backend: file, sqlite or postgres (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&noColors, "no-color", false, "disable colored output for this run")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(incomeCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(budgetCmd)
	rootCmd.AddCommand(recurringCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(httpServerCmd)
	rootCmd.AddCommand(workerCmd)
}
