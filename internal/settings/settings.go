// Package settings manages the user preferences file (config.json).
package settings

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	errors "github.com/frahmantamala/pennytrack/internal"
	"github.com/frahmantamala/pennytrack/pkg/fileutil"
	"github.com/spf13/viper"
)

const (
	KeyUseColors      = "use_colors"
	KeyCurrencySymbol = "currency_symbol"
	KeyDateFormat     = "date_format"
	KeyBackupEnabled  = "backup_enabled"
)

type Settings struct {
	UseColors      bool   `mapstructure:"use_colors" json:"use_colors"`
	CurrencySymbol string `mapstructure:"currency_symbol" json:"currency_symbol"`
	DateFormat     string `mapstructure:"date_format" json:"date_format"`
	BackupEnabled  bool   `mapstructure:"backup_enabled" json:"backup_enabled"`
}

func Defaults() Settings {
	return Settings{
		UseColors:      true,
		CurrencySymbol: "$",
		DateFormat:     "%Y-%m-%d",
		BackupEnabled:  true,
	}
}

// Manager reads and writes the settings file. Values in the file are merged
// over Defaults and keys it does not know are written back untouched.
type Manager struct {
	v      *viper.Viper
	path   string
	logger *slog.Logger
}

// Open loads path. A missing or unreadable file yields the defaults.
func Open(path string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	d := Defaults()
	v.SetDefault(KeyUseColors, d.UseColors)
	v.SetDefault(KeyCurrencySymbol, d.CurrencySymbol)
	v.SetDefault(KeyDateFormat, d.DateFormat)
	v.SetDefault(KeyBackupEnabled, d.BackupEnabled)

	if fileutil.Exists(path) {
		if err := v.ReadInConfig(); err != nil {
			logger.Warn("settings unreadable, using defaults", "path", path, "error", err)
		}
	}

	return &Manager{v: v, path: path, logger: logger}
}

func (m *Manager) Settings() Settings {
	var s Settings
	if err := m.v.Unmarshal(&s); err != nil {
		m.logger.Warn("settings malformed, using defaults", "error", err)
		return Defaults()
	}
	return s
}

// Keys lists the known settings.
func Keys() []string {
	return []string{KeyBackupEnabled, KeyCurrencySymbol, KeyDateFormat, KeyUseColors}
}

// Set validates and stores one known setting, then saves the file.
func (m *Manager) Set(key, value string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	switch key {
	case KeyUseColors, KeyBackupEnabled:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return errors.NewValidationFieldError(key, fmt.Sprintf("%s must be true or false", key), errors.ErrCodeInvalidSetting)
		}
		m.v.Set(key, b)
	case KeyCurrencySymbol, KeyDateFormat:
		if strings.TrimSpace(value) == "" {
			return errors.NewValidationFieldError(key, fmt.Sprintf("%s must not be empty", key), errors.ErrCodeInvalidSetting)
		}
		m.v.Set(key, value)
	default:
		return errors.NewValidationFieldError("key", fmt.Sprintf("unknown setting %q, want one of %s", key, strings.Join(Keys(), ", ")), errors.ErrCodeInvalidSetting)
	}
	return m.Save()
}

// Toggle flips a boolean setting and returns its new value.
func (m *Manager) Toggle(key string) (bool, error) {
	next := !m.v.GetBool(key)
	if err := m.Set(key, strconv.FormatBool(next)); err != nil {
		return false, err
	}
	return next, nil
}

// Save writes every setting, unknown ones included, to the file.
func (m *Manager) Save() error {
	all := m.v.AllSettings()
	if err := fileutil.WriteAtomic(m.path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(all)
	}); err != nil {
		m.logger.Error("failed to save settings", "error", err)
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// Extra returns the keys in the file that are not known settings, sorted.
func (m *Manager) Extra() []string {
	known := make(map[string]bool)
	for _, k := range Keys() {
		known[k] = true
	}
	var extra []string
	for _, k := range m.v.AllKeys() {
		if !known[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return extra
}
