package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/frahmantamala/pennytrack/internal/ledger"
	"github.com/frahmantamala/pennytrack/internal/settings"
	"github.com/spf13/cobra"
)

var backupForce bool

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Copy every data file into a timestamped backup directory",
	Args:  cobra.NoArgs,
	RunE: withApp(func(a *app, cmd *cobra.Command, _ []string) error {
		dir, files, err := a.ledger.Backup(a.ctx, backupForce)
		if errors.Is(err, ledger.ErrBackupDisabled) {
			fmt.Fprintln(a.out, a.f.Warn.Render("Backups are disabled; enable backup_enabled or pass --force."))
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s backup created: %s (%s)\n", a.f.Good.Render("✓"), dir, strings.Join(files, ", "))
		return nil
	}),
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change user preferences",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current settings",
	Args:  cobra.NoArgs,
	RunE: withApp(func(a *app, _ *cobra.Command, _ []string) error {
		s := a.ledger.Settings.Settings()
		fmt.Fprintf(a.out, "%-16s %t\n", settings.KeyUseColors, s.UseColors)
		fmt.Fprintf(a.out, "%-16s %s\n", settings.KeyCurrencySymbol, s.CurrencySymbol)
		fmt.Fprintf(a.out, "%-16s %s\n", settings.KeyDateFormat, s.DateFormat)
		fmt.Fprintf(a.out, "%-16s %t\n", settings.KeyBackupEnabled, s.BackupEnabled)
		if extra := a.ledger.Settings.Extra(); len(extra) > 0 {
			fmt.Fprintln(a.out, a.f.Muted.Render("other keys kept: "+strings.Join(extra, ", ")))
		}
		return nil
	}),
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Long:  "Known keys: " + strings.Join(settings.Keys(), ", "),
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(a *app, _ *cobra.Command, args []string) error {
		if err := a.ledger.Settings.Set(args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s %s updated\n", a.f.Good.Render("✓"), args[0])
		return nil
	}),
}

var settingsToggleCmd = &cobra.Command{
	Use:   "toggle <use_colors|backup_enabled>",
	Short: "Flip a true/false setting",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(a *app, _ *cobra.Command, args []string) error {
		key := strings.ToLower(args[0])
		if key != settings.KeyUseColors && key != settings.KeyBackupEnabled {
			return fmt.Errorf("%s is not a true/false setting", args[0])
		}
		value, err := a.ledger.Settings.Toggle(key)
		if err != nil {
			return err
		}
		state := "disabled"
		if value {
			state = "enabled"
		}
		fmt.Fprintf(a.out, "%s %s %s\n", a.f.Good.Render("✓"), key, state)
		return nil
	}),
}

func init() {
	backupCmd.Flags().BoolVar(&backupForce, "force", false, "back up even when backup_enabled is false")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsToggleCmd)
}
