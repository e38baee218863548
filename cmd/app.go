package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/frahmantamala/pennytrack/internal"
	"github.com/frahmantamala/pennytrack/internal/budget"
	"github.com/frahmantamala/pennytrack/internal/core/events"
	"github.com/frahmantamala/pennytrack/internal/ledger"
	"github.com/frahmantamala/pennytrack/internal/render"
	"github.com/frahmantamala/pennytrack/pkg/logger"
	"github.com/spf13/cobra"
)

// app is what every ledger command works with.
type app struct {
	ctx    context.Context
	cfg    *internal.Config
	ledger *ledger.Ledger
	out    io.Writer
	f      *render.Formatter
	logger *slog.Logger
}

func openApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(configDir)
	if err != nil {
		return nil, err
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	lg := logger.LoggerWrapper()

	l, err := ledger.Open(cmd.Context(), *cfg, lg)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	// one command, one date, even across midnight
	ctx := internal.ContextWithToday(cmd.Context(), l.Now(cmd.Context()))

	s := l.Settings.Settings()
	if noColors {
		s.UseColors = false
	}

	a := &app{
		ctx:    ctx,
		cfg:    cfg,
		ledger: l,
		out:    cmd.OutOrStdout(),
		f:      render.NewFormatter(s),
		logger: lg,
	}
	a.reportStartupRun()
	l.Bus.Subscribe(events.EventTypeBudgetAlert, a.printAlert)
	return a, nil
}

func (a *app) Close() {
	if err := a.ledger.Close(); err != nil {
		a.logger.Error("failed to close ledger", "error", err)
	}
}

func (a *app) printAlert(_ context.Context, event events.Event) error {
	ev, ok := event.(*events.BudgetAlertEvent)
	if !ok {
		return fmt.Errorf("expected BudgetAlertEvent, got %T", event)
	}
	alert, err := budget.AlertFromEvent(ev)
	if err != nil {
		return err
	}
	a.f.Alert(a.out, alert)
	return nil
}

// reportStartupRun prints what the recurrence run at startup added, with
// any budget alerts those expenses raised.
func (a *app) reportStartupRun() {
	added := a.ledger.Materialized
	if len(added) == 0 {
		return
	}
	fmt.Fprintln(a.out, a.f.Good.Render(fmt.Sprintf("Added %d recurring expense(s):", len(added))))
	for _, e := range added {
		fmt.Fprintf(a.out, "  %s %s (%s)\n", a.f.Amount(e.Amount), e.Category, e.Note)
		if alert, ok := a.ledger.Budgets.Check(*e); ok {
			a.f.Alert(a.out, *alert)
		}
	}
	fmt.Fprintln(a.out)
}

// withApp adapts a command body that needs an open ledger to cobra's RunE.
func withApp(run func(a *app, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		return run(a, cmd, args)
	}
}
