package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/pennytrack/internal"
	"github.com/frahmantamala/pennytrack/internal/core/events"
	"github.com/frahmantamala/pennytrack/internal/ledger"
	"github.com/frahmantamala/pennytrack/pkg/logger"
	"github.com/spf13/cobra"
)

var workerInterval time.Duration

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Keep adding recurring expenses as they fall due",
	Long: `Run the recurrence engine once at start and again every --interval until
interrupted. Do not run it next to "server" on the same file backend; the
two processes would overwrite each other's writes.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		startRecurrenceWorker(cmd.Context())
	},
}

func startRecurrenceWorker(ctx context.Context) {
	config, err := loadConfig(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	config.Recurrence.RunOnStart = false

	logger.Init(config.Logging.Level, config.Logging.Format)
	lg := logger.Component("worker")

	l, err := ledger.Open(ctx, *config, logger.LoggerWrapper())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open ledger: %v\n", err)
		os.Exit(1)
	}
	defer l.Close()

	l.Bus.Subscribe(events.EventTypeBudgetAlert, func(ctx context.Context, event events.Event) error {
		lg.Warn("budget alert", "payload", event.Payload())
		return nil
	})

	run := func() {
		tick := internal.ContextWithToday(ctx, time.Now())
		created, err := l.Rules.Run(tick, l.Today(tick))
		if err != nil {
			lg.Error("recurring run failed", "error", err)
		}
		lg.Info("recurring run finished", "added", len(created))
	}

	lg.Info("starting recurrence worker", "interval", workerInterval, "rules", len(l.Rules.Rules()))
	run()

	ticker := time.NewTicker(workerInterval)
	defer ticker.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	lg.Info("recurrence worker is running. Press Ctrl+C to stop.")

	for {
		select {
		case <-ticker.C:
			run()
		case sig := <-sigChan:
			lg.Info("received signal, shutting down recurrence worker", "signal", sig)
			return
		}
	}
}

func init() {
	workerCmd.Flags().DurationVar(&workerInterval, "interval", time.Hour, "how often to check for due rules")
}
