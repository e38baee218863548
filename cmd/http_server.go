package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/frahmantamala/pennytrack/api"
	"github.com/frahmantamala/pennytrack/internal"
	"github.com/frahmantamala/pennytrack/internal/ledger"
	"github.com/frahmantamala/pennytrack/internal/transport/rest"
	"github.com/frahmantamala/pennytrack/pkg/logger"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serverAddress string

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Serve the ledger as a JSON API on a loopback address, with Swagger UI at /swagger/.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return startHTTPServer(cmd.Context())
	},
}

type Dependencies struct {
	Config *internal.Config
	Ledger *ledger.Ledger
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer(ctx context.Context) error {
	deps, err := initializeDependencies(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer func() {
		if err := deps.Ledger.Close(); err != nil {
			deps.Logger.Error("ledger close error", "error", err)
		}
	}()

	cfg := deps.Config.Server
	server := &http.Server{
		Addr:              cfg.Address,
		Handler:           deps.Router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		deps.Logger.Info("starting HTTP server", "address", cfg.Address, "backend", deps.Config.Storage.Backend)
		fmt.Fprintf(os.Stdout, "Penny Track API listening on http://%s (Swagger UI at /swagger/index.html)\n", cfg.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		deps.Logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		deps.Logger.Error("server stopped with error", "error", err)
		return err
	}
	deps.Logger.Info("server stopped")
	return nil
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	config, err := loadConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if serverAddress != "" {
		config.Server.Address = serverAddress
	}

	logger.Init(config.Logging.Level, config.Logging.Format)
	lg := logger.Component("http")

	doc, err := api.Load(ctx)
	if err != nil {
		return nil, err
	}

	l, err := ledger.Open(ctx, *config, logger.LoggerWrapper())
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	router := chi.NewRouter()
	if err := rest.RegisterAllRoutes(router, l, doc, lg); err != nil {
		_ = l.Close()
		return nil, err
	}

	return &Dependencies{
		Config: config,
		Ledger: l,
		Router: router,
		Logger: lg,
	}, nil
}

func init() {
	httpServerCmd.Flags().StringVar(&serverAddress, "address", "", "listen address (overrides http_server.address)")
}
