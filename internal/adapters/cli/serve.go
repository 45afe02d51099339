package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/andrescamacho/mediator-go/internal/adapters/httpapi"
	"github.com/andrescamacho/mediator-go/internal/adapters/metrics"
	"github.com/andrescamacho/mediator-go/internal/infrastructure/pidfile"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the order API over HTTP",
		Long: `Start the HTTP API and, when enabled, the Prometheus metrics endpoint.

Callers identify themselves with the X-Customer-ID, X-Roles and X-Subject
headers. SIGINT or SIGTERM triggers a graceful shutdown.

Example:
  mediator serve --config ./configs/config.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}

	return cmd
}

func serve(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Acquire PID file lock to prevent multiple instances
	pf := pidfile.New(cfg.Server.PIDFile)
	if err := pf.Acquire(); err != nil {
		return fmt.Errorf("failed to acquire PID file lock: %w", err)
	}
	defer pf.Release()

	app, err := NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := app.Close(closeCtx); err != nil {
			app.Logger.Warn("Failed to close adapters cleanly", "error", err)
		}
	}()

	g, ctx := errgroup.WithContext(ctx)

	api := httpapi.NewAPI(app.Mediator, app.Logger)
	server := httpapi.NewServer(cfg.Server, api.Handler(), app.Logger)
	g.Go(func() error { return server.Run(ctx) })

	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewServer(cfg.Metrics, app.Metrics)
		g.Go(func() error {
			app.Logger.Info("Metrics server starting", "addr", metricsServer.Addr, "path", cfg.Metrics.Path)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server failed: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return metricsServer.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	app.Logger.Info("Shutdown complete")
	return err
}
