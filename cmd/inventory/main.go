// Package main runs the inventory HTTP service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "net/http/pprof"

	"github.com/abgdnv/inventory/internal/app"
	"github.com/abgdnv/inventory/internal/config"
	"github.com/abgdnv/inventory/internal/store"
	"github.com/abgdnv/inventory/pkg/bootstrap"
	"github.com/abgdnv/inventory/pkg/config/configloader"
	"github.com/abgdnv/inventory/pkg/messaging"
	"github.com/abgdnv/inventory/pkg/nats"
	"github.com/abgdnv/inventory/pkg/telemetry"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
)

const serviceName = "inventory"

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

// run opens the store, sets up telemetry and event publishing, and serves HTTP and pprof until ctx is cancelled.
func run(ctx context.Context) error {
	cfg, cfgErr := configloader.Load[*config.Config](serviceName)
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	fileStore, err := store.Open(ctx, cfg.Store.Path,
		store.WithLockTimeout(cfg.Store.LockTimeout),
		store.WithLockRetry(cfg.Store.LockRetry),
		store.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer fileStore.Close()
	logger.Info("Store opened", slog.String("path", fileStore.Path()))

	var metricsHandler http.Handler
	if cfg.Telemetry.Metrics.Enabled {
		mp, err := telemetry.NewMetricsProvider(serviceName)
		if err != nil {
			return err
		}
		defer shutdown(logger, "meter provider", cfg, mp.Shutdown)
		metricsHandler = mp.Handler()
	}
	if cfg.Telemetry.Traces.Enabled {
		tp, err := telemetry.NewTracerProvider(ctx, serviceName, cfg.Telemetry)
		if err != nil {
			return fmt.Errorf("failed to create tracer provider: %w", err)
		}
		defer shutdown(logger, "tracer provider", cfg, tp.Shutdown)
	}

	publisher, closePublisher, err := setupPublisher(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closePublisher()

	deps, err := app.SetupDependencies(fileStore, publisher, otel.Meter(serviceName), logger)
	if err != nil {
		return err
	}
	deps.Metrics = metricsHandler

	httpServer := app.SetupHttpServer(deps, cfg)
	pprofServer := &http.Server{
		Addr: cfg.PProf.Addr,
	}

	g, gCtx := errgroup.WithContext(ctx)
	serveUntilDone(g, gCtx, logger, "HTTP", httpServer, cfg)
	if cfg.PProf.Enabled {
		serveUntilDone(g, gCtx, logger, "pprof", pprofServer, cfg)
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("errgroup encountered an error: %w", err)
	}
	return nil
}

// serveUntilDone runs srv in g and shuts it down gracefully once ctx is cancelled.
func serveUntilDone(g *errgroup.Group, ctx context.Context, logger *slog.Logger, name string, srv *http.Server, cfg *config.Config) {
	g.Go(func() error {
		logger.Info(name+" server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s server failed: %w", name, err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down " + name + " server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

// setupPublisher connects to NATS when enabled and falls back to logging events otherwise.
// The returned func releases the connection.
func setupPublisher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (messaging.Publisher, func(), error) {
	if !cfg.NATS.Enabled {
		return messaging.NewLogPublisher(logger), func() {}, nil
	}
	nc, js, err := bootstrap.NewJetStream(ctx, cfg.NATS.Url, cfg.NATS.Timeout, cfg.NATS.Stream, []string{messaging.StockChangedSubject}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up NATS: %w", err)
	}
	logger.Info("Connected to NATS", slog.String("url", cfg.NATS.Url), slog.String("stream", cfg.NATS.Stream))
	publisher := messaging.NewBreakerPublisher(nats.NewNatsPublisher(js), cfg.Breaker)
	return publisher, func() {
		if err := nc.Drain(); err != nil {
			logger.Warn("Failed to drain NATS connection", "error", err)
		}
	}, nil
}

// shutdown flushes a telemetry provider within the configured shutdown timeout.
func shutdown(logger *slog.Logger, name string, cfg *config.Config, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		logger.Error("Failed to shut down "+name, "error", err)
	}
}
