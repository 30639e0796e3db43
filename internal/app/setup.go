// Package app contains the application setup for the inventory service.
package app

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/inventory/internal/config"
	"github.com/abgdnv/inventory/internal/service"
	"github.com/abgdnv/inventory/internal/store"
	"github.com/abgdnv/inventory/internal/transport/rest"
	"github.com/abgdnv/inventory/pkg/messaging"
	"github.com/abgdnv/inventory/pkg/server"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
)

type Dependencies struct {
	ProductService     service.ProductService
	CustomerService    service.CustomerService
	TransactionService service.TransactionService
	// Metrics serves the Prometheus scrape endpoint. Nil when metrics are disabled.
	Metrics http.Handler
	Logger  *slog.Logger
}

func SetupDependencies(s store.Store, publisher messaging.Publisher, meter metric.Meter, logger *slog.Logger) (*Dependencies, error) {
	txService, err := service.NewTransactionService(s, publisher, meter, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction service: %w", err)
	}
	return &Dependencies{
		ProductService:     service.NewProductService(s),
		CustomerService:    service.NewCustomerService(s),
		TransactionService: txService,
		Logger:             logger,
	}, nil
}

// SetupHttpHandler builds the router with all routes and middleware.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies, cfg *config.Config) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps, cfg)
	if cfg.Telemetry.Traces.Enabled {
		return otelhttp.NewHandler(mux, "inventory-http")
	}
	return mux
}

// wireRoutes sets up the HTTP routes for the inventory service.
func wireRoutes(mux *chi.Mux, deps *Dependencies, cfg *config.Config) {
	handler := rest.NewHandler(deps.ProductService, deps.CustomerService, deps.TransactionService, deps.Logger)
	handler.RegisterRoutes(mux, cfg.HTTPServer.BasePath)
	if deps.Metrics != nil && cfg.Telemetry.Metrics.Enabled {
		mux.Method(http.MethodGet, cfg.Telemetry.Metrics.Path, deps.Metrics)
	}
}

// SetupHttpServer creates and configures an HTTP server for the inventory service.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	return server.NewHTTPServer(cfg.HTTPServer, SetupHttpHandler(deps, cfg), deps.Logger)
}
