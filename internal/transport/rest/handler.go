// Package rest provides the HTTP handlers for products, customers and stock transactions.
package rest

import (
	"log/slog"
	"net/http"

	"github.com/abgdnv/inventory/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	products     *ProductHandler
	customers    *CustomerHandler
	transactions *TransactionHandler
}

// NewHandler creates the handlers for all resources. They share one validator.
func NewHandler(products service.ProductService, customers service.CustomerService, transactions service.TransactionService, logger *slog.Logger) *Handler {
	validate := validator.New()
	logger = logger.With("component", "rest")
	return &Handler{
		products:     &ProductHandler{service: products, validate: validate, logger: logger},
		customers:    &CustomerHandler{service: customers, validate: validate, logger: logger},
		transactions: &TransactionHandler{service: transactions, validate: validate, logger: logger},
	}
}

// RegisterRoutes mounts the API under basePath and the health check at /healthz.
func (h *Handler) RegisterRoutes(r chi.Router, basePath string) {
	r.Route(basePath, func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.products.FindAll)
			r.Post("/", h.products.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.products.FindByID)
				r.Put("/", h.products.Update)
				r.Delete("/", h.products.DeleteByID)
			})
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", h.customers.FindAll)
			r.Post("/", h.customers.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.customers.FindByID)
				r.Put("/", h.customers.Update)
				r.Delete("/", h.customers.DeleteByID)
			})
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", h.transactions.FindAll)
			r.Post("/", h.transactions.Apply)
		})
	})

	r.Get("/healthz", HealthCheck)
}

// HealthCheck is a simple health check endpoint.
func HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}
