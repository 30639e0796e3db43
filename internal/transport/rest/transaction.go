package rest

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	inverrors "github.com/abgdnv/inventory/internal/errors"
	"github.com/abgdnv/inventory/internal/service"
	"github.com/abgdnv/inventory/pkg/web"
	"github.com/go-playground/validator/v10"
)

type TransactionHandler struct {
	service  service.TransactionService
	validate *validator.Validate
	logger   *slog.Logger
}

// FindAll lists the transaction log.
func (h *TransactionHandler) FindAll(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.FindAll(r.Context())
	if err != nil {
		respondServiceError(w, r, h.logger, err, "", "Failed to fetch transactions")
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, list)
}

// Apply records a stock movement and answers with the updated product.
func (h *TransactionHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var movement service.StockMovement
	if !web.DecodeAndValidate(w, r, h.logger, h.validate, &movement) {
		return
	}
	h.logger.DebugContext(r.Context(), "Received stock movement", "productId", movement.ProductID, "type", movement.Type, "quantity", movement.Quantity)
	product, err := h.service.Apply(r.Context(), movement)
	if err != nil {
		respondServiceError(w, r, h.logger, err, rejectionMessage(err, movement), "Failed to apply transaction")
		return
	}
	h.logger.InfoContext(r.Context(), "Transaction applied", "productId", product.ID, "type", movement.Type, "stock", product.Quantity)
	web.RespondJSON(w, h.logger, http.StatusOK, product)
}

// rejectionMessage describes why a movement was not applied.
func rejectionMessage(err error, movement service.StockMovement) string {
	switch {
	case errors.Is(err, inverrors.ErrProductNotFound):
		return fmt.Sprintf("Product with ID %d not found", movement.ProductID)
	case errors.Is(err, inverrors.ErrCustomerNotFound):
		return fmt.Sprintf("Customer with ID %s not found", movement.CustomerID)
	case errors.Is(err, inverrors.ErrInvalidQuantity):
		return inverrors.ErrInvalidQuantity.Error()
	case errors.Is(err, inverrors.ErrInvalidTransactionType):
		return inverrors.ErrInvalidTransactionType.Error()
	case errors.Is(err, inverrors.ErrInsufficientStock):
		return inverrors.ErrInsufficientStock.Error()
	default:
		return "Transaction rejected"
	}
}
