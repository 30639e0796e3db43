package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	inverrors "github.com/abgdnv/inventory/internal/errors"
	"github.com/abgdnv/inventory/internal/store"
	"github.com/abgdnv/inventory/pkg/messaging"
	"github.com/abgdnv/inventory/pkg/messaging/events"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// TransactionService applies stock movements and lists the resulting log.
type TransactionService interface {
	// Apply validates the movement, changes the product quantity and appends a transaction, all in one store update.
	// Returns ErrProductNotFound, ErrCustomerNotFound, ErrInvalidQuantity, ErrInvalidTransactionType
	// or ErrInsufficientStock without touching the store.
	Apply(ctx context.Context, movement StockMovement) (*ProductDto, error)

	// FindAll returns the transaction log in the order it was written.
	FindAll(ctx context.Context) ([]store.Transaction, error)
}

// StockMovement is a requested change of a product quantity.
// An empty CustomerID skips the customer check. Timestamp is stored as received.
type StockMovement struct {
	ProductID  int             `json:"productId"`
	CustomerID Scalar          `json:"customerId"`
	Quantity   Scalar          `json:"quantity"`
	Type       string          `json:"type"`
	Timestamp  json.RawMessage `json:"timestamp"`
}

// Scalar is a JSON value kept as text: strings are unquoted, null is empty and anything else keeps its literal.
// Decoding never fails on well-formed JSON, so bad values are rejected by Apply in its check order.
type Scalar string

func (s *Scalar) UnmarshalJSON(b []byte) error {
	var text string
	if err := json.Unmarshal(b, &text); err == nil {
		*s = Scalar(text)
		return nil
	}
	*s = Scalar(b)
	return nil
}

func (s Scalar) String() string {
	return string(s)
}

// Transactions implements TransactionService.
type Transactions struct {
	store     store.Store
	publisher messaging.Publisher
	counter   metric.Int64Counter
	now       func() time.Time
	logger    *slog.Logger
}

// NewTransactionService builds the processor. The counter is registered on meter as inventory_stock_transactions_total.
func NewTransactionService(s store.Store, publisher messaging.Publisher, meter metric.Meter, logger *slog.Logger) (*Transactions, error) {
	counter, err := meter.Int64Counter(
		"inventory_stock_transactions",
		metric.WithDescription("Committed stock transactions"),
		metric.WithUnit("{transaction}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction counter: %w", err)
	}
	return &Transactions{
		store:     s,
		publisher: publisher,
		counter:   counter,
		now:       time.Now,
		logger:    logger.With("component", "transactions"),
	}, nil
}

func (s *Transactions) Apply(ctx context.Context, movement StockMovement) (*ProductDto, error) {
	var (
		product store.Product
		tx      store.Transaction
	)
	err := s.store.Update(ctx, func(data *store.Data) error {
		i := data.ProductIndex(movement.ProductID)
		if i < 0 {
			return inverrors.ErrProductNotFound
		}
		customerID, err := resolveCustomer(data, movement.CustomerID)
		if err != nil {
			return err
		}
		quantity, err := parseQuantity(movement.Quantity)
		if err != nil {
			return err
		}

		p := &data.Products[i]
		switch movement.Type {
		case store.TransactionAdd:
			if p.Quantity > 0 && quantity > math.MaxInt-p.Quantity {
				return fmt.Errorf("%w: adding %d to product %d overflows its stock", inverrors.ErrInvalidQuantity, quantity, p.ID)
			}
			p.Quantity += quantity
		case store.TransactionDeduct:
			if p.Quantity < quantity {
				return fmt.Errorf("%w: product %d has %d, requested %d", inverrors.ErrInsufficientStock, p.ID, p.Quantity, quantity)
			}
			p.Quantity -= quantity
		default:
			return fmt.Errorf("%w: %q", inverrors.ErrInvalidTransactionType, movement.Type)
		}

		tx = store.Transaction{
			ID:         nextTransactionID(s.now(), data.LastTransactionID()),
			ProductID:  p.ID,
			CustomerID: customerID,
			Quantity:   quantity,
			Type:       movement.Type,
			Timestamp:  movement.Timestamp,
		}
		data.Transactions = append(data.Transactions, tx)
		product = *p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to apply %s of product %d: %w", movement.Type, movement.ProductID, err)
	}

	s.counter.Add(ctx, 1, metric.WithAttributes(attribute.String("type", tx.Type)))
	event := events.StockChangedEvent{
		TransactionID: tx.ID,
		ProductID:     tx.ProductID,
		CustomerID:    tx.CustomerID,
		Type:          tx.Type,
		Quantity:      tx.Quantity,
		StockAfter:    product.Quantity,
		Timestamp:     tx.Timestamp,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish stock change", "transaction_id", tx.ID, "error", err)
	}

	dto := toProductDto(product)
	return &dto, nil
}

func (s *Transactions) FindAll(ctx context.Context) ([]store.Transaction, error) {
	data, err := s.store.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transactions: %w", err)
	}
	return data.Transactions, nil
}

// resolveCustomer returns nil for an absent customer and otherwise the id of a stored customer.
func resolveCustomer(data *store.Data, ref Scalar) (*int, error) {
	text := strings.TrimSpace(ref.String())
	if text == "" {
		return nil, nil
	}
	id, err := strconv.Atoi(text)
	if err != nil || data.CustomerIndex(id) < 0 {
		return nil, fmt.Errorf("%w: %q", inverrors.ErrCustomerNotFound, text)
	}
	return &id, nil
}

// parseQuantity accepts only base-10 integers greater than zero.
func parseQuantity(n Scalar) (int, error) {
	q, err := strconv.Atoi(strings.TrimSpace(n.String()))
	if err != nil || q <= 0 {
		return 0, fmt.Errorf("%w: %q", inverrors.ErrInvalidQuantity, n.String())
	}
	return q, nil
}

// nextTransactionID is seeded by wall-clock milliseconds but never repeats or goes backwards.
func nextTransactionID(now time.Time, last int64) int64 {
	return max(now.UnixMilli(), last+1)
}
