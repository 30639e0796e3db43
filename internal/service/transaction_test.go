package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	inverrors "github.com/abgdnv/inventory/internal/errors"
	"github.com/abgdnv/inventory/internal/store"
	"github.com/abgdnv/inventory/pkg/messaging"
	"github.com/abgdnv/inventory/pkg/messaging/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type recordingPublisher struct {
	events []messaging.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event messaging.Event) error {
	p.events = append(p.events, event)
	return p.err
}

type processorFixture struct {
	store     *store.FileStore
	service   *Transactions
	publisher *recordingPublisher
	reader    *sdkmetric.ManualReader
}

func newProcessor(t *testing.T, seed *store.Data) *processorFixture {
	t.Helper()
	s := newTestStore(t, seed)
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	publisher := &recordingPublisher{}
	service, err := NewTransactionService(s, publisher, provider.Meter("test"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return &processorFixture{store: s, service: service, publisher: publisher, reader: reader}
}

// committed returns the counter value per transaction type.
func (f *processorFixture) committed(t *testing.T) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, f.reader.Collect(context.Background(), &rm))
	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "inventory_stock_transactions" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				typ, _ := dp.Attributes.Value(attribute.Key("type"))
				counts[typ.AsString()] = dp.Value
			}
		}
	}
	return counts
}

func stockSeed() *store.Data {
	return &store.Data{
		Products:  []store.Product{{ID: 1, Name: "Nut", Quantity: 10}},
		Customers: []store.Customer{{ID: 7, Name: "Ada"}},
	}
}

func Test_TransactionService_Apply_Deduct(t *testing.T) {
	// given
	f := newProcessor(t, stockSeed())

	// when
	product, err := f.service.Apply(context.Background(), StockMovement{
		ProductID: 1,
		Quantity:  "5",
		Type:      store.TransactionDeduct,
		Timestamp: json.RawMessage(`"t1"`),
	})

	// then
	require.NoError(t, err)
	assert.Equal(t, 5, product.Quantity)
	log, err := f.service.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, 1, log[0].ProductID)
	assert.Nil(t, log[0].CustomerID)
	assert.Equal(t, 5, log[0].Quantity)
	assert.Equal(t, store.TransactionDeduct, log[0].Type)
	assert.JSONEq(t, `"t1"`, string(log[0].Timestamp))
	assert.Equal(t, map[string]int64{store.TransactionDeduct: 1}, f.committed(t))
}

func Test_TransactionService_Apply_WithCustomer(t *testing.T) {
	f := newProcessor(t, stockSeed())

	product, err := f.service.Apply(context.Background(), StockMovement{
		ProductID:  1,
		CustomerID: "7",
		Quantity:   "3",
		Type:       store.TransactionAdd,
		Timestamp:  json.RawMessage(`{"at":"2024-01-01T00:00:00Z"}`),
	})

	require.NoError(t, err)
	assert.Equal(t, 13, product.Quantity)
	log, err := f.service.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, log, 1)
	require.NotNil(t, log[0].CustomerID)
	assert.Equal(t, 7, *log[0].CustomerID)
	assert.JSONEq(t, `{"at":"2024-01-01T00:00:00Z"}`, string(log[0].Timestamp))
}

func Test_TransactionService_Apply_Rejected(t *testing.T) {
	testCases := []struct {
		name        string
		movement    StockMovement
		expectError error
	}{
		{
			name:        "Error - product not found",
			movement:    StockMovement{ProductID: 2, Quantity: "1", Type: store.TransactionAdd},
			expectError: inverrors.ErrProductNotFound,
		},
		{
			name:        "Error - customer not found",
			movement:    StockMovement{ProductID: 1, CustomerID: "8", Quantity: "1", Type: store.TransactionAdd},
			expectError: inverrors.ErrCustomerNotFound,
		},
		{
			name:        "Error - zero quantity",
			movement:    StockMovement{ProductID: 1, Quantity: "0", Type: store.TransactionAdd},
			expectError: inverrors.ErrInvalidQuantity,
		},
		{
			name:        "Error - negative quantity",
			movement:    StockMovement{ProductID: 1, Quantity: "-4", Type: store.TransactionAdd},
			expectError: inverrors.ErrInvalidQuantity,
		},
		{
			name:        "Error - fractional quantity",
			movement:    StockMovement{ProductID: 1, Quantity: "2.5", Type: store.TransactionAdd},
			expectError: inverrors.ErrInvalidQuantity,
		},
		{
			name:        "Error - missing quantity",
			movement:    StockMovement{ProductID: 1, Type: store.TransactionAdd},
			expectError: inverrors.ErrInvalidQuantity,
		},
		{
			name:        "Error - unknown type",
			movement:    StockMovement{ProductID: 1, Quantity: "1", Type: "bogus"},
			expectError: inverrors.ErrInvalidTransactionType,
		},
		{
			name:        "Error - insufficient stock",
			movement:    StockMovement{ProductID: 1, Quantity: "11", Type: store.TransactionDeduct},
			expectError: inverrors.ErrInsufficientStock,
		},
		{
			name:        "Error - product checked before quantity",
			movement:    StockMovement{ProductID: 2, Quantity: "0", Type: "bogus"},
			expectError: inverrors.ErrProductNotFound,
		},
		{
			name:        "Error - non-numeric customer id",
			movement:    StockMovement{ProductID: 1, CustomerID: "abc", Quantity: "1", Type: store.TransactionAdd},
			expectError: inverrors.ErrCustomerNotFound,
		},
		{
			name:        "Error - add overflows stock",
			movement:    StockMovement{ProductID: 1, Quantity: "9223372036854775807", Type: store.TransactionAdd},
			expectError: inverrors.ErrInvalidQuantity,
		},
		{
			name:        "Error - product checked before non-numeric quantity",
			movement:    StockMovement{ProductID: 999, Quantity: "abc", Type: store.TransactionDeduct},
			expectError: inverrors.ErrProductNotFound,
		},
		{
			name:        "Error - quantity checked before type",
			movement:    StockMovement{ProductID: 1, Quantity: "x", Type: "bogus"},
			expectError: inverrors.ErrInvalidQuantity,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			f := newProcessor(t, stockSeed())
			before := snapshot(t, f.store)
			// when
			product, err := f.service.Apply(context.Background(), tc.movement)
			// then
			assert.ErrorIs(t, err, tc.expectError)
			assert.Nil(t, product)
			assert.Equal(t, before, snapshot(t, f.store))
			assert.Empty(t, f.publisher.events)
			assert.Empty(t, f.committed(t))
		})
	}
}

func Test_TransactionService_Apply_EmptyCustomerSkipsCheck(t *testing.T) {
	testCases := []struct {
		name     string
		customer Scalar
	}{
		{name: "Absent", customer: ""},
		{name: "Blank", customer: "  "},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			f := newProcessor(t, stockSeed())
			// when
			product, err := f.service.Apply(context.Background(), StockMovement{ProductID: 1, CustomerID: tc.customer, Quantity: "5", Type: store.TransactionDeduct})
			// then
			require.NoError(t, err)
			assert.Equal(t, 5, product.Quantity)
			log, err := f.service.FindAll(context.Background())
			require.NoError(t, err)
			require.Len(t, log, 1)
			assert.Nil(t, log[0].CustomerID)
		})
	}
}

func Test_TransactionService_Apply_AddUpToMaxStock(t *testing.T) {
	// given
	f := newProcessor(t, stockSeed())

	// when
	product, err := f.service.Apply(context.Background(), StockMovement{ProductID: 1, Quantity: "9223372036854775797", Type: store.TransactionAdd})

	// then
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt, product.Quantity)
}

func Test_Scalar_UnmarshalJSON(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected Scalar
	}{
		{name: "Number", input: `5`, expected: "5"},
		{name: "String", input: `"5"`, expected: "5"},
		{name: "Empty string", input: `""`, expected: ""},
		{name: "Null", input: `null`, expected: ""},
		{name: "Boolean", input: `true`, expected: "true"},
		{name: "Fraction", input: `2.5`, expected: "2.5"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var movement StockMovement
			err := json.Unmarshal([]byte(`{"quantity":`+tc.input+`}`), &movement)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, movement.Quantity)
		})
	}
}

func Test_TransactionService_Apply_DeductWholeStock(t *testing.T) {
	f := newProcessor(t, stockSeed())

	product, err := f.service.Apply(context.Background(), StockMovement{ProductID: 1, Quantity: "10", Type: store.TransactionDeduct})

	require.NoError(t, err)
	assert.Equal(t, 0, product.Quantity)
}

func Test_TransactionService_Apply_AddThenDeductRestoresQuantity(t *testing.T) {
	// given
	f := newProcessor(t, stockSeed())
	ctx := context.Background()

	// when
	_, err := f.service.Apply(ctx, StockMovement{ProductID: 1, Quantity: "4", Type: store.TransactionAdd, Timestamp: json.RawMessage(`"a"`)})
	require.NoError(t, err)
	product, err := f.service.Apply(ctx, StockMovement{ProductID: 1, Quantity: "4", Type: store.TransactionDeduct, Timestamp: json.RawMessage(`"b"`)})
	require.NoError(t, err)

	// then
	assert.Equal(t, 10, product.Quantity)
	log, err := f.service.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, log, 2)
	assert.Equal(t, store.TransactionAdd, log[0].Type)
	assert.Equal(t, store.TransactionDeduct, log[1].Type)
	assert.Less(t, log[0].ID, log[1].ID)
	assert.Equal(t, map[string]int64{store.TransactionAdd: 1, store.TransactionDeduct: 1}, f.committed(t))
}

func Test_TransactionService_Apply_IDsStrictlyIncreaseWithFrozenClock(t *testing.T) {
	f := newProcessor(t, stockSeed())
	frozen := time.UnixMilli(1_700_000_000_000)
	f.service.now = func() time.Time { return frozen }

	for range 3 {
		_, err := f.service.Apply(context.Background(), StockMovement{ProductID: 1, Quantity: "1", Type: store.TransactionAdd})
		require.NoError(t, err)
	}

	log, err := f.service.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, log, 3)
	assert.Equal(t, frozen.UnixMilli(), log[0].ID)
	assert.Equal(t, frozen.UnixMilli()+1, log[1].ID)
	assert.Equal(t, frozen.UnixMilli()+2, log[2].ID)
}

func Test_TransactionService_Apply_PublishesEvent(t *testing.T) {
	// given
	f := newProcessor(t, stockSeed())

	// when
	_, err := f.service.Apply(context.Background(), StockMovement{
		ProductID:  1,
		CustomerID: "7",
		Quantity:   "2",
		Type:       store.TransactionDeduct,
		Timestamp:  json.RawMessage(`"t"`),
	})

	// then
	require.NoError(t, err)
	require.Len(t, f.publisher.events, 1)
	event, ok := f.publisher.events[0].(events.StockChangedEvent)
	require.True(t, ok)
	assert.Equal(t, messaging.StockChangedSubject, event.Subject())
	assert.Equal(t, 1, event.ProductID)
	assert.Equal(t, 7, *event.CustomerID)
	assert.Equal(t, 2, event.Quantity)
	assert.Equal(t, 8, event.StockAfter)
	assert.NotZero(t, event.TransactionID)
}

func Test_TransactionService_Apply_PublishFailureIsNotReturned(t *testing.T) {
	f := newProcessor(t, stockSeed())
	f.publisher.err = errors.New("broker down")

	product, err := f.service.Apply(context.Background(), StockMovement{ProductID: 1, Quantity: "1", Type: store.TransactionAdd})

	require.NoError(t, err)
	assert.Equal(t, 11, product.Quantity)
	log, err := f.service.FindAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, log, 1)
}

func Test_TransactionService_StoreErrors(t *testing.T) {
	service, err := NewTransactionService(&failingStore{err: errStore}, &recordingPublisher{},
		sdkmetric.NewMeterProvider().Meter("test"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	_, err = service.Apply(context.Background(), StockMovement{ProductID: 1, Quantity: "1", Type: store.TransactionAdd})
	assert.ErrorIs(t, err, errStore)
	_, err = service.FindAll(context.Background())
	assert.ErrorIs(t, err, errStore)
}

func Test_nextTransactionID(t *testing.T) {
	now := time.UnixMilli(1000)
	testCases := []struct {
		name     string
		last     int64
		expected int64
	}{
		{name: "empty log uses the clock", last: 0, expected: 1000},
		{name: "older log uses the clock", last: 500, expected: 1000},
		{name: "same millisecond bumps", last: 1000, expected: 1001},
		{name: "clock behind log bumps", last: 5000, expected: 5001},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, nextTransactionID(now, tc.last))
		})
	}
}
