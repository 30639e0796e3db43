package events

import (
	"encoding/json"
	"strconv"

	"github.com/abgdnv/inventory/pkg/messaging"
)

// StockChangedEvent is emitted after a transaction has been committed to the store.
type StockChangedEvent struct {
	TransactionID int64           `json:"transaction_id"`
	ProductID     int             `json:"product_id"`
	CustomerID    *int            `json:"customer_id"`
	Type          string          `json:"type"`
	Quantity      int             `json:"quantity"`
	StockAfter    int             `json:"stock_after"`
	Timestamp     json.RawMessage `json:"timestamp"`
}

func (e StockChangedEvent) Subject() string {
	return messaging.StockChangedSubject
}

func (e StockChangedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

// MessageID lets the broker drop a re-published copy of the same transaction.
func (e StockChangedEvent) MessageID() string {
	return strconv.FormatInt(e.TransactionID, 10)
}
