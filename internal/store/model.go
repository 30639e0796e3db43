package store

import "encoding/json"

// Product is a stocked item. Quantity only changes through transactions or a full update.
type Product struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
}

type Customer struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Transaction types.
const (
	TransactionAdd    = "add"
	TransactionDeduct = "deduct"
)

// Transaction is an immutable stock movement. Timestamp is whatever JSON value the caller sent.
type Transaction struct {
	ID         int64           `json:"id"`
	ProductID  int             `json:"productId"`
	CustomerID *int            `json:"customerId"`
	Quantity   int             `json:"quantity"`
	Type       string          `json:"type"`
	Timestamp  json.RawMessage `json:"timestamp"`
}

// Data is the whole persisted document. Field order is the on-disk key order.
type Data struct {
	Products     []Product     `json:"products"`
	Transactions []Transaction `json:"transactions"`
	Customers    []Customer    `json:"customers"`
}

// NewData returns a document with empty, non-nil collections.
func NewData() *Data {
	return &Data{
		Products:     []Product{},
		Transactions: []Transaction{},
		Customers:    []Customer{},
	}
}

// normalize replaces nil collections so they serialize as [] instead of null.
func (d *Data) normalize() {
	if d.Products == nil {
		d.Products = []Product{}
	}
	if d.Transactions == nil {
		d.Transactions = []Transaction{}
	}
	if d.Customers == nil {
		d.Customers = []Customer{}
	}
}

// ProductIndex returns the position of the product with id, or -1.
func (d *Data) ProductIndex(id int) int {
	for i := range d.Products {
		if d.Products[i].ID == id {
			return i
		}
	}
	return -1
}

// CustomerIndex returns the position of the customer with id, or -1.
func (d *Data) CustomerIndex(id int) int {
	for i := range d.Customers {
		if d.Customers[i].ID == id {
			return i
		}
	}
	return -1
}

// LastTransactionID returns the id of the newest transaction, or 0 for an empty log.
func (d *Data) LastTransactionID() int64 {
	if len(d.Transactions) == 0 {
		return 0
	}
	return d.Transactions[len(d.Transactions)-1].ID
}
