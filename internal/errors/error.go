// Package errors provides the error values shared by the store, the services and the HTTP layer.
package errors

import "errors"

// Not found: the referenced record does not exist.
var ErrProductNotFound = errors.New("product not found")
var ErrCustomerNotFound = errors.New("customer not found")

// Validation: the stock movement was rejected before anything was changed.
var ErrInvalidQuantity = errors.New("quantity must be a positive integer")
var ErrInvalidTransactionType = errors.New("transaction type must be 'add' or 'deduct'")
var ErrInsufficientStock = errors.New("insufficient stock")

// Store access.
var ErrStoreCorrupt = errors.New("store content is empty or unreadable")
var ErrLockTimeout = errors.New("timed out waiting for the store lock")

// IsNotFound reports whether err means a referenced record is absent.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound) || errors.Is(err, ErrCustomerNotFound)
}

// IsValidation reports whether err is a rejected stock movement.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidTransactionType) ||
		errors.Is(err, ErrInsufficientStock)
}
