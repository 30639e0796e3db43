// Package store persists products, customers and transactions as one JSON document.
//
// All access goes through a FileStore, which serializes readers and writers with an
// in-process semaphore plus an advisory lock on a sibling ".lock" file. A mutating
// operation holds one acquisition across its whole read-modify-write cycle.
package store

import "context"

// Store is the locked access layer used by the services.
type Store interface {
	// Read returns a copy of the persisted document.
	// Returns ErrStoreCorrupt if the content is empty or cannot be parsed.
	Read(ctx context.Context) (*Data, error)

	// Write replaces the persisted document with data.
	Write(ctx context.Context, data *Data) error

	// Update reads the document, passes it to fn and writes it back, all under one lock.
	// Nothing is written if fn returns an error; that error is returned unchanged.
	Update(ctx context.Context, fn func(data *Data) error) error
}
