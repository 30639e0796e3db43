package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/abgdnv/inventory/internal/store"
	"github.com/stretchr/testify/require"
)

// failingStore returns err from every operation.
type failingStore struct {
	err error
}

func (f *failingStore) Read(_ context.Context) (*store.Data, error) {
	return nil, f.err
}

func (f *failingStore) Write(_ context.Context, _ *store.Data) error {
	return f.err
}

func (f *failingStore) Update(_ context.Context, _ func(*store.Data) error) error {
	return f.err
}

var errStore = errors.New("store error")

// newTestStore opens a store in a temp dir seeded with data.
func newTestStore(t *testing.T, data *store.Data) *store.FileStore {
	t.Helper()
	s, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "inventory.json"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	if data != nil {
		require.NoError(t, s.Write(context.Background(), data))
	}
	return s
}

// snapshot returns the raw file content, used to prove an operation left the store unchanged.
func snapshot(t *testing.T, s *store.FileStore) []byte {
	t.Helper()
	raw, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	return raw
}
