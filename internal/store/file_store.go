package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	inverrors "github.com/abgdnv/inventory/internal/errors"
	"github.com/gofrs/flock"
	"github.com/google/renameio/v2"
	"golang.org/x/sync/semaphore"
)

const (
	defaultLockTimeout = 5 * time.Second
	defaultLockRetry   = 10 * time.Millisecond
	filePerm           = 0o644
)

var _ Store = (*FileStore)(nil)

// FileStore implements Store on top of a single JSON file.
type FileStore struct {
	path        string
	sem         *semaphore.Weighted
	fileLock    *flock.Flock
	lockTimeout time.Duration
	lockRetry   time.Duration
	logger      *slog.Logger
}

// Option configures a FileStore.
type Option func(*FileStore)

// WithLockTimeout bounds how long an operation waits for the lock before failing with ErrLockTimeout.
func WithLockTimeout(d time.Duration) Option {
	return func(s *FileStore) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

// WithLockRetry sets the polling interval for the cross-process file lock.
func WithLockRetry(d time.Duration) Option {
	return func(s *FileStore) {
		if d > 0 {
			s.lockRetry = d
		}
	}
}

// WithLogger sets the logger for repairs and lock problems.
func WithLogger(logger *slog.Logger) Option {
	return func(s *FileStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open prepares the store file at path and returns a handle to it.
// A missing file is created and an empty or unparsable one is reset to empty collections.
// This is the only place where the content is repaired.
func Open(ctx context.Context, path string, opts ...Option) (*FileStore, error) {
	s := &FileStore{
		path:        path,
		sem:         semaphore.NewWeighted(1),
		fileLock:    flock.New(path + ".lock"),
		lockTimeout: defaultLockTimeout,
		lockRetry:   defaultLockRetry,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "store", "path", path)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	unlock, err := s.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.logger.InfoContext(ctx, "Store file not found, creating an empty one")
		return s, s.writeLocked(NewData())
	case err != nil:
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}
	if _, err := decode(raw); err != nil {
		s.logger.WarnContext(ctx, "Store file is corrupt, resetting to empty collections", "error", err)
		return s, s.writeLocked(NewData())
	}
	return s, nil
}

// Path returns the location of the store file.
func (s *FileStore) Path() string {
	return s.path
}

// Close releases the lock file handle.
func (s *FileStore) Close() error {
	return s.fileLock.Close()
}

// Read returns the whole document under the lock.
func (s *FileStore) Read(ctx context.Context) (*Data, error) {
	unlock, err := s.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return s.readLocked()
}

// Write replaces the whole document under the lock.
func (s *FileStore) Write(ctx context.Context, data *Data) error {
	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	return s.writeLocked(data)
}

// Update runs fn on the current document and writes the result, all within one lock acquisition.
// Nothing is written when fn fails.
func (s *FileStore) Update(ctx context.Context, fn func(data *Data) error) error {
	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	data, err := s.readLocked()
	if err != nil {
		return err
	}
	if err := fn(data); err != nil {
		return err
	}
	return s.writeLocked(data)
}

// lock acquires the in-process semaphore and then the file lock, both bounded by lockTimeout.
// The returned func releases them in reverse order.
func (s *FileStore) lock(ctx context.Context) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	if err := s.sem.Acquire(lockCtx, 1); err != nil {
		return nil, s.lockError(ctx, err)
	}
	locked, err := s.fileLock.TryLockContext(lockCtx, s.lockRetry)
	if err != nil || !locked {
		s.sem.Release(1)
		if err == nil {
			err = context.DeadlineExceeded
		}
		return nil, s.lockError(ctx, err)
	}
	return func() {
		if err := s.fileLock.Unlock(); err != nil {
			s.logger.Error("Failed to release store file lock", "error", err)
		}
		s.sem.Release(1)
	}, nil
}

// lockError tells a caller cancellation apart from the lock wait running out.
func (s *FileStore) lockError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("store lock: %w", ctxErr)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		s.logger.Warn("Store lock wait exceeded", "timeout", s.lockTimeout)
		return fmt.Errorf("%w after %s", inverrors.ErrLockTimeout, s.lockTimeout)
	}
	return fmt.Errorf("failed to lock store: %w", err)
}

func (s *FileStore) readLocked() (*Data, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}
	return decode(raw)
}

// writeLocked replaces the file atomically so a crash never leaves a half-written document.
func (s *FileStore) writeLocked(data *Data) error {
	raw, err := encode(data)
	if err != nil {
		return err
	}
	if err := renameio.WriteFile(s.path, raw, filePerm); err != nil {
		return fmt.Errorf("failed to write store file: %w", err)
	}
	return nil
}

func decode(raw []byte) (*Data, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, inverrors.ErrStoreCorrupt
	}
	var data Data
	if err := json.Unmarshal(trimmed, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", inverrors.ErrStoreCorrupt, err)
	}
	data.normalize()
	return &data, nil
}

func encode(data *Data) ([]byte, error) {
	if data == nil {
		data = NewData()
	}
	data.normalize()
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode store: %w", err)
	}
	return append(raw, '\n'), nil
}
