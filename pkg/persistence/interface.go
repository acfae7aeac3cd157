package persistence

import (
	"context"
	"errors"
)

var (
	// ErrClosed is returned by every operation on a closed store
	ErrClosed = errors.New("persistence layer is closed")

	// ErrTransactionDone is returned when a committed or discarded transaction is reused
	ErrTransactionDone = errors.New("transaction already committed or discarded")
)

// IStateStore is the durable key/value backing of the execution host.
// All implementations must be thread-safe.
//
// Writes only become visible through Commit on a transaction; a discarded
// transaction leaves the store untouched. The host opens one transaction per
// atomic step, so a reverted step never reaches the backend.
type IStateStore interface {
	// NewTransaction opens a read-write transaction.
	NewTransaction(ctx context.Context) (ITransaction, error)

	// Close cleanly shuts down the store.
	// Idempotent - safe to call multiple times.
	Close() error

	// HealthCheck verifies the store is operational.
	HealthCheck() error
}

// ITransaction buffers reads and writes against an IStateStore
type ITransaction interface {
	// Get returns the value stored under key.
	// Returns nil, nil when the key does not exist.
	Get(key []byte) ([]byte, error)

	// Set stores value under key. An empty value is stored as-is.
	Set(key, value []byte) error

	// Delete removes key. Idempotent.
	Delete(key []byte) error

	// Commit atomically applies every buffered write.
	Commit() error

	// Discard drops every buffered write. Safe to call after Commit.
	Discard()
}
