package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/Layr-Labs/multisig-account-go/pkg/persistence"
)

// MemoryPersistence is an in-memory implementation of IStateStore.
// Intended for tests and local development: all data is lost when the
// process exits. Values are copied on the way in and out so callers can
// never mutate stored bytes.
type MemoryPersistence struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

var _ persistence.IStateStore = (*MemoryPersistence)(nil)

// NewMemoryPersistence creates a new in-memory store.
func NewMemoryPersistence() *MemoryPersistence {
	return &MemoryPersistence{
		data: make(map[string][]byte),
	}
}

// NewTransaction opens a transaction whose writes are buffered until Commit.
func (m *MemoryPersistence) NewTransaction(_ context.Context) (persistence.ITransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, persistence.ErrClosed
	}

	return &memoryTxn{
		store:  m,
		writes: make(map[string][]byte),
	}, nil
}

// Close marks the store closed. Idempotent.
func (m *MemoryPersistence) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

// HealthCheck verifies the store is still open.
func (m *MemoryPersistence) HealthCheck() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return persistence.ErrClosed
	}
	return nil
}

// Len returns the number of committed keys.
func (m *MemoryPersistence) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

func (m *MemoryPersistence) get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, false, persistence.ErrClosed
	}
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return copyBytes(v), true, nil
}

// apply writes a transaction's buffer; nil values are deletions.
func (m *MemoryPersistence) apply(writes map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return persistence.ErrClosed
	}

	for k, v := range writes {
		if v == nil {
			delete(m.data, k)
			continue
		}
		m.data[k] = copyBytes(v)
	}
	return nil
}

type memoryTxn struct {
	store  *MemoryPersistence
	writes map[string][]byte
	done   bool
}

func (t *memoryTxn) Get(key []byte) ([]byte, error) {
	if t.done {
		return nil, persistence.ErrTransactionDone
	}
	if v, ok := t.writes[string(key)]; ok {
		return copyBytes(v), nil
	}
	v, _, err := t.store.get(string(key))
	return v, err
}

func (t *memoryTxn) Set(key, value []byte) error {
	if t.done {
		return persistence.ErrTransactionDone
	}
	if value == nil {
		value = []byte{}
	}
	t.writes[string(key)] = copyBytes(value)
	return nil
}

func (t *memoryTxn) Delete(key []byte) error {
	if t.done {
		return persistence.ErrTransactionDone
	}
	t.writes[string(key)] = nil
	return nil
}

func (t *memoryTxn) Commit() error {
	if t.done {
		return persistence.ErrTransactionDone
	}
	t.done = true
	if err := t.store.apply(t.writes); err != nil {
		return fmt.Errorf("failed to commit memory transaction: %w", err)
	}
	return nil
}

func (t *memoryTxn) Discard() {
	t.done = true
	t.writes = nil
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
