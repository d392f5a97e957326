// Package dbtest provides an in-memory stand-in for db.TxManager used by
// service tests.
package dbtest

import (
	"context"
	"sync"

	"github.com/hospify/hospify/internal/platform/db"
)

var _ db.TxManager = (*MemoryTxManager)(nil)

// Snapshotter is implemented by in-memory stores taking part in a
// MemoryTxManager transaction. Snapshot captures the current state and
// returns a function restoring it.
type Snapshotter interface {
	Snapshot() (restore func())
}

type memTxKey struct{}

// MemoryTxManager serializes units of work with a single lock and rolls
// registered stores back when fn fails. It backs the in-memory stores used
// by service tests.
type MemoryTxManager struct {
	mu     sync.Mutex
	stores []Snapshotter
}

func NewMemoryTxManager(stores ...Snapshotter) *MemoryTxManager {
	return &MemoryTxManager{stores: stores}
}

// Register adds stores to be rolled back on failure.
func (m *MemoryTxManager) Register(stores ...Snapshotter) {
	m.stores = append(m.stores, stores...)
}

func (m *MemoryTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if InMemoryTx(ctx) {
		return fn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	restores := make([]func(), 0, len(m.stores))
	for _, s := range m.stores {
		restores = append(restores, s.Snapshot())
	}

	if err := fn(context.WithValue(ctx, memTxKey{}, true)); err != nil {
		for i := len(restores) - 1; i >= 0; i-- {
			restores[i]()
		}
		return err
	}
	return nil
}

// InMemoryTx reports whether ctx is inside a MemoryTxManager transaction.
// Nested WithTransaction calls run inside the outer one.
func InMemoryTx(ctx context.Context) bool {
	v, _ := ctx.Value(memTxKey{}).(bool)
	return v
}
