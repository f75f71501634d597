// Package memory provides in-process implementations of the
// repository interfaces plus a serializing transaction manager. It
// backs the test suite and the seed tool; production runs on the
// postgres package.
package memory

import (
	"context"
	"sync"
)

type txKeyType struct{}

var txKey = txKeyType{}

// TxManager serializes transactions with a single lock. Nested
// RunInTransaction calls reuse the transaction already on the context
// instead of deadlocking, mirroring how the SQL manager joins an
// ongoing transaction.
//
// There is no rollback: callers are expected to verify preconditions
// before mutating, which the domain services do.
type TxManager struct {
	mu sync.Mutex
}

// NewTxManager creates an in-process transaction manager.
func NewTxManager() *TxManager {
	return &TxManager{}
}

// RunInTransaction implements tx.Manager.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey) != nil {
		return fn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return fn(context.WithValue(ctx, txKey, struct{}{}))
}
