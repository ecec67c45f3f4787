package memory

import (
	"context"

	"farmstock/internal/core/tx"
)

// TxManager is a pass-through tx.Manager. The in-memory stores are already
// atomic per call, so the function body simply runs against the same context.
type TxManager struct{}

// NewTxManager creates a pass-through transaction manager.
func NewTxManager() *TxManager {
	return &TxManager{}
}

// RunInTransaction invokes fn directly.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

var _ tx.Manager = (*TxManager)(nil)
