package db

import (
	"context"

	"github.com/klvinai/sentinelsuite/internal/store"
)

// StoreAdapter narrows *Pool down to the store.Querier surface so
// internal/store never imports pgx directly for its interface boundary.
type StoreAdapter struct {
	pool *Pool
}

// NewStoreAdapter wraps a connection pool for use by internal/store.
func NewStoreAdapter(pool *Pool) *StoreAdapter {
	return &StoreAdapter{pool: pool}
}

func (a *StoreAdapter) Query(ctx context.Context, sql string, args ...interface{}) (store.Rows, error) {
	return a.pool.Query(ctx, sql, args...)
}

func (a *StoreAdapter) QueryRow(ctx context.Context, sql string, args ...interface{}) store.Row {
	return a.pool.QueryRow(ctx, sql, args...)
}
