package stock

import (
	"context"
	"sync"
)

// TxRunner scopes a function to one unit of atomicity. The Postgres
// implementation (infra/db.Runner) wraps a transaction; SerialRunner below
// serializes on a mutex for in-memory wiring.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// SerialRunner is the in-memory TxRunner. It provides mutual exclusion but
// not rollback, so services pre-validate before mutating: inside the lock a
// checked operation cannot fail halfway. Nested calls join the surrounding
// scope instead of deadlocking on the mutex.
type SerialRunner struct {
	mu sync.Mutex
}

func NewSerialRunner() *SerialRunner { return &SerialRunner{} }

type serialTxKey struct{}

func (r *SerialRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(serialTxKey{}) != nil {
		return fn(ctx)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(context.WithValue(ctx, serialTxKey{}, struct{}{}))
}
