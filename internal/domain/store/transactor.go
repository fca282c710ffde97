package store

import (
	"context"
	"fmt"
)

// ErrConflict is returned when a transaction kept conflicting after all retries.
var ErrConflict = fmt.Errorf("transaction conflict: retries exhausted")

// Transactor runs fn atomically. Repository calls made with the ctx passed to fn
// join the transaction. Implementations may call fn more than once on conflict,
// so fn must not have side effects outside the store.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
