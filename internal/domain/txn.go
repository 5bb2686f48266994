package domain

import "context"

// Transactor runs fn inside a single storage transaction. Repository calls
// made with the context passed to fn participate in that transaction; if fn
// returns an error the transaction is rolled back.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
