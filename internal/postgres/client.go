package postgres

import "context"

// IClient is the subset of DB the service layer depends on.
// Keeping it narrow lets tests swap in a no-op transaction runner.
type IClient interface {
	// WithTx wraps the given function in a transaction
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

var _ IClient = (*DB)(nil)
