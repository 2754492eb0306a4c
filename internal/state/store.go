package state

import "context"

// Store is the durable key-value surface behind executor idempotency keys
// and the fill audit trail. Get reports a miss through the bool, not an
// error; errors are reserved for the backing store failing.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}
