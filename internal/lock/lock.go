// Package lock provides keyed mutual exclusion. Holders of different keys
// never block each other.
package lock

import "context"

// Locker acquires the lock for key, waiting until it is free or ctx is
// done. The returned func releases it and must be called exactly once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
