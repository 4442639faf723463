package ports

import (
	"context"
	"time"
)

// UnlockFunc is a function that releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker provides distributed concurrency control. The aggregate
// itself is not thread-safe, so when several runner replicas share a store,
// each evaluation pass must hold the machine's lock.
type DistributedLocker interface {
	// Lock attempts to acquire a distributed lock for the given key (e.g.
	// the machine ID). It blocks until the lock is acquired or the context
	// is canceled. The returned UnlockFunc MUST be called to release it.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
