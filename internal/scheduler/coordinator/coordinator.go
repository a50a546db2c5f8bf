// Package coordinator serializes booking decisions per resource. Every
// submission and cancellation for a resource runs under that resource's
// lock, so overlap checks and ledger writes form one atomic decision.
package coordinator

import (
	"context"
	"sync"
	"time"

	apperrors "cospace/pkg/errors"
)

// resourceLock is a FIFO queue of waiters for one resource. Grants go
// strictly in arrival order.
type resourceLock struct {
	held    bool
	waiters []chan struct{}
}

// Coordinator hands out per-resource locks. Locks are created lazily on
// first use and kept for the life of the process; the set of resources
// is small and bounded.
type Coordinator struct {
	mu          sync.Mutex
	locks       map[string]*resourceLock
	waitTimeout time.Duration
}

func New(waitTimeout time.Duration) *Coordinator {
	return &Coordinator{
		locks:       make(map[string]*resourceLock),
		waitTimeout: waitTimeout,
	}
}

// Acquire blocks until the resource lock is granted, the context is
// cancelled, or the wait timeout elapses. Callers must Release with the
// same resourceID after a successful acquire.
func (c *Coordinator) Acquire(ctx context.Context, resourceID string) error {
	c.mu.Lock()
	lock, ok := c.locks[resourceID]
	if !ok {
		lock = &resourceLock{}
		c.locks[resourceID] = lock
	}

	if !lock.held {
		lock.held = true
		c.mu.Unlock()
		return nil
	}

	grant := make(chan struct{})
	lock.waiters = append(lock.waiters, grant)
	c.mu.Unlock()

	timer := time.NewTimer(c.waitTimeout)
	defer timer.Stop()

	select {
	case <-grant:
		return nil
	case <-ctx.Done():
		c.abandon(resourceID, grant)
		return apperrors.Timeout("Timed out waiting for resource lock")
	case <-timer.C:
		c.abandon(resourceID, grant)
		return apperrors.Timeout("Timed out waiting for resource lock")
	}
}

// abandon removes a waiter that gave up. If the grant raced the timeout,
// the waiter briefly owns the lock and must pass it on.
func (c *Coordinator) abandon(resourceID string, grant chan struct{}) {
	c.mu.Lock()
	lock := c.locks[resourceID]
	for i, w := range lock.waiters {
		if w == grant {
			lock.waiters = append(lock.waiters[:i], lock.waiters[i+1:]...)
			c.mu.Unlock()
			return
		}
	}
	// Not in the queue: the grant was already delivered.
	c.releaseLocked(lock)
	c.mu.Unlock()
}

// Release hands the lock to the oldest waiter, or marks it free.
func (c *Coordinator) Release(resourceID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	lock, ok := c.locks[resourceID]
	if !ok || !lock.held {
		return
	}
	c.releaseLocked(lock)
}

func (c *Coordinator) releaseLocked(lock *resourceLock) {
	if len(lock.waiters) == 0 {
		lock.held = false
		return
	}
	next := lock.waiters[0]
	lock.waiters = lock.waiters[1:]
	close(next)
}

// WithLock runs fn under the resource lock.
func (c *Coordinator) WithLock(ctx context.Context, resourceID string, fn func() error) error {
	if err := c.Acquire(ctx, resourceID); err != nil {
		return err
	}
	defer c.Release(resourceID)
	return fn()
}
