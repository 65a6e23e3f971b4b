package gitcli

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// DefaultNetworkConcurrency bounds network-bound git operations when no limit is configured.
const DefaultNetworkConcurrency = 2

// Pool limits concurrent network-bound git operations using a weighted semaphore.
type Pool struct {
	slots *semaphore.Weighted
}

// NewPool creates a Pool that allows at most limit concurrent operations.
func NewPool(limit int) *Pool {
	if limit < 1 {
		limit = 1
	}
	return &Pool{slots: semaphore.NewWeighted(int64(limit))}
}

// Run acquires a slot, invokes operation, and releases the slot. A nil Pool
// runs operation directly. Waiting for a slot returns the context error when
// the context ends first.
func (pool *Pool) Run(executionContext context.Context, operation func() error) error {
	if pool == nil || pool.slots == nil {
		return operation()
	}
	if acquireError := pool.slots.Acquire(executionContext, 1); acquireError != nil {
		return acquireError
	}
	defer pool.slots.Release(1)
	return operation()
}
