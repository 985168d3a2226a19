package core

// import_limiter.go bounds how many batches run at once.
//
// Two rules apply:
//   - a tenant runs at most one batch at a time; a second one fails fast
//     with ErrImportInProgress so that row numbers and duplicate counts stay
//     reproducible
//   - across tenants, a semaphore caps parallel batches; when every slot is
//     taken new batches wait up to maxWait and then fail with ErrTooManyImports
//
// WaitForDrain blocks until every active batch has finished, for graceful
// shutdown.

import (
	"context"
	"sync"
	"time"
)

// DefaultMaxConcurrentImports is the default limit for parallel batches.
const DefaultMaxConcurrentImports = 5

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 30 * time.Second

// ImportLimiter controls concurrent batch processing.
type ImportLimiter struct {
	semaphore chan struct{}
	maxWait   time.Duration

	mu      sync.Mutex
	tenants map[string]struct{}
}

// NewImportLimiter creates a limiter that allows at most maxConcurrent
// simultaneous batches. Zero values select the defaults.
func NewImportLimiter(maxConcurrent int, maxWait time.Duration) *ImportLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentImports
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	return &ImportLimiter{
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
		tenants:   make(map[string]struct{}),
	}
}

// Acquire claims the tenant and a global slot.
// The caller MUST call Release(tenantID) when the batch completes.
func (l *ImportLimiter) Acquire(ctx context.Context, tenantID string) error {
	if !l.claimTenant(tenantID) {
		return ErrImportInProgress
	}

	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.semaphore <- struct{}{}:
		return nil
	case <-waitCtx.Done():
		l.releaseTenant(tenantID)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManyImports
	}
}

// Release frees the tenant and its global slot.
// Must be called exactly once for each successful Acquire.
func (l *ImportLimiter) Release(tenantID string) {
	l.releaseTenant(tenantID)
	<-l.semaphore
}

func (l *ImportLimiter) claimTenant(tenantID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.tenants[tenantID]; busy {
		return false
	}
	l.tenants[tenantID] = struct{}{}
	return true
}

func (l *ImportLimiter) releaseTenant(tenantID string) {
	l.mu.Lock()
	delete(l.tenants, tenantID)
	l.mu.Unlock()
}

// Busy reports whether tenantID currently has a batch running.
func (l *ImportLimiter) Busy(tenantID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.tenants[tenantID]
	return ok
}

// ActiveCount returns the number of batches holding a slot.
func (l *ImportLimiter) ActiveCount() int {
	return len(l.semaphore)
}

// MaxConcurrent returns the maximum allowed concurrent batches.
func (l *ImportLimiter) MaxConcurrent() int {
	return cap(l.semaphore)
}

// WaitForDrain blocks until all active batches complete or ctx is done.
func (l *ImportLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ImportLimiterStatus is a snapshot of the limiter's state.
type ImportLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"maxConcurrent"`
	Tenants       int `json:"tenants"`
}

// Status returns the current limiter state for monitoring.
func (l *ImportLimiter) Status() ImportLimiterStatus {
	l.mu.Lock()
	tenants := len(l.tenants)
	l.mu.Unlock()

	active := len(l.semaphore)
	return ImportLimiterStatus{
		Active:        active,
		Available:     cap(l.semaphore) - active,
		MaxConcurrent: cap(l.semaphore),
		Tenants:       tenants,
	}
}
