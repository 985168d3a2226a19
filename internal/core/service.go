package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DefaultStoreTimeout bounds a single store call made on behalf of a record.
var DefaultStoreTimeout = 15 * time.Second

// Options configures a Service. Zero values select the defaults.
type Options struct {
	// DedupPolicy decides how failed existence checks are treated.
	DedupPolicy DedupPolicy

	// StrictNumbers rejects records with unparseable numeric fields
	// instead of coercing them to 0.
	StrictNumbers bool

	// DedupCacheSize bounds the per-batch duplicate hit cache.
	DedupCacheSize int

	// StoreTimeout bounds each store call.
	StoreTimeout time.Duration

	// MaxConcurrent caps parallel batches across tenants.
	MaxConcurrent int

	// MaxWait is how long a batch waits for a free slot.
	MaxWait time.Duration

	// OnProgress, if set, is called after every record.
	OnProgress ProgressCallback
}

// Service provides the import, preview and lifecycle operations over a Store.
type Service struct {
	store   Store
	limiter *ImportLimiter
	opts    Options
}

// NewService creates a Service backed by store.
func NewService(store Store, opts Options) *Service {
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = DefaultStoreTimeout
	}
	if opts.DedupCacheSize <= 0 {
		opts.DedupCacheSize = DefaultDedupCacheSize
	}

	return &Service{
		store:   store,
		limiter: NewImportLimiter(opts.MaxConcurrent, opts.MaxWait),
		opts:    opts,
	}
}

// Limiter returns the service's batch limiter.
func (s *Service) Limiter() *ImportLimiter {
	return s.limiter
}

// Options returns the effective options.
func (s *Service) Options() Options {
	return s.opts
}

// ListEntities returns every registered template sorted by key.
func (s *Service) ListEntities() []EntityTemplate {
	return All()
}

// checkTenant rejects tenant ids that are not UUIDs.
func checkTenant(tenantID string) error {
	if _, err := uuid.Parse(tenantID); err != nil {
		return ErrInvalidTenant(tenantID)
	}
	return nil
}

// storeCall derives the context for one store call. Store calls ignore the
// caller's cancellation and are bounded by the store timeout instead.
func (s *Service) storeCall(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.opts.StoreTimeout)
}
