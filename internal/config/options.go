package config

import "github.com/JonMunkholm/backoffice/internal/core"

// ServiceOptions converts the import settings into core service options.
func (c ImportConfig) ServiceOptions() core.Options {
	policy := core.FailOpen
	if !c.DedupFailOpen {
		policy = core.FailClosed
	}
	return core.Options{
		DedupPolicy:    policy,
		StrictNumbers:  c.StrictNumbers,
		DedupCacheSize: c.DedupCacheSize,
		StoreTimeout:   c.StoreTimeout,
		MaxConcurrent:  c.MaxConcurrent,
		MaxWait:        c.MaxWaitTime,
	}
}
