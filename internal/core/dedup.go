package core

// dedup.go detects records that already exist in the store.
//
// Each template lists natural keys in priority order. For every key present
// in the record, the detector asks the store whether a record with that exact
// value exists for the tenant, and stops at the first hit.
//
// When an existence check fails (network or store error) the policy decides:
//   - fail-open (default): the key is treated as "no match" and the next key
//     is checked; if nothing matches the record is not a duplicate
//   - fail-closed: the error is returned and the record is rejected
//
// A detector lives for one batch. Positive answers, and the keys of records
// persisted by the batch, are cached per tenant/entity/field/value; records
// are never deleted while a batch runs, so a cached hit stays true.

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultDedupCacheSize bounds the positive-hit cache.
const DefaultDedupCacheSize = 4096

// DedupPolicy controls how existence-check failures are treated.
type DedupPolicy int

const (
	// FailOpen treats a failed check as "no match".
	FailOpen DedupPolicy = iota
	// FailClosed propagates a failed check as a record rejection.
	FailClosed
)

// String returns the policy name.
func (p DedupPolicy) String() string {
	if p == FailClosed {
		return "fail-closed"
	}
	return "fail-open"
}

// DuplicateMatch identifies the natural key that matched an existing record.
type DuplicateMatch struct {
	Field string
	Value string
}

func (m DuplicateMatch) String() string {
	return fmt.Sprintf("%s=%s", m.Field, m.Value)
}

// DuplicateDetector checks records against the store's natural keys.
type DuplicateDetector struct {
	store  Store
	policy DedupPolicy
	hits   *lru.Cache[string, struct{}]
}

// NewDuplicateDetector creates a detector over store.
// A cacheSize <= 0 selects DefaultDedupCacheSize.
func NewDuplicateDetector(store Store, policy DedupPolicy, cacheSize int) *DuplicateDetector {
	if cacheSize <= 0 {
		cacheSize = DefaultDedupCacheSize
	}
	hits, err := lru.New[string, struct{}](cacheSize)
	if err != nil {
		// lru.New only fails for a non-positive size.
		panic(err)
	}
	return &DuplicateDetector{store: store, policy: policy, hits: hits}
}

// Policy returns the detector's failure policy.
func (d *DuplicateDetector) Policy() DedupPolicy {
	return d.policy
}

// Check reports whether rec duplicates an existing record of tpl for tenant.
// Under FailOpen the returned error is always nil.
func (d *DuplicateDetector) Check(ctx context.Context, tpl EntityTemplate, rec MappedRecord, tenantID string) (DuplicateMatch, bool, error) {
	for _, field := range tpl.NaturalKeys {
		value, ok := naturalKeyValue(rec, field)
		if !ok {
			continue
		}

		key := cacheKey(tenantID, tpl.Key, field, value)
		if d.hits.Contains(key) {
			return DuplicateMatch{Field: field, Value: value}, true, nil
		}

		exists, err := d.store.ExistsWhere(ctx, tpl.Key, field, value, tenantID)
		if err != nil {
			if d.policy == FailClosed {
				return DuplicateMatch{}, false, fmt.Errorf("duplicate check on %s: %w", field, err)
			}
			loggerFrom(ctx).Warn("duplicate check failed, treating as no match",
				"entity", tpl.Key,
				"field", field,
				"tenant_id", tenantID,
				"error", err,
			)
			continue
		}

		if exists {
			d.hits.Add(key, struct{}{})
			return DuplicateMatch{Field: field, Value: value}, true, nil
		}
	}
	return DuplicateMatch{}, false, nil
}

// Remember records the natural keys of a freshly persisted record as hits.
func (d *DuplicateDetector) Remember(tpl EntityTemplate, rec MappedRecord, tenantID string) {
	for _, field := range tpl.NaturalKeys {
		if value, ok := naturalKeyValue(rec, field); ok {
			d.hits.Add(cacheKey(tenantID, tpl.Key, field, value), struct{}{})
		}
	}
}

// naturalKeyValue returns the record's non-empty string form of field.
func naturalKeyValue(rec MappedRecord, field string) (string, bool) {
	v, ok := rec[field]
	if !ok || isBlank(v) {
		return "", false
	}
	return strings.TrimSpace(fmt.Sprint(v)), true
}

func cacheKey(tenantID, entityKey, field, value string) string {
	return tenantID + "\x00" + entityKey + "\x00" + field + "\x00" + value
}
