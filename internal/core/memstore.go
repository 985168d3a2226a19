package core

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store. It backs preview overlays, dry runs
// and tests. Records are kept in insertion order per entity and tenant.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string][]Record // entity -> tenant -> records
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string][]Record)}
}

// Insert implements Store.
func (m *MemoryStore) Insert(ctx context.Context, entityKey, tenantID string, rec MappedRecord) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.NewString()
	stored := make(Record, len(rec)+1)
	for k, v := range rec {
		stored[k] = v
	}
	stored["id"] = id

	if m.data[entityKey] == nil {
		m.data[entityKey] = make(map[string][]Record)
	}
	m.data[entityKey][tenantID] = append(m.data[entityKey][tenantID], stored)
	return id, nil
}

// ExistsWhere implements Store.
func (m *MemoryStore) ExistsWhere(ctx context.Context, entityKey, field, value, tenantID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, rec := range m.data[entityKey][tenantID] {
		v, ok := rec[field]
		if ok && v != nil && strings.TrimSpace(fmt.Sprint(v)) == value {
			return true, nil
		}
	}
	return false, nil
}

// SelectAll implements Store. Returned records are copies.
func (m *MemoryStore) SelectAll(ctx context.Context, entityKey, tenantID string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	src := m.data[entityKey][tenantID]
	out := make([]Record, len(src))
	for i, rec := range src {
		cp := make(Record, len(rec))
		for k, v := range rec {
			cp[k] = v
		}
		out[i] = cp
	}
	return out, nil
}

// DeleteWhere implements Store.
func (m *MemoryStore) DeleteWhere(ctx context.Context, entityKey, tenantID, id string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	recs := m.data[entityKey][tenantID]
	if id == "" {
		if m.data[entityKey] != nil {
			delete(m.data[entityKey], tenantID)
		}
		return int64(len(recs)), nil
	}

	kept := recs[:0]
	var n int64
	for _, rec := range recs {
		if rec["id"] == id {
			n++
			continue
		}
		kept = append(kept, rec)
	}
	if m.data[entityKey] != nil {
		m.data[entityKey][tenantID] = kept
	}
	return n, nil
}

// Count returns the number of records held for an entity and tenant.
func (m *MemoryStore) Count(entityKey, tenantID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data[entityKey][tenantID])
}

// overlayStore reads through to a base store and writes to memory.
// Used by Preview so that a dry run sees both live records and the
// records it would have inserted, without touching the live store.
type overlayStore struct {
	base  Store
	local *MemoryStore
}

func newOverlayStore(base Store) *overlayStore {
	return &overlayStore{base: base, local: NewMemoryStore()}
}

func (o *overlayStore) Insert(ctx context.Context, entityKey, tenantID string, rec MappedRecord) (string, error) {
	return o.local.Insert(ctx, entityKey, tenantID, rec)
}

func (o *overlayStore) ExistsWhere(ctx context.Context, entityKey, field, value, tenantID string) (bool, error) {
	if ok, _ := o.local.ExistsWhere(ctx, entityKey, field, value, tenantID); ok {
		return true, nil
	}
	return o.base.ExistsWhere(ctx, entityKey, field, value, tenantID)
}

func (o *overlayStore) SelectAll(ctx context.Context, entityKey, tenantID string) ([]Record, error) {
	live, err := o.base.SelectAll(ctx, entityKey, tenantID)
	if err != nil {
		return nil, err
	}
	local, err := o.local.SelectAll(ctx, entityKey, tenantID)
	if err != nil {
		return nil, err
	}
	return append(live, local...), nil
}

func (o *overlayStore) DeleteWhere(ctx context.Context, entityKey, tenantID, id string) (int64, error) {
	return o.local.DeleteWhere(ctx, entityKey, tenantID, id)
}
