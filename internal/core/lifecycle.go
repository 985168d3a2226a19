package core

// lifecycle.go implements the bulk operations over every entity of a tenant:
// export (backup), restore, and deletion.
//
// Entities reference each other (a receivable points at a contact). Bulk
// deletion runs dependents first; restore runs in the reverse order so that
// referenced records exist before the records pointing at them. The order is
// derived from each template's References, not hard-coded.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// IdentityFields are assigned by the store and stripped on restore.
var IdentityFields = []string{"id", "tenant_id", "created_at", "updated_at"}

// Backup is an export document: entity key -> that entity's records.
type Backup map[string][]Record

// DeleteCount is the number of records removed for one entity.
type DeleteCount struct {
	EntityKey string `json:"entityKey"`
	Deleted   int64  `json:"deleted"`
}

// RestoreResult collects the per-entity import results of a restore.
type RestoreResult struct {
	Results    []*ImportResult `json:"results"`
	Ignored    []string        `json:"ignored,omitempty"` // Unregistered keys in the document
	DurationMs int64           `json:"durationMs"`
}

// DeletionOrder returns every registered entity key ordered so that an
// entity comes before every entity it references. Ties are broken by key.
// References to unregistered keys are ignored.
func DeletionOrder() ([]string, error) {
	tpls := All()

	registered := make(map[string]bool, len(tpls))
	for _, t := range tpls {
		registered[t.Key] = true
	}

	// indegree counts the registered dependents still waiting to go first.
	indegree := make(map[string]int, len(tpls))
	edges := make(map[string][]string, len(tpls))
	for _, t := range tpls {
		for _, ref := range t.References {
			if !registered[ref] || ref == t.Key {
				continue
			}
			edges[t.Key] = append(edges[t.Key], ref)
			indegree[ref]++
		}
	}

	var ready []string
	for _, t := range tpls {
		if indegree[t.Key] == 0 {
			ready = append(ready, t.Key)
		}
	}

	order := make([]string, 0, len(tpls))
	for len(ready) > 0 {
		sort.Strings(ready)
		key := ready[0]
		ready = ready[1:]
		order = append(order, key)

		for _, ref := range edges[key] {
			indegree[ref]--
			if indegree[ref] == 0 {
				ready = append(ready, ref)
			}
		}
	}

	if len(order) != len(tpls) {
		var stuck []string
		for _, t := range tpls {
			if indegree[t.Key] > 0 {
				stuck = append(stuck, t.Key)
			}
		}
		return nil, ErrDependencyCycle(stuck)
	}
	return order, nil
}

// RestoreOrder returns every registered entity key with referenced entities
// before the entities that reference them.
func RestoreOrder() ([]string, error) {
	order, err := DeletionOrder()
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order, nil
}

// ExportAll reads every entity of tenantID into a Backup. Entities with no
// records appear with an empty list.
func (s *Service) ExportAll(ctx context.Context, tenantID string) (Backup, error) {
	if err := checkTenant(tenantID); err != nil {
		return nil, err
	}

	backup := make(Backup)
	for _, tpl := range All() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		callCtx, cancel := s.storeCall(ctx)
		recs, err := s.store.SelectAll(callCtx, tpl.Key, tenantID)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", tpl.Key, err)
		}
		if recs == nil {
			recs = []Record{}
		}
		backup[tpl.Key] = recs
	}

	loggerFrom(ctx).Info("export finished", "tenant_id", tenantID, "entities", len(backup))
	return backup, nil
}

// RestoreBackup re-imports a Backup document for tenantID. Identity fields
// are stripped and reassigned by the store. Each entity is imported through
// the regular pipeline, so records that already exist are skipped as
// duplicates and a restore can be re-run safely.
func (s *Service) RestoreBackup(ctx context.Context, tenantID string, data []byte) (*RestoreResult, error) {
	start := time.Now()

	if err := checkTenant(tenantID); err != nil {
		return nil, err
	}

	text, err := DecodeText(data)
	if err != nil {
		return nil, ErrInputMalformed(err)
	}
	if len(bytes.TrimSpace([]byte(text))) == 0 {
		return nil, ErrInputEmpty()
	}

	doc, err := decodeBackup([]byte(text))
	if err != nil {
		return nil, ErrInputMalformed(err)
	}

	order, err := RestoreOrder()
	if err != nil {
		return nil, err
	}

	result := &RestoreResult{Results: []*ImportResult{}}
	for key := range doc {
		if _, err := Template(key); err != nil {
			result.Ignored = append(result.Ignored, key)
		}
	}
	sort.Strings(result.Ignored)

	if err := s.limiter.Acquire(ctx, tenantID); err != nil {
		return nil, err
	}
	defer s.limiter.Release(tenantID)

	for _, key := range order {
		objects, ok := doc[key]
		if !ok || len(objects) == 0 {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		for _, obj := range objects {
			for _, f := range IdentityFields {
				delete(obj, f)
			}
		}

		tpl, err := Template(key)
		if err != nil {
			return nil, err
		}
		res, err := s.importRows(ctx, s.newBatch(ctx, tenantID, tpl, s.store), objectReader(objects), false)
		if err != nil {
			return nil, fmt.Errorf("restore %s: %w", key, err)
		}
		result.Results = append(result.Results, res)
	}

	result.DurationMs = time.Since(start).Milliseconds()
	return result, nil
}

// decodeBackup decodes an export document: a JSON object whose values are
// arrays of objects.
func decodeBackup(data []byte) (map[string][]map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}

	doc := make(map[string][]map[string]any, len(raw))
	for key, v := range raw {
		arr, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("%s: expected an array of records", key)
		}
		objects, err := asObjects(arr)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		doc[key] = objects
	}
	return doc, nil
}

// DeleteAll removes every record of tenantID, dependents first. On failure
// the counts of the entities already cleared are returned with the error.
func (s *Service) DeleteAll(ctx context.Context, tenantID string) ([]DeleteCount, error) {
	if err := checkTenant(tenantID); err != nil {
		return nil, err
	}

	order, err := DeletionOrder()
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Acquire(ctx, tenantID); err != nil {
		return nil, err
	}
	defer s.limiter.Release(tenantID)

	counts := make([]DeleteCount, 0, len(order))
	for _, key := range order {
		n, err := s.deleteWhere(ctx, tenantID, key, "")
		if err != nil {
			return counts, fmt.Errorf("delete %s: %w", key, err)
		}
		counts = append(counts, DeleteCount{EntityKey: key, Deleted: n})
	}

	loggerFrom(ctx).Info("deleted all records",
		"tenant_id", tenantID,
		"entities", len(counts),
		"ip", GetIPAddressFromContext(ctx),
		"user_agent", GetUserAgentFromContext(ctx),
	)
	return counts, nil
}

// DeleteByType removes every record of one entity for tenantID.
func (s *Service) DeleteByType(ctx context.Context, tenantID, entityKey string) (int64, error) {
	if err := checkTenant(tenantID); err != nil {
		return 0, err
	}
	if _, err := Template(entityKey); err != nil {
		return 0, err
	}

	if err := s.limiter.Acquire(ctx, tenantID); err != nil {
		return 0, err
	}
	defer s.limiter.Release(tenantID)

	n, err := s.deleteWhere(ctx, tenantID, entityKey, "")
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", entityKey, err)
	}

	loggerFrom(ctx).Info("deleted records",
		"tenant_id", tenantID,
		"entity", entityKey,
		"count", n,
		"ip", GetIPAddressFromContext(ctx),
		"user_agent", GetUserAgentFromContext(ctx),
	)
	return n, nil
}

// DeleteRecord removes one record by id.
func (s *Service) DeleteRecord(ctx context.Context, tenantID, entityKey, id string) (int64, error) {
	if err := checkTenant(tenantID); err != nil {
		return 0, err
	}
	if _, err := Template(entityKey); err != nil {
		return 0, err
	}
	if id == "" {
		return 0, ErrRecordNotFound(entityKey, id)
	}

	n, err := s.deleteWhere(ctx, tenantID, entityKey, id)
	if err != nil {
		return 0, fmt.Errorf("delete %s/%s: %w", entityKey, id, err)
	}
	if n == 0 {
		return 0, ErrRecordNotFound(entityKey, id)
	}
	return n, nil
}

func (s *Service) deleteWhere(ctx context.Context, tenantID, entityKey, id string) (int64, error) {
	callCtx, cancel := s.storeCall(ctx)
	defer cancel()
	return s.store.DeleteWhere(callCtx, entityKey, tenantID, id)
}
