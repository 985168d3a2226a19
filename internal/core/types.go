package core

import (
	"context"
	"time"
)

// Store is the remote relational store the engine reads and writes.
// Every operation is scoped to a tenant. Implementations must be safe for
// sequential use from a single import batch; the engine never issues
// concurrent calls for the same tenant.
type Store interface {
	// Insert persists one record and returns its assigned identity.
	Insert(ctx context.Context, entityKey, tenantID string, rec MappedRecord) (string, error)

	// ExistsWhere reports whether any record of the entity has field == value.
	ExistsWhere(ctx context.Context, entityKey, field, value, tenantID string) (bool, error)

	// SelectAll returns every record of the entity, identity included.
	SelectAll(ctx context.Context, entityKey, tenantID string) ([]Record, error)

	// DeleteWhere removes the record with the given id, or every record of
	// the entity when id is empty. Returns the number of rows removed.
	DeleteWhere(ctx context.Context, entityKey, tenantID, id string) (int64, error)
}

// EntityTemplate describes one importable kind of business record.
type EntityTemplate struct {
	Key         string // Stable identifier: "contacts"
	DisplayName string // Human label: "Contacts"
	Table       string // Store table name (defaults to Key)

	Fields   []string // Target fields in declaration order
	Required []string // Subset of Fields that must be present

	// Aliases maps a field to header synonyms in priority order.
	Aliases map[string][]string

	// Defaults are applied to absent optional fields after coercion.
	Defaults map[string]any

	// NaturalKeys lists the fields used for duplicate detection, in order.
	NaturalKeys []string

	// References lists entity keys this entity points at. Dependents are
	// deleted before the entities they reference.
	References []string

	// Normalizers transform a resolved raw value before coercion.
	Normalizers map[string]func(string) string
}

// HasField reports whether name is one of the template's fields.
func (t EntityTemplate) HasField(name string) bool {
	for _, f := range t.Fields {
		if f == name {
			return true
		}
	}
	return false
}

// SourceRow is one raw header -> value mapping extracted from the input.
type SourceRow struct {
	Position int // 1-based line (delimited) or element (document) number
	Values   map[string]string
}

// MappedRecord maps target field names to normalized values
// (string, float64, or an ISO date string).
type MappedRecord map[string]any

// Record is a stored record as returned by the store, identity included.
type Record map[string]any

// OutcomeKind classifies the fate of one attempted record.
type OutcomeKind string

const (
	OutcomePersisted OutcomeKind = "persisted"
	OutcomeRejected  OutcomeKind = "rejected"
	OutcomeSkipped   OutcomeKind = "skipped"
)

// FailureKind classifies a rejected or skipped record for reporting.
type FailureKind string

const (
	FailureValidation  FailureKind = "validation_failed"
	FailureCoercion    FailureKind = "coercion_failed"
	FailureDuplicate   FailureKind = "duplicate_skipped"
	FailurePersistence FailureKind = "persistence_failed"
	FailureDedupCheck  FailureKind = "duplicate_check_failed"
)

// Outcome is the result of driving one Source Row through the pipeline.
type Outcome struct {
	Kind        OutcomeKind
	Position    int
	ID          string      // Set when Kind is OutcomePersisted
	Reason      string      // Set when Kind is OutcomeRejected or OutcomeSkipped
	FailureKind FailureKind // Set when Kind is OutcomeRejected or OutcomeSkipped
	DuplicateOf string      // "field=value" that matched, for OutcomeSkipped
}

// Failure is one rejection or duplicate message in an ImportResult.
type Failure struct {
	Position int         `json:"position"`
	Reason   string      `json:"reason"`
	Kind     FailureKind `json:"kind"`
}

// ImportResult is the aggregate of every Outcome in one batch.
type ImportResult struct {
	EntityKey     string        `json:"entityKey"`
	Total         int           `json:"total"`
	SuccessCount  int           `json:"successCount"`
	RejectedCount int           `json:"rejectedCount"`
	SkippedCount  int           `json:"skippedCount"`
	SkippedLines  int           `json:"skippedLines"` // Delimited lines dropped for a cell-count mismatch
	Failures      []Failure     `json:"failures"`
	Duration      time.Duration `json:"-"`
	DurationMs    int64         `json:"durationMs"`
	Cancelled     bool          `json:"cancelled,omitempty"`
}

// finish stamps the elapsed time since start.
func (r *ImportResult) finish(start time.Time) {
	r.Duration = time.Since(start)
	r.DurationMs = r.Duration.Milliseconds()
}

// add folds one Outcome into the result.
func (r *ImportResult) add(o Outcome) {
	r.Total++
	switch o.Kind {
	case OutcomePersisted:
		r.SuccessCount++
		return
	case OutcomeRejected:
		r.RejectedCount++
	case OutcomeSkipped:
		r.SkippedCount++
	}
	r.Failures = append(r.Failures, Failure{
		Position: o.Position,
		Reason:   o.Reason,
		Kind:     o.FailureKind,
	})
}

// ImportPhase indicates the current stage of a batch.
type ImportPhase string

const (
	PhasePersisting  ImportPhase = "persisting"
	PhaseAggregating ImportPhase = "aggregating"
	PhaseCompleted   ImportPhase = "completed"
)

// ImportProgress is reported after each record when a callback is set.
type ImportProgress struct {
	EntityKey string
	Phase     ImportPhase
	Position  int
	Processed int
}

// ProgressCallback receives ImportProgress updates.
type ProgressCallback func(ImportProgress)
