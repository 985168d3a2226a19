package core

// importer.go drives a batch of Source Rows through the record pipeline:
//
//	resolve -> coerce -> validate -> duplicate check -> persist
//
// Records are processed strictly in source order, one at a time, and each
// produces exactly one Outcome that is folded into the ImportResult. A
// failure in one record never aborts the batch; nothing is rolled back.
//
// A batch is aborted only before its first record is touched, when the
// entity is unknown, the input is empty or malformed, or the limiter
// refuses it.
//
// Cancellation of ctx is observed between records. The store call in flight
// when it happens runs to completion; the partial result is returned with
// Cancelled set. Re-running the same input relies on duplicate detection to
// skip what was already persisted.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// ImportDelimited imports delimited text (comma, semicolon, tab, ...) into
// entityKey for tenantID.
func (s *Service) ImportDelimited(ctx context.Context, tenantID, entityKey string, data []byte, delimiter string) (*ImportResult, error) {
	tpl, rows, err := s.prepareDelimited(tenantID, entityKey, data, delimiter)
	if err != nil {
		return nil, err
	}
	return s.importRows(ctx, s.newBatch(ctx, tenantID, tpl, s.store), rows, true)
}

// ImportDocument imports a JSON object or array of objects into entityKey
// for tenantID.
func (s *Service) ImportDocument(ctx context.Context, tenantID, entityKey string, data []byte) (*ImportResult, error) {
	tpl, rows, err := s.prepareDocument(tenantID, entityKey, data)
	if err != nil {
		return nil, err
	}
	return s.importRows(ctx, s.newBatch(ctx, tenantID, tpl, s.store), rows, true)
}

func (s *Service) prepareDelimited(tenantID, entityKey string, data []byte, delimiter string) (EntityTemplate, *RowReader, error) {
	if err := checkTenant(tenantID); err != nil {
		return EntityTemplate{}, nil, err
	}
	tpl, err := Template(entityKey)
	if err != nil {
		return EntityTemplate{}, nil, err
	}
	text, err := DecodeText(data)
	if err != nil {
		return EntityTemplate{}, nil, ErrInputMalformed(err)
	}
	rows, err := ParseDelimited(text, delimiter)
	if err != nil {
		return EntityTemplate{}, nil, err
	}
	return tpl, rows, nil
}

func (s *Service) prepareDocument(tenantID, entityKey string, data []byte) (EntityTemplate, *RowReader, error) {
	if err := checkTenant(tenantID); err != nil {
		return EntityTemplate{}, nil, err
	}
	tpl, err := Template(entityKey)
	if err != nil {
		return EntityTemplate{}, nil, err
	}
	text, err := DecodeText(data)
	if err != nil {
		return EntityTemplate{}, nil, ErrInputMalformed(err)
	}
	rows, err := ParseStructured([]byte(text))
	if err != nil {
		return EntityTemplate{}, nil, err
	}
	return tpl, rows, nil
}

// newBatch prepares a batch of tpl records for tenantID against store.
func (s *Service) newBatch(ctx context.Context, tenantID string, tpl EntityTemplate, store Store) *batch {
	return &batch{
		svc:      s,
		tpl:      tpl,
		tenantID: tenantID,
		store:    store,
		dedup:    NewDuplicateDetector(store, s.opts.DedupPolicy, s.opts.DedupCacheSize),
		logger: loggerFrom(ctx).With(
			"entity", tpl.Key,
			"tenant_id", tenantID,
		),
	}
}

// importRows runs b over rows. When exclusive is set the batch holds the
// tenant's import slot for its whole duration.
func (s *Service) importRows(ctx context.Context, b *batch, rows *RowReader, exclusive bool) (*ImportResult, error) {
	first, err := rows.Next()
	if errors.Is(err, io.EOF) {
		return nil, ErrInputEmpty()
	}
	if err != nil {
		return nil, ErrInputMalformed(err)
	}

	if exclusive {
		if err := s.limiter.Acquire(ctx, b.tenantID); err != nil {
			return nil, err
		}
		defer s.limiter.Release(b.tenantID)
	}

	return b.run(ctx, first, rows), nil
}

// batch holds the state of one import pass.
type batch struct {
	svc      *Service
	tpl      EntityTemplate
	tenantID string
	store    Store
	dedup    *DuplicateDetector
	logger   *slog.Logger

	// onPersisted, if set, sees every record the store accepted.
	onPersisted func(pos int, rec MappedRecord)
}

func (b *batch) run(ctx context.Context, first SourceRow, rows *RowReader) *ImportResult {
	start := time.Now()
	result := &ImportResult{EntityKey: b.tpl.Key, Failures: []Failure{}}

	b.logger.Info("import started", "dedup_policy", b.dedup.Policy().String())

	row, err := first, error(nil)
	for err == nil {
		if ctx.Err() != nil {
			result.Cancelled = true
			break
		}

		outcome := b.process(ctx, row)
		result.add(outcome)
		if outcome.Kind != OutcomePersisted {
			b.logger.Debug("record not imported",
				"position", outcome.Position,
				"kind", string(outcome.FailureKind),
				"reason", outcome.Reason,
			)
		}
		b.report(PhasePersisting, row.Position, result.Total)

		row, err = rows.Next()
	}
	if err != nil && !errors.Is(err, io.EOF) {
		b.logger.Warn("input read stopped early", "error", err)
	}

	b.report(PhaseAggregating, 0, result.Total)
	result.SkippedLines = rows.Skipped()
	result.finish(start)
	b.report(PhaseCompleted, 0, result.Total)

	b.logger.Info("import finished",
		"total", result.Total,
		"success", result.SuccessCount,
		"rejected", result.RejectedCount,
		"skipped", result.SkippedCount,
		"skipped_lines", result.SkippedLines,
		"cancelled", result.Cancelled,
		"duration_ms", result.DurationMs,
	)
	return result
}

// process drives one Source Row to its Outcome.
func (b *batch) process(ctx context.Context, row SourceRow) Outcome {
	pos := row.Position

	raw := Resolve(row, b.tpl)

	rec, err := Coerce(raw, b.tpl, b.svc.opts.StrictNumbers)
	if err != nil {
		return rejected(pos, FailureCoercion, err.Error())
	}

	if err := Validate(rec, b.tpl); err != nil {
		return rejected(pos, FailureValidation, err.Error())
	}

	checkCtx, cancel := b.svc.storeCall(ctx)
	match, dup, err := b.dedup.Check(checkCtx, b.tpl, rec, b.tenantID)
	cancel()
	if err != nil {
		return rejected(pos, FailureDedupCheck, err.Error())
	}
	if dup {
		return Outcome{
			Kind:        OutcomeSkipped,
			Position:    pos,
			Reason:      fmt.Sprintf("duplicate: %s %q already exists", match.Field, match.Value),
			FailureKind: FailureDuplicate,
			DuplicateOf: match.String(),
		}
	}

	insertCtx, cancel := b.svc.storeCall(ctx)
	id, err := b.store.Insert(insertCtx, b.tpl.Key, b.tenantID, rec)
	cancel()
	if err != nil {
		return rejected(pos, FailurePersistence, err.Error())
	}

	b.dedup.Remember(b.tpl, rec, b.tenantID)
	if b.onPersisted != nil {
		b.onPersisted(pos, rec)
	}
	return Outcome{Kind: OutcomePersisted, Position: pos, ID: id}
}

func (b *batch) report(phase ImportPhase, pos, processed int) {
	if b.svc.opts.OnProgress == nil {
		return
	}
	b.svc.opts.OnProgress(ImportProgress{
		EntityKey: b.tpl.Key,
		Phase:     phase,
		Position:  pos,
		Processed: processed,
	})
}

func rejected(pos int, kind FailureKind, reason string) Outcome {
	return Outcome{
		Kind:        OutcomeRejected,
		Position:    pos,
		Reason:      reason,
		FailureKind: kind,
	}
}
