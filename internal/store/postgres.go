// Package store implements core.Store on PostgreSQL.
//
// Every entity template maps to one table named by EntityTemplate.Table with
// the columns:
//
//	id          uuid primary key default gen_random_uuid()
//	tenant_id   uuid not null
//	created_at  timestamptz not null default now()
//	<field>     numeric | date | text, one per template field
//
// Numeric and date columns follow core.NumericFields and core.DateFields;
// every other field is text. The tables are provisioned outside this service.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/JonMunkholm/backoffice/internal/core"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is the subset of pgxpool.Pool the store uses.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres is a core.Store backed by a pgx connection pool.
type Postgres struct {
	db querier
}

var _ core.Store = (*Postgres)(nil)

// NewPostgres creates a store over pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{db: pool}
}

// Insert implements core.Store.
func (p *Postgres) Insert(ctx context.Context, entityKey, tenantID string, rec core.MappedRecord) (string, error) {
	tpl, err := core.Template(entityKey)
	if err != nil {
		return "", err
	}
	tenant := core.ToPgUUID(tenantID)
	if !tenant.Valid {
		return "", core.ErrInvalidTenant(tenantID)
	}

	query, args := buildInsert(tpl, rec)
	args[0] = tenant

	var id uuid.UUID
	if err := p.db.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return "", fmt.Errorf("insert %s: %w", entityKey, err)
	}
	return id.String(), nil
}

// ExistsWhere implements core.Store.
func (p *Postgres) ExistsWhere(ctx context.Context, entityKey, field, value, tenantID string) (bool, error) {
	tpl, err := core.Template(entityKey)
	if err != nil {
		return false, err
	}
	if !tpl.HasField(field) {
		return false, fmt.Errorf("exists %s: unknown field %q", entityKey, field)
	}

	query := fmt.Sprintf(
		"SELECT EXISTS (SELECT 1 FROM %s WHERE tenant_id = $1 AND %s = $2)",
		table(tpl), pgx.Identifier{field}.Sanitize(),
	)

	var exists bool
	err = p.db.QueryRow(ctx, query, core.ToPgUUID(tenantID), pgValue(field, value)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists %s.%s: %w", entityKey, field, err)
	}
	return exists, nil
}

// SelectAll implements core.Store. Records are returned oldest first.
func (p *Postgres) SelectAll(ctx context.Context, entityKey, tenantID string) ([]core.Record, error) {
	tpl, err := core.Template(entityKey)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		"SELECT * FROM %s WHERE tenant_id = $1 ORDER BY created_at, id",
		table(tpl),
	)

	rows, err := p.db.Query(ctx, query, core.ToPgUUID(tenantID))
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", entityKey, err)
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", entityKey, err)
	}

	out := make([]core.Record, len(maps))
	for i, m := range maps {
		out[i] = toRecord(m)
	}
	return out, nil
}

// DeleteWhere implements core.Store. An id that is not a UUID matches nothing.
func (p *Postgres) DeleteWhere(ctx context.Context, entityKey, tenantID, id string) (int64, error) {
	tpl, err := core.Template(entityKey)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE tenant_id = $1", table(tpl))
	args := []any{core.ToPgUUID(tenantID)}

	if id != "" {
		pgID := core.ToPgUUID(id)
		if !pgID.Valid {
			return 0, nil
		}
		query += " AND id = $2"
		args = append(args, pgID)
	}

	tag, err := p.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", entityKey, err)
	}
	return tag.RowsAffected(), nil
}

func table(tpl core.EntityTemplate) string {
	return pgx.Identifier{tpl.Table}.Sanitize()
}

// buildInsert renders the INSERT for the fields present in rec, in template
// order. args[0] is reserved for the tenant id.
func buildInsert(tpl core.EntityTemplate, rec core.MappedRecord) (string, []any) {
	cols := []string{"tenant_id"}
	placeholders := []string{"$1"}
	args := []any{nil}

	for _, field := range tpl.Fields {
		v, ok := rec[field]
		if !ok {
			continue
		}
		args = append(args, pgValue(field, v))
		cols = append(cols, pgx.Identifier{field}.Sanitize())
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		table(tpl), strings.Join(cols, ", "), strings.Join(placeholders, ", "),
	)
	return query, args
}

// pgValue converts a mapped value into the pgtype matching its column.
func pgValue(field string, v any) any {
	switch {
	case core.NumericFields[field]:
		return core.ToPgNumeric(v)
	case core.DateFields[field]:
		return core.ToPgDate(v)
	default:
		return core.ToPgText(v)
	}
}

// toRecord converts a scanned row into the canonical record form.
func toRecord(m map[string]any) core.Record {
	rec := make(core.Record, len(m))
	for col, v := range m {
		if v == nil {
			continue
		}
		rec[col] = core.FromPgValue(col, v)
	}
	return rec
}
