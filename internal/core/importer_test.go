package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func peopleTemplate() EntityTemplate {
	return EntityTemplate{
		Key:         "people",
		Fields:      []string{"name", "email", "amount", "due_date"},
		Required:    []string{"name"},
		Aliases:     map[string][]string{"name": {"nome"}},
		NaturalKeys: []string{"name"},
	}
}

func newTestService(t *testing.T, store Store, opts Options) *Service {
	t.Helper()
	useTemplates(t, peopleTemplate())
	return NewService(store, opts)
}

func TestImportDelimited_EndToEnd(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	svc := newTestService(t, store, Options{})

	_, err := store.Insert(ctx, "people", tenantA, MappedRecord{"name": "Ana"})
	require.NoError(t, err)

	input := "name,email\nAna,ana@x.com\nBia,\nAna,ana2@x.com"
	res, err := svc.ImportDelimited(ctx, tenantA, "people", []byte(input), ",")
	require.NoError(t, err)

	assert.Equal(t, "people", res.EntityKey)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 1, res.SuccessCount)
	assert.Equal(t, 0, res.RejectedCount)
	assert.Equal(t, 2, res.SkippedCount)
	assert.Equal(t, []Failure{
		{Position: 2, Reason: `duplicate: name "Ana" already exists`, Kind: FailureDuplicate},
		{Position: 4, Reason: `duplicate: name "Ana" already exists`, Kind: FailureDuplicate},
	}, res.Failures)

	assert.Equal(t, 2, store.Count("people", tenantA))
}

func TestImportDelimited_RecordFailuresDoNotAbort(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, NewMemoryStore(), Options{})

	input := "nome;email;amount;due_date\n" +
		"Ana;a@x.com;1.234,56;31/01/2024\n" + // line 2: persisted
		";b@x.com;1;2024-01-01\n" + // line 3: no name
		"Caio;c@x.com\n" + // line 4: short line, dropped
		"Ana;d@x.com;2;\n" + // line 5: duplicate of line 2
		"Duda;;abc;someday\n" // line 6: persisted with amount 0 and no date

	res, err := svc.ImportDelimited(ctx, tenantA, "people", []byte(input), ";")
	require.NoError(t, err)

	assert.Equal(t, 4, res.Total)
	assert.Equal(t, 2, res.SuccessCount)
	assert.Equal(t, 1, res.RejectedCount)
	assert.Equal(t, 1, res.SkippedCount)
	assert.Equal(t, 1, res.SkippedLines)
	require.Len(t, res.Failures, 2)
	assert.Equal(t, Failure{Position: 3, Reason: "missing required field(s): name", Kind: FailureValidation}, res.Failures[0])
	assert.Equal(t, 5, res.Failures[1].Position)
	assert.Equal(t, FailureDuplicate, res.Failures[1].Kind)

	recs, err := svc.store.SelectAll(ctx, "people", tenantA)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 1234.56, recs[0]["amount"])
	assert.Equal(t, "2024-01-31", recs[0]["due_date"])
	assert.Equal(t, 0.0, recs[1]["amount"])
	assert.NotContains(t, recs[1], "due_date")
}

func TestImportDelimited_RequiredFieldEnforcement(t *testing.T) {
	svc := newTestService(t, NewMemoryStore(), Options{})

	res, err := svc.ImportDelimited(context.Background(), tenantA, "people", []byte("email\na@x.com\n"), ",")
	require.NoError(t, err)

	require.Len(t, res.Failures, 1)
	assert.Equal(t, FailureValidation, res.Failures[0].Kind)
	assert.Contains(t, res.Failures[0].Reason, "name")
	assert.Zero(t, res.SuccessCount)
}

func TestImportDocument(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, NewMemoryStore(), Options{})

	doc := `[{"name":"Ana","amount":10.5},{"email":"x@x.com"},{"nome":"Bia","due_date":"2024-02-29"}]`
	res, err := svc.ImportDocument(ctx, tenantA, "people", []byte(doc))
	require.NoError(t, err)

	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, res.SuccessCount)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, 2, res.Failures[0].Position)
	assert.Equal(t, FailureValidation, res.Failures[0].Kind)
}

func TestImportDocument_SingleObject(t *testing.T) {
	svc := newTestService(t, NewMemoryStore(), Options{})

	res, err := svc.ImportDocument(context.Background(), tenantA, "people", []byte(`{"name":"Ana"}`))
	require.NoError(t, err)
	assert.Equal(t, 1, res.SuccessCount)
}

func TestImport_BatchFatal(t *testing.T) {
	tests := []struct {
		name     string
		tenant   string
		entity   string
		input    string
		document bool
		delim    string
		textCode string
	}{
		{"unknown entity", tenantA, "widgets", "name\nAna\n", false, ",", TextCodeUnknownEntity},
		{"header only", tenantA, "people", "name,email\n", false, ",", TextCodeInputEmpty},
		{"empty input", tenantA, "people", "", false, ",", TextCodeInputEmpty},
		{"invalid delimiter", tenantA, "people", "name\nAna\n", false, "::", TextCodeInvalidDelimiter},
		{"invalid tenant", "acme", "people", "name\nAna\n", false, ",", TextCodeInvalidTenant},
		{"blank document", tenantA, "people", "   ", true, "", TextCodeInputEmpty},
		{"empty array", tenantA, "people", "[]", true, "", TextCodeInputEmpty},
		{"malformed document", tenantA, "people", `[{"name":`, true, "", TextCodeInputMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStore()
			svc := newTestService(t, store, Options{})

			var (
				res *ImportResult
				err error
			)
			if tt.document {
				res, err = svc.ImportDocument(context.Background(), tt.tenant, tt.entity, []byte(tt.input))
			} else {
				res, err = svc.ImportDelimited(context.Background(), tt.tenant, tt.entity, []byte(tt.input), tt.delim)
			}

			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, HasTextCode(err, tt.textCode), "error %v should carry %s", err, tt.textCode)
			assert.Zero(t, store.Count("people", tenantA))
		})
	}
}

func TestImport_PersistenceFailureIsVerbatim(t *testing.T) {
	store := newFlakyStore()
	store.failInsert = true
	svc := newTestService(t, store, Options{})

	res, err := svc.ImportDelimited(context.Background(), tenantA, "people", []byte("name\nAna\nBia\n"), ",")
	require.NoError(t, err)

	assert.Equal(t, 2, res.RejectedCount)
	require.Len(t, res.Failures, 2)
	assert.Equal(t, FailurePersistence, res.Failures[0].Kind)
	assert.Equal(t, `ERROR: null value in column "name" violates not-null constraint (SQLSTATE 23502)`, res.Failures[0].Reason)
	assert.Equal(t, 3, res.Failures[1].Position)
}

func TestImport_DedupPolicies(t *testing.T) {
	t.Run("fail-open persists", func(t *testing.T) {
		store := newFlakyStore()
		store.failFields["name"] = true
		svc := newTestService(t, store, Options{DedupPolicy: FailOpen})

		res, err := svc.ImportDelimited(context.Background(), tenantA, "people", []byte("name\nAna\n"), ",")
		require.NoError(t, err)
		assert.Equal(t, 1, res.SuccessCount)
	})

	t.Run("fail-closed rejects", func(t *testing.T) {
		store := newFlakyStore()
		store.failFields["name"] = true
		svc := newTestService(t, store, Options{DedupPolicy: FailClosed})

		res, err := svc.ImportDelimited(context.Background(), tenantA, "people", []byte("name\nAna\n"), ",")
		require.NoError(t, err)
		assert.Equal(t, 1, res.RejectedCount)
		require.Len(t, res.Failures, 1)
		assert.Equal(t, FailureDedupCheck, res.Failures[0].Kind)
		assert.Zero(t, store.Count("people", tenantA))
	})
}

func TestImport_StrictNumbers(t *testing.T) {
	svc := newTestService(t, NewMemoryStore(), Options{StrictNumbers: true})

	res, err := svc.ImportDelimited(context.Background(), tenantA, "people", []byte("name,amount\nAna,abc\nBia,12\n"), ",")
	require.NoError(t, err)

	assert.Equal(t, 1, res.SuccessCount)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, FailureCoercion, res.Failures[0].Kind)
	assert.Equal(t, `invalid number: amount="abc"`, res.Failures[0].Reason)
}

func TestImport_TenantIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	svc := newTestService(t, store, Options{})

	for _, tenant := range []string{tenantA, tenantB} {
		res, err := svc.ImportDelimited(ctx, tenant, "people", []byte("name\nAna\n"), ",")
		require.NoError(t, err)
		assert.Equal(t, 1, res.SuccessCount, "tenant %s", tenant)
	}
	assert.Equal(t, 1, store.Count("people", tenantA))
	assert.Equal(t, 1, store.Count("people", tenantB))
}

func TestImport_TenantBusy(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, NewMemoryStore(), Options{})

	require.NoError(t, svc.Limiter().Acquire(ctx, tenantA))
	defer svc.Limiter().Release(tenantA)

	_, err := svc.ImportDelimited(ctx, tenantA, "people", []byte("name\nAna\n"), ",")
	assert.ErrorIs(t, err, ErrImportInProgress)

	// Another tenant is unaffected.
	res, err := svc.ImportDelimited(ctx, tenantB, "people", []byte("name\nAna\n"), ",")
	require.NoError(t, err)
	assert.Equal(t, 1, res.SuccessCount)
}

func TestImport_CancelledBetweenRecords(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewMemoryStore()
	svc := newTestService(t, store, Options{
		OnProgress: func(p ImportProgress) {
			if p.Phase == PhasePersisting && p.Processed == 1 {
				cancel()
			}
		},
	})

	res, err := svc.ImportDelimited(ctx, tenantA, "people", []byte("name\nAna\nBia\nCaio\n"), ",")
	require.NoError(t, err)

	assert.True(t, res.Cancelled)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, 1, res.SuccessCount)
	assert.Equal(t, 1, store.Count("people", tenantA))
	assert.False(t, svc.Limiter().Busy(tenantA))

	// Re-running the same input skips what was already persisted.
	res, err = svc.ImportDelimited(context.Background(), tenantA, "people", []byte("name\nAna\nBia\nCaio\n"), ",")
	require.NoError(t, err)
	assert.Equal(t, 2, res.SuccessCount)
	assert.Equal(t, 1, res.SkippedCount)
}

func TestImport_ProgressPhases(t *testing.T) {
	var phases []ImportPhase
	svc := newTestService(t, NewMemoryStore(), Options{
		OnProgress: func(p ImportProgress) { phases = append(phases, p.Phase) },
	})

	_, err := svc.ImportDelimited(context.Background(), tenantA, "people", []byte("name\nAna\nBia\n"), ",")
	require.NoError(t, err)

	assert.Equal(t, []ImportPhase{PhasePersisting, PhasePersisting, PhaseAggregating, PhaseCompleted}, phases)
}

func TestImport_DecodesLegacyEncodings(t *testing.T) {
	svc := newTestService(t, NewMemoryStore(), Options{})

	// "nome\nJoão\n" in Windows-1252.
	input := []byte{'n', 'o', 'm', 'e', '\n', 'J', 'o', 0xE3, 'o', '\n'}
	res, err := svc.ImportDelimited(context.Background(), tenantA, "people", input, ",")
	require.NoError(t, err)
	require.Equal(t, 1, res.SuccessCount)

	recs, err := svc.store.SelectAll(context.Background(), "people", tenantA)
	require.NoError(t, err)
	assert.Equal(t, "João", recs[0]["name"])
}
