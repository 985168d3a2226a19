package web

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/backoffice/internal/config"
	"github.com/JonMunkholm/backoffice/internal/core"
	_ "github.com/JonMunkholm/backoffice/internal/core/entities"
	mw "github.com/JonMunkholm/backoffice/internal/web/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTenant = "0b6c3a52-6f5e-4c1e-9a51-2d1f3c7e8a90"

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: time.Minute},
		Import: config.ImportConfig{
			MaxFileSize:   1 << 20,
			MaxConcurrent: 2,
			MaxWaitTime:   time.Second,
			Timeout:       time.Minute,
			StoreTimeout:  time.Second,
			DedupFailOpen: true,
		},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *core.MemoryStore) {
	t.Helper()
	store := core.NewMemoryStore()
	svc := core.NewService(store, cfg.Import.ServiceOptions())
	srv := NewServer(svc, cfg)
	t.Cleanup(func() { _ = srv.Shutdown(t.Context()) })
	return srv, store
}

func do(t *testing.T, srv *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func apiRequest(method, target string, body []byte) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set(mw.TenantHeader, testTenant)
	return req
}

func multipartRequest(t *testing.T, target, filename string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mpw := multipart.NewWriter(&buf)
	part, err := mpw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mpw.Close())

	req := apiRequest(http.MethodPost, target, buf.Bytes())
	req.Header.Set("Content-Type", mpw.FormDataContentType())
	return req
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) core.ImportResult {
	t.Helper()
	var res core.ImportResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res), rec.Body.String())
	return res
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var res ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res), rec.Body.String())
	return res
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Contains(t, rec.Body.String(), `"maxConcurrent":`)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestTenantRequired(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	tests := []struct {
		name   string
		tenant string
		code   string
	}{
		{"missing", "", mw.CodeMissingTenant},
		{"not a uuid", "acme", mw.CodeInvalidTenant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/entities", nil)
			if tt.tenant != "" {
				req.Header.Set(mw.TenantHeader, tt.tenant)
			}
			rec := do(t, srv, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.code)
		})
	}
}

func TestAPIKeyRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"secret"}
	srv, _ := newTestServer(t, cfg)

	rec := do(t, srv, apiRequest(http.MethodGet, "/api/entities", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := apiRequest(http.MethodGet, "/api/entities", nil)
	req.Header.Set("X-API-Key", "wrong")
	assert.Equal(t, http.StatusForbidden, do(t, srv, req).Code)

	req = apiRequest(http.MethodGet, "/api/entities", nil)
	req.Header.Set("Authorization", "Bearer secret")
	assert.Equal(t, http.StatusOK, do(t, srv, req).Code)
}

func TestListEntities(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	rec := do(t, srv, apiRequest(http.MethodGet, "/api/entities", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var entities []entityInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entities))
	require.NotEmpty(t, entities)

	keys := make([]string, len(entities))
	for i, e := range entities {
		keys[i] = e.Key
	}
	assert.Contains(t, keys, "contacts")
	assert.Contains(t, keys, "products")
}

func TestImportDelimitedBody(t *testing.T) {
	srv, store := newTestServer(t, testConfig())

	body := []byte("nome;email\nAna;a@x.com\nBia;b@x.com\nAna;c@x.com\n")
	req := apiRequest(http.MethodPost, "/api/import/contacts?delimiter=;", body)
	req.Header.Set("Content-Type", "text/csv")

	rec := do(t, srv, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decodeResult(t, rec)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, res.SuccessCount)
	assert.Equal(t, 1, res.SkippedCount)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, 4, res.Failures[0].Position)
	assert.Equal(t, core.FailureDuplicate, res.Failures[0].Kind)
	assert.Equal(t, 2, store.Count("contacts", testTenant))
}

func TestImportDocumentMultipart(t *testing.T) {
	srv, store := newTestServer(t, testConfig())

	data := []byte(`[{"name":"Widget","sku":"W-1"},{"sku":"W-2"}]`)
	rec := do(t, srv, multipartRequest(t, "/api/import/products", "products.json", data))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decodeResult(t, rec)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 1, res.SuccessCount)
	assert.Equal(t, 1, res.RejectedCount)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, 2, res.Failures[0].Position)
	assert.Equal(t, core.FailureValidation, res.Failures[0].Kind)
	assert.Equal(t, 1, store.Count("products", testTenant))
}

func TestImportHTMXPartial(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	req := apiRequest(http.MethodPost, "/api/import/contacts", []byte("name\n<b>Ana</b>\n"))
	req.Header.Set("HX-Request", "true")

	rec := do(t, srv, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `class="import-result"`)
}

func TestImportErrors(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	tests := []struct {
		name   string
		target string
		body   string
		status int
		code   string
	}{
		{"unknown entity", "/api/import/nope", "name\nAna\n", http.StatusNotFound, "IMP004"},
		{"no body", "/api/import/contacts", "", http.StatusBadRequest, "REQ002"},
		{"header only", "/api/import/contacts", "name\n", http.StatusBadRequest, "IMP001"},
		{"malformed json", "/api/import/contacts?format=json", "{not json", http.StatusBadRequest, "IMP002"},
		{"bad delimiter", "/api/import/contacts?delimiter=ab", "name\nAna\n", http.StatusBadRequest, "IMP003"},
		{"bad format", "/api/import/contacts?format=xlsx", "name\nAna\n", http.StatusUnsupportedMediaType, "IMP009"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, apiRequest(http.MethodPost, tt.target, []byte(tt.body)))
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func TestImportBodyTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.Import.MaxFileSize = 16
	srv, _ := newTestServer(t, cfg)

	body := "name\n" + strings.Repeat("Ana\n", 20)
	rec := do(t, srv, apiRequest(http.MethodPost, "/api/import/contacts", []byte(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "REQ001", decodeError(t, rec).Code)
}

func TestPreviewDoesNotPersist(t *testing.T) {
	srv, store := newTestServer(t, testConfig())

	body := []byte("name,email\nAna,a@x.com\nAna,b@x.com\n,c@x.com\n")
	rec := do(t, srv, apiRequest(http.MethodPost, "/api/preview/contacts", body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var preview core.PreviewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &preview))
	assert.Equal(t, 3, preview.Summary.TotalRows)
	assert.Equal(t, 1, preview.Summary.NewRows)
	assert.Equal(t, 1, preview.Summary.DuplicateRows)
	assert.Equal(t, 1, preview.Summary.ErrorRows)
	require.Len(t, preview.NewRowSamples, 1)
	assert.Equal(t, "Ana", preview.NewRowSamples[0].Values["name"])

	assert.Zero(t, store.Count("contacts", testTenant))
}

func TestExportRestoreRoundTrip(t *testing.T) {
	srv, store := newTestServer(t, testConfig())

	rec := do(t, srv, apiRequest(http.MethodPost, "/api/import/contacts", []byte("name\nAna\nBia\n")))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, apiRequest(http.MethodGet, "/api/export", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	backup := rec.Body.Bytes()

	var doc map[string][]map[string]any
	require.NoError(t, json.Unmarshal(backup, &doc))
	assert.Len(t, doc["contacts"], 2)
	assert.NotEmpty(t, doc["contacts"][0]["id"])

	rec = do(t, srv, apiRequest(http.MethodDelete, "/api/data", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, store.Count("contacts", testTenant))

	rec = do(t, srv, apiRequest(http.MethodPost, "/api/restore", backup))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var restored core.RestoreResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &restored))
	require.Len(t, restored.Results, 1)
	assert.Equal(t, "contacts", restored.Results[0].EntityKey)
	assert.Equal(t, 2, restored.Results[0].SuccessCount)
	assert.Equal(t, 2, store.Count("contacts", testTenant))
}

func TestDeleteEndpoints(t *testing.T) {
	srv, store := newTestServer(t, testConfig())

	rec := do(t, srv, apiRequest(http.MethodPost, "/api/import/contacts", []byte("name\nAna\nBia\n")))
	require.Equal(t, http.StatusOK, rec.Code)

	recs, err := store.SelectAll(t.Context(), "contacts", testTenant)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	id := recs[0]["id"].(string)

	rec = do(t, srv, apiRequest(http.MethodDelete, "/api/data/contacts/"+id, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, srv, apiRequest(http.MethodDelete, "/api/data/contacts/"+id, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "IMP008", decodeError(t, rec).Code)

	rec = do(t, srv, apiRequest(http.MethodDelete, "/api/data/contacts", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"deleted":1`)
	assert.Zero(t, store.Count("contacts", testTenant))

	rec = do(t, srv, apiRequest(http.MethodDelete, "/api/data/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate.Enabled = true
	cfg.Rate.RequestsPerMinute = 2
	cfg.Rate.ImportLimit = 10
	srv, _ := newTestServer(t, cfg)

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, do(t, srv, httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
	}
	rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}
