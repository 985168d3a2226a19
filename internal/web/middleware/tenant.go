package middleware

import (
	"net/http"
	"strings"

	"github.com/JonMunkholm/backoffice/internal/core"
	"github.com/JonMunkholm/backoffice/internal/logging"
	"github.com/google/uuid"
)

// TenantHeader carries the tenant every /api request is scoped to.
const TenantHeader = "X-Tenant-ID"

// Tenant error codes returned in the JSON body.
const (
	CodeMissingTenant = "TENANT_MISSING"
	CodeInvalidTenant = "TENANT_INVALID"
)

// Tenant requires a UUID tenant id in the X-Tenant-ID header. The
// normalized id and a logger carrying it are attached to the request
// context, so every log line of the request, including the engine's batch
// logs, is tagged with the tenant.
func Tenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get(TenantHeader))
		if raw == "" {
			reject(w, r, http.StatusBadRequest, "missing tenant id", CodeMissingTenant)
			return
		}

		id, err := uuid.Parse(raw)
		if err != nil {
			reject(w, r, http.StatusBadRequest, "tenant id must be a UUID", CodeInvalidTenant)
			return
		}

		ctx := core.ContextWithTenant(r.Context(), id.String())
		ctx = core.ContextWithLogger(ctx, logging.FromContext(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
