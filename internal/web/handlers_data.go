package web

import (
	"fmt"
	"net/http"
	"time"

	"github.com/JonMunkholm/backoffice/internal/core"
	"github.com/go-chi/chi/v5"
)

// handleExport downloads every record of the tenant as a backup document.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	tenantID := core.TenantFromContext(r.Context())

	backup, err := s.service.ExportAll(r.Context(), tenantID)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("backup_%s.json", time.Now().UTC().Format("20060102_150405"))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	writeJSON(w, http.StatusOK, backup)
}

// handleRestore re-imports a backup document for the tenant.
func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	tenantID := core.TenantFromContext(r.Context())
	result, err := s.service.RestoreBackup(r.Context(), tenantID, up.Data)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	s.respond(w, r, http.StatusOK, result, RestoreView(result))
}

// handleDeleteAll removes every record of the tenant.
func (s *Server) handleDeleteAll(w http.ResponseWriter, r *http.Request) {
	tenantID := core.TenantFromContext(r.Context())
	ctx := WithRequestMetadata(r.Context(), r)

	counts, err := s.service.DeleteAll(ctx, tenantID)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	s.respond(w, r, http.StatusOK, map[string]any{"deleted": counts}, DeleteSummary(counts))
}

// handleDeleteByType removes every record of one entity.
func (s *Server) handleDeleteByType(w http.ResponseWriter, r *http.Request) {
	entityKey := chi.URLParam(r, "entityKey")
	tenantID := core.TenantFromContext(r.Context())
	ctx := WithRequestMetadata(r.Context(), r)

	n, err := s.service.DeleteByType(ctx, tenantID, entityKey)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	counts := []core.DeleteCount{{EntityKey: entityKey, Deleted: n}}
	s.respond(w, r, http.StatusOK, map[string]any{"deleted": counts}, DeleteSummary(counts))
}

// handleDeleteRecord removes one record by id.
func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	entityKey := chi.URLParam(r, "entityKey")
	id := chi.URLParam(r, "id")
	tenantID := core.TenantFromContext(r.Context())
	ctx := WithRequestMetadata(r.Context(), r)

	if _, err := s.service.DeleteRecord(ctx, tenantID, entityKey, id); err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	s.logger(r).Info("record deleted", "entity", entityKey, "id", id)
	w.WriteHeader(http.StatusNoContent)
}
