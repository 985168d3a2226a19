package web

import (
	"net/http"

	"github.com/JonMunkholm/backoffice/internal/core"
	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
)

// entityInfo is the client view of an entity template.
type entityInfo struct {
	Key         string              `json:"key"`
	DisplayName string              `json:"displayName"`
	Fields      []string            `json:"fields"`
	Required    []string            `json:"required"`
	Aliases     map[string][]string `json:"aliases,omitempty"`
	NaturalKeys []string            `json:"naturalKeys"`
	References  []string            `json:"references,omitempty"`
}

// handleListEntities returns every importable entity with its columns.
func (s *Server) handleListEntities(w http.ResponseWriter, r *http.Request) {
	tpls := s.service.ListEntities()
	out := make([]entityInfo, 0, len(tpls))
	for _, t := range tpls {
		out = append(out, entityInfo{
			Key:         t.Key,
			DisplayName: t.DisplayName,
			Fields:      t.Fields,
			Required:    t.Required,
			Aliases:     t.Aliases,
			NaturalKeys: t.NaturalKeys,
			References:  t.References,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleImport imports the posted document into the entity named in the path.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	entityKey := chi.URLParam(r, "entityKey")

	up, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	tenantID := core.TenantFromContext(r.Context())
	ctx := WithRequestMetadata(r.Context(), r)

	var result *core.ImportResult
	switch up.Format {
	case core.FormatDocument:
		result, err = s.service.ImportDocument(ctx, tenantID, entityKey, up.Data)
	default:
		result, err = s.service.ImportDelimited(ctx, tenantID, entityKey, up.Data, up.Delimiter)
	}
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	s.respond(w, r, http.StatusOK, result, ImportResultView(result))
}

// handlePreview runs the import pipeline without persisting anything.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	entityKey := chi.URLParam(r, "entityKey")

	up, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	tenantID := core.TenantFromContext(r.Context())

	var preview *core.PreviewResponse
	switch up.Format {
	case core.FormatDocument:
		preview, err = s.service.PreviewDocument(r.Context(), tenantID, entityKey, up.Data)
	default:
		preview, err = s.service.PreviewDelimited(r.Context(), tenantID, entityKey, up.Data, up.Delimiter)
	}
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	s.respond(w, r, http.StatusOK, preview, PreviewView(preview))
}

// respond writes v as JSON, or view as an HTML partial for HTMX clients.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, status int, v any, view templ.Component) {
	if !wantsHTML(r) {
		writeJSON(w, status, v)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := view.Render(r.Context(), w); err != nil {
		s.logger(r).Error("render partial", "error", err)
	}
}
