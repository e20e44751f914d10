package server

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"

	"github.com/docgate/docgate/docgated/core"
	"github.com/docgate/docgate/internals/dispatch"
	"github.com/docgate/docgate/internals/schemas"
	"github.com/docgate/docgate/internals/tools"
)

func (s *Server) HandlerListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.Base.Store.List(r.Context())
	if err != nil {
		s.requestLogger(r).Error("Failed to list documents", "error", err)
		RenderError(w, http.StatusInternalServerError, CodeInternal, "Failed to list documents", nil)
		return
	}
	RenderJSON(w, http.StatusOK, schemas.DocumentListResponse{Documents: docs})
}

// HandlerDocumentHTML renders a document's markdown content for the user in
// the "user" query parameter, who needs read permission.
func (s *Server) HandlerDocumentHTML(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "id")
	user := strings.TrimSpace(r.URL.Query().Get("user"))
	if user == "" {
		RenderError(w, http.StatusBadRequest, CodeValidationFailed, "user is required", map[string][]string{"user": {"user is required"}})
		return
	}

	decision := s.Base.Gate.Decide(user, tools.ResourceDocument, "read")
	core.AuditSink(s.Base.Audit)(dispatch.AuditRecord{Tool: "render_document", Decision: decision})
	if !decision.Allowed {
		RenderError(w, http.StatusForbidden, CodePermissionDenied, "Permission denied: "+decision.String(), nil)
		return
	}

	doc, err := s.Base.Store.Read(r.Context(), docID)
	if err != nil {
		if RenderDomainError(w, err) {
			return
		}
		s.requestLogger(r).Error("Failed to read document", "id", docID, "error", err)
		RenderError(w, http.StatusInternalServerError, CodeInternal, "Failed to read document", nil)
		return
	}

	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(doc.Content), &buf); err != nil {
		RenderError(w, http.StatusInternalServerError, CodeInternal, "Failed to render document", nil)
		return
	}
	RenderHTML(w, buf.Bytes())
}
