package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.MiddlewareLogger)
	r.Get("/", s.HandlerRoot)
	r.Get("/version", s.HandlerVersion)
	r.Post("/shutdown", s.HandlerShutdown)
	r.Get("/tools/list", s.HandlerListTools)
	r.Post("/tools/call", s.HandlerCallTool)
	r.Get("/stream/{id}", s.HandlerStream)
	r.Get("/tasks/{id}", s.HandlerTaskStatus)
	r.Get("/users", s.HandlerUsers)
	r.Get("/permissions/{role}", s.HandlerPermissions)
	r.Get("/documents", s.HandlerListDocuments)
	r.Get("/documents/{id}/html", s.HandlerDocumentHTML)
	return r
}
