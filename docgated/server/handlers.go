package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/docgate/docgate/internals/schemas"
)

const (
	serverName     = "docgate tool server"
	headerIdentity = "X-Docgate-Server"
)

func (s *Server) HandlerRoot(w http.ResponseWriter, r *http.Request) {
	RenderJSON(w, http.StatusOK, schemas.ServerStatusResponse{Message: serverName, Status: "running"})
}

// HandlerVersion reports the build version. The identity header lets clients
// tell a docgate server from anything else on the port.
func (s *Server) HandlerVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(headerIdentity, "docgate")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(s.Base.Config.Version))
}

func (s *Server) HandlerShutdown(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("shutting down"))
	s.Shutdown()
}

func (s *Server) HandlerUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.Base.Gate.Users()
	if err != nil {
		s.requestLogger(r).Error("Failed to list users", "error", err)
		RenderError(w, http.StatusInternalServerError, CodeInternal, "Failed to list users", nil)
		return
	}
	RenderJSON(w, http.StatusOK, schemas.UserListResponse{Users: users})
}

func (s *Server) HandlerPermissions(w http.ResponseWriter, r *http.Request) {
	role := chi.URLParam(r, "role")
	perms, err := s.Base.Gate.PermissionsForRole(role)
	if err != nil {
		s.requestLogger(r).Error("Failed to list permissions", "role", role, "error", err)
		RenderError(w, http.StatusInternalServerError, CodeInternal, "Failed to list permissions", nil)
		return
	}
	RenderJSON(w, http.StatusOK, schemas.PermissionListResponse{Role: role, Permissions: perms})
}
