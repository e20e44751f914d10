package server

import (
	"encoding/json"
	"net/http"

	z "github.com/Oudwins/zog"
	"github.com/go-chi/chi/v5"

	"github.com/docgate/docgate/internals/schemas"
)

func (s *Server) HandlerListTools(w http.ResponseWriter, r *http.Request) {
	RenderJSON(w, http.StatusOK, schemas.ToolListResponse{Tools: s.Base.Registry.Schemas()})
}

func (s *Server) HandlerCallTool(w http.ResponseWriter, r *http.Request) {
	var request schemas.ToolCallRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		RenderError(w, http.StatusBadRequest, CodeInvalidJSON, "Invalid JSON", nil)
		return
	}
	if issues := schemas.ToolCallSchema.Validate(&request); len(issues) > 0 {
		RenderError(w, http.StatusBadRequest, CodeValidationFailed, "Invalid tool call", z.Issues.Flatten(issues))
		return
	}
	if !s.limiter.Allow(request.User) {
		RenderError(w, http.StatusTooManyRequests, CodeRateLimited, "Too many tool calls", nil)
		return
	}

	taskID, err := s.Base.Dispatcher.Submit(r.Context(), request.Invocation())
	if err != nil {
		if RenderDomainError(w, err) {
			return
		}
		s.requestLogger(r).Error("Failed to submit tool call", "tool", request.Tool, "error", err)
		RenderError(w, http.StatusInternalServerError, CodeInternal, "Failed to submit tool call", nil)
		return
	}

	s.requestLogger(r).Info("Tool call accepted", "task_id", taskID, "tool", request.Tool, "user", request.User)
	RenderJSON(w, http.StatusAccepted, schemas.ToolCallResponse{TaskID: taskID})
}

func (s *Server) HandlerTaskStatus(w http.ResponseWriter, r *http.Request) {
	task, err := s.Base.Dispatcher.Get(chi.URLParam(r, "id"))
	if err != nil {
		if RenderDomainError(w, err) {
			return
		}
		RenderError(w, http.StatusInternalServerError, CodeInternal, "Failed to read task status", nil)
		return
	}
	RenderJSON(w, http.StatusOK, task.Snapshot())
}
