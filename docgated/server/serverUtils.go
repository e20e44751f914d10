package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/docgate/docgate/internals/dispatch"
	"github.com/docgate/docgate/internals/docstore"
	"github.com/docgate/docgate/internals/tools"
)

type ResponseStatus string

const StatusFailed ResponseStatus = "failed"

type ErrorCode string

const (
	CodeInvalidJSON      ErrorCode = "invalid_json"
	CodeValidationFailed ErrorCode = "validation_failed"
	CodeInternal         ErrorCode = "internal"
	CodeNotFound         ErrorCode = "not_found"
	CodePermissionDenied ErrorCode = "permission_denied"
	CodeRateLimited      ErrorCode = "rate_limited"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Status  ResponseStatus      `json:"status"`
	Code    ErrorCode           `json:"code"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

func RenderJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func RenderError(w http.ResponseWriter, status int, code ErrorCode, message string, fields map[string][]string) {
	RenderJSON(w, status, ErrorResponse{Status: StatusFailed, Code: code, Message: message, Errors: fields})
}

func RenderHTML(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(body)
}

// RenderDomainError maps store, tool and task errors onto their HTTP status.
// Anything unrecognised is logged by the caller and reported as internal.
func RenderDomainError(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, docstore.ErrNotFound), errors.Is(err, dispatch.ErrTaskNotFound):
		RenderError(w, http.StatusNotFound, CodeNotFound, err.Error(), nil)
	case errors.Is(err, docstore.ErrAlreadyExists):
		RenderError(w, http.StatusConflict, CodeValidationFailed, err.Error(), nil)
	case errors.Is(err, tools.ErrInvalidArguments), errors.Is(err, docstore.ErrInvalidID):
		RenderError(w, http.StatusBadRequest, CodeValidationFailed, err.Error(), nil)
	case errors.Is(err, tools.ErrPermissionDenied):
		RenderError(w, http.StatusForbidden, CodePermissionDenied, err.Error(), nil)
	default:
		return false
	}
	return true
}
