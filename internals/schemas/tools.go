package schemas

import (
	"encoding/json"

	z "github.com/Oudwins/zog"
)

// ToolInvocation is a single request to run a tool on behalf of a user.
type ToolInvocation struct {
	Subject   string
	Tool      string
	Arguments map[string]any
}

type ToolCallRequest struct {
	User      string         `json:"user" zog:"user"`
	Tool      string         `json:"tool" zog:"tool"`
	Arguments map[string]any `json:"arguments"`
}

var ToolCallSchema = z.Struct(z.Shape{
	"User": z.String().Trim().Required(z.Message("user is required")),
	"Tool": z.String().Trim().Required(z.Message("tool is required")),
})

func (r ToolCallRequest) Invocation() ToolInvocation {
	args := r.Arguments
	if args == nil {
		args = map[string]any{}
	}
	return ToolInvocation{Subject: r.User, Tool: r.Tool, Arguments: args}
}

type ToolCallResponse struct {
	TaskID string `json:"task_id"`
}

type ToolSchema struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Resource    string          `json:"resource,omitempty"`
	Action      string          `json:"action,omitempty"`
	InputSchema json.RawMessage `json:"input_schema"`
}

type ToolListResponse struct {
	Tools []ToolSchema `json:"tools"`
}

const (
	ResultStatusSuccess = "success"
	ResultStatusError   = "error"
)

// ToolResult is the normalized payload of a finished task. It always carries
// a "status" key.
type ToolResult map[string]any

func SuccessResult(payload map[string]any) ToolResult {
	result := ToolResult{}
	for k, v := range payload {
		result[k] = v
	}
	result["status"] = ResultStatusSuccess
	return result
}

func ErrorResult(message string) ToolResult {
	return ToolResult{"status": ResultStatusError, "message": message}
}

func (r ToolResult) Status() string {
	s, _ := r["status"].(string)
	return s
}

func (r ToolResult) Message() string {
	s, _ := r["message"].(string)
	return s
}
