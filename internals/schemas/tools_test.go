package schemas

import "testing"

func TestToolCallSchemaRequiresUserAndTool(t *testing.T) {
	req := ToolCallRequest{User: "", Tool: "read_document"}
	issues := ToolCallSchema.Validate(&req)
	if len(issues) == 0 {
		t.Fatalf("expected validation issues for missing user")
	}

	req = ToolCallRequest{User: "alice", Tool: "read_document"}
	issues = ToolCallSchema.Validate(&req)
	if len(issues) > 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}
}

func TestInvocationDefaultsArguments(t *testing.T) {
	inv := ToolCallRequest{User: "bob", Tool: "list_documents"}.Invocation()
	if inv.Arguments == nil {
		t.Fatalf("expected non-nil arguments")
	}
	if inv.Subject != "bob" || inv.Tool != "list_documents" {
		t.Fatalf("unexpected invocation %+v", inv)
	}
}

func TestResultHelpers(t *testing.T) {
	ok := SuccessResult(map[string]any{"status": "ignored", "message": "done"})
	if ok.Status() != ResultStatusSuccess || ok.Message() != "done" {
		t.Fatalf("unexpected success result %v", ok)
	}
	failed := ErrorResult("permission denied")
	if failed.Status() != ResultStatusError || failed.Message() != "permission denied" {
		t.Fatalf("unexpected error result %v", failed)
	}
}
