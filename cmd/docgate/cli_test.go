package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/docgate/docgate/internals/conf"
	"github.com/docgate/docgate/internals/schemas"
)

func executeCLI(t *testing.T, args []string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	return out.String(), err
}

func setupCLIConfig(t *testing.T) {
	config := conf.GetConfig()
	origVersion := config.Version
	config.Version = "test-version"
	t.Cleanup(func() {
		config.Version = origVersion
	})
}

func fakeServer(t *testing.T, result string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/version":
			w.Header().Set("X-Docgate-Server", "docgate")
			_, _ = w.Write([]byte("test-version"))
		case "/tools/call":
			var request schemas.ToolCallRequest
			_ = json.NewDecoder(r.Body).Decode(&request)
			if request.User == "" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.WriteHeader(http.StatusAccepted)
			_ = json.NewEncoder(w).Encode(schemas.ToolCallResponse{TaskID: "task1"})
		case "/stream/task1":
			w.Header().Set("Content-Type", "text/event-stream")
			fmt.Fprintf(w, "event: log\ndata: %s\n\n", `{"message":"Starting tool: create_document"}`)
			fmt.Fprintf(w, "event: result\ndata: %s\n\n", result)
		case "/tasks/task1":
			_ = json.NewEncoder(w).Encode(schemas.TaskResponse{
				TaskID: "task1",
				Tool:   "create_document",
				User:   "charlie",
				Status: schemas.TaskStatusFinished,
				Log:    []string{"Starting tool: create_document"},
				Result: schemas.ToolResult{"status": "success", "message": "Document 'notes' created"},
			})
		case "/tools/list":
			_ = json.NewEncoder(w).Encode(schemas.ToolListResponse{Tools: []schemas.ToolSchema{
				{Name: "read_document", Resource: "document", Action: "read", Description: "Read a document"},
			}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestCLICallSuccess(t *testing.T) {
	setupCLIConfig(t)
	server := fakeServer(t, `{"status":"success","message":"Document 'notes' created"}`)

	output, err := executeCLI(t, []string{"--url", server.URL, "call", "create_document", "--user", "charlie", "--arg", "doc_id=notes", "--arg", "content=hi"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(output, "Starting tool: create_document") || !strings.Contains(output, "message: Document 'notes' created") {
		t.Fatalf("unexpected output: %s", output)
	}
}

func TestCLICallErrorResult(t *testing.T) {
	setupCLIConfig(t)
	server := fakeServer(t, `{"status":"error","message":"permission denied"}`)

	_, err := executeCLI(t, []string{"--url", server.URL, "call", "delete_document", "--user", "bob", "--arg", "doc_id=notes"})
	var toolErr *ToolFailedError
	if !errors.As(err, &toolErr) || toolErr.Message != "permission denied" {
		t.Fatalf("expected tool failure, got %v", err)
	}
}

func TestCLICallRequiresUser(t *testing.T) {
	setupCLIConfig(t)
	server := fakeServer(t, `{"status":"success"}`)

	_, err := executeCLI(t, []string{"--url", server.URL, "call", "list_documents"})
	if err == nil || !strings.Contains(err.Error(), "--user is required") {
		t.Fatalf("expected missing user error, got %v", err)
	}
}

func TestCLITaskAndTools(t *testing.T) {
	setupCLIConfig(t)
	server := fakeServer(t, `{"status":"success"}`)

	output, err := executeCLI(t, []string{"--url", server.URL, "task", "task1"})
	if err != nil {
		t.Fatalf("run task: %v", err)
	}
	if !strings.Contains(output, "task: task1") || !strings.Contains(output, "status: finished") {
		t.Fatalf("unexpected task output: %s", output)
	}

	output, err = executeCLI(t, []string{"--url", server.URL, "tools"})
	if err != nil {
		t.Fatalf("run tools: %v", err)
	}
	if !strings.Contains(output, "read_document") || !strings.Contains(output, "document:read") {
		t.Fatalf("unexpected tools output: %s", output)
	}
}

func TestParseToolArguments(t *testing.T) {
	args, err := parseToolArguments(`{"doc_id":"a"}`, []string{"content=# Title", "count=3", "flag=true"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if args["doc_id"] != "a" || args["content"] != "# Title" || args["count"] != float64(3) || args["flag"] != true {
		t.Fatalf("unexpected arguments %v", args)
	}

	if _, err := parseToolArguments("", []string{"novalue"}); err == nil {
		t.Fatalf("expected error for missing '='")
	}
	if _, err := parseToolArguments("{", nil); err == nil {
		t.Fatalf("expected error for invalid json")
	}
}
