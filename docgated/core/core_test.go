package core

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/docgate/docgate/internals/conf"
	"github.com/docgate/docgate/internals/dispatch"
	"github.com/docgate/docgate/internals/env"
	"github.com/docgate/docgate/internals/rbac"
	"github.com/docgate/docgate/internals/schemas"
	"github.com/docgate/docgate/internals/testutil"
)

func assembleForTest(t *testing.T, backend conf.DocumentBackend) *BaseServer {
	t.Helper()
	dir := testutil.TempDataDir(t)
	if backend != conf.BackendFile {
		content := "documents:\n  backend: " + string(backend) + "\n"
		if err := os.WriteFile(filepath.Join(dir, "docgate.yaml"), []byte(content), 0o644); err != nil {
			t.Fatalf("write config: %v", err)
		}
	}
	config, err := conf.Load(dir)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	base, err := Assemble(context.Background(), config, &env.EnvStruct{}, testutil.DiscardLogger(), zap.NewNop())
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	t.Cleanup(func() { base.Close() })
	return base
}

func TestAssembleSeedsPolicy(t *testing.T) {
	base := assembleForTest(t, conf.BackendFile)

	if _, err := os.Stat(base.Config.RBAC.PolicyPath); err != nil {
		t.Fatalf("expected default policy to be written: %v", err)
	}
	if !base.Gate.Allowed("alice", "document", "delete") {
		t.Fatalf("expected alice to be admin")
	}
	if len(base.Registry.Schemas()) != 6 {
		t.Fatalf("expected 6 tools, got %d", len(base.Registry.Schemas()))
	}
}

func TestAssembleBackends(t *testing.T) {
	for _, backend := range []conf.DocumentBackend{conf.BackendFile, conf.BackendSQLite} {
		t.Run(string(backend), func(t *testing.T) {
			base := assembleForTest(t, backend)

			id, err := base.Dispatcher.Submit(context.Background(), schemas.ToolInvocation{
				Subject:   "charlie",
				Tool:      "create_document",
				Arguments: map[string]any{"doc_id": "wired", "content": "hello"},
			})
			if err != nil {
				t.Fatalf("submit: %v", err)
			}
			base.Dispatcher.Wait()

			task, err := base.Dispatcher.Get(id)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if task.Status() != schemas.TaskStatusFinished {
				t.Fatalf("expected finished task, got %s: %v", task.Status(), task.Result())
			}
			docs, err := base.Store.List(context.Background())
			if err != nil || len(docs) != 1 {
				t.Fatalf("expected one stored document, got %v %v", docs, err)
			}
		})
	}
}

func TestAuditSinkWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	logger, err := NewAuditLogger(path)
	if err != nil {
		t.Fatalf("audit logger: %v", err)
	}

	sink := AuditSink(logger)
	sink(dispatch.AuditRecord{TaskID: "t1", Tool: "delete_document", Decision: rbac.Decision{Subject: "bob", Resource: "document", Action: "delete"}})
	sink(dispatch.AuditRecord{TaskID: "t2", Tool: "read_document", Decision: rbac.Decision{Subject: "bob", Resource: "document", Action: "read", Allowed: true}})
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read audit log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 audit lines, got %d: %s", len(lines), data)
	}
	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("decode audit line: %v", err)
	}
	if first["msg"] != "permission denied" || first["user"] != "bob" || first["allowed"] != false {
		t.Fatalf("unexpected audit record %v", first)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"bogus": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
