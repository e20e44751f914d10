package conf

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigDefaults(t *testing.T) {
	dir := t.TempDir()

	got, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Server.DataDir != dir {
		t.Fatalf("expected data dir %q, got %q", dir, got.Server.DataDir)
	}
	if got.Documents.Backend != BackendFile {
		t.Fatalf("expected file backend, got %q", got.Documents.Backend)
	}
	if got.Documents.Dir != filepath.Join(dir, "documents") {
		t.Fatalf("expected documents dir under data dir, got %q", got.Documents.Dir)
	}
	if got.RBAC.PolicyPath != filepath.Join(dir, "rbac", "policy.csv") {
		t.Fatalf("expected policy path under data dir, got %q", got.RBAC.PolicyPath)
	}
	if !got.RBAC.Watch {
		t.Fatalf("expected policy watch enabled by default")
	}
	if got.Stream.PollIntervalMs != 200 {
		t.Fatalf("expected poll interval 200, got %d", got.Stream.PollIntervalMs)
	}
	if got.Limits.CallsPerSecond != 10 || got.Limits.Burst != 20 {
		t.Fatalf("unexpected limits %+v", got.Limits)
	}
	if got.Log.Level != "info" {
		t.Fatalf("expected info log level, got %q", got.Log.Level)
	}
	if got.Version == "" {
		t.Fatalf("expected version to be set")
	}
}

func TestConfigFromYAML(t *testing.T) {
	dir := t.TempDir()
	content := `
documents:
  backend: sqlite
rbac:
  watch: false
stream:
  poll_interval_ms: 50
limits:
  calls_per_second: 0
log:
  level: debug
`
	if err := os.WriteFile(filepath.Join(dir, "docgate.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	got, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Documents.Backend != BackendSQLite {
		t.Fatalf("expected sqlite backend, got %q", got.Documents.Backend)
	}
	if got.Documents.DSN != filepath.Join(dir, "documents.db") {
		t.Fatalf("expected sqlite dsn under data dir, got %q", got.Documents.DSN)
	}
	if got.RBAC.Watch {
		t.Fatalf("expected policy watch disabled")
	}
	if got.PollInterval().Milliseconds() != 50 {
		t.Fatalf("expected 50ms poll interval, got %s", got.PollInterval())
	}
	if got.Limits.CallsPerSecond != 0 {
		t.Fatalf("expected throttling disabled, got %d", got.Limits.CallsPerSecond)
	}
	if got.Log.Level != "debug" {
		t.Fatalf("expected debug log level, got %q", got.Log.Level)
	}
}

func TestConfigFromJSON(t *testing.T) {
	dir := t.TempDir()
	docs := filepath.Join(t.TempDir(), "docs")
	content := `{"documents": {"backend": "file", "dir": "` + docs + `"}}`
	if err := os.WriteFile(filepath.Join(dir, "docgate.json"), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	got, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Documents.Dir != docs {
		t.Fatalf("expected documents dir %q, got %q", docs, got.Documents.Dir)
	}
}

func TestConfigRejectsUnknownBackend(t *testing.T) {
	dir := t.TempDir()
	content := "documents:\n  backend: mongo\n"
	if err := os.WriteFile(filepath.Join(dir, "docgate.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(dir); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/data")
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if got != filepath.Join(home, "data") {
		t.Fatalf("expected %q, got %q", filepath.Join(home, "data"), got)
	}
}
