package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/docgate/docgate/docgated/core"
	"github.com/docgate/docgate/internals/conf"
	"github.com/docgate/docgate/internals/env"
	"github.com/docgate/docgate/internals/testutil"
)

func newTestServer(t *testing.T, configYAML string) (*Server, *httptest.Server) {
	t.Helper()
	dir := testutil.TempDataDir(t)
	if configYAML != "" {
		if err := os.WriteFile(filepath.Join(dir, "docgate.yaml"), []byte(configYAML), 0o644); err != nil {
			t.Fatalf("write config: %v", err)
		}
	}
	config, err := conf.Load(dir)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	base, err := core.Assemble(context.Background(), config, &env.EnvStruct{LISTEN_ADDR: "127.0.0.1:0"}, testutil.DiscardLogger(), zap.NewNop())
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	srv := NewWithBase(base)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(func() {
		ts.Close()
		base.Close()
	})
	return srv, ts
}

type sseEvent struct {
	ID    string
	Event string
	Data  string
}

func readEvents(t *testing.T, resp *http.Response) []sseEvent {
	t.Helper()
	defer resp.Body.Close()

	var (
		events  []sseEvent
		current sseEvent
	)
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if current.Event != "" {
				events = append(events, current)
			}
			current = sseEvent{}
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "id: "):
			current.ID = strings.TrimPrefix(line, "id: ")
		case strings.HasPrefix(line, "event: "):
			current.Event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			current.Data = strings.TrimPrefix(line, "data: ")
		}
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("read stream: %v", err)
	}
	return events
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("encode body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}
