package rbac

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/docgate/docgate/internals/schemas"
	"github.com/docgate/docgate/internals/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGate(t *testing.T) (*Gate, string) {
	t.Helper()
	dir := testutil.TempDataDir(t)
	modelPath := filepath.Join(dir, "rbac", "model.conf")
	policyPath := filepath.Join(dir, "rbac", "policy.csv")
	require.NoError(t, EnsureDefaults(modelPath, policyPath))

	gate, err := New(Config{ModelPath: modelPath, PolicyPath: policyPath, Logger: testutil.DiscardLogger()})
	require.NoError(t, err)
	return gate, policyPath
}

func TestDefaultPolicy(t *testing.T) {
	gate, _ := newTestGate(t)

	cases := []struct {
		subject string
		action  string
		allowed bool
	}{
		{"alice", "create", true},
		{"alice", "delete", true},
		{"charlie", "update", true},
		{"charlie", "delete", false},
		{"bob", "read", true},
		{"bob", "create", false},
		{"mallory", "read", false},
		{"", "read", false},
	}
	for _, tc := range cases {
		t.Run(tc.subject+"/"+tc.action, func(t *testing.T) {
			assert.Equal(t, tc.allowed, gate.Allowed(tc.subject, "document", tc.action))
		})
	}
}

func TestDecideCarriesRequest(t *testing.T) {
	gate, _ := newTestGate(t)

	d := gate.Decide("bob", "document", "delete")
	assert.Equal(t, Decision{Subject: "bob", Resource: "document", Action: "delete", Allowed: false}, d)
	assert.Equal(t, "User 'bob' cannot delete documents", d.String())
	assert.Equal(t, "User 'alice' can read documents", gate.Decide("alice", "document", "read").String())
}

func TestRoleLookups(t *testing.T) {
	gate, _ := newTestGate(t)

	assert.Equal(t, "admin", gate.UserRole("alice"))
	assert.Equal(t, "", gate.UserRole("nobody"))

	users, err := gate.Users()
	require.NoError(t, err)
	assert.Equal(t, []schemas.User{
		{Username: "alice", Role: "admin"},
		{Username: "bob", Role: "viewer"},
		{Username: "charlie", Role: "editor"},
	}, users)

	perms, err := gate.PermissionsForRole("viewer")
	require.NoError(t, err)
	assert.Equal(t, []schemas.Permission{{Resource: "document", Action: "read"}}, perms)

	perms, err = gate.PermissionsForRole("ghost")
	require.NoError(t, err)
	assert.Empty(t, perms)
}

func TestEnsureDefaultsKeepsExistingPolicy(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.conf")
	policyPath := filepath.Join(dir, "policy.csv")
	require.NoError(t, os.WriteFile(policyPath, []byte("p, viewer, document, read\n"), 0o644))

	require.NoError(t, EnsureDefaults(modelPath, policyPath))

	data, err := os.ReadFile(policyPath)
	require.NoError(t, err)
	assert.Equal(t, "p, viewer, document, read\n", string(data))
	_, err = os.Stat(modelPath)
	assert.NoError(t, err)
}

func TestReload(t *testing.T) {
	gate, policyPath := newTestGate(t)
	require.False(t, gate.Allowed("bob", "document", "create"))

	appendRule(t, policyPath, "g, bob, editor\n")
	require.NoError(t, gate.Reload())

	assert.True(t, gate.Allowed("bob", "document", "create"))
}

func TestWatchReloadsOnChange(t *testing.T) {
	gate, policyPath := newTestGate(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- gate.Watch(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Give the watcher a moment to register the directory.
	time.Sleep(100 * time.Millisecond)
	appendRule(t, policyPath, "g, dave, admin\n")

	require.Eventually(t, func() bool {
		return gate.Allowed("dave", "document", "delete")
	}, 5*time.Second, 50*time.Millisecond)
}

func appendRule(t *testing.T, path, rule string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(rule)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}
