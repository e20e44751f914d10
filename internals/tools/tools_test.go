package tools

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/docgate/docgate/internals/docstore"
	"github.com/docgate/docgate/internals/docstore/mocks"
	"github.com/docgate/docgate/internals/schemas"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type staticGate map[string]bool

func (g staticGate) Allowed(subject, resource, action string) bool {
	return g[subject+":"+resource+":"+action]
}

func newMockRegistry(t *testing.T) (*Registry, *mocks.MockStore) {
	t.Helper()
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	gate := staticGate{"alice:document:delete": true}
	registry, err := NewDocumentRegistry(store, gate)
	require.NoError(t, err)
	return registry, store
}

func TestRegistryResolve(t *testing.T) {
	registry, _ := newMockRegistry(t)

	for _, name := range []string{"create_document", "read_document", "update_document", "delete_document", "list_documents", "check_permission"} {
		tool, err := registry.Resolve(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, tool.Name)
	}

	_, err := registry.Resolve("drop_tables")
	assert.ErrorIs(t, err, ErrUnknownTool)
}

func TestPermissionPairs(t *testing.T) {
	registry, _ := newMockRegistry(t)

	cases := map[string]string{
		"create_document": "create",
		"read_document":   "read",
		"update_document": "update",
		"delete_document": "delete",
	}
	for name, action := range cases {
		tool, err := registry.Resolve(name)
		require.NoError(t, err)
		assert.True(t, tool.Gated(), name)
		assert.Equal(t, ResourceDocument, tool.Resource)
		assert.Equal(t, action, tool.Action)
	}

	for _, name := range []string{"list_documents", "check_permission"} {
		tool, err := registry.Resolve(name)
		require.NoError(t, err)
		assert.False(t, tool.Gated(), name)
	}
}

func TestSchemasKeepRegistrationOrder(t *testing.T) {
	registry, _ := newMockRegistry(t)

	list := registry.Schemas()
	require.Len(t, list, 6)
	assert.Equal(t, "create_document", list[0].Name)
	assert.Equal(t, "check_permission", list[5].Name)
	assert.Contains(t, string(list[0].InputSchema), `"doc_id"`)
}

func TestRegisterRejectsDuplicatesAndBadSchemas(t *testing.T) {
	registry := NewRegistry()
	noop := func(context.Context, Call) (map[string]any, error) { return nil, nil }

	require.NoError(t, registry.Register(Tool{Name: "noop", Handler: noop}))
	assert.ErrorIs(t, registry.Register(Tool{Name: "noop", Handler: noop}), ErrAlreadyRegistered)
	assert.Error(t, registry.Register(Tool{Name: "broken", Handler: noop, InputSchema: "{"}))
	assert.Error(t, registry.Register(Tool{Name: "half", Handler: noop, Resource: "document"}))
	assert.Error(t, registry.Register(Tool{Name: "nohandler"}))
}

func TestMissingArgumentsNeverReachStore(t *testing.T) {
	// The mock fails the test on any unexpected store call.
	registry, _ := newMockRegistry(t)
	ctx := context.Background()

	cases := []struct {
		tool string
		args map[string]any
	}{
		{"create_document", map[string]any{"doc_id": "a"}},
		{"create_document", map[string]any{"content": "x"}},
		{"read_document", map[string]any{}},
		{"read_document", nil},
		{"update_document", map[string]any{"doc_id": "a"}},
		{"delete_document", map[string]any{"content": "x"}},
		{"check_permission", map[string]any{}},
	}
	for _, tc := range cases {
		tool, err := registry.Resolve(tc.tool)
		require.NoError(t, err)
		_, err = tool.Invoke(ctx, Call{Subject: "alice", Arguments: tc.args})
		assert.ErrorIs(t, err, ErrInvalidArguments, tc.tool)
	}
}

func TestMistypedArgumentsNeverReachStore(t *testing.T) {
	registry, _ := newMockRegistry(t)
	ctx := context.Background()

	tool, err := registry.Resolve("create_document")
	require.NoError(t, err)

	_, err = tool.Invoke(ctx, Call{Subject: "alice", Arguments: map[string]any{"doc_id": "a", "content": 42}})
	require.ErrorIs(t, err, ErrInvalidArguments)
	assert.Contains(t, err.Error(), "/content")

	_, err = tool.Invoke(ctx, Call{Subject: "alice", Arguments: map[string]any{"doc_id": "../etc/passwd", "content": "x"}})
	require.ErrorIs(t, err, ErrInvalidArguments)
}

func TestCreateDocument(t *testing.T) {
	registry, store := newMockRegistry(t)
	ctx := context.Background()
	now := time.Now().UTC()
	doc := schemas.Document{ID: "report", Content: "hello", CreatedBy: "alice", CreatedAt: now, UpdatedAt: now}

	store.EXPECT().Create(gomock.Any(), "report", "hello", "alice").Return(doc, nil)

	tool, err := registry.Resolve("create_document")
	require.NoError(t, err)
	out, err := tool.Invoke(ctx, Call{Subject: "alice", Arguments: map[string]any{"doc_id": "report", "content": "hello"}})
	require.NoError(t, err)
	assert.Equal(t, "Document 'report' created", out["message"])
	assert.Equal(t, doc, out["data"])
}

func TestReadDocumentPropagatesStoreError(t *testing.T) {
	registry, store := newMockRegistry(t)

	store.EXPECT().Read(gomock.Any(), "missing").Return(schemas.Document{}, docstore.NotFound("missing"))

	tool, err := registry.Resolve("read_document")
	require.NoError(t, err)
	_, err = tool.Invoke(context.Background(), Call{Subject: "bob", Arguments: map[string]any{"doc_id": "missing"}})
	require.ErrorIs(t, err, docstore.ErrNotFound)
	assert.Equal(t, "Document 'missing' not found", err.Error())
}

func TestUpdateAndDeleteDocument(t *testing.T) {
	registry, store := newMockRegistry(t)
	ctx := context.Background()

	store.EXPECT().Update(gomock.Any(), "report", "v2", "charlie").Return(schemas.Document{ID: "report", Content: "v2"}, nil)
	store.EXPECT().Delete(gomock.Any(), "report", "alice").Return(nil)

	update, err := registry.Resolve("update_document")
	require.NoError(t, err)
	out, err := update.Invoke(ctx, Call{Subject: "charlie", Arguments: map[string]any{"doc_id": "report", "content": "v2"}})
	require.NoError(t, err)
	assert.Equal(t, "Document 'report' updated", out["message"])

	del, err := registry.Resolve("delete_document")
	require.NoError(t, err)
	out, err = del.Invoke(ctx, Call{Subject: "alice", Arguments: map[string]any{"doc_id": "report"}})
	require.NoError(t, err)
	assert.Equal(t, "Document 'report' deleted", out["message"])
}

func TestListDocuments(t *testing.T) {
	registry, store := newMockRegistry(t)
	summaries := []schemas.DocumentSummary{{ID: "a", ContentPreview: "hi"}}

	store.EXPECT().List(gomock.Any()).Return(summaries, nil)

	tool, err := registry.Resolve("list_documents")
	require.NoError(t, err)
	out, err := tool.Invoke(context.Background(), Call{Subject: "anyone", Arguments: nil})
	require.NoError(t, err)
	assert.Equal(t, summaries, out["data"])
}

func TestListDocumentsStoreFailure(t *testing.T) {
	registry, store := newMockRegistry(t)
	store.EXPECT().List(gomock.Any()).Return(nil, errors.New("disk on fire"))

	tool, err := registry.Resolve("list_documents")
	require.NoError(t, err)
	_, err = tool.Invoke(context.Background(), Call{Subject: "anyone", Arguments: nil})
	assert.EqualError(t, err, "disk on fire")
}

func TestCheckPermissionDoesNotTouchStore(t *testing.T) {
	registry, _ := newMockRegistry(t)
	tool, err := registry.Resolve("check_permission")
	require.NoError(t, err)

	out, err := tool.Invoke(context.Background(), Call{Subject: "alice", Arguments: map[string]any{"action": "delete"}})
	require.NoError(t, err)
	assert.Equal(t, true, out["has_permission"])
	assert.Equal(t, "User 'alice' can delete documents", out["message"])

	out, err = tool.Invoke(context.Background(), Call{Subject: "bob", Arguments: map[string]any{"action": "delete"}})
	require.NoError(t, err)
	assert.Equal(t, false, out["has_permission"])
	assert.Equal(t, "User 'bob' cannot delete documents", out["message"])
}
