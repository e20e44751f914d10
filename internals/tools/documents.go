package tools

import (
	"context"
	"fmt"

	"github.com/docgate/docgate/internals/docstore"

	"github.com/go-viper/mapstructure/v2"
)

const ResourceDocument = "document"

// PermissionChecker is the subset of the policy gate the tools need.
type PermissionChecker interface {
	Allowed(subject, resource, action string) bool
}

type documentArgs struct {
	DocID   string `mapstructure:"doc_id"`
	Content string `mapstructure:"content"`
}

type permissionArgs struct {
	Action   string `mapstructure:"action"`
	Resource string `mapstructure:"resource"`
}

var docIDSchema = `{"type": "string", "minLength": 1, "maxLength": 200, "pattern": "` + docstore.IDPattern + `", "description": "Document identifier"}`

var (
	docIDOnlySchema = `{
	"type": "object",
	"properties": {"doc_id": ` + docIDSchema + `},
	"required": ["doc_id"]
}`
	docContentSchema = `{
	"type": "object",
	"properties": {
		"doc_id": ` + docIDSchema + `,
		"content": {"type": "string", "description": "Document content"}
	},
	"required": ["doc_id", "content"]
}`
	emptySchema = `{"type": "object", "properties": {}}`

	checkPermissionSchema = `{
	"type": "object",
	"properties": {
		"action": {"type": "string", "minLength": 1, "description": "Action to check (create, read, update, delete)"},
		"resource": {"type": "string", "minLength": 1, "description": "Resource type, defaults to document"}
	},
	"required": ["action"]
}`
)

// NewDocumentRegistry returns a registry holding the document tools backed by
// store, plus check_permission evaluated against gate.
func NewDocumentRegistry(store docstore.Store, gate PermissionChecker) (*Registry, error) {
	r := NewRegistry()
	if err := RegisterDocumentTools(r, store, gate); err != nil {
		return nil, err
	}
	return r, nil
}

func RegisterDocumentTools(r *Registry, store docstore.Store, gate PermissionChecker) error {
	h := documentHandlers{store: store, gate: gate}
	tools := []Tool{
		{
			Name:        "create_document",
			Description: "Create a new document",
			Resource:    ResourceDocument,
			Action:      "create",
			Required:    []string{"doc_id", "content"},
			InputSchema: docContentSchema,
			Handler:     h.create,
		},
		{
			Name:        "read_document",
			Description: "Read a document",
			Resource:    ResourceDocument,
			Action:      "read",
			Required:    []string{"doc_id"},
			InputSchema: docIDOnlySchema,
			Handler:     h.read,
		},
		{
			Name:        "update_document",
			Description: "Update an existing document",
			Resource:    ResourceDocument,
			Action:      "update",
			Required:    []string{"doc_id", "content"},
			InputSchema: docContentSchema,
			Handler:     h.update,
		},
		{
			Name:        "delete_document",
			Description: "Delete a document",
			Resource:    ResourceDocument,
			Action:      "delete",
			Required:    []string{"doc_id"},
			InputSchema: docIDOnlySchema,
			Handler:     h.delete,
		},
		{
			Name:        "list_documents",
			Description: "List all documents",
			InputSchema: emptySchema,
			Handler:     h.list,
		},
		{
			Name:        "check_permission",
			Description: "Check whether the user may perform an action",
			Required:    []string{"action"},
			InputSchema: checkPermissionSchema,
			Handler:     h.checkPermission,
		},
	}
	for _, tool := range tools {
		if err := r.Register(tool); err != nil {
			return err
		}
	}
	return nil
}

type documentHandlers struct {
	store docstore.Store
	gate  PermissionChecker
}

func (h documentHandlers) create(ctx context.Context, call Call) (map[string]any, error) {
	var args documentArgs
	if err := decodeArgs(call.Arguments, &args); err != nil {
		return nil, err
	}
	doc, err := h.store.Create(ctx, args.DocID, args.Content, call.Subject)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"message": fmt.Sprintf("Document '%s' created", args.DocID),
		"data":    doc,
	}, nil
}

func (h documentHandlers) read(ctx context.Context, call Call) (map[string]any, error) {
	var args documentArgs
	if err := decodeArgs(call.Arguments, &args); err != nil {
		return nil, err
	}
	doc, err := h.store.Read(ctx, args.DocID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"data": doc}, nil
}

func (h documentHandlers) update(ctx context.Context, call Call) (map[string]any, error) {
	var args documentArgs
	if err := decodeArgs(call.Arguments, &args); err != nil {
		return nil, err
	}
	doc, err := h.store.Update(ctx, args.DocID, args.Content, call.Subject)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"message": fmt.Sprintf("Document '%s' updated", args.DocID),
		"data":    doc,
	}, nil
}

func (h documentHandlers) delete(ctx context.Context, call Call) (map[string]any, error) {
	var args documentArgs
	if err := decodeArgs(call.Arguments, &args); err != nil {
		return nil, err
	}
	if err := h.store.Delete(ctx, args.DocID, call.Subject); err != nil {
		return nil, err
	}
	return map[string]any{"message": fmt.Sprintf("Document '%s' deleted", args.DocID)}, nil
}

func (h documentHandlers) list(ctx context.Context, call Call) (map[string]any, error) {
	docs, err := h.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"data": docs}, nil
}

func (h documentHandlers) checkPermission(ctx context.Context, call Call) (map[string]any, error) {
	args := permissionArgs{Resource: ResourceDocument}
	if err := decodeArgs(call.Arguments, &args); err != nil {
		return nil, err
	}
	allowed := h.gate.Allowed(call.Subject, args.Resource, args.Action)
	verb := "cannot"
	if allowed {
		verb = "can"
	}
	return map[string]any{
		"has_permission": allowed,
		"message":        fmt.Sprintf("User '%s' %s %s %ss", call.Subject, verb, args.Action, args.Resource),
	}, nil
}

func decodeArgs(args map[string]any, out any) error {
	if err := mapstructure.Decode(args, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return nil
}
