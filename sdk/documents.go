package sdk

import (
	"context"

	"github.com/docgate/docgate/internals/schemas"
)

// Typed wrappers over CallTool for the document tools. Each returns the raw
// tool result; callers inspect Status and Message.

func (c *Client) CreateDocument(ctx context.Context, user, docID, content string) (schemas.ToolResult, error) {
	return c.CallTool(ctx, user, "create_document", map[string]any{"doc_id": docID, "content": content}, nil)
}

func (c *Client) ReadDocument(ctx context.Context, user, docID string) (schemas.ToolResult, error) {
	return c.CallTool(ctx, user, "read_document", map[string]any{"doc_id": docID}, nil)
}

func (c *Client) UpdateDocument(ctx context.Context, user, docID, content string) (schemas.ToolResult, error) {
	return c.CallTool(ctx, user, "update_document", map[string]any{"doc_id": docID, "content": content}, nil)
}

func (c *Client) DeleteDocument(ctx context.Context, user, docID string) (schemas.ToolResult, error) {
	return c.CallTool(ctx, user, "delete_document", map[string]any{"doc_id": docID}, nil)
}

func (c *Client) ListDocuments(ctx context.Context, user string) (schemas.ToolResult, error) {
	return c.CallTool(ctx, user, "list_documents", map[string]any{}, nil)
}

func (c *Client) CheckPermission(ctx context.Context, user, action, resource string) (schemas.ToolResult, error) {
	args := map[string]any{"action": action}
	if resource != "" {
		args["resource"] = resource
	}
	return c.CallTool(ctx, user, "check_permission", args, nil)
}
