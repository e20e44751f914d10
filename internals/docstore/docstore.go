// Package docstore defines document persistence and the errors shared by its
// backends.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/docgate/docgate/internals/schemas"
)

//go:generate mockgen -destination=mocks/store.go -package=mocks github.com/docgate/docgate/internals/docstore Store

type Store interface {
	Create(ctx context.Context, id, content, actor string) (schemas.Document, error)
	Read(ctx context.Context, id string) (schemas.Document, error)
	Update(ctx context.Context, id, content, actor string) (schemas.Document, error)
	Delete(ctx context.Context, id, actor string) error
	List(ctx context.Context) ([]schemas.DocumentSummary, error)
	Close() error
}

var (
	ErrNotFound      = errors.New("document not found")
	ErrAlreadyExists = errors.New("document already exists")
	ErrInvalidID     = errors.New("invalid document id")
)

// Error ties a sentinel to the document it concerns.
type Error struct {
	ID  string
	Err error
}

func (e *Error) Error() string {
	switch e.Err {
	case ErrNotFound:
		return fmt.Sprintf("Document '%s' not found", e.ID)
	case ErrAlreadyExists:
		return fmt.Sprintf("Document '%s' already exists", e.ID)
	case ErrInvalidID:
		return fmt.Sprintf("Invalid document id '%s'", e.ID)
	}
	return fmt.Sprintf("Document '%s': %v", e.ID, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NotFound(id string) error {
	return &Error{ID: id, Err: ErrNotFound}
}

func AlreadyExists(id string) error {
	return &Error{ID: id, Err: ErrAlreadyExists}
}

var idPattern = regexp.MustCompile(IDPattern)

// IDPattern is the accepted shape of a document id.
const IDPattern = `^[A-Za-z0-9][A-Za-z0-9._-]*$`

func ValidateID(id string) error {
	if len(id) > 200 || !idPattern.MatchString(id) {
		return &Error{ID: id, Err: ErrInvalidID}
	}
	return nil
}

const previewLength = 100

// Preview returns the first 100 characters of content, followed by "..." when
// content is longer.
func Preview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewLength {
		return content
	}
	return string(runes[:previewLength]) + "..."
}

func Summarize(doc schemas.Document) schemas.DocumentSummary {
	return schemas.DocumentSummary{
		ID:             doc.ID,
		CreatedBy:      doc.CreatedBy,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
		ContentPreview: Preview(doc.Content),
	}
}
