package documents

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates the document does not exist or is not owned by
// the requesting user.
var ErrNotFound = errors.New("document not found")

// ListFilter narrows and pages a document listing.
type ListFilter struct {
	Search string
	Page   int
	Limit  int
}

// Repo defines persistence operations for documents. All reads and
// writes are scoped to the owning user.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, userID, docID string) (Document, error)
	// List returns a page of documents without their extracted text.
	List(ctx context.Context, userID string, filter ListFilter) ([]Document, int, error)
	// Update persists summary, key points, status, and lastProcessed.
	Update(ctx context.Context, doc Document) error
	Delete(ctx context.Context, userID, docID string) error
	// CountSince counts documents uploaded at or after since.
	CountSince(ctx context.Context, userID string, since time.Time) (int, error)
}
