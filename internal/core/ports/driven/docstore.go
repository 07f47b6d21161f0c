package driven

import (
	"context"

	"github.com/custodia-labs/feedsync/internal/core/domain"
)

// DocumentStore persists documents.
// Stores serialize their own writes; callers never see a torn document.
type DocumentStore interface {
	// Update inserts or replaces a document.
	Update(ctx context.Context, doc domain.Document) error

	// UpdateMany inserts or replaces documents as one write.
	UpdateMany(ctx context.Context, docs []domain.Document) error

	// FetchByID retrieves a document, or domain.ErrNotFound.
	FetchByID(ctx context.Context, id domain.DocumentID) (*domain.Document, error)

	// FetchByIDs returns the documents present for ids in store insertion
	// order. Unknown ids are silently omitted.
	FetchByIDs(ctx context.Context, ids []domain.DocumentID) ([]domain.Document, error)

	// FetchAll returns every document in store insertion order.
	FetchAll(ctx context.Context) ([]domain.Document, error)

	// Remove deletes documents. It exists only to undo a batch that never
	// became durable; feed operations deactivate instead.
	Remove(ctx context.Context, ids []domain.DocumentID) error
}
