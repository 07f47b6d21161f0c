package driven

import (
	"context"

	"github.com/custodia-labs/feedsync/internal/core/domain"
)

// ActiveDataStore persists engine side data of active documents.
// It is kept apart from DocumentStore so large payloads can be dropped once a
// document is deactivated.
type ActiveDataStore interface {
	// Update inserts or replaces the data for a document.
	Update(ctx context.Context, id domain.DocumentID, data domain.ActiveDocumentData) error

	// Get retrieves the data for a document, or domain.ErrNotFound.
	Get(ctx context.Context, id domain.DocumentID) (*domain.ActiveDocumentData, error)

	// Delete removes the data for a document. Deleting absent data is not an error.
	Delete(ctx context.Context, id domain.DocumentID) error
}
