package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/custodia-labs/feedsync/internal/core/domain"
	"github.com/custodia-labs/feedsync/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
// It remembers the order in which documents were first inserted.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[domain.DocumentID]domain.Document
	order     []domain.DocumentID
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[domain.DocumentID]domain.Document),
	}
}

// Update stores or replaces a document.
func (s *DocumentStore) Update(_ context.Context, doc domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(doc)
	return nil
}

// UpdateMany stores or replaces documents under a single lock.
func (s *DocumentStore) UpdateMany(_ context.Context, docs []domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range docs {
		s.put(docs[i])
	}
	return nil
}

func (s *DocumentStore) put(doc domain.Document) {
	if _, ok := s.documents[doc.ID]; !ok {
		s.order = append(s.order, doc.ID)
	}
	s.documents[doc.ID] = cloneDocument(doc)
}

// FetchByID retrieves a document by ID.
func (s *DocumentStore) FetchByID(_ context.Context, id domain.DocumentID) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	doc = cloneDocument(doc)
	return &doc, nil
}

// FetchByIDs returns the documents present for ids in insertion order.
func (s *DocumentStore) FetchByIDs(_ context.Context, ids []domain.DocumentID) ([]domain.Document, error) {
	wanted := make(map[domain.DocumentID]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Document, 0, len(wanted))
	for _, id := range s.order {
		if _, ok := wanted[id]; ok {
			result = append(result, cloneDocument(s.documents[id]))
		}
	}
	return result, nil
}

// FetchAll returns every document in insertion order.
func (s *DocumentStore) FetchAll(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Document, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, cloneDocument(s.documents[id]))
	}
	return result, nil
}

// Remove deletes documents. Unknown ids are ignored.
func (s *DocumentStore) Remove(_ context.Context, ids []domain.DocumentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.documents, id)
	}
	s.order = slices.DeleteFunc(s.order, func(id domain.DocumentID) bool {
		_, ok := s.documents[id]
		return !ok
	})
	return nil
}

func cloneDocument(doc domain.Document) domain.Document {
	if doc.Resource.Thumbnail != nil {
		thumbnail := *doc.Resource.Thumbnail
		doc.Resource.Thumbnail = &thumbnail
	}
	return doc
}
