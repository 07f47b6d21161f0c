package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/custodia-labs/feedsync/internal/core/domain"
	"github.com/custodia-labs/feedsync/internal/core/ports/driven"
)

// Ensure ActiveDataStore implements the interface.
var _ driven.ActiveDataStore = (*ActiveDataStore)(nil)

// ActiveDataStore is an in-memory implementation of driven.ActiveDataStore.
type ActiveDataStore struct {
	mu   sync.RWMutex
	data map[domain.DocumentID]domain.ActiveDocumentData
}

// NewActiveDataStore creates a new in-memory active data store.
func NewActiveDataStore() *ActiveDataStore {
	return &ActiveDataStore{
		data: make(map[domain.DocumentID]domain.ActiveDocumentData),
	}
}

// Update stores or replaces the data of a document.
func (s *ActiveDataStore) Update(_ context.Context, id domain.DocumentID, data domain.ActiveDocumentData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = cloneActiveData(data)
	return nil
}

// Get retrieves the data of a document.
func (s *ActiveDataStore) Get(_ context.Context, id domain.DocumentID) (*domain.ActiveDocumentData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	data = cloneActiveData(data)
	return &data, nil
}

// Delete removes the data of a document.
func (s *ActiveDataStore) Delete(_ context.Context, id domain.DocumentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// Len returns the number of documents with data.
func (s *ActiveDataStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func cloneActiveData(data domain.ActiveDocumentData) domain.ActiveDocumentData {
	return domain.ActiveDocumentData{
		Embedding: slices.Clone(data.Embedding),
		ViewTime:  maps.Clone(data.ViewTime),
	}
}
