package memory

import (
	"bytes"
	"context"
	"sync"

	"github.com/custodia-labs/feedsync/internal/core/domain"
	"github.com/custodia-labs/feedsync/internal/core/ports/driven"
)

// Ensure EngineStateStore implements the interface.
var _ driven.EngineStateStore = (*EngineStateStore)(nil)

// EngineStateStore is an in-memory implementation of driven.EngineStateStore.
type EngineStateStore struct {
	mu    sync.RWMutex
	state []byte
}

// NewEngineStateStore creates a new in-memory engine state store.
func NewEngineStateStore() *EngineStateStore {
	return &EngineStateStore{}
}

// Save replaces the stored state.
func (s *EngineStateStore) Save(_ context.Context, state []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = bytes.Clone(state)
	if s.state == nil {
		s.state = []byte{}
	}
	return nil
}

// Load returns the stored state.
func (s *EngineStateStore) Load(_ context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return nil, domain.ErrNotFound
	}
	return bytes.Clone(s.state), nil
}
