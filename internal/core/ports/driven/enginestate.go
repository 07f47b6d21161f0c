package driven

import "context"

// EngineStateStore persists the opaque serialized engine state.
type EngineStateStore interface {
	// Save replaces the stored state.
	Save(ctx context.Context, state []byte) error

	// Load returns the stored state, or domain.ErrNotFound when none was saved.
	Load(ctx context.Context) ([]byte, error)
}
