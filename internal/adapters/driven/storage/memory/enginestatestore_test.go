package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/feedsync/internal/core/domain"
)

func TestEngineStateStore_LoadEmpty(t *testing.T) {
	store := NewEngineStateStore()

	state, err := store.Load(context.Background())

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, state)
}

func TestEngineStateStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	store := NewEngineStateStore()
	input := []byte{0xa1, 0x01, 0x02}

	require.NoError(t, store.Save(ctx, input))
	input[0] = 0xff

	state, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xa1, 0x01, 0x02}, state)

	state[1] = 0xff
	again, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xa1, 0x01, 0x02}, again)
}

func TestEngineStateStore_SaveEmptyIsNotMissing(t *testing.T) {
	ctx := context.Background()
	store := NewEngineStateStore()

	require.NoError(t, store.Save(ctx, nil))

	state, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, state)
}
