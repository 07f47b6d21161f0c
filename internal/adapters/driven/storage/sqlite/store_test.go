package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/feedsync/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})
	return store
}

func testDocument(title string) domain.Document {
	thumbnail := "https://img.example.com/" + title + ".png"
	return domain.Document{
		ID:         domain.NewDocumentID(),
		StackID:    domain.StackID(domain.NewDocumentID()),
		BatchIndex: 3,
		Timestamp:  time.Date(2024, 5, 1, 9, 0, 0, 123456789, time.UTC),
		Resource: domain.NewsResource{
			Title:         title,
			Snippet:       "about " + title,
			URL:           "https://news.example.com/" + title,
			SourceURL:     "https://news.example.com",
			Thumbnail:     &thumbnail,
			DatePublished: time.Date(2024, 4, 30, 18, 0, 0, 0, time.UTC),
			Rank:          7,
			Score:         0.625,
			Country:       "US",
			Language:      "en",
			Topic:         "science",
		},
		IsActive:     true,
		UserReaction: domain.Positive,
	}
}

// ==================== Store Creation Tests ====================

func TestNewStore_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, "feed.db"), store.Path())
	_, err = os.Stat(store.Path())
	assert.NoError(t, err)
}

func TestNewStore_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	doc := testDocument("persisted")

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.DocumentStore().Update(ctx, doc))
	require.NoError(t, store.EngineStateStore().Save(ctx, []byte("state")))
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	all, err := reopened.DocumentStore().FetchAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Document{doc}, all)

	state, err := reopened.EngineStateStore().Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("state"), state)

	var versions int
	require.NoError(t, reopened.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&versions))
	assert.Equal(t, 1, versions)
}

// ==================== Document Store Tests ====================

func TestDocumentStore_RoundTrip(t *testing.T) {
	docs := setupTestStore(t).DocumentStore()
	ctx := context.Background()

	withThumbnail := testDocument("with")
	withoutThumbnail := testDocument("without")
	withoutThumbnail.Resource.Thumbnail = nil
	withoutThumbnail.Resource.DatePublished = time.Time{}
	withoutThumbnail.UserReaction = domain.Neutral

	require.NoError(t, docs.UpdateMany(ctx, []domain.Document{withThumbnail, withoutThumbnail}))

	got, err := docs.FetchByID(ctx, withThumbnail.ID)
	require.NoError(t, err)
	assert.Equal(t, withThumbnail, *got)

	got, err = docs.FetchByID(ctx, withoutThumbnail.ID)
	require.NoError(t, err)
	assert.Equal(t, withoutThumbnail, *got)
	assert.Nil(t, got.Resource.Thumbnail)
}

func TestDocumentStore_FetchByID_NotFound(t *testing.T) {
	docs := setupTestStore(t).DocumentStore()

	_, err := docs.FetchByID(context.Background(), domain.NewDocumentID())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_FetchAll_InsertionOrder(t *testing.T) {
	docs := setupTestStore(t).DocumentStore()
	ctx := context.Background()
	a, b, c := testDocument("a"), testDocument("b"), testDocument("c")

	require.NoError(t, docs.Update(ctx, a))
	require.NoError(t, docs.UpdateMany(ctx, []domain.Document{b, c}))
	a.IsActive = false
	a.UserReaction = domain.Negative
	require.NoError(t, docs.Update(ctx, a))

	all, err := docs.FetchAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Document{a, b, c}, all)
}

func TestDocumentStore_FetchAll_Empty(t *testing.T) {
	docs := setupTestStore(t).DocumentStore()

	all, err := docs.FetchAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func TestDocumentStore_FetchByIDs(t *testing.T) {
	docs := setupTestStore(t).DocumentStore()
	ctx := context.Background()
	a, b, c := testDocument("a"), testDocument("b"), testDocument("c")
	require.NoError(t, docs.UpdateMany(ctx, []domain.Document{a, b, c}))

	got, err := docs.FetchByIDs(ctx, []domain.DocumentID{c.ID, domain.NewDocumentID(), a.ID})
	require.NoError(t, err)
	assert.Equal(t, []domain.Document{a, c}, got)

	got, err = docs.FetchByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDocumentStore_FetchByIDs_SpansChunks(t *testing.T) {
	docs := setupTestStore(t).DocumentStore()
	ctx := context.Background()
	stored := make([]domain.Document, 2*maxIDsPerQuery+200)
	for i := range stored {
		stored[i] = testDocument(fmt.Sprintf("doc-%04d", i))
	}
	require.NoError(t, docs.UpdateMany(ctx, stored))

	// Ask in reverse order, with unknown and repeated ids spread across chunks.
	ids := make([]domain.DocumentID, 0, len(stored)+20)
	for i := len(stored) - 1; i >= 0; i-- {
		ids = append(ids, stored[i].ID)
		if i%100 == 0 {
			ids = append(ids, domain.NewDocumentID(), stored[len(stored)-1-i].ID)
		}
	}
	require.Greater(t, len(ids), 2*maxIDsPerQuery)

	got, err := docs.FetchByIDs(ctx, ids)
	require.NoError(t, err)
	assert.Equal(t, stored, got)
}

func TestDocumentStore_Remove(t *testing.T) {
	docs := setupTestStore(t).DocumentStore()
	ctx := context.Background()
	a, b := testDocument("a"), testDocument("b")
	require.NoError(t, docs.UpdateMany(ctx, []domain.Document{a, b}))

	require.NoError(t, docs.Remove(ctx, []domain.DocumentID{a.ID, domain.NewDocumentID()}))

	all, err := docs.FetchAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Document{b}, all)
}

func TestDocumentStore_UpdateMany_IsAtomic(t *testing.T) {
	docs := setupTestStore(t).DocumentStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := docs.UpdateMany(ctx, []domain.Document{testDocument("a"), testDocument("b")})
	require.Error(t, err)

	all, err := docs.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestDocumentStore_ConcurrentWrites(t *testing.T) {
	docs := setupTestStore(t).DocumentStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			assert.NoError(t, docs.UpdateMany(ctx, []domain.Document{
				testDocument(fmt.Sprintf("x-%d", n)),
				testDocument(fmt.Sprintf("y-%d", n)),
			}))
		}(i)
	}
	wg.Wait()

	all, err := docs.FetchAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 20)
}

// ==================== Active Data Store Tests ====================

func TestActiveDataStore_UpdateGetDelete(t *testing.T) {
	active := setupTestStore(t).ActiveDataStore()
	ctx := context.Background()
	id := domain.NewDocumentID()
	data := domain.ActiveDocumentData{
		Embedding: []float32{0.25, -1.5, 3},
		ViewTime: map[domain.ViewMode]time.Duration{
			domain.ViewStory:  2 * time.Second,
			domain.ViewReader: time.Minute,
		},
	}

	require.NoError(t, active.Update(ctx, id, data))
	got, err := active.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, data, *got)

	data = data.AddViewTime(domain.ViewWeb, time.Second)
	require.NoError(t, active.Update(ctx, id, data))
	got, err = active.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 63*time.Second, got.TotalViewTime())

	require.NoError(t, active.Delete(ctx, id))
	_, err = active.Get(ctx, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, active.Delete(ctx, id))
}

func TestActiveDataStore_EmptyData(t *testing.T) {
	active := setupTestStore(t).ActiveDataStore()
	ctx := context.Background()
	id := domain.NewDocumentID()

	require.NoError(t, active.Update(ctx, id, domain.ActiveDocumentData{}))
	got, err := active.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.ActiveDocumentData{}, *got)
}

// ==================== Engine State Store Tests ====================

func TestEngineStateStore(t *testing.T) {
	states := setupTestStore(t).EngineStateStore()
	ctx := context.Background()

	_, err := states.Load(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, states.Save(ctx, []byte{1, 2}))
	require.NoError(t, states.Save(ctx, []byte{3}))
	got, err := states.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte{3}, got)
}

// ==================== Helper Tests ====================

func TestFloat32SliceRoundTrip(t *testing.T) {
	assert.Nil(t, float32SliceToBytes(nil))
	assert.Nil(t, bytesToFloat32Slice(nil))
	in := []float32{1, -0.5, 1e-7}
	assert.Equal(t, in, bytesToFloat32Slice(float32SliceToBytes(in)))
}

func TestTimeConversion(t *testing.T) {
	assert.False(t, timeToNullInt(time.Time{}).Valid)
	assert.True(t, nullIntToTime(timeToNullInt(time.Time{})).IsZero())

	ts := time.Date(2030, 1, 2, 3, 4, 5, 6, time.UTC)
	assert.Equal(t, ts, nullIntToTime(timeToNullInt(ts)))
}
