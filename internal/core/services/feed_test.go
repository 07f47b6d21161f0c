package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/feedsync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/feedsync/internal/core/domain"
	"github.com/custodia-labs/feedsync/internal/core/ports/driving"
	"github.com/custodia-labs/feedsync/internal/metrics"
)

var (
	errWrite   = errors.New("disk full")
	feedEpoch  = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	feedMarket = domain.FeedMarket{Country: "US", Language: "en"}
)

// feedMockEngine is a scripted engine. Each FeedDocuments call returns the
// next entry of batches.
type feedMockEngine struct {
	batches  [][]domain.RankedDocument
	results  []domain.RankedDocument
	topics   []domain.TrendingTopic
	err      error
	state    []byte
	reacted  []domain.UserReacted
	spent    []domain.TimeSpent
	history  []domain.HistoricDocument
	markets  domain.FeedMarkets
	trusted  domain.Sources
	excluded domain.Sources
	resets   int
	lastPage [2]int
}

func (e *feedMockEngine) Serialize(_ context.Context) ([]byte, error) {
	return e.state, nil
}

func (e *feedMockEngine) SetMarkets(_ context.Context, history []domain.HistoricDocument, markets domain.FeedMarkets) error {
	if e.err != nil {
		return e.err
	}
	e.history = history
	e.markets = markets
	return nil
}

func (e *feedMockEngine) SetExcludedSources(_ context.Context, history []domain.HistoricDocument, sources domain.Sources) error {
	e.history = history
	e.excluded = sources
	return e.err
}

func (e *feedMockEngine) SetTrustedSources(_ context.Context, history []domain.HistoricDocument, sources domain.Sources) error {
	e.history = history
	e.trusted = sources
	return e.err
}

func (e *feedMockEngine) FeedDocuments(_ context.Context, history []domain.HistoricDocument, maxDocuments int) ([]domain.RankedDocument, error) {
	if e.err != nil {
		return nil, e.err
	}
	e.history = history
	if len(e.batches) == 0 || maxDocuments == 0 {
		return nil, nil
	}
	batch := e.batches[0]
	e.batches = e.batches[1:]
	return batch, nil
}

func (e *feedMockEngine) TimeSpent(_ context.Context, timeSpent domain.TimeSpent) error {
	if e.err != nil {
		return e.err
	}
	e.spent = append(e.spent, timeSpent)
	return nil
}

func (e *feedMockEngine) UserReacted(_ context.Context, history []domain.HistoricDocument, reacted domain.UserReacted) error {
	if e.err != nil {
		return e.err
	}
	e.history = history
	e.reacted = append(e.reacted, reacted)
	return nil
}

func (e *feedMockEngine) SearchByQuery(_ context.Context, _ string, page, pageSize int) ([]domain.RankedDocument, error) {
	e.lastPage = [2]int{page, pageSize}
	return e.results, e.err
}

func (e *feedMockEngine) SearchByTopic(_ context.Context, _ string, page, pageSize int) ([]domain.RankedDocument, error) {
	e.lastPage = [2]int{page, pageSize}
	return e.results, e.err
}

func (e *feedMockEngine) DeepSearch(_ context.Context, _ string, _ domain.FeedMarket) ([]domain.RankedDocument, error) {
	return e.results, e.err
}

func (e *feedMockEngine) TrendingTopics(_ context.Context) ([]domain.TrendingTopic, error) {
	return e.topics, e.err
}

func (e *feedMockEngine) ResetAI(_ context.Context) error {
	e.resets++
	return e.err
}

func (e *feedMockEngine) Dispose(_ context.Context) error {
	return nil
}

// feedFailingDocStore fails UpdateMany while failUpdateMany is set.
type feedFailingDocStore struct {
	*memory.DocumentStore
	failUpdateMany bool
}

func (s *feedFailingDocStore) UpdateMany(ctx context.Context, docs []domain.Document) error {
	if s.failUpdateMany {
		return errWrite
	}
	return s.DocumentStore.UpdateMany(ctx, docs)
}

// feedFailingActiveStore accepts failAfter updates, then fails.
type feedFailingActiveStore struct {
	*memory.ActiveDataStore
	failAfter int
	updates   int
}

func (s *feedFailingActiveStore) Update(ctx context.Context, id domain.DocumentID, data domain.ActiveDocumentData) error {
	s.updates++
	if s.updates > s.failAfter {
		return errWrite
	}
	return s.ActiveDataStore.Update(ctx, id, data)
}

func rankedDoc(n int, stamp time.Time, active bool) domain.RankedDocument {
	return domain.RankedDocument{
		Document: domain.Document{
			ID:         domain.NewDocumentID(),
			BatchIndex: n,
			Timestamp:  stamp,
			Resource: domain.NewsResource{
				Title:     fmt.Sprintf("story %d", n),
				Snippet:   fmt.Sprintf("snippet %d", n),
				URL:       fmt.Sprintf("https://news.example.com/%d", n),
				SourceURL: "https://news.example.com",
				Country:   "US",
				Language:  "en",
				Score:     1 / float64(n+1),
			},
			IsActive: active,
		},
		Data: domain.ActiveDocumentData{Embedding: []float32{float32(n), 1}},
	}
}

func rankedBatch(n int, stamp time.Time) []domain.RankedDocument {
	batch := make([]domain.RankedDocument, n)
	for i := range batch {
		batch[i] = rankedDoc(i, stamp, true)
	}
	return batch
}

type feedFixture struct {
	engine  *feedMockEngine
	docs    *memory.DocumentStore
	active  *memory.ActiveDataStore
	states  *memory.EngineStateStore
	metrics *metrics.Metrics
	reg     *prometheus.Registry
	manager *FeedManager
}

func newFeedFixture(t *testing.T, batches ...[]domain.RankedDocument) *feedFixture {
	t.Helper()
	f := &feedFixture{
		engine:  &feedMockEngine{batches: batches, state: []byte("state-v1")},
		docs:    memory.NewDocumentStore(),
		active:  memory.NewActiveDataStore(),
		states:  memory.NewEngineStateStore(),
		metrics: metrics.NewMetrics(),
		reg:     prometheus.NewRegistry(),
	}
	require.NoError(t, f.metrics.Register(f.reg))
	f.manager = NewFeedManager(f.engine, f.docs, f.active, f.states, domain.DefaultFeedSettings(), f.metrics)
	return f
}

// counter returns the summed value of a gathered counter family.
func (f *feedFixture) counter(t *testing.T, name string) float64 {
	t.Helper()
	families, err := f.reg.Gather()
	require.NoError(t, err)
	var total float64
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
	}
	return total
}

func ids(docs []domain.Document) []domain.DocumentID {
	out := make([]domain.DocumentID, len(docs))
	for i := range docs {
		out[i] = docs[i].ID
	}
	return out
}

func TestFeedManager_NextFeedBatch_PersistsInEngineOrder(t *testing.T) {
	batch := rankedBatch(3, feedEpoch)
	f := newFeedFixture(t, batch)

	docs, err := f.manager.NextFeedBatch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, ids(domain.Documents(batch)), ids(docs))

	stored, err := f.docs.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored, 3)
	for _, r := range batch {
		data, err := f.active.Get(context.Background(), r.Document.ID)
		require.NoError(t, err)
		assert.Equal(t, r.Data.Embedding, data.Embedding)
	}

	state, err := f.states.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("state-v1"), state)

	assert.Equal(t, float64(1), f.counter(t, metrics.MetricBatches))
	assert.Equal(t, float64(3), f.counter(t, metrics.MetricDocumentsAdded))
}

func TestFeedManager_NextFeedBatch_PassesHistory(t *testing.T) {
	first := rankedBatch(2, feedEpoch)
	f := newFeedFixture(t, first, rankedBatch(1, feedEpoch.Add(time.Minute)))

	_, err := f.manager.NextFeedBatch(context.Background())
	require.NoError(t, err)
	_, err = f.manager.NextFeedBatch(context.Background())
	require.NoError(t, err)

	require.Len(t, f.engine.history, 2)
	assert.Equal(t, first[0].Document.ID, f.engine.history[0].ID)
	assert.Equal(t, first[0].Document.Resource.URL, f.engine.history[0].URL)
}

func TestFeedManager_NextFeedBatch_EmptyBatch(t *testing.T) {
	f := newFeedFixture(t)

	docs, err := f.manager.NextFeedBatch(context.Background())

	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Equal(t, 0, f.active.Len())
}

func TestFeedManager_NextFeedBatch_EngineFailure(t *testing.T) {
	f := newFeedFixture(t, rankedBatch(2, feedEpoch))
	f.engine.err = fmt.Errorf("%w: feed_documents: boom", domain.ErrEngine)

	docs, err := f.manager.NextFeedBatch(context.Background())

	require.ErrorIs(t, err, domain.ErrEngine)
	assert.Nil(t, docs)
	stored, err := f.docs.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestFeedManager_NextFeedBatch_DocumentStoreFailure(t *testing.T) {
	f := newFeedFixture(t, rankedBatch(3, feedEpoch))
	docs := &feedFailingDocStore{DocumentStore: f.docs, failUpdateMany: true}
	manager := NewFeedManager(f.engine, docs, f.active, f.states, domain.DefaultFeedSettings(), f.metrics)

	_, err := manager.NextFeedBatch(context.Background())

	require.ErrorIs(t, err, domain.ErrStore)
	assert.ErrorIs(t, err, errWrite)
	stored, err := f.docs.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stored)
	assert.Equal(t, 0, f.active.Len())
	assert.Equal(t, float64(1), f.counter(t, metrics.MetricRollbacks))
}

func TestFeedManager_NextFeedBatch_ActiveStoreFailureRollsBack(t *testing.T) {
	existing := rankedBatch(2, feedEpoch)
	f := newFeedFixture(t, existing, rankedBatch(4, feedEpoch.Add(time.Hour)))
	_, err := f.manager.NextFeedBatch(context.Background())
	require.NoError(t, err)

	active := &feedFailingActiveStore{ActiveDataStore: f.active, failAfter: 2}
	manager := NewFeedManager(f.engine, f.docs, active, f.states, domain.DefaultFeedSettings(), f.metrics)

	docs, err := manager.NextFeedBatch(context.Background())

	require.ErrorIs(t, err, domain.ErrStore)
	assert.Nil(t, docs)

	stored, err := f.docs.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ids(domain.Documents(existing)), ids(stored))
	assert.Equal(t, 2, f.active.Len())

	feed, err := manager.RestoreFeed(context.Background())
	require.NoError(t, err)
	assert.Len(t, feed, 2)
}

func TestFeedManager_NextFeedBatch_WithoutStateStoreOrMetrics(t *testing.T) {
	f := newFeedFixture(t, rankedBatch(3, feedEpoch))
	active := &feedFailingActiveStore{ActiveDataStore: f.active, failAfter: 1}
	manager := NewFeedManager(f.engine, f.docs, active, nil, domain.DefaultFeedSettings(), nil)

	_, err := manager.NextFeedBatch(context.Background())

	require.ErrorIs(t, err, domain.ErrStore)
	stored, err := f.docs.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stored)
	assert.Equal(t, 0, f.active.Len())
}

func TestFeedManager_RestoreFeed_Order(t *testing.T) {
	f := newFeedFixture(t)
	ctx := context.Background()

	later := rankedDoc(0, feedEpoch.Add(time.Minute), true).Document
	rankTwo := rankedDoc(2, feedEpoch, true).Document
	rankOne := rankedDoc(1, feedEpoch, true).Document
	inactive := rankedDoc(0, feedEpoch, false).Document

	require.NoError(t, f.docs.UpdateMany(ctx, []domain.Document{later, rankTwo, inactive, rankOne}))

	feed, err := f.manager.RestoreFeed(ctx)

	require.NoError(t, err)
	assert.Equal(t, []domain.DocumentID{rankOne.ID, rankTwo.ID, later.ID}, ids(feed))
}

func TestFeedManager_RestoreFeed_Empty(t *testing.T) {
	f := newFeedFixture(t)

	feed, err := f.manager.RestoreFeed(context.Background())

	require.NoError(t, err)
	assert.Empty(t, feed)
}

func TestFeedManager_CloseDocuments(t *testing.T) {
	batch := rankedBatch(3, feedEpoch)
	f := newFeedFixture(t, batch)
	ctx := context.Background()
	_, err := f.manager.NextFeedBatch(ctx)
	require.NoError(t, err)

	closed := batch[1].Document.ID
	err = f.manager.CloseDocuments(ctx, []domain.DocumentID{closed, domain.NewDocumentID()})
	require.NoError(t, err)

	feed, err := f.manager.RestoreFeed(ctx)
	require.NoError(t, err)
	assert.NotContains(t, ids(feed), closed)
	assert.Len(t, feed, 2)

	doc, err := f.docs.FetchByID(ctx, closed)
	require.NoError(t, err)
	assert.False(t, doc.IsActive)

	_, err = f.active.Get(ctx, closed)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, float64(1), f.counter(t, metrics.MetricDocumentsClosed))

	// Closing again changes nothing.
	require.NoError(t, f.manager.CloseDocuments(ctx, []domain.DocumentID{closed}))
	assert.Equal(t, float64(1), f.counter(t, metrics.MetricDocumentsClosed))
}

func TestFeedManager_React(t *testing.T) {
	batch := rankedBatch(2, feedEpoch)
	f := newFeedFixture(t, batch)
	ctx := context.Background()
	_, err := f.manager.NextFeedBatch(ctx)
	require.NoError(t, err)

	target := batch[1].Document
	doc, err := f.manager.React(ctx, target.ID, domain.Positive)

	require.NoError(t, err)
	assert.Equal(t, domain.Positive, doc.UserReaction)
	require.Len(t, f.engine.reacted, 1)
	assert.Equal(t, target.ID, f.engine.reacted[0].ID)
	assert.Equal(t, target.Resource.Title, f.engine.reacted[0].Title)
	assert.Equal(t, batch[1].Data.Embedding, f.engine.reacted[0].Embedding)
	assert.Len(t, f.engine.history, 2)

	stored, err := f.docs.FetchByID(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.Positive, stored.UserReaction)
}

func TestFeedManager_React_UnknownDocument(t *testing.T) {
	f := newFeedFixture(t)

	_, err := f.manager.React(context.Background(), domain.NewDocumentID(), domain.Negative)

	assert.ErrorIs(t, err, domain.ErrUnknownDocument)
	assert.Empty(t, f.engine.reacted)
}

func TestFeedManager_React_InvalidReaction(t *testing.T) {
	f := newFeedFixture(t)

	_, err := f.manager.React(context.Background(), domain.NewDocumentID(), domain.UserReaction(9))

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFeedManager_React_EngineFailureLeavesDocument(t *testing.T) {
	batch := rankedBatch(1, feedEpoch)
	f := newFeedFixture(t, batch)
	ctx := context.Background()
	_, err := f.manager.NextFeedBatch(ctx)
	require.NoError(t, err)
	f.engine.err = fmt.Errorf("%w: user_reacted: boom", domain.ErrEngine)

	_, err = f.manager.React(ctx, batch[0].Document.ID, domain.Positive)

	require.ErrorIs(t, err, domain.ErrEngine)
	stored, err := f.docs.FetchByID(ctx, batch[0].Document.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.Neutral, stored.UserReaction)
}

func TestFeedManager_LogTimeSpent(t *testing.T) {
	batch := rankedBatch(1, feedEpoch)
	f := newFeedFixture(t, batch)
	ctx := context.Background()
	_, err := f.manager.NextFeedBatch(ctx)
	require.NoError(t, err)
	id := batch[0].Document.ID

	require.NoError(t, f.manager.LogTimeSpent(ctx, id, domain.ViewReader, 3*time.Second))
	require.NoError(t, f.manager.LogTimeSpent(ctx, id, domain.ViewReader, 4*time.Second))
	require.NoError(t, f.manager.LogTimeSpent(ctx, id, domain.ViewWeb, time.Second))

	data, err := f.active.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 7*time.Second, data.ViewTime[domain.ViewReader])
	assert.Equal(t, 8*time.Second, data.TotalViewTime())
	assert.Equal(t, batch[0].Data.Embedding, data.Embedding)

	require.Len(t, f.engine.spent, 3)
	assert.Equal(t, batch[0].Data.Embedding, f.engine.spent[0].Embedding)
}

func TestFeedManager_LogTimeSpent_InvalidInput(t *testing.T) {
	f := newFeedFixture(t)

	err := f.manager.LogTimeSpent(context.Background(), domain.NewDocumentID(), domain.ViewStory, -time.Second)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = f.manager.LogTimeSpent(context.Background(), domain.NewDocumentID(), domain.ViewStory, time.Second)
	assert.ErrorIs(t, err, domain.ErrUnknownDocument)
}

func TestFeedManager_LogTimeSpent_ClosedDocumentHasNoActiveData(t *testing.T) {
	batch := rankedBatch(1, feedEpoch)
	f := newFeedFixture(t, batch)
	ctx := context.Background()
	_, err := f.manager.NextFeedBatch(ctx)
	require.NoError(t, err)
	id := batch[0].Document.ID
	require.NoError(t, f.manager.CloseDocuments(ctx, []domain.DocumentID{id}))

	require.NoError(t, f.manager.LogTimeSpent(ctx, id, domain.ViewStory, time.Second))

	_, err = f.active.Get(ctx, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFeedManager_Search_PersistsOutsideFeed(t *testing.T) {
	f := newFeedFixture(t)
	f.engine.results = []domain.RankedDocument{
		rankedDoc(0, feedEpoch, false),
		rankedDoc(1, feedEpoch, false),
	}
	ctx := context.Background()

	docs, err := f.manager.Search(ctx, "story", 1, 0)

	require.NoError(t, err)
	assert.Len(t, docs, 2)
	assert.Equal(t, [2]int{1, domain.DefaultPageSize}, f.engine.lastPage)

	stored, err := f.docs.FetchAll(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
	assert.Equal(t, 0, f.active.Len())

	feed, err := f.manager.RestoreFeed(ctx)
	require.NoError(t, err)
	assert.Empty(t, feed)

	// A stored search result can be reacted to.
	_, err = f.manager.React(ctx, docs[0].ID, domain.Positive)
	require.NoError(t, err)
	assert.Nil(t, f.engine.reacted[0].Embedding)
}

func TestFeedManager_SearchTopic(t *testing.T) {
	f := newFeedFixture(t)
	f.engine.results = []domain.RankedDocument{rankedDoc(0, feedEpoch, false)}

	docs, err := f.manager.SearchTopic(context.Background(), "world", 2, 5)

	require.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.Equal(t, [2]int{2, 5}, f.engine.lastPage)
}

func TestFeedManager_DeepSearch_NotPersisted(t *testing.T) {
	f := newFeedFixture(t)
	f.engine.results = []domain.RankedDocument{rankedDoc(0, feedEpoch, false)}
	ctx := context.Background()

	docs, err := f.manager.DeepSearch(ctx, "story", feedMarket)

	require.NoError(t, err)
	assert.Len(t, docs, 1)
	stored, err := f.docs.FetchAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestFeedManager_SettersPassHistory(t *testing.T) {
	f := newFeedFixture(t, rankedBatch(2, feedEpoch))
	ctx := context.Background()
	_, err := f.manager.NextFeedBatch(ctx)
	require.NoError(t, err)

	markets := domain.NewFeedMarkets(domain.FeedMarket{Country: "DE", Language: "de"})
	require.NoError(t, f.manager.SetMarkets(ctx, markets))
	assert.True(t, markets.Equal(f.engine.markets))
	assert.Len(t, f.engine.history, 2)

	require.NoError(t, f.manager.SetTrustedSources(ctx, domain.NewSources("a.example")))
	assert.True(t, f.engine.trusted.Contains("a.example"))

	require.NoError(t, f.manager.SetExcludedSources(ctx, domain.NewSources("b.example")))
	assert.True(t, f.engine.excluded.Contains("b.example"))

	require.NoError(t, f.manager.ResetAI(ctx))
	assert.Equal(t, 1, f.engine.resets)

	stored, err := f.docs.FetchAll(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestFeedManager_Ingest_UnsupportedEngine(t *testing.T) {
	f := newFeedFixture(t)

	_, err := f.manager.Ingest(context.Background(), nil)

	assert.ErrorIs(t, err, domain.ErrEngine)
}

func TestFeedManager_Handle(t *testing.T) {
	batch := rankedBatch(2, feedEpoch)
	f := newFeedFixture(t, batch)
	ctx := context.Background()

	event := f.manager.Handle(ctx, driving.NextFeedBatchRequested{})
	next, ok := event.(driving.NextFeedBatchRequestSucceeded)
	require.True(t, ok, "got %T", event)
	assert.Len(t, next.Items, 2)

	event = f.manager.Handle(ctx, driving.FeedRequested{})
	restored, ok := event.(driving.FeedRequestSucceeded)
	require.True(t, ok, "got %T", event)
	assert.Len(t, restored.Items, 2)

	event = f.manager.Handle(ctx, driving.UserReactionChanged{ID: batch[0].Document.ID, Reaction: domain.Negative})
	updated, ok := event.(driving.DocumentsUpdated)
	require.True(t, ok, "got %T", event)
	require.Len(t, updated.Items, 1)
	assert.Equal(t, domain.Negative, updated.Items[0].UserReaction)

	event = f.manager.Handle(ctx, driving.DocumentTimeSpent{ID: batch[0].Document.ID, Mode: domain.ViewStory, Duration: time.Second})
	assert.Equal(t, driving.ClientEventSucceeded{}, event)

	event = f.manager.Handle(ctx, driving.FeedDocumentsClosed{IDs: []domain.DocumentID{batch[0].Document.ID}})
	assert.Equal(t, driving.ClientEventSucceeded{}, event)

	f.engine.topics = []domain.TrendingTopic{{Name: "World", Query: "world"}}
	event = f.manager.Handle(ctx, driving.TrendingTopicsRequested{})
	assert.Equal(t, driving.TrendingTopicsRequestSucceeded{Topics: f.engine.topics}, event)

	event = f.manager.Handle(ctx, driving.SearchRequested{Query: "story", Page: 1})
	_, ok = event.(driving.SearchRequestSucceeded)
	assert.True(t, ok, "got %T", event)

	event = f.manager.Handle(ctx, driving.TopicSearchRequested{Topic: "world", Page: 1})
	_, ok = event.(driving.SearchRequestSucceeded)
	assert.True(t, ok, "got %T", event)

	event = f.manager.Handle(ctx, driving.DeepSearchRequested{Term: "story", Market: feedMarket})
	_, ok = event.(driving.SearchRequestSucceeded)
	assert.True(t, ok, "got %T", event)

	event = f.manager.Handle(ctx, driving.FeedMarketsChanged{Markets: domain.NewFeedMarkets(feedMarket)})
	assert.Equal(t, driving.ClientEventSucceeded{}, event)

	event = f.manager.Handle(ctx, driving.TrustedSourcesChanged{Sources: domain.NewSources("a.example")})
	assert.Equal(t, driving.ClientEventSucceeded{}, event)

	event = f.manager.Handle(ctx, driving.ExcludedSourcesChanged{Sources: domain.NewSources("b.example")})
	assert.Equal(t, driving.ClientEventSucceeded{}, event)

	event = f.manager.Handle(ctx, driving.ResetAIRequested{})
	assert.Equal(t, driving.ResetAISucceeded{}, event)
}

func TestFeedManager_Handle_Failures(t *testing.T) {
	f := newFeedFixture(t, rankedBatch(1, feedEpoch))
	ctx := context.Background()

	event := f.manager.Handle(ctx, driving.UserReactionChanged{ID: domain.NewDocumentID(), Reaction: domain.Positive})
	raised, ok := event.(driving.EngineExceptionRaised)
	require.True(t, ok, "got %T", event)
	assert.Equal(t, driving.ReasonUnknownDocument, raised.Reason)
	assert.ErrorIs(t, raised.Err, domain.ErrUnknownDocument)

	f.engine.err = fmt.Errorf("%w: feed_documents: boom", domain.ErrEngine)
	event = f.manager.Handle(ctx, driving.NextFeedBatchRequested{})
	failed, ok := event.(driving.NextFeedBatchRequestFailed)
	require.True(t, ok, "got %T", event)
	assert.Equal(t, driving.ReasonEngine, failed.Reason)

	event = f.manager.Handle(ctx, driving.SearchRequested{Query: "x", Page: 1})
	searchFailed, ok := event.(driving.SearchRequestFailed)
	require.True(t, ok, "got %T", event)
	assert.Equal(t, driving.ReasonEngine, searchFailed.Reason)

	event = f.manager.Handle(ctx, driving.FeedMarketsChanged{Markets: domain.NewFeedMarkets(feedMarket)})
	_, ok = event.(driving.EngineExceptionRaised)
	assert.True(t, ok, "got %T", event)

	assert.Equal(t, float64(4), f.counter(t, metrics.MetricFailures))
}

func TestFeedManager_Handle_UnknownEventPanics(t *testing.T) {
	f := newFeedFixture(t)

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok, "got %T", r)
		assert.ErrorIs(t, err, domain.ErrUnhandledEvent)
	}()
	f.manager.Handle(context.Background(), nil)
	t.Fatal("Handle returned for an unknown event")
}
