package cli

import (
	"bytes"
	"context"
	"time"

	"github.com/custodia-labs/feedsync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/feedsync/internal/core/domain"
	"github.com/custodia-labs/feedsync/internal/core/ports/driving"
	"github.com/custodia-labs/feedsync/internal/core/services"
)

// cliMockFeed answers every event with its fixed documents.
type cliMockFeed struct {
	docs     []domain.Document
	topics   []domain.TrendingTopic
	fail     error
	events   []driving.ClientEvent
	ingested []domain.Article
}

func (m *cliMockFeed) Handle(_ context.Context, event driving.ClientEvent) driving.EngineEvent {
	m.events = append(m.events, event)
	if m.fail != nil {
		return driving.EngineExceptionRaised{Reason: driving.ReasonOf(m.fail), Err: m.fail}
	}
	switch e := event.(type) {
	case driving.FeedRequested:
		return driving.FeedRequestSucceeded{Items: m.docs}
	case driving.NextFeedBatchRequested:
		return driving.NextFeedBatchRequestSucceeded{Items: m.docs}
	case driving.UserReactionChanged:
		doc := m.docs[0]
		doc.ID = e.ID
		doc.UserReaction = e.Reaction
		return driving.DocumentsUpdated{Items: []domain.Document{doc}}
	case driving.SearchRequested, driving.TopicSearchRequested, driving.DeepSearchRequested:
		return driving.SearchRequestSucceeded{Items: m.docs}
	case driving.TrendingTopicsRequested:
		return driving.TrendingTopicsRequestSucceeded{Topics: m.topics}
	case driving.ResetAIRequested:
		return driving.ResetAISucceeded{}
	default:
		return driving.ClientEventSucceeded{}
	}
}

func (m *cliMockFeed) RestoreFeed(_ context.Context) ([]domain.Document, error) {
	return m.docs, m.fail
}

func (m *cliMockFeed) NextFeedBatch(_ context.Context) ([]domain.Document, error) {
	return m.docs, m.fail
}

func (m *cliMockFeed) CloseDocuments(_ context.Context, _ []domain.DocumentID) error {
	return m.fail
}

func (m *cliMockFeed) React(_ context.Context, _ domain.DocumentID, _ domain.UserReaction) (*domain.Document, error) {
	return &m.docs[0], m.fail
}

func (m *cliMockFeed) LogTimeSpent(_ context.Context, _ domain.DocumentID, _ domain.ViewMode, _ time.Duration) error {
	return m.fail
}

func (m *cliMockFeed) Search(_ context.Context, _ string, _, _ int) ([]domain.Document, error) {
	return m.docs, m.fail
}

func (m *cliMockFeed) SearchTopic(_ context.Context, _ string, _, _ int) ([]domain.Document, error) {
	return m.docs, m.fail
}

func (m *cliMockFeed) DeepSearch(_ context.Context, _ string, _ domain.FeedMarket) ([]domain.Document, error) {
	return m.docs, m.fail
}

func (m *cliMockFeed) TrendingTopics(_ context.Context) ([]domain.TrendingTopic, error) {
	return m.topics, m.fail
}

func (m *cliMockFeed) SetMarkets(_ context.Context, _ domain.FeedMarkets) error {
	return m.fail
}

func (m *cliMockFeed) SetExcludedSources(_ context.Context, _ domain.Sources) error {
	return m.fail
}

func (m *cliMockFeed) SetTrustedSources(_ context.Context, _ domain.Sources) error {
	return m.fail
}

func (m *cliMockFeed) ResetAI(_ context.Context) error {
	return m.fail
}

func (m *cliMockFeed) Ingest(_ context.Context, articles []domain.Article) (int, error) {
	if m.fail != nil {
		return 0, m.fail
	}
	m.ingested = append(m.ingested, articles...)
	return len(articles), nil
}

func mustID(s string) domain.DocumentID {
	id, err := domain.ParseDocumentID(s)
	if err != nil {
		panic(err)
	}
	return id
}

const (
	testDocID1 = "3f2a6c1e-8b7d-4e2f-9a10-5c6d7e8f9012"
	testDocID2 = "7b1d9e44-2c3a-4f5b-8d6e-0a1b2c3d4e5f"
)

func testDocuments() []domain.Document {
	created := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	return []domain.Document{
		{
			ID:         mustID(testDocID1),
			BatchIndex: 0,
			Timestamp:  created,
			Resource: domain.NewsResource{
				Title:     "Markets rally on rate cut hopes",
				Snippet:   "Stocks rose for a third day.",
				URL:       "https://news.example.com/markets/rally",
				SourceURL: "https://news.example.com",
				Score:     0.87,
				Country:   "US",
				Language:  "en",
				Topic:     "business",
			},
			IsActive: true,
		},
		{
			ID:         mustID(testDocID2),
			BatchIndex: 1,
			Timestamp:  created,
			Resource: domain.NewsResource{
				Title:     "Storm heads for the coast",
				URL:       "https://weather.example.com/storm",
				SourceURL: "https://weather.example.com",
				Score:     0.5,
				Country:   "US",
				Language:  "en",
			},
			IsActive:     true,
			UserReaction: domain.Positive,
		},
	}
}

// setupTestServices installs a mock feed and an in-memory settings service.
// The returned cleanup restores the previous services and flag values.
func setupTestServices() (*cliMockFeed, *memory.ConfigStore, func()) {
	origFeed, origSettings := feedService, settingsService

	feed := &cliMockFeed{
		docs:   testDocuments(),
		topics: []domain.TrendingTopic{{Name: "Business", Query: "business"}, {Name: "Weather", Query: "weather"}},
	}
	store := memory.NewConfigStore(nil)
	SetServices(feed, services.NewSettingsService(store, nil))

	return feed, store, func() {
		SetServices(origFeed, origSettings)
		resetFlags()
	}
}

func resetFlags() {
	feedJSON = false
	nextJSON = false
	searchJSON = false
	trendingJSON = false
	searchPage = 1
	searchPageSize = 0
	deepMarket = domain.DefaultMarket
	dwellMode = domain.ViewStory.String()
	sourcesClear = false
	verbose = false
}

// execute runs the root command with args and returns its output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}
