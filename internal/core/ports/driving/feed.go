package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/feedsync/internal/core/domain"
)

// FeedService is the feed as seen by clients.
type FeedService interface {
	// Handle dispatches a client event and returns the response event.
	// It panics on an event kind it does not know.
	Handle(ctx context.Context, event ClientEvent) EngineEvent

	// RestoreFeed returns the active documents in feed order.
	RestoreFeed(ctx context.Context) ([]domain.Document, error)

	// NextFeedBatch fetches, persists and returns a new batch in engine order.
	NextFeedBatch(ctx context.Context) ([]domain.Document, error)

	// CloseDocuments deactivates documents. Unknown ids are ignored.
	CloseDocuments(ctx context.Context, ids []domain.DocumentID) error

	// React records a reaction and returns the updated document.
	React(ctx context.Context, id domain.DocumentID, reaction domain.UserReaction) (*domain.Document, error)

	// LogTimeSpent records dwell time on a document.
	LogTimeSpent(ctx context.Context, id domain.DocumentID, mode domain.ViewMode, d time.Duration) error

	// Search runs a free text search and persists the results.
	Search(ctx context.Context, query string, page, pageSize int) ([]domain.Document, error)

	// SearchTopic searches by topic and persists the results.
	SearchTopic(ctx context.Context, topic string, page, pageSize int) ([]domain.Document, error)

	// DeepSearch returns related documents without persisting them.
	DeepSearch(ctx context.Context, term string, market domain.FeedMarket) ([]domain.Document, error)

	// TrendingTopics returns the trending topics.
	TrendingTopics(ctx context.Context) ([]domain.TrendingTopic, error)

	// SetMarkets replaces the served markets.
	SetMarkets(ctx context.Context, markets domain.FeedMarkets) error

	// SetExcludedSources replaces the excluded sources.
	SetExcludedSources(ctx context.Context, sources domain.Sources) error

	// SetTrustedSources replaces the trusted sources.
	SetTrustedSources(ctx context.Context, sources domain.Sources) error

	// ResetAI clears the engine's learned state.
	ResetAI(ctx context.Context) error

	// Ingest hands candidate articles to the engine and returns how many it
	// accepted.
	Ingest(ctx context.Context, articles []domain.Article) (int, error)
}
