package driven

import (
	"context"

	"github.com/custodia-labs/feedsync/internal/core/domain"
)

// Engine is the narrow contract of the ranking engine.
//
// Every call may block on native computation and may fail. No call has side
// effects beyond its name: FeedDocuments returns new documents but never
// writes them anywhere, persistence is the caller's job.
type Engine interface {
	// Serialize returns the engine state as an opaque blob.
	Serialize(ctx context.Context) ([]byte, error)

	// SetMarkets replaces the served markets. Fails with domain.ErrInvalidMarket.
	SetMarkets(ctx context.Context, history []domain.HistoricDocument, markets domain.FeedMarkets) error

	// SetExcludedSources replaces the sources never served.
	SetExcludedSources(ctx context.Context, history []domain.HistoricDocument, sources domain.Sources) error

	// SetTrustedSources replaces the sources favoured by the engine.
	SetTrustedSources(ctx context.Context, history []domain.HistoricDocument, sources domain.Sources) error

	// FeedDocuments returns at most maxDocuments newly ranked documents with
	// their side data, in engine order. Zero yields an empty result.
	FeedDocuments(ctx context.Context, history []domain.HistoricDocument, maxDocuments int) ([]domain.RankedDocument, error)

	// TimeSpent records dwell time. Fails with domain.ErrUnknownDocument.
	TimeSpent(ctx context.Context, timeSpent domain.TimeSpent) error

	// UserReacted records a reaction. history may be nil.
	// Fails with domain.ErrUnknownDocument.
	UserReacted(ctx context.Context, history []domain.HistoricDocument, reacted domain.UserReacted) error

	// SearchByQuery returns one page of results. page and pageSize start at 1.
	// An empty result is not a failure.
	SearchByQuery(ctx context.Context, query string, page, pageSize int) ([]domain.RankedDocument, error)

	// SearchByTopic returns one page of documents on a topic.
	SearchByTopic(ctx context.Context, topic string, page, pageSize int) ([]domain.RankedDocument, error)

	// DeepSearch returns documents related to term within one market.
	DeepSearch(ctx context.Context, term string, market domain.FeedMarket) ([]domain.RankedDocument, error)

	// TrendingTopics returns the currently trending topics.
	TrendingTopics(ctx context.Context) ([]domain.TrendingTopic, error)

	// ResetAI clears learned state. Stored documents are untouched.
	ResetAI(ctx context.Context) error

	// Dispose releases native resources. Further calls fail with
	// domain.ErrEngineDisposed; disposing twice is harmless.
	Dispose(ctx context.Context) error
}

// Ingester is implemented by engines that accept candidate articles from an
// upstream source.
type Ingester interface {
	// Ingest adds articles and returns how many were accepted.
	Ingest(ctx context.Context, articles []domain.Article) (int, error)
}

// ArticleNormaliser cleans a candidate article before it reaches the engine.
type ArticleNormaliser interface {
	// Name identifies the normaliser in errors and logs.
	Name() string

	// Normalise rewrites article in place. A domain.ErrInvalidInput error
	// drops the article; any other error aborts the ingest.
	Normalise(ctx context.Context, article *domain.Article) error
}
