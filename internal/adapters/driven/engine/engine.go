package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/feedsync/internal/adapters/driven/engine/bridge"
	"github.com/custodia-labs/feedsync/internal/adapters/driven/engine/native"
	"github.com/custodia-labs/feedsync/internal/core/domain"
	"github.com/custodia-labs/feedsync/internal/core/ports/driven"
	"github.com/custodia-labs/feedsync/internal/logger"
	"github.com/custodia-labs/feedsync/internal/metrics"
)

// Verify interface compliance.
var (
	_ driven.Engine   = (*Engine)(nil)
	_ driven.Ingester = (*Engine)(nil)
)

var engineLog = logger.Named("engine")

// Engine is the bridged engine. It is safe for concurrent use.
type Engine struct {
	mu       sync.Mutex
	kernel   *native.Kernel
	disposed bool
	metrics  *metrics.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithMetrics records call latencies in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithClock sets the creation time source for new documents.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.kernel.WithClock(now)
	}
}

// New creates an engine from init, restoring init.State when present.
func New(ctx context.Context, init domain.EngineInitializer, opts ...Option) (*Engine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	kernel, err := native.New(init)
	if err != nil {
		return nil, fmt.Errorf("%w: initialize: %w", domain.ErrEngine, err)
	}
	e := &Engine{kernel: kernel}
	for _, opt := range opts {
		opt(e)
	}
	engineLog.Debug("initialized with %d markets, embedding dimension %d",
		init.Config.Markets.Len(), kernel.Dim())
	return e, nil
}

// call runs fn with exclusive access to the kernel.
func (e *Engine) call(ctx context.Context, op string, fn func(k *native.Kernel) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return fmt.Errorf("%s: %w", op, domain.ErrEngineDisposed)
	}

	start := time.Now()
	defer func() {
		e.metrics.ObserveEngineCall(op, time.Since(start))
	}()
	engineLog.Debug("%s", op)

	if err := fn(e.kernel); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrEngine, op, err)
	}
	return nil
}

// ranked runs a kernel operation producing documents and decodes its output.
func (e *Engine) ranked(ctx context.Context, op string, produce func(k *native.Kernel) (native.Output, error)) ([]domain.RankedDocument, error) {
	var result []domain.RankedDocument
	err := e.call(ctx, op, func(k *native.Kernel) error {
		out, err := produce(k)
		if err != nil {
			return err
		}
		return bridge.Use(out.Embeddings, func(embeddings *bridge.Batch) error {
			return bridge.Use(out.Documents, func(docs *bridge.Batch) (derr error) {
				result, derr = decode(docs, embeddings, out.Len)
				return derr
			})
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func decode(docBatch, embeddingBatch *bridge.Batch, n int) ([]domain.RankedDocument, error) {
	docs, err := bridge.DecodeDocuments(docBatch, n)
	if err != nil {
		return nil, err
	}
	embeddings, err := bridge.DecodeEmbeddings(embeddingBatch, n)
	if err != nil {
		return nil, err
	}
	ranked := make([]domain.RankedDocument, len(docs))
	for i := range docs {
		ranked[i] = domain.RankedDocument{
			Document: docs[i],
			Data:     domain.ActiveDocumentData{Embedding: embeddings[i]},
		}
	}
	return ranked, nil
}

// Serialize implements driven.Engine.
func (e *Engine) Serialize(ctx context.Context) ([]byte, error) {
	var state []byte
	err := e.call(ctx, "serialize", func(k *native.Kernel) (err error) {
		state, err = k.Serialize()
		return err
	})
	return state, err
}

// SetMarkets implements driven.Engine.
func (e *Engine) SetMarkets(ctx context.Context, _ []domain.HistoricDocument, markets domain.FeedMarkets) error {
	return e.call(ctx, "set_markets", func(k *native.Kernel) error {
		return k.SetMarkets(markets)
	})
}

// SetExcludedSources implements driven.Engine.
func (e *Engine) SetExcludedSources(ctx context.Context, _ []domain.HistoricDocument, sources domain.Sources) error {
	return e.call(ctx, "set_excluded_sources", func(k *native.Kernel) error {
		k.SetExcludedSources(sources)
		return nil
	})
}

// SetTrustedSources implements driven.Engine.
func (e *Engine) SetTrustedSources(ctx context.Context, _ []domain.HistoricDocument, sources domain.Sources) error {
	return e.call(ctx, "set_trusted_sources", func(k *native.Kernel) error {
		k.SetTrustedSources(sources)
		return nil
	})
}

// FeedDocuments implements driven.Engine.
func (e *Engine) FeedDocuments(ctx context.Context, history []domain.HistoricDocument, maxDocuments int) ([]domain.RankedDocument, error) {
	return e.ranked(ctx, "feed_documents", func(k *native.Kernel) (native.Output, error) {
		return k.FeedDocuments(history, maxDocuments)
	})
}

// TimeSpent implements driven.Engine.
func (e *Engine) TimeSpent(ctx context.Context, timeSpent domain.TimeSpent) error {
	return e.call(ctx, "time_spent", func(k *native.Kernel) error {
		return k.TimeSpent(timeSpent)
	})
}

// UserReacted implements driven.Engine.
func (e *Engine) UserReacted(ctx context.Context, _ []domain.HistoricDocument, reacted domain.UserReacted) error {
	return e.call(ctx, "user_reacted", func(k *native.Kernel) error {
		return k.UserReacted(reacted)
	})
}

// SearchByQuery implements driven.Engine.
func (e *Engine) SearchByQuery(ctx context.Context, query string, page, pageSize int) ([]domain.RankedDocument, error) {
	return e.ranked(ctx, "search_by_query", func(k *native.Kernel) (native.Output, error) {
		return k.Search(query, page, pageSize)
	})
}

// SearchByTopic implements driven.Engine.
func (e *Engine) SearchByTopic(ctx context.Context, topic string, page, pageSize int) ([]domain.RankedDocument, error) {
	return e.ranked(ctx, "search_by_topic", func(k *native.Kernel) (native.Output, error) {
		return k.SearchTopic(topic, page, pageSize)
	})
}

// DeepSearch implements driven.Engine.
func (e *Engine) DeepSearch(ctx context.Context, term string, market domain.FeedMarket) ([]domain.RankedDocument, error) {
	return e.ranked(ctx, "deep_search", func(k *native.Kernel) (native.Output, error) {
		return k.DeepSearch(term, market)
	})
}

// TrendingTopics implements driven.Engine.
func (e *Engine) TrendingTopics(ctx context.Context) ([]domain.TrendingTopic, error) {
	var topics []domain.TrendingTopic
	err := e.call(ctx, "trending_topics", func(k *native.Kernel) error {
		topics = k.TrendingTopics()
		return nil
	})
	return topics, err
}

// ResetAI implements driven.Engine.
func (e *Engine) ResetAI(ctx context.Context) error {
	return e.call(ctx, "reset_ai", func(k *native.Kernel) error {
		k.Reset()
		return nil
	})
}

// Ingest implements driven.Ingester.
func (e *Engine) Ingest(ctx context.Context, articles []domain.Article) (int, error) {
	var accepted int
	err := e.call(ctx, "ingest", func(k *native.Kernel) error {
		accepted = k.Ingest(articles)
		return nil
	})
	return accepted, err
}

// Dispose implements driven.Engine. Disposing twice is harmless.
func (e *Engine) Dispose(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return nil
	}
	e.kernel.Close()
	e.disposed = true
	engineLog.Debug("disposed")
	return nil
}
