package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/feedsync/internal/core/domain"
	"github.com/custodia-labs/feedsync/internal/core/ports/driven"
	"github.com/custodia-labs/feedsync/internal/core/ports/driving"
	"github.com/custodia-labs/feedsync/internal/logger"
	"github.com/custodia-labs/feedsync/internal/metrics"
)

// Ensure FeedManager implements the interface.
var _ driving.FeedService = (*FeedManager)(nil)

var feedLog = logger.Named("feed")

// FeedManager keeps the local document store consistent with the engine.
//
// Requests are served one at a time. A batch is either fully persisted, with
// its documents and their active data, or not persisted at all.
type FeedManager struct {
	mu sync.Mutex

	engine  driven.Engine
	docs    driven.DocumentStore
	active  driven.ActiveDataStore
	states  driven.EngineStateStore
	metrics *metrics.Metrics

	normaliser driven.ArticleNormaliser

	maxDocuments int
	pageSize     int
}

// NewFeedManager creates a feed manager. states and m may be nil; without a
// state store the engine state is not persisted after mutating calls.
func NewFeedManager(
	engine driven.Engine,
	docs driven.DocumentStore,
	active driven.ActiveDataStore,
	states driven.EngineStateStore,
	settings domain.FeedSettings,
	m *metrics.Metrics,
) *FeedManager {
	maxDocuments := settings.MaxDocuments
	if maxDocuments <= 0 {
		maxDocuments = domain.DefaultMaxDocuments
	}
	pageSize := settings.PageSize
	if pageSize <= 0 {
		pageSize = domain.DefaultPageSize
	}
	return &FeedManager{
		engine:       engine,
		docs:         docs,
		active:       active,
		states:       states,
		metrics:      m,
		maxDocuments: maxDocuments,
		pageSize:     pageSize,
	}
}

// SetNormaliser sets the normaliser applied to articles before ingest.
func (m *FeedManager) SetNormaliser(n driven.ArticleNormaliser) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.normaliser = n
}

// Handle dispatches a client event. Every ClientEvent kind has a case; an
// unknown kind is a wiring bug and panics with domain.ErrUnhandledEvent.
//
//nolint:gocyclo // One case per event kind.
func (m *FeedManager) Handle(ctx context.Context, event driving.ClientEvent) driving.EngineEvent {
	switch e := event.(type) {
	case driving.FeedRequested:
		docs, err := m.RestoreFeed(ctx)
		if err != nil {
			return driving.FeedRequestFailed{Reason: m.failure("restore feed", err), Err: err}
		}
		return driving.FeedRequestSucceeded{Items: docs}

	case driving.NextFeedBatchRequested:
		docs, err := m.NextFeedBatch(ctx)
		if err != nil {
			return driving.NextFeedBatchRequestFailed{Reason: m.failure("next feed batch", err), Err: err}
		}
		return driving.NextFeedBatchRequestSucceeded{Items: docs}

	case driving.FeedDocumentsClosed:
		if err := m.CloseDocuments(ctx, e.IDs); err != nil {
			return m.exception("close documents", err)
		}
		return driving.ClientEventSucceeded{}

	case driving.UserReactionChanged:
		doc, err := m.React(ctx, e.ID, e.Reaction)
		if err != nil {
			return m.exception("user reaction", err)
		}
		return driving.DocumentsUpdated{Items: []domain.Document{*doc}}

	case driving.DocumentTimeSpent:
		if err := m.LogTimeSpent(ctx, e.ID, e.Mode, e.Duration); err != nil {
			return m.exception("time spent", err)
		}
		return driving.ClientEventSucceeded{}

	case driving.SearchRequested:
		docs, err := m.Search(ctx, e.Query, e.Page, e.PageSize)
		if err != nil {
			return driving.SearchRequestFailed{Reason: m.failure("search", err), Err: err}
		}
		return driving.SearchRequestSucceeded{Items: docs}

	case driving.TopicSearchRequested:
		docs, err := m.SearchTopic(ctx, e.Topic, e.Page, e.PageSize)
		if err != nil {
			return driving.SearchRequestFailed{Reason: m.failure("topic search", err), Err: err}
		}
		return driving.SearchRequestSucceeded{Items: docs}

	case driving.DeepSearchRequested:
		docs, err := m.DeepSearch(ctx, e.Term, e.Market)
		if err != nil {
			return driving.SearchRequestFailed{Reason: m.failure("deep search", err), Err: err}
		}
		return driving.SearchRequestSucceeded{Items: docs}

	case driving.TrendingTopicsRequested:
		topics, err := m.TrendingTopics(ctx)
		if err != nil {
			return m.exception("trending topics", err)
		}
		return driving.TrendingTopicsRequestSucceeded{Topics: topics}

	case driving.FeedMarketsChanged:
		if err := m.SetMarkets(ctx, e.Markets); err != nil {
			return m.exception("set markets", err)
		}
		return driving.ClientEventSucceeded{}

	case driving.ExcludedSourcesChanged:
		if err := m.SetExcludedSources(ctx, e.Sources); err != nil {
			return m.exception("set excluded sources", err)
		}
		return driving.ClientEventSucceeded{}

	case driving.TrustedSourcesChanged:
		if err := m.SetTrustedSources(ctx, e.Sources); err != nil {
			return m.exception("set trusted sources", err)
		}
		return driving.ClientEventSucceeded{}

	case driving.ResetAIRequested:
		if err := m.ResetAI(ctx); err != nil {
			return m.exception("reset ai", err)
		}
		return driving.ResetAISucceeded{}

	default:
		panic(fmt.Errorf("%w: %T", domain.ErrUnhandledEvent, event))
	}
}

// RestoreFeed returns the active documents in feed order.
func (m *FeedManager) RestoreFeed(ctx context.Context) ([]domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	docs, err := m.docs.FetchAll(ctx)
	if err != nil {
		return nil, storeError("fetch documents", err)
	}
	return domain.ActiveFeed(docs), nil
}

// NextFeedBatch asks the engine for new documents and persists them before
// returning them in engine order.
func (m *FeedManager) NextFeedBatch(ctx context.Context) ([]domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	history, err := m.history(ctx)
	if err != nil {
		return nil, err
	}

	ranked, err := m.engine.FeedDocuments(ctx, history, m.maxDocuments)
	if err != nil {
		return nil, err
	}

	if err := m.persist(ctx, ranked); err != nil {
		return nil, err
	}
	m.metrics.RecordBatch(len(ranked))
	m.saveState(ctx)

	feedLog.Debug("Feed batch: %d documents", len(ranked))
	return domain.Documents(ranked), nil
}

// CloseDocuments deactivates documents and drops their active data.
// Unknown ids are ignored.
func (m *FeedManager) CloseDocuments(ctx context.Context, ids []domain.DocumentID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	docs, err := m.docs.FetchByIDs(ctx, ids)
	if err != nil {
		return storeError("fetch documents", err)
	}

	closing := make([]domain.Document, 0, len(docs))
	for _, doc := range docs {
		if doc.IsActive {
			doc.IsActive = false
			closing = append(closing, doc)
		}
	}
	if len(closing) == 0 {
		return nil
	}

	if err := m.docs.UpdateMany(ctx, closing); err != nil {
		return storeError("deactivate documents", err)
	}

	var errs []error
	for _, doc := range closing {
		if err := m.active.Delete(ctx, doc.ID); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return storeError("delete active data", errors.Join(errs...))
	}

	m.metrics.AddDocumentsClosed(len(closing))
	feedLog.Debug("Closed %d documents", len(closing))
	return nil
}

// React records a reaction with the engine and on the stored document.
func (m *FeedManager) React(ctx context.Context, id domain.DocumentID, reaction domain.UserReaction) (*domain.Document, error) {
	if !reaction.IsValid() {
		return nil, fmt.Errorf("%w: unknown reaction %d", domain.ErrInvalidInput, uint8(reaction))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	doc, err := m.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	data, err := m.activeData(ctx, id)
	if err != nil {
		return nil, err
	}
	history, err := m.history(ctx)
	if err != nil {
		return nil, err
	}

	err = m.engine.UserReacted(ctx, history, domain.UserReacted{
		ID:        doc.ID,
		StackID:   doc.StackID,
		Title:     doc.Resource.Title,
		Snippet:   doc.Resource.Snippet,
		Embedding: data.Embedding,
		Reaction:  reaction,
	})
	if err != nil {
		return nil, err
	}

	doc.UserReaction = reaction
	if err := m.docs.Update(ctx, *doc); err != nil {
		return nil, storeError("update document", err)
	}
	m.saveState(ctx)
	return doc, nil
}

// LogTimeSpent reports dwell time to the engine and accumulates it on the
// document's active data.
func (m *FeedManager) LogTimeSpent(ctx context.Context, id domain.DocumentID, mode domain.ViewMode, d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("%w: negative duration %s", domain.ErrInvalidInput, d)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	doc, err := m.fetch(ctx, id)
	if err != nil {
		return err
	}
	data, err := m.activeData(ctx, id)
	if err != nil {
		return err
	}

	err = m.engine.TimeSpent(ctx, domain.TimeSpent{
		ID:        doc.ID,
		Embedding: data.Embedding,
		ViewMode:  mode,
		Duration:  d,
		Reaction:  doc.UserReaction,
	})
	if err != nil {
		return err
	}

	if doc.IsActive {
		if err := m.active.Update(ctx, doc.ID, data.AddViewTime(mode, d)); err != nil {
			return storeError("update active data", err)
		}
	}
	m.saveState(ctx)
	return nil
}

// Search runs a free text search and persists the results. A zero pageSize
// uses the configured default.
func (m *FeedManager) Search(ctx context.Context, query string, page, pageSize int) ([]domain.Document, error) {
	return m.search(ctx, func() ([]domain.RankedDocument, error) {
		return m.engine.SearchByQuery(ctx, query, page, m.orDefaultPageSize(pageSize))
	})
}

// SearchTopic searches by topic and persists the results.
func (m *FeedManager) SearchTopic(ctx context.Context, topic string, page, pageSize int) ([]domain.Document, error) {
	return m.search(ctx, func() ([]domain.RankedDocument, error) {
		return m.engine.SearchByTopic(ctx, topic, page, m.orDefaultPageSize(pageSize))
	})
}

func (m *FeedManager) search(ctx context.Context, run func() ([]domain.RankedDocument, error)) ([]domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ranked, err := run()
	if err != nil {
		return nil, err
	}
	if err := m.persist(ctx, ranked); err != nil {
		return nil, err
	}
	m.saveState(ctx)
	return domain.Documents(ranked), nil
}

// DeepSearch returns related documents. They are not persisted.
func (m *FeedManager) DeepSearch(ctx context.Context, term string, market domain.FeedMarket) ([]domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ranked, err := m.engine.DeepSearch(ctx, term, market)
	if err != nil {
		return nil, err
	}
	return domain.Documents(ranked), nil
}

// TrendingTopics returns the trending topics.
func (m *FeedManager) TrendingTopics(ctx context.Context) ([]domain.TrendingTopic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.engine.TrendingTopics(ctx)
}

// SetMarkets replaces the served markets.
func (m *FeedManager) SetMarkets(ctx context.Context, markets domain.FeedMarkets) error {
	return m.configure(ctx, func(history []domain.HistoricDocument) error {
		return m.engine.SetMarkets(ctx, history, markets)
	})
}

// SetExcludedSources replaces the excluded sources.
func (m *FeedManager) SetExcludedSources(ctx context.Context, sources domain.Sources) error {
	return m.configure(ctx, func(history []domain.HistoricDocument) error {
		return m.engine.SetExcludedSources(ctx, history, sources)
	})
}

// SetTrustedSources replaces the trusted sources.
func (m *FeedManager) SetTrustedSources(ctx context.Context, sources domain.Sources) error {
	return m.configure(ctx, func(history []domain.HistoricDocument) error {
		return m.engine.SetTrustedSources(ctx, history, sources)
	})
}

func (m *FeedManager) configure(ctx context.Context, apply func([]domain.HistoricDocument) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	history, err := m.history(ctx)
	if err != nil {
		return err
	}
	if err := apply(history); err != nil {
		return err
	}
	m.saveState(ctx)
	return nil
}

// ResetAI clears the engine's learned state. Stored documents are untouched.
func (m *FeedManager) ResetAI(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.engine.ResetAI(ctx); err != nil {
		return err
	}
	m.saveState(ctx)
	return nil
}

// Ingest hands candidate articles to the engine.
func (m *FeedManager) Ingest(ctx context.Context, articles []domain.Article) (int, error) {
	ingester, ok := m.engine.(driven.Ingester)
	if !ok {
		return 0, fmt.Errorf("%w: engine does not accept articles", domain.ErrEngine)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	articles, err := m.normalise(ctx, articles)
	if err != nil {
		return 0, err
	}

	n, err := ingester.Ingest(ctx, articles)
	if err != nil {
		return 0, err
	}
	m.saveState(ctx)
	feedLog.Debug("Ingested %d of %d articles", n, len(articles))
	return n, nil
}

// normalise returns cleaned copies of articles, dropping the ones the
// normaliser rejects.
func (m *FeedManager) normalise(ctx context.Context, articles []domain.Article) ([]domain.Article, error) {
	if m.normaliser == nil {
		return articles, nil
	}
	kept := make([]domain.Article, 0, len(articles))
	for _, a := range articles {
		if err := m.normaliser.Normalise(ctx, &a); err != nil {
			if errors.Is(err, domain.ErrInvalidInput) {
				feedLog.Debug("Skipping article %q: %v", a.URL, err)
				continue
			}
			return nil, fmt.Errorf("normalise articles: %w", err)
		}
		kept = append(kept, a)
	}
	return kept, nil
}

// persist writes a ranked batch: first the documents, then the active data
// of the active ones. Any failure undoes what was written.
func (m *FeedManager) persist(ctx context.Context, ranked []domain.RankedDocument) error {
	if len(ranked) == 0 {
		return nil
	}

	docs := domain.Documents(ranked)
	ids := make([]domain.DocumentID, len(docs))
	for i := range docs {
		ids[i] = docs[i].ID
	}

	// Engine ids are fresh, so prior versions only exist if an id is reused.
	prior, err := m.docs.FetchByIDs(ctx, ids)
	if err != nil {
		return storeError("fetch documents", err)
	}
	priorData := make(map[domain.DocumentID]domain.ActiveDocumentData, len(prior))
	for _, doc := range prior {
		data, err := m.active.Get(ctx, doc.ID)
		switch {
		case err == nil:
			priorData[doc.ID] = *data
		case !errors.Is(err, domain.ErrNotFound):
			return storeError("fetch active data", err)
		}
	}

	b := batchWrite{docs: docs, prior: prior, priorData: priorData}

	if err := m.docs.UpdateMany(ctx, docs); err != nil {
		return m.rollback(ctx, &b, fmt.Errorf("store documents: %w", err))
	}
	for _, r := range ranked {
		if !r.Document.IsActive {
			continue
		}
		if err := m.active.Update(ctx, r.Document.ID, r.Data); err != nil {
			return m.rollback(ctx, &b, fmt.Errorf("store active data: %w", err))
		}
		b.written = append(b.written, r.Document.ID)
	}
	return nil
}

// batchWrite tracks a batch in flight so it can be undone.
type batchWrite struct {
	docs      []domain.Document
	prior     []domain.Document
	priorData map[domain.DocumentID]domain.ActiveDocumentData
	written   []domain.DocumentID
}

// rollback restores the stores to their state before the batch and returns
// cause as a store error.
func (m *FeedManager) rollback(ctx context.Context, b *batchWrite, cause error) error {
	m.metrics.IncRollbacks()
	feedLog.Warn("Rolling back batch of %d documents: %v", len(b.docs), cause)

	// The caller's context may be what failed the batch.
	ctx = context.WithoutCancel(ctx)

	var errs []error
	for _, id := range b.written {
		if data, ok := b.priorData[id]; ok {
			if err := m.active.Update(ctx, id, data); err != nil {
				errs = append(errs, err)
			}
			continue
		}
		if err := m.active.Delete(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}

	existed := make(map[domain.DocumentID]bool, len(b.prior))
	for _, doc := range b.prior {
		existed[doc.ID] = true
	}
	var fresh []domain.DocumentID
	for _, doc := range b.docs {
		if !existed[doc.ID] {
			fresh = append(fresh, doc.ID)
		}
	}
	if len(fresh) > 0 {
		if err := m.docs.Remove(ctx, fresh); err != nil {
			errs = append(errs, err)
		}
	}
	if len(b.prior) > 0 {
		if err := m.docs.UpdateMany(ctx, b.prior); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		rerr := errors.Join(errs...)
		feedLog.Error("Rollback incomplete: %v", rerr)
		return fmt.Errorf("%w: %w (rollback: %w)", domain.ErrStore, cause, rerr)
	}
	return fmt.Errorf("%w: %w", domain.ErrStore, cause)
}

func (m *FeedManager) history(ctx context.Context) ([]domain.HistoricDocument, error) {
	docs, err := m.docs.FetchAll(ctx)
	if err != nil {
		return nil, storeError("fetch history", err)
	}
	return domain.History(docs), nil
}

func (m *FeedManager) fetch(ctx context.Context, id domain.DocumentID) (*domain.Document, error) {
	doc, err := m.docs.FetchByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownDocument, id)
	}
	if err != nil {
		return nil, storeError("fetch document", err)
	}
	return doc, nil
}

// activeData returns the stored data for id, or empty data if there is none.
func (m *FeedManager) activeData(ctx context.Context, id domain.DocumentID) (domain.ActiveDocumentData, error) {
	data, err := m.active.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ActiveDocumentData{}, nil
	}
	if err != nil {
		return domain.ActiveDocumentData{}, storeError("fetch active data", err)
	}
	return *data, nil
}

// saveState persists the engine state. Failures are logged, not returned:
// the request itself already succeeded.
func (m *FeedManager) saveState(ctx context.Context) {
	if m.states == nil {
		return
	}
	state, err := m.engine.Serialize(ctx)
	if err != nil {
		feedLog.Error("Serialize engine state: %v", err)
		return
	}
	if err := m.states.Save(ctx, state); err != nil {
		feedLog.Error("Save engine state: %v", err)
	}
}

func (m *FeedManager) orDefaultPageSize(pageSize int) int {
	if pageSize == 0 {
		return m.pageSize
	}
	return pageSize
}

func (m *FeedManager) failure(op string, err error) driving.FailureReason {
	reason := driving.ReasonOf(err)
	m.metrics.IncFailure(string(reason))
	feedLog.Warn("%s failed (%s): %v", op, reason, err)
	return reason
}

func (m *FeedManager) exception(op string, err error) driving.EngineExceptionRaised {
	return driving.EngineExceptionRaised{Reason: m.failure(op, err), Err: err}
}

func storeError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrStore, op, err)
}
