package native

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/feedsync/internal/adapters/driven/engine/bridge"
	"github.com/custodia-labs/feedsync/internal/core/domain"
)

// Stacks the kernel assigns documents to.
var (
	PersonalizedStack = domain.StackID(uuid.MustParse("311dc7eb-5fc7-4aa4-8232-e119f7e80e76"))
	TrustedStack      = domain.StackID(uuid.MustParse("d0f699d8-60d2-4008-b3a1-df1cffc4b7b9"))
	SearchStack       = domain.StackID(uuid.MustParse("a6a7d1f1-3c6e-4a0c-9f53-2b8e7c5d4e10"))
)

// Output is a list of documents and their embeddings as two bridge batches.
// The count is not recoverable from the batches; callers must keep Len and
// release each batch, usually through bridge.Use.
type Output struct {
	Documents  *bridge.Batch
	Embeddings *bridge.Batch
	Len        int
}

// Kernel is the reference ranking engine.
type Kernel struct {
	cfg      Config
	markets  domain.FeedMarkets
	trusted  domain.Sources
	excluded domain.Sources
	positive centroid
	negative centroid
	corpus   []domain.Article
	urls     map[string]struct{}
	served   map[domain.DocumentID]served
}

// New creates a kernel, restoring init.State when present. Sources come from
// the initializer, as do markets unless it names none. The dimension of a
// restored state takes precedence over the configured one.
func New(init domain.EngineInitializer) (*Kernel, error) {
	cfg, err := ConfigFrom(init)
	if err != nil {
		return nil, err
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if err := init.Config.Markets.Validate(); err != nil {
		return nil, err
	}

	k := &Kernel{
		cfg:      cfg,
		markets:  copyMarkets(init.Config.Markets),
		trusted:  copySources(init.TrustedSources),
		excluded: copySources(init.ExcludedSources),
		urls:     map[string]struct{}{},
		served:   map[domain.DocumentID]served{},
	}
	if len(init.State) == 0 {
		return k, nil
	}

	s, err := decodeState(init.State)
	if err != nil {
		return nil, err
	}
	k.cfg.EmbeddingDim = s.Dim
	if k.markets.Len() == 0 && len(s.Markets) > 0 {
		if k.markets, err = domain.ParseFeedMarkets(s.Markets); err != nil {
			return nil, err
		}
	}
	k.positive = s.Positive
	k.negative = s.Negative
	for _, a := range s.Corpus {
		k.add(a.article())
	}
	for key, v := range s.Served {
		id, err := domain.ParseDocumentID(key)
		if err != nil {
			return nil, fmt.Errorf("%w: engine state: %w", domain.ErrInvalidInput, err)
		}
		k.served[id] = v
	}
	return k, nil
}

// WithClock replaces the time source used for new documents.
func (k *Kernel) WithClock(now func() time.Time) {
	k.cfg.Now = now
}

// Dim returns the embedding dimension.
func (k *Kernel) Dim() int {
	return k.cfg.EmbeddingDim
}

// Ingest adds candidate articles and returns how many were accepted.
// Malformed articles and URLs already known are skipped.
func (k *Kernel) Ingest(articles []domain.Article) int {
	accepted := 0
	for _, a := range articles {
		a.Country = strings.ToUpper(strings.TrimSpace(a.Country))
		a.Language = strings.ToLower(strings.TrimSpace(a.Language))
		if !wellFormed(a) {
			continue
		}
		if _, ok := k.urls[a.URL]; ok {
			continue
		}
		k.add(a)
		accepted++
	}
	return accepted
}

func (k *Kernel) add(a domain.Article) {
	k.urls[a.URL] = struct{}{}
	k.corpus = append(k.corpus, a)
}

// Serialize returns the kernel state.
func (k *Kernel) Serialize() ([]byte, error) {
	s := &state{
		Version:  stateVersion,
		Dim:      k.cfg.EmbeddingDim,
		Markets:  k.markets.Strings(),
		Trusted:  k.trusted.Sorted(),
		Excluded: k.excluded.Sorted(),
		Positive: k.positive,
		Negative: k.negative,
		Served:   make(map[string]served, len(k.served)),
	}
	for _, a := range k.corpus {
		s.Corpus = append(s.Corpus, storeArticle(a))
	}
	for id, v := range k.served {
		s.Served[id.String()] = v
	}
	return encodeState(s)
}

// SetMarkets replaces the served markets.
func (k *Kernel) SetMarkets(markets domain.FeedMarkets) error {
	if err := markets.Validate(); err != nil {
		return err
	}
	k.markets = copyMarkets(markets)
	return nil
}

// SetTrustedSources replaces the trusted source hosts.
func (k *Kernel) SetTrustedSources(sources domain.Sources) {
	k.trusted = copySources(sources)
}

// SetExcludedSources replaces the excluded source hosts.
func (k *Kernel) SetExcludedSources(sources domain.Sources) {
	k.excluded = copySources(sources)
}

// Reset forgets everything learned from feedback.
func (k *Kernel) Reset() {
	k.positive = centroid{}
	k.negative = centroid{}
}

// Close drops the corpus and learned state.
func (k *Kernel) Close() {
	k.Reset()
	k.corpus = nil
	k.urls = map[string]struct{}{}
	k.served = map[domain.DocumentID]served{}
}

type candidate struct {
	article   domain.Article
	embedding []float32
	score     float64
	stack     domain.StackID
}

// FeedDocuments ranks up to limit new documents, skipping anything whose URL
// or title already appears in history. History is the caller's store, so a
// batch the caller failed to keep is offered again.
func (k *Kernel) FeedDocuments(history []domain.HistoricDocument, limit int) (Output, error) {
	if limit < 0 {
		return Output{}, fmt.Errorf("%w: max documents %d", domain.ErrInvalidInput, limit)
	}

	seen := newSeenSet()
	for _, h := range history {
		seen.add(h.URL, h.Title)
	}

	var pool []domain.Article
	if limit > 0 {
		pool = filterDuplicates(seen, k.eligible())
	}
	candidates := make([]candidate, 0, len(pool))
	for _, a := range pool {
		e := embed(a.Title+" "+a.Snippet, k.cfg.EmbeddingDim)
		c := candidate{
			article:   a,
			embedding: e,
			score:     k.positive.similarity(e) - k.negative.similarity(e),
			stack:     PersonalizedStack,
		}
		if k.trusted.Contains(host(a.SourceURL)) {
			c.score += k.cfg.TrustedBoost
			c.stack = TrustedStack
		}
		candidates = append(candidates, c)
	}
	slices.SortStableFunc(candidates, byScore)
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return k.emit(candidates, true)
}

// Search ranks articles by the share of query words they contain.
func (k *Kernel) Search(query string, page, pageSize int) (Output, error) {
	if err := checkPage(page, pageSize); err != nil {
		return Output{}, err
	}
	words := tokens(query)
	if len(words) == 0 {
		return Output{}, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}

	var candidates []candidate
	for _, a := range filterDuplicates(newSeenSet(), k.eligible()) {
		text := a.Title + " " + a.Snippet
		have := map[string]struct{}{}
		for _, t := range tokens(text) {
			have[t] = struct{}{}
		}
		matched := 0
		for _, w := range words {
			if _, ok := have[w]; ok {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		candidates = append(candidates, candidate{
			article:   a,
			embedding: embed(text, k.cfg.EmbeddingDim),
			score:     float64(matched) / float64(len(words)),
			stack:     SearchStack,
		})
	}
	slices.SortStableFunc(candidates, byScore)
	return k.emit(paginate(candidates, page, pageSize), false)
}

// SearchTopic returns articles of a topic, newest first.
func (k *Kernel) SearchTopic(topic string, page, pageSize int) (Output, error) {
	if err := checkPage(page, pageSize); err != nil {
		return Output{}, err
	}
	topic = folder.String(strings.TrimSpace(topic))
	if topic == "" {
		return Output{}, fmt.Errorf("%w: empty topic", domain.ErrInvalidInput)
	}

	var candidates []candidate
	for _, a := range filterDuplicates(newSeenSet(), k.eligible()) {
		if folder.String(a.Topic) != topic {
			continue
		}
		candidates = append(candidates, candidate{
			article:   a,
			embedding: embed(a.Title+" "+a.Snippet, k.cfg.EmbeddingDim),
			stack:     SearchStack,
		})
	}
	slices.SortStableFunc(candidates, func(a, b candidate) int {
		if c := b.article.DatePublished.Compare(a.article.DatePublished); c != 0 {
			return c
		}
		return byScore(a, b)
	})
	return k.emit(paginate(candidates, page, pageSize), false)
}

// DeepSearch returns the articles of one market most similar to term.
func (k *Kernel) DeepSearch(term string, market domain.FeedMarket) (Output, error) {
	if err := market.Validate(); err != nil {
		return Output{}, err
	}
	if strings.TrimSpace(term) == "" {
		return Output{}, fmt.Errorf("%w: empty search term", domain.ErrInvalidInput)
	}

	query := embed(term, k.cfg.EmbeddingDim)
	var candidates []candidate
	inMarket := k.wellFormedIn(func(m domain.FeedMarket) bool { return m == market })
	for _, a := range filterDuplicates(newSeenSet(), inMarket) {
		e := embed(a.Title+" "+a.Snippet, k.cfg.EmbeddingDim)
		sim := cosine(query, e)
		if sim <= 0 {
			continue
		}
		candidates = append(candidates, candidate{article: a, embedding: e, score: sim, stack: SearchStack})
	}
	slices.SortStableFunc(candidates, byScore)
	if len(candidates) > k.cfg.PageSize {
		candidates = candidates[:k.cfg.PageSize]
	}
	return k.emit(candidates, false)
}

// TrendingTopics returns the most frequent topics in the served markets.
func (k *Kernel) TrendingTopics() []domain.TrendingTopic {
	type tally struct {
		topic domain.TrendingTopic
		count int
	}
	byKey := map[string]*tally{}
	var order []*tally
	for _, a := range k.eligible() {
		key := folder.String(strings.TrimSpace(a.Topic))
		if key == "" {
			continue
		}
		t, ok := byKey[key]
		if !ok {
			name := strings.TrimSpace(a.Topic)
			t = &tally{topic: domain.TrendingTopic{Name: name, Query: name}}
			byKey[key] = t
			order = append(order, t)
		}
		t.count++
		if t.topic.Image == nil && a.Image != "" {
			img := a.Image
			t.topic.Image = &img
		}
	}
	slices.SortStableFunc(order, func(a, b *tally) int {
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}
		return cmp.Compare(a.topic.Name, b.topic.Name)
	})
	if len(order) > k.cfg.TrendingLimit {
		order = order[:k.cfg.TrendingLimit]
	}
	topics := make([]domain.TrendingTopic, 0, len(order))
	for _, t := range order {
		topics = append(topics, t.topic)
	}
	return topics
}

// TimeSpent learns from dwell time. A long enough view of a document the user
// did not dislike counts as positive feedback.
func (k *Kernel) TimeSpent(ts domain.TimeSpent) error {
	s, ok := k.served[ts.ID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownDocument, ts.ID)
	}
	if ts.Duration < 0 {
		return fmt.Errorf("%w: negative duration", domain.ErrInvalidInput)
	}
	if ts.Reaction == domain.Negative || ts.Duration < k.cfg.DwellThreshold {
		return nil
	}
	k.positive.add(k.embeddingFor(ts.Embedding, s))
	return nil
}

// UserReacted learns from an explicit reaction.
func (k *Kernel) UserReacted(r domain.UserReacted) error {
	if !r.Reaction.IsValid() {
		return fmt.Errorf("%w: reaction %d", domain.ErrInvalidInput, r.Reaction)
	}
	s, ok := k.served[r.ID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownDocument, r.ID)
	}
	switch r.Reaction {
	case domain.Positive:
		k.positive.add(k.embeddingFor(r.Embedding, s))
	case domain.Negative:
		k.negative.add(k.embeddingFor(r.Embedding, s))
	}
	return nil
}

func (k *Kernel) embeddingFor(given []float32, s served) []float32 {
	if len(given) == k.cfg.EmbeddingDim {
		return given
	}
	return s.Embedding
}

// eligible returns well formed articles in the served markets. An empty
// market set serves every market.
func (k *Kernel) eligible() []domain.Article {
	return k.wellFormedIn(func(m domain.FeedMarket) bool {
		return k.markets.Len() == 0 || k.markets.Contains(m)
	})
}

func (k *Kernel) wellFormedIn(inMarket func(domain.FeedMarket) bool) []domain.Article {
	var out []domain.Article
	for _, a := range k.corpus {
		if !inMarket(a.Market()) || k.excluded.Contains(host(a.SourceURL)) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// emit turns candidates into documents, remembers them as served and encodes
// the result into bridge batches.
func (k *Kernel) emit(candidates []candidate, active bool) (Output, error) {
	now := k.cfg.Now().UTC()
	docs := make([]domain.Document, 0, len(candidates))
	embeddings := make([][]float32, 0, len(candidates))
	for i, c := range candidates {
		var thumbnail *string
		if c.article.Image != "" {
			img := c.article.Image
			thumbnail = &img
		}
		doc := domain.Document{
			ID:         domain.NewDocumentID(),
			StackID:    c.stack,
			BatchIndex: i,
			Timestamp:  now,
			Resource: domain.NewsResource{
				Title:         c.article.Title,
				Snippet:       c.article.Snippet,
				URL:           c.article.URL,
				SourceURL:     c.article.SourceURL,
				Thumbnail:     thumbnail,
				DatePublished: c.article.DatePublished,
				Rank:          c.article.Rank,
				Score:         c.score,
				Country:       c.article.Country,
				Language:      c.article.Language,
				Topic:         c.article.Topic,
			},
			IsActive:     active,
			UserReaction: domain.Neutral,
		}
		docs = append(docs, doc)
		embeddings = append(embeddings, c.embedding)
	}

	docBatch, err := bridge.EncodeMany(docs)
	if err != nil {
		return Output{}, err
	}
	embBatch, err := bridge.EncodeEmbeddings(embeddings)
	if err != nil {
		_ = docBatch.Release()
		return Output{}, err
	}
	for i, doc := range docs {
		k.served[doc.ID] = served{
			URL:       doc.Resource.URL,
			Title:     doc.Resource.Title,
			Embedding: embeddings[i],
		}
	}
	return Output{Documents: docBatch, Embeddings: embBatch, Len: len(docs)}, nil
}

func byScore(a, b candidate) int {
	if c := cmp.Compare(b.score, a.score); c != 0 {
		return c
	}
	if c := cmp.Compare(a.article.Rank, b.article.Rank); c != 0 {
		return c
	}
	return cmp.Compare(a.article.URL, b.article.URL)
}

func checkPage(page, pageSize int) error {
	if page < 1 || pageSize < 1 {
		return fmt.Errorf("%w: page %d of size %d", domain.ErrInvalidInput, page, pageSize)
	}
	return nil
}

// paginate returns page of c. The page bound is checked before multiplying so
// a huge page cannot overflow into a negative offset.
func paginate(c []candidate, page, pageSize int) []candidate {
	if len(c) == 0 || page-1 > (len(c)-1)/pageSize {
		return nil
	}
	start := (page - 1) * pageSize
	return c[start : start+min(pageSize, len(c)-start)]
}

func copyMarkets(m domain.FeedMarkets) domain.FeedMarkets {
	return domain.NewFeedMarkets(m.Sorted()...)
}

func copySources(s domain.Sources) domain.Sources {
	return domain.NewSources(s.Sorted()...)
}
