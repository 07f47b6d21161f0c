package normalisers

import (
	"context"
	"fmt"

	"github.com/custodia-labs/feedsync/internal/core/domain"
	"github.com/custodia-labs/feedsync/internal/core/ports/driven"
	"github.com/custodia-labs/feedsync/internal/normalisers/html"
	"github.com/custodia-labs/feedsync/internal/normalisers/plaintext"
)

// Ensure Pipeline implements the interface.
var _ driven.ArticleNormaliser = (*Pipeline)(nil)

// Pipeline chains multiple normalisers and runs them in order.
// A pipeline is itself a normaliser.
type Pipeline struct {
	normalisers []driven.ArticleNormaliser
}

// NewPipeline creates a new pipeline with the given normalisers.
// Normalisers are executed in the order provided.
func NewPipeline(normalisers ...driven.ArticleNormaliser) *Pipeline {
	return &Pipeline{
		normalisers: normalisers,
	}
}

// Default returns the pipeline used for ingest: markup first, then
// whitespace, so text freed from tags is tidied too.
func Default() *Pipeline {
	return NewPipeline(html.New(), plaintext.New())
}

// Name returns the pipeline name.
func (p *Pipeline) Name() string {
	return "pipeline"
}

// Normalise runs article through every normaliser and stops at the first
// error.
func (p *Pipeline) Normalise(ctx context.Context, article *domain.Article) error {
	if article == nil {
		return domain.ErrInvalidInput
	}
	for _, n := range p.normalisers {
		if err := n.Normalise(ctx, article); err != nil {
			return fmt.Errorf("normaliser %s: %w", n.Name(), err)
		}
	}
	return nil
}

// Add appends a normaliser to the pipeline.
func (p *Pipeline) Add(n driven.ArticleNormaliser) {
	p.normalisers = append(p.normalisers, n)
}

// Len returns the number of normalisers in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.normalisers)
}
