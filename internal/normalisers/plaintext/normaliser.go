// Package plaintext tidies the text fields of an article.
package plaintext

import (
	"context"
	"net/url"
	"path"
	"strings"

	"github.com/custodia-labs/feedsync/internal/core/domain"
	"github.com/custodia-labs/feedsync/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.ArticleNormaliser = (*Normaliser)(nil)

// DefaultMaxSnippetRunes is the snippet length kept by New.
const DefaultMaxSnippetRunes = 400

// Normaliser trims and collapses whitespace, shortens long snippets and
// derives a missing title from the article URL.
type Normaliser struct {
	maxSnippetRunes int
}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{maxSnippetRunes: DefaultMaxSnippetRunes}
}

// Name returns the normaliser name.
func (n *Normaliser) Name() string {
	return "plaintext"
}

// Normalise tidies article. Articles without a URL are rejected.
func (n *Normaliser) Normalise(_ context.Context, article *domain.Article) error {
	if article == nil {
		return domain.ErrInvalidInput
	}

	article.URL = strings.TrimSpace(article.URL)
	if article.URL == "" {
		return domain.ErrInvalidInput
	}
	article.SourceURL = strings.TrimSpace(article.SourceURL)
	article.Image = strings.TrimSpace(article.Image)
	article.Country = strings.TrimSpace(article.Country)
	article.Language = strings.TrimSpace(article.Language)

	article.Title = collapse(article.Title)
	article.Snippet = truncate(collapse(article.Snippet), n.maxSnippetRunes)
	article.Topic = collapse(article.Topic)

	if article.Title == "" {
		article.Title = extractTitle(article.URL)
	}
	return nil
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate shortens s to at most limit runes, cutting at a word boundary
// when there is one.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if limit <= 0 || len(runes) <= limit {
		return s
	}
	cut := string(runes[:limit])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}

// extractTitle extracts a human-readable title from a URL path.
func extractTitle(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	// Get the last path segment
	name := path.Base(strings.TrimSuffix(u.Path, "/"))
	if name == "." || name == "/" {
		return ""
	}

	// Remove common extensions for cleaner title
	if ext := path.Ext(name); ext != "" {
		name = strings.TrimSuffix(name, ext)
	}

	// Replace underscores and dashes with spaces
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")

	return collapse(name)
}
