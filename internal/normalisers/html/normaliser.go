package html

import (
	"context"
	"html"
	"regexp"
	"strings"

	"github.com/custodia-labs/feedsync/internal/core/domain"
	"github.com/custodia-labs/feedsync/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.ArticleNormaliser = (*Normaliser)(nil)

// Normaliser strips HTML from the title, snippet and topic of an article.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Name returns the normaliser name.
func (n *Normaliser) Name() string {
	return "html"
}

// Normalise replaces the text fields of article with their plain text.
func (n *Normaliser) Normalise(_ context.Context, article *domain.Article) error {
	if article == nil {
		return domain.ErrInvalidInput
	}
	article.Title = stripHTML(article.Title)
	article.Snippet = stripHTML(article.Snippet)
	article.Topic = stripHTML(article.Topic)
	return nil
}

// Pre-compiled regular expressions for HTML parsing performance.
var (
	scriptTag     = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTag      = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	noscriptTag   = regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`)
	svgTag        = regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`)
	htmlComments  = regexp.MustCompile(`(?s)<!--.*?-->`)
	blockElements = regexp.MustCompile(`(?i)</?(p|div|br|hr|h[1-6]|li|tr|blockquote|pre|table|section|article)\b[^>]*>`)
	allTags       = regexp.MustCompile(`<[^>]+>`)
	whitespace    = regexp.MustCompile(`\s+`)
)

// stripHTML removes markup and returns the text on a single line. Text
// without markup or entities is returned unchanged.
func stripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}

	// Remove script, style, noscript and svg tags entirely
	s = scriptTag.ReplaceAllString(s, "")
	s = styleTag.ReplaceAllString(s, "")
	s = noscriptTag.ReplaceAllString(s, "")
	s = svgTag.ReplaceAllString(s, "")
	s = htmlComments.ReplaceAllString(s, "")

	// Block boundaries separate words
	s = blockElements.ReplaceAllString(s, " ")
	s = allTags.ReplaceAllString(s, "")

	s = html.UnescapeString(s)
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}
