package native

import (
	"net/url"
	"strings"

	"github.com/custodia-labs/feedsync/internal/core/domain"
)

// wellFormed rejects articles that could not become valid documents.
func wellFormed(a domain.Article) bool {
	if strings.TrimSpace(a.Title) == "" || strings.TrimSpace(a.Snippet) == "" {
		return false
	}
	if !absolute(a.URL) || !absolute(a.SourceURL) {
		return false
	}
	return a.Image == "" || absolute(a.Image)
}

func absolute(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// host returns the lower case host name of a source URL.
func host(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// seenSet tracks URLs and titles already shown to the user.
type seenSet struct {
	urls   map[string]struct{}
	titles map[string]struct{}
}

func newSeenSet() *seenSet {
	return &seenSet{urls: map[string]struct{}{}, titles: map[string]struct{}{}}
}

func (s *seenSet) add(rawURL, title string) {
	s.urls[rawURL] = struct{}{}
	s.titles[title] = struct{}{}
}

func (s *seenSet) contains(rawURL, title string) bool {
	_, u := s.urls[rawURL]
	_, t := s.titles[title]
	return u || t
}

// filterDuplicates drops articles whose URL or title is already in seen, and
// keeps only the first of several candidates sharing a URL or title.
func filterDuplicates(seen *seenSet, articles []domain.Article) []domain.Article {
	out := make([]domain.Article, 0, len(articles))
	for _, a := range articles {
		if seen.contains(a.URL, a.Title) {
			continue
		}
		seen.add(a.URL, a.Title)
		out = append(out, a)
	}
	return out
}
