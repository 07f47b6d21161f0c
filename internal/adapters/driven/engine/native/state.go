package native

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/custodia-labs/feedsync/internal/core/domain"
)

const stateVersion = 1

// state is the serialized form of a kernel.
type state struct {
	Version  int               `cbor:"1,keyasint"`
	Dim      int               `cbor:"2,keyasint"`
	Markets  []string          `cbor:"3,keyasint,omitempty"`
	Trusted  []string          `cbor:"4,keyasint,omitempty"`
	Excluded []string          `cbor:"5,keyasint,omitempty"`
	Positive centroid          `cbor:"6,keyasint"`
	Negative centroid          `cbor:"7,keyasint"`
	Corpus   []storedArticle   `cbor:"8,keyasint,omitempty"`
	Served   map[string]served `cbor:"9,keyasint,omitempty"`
}

// storedArticle keeps times as Unix nanoseconds so a round trip is exact.
type storedArticle struct {
	Title         string `cbor:"title"`
	Snippet       string `cbor:"snippet"`
	URL           string `cbor:"url"`
	SourceURL     string `cbor:"source_url"`
	Image         string `cbor:"image,omitempty"`
	DatePublished int64  `cbor:"published"`
	Country       string `cbor:"country"`
	Language      string `cbor:"language"`
	Topic         string `cbor:"topic,omitempty"`
	Rank          int    `cbor:"rank"`
}

// served remembers a document handed out by the kernel so feedback on it can
// be attributed.
type served struct {
	URL       string    `cbor:"url"`
	Title     string    `cbor:"title"`
	Embedding []float32 `cbor:"embedding"`
}

func storeArticle(a domain.Article) storedArticle {
	var published int64
	if !a.DatePublished.IsZero() {
		published = a.DatePublished.UnixNano()
	}
	return storedArticle{
		Title:         a.Title,
		Snippet:       a.Snippet,
		URL:           a.URL,
		SourceURL:     a.SourceURL,
		Image:         a.Image,
		DatePublished: published,
		Country:       a.Country,
		Language:      a.Language,
		Topic:         a.Topic,
		Rank:          a.Rank,
	}
}

func (s storedArticle) article() domain.Article {
	var published time.Time
	if s.DatePublished != 0 {
		published = time.Unix(0, s.DatePublished).UTC()
	}
	return domain.Article{
		Title:         s.Title,
		Snippet:       s.Snippet,
		URL:           s.URL,
		SourceURL:     s.SourceURL,
		Image:         s.Image,
		DatePublished: published,
		Country:       s.Country,
		Language:      s.Language,
		Topic:         s.Topic,
		Rank:          s.Rank,
	}
}

var encMode = func() cbor.EncMode {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return mode
}()

func encodeState(s *state) ([]byte, error) {
	data, err := encMode.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode engine state: %w", err)
	}
	return data, nil
}

func decodeState(data []byte) (*state, error) {
	var s state
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: engine state: %w", domain.ErrInvalidInput, err)
	}
	if s.Version != stateVersion {
		return nil, fmt.Errorf("%w: engine state version %d", domain.ErrInvalidInput, s.Version)
	}
	if s.Dim <= 0 {
		return nil, fmt.Errorf("%w: engine state dimension %d", domain.ErrInvalidInput, s.Dim)
	}
	return &s, nil
}
