package domain

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// FeedMarket is a country/language pair served by the engine.
// Markets are plain values: equal codes mean the same market.
type FeedMarket struct {
	// Country is an ISO 3166-1 alpha-2 code, e.g. "DE".
	Country string

	// Language is an ISO 639-1 code, e.g. "de".
	Language string
}

// ParseFeedMarket parses the "language-COUNTRY" form, e.g. "de-DE".
func ParseFeedMarket(s string) (FeedMarket, error) {
	lang, country, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return FeedMarket{}, fmt.Errorf("%w: %q is not language-COUNTRY", ErrInvalidMarket, s)
	}
	m := FeedMarket{
		Country:  strings.ToUpper(country),
		Language: strings.ToLower(lang),
	}
	if err := m.Validate(); err != nil {
		return FeedMarket{}, err
	}
	return m, nil
}

// Validate checks both codes against the ISO registries.
func (m FeedMarket) Validate() error {
	if len(m.Language) != 2 {
		return fmt.Errorf("%w: language %q is not a two letter code", ErrInvalidMarket, m.Language)
	}
	base, err := language.ParseBase(m.Language)
	if err != nil || base.String() != m.Language {
		return fmt.Errorf("%w: unknown language %q", ErrInvalidMarket, m.Language)
	}
	if len(m.Country) != 2 {
		return fmt.Errorf("%w: country %q is not a two letter code", ErrInvalidMarket, m.Country)
	}
	region, err := language.ParseRegion(m.Country)
	if err != nil || !region.IsCountry() || region.String() != m.Country {
		return fmt.Errorf("%w: unknown country %q", ErrInvalidMarket, m.Country)
	}
	return nil
}

// String returns the "language-COUNTRY" form.
func (m FeedMarket) String() string {
	return m.Language + "-" + m.Country
}

// FeedMarkets is a set of markets. Order carries no meaning.
type FeedMarkets map[FeedMarket]struct{}

// NewFeedMarkets builds a set, collapsing duplicates.
func NewFeedMarkets(markets ...FeedMarket) FeedMarkets {
	set := make(FeedMarkets, len(markets))
	for _, m := range markets {
		set[m] = struct{}{}
	}
	return set
}

// ParseFeedMarkets parses every entry and fails on the first invalid one.
func ParseFeedMarkets(values []string) (FeedMarkets, error) {
	set := make(FeedMarkets, len(values))
	for _, v := range values {
		m, err := ParseFeedMarket(v)
		if err != nil {
			return nil, err
		}
		set[m] = struct{}{}
	}
	return set, nil
}

// Add inserts m.
func (s FeedMarkets) Add(m FeedMarket) {
	s[m] = struct{}{}
}

// Contains reports whether m is in the set.
func (s FeedMarkets) Contains(m FeedMarket) bool {
	_, ok := s[m]
	return ok
}

// Len returns the number of markets.
func (s FeedMarkets) Len() int {
	return len(s)
}

// Validate checks every market in the set.
func (s FeedMarkets) Validate() error {
	for m := range s {
		if err := m.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Sorted returns the markets ordered by their string form.
func (s FeedMarkets) Sorted() []FeedMarket {
	out := make([]FeedMarket, 0, len(s))
	for m := range s {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Strings returns the sorted "language-COUNTRY" forms.
func (s FeedMarkets) Strings() []string {
	sorted := s.Sorted()
	out := make([]string, len(sorted))
	for i, m := range sorted {
		out[i] = m.String()
	}
	return out
}

// Equal reports whether both sets hold the same markets.
func (s FeedMarkets) Equal(other FeedMarkets) bool {
	if len(s) != len(other) {
		return false
	}
	for m := range s {
		if !other.Contains(m) {
			return false
		}
	}
	return true
}

// Sources is a set of source host names, e.g. "example.com".
type Sources map[string]struct{}

// NewSources builds a set of normalised host names. Blank entries are dropped.
func NewSources(hosts ...string) Sources {
	set := make(Sources, len(hosts))
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" {
			set[h] = struct{}{}
		}
	}
	return set
}

// Contains reports whether host is in the set.
func (s Sources) Contains(host string) bool {
	_, ok := s[strings.ToLower(host)]
	return ok
}

// Sorted returns the host names in lexical order.
func (s Sources) Sorted() []string {
	out := make([]string, 0, len(s))
	for h := range s {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}

// Equal reports whether both sets hold the same hosts.
func (s Sources) Equal(other Sources) bool {
	if len(s) != len(other) {
		return false
	}
	for h := range s {
		if !other.Contains(h) {
			return false
		}
	}
	return true
}
