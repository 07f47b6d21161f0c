package driving

import "github.com/custodia-labs/feedsync/internal/core/domain"

// SettingsService manages the persisted feed configuration.
type SettingsService interface {
	// Get loads the settings, applying defaults for missing keys.
	Get() (domain.FeedSettings, error)

	// SetMarkets persists the served markets.
	SetMarkets(markets domain.FeedMarkets) error

	// SetTrustedSources persists the trusted sources.
	SetTrustedSources(sources domain.Sources) error

	// SetExcludedSources persists the excluded sources.
	SetExcludedSources(sources domain.Sources) error

	// SetMaxDocuments persists the feed batch size.
	SetMaxDocuments(n int) error
}
