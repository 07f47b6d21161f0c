package domain

// Default settings values.
const (
	DefaultMaxDocuments = 10
	DefaultPageSize     = 20
	DefaultEmbeddingDim = 64
	DefaultMarket       = "en-US"
)

// FeedSettings is the user configuration of the feed and its engine.
type FeedSettings struct {
	// MaxDocuments is the maximum number of documents per feed batch.
	MaxDocuments int

	// PageSize is the default page size of searches.
	PageSize int

	Markets         FeedMarkets
	TrustedSources  Sources
	ExcludedSources Sources

	// AIConfig is passed to the engine untouched; empty means defaults.
	AIConfig string

	EmbeddingDim int

	// DataDir holds the document database.
	DataDir string

	Verbose bool
}

// DefaultFeedSettings returns settings with every default applied.
func DefaultFeedSettings() FeedSettings {
	return FeedSettings{
		MaxDocuments:    DefaultMaxDocuments,
		PageSize:        DefaultPageSize,
		Markets:         NewFeedMarkets(FeedMarket{Country: "US", Language: "en"}),
		TrustedSources:  NewSources(),
		ExcludedSources: NewSources(),
		EmbeddingDim:    DefaultEmbeddingDim,
	}
}

// Initializer builds the engine initializer for these settings.
func (s FeedSettings) Initializer(state []byte, history []HistoricDocument) EngineInitializer {
	var aiConfig *string
	if s.AIConfig != "" {
		cfg := s.AIConfig
		aiConfig = &cfg
	}
	return EngineInitializer{
		Config: EngineConfig{
			Markets:      s.Markets,
			MaxDocuments: s.MaxDocuments,
			PageSize:     s.PageSize,
		},
		Setup:           SetupData{AssetsDir: s.DataDir, EmbeddingDim: s.EmbeddingDim},
		State:           state,
		History:         history,
		AIConfig:        aiConfig,
		TrustedSources:  s.TrustedSources,
		ExcludedSources: s.ExcludedSources,
	}
}
