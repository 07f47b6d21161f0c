package services

import (
	"fmt"

	"github.com/custodia-labs/feedsync/internal/core/domain"
	"github.com/custodia-labs/feedsync/internal/core/ports/driven"
	"github.com/custodia-labs/feedsync/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyMaxDocuments    = "feed.max_documents"
	keyPageSize        = "search.page_size"
	keyMarkets         = "engine.markets"
	keyTrustedSources  = "engine.trusted_sources"
	keyExcludedSources = "engine.excluded_sources"
	keyAIConfig        = "engine.ai_config"
	keyEmbeddingDim    = "engine.embedding_dim"
	keyDataDir         = "storage.data_dir"
	keyVerbose         = "logging.verbose"
)

// SettingsService manages the feed settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiConfig    driven.AIConfigStore
}

// NewSettingsService creates a new settings service. aiConfig may be nil, in
// which case only the engine.ai_config key is consulted.
func NewSettingsService(configStore driven.ConfigStore, aiConfig driven.AIConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiConfig:    aiConfig,
	}
}

// Get retrieves the current settings. A malformed market list is an error
// rather than a silent fallback, since it decides what the engine serves.
func (s *SettingsService) Get() (domain.FeedSettings, error) {
	defaults := domain.DefaultFeedSettings()

	markets, err := s.getMarkets(defaults.Markets)
	if err != nil {
		return domain.FeedSettings{}, err
	}

	aiConfig, err := s.getAIConfig()
	if err != nil {
		return domain.FeedSettings{}, err
	}

	return domain.FeedSettings{
		MaxDocuments:    s.getInt(keyMaxDocuments, defaults.MaxDocuments),
		PageSize:        s.getInt(keyPageSize, defaults.PageSize),
		Markets:         markets,
		TrustedSources:  domain.NewSources(s.configStore.GetStringSlice(keyTrustedSources)...),
		ExcludedSources: domain.NewSources(s.configStore.GetStringSlice(keyExcludedSources)...),
		AIConfig:        aiConfig,
		EmbeddingDim:    s.getInt(keyEmbeddingDim, defaults.EmbeddingDim),
		DataDir:         s.configStore.GetString(keyDataDir),
		Verbose:         s.getBool(keyVerbose, defaults.Verbose),
	}, nil
}

// SetMarkets persists the served markets.
func (s *SettingsService) SetMarkets(markets domain.FeedMarkets) error {
	if markets.Len() == 0 {
		return fmt.Errorf("%w: at least one market is required", domain.ErrInvalidInput)
	}
	if err := markets.Validate(); err != nil {
		return err
	}
	if err := s.configStore.Set(keyMarkets, markets.Strings()); err != nil {
		return fmt.Errorf("save markets: %w", err)
	}
	return nil
}

// SetTrustedSources persists the trusted sources.
func (s *SettingsService) SetTrustedSources(sources domain.Sources) error {
	if err := s.setSources(keyTrustedSources, sources); err != nil {
		return fmt.Errorf("save trusted sources: %w", err)
	}
	return nil
}

// SetExcludedSources persists the excluded sources.
func (s *SettingsService) SetExcludedSources(sources domain.Sources) error {
	if err := s.setSources(keyExcludedSources, sources); err != nil {
		return fmt.Errorf("save excluded sources: %w", err)
	}
	return nil
}

// setSources drops the key for an empty set instead of writing an empty array.
func (s *SettingsService) setSources(key string, sources domain.Sources) error {
	if len(sources) == 0 {
		return s.configStore.Delete(key)
	}
	return s.configStore.Set(key, sources.Sorted())
}

// SetMaxDocuments persists the feed batch size.
func (s *SettingsService) SetMaxDocuments(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: max documents must be positive, got %d", domain.ErrInvalidInput, n)
	}
	if err := s.configStore.Set(keyMaxDocuments, n); err != nil {
		return fmt.Errorf("save max documents: %w", err)
	}
	return nil
}

func (s *SettingsService) getMarkets(defaultVal domain.FeedMarkets) (domain.FeedMarkets, error) {
	values := s.configStore.GetStringSlice(keyMarkets)
	if len(values) == 0 {
		return defaultVal, nil
	}
	markets, err := domain.ParseFeedMarkets(values)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", keyMarkets, err)
	}
	return markets, nil
}

func (s *SettingsService) getAIConfig() (string, error) {
	if v := s.configStore.GetString(keyAIConfig); v != "" {
		return v, nil
	}
	if s.aiConfig == nil {
		return "", nil
	}
	cfg, err := s.aiConfig.Load()
	if err != nil {
		return "", fmt.Errorf("load ai config: %w", err)
	}
	return cfg, nil
}

// Helper methods for reading config with defaults

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if v := s.configStore.GetInt(key); v > 0 {
		return v
	}
	return defaultVal
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); exists {
		return s.configStore.GetBool(key)
	}
	return defaultVal
}
