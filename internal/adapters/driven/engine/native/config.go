package native

import (
	"fmt"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/feedsync/internal/core/domain"
)

// Default kernel parameters.
const (
	DefaultDwellThreshold = 5 * time.Second
	DefaultTrustedBoost   = 0.25
	DefaultTrendingLimit  = 10
)

// Config holds the kernel parameters.
type Config struct {
	EmbeddingDim   int
	PageSize       int
	DwellThreshold time.Duration
	TrustedBoost   float64
	TrendingLimit  int

	// Now returns the creation time of new documents.
	Now func() time.Time
}

// aiConfig is the TOML shape of EngineInitializer.AIConfig.
type aiConfig struct {
	Ranker struct {
		EmbeddingDim          int     `toml:"embedding_dim"`
		DwellThresholdSeconds float64 `toml:"dwell_threshold_seconds"`
		TrustedBoost          float64 `toml:"trusted_boost"`
	} `toml:"ranker"`
	Trending struct {
		Limit int `toml:"limit"`
	} `toml:"trending"`
}

// ConfigFrom derives the kernel configuration from an initializer. Values in
// AIConfig override the setup data.
func ConfigFrom(init domain.EngineInitializer) (Config, error) {
	cfg := Config{
		EmbeddingDim:   init.Setup.EmbeddingDim,
		PageSize:       init.Config.PageSize,
		DwellThreshold: DefaultDwellThreshold,
		TrustedBoost:   DefaultTrustedBoost,
		TrendingLimit:  DefaultTrendingLimit,
	}
	if init.AIConfig != nil && *init.AIConfig != "" {
		var ai aiConfig
		if err := toml.Unmarshal([]byte(*init.AIConfig), &ai); err != nil {
			return Config{}, fmt.Errorf("%w: ai config: %w", domain.ErrInvalidInput, err)
		}
		if ai.Ranker.EmbeddingDim > 0 {
			cfg.EmbeddingDim = ai.Ranker.EmbeddingDim
		}
		if ai.Ranker.DwellThresholdSeconds > 0 {
			cfg.DwellThreshold = time.Duration(ai.Ranker.DwellThresholdSeconds * float64(time.Second))
		}
		if ai.Ranker.TrustedBoost > 0 {
			cfg.TrustedBoost = ai.Ranker.TrustedBoost
		}
		if ai.Trending.Limit > 0 {
			cfg.TrendingLimit = ai.Trending.Limit
		}
	}
	if cfg.EmbeddingDim <= 0 {
		cfg.EmbeddingDim = domain.DefaultEmbeddingDim
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = domain.DefaultPageSize
	}
	return cfg, nil
}
