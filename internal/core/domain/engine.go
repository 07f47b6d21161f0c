package domain

import (
	"bytes"
	"slices"
)

// EngineConfig is the general engine configuration.
type EngineConfig struct {
	Markets      FeedMarkets
	MaxDocuments int
	PageSize     int
}

// SetupData locates the engine assets.
type SetupData struct {
	AssetsDir    string
	EmbeddingDim int
}

// EngineInitializer is used exactly once to construct an engine.
type EngineInitializer struct {
	Config EngineConfig
	Setup  SetupData

	// State is a serialized engine state to restore; nil starts fresh.
	State []byte

	History []HistoricDocument

	// AIConfig is an opaque engine specific configuration, nil for defaults.
	AIConfig *string

	TrustedSources  Sources
	ExcludedSources Sources
}

// Equal compares two initializers structurally.
func (e EngineInitializer) Equal(other EngineInitializer) bool {
	if !e.Config.Markets.Equal(other.Config.Markets) ||
		e.Config.MaxDocuments != other.Config.MaxDocuments ||
		e.Config.PageSize != other.Config.PageSize {
		return false
	}
	if e.Setup != other.Setup {
		return false
	}
	if !bytes.Equal(e.State, other.State) {
		return false
	}
	if !slices.Equal(e.History, other.History) {
		return false
	}
	switch {
	case e.AIConfig == nil && other.AIConfig == nil:
	case e.AIConfig == nil || other.AIConfig == nil:
		return false
	case *e.AIConfig != *other.AIConfig:
		return false
	}
	return e.TrustedSources.Equal(other.TrustedSources) &&
		e.ExcludedSources.Equal(other.ExcludedSources)
}
