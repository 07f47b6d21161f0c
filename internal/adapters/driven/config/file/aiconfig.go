package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/feedsync/internal/core/ports/driven"
)

// Ensure AIConfigStore implements the interface.
var _ driven.AIConfigStore = (*AIConfigStore)(nil)

// aiConfigFile is the name of the configuration file inside the engine directory.
const aiConfigFile = "ai.toml"

// DefaultAIConfig is written on first use and returned when the file cannot
// be read.
const DefaultAIConfig = `# feedsync engine configuration.
# Remove a key to fall back to the built-in value.

[ranker]
# Dimension of document embeddings. Changing it only affects a fresh engine.
embedding_dim = 64
# Minimum dwell time counted as positive feedback.
dwell_threshold_seconds = 5.0
# Score bonus for documents from trusted sources.
trusted_boost = 0.25

[trending]
limit = 10`

// AIConfigStore loads the engine AI configuration from a user editable file.
//
// The store initialises lazily: the directory and default file are created on
// the first Load, not in the constructor.
type AIConfigStore struct {
	mu       sync.RWMutex
	dir      string
	cached   *string
	initOnce sync.Once
	initErr  error
}

// NewAIConfigStore creates a file-based AI configuration store.
// If dir is empty, defaults to ~/.feedsync/engine/.
func NewAIConfigStore(dir string) (*AIConfigStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(home, ".feedsync", "engine")
	}
	return &AIConfigStore{dir: dir}, nil
}

// Load returns the configuration. Results are cached until Reload.
func (s *AIConfigStore) Load() (string, error) {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		return DefaultAIConfig, nil
	}

	s.mu.RLock()
	if s.cached != nil {
		cfg := *s.cached
		s.mu.RUnlock()
		return cfg, nil
	}
	s.mu.RUnlock()

	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultAIConfig, nil
		}
		return "", fmt.Errorf("load ai config: %w", err)
	}
	cfg := strings.TrimSpace(string(data))

	s.mu.Lock()
	if s.cached == nil {
		s.cached = &cfg
	} else {
		cfg = *s.cached
	}
	s.mu.Unlock()

	return cfg, nil
}

// Reload clears the cache, forcing a fresh read from disk.
func (s *AIConfigStore) Reload() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}

// Dir returns the engine configuration directory.
func (s *AIConfigStore) Dir() string {
	return s.dir
}

// Path returns the configuration file path.
func (s *AIConfigStore) Path() string {
	return filepath.Join(s.dir, aiConfigFile)
}

// initialise creates the directory and the default file if missing.
func (s *AIConfigStore) initialise() {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		s.initErr = fmt.Errorf("create engine directory: %w", err)
		return
	}
	if _, err := os.Stat(s.Path()); os.IsNotExist(err) {
		if err := os.WriteFile(s.Path(), []byte(DefaultAIConfig+"\n"), 0600); err != nil {
			s.initErr = fmt.Errorf("create default ai config: %w", err)
		}
	}
}
