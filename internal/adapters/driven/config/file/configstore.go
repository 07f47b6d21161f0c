package file

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/feedsync/internal/core/domain"
	"github.com/custodia-labs/feedsync/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// Sections is every table a feedsync config file may hold.
var Sections = []string{"engine", "feed", "logging", "metrics", "search", "storage"}

// ConfigStore keeps feedsync settings in config.toml. Every key is
// "section.name": the section is one of Sections and becomes a TOML table,
// the name is a plain entry of that table. ai_config is a multi-line string,
// never a nested table.
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	sections map[string]map[string]any
}

// NewConfigStore opens configDir/config.toml, creating the directory when
// needed. An empty configDir means ~/.feedsync.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".feedsync")
	}
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	s := &ConfigStore{
		filePath: filepath.Join(configDir, "config.toml"),
		sections: make(map[string]map[string]any),
	}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// splitKey validates key and returns its section and entry name.
func splitKey(key string) (section, name string, err error) {
	section, name, ok := strings.Cut(key, ".")
	switch {
	case !ok || section == "" || name == "":
		return "", "", fmt.Errorf("%w: config key %q is not section.name", domain.ErrInvalidInput, key)
	case strings.Contains(name, "."):
		return "", "", fmt.Errorf("%w: config key %q nests deeper than section.name", domain.ErrInvalidInput, key)
	case !slices.Contains(Sections, section):
		return "", "", fmt.Errorf("%w: config key %q has unknown section %q", domain.ErrInvalidInput, key, section)
	}
	return section, name, nil
}

// Get returns the raw value of key.
func (s *ConfigStore) Get(key string) (any, bool) {
	section, name, err := splitKey(key)
	if err != nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.sections[section][name]
	return val, ok
}

// lookup converts the value of key with conv, yielding the zero value when
// the key is missing or conv rejects it.
func lookup[T any](s *ConfigStore, key string, conv func(any) (T, bool)) T {
	var zero T
	val, ok := s.Get(key)
	if !ok {
		return zero
	}
	out, ok := conv(val)
	if !ok {
		return zero
	}
	return out
}

// GetString returns key as a string, such as storage.data_dir or engine.ai_config.
func (s *ConfigStore) GetString(key string) string {
	return lookup(s, key, func(v any) (string, bool) {
		str, ok := v.(string)
		return str, ok
	})
}

// GetInt returns key as an int. The file decodes integers as int64; values
// set in process keep their Go type. Floats count only when whole.
func (s *ConfigStore) GetInt(key string) int {
	return lookup(s, key, func(v any) (int, bool) {
		switch n := v.(type) {
		case int:
			return n, true
		case int64:
			return int(n), true
		case float64:
			if n != math.Trunc(n) || math.IsInf(n, 0) {
				return 0, false
			}
			return int(n), true
		}
		return 0, false
	})
}

// GetBool returns key as a bool, such as logging.verbose.
func (s *ConfigStore) GetBool(key string) bool {
	return lookup(s, key, func(v any) (bool, bool) {
		b, ok := v.(bool)
		return b, ok
	})
}

// GetStringSlice returns key as a list of strings, such as engine.markets.
// Non-string array elements are skipped.
func (s *ConfigStore) GetStringSlice(key string) []string {
	return lookup(s, key, func(v any) ([]string, bool) {
		switch list := v.(type) {
		case []string:
			return slices.Clone(list), true
		case []any:
			out := make([]string, 0, len(list))
			for _, item := range list {
				if str, ok := item.(string); ok {
					out = append(out, str)
				}
			}
			return out, true
		}
		return nil, false
	})
}

// Set stores value under key and writes the file. A value that cannot be
// written is discarded and the previous one kept.
func (s *ConfigStore) Set(key string, value any) error {
	section, name, err := splitKey(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	table, hadTable := s.sections[section]
	if !hadTable {
		table = make(map[string]any)
		s.sections[section] = table
	}
	prev, existed := table[name]
	table[name] = value
	if err := s.save(); err != nil {
		switch {
		case existed:
			table[name] = prev
		case hadTable:
			delete(table, name)
		default:
			delete(s.sections, section)
		}
		return err
	}
	return nil
}

// Delete removes key and writes the file. An emptied section is dropped
// from the file. The key is restored when the file cannot be written.
func (s *ConfigStore) Delete(key string) error {
	section, name, err := splitKey(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	table := s.sections[section]
	prev, existed := table[name]
	if !existed {
		return nil
	}
	delete(table, name)
	if len(table) == 0 {
		delete(s.sections, section)
	}
	if err := s.save(); err != nil {
		table[name] = prev
		s.sections[section] = table
		return err
	}
	return nil
}

// Save writes the current settings to disk.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

// save writes config.toml with owner-only permissions. Callers hold mu.
func (s *ConfigStore) save() error {
	data, err := toml.Marshal(s.sections)
	if err != nil {
		return err
	}
	return os.WriteFile(s.filePath, data, 0600)
}

// Load rereads config.toml. A missing file is an empty configuration.
// Unknown sections, top-level scalars and tables nested inside a section are
// rejected so a typo cannot silently fall back to defaults.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if errors.Is(err, fs.ErrNotExist) {
		s.sections = make(map[string]map[string]any)
		return nil
	}
	if err != nil {
		return err
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing %s: %w", s.filePath, err)
	}
	sections, err := toSections(raw)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", s.filePath, err)
	}
	s.sections = sections
	return nil
}

// toSections checks a decoded file against the section.name layout.
func toSections(raw map[string]any) (map[string]map[string]any, error) {
	sections := make(map[string]map[string]any, len(raw))
	for section, value := range raw {
		table, ok := value.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: top-level key %q must be a [section] table", domain.ErrInvalidInput, section)
		}
		if !slices.Contains(Sections, section) {
			return nil, fmt.Errorf("%w: unknown section [%s]", domain.ErrInvalidInput, section)
		}
		for name, entry := range table {
			if _, nested := entry.(map[string]any); nested {
				return nil, fmt.Errorf("%w: [%s] %s is a table, want a value", domain.ErrInvalidInput, section, name)
			}
		}
		sections[section] = table
	}
	return sections, nil
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}
