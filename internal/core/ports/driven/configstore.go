package driven

// ConfigStore provides access to the feedsync settings file.
// Keys use dot notation, for example "feed.max_documents". Typed getters
// return the zero value for a missing key or a value of the wrong type, so
// callers apply their own defaults.
type ConfigStore interface {
	// Get returns the raw value and whether the key exists.
	Get(key string) (any, bool)

	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool

	// GetStringSlice accepts both []string and []any of strings, since
	// decoded TOML arrays arrive as the latter.
	GetStringSlice(key string) []string

	// Set stores a value and persists it immediately.
	Set(key string, value any) error

	// Delete removes a key and persists the change. Deleting a missing key
	// is not an error.
	Delete(key string) error

	// Save persists the current configuration.
	Save() error

	// Load re-reads configuration from storage.
	Load() error

	// Path returns where the configuration is stored.
	Path() string
}
