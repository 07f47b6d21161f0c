package driven

// AIConfigStore provides the engine's AI configuration, an opaque TOML
// document the user may edit.
type AIConfigStore interface {
	// Load returns the configuration, falling back to the built-in default.
	Load() (string, error)
}
