package driven

// ConfigStore is the key/value view of config.toml the settings service
// edits. Keys are dotted paths such as "generation.provider" or
// "chunking.size".
//
// Typed getters return the zero value when a key is missing or holds an
// incompatible type, so callers apply their own defaults.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int

	// GetFloat widens integer values.
	GetFloat(key string) float64
	GetBool(key string) bool

	// Set changes the value in memory only; call Save to persist it.
	Set(key string, value any) error

	Load() error
	Save() error

	// Path is the backing file; in-memory stores return ":memory:".
	Path() string
}
