package driving

import "github.com/custodia-labs/sercha-rag/internal/core/domain"

// SettingsService reads and edits config.toml on behalf of the settings
// command and the TUI settings view. Changes apply on the next start.
type SettingsService interface {
	Get() (*domain.AppSettings, error)
	GetDefaults() domain.AppSettings

	// Save writes settings back to the config store.
	Save(settings *domain.AppSettings) error

	// SetGenerationProvider switches backend in one step. Empty model or
	// baseURL fall back to the provider's defaults.
	SetGenerationProvider(provider domain.AIProvider, model, apiKey, baseURL string) error

	// Validate reports every problem in the stored settings, joined.
	Validate() error

	// ValidateGenerationConfig pings the configured backend.
	ValidateGenerationConfig() error
}
