package services

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyGenProvider    = "generation.provider"
	keyGenModel       = "generation.model"
	keyGenBaseURL     = "generation.base_url"
	keyGenAPIKey      = "generation.api_key"
	keyGenTimeout     = "generation.timeout_seconds"
	keyGenMaxTokens   = "generation.max_tokens"
	keyGenTemperature = "generation.temperature"
	keyGenRPS         = "generation.requests_per_second"

	keyChunkSize    = "chunking.size"
	keyChunkOverlap = "chunking.overlap"

	keyTopK = "retrieval.top_k"

	keyCacheTTL      = "cache.ttl_seconds"
	keyCacheCapacity = "cache.capacity"

	keyBreakerWindow   = "breaker.window"
	keyBreakerRatio    = "breaker.failure_ratio"
	keyBreakerOpen     = "breaker.open_seconds"
	keyBreakerHalfOpen = "breaker.half_open_calls"
	keyBreakerInterval = "breaker.interval_seconds"

	keyHistoryRetention = "history.retention_days"

	keySchedulerEnabled = "scheduler.enabled"
	keyRebuildMinutes   = "scheduler.index_rebuild_minutes"
	keyPruneMinutes     = "scheduler.history_prune_minutes"

	keyStorageBackend = "storage.backend"
)

// defaultOllamaURL is used when Ollama is selected without a base URL.
const defaultOllamaURL = "http://localhost:11434"

// SettingsService maps flat config keys onto domain.AppSettings.
type SettingsService struct {
	configStore driven.ConfigStore
	validator   driven.GenerationValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, validator driven.GenerationValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		validator:   validator,
	}
}

// Get retrieves current application settings, filling unset keys with defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Generation: domain.GenerationSettings{
			Provider:          s.getProvider(keyGenProvider, d.Generation.Provider),
			Model:             s.configStore.GetString(keyGenModel),
			BaseURL:           s.configStore.GetString(keyGenBaseURL),
			APIKey:            s.configStore.GetString(keyGenAPIKey),
			Timeout:           s.getSeconds(keyGenTimeout, d.Generation.Timeout),
			MaxTokens:         s.getInt(keyGenMaxTokens, d.Generation.MaxTokens),
			Temperature:       s.getFloat(keyGenTemperature, d.Generation.Temperature),
			RequestsPerSecond: s.getFloat(keyGenRPS, d.Generation.RequestsPerSecond),
		},
		Chunking: domain.ChunkingSettings{
			Size:    s.getInt(keyChunkSize, d.Chunking.Size),
			Overlap: s.getInt(keyChunkOverlap, d.Chunking.Overlap),
		},
		Retrieval: domain.RetrievalSettings{
			TopK: s.getInt(keyTopK, d.Retrieval.TopK),
		},
		Cache: domain.CacheSettings{
			TTL:      s.getSeconds(keyCacheTTL, d.Cache.TTL),
			Capacity: s.getInt(keyCacheCapacity, d.Cache.Capacity),
		},
		Breaker: domain.BreakerSettings{
			Window:        s.getInt(keyBreakerWindow, d.Breaker.Window),
			FailureRatio:  s.getFloat(keyBreakerRatio, d.Breaker.FailureRatio),
			OpenTimeout:   s.getSeconds(keyBreakerOpen, d.Breaker.OpenTimeout),
			HalfOpenCalls: s.getInt(keyBreakerHalfOpen, d.Breaker.HalfOpenCalls),
			Interval:      s.getSeconds(keyBreakerInterval, d.Breaker.Interval),
		},
		History: domain.HistorySettings{
			RetentionDays: s.getInt(keyHistoryRetention, d.History.RetentionDays),
		},
		Storage:   s.getStorage(d.Storage),
		Scheduler: s.GetSchedulerConfig(),
	}

	// An explicit zero overlap is meaningful.
	if _, ok := s.configStore.Get(keyChunkOverlap); ok {
		settings.Chunking.Overlap = s.configStore.GetInt(keyChunkOverlap)
	}
	if _, ok := s.configStore.Get(keyHistoryRetention); ok {
		settings.History.RetentionDays = s.configStore.GetInt(keyHistoryRetention)
	}
	if settings.Generation.Model == "" {
		settings.Generation.Model = domain.DefaultGenerationModels()[settings.Generation.Provider]
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyGenProvider, settings.Generation.Provider.String()},
		{keyGenModel, settings.Generation.Model},
		{keyGenBaseURL, settings.Generation.BaseURL},
		{keyGenTimeout, int(settings.Generation.Timeout / time.Second)},
		{keyGenMaxTokens, settings.Generation.MaxTokens},
		{keyGenTemperature, settings.Generation.Temperature},
		{keyGenRPS, settings.Generation.RequestsPerSecond},
		{keyChunkSize, settings.Chunking.Size},
		{keyChunkOverlap, settings.Chunking.Overlap},
		{keyTopK, settings.Retrieval.TopK},
		{keyCacheTTL, int(settings.Cache.TTL / time.Second)},
		{keyCacheCapacity, settings.Cache.Capacity},
		{keyBreakerWindow, settings.Breaker.Window},
		{keyBreakerRatio, settings.Breaker.FailureRatio},
		{keyBreakerOpen, int(settings.Breaker.OpenTimeout / time.Second)},
		{keyBreakerHalfOpen, settings.Breaker.HalfOpenCalls},
		{keyBreakerInterval, int(settings.Breaker.Interval / time.Second)},
		{keyHistoryRetention, settings.History.RetentionDays},
		{keyStorageBackend, string(settings.Storage)},
		{keySchedulerEnabled, settings.Scheduler.Enabled},
		{keyRebuildMinutes, taskMinutes(settings.Scheduler.GetTaskConfig(domain.TaskIDIndexRebuild))},
		{keyPruneMinutes, taskMinutes(settings.Scheduler.GetTaskConfig(domain.TaskIDHistoryPrune))},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// An empty key never clears a stored one.
	if settings.Generation.APIKey != "" {
		if err := s.configStore.Set(keyGenAPIKey, settings.Generation.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", keyGenAPIKey, err)
		}
	}

	return s.configStore.Save()
}

// SetGenerationProvider configures the generation backend.
func (s *SettingsService) SetGenerationProvider(provider domain.AIProvider, model, apiKey, baseURL string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid generation provider: %s", domain.ErrInvalidInput, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Generation.Provider = provider
	settings.Generation.Model = model
	if model == "" {
		settings.Generation.Model = domain.DefaultGenerationModels()[provider]
	}

	settings.Generation.BaseURL = baseURL
	if provider == domain.AIProviderOllama && baseURL == "" {
		settings.Generation.BaseURL = defaultOllamaURL
	}
	settings.Generation.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks that current settings are usable and reports every
// problem found.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	var errs *multierror.Error
	add := func(format string, args ...any) {
		errs = multierror.Append(errs, fmt.Errorf("%w: "+format, append([]any{domain.ErrInvalidInput}, args...)...))
	}

	if raw := s.configStore.GetString(keyGenProvider); raw != "" && !domain.AIProvider(raw).IsValid() {
		add("unknown generation provider %q", raw)
	}
	g := settings.Generation
	if g.Provider.IsValid() && g.Provider.RequiresAPIKey() && g.APIKey == "" {
		add("generation provider %s requires an API key", g.Provider)
	}
	if g.Temperature < 0 || g.Temperature > 2 {
		add("generation.temperature must be within [0, 2], got %g", g.Temperature)
	}
	if settings.Chunking.Size <= 0 {
		add("chunking.size must be positive, got %d", settings.Chunking.Size)
	}
	if settings.Chunking.Overlap < 0 || settings.Chunking.Overlap >= settings.Chunking.Size {
		add("chunking.overlap must be within [0, size), got %d", settings.Chunking.Overlap)
	}
	if settings.Retrieval.TopK <= 0 {
		add("retrieval.top_k must be positive, got %d", settings.Retrieval.TopK)
	}
	if r := settings.Breaker.FailureRatio; r <= 0 || r > 1 {
		add("breaker.failure_ratio must be within (0, 1], got %g", r)
	}
	if raw := s.configStore.GetString(keyStorageBackend); raw != "" && !domain.StorageBackend(raw).IsValid() {
		add("unknown storage backend %q", raw)
	}

	return errs.ErrorOrNil()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateGenerationConfig pings the configured generation backend.
func (s *SettingsService) ValidateGenerationConfig() error {
	if s.validator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.validator.ValidateGeneration(&settings.Generation)
}

// GetSchedulerConfig returns the scheduler configuration.
// A task interval of zero or less disables that task.
func (s *SettingsService) GetSchedulerConfig() domain.SchedulerConfig {
	cfg := domain.DefaultSchedulerConfig()

	if _, exists := s.configStore.Get(keySchedulerEnabled); exists {
		cfg.Enabled = s.configStore.GetBool(keySchedulerEnabled)
	}

	taskKeys := map[string]string{
		domain.TaskIDIndexRebuild: keyRebuildMinutes,
		domain.TaskIDHistoryPrune: keyPruneMinutes,
	}
	for taskID, key := range taskKeys {
		if _, exists := s.configStore.Get(key); !exists {
			continue
		}
		taskCfg := cfg.TaskConfigs[taskID]
		minutes := s.configStore.GetInt(key)
		taskCfg.Enabled = minutes > 0
		if minutes > 0 {
			taskCfg.Interval = time.Duration(minutes) * time.Minute
		}
		cfg.TaskConfigs[taskID] = taskCfg
	}

	return cfg
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getSeconds(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return time.Duration(val) * time.Second
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	provider := domain.AIProvider(s.configStore.GetString(key))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getStorage(defaultVal domain.StorageBackend) domain.StorageBackend {
	backend := domain.StorageBackend(s.configStore.GetString(keyStorageBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

func taskMinutes(cfg domain.TaskConfig) int {
	if !cfg.Enabled {
		return 0
	}
	return int(cfg.Interval / time.Minute)
}
