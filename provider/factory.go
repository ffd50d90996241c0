package provider

import (
	"errors"
	"fmt"

	"stockchat/config"
	"stockchat/model"
)

// ErrMissingAPIKey is returned by FromConfig when a hosted provider has no key.
var ErrMissingAPIKey = errors.New("API key is not set")

// NewProvider creates a provider for cfg.Type.
func NewProvider(cfg Config) (model.Provider, error) {
	switch cfg.Type {
	case ProviderTypeOllama:
		return NewOllamaProvider(cfg.BaseURL, cfg.Model)
	case ProviderTypeOpenRouter:
		return NewOpenRouterProvider(cfg.BaseURL, cfg.APIKey, cfg.Model)
	case ProviderTypeOpenAI:
		return NewOpenAIProvider(cfg.BaseURL, cfg.APIKey, cfg.Model)
	case ProviderTypeAnthropic:
		return NewAnthropicProvider(cfg.BaseURL, cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown provider type: %s", cfg.Type)
	}
}

// FromConfig builds the provider selected in the application config.
func FromConfig(cfg *config.Config) (model.Provider, error) {
	if cfg.RequiresAPIKey() && cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: %w (set STOCKCHAT_API_KEY, api_key in settings.toml, or the API_KEY file)", cfg.Provider, ErrMissingAPIKey)
	}

	p, err := NewProvider(Config{
		Type:    MapProviderIDToType(cfg.Provider),
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model(),
		APIKey:  cfg.APIKey,
	})
	if err != nil {
		return nil, err
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Provider] Using %s with model %s", cfg.Provider, p.GetModel())
	}
	return p, nil
}

// MapProviderIDToType converts a config provider ID to its ProviderType.
// Unknown IDs pass through and fail in NewProvider.
func MapProviderIDToType(id string) ProviderType {
	switch id {
	case config.ProviderOllama:
		return ProviderTypeOllama
	case config.ProviderOpenRouter:
		return ProviderTypeOpenRouter
	case config.ProviderOpenAI:
		return ProviderTypeOpenAI
	case config.ProviderAnthropic:
		return ProviderTypeAnthropic
	default:
		return ProviderType(id)
	}
}
