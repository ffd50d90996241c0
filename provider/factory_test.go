package provider

import (
	"errors"
	"testing"

	"stockchat/config"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
		wantType    string
	}{
		{
			name:     "ollama provider with defaults",
			config:   Config{Type: ProviderTypeOllama},
			wantType: "*provider.OllamaProvider",
		},
		{
			name: "openai provider",
			config: Config{
				Type:   ProviderTypeOpenAI,
				Model:  "gpt-4o-mini",
				APIKey: "test-key",
			},
			wantType: "*provider.OpenAIProvider",
		},
		{
			name:     "openrouter provider",
			config:   Config{Type: ProviderTypeOpenRouter, APIKey: "test-key"},
			wantType: "*provider.OpenRouterProvider",
		},
		{
			name: "anthropic provider",
			config: Config{
				Type:   ProviderTypeAnthropic,
				Model:  "claude-sonnet-4-5-20250929",
				APIKey: "test-key",
			},
			wantType: "*provider.AnthropicProvider",
		},
		{
			name:        "openai without key",
			config:      Config{Type: ProviderTypeOpenAI},
			expectError: true,
		},
		{
			name:        "unknown provider type",
			config:      Config{Type: ProviderType("unknown")},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.config)
			if tt.expectError {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := typeName(p); got != tt.wantType {
				t.Errorf("NewProvider() type = %s, want %s", got, tt.wantType)
			}
		})
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *OllamaProvider:
		return "*provider.OllamaProvider"
	case *OpenAIProvider:
		return "*provider.OpenAIProvider"
	case *OpenRouterProvider:
		return "*provider.OpenRouterProvider"
	case *AnthropicProvider:
		return "*provider.AnthropicProvider"
	}
	return "unknown"
}

func TestProviderDefaults(t *testing.T) {
	openai, err := NewOpenAIProvider("", "k", "")
	if err != nil {
		t.Fatal(err)
	}
	if openai.GetModel() != DefaultOpenAIModel {
		t.Errorf("OpenAI default model = %q, want %q", openai.GetModel(), DefaultOpenAIModel)
	}

	router, err := NewOpenRouterProvider("", "k", "meta-llama/llama-3.1-70b-instruct")
	if err != nil {
		t.Fatal(err)
	}
	if router.GetDisplayName() != "llama-3.1-70b-instruct" {
		t.Errorf("OpenRouter display name = %q", router.GetDisplayName())
	}
	if router.GetModel() != "meta-llama/llama-3.1-70b-instruct" {
		t.Errorf("OpenRouter model = %q", router.GetModel())
	}
}

func TestFromConfig(t *testing.T) {
	cfg := &config.Config{Provider: config.ProviderOpenAI, ModelName: "gpt-3.5-turbo"}
	if _, err := FromConfig(cfg); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("FromConfig() without key error = %v, want ErrMissingAPIKey", err)
	}

	cfg.APIKey = "sk-test"
	p, err := FromConfig(cfg)
	if err != nil {
		t.Fatalf("FromConfig() error = %v", err)
	}
	if p.GetModel() != "gpt-3.5-turbo" {
		t.Errorf("model = %q", p.GetModel())
	}

	// Ollama runs locally and needs no key
	local := &config.Config{Provider: config.ProviderOllama}
	if _, err := FromConfig(local); err != nil {
		t.Errorf("FromConfig(ollama) error = %v", err)
	}
}

func TestMapProviderIDToType(t *testing.T) {
	tests := map[string]ProviderType{
		"ollama":     ProviderTypeOllama,
		"openrouter": ProviderTypeOpenRouter,
		"openai":     ProviderTypeOpenAI,
		"anthropic":  ProviderTypeAnthropic,
		"cohere":     ProviderType("cohere"),
	}
	for id, want := range tests {
		if got := MapProviderIDToType(id); got != want {
			t.Errorf("MapProviderIDToType(%q) = %q, want %q", id, got, want)
		}
	}
}

func TestStripProviderPrefix(t *testing.T) {
	tests := []struct{ in, want string }{
		{"anthropic/claude-3.5-sonnet", "claude-3.5-sonnet"},
		{"gpt-3.5-turbo", "gpt-3.5-turbo"},
		{"a/b/c", "b/c"},
	}
	for _, tt := range tests {
		if got := stripProviderPrefix(tt.in); got != tt.want {
			t.Errorf("stripProviderPrefix(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
