package provider

import "strings"

const (
	DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	DefaultOpenRouterModel   = "openai/gpt-3.5-turbo"
)

// OpenRouterProvider talks to OpenRouter through the OpenAI SDK. Only the
// defaults and the display name differ from OpenAIProvider.
type OpenRouterProvider struct {
	*OpenAIProvider
}

func NewOpenRouterProvider(baseURL, apiKey, model string) (*OpenRouterProvider, error) {
	p, err := newOpenAICompatible("OpenRouter", baseURL, DefaultOpenRouterBaseURL, apiKey, model, DefaultOpenRouterModel)
	if err != nil {
		return nil, err
	}
	return &OpenRouterProvider{OpenAIProvider: p}, nil
}

// GetDisplayName returns the model without its vendor prefix.
func (p *OpenRouterProvider) GetDisplayName() string {
	return stripProviderPrefix(p.model)
}

// stripProviderPrefix turns "meta-llama/llama-3.1-70b" into "llama-3.1-70b".
func stripProviderPrefix(modelName string) string {
	if idx := strings.Index(modelName, "/"); idx != -1 {
		return modelName[idx+1:]
	}
	return modelName
}
