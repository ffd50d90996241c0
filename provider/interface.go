// Package provider implements model.Provider for the supported chat services.
//
// OpenAI and OpenRouter share the OpenAI SDK. Anthropic uses its own SDK with
// tool_use and tool_result blocks, and Ollama goes through the ollama package.
// Function schemas arrive as MCP tools and are converted per service by the
// mcp package.
//
// The Provider interface itself lives in model to avoid an import cycle.
package provider

type ProviderType string

const (
	ProviderTypeOllama     ProviderType = "ollama"
	ProviderTypeOpenRouter ProviderType = "openrouter"
	ProviderTypeOpenAI     ProviderType = "openai"
	ProviderTypeAnthropic  ProviderType = "anthropic"
)

// Config holds provider-specific configuration.
type Config struct {
	Type    ProviderType
	BaseURL string
	Model   string
	APIKey  string // unused for Ollama
}
