package provider

import (
	"context"
	"fmt"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/ollama/ollama/api"

	"stockchat/config"
	"stockchat/mcp"
	"stockchat/model"
	"stockchat/ollama"
)

// OllamaProvider adapts ollama.Client to model.Provider.
type OllamaProvider struct {
	client *ollama.Client
}

func NewOllamaProvider(baseURL, model string) (*OllamaProvider, error) {
	client, err := ollama.NewClient(baseURL, model)
	if err != nil {
		return nil, fmt.Errorf("failed to create Ollama client: %w", err)
	}

	if !ollama.ModelSupportsToolCalling(client.GetModel()) && config.DebugLog != nil {
		config.DebugLog.Printf("[Provider] Ollama model %s is not known to support tool calling", client.GetModel())
	}

	return &OllamaProvider{client: client}, nil
}

func (p *OllamaProvider) Chat(ctx context.Context, messages []model.Message, callback model.StreamCallback) error {
	return p.ChatWithTools(ctx, messages, nil, callback)
}

// ChatWithTools converts messages and tools to Ollama types and back again
// for streamed tool calls, which arrive without IDs and get generated ones.
func (p *OllamaProvider) ChatWithTools(ctx context.Context, messages []model.Message, tools []mcptypes.Tool, callback model.StreamCallback) error {
	var ollamaTools []api.Tool
	if len(tools) > 0 {
		ollamaTools = mcp.ConvertMCPToolsToOllama(tools)
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Provider] Ollama request: model=%s messages=%d tools=%d", p.client.GetModel(), len(messages), len(tools))
	}

	err := p.client.ChatWithTools(ctx, ConvertToOllamaMessages(messages), ollamaTools, func(chunk string, calls []api.ToolCall) error {
		if callback == nil {
			return nil
		}
		return callback(chunk, ConvertFromOllamaToolCalls(calls))
	})
	if err != nil {
		return fmt.Errorf("Ollama chat failed: %w", err)
	}
	return nil
}

func (p *OllamaProvider) GetModel() string {
	return p.client.GetModel()
}

func (p *OllamaProvider) GetDisplayName() string {
	return p.client.GetModel()
}

func (p *OllamaProvider) SetModel(model string) {
	p.client.SetModel(model)
}

func (p *OllamaProvider) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx); err != nil {
		return fmt.Errorf("Ollama ping failed: %w", err)
	}
	return nil
}
