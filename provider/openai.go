package provider

import (
	"context"
	"fmt"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"stockchat/config"
	"stockchat/mcp"
	"stockchat/model"
)

const (
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultOpenAIModel   = "gpt-3.5-turbo"
)

// OpenAIProvider implements model.Provider with the official OpenAI Go SDK.
// OpenRouter reuses it with a different base URL.
type OpenAIProvider struct {
	client  openai.Client
	model   string
	baseURL string
	name    string
}

// NewOpenAIProvider returns an error if the API key is missing.
func NewOpenAIProvider(baseURL, apiKey, model string) (*OpenAIProvider, error) {
	return newOpenAICompatible("OpenAI", baseURL, DefaultOpenAIBaseURL, apiKey, model, DefaultOpenAIModel)
}

func newOpenAICompatible(name, baseURL, defaultURL, apiKey, model, defaultModel string) (*OpenAIProvider, error) {
	if baseURL == "" {
		baseURL = defaultURL
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%s API key is required", name)
	}
	if model == "" {
		model = defaultModel
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)

	return &OpenAIProvider{
		client:  client,
		model:   model,
		baseURL: baseURL,
		name:    name,
	}, nil
}

func (p *OpenAIProvider) Chat(ctx context.Context, messages []model.Message, callback model.StreamCallback) error {
	return p.ChatWithTools(ctx, messages, nil, callback)
}

// ChatWithTools streams a completion. Text deltas are delivered as they
// arrive and each tool call once its arguments are complete.
func (p *OpenAIProvider) ChatWithTools(ctx context.Context, messages []model.Message, tools []mcptypes.Tool, callback model.StreamCallback) error {
	params := openai.ChatCompletionNewParams{
		Messages: ConvertToOpenAIMessages(messages),
		Model:    openai.ChatModel(p.model),
	}
	if len(tools) > 0 {
		params.Tools = mcp.ConvertMCPToolsToOpenAIFormat(tools)
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Provider] %s request: model=%s messages=%d tools=%d", p.name, p.model, len(messages), len(tools))
	}

	stream := p.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	acc := openai.ChatCompletionAccumulator{}
	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)

		if tool, ok := acc.JustFinishedToolCall(); ok && callback != nil {
			call := model.ToolCall{
				ID:        tool.ID,
				Name:      tool.Name,
				Arguments: tool.Arguments,
			}
			if err := callback("", []model.ToolCall{call}); err != nil {
				return err
			}
		}

		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" && callback != nil {
			if err := callback(chunk.Choices[0].Delta.Content, nil); err != nil {
				return err
			}
		}
	}

	if err := stream.Err(); err != nil {
		return fmt.Errorf("%s streaming error: %w", p.name, err)
	}
	return nil
}

func (p *OpenAIProvider) GetModel() string {
	return p.model
}

func (p *OpenAIProvider) GetDisplayName() string {
	return p.model
}

func (p *OpenAIProvider) SetModel(model string) {
	p.model = model
}

// Ping lists models, which checks both reachability and the key.
func (p *OpenAIProvider) Ping(ctx context.Context) error {
	if _, err := p.client.Models.List(ctx); err != nil {
		return fmt.Errorf("%s ping failed: %w", p.name, err)
	}
	return nil
}
