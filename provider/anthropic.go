package provider

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"stockchat/config"
	"stockchat/mcp"
	"stockchat/model"
)

const (
	DefaultAnthropicBaseURL = "https://api.anthropic.com"
	anthropicMaxTokens      = 4096
)

// AnthropicProvider implements model.Provider using Anthropic's official API.
type AnthropicProvider struct {
	client  *anthropic.Client
	model   anthropic.Model
	baseURL string
}

// NewAnthropicProvider returns an error if the API key is missing.
func NewAnthropicProvider(baseURL, apiKey, model string) (*AnthropicProvider, error) {
	if baseURL == "" {
		baseURL = DefaultAnthropicBaseURL
	}
	if apiKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}

	m := anthropic.ModelClaudeSonnet4_5_20250929
	if model != "" {
		m = anthropic.Model(model)
	}

	client := anthropic.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)

	return &AnthropicProvider{
		client:  &client,
		model:   m,
		baseURL: baseURL,
	}, nil
}

func (p *AnthropicProvider) Chat(ctx context.Context, messages []model.Message, callback model.StreamCallback) error {
	return p.ChatWithTools(ctx, messages, nil, callback)
}

// ChatWithTools streams text deltas as they arrive. Tool calls are only
// complete once the stream ends, so they are delivered last.
func (p *AnthropicProvider) ChatWithTools(ctx context.Context, messages []model.Message, tools []mcptypes.Tool, callback model.StreamCallback) error {
	msgs, system := ConvertToAnthropicMessages(messages)

	params := anthropic.MessageNewParams{
		Model:     p.model,
		Messages:  msgs,
		MaxTokens: anthropicMaxTokens,
	}
	if len(system) > 0 {
		params.System = system
	}
	if len(tools) > 0 {
		params.Tools = mcp.ConvertMCPToolsToAnthropicFormat(tools)
	} else if used := calledTools(messages); len(used) > 0 {
		// tool_use and tool_result blocks are rejected unless their tools are
		// declared; "none" keeps the request a plain text turn.
		params.Tools = mcp.ConvertMCPToolsToAnthropicFormat(used)
		params.ToolChoice = anthropic.ToolChoiceUnionParam{OfNone: &anthropic.ToolChoiceNoneParam{}}
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Provider] Anthropic request: model=%s messages=%d tools=%d", p.model, len(msgs), len(tools))
	}

	stream := p.client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	msg := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := msg.Accumulate(event); err != nil {
			return fmt.Errorf("error accumulating message: %w", err)
		}

		if delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent); ok {
			if text, ok := delta.Delta.AsAny().(anthropic.TextDelta); ok && callback != nil {
				if err := callback(text.Text, nil); err != nil {
					return err
				}
			}
		}
	}

	if err := stream.Err(); err != nil {
		return fmt.Errorf("Anthropic streaming error: %w", err)
	}

	if callback != nil {
		if calls := extractToolCalls(msg.Content); len(calls) > 0 {
			return callback("", calls)
		}
	}
	return nil
}

func (p *AnthropicProvider) GetModel() string {
	return string(p.model)
}

func (p *AnthropicProvider) GetDisplayName() string {
	return string(p.model)
}

func (p *AnthropicProvider) SetModel(model string) {
	p.model = anthropic.Model(model)
}

// Ping sends a one-token request; Anthropic has no health endpoint.
func (p *AnthropicProvider) Ping(ctx context.Context) error {
	_, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: 1,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("ping")),
		},
	})
	if err != nil {
		return fmt.Errorf("Anthropic ping failed: %w", err)
	}
	return nil
}

func extractToolCalls(content []anthropic.ContentBlockUnion) []model.ToolCall {
	var calls []model.ToolCall
	for _, block := range content {
		toolUse, ok := block.AsAny().(anthropic.ToolUseBlock)
		if !ok {
			continue
		}
		calls = append(calls, model.ToolCall{
			ID:        toolUse.ID,
			Name:      toolUse.Name,
			Arguments: argumentsOrEmpty(string(toolUse.Input)),
		})
	}
	return calls
}

// calledTools declares every function the conversation has already called,
// once each, with an open object schema.
func calledTools(messages []model.Message) []mcptypes.Tool {
	var tools []mcptypes.Tool
	seen := make(map[string]bool)
	for _, msg := range messages {
		if msg.ToolCall == nil || seen[msg.ToolCall.Name] {
			continue
		}
		seen[msg.ToolCall.Name] = true
		tools = append(tools, mcptypes.Tool{
			Name: msg.ToolCall.Name,
			InputSchema: mcptypes.ToolInputSchema{
				Type:       "object",
				Properties: map[string]any{},
			},
		})
	}
	return tools
}
