package model

import (
	"context"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// Provider abstracts chat-completion services (OpenAI, Anthropic, Ollama)
// behind stockchat's own message types.
//
// The interface lives in the model package rather than in provider so that
// provider implementations can import model without a cycle.
type Provider interface {
	// Chat sends messages and streams the response back via callback.
	Chat(ctx context.Context, messages []Message, callback StreamCallback) error

	// ChatWithTools sends messages with function schemas attached. Any
	// function call the model makes is delivered through the callback.
	ChatWithTools(ctx context.Context, messages []Message, tools []mcptypes.Tool, callback StreamCallback) error

	// GetModel returns the model name used for API calls.
	GetModel() string

	// GetDisplayName returns the model name formatted for the status bar.
	GetDisplayName() string

	SetModel(model string)

	// Ping checks that the service is reachable and the credentials work.
	Ping(ctx context.Context) error
}

// StreamCallback is called for each chunk of a streamed response. A chunk
// carries text, tool calls, or both.
type StreamCallback func(chunk string, toolCalls []ToolCall) error
