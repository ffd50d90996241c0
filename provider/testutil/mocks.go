package testutil

import (
	"context"
	"sync"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"stockchat/model"
)

// Request records one call made to a MockProvider.
type Request struct {
	Messages []model.Message
	Tools    []mcptypes.Tool
}

// MockProvider implements model.Provider for testing. Replace the function
// fields to script responses.
type MockProvider struct {
	ChatFunc          func(ctx context.Context, messages []model.Message, callback model.StreamCallback) error
	ChatWithToolsFunc func(ctx context.Context, messages []model.Message, tools []mcptypes.Tool, callback model.StreamCallback) error
	PingFunc          func(ctx context.Context) error

	mu           sync.Mutex
	requests     []Request
	currentModel string
}

// NewMockProvider creates a mock provider that answers every call with a
// fixed text response.
func NewMockProvider(modelName string) *MockProvider {
	mock := &MockProvider{currentModel: modelName}
	mock.ChatFunc = func(ctx context.Context, messages []model.Message, callback model.StreamCallback) error {
		return callback("Mock response", nil)
	}
	mock.ChatWithToolsFunc = func(ctx context.Context, messages []model.Message, tools []mcptypes.Tool, callback model.StreamCallback) error {
		return callback("Mock response with tools", nil)
	}
	mock.PingFunc = func(ctx context.Context) error { return nil }
	return mock
}

// Stream returns a ChatWithToolsFunc that emits the given chunks in order.
func Stream(chunks ...string) func(context.Context, []model.Message, []mcptypes.Tool, model.StreamCallback) error {
	return func(ctx context.Context, messages []model.Message, tools []mcptypes.Tool, callback model.StreamCallback) error {
		for _, c := range chunks {
			if err := callback(c, nil); err != nil {
				return err
			}
		}
		return nil
	}
}

// CallTool returns a ChatWithToolsFunc that streams optional text and then
// requests each call.
func CallTool(text string, calls ...model.ToolCall) func(context.Context, []model.Message, []mcptypes.Tool, model.StreamCallback) error {
	return func(ctx context.Context, messages []model.Message, tools []mcptypes.Tool, callback model.StreamCallback) error {
		if text != "" {
			if err := callback(text, nil); err != nil {
				return err
			}
		}
		for _, c := range calls {
			if err := callback("", []model.ToolCall{c}); err != nil {
				return err
			}
		}
		return nil
	}
}

func (m *MockProvider) record(messages []model.Message, tools []mcptypes.Tool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, Request{
		Messages: append([]model.Message(nil), messages...),
		Tools:    tools,
	})
}

// Requests returns every recorded call in order.
func (m *MockProvider) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

func (m *MockProvider) Chat(ctx context.Context, messages []model.Message, callback model.StreamCallback) error {
	m.record(messages, nil)
	return m.ChatFunc(ctx, messages, callback)
}

func (m *MockProvider) ChatWithTools(ctx context.Context, messages []model.Message, tools []mcptypes.Tool, callback model.StreamCallback) error {
	m.record(messages, tools)
	return m.ChatWithToolsFunc(ctx, messages, tools, callback)
}

func (m *MockProvider) GetModel() string {
	return m.currentModel
}

func (m *MockProvider) GetDisplayName() string {
	return m.currentModel
}

func (m *MockProvider) SetModel(model string) {
	m.currentModel = model
}

func (m *MockProvider) Ping(ctx context.Context) error {
	return m.PingFunc(ctx)
}
