package testutil

import (
	"time"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"stockchat/model"
)

// TestMessages returns a conversation that went through one value function.
func TestMessages() []model.Message {
	call := SMACall()
	return []model.Message{
		{Role: model.RoleSystem, Content: "You are a stock analysis assistant.", Timestamp: time.Now()},
		{Role: model.RoleUser, Content: "What is the 20 day SMA of AAPL?", Timestamp: time.Now()},
		model.NewToolCallMessage(call),
		model.NewFunctionMessage(call, "187.42"),
		{Role: model.RoleAssistant, Content: "The 20-day SMA for AAPL is 187.42.", Timestamp: time.Now()},
	}
}

// SingleUserMessage returns a single user message for simple tests
func SingleUserMessage(content string) []model.Message {
	return []model.Message{model.NewUserMessage(content)}
}

func SMACall() model.ToolCall {
	return model.ToolCall{
		ID:        "call_sma_1",
		Name:      "calculate_SMA",
		Arguments: `{"ticker":"AAPL","window":20}`,
	}
}

// TestMCPTools returns two tools shaped like registry functions.
func TestMCPTools() []mcptypes.Tool {
	return []mcptypes.Tool{
		{
			Name:        "get_stock_price",
			Description: "Gets the latest stock price given the ticker symbol of a company.",
			InputSchema: mcptypes.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"ticker": map[string]any{
						"type":        "string",
						"description": "The stock ticker symbol for a company (for example AAPL for Apple).",
					},
				},
				Required: []string{"ticker"},
			},
		},
		{
			Name:        "calculate_SMA",
			Description: "Calculate the simple moving average for a given stock ticker and a window.",
			InputSchema: mcptypes.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"ticker": map[string]any{"type": "string"},
					"window": map[string]any{"type": "integer"},
				},
				Required: []string{"ticker", "window"},
			},
		},
	}
}
