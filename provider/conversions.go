package provider

import (
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/google/uuid"
	"github.com/ollama/ollama/api"
	"github.com/openai/openai-go/v3"

	"stockchat/model"
)

// ConvertToOpenAIMessages maps conversation turns onto chat completion
// messages. A function turn becomes a tool message linked by call ID.
func ConvertToOpenAIMessages(messages []model.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case model.RoleAssistant:
			if msg.ToolCall == nil {
				out = append(out, openai.AssistantMessage(msg.Content))
				continue
			}
			asst := openai.ChatCompletionAssistantMessageParam{
				ToolCalls: []openai.ChatCompletionMessageToolCallUnionParam{{
					OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
						ID: msg.ToolCall.ID,
						Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
							Name:      msg.ToolCall.Name,
							Arguments: argumentsOrEmpty(msg.ToolCall.Arguments),
						},
					},
				}},
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &asst})
		case model.RoleFunction:
			out = append(out, openai.ToolMessage(msg.Content, msg.ToolCallID))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}

// ConvertToAnthropicMessages returns the message list and the system blocks,
// which Anthropic takes as a separate parameter.
func ConvertToAnthropicMessages(messages []model.Message) ([]anthropic.MessageParam, []anthropic.TextBlockParam) {
	var system []anthropic.TextBlockParam
	out := make([]anthropic.MessageParam, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: msg.Content})
		case model.RoleAssistant:
			if msg.ToolCall == nil {
				out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
				continue
			}
			input := json.RawMessage(argumentsOrEmpty(msg.ToolCall.Arguments))
			out = append(out, anthropic.NewAssistantMessage(
				anthropic.NewToolUseBlock(msg.ToolCall.ID, input, msg.ToolCall.Name),
			))
		case model.RoleFunction:
			out = append(out, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, false),
			))
		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	return out, system
}

// ConvertToOllamaMessages maps conversation turns onto Ollama chat messages.
// Ollama has no call IDs; a function turn is matched by tool name.
func ConvertToOllamaMessages(messages []model.Message) []api.Message {
	out := make([]api.Message, 0, len(messages))
	for _, msg := range messages {
		m := api.Message{Role: msg.Role, Content: msg.Content}
		switch {
		case msg.Role == model.RoleAssistant && msg.ToolCall != nil:
			m.ToolCalls = []api.ToolCall{{
				Function: api.ToolCallFunction{
					Name:      msg.ToolCall.Name,
					Arguments: ParseToolArguments(msg.ToolCall.Arguments),
				},
			}}
		case msg.Role == model.RoleFunction:
			m.Role = "tool"
			m.ToolName = msg.FunctionName
		}
		out = append(out, m)
	}
	return out
}

// ConvertFromOllamaToolCalls converts Ollama tool calls, assigning each a
// fresh ID and re-serialising its argument map.
func ConvertFromOllamaToolCalls(calls []api.ToolCall) []model.ToolCall {
	if len(calls) == 0 {
		return nil
	}

	out := make([]model.ToolCall, len(calls))
	for i, call := range calls {
		args, err := json.Marshal(call.Function.Arguments)
		if err != nil || call.Function.Arguments == nil {
			args = []byte("{}")
		}
		out[i] = model.ToolCall{
			ID:        "call_" + uuid.NewString(),
			Name:      call.Function.Name,
			Arguments: string(args),
		}
	}
	return out
}

// ParseToolArguments parses a JSON arguments string into a map. Malformed
// input yields an empty map.
func ParseToolArguments(argsJSON string) map[string]any {
	var args map[string]any
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil || args == nil {
		return make(map[string]any)
	}
	return args
}

func argumentsOrEmpty(args string) string {
	if args == "" {
		return "{}"
	}
	return args
}
