package model

import "time"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleFunction  = "function"
)

// ToolCall is a function-call intent emitted by the chat service.
// Arguments holds the raw JSON object exactly as the model produced it.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Message represents a turn in the conversation
type Message struct {
	Role    string
	Content string

	// FunctionName is set on function turns and names the function whose
	// result Content carries.
	FunctionName string

	// ToolCall is set on the assistant turn that requested a function.
	ToolCall *ToolCall

	// ToolCallID links a function turn back to the assistant's ToolCall.
	ToolCallID string

	Timestamp time.Time
}

func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content, Timestamp: time.Now()}
}

func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content, Timestamp: time.Now()}
}

// NewToolCallMessage records the assistant turn that asked for call.
func NewToolCallMessage(call ToolCall) Message {
	c := call
	return Message{Role: RoleAssistant, ToolCall: &c, Timestamp: time.Now()}
}

// NewFunctionMessage records the result of call.
func NewFunctionMessage(call ToolCall, result string) Message {
	return Message{
		Role:         RoleFunction,
		Content:      result,
		FunctionName: call.Name,
		ToolCallID:   call.ID,
		Timestamp:    time.Now(),
	}
}
