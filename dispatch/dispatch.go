// Package dispatch runs one user interaction: it asks the chat service for
// a reply with the function table attached, executes at most one requested
// function, and folds the outcome back into the conversation.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"stockchat/config"
	"stockchat/mcp"
	"stockchat/metrics"
	"stockchat/model"
	"stockchat/registry"
)

const DefaultTimeout = 120 * time.Second

type ResultKind int

const (
	Text ResultKind = iota
	Artifact
	Failed
)

func (k ResultKind) String() string {
	switch k {
	case Text:
		return "text"
	case Artifact:
		return "artifact"
	default:
		return "error"
	}
}

// Result is what the display layer renders for one interaction.
type Result struct {
	Kind ResultKind

	// Text is the assistant reply for Text results.
	Text string

	// Path is the written file for Artifact results.
	Path string

	// Function names the function that ran, if any.
	Function string

	Err *Error
}

type Option func(*Dispatcher)

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithTimeout bounds each chat service call.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// Dispatcher is the only writer of its conversation. Handle must not be
// called concurrently.
type Dispatcher struct {
	provider model.Provider
	registry *registry.Registry
	conv     *model.Conversation
	metrics  *metrics.Metrics
	timeout  time.Duration
	tools    []mcptypes.Tool
}

func New(p model.Provider, reg *registry.Registry, conv *model.Conversation, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		provider: p,
		registry: reg,
		conv:     conv,
		timeout:  DefaultTimeout,
		tools:    mcp.ToolsFromSpecs(reg.AllSpecs()),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle processes one user message. It never panics on collaborator
// failures; every failure comes back as a Failed result and leaves the
// conversation as it was before the call.
func (d *Dispatcher) Handle(ctx context.Context, userText string) Result {
	mark := d.conv.Len()
	d.conv.Append(model.NewUserMessage(userText))
	logf("Start: %d turns in context", mark+1)

	res := d.handle(ctx)
	if res.Kind == Failed {
		if err := d.conv.Truncate(mark); err != nil {
			logf("Rollback failed: %v", err)
		}
		logf("Error: %v", res.Err)
	}

	d.metrics.ObserveOutcome(outcomeLabel(res))
	return res
}

func (d *Dispatcher) handle(ctx context.Context) Result {
	content, call, err := d.chat(ctx, "decision", d.tools)
	if err != nil {
		return failed(newError(ServiceFailure, "", err))
	}

	if call == nil {
		logf("DirectAnswer: %d chars", len(content))
		d.conv.Append(model.NewAssistantMessage(content))
		return Result{Kind: Text, Text: content}
	}

	if call.ID == "" {
		call.ID = "call_" + uuid.NewString()
	}
	if content != "" {
		logf("AwaitingDecision: discarding %d chars of content in favour of %s", len(content), call.Name)
	}
	return d.invoke(ctx, *call)
}

func (d *Dispatcher) invoke(ctx context.Context, call model.ToolCall) Result {
	logf("Validating: %s %s", call.Name, call.Arguments)

	spec, handler, err := d.registry.Resolve(call.Name)
	if err != nil {
		e := newError(UnknownFunction, call.Name, err)
		if s := d.registry.Suggest(call.Name); s != "" {
			e.Message = fmt.Sprintf("%s (did you mean %s?)", e.Message, s)
		}
		return failed(e)
	}

	args, err := registry.Validate(spec, call.Arguments)
	if err != nil {
		kind := InvalidArguments
		if errors.Is(err, registry.ErrMissingArgument) {
			kind = MissingArgument
		}
		return failed(newError(kind, call.Name, err))
	}

	logf("Invoking: %s", call.Name)
	out, err := handler(ctx, args)
	d.metrics.ObserveFunction(call.Name, err)
	if err != nil {
		return failed(newError(ExecutionFailure, call.Name, fmt.Errorf("%s: %w", call.Name, err)))
	}

	if spec.Category == registry.ArtifactProducing {
		path := out
		if path == "" {
			path = spec.ArtifactPath
		}
		logf("RenderArtifact: %s", path)
		return Result{Kind: Artifact, Path: path, Function: call.Name}
	}

	logf("Summarize: %s returned %q", call.Name, out)
	d.conv.Append(model.NewToolCallMessage(call), model.NewFunctionMessage(call, out))

	reply, _, err := d.chat(ctx, "summary", nil)
	if err != nil {
		return failed(newError(ServiceFailure, call.Name, err))
	}
	d.conv.Append(model.NewAssistantMessage(reply))
	return Result{Kind: Text, Text: reply, Function: call.Name}
}

// chat sends the current conversation and collects the streamed reply. Only
// the first tool call is kept.
func (d *Dispatcher) chat(ctx context.Context, phase string, tools []mcptypes.Tool) (string, *model.ToolCall, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var (
		content strings.Builder
		first   *model.ToolCall
	)
	callback := func(chunk string, calls []model.ToolCall) error {
		content.WriteString(chunk)
		if first == nil && len(calls) > 0 {
			c := calls[0]
			first = &c
		}
		return nil
	}

	start := time.Now()
	var err error
	if tools != nil {
		err = d.provider.ChatWithTools(ctx, d.conv.Snapshot(), tools, callback)
	} else {
		err = d.provider.Chat(ctx, d.conv.Snapshot(), callback)
	}
	d.metrics.ObserveChat(phase, start)

	if err != nil {
		return "", nil, fmt.Errorf("chat service %s call failed: %w", phase, err)
	}
	return content.String(), first, nil
}

func failed(e *Error) Result {
	return Result{Kind: Failed, Err: e, Function: e.Function}
}

func outcomeLabel(r Result) string {
	if r.Kind == Failed {
		return r.Err.Kind.String()
	}
	return r.Kind.String()
}

func logf(format string, args ...any) {
	if config.DebugLog != nil {
		config.DebugLog.Printf("[Dispatch] "+format, args...)
	}
}
