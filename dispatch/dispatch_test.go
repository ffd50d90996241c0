package dispatch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"

	"stockchat/functions"
	"stockchat/indicator"
	"stockchat/market"
	"stockchat/metrics"
	"stockchat/model"
	"stockchat/provider/testutil"
	"stockchat/registry"
)

type fixture struct {
	provider *testutil.MockProvider
	conv     *model.Conversation
	calls    map[string]int
	metrics  *metrics.Metrics
	d        *Dispatcher
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	f := &fixture{
		provider: testutil.NewMockProvider("test-model"),
		conv:     model.NewConversation(),
		calls:    make(map[string]int),
	}

	m, err := metrics.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	f.metrics = m

	reg := registry.New()
	ticker := registry.Param{Name: "ticker", Type: registry.TypeString, Required: true}
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}

	must(reg.Register(registry.FunctionSpec{
		Name:     "get_stock_price",
		Category: registry.ValueProducing,
		Params:   []registry.Param{ticker},
	}, func(ctx context.Context, args map[string]any) (string, error) {
		f.calls["get_stock_price"]++
		return "150.25", nil
	}))
	must(reg.Register(registry.FunctionSpec{
		Name:     "calculate_SMA",
		Category: registry.ValueProducing,
		Params: []registry.Param{
			ticker,
			{Name: "window", Type: registry.TypeInteger, Required: true},
		},
	}, func(ctx context.Context, args map[string]any) (string, error) {
		f.calls["calculate_SMA"]++
		return fmt.Sprintf("sma(%v)", args["window"]), nil
	}))
	must(reg.Register(registry.FunctionSpec{
		Name:         "plot_stock_price",
		Category:     registry.ArtifactProducing,
		ArtifactPath: "stock.png",
		Params:       []registry.Param{ticker},
	}, func(ctx context.Context, args map[string]any) (string, error) {
		f.calls["plot_stock_price"]++
		return "charts/stock.png", nil
	}))
	must(reg.Register(registry.FunctionSpec{
		Name:     "calculate_RSI",
		Category: registry.ValueProducing,
		Params:   []registry.Param{ticker},
	}, func(ctx context.Context, args map[string]any) (string, error) {
		f.calls["calculate_RSI"]++
		return "", fmt.Errorf("%s: %w", args["ticker"], indicator.ErrDataUnavailable)
	}))
	reg.Seal()

	opts = append([]Option{WithMetrics(m)}, opts...)
	f.d = New(f.provider, reg, f.conv, opts...)
	return f
}

func call(name, args string) model.ToolCall {
	return model.ToolCall{ID: "call_1", Name: name, Arguments: args}
}

func roles(msgs []model.Message) string {
	r := make([]string, len(msgs))
	for i, m := range msgs {
		r[i] = m.Role
	}
	return strings.Join(r, ",")
}

func TestHandleDirectAnswer(t *testing.T) {
	f := newFixture(t)
	f.provider.ChatWithToolsFunc = testutil.Stream("Hello", ", how can I help?")

	res := f.d.Handle(context.Background(), "hi")

	if res.Kind != Text || res.Text != "Hello, how can I help?" {
		t.Fatalf("Handle() = %+v, want text reply", res)
	}
	if got := roles(f.conv.Snapshot()); got != "user,assistant" {
		t.Errorf("conversation roles = %s", got)
	}

	reqs := f.provider.Requests()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 chat call, got %d", len(reqs))
	}
	if len(reqs[0].Tools) != 4 {
		t.Errorf("expected 4 tools attached, got %d", len(reqs[0].Tools))
	}
	if len(reqs[0].Messages) != 1 || reqs[0].Messages[0].Content != "hi" {
		t.Errorf("outbound context = %+v", reqs[0].Messages)
	}
}

func TestHandleValueFunction(t *testing.T) {
	f := newFixture(t)
	f.provider.ChatWithToolsFunc = testutil.CallTool("", call("get_stock_price", `{"ticker":"AAPL"}`))
	f.provider.ChatFunc = func(ctx context.Context, messages []model.Message, cb model.StreamCallback) error {
		return cb("AAPL last traded at 150.25.", nil)
	}

	res := f.d.Handle(context.Background(), "What is AAPL trading at?")

	if res.Kind != Text || res.Text != "AAPL last traded at 150.25." {
		t.Fatalf("Handle() = %+v", res)
	}
	if res.Function != "get_stock_price" {
		t.Errorf("Function = %q", res.Function)
	}

	msgs := f.conv.Snapshot()
	if got := roles(msgs); got != "user,assistant,function,assistant" {
		t.Fatalf("conversation roles = %s", got)
	}
	if msgs[1].ToolCall == nil || msgs[1].ToolCall.Name != "get_stock_price" {
		t.Errorf("requesting turn = %+v", msgs[1])
	}
	if msgs[2].FunctionName != "get_stock_price" || msgs[2].Content != "150.25" {
		t.Errorf("function turn = %+v", msgs[2])
	}
	if msgs[2].ToolCallID != msgs[1].ToolCall.ID {
		t.Errorf("function turn ID %q does not match call %q", msgs[2].ToolCallID, msgs[1].ToolCall.ID)
	}

	reqs := f.provider.Requests()
	if len(reqs) != 2 {
		t.Fatalf("expected 2 chat calls, got %d", len(reqs))
	}
	if reqs[1].Tools != nil {
		t.Error("summary call must not carry tools")
	}
	if got := roles(reqs[1].Messages); got != "user,assistant,function" {
		t.Errorf("summary context roles = %s", got)
	}
}

func TestHandleToolCallWinsOverContent(t *testing.T) {
	f := newFixture(t)
	f.provider.ChatWithToolsFunc = testutil.CallTool("Let me check that.",
		call("calculate_SMA", `{"ticker":"MSFT","window":"20"}`),
		call("get_stock_price", `{"ticker":"MSFT"}`),
	)

	res := f.d.Handle(context.Background(), "20 day SMA for MSFT?")

	if res.Kind != Text || res.Function != "calculate_SMA" {
		t.Fatalf("Handle() = %+v", res)
	}
	if f.calls["calculate_SMA"] != 1 || f.calls["get_stock_price"] != 0 {
		t.Errorf("calls = %v, want only the first call executed", f.calls)
	}

	msgs := f.conv.Snapshot()
	if msgs[1].Content != "" {
		t.Errorf("content alongside a call should be discarded, got %q", msgs[1].Content)
	}
	if msgs[2].Content != "sma(20)" {
		t.Errorf("function result = %q, want coerced window", msgs[2].Content)
	}
}

func TestHandleArtifactFunction(t *testing.T) {
	f := newFixture(t)
	f.provider.ChatWithToolsFunc = testutil.CallTool("", call("plot_stock_price", `{"ticker":"AAPL"}`))

	res := f.d.Handle(context.Background(), "plot AAPL")

	if res.Kind != Artifact || res.Path != "charts/stock.png" {
		t.Fatalf("Handle() = %+v, want artifact", res)
	}
	if got := roles(f.conv.Snapshot()); got != "user" {
		t.Errorf("conversation roles = %s, want only the user turn", got)
	}
	if n := len(f.provider.Requests()); n != 1 {
		t.Errorf("expected no summary call, got %d calls", n)
	}
}

func TestHandleFailures(t *testing.T) {
	tests := []struct {
		name     string
		call     model.ToolCall
		kind     Kind
		sentinel error
		message  string
	}{
		{
			name:     "unknown function with suggestion",
			call:     call("Get_Stock_Price", `{"ticker":"AAPL"}`),
			kind:     UnknownFunction,
			sentinel: registry.ErrNotFound,
			message:  "did you mean get_stock_price",
		},
		{
			name:     "unknown function",
			call:     call("buy_shares", `{}`),
			kind:     UnknownFunction,
			sentinel: registry.ErrNotFound,
		},
		{
			name:     "missing argument",
			call:     call("get_stock_price", `{}`),
			kind:     MissingArgument,
			sentinel: registry.ErrMissingArgument,
			message:  "ticker",
		},
		{
			name:     "malformed arguments",
			call:     call("get_stock_price", `{"ticker":`),
			kind:     InvalidArguments,
			sentinel: registry.ErrInvalidArguments,
		},
		{
			name:     "fractional window",
			call:     call("calculate_SMA", `{"ticker":"AAPL","window":20.5}`),
			kind:     InvalidArguments,
			sentinel: registry.ErrInvalidArguments,
		},
		{
			name:     "data unavailable",
			call:     call("calculate_RSI", `{"ticker":"ZZZZ"}`),
			kind:     ExecutionFailure,
			sentinel: indicator.ErrDataUnavailable,
			message:  "calculate_RSI",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.conv.Append(model.NewUserMessage("earlier"), model.NewAssistantMessage("earlier reply"))
			f.provider.ChatWithToolsFunc = testutil.CallTool("", tt.call)

			res := f.d.Handle(context.Background(), "do it")

			if res.Kind != Failed || res.Err == nil {
				t.Fatalf("Handle() = %+v, want failure", res)
			}
			if res.Err.Kind != tt.kind {
				t.Errorf("kind = %s, want %s", res.Err.Kind, tt.kind)
			}
			if !errors.Is(res.Err, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", res.Err, tt.sentinel)
			}
			if tt.message != "" && !strings.Contains(res.Err.Message, tt.message) {
				t.Errorf("message %q does not mention %q", res.Err.Message, tt.message)
			}
			if f.conv.Len() != 2 {
				t.Errorf("conversation length = %d, want rollback to 2", f.conv.Len())
			}
			if n := len(f.provider.Requests()); n != 1 {
				t.Errorf("expected a single chat call, got %d", n)
			}
		})
	}
}

func TestHandleValidationSkipsInvocation(t *testing.T) {
	f := newFixture(t)
	f.provider.ChatWithToolsFunc = testutil.CallTool("", call("get_stock_price", `{"symbol":"AAPL"}`))

	res := f.d.Handle(context.Background(), "price?")
	if res.Kind != Failed || res.Err.Kind != MissingArgument {
		t.Fatalf("Handle() = %+v", res)
	}
	if f.calls["get_stock_price"] != 0 {
		t.Error("function must not run when validation fails")
	}
}

func TestHandleServiceFailure(t *testing.T) {
	t.Run("decision call", func(t *testing.T) {
		f := newFixture(t)
		f.provider.ChatWithToolsFunc = func(context.Context, []model.Message, []mcptypes.Tool, model.StreamCallback) error {
			return errors.New("401 unauthorized")
		}

		res := f.d.Handle(context.Background(), "hi")
		if res.Kind != Failed || res.Err.Kind != ServiceFailure {
			t.Fatalf("Handle() = %+v", res)
		}
		if f.conv.Len() != 0 {
			t.Errorf("conversation length = %d, want 0", f.conv.Len())
		}
	})

	t.Run("summary call", func(t *testing.T) {
		f := newFixture(t)
		f.provider.ChatWithToolsFunc = testutil.CallTool("", call("get_stock_price", `{"ticker":"AAPL"}`))
		f.provider.ChatFunc = func(context.Context, []model.Message, model.StreamCallback) error {
			return errors.New("connection reset")
		}

		res := f.d.Handle(context.Background(), "price?")
		if res.Kind != Failed || res.Err.Kind != ServiceFailure {
			t.Fatalf("Handle() = %+v", res)
		}
		if f.calls["get_stock_price"] != 1 {
			t.Errorf("function ran %d times, want 1", f.calls["get_stock_price"])
		}
		if f.conv.Len() != 0 {
			t.Errorf("conversation length = %d, want function turns rolled back", f.conv.Len())
		}
	})

	t.Run("timeout", func(t *testing.T) {
		f := newFixture(t, WithTimeout(10*time.Millisecond))
		f.provider.ChatWithToolsFunc = func(ctx context.Context, _ []model.Message, _ []mcptypes.Tool, _ model.StreamCallback) error {
			<-ctx.Done()
			return ctx.Err()
		}

		res := f.d.Handle(context.Background(), "hi")
		if res.Kind != Failed || res.Err.Kind != ServiceFailure {
			t.Fatalf("Handle() = %+v", res)
		}
		if !errors.Is(res.Err, context.DeadlineExceeded) {
			t.Errorf("expected deadline exceeded, got %v", res.Err)
		}
	})
}

func TestHandleGeneratesMissingCallID(t *testing.T) {
	f := newFixture(t)
	f.provider.ChatWithToolsFunc = testutil.CallTool("", model.ToolCall{Name: "get_stock_price", Arguments: `{"ticker":"AAPL"}`})

	if res := f.d.Handle(context.Background(), "price?"); res.Kind != Text {
		t.Fatalf("Handle() = %+v", res)
	}
	msgs := f.conv.Snapshot()
	if msgs[1].ToolCall.ID == "" || msgs[2].ToolCallID != msgs[1].ToolCall.ID {
		t.Errorf("call ID = %q, function turn ID = %q", msgs[1].ToolCall.ID, msgs[2].ToolCallID)
	}
}

func TestHandleRecordsOutcomes(t *testing.T) {
	f := newFixture(t)

	f.provider.ChatWithToolsFunc = testutil.Stream("hello")
	f.d.Handle(context.Background(), "hi")

	f.provider.ChatWithToolsFunc = testutil.CallTool("", call("plot_stock_price", `{"ticker":"AAPL"}`))
	f.d.Handle(context.Background(), "plot")

	f.provider.ChatWithToolsFunc = testutil.CallTool("", call("nope", `{}`))
	f.d.Handle(context.Background(), "?")

	tests := map[string]float64{
		"text":            1,
		"artifact":        1,
		"UnknownFunction": 1,
		"ServiceFailure":  0,
	}
	for outcome, want := range tests {
		if got := promtestutil.ToFloat64(f.metrics.DispatchOutcomes.WithLabelValues(outcome)); got != want {
			t.Errorf("outcome %s = %v, want %v", outcome, got, want)
		}
	}
	if got := promtestutil.ToFloat64(f.metrics.FunctionCalls.WithLabelValues("plot_stock_price", "ok")); got != 1 {
		t.Errorf("plot_stock_price ok calls = %v, want 1", got)
	}
}

func TestKindString(t *testing.T) {
	tests := map[Kind]string{
		UnknownFunction:  "UnknownFunction",
		MissingArgument:  "MissingArgument",
		InvalidArguments: "InvalidArguments",
		ExecutionFailure: "ExecutionFailure",
		ServiceFailure:   "ServiceFailure",
		Kind(42):         "Kind(42)",
	}
	for k, want := range tests {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", int(k), got, want)
		}
	}

	e := &Error{Kind: MissingArgument, Message: "ticker"}
	if e.Error() != "MissingArgument: ticker" {
		t.Errorf("Error() = %q", e.Error())
	}
}

type fixedSource struct {
	closes []float64
}

func (s fixedSource) History(ctx context.Context, ticker, period string) ([]market.Bar, error) {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, len(s.closes))
	for i, c := range s.closes {
		bars[i] = market.Bar{Date: start.AddDate(0, 0, i), Close: c}
	}
	return bars, nil
}

func (s fixedSource) Info(ctx context.Context, ticker string) (market.Info, error) {
	return market.Info{Symbol: ticker}, nil
}

func TestHandleRepeatedCallGivesIdenticalResult(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i%7) - float64(i%3)*0.75
	}

	dir := t.TempDir()
	reg := registry.New()
	if err := functions.Register(reg, functions.Options{
		Source:       fixedSource{closes: closes},
		ArtifactPath: func(name string) string { return filepath.Join(dir, name) },
	}); err != nil {
		t.Fatal(err)
	}
	reg.Seal()

	p := testutil.NewMockProvider("test-model")
	p.ChatFunc = func(ctx context.Context, messages []model.Message, cb model.StreamCallback) error {
		return cb("Here is the MACD.", nil)
	}
	conv := model.NewConversation()
	d := New(p, reg, conv)

	for _, c := range []model.ToolCall{
		call("calculate_MACD", `{"ticker":"AAPL"}`),
		call("calculate_MACD", `{"ticker":"aapl"}`),
	} {
		p.ChatWithToolsFunc = testutil.CallTool("", c)
		if res := d.Handle(context.Background(), "MACD for AAPL?"); res.Kind != Text {
			t.Fatalf("Handle() = %+v", res)
		}
	}

	var results []string
	for _, m := range conv.Snapshot() {
		if m.Role == model.RoleFunction {
			results = append(results, m.Content)
		}
	}
	if len(results) != 2 {
		t.Fatalf("function turns = %d, want 2", len(results))
	}
	if results[0] != results[1] {
		t.Errorf("repeated call over the same history differs: %q vs %q", results[0], results[1])
	}
}
