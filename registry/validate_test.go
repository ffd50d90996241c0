package registry

import (
	"context"
	"errors"
	"testing"
)

func windowSpec() FunctionSpec {
	return FunctionSpec{
		Name: "calculate_SMA",
		Params: []Param{
			{Name: "ticker", Type: TypeString, Required: true},
			{Name: "window", Type: TypeInteger, Required: true},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantErr    error
		wantWindow int
		wantTicker string
	}{
		{"integer", `{"ticker":"AAPL","window":20}`, nil, 20, "AAPL"},
		{"integral float", `{"ticker":"AAPL","window":20.0}`, nil, 20, "AAPL"},
		{"numeric string", `{"ticker":"AAPL","window":"20"}`, nil, 20, "AAPL"},
		{"padded ticker", `{"ticker":"  MSFT ","window":5}`, nil, 5, "MSFT"},
		{"extra args dropped", `{"ticker":"AAPL","window":20,"period":"1y"}`, nil, 20, "AAPL"},
		{"fractional window", `{"ticker":"AAPL","window":20.5}`, ErrInvalidArguments, 0, ""},
		{"non-numeric window", `{"ticker":"AAPL","window":"twenty"}`, ErrInvalidArguments, 0, ""},
		{"boolean window", `{"ticker":"AAPL","window":true}`, ErrInvalidArguments, 0, ""},
		{"missing window", `{"ticker":"AAPL"}`, ErrMissingArgument, 0, ""},
		{"null ticker", `{"ticker":null,"window":3}`, ErrMissingArgument, 0, ""},
		{"empty ticker", `{"ticker":"","window":3}`, ErrMissingArgument, 0, ""},
		{"malformed json", `{"ticker":"AAPL",`, ErrInvalidArguments, 0, ""},
		{"not an object", `["AAPL",20]`, ErrInvalidArguments, 0, ""},
		{"empty input", ``, ErrMissingArgument, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := Validate(windowSpec(), tt.raw)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() unexpected error: %v", err)
			}
			if args["window"] != tt.wantWindow {
				t.Errorf("window = %#v, want %d", args["window"], tt.wantWindow)
			}
			if args["ticker"] != tt.wantTicker {
				t.Errorf("ticker = %#v, want %q", args["ticker"], tt.wantTicker)
			}
			if _, ok := args["period"]; ok {
				t.Error("undeclared argument should be dropped")
			}
		})
	}
}

func TestValidateOptionalParams(t *testing.T) {
	spec := FunctionSpec{
		Name: "f",
		Params: []Param{
			{Name: "ratio", Type: TypeNumber},
			{Name: "verbose", Type: TypeBoolean},
		},
	}

	args, err := Validate(spec, `{}`)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if len(args) != 0 {
		t.Errorf("args = %v, want empty", args)
	}

	args, err = Validate(spec, `{"ratio":"0.5","verbose":"true"}`)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if args["ratio"] != 0.5 || args["verbose"] != true {
		t.Errorf("args = %#v", args)
	}
}

func TestBind(t *testing.T) {
	type smaArgs struct {
		Ticker string `json:"ticker"`
		Window int    `json:"window"`
	}

	var got smaArgs
	h := Bind(func(ctx context.Context, a smaArgs) (string, error) {
		got = a
		return "ok", nil
	})

	args, err := Validate(windowSpec(), `{"ticker":"AAPL","window":"50"}`)
	if err != nil {
		t.Fatal(err)
	}
	out, err := h(context.Background(), args)
	if err != nil || out != "ok" {
		t.Fatalf("handler = (%q, %v)", out, err)
	}
	if got.Ticker != "AAPL" || got.Window != 50 {
		t.Errorf("decoded args = %+v", got)
	}
}

func TestBindRejectsMismatchedShape(t *testing.T) {
	type args struct {
		Window int `json:"window"`
	}
	h := Bind(func(ctx context.Context, a args) (string, error) { return "", nil })

	_, err := h(context.Background(), map[string]any{"window": "not-a-number"})
	if !errors.Is(err, ErrInvalidArguments) {
		t.Errorf("error = %v, want ErrInvalidArguments", err)
	}
}
