package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cast"
)

// Validate parses raw as a JSON object and checks it against spec.
//
// Declared parameters are coerced to their schema type, so an integer
// parameter accepts 20, 20.0 and "20" but not 20.5. Arguments the spec does
// not declare are dropped. An empty raw string is treated as {}.
func Validate(spec FunctionSpec, raw string) (map[string]any, error) {
	args, err := parseObject(raw)
	if err != nil {
		return nil, err
	}

	out := make(map[string]any, len(spec.Params))
	for _, p := range spec.Params {
		v, ok := args[p.Name]
		if !ok || v == nil {
			if p.Required {
				return nil, fmt.Errorf("%w: %s", ErrMissingArgument, p.Name)
			}
			continue
		}

		coerced, err := coerce(p.Type, v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArguments, p.Name, err)
		}
		if s, isString := coerced.(string); isString && s == "" && p.Required {
			return nil, fmt.Errorf("%w: %s", ErrMissingArgument, p.Name)
		}
		out[p.Name] = coerced
	}
	return out, nil
}

func parseObject(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}, nil
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: malformed JSON: %v", ErrInvalidArguments, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after JSON object", ErrInvalidArguments)
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected a JSON object, got %T", ErrInvalidArguments, v)
	}
	return obj, nil
}

func coerce(t ParamType, v any) (any, error) {
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
	}

	switch t {
	case TypeString:
		switch v.(type) {
		case string, json.Number:
			return cast.ToStringE(v)
		}
		return nil, fmt.Errorf("expected string, got %T", v)

	case TypeInteger:
		f, err := toNumber(v)
		if err != nil {
			return nil, err
		}
		if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
			return nil, fmt.Errorf("expected integer, got %v", v)
		}
		return int(f), nil

	case TypeNumber:
		return toNumber(v)

	case TypeBoolean:
		switch v.(type) {
		case bool, string:
			return cast.ToBoolE(v)
		}
		return nil, fmt.Errorf("expected boolean, got %T", v)
	}
	return nil, fmt.Errorf("unsupported type %q", t)
}

func toNumber(v any) (float64, error) {
	switch v.(type) {
	case string, json.Number, float64, int, int64:
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, fmt.Errorf("expected number, got %q", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("expected finite number, got %v", v)
	}
	return f, nil
}

// Bind adapts a typed function into a Handler. Validated arguments are
// decoded into T using its json tags.
func Bind[T any](fn func(ctx context.Context, args T) (string, error)) Handler {
	return func(ctx context.Context, args map[string]any) (string, error) {
		var typed T
		if err := decodeInto(args, &typed); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidArguments, err)
		}
		return fn(ctx, typed)
	}
}

func decodeInto(args map[string]any, dst any) error {
	data, err := json.Marshal(args)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	return dec.Decode(dst)
}
