// Package registry holds the static table of functions the chat model may
// call: their names, parameter schemas, categories, and implementations.
//
// The table is filled once at startup and sealed. After Seal it is read-only
// and safe to share.
package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"
)

var (
	ErrNotFound         = errors.New("function not found")
	ErrMissingArgument  = errors.New("missing required argument")
	ErrInvalidArguments = errors.New("invalid arguments")
	ErrSealed           = errors.New("registry is sealed")
)

// Category tells the dispatcher what to do with a successful result.
type Category int

const (
	// ValueProducing functions return a string that is fed back to the model.
	ValueProducing Category = iota
	// ArtifactProducing functions write a file that is shown to the user.
	ArtifactProducing
)

func (c Category) String() string {
	switch c {
	case ValueProducing:
		return "value"
	case ArtifactProducing:
		return "artifact"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
)

type Param struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
}

type FunctionSpec struct {
	Name        string
	Description string
	Category    Category
	Params      []Param

	// ArtifactPath is where an ArtifactProducing function writes its output.
	ArtifactPath string
}

// RequiredParams returns the names of the required parameters in declaration order.
func (s FunctionSpec) RequiredParams() []string {
	var out []string
	for _, p := range s.Params {
		if p.Required {
			out = append(out, p.Name)
		}
	}
	return out
}

// Handler executes a function with arguments already validated against its spec.
type Handler func(ctx context.Context, args map[string]any) (string, error)

type entry struct {
	spec    FunctionSpec
	handler Handler
}

type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
	order   []string
	sealed  bool
}

func New() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds a function. It fails after Seal.
func (r *Registry) Register(spec FunctionSpec, handler Handler) error {
	if spec.Name == "" {
		return fmt.Errorf("function name is empty")
	}
	if handler == nil {
		return fmt.Errorf("function %s: handler is nil", spec.Name)
	}
	if spec.Category == ArtifactProducing && spec.ArtifactPath == "" {
		return fmt.Errorf("function %s: artifact path is required", spec.Name)
	}
	seen := make(map[string]bool, len(spec.Params))
	for _, p := range spec.Params {
		if p.Name == "" || seen[p.Name] {
			return fmt.Errorf("function %s: invalid or duplicate parameter %q", spec.Name, p.Name)
		}
		seen[p.Name] = true
		switch p.Type {
		case TypeString, TypeInteger, TypeNumber, TypeBoolean:
		default:
			return fmt.Errorf("function %s: parameter %s has unsupported type %q", spec.Name, p.Name, p.Type)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("register %s: %w", spec.Name, ErrSealed)
	}
	if _, exists := r.entries[spec.Name]; exists {
		return fmt.Errorf("function %s already registered", spec.Name)
	}

	spec.Params = append([]Param(nil), spec.Params...)
	r.entries[spec.Name] = entry{spec: spec, handler: handler}
	r.order = append(r.order, spec.Name)
	return nil
}

// Seal freezes the table.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

func (r *Registry) Resolve(name string) (FunctionSpec, Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok {
		return FunctionSpec{}, nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return e.spec, e.handler, nil
}

// AllSpecs returns every spec in registration order.
func (r *Registry) AllSpecs() []FunctionSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	specs := make([]FunctionSpec, 0, len(r.order))
	for _, name := range r.order {
		specs = append(specs, r.entries[name].spec)
	}
	return specs
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Suggest returns the registered name closest to name, or "" when nothing
// is close enough.
func (r *Registry) Suggest(name string) string {
	names := r.Names()
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return n
		}
	}

	matches := fuzzy.Find(strings.ToLower(name), lowered(names))
	if len(matches) == 0 {
		return ""
	}
	return names[matches[0].Index]
}

func lowered(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
