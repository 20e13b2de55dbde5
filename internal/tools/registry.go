// Package tools is a small invocation registry: declarative tool specs
// bound to built-in Go functions, runnable from the UI or the API.
package tools

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Func is the shape of a built-in tool implementation.
type Func func(input map[string]any) (map[string]any, error)

// Spec is a declarative tool definition. Kind is "builtin" for tools
// backed by a registered Go function; other kinds are reserved.
type Spec struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description,omitempty"`
	Kind         string         `json:"kind"`
	Entrypoint   string         `json:"entrypoint,omitempty"`
	InputSchema  map[string]any `json:"input_schema,omitempty"`
	OutputSchema map[string]any `json:"output_schema,omitempty"`
}

// RunResult reports one tool invocation.
type RunResult struct {
	OK     bool           `json:"ok"`
	ToolID string         `json:"tool_id"`
	Output map[string]any `json:"output,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// Registry holds tool specs and the built-in functions they bind to.
type Registry struct {
	log *zap.Logger

	mu       sync.RWMutex
	specs    map[string]Spec
	builtins map[string]Func
}

// NewRegistry creates an empty registry.
func NewRegistry(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		log:      log,
		specs:    map[string]Spec{},
		builtins: map[string]Func{},
	}
}

// RegisterBuiltin binds name to fn so specs can reference it as their
// entrypoint.
func (r *Registry) RegisterBuiltin(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builtins[name] = fn
}

// Upsert validates and stores a spec, replacing any existing one with
// the same id.
func (r *Registry) Upsert(spec Spec) (Spec, error) {
	if spec.ID == "" {
		return Spec{}, fmt.Errorf("tool id is required")
	}
	if spec.Name == "" {
		spec.Name = spec.ID
	}
	if spec.Kind == "" {
		spec.Kind = "builtin"
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.specs[spec.ID] = spec
	return spec, nil
}

// Get returns the spec for id.
func (r *Registry) Get(id string) (Spec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.specs[id]
	return spec, ok
}

// Delete removes a spec; deleting an unknown id is a no-op.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.specs, id)
}

// List returns all specs sorted by id.
func (r *Registry) List() []Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Spec, 0, len(r.specs))
	for _, spec := range r.specs {
		out = append(out, spec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Run invokes the tool with the given input. Failures are reported in
// the result, never panicked or swallowed.
func (r *Registry) Run(id string, input map[string]any) RunResult {
	spec, ok := r.Get(id)
	if !ok {
		return RunResult{ToolID: id, Error: "tool not found"}
	}
	if spec.Kind != "builtin" {
		return RunResult{ToolID: id, Error: fmt.Sprintf("unsupported tool kind %q", spec.Kind)}
	}
	if spec.Entrypoint == "" {
		return RunResult{ToolID: id, Error: "missing entrypoint"}
	}

	r.mu.RLock()
	fn, ok := r.builtins[spec.Entrypoint]
	r.mu.RUnlock()
	if !ok {
		return RunResult{ToolID: id, Error: fmt.Sprintf("unknown entrypoint %q", spec.Entrypoint)}
	}

	output, err := fn(input)
	if err != nil {
		r.log.Warn("tool run failed", zap.String("tool", id), zap.Error(err))
		return RunResult{ToolID: id, Error: err.Error()}
	}
	if output == nil {
		output = map[string]any{}
	}
	return RunResult{OK: true, ToolID: id, Output: output}
}

// SeedHello registers the built-in example tool so the UI and API have
// something immediately runnable.
func (r *Registry) SeedHello() {
	r.RegisterBuiltin("hello", func(input map[string]any) (map[string]any, error) {
		name, _ := input["name"].(string)
		if name == "" {
			name = "world"
		}
		return map[string]any{"greeting": "Hello, " + name + "!"}, nil
	})
	r.Upsert(Spec{
		ID:          "hello",
		Name:        "Hello tool",
		Description: "Tiny built-in example tool",
		Kind:        "builtin",
		Entrypoint:  "hello",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name": map[string]any{"type": "string"},
			},
		},
	})
}
