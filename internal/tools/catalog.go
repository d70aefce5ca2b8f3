// Package tools implements the fixed tool catalog the ReAct loop dispatches
// against: UI actions over the page and snapshot engine, the AC HTTP API
// through the in-page client, a shell over an SSH-over-terminal session,
// large-response caching and keyword search, and report-file emission.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Handler executes one tool call with already-decoded arguments and returns
// the human-readable result text the model will see in the next step.
// Handlers catch broadly; only truly unrecoverable conditions should
// propagate an error, and even those are turned into a "错误:"-prefixed
// result string by the Registry rather than surfaced as a Go error to the
// agent loop.
type Handler func(ctx context.Context, args map[string]any) (string, error)

// Def is one entry in the tool table: name, LLM-facing schema, and handler.
// Missing-tool and malformed-argument conditions are handled by Registry,
// never by a handler itself.
type Def struct {
	Name        string
	Description string
	Schema      json.RawMessage
	Handler     Handler
}

// Registry is the explicit, ordered tool table keyed by name that replaces
// the source's dynamic attribute-lookup dispatch. Each definition's schema
// is compiled at registration time and enforced before the handler runs.
type Registry struct {
	mu       sync.RWMutex
	order    []string
	defs     map[string]Def
	compiled map[string]*jsonschema.Schema
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		defs:     make(map[string]Def),
		compiled: make(map[string]*jsonschema.Schema),
	}
}

// Register adds or replaces a tool definition. A schema that fails to
// compile leaves the tool registered but unvalidated; the handler's own
// argument checks still apply.
func (r *Registry) Register(d Def) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[d.Name]; !exists {
		r.order = append(r.order, d.Name)
	}
	r.defs[d.Name] = d

	delete(r.compiled, d.Name)
	if len(d.Schema) > 0 {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(d.Name+".json", strings.NewReader(string(d.Schema))); err == nil {
			if schema, err := compiler.Compile(d.Name + ".json"); err == nil {
				r.compiled[d.Name] = schema
			}
		}
	}
}

// Schemas returns the catalog in registration order, for building the LLM
// function-calling tool list.
func (r *Registry) Schemas() []Def {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Def, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.defs[name])
	}
	return out
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Execute dispatches name with the given JSON argument string. A missing
// tool or malformed JSON never panics: missing tool yields an error
// string, malformed JSON yields an empty-args dispatch (the ParseError
// policy), and a schema violation is reported back to the model as an
// error string without running the handler.
func (r *Registry) Execute(ctx context.Context, name, argumentsJSON string) (string, error) {
	r.mu.RLock()
	d, ok := r.defs[name]
	schema := r.compiled[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Sprintf("错误: 未知工具 %q", name), nil
	}

	args := map[string]any{}
	if argumentsJSON != "" {
		_ = json.Unmarshal([]byte(argumentsJSON), &args)
	}

	if schema != nil {
		if err := schema.Validate(map[string]any(args)); err != nil {
			return fmt.Sprintf("错误: 工具 %s 参数不合法: %v", name, err), nil
		}
	}

	result, err := d.Handler(ctx, args)
	if err != nil {
		return "错误: " + err.Error(), nil
	}
	return result, nil
}

// decodeArgsLoose decodes a JSON object string into out, silently leaving
// out empty on malformed input (same ParseError policy as Execute).
func decodeArgsLoose(argumentsJSON string, out *map[string]any) {
	_ = json.Unmarshal([]byte(argumentsJSON), out)
}
