// Package task turns configured node definitions into dag.Node values.
package task

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/gyaneshwarpardhi/kahnflow/internal/dag"
)

// Factory builds nodes of one type.
type Factory interface {
	// Type returns the string key this factory is registered under.
	Type() string
	// Validate checks params at build time.
	Validate(params map[string]interface{}) error
	// New builds a node. params have already passed Validate.
	New(id string, params map[string]interface{}) (dag.Node, error)
}

// Registry maps node type strings to their factories.
// It is safe for concurrent reads; Register should only be called at startup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory. Panics on duplicate type to surface misconfiguration early.
func (r *Registry) Register(f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[f.Type()]; exists {
		panic(fmt.Sprintf("task registry: duplicate type %q", f.Type()))
	}
	r.factories[f.Type()] = f
}

// Get returns the factory for the given type.
func (r *Registry) Get(typ string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[typ]
	if !ok {
		return nil, fmt.Errorf("no factory registered for node type %q", typ)
	}
	return f, nil
}

// Types returns all registered node types, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for k := range r.factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Build validates params and returns a node whose panics are reported as
// failures instead of crashing the run.
func (r *Registry) Build(id, typ string, params map[string]interface{}) (dag.Node, error) {
	f, err := r.Get(typ)
	if err != nil {
		return nil, err
	}
	if err := f.Validate(params); err != nil {
		return nil, fmt.Errorf("node %s: %w", id, err)
	}
	n, err := f.New(id, params)
	if err != nil {
		return nil, fmt.Errorf("node %s: %w", id, err)
	}
	return &recovered{Node: n, typ: typ}, nil
}

// recovered turns a panic inside Execute into a failed outcome.
type recovered struct {
	dag.Node
	typ string
}

func (n *recovered) Execute(req, res any) (ok bool) {
	defer func() {
		if p := recover(); p != nil {
			slog.Error("node panicked", "node", n.ID(), "type", n.typ, "panic", p)
			ok = false
		}
	}()
	return n.Node.Execute(req, res)
}

// Type returns the node type the node was built from.
func (n *recovered) Type() string { return n.typ }

// Typed is implemented by nodes built through a Registry.
type Typed interface {
	Type() string
}
