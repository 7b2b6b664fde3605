// Package hooks runs pre and post extension units around the externally
// managed compose step. Units return heterogeneous update shapes that are
// normalized into canonical records and routed to their declared
// persistence targets.
package hooks

import (
	"fmt"
	"sort"
)

// Hook is the single polymorphic interface every extension unit is adapted
// to. Apply receives the current configuration tree and the accumulated
// environment for the phase and returns a mapping of dotted path to update
// value (either a plain value or a table carrying value/persist metadata).
type Hook interface {
	Apply(cfg map[string]any, env map[string]string) (map[string]any, error)
}

// Func adapts a plain function to the Hook interface.
type Func func(cfg map[string]any, env map[string]string) (map[string]any, error)

// Apply implements Hook.
func (f Func) Apply(cfg map[string]any, env map[string]string) (map[string]any, error) {
	return f(cfg, env)
}

// runner is the method-shaped unit form.
type runner interface {
	Run(cfg map[string]any, env map[string]string) (map[string]any, error)
}

// Adapt resolves a unit of any accepted shape to a Hook once at load time.
// Accepted shapes: a Hook, a function with the Apply signature, or a value
// with an equivalent Run method.
func Adapt(unit any) (Hook, error) {
	switch u := unit.(type) {
	case Hook:
		return u, nil
	case func(map[string]any, map[string]string) (map[string]any, error):
		return Func(u), nil
	case runner:
		return Func(u.Run), nil
	}

	return nil, fmt.Errorf("unsupported hook shape %T: want Apply or Run method, or a plain function", unit)
}

// Registry holds named hook units. Configuration references units by name
// under <stack>.hooks.pre_compose and <stack>.hooks.post_compose.
type Registry struct {
	units map[string]Hook
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{units: make(map[string]Hook)}
}

// Register adapts and stores a unit under name. Registering a name twice or
// an unsupported shape is an error.
func (r *Registry) Register(name string, unit any) error {
	if _, exists := r.units[name]; exists {
		return fmt.Errorf("hook %q already registered", name)
	}

	hook, err := Adapt(unit)
	if err != nil {
		return fmt.Errorf("registering hook %q: %w", name, err)
	}

	r.units[name] = hook
	return nil
}

// Lookup returns the unit registered under name.
func (r *Registry) Lookup(name string) (Hook, error) {
	hook, ok := r.units[name]
	if !ok {
		return nil, fmt.Errorf("hook %q is not registered (known: %v)", name, r.Names())
	}
	return hook, nil
}

// Names returns all registered hook names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.units))
	for name := range r.units {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
