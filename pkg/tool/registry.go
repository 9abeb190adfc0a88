package tool

import (
	"fmt"
	"sort"
)

// Registry is the fixed set of tools of one browser context, keyed by name.
type Registry struct {
	ordered []*Tool
	byName  map[string]*Tool
}

// NewRegistry builds a registry, rejecting duplicate or empty names.
func NewRegistry(tools ...*Tool) (*Registry, error) {
	r := &Registry{
		ordered: make([]*Tool, 0, len(tools)),
		byName:  make(map[string]*Tool, len(tools)),
	}
	for _, t := range tools {
		if t == nil {
			return nil, fmt.Errorf("nil tool in registry")
		}
		if t.Name() == "" {
			return nil, fmt.Errorf("tool with empty name")
		}
		if _, exists := r.byName[t.Name()]; exists {
			return nil, fmt.Errorf("duplicate tool name: %s", t.Name())
		}
		r.ordered = append(r.ordered, t)
		r.byName[t.Name()] = t
	}
	return r, nil
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (*Tool, error) {
	t, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return t, nil
}

// Tools returns the tools in registration order.
func (r *Registry) Tools() []*Tool {
	return append([]*Tool(nil), r.ordered...)
}

// Names returns the sorted tool names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.ordered))
	for _, t := range r.ordered {
		names = append(names, t.Name())
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.ordered)
}
