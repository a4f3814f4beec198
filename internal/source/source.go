// Package source fetches the named record sets that report definitions bind
// their sections to.
package source

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownSource is returned when a definition names a source that was
// never registered.
var ErrUnknownSource = errors.New("unknown source")

// Source produces one record set. Records are maps or structs that the
// layout engine reads through dot paths.
type Source interface {
	Fetch(ctx context.Context) ([]interface{}, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]interface{}, error)

func (f SourceFunc) Fetch(ctx context.Context) ([]interface{}, error) { return f(ctx) }

// Static serves a fixed record set.
type Static []interface{}

func (s Static) Fetch(ctx context.Context) ([]interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]interface{}, len(s))
	copy(out, s)
	return out, nil
}

// Registry maps source names to sources. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]Source
}

func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]Source)}
}

// Register adds or replaces a named source.
func (r *Registry) Register(name string, s Source) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[name] = s
	return r
}

// Get looks up a source by name.
func (r *Registry) Get(name string) (Source, error) {
	r.mu.RLock()
	s, ok := r.sources[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownSource)
	}
	return s, nil
}

// Names lists the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.sources))
	for n := range r.sources {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
