package behavior

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maintains known definitions by ID.
type Registry struct {
	mu          sync.RWMutex
	definitions map[string]*Definition
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{definitions: map[string]*Definition{}}
}

// Register installs a definition. Returns an error if the ID already exists.
func (r *Registry) Register(def *Definition) error {
	if def == nil {
		return fmt.Errorf("behavior: definition is required")
	}
	id := def.ID()
	if id == "" {
		return fmt.Errorf("behavior: id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.definitions[id]; exists {
		return fmt.Errorf("behavior: %s already registered", id)
	}
	r.definitions[id] = def
	return nil
}

// MustRegister panics if registration fails.
func (r *Registry) MustRegister(def *Definition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// Lookup returns the definition for id, if registered.
func (r *Registry) Lookup(id string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.definitions[id]
	return def, ok
}

// Resolve returns the definition for id or an error naming the unknown ID.
func (r *Registry) Resolve(id string) (*Definition, error) {
	def, ok := r.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("behavior: unknown id %s", id)
	}
	return def, nil
}

// IDs returns a sorted list of registered definition identifiers.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.definitions))
	for id := range r.definitions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len reports how many definitions are registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.definitions)
}
