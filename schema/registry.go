package schema

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry maps schema names to declarations. It is constructor-injected
// into collections and resources; there is no process-wide registry.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]Schema
}

func NewRegistry() *Registry {
	return &Registry{schemas: make(map[string]Schema)}
}

func (r *Registry) Register(s Schema) error {
	if r == nil {
		return fmt.Errorf("schema: registry is nil")
	}
	name := strings.TrimSpace(s.Name)
	if name == "" {
		return fmt.Errorf("schema: schema name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.schemas[name]; exists {
		return fmt.Errorf("schema: schema already registered: %s", name)
	}
	r.schemas[name] = s
	return nil
}

func (r *Registry) Get(name string) (Schema, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Schema{}, false
	}
	r.mu.RLock()
	s, ok := r.schemas[name]
	r.mu.RUnlock()
	return s, ok
}

// Names returns the registered schema names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}
