// Package registry holds published component definitions.
//
// The registry is an explicit object owned by the editor, not a module-level
// singleton, so two editors never share definitions by accident. Entries are
// write-once: once a definition is published it never changes, and reads
// hand out deep copies.
package registry

import (
	"fmt"
	"sync"

	"github.com/patchbay-io/patchbay/pkg/domain"
)

// Registry manages component definitions.
type Registry struct {
	mu    sync.RWMutex
	defs  map[string]*domain.ComponentDefinition
	order []string
}

// New creates a new empty registry.
func New() *Registry {
	return &Registry{
		defs: make(map[string]*domain.ComponentDefinition),
	}
}

// Publish stores a definition. The id must be unused, and the definition's
// transitive dependency closure must not contain its own id: a component
// that contains itself, directly or through other definitions, can never be
// expanded and is rejected up front.
func (r *Registry) Publish(def *domain.ComponentDefinition) error {
	if def == nil || def.ID == "" {
		return fmt.Errorf("publish: definition needs an id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.defs[def.ID]; exists {
		return fmt.Errorf("publish %q: %w", def.ID, domain.ErrDefinitionExists)
	}
	if r.closureContains(def, def.ID) {
		return fmt.Errorf("publish %q: %w", def.ID, domain.ErrCyclicDefinition)
	}

	stored := def.Clone()
	r.defs[stored.ID] = stored
	r.order = append(r.order, stored.ID)
	return nil
}

// Resolve returns a deep copy of a published definition. Callers may mutate
// the copy freely.
func (r *Registry) Resolve(id string) (*domain.ComponentDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.defs[id]
	if !ok {
		return nil, fmt.Errorf("resolve %q: %w", id, domain.ErrDefinitionNotFound)
	}
	return def.Clone(), nil
}

// Contains reports whether a definition id is published.
func (r *Registry) Contains(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.defs[id]
	return ok
}

// List returns deep copies of all definitions in publication order.
func (r *Registry) List() []*domain.ComponentDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.ComponentDefinition, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.defs[id].Clone())
	}
	return out
}

// Len returns the number of published definitions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}

// ValidateAcyclic walks the dependency closure of a member node set and
// fails if the walk runs into a cycle among published definitions. Used by
// the compiler before it folds a group that contains component instances.
func (r *Registry) ValidateAcyclic(memberDefinitionIDs []string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state := make(map[string]int) // 0 unvisited, 1 in progress, 2 done
	for _, id := range memberDefinitionIDs {
		if err := r.walk(id, state); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) walk(id string, state map[string]int) error {
	switch state[id] {
	case 1:
		return fmt.Errorf("definition %q: %w", id, domain.ErrCyclicDefinition)
	case 2:
		return nil
	}
	def, ok := r.defs[id]
	if !ok {
		return fmt.Errorf("definition %q: %w", id, domain.ErrDefinitionNotFound)
	}
	state[id] = 1
	for _, n := range def.InternalNodes {
		if n.Type == domain.NodeTypeComponent && n.Data.ComponentID != "" {
			if err := r.walk(n.Data.ComponentID, state); err != nil {
				return err
			}
		}
	}
	state[id] = 2
	return nil
}

// closureContains reports whether the candidate definition's dependency
// closure reaches the given id. Callers hold the lock.
func (r *Registry) closureContains(def *domain.ComponentDefinition, id string) bool {
	seen := make(map[string]bool)
	queue := make([]string, 0, len(def.InternalNodes))
	for _, n := range def.InternalNodes {
		if n.Type == domain.NodeTypeComponent && n.Data.ComponentID != "" {
			queue = append(queue, n.Data.ComponentID)
		}
	}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == id {
			return true
		}
		if seen[next] {
			continue
		}
		seen[next] = true
		dep, ok := r.defs[next]
		if !ok {
			continue
		}
		for _, n := range dep.InternalNodes {
			if n.Type == domain.NodeTypeComponent && n.Data.ComponentID != "" {
				queue = append(queue, n.Data.ComponentID)
			}
		}
	}
	return false
}
