package services

import (
	"fmt"
	"sort"
	"sync"

	"github.com/iota-uz/onboarding/modules/stepper/domain/step"
	"github.com/iota-uz/onboarding/pkg/routing"
)

// Registry holds the wizard definitions the application serves.
type Registry struct {
	routes *routing.Synchronizer

	mu   sync.RWMutex
	defs map[string]*step.Definition
}

func NewRegistry(routes *routing.Synchronizer) *Registry {
	if routes == nil {
		routes = routing.NewSynchronizer()
	}
	return &Registry{routes: routes, defs: map[string]*step.Definition{}}
}

func (r *Registry) Routes() *routing.Synchronizer {
	return r.routes
}

// Register checks every definition and adds its deep link routes.
func (r *Registry) Register(defs ...*step.Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, def := range defs {
		if err := def.Check(); err != nil {
			return err
		}
		if _, dup := r.defs[def.Name]; dup {
			return fmt.Errorf("wizard %s registered twice", def.Name)
		}
		r.defs[def.Name] = def
		r.routes.Register(def.Name, def.BasePath, def.Len())
	}
	return nil
}

func (r *Registry) Get(name string) (*step.Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownWizard, name)
	}
	return def, nil
}

// List returns the definitions sorted by name.
func (r *Registry) List() []*step.Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*step.Definition, 0, len(r.defs))
	for _, def := range r.defs {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
