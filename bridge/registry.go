package bridge

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry holds constructed providers by name so the consuming layer can
// treat all adapters uniformly.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider. Registering a duplicate name is an error.
func (r *Registry) Register(p Provider) error {
	if p == nil {
		return fmt.Errorf("provider cannot be nil")
	}
	name := p.Name()
	if name == "" {
		return fmt.Errorf("provider name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("provider %q already registered", name)
	}
	r.providers[name] = p
	return nil
}

// Provider returns the provider registered under name.
func (r *Registry) Provider(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// MustProvider returns the provider registered under name, panicking when
// it is missing. Intended for wiring code where absence is a bug.
func (r *Registry) MustProvider(name string) Provider {
	p, ok := r.Provider(name)
	if !ok {
		panic(fmt.Sprintf("provider %q not registered", name))
	}
	return p
}

// Names returns the registered provider names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListModels aggregates model listings across all registered providers.
// Providers whose listing fails contribute nothing; the first error is
// returned alongside whatever was collected.
func (r *Registry) ListModels(ctx context.Context) ([]ModelInfo, error) {
	r.mu.RLock()
	providers := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		providers = append(providers, p)
	}
	r.mu.RUnlock()

	sort.Slice(providers, func(i, j int) bool { return providers[i].Name() < providers[j].Name() })

	var models []ModelInfo
	var firstErr error
	for _, p := range providers {
		infos, err := p.ListModels(ctx)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("listing %s models: %w", p.Name(), err)
			}
			continue
		}
		models = append(models, infos...)
	}
	return models, firstErr
}
