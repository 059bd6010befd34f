// Package adapters defines the uniform pricing-source contract and registry.
package adapters

import (
	"context"
	"sync"

	"github.com/solescan/solescan/errs"
	"github.com/solescan/solescan/internal/schema"
)

// Provider is one pricing source behind a normalized contract. Fetch is
// idempotent and side-effect-free beyond the network call; failures use the
// provider error taxonomy so the aggregator can degrade the source locally.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, identity schema.SneakerIdentity) (schema.ProviderResult, error)
}

// Registry keeps providers in registration order for deterministic fan-out.
type Registry struct {
	mu        sync.RWMutex
	order     []string
	providers map[string]Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		mu:        sync.RWMutex{},
		order:     nil,
		providers: make(map[string]Provider),
	}
}

// Register adds a provider. Re-registering a name replaces the provider but
// keeps its original position.
func (r *Registry) Register(provider Provider) error {
	if provider == nil || provider.Name() == "" {
		return errs.New("adapters/registry", errs.CodeInvalid,
			errs.WithMessage("provider with a name required"))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	name := provider.Name()
	if _, exists := r.providers[name]; !exists {
		r.order = append(r.order, name)
	}
	r.providers[name] = provider
	return nil
}

// All returns the registered providers in registration order.
func (r *Registry) All() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Provider, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.providers[name])
	}
	return out
}
