package ecommerce

import (
	"fmt"

	"github.com/fadedindigo/backend/internal/domain/marketplace"
)

// Registry resolves adapters by platform. It is populated once at startup
// and read-only afterwards.
type Registry struct {
	adapters map[marketplace.Platform]marketplace.Adapter
	order    []marketplace.Platform
}

// NewRegistry creates a registry from the given adapters. Later adapters
// for the same platform replace earlier ones.
func NewRegistry(adapters ...marketplace.Adapter) *Registry {
	r := &Registry{
		adapters: make(map[marketplace.Platform]marketplace.Adapter, len(adapters)),
	}
	for _, adapter := range adapters {
		platform := adapter.Platform()
		if _, exists := r.adapters[platform]; !exists {
			r.order = append(r.order, platform)
		}
		r.adapters[platform] = adapter
	}
	return r
}

// Get returns the adapter for the platform
func (r *Registry) Get(platform marketplace.Platform) (marketplace.Adapter, error) {
	adapter, ok := r.adapters[platform]
	if !ok {
		return nil, fmt.Errorf("%w: %s", marketplace.ErrPlatformNotConfigured, platform)
	}
	return adapter, nil
}

// All returns every registered adapter in registration order
func (r *Registry) All() []marketplace.Adapter {
	all := make([]marketplace.Adapter, 0, len(r.order))
	for _, platform := range r.order {
		all = append(all, r.adapters[platform])
	}
	return all
}

// Ensure Registry implements the AdapterRegistry interface
var _ marketplace.AdapterRegistry = (*Registry)(nil)
