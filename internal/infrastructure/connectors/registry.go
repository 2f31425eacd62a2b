package connectors

import (
	"fmt"
	"time"

	"github.com/pimsync/backend/internal/domain/integration"
)

// Registry is a static map of platform adapters. Adapters are stateless
// apart from their HTTP client, so one instance serves every tenant.
type Registry struct {
	adapters map[integration.PlatformCode]integration.ConnectorAdapter
}

// NewRegistry creates a registry over the given adapters
func NewRegistry(adapters ...integration.ConnectorAdapter) *Registry {
	r := &Registry{adapters: make(map[integration.PlatformCode]integration.ConnectorAdapter, len(adapters))}
	for _, adapter := range adapters {
		r.adapters[adapter.PlatformCode()] = adapter
	}
	return r
}

// NewDefaultRegistry creates a registry with every supported platform
func NewDefaultRegistry(timeout time.Duration) *Registry {
	return NewRegistry(
		NewWooCommerceAdapter(timeout),
		NewMyDealAdapter(timeout),
	)
}

// Get returns the adapter for the given platform code
func (r *Registry) Get(code integration.PlatformCode) (integration.ConnectorAdapter, error) {
	adapter, ok := r.adapters[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", integration.ErrPlatformNotConfigured, code)
	}
	return adapter, nil
}

// List returns all registered adapters
func (r *Registry) List() []integration.ConnectorAdapter {
	out := make([]integration.ConnectorAdapter, 0, len(r.adapters))
	for _, adapter := range r.adapters {
		out = append(out, adapter)
	}
	return out
}

// Ensure Registry implements the registry contract
var _ integration.ConnectorRegistry = (*Registry)(nil)
