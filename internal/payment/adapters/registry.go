package adapters

import (
	"strings"

	"github.com/shawnuphold/wishpark/internal/payment/domain"
)

// Registry holds the configured webhook adapters keyed by provider name.
type Registry struct {
	adapters map[string]domain.Adapter
}

func NewRegistry(adapters ...domain.Adapter) *Registry {
	r := &Registry{adapters: make(map[string]domain.Adapter, len(adapters))}
	for _, adapter := range adapters {
		if adapter == nil {
			continue
		}
		r.adapters[strings.ToLower(adapter.Provider())] = adapter
	}
	return r
}

func (r *Registry) Get(provider string) (domain.Adapter, bool) {
	adapter, ok := r.adapters[strings.ToLower(strings.TrimSpace(provider))]
	return adapter, ok
}
