// Package memcache provides an in-process key/value cache component with TTL
// expiry. Its janitor goroutine runs between the start and stop phases.
package memcache

import (
	"github.com/vk/stagehand/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the memcache component type with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterComponent("memcache", &registry.RegisteredComponent{
		NewInput: func() any { return new(Input) },
		Build: func(input any) (any, error) {
			return newCache(input.(*Input))
		},
	})
}
