// Package httpprobe provides a component that verifies an HTTP endpoint is
// reachable when it starts and, optionally, keeps probing it in the
// background while running.
package httpprobe

import (
	"github.com/vk/stagehand/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the http_probe component type with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterComponent("http_probe", &registry.RegisteredComponent{
		NewInput: func() any { return new(Input) },
		Build: func(input any) (any, error) {
			return newProbe(input.(*Input))
		},
	})
}
