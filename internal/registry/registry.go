package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/stagehand/internal/config"
	"github.com/vk/stagehand/internal/ctxlog"
)

// Module is the interface all built-in modules implement to be registered.
type Module interface {
	Register(r *Registry)
}

// RegisteredComponent binds a manifest component type to Go handlers.
type RegisteredComponent struct {
	// NewInput allocates the argument struct the manifest arguments decode
	// into. Nil means the type takes no arguments.
	NewInput func() any
	// Build materializes a component instance from the decoded input. The
	// instance's lifecycle interfaces (Start/Stop/Destroy) become its phase
	// hooks.
	Build func(input any) (any, error)
}

// Registry maps component type names to their registered handlers.
type Registry struct {
	components map[string]*RegisteredComponent
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{components: make(map[string]*RegisteredComponent)}
}

// RegisterComponent installs the handlers for a component type. Registering
// the same type twice is a programmer error and panics.
func (r *Registry) RegisterComponent(typeName string, rc *RegisteredComponent) {
	if _, dup := r.components[typeName]; dup {
		panic(fmt.Sprintf("registry: component type %q registered twice", typeName))
	}
	r.components[typeName] = rc
}

// Component looks up the handlers for a type.
func (r *Registry) Component(typeName string) (*RegisteredComponent, bool) {
	rc, ok := r.components[typeName]
	return rc, ok
}

// Validate cross-checks the loaded model against the registered handlers:
// every component block must reference a known type, and every registered
// type must be buildable.
func (r *Registry) Validate(ctx context.Context, model *config.Model) error {
	logger := ctxlog.FromContext(ctx)
	var errs []string

	for name, rc := range r.components {
		if rc.Build == nil {
			errs = append(errs, fmt.Sprintf("component type %q has no Build handler", name))
		}
	}
	for _, comp := range model.Components {
		rc, ok := r.components[comp.Type]
		if !ok {
			errs = append(errs, fmt.Sprintf("component %q references unknown type %q", comp.Name, comp.Type))
			continue
		}
		if len(comp.Arguments) > 0 && rc.NewInput == nil {
			errs = append(errs, fmt.Sprintf("component %q passes arguments but type %q takes none", comp.Name, comp.Type))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	logger.Debug("registry validation passed", "types", len(r.components), "components", len(model.Components))
	return nil
}
