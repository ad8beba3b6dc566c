// Package builder translates a loaded manifest model into orchestrator
// registrations, resolving component names to identifiers and binding each
// component type's Build handler as its provider.
package builder

import (
	"context"
	"fmt"

	"github.com/vk/stagehand/internal/config"
	"github.com/vk/stagehand/internal/ctxlog"
	"github.com/vk/stagehand/internal/hclconf"
	"github.com/vk/stagehand/internal/ident"
	"github.com/vk/stagehand/internal/lifecycle"
	"github.com/vk/stagehand/internal/orchestrator"
	"github.com/vk/stagehand/internal/registry"
)

// Registrations builds one orchestrator registration per manifest component,
// in manifest order. Dependency names must refer to components defined in
// the same model.
func Registrations(ctx context.Context, model *config.Model, reg *registry.Registry) ([]orchestrator.Registration, error) {
	logger := ctxlog.FromContext(ctx)

	ids := make(map[string]*ident.ID, len(model.Components))
	for _, comp := range model.Components {
		ids[comp.Name] = ident.New(comp.Type + "." + comp.Name)
	}

	regs := make([]orchestrator.Registration, 0, len(model.Components))
	for _, comp := range model.Components {
		rc, ok := reg.Component(comp.Type)
		if !ok {
			return nil, fmt.Errorf("component %q references unknown type %q", comp.Name, comp.Type)
		}

		deps := make([]*ident.ID, 0, len(comp.DependsOn))
		for _, depName := range comp.DependsOn {
			depID, ok := ids[depName]
			if !ok {
				return nil, fmt.Errorf("component %q depends on undefined component %q", comp.Name, depName)
			}
			deps = append(deps, depID)
		}

		regs = append(regs, orchestrator.Registration{
			ID:        ids[comp.Name],
			Provider:  providerFor(comp, rc),
			DependsOn: deps,
			Timeouts: lifecycle.Timeouts{
				Create:  comp.CreateTimeout,
				Start:   comp.StartTimeout,
				Stop:    comp.StopTimeout,
				Destroy: comp.DestroyTimeout,
			},
		})
	}

	logger.Debug("built registrations from manifest", "count", len(regs))
	return regs, nil
}

// providerFor wraps a type's Build handler as a synchronous factory that
// decodes the component's manifest arguments first.
func providerFor(comp *config.Component, rc *registry.RegisteredComponent) orchestrator.Provider {
	return orchestrator.FromFactory(func() (any, error) {
		var input any
		if rc.NewInput != nil {
			input = rc.NewInput()
			if err := hclconf.DecodeArguments(comp.Arguments, input); err != nil {
				return nil, fmt.Errorf("decoding arguments for %q: %w", comp.Name, err)
			}
		}
		return rc.Build(input)
	})
}
