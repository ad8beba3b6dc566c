package orchestrator

import (
	"context"
	"fmt"

	"github.com/vk/stagehand/internal/diag"
	"github.com/vk/stagehand/internal/ident"
	"github.com/vk/stagehand/internal/lifecycle"
)

// Lifecycle interfaces a component instance may implement. The orchestrator
// adapts whichever are present into the machine's phase hooks; missing
// methods are no-ops.
type (
	// Initializable runs once during the create phase.
	Initializable interface {
		Init(ctx context.Context) error
	}
	// Startable is invoked on every start phase.
	Startable interface {
		Start(ctx context.Context) error
	}
	// Stoppable is invoked on every stop phase.
	Stoppable interface {
		Stop(ctx context.Context) error
	}
	// Destroyable is invoked on the destroy phase.
	Destroyable interface {
		Destroy(ctx context.Context) error
	}
)

// Registration describes one component: its identifier, how to materialize
// it, what it depends on, and optional per-phase deadline overrides.
type Registration struct {
	ID        *ident.ID
	Provider  Provider
	DependsOn []*ident.ID

	// Hooks, when set, replace the corresponding instance-interface hooks.
	Hooks lifecycle.Hooks

	// Timeouts override the orchestrator-wide defaults per phase; zero
	// fields fall through to the default, then to the machine's built-in.
	Timeouts lifecycle.Timeouts
}

// DuplicateRegistrationError rejects a second registration of the same
// identifier.
type DuplicateRegistrationError struct {
	ID *ident.ID
}

func (e *DuplicateRegistrationError) Error() string {
	return fmt.Sprintf("duplicate registration: %s", e.ID)
}

// DiagCode implements diag.Coder.
func (e *DuplicateRegistrationError) DiagCode() diag.Code { return diag.CodeDuplicateRegistration }

// hooksFor binds the registration's hooks: explicit hooks win, otherwise the
// live instance is fetched from the store at phase time and its lifecycle
// interfaces are invoked.
func (o *Orchestrator) hooksFor(reg Registration) lifecycle.Hooks {
	id := reg.ID
	h := reg.Hooks
	if h.OnCreate == nil {
		h.OnCreate = func(ctx context.Context) error {
			if inst, ok := o.store.Lookup(id); ok {
				if c, ok := inst.(Initializable); ok {
					return c.Init(ctx)
				}
			}
			return nil
		}
	}
	if h.OnStart == nil {
		h.OnStart = func(ctx context.Context) error {
			if inst, ok := o.store.Lookup(id); ok {
				if s, ok := inst.(Startable); ok {
					return s.Start(ctx)
				}
			}
			return nil
		}
	}
	if h.OnStop == nil {
		h.OnStop = func(ctx context.Context) error {
			if inst, ok := o.store.Lookup(id); ok {
				if s, ok := inst.(Stoppable); ok {
					return s.Stop(ctx)
				}
			}
			return nil
		}
	}
	if h.OnDestroy == nil {
		h.OnDestroy = func(ctx context.Context) error {
			if inst, ok := o.store.Lookup(id); ok {
				if d, ok := inst.(Destroyable); ok {
					return d.Destroy(ctx)
				}
			}
			return nil
		}
	}
	return h
}
