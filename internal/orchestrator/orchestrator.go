package orchestrator

import (
	"context"
	"time"

	"github.com/vk/stagehand/internal/ctxlog"
	"github.com/vk/stagehand/internal/ident"
	"github.com/vk/stagehand/internal/layering"
	"github.com/vk/stagehand/internal/lifecycle"
	"github.com/vk/stagehand/internal/phase"
)

// Store is the component store collaborator: it materializes registrations
// into live instances and owns whatever disposables remain at teardown.
type Store interface {
	// Lookup fetches the materialized instance for id, or reports absence.
	Lookup(id *ident.ID) (any, bool)
	// DestroyAll disposes everything the store still owns, aggregating its
	// own failures into the returned error.
	DestroyAll() error
}

// Binder is an optional store capability. When the store implements it, the
// orchestrator forwards each validated provider at registration time.
type Binder interface {
	Bind(id *ident.ID, p Provider) error
}

// ComponentCallbacks are optional per-component notifications. They are
// observational only and never affect ordering or control flow.
type ComponentCallbacks struct {
	OnStart   func(id *ident.ID)
	OnStop    func(id *ident.ID)
	OnDestroy func(id *ident.ID)
	OnError   func(id *ident.ID, err error)
}

// Tracer receives the computed layers once per phase call and every phase
// outcome as it settles. Observational only.
type Tracer struct {
	OnLayers  func(layers [][]*ident.ID)
	OnOutcome func(o phase.Outcome)
}

// Config carries orchestrator-wide defaults.
type Config struct {
	// Default per-phase hook deadlines. Zero falls through to the lifecycle
	// machine's built-in default.
	CreateTimeout  time.Duration
	StartTimeout   time.Duration
	StopTimeout    time.Duration
	DestroyTimeout time.Duration

	// LayerConcurrency caps components driven at once within a layer.
	// 0 means unbounded.
	LayerConcurrency int
}

type entry struct {
	reg     Registration
	machine *lifecycle.Machine
}

// Orchestrator owns the registration table and cached layering and drives
// the start/stop/destroy phases across all registered components.
type Orchestrator struct {
	store     Store
	cfg       Config
	callbacks ComponentCallbacks
	tracer    Tracer

	regs  map[*ident.ID]*entry
	order []*ident.ID // registration order; keeps layering deterministic

	// layers is derived lazily and dropped on every table mutation.
	layers *layering.Layers

	storeID *ident.ID // pseudo-identifier for store-level destroy failures
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithConfig sets orchestrator-wide defaults.
func WithConfig(cfg Config) Option {
	return func(o *Orchestrator) { o.cfg = cfg }
}

// WithCallbacks installs per-component notifications.
func WithCallbacks(cb ComponentCallbacks) Option {
	return func(o *Orchestrator) { o.callbacks = cb }
}

// WithTracer installs the phase/layer tracer.
func WithTracer(t Tracer) Option {
	return func(o *Orchestrator) { o.tracer = t }
}

// New creates an orchestrator backed by the given component store.
func New(store Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:   store,
		regs:    make(map[*ident.ID]*entry),
		storeID: ident.New("component-store"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Register adds one component to the table. Duplicate identifiers and
// asynchronous providers are rejected eagerly, before any phase runs.
// Registration invalidates the cached layering.
func (o *Orchestrator) Register(reg Registration) error {
	if _, dup := o.regs[reg.ID]; dup {
		return &DuplicateRegistrationError{ID: reg.ID}
	}
	if err := reg.Provider.validate(); err != nil {
		return err
	}

	reg.DependsOn = dedupe(reg.DependsOn)

	if binder, ok := o.store.(Binder); ok {
		if err := binder.Bind(reg.ID, reg.Provider); err != nil {
			return err
		}
	}

	machine := lifecycle.New(
		o.hooksFor(reg),
		lifecycle.WithTimeouts(o.resolveTimeouts(reg.Timeouts)),
		lifecycle.WithPostTransition(func(from, to lifecycle.State, hook string) {
			ctxlog.FromContext(context.Background()).Debug("lifecycle transition",
				"componentID", reg.ID.String(), "from", string(from), "to", string(to), "hook", hook)
		}),
	)

	o.regs[reg.ID] = &entry{reg: reg, machine: machine}
	o.order = append(o.order, reg.ID)
	o.layers = nil
	return nil
}

// State reports the lifecycle state of a registered component.
func (o *Orchestrator) State(id *ident.ID) (lifecycle.State, bool) {
	e, ok := o.regs[id]
	if !ok {
		return "", false
	}
	return e.machine.State(), true
}

// Machine exposes the lifecycle machine of a registered component, for
// event subscription.
func (o *Orchestrator) Machine(id *ident.ID) (*lifecycle.Machine, bool) {
	e, ok := o.regs[id]
	if !ok {
		return nil, false
	}
	return e.machine, true
}

// Layers returns the cached layering, recomputing it after table mutations.
func (o *Orchestrator) Layers() (*layering.Layers, error) {
	if o.layers != nil {
		return o.layers, nil
	}
	nodes := make([]layering.Node, 0, len(o.order))
	for _, id := range o.order {
		nodes = append(nodes, layering.Node{ID: id, Deps: o.regs[id].reg.DependsOn})
	}
	l, err := layering.Compute(nodes)
	if err != nil {
		return nil, err
	}
	o.layers = l
	return l, nil
}

// resolveTimeouts applies the precedence: per-registration override beats
// the orchestrator-wide default beats the machine's built-in default.
func (o *Orchestrator) resolveTimeouts(t lifecycle.Timeouts) lifecycle.Timeouts {
	pick := func(override, def time.Duration) time.Duration {
		if override > 0 {
			return override
		}
		return def
	}
	return lifecycle.Timeouts{
		Create:  pick(t.Create, o.cfg.CreateTimeout),
		Start:   pick(t.Start, o.cfg.StartTimeout),
		Stop:    pick(t.Stop, o.cfg.StopTimeout),
		Destroy: pick(t.Destroy, o.cfg.DestroyTimeout),
	}
}

func dedupe(ids []*ident.ID) []*ident.ID {
	if len(ids) < 2 {
		return ids
	}
	seen := make(map[*ident.ID]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
