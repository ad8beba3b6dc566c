package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/stagehand/internal/diag"
	"github.com/vk/stagehand/internal/phase"
	"github.com/vk/stagehand/internal/scheduler"
)

// DefaultHookTimeout bounds a hook plus its post-transition callback when no
// override is configured.
const DefaultHookTimeout = 5000 * time.Millisecond

// Hook is a user-supplied phase hook. It must honor ctx to benefit from
// cooperative timeout handling; a hook that ignores ctx and overruns the
// deadline keeps running in the background while the operation fails.
type Hook func(ctx context.Context) error

// Hooks carries the optional per-phase hooks of one component. Nil hooks
// are no-ops; the transition still runs and fires events.
type Hooks struct {
	OnCreate  Hook
	OnStart   Hook
	OnStop    Hook
	OnDestroy Hook
}

// Timeouts overrides the shared hook deadline per phase. Zero fields fall
// back to DefaultHookTimeout.
type Timeouts struct {
	Create  time.Duration
	Start   time.Duration
	Stop    time.Duration
	Destroy time.Duration
}

// PostTransition is the cross-cutting callback invoked after each phase hook,
// in order, under the same deadline as the hook itself.
type PostTransition func(from, to State, hookName string)

// HookError wraps a failed or timed-out phase operation.
type HookError struct {
	Phase    phase.Phase
	TimedOut bool
	Err      error
}

func (e *HookError) Error() string {
	if e.TimedOut {
		return fmt.Sprintf("%s hook timed out: %v", e.Phase, e.Err)
	}
	return fmt.Sprintf("%s hook failed: %v", e.Phase, e.Err)
}

func (e *HookError) Unwrap() error { return e.Err }

// DiagCode implements diag.Coder.
func (e *HookError) DiagCode() diag.Code {
	if e.TimedOut {
		return diag.CodeHookTimeout
	}
	return diag.CodeHookFailure
}

// Machine is the lifecycle state machine of one component.
//
// Operations are serialized: one hook-plus-callback pair runs at a time, so
// the pair is atomic with respect to other operations on the same machine.
// Event callbacks run synchronously on the operation's goroutine and must
// not invoke lifecycle operations on the same machine.
type Machine struct {
	hooks    Hooks
	timeouts Timeouts
	post     PostTransition

	state State
	subs  subscriptions
}

// Option configures a Machine at construction.
type Option func(*Machine)

// WithTimeouts sets per-phase deadline overrides.
func WithTimeouts(t Timeouts) Option {
	return func(m *Machine) { m.timeouts = t }
}

// WithPostTransition installs the post-transition callback.
func WithPostTransition(fn PostTransition) Option {
	return func(m *Machine) { m.post = fn }
}

// New creates a machine in the created state.
func New(hooks Hooks, opts ...Option) *Machine {
	m := &Machine{
		hooks: hooks,
		state: StateCreated,
	}
	m.subs.init()
	for _, o := range opts {
		o(m)
	}
	return m
}

// State reports the current lifecycle state.
func (m *Machine) State() State {
	m.subs.mu.Lock()
	defer m.subs.mu.Unlock()
	return m.state
}

// Create runs the one-time creation hook. Legal only in the created state;
// the machine remains created afterward.
func (m *Machine) Create(ctx context.Context) error {
	return m.transition(ctx, phase.Create, StateCreated, m.hooks.OnCreate, m.timeouts.Create)
}

// Start moves the machine to started. Legal from created or stopped.
func (m *Machine) Start(ctx context.Context) error {
	return m.transition(ctx, phase.Start, StateStarted, m.hooks.OnStart, m.timeouts.Start)
}

// Stop moves the machine to stopped. Legal only from started.
func (m *Machine) Stop(ctx context.Context) error {
	return m.transition(ctx, phase.Stop, StateStopped, m.hooks.OnStop, m.timeouts.Stop)
}

// Destroy moves the machine to its terminal state from any non-terminal
// state. All event subscriptions are cleared afterward.
func (m *Machine) Destroy(ctx context.Context) error {
	err := m.transition(ctx, phase.Destroy, StateDestroyed, m.hooks.OnDestroy, m.timeouts.Destroy)
	if err == nil {
		m.subs.clear()
	}
	return err
}

func hookName(p phase.Phase) string {
	switch p {
	case phase.Create:
		return "onCreate"
	case phase.Start:
		return "onStart"
	case phase.Stop:
		return "onStop"
	case phase.Destroy:
		return "onDestroy"
	}
	return string(p)
}

// transition drives one phase: legality check, then the hook and the
// post-transition callback submitted as two ordered units with concurrency 1
// and the phase deadline shared between them. The state changes only when
// both units succeed.
func (m *Machine) transition(ctx context.Context, p phase.Phase, to State, hook Hook, timeout time.Duration) error {
	m.subs.opMu.Lock()
	defer m.subs.opMu.Unlock()

	m.subs.mu.Lock()
	from := m.state
	m.subs.mu.Unlock()

	if !legalEdge(from, to) {
		return &InvalidTransitionError{From: from, To: to}
	}
	if timeout <= 0 {
		timeout = DefaultHookTimeout
	}
	name := hookName(p)

	tasks := []scheduler.Task{
		func(taskCtx context.Context) (any, error) {
			if hook == nil {
				return nil, nil
			}
			return nil, hook(taskCtx)
		},
		func(context.Context) (any, error) {
			if m.post != nil {
				m.post(from, to, name)
			}
			return nil, nil
		},
	}

	results, err := scheduler.Run(ctx, tasks, scheduler.Options{
		Concurrency: 1,
		Deadline:    timeout,
	})
	if err != nil {
		herr := &HookError{
			Phase:    p,
			TimedOut: diag.CodeOf(err) == diag.CodeDeadlineExceeded || results[0].TimedOut,
			Err:      err,
		}
		m.subs.emitError(herr)
		return herr
	}

	m.subs.mu.Lock()
	m.state = to
	m.subs.mu.Unlock()

	m.subs.emitTransition(Transition{From: from, To: to, Hook: name})
	m.subs.emitHook(HookEvent{Phase: p, Hook: name, Duration: results[0].Duration})
	return nil
}
