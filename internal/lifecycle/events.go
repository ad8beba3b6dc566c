package lifecycle

import (
	"sync"
	"time"

	"github.com/vk/stagehand/internal/phase"
)

// Transition reports a completed state change. Replay marks the one-time
// deferred notification a new transition subscriber receives with the
// machine's current state.
type Transition struct {
	From   State
	To     State
	Hook   string
	Replay bool
}

// HookEvent reports a successfully executed phase hook.
type HookEvent struct {
	Phase    phase.Phase
	Hook     string
	Duration time.Duration
}

// Subscription is the removal token returned by every subscribe call.
// Cancel is idempotent.
type Subscription struct {
	cancel func()
	once   sync.Once
}

// Cancel removes the subscription.
func (s *Subscription) Cancel() {
	s.once.Do(s.cancel)
}

// subscriptions is a slot table of listeners keyed by opaque tokens, so
// removal never depends on function identity.
type subscriptions struct {
	// opMu serializes whole lifecycle operations; mu guards the tables and
	// the machine state for short reads.
	opMu sync.Mutex
	mu   sync.Mutex

	next       uint64
	transition map[uint64]func(Transition)
	hook       map[uint64]func(HookEvent)
	err        map[uint64]func(error)
}

func (s *subscriptions) init() {
	s.transition = make(map[uint64]func(Transition))
	s.hook = make(map[uint64]func(HookEvent))
	s.err = make(map[uint64]func(error))
}

func (s *subscriptions) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transition = make(map[uint64]func(Transition))
	s.hook = make(map[uint64]func(HookEvent))
	s.err = make(map[uint64]func(error))
}

// OnTransition subscribes to state changes. The subscriber immediately gets
// a one-time deferred replay of the current state, so late subscribers
// observe the initial state without racing construction.
func (m *Machine) OnTransition(fn func(Transition)) *Subscription {
	m.subs.mu.Lock()
	token := m.subs.next
	m.subs.next++
	m.subs.transition[token] = fn
	current := m.state
	m.subs.mu.Unlock()

	go fn(Transition{From: current, To: current, Replay: true})

	return &Subscription{cancel: func() {
		m.subs.mu.Lock()
		defer m.subs.mu.Unlock()
		delete(m.subs.transition, token)
	}}
}

// OnHook subscribes to successful hook executions.
func (m *Machine) OnHook(fn func(HookEvent)) *Subscription {
	m.subs.mu.Lock()
	token := m.subs.next
	m.subs.next++
	m.subs.hook[token] = fn
	m.subs.mu.Unlock()

	return &Subscription{cancel: func() {
		m.subs.mu.Lock()
		defer m.subs.mu.Unlock()
		delete(m.subs.hook, token)
	}}
}

// OnError subscribes to failed phase operations. The error is always a
// *HookError.
func (m *Machine) OnError(fn func(error)) *Subscription {
	m.subs.mu.Lock()
	token := m.subs.next
	m.subs.next++
	m.subs.err[token] = fn
	m.subs.mu.Unlock()

	return &Subscription{cancel: func() {
		m.subs.mu.Lock()
		defer m.subs.mu.Unlock()
		delete(m.subs.err, token)
	}}
}

func (s *subscriptions) emitTransition(t Transition) {
	for _, fn := range s.snapshotTransition() {
		fn(t)
	}
}

func (s *subscriptions) emitHook(ev HookEvent) {
	s.mu.Lock()
	fns := make([]func(HookEvent), 0, len(s.hook))
	for _, fn := range s.hook {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

func (s *subscriptions) emitError(err error) {
	s.mu.Lock()
	fns := make([]func(error), 0, len(s.err))
	for _, fn := range s.err {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(err)
	}
}

func (s *subscriptions) snapshotTransition() []func(Transition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fns := make([]func(Transition), 0, len(s.transition))
	for _, fn := range s.transition {
		fns = append(fns, fn)
	}
	return fns
}
