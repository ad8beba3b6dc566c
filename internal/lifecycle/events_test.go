package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// transitionRecorder collects transition events safely across goroutines.
type transitionRecorder struct {
	mu     sync.Mutex
	events []Transition
	ch     chan Transition
}

func newTransitionRecorder() *transitionRecorder {
	return &transitionRecorder{ch: make(chan Transition, 16)}
}

func (r *transitionRecorder) record(t Transition) {
	r.mu.Lock()
	r.events = append(r.events, t)
	r.mu.Unlock()
	r.ch <- t
}

func (r *transitionRecorder) wait(t *testing.T) Transition {
	t.Helper()
	select {
	case ev := <-r.ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for transition event")
		return Transition{}
	}
}

func TestOnTransitionReplaysCurrentState(t *testing.T) {
	m := New(Hooks{})
	rec := newTransitionRecorder()
	sub := m.OnTransition(rec.record)
	defer sub.Cancel()

	ev := rec.wait(t)
	assert.True(t, ev.Replay)
	assert.Equal(t, StateCreated, ev.From)
	assert.Equal(t, StateCreated, ev.To)
	assert.Empty(t, ev.Hook)
}

func TestOnTransitionReplayAfterProgress(t *testing.T) {
	m := New(Hooks{})
	require.NoError(t, m.Start(context.Background()))

	rec := newTransitionRecorder()
	sub := m.OnTransition(rec.record)
	defer sub.Cancel()

	ev := rec.wait(t)
	assert.True(t, ev.Replay)
	assert.Equal(t, StateStarted, ev.To)
}

func TestOnTransitionObservesChanges(t *testing.T) {
	m := New(Hooks{})
	rec := newTransitionRecorder()
	sub := m.OnTransition(rec.record)
	defer sub.Cancel()
	rec.wait(t) // discard the replay

	require.NoError(t, m.Start(context.Background()))
	ev := rec.wait(t)
	assert.False(t, ev.Replay)
	assert.Equal(t, StateCreated, ev.From)
	assert.Equal(t, StateStarted, ev.To)
	assert.Equal(t, "onStart", ev.Hook)

	require.NoError(t, m.Stop(context.Background()))
	ev = rec.wait(t)
	assert.Equal(t, StateStarted, ev.From)
	assert.Equal(t, StateStopped, ev.To)
	assert.Equal(t, "onStop", ev.Hook)
}

func TestSubscriptionCancel(t *testing.T) {
	m := New(Hooks{})
	rec := newTransitionRecorder()
	sub := m.OnTransition(rec.record)
	rec.wait(t) // replay

	sub.Cancel()
	sub.Cancel() // idempotent

	require.NoError(t, m.Start(context.Background()))
	select {
	case ev := <-rec.ch:
		t.Fatalf("cancelled subscription still received %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestOnHook(t *testing.T) {
	m := New(Hooks{OnStart: func(ctx context.Context) error {
		time.Sleep(5 * time.Millisecond)
		return nil
	}})

	ch := make(chan HookEvent, 1)
	sub := m.OnHook(func(ev HookEvent) { ch <- ev })
	defer sub.Cancel()

	require.NoError(t, m.Start(context.Background()))

	ev := <-ch
	assert.Equal(t, "onStart", ev.Hook)
	assert.Greater(t, ev.Duration, time.Duration(0))
}

func TestOnHookNotFiredOnFailure(t *testing.T) {
	m := New(Hooks{OnStart: func(ctx context.Context) error { return errors.New("boom") }})

	ch := make(chan HookEvent, 1)
	sub := m.OnHook(func(ev HookEvent) { ch <- ev })
	defer sub.Cancel()

	require.Error(t, m.Start(context.Background()))
	select {
	case <-ch:
		t.Fatal("hook event fired for a failed phase")
	default:
	}
}

func TestOnError(t *testing.T) {
	boom := errors.New("boom")
	m := New(Hooks{OnStart: func(ctx context.Context) error { return boom }})

	ch := make(chan error, 1)
	sub := m.OnError(func(err error) { ch <- err })
	defer sub.Cancel()

	require.Error(t, m.Start(context.Background()))

	err := <-ch
	var hookErr *HookError
	require.ErrorAs(t, err, &hookErr)
	assert.ErrorIs(t, err, boom)
}

func TestDestroyClearsSubscriptions(t *testing.T) {
	m := New(Hooks{})
	rec := newTransitionRecorder()
	m.OnTransition(rec.record)
	rec.wait(t) // replay

	require.NoError(t, m.Destroy(context.Background()))
	rec.wait(t) // the destroy transition itself is still delivered

	// A new subscriber on a destroyed machine still gets the replay.
	rec2 := newTransitionRecorder()
	m.OnTransition(rec2.record)
	ev := rec2.wait(t)
	assert.True(t, ev.Replay)
	assert.Equal(t, StateDestroyed, ev.To)
}

func TestMultipleSubscribersAllNotified(t *testing.T) {
	m := New(Hooks{})
	recA := newTransitionRecorder()
	recB := newTransitionRecorder()
	m.OnTransition(recA.record)
	m.OnTransition(recB.record)
	recA.wait(t)
	recB.wait(t)

	require.NoError(t, m.Start(context.Background()))
	assert.Equal(t, StateStarted, recA.wait(t).To)
	assert.Equal(t, StateStarted, recB.wait(t).To)
}
