package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/stagehand/internal/diag"
	"github.com/vk/stagehand/internal/phase"
)

func TestMachineInitialState(t *testing.T) {
	m := New(Hooks{})
	assert.Equal(t, StateCreated, m.State())
}

func TestMachineFullLifecycle(t *testing.T) {
	var calls []string
	var mu sync.Mutex
	record := func(name string) Hook {
		return func(ctx context.Context) error {
			mu.Lock()
			calls = append(calls, name)
			mu.Unlock()
			return nil
		}
	}

	m := New(Hooks{
		OnCreate:  record("create"),
		OnStart:   record("start"),
		OnStop:    record("stop"),
		OnDestroy: record("destroy"),
	})
	ctx := context.Background()

	require.NoError(t, m.Create(ctx))
	assert.Equal(t, StateCreated, m.State())

	require.NoError(t, m.Start(ctx))
	assert.Equal(t, StateStarted, m.State())

	require.NoError(t, m.Stop(ctx))
	assert.Equal(t, StateStopped, m.State())

	// A stopped machine may start again.
	require.NoError(t, m.Start(ctx))
	require.NoError(t, m.Stop(ctx))

	require.NoError(t, m.Destroy(ctx))
	assert.Equal(t, StateDestroyed, m.State())

	assert.Equal(t, []string{"create", "start", "stop", "start", "stop", "destroy"}, calls)
}

func TestMachineNilHooksStillTransition(t *testing.T) {
	m := New(Hooks{})
	ctx := context.Background()

	require.NoError(t, m.Start(ctx))
	require.NoError(t, m.Stop(ctx))
	require.NoError(t, m.Destroy(ctx))
	assert.Equal(t, StateDestroyed, m.State())
}

func TestMachineIllegalTransitions(t *testing.T) {
	ctx := context.Background()

	t.Run("stop before start", func(t *testing.T) {
		m := New(Hooks{})
		err := m.Stop(ctx)
		require.Error(t, err)

		var invalid *InvalidTransitionError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, StateCreated, invalid.From)
		assert.Equal(t, StateStopped, invalid.To)
		assert.Equal(t, diag.CodeInvalidTransition, diag.CodeOf(err))
		assert.Equal(t, StateCreated, m.State())
	})

	t.Run("double start", func(t *testing.T) {
		m := New(Hooks{})
		require.NoError(t, m.Start(ctx))
		err := m.Start(ctx)
		var invalid *InvalidTransitionError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, StateStarted, m.State())
	})

	t.Run("create after start", func(t *testing.T) {
		m := New(Hooks{})
		require.NoError(t, m.Start(ctx))
		var invalid *InvalidTransitionError
		require.ErrorAs(t, m.Create(ctx), &invalid)
	})

	t.Run("destroyed is terminal", func(t *testing.T) {
		m := New(Hooks{})
		require.NoError(t, m.Destroy(ctx))

		var invalid *InvalidTransitionError
		require.ErrorAs(t, m.Start(ctx), &invalid)
		require.ErrorAs(t, m.Stop(ctx), &invalid)
		require.ErrorAs(t, m.Destroy(ctx), &invalid)
		assert.Equal(t, StateDestroyed, m.State())
	})

	t.Run("illegal call runs no hook", func(t *testing.T) {
		var ran bool
		m := New(Hooks{OnStop: func(ctx context.Context) error { ran = true; return nil }})
		require.Error(t, m.Stop(ctx))
		assert.False(t, ran)
	})
}

func TestMachineHookFailure(t *testing.T) {
	boom := errors.New("boom")
	m := New(Hooks{OnStart: func(ctx context.Context) error { return boom }})

	err := m.Start(context.Background())
	require.Error(t, err)

	var hookErr *HookError
	require.ErrorAs(t, err, &hookErr)
	assert.Equal(t, phase.Start, hookErr.Phase)
	assert.False(t, hookErr.TimedOut)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, diag.CodeHookFailure, diag.CodeOf(err))

	// The machine stays where it was.
	assert.Equal(t, StateCreated, m.State())
}

func TestMachineHookTimeout(t *testing.T) {
	m := New(
		Hooks{OnStart: func(ctx context.Context) error {
			select {
			case <-time.After(5 * time.Second):
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}},
		WithTimeouts(Timeouts{Start: 30 * time.Millisecond}),
	)

	start := time.Now()
	err := m.Start(context.Background())
	elapsed := time.Since(start)

	require.Error(t, err)
	var hookErr *HookError
	require.ErrorAs(t, err, &hookErr)
	assert.True(t, hookErr.TimedOut)
	assert.Equal(t, diag.CodeHookTimeout, diag.CodeOf(err))
	assert.Equal(t, StateCreated, m.State())
	assert.Less(t, elapsed, time.Second)
}

func TestMachinePostTransitionRunsAfterHook(t *testing.T) {
	var calls []string
	var mu sync.Mutex

	m := New(
		Hooks{OnStart: func(ctx context.Context) error {
			mu.Lock()
			calls = append(calls, "hook")
			mu.Unlock()
			return nil
		}},
		WithPostTransition(func(from, to State, hookName string) {
			mu.Lock()
			calls = append(calls, "post:"+string(from)+">"+string(to)+":"+hookName)
			mu.Unlock()
		}),
	)

	require.NoError(t, m.Start(context.Background()))
	assert.Equal(t, []string{"hook", "post:created>started:onStart"}, calls)
}

func TestMachinePostTransitionSkippedOnHookFailure(t *testing.T) {
	var postRan bool
	m := New(
		Hooks{OnStart: func(ctx context.Context) error { return errors.New("boom") }},
		WithPostTransition(func(from, to State, hookName string) { postRan = true }),
	)

	require.Error(t, m.Start(context.Background()))
	assert.False(t, postRan)
}

func TestMachineTimeoutCoversHookAndCallback(t *testing.T) {
	// A fast hook plus a slow post callback must still trip the shared
	// phase deadline.
	m := New(
		Hooks{OnStart: func(ctx context.Context) error { return nil }},
		WithTimeouts(Timeouts{Start: 30 * time.Millisecond}),
		WithPostTransition(func(from, to State, hookName string) {
			time.Sleep(100 * time.Millisecond)
		}),
	)

	err := m.Start(context.Background())
	require.Error(t, err)
	var hookErr *HookError
	require.ErrorAs(t, err, &hookErr)
	assert.True(t, hookErr.TimedOut)
	assert.Equal(t, StateCreated, m.State())
}

func TestMachineDefaultHookTimeout(t *testing.T) {
	assert.Equal(t, 5*time.Second, DefaultHookTimeout)
}
