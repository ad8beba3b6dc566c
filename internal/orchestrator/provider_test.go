package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/stagehand/internal/ident"
)

func TestProviderKindString(t *testing.T) {
	assert.Equal(t, "value", KindValue.String())
	assert.Equal(t, "factory", KindFactory.String())
	assert.Equal(t, "constructor", KindConstructor.String())
	assert.Equal(t, "raw", KindRaw.String())
}

func TestProviderMaterialize(t *testing.T) {
	t.Run("value", func(t *testing.T) {
		p := Value(42)
		assert.Equal(t, KindValue, p.Kind())
		v, err := p.Materialize()
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	})

	t.Run("raw keeps a function as-is", func(t *testing.T) {
		fn := func() string { return "hi" }
		p := Raw(fn)
		assert.Equal(t, KindRaw, p.Kind())
		v, err := p.Materialize()
		require.NoError(t, err)
		got, ok := v.(func() string)
		require.True(t, ok)
		assert.Equal(t, "hi", got())
	})

	t.Run("factory", func(t *testing.T) {
		p := FromFactory(func() (any, error) { return "built", nil })
		v, err := p.Materialize()
		require.NoError(t, err)
		assert.Equal(t, "built", v)
	})

	t.Run("factory error propagates", func(t *testing.T) {
		boom := errors.New("boom")
		p := FromFactory(func() (any, error) { return nil, boom })
		_, err := p.Materialize()
		assert.ErrorIs(t, err, boom)
	})

	t.Run("constructor", func(t *testing.T) {
		p := FromConstructor(func() any { return "ctor" })
		v, err := p.Materialize()
		require.NoError(t, err)
		assert.Equal(t, "ctor", v)
	})
}

func TestFromFunc(t *testing.T) {
	t.Run("single return", func(t *testing.T) {
		p, err := FromFunc(func() string { return "one" })
		require.NoError(t, err)
		v, err := p.Materialize()
		require.NoError(t, err)
		assert.Equal(t, "one", v)
	})

	t.Run("value and error return", func(t *testing.T) {
		p, err := FromFunc(func() (int, error) { return 7, nil })
		require.NoError(t, err)
		v, err := p.Materialize()
		require.NoError(t, err)
		assert.Equal(t, 7, v)
	})

	t.Run("error return propagates", func(t *testing.T) {
		boom := errors.New("boom")
		p, err := FromFunc(func() (int, error) { return 0, boom })
		require.NoError(t, err)
		_, err = p.Materialize()
		assert.ErrorIs(t, err, boom)
	})

	t.Run("rejects wrong shapes", func(t *testing.T) {
		_, err := FromFunc(42)
		assert.Error(t, err)
		_, err = FromFunc(func(s string) string { return s })
		assert.Error(t, err)
		_, err = FromFunc(func() {})
		assert.Error(t, err)
		_, err = FromFunc(func() (int, string) { return 0, "" })
		assert.Error(t, err)
	})

	t.Run("deferred return is flagged", func(t *testing.T) {
		p, err := FromFunc(func() *Deferred { return NewDeferred() })
		require.NoError(t, err)
		assert.Error(t, p.validate())
	})
}

func TestProviderValidate(t *testing.T) {
	t.Run("plain providers pass", func(t *testing.T) {
		assert.NoError(t, Value("v").validate())
		assert.NoError(t, Raw("r").validate())
		assert.NoError(t, FromFactory(func() (any, error) { return nil, nil }).validate())
		assert.NoError(t, FromConstructor(func() any { return nil }).validate())
	})

	t.Run("async flavors fail", func(t *testing.T) {
		assert.Error(t, Value(NewDeferred()).validate())
		assert.Error(t, Raw(NewDeferred()).validate())
		assert.Error(t, AsyncFactory(func() (any, error) { return nil, nil }).validate())
	})
}

func TestDeferred(t *testing.T) {
	t.Run("resolve then await", func(t *testing.T) {
		d := NewDeferred()
		d.Resolve("v")
		v, err := d.Await(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "v", v)
	})

	t.Run("second resolve is ignored", func(t *testing.T) {
		d := NewDeferred()
		d.Resolve("first")
		d.Resolve("second")
		v, err := d.Await(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "first", v)
	})

	t.Run("await honors context", func(t *testing.T) {
		d := NewDeferred()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err := d.Await(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestRegistryInstances(t *testing.T) {
	def := New(nopStore{})
	r := NewRegistry(map[string]*Orchestrator{DefaultKey: def})

	got, ok := r.Default()
	require.True(t, ok)
	assert.Same(t, def, got)

	_, ok = r.Get("staging")
	assert.False(t, ok)

	staging := New(nopStore{})
	r.Put("staging", staging)
	got, ok = r.Get("staging")
	require.True(t, ok)
	assert.Same(t, staging, got)

	r.Remove("staging")
	_, ok = r.Get("staging")
	assert.False(t, ok)

	// Two registries do not share state.
	other := NewRegistry(nil)
	_, ok = other.Default()
	assert.False(t, ok)
}

// nopStore satisfies Store for tests that never drive phases.
type nopStore struct{}

func (nopStore) Lookup(id *ident.ID) (any, bool) { return nil, false }
func (nopStore) DestroyAll() error               { return nil }
