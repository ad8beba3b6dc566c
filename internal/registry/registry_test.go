package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/stagehand/internal/config"
)

func buildable() *RegisteredComponent {
	return &RegisteredComponent{
		NewInput: func() any { return new(struct{}) },
		Build:    func(input any) (any, error) { return struct{}{}, nil },
	}
}

func TestRegisterAndLookup(t *testing.T) {
	r := New()
	rc := buildable()
	r.RegisterComponent("memcache", rc)

	got, ok := r.Component("memcache")
	require.True(t, ok)
	assert.Same(t, rc, got)

	_, ok = r.Component("unknown")
	assert.False(t, ok)
}

func TestRegisterComponentPanicsOnDuplicate(t *testing.T) {
	r := New()
	r.RegisterComponent("memcache", buildable())
	assert.Panics(t, func() {
		r.RegisterComponent("memcache", buildable())
	})
}

func TestValidate(t *testing.T) {
	ctx := context.Background()

	t.Run("valid model passes", func(t *testing.T) {
		r := New()
		r.RegisterComponent("memcache", buildable())
		model := &config.Model{Components: []*config.Component{
			{Type: "memcache", Name: "sessions"},
		}}
		assert.NoError(t, r.Validate(ctx, model))
	})

	t.Run("unknown type fails", func(t *testing.T) {
		r := New()
		model := &config.Model{Components: []*config.Component{
			{Type: "ghost", Name: "x"},
		}}
		err := r.Validate(ctx, model)
		require.Error(t, err)
		assert.ErrorContains(t, err, `unknown type "ghost"`)
	})

	t.Run("type without build handler fails", func(t *testing.T) {
		r := New()
		r.RegisterComponent("broken", &RegisteredComponent{})
		err := r.Validate(ctx, &config.Model{})
		require.Error(t, err)
		assert.ErrorContains(t, err, "no Build handler")
	})

	t.Run("arguments against argument-less type fail", func(t *testing.T) {
		r := New()
		r.RegisterComponent("simple", &RegisteredComponent{
			Build: func(input any) (any, error) { return nil, nil },
		})
		model := &config.Model{Components: []*config.Component{
			{Type: "simple", Name: "x", Arguments: map[string]cty.Value{"k": cty.True}},
		}}
		err := r.Validate(ctx, model)
		require.Error(t, err)
		assert.ErrorContains(t, err, "takes none")
	})

	t.Run("multiple problems are all reported", func(t *testing.T) {
		r := New()
		model := &config.Model{Components: []*config.Component{
			{Type: "ghost", Name: "x"},
			{Type: "phantom", Name: "y"},
		}}
		err := r.Validate(ctx, model)
		require.Error(t, err)
		assert.ErrorContains(t, err, "ghost")
		assert.ErrorContains(t, err, "phantom")
	})
}
