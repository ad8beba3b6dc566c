package config

import (
	"context"
	"time"

	"github.com/zclconf/go-cty/cty"
)

// Model is the unified representation of the application manifest.
type Model struct {
	Components []*Component
}

// Component describes one manifest `component` block: a named instance of a
// registered component type.
type Component struct {
	Type string
	Name string

	// DependsOn lists the names of components that must be started first.
	DependsOn []string

	// Per-phase timeout overrides. Zero means no override.
	CreateTimeout  time.Duration
	StartTimeout   time.Duration
	StopTimeout    time.Duration
	DestroyTimeout time.Duration

	// Arguments holds the evaluated values of the component's arguments
	// block, decoded into the handler's input struct at build time.
	Arguments map[string]cty.Value
}

// Loader turns manifest paths into the format-agnostic model.
type Loader interface {
	Load(ctx context.Context, paths ...string) (*Model, error)
}
