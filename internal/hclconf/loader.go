package hclconf

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/stagehand/internal/config"
	"github.com/vk/stagehand/internal/ctxlog"
	"github.com/vk/stagehand/internal/fsutil"
)

// Loader is the HCL implementation of config.Loader.
type Loader struct {
	parser *hclparse.Parser
}

// NewLoader creates an HCL manifest loader.
func NewLoader() *Loader {
	return &Loader{parser: hclparse.NewParser()}
}

// Load parses every .hcl file under the given paths (files or directories)
// and merges their component blocks into one model. Component names must be
// unique across all files.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)

	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("manifest path %q: %w", p, err)
		}
		if info.IsDir() {
			found, err := fsutil.FindFilesByExtension(p, ".hcl")
			if err != nil {
				return nil, fmt.Errorf("scanning %q: %w", p, err)
			}
			files = append(files, found...)
		} else {
			files = append(files, p)
		}
	}
	logger.Debug("loading manifest files", "count", len(files))

	model := &config.Model{}
	seen := make(map[string]string) // component name -> file
	for _, f := range files {
		hclFile, diags := l.parser.ParseHCLFile(f)
		if diags.HasErrors() {
			return nil, fmt.Errorf("parsing %q: %w", f, diags)
		}

		var m manifest
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &m); diags.HasErrors() {
			return nil, fmt.Errorf("decoding %q: %w", f, diags)
		}

		for _, block := range m.Components {
			if prev, dup := seen[block.Name]; dup {
				return nil, fmt.Errorf("component %q in %q already defined in %q", block.Name, f, prev)
			}
			seen[block.Name] = f

			comp, err := translateComponent(block)
			if err != nil {
				return nil, fmt.Errorf("component %q in %q: %w", block.Name, f, err)
			}
			model.Components = append(model.Components, comp)
		}
	}

	return model, nil
}

// translateComponent converts the HCL-specific block into the agnostic
// model, evaluating argument expressions and parsing timeout strings.
func translateComponent(block *componentBlock) (*config.Component, error) {
	comp := &config.Component{
		Type:      block.Type,
		Name:      block.Name,
		DependsOn: block.DependsOn,
	}

	for _, tv := range []struct {
		raw  string
		dst  *time.Duration
		name string
	}{
		{block.CreateTimeout, &comp.CreateTimeout, "create_timeout"},
		{block.StartTimeout, &comp.StartTimeout, "start_timeout"},
		{block.StopTimeout, &comp.StopTimeout, "stop_timeout"},
		{block.DestroyTimeout, &comp.DestroyTimeout, "destroy_timeout"},
	} {
		if tv.raw == "" {
			continue
		}
		d, err := time.ParseDuration(tv.raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", tv.name, tv.raw, err)
		}
		*tv.dst = d
	}

	if block.Arguments != nil && block.Arguments.Body != nil {
		attrs, diags := block.Arguments.Body.JustAttributes()
		if diags.HasErrors() {
			return nil, fmt.Errorf("arguments: %w", diags)
		}
		comp.Arguments = make(map[string]cty.Value, len(attrs))
		for name, attr := range attrs {
			val, diags := attr.Expr.Value(&hcl.EvalContext{})
			if diags.HasErrors() {
				return nil, fmt.Errorf("argument %q: %w", name, diags)
			}
			comp.Arguments[name] = val
		}
	}

	return comp, nil
}
