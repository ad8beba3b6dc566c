package layering

import (
	"fmt"
	"strings"

	"github.com/vk/stagehand/internal/diag"
	"github.com/vk/stagehand/internal/ident"
)

// Node is one (identifier, dependencies) pair handed to Compute.
type Node struct {
	ID   *ident.ID
	Deps []*ident.ID
}

// UnknownDependencyError reports a dependency identifier that is not itself
// a node in the input.
type UnknownDependencyError struct {
	Node       *ident.ID
	Dependency *ident.ID
}

func (e *UnknownDependencyError) Error() string {
	return fmt.Sprintf("unknown dependency: %s depends on unregistered %s", e.Node, e.Dependency)
}

// DiagCode implements diag.Coder.
func (e *UnknownDependencyError) DiagCode() diag.Code { return diag.CodeUnknownDependency }

// CycleError reports that no topological layering exists. Remaining holds
// the identifiers involved in (or downstream of) the cycle.
type CycleError struct {
	Remaining []*ident.ID
}

func (e *CycleError) Error() string {
	names := make([]string, len(e.Remaining))
	for i, id := range e.Remaining {
		names[i] = id.String()
	}
	return "cycle detected among: " + strings.Join(names, ", ")
}

// DiagCode implements diag.Coder.
func (e *CycleError) DiagCode() diag.Code { return diag.CodeCycleDetected }

// Layers is the computed layering. It is immutable once built.
type Layers struct {
	groups [][]*ident.ID
	index  map[*ident.ID]int // identifier -> layer index
}

// Compute derives the layering by repeated frontier extraction: at each step
// every not-yet-removed node whose dependencies have all been removed forms
// the next layer.
//
// Determinism: within a layer, identifiers keep the relative order the nodes
// were passed in, so identical input yields identical output across runs.
func Compute(nodes []Node) (*Layers, error) {
	known := make(map[*ident.ID]struct{}, len(nodes))
	for _, n := range nodes {
		known[n.ID] = struct{}{}
	}
	for _, n := range nodes {
		for _, dep := range n.Deps {
			if _, ok := known[dep]; !ok {
				return nil, &UnknownDependencyError{Node: n.ID, Dependency: dep}
			}
		}
	}

	removed := make(map[*ident.ID]struct{}, len(nodes))
	remaining := len(nodes)
	l := &Layers{index: make(map[*ident.ID]int, len(nodes))}

	for remaining > 0 {
		var frontier []*ident.ID
		for _, n := range nodes {
			if _, done := removed[n.ID]; done {
				continue
			}
			ready := true
			for _, dep := range n.Deps {
				if _, done := removed[dep]; !done {
					ready = false
					break
				}
			}
			if ready {
				frontier = append(frontier, n.ID)
			}
		}

		if len(frontier) == 0 {
			var stuck []*ident.ID
			for _, n := range nodes {
				if _, done := removed[n.ID]; !done {
					stuck = append(stuck, n.ID)
				}
			}
			return nil, &CycleError{Remaining: stuck}
		}

		layerIdx := len(l.groups)
		for _, id := range frontier {
			removed[id] = struct{}{}
			l.index[id] = layerIdx
		}
		l.groups = append(l.groups, frontier)
		remaining -= len(frontier)
	}

	return l, nil
}

// All returns the layers in forward (dependency-first) order. Callers must
// not mutate the returned slices.
func (l *Layers) All() [][]*ident.ID { return l.groups }

// Len reports the number of layers.
func (l *Layers) Len() int { return len(l.groups) }

// LayerOf reports which layer id belongs to.
func (l *Layers) LayerOf(id *ident.ID) (int, bool) {
	idx, ok := l.index[id]
	return idx, ok
}

// Group re-buckets subset by layer, returned in descending layer index order
// (latest layer first), which is the order teardown wants. Identifiers not
// present in the layering are silently dropped; duplicates collapse.
func (l *Layers) Group(subset []*ident.ID) [][]*ident.ID {
	want := make(map[*ident.ID]struct{}, len(subset))
	for _, id := range subset {
		want[id] = struct{}{}
	}

	var groups [][]*ident.ID
	for i := len(l.groups) - 1; i >= 0; i-- {
		var g []*ident.ID
		for _, id := range l.groups[i] {
			if _, ok := want[id]; ok {
				g = append(g, id)
			}
		}
		if len(g) > 0 {
			groups = append(groups, g)
		}
	}
	return groups
}
