package store

import (
	"fmt"
	"io"
	"sync"

	"github.com/vk/stagehand/internal/diag"
	"github.com/vk/stagehand/internal/ident"
	"github.com/vk/stagehand/internal/orchestrator"
	"github.com/vk/stagehand/internal/phase"
)

// Memory is the in-memory component store. It implements both
// orchestrator.Store and orchestrator.Binder.
type Memory struct {
	instances sync.Map // *ident.ID -> any

	mu    sync.Mutex
	owned []*ident.ID // bind order, for deterministic disposal
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{}
}

// Bind materializes the provider and takes ownership of the instance.
// Materialization is synchronous and eager, so a failing factory surfaces
// at registration time rather than mid-phase.
func (m *Memory) Bind(id *ident.ID, p orchestrator.Provider) error {
	if _, exists := m.instances.Load(id); exists {
		return fmt.Errorf("store: %s already bound", id)
	}
	inst, err := p.Materialize()
	if err != nil {
		return fmt.Errorf("store: materialize %s: %w", id, err)
	}
	m.instances.Store(id, inst)
	m.mu.Lock()
	m.owned = append(m.owned, id)
	m.mu.Unlock()
	return nil
}

// Lookup fetches the materialized instance for id.
func (m *Memory) Lookup(id *ident.ID) (any, bool) {
	return m.instances.Load(id)
}

// DestroyAll closes every owned instance that implements io.Closer, in
// reverse bind order, and forgets everything. Failures are collected into a
// single aggregate; every instance gets its chance.
func (m *Memory) DestroyAll() error {
	m.mu.Lock()
	owned := m.owned
	m.owned = nil
	m.mu.Unlock()

	var failures []phase.Outcome
	for i := len(owned) - 1; i >= 0; i-- {
		id := owned[i]
		inst, ok := m.instances.LoadAndDelete(id)
		if !ok {
			continue
		}
		closer, ok := inst.(io.Closer)
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil {
			failures = append(failures, phase.Outcome{
				ID:      id,
				Phase:   phase.Destroy,
				Err:     err,
				Context: phase.ContextNormal,
			})
		}
	}

	if len(failures) > 0 {
		return phase.NewAggregate(diag.CodeDestroyFailed, phase.Destroy, failures)
	}
	return nil
}
