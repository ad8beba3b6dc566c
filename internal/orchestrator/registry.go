package orchestrator

import "sync"

// DefaultKey is the well-known key for the registry's default instance.
// "Default" is just a key here, not hidden package state: registries are
// caller-owned and constructor-seeded.
const DefaultKey = "default"

// Registry is an explicit, caller-owned table of named orchestrator
// instances.
type Registry struct {
	mu        sync.RWMutex
	instances map[string]*Orchestrator
}

// NewRegistry creates a registry seeded with the given instances. Pass the
// default instance under DefaultKey.
func NewRegistry(seed map[string]*Orchestrator) *Registry {
	r := &Registry{instances: make(map[string]*Orchestrator, len(seed))}
	for k, v := range seed {
		r.instances[k] = v
	}
	return r
}

// Get looks up an instance by key.
func (r *Registry) Get(key string) (*Orchestrator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.instances[key]
	return o, ok
}

// Default looks up the instance under DefaultKey.
func (r *Registry) Default() (*Orchestrator, bool) {
	return r.Get(DefaultKey)
}

// Put installs or replaces an instance under key.
func (r *Registry) Put(key string, o *Orchestrator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances[key] = o
}

// Remove deletes the instance under key.
func (r *Registry) Remove(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.instances, key)
}
