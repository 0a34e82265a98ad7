// Package registry implements the keyed plug-in registry shared by news
// providers and shipping carriers. Registries are constructed and injected,
// never package globals, so tests can build isolated instances.
package registry

import "sync"

// Pluggable is the capability set every registered implementation exposes.
type Pluggable interface {
	Key() string
	Name() string
	Enabled() bool
}

// Registry holds implementations by key in registration order.
type Registry[T Pluggable] struct {
	mu    sync.RWMutex
	items map[string]T
	order []string
}

func New[T Pluggable]() *Registry[T] {
	return &Registry[T]{items: make(map[string]T)}
}

// Register adds an implementation. Re-registering a key overwrites the
// previous implementation but keeps its original position.
func (r *Registry[T]) Register(impl T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := impl.Key()
	if _, exists := r.items[key]; !exists {
		r.order = append(r.order, key)
	}
	r.items[key] = impl
}

// Get returns the implementation for key, if registered.
func (r *Registry[T]) Get(key string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	impl, ok := r.items[key]
	return impl, ok
}

// Keys returns all registered keys in registration order.
func (r *Registry[T]) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, len(r.order))
	copy(keys, r.order)
	return keys
}

// Enabled returns the implementations whose Enabled() is true right now.
// Enabled-ness is dynamic (commonly credential presence), so it is
// re-evaluated on every call.
func (r *Registry[T]) Enabled() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []T
	for _, key := range r.order {
		if impl := r.items[key]; impl.Enabled() {
			out = append(out, impl)
		}
	}
	return out
}
