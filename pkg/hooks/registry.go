package hooks

import "sync"

// Registry is an ordered listener store: patterns of the form
// "<phase>.<glob>" mapped to ordered lists of hook functions. Insertion
// order is invocation order, both across patterns and within one pattern.
type Registry[T any] struct {
	mu        sync.RWMutex
	order     []string
	listeners map[string][]Func[T]
}

// NewRegistry creates an empty listener registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{
		listeners: make(map[string][]Func[T]),
	}
}

// Register appends fn to the ordered list for pattern, creating the list
// if the pattern is new.
func (r *Registry[T]) Register(pattern string, fn Func[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.listeners[pattern]; !ok {
		r.order = append(r.order, pattern)
	}
	r.listeners[pattern] = append(r.listeners[pattern], fn)
}

// Listeners returns a copy of the ordered hook list for pattern.
func (r *Registry[T]) Listeners(pattern string) []Func[T] {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fns := r.listeners[pattern]
	if len(fns) == 0 {
		return nil
	}
	out := make([]Func[T], len(fns))
	copy(out, fns)
	return out
}

// Patterns returns all known patterns in first-registration order. Used
// for tree rebuilds and exhaustive fallback scans.
func (r *Registry[T]) Patterns() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the total number of registered hook functions.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, fns := range r.listeners {
		n += len(fns)
	}
	return n
}
