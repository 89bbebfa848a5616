// Package api implements the core registration and invocation surface of
// methodbus: the method registry aggregating collections into one
// namespace, and the invocation dispatcher running hooks and validation
// around each method call.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/methodbus/methodbus/pkg/convert"
	"github.com/methodbus/methodbus/pkg/events"
	"github.com/methodbus/methodbus/pkg/hooks"
)

const registryLogPrefix = "api:registry"

// Registry aggregates method collections into one namespace and owns the
// global listener registry plus the per-method listener tree. Merging and
// hook registration belong to the configuration phase; once serving
// begins the registry is read-only.
type Registry struct {
	mu              sync.RWMutex
	collections     map[string]*Collection
	collectionOrder []string
	methods         map[string]*Method
	methodOrder     []string
	revision        int

	listeners  *hooks.Registry[*Context]
	tree       *hooks.Tree
	converters *convert.Registry
	publisher  events.Publisher
}

// NewRegistryParams holds parameters for NewRegistry.
type NewRegistryParams struct {
	// Publisher receives change events after merges and hook
	// registrations. Nil means no events.
	Publisher events.Publisher

	// Converters is the registry of named parameter converters. Nil means
	// the default converter set.
	Converters *convert.Registry
}

// NewRegistry creates an empty method registry.
func NewRegistry(params NewRegistryParams) *Registry {
	pub := params.Publisher
	if pub == nil {
		pub = &events.NoOpPublisher{}
	}
	conv := params.Converters
	if conv == nil {
		conv = convert.NewRegistry()
	}
	return &Registry{
		collections: make(map[string]*Collection),
		methods:     make(map[string]*Method),
		listeners:   hooks.NewRegistry[*Context](),
		tree:        hooks.NewTree(),
		converters:  conv,
		publisher:   pub,
	}
}

// Merge registers a collection: installs every method as
// "collection.method", merges the collection's hook set into the global
// listener registry preserving order and function identity, and rebuilds
// the listener tree before returning. Registering the same collection
// name twice is a fatal registration error.
func (r *Registry) Merge(c *Collection) error {
	if c == nil || c.name == "" {
		return NewError(CodeInvalidCollection, "collection must have a name")
	}
	if strings.Contains(c.name, ".") {
		return NewError(CodeInvalidCollection, fmt.Sprintf("collection name %q must not contain dots", c.name))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.collections[c.name]; ok {
		return DuplicateCollectionError(c.name)
	}

	// Validate the whole collection before touching registry state, so a
	// failed merge leaves no partial namespace behind.
	seen := make(map[string]bool, len(c.methods))
	for _, spec := range c.methods {
		if spec.name == "" || spec.handler == nil {
			return NewError(CodeInvalidCollection, fmt.Sprintf("collection %q has a method without name or handler", c.name))
		}
		if seen[spec.name] {
			return NewError(CodeInvalidCollection, fmt.Sprintf("collection %q declares method %q twice", c.name, spec.name))
		}
		seen[spec.name] = true
		for _, p := range spec.params {
			if p.Convert != "" && !r.converters.Has(p.Convert) {
				return NewError(CodeInvalidCollection,
					fmt.Sprintf("method %s.%s parameter %q references unknown converter %q", c.name, spec.name, p.Name, p.Convert))
			}
		}
	}

	merged := make([]string, 0, len(c.methods))
	for _, spec := range c.methods {
		full := c.name + "." + spec.name
		m := &Method{
			name:        full,
			collection:  c.name,
			bare:        spec.name,
			basePath:    c.basePath,
			description: spec.description,
			params:      spec.params,
			rules:       buildRules(spec.params),
			handler:     spec.handler,
		}
		r.methods[full] = m
		r.methodOrder = append(r.methodOrder, full)
		merged = append(merged, full)
	}

	for _, hb := range c.hooks {
		r.listeners.Register(hooks.Key(hb.phase, qualifyGlob(c.name, hb.glob)), hb.fn)
	}

	r.collections[c.name] = c
	r.collectionOrder = append(r.collectionOrder, c.name)

	// The tree rebuild is synchronous: no invocation may observe a stale
	// tree after a successful merge.
	r.rebuildLocked()
	r.revision++

	slog.Info(fmt.Sprintf("%s - merged collection %q (%d methods, %d hooks)", registryLogPrefix, c.name, len(merged), len(c.hooks)))
	r.publishLocked(&events.ChangedEvent{
		Collection: c.name,
		Methods:    merged,
		Hooks:      len(c.hooks),
	})
	return nil
}

// On registers a global hook for the given phase against a method-name
// glob and rebuilds the listener tree.
func (r *Registry) On(phase hooks.Phase, glob string, fn HookFunc) error {
	if !phase.Valid() {
		return NewError(CodeInvalidArgument, fmt.Sprintf("unknown hook phase %q", phase))
	}
	if glob == "" || fn == nil {
		return NewError(CodeInvalidArgument, "hook registration requires a glob and a function")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.listeners.Register(hooks.Key(phase, glob), fn)
	r.rebuildLocked()
	r.revision++

	r.publishLocked(&events.ChangedEvent{Hooks: 1})
	return nil
}

// RebuildTree recomputes the listener tree from the current methods and
// listener registry. Merge and On call it implicitly; this explicit
// trigger exists for callers that mutate listeners out of band.
func (r *Registry) RebuildTree() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rebuildLocked()
}

func (r *Registry) rebuildLocked() {
	methods := make([]string, len(r.methodOrder))
	copy(methods, r.methodOrder)
	r.tree.Rebuild(methods, r.listeners.Patterns())
}

// qualifyGlob scopes a collection hook glob to the collection's
// namespace. A glob without a dot refers to the collection's own
// methods; a dotted glob already names its namespace.
func qualifyGlob(collection, glob string) string {
	if strings.Contains(glob, ".") {
		return glob
	}
	return collection + "." + glob
}

func (r *Registry) publishLocked(event *events.ChangedEvent) {
	event.Revision = r.revision
	event.Timestamp = time.Now().UTC().Format(time.RFC3339)
	if err := r.publisher.PublishChanged(context.Background(), event); err != nil {
		slog.Warn(fmt.Sprintf("%s - failed to publish change event: %v", registryLogPrefix, err))
	}
}

// Method returns the method registered under the fully-qualified name.
func (r *Registry) Method(name string) (*Method, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.methods[name]
	return m, ok
}

// MethodNames returns all fully-qualified method names in registration
// order.
func (r *Registry) MethodNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.methodOrder))
	copy(out, r.methodOrder)
	return out
}

// Collections returns the merged collection names in merge order.
func (r *Registry) Collections() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.collectionOrder))
	copy(out, r.collectionOrder)
	return out
}

// Collection returns a merged collection by name.
func (r *Registry) Collection(name string) (*Collection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.collections[name]
	return c, ok
}

// Revision returns the number of registry mutations (merges and hook
// registrations) so far.
func (r *Registry) Revision() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.revision
}

// HookCount returns the total number of registered hook functions.
func (r *Registry) HookCount() int {
	return r.listeners.Len()
}
