package api

import "github.com/methodbus/methodbus/pkg/hooks"

// HookFunc is a lifecycle hook over the invocation context.
type HookFunc = hooks.Func[*Context]

// hookBinding is one hook registration accumulated on a collection before
// it is merged into the global listener registry.
type hookBinding struct {
	phase hooks.Phase
	glob  string
	fn    HookFunc
}

// methodSpec is one method declaration accumulated on a collection.
type methodSpec struct {
	name        string
	description string
	handler     Handler
	params      []Param
}

// Collection is a named group of methods sharing a namespace prefix and a
// base path, plus the collection's own hook set. Collections are built
// during the configuration phase and merged into a Registry; they are not
// safe for concurrent mutation.
type Collection struct {
	name     string
	basePath string
	methods  []methodSpec
	hooks    []hookBinding
}

// NewCollection creates a collection. The name becomes the namespace
// prefix of every method; basePath is opaque to the dispatch core and
// used by the HTTP transport.
func NewCollection(name, basePath string) *Collection {
	return &Collection{name: name, basePath: basePath}
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.name
}

// BasePath returns the collection's base path.
func (c *Collection) BasePath() string {
	return c.basePath
}

// Method declares a method with its handler and parameter metadata.
// Declaration order is preserved. Returns the collection for chaining.
func (c *Collection) Method(name string, handler Handler, params ...Param) *Collection {
	c.methods = append(c.methods, methodSpec{
		name:    name,
		handler: handler,
		params:  params,
	})
	return c
}

// MethodWithDescription is Method with a human-readable description kept
// for describe output.
func (c *Collection) MethodWithDescription(name, description string, handler Handler, params ...Param) *Collection {
	c.methods = append(c.methods, methodSpec{
		name:        name,
		description: description,
		handler:     handler,
		params:      params,
	})
	return c
}

// Before registers a before-hook on the collection's own hook set.
// A glob without a dot is scoped to the collection on merge ("*" means
// every method of this collection); a dotted glob is taken as-is.
// Merged into the global registry when the collection is registered,
// preserving order and function identity.
func (c *Collection) Before(glob string, fn HookFunc) *Collection {
	c.hooks = append(c.hooks, hookBinding{phase: hooks.PhaseBefore, glob: glob, fn: fn})
	return c
}

// After registers an after-hook on the collection's own hook set.
func (c *Collection) After(glob string, fn HookFunc) *Collection {
	c.hooks = append(c.hooks, hookBinding{phase: hooks.PhaseAfter, glob: glob, fn: fn})
	return c
}

// AfterError registers an afterError-hook on the collection's own hook
// set.
func (c *Collection) AfterError(glob string, fn HookFunc) *Collection {
	c.hooks = append(c.hooks, hookBinding{phase: hooks.PhaseAfterError, glob: glob, fn: fn})
	return c
}
