package api

import (
	"fmt"
	"sync"

	"github.com/methodbus/methodbus/pkg/validate"
)

// ReplyFunc receives a handler's outcome: exactly one of err or result.
type ReplyFunc func(err error, result any)

// Handler is a method body. It must call reply exactly once; calling it
// again is ignored. A panicking handler is recovered into an error reply.
type Handler func(ictx *Context, reply ReplyFunc)

// Param declares one accepted parameter of a method: an optional named
// converter applied before validation, and the validator specs evaluated
// against the converted value.
type Param struct {
	Name        string
	Description string
	Convert     string
	Validates   []validate.Spec
}

// Method is one registered method: a fully-qualified name, its collection
// base path, parameter metadata, and the handler.
type Method struct {
	name        string
	collection  string
	bare        string
	basePath    string
	description string
	params      []Param
	rules       []validate.Rule
	handler     Handler
}

// Name returns the fully-qualified "collection.method" name.
func (m *Method) Name() string {
	return m.name
}

// Collection returns the owning collection's name.
func (m *Method) Collection() string {
	return m.collection
}

// Bare returns the method name without the collection prefix.
func (m *Method) Bare() string {
	return m.bare
}

// BasePath returns the owning collection's base path. Opaque to the
// dispatch core; the HTTP transport routes on it.
func (m *Method) BasePath() string {
	return m.basePath
}

// Description returns the method's human-readable description, if any.
func (m *Method) Description() string {
	return m.description
}

// Params returns a copy of the declared parameter list, in declaration
// order.
func (m *Method) Params() []Param {
	out := make([]Param, len(m.params))
	copy(out, m.params)
	return out
}

// Rules returns the validation rules derived from the declared
// parameters.
func (m *Method) Rules() []validate.Rule {
	return m.rules
}

// Invoke runs the handler. reply fires exactly once, with either an error
// or a result; a handler panic is recovered into an error reply.
func (m *Method) Invoke(ictx *Context, reply ReplyFunc) {
	var once sync.Once
	guarded := func(err error, result any) {
		once.Do(func() { reply(err, result) })
	}

	defer func() {
		if rec := recover(); rec != nil {
			if err, ok := rec.(error); ok {
				guarded(fmt.Errorf("handler panic in %s: %w", m.name, err), nil)
				return
			}
			guarded(fmt.Errorf("handler panic in %s: %v", m.name, rec), nil)
		}
	}()

	m.handler(ictx, guarded)
}

// buildRules derives the validation rule set from parameter declarations.
func buildRules(params []Param) []validate.Rule {
	rules := make([]validate.Rule, 0, len(params))
	for _, p := range params {
		if len(p.Validates) == 0 {
			continue
		}
		specs := make([]validate.Spec, len(p.Validates))
		copy(specs, p.Validates)
		rules = append(rules, validate.Rule{Arg: p.Name, Validates: specs})
	}
	return rules
}
