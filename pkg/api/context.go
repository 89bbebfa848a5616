package api

import (
	"time"

	"github.com/methodbus/methodbus/pkg/validate"
)

// Context is the per-invocation context constructed by a transport
// adapter and passed by reference through the whole pipeline. Hooks read
// and mutate it. One Context belongs to exactly one invocation and is
// never shared; no locking is needed inside the hook chain.
type Context struct {
	// RequestID identifies the request across transports and audit.
	RequestID string

	// Transport names the adapter that created the context ("nats",
	// "http", "local").
	Transport string

	// Params is the mutable parameter bag; converters rewrite values in
	// place before validation.
	Params validate.Params

	// Meta carries transport metadata (caller identity, headers).
	Meta map[string]string

	// Result is set after a successful handler invocation; after-hooks
	// may transform it.
	Result any

	// Err is set to the triggering error before afterError hooks run.
	Err error

	// Start is when the invocation began. The dispatcher sets it if the
	// transport did not.
	Start time.Time

	method *Method
}

// NewContext creates an invocation context for one request.
func NewContext(requestID, transport string, params validate.Params) *Context {
	if params == nil {
		params = validate.Params{}
	}
	return &Context{
		RequestID: requestID,
		Transport: transport,
		Params:    params,
		Meta:      map[string]string{},
		Start:     time.Now(),
	}
}

// Method returns the method being invoked, letting hooks read method
// metadata without it being passed as an extra argument. Nil until the
// dispatcher has resolved the method.
func (c *Context) Method() *Method {
	return c.method
}

// MethodName returns the fully-qualified name of the method being
// invoked, or "" before resolution.
func (c *Context) MethodName() string {
	if c.method == nil {
		return ""
	}
	return c.method.Name()
}
