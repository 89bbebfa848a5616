package api

import (
	"fmt"
	"sync"
	"time"

	"github.com/methodbus/methodbus/pkg/hooks"
	"github.com/methodbus/methodbus/pkg/validate"
)

// Recorder observes invocation outcomes. Implemented by pkg/metrics; the
// zero-cost default is NoOpRecorder.
type Recorder interface {
	Invocation(method, transport, status string, elapsed time.Duration)
	HookFailure(phase string)
}

// NoOpRecorder is a Recorder that does nothing.
type NoOpRecorder struct{}

func (NoOpRecorder) Invocation(string, string, string, time.Duration) {}
func (NoOpRecorder) HookFailure(string)                               {}

// Dispatcher orchestrates one invocation: parameter coercion and
// validation, then before-hooks, handler, after-hooks, with a unified
// error path that always offers afterError hooks a chance to observe or
// transform the failure.
type Dispatcher struct {
	registry *Registry
	runner   *hooks.Runner[*Context]
	recorder Recorder
}

// NewDispatcherParams holds parameters for NewDispatcher.
type NewDispatcherParams struct {
	Registry *Registry
	Recorder Recorder
}

// NewDispatcher creates a dispatcher over the given registry.
func NewDispatcher(params NewDispatcherParams) *Dispatcher {
	rec := params.Recorder
	if rec == nil {
		rec = NoOpRecorder{}
	}
	return &Dispatcher{
		registry: params.Registry,
		runner:   hooks.NewRunner(params.Registry.listeners, params.Registry.tree),
		recorder: rec,
	}
}

// Dispatch runs one invocation of the named method with the given
// context. callback fires exactly once, with either a nil error and the
// result, or one error value — never both, never more than once.
//
// Failure routing: validation failures abort before any hook or the
// handler runs; before-hook, handler, and after-hook failures all route
// through afterError hooks (the triggering error is placed in the
// context's Err slot first), and an afterError hook's own error takes
// precedence over the original when reported.
func (d *Dispatcher) Dispatch(name string, ictx *Context, callback func(err error, result any)) {
	if ictx.Start.IsZero() {
		ictx.Start = time.Now()
	}

	var once sync.Once
	finish := func(err error, result any) {
		once.Do(func() {
			status := "success"
			if err != nil {
				status = "error"
			}
			d.recorder.Invocation(name, ictx.Transport, status, time.Since(ictx.Start))
			callback(err, result)
		})
	}

	m, ok := d.registry.Method(name)
	if !ok {
		finish(MethodNotFoundError(name), nil)
		return
	}
	ictx.method = m

	if err := d.coerce(m, ictx); err != nil {
		finish(err, nil)
		return
	}

	if verr := validate.Validate(ictx.Params, m.rules); verr.Any() {
		finish(verr, nil)
		return
	}

	fail := func(orig error) {
		ictx.Err = orig
		d.runner.Run(hooks.PhaseAfterError, name, ictx, func(hookErr error) {
			if hookErr != nil {
				d.recorder.HookFailure(hooks.PhaseAfterError.String())
				finish(hookErr, nil)
				return
			}
			finish(orig, nil)
		})
	}

	d.runner.Run(hooks.PhaseBefore, name, ictx, func(err error) {
		if err != nil {
			d.recorder.HookFailure(hooks.PhaseBefore.String())
			fail(err)
			return
		}
		m.Invoke(ictx, func(err error, result any) {
			if err != nil {
				// Handler failures route through afterError hooks like
				// every other failure source.
				fail(err)
				return
			}
			ictx.Result = result
			d.runner.Run(hooks.PhaseAfter, name, ictx, func(err error) {
				if err != nil {
					d.recorder.HookFailure(hooks.PhaseAfter.String())
					fail(err)
					return
				}
				// After-hooks may have transformed the stored result.
				finish(nil, ictx.Result)
			})
		})
	})
}

// Call dispatches and blocks until the terminal callback fires. The core
// has no timeout or cancellation; transports wrap Call with their own.
func (d *Dispatcher) Call(name string, ictx *Context) (any, error) {
	type outcome struct {
		result any
		err    error
	}
	ch := make(chan outcome, 1)
	d.Dispatch(name, ictx, func(err error, result any) {
		ch <- outcome{result: result, err: err}
	})
	o := <-ch
	return o.result, o.err
}

// coerce applies declared converters to present, non-empty parameter
// values in place. Conversion failures surface as invalid-argument
// errors before validation runs.
func (d *Dispatcher) coerce(m *Method, ictx *Context) error {
	for _, p := range m.params {
		if p.Convert == "" {
			continue
		}
		v, ok := ictx.Params[p.Name]
		if !ok || validate.Empty(v) {
			continue
		}
		converted, err := d.registry.converters.Apply(p.Convert, v)
		if err != nil {
			return NewError(CodeInvalidArgument, fmt.Sprintf("parameter %q: %v", p.Name, err))
		}
		ictx.Params[p.Name] = converted
	}
	return nil
}
