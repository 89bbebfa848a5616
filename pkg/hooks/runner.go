package hooks

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/methodbus/methodbus/pkg/pattern"
)

const runnerLogPrefix = "hooks:runner"

// Runner executes the hooks matching a phase and method strictly in
// sequence, short-circuiting on the first error. Pattern lists come from
// the tree cache, with a live registry scan as fallback for hooks
// registered after the last rebuild.
type Runner[T any] struct {
	registry *Registry[T]
	tree     *Tree
}

// NewRunner creates a runner over the given registry and tree.
func NewRunner[T any](registry *Registry[T], tree *Tree) *Runner[T] {
	return &Runner[T]{registry: registry, tree: tree}
}

// Run executes all hooks for phase and method with the invocation context
// ictx. Matched patterns are flattened into one ordered stack (pattern
// order, then within-pattern registration order) and executed one at a
// time; no hook runs before the previous one has signalled completion.
// done is called exactly once: with nil when the stack is exhausted, or
// with the aborting error. Remaining hooks do not run after an abort.
func (r *Runner[T]) Run(phase Phase, method string, ictx T, done func(error)) {
	patterns := r.tree.Lookup(method, phase)
	if len(patterns) == 0 {
		patterns = r.scan(phase, method)
	}

	var stack []Func[T]
	for _, pat := range patterns {
		stack = append(stack, r.registry.Listeners(pat)...)
	}

	r.runStack(stack, ictx, done)
}

// scan is the defensive fallback for tree misses: a full registry scan
// for patterns matching the phase-qualified method name.
func (r *Runner[T]) scan(phase Phase, method string) []string {
	candidate := Candidate(phase, method)
	var out []string
	for _, pat := range r.registry.Patterns() {
		if pattern.Match(candidate, pat) {
			out = append(out, pat)
		}
	}
	if len(out) > 0 {
		slog.Debug(fmt.Sprintf("%s - tree miss for %s, fallback scan matched %d patterns", runnerLogPrefix, candidate, len(out)))
	}
	return out
}

func (r *Runner[T]) runStack(stack []Func[T], ictx T, done func(error)) {
	var step func(i int)
	step = func(i int) {
		if i >= len(stack) {
			done(nil)
			return
		}

		// First completion signal wins; later signals from the same hook
		// (continuation called twice, deferred resolved after a panic) are
		// ignored.
		var once sync.Once
		next := func(err error) {
			once.Do(func() {
				if err != nil {
					done(err)
					return
				}
				step(i + 1)
			})
		}

		if d := invoke(stack[i], ictx, next); d != nil {
			d.subscribe(next)
		}
	}
	step(0)
}

// invoke calls one hook, converting a panic into an abort signal.
func invoke[T any](fn Func[T], ictx T, next Continuation) (d *Deferred) {
	defer func() {
		if rec := recover(); rec != nil {
			if err, ok := rec.(error); ok {
				next(fmt.Errorf("hook panic: %w", err))
			} else {
				next(fmt.Errorf("hook panic: %v", rec))
			}
		}
	}()
	return fn(ictx, next)
}
