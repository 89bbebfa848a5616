// Package hooks implements pattern-addressed lifecycle hooks for method
// invocations: an ordered listener registry keyed by "<phase>.<glob>"
// patterns, a precomputed per-method listener tree, and a sequential runner
// with error short-circuiting and deferred completion.
//
// The registry and tree are expected to be fully built before serving
// starts; registration and rebuilds happen during a configuration phase
// that strictly precedes concurrent invocations.
package hooks

// Phase is the point in an invocation's lifecycle a hook fires.
type Phase string

// Invocation phases.
const (
	PhaseBefore     Phase = "before"
	PhaseAfter      Phase = "after"
	PhaseAfterError Phase = "afterError"
)

// Phases lists all valid phases in lifecycle order.
var Phases = []Phase{PhaseBefore, PhaseAfter, PhaseAfterError}

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	switch p {
	case PhaseBefore, PhaseAfter, PhaseAfterError:
		return true
	}
	return false
}

func (p Phase) String() string {
	return string(p)
}

// Key builds the registry pattern for a phase and a method-name glob,
// e.g. Key(PhaseBefore, "users.*") == "before.users.*".
func Key(phase Phase, glob string) string {
	return string(phase) + "." + glob
}

// Candidate builds the concrete string a pattern is matched against,
// e.g. Candidate(PhaseBefore, "users.login") == "before.users.login".
func Candidate(phase Phase, method string) string {
	return string(phase) + "." + method
}

// Continuation signals completion of one hook: nil proceeds to the next
// hook, a non-nil error aborts the remaining hooks in the phase.
type Continuation func(err error)

// Func is a single hook. It receives the invocation context and a
// continuation. A hook must either call the continuation (exactly once),
// or return a non-nil *Deferred whose Resolve/Reject stands in for the
// continuation. A panicking hook is treated as an abort with the
// recovered error.
type Func[T any] func(ictx T, next Continuation) *Deferred
