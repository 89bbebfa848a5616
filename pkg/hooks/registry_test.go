package hooks

import "testing"

const registryTestPrefix = "hooks:registry_test"

func TestRegistry_RegisterPreservesOrder(t *testing.T) {
	reg := NewRegistry[*[]string]()

	mk := func(tag string) Func[*[]string] {
		return func(log *[]string, next Continuation) *Deferred {
			*log = append(*log, tag)
			next(nil)
			return nil
		}
	}

	reg.Register("before.users.*", mk("a"))
	reg.Register("before.users.*", mk("b"))
	reg.Register("before.**", mk("c"))

	if got := reg.Len(); got != 3 {
		t.Fatalf("%s - Len = %d, want 3", registryTestPrefix, got)
	}

	var log []string
	for _, fn := range reg.Listeners("before.users.*") {
		fn(&log, func(error) {})
	}
	if len(log) != 2 || log[0] != "a" || log[1] != "b" {
		t.Errorf("%s - within-pattern order = %v, want [a b]", registryTestPrefix, log)
	}
}

func TestRegistry_PatternsInFirstRegistrationOrder(t *testing.T) {
	reg := NewRegistry[struct{}]()
	noop := func(struct{}, Continuation) *Deferred { return nil }

	reg.Register("before.z.*", noop)
	reg.Register("after.a.*", noop)
	reg.Register("before.z.*", noop) // existing pattern, order unchanged
	reg.Register("before.m.*", noop)

	got := reg.Patterns()
	want := []string{"before.z.*", "after.a.*", "before.m.*"}
	if len(got) != len(want) {
		t.Fatalf("%s - Patterns = %v, want %v", registryTestPrefix, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%s - Patterns[%d] = %q, want %q", registryTestPrefix, i, got[i], want[i])
		}
	}
}

func TestRegistry_ListenersUnknownPattern(t *testing.T) {
	reg := NewRegistry[struct{}]()
	if got := reg.Listeners("before.nothing"); got != nil {
		t.Errorf("%s - expected nil listeners for unknown pattern, got %d", registryTestPrefix, len(got))
	}
}

func TestRegistry_ListenersReturnsCopy(t *testing.T) {
	reg := NewRegistry[struct{}]()
	noop := func(struct{}, Continuation) *Deferred { return nil }
	reg.Register("before.x", noop)

	fns := reg.Listeners("before.x")
	fns[0] = nil

	again := reg.Listeners("before.x")
	if again[0] == nil {
		t.Errorf("%s - mutating the returned slice must not affect the registry", registryTestPrefix)
	}
}
