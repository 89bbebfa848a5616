package hooks

import (
	"errors"
	"testing"
)

const deferredTestPrefix = "hooks:deferred_test"

func TestDeferred_ResolveNotifiesObserver(t *testing.T) {
	d := NewDeferred()
	var got error
	called := 0
	d.subscribe(func(err error) {
		got = err
		called++
	})

	d.Resolve()

	if called != 1 {
		t.Fatalf("%s - observer called %d times, want 1", deferredTestPrefix, called)
	}
	if got != nil {
		t.Errorf("%s - observer error = %v, want nil", deferredTestPrefix, got)
	}
}

func TestDeferred_RejectCarriesError(t *testing.T) {
	d := NewDeferred()
	want := errors.New("boom")
	var got error
	d.subscribe(func(err error) { got = err })

	d.Reject(want)

	if !errors.Is(got, want) {
		t.Errorf("%s - observer error = %v, want %v", deferredTestPrefix, got, want)
	}
}

func TestDeferred_RejectNilBecomesErrRejected(t *testing.T) {
	d := NewDeferred()
	var got error
	d.subscribe(func(err error) { got = err })

	d.Reject(nil)

	if !errors.Is(got, ErrRejected) {
		t.Errorf("%s - observer error = %v, want ErrRejected", deferredTestPrefix, got)
	}
}

func TestDeferred_FirstSignalWins(t *testing.T) {
	d := NewDeferred()
	calls := 0
	var got error
	d.subscribe(func(err error) {
		calls++
		got = err
	})

	d.Resolve()
	d.Reject(errors.New("too late"))
	d.Resolve()

	if calls != 1 {
		t.Fatalf("%s - observer called %d times, want 1", deferredTestPrefix, calls)
	}
	if got != nil {
		t.Errorf("%s - first signal was success but observer saw %v", deferredTestPrefix, got)
	}
}

func TestDeferred_SubscribeAfterCompletionFiresImmediately(t *testing.T) {
	d := NewDeferred()
	want := errors.New("early")
	d.Reject(want)

	var got error
	called := false
	d.subscribe(func(err error) {
		called = true
		got = err
	})

	if !called {
		t.Fatalf("%s - late observer never fired", deferredTestPrefix)
	}
	if !errors.Is(got, want) {
		t.Errorf("%s - late observer error = %v, want %v", deferredTestPrefix, got, want)
	}
}
