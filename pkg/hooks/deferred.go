package hooks

import (
	"errors"
	"sync"
)

// ErrRejected is the error used when a Deferred is rejected with nil.
var ErrRejected = errors.New("hook rejected")

// Deferred is the deferred-completion handle a hook may return instead of
// calling its continuation: Resolve is equivalent to calling the
// continuation with no error, Reject with that error. The first signal
// wins; later signals are ignored.
type Deferred struct {
	mu        sync.Mutex
	completed bool
	err       error
	observer  func(error)
}

// NewDeferred creates an unresolved Deferred.
func NewDeferred() *Deferred {
	return &Deferred{}
}

// Resolve completes the deferred successfully. No-op if already completed.
func (d *Deferred) Resolve() {
	d.complete(nil)
}

// Reject completes the deferred with err. A nil err is recorded as
// ErrRejected so rejection is never mistaken for success. No-op if
// already completed.
func (d *Deferred) Reject(err error) {
	if err == nil {
		err = ErrRejected
	}
	d.complete(err)
}

func (d *Deferred) complete(err error) {
	d.mu.Lock()
	if d.completed {
		d.mu.Unlock()
		return
	}
	d.completed = true
	d.err = err
	observer := d.observer
	d.observer = nil
	d.mu.Unlock()

	if observer != nil {
		observer(err)
	}
}

// subscribe registers the single completion observer. If the deferred is
// already completed the observer fires immediately.
func (d *Deferred) subscribe(fn func(error)) {
	d.mu.Lock()
	if d.completed {
		err := d.err
		d.mu.Unlock()
		fn(err)
		return
	}
	d.observer = fn
	d.mu.Unlock()
}
