// Package runlock serializes batch conversion runs via a file lock.
//
// Exactly one batch may be active system-wide. The lock is also probed by
// queue mutation paths (remove, clear) which must silently no-op while a run
// holds it. flock locks are per open file description, so the probe works both
// across processes and within one.
package runlock

import (
	"errors"

	"github.com/gofrs/flock"
)

// ErrActive is returned when a run lock is already held elsewhere.
var ErrActive = errors.New("another conversion run is already active")

// Lock guards a single batch run.
type Lock struct {
	path string
}

// New returns a lock for the given lock file path.
func New(path string) *Lock {
	return &Lock{path: path}
}

// Acquire takes the run lock, returning a release function. ErrActive is
// returned when another run already holds it.
func (l *Lock) Acquire() (func(), error) {
	fl := flock.New(l.path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrActive
	}
	return func() { _ = fl.Unlock() }, nil
}

// Active reports whether some run currently holds the lock. Implemented as a
// try-lock probe that immediately releases on success.
func (l *Lock) Active() bool {
	fl := flock.New(l.path)
	ok, err := fl.TryLock()
	if err != nil {
		// Can't tell; treat as active so mutations stay safe.
		return true
	}
	if !ok {
		return true
	}
	_ = fl.Unlock()
	return false
}

// Path returns the lock file location.
func (l *Lock) Path() string { return l.path }
