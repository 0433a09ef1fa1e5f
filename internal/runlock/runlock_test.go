package runlock_test

import (
	"errors"
	"path/filepath"
	"testing"

	"udfconv/internal/runlock"
)

func TestAcquireAndRelease(t *testing.T) {
	lock := runlock.New(filepath.Join(t.TempDir(), "convert.lock"))

	if lock.Active() {
		t.Fatal("expected fresh lock to be inactive")
	}

	release, err := lock.Acquire()
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if !lock.Active() {
		t.Fatal("expected lock to report active while held")
	}

	if _, err := lock.Acquire(); !errors.Is(err, runlock.ErrActive) {
		t.Fatalf("expected ErrActive for second acquire, got %v", err)
	}

	release()
	if lock.Active() {
		t.Fatal("expected lock to be inactive after release")
	}
}
