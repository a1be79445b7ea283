package runlock

import (
	"path/filepath"
	"testing"
)

func TestAcquireAndRelease(t *testing.T) {
	base := filepath.Join(t.TempDir(), "out")
	l, err := Acquire(base)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Release(); err != nil {
		t.Fatal(err)
	}
}

func TestAcquireConflict(t *testing.T) {
	base := filepath.Join(t.TempDir(), "out")
	l1, err := Acquire(base)
	if err != nil {
		t.Fatal(err)
	}
	defer l1.Release()

	if _, err := Acquire(base); err != ErrLocked {
		t.Errorf("expected ErrLocked on contended acquire, got %v", err)
	}
}

func TestReacquireAfterRelease(t *testing.T) {
	base := filepath.Join(t.TempDir(), "out")
	l1, err := Acquire(base)
	if err != nil {
		t.Fatal(err)
	}
	if err := l1.Release(); err != nil {
		t.Fatal(err)
	}

	l2, err := Acquire(base)
	if err != nil {
		t.Fatal(err)
	}
	if err := l2.Release(); err != nil {
		t.Fatal(err)
	}
}
