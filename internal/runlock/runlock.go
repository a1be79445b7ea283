// Copyright 2017, Kerby Shedden and the Muscato contributors.

// Package runlock takes an advisory file lock on an output basename,
// so two runs targeting the same output never interleave their
// writes.
package runlock

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// ErrLocked is returned by Acquire when another process already holds
// the lock.
var ErrLocked = fmt.Errorf("runlock: output is locked by another run")

// Lock is an advisory, non-blocking exclusive lock on a single file.
type Lock struct {
	f *os.File
}

// Acquire takes an exclusive, non-blocking lock on basename+".lock".
// It returns ErrLocked (not a raw syscall error) if the lock is held
// elsewhere, so callers can distinguish contention from I/O failure.
func Acquire(basename string) (*Lock, error) {
	path := basename + ".lock"
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("runlock: open %s: %w", path, err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if err == unix.EWOULDBLOCK {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("runlock: flock %s: %w", path, err)
	}

	return &Lock{f: f}, nil
}

// Release drops the lock and removes the lock file.
func (l *Lock) Release() error {
	path := l.f.Name()
	if err := unix.Flock(int(l.f.Fd()), unix.LOCK_UN); err != nil {
		l.f.Close()
		return fmt.Errorf("runlock: unlock %s: %w", path, err)
	}
	if err := l.f.Close(); err != nil {
		return fmt.Errorf("runlock: close %s: %w", path, err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("runlock: remove %s: %w", path, err)
	}
	return nil
}
