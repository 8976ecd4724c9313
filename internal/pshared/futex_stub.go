//go:build !linux

package pshared

import (
	"errors"
	"time"
)

// ErrTimedOut is returned by timed waits when the deadline passes without a
// wakeup.
var ErrTimedOut = errors.New("pshared: wait timed out")

// Segments cannot be created or attached on non-Linux platforms, so no code
// path can reach these. They exist to keep the package compiling everywhere.

func futexWait(addr *uint32, val uint32) error {
	panic("pshared: futex wait requires linux")
}

func futexWaitDuration(addr *uint32, val uint32, d time.Duration) error {
	panic("pshared: futex wait requires linux")
}

func futexWake(addr *uint32, n int) {
	panic("pshared: futex wake requires linux")
}
