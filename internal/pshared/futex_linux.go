//go:build linux

package pshared

import (
	"errors"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ErrTimedOut is returned by timed waits when the deadline passes without a
// wakeup.
var ErrTimedOut = errors.New("pshared: wait timed out")

// Futex op codes from <linux/futex.h>; golang.org/x/sys/unix does not
// export them. The shared (non-private) forms are used deliberately so
// waiters and wakers in different processes see each other.
const (
	_FUTEX_WAIT = 0
	_FUTEX_WAKE = 1
)

// futexWait puts the calling thread to sleep while *addr == val. It returns
// immediately if the word already changed, and treats signals and racing
// wakes as ordinary returns so callers simply re-check their predicate.
func futexWait(addr *uint32, val uint32) error {
	_, _, errno := unix.Syscall6(unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		uintptr(_FUTEX_WAIT),
		uintptr(val), 0, 0, 0)
	switch errno {
	case 0, unix.EAGAIN, unix.EINTR:
		return nil
	}
	return errno
}

// futexWaitDuration is futexWait with a relative timeout.
func futexWaitDuration(addr *uint32, val uint32, d time.Duration) error {
	ts := unix.NsecToTimespec(d.Nanoseconds())
	_, _, errno := unix.Syscall6(unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		uintptr(_FUTEX_WAIT),
		uintptr(val),
		uintptr(unsafe.Pointer(&ts)), 0, 0)
	switch errno {
	case 0, unix.EAGAIN, unix.EINTR:
		return nil
	case unix.ETIMEDOUT:
		return ErrTimedOut
	}
	return errno
}

// futexWake wakes up to n threads sleeping on addr. Wake failures are not
// actionable for callers, so the result is discarded.
func futexWake(addr *uint32, n int) {
	_, _, _ = unix.Syscall6(unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		uintptr(_FUTEX_WAKE),
		uintptr(n), 0, 0, 0)
}
