// Package pshared provides process-shared synchronization primitives that
// live inside a memory-mapped segment.
//
// A Mutex is a word-sized futex lock and a Cond is a futex sequence word;
// both operate on plain uint32 values supplied by the caller, so the same
// primitive works whether the word sits on the Go heap or inside a region
// shared between processes. A zeroed word is a valid unlocked mutex and a
// valid condition sequence, which means a freshly created (zero-filled)
// segment needs no explicit initialization step.
//
// The futex calls use the shared (non-private) form so waiters and wakers
// may sit in different processes with independent mappings of the same
// backing pages. Linux only; other platforms have no usable implementation.
package pshared

import (
	"sync/atomic"
	"time"
)

// Mutex states. Contended is only ever set by a locker that is about to
// sleep, so Unlock can skip the wake syscall on the fast path.
const (
	mutexUnlocked  = 0
	mutexLocked    = 1
	mutexContended = 2
)

// Mutex is a process-shared mutual exclusion lock over a single uint32.
// The zero value of the word is the unlocked state.
type Mutex struct {
	word *uint32
}

// MutexAt returns a Mutex operating on the given word. The word must be
// 4-byte aligned and must stay mapped for the lifetime of the Mutex.
func MutexAt(word *uint32) Mutex { return Mutex{word: word} }

// Lock acquires the mutex, blocking the calling thread until it is free.
func (m Mutex) Lock() {
	if atomic.CompareAndSwapUint32(m.word, mutexUnlocked, mutexLocked) {
		return
	}
	// Slow path: advertise contention so the holder wakes us, then sleep
	// until the swap observes the unlocked state.
	c := atomic.SwapUint32(m.word, mutexContended)
	for c != mutexUnlocked {
		futexWait(m.word, mutexContended)
		c = atomic.SwapUint32(m.word, mutexContended)
	}
}

// Unlock releases the mutex. It must only be called by the current holder.
func (m Mutex) Unlock() {
	if atomic.AddUint32(m.word, ^uint32(0)) != mutexUnlocked {
		// There may be sleepers; hand the lock over through the kernel.
		atomic.StoreUint32(m.word, mutexUnlocked)
		futexWake(m.word, 1)
	}
}

// Cond is a process-shared condition variable over a single uint32 sequence
// word. Signal bumps the sequence and wakes one waiter; Wait sleeps only
// while the sequence is unchanged, so a signal issued between the caller's
// predicate check and the sleep is never lost. As with sync.Cond, callers
// must re-check their predicate in a loop around Wait.
type Cond struct {
	seq *uint32
}

// CondAt returns a Cond operating on the given sequence word. The word must
// be 4-byte aligned and must stay mapped for the lifetime of the Cond.
func CondAt(seq *uint32) Cond { return Cond{seq: seq} }

// Wait atomically releases m and blocks until a signal arrives, then
// reacquires m before returning. Spurious wakeups are possible.
func (c Cond) Wait(m Mutex) {
	s := atomic.LoadUint32(c.seq)
	m.Unlock()
	futexWait(c.seq, s)
	m.Lock()
}

// WaitTimeout behaves like Wait but gives up after d. It reacquires m in
// every case and returns ErrTimedOut when the deadline passed without a
// wakeup. A non-positive d times out immediately.
func (c Cond) WaitTimeout(m Mutex, d time.Duration) error {
	if d <= 0 {
		return ErrTimedOut
	}
	s := atomic.LoadUint32(c.seq)
	m.Unlock()
	err := futexWaitDuration(c.seq, s, d)
	m.Lock()
	return err
}

// Signal wakes one waiter, if any. The caller should hold the mutex the
// waiters pair with, mirroring pthread_cond_signal discipline.
func (c Cond) Signal() {
	atomic.AddUint32(c.seq, 1)
	futexWake(c.seq, 1)
}
