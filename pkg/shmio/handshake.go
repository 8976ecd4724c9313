package shmio

import (
	"context"
	"time"
)

// Frame handshake. The consumer asks for a frame and sleeps until the
// producer marks one ready:
//
//	consumer                         producer
//	RequestFrame                     WaitFrameRequest
//	WaitFrameReady      <- wake ->   fill buffer
//	read buffer                      FrameDone
//
// The request flag collapses: posting it while it is already up is a
// no-op, so a slow producer serves a burst of requests with one frame.
// The base waits have no deadline and survive only as long as both sides
// stay alive; the Context variants exist for callers that must not hang
// on a dead peer.

// ctxWaitSlice bounds each futex sleep in the Context wait loops so
// cancellation is noticed without a waker.
const ctxWaitSlice = 100 * time.Millisecond

// RequestFrame posts the consumer's request for a fresh frame and wakes
// the producer. It never blocks beyond the segment lock.
func (c *Channel) RequestFrame() error {
	if c.released.Load() {
		return ErrReleased
	}
	c.mu.Lock()
	c.hdr.setRequest(true)
	c.reqCond.Signal()
	c.mu.Unlock()
	c.countRequested()
	return nil
}

// WaitFrameReady blocks until the producer marks a frame ready, then
// consumes the ready flag and returns. The buffer then holds the frame
// until the consumer's next RequestFrame.
func (c *Channel) WaitFrameReady() error {
	if c.released.Load() {
		return ErrReleased
	}
	start := time.Now()
	c.mu.Lock()
	for !c.hdr.readySet() {
		c.rdyCond.Wait(c.mu)
	}
	c.hdr.setReady(false)
	c.mu.Unlock()
	elapsed := time.Since(start)
	c.metrics.observeReadyWait(elapsed)
	logr.tracef("frame ready on %s after %s", c.name, elapsed)
	return nil
}

// WaitFrameReadyContext is WaitFrameReady bounded by ctx. On expiry it
// returns the context error and leaves the handshake state untouched, so
// a later wait can still consume the frame.
func (c *Channel) WaitFrameReadyContext(ctx context.Context) error {
	if c.released.Load() {
		return ErrReleased
	}
	start := time.Now()
	c.mu.Lock()
	for !c.hdr.readySet() {
		if err := ctx.Err(); err != nil {
			c.mu.Unlock()
			return err
		}
		_ = c.rdyCond.WaitTimeout(c.mu, waitSlice(ctx))
	}
	c.hdr.setReady(false)
	c.mu.Unlock()
	c.metrics.observeReadyWait(time.Since(start))
	return nil
}

// WaitFrameRequest blocks until a consumer posts a frame request. The
// request flag stays up; FrameDone clears it, so requests arriving while
// the producer fills the buffer fold into the frame being produced.
func (c *Channel) WaitFrameRequest() error {
	if c.released.Load() {
		return ErrReleased
	}
	c.mu.Lock()
	for !c.hdr.requestSet() {
		c.reqCond.Wait(c.mu)
	}
	c.mu.Unlock()
	return nil
}

// WaitFrameRequestContext is WaitFrameRequest bounded by ctx.
func (c *Channel) WaitFrameRequestContext(ctx context.Context) error {
	if c.released.Load() {
		return ErrReleased
	}
	c.mu.Lock()
	for !c.hdr.requestSet() {
		if err := ctx.Err(); err != nil {
			c.mu.Unlock()
			return err
		}
		_ = c.reqCond.WaitTimeout(c.mu, waitSlice(ctx))
	}
	c.mu.Unlock()
	return nil
}

// FrameDone publishes the frame the producer just wrote: it raises the
// ready flag, retires the collapsed request and wakes the consumer. It
// also counts as an access for staleness tracking.
func (c *Channel) FrameDone() error {
	if c.released.Load() {
		return ErrReleased
	}
	c.mu.Lock()
	c.hdr.setReady(true)
	c.hdr.setRequest(false)
	c.rdyCond.Signal()
	c.mu.Unlock()
	c.hdr.touch()
	c.countServed()
	logr.tracef("frame done on %s", c.name)
	return nil
}

// Lock acquires the segment's cross-process mutex directly. Most callers
// never need this; the handshake methods take and release it internally.
// Pair with Unlock.
func (c *Channel) Lock() error {
	if c.released.Load() {
		return ErrReleased
	}
	c.mu.Lock()
	return nil
}

// Unlock releases the segment's cross-process mutex.
func (c *Channel) Unlock() error {
	if c.released.Load() {
		return ErrReleased
	}
	c.mu.Unlock()
	return nil
}

// waitSlice returns the next bounded sleep for a context wait loop: at
// most ctxWaitSlice, shortened near a deadline.
func waitSlice(ctx context.Context) time.Duration {
	d := ctxWaitSlice
	if deadline, ok := ctx.Deadline(); ok {
		if r := time.Until(deadline); r < d {
			d = r
		}
	}
	if d <= 0 {
		d = time.Millisecond
	}
	return d
}

func (c *Channel) countRequested() {
	c.metrics.incFramesRequested()
	if c.otelRequested != nil {
		c.otelRequested.Add(context.Background(), 1)
	}
}

func (c *Channel) countServed() {
	c.metrics.incFramesServed()
	if c.otelServed != nil {
		c.otelServed.Add(context.Background(), 1)
	}
}
