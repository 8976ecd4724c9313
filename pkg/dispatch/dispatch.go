// Package dispatch runs the two sides of a channel's frame handshake as
// managed loops: a Pump drives the consumer side and fans frame arrivals
// out to in-process subscribers, and Serve drives the producer side.
//
// The pump decouples the handshake from subscriber speed with a bounded
// ring: when subscribers fall behind, new frame events are dropped rather
// than queued without bound, so delivered frames stay fresh. Dropped
// events are counted, never silently lost.
package dispatch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Workiva/go-datastructures/queue"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/kuravih/shmio/pkg/shmio"
)

// Event announces one frame arrival. It carries no pixel data; subscribers
// read the channel buffer, which at read time holds the newest frame, not
// necessarily the one that raised the event.
type Event struct {
	ID      string    // unique per delivery
	Channel string    // channel name
	Seq     uint64    // pump-local frame ordinal, gaps mark drops
	At      time.Time // when the frame became ready
}

// Handler consumes one event. Handlers run on the pump's worker pool and
// may block without stalling the handshake.
type Handler func(Event)

// Options tunes a Pump. The zero value (and a nil pointer) gives four
// workers and a sixteen-event ring, with tracing following the channel.
type Options struct {
	// Workers is the size of the handler worker pool.
	Workers int

	// QueueDepth bounds the frame event ring.
	QueueDepth uint64

	// Tracer, when set, opens a span around every handler invocation.
	// When nil, the channel's tracer is used instead.
	Tracer trace.Tracer
}

const (
	defaultWorkers    = 4
	defaultQueueDepth = 16
)

func (o *Options) defaulted() Options {
	var out Options
	if o != nil {
		out = *o
	}
	if out.Workers <= 0 {
		out.Workers = defaultWorkers
	}
	if out.QueueDepth == 0 {
		out.QueueDepth = defaultQueueDepth
	}
	return out
}

// Pump owns the consumer side of a channel: it requests frames, waits for
// them and dispatches an Event per frame to every subscriber.
type Pump struct {
	ch     *shmio.Channel
	ring   *queue.RingBuffer
	pool   *ants.Pool
	tracer trace.Tracer

	mu       sync.RWMutex
	handlers []Handler

	seq   atomic.Uint64
	drops atomic.Uint64
}

// NewPump builds a pump over ch. The channel handle stays owned by the
// caller and is not released by the pump.
func NewPump(ch *shmio.Channel, opts *Options) (*Pump, error) {
	o := opts.defaulted()
	if o.Tracer == nil {
		o.Tracer = ch.Tracer()
	}
	pool, err := ants.NewPool(o.Workers, ants.WithNonblocking(true))
	if err != nil {
		return nil, errors.Wrap(err, "dispatch: worker pool")
	}
	return &Pump{
		ch:     ch,
		ring:   queue.NewRingBuffer(o.QueueDepth),
		pool:   pool,
		tracer: o.Tracer,
	}, nil
}

// Subscribe adds a handler. Subscriptions made after Run starts take
// effect from the next delivered frame.
func (p *Pump) Subscribe(h Handler) {
	p.mu.Lock()
	p.handlers = append(p.handlers, h)
	p.mu.Unlock()
}

// Drops returns the number of frame events shed so far, whether at the
// ring or at a saturated worker pool.
func (p *Pump) Drops() uint64 { return p.drops.Load() }

// Run requests and dispatches frames until ctx ends, then tears down the
// ring and pool. Context cancellation is a clean stop and returns nil;
// any other failure is returned.
func (p *Pump) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.fetch(ctx) })
	g.Go(func() error { return p.deliver(ctx) })
	err := g.Wait()

	p.ring.Dispose()
	p.pool.Release()

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// fetch runs the handshake loop: request, wait, enqueue.
func (p *Pump) fetch(ctx context.Context) error {
	for {
		if err := p.ch.RequestFrame(); err != nil {
			return errors.Wrap(err, "request frame")
		}
		if err := p.ch.WaitFrameReadyContext(ctx); err != nil {
			return err
		}
		ev := Event{
			ID:      uuid.NewString(),
			Channel: p.ch.Name(),
			Seq:     p.seq.Add(1) - 1,
			At:      time.Now(),
		}
		ok, err := p.ring.Offer(ev)
		if err != nil {
			// Ring disposed; the pump is shutting down.
			return nil
		}
		if !ok {
			p.drops.Add(1)
		}
	}
}

// deliver drains the ring into the worker pool.
func (p *Pump) deliver(ctx context.Context) error {
	for {
		item, err := p.ring.Poll(50 * time.Millisecond)
		if err == queue.ErrTimeout {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}
		if err != nil {
			return nil
		}
		p.dispatch(ctx, item.(Event))
	}
}

func (p *Pump) dispatch(ctx context.Context, ev Event) {
	p.mu.RLock()
	handlers := p.handlers
	p.mu.RUnlock()

	for _, h := range handlers {
		h := h
		task := func() {
			if p.tracer != nil {
				_, span := p.tracer.Start(ctx, "shmio.dispatch",
					trace.WithAttributes(
						attribute.String("channel", ev.Channel),
						attribute.Int64("seq", int64(ev.Seq)),
						attribute.String("event.id", ev.ID)))
				defer span.End()
			}
			h(ev)
		}
		if err := p.pool.Submit(task); err != nil {
			p.drops.Add(1)
		}
	}
}
