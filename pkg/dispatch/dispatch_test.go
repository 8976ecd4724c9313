//go:build linux

package dispatch

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/kuravih/shmio/pkg/shmio"
)

func testPair(t *testing.T) (producer, consumer *shmio.Channel) {
	t.Helper()
	opts := &shmio.Options{Namespace: shmio.NamespaceAt(t.TempDir())}
	producer, err := shmio.CreateOrAttach("frame", 16, shmio.UInt32, nil, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = producer.Release() })
	consumer, err = shmio.Attach("frame", opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = consumer.Release() })
	return producer, consumer
}

func TestPumpDeliversFrames(t *testing.T) {
	producer, consumer := testPair(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	frame := uint32(0)
	buf := shmio.As[uint32](producer)
	go func() {
		_ = Serve(ctx, producer, func() error {
			frame++
			buf[0] = frame
			return nil
		})
	}()

	pump, err := NewPump(consumer, nil)
	require.NoError(t, err)

	var mu sync.Mutex
	var seqs []uint64
	ids := map[string]bool{}
	pump.Subscribe(func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		seqs = append(seqs, ev.Seq)
		ids[ev.ID] = true
		assert.Equal(t, "frame", ev.Channel)
	})

	runDone := make(chan error, 1)
	go func() { runDone <- pump.Run(ctx) }()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seqs) >= 5
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-runDone:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("pump did not stop")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, ids, len(seqs), "every delivery has a unique id")
	assert.True(t, sort.SliceIsSorted(seqs, func(i, j int) bool { return seqs[i] < seqs[j] }),
		"sequence numbers are monotonic: %v", seqs)
}

func TestPumpShedsLoad(t *testing.T) {
	producer, consumer := testPair(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = Serve(ctx, producer, func() error { return nil })
	}()

	pump, err := NewPump(consumer, &Options{Workers: 1, QueueDepth: 2})
	require.NoError(t, err)
	pump.Subscribe(func(Event) { time.Sleep(100 * time.Millisecond) })

	go func() { _ = pump.Run(ctx) }()

	require.Eventually(t, func() bool { return pump.Drops() > 0 },
		5*time.Second, 10*time.Millisecond)
	cancel()
}

func TestServeReportsFillError(t *testing.T) {
	producer, consumer := testPair(t)

	require.NoError(t, consumer.RequestFrame())
	err := Serve(context.Background(), producer, func() error {
		return assert.AnError
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "fill frame")
}

func TestServeStopsOnCancel(t *testing.T) {
	producer, _ := testPair(t)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := Serve(ctx, producer, func() error {
		t.Error("fill ran without a request")
		return nil
	})
	assert.NoError(t, err)
}

func TestNewPumpDefaults(t *testing.T) {
	_, consumer := testPair(t)
	pump, err := NewPump(consumer, nil)
	require.NoError(t, err)
	assert.Zero(t, pump.Drops())
	assert.Nil(t, pump.tracer)
	pump.pool.Release()
}

func TestNewPumpInheritsChannelTracer(t *testing.T) {
	opts := &shmio.Options{
		Namespace: shmio.NamespaceAt(t.TempDir()),
		Tracer:    noop.NewTracerProvider().Tracer("dispatch"),
	}
	ch, err := shmio.CreateOrAttach("frame", 4, shmio.UInt8, nil, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ch.Release() })

	pump, err := NewPump(ch, nil)
	require.NoError(t, err)
	assert.NotNil(t, pump.tracer)
	pump.pool.Release()
}
