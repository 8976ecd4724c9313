//go:build linux

package shmio

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	mnoop "go.opentelemetry.io/otel/metric/noop"
	tnoop "go.opentelemetry.io/otel/trace/noop"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, c.Write(m))
	return m.GetCounter().GetValue()
}

func histogramCount(t *testing.T, h prometheus.Histogram) uint64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, h.Write(m))
	return m.GetHistogram().GetSampleCount()
}

func TestMetricsCountChannelActivity(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	opts := &Options{Namespace: NamespaceAt(t.TempDir()), Metrics: m}

	producer, err := CreateOrAttach("frame", 8, UInt8, nil, opts)
	require.NoError(t, err)
	consumer, err := Attach("frame", opts)
	require.NoError(t, err)

	assert.Equal(t, 1.0, counterValue(t, m.Creates))
	assert.Equal(t, 1.0, counterValue(t, m.Attaches))

	const frames = 3
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < frames; i++ {
			_ = producer.WaitFrameRequest()
			_ = producer.FrameDone()
		}
	}()
	for i := 0; i < frames; i++ {
		require.NoError(t, consumer.RequestFrame())
		require.NoError(t, consumer.WaitFrameReady())
	}
	<-done

	assert.Equal(t, float64(frames), counterValue(t, m.FramesRequested))
	assert.Equal(t, float64(frames), counterValue(t, m.FramesServed))
	assert.Equal(t, uint64(frames), histogramCount(t, m.ReadyWait))

	require.NoError(t, consumer.Release())
	require.NoError(t, producer.Release())
	assert.Equal(t, 2.0, counterValue(t, m.Releases))

	// The registry gathers everything NewMetrics registered.
	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 6)
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.incCreates()
	m.incAttaches()
	m.incReleases()
	m.incFramesRequested()
	m.incFramesServed()
	m.observeReadyWait(0)

	// Channels without metrics run the same paths.
	opts := &Options{Namespace: NamespaceAt(t.TempDir())}
	ch, err := CreateOrAttach("plain", 4, UInt8, nil, opts)
	require.NoError(t, err)
	require.NoError(t, ch.FrameDone())
	require.NoError(t, ch.Release())
}

func TestNewMetricsUnregistered(t *testing.T) {
	m := NewMetrics(nil)
	m.Creates.Inc()
	assert.Equal(t, 1.0, counterValue(t, m.Creates))
}

func TestOtelInstruments(t *testing.T) {
	opts := &Options{
		Namespace: NamespaceAt(t.TempDir()),
		Meter:     mnoop.NewMeterProvider().Meter("shmio"),
		Tracer:    tnoop.NewTracerProvider().Tracer("shmio"),
	}
	ch, err := CreateOrAttach("traced", 4, UInt8, nil, opts)
	require.NoError(t, err)
	defer ch.Release()

	assert.NotNil(t, ch.Tracer())
	require.NotNil(t, ch.otelRequested)
	require.NotNil(t, ch.otelServed)

	// The otel counters ride the same handshake paths as the prometheus
	// ones; with a noop meter the adds must simply not blow up.
	require.NoError(t, ch.RequestFrame())
	require.NoError(t, ch.FrameDone())
}
