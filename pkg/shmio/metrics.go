package shmio

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments for channel activity. One value
// is typically shared by every channel a process opens; pass it through
// Options.Metrics. A nil *Metrics is valid and counts nothing.
type Metrics struct {
	Creates         prometheus.Counter
	Attaches        prometheus.Counter
	Releases        prometheus.Counter
	FramesRequested prometheus.Counter
	FramesServed    prometheus.Counter
	ReadyWait       prometheus.Histogram
}

// NewMetrics builds the instrument set and registers it with reg when reg
// is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Creates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shmio",
			Name:      "segment_creates_total",
			Help:      "Segments created by this process.",
		}),
		Attaches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shmio",
			Name:      "segment_attaches_total",
			Help:      "Attaches to existing segments by this process.",
		}),
		Releases: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shmio",
			Name:      "segment_releases_total",
			Help:      "Channel handles released by this process.",
		}),
		FramesRequested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shmio",
			Name:      "frames_requested_total",
			Help:      "Frame requests posted by this process.",
		}),
		FramesServed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shmio",
			Name:      "frames_served_total",
			Help:      "Frames marked ready by this process.",
		}),
		ReadyWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "shmio",
			Name:      "frame_ready_wait_seconds",
			Help:      "Time consumers spent waiting for a frame.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Creates, m.Attaches, m.Releases,
			m.FramesRequested, m.FramesServed, m.ReadyWait)
	}
	return m
}

func (m *Metrics) incCreates() {
	if m != nil {
		m.Creates.Inc()
	}
}

func (m *Metrics) incAttaches() {
	if m != nil {
		m.Attaches.Inc()
	}
}

func (m *Metrics) incReleases() {
	if m != nil {
		m.Releases.Inc()
	}
}

func (m *Metrics) incFramesRequested() {
	if m != nil {
		m.FramesRequested.Inc()
	}
}

func (m *Metrics) incFramesServed() {
	if m != nil {
		m.FramesServed.Inc()
	}
}

func (m *Metrics) observeReadyWait(d time.Duration) {
	if m != nil {
		m.ReadyWait.Observe(d.Seconds())
	}
}
