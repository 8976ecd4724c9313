package shmio

import (
	"fmt"
	"time"

	"github.com/heptiolabs/healthcheck"
)

// SegmentExists returns a readiness check that passes while the named
// segment is present in the namespace.
func SegmentExists(name string, opts *Options) healthcheck.Check {
	o := opts.clone()
	return func() error {
		if !Exists(name, &o) {
			return fmt.Errorf("segment %q not present in %s", name, o.Namespace.Dir())
		}
		return nil
	}
}

// Staleness returns a liveness check that fails when the channel's last
// access is older than maxIdle. A healthy exchange refreshes the access
// time on every attach, Touch and FrameDone.
func Staleness(c *Channel, maxIdle time.Duration) healthcheck.Check {
	return func() error {
		last := c.LastAccessAt()
		if last.IsZero() {
			return ErrReleased
		}
		if idle := time.Since(last); idle > maxIdle {
			return fmt.Errorf("segment %q idle for %s (max %s)", c.Name(), idle, maxIdle)
		}
		return nil
	}
}

// RegisterChecks wires the standard checks for one channel onto h.
func RegisterChecks(h healthcheck.Handler, c *Channel, maxIdle time.Duration) {
	h.AddReadinessCheck("segment-exists-"+c.Name(), SegmentExists(c.Name(), &Options{Namespace: c.Namespace()}))
	h.AddLivenessCheck("segment-fresh-"+c.Name(), Staleness(c, maxIdle))
}
