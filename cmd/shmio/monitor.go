package main

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/spf13/cobra"

	"github.com/kuravih/shmio/pkg/shmio"
)

func newMonitorCommand(ns func() shmio.Namespace, stdout io.Writer) *cobra.Command {
	var listen string
	var maxIdle time.Duration

	cmd := &cobra.Command{
		Use:   "monitor <name>",
		Short: "Expose health and metrics for a segment over HTTP.",
		Long: `Monitor attaches to a segment and serves /live, /ready and /metrics.
Readiness tracks the segment file, liveness its last access time, and
the metrics page adds segment size, idle time and free space in the
namespace directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			namespace := ns()
			reg := prometheus.NewRegistry()
			ch, err := shmio.Attach(args[0], &shmio.Options{
				Namespace: namespace,
				Metrics:   shmio.NewMetrics(reg),
			})
			if err != nil {
				return err
			}
			defer ch.Release()

			reg.MustRegister(
				prometheus.NewGaugeFunc(prometheus.GaugeOpts{
					Namespace: "shmio",
					Name:      "segment_bytes",
					Help:      "Mapped size of the watched segment.",
				}, func() float64 { return float64(ch.Size()) }),
				prometheus.NewGaugeFunc(prometheus.GaugeOpts{
					Namespace: "shmio",
					Name:      "segment_idle_seconds",
					Help:      "Seconds since the watched segment was last accessed.",
				}, func() float64 { return time.Since(ch.LastAccessAt()).Seconds() }),
				prometheus.NewGaugeFunc(prometheus.GaugeOpts{
					Namespace: "shmio",
					Name:      "namespace_free_bytes",
					Help:      "Free space on the filesystem holding the namespace.",
				}, func() float64 {
					usage, err := disk.Usage(namespace.Dir())
					if err != nil {
						return math.NaN()
					}
					return float64(usage.Free)
				}),
			)

			health := healthHandler(reg, ch, maxIdle)
			mux := http.NewServeMux()
			mux.HandleFunc("/live", health.LiveEndpoint)
			mux.HandleFunc("/ready", health.ReadyEndpoint)
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

			srv := &http.Server{Addr: listen, Handler: mux}
			errc := make(chan error, 1)
			go func() { errc <- srv.ListenAndServe() }()
			fmt.Fprintf(stdout, "monitoring %s on http://%s\n", ch.Path(), listen)

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "127.0.0.1:9155", "HTTP listen address")
	cmd.Flags().DurationVar(&maxIdle, "max-idle", time.Minute, "idle time before liveness fails")
	return cmd
}

// healthHandler builds the check set for one channel, with check results
// mirrored into reg as gauges.
func healthHandler(reg *prometheus.Registry, ch *shmio.Channel, maxIdle time.Duration) healthcheck.Handler {
	h := healthcheck.NewMetricsHandler(reg, "shmio")
	shmio.RegisterChecks(h, ch, maxIdle)
	return h
}
