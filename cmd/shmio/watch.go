package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/cobra"

	"github.com/kuravih/shmio/pkg/dispatch"
	"github.com/kuravih/shmio/pkg/shmio"
)

func newWatchCommand(ns func() shmio.Namespace, stdout io.Writer) *cobra.Command {
	var count uint64
	var workers int
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "watch <name>",
		Short: "Request frames from a segment and print each delivery.",
		Long: `Watch drives the consumer side of a channel: it requests frames as fast
as the producer serves them and prints one line per delivery. The
segment does not have to exist yet; watch waits up to --wait for a
producer to create it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			bo := backoff.NewExponentialBackOff()
			bo.InitialInterval = 20 * time.Millisecond
			bo.MaxInterval = 500 * time.Millisecond
			bo.MaxElapsedTime = wait
			ch, err := shmio.AwaitAttach(ctx, args[0], &shmio.Options{Namespace: ns()}, bo)
			if err != nil {
				return err
			}
			defer ch.Release()

			pump, err := dispatch.NewPump(ch, &dispatch.Options{Workers: workers})
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			// Handlers run on pool workers, so output is serialized here.
			var mu sync.Mutex
			var seen uint64
			pump.Subscribe(func(ev dispatch.Event) {
				mu.Lock()
				defer mu.Unlock()
				fmt.Fprintf(stdout, "frame %d  id=%s  at=%s\n", ev.Seq, ev.ID, ev.At.Format(time.RFC3339Nano))
				seen++
				if count > 0 && seen >= count {
					cancel()
				}
			})

			err = pump.Run(ctx)
			if n := pump.Drops(); n > 0 {
				fmt.Fprintf(stdout, "dropped %d frames\n", n)
			}
			return err
		},
	}
	cmd.Flags().Uint64Var(&count, "count", 0, "stop after this many frames, 0 for unlimited")
	cmd.Flags().IntVar(&workers, "workers", 0, "handler goroutines, 0 for the default")
	cmd.Flags().DurationVar(&wait, "wait", 10*time.Second, "how long to wait for the segment to appear")
	return cmd
}
