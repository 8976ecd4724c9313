package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/kuravih/shmio/pkg/dispatch"
	"github.com/kuravih/shmio/pkg/shmio"
)

func newFeedCommand(ns func() shmio.Namespace, stdout io.Writer) *cobra.Command {
	var schemaPath string
	var frames uint64

	cmd := &cobra.Command{
		Use:   "feed <name>",
		Short: "Serve frames into a segment until interrupted.",
		Long: `Feed owns the producer side of a channel: it blocks on frame requests
and answers each one with a ramp pattern shifted by the frame ordinal.
When the keyword table holds an int64 FRAME slot, the ordinal is stored
there too. Without --schema the segment must already exist.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			opts := &shmio.Options{Namespace: ns()}
			ch, err := openForFeed(args[0], schemaPath, opts)
			if err != nil {
				return err
			}
			defer ch.Release()

			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			_, hasFrameSlot := ch.FindKeyword("FRAME")
			var served uint64
			fill := func() error {
				served++
				if err := fillRamp(ch, served); err != nil {
					return err
				}
				if hasFrameSlot {
					if err := ch.SetKeywordInt64("FRAME", int64(served)); err != nil {
						return err
					}
				}
				if frames > 0 && served >= frames {
					cancel()
				}
				return nil
			}

			fmt.Fprintf(stdout, "feeding %s: %d x %s\n", ch.Path(), ch.ElementCount(), ch.DataType())
			err = dispatch.Serve(ctx, ch, fill)
			fmt.Fprintf(stdout, "served %d frames\n", served)
			return err
		},
	}
	cmd.Flags().StringVar(&schemaPath, "schema", "", "YAML schema file, creates the segment when missing")
	cmd.Flags().Uint64Var(&frames, "frames", 0, "stop after this many frames, 0 for unlimited")
	return cmd
}

func openForFeed(name, schemaPath string, opts *shmio.Options) (*shmio.Channel, error) {
	if schemaPath == "" {
		return shmio.Attach(name, opts)
	}
	schema, err := shmio.LoadSchema(schemaPath)
	if err != nil {
		return nil, err
	}
	schema.Name = name
	return schema.CreateOrAttach(opts)
}

// rampElement is Element minus the complex types, which cannot be converted
// from an integer ordinal.
type rampElement interface {
	uint8 | int8 | uint16 | int16 | uint32 | int32 |
		uint64 | int64 | shmio.Half | float32 | float64
}

func ramp[T rampElement](ch *shmio.Channel, frame uint64) {
	buf := shmio.As[T](ch)
	for i := range buf {
		buf[i] = T(frame + uint64(i))
	}
}

// fillRamp writes frame+i into element i, in the buffer's own type.
func fillRamp(ch *shmio.Channel, frame uint64) error {
	switch ch.DataType() {
	case shmio.UInt8:
		ramp[uint8](ch, frame)
	case shmio.Int8:
		ramp[int8](ch, frame)
	case shmio.UInt16:
		ramp[uint16](ch, frame)
	case shmio.Int16:
		ramp[int16](ch, frame)
	case shmio.UInt32:
		ramp[uint32](ch, frame)
	case shmio.Int32:
		ramp[int32](ch, frame)
	case shmio.UInt64:
		ramp[uint64](ch, frame)
	case shmio.Int64:
		ramp[int64](ch, frame)
	case shmio.Float32:
		ramp[float32](ch, frame)
	case shmio.Float64:
		ramp[float64](ch, frame)
	case shmio.Float16:
		ramp[shmio.Half](ch, frame)
	case shmio.Complex64:
		buf := shmio.As[complex64](ch)
		for i := range buf {
			buf[i] = complex(float32(frame+uint64(i)), 0)
		}
	case shmio.Complex128:
		buf := shmio.As[complex128](ch)
		for i := range buf {
			buf[i] = complex(float64(frame+uint64(i)), 0)
		}
	default:
		return errors.Errorf("cannot fill %s buffer", ch.DataType())
	}
	return nil
}
