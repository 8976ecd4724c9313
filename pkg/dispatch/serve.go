package dispatch

import (
	"context"

	"github.com/pkg/errors"

	"github.com/kuravih/shmio/pkg/shmio"
)

// Serve owns the producer side of a channel: it blocks on frame requests
// and answers each by calling fill, then publishing the frame. fill writes
// the next frame into the channel buffer, typically through shmio.As, and
// may set keyword values; requests arriving while it runs collapse into
// the frame being produced.
//
// Serve returns nil when ctx ends, and the first fill or handshake error
// otherwise. The channel handle stays owned by the caller.
func Serve(ctx context.Context, ch *shmio.Channel, fill func() error) error {
	for {
		if err := ch.WaitFrameRequestContext(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		if err := fill(); err != nil {
			return errors.Wrap(err, "fill frame")
		}
		if err := ch.FrameDone(); err != nil {
			return err
		}
	}
}
