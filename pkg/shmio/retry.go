package shmio

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// AwaitAttach attaches to a segment that may not exist yet, retrying
// ErrNotExist on the given backoff schedule until the producer creates it
// or ctx ends. Any other error is permanent and returned at once. A nil bo
// polls with short exponential backoff for up to ten seconds.
//
// This is the consumer-side answer to starting before the producer without
// guessing the segment shape the way CreateOrAttach requires.
func AwaitAttach(ctx context.Context, name string, opts *Options, bo backoff.BackOff) (*Channel, error) {
	if bo == nil {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = 20 * time.Millisecond
		eb.MaxInterval = 500 * time.Millisecond
		eb.MaxElapsedTime = 10 * time.Second
		bo = eb
	}
	var ch *Channel
	op := func() error {
		var err error
		ch, err = Attach(name, opts)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, ErrNotExist):
			return err
		default:
			return backoff.Permanent(err)
		}
	}
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	return ch, nil
}
