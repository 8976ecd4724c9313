//go:build linux

package shmio

import (
	"context"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAwaitAttachWaitsForProducer(t *testing.T) {
	opts := testOpts(t)

	go func() {
		time.Sleep(80 * time.Millisecond)
		ch, err := CreateOrAttach("late", 8, Int32, nil, opts)
		if err != nil {
			t.Error(err)
			return
		}
		As[int32](ch)[0] = 77
	}()

	bo := backoff.WithMaxRetries(backoff.NewConstantBackOff(10*time.Millisecond), 100)
	ch, err := AwaitAttach(context.Background(), "late", opts, bo)
	require.NoError(t, err)
	defer ch.Release()

	assert.Equal(t, Int32, ch.DataType())
	assert.Equal(t, int32(77), As[int32](ch)[0])
}

func TestAwaitAttachPermanentError(t *testing.T) {
	start := time.Now()
	_, err := AwaitAttach(context.Background(), "", testOpts(t), nil)
	assert.ErrorIs(t, err, ErrInvalidName)
	// A permanent error must not burn the whole backoff schedule.
	assert.Less(t, time.Since(start), time.Second)
}

func TestAwaitAttachHonorsContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := AwaitAttach(ctx, "never", testOpts(t), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAwaitAttachExhaustsRetries(t *testing.T) {
	bo := backoff.WithMaxRetries(backoff.NewConstantBackOff(5*time.Millisecond), 3)
	_, err := AwaitAttach(context.Background(), "never", testOpts(t), bo)
	assert.ErrorIs(t, err, ErrNotExist)
}
