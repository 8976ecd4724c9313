//go:build linux

package shmio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryDeduplicatesHandles(t *testing.T) {
	r := NewRegistry(testOpts(t))

	a, err := r.CreateOrAttach("frame", 8, UInt8, nil)
	require.NoError(t, err)
	b, err := r.CreateOrAttach("frame", 8, UInt8, nil)
	require.NoError(t, err)
	assert.Same(t, a, b)

	c, err := r.Attach("frame")
	require.NoError(t, err)
	assert.Same(t, a, c)

	got, ok := r.Get("frame")
	require.True(t, ok)
	assert.Same(t, a, got)

	assert.Equal(t, []string{"frame"}, r.Names())
}

func TestRegistryRelease(t *testing.T) {
	r := NewRegistry(testOpts(t))

	_, err := r.CreateOrAttach("one", 4, UInt8, nil)
	require.NoError(t, err)
	_, err = r.CreateOrAttach("two", 4, UInt8, nil)
	require.NoError(t, err)

	require.NoError(t, r.Release("one"))
	_, ok := r.Get("one")
	assert.False(t, ok)
	assert.ErrorIs(t, r.Release("one"), ErrNotExist)

	// A fresh handle on a released name maps the surviving segment.
	again, err := r.Attach("one")
	require.NoError(t, err)
	assert.Equal(t, 4, again.ElementCount())

	require.NoError(t, r.ReleaseAll())
	assert.Empty(t, r.Names())
	assert.ErrorIs(t, again.Release(), ErrReleased)
}
