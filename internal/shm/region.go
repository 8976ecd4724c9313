// Package shm creates, opens and memory-maps the tmpfs-backed files that
// hold channel segments. A segment named "frame" in namespace directory
// /dev/shm lives at /dev/shm/frame.shm; the package deals purely in such
// paths and knows nothing about the bytes inside.
package shm

import (
	"errors"
	"path/filepath"
)

// Suffix is appended to every segment name to form its file name.
const Suffix = ".shm"

var (
	// ErrNoSpace reports that the backing filesystem cannot hold a new
	// segment of the requested size.
	ErrNoSpace = errors.New("shm: not enough free space for segment")

	// ErrUnsupported reports that shared memory segments are not available
	// on this platform.
	ErrUnsupported = errors.New("shm: shared memory not supported on this platform")
)

// PathFor returns the backing file path for a segment name inside dir.
func PathFor(dir, name string) string {
	return filepath.Join(dir, name+Suffix)
}

// Region is an open, optionally mapped segment file.
type Region struct {
	path string
	fd   int
	size int64
	data []byte
}

// Path returns the backing file path.
func (r *Region) Path() string { return r.path }

// Size returns the backing file size in bytes.
func (r *Region) Size() int64 { return r.size }

// Bytes returns the mapped memory, or nil before Map or after Close.
func (r *Region) Bytes() []byte { return r.data }
