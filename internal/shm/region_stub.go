//go:build !linux

package shm

// Segments require tmpfs files and shared futexes, which only Linux
// provides in the form this module relies on.

func Exists(path string) bool { return false }

func Create(path string, size int64) (*Region, error) { return nil, ErrUnsupported }

func Open(path string) (*Region, error) { return nil, ErrUnsupported }

func (r *Region) Map() error { return ErrUnsupported }

func (r *Region) Close() error { return nil }

func Unlink(path string) error { return ErrUnsupported }
