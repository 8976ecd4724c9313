//go:build linux

package shm

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Exists reports whether the segment file at path can be opened for reading.
// The probe is advisory: the file may appear or disappear immediately after.
func Exists(path string) bool {
	fd, err := unix.Open(path, unix.O_RDONLY, 0)
	if err != nil {
		return false
	}
	_ = unix.Close(fd)
	return true
}

// Create makes a fresh segment file of the given size. The file must not
// already exist; a racing creator loses with unix.EEXIST and should fall
// back to Open. The new file is zero-filled by the kernel. Call Map to
// access the memory.
func Create(path string, size int64) (*Region, error) {
	if !hasSpaceFor(path, uint64(size)) {
		return nil, fmt.Errorf("%w: %s needs %d bytes", ErrNoSpace, path, size)
	}
	fd, err := unix.Open(path, unix.O_CREAT|unix.O_EXCL|unix.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := unix.Ftruncate(fd, size); err != nil {
		_ = unix.Close(fd)
		_ = unix.Unlink(path)
		return nil, fmt.Errorf("ftruncate %s: %w", path, err)
	}
	return &Region{path: path, fd: fd, size: size}, nil
}

// Open opens an existing segment file and records its current size. Call
// Map to access the memory.
func Open(path string) (*Region, error) {
	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return &Region{path: path, fd: fd, size: st.Size}, nil
}

// Map maps the whole file read-write and shared.
func (r *Region) Map() error {
	data, err := unix.Mmap(r.fd, 0, int(r.size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return fmt.Errorf("mmap %s: %w", r.path, err)
	}
	r.data = data
	return nil
}

// Close unmaps the memory and closes the file descriptor. The backing file
// stays in place for other processes; see Unlink. Close is not idempotent
// in its return value but is safe to call twice.
func (r *Region) Close() error {
	var errs []error
	if r.data != nil {
		if err := unix.Munmap(r.data); err != nil {
			errs = append(errs, fmt.Errorf("munmap %s: %w", r.path, err))
		}
		r.data = nil
	}
	if r.fd >= 0 {
		if err := unix.Close(r.fd); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", r.path, err))
		}
		r.fd = -1
	}
	return errors.Join(errs...)
}

// Unlink removes the segment file. Existing mappings stay valid until their
// holders close them.
func Unlink(path string) error {
	if err := unix.Unlink(path); err != nil {
		return fmt.Errorf("unlink %s: %w", path, err)
	}
	return nil
}
