package shm

import (
	"strings"

	"github.com/shirou/gopsutil/v3/disk"
)

const devShm = "/dev/shm"

// hasSpaceFor reports whether the filesystem behind path has room for size
// more bytes. Only the tmpfs mount at /dev/shm is checked; other namespace
// directories fail at ftruncate or first touch instead, and a failed probe
// never blocks creation.
func hasSpaceFor(path string, size uint64) bool {
	if !strings.HasPrefix(path, devShm) {
		return true
	}
	usage, err := disk.Usage(devShm)
	if err != nil {
		return true
	}
	return usage.Free >= size
}
