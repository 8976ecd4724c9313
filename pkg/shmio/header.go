package shmio

import (
	"fmt"
	"sync/atomic"
	"time"
	"unsafe"
)

// headerMagic spells "shio" when the header is dumped as little-endian
// bytes. A creator stores it only after every other field is in place, so
// any process that observes the magic observes a fully formed segment.
const headerMagic uint32 = 0x6F696873

// headerVersion is bumped whenever the segment layout changes shape.
const headerVersion uint32 = 1

// header is the fixed region at the start of every segment. The three
// futex words (mutex, requestSeq, readySeq) and the two flags make up the
// frame handshake state; the remaining fields describe the layout and are
// immutable once the magic is published.
type header struct {
	magic      uint32
	version    uint32
	mutex      uint32
	requestSeq uint32
	readySeq   uint32
	request    uint32
	ready      uint32
	_          uint32

	createdAt  int64 // unix nanoseconds
	accessedAt int64 // unix nanoseconds

	keywordCount uint64
	elementCount uint64
	dataType     uint32
	_            uint32
}

const headerSize = int(unsafe.Sizeof(header{}))

// headerAt overlays a header on the start of a mapped segment. mem must be
// page-aligned mmap memory of at least headerSize bytes.
func headerAt(mem []byte) *header {
	return (*header)(unsafe.Pointer(&mem[0]))
}

// keywordRecords overlays the n keyword records following the header.
func keywordRecords(mem []byte, n int) []keywordRecord {
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*keywordRecord)(unsafe.Pointer(&mem[headerSize])), n)
}

// validate checks the identifying words of a mapped segment.
func (h *header) validate() error {
	if m := atomic.LoadUint32(&h.magic); m != headerMagic {
		return fmt.Errorf("%w: magic 0x%08x", ErrBadSegment, m)
	}
	if h.version != headerVersion {
		return fmt.Errorf("%w: format version %d", ErrBadSegment, h.version)
	}
	if !DataType(h.dataType).Valid() {
		return fmt.Errorf("%w: element type code %d", ErrBadSegment, h.dataType)
	}
	return nil
}

// storedSize recomputes the segment size from the stored layout fields.
// ok is false when the counts are too large to be real.
func (h *header) storedSize() (size uint64, ok bool) {
	const limit = 1 << 48
	if h.keywordCount >= limit || h.elementCount >= limit {
		return 0, false
	}
	size = uint64(headerSize) +
		h.keywordCount*uint64(keywordRecordSize) +
		h.elementCount*uint64(DataType(h.dataType).Size())
	return size, true
}

// The flag and timestamp fields are written by either process at any time,
// so all access goes through atomics.

func (h *header) requestSet() bool  { return atomic.LoadUint32(&h.request) != 0 }
func (h *header) readySet() bool    { return atomic.LoadUint32(&h.ready) != 0 }
func (h *header) setRequest(v bool) { atomic.StoreUint32(&h.request, boolWord(v)) }
func (h *header) setReady(v bool)   { atomic.StoreUint32(&h.ready, boolWord(v)) }

func (h *header) created() time.Time {
	return time.Unix(0, atomic.LoadInt64(&h.createdAt))
}

func (h *header) accessed() time.Time {
	return time.Unix(0, atomic.LoadInt64(&h.accessedAt))
}

// touch records the current time as the last access.
func (h *header) touch() {
	atomic.StoreInt64(&h.accessedAt, time.Now().UnixNano())
}

// restamp resets both timestamps to the current time.
func (h *header) restamp() {
	now := time.Now().UnixNano()
	atomic.StoreInt64(&h.createdAt, now)
	atomic.StoreInt64(&h.accessedAt, now)
}

func boolWord(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}
