package shmio

import "unsafe"

// As returns the channel's element buffer as a []T aliasing the shared
// mapping directly: writes through the slice are visible to every process
// attached to the segment, with no copying.
//
// T must match the stored element type exactly; otherwise As returns nil.
// A non-nil result is valid until the channel is released, after which the
// memory is unmapped and the slice must not be touched. The buffer carries
// no internal synchronization; processes that need a consistent frame
// coordinate through the handshake or Lock.
func As[T Element](c *Channel) []T {
	if c == nil || c.released.Load() {
		return nil
	}
	if dataTypeOf[T]() != c.DataType() {
		return nil
	}
	n := c.ElementCount()
	if n == 0 {
		return []T{}
	}
	off := bufferOffset(c.KeywordCount())
	return unsafe.Slice((*T)(unsafe.Pointer(&c.region.Bytes()[off])), n)
}

// Bytes returns the element buffer as raw bytes, aliasing the shared
// mapping like As. It succeeds for every element type; length is
// ElementCount times the element size. Returns nil after Release.
func (c *Channel) Bytes() []byte {
	if c.released.Load() {
		return nil
	}
	return c.region.Bytes()[bufferOffset(c.KeywordCount()):]
}
