package shmio

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func TestHeaderLayout(t *testing.T) {
	assert.Equal(t, 72, headerSize)

	var h header
	assert.Equal(t, uintptr(0), unsafe.Offsetof(h.magic))
	assert.Equal(t, uintptr(4), unsafe.Offsetof(h.version))
	assert.Equal(t, uintptr(8), unsafe.Offsetof(h.mutex))
	assert.Equal(t, uintptr(12), unsafe.Offsetof(h.requestSeq))
	assert.Equal(t, uintptr(16), unsafe.Offsetof(h.readySeq))
	assert.Equal(t, uintptr(20), unsafe.Offsetof(h.request))
	assert.Equal(t, uintptr(24), unsafe.Offsetof(h.ready))
	assert.Equal(t, uintptr(32), unsafe.Offsetof(h.createdAt))
	assert.Equal(t, uintptr(40), unsafe.Offsetof(h.accessedAt))
	assert.Equal(t, uintptr(48), unsafe.Offsetof(h.keywordCount))
	assert.Equal(t, uintptr(56), unsafe.Offsetof(h.elementCount))
	assert.Equal(t, uintptr(64), unsafe.Offsetof(h.dataType))
}

func TestSegmentSizeExact(t *testing.T) {
	// header + records + elements, nothing else.
	assert.Equal(t, 72+2*112+100*4, SegmentSize(2, 100, Float32))
	assert.Equal(t, 72, SegmentSize(0, 0, UInt8))
	assert.Equal(t, 72+112, SegmentSize(1, 0, Int64))
	assert.Equal(t, 72+16, SegmentSize(0, 1, Complex128))
	assert.Equal(t, 72+3*112+7*2, SegmentSize(3, 7, Float16))
}

func TestSegmentSizeDeterministic(t *testing.T) {
	for _, dt := range allDataTypes {
		assert.Equal(t, SegmentSize(3, 1000, dt), SegmentSize(3, 1000, dt), dt.String())
	}
}

func TestSegmentSizeMonotonic(t *testing.T) {
	for _, dt := range allDataTypes {
		base := SegmentSize(2, 50, dt)
		assert.Greater(t, SegmentSize(3, 50, dt), base, dt.String())
		assert.Greater(t, SegmentSize(2, 51, dt), base, dt.String())
	}
}

func TestOffsetsStayAligned(t *testing.T) {
	for kw := 0; kw < 6; kw++ {
		assert.Zero(t, keywordOffset(kw)%8)
		assert.Zero(t, bufferOffset(kw)%8)
	}
}

func TestStoredSizeRejectsAbsurdCounts(t *testing.T) {
	h := header{keywordCount: 1, elementCount: 16, dataType: uint32(Float64)}
	size, ok := h.storedSize()
	assert.True(t, ok)
	assert.Equal(t, uint64(72+112+16*8), size)

	h.elementCount = 1 << 60
	_, ok = h.storedSize()
	assert.False(t, ok)
}
