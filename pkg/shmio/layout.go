package shmio

// Segment layout, in file order:
//
//	[ header | keyword records | element buffer ]
//
// The header is 72 bytes and the keyword records 112 bytes each, so every
// region keeps 8-byte alignment and the element buffer starts 8-aligned for
// all element types up to complex128.

// SegmentSize returns the byte size of a segment holding keywordCount
// keywords and elementCount elements of type dt. The result is exact, with
// no rounding or padding beyond the fixed record sizes. An invalid dt
// contributes zero bytes per element; callers creating segments must
// reject it via dt.Valid first.
func SegmentSize(keywordCount, elementCount int, dt DataType) int {
	return headerSize + keywordCount*keywordRecordSize + elementCount*dt.Size()
}

// keywordOffset returns the byte offset of keyword record i.
func keywordOffset(i int) int {
	return headerSize + i*keywordRecordSize
}

// bufferOffset returns the byte offset of the element buffer in a segment
// with keywordCount keywords.
func bufferOffset(keywordCount int) int {
	return headerSize + keywordCount*keywordRecordSize
}

// The layout is a cross-process contract; a field edit that changes either
// footprint must not compile.
var (
	_ [headerSize - 72]byte
	_ [72 - headerSize]byte
	_ [keywordRecordSize - 112]byte
	_ [112 - keywordRecordSize]byte
)
