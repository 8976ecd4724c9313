package shmio

import (
	"bytes"
	"strconv"
	"unsafe"
)

// Keyword storage widths in bytes. Strings are NUL-terminated inside their
// slot, so the usable length is one byte less.
const (
	KeywordNameLen    = 16
	KeywordValueLen   = 8
	KeywordCommentLen = 80
)

// KeywordKind selects which interpretation of a keyword's 8-byte value slot
// is current. The codes are part of the segment format.
type KeywordKind uint32

const (
	KindInt64 KeywordKind = iota
	KindFloat64
	KindString
)

func (k KeywordKind) String() string {
	switch k {
	case KindInt64:
		return "int64"
	case KindFloat64:
		return "float64"
	case KindString:
		return "string"
	}
	return "unknown"
}

// Keyword is one named metadata entry attached to a channel. Exactly one of
// Int, Float and Str is meaningful, selected by Kind. Name, Str and Comment
// are silently truncated to their storage widths when written to a segment.
type Keyword struct {
	Name    string
	Kind    KeywordKind
	Int     int64
	Float   float64
	Str     string
	Comment string
}

// IntKeyword returns an int64-valued keyword.
func IntKeyword(name string, value int64, comment string) Keyword {
	return Keyword{Name: name, Kind: KindInt64, Int: value, Comment: comment}
}

// FloatKeyword returns a float64-valued keyword.
func FloatKeyword(name string, value float64, comment string) Keyword {
	return Keyword{Name: name, Kind: KindFloat64, Float: value, Comment: comment}
}

// StringKeyword returns a string-valued keyword. The value slot holds at
// most KeywordValueLen-1 bytes.
func StringKeyword(name, value, comment string) Keyword {
	return Keyword{Name: name, Kind: KindString, Str: value, Comment: comment}
}

// ValueString renders the active value for display.
func (k Keyword) ValueString() string {
	switch k.Kind {
	case KindInt64:
		return strconv.FormatInt(k.Int, 10)
	case KindFloat64:
		return strconv.FormatFloat(k.Float, 'g', -1, 64)
	case KindString:
		return strconv.Quote(k.Str)
	}
	return "?"
}

// Equal reports whether k and o are indistinguishable once stored: names,
// comments and string values are compared over their truncated widths.
func (k Keyword) Equal(o Keyword) bool {
	var a, b keywordRecord
	k.encode(&a)
	o.encode(&b)
	return a == b
}

// keywordRecord is the fixed 112-byte layout of one keyword slot inside a
// segment. The value bytes sit at an 8-aligned offset so numeric values can
// be accessed atomically in place.
type keywordRecord struct {
	name    [KeywordNameLen]byte
	kind    uint32
	_       uint32
	value   [KeywordValueLen]byte
	comment [KeywordCommentLen]byte
}

const keywordRecordSize = int(unsafe.Sizeof(keywordRecord{}))

// encode overwrites rec with k's stored form. Unused value bytes are zero,
// so two records compare equal exactly when their keywords do.
func (k Keyword) encode(rec *keywordRecord) {
	*rec = keywordRecord{}
	copyBounded(rec.name[:], k.Name)
	rec.kind = uint32(k.Kind)
	switch k.Kind {
	case KindInt64:
		*(*int64)(unsafe.Pointer(&rec.value[0])) = k.Int
	case KindFloat64:
		*(*float64)(unsafe.Pointer(&rec.value[0])) = k.Float
	case KindString:
		copyBounded(rec.value[:], k.Str)
	}
	copyBounded(rec.comment[:], k.Comment)
}

// decode returns the Keyword stored in rec.
func (rec *keywordRecord) decode() Keyword {
	k := Keyword{
		Name:    cString(rec.name[:]),
		Kind:    KeywordKind(rec.kind),
		Comment: cString(rec.comment[:]),
	}
	switch k.Kind {
	case KindInt64:
		k.Int = *(*int64)(unsafe.Pointer(&rec.value[0]))
	case KindFloat64:
		k.Float = *(*float64)(unsafe.Pointer(&rec.value[0]))
	case KindString:
		k.Str = cString(rec.value[:])
	}
	return k
}

// copyBounded copies s into dst, truncating to leave at least one trailing
// NUL. dst must already be zeroed.
func copyBounded(dst []byte, s string) {
	n := len(dst) - 1
	if len(s) < n {
		n = len(s)
	}
	copy(dst[:n], s)
}

// cString returns the bytes of b before the first NUL.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
