package shmio

import (
	"strings"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func TestKeywordRecordLayout(t *testing.T) {
	assert.Equal(t, 112, keywordRecordSize)

	var rec keywordRecord
	assert.Equal(t, uintptr(0), unsafe.Offsetof(rec.name))
	assert.Equal(t, uintptr(16), unsafe.Offsetof(rec.kind))
	assert.Equal(t, uintptr(24), unsafe.Offsetof(rec.value))
	assert.Equal(t, uintptr(32), unsafe.Offsetof(rec.comment))
}

func TestKeywordConstructors(t *testing.T) {
	i := IntKeyword("GAIN", 2, "sensor gain")
	assert.Equal(t, KindInt64, i.Kind)
	assert.Equal(t, int64(2), i.Int)

	f := FloatKeyword("EXPT", 0.5, "exposure time")
	assert.Equal(t, KindFloat64, f.Kind)
	assert.Equal(t, 0.5, f.Float)

	s := StringKeyword("MODE", "fast", "readout mode")
	assert.Equal(t, KindString, s.Kind)
	assert.Equal(t, "fast", s.Str)
}

func TestKeywordEncodeDecode(t *testing.T) {
	for _, kw := range []Keyword{
		IntKeyword("GAIN", -40, "negative gain"),
		FloatKeyword("EXPT", 0.000125, "exposure time"),
		StringKeyword("MODE", "fast", "readout mode"),
		IntKeyword("", 0, ""),
	} {
		var rec keywordRecord
		kw.encode(&rec)
		assert.Equal(t, kw, rec.decode(), kw.Name)
	}
}

func TestKeywordTruncation(t *testing.T) {
	kw := StringKeyword(
		strings.Repeat("N", KeywordNameLen+5),
		strings.Repeat("v", KeywordValueLen+5),
		strings.Repeat("c", KeywordCommentLen+5),
	)
	var rec keywordRecord
	kw.encode(&rec)
	got := rec.decode()

	// Every field keeps a trailing NUL inside its slot.
	assert.Equal(t, strings.Repeat("N", KeywordNameLen-1), got.Name)
	assert.Equal(t, strings.Repeat("v", KeywordValueLen-1), got.Str)
	assert.Equal(t, strings.Repeat("c", KeywordCommentLen-1), got.Comment)
}

func TestKeywordEqual(t *testing.T) {
	base := FloatKeyword("EXPT", 0.5, "exposure time")

	assert.True(t, base.Equal(FloatKeyword("EXPT", 0.5, "exposure time")))
	assert.False(t, base.Equal(FloatKeyword("EXPX", 0.5, "exposure time")))
	assert.False(t, base.Equal(FloatKeyword("EXPT", 0.6, "exposure time")))
	assert.False(t, base.Equal(FloatKeyword("EXPT", 0.5, "exposure")))
	assert.False(t, base.Equal(IntKeyword("EXPT", 0, "exposure time")))

	// Names agreeing through the stored width are the same keyword.
	long := IntKeyword(strings.Repeat("A", KeywordNameLen-1)+"zzz", 7, "")
	short := IntKeyword(strings.Repeat("A", KeywordNameLen-1)+"qqq", 7, "")
	assert.True(t, long.Equal(short))
}

func TestKeywordValueString(t *testing.T) {
	assert.Equal(t, "3", IntKeyword("A", 3, "").ValueString())
	assert.Equal(t, "0.5", FloatKeyword("B", 0.5, "").ValueString())
	assert.Equal(t, `"fast"`, StringKeyword("C", "fast", "").ValueString())
}

func TestKeywordKindString(t *testing.T) {
	assert.Equal(t, "int64", KindInt64.String())
	assert.Equal(t, "float64", KindFloat64.String())
	assert.Equal(t, "string", KindString.String())
	assert.Equal(t, "unknown", KeywordKind(9).String())
}
