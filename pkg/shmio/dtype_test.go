package shmio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allDataTypes = []DataType{
	UInt8, Int8, UInt16, Int16, UInt32, Int32,
	UInt64, Int64, Float32, Float64, Complex64, Complex128, Float16,
}

func TestDataTypeCodesAndSizes(t *testing.T) {
	tests := []struct {
		dt   DataType
		code uint32
		size int
	}{
		{UInt8, 1, 1},
		{Int8, 2, 1},
		{UInt16, 3, 2},
		{Int16, 4, 2},
		{UInt32, 5, 4},
		{Int32, 6, 4},
		{UInt64, 7, 8},
		{Int64, 8, 8},
		{Float32, 9, 4},
		{Float64, 10, 8},
		{Complex64, 11, 8},
		{Complex128, 12, 16},
		{Float16, 13, 2},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.code, uint32(tc.dt), tc.dt.String())
		assert.Equal(t, tc.size, tc.dt.Size(), tc.dt.String())
		assert.True(t, tc.dt.Valid(), tc.dt.String())
	}

	assert.Equal(t, uint32(0), uint32(Uninitialized))
	assert.Equal(t, 0, Uninitialized.Size())
	assert.False(t, Uninitialized.Valid())
	assert.Equal(t, 0, DataType(99).Size())
}

func TestParseDataType(t *testing.T) {
	for _, dt := range allDataTypes {
		got, err := ParseDataType(dt.String())
		require.NoError(t, err)
		assert.Equal(t, dt, got)
	}

	_, err := ParseDataType("float33")
	assert.ErrorIs(t, err, ErrInvalidDataType)

	// The sentinel is not an element type and must not parse.
	_, err = ParseDataType("uninitialized")
	assert.ErrorIs(t, err, ErrInvalidDataType)
}

func TestDataTypeOf(t *testing.T) {
	assert.Equal(t, UInt8, dataTypeOf[uint8]())
	assert.Equal(t, Int8, dataTypeOf[int8]())
	assert.Equal(t, UInt16, dataTypeOf[uint16]())
	assert.Equal(t, Int16, dataTypeOf[int16]())
	assert.Equal(t, UInt32, dataTypeOf[uint32]())
	assert.Equal(t, Int32, dataTypeOf[int32]())
	assert.Equal(t, UInt64, dataTypeOf[uint64]())
	assert.Equal(t, Int64, dataTypeOf[int64]())
	assert.Equal(t, Float32, dataTypeOf[float32]())
	assert.Equal(t, Float64, dataTypeOf[float64]())
	assert.Equal(t, Complex64, dataTypeOf[complex64]())
	assert.Equal(t, Complex128, dataTypeOf[complex128]())
	assert.Equal(t, Float16, dataTypeOf[Half]())
}
