package shmio

import "fmt"

// DataType identifies the element type of a channel buffer. The numeric
// codes are part of the segment format and shared with non-Go peers, so
// they must never be reordered.
type DataType uint32

const (
	// Uninitialized is the zero value. It never appears in a live segment
	// and has size zero.
	Uninitialized DataType = iota
	UInt8
	Int8
	UInt16
	Int16
	UInt32
	Int32
	UInt64
	Int64
	Float32
	Float64
	Complex64
	Complex128
	Float16
)

// Half holds the raw bits of an IEEE 754 half-precision float. The module
// stores and moves these values but does no arithmetic on them.
type Half uint16

// Element enumerates the thirteen Go types a channel buffer can hold.
type Element interface {
	uint8 | int8 | uint16 | int16 | uint32 | int32 |
		uint64 | int64 | Half | float32 | float64 |
		complex64 | complex128
}

// Size returns the width of one element in bytes, or 0 for Uninitialized
// and unknown codes. Callers sizing a segment must reject a zero result.
func (t DataType) Size() int {
	switch t {
	case UInt8, Int8:
		return 1
	case UInt16, Int16, Float16:
		return 2
	case UInt32, Int32, Float32:
		return 4
	case UInt64, Int64, Float64, Complex64:
		return 8
	case Complex128:
		return 16
	}
	return 0
}

// Valid reports whether t is one of the thirteen element types.
func (t DataType) Valid() bool { return t.Size() != 0 }

func (t DataType) String() string {
	switch t {
	case Uninitialized:
		return "uninitialized"
	case UInt8:
		return "uint8"
	case Int8:
		return "int8"
	case UInt16:
		return "uint16"
	case Int16:
		return "int16"
	case UInt32:
		return "uint32"
	case Int32:
		return "int32"
	case UInt64:
		return "uint64"
	case Int64:
		return "int64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Complex64:
		return "complex64"
	case Complex128:
		return "complex128"
	case Float16:
		return "float16"
	}
	return fmt.Sprintf("datatype(%d)", uint32(t))
}

// ParseDataType maps a type name as printed by String back to its code.
func ParseDataType(s string) (DataType, error) {
	for t := UInt8; t <= Float16; t++ {
		if t.String() == s {
			return t, nil
		}
	}
	return Uninitialized, fmt.Errorf("%w: unknown data type %q", ErrInvalidDataType, s)
}

// dataTypeOf returns the code for element type T.
func dataTypeOf[T Element]() DataType {
	var v T
	switch any(v).(type) {
	case uint8:
		return UInt8
	case int8:
		return Int8
	case uint16:
		return UInt16
	case int16:
		return Int16
	case uint32:
		return UInt32
	case int32:
		return Int32
	case uint64:
		return UInt64
	case int64:
		return Int64
	case Half:
		return Float16
	case float32:
		return Float32
	case float64:
		return Float64
	case complex64:
		return Complex64
	case complex128:
		return Complex128
	}
	return Uninitialized
}
