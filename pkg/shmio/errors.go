package shmio

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidName rejects empty names and names that cannot form a
	// segment file name. Raised before any system call is made.
	ErrInvalidName = errors.New("shmio: invalid segment name")

	// ErrNotExist reports that no segment with the given name exists in
	// the namespace.
	ErrNotExist = errors.New("shmio: segment does not exist")

	// ErrInvalidDataType rejects Uninitialized and unknown element type
	// codes.
	ErrInvalidDataType = errors.New("shmio: invalid data type")

	// ErrShapeMismatch reports that an existing segment's shape (keyword
	// count, element count or element type) differs from the caller's.
	ErrShapeMismatch = errors.New("shmio: segment shape mismatch")

	// ErrSchemaMismatch reports that an existing segment's keyword table
	// differs from the caller's in a name, comment or value type. Errors
	// carrying this are *SchemaError values with position detail.
	ErrSchemaMismatch = errors.New("shmio: keyword schema mismatch")

	// ErrBadSegment reports a file that is not a valid segment: too
	// small, wrong magic, unknown format version, or a stored layout
	// that disagrees with the file size.
	ErrBadSegment = errors.New("shmio: not a valid segment")

	// ErrReleased reports a channel whose mapping has been released.
	ErrReleased = errors.New("shmio: channel released")

	// ErrKeywordNotFound reports a keyword name absent from the table.
	ErrKeywordNotFound = errors.New("shmio: keyword not found")

	// ErrKeywordType reports a keyword value write whose kind does not
	// match the kind stored in the table.
	ErrKeywordType = errors.New("shmio: keyword type mismatch")
)

// SchemaError describes the first keyword table position where an attach
// disagreed with the stored table. It matches ErrSchemaMismatch under
// errors.Is.
type SchemaError struct {
	Index int    // position in the keyword table
	Field string // "name", "comment" or "type"
	Want  string // caller's value
	Got   string // stored value
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("shmio: keyword %d %s mismatch: want %q, got %q",
		e.Index, e.Field, e.Want, e.Got)
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchemaMismatch }
