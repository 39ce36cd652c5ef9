package metadata

import (
	"errors"
)

// ErrStringIndexOutOfRange is returned by StringTable.Get for an index
// beyond the table (§4.2: "bounds-checked; returns error on OOB").
var ErrStringIndexOutOfRange = errors.New("metadata: string table index out of range")

// StringTable is the per-chunk immutable array of strings referenced by
// index from the metadata element tree and from encoded string values of
// id=2 (§3: "never mutated after the metadata element tree ... is fully
// read"). It implements wire.StringTable.
type StringTable struct {
	values []string
}

// Get returns the string at index, or ErrStringIndexOutOfRange.
func (t *StringTable) Get(index uint64) (string, error) {
	if index >= uint64(len(t.values)) {
		return "", ErrStringIndexOutOfRange
	}
	return t.values[index], nil
}

// Len returns the number of entries.
func (t *StringTable) Len() int {
	return len(t.values)
}
