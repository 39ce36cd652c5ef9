package metadata

import (
	"github.com/btraceio/jafar-sub003/internal/bytesource"
	"github.com/btraceio/jafar-sub003/internal/wire"
)

// Parse reads one metadata event body from src and returns the chunk's
// string table and type lookup (§3, §4.2). src must already be positioned
// just past the event's common {size, typeId} header fields; Parse itself
// consumes the metadata event's own startTime/duration/metadataID fields,
// the string table, and the element tree.
//
// The metadata event's own timing fields are part of the generic event
// envelope and carry no information this package acts on; they are
// consumed here purely to advance src to the string table that follows
// them.
func Parse(src *bytesource.Source, fastVarint bool) (*StringTable, *Lookup, error) {
	if _, err := wire.ReadVarint(src, fastVarint); err != nil { // startTime
		return nil, nil, err
	}
	if _, err := wire.ReadVarint(src, fastVarint); err != nil { // duration
		return nil, nil, err
	}
	if _, err := wire.ReadVarint(src, fastVarint); err != nil { // metadataID
		return nil, nil, err
	}

	table, err := parseStringTable(src, fastVarint)
	if err != nil {
		return nil, nil, err
	}

	root, err := parseElement(src, table, fastVarint)
	if err != nil {
		return nil, nil, err
	}

	lookup := build(root)
	lookup.strings = table
	return table, lookup, nil
}

// parseStringTable reads the metadata event's string table: a varint count
// followed by that many UTF-8 strings. These entries are never
// table-reference encoded themselves (the table they would reference is
// the one being built), so the string decoder runs with a nil StringTable.
func parseStringTable(src *bytesource.Source, fastVarint bool) (*StringTable, error) {
	count, err := wire.ReadVarint(src, fastVarint)
	if err != nil {
		return nil, err
	}

	values := make([]string, count)
	scratch := &wire.Scratch{}
	for i := range values {
		s, _, err := wire.ReadString(src, nil, scratch, fastVarint)
		if err != nil {
			return nil, err
		}
		values[i] = s
	}

	return &StringTable{values: values}, nil
}
