package metadata

import (
	"github.com/btraceio/jafar-sub003/internal/bytesource"
	"github.com/btraceio/jafar-sub003/internal/wire"
)

// element is one node of the raw metadata tree: classes, fields,
// annotations, settings, and region markers all parse into the same shape
// before build() specialises them into Class/Field/Annotation/Setting.
// Attributes are resolved eagerly against the string table (attribute maps
// are small; resolving at parse time keeps build() allocation-free).
type element struct {
	name       string
	attributes map[string]string
	children   []*element
}

func (e *element) attr(key string) string {
	return e.attributes[key]
}

// parseElement implements the recursive-descent reader described in §4.2:
// each element carries an attribute map (key_index -> value_index into the
// string table) plus a child count, and is itself either a Class, Field,
// Annotation, Setting, or Region by virtue of its resolved tag name.
func parseElement(src *bytesource.Source, table *StringTable, fastVarint bool) (*element, error) {
	nameIdx, err := wire.ReadVarint(src, fastVarint)
	if err != nil {
		return nil, err
	}
	name, err := table.Get(nameIdx)
	if err != nil {
		return nil, err
	}

	attrCount, err := wire.ReadVarint(src, fastVarint)
	if err != nil {
		return nil, err
	}
	var attrs map[string]string
	if attrCount > 0 {
		attrs = make(map[string]string, attrCount)
		for i := uint64(0); i < attrCount; i++ {
			keyIdx, err := wire.ReadVarint(src, fastVarint)
			if err != nil {
				return nil, err
			}
			valIdx, err := wire.ReadVarint(src, fastVarint)
			if err != nil {
				return nil, err
			}
			key, err := table.Get(keyIdx)
			if err != nil {
				return nil, err
			}
			val, err := table.Get(valIdx)
			if err != nil {
				return nil, err
			}
			attrs[key] = val
		}
	}

	childCount, err := wire.ReadVarint(src, fastVarint)
	if err != nil {
		return nil, err
	}
	var children []*element
	if childCount > 0 {
		children = make([]*element, childCount)
		for i := range children {
			child, err := parseElement(src, table, fastVarint)
			if err != nil {
				return nil, err
			}
			children[i] = child
		}
	}

	return &element{name: name, attributes: attrs, children: children}, nil
}
