// Package deserializer builds and caches valuereader.UntypedDeserializer
// instances keyed by class name, supertype and field shape, so the same
// class in a later chunk or an unrelated recording, declaring the same
// fields in the same order, reuses one deserializer instead of building
// its own (§4.6). Classes with different names never share an entry.
package deserializer

import (
	"strconv"
	"strings"

	"github.com/btraceio/jafar-sub003/internal/metadata"
)

// Key identifies a class's decode shape: its name, supertype, and its
// field list as an ordered sequence of (type name, field name, dimension,
// has-constant-pool) tuples. Unlike metadata.Fingerprint (which sorts
// fields so that chunk-level type systems declared in a different element
// order still match), Key preserves field order deliberately: a built
// deserializer walks fields in declaration order, so two classes whose
// fields are a permutation of each other are NOT interchangeable here even
// though they would fingerprint as containing the same set.
type Key string

// NewKey computes cls's Key against lookup, which resolves field type ids
// to names.
func NewKey(cls *metadata.Class, lookup *metadata.Lookup) Key {
	var b strings.Builder
	b.WriteString(cls.Name)
	b.WriteByte('|')
	b.WriteString(cls.SuperType)
	b.WriteByte('|')
	for _, f := range cls.Fields {
		typeName := "?"
		if t, err := lookup.GetClassByID(f.TypeRef); err == nil {
			typeName = t.Name
		}
		b.WriteString(typeName)
		b.WriteByte(':')
		b.WriteString(f.Name)
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(f.Dimension))
		b.WriteByte(':')
		if f.HasConstantPool {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
		b.WriteByte(';')
	}
	return Key(b.String())
}
