package metadata

import (
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint is a stable hash of a chunk's type system, independent of
// class id assignment and element ordering: two chunks that declare the
// same classes and fields hash identically even if the writer assigned
// different ids or emitted them in a different order. Annotations and
// settings are not hashed. It lets the deserializer cache share built
// deserializers across chunks and recordings whose writers happen to agree
// on shape, not just identity.
type Fingerprint uint64

// Fingerprint computes l's Fingerprint by hashing the sorted tuple of
// (class name, supertype name, sorted field tuples) across every class.
// Sorting at both levels makes the result independent of declaration order;
// hashing names instead of ids makes it independent of id assignment.
func (l *Lookup) Fingerprint() Fingerprint {
	classes := l.Classes()
	rows := make([]string, len(classes))
	for i, c := range classes {
		rows[i] = l.classRow(c)
	}
	sort.Strings(rows)

	var b strings.Builder
	for _, r := range rows {
		b.WriteString(r)
		b.WriteByte('\n')
	}

	return Fingerprint(xxhash.Sum64String(b.String()))
}

func (l *Lookup) classRow(c *Class) string {
	fields := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		fields[i] = l.fieldTuple(f)
	}
	sort.Strings(fields)

	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteByte('|')
	b.WriteString(c.SuperType)
	b.WriteByte('|')
	b.WriteString(strings.Join(fields, ","))
	return b.String()
}

// fieldTuple names the field's type by its resolved class name rather than
// its chunk-local id: ids are writer-assigned per chunk and carry no
// meaning across chunks, so hashing them would defeat cross-chunk sharing.
func (l *Lookup) fieldTuple(f Field) string {
	typeName := "?"
	if c, err := l.GetClassByID(f.TypeRef); err == nil {
		typeName = c.Name
	}

	var b strings.Builder
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
	return b.String()
}
