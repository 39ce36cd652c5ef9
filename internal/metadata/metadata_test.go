package metadata

import (
	"testing"

	"github.com/btraceio/jafar-sub003/internal/bytesource"
	"github.com/btraceio/jafar-sub003/internal/wire"
)

// builder assembles a fake metadata event body for tests: a string table
// followed by an element tree, using the same wire encodings Parse expects.
type builder struct {
	buf     []byte
	strings []string
}

func (b *builder) intern(s string) uint64 {
	for i, v := range b.strings {
		if v == s {
			return uint64(i)
		}
	}
	b.strings = append(b.strings, s)
	return uint64(len(b.strings) - 1)
}

// element appends one element (by already-interned name index) with the
// given attribute key/value name pairs and child byte blobs, returning the
// encoded bytes so callers can nest them.
func (b *builder) element(nameIdx uint64, attrs [][2]uint64, children [][]byte) []byte {
	var out []byte
	out = wire.EncodeVarint(out, nameIdx)
	out = wire.EncodeVarint(out, uint64(len(attrs)))
	for _, kv := range attrs {
		out = wire.EncodeVarint(out, kv[0])
		out = wire.EncodeVarint(out, kv[1])
	}
	out = wire.EncodeVarint(out, uint64(len(children)))
	for _, c := range children {
		out = append(out, c...)
	}
	return out
}

func (b *builder) finish(root []byte) []byte {
	var out []byte
	out = wire.EncodeVarint(out, 111) // startTime
	out = wire.EncodeVarint(out, 0)   // duration
	out = wire.EncodeVarint(out, 1)   // metadataID

	out = wire.EncodeVarint(out, uint64(len(b.strings)))
	for _, s := range b.strings {
		out = append(out, wire.StringUTF8)
		out = wire.EncodeVarint(out, uint64(len(s)))
		out = append(out, s...)
	}

	return append(out, root...)
}

func attr(key, val uint64) [2]uint64 { return [2]uint64{key, val} }

func TestParseSimpleClassTree(t *testing.T) {
	b := &builder{}
	root := b.intern("root")
	metaTag := b.intern("metadata")
	classTag := b.intern("class")
	fieldTag := b.intern("field")
	idKey := b.intern("id")
	nameKey := b.intern("name")
	classKey := b.intern("class")
	dimKey := b.intern("dimension")
	intName := b.intern("int")
	myClassName := b.intern("com.example.MyEvent")
	countFieldName := b.intern("count")
	id1 := b.intern("1") // attribute values are always string-table indices,
	id2 := b.intern("2") // so numeric ids/dimensions need their own decimal literal
	dim0 := b.intern("0")

	intClass := b.element(classTag, [][2]uint64{attr(idKey, id1), attr(nameKey, intName)}, nil)
	field := b.element(fieldTag, [][2]uint64{attr(nameKey, countFieldName), attr(classKey, id1), attr(dimKey, dim0)}, nil)
	myClass := b.element(classTag, [][2]uint64{attr(idKey, id2), attr(nameKey, myClassName)}, [][]byte{field})
	metadata := b.element(metaTag, nil, [][]byte{intClass, myClass})
	rootElem := b.element(root, nil, [][]byte{metadata})

	body := b.finish(rootElem)
	src := bytesource.FromBytes(body)

	_, lookup, err := Parse(src, true)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	c, err := lookup.GetClassByName("com.example.MyEvent")
	if err != nil {
		t.Fatalf("GetClassByName: %v", err)
	}
	if len(c.Fields) != 1 || c.Fields[0].Name != "count" {
		t.Fatalf("unexpected fields: %+v", c.Fields)
	}
	if !c.IsSimpleType {
		t.Fatalf("expected IsSimpleType for single-field class")
	}

	intC, err := lookup.GetClassByID(1)
	if err != nil {
		t.Fatalf("GetClassByID(int): %v", err)
	}
	if !intC.IsPrimitive {
		t.Fatalf("expected int class to be primitive")
	}
}

func TestGetClassByIDUnknown(t *testing.T) {
	l := &Lookup{byID: map[uint64]*Class{}, byName: map[string]*Class{}}
	if _, err := l.GetClassByID(42); err != ErrUnknownClassID {
		t.Fatalf("got %v, want ErrUnknownClassID", err)
	}
}

func TestFingerprintStableAcrossIDReassignment(t *testing.T) {
	build := func(aID, bID uint64) *Lookup {
		l := &Lookup{byID: map[uint64]*Class{}, byName: map[string]*Class{}}
		a := &Class{ID: aID, Name: "a.Type", Fields: []Field{{Name: "x", TypeRef: bID, Dimension: 0}}}
		b := &Class{ID: bID, Name: "b.Type"}
		l.byID[aID] = a
		l.byID[bID] = b
		l.byName["a.Type"] = a
		l.byName["b.Type"] = b
		return l
	}

	l1 := build(1, 2)
	l2 := build(99, 5)

	if l1.Fingerprint() != l2.Fingerprint() {
		t.Fatalf("fingerprint should be stable across id reassignment")
	}
}

func TestFingerprintDiffersOnShapeChange(t *testing.T) {
	l1 := &Lookup{byID: map[uint64]*Class{1: {ID: 1, Name: "a.Type"}}, byName: map[string]*Class{}}
	l2 := &Lookup{byID: map[uint64]*Class{1: {ID: 1, Name: "a.Type", SuperType: "b.Base"}}, byName: map[string]*Class{}}

	if l1.Fingerprint() == l2.Fingerprint() {
		t.Fatalf("fingerprint should differ when supertype changes")
	}
}

func TestStringTableOutOfRange(t *testing.T) {
	st := &StringTable{values: []string{"a", "b"}}
	if _, err := st.Get(5); err != ErrStringIndexOutOfRange {
		t.Fatalf("got %v, want ErrStringIndexOutOfRange", err)
	}
}
