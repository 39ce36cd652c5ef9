package metadata

import "errors"

// ErrUnknownClassID is returned when a class id referenced from a field,
// constant pool, or event header has no corresponding <class> element in
// this chunk's metadata (§4.2 edge case: "a type reference to an id with
// no class definition is a Malformed error, not a panic").
var ErrUnknownClassID = errors.New("metadata: unknown class id")

// DeserializerBinder builds and attaches a cached deserializer to a class,
// keyed off its shape. It is implemented by internal/deserializer; Lookup
// depends only on this narrow interface so metadata never imports
// deserializer (which itself depends on metadata's Class/Field types).
type DeserializerBinder interface {
	Bind(c *Class, lookup *Lookup) error
}

// Lookup is the type system for one chunk, built once from its metadata
// event and consulted by every later pass over that chunk's data: constant
// pool decoding, the type skipper, the generic value reader, and event
// dispatch all resolve class ids through it (§4.2).
type Lookup struct {
	byID    map[uint64]*Class
	byName  map[string]*Class
	strings *StringTable
}

// NewLookup builds a Lookup directly from a class list, bypassing element
// tree parsing. Used by tests and by callers that already have a decoded
// type system (e.g. one shared across chunks via a cache keyed on
// Fingerprint).
func NewLookup(classes []*Class) *Lookup {
	l := &Lookup{
		byID:   make(map[uint64]*Class, len(classes)),
		byName: make(map[string]*Class, len(classes)),
	}
	for _, c := range classes {
		l.byID[c.ID] = c
		l.byName[c.Name] = c
	}
	return l
}

// GetClassByID returns the class registered under id, or ErrUnknownClassID.
func (l *Lookup) GetClassByID(id uint64) (*Class, error) {
	c, ok := l.byID[id]
	if !ok {
		return nil, ErrUnknownClassID
	}
	return c, nil
}

// GetClassByName returns the class with the given fully-qualified name, or
// ErrUnknownClassID. Event dispatch uses this to find well-known classes
// (e.g. "jdk.jfr.metadata.EventType") by name rather than id, since ids are
// only stable within one chunk.
func (l *Lookup) GetClassByName(name string) (*Class, error) {
	c, ok := l.byName[name]
	if !ok {
		return nil, ErrUnknownClassID
	}
	return c, nil
}

// Classes returns every class known to this chunk, in no particular order.
// Used by fingerprint computation.
func (l *Lookup) Classes() []*Class {
	classes := make([]*Class, 0, len(l.byID))
	for _, c := range l.byID {
		classes = append(classes, c)
	}
	return classes
}

// GetString resolves an index into this chunk's metadata string table.
func (l *Lookup) GetString(index uint64) (string, error) {
	return l.strings.Get(index)
}

// BindDeserializers asks binder to attach a deserializer to every class in
// this lookup. Binding is separated from parsing so the metadata package
// never needs to know about the deserializer cache's LRU, locking, or
// fingerprint-sharing concerns (§4.6/§4.8): it only needs to ask "give me a
// deserializer for this shape" once per class, for every class.
func (l *Lookup) BindDeserializers(binder DeserializerBinder) error {
	for _, c := range l.byID {
		if err := binder.Bind(c, l); err != nil {
			return err
		}
	}
	return nil
}
