package valuereader

import (
	"github.com/btraceio/jafar-sub003/internal/bytesource"
	"github.com/btraceio/jafar-sub003/internal/metadata"
	"github.com/btraceio/jafar-sub003/internal/wire"
)

// eagerMaxFields and eagerMaxNestedComplex are the untyped-decode
// specialisation thresholds from §4.5: "events with <=10 fields and at
// most 2 nested complex fields produce a HashMap directly"; anything past
// either threshold gets the lazy, list-of-pairs treatment instead.
const (
	eagerMaxFields        = 10
	eagerMaxNestedComplex = 2
)

// UntypedDeserializer decodes one root event value into its untyped Go
// representation: map[string]any for the eager strategy, *LazyValue for
// the lazy one.
type UntypedDeserializer interface {
	Deserialize(src *bytesource.Source, lookup *metadata.Lookup, table wire.StringTable, scratch *wire.Scratch, fastVarint bool) (any, error)
}

// ChooseUntypedDeserializer picks the eager or lazy specialisation for cls
// based on its shape, mirroring the code-generation-time choice described
// in §4.5.
func ChooseUntypedDeserializer(cls *metadata.Class, lookup *metadata.Lookup) UntypedDeserializer {
	if len(cls.Fields) <= eagerMaxFields && nestedComplexCount(cls, lookup) <= eagerMaxNestedComplex {
		return &eagerDeserializer{class: cls}
	}
	return &lazyDeserializer{class: cls}
}

func nestedComplexCount(cls *metadata.Class, lookup *metadata.Lookup) int {
	count := 0
	for _, f := range cls.Fields {
		if f.HasConstantPool {
			continue
		}
		target, err := lookup.GetClassByID(f.TypeRef)
		if err != nil {
			continue
		}
		if !target.IsPrimitive && !target.IsSimpleType {
			count++
		}
	}
	return count
}

type eagerDeserializer struct {
	class *metadata.Class
}

func (d *eagerDeserializer) Deserialize(src *bytesource.Source, lookup *metadata.Lookup, table wire.StringTable, scratch *wire.Scratch, fastVarint bool) (any, error) {
	tv := NewTreeVisitor()
	if err := WalkValue(src, d.class, lookup, table, scratch, d.class.Name, tv, fastVarint); err != nil {
		return nil, err
	}
	result, _ := tv.Result().(map[string]any)
	return result, nil
}

type lazyDeserializer struct {
	class *metadata.Class
}

func (d *lazyDeserializer) Deserialize(src *bytesource.Source, lookup *metadata.Lookup, table wire.StringTable, scratch *wire.Scratch, fastVarint bool) (any, error) {
	pairs := make([]pair, 0, len(d.class.Fields))
	for _, f := range d.class.Fields {
		tv := NewTreeVisitor()
		if err := walkField(src, f, f.Name, lookup, table, scratch, tv, fastVarint); err != nil {
			return nil, err
		}
		pairs = append(pairs, pair{name: f.Name, value: tv.Result()})
	}
	return newLazyValue(pairs), nil
}

var (
	_ UntypedDeserializer = (*eagerDeserializer)(nil)
	_ UntypedDeserializer = (*lazyDeserializer)(nil)
)
