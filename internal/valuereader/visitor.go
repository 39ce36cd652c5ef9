// Package valuereader walks an encoded value against its MetadataClass and
// either emits structured visitor callbacks or materialises an untyped
// map/array representation for consumers that have no generated
// deserializer for the event's class (§4.5).
package valuereader

// CPRef is the untyped representation of a constant-pool-backed field: the
// raw (class id, value id) pair, resolved lazily by a consumer holding the
// chunk's ConstantPools rather than eagerly here (§4.5: "CP-referenced
// fields are stored as the raw id and resolved lazily").
type CPRef struct {
	ClassID uint64
	ID      uint64
}

// Visitor receives one callback per value encountered while walking a
// MetadataClass instance. Every callback's first argument is the field
// name it was read under ("" for the root value itself). Ordering
// guarantee: children appear in field order; arrays emit
// OnArrayStart -> N child callbacks -> OnArrayEnd (§4.5).
type Visitor interface {
	OnByte(name string, v int8)
	OnBool(name string, v bool)
	OnChar(name string, v uint16)
	OnShort(name string, v int16)
	OnInt(name string, v int32)
	OnLong(name string, v int64)
	OnFloat(name string, v float32)
	OnDouble(name string, v float64)
	OnString(name string, v string)
	OnConstantPoolIndex(name string, classID, id uint64)
	OnArrayStart(name string, n int)
	OnArrayEnd(name string)
	OnComplexStart(name, className string)
	OnComplexEnd(name string)
}
