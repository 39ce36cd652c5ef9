package valuereader

import (
	"errors"

	"github.com/btraceio/jafar-sub003/internal/bytesource"
	"github.com/btraceio/jafar-sub003/internal/metadata"
	"github.com/btraceio/jafar-sub003/internal/wire"
)

// ErrUnknownPrimitive guards a primitive class whose name isn't one of the
// 8 JFR built-in scalar types; reachable only from a malformed recording
// that marks an unrecognised class as primitive.
var ErrUnknownPrimitive = errors.New("valuereader: unknown primitive type name")

// WalkValue decodes one occurrence of cls, dispatching leaf reads and
// structural callbacks to visitor. name is the field name this value was
// read under (pass cls.Name, or "", for a root-level call). Mirrors
// typeskip's compileValue/compileField recursion shape, except it executes
// against the stream instead of emitting a reusable program.
func WalkValue(src *bytesource.Source, cls *metadata.Class, lookup *metadata.Lookup, table wire.StringTable, scratch *wire.Scratch, name string, visitor Visitor, fastVarint bool) error {
	if cls.IsPrimitive {
		return leaf(src, cls, name, table, scratch, visitor, fastVarint)
	}

	if cls.IsSimpleType {
		// Transparent unwrap: the wrapper's one field is emitted under the
		// outer field's name, with no OnComplexStart/End pair of its own
		// (§4.2: "simple types ... are marked so that ... the generic
		// reader unwrap them when producing values").
		return walkField(src, cls.Fields[0], name, lookup, table, scratch, visitor, fastVarint)
	}

	visitor.OnComplexStart(name, cls.Name)
	for _, f := range cls.Fields {
		if err := walkField(src, f, f.Name, lookup, table, scratch, visitor, fastVarint); err != nil {
			return err
		}
	}
	visitor.OnComplexEnd(name)
	return nil
}

// walkField decodes one field occurrence, handling its array wrapping (if
// any) around a single-element step.
func walkField(src *bytesource.Source, f metadata.Field, name string, lookup *metadata.Lookup, table wire.StringTable, scratch *wire.Scratch, visitor Visitor, fastVarint bool) error {
	if !f.IsArray() {
		return fieldElement(src, f, name, lookup, table, scratch, visitor, fastVarint)
	}

	n, err := wire.ReadVarint(src, fastVarint)
	if err != nil {
		return err
	}
	visitor.OnArrayStart(name, int(n))
	for i := uint64(0); i < n; i++ {
		if err := fieldElement(src, f, name, lookup, table, scratch, visitor, fastVarint); err != nil {
			return err
		}
	}
	visitor.OnArrayEnd(name)
	return nil
}

// fieldElement decodes one scalar occurrence of f's value type: either a
// constant-pool id (if f.HasConstantPool) or a full recursive WalkValue
// over the field's declared class.
func fieldElement(src *bytesource.Source, f metadata.Field, name string, lookup *metadata.Lookup, table wire.StringTable, scratch *wire.Scratch, visitor Visitor, fastVarint bool) error {
	if f.HasConstantPool {
		id, err := wire.ReadVarint(src, fastVarint)
		if err != nil {
			return err
		}
		visitor.OnConstantPoolIndex(name, f.TypeRef, id)
		return nil
	}

	cls, err := lookup.GetClassByID(f.TypeRef)
	if err != nil {
		return err
	}
	return WalkValue(src, cls, lookup, table, scratch, name, visitor, fastVarint)
}

// leaf reads one primitive scalar value and dispatches it to visitor.
func leaf(src *bytesource.Source, cls *metadata.Class, name string, table wire.StringTable, scratch *wire.Scratch, visitor Visitor, fastVarint bool) error {
	switch cls.Name {
	case "byte":
		v, err := src.ReadU8()
		if err != nil {
			return err
		}
		visitor.OnByte(name, int8(v))

	case "boolean":
		v, err := wire.ReadVarint(src, fastVarint)
		if err != nil {
			return err
		}
		visitor.OnBool(name, v != 0)

	case "char":
		v, err := wire.ReadVarint(src, fastVarint)
		if err != nil {
			return err
		}
		visitor.OnChar(name, uint16(v))

	case "short":
		v, err := wire.ReadVarint(src, fastVarint)
		if err != nil {
			return err
		}
		visitor.OnShort(name, int16(v))

	case "int":
		v, err := wire.ReadVarint(src, fastVarint)
		if err != nil {
			return err
		}
		visitor.OnInt(name, int32(v))

	case "long":
		v, err := wire.ReadVarint(src, fastVarint)
		if err != nil {
			return err
		}
		visitor.OnLong(name, int64(v))

	case "float":
		v, err := src.ReadF32()
		if err != nil {
			return err
		}
		visitor.OnFloat(name, v)

	case "double":
		v, err := src.ReadF64()
		if err != nil {
			return err
		}
		visitor.OnDouble(name, v)

	case "java.lang.String":
		v, _, err := wire.ReadString(src, table, scratch, fastVarint)
		if err != nil {
			return err
		}
		visitor.OnString(name, v)

	default:
		return ErrUnknownPrimitive
	}
	return nil
}
