// Package typeskip compiles a MetadataClass into a compact instruction
// program that advances a ByteSource past one encoded value of that class
// without decoding it (§4.4). Skipping is what lets the parser (and the
// constant-pool decoder) pass over values it has no reader for in
// O(field count) time instead of having to fully materialise them.
package typeskip

import "github.com/btraceio/jafar-sub003/internal/metadata"

// Op is one of the fixed 7 skip instructions (§4.4).
type Op int

const (
	OpArray   Op = iota // loop the following BodyLen instructions runtime-count times
	OpByte              // one raw byte
	OpFloat             // 4 raw bytes
	OpDouble            // 8 raw bytes
	OpString            // one wire-encoded string
	OpVarint            // one wire varint (covers char/short/int/long/boolean)
	OpCPEntry           // one varint constant-pool id reference
)

// Instruction is one step of a compiled program. BodyLen is only
// meaningful for OpArray: it is the number of instructions immediately
// following that form the per-element body.
type Instruction struct {
	Op      Op
	BodyLen int
}

// Program is a flattened instruction sequence for one MetadataClass value.
type Program []Instruction

// compileValue compiles the program for a bare value of class cls (not
// behind a field, so field-level concerns like arrays and constant-pool
// indirection don't apply at this level).
func compileValue(cls *metadata.Class, lookup *metadata.Lookup) (Program, error) {
	if cls.IsPrimitive {
		return Program{{Op: primitiveOp(cls.Name)}}, nil
	}

	if cls.IsSimpleType {
		// Simple wrappers (exactly one field, e.g. jdk.types.Percentage)
		// unwrap transparently: skipping the wrapper is skipping its one
		// field (§4.4).
		return compileField(cls.Fields[0], lookup)
	}

	var body Program
	for _, f := range cls.Fields {
		ops, err := compileField(f, lookup)
		if err != nil {
			return nil, err
		}
		body = append(body, ops...)
	}
	return body, nil
}

// compileField compiles the program for one field occurrence, applying
// constant-pool indirection and array wrapping on top of the field's
// underlying value program.
func compileField(f metadata.Field, lookup *metadata.Lookup) (Program, error) {
	var body Program
	if f.HasConstantPool {
		// A constant-pool-backed field is stored as a single id varint
		// regardless of how complex the referenced type is; skipping it
		// never needs to look at the referenced class at all.
		body = Program{{Op: OpCPEntry}}
	} else {
		cls, err := lookup.GetClassByID(f.TypeRef)
		if err != nil {
			return nil, err
		}
		b, err := compileValue(cls, lookup)
		if err != nil {
			return nil, err
		}
		body = b
	}

	if !f.IsArray() {
		return body, nil
	}
	prog := make(Program, 0, 1+len(body))
	prog = append(prog, Instruction{Op: OpArray, BodyLen: len(body)})
	prog = append(prog, body...)
	return prog, nil
}

// primitiveOp maps a primitive class name to its leaf skip instruction.
// java.lang.String counts as primitive (§4.4 edge case: "java.lang.String
// with zero declared fields emits STRING so that CP-stored strings are
// skippable") even though its wire encoding is variable-length, not a
// fixed-width scalar.
func primitiveOp(name string) Op {
	switch name {
	case "byte":
		return OpByte
	case "float":
		return OpFloat
	case "double":
		return OpDouble
	case "java.lang.String":
		return OpString
	default: // char, short, int, long, boolean
		return OpVarint
	}
}
