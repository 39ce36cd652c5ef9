// Package metadata parses a chunk's metadata event into a MetadataLookup:
// the dynamically-defined type system that every other package (constant
// pools, the type skipper, the generic value reader, event dispatch)
// decodes values against.
package metadata

// Class mirrors a JFR MetadataClass (§3): a type declaration with an id,
// a name, an optional super type, and its fields/annotations/settings.
//
// A class is "simple" iff it has exactly one field; simple wrappers (e.g.
// jdk.types.Percentage wrapping a single float) are transparently unwrapped
// when walking values or building skippers (§4.4).
type Class struct {
	ID           uint64
	Name         string
	SuperType    string
	IsPrimitive  bool
	IsSimpleType bool
	Fields       []Field
	Annotations  []Annotation
	Settings     []Setting
}

// Field mirrors a JFR MetadataField (§3).
type Field struct {
	Name            string
	TypeRef         uint64 // class id of the field's declared type
	Dimension       int    // 0 (scalar) or 1 (array)
	HasConstantPool bool
	Annotations     []Annotation
}

// IsArray reports whether the field is declared as an array (dimension 1).
func (f Field) IsArray() bool {
	return f.Dimension > 0
}

// Annotation is a (type, key/value attributes) pair attached to a class or
// field. JFR uses annotations for things like units and labels; the core
// does not interpret their meaning (§1: "We do not interpret individual
// JFR event semantics"), it only carries them for consumers that do.
type Annotation struct {
	ClassRef   uint64
	Attributes map[string]string
	Value      string // present for single-value annotations (e.g. @Label("x"))
}

// Setting describes a `<setting>` element nested under a class (event
// settings such as "enabled", "threshold", "stackTrace").
type Setting struct {
	Name        string
	TypeRef     uint64
	Value       string
	Annotations []Annotation
}
