package metadata

import (
	"strconv"
)

// primitiveNames are the JFR built-in scalar type names (§3). A class with
// one of these names carries no fields of its own; field declarations of
// this type are read directly rather than via a nested class lookup.
var primitiveNames = map[string]bool{
	"byte": true, "char": true, "short": true, "int": true, "long": true,
	"float": true, "double": true, "boolean": true, "java.lang.String": true,
}

// build walks the raw element tree rooted at root (the top-level <root>
// element wrapping one <metadata> element) and produces a Lookup. Elements
// whose tag isn't one of class/field/annotation/setting are ignored rather
// than rejected: unknown JFR element kinds (e.g. future "region" markers)
// must not fail parsing (§4.2 edge case: "unknown element names are
// skipped, not rejected").
func build(root *element) *Lookup {
	l := &Lookup{
		byID:   make(map[uint64]*Class),
		byName: make(map[string]*Class),
	}

	var walkClasses func(*element)
	walkClasses = func(e *element) {
		if e.name == "class" {
			c := buildClass(e)
			l.byID[c.ID] = c
			l.byName[c.Name] = c
			return
		}
		for _, child := range e.children {
			walkClasses(child)
		}
	}
	walkClasses(root)

	return l
}

func buildClass(e *element) *Class {
	c := &Class{
		ID:        parseUint(e.attr("id")),
		Name:      e.attr("name"),
		SuperType: e.attr("superType"),
	}
	c.IsPrimitive = primitiveNames[c.Name]

	for _, child := range e.children {
		switch child.name {
		case "field":
			c.Fields = append(c.Fields, buildField(child))
		case "annotation":
			c.Annotations = append(c.Annotations, buildAnnotation(child))
		case "setting":
			c.Settings = append(c.Settings, buildSetting(child))
		}
	}

	c.IsSimpleType = len(c.Fields) == 1
	return c
}

func buildField(e *element) Field {
	f := Field{
		Name:            e.attr("name"),
		TypeRef:         parseUint(e.attr("class")),
		Dimension:       int(parseUint(e.attr("dimension"))),
		HasConstantPool: e.attr("constantPool") == "true",
	}
	for _, child := range e.children {
		if child.name == "annotation" {
			f.Annotations = append(f.Annotations, buildAnnotation(child))
		}
	}
	return f
}

func buildAnnotation(e *element) Annotation {
	a := Annotation{
		ClassRef: parseUint(e.attr("class")),
		Value:    e.attr("value"),
	}
	if len(e.attributes) > 0 {
		a.Attributes = make(map[string]string, len(e.attributes))
		for k, v := range e.attributes {
			if k == "class" || k == "value" {
				continue
			}
			a.Attributes[k] = v
		}
	}
	return a
}

func buildSetting(e *element) Setting {
	s := Setting{
		Name:    e.attr("name"),
		TypeRef: parseUint(e.attr("class")),
		Value:   e.attr("defaultValue"),
	}
	for _, child := range e.children {
		if child.name == "annotation" {
			s.Annotations = append(s.Annotations, buildAnnotation(child))
		}
	}
	return s
}

// parseUint parses a metadata attribute value as an unsigned integer,
// returning 0 for a missing or malformed attribute. Attributes like "id"
// and "class" are always writer-generated decimal strings; a parse failure
// here means a genuinely malformed recording, which downstream lookups
// will surface as a missing class id rather than a parse-time error.
func parseUint(s string) uint64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
