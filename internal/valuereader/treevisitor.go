package valuereader

const (
	frameComplex = iota
	frameArray
)

type frame struct {
	kind   int
	name   string
	fields map[string]any
	values []any
}

// TreeVisitor is the Visitor that materialises an untyped Go value as it
// walks: primitives become their Go scalar equivalent, complex values
// become map[string]any, arrays become []any, and constant-pool-backed
// fields become CPRef. It is the shared "eager" building block both
// deserializer specialisations use for every nested complex value; the
// Eager/Lazy distinction in §4.5 only changes how the *root* value is
// assembled from these building blocks.
type TreeVisitor struct {
	stack []*frame
	root  any
}

// NewTreeVisitor returns a visitor ready to walk one value.
func NewTreeVisitor() *TreeVisitor {
	return &TreeVisitor{}
}

// Result returns the materialised value after the walk completes.
func (v *TreeVisitor) Result() any {
	return v.root
}

func (v *TreeVisitor) emit(name string, value any) {
	if len(v.stack) == 0 {
		v.root = value
		return
	}
	f := v.stack[len(v.stack)-1]
	if f.kind == frameArray {
		f.values = append(f.values, value)
		return
	}
	f.fields[name] = value
}

func (v *TreeVisitor) OnByte(name string, val int8)      { v.emit(name, val) }
func (v *TreeVisitor) OnBool(name string, val bool)      { v.emit(name, val) }
func (v *TreeVisitor) OnChar(name string, val uint16)    { v.emit(name, val) }
func (v *TreeVisitor) OnShort(name string, val int16)    { v.emit(name, val) }
func (v *TreeVisitor) OnInt(name string, val int32)      { v.emit(name, val) }
func (v *TreeVisitor) OnLong(name string, val int64)     { v.emit(name, val) }
func (v *TreeVisitor) OnFloat(name string, val float32)  { v.emit(name, val) }
func (v *TreeVisitor) OnDouble(name string, val float64) { v.emit(name, val) }
func (v *TreeVisitor) OnString(name string, val string)  { v.emit(name, val) }

func (v *TreeVisitor) OnConstantPoolIndex(name string, classID, id uint64) {
	v.emit(name, CPRef{ClassID: classID, ID: id})
}

func (v *TreeVisitor) OnArrayStart(name string, n int) {
	v.stack = append(v.stack, &frame{kind: frameArray, name: name, values: make([]any, 0, n)})
}

func (v *TreeVisitor) OnArrayEnd(string) {
	f := v.stack[len(v.stack)-1]
	v.stack = v.stack[:len(v.stack)-1]
	v.emit(f.name, f.values)
}

func (v *TreeVisitor) OnComplexStart(name, _ string) {
	v.stack = append(v.stack, &frame{kind: frameComplex, name: name, fields: make(map[string]any)})
}

func (v *TreeVisitor) OnComplexEnd(string) {
	f := v.stack[len(v.stack)-1]
	v.stack = v.stack[:len(v.stack)-1]
	v.emit(f.name, f.fields)
}

var _ Visitor = (*TreeVisitor)(nil)
