package compiler

// Position is a resolved source position, used by the compiler's position
// table and by runtime backtraces.
type Position struct {
	Filename string
	Line     int
	Col      int
}

func (p Position) String() string { return p.Filename }

// Binding is the compiled form of a resolver.Binding: just enough to name
// and locate a local or free variable at runtime, without retaining the
// resolver's own bookkeeping (types, overload sets, scope-tree pointers).
type Binding struct {
	Name string
	Pos  Position
}

// ClassDef is the compiled shape of one class declaration: its name and the
// field names (in declaration order) that size every Instance created from
// it. The CLASS instruction references one of these by index rather than
// rebuilding the field list from the constant pool.
type ClassDef struct {
	Name       string
	FieldSlots []string
}

// Program is the compiled form of one chunk: its top-level function, every
// nested function reachable from it, the constant pool and the set of
// global/property/class names it references by index.
type Program struct {
	Filename  string
	Toplevel  *Funcode
	Functions []*Funcode
	Classes   []*ClassDef
	Constants []interface{}
	Names     []string
}
