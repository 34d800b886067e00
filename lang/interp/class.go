package interp

import (
	"fmt"

	"github.com/vellum-lang/vellum/lang/ast"
	"github.com/vellum-lang/vellum/lang/machine"
)

// Class is the classic evaluator's runtime counterpart of a class
// declaration: unlike lang/machine.Class (whose fields are slot-indexed so
// the VM can address them by a compile-time constant), fields here are
// just names an Instance's map is keyed by, since nothing here is compiled
// ahead of time.
type Class struct {
	Name    string
	Super   *Class
	Fields  []string // declaration order, for a freshly constructed Instance
	Methods map[string]*Function

	// fieldInits holds each field's initializer expression, by name, run
	// against fieldEnv (plus a per-construction "this"/"__class__") every
	// time an Instance of this class is built.
	fieldInits map[string]ast.Expr
	fieldEnv   *Environment
}

var (
	_ machine.Value = (*Class)(nil)
)

func (c *Class) String() string { return fmt.Sprintf("class %s", c.Name) }
func (c *Class) Type() string   { return "class" }

// Lookup finds a method by name, walking the super chain.
func (c *Class) Lookup(name string) (*Function, bool) {
	for cl := c; cl != nil; cl = cl.Super {
		if fn, ok := cl.Methods[name]; ok {
			return fn, true
		}
	}
	return nil, false
}

// Instance is a runtime object created from a Class.
type Instance struct {
	Class  *Class
	Fields map[string]machine.Value
}

var (
	_ machine.Value       = (*Instance)(nil)
	_ machine.HasAttrs    = (*Instance)(nil)
	_ machine.HasSetField = (*Instance)(nil)
)

func newInstance(c *Class) *Instance {
	in := &Instance{Class: c, Fields: map[string]machine.Value{}}
	for cl := c; cl != nil; cl = cl.Super {
		for _, f := range cl.Fields {
			if _, ok := in.Fields[f]; !ok {
				in.Fields[f] = machine.Nil
			}
		}
	}
	return in
}

func (in *Instance) String() string { return fmt.Sprintf("%s(%p)", in.Class.Name, in) }
func (in *Instance) Type() string   { return in.Class.Name }

func (in *Instance) Attr(name string) (machine.Value, error) {
	if v, ok := in.Fields[name]; ok {
		return v, nil
	}
	if m, ok := in.Class.Lookup(name); ok {
		return m.Bind(in), nil
	}
	return nil, nil
}

func (in *Instance) AttrNames() []string {
	names := make([]string, 0, len(in.Fields))
	for name := range in.Fields {
		names = append(names, name)
	}
	for cl := in.Class; cl != nil; cl = cl.Super {
		for name := range cl.Methods {
			names = append(names, name)
		}
	}
	return names
}

func (in *Instance) SetField(name string, v machine.Value) error {
	if _, ok := in.Fields[name]; !ok {
		return machine.NoSuchAttrError(fmt.Sprintf("%s has no field %q", in.Class.Name, name))
	}
	in.Fields[name] = v
	return nil
}
