package machine

import (
	"fmt"

	"github.com/vellum-lang/vellum/lang/heap"
)

// Class is the runtime counterpart of a class declaration: its fields are
// indexed by slot rather than name (the resolver assigns slot numbers; see
// lang/types.Class for the name-keyed static view used during resolution),
// and its methods are closures indexed by name. Super is the superclass a
// `base.method` call walks to, independent of a given instance's dynamic
// class.
type Class struct {
	id heap.ID

	Name       string
	Super      *Class
	FieldSlots []string // slot index -> field name, for diagnostics
	Methods    map[string]*Function
}

var (
	_ Value       = (*Class)(nil)
	_ heap.Object = (*Class)(nil)
)

func (c *Class) String() string  { return fmt.Sprintf("class %s", c.Name) }
func (c *Class) Type() string    { return "class" }
func (c *Class) HeapID() heap.ID { return c.id }
func (c *Class) Kind() string    { return "class" }
func (c *Class) References() []heap.ID {
	refs := make([]heap.ID, 0, len(c.Methods)+1)
	if c.Super != nil {
		refs = append(refs, c.Super.id)
	}
	for _, m := range c.Methods {
		refs = append(refs, m.id)
	}
	return refs
}

// Lookup finds a method by name, walking the super chain.
func (c *Class) Lookup(name string) (*Function, bool) {
	for cl := c; cl != nil; cl = cl.Super {
		if fn, ok := cl.Methods[name]; ok {
			return fn, true
		}
	}
	return nil, false
}

// Instance is a runtime object created from a Class: a flat slice of field
// values addressed by slot index.
type Instance struct {
	id heap.ID

	Class  *Class
	Fields []Value
}

var (
	_ Value       = (*Instance)(nil)
	_ HasAttrs    = (*Instance)(nil)
	_ HasSetField = (*Instance)(nil)
	_ heap.Object = (*Instance)(nil)
)

func (in *Instance) String() string  { return fmt.Sprintf("%s(%p)", in.Class.Name, in) }
func (in *Instance) Type() string    { return in.Class.Name }
func (in *Instance) HeapID() heap.ID { return in.id }
func (in *Instance) Kind() string    { return "instance" }
func (in *Instance) References() []heap.ID {
	refs := make([]heap.ID, 0, len(in.Fields)+1)
	refs = append(refs, in.Class.id)
	for _, f := range in.Fields {
		if ho, ok := f.(heapObject); ok {
			refs = append(refs, ho.HeapID())
		}
	}
	return refs
}

func (in *Instance) Get(slot int) Value { return in.Fields[slot] }
func (in *Instance) Set(slot int, v Value) {
	in.Fields[slot] = v
}

// Attr implements HasAttrs: field reads and bound-method access both go
// through the dot operator, so a plain `obj.name` and a subsequent call
// `obj.name()` compile identically regardless of which one `name` is.
func (in *Instance) Attr(name string) (Value, error) {
	for i, fname := range in.Class.FieldSlots {
		if fname == name {
			return in.Fields[i], nil
		}
	}
	if m, ok := in.Class.Lookup(name); ok {
		return &BoundMethod{Receiver: in, Method: m}, nil
	}
	return nil, nil
}

func (in *Instance) AttrNames() []string {
	names := append([]string(nil), in.Class.FieldSlots...)
	for cl := in.Class; cl != nil; cl = cl.Super {
		for name := range cl.Methods {
			names = append(names, name)
		}
	}
	return names
}

func (in *Instance) SetField(name string, v Value) error {
	for i, fname := range in.Class.FieldSlots {
		if fname == name {
			in.Fields[i] = v
			return nil
		}
	}
	return NoSuchAttrError(fmt.Sprintf("%s has no field %q", in.Class.Name, name))
}

// BoundMethod couples a receiver instance with one of its class's methods, so
// that `instance.method` yields a value that can be called without the
// receiver being passed explicitly by the caller.
type BoundMethod struct {
	id heap.ID

	Receiver *Instance
	Method   *Function
}

var (
	_ Value       = (*BoundMethod)(nil)
	_ Callable    = (*BoundMethod)(nil)
	_ heap.Object = (*BoundMethod)(nil)
)

func (bm *BoundMethod) HeapID() heap.ID { return bm.id }
func (bm *BoundMethod) Kind() string    { return "bound_method" }
func (bm *BoundMethod) References() []heap.ID {
	return []heap.ID{bm.Receiver.id, bm.Method.id}
}

func (bm *BoundMethod) String() string { return fmt.Sprintf("bound method %s", bm.Method.Name()) }
func (bm *BoundMethod) Type() string   { return "bound_method" }
func (bm *BoundMethod) Name() string   { return bm.Method.Name() }

func (bm *BoundMethod) CallInternal(th *Thread, args *Tuple) (Value, error) {
	withSelf := make([]Value, 0, args.Len()+1)
	withSelf = append(withSelf, bm.Receiver)
	for i := 0; i < args.Len(); i++ {
		withSelf = append(withSelf, args.Index(i))
	}
	return bm.Method.CallInternal(th, NewTuple(withSelf))
}
