package machine

import "github.com/vellum-lang/vellum/lang/heap"

// heapObject is implemented by every runtime value kind that is tracked by
// the thread's heap arena (Class, Instance, BoundMethod, Function, cell).
// Primitives (Int, Float, Bool, String, Nil) and the built-in containers
// (List, Map, Tuple) stay native Go allocations outside the arena: they
// cannot participate in a reference cycle (a vellum value graph can only
// cycle through a captured cell or an instance field), so the collector has
// nothing to gain by tracing them, and keeping them off the arena avoids a
// HeapID field on every value.
type heapObject interface {
	HeapID() heap.ID
}

// allocate registers obj with the thread's heap, assigning it the HeapID
// that its own References method will later report to the collector, and
// triggers a collection first if this allocation would cross the heap's
// threshold.
func (th *Thread) allocate(obj heap.Object, size int, id *heap.ID) {
	*id = th.heap.Allocate(obj, size, th.collect)
}

func (th *Thread) newInstance(class *Class) *Instance {
	in := &Instance{Class: class, Fields: make([]Value, len(class.FieldSlots))}
	th.allocate(in, len(class.FieldSlots)+1, &in.id)
	return in
}

func (th *Thread) newClass(name string, super *Class, fieldSlots []string) *Class {
	c := &Class{Name: name, Super: super, FieldSlots: fieldSlots, Methods: map[string]*Function{}}
	th.allocate(c, 1, &c.id)
	return c
}

func (th *Thread) newFunction(fn *Function) *Function {
	th.allocate(fn, len(fn.Upvalues)+1, &fn.id)
	return fn
}

func (th *Thread) newBoundMethod(recv *Instance, method *Function) *BoundMethod {
	bm := &BoundMethod{Receiver: recv, Method: method}
	th.allocate(bm, 1, &bm.id)
	return bm
}

func (th *Thread) newCell(v Value) *cell {
	c := &cell{v: v}
	th.allocate(c, 1, &c.id)
	return c
}

// collect runs a GC cycle rooted at the thread's live state: every value
// currently on the operand stack (which holds every live local slot, boxed
// cells included, directly at its frame's slotBase offset), every frame's
// own callable (a *Function, for a *Builtin call add is a no-op since
// Builtin is never heap-allocated), and every global binding.
func (th *Thread) collect() {
	var roots []heap.ID
	add := func(v Value) {
		if ho, ok := v.(heapObject); ok {
			if id := ho.HeapID(); id != 0 {
				roots = append(roots, id)
			}
		}
	}
	for _, v := range th.stack {
		add(v)
	}
	for _, fr := range th.frames {
		if fr.callable != nil {
			add(fr.callable)
		}
	}
	for _, v := range th.globals {
		add(v)
	}
	th.heap.Collect(roots...)
}
