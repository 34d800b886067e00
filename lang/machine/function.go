package machine

import (
	"fmt"

	"github.com/vellum-lang/vellum/lang/compiler"
	"github.com/vellum-lang/vellum/lang/heap"
)

// Function is a closure: a compiled function body paired with the cells it
// captured from its enclosing scopes at the point the CLOSURE instruction
// ran. The initialization behavior of a chunk is also represented by a
// (top-level) Function, with no upvalues.
//
// Owner is non-nil for a method or constructor: it names the class the
// method was declared on, so a `base.method` call inside it knows where to
// start walking the super chain (the class that lexically owns the
// currently executing method, not the receiver's dynamic class).
type Function struct {
	id heap.ID

	Funcode  *compiler.Funcode
	Module   *Module
	Upvalues []*cell
	Owner    *Class
}

var (
	_ Value       = (*Function)(nil)
	_ Callable    = (*Function)(nil)
	_ heap.Object = (*Function)(nil)
)

func (fn *Function) HeapID() heap.ID { return fn.id }
func (fn *Function) Kind() string    { return "function" }
func (fn *Function) References() []heap.ID {
	refs := make([]heap.ID, 0, len(fn.Upvalues))
	for _, uv := range fn.Upvalues {
		refs = append(refs, uv.id)
	}
	if fn.Owner != nil {
		refs = append(refs, fn.Owner.id)
	}
	return refs
}

// Module is the dynamic counterpart to a compiler.Program, the unit of
// compilation: every function produced from the same program shares a
// module, mainly so constants need not be duplicated per closure.
type Module struct {
	Program   *compiler.Program
	Constants []Value
}

func (fn *Function) String() string { return fmt.Sprintf("function(%p %s)", fn, fn.Name()) }
func (fn *Function) Type() string   { return "function" }
func (fn *Function) CallInternal(th *Thread, args *Tuple) (Value, error) {
	return run(th, fn, args)
}
func (fn *Function) Name() string {
	nm := fn.Funcode.Name
	if nm == "" {
		nm = "unknown"
	}
	return nm
}
