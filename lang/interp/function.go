package interp

import (
	"fmt"

	"github.com/vellum-lang/vellum/lang/ast"
	"github.com/vellum-lang/vellum/lang/machine"
)

// Function is the classic evaluator's closure: an AST function body paired
// with the environment active where it was declared. Calling it runs the
// body directly against a fresh child environment, rather than dispatching
// through compiled bytecode.
type Function struct {
	name    string
	sig     *ast.FuncSignature
	body    *ast.Block
	closure *Environment
	it      *Interp
	owner   *Class // non-nil for a method or constructor
}

var (
	_ machine.Value    = (*Function)(nil)
	_ machine.Callable = (*Function)(nil)
)

func (fn *Function) String() string { return fmt.Sprintf("function(%p %s)", fn, fn.Name()) }
func (fn *Function) Type() string   { return "function" }
func (fn *Function) Name() string {
	if fn.name == "" {
		return "anonymous"
	}
	return fn.name
}

// Bind returns a copy of fn whose closure additionally defines "this" as
// recv, used when a method is looked up off an instance.
func (fn *Function) Bind(recv *Instance) *Function {
	env := NewEnvironment(fn.closure)
	env.Define("this", recv)
	if fn.owner != nil {
		env.Define("__class__", fn.owner)
	}
	bound := *fn
	bound.closure = env
	return &bound
}

func (fn *Function) CallInternal(_ *machine.Thread, args *machine.Tuple) (machine.Value, error) {
	if args.Len() != len(fn.sig.Params) {
		return nil, fmt.Errorf("%s takes %d argument(s), got %d", fn.Name(), len(fn.sig.Params), args.Len())
	}

	env := NewEnvironment(fn.closure)
	for i, p := range fn.sig.Params {
		env.Define(p.Name, args.Index(i))
	}

	ret, err := fn.it.execBlock(fn.body, env)
	if err != nil {
		return nil, err
	}
	if ret != nil {
		return ret.value, nil
	}
	return machine.Nil, nil
}
