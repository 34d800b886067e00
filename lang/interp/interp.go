package interp

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/vellum-lang/vellum/lang/ast"
	"github.com/vellum-lang/vellum/lang/machine"
	"github.com/vellum-lang/vellum/lang/token"
)

// Interp runs a single chunk by walking its AST directly, re-evaluating
// each node every time control reaches it. It shares lang/machine's value
// kinds and the Compare/Binary/Unary/GetIndex/GetAttr primitives with the
// bytecode VM, so the two evaluators agree on every operator and container
// operation; what differs is purely how a function call and a variable
// lookup are implemented.
type Interp struct {
	Stdout io.Writer
	Stderr io.Writer

	globals *Environment
	ctx     context.Context
}

// control is what a statement hands back up to the block/loop that ran it,
// to implement return/break/continue without unwinding through panics: nil
// means "ran to completion, keep going".
type ctrlKind int

const (
	ctrlNone ctrlKind = iota
	ctrlReturn
	ctrlBreak
	ctrlContinue
)

type control struct {
	kind  ctrlKind
	value machine.Value
}

// New creates an Interp with an empty global scope seeded from predeclared,
// typically machine.NativeFunctions().
func New(predeclared map[string]machine.Value) *Interp {
	it := &Interp{globals: NewEnvironment(nil), Stdout: os.Stdout, Stderr: os.Stderr}
	for name, v := range predeclared {
		it.globals.Define(name, v)
	}
	return it
}

// Run executes chunk's top-level block against the interpreter's global
// environment, returning the first runtime error encountered.
func (it *Interp) Run(ctx context.Context, chunk *ast.Chunk) error {
	it.ctx = ctx
	ctrl, err := it.execBlock(chunk.Block, it.globals)
	if err != nil {
		return err
	}
	if ctrl != nil && ctrl.kind == ctrlReturn {
		return fmt.Errorf("return used outside a function")
	}
	return nil
}

func (it *Interp) execBlock(b *ast.Block, env *Environment) (*control, error) {
	for _, s := range b.Stmts {
		if err := it.checkCancel(); err != nil {
			return nil, err
		}
		ctrl, err := it.exec(s, env)
		if err != nil {
			return nil, err
		}
		if ctrl != nil {
			return ctrl, nil
		}
	}
	return nil, nil
}

func (it *Interp) checkCancel() error {
	if it.ctx == nil {
		return nil
	}
	select {
	case <-it.ctx.Done():
		return it.ctx.Err()
	default:
		return nil
	}
}

func (it *Interp) exec(s ast.Stmt, env *Environment) (*control, error) {
	switch s := s.(type) {
	case *ast.VarStmt:
		var v machine.Value = machine.Nil
		if s.Init != nil {
			var err error
			v, err = it.eval(s.Init, env)
			if err != nil {
				return nil, err
			}
		}
		env.Define(s.Name, v)
		return nil, nil

	case *ast.FuncStmt:
		env.Define(s.Name, &Function{name: s.Name, sig: s.Sig, body: s.Body, closure: env, it: it})
		return nil, nil

	case *ast.ClassStmt:
		return nil, it.classStmt(s, env)

	case *ast.IfStmt:
		cond, err := it.eval(s.Cond, env)
		if err != nil {
			return nil, err
		}
		if machine.Truth(cond) {
			return it.execBlock(s.Then, NewEnvironment(env))
		}
		switch els := s.Else.(type) {
		case nil:
			return nil, nil
		case *ast.Block:
			return it.execBlock(els, NewEnvironment(env))
		default:
			return it.exec(els, env)
		}

	case *ast.WhileStmt:
		for {
			if err := it.checkCancel(); err != nil {
				return nil, err
			}
			cond, err := it.eval(s.Cond, env)
			if err != nil {
				return nil, err
			}
			if !machine.Truth(cond) {
				return nil, nil
			}
			ctrl, err := it.execBlock(s.Body, NewEnvironment(env))
			if err != nil {
				return nil, err
			}
			if ctrl != nil {
				switch ctrl.kind {
				case ctrlBreak:
					return nil, nil
				case ctrlReturn:
					return ctrl, nil
				}
			}
		}

	case *ast.ForStmt:
		loopEnv := NewEnvironment(env)
		if s.Init != nil {
			if _, err := it.exec(s.Init, loopEnv); err != nil {
				return nil, err
			}
		}
		for {
			if err := it.checkCancel(); err != nil {
				return nil, err
			}
			if s.Cond != nil {
				cond, err := it.eval(s.Cond, loopEnv)
				if err != nil {
					return nil, err
				}
				if !machine.Truth(cond) {
					return nil, nil
				}
			}
			ctrl, err := it.execBlock(s.Body, NewEnvironment(loopEnv))
			if err != nil {
				return nil, err
			}
			if ctrl != nil {
				if ctrl.kind == ctrlBreak {
					return nil, nil
				}
				if ctrl.kind == ctrlReturn {
					return ctrl, nil
				}
			}
			if s.Post != nil {
				if _, err := it.eval(s.Post, loopEnv); err != nil {
					return nil, err
				}
			}
		}

	case *ast.ForInStmt:
		src, err := it.eval(s.In, env)
		if err != nil {
			return nil, err
		}
		iter, err := machine.Iterate(src)
		if err != nil {
			return nil, err
		}
		defer iter.Done()
		var elem machine.Value
		for iter.Next(&elem) {
			if err := it.checkCancel(); err != nil {
				return nil, err
			}
			loopEnv := NewEnvironment(env)
			loopEnv.Define(s.Name, elem)
			ctrl, err := it.execBlock(s.Body, loopEnv)
			if err != nil {
				return nil, err
			}
			if ctrl != nil {
				if ctrl.kind == ctrlBreak {
					return nil, nil
				}
				if ctrl.kind == ctrlReturn {
					return ctrl, nil
				}
			}
		}
		return nil, nil

	case *ast.ReturnStmt:
		v := machine.Value(machine.Nil)
		if s.Value != nil {
			var err error
			v, err = it.eval(s.Value, env)
			if err != nil {
				return nil, err
			}
		}
		return &control{kind: ctrlReturn, value: v}, nil

	case *ast.PrintStmt:
		v, err := it.eval(s.Value, env)
		if err != nil {
			return nil, err
		}
		fmt.Fprintln(it.Stdout, v.String())
		return nil, nil

	case *ast.ExprStmt:
		_, err := it.eval(s.X, env)
		return nil, err

	case *ast.BreakStmt:
		return &control{kind: ctrlBreak}, nil

	case *ast.ContinueStmt:
		return &control{kind: ctrlContinue}, nil

	default:
		return nil, fmt.Errorf("interp: unhandled statement %T", s)
	}
}

func (it *Interp) classStmt(s *ast.ClassStmt, env *Environment) error {
	var super *Class
	if s.Base != "" {
		v, ok := env.Get(s.Base)
		if !ok {
			return fmt.Errorf("undefined base class %q", s.Base)
		}
		super, ok = v.(*Class)
		if !ok {
			return fmt.Errorf("%s is not a class", s.Base)
		}
	}

	cls := &Class{Name: s.Name, Super: super, Methods: map[string]*Function{}}
	for _, f := range s.Body.Fields {
		cls.Fields = append(cls.Fields, f.Name)
	}
	env.Define(s.Name, cls)

	classEnv := NewEnvironment(env)
	for _, m := range s.Body.Methods {
		cls.Methods[m.Name] = &Function{name: m.Name, sig: m.Sig, body: m.Body, closure: classEnv, it: it, owner: cls}
	}
	for _, op := range s.Body.Operators {
		cls.Methods["operator"+op.Op.String()] = &Function{
			name: "operator" + op.Op.String(), sig: op.Sig, body: op.Body, closure: classEnv, it: it, owner: cls,
		}
	}
	if s.Body.Constructor != nil {
		c := s.Body.Constructor
		cls.Methods["constructor"] = &Function{name: "constructor", sig: c.Sig, body: c.Body, closure: classEnv, it: it, owner: cls}
	}

	fieldInits := make(map[string]ast.Expr, len(s.Body.Fields))
	for _, f := range s.Body.Fields {
		if f.Init != nil {
			fieldInits[f.Name] = f.Init
		}
	}
	cls.fieldInits = fieldInits
	cls.fieldEnv = classEnv
	return nil
}

func (it *Interp) eval(e ast.Expr, env *Environment) (machine.Value, error) {
	switch e := e.(type) {
	case *ast.LiteralExpr:
		return literalValue(e), nil

	case *ast.IdentExpr:
		v, ok := env.Get(e.Name)
		if !ok {
			return nil, fmt.Errorf("undefined name %q", e.Name)
		}
		return v, nil

	case *ast.ThisExpr:
		v, ok := env.Get("this")
		if !ok {
			return nil, fmt.Errorf("this used outside a method")
		}
		return v, nil

	case *ast.BaseExpr:
		thisv, ok := env.Get("this")
		if !ok {
			return nil, fmt.Errorf("base used outside a method")
		}
		this := thisv.(*Instance)
		cls, ok := env.Get("__class__")
		if !ok || cls.(*Class).Super == nil {
			return nil, fmt.Errorf("base used outside a method with a superclass")
		}
		m, ok := cls.(*Class).Super.Lookup(e.Member)
		if !ok {
			return nil, fmt.Errorf("%s has no method %q", cls.(*Class).Super.Name, e.Member)
		}
		return m.Bind(this), nil

	case *ast.ParenExpr:
		return it.eval(e.Expr, env)

	case *ast.ListExpr:
		elems := make([]machine.Value, len(e.Elems))
		for i, x := range e.Elems {
			v, err := it.eval(x, env)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return machine.NewList(elems), nil

	case *ast.MapExpr:
		m := machine.NewMap(len(e.Elems))
		for _, kv := range e.Elems {
			k, err := it.eval(kv.Key, env)
			if err != nil {
				return nil, err
			}
			v, err := it.eval(kv.Value, env)
			if err != nil {
				return nil, err
			}
			if err := m.SetKey(k, v); err != nil {
				return nil, err
			}
		}
		return m, nil

	case *ast.IndexExpr:
		x, err := it.eval(e.Prefix, env)
		if err != nil {
			return nil, err
		}
		if e.Colon != token.NoPos {
			var lo, hi machine.Value = machine.Nil, machine.Nil
			if e.Low != nil {
				if lo, err = it.eval(e.Low, env); err != nil {
					return nil, err
				}
			}
			if e.High != nil {
				if hi, err = it.eval(e.High, env); err != nil {
					return nil, err
				}
			}
			return machine.GetRange(x, lo, hi)
		}
		i, err := it.eval(e.Low, env)
		if err != nil {
			return nil, err
		}
		return machine.GetIndex(x, i)

	case *ast.CallExpr:
		return it.callExpr(e, env)

	case *ast.DotExpr:
		x, err := it.eval(e.Left, env)
		if err != nil {
			return nil, err
		}
		return machine.GetAttr(x, e.Member)

	case *ast.UnaryExpr:
		if e.Op.IsIncDec() {
			return it.incDec(e.X, env, e.Op == token.PLUSPLUS, true)
		}
		x, err := it.eval(e.X, env)
		if err != nil {
			return nil, err
		}
		return machine.Unary(e.Op, x)

	case *ast.PostfixExpr:
		return it.incDec(e.X, env, e.Op == token.PLUSPLUS, false)

	case *ast.BinaryExpr:
		return it.binaryExpr(e, env)

	case *ast.TernaryExpr:
		cond, err := it.eval(e.Cond, env)
		if err != nil {
			return nil, err
		}
		if machine.Truth(cond) {
			return it.eval(e.Then, env)
		}
		return it.eval(e.Else, env)

	case *ast.CommaExpr:
		var v machine.Value
		for _, x := range e.Exprs {
			var err error
			v, err = it.eval(x, env)
			if err != nil {
				return nil, err
			}
		}
		return v, nil

	case *ast.AssignExpr:
		return it.assignExpr(e, env)

	case *ast.FuncExpr:
		return &Function{sig: e.Sig, body: e.Body, closure: env, it: it}, nil

	default:
		return nil, fmt.Errorf("interp: unhandled expression %T", e)
	}
}

func literalValue(e *ast.LiteralExpr) machine.Value {
	switch v := e.Value.(type) {
	case int64:
		return machine.Int(v)
	case float64:
		return machine.Float(v)
	case string:
		return machine.String(v)
	case bool:
		return machine.Bool(v)
	default:
		return machine.Nil
	}
}

// binaryExpr evaluates a binary operator, giving an Instance operand with a
// matching "operator<op>" method (see OperatorDecl in classStmt) first
// refusal before falling back to machine.Binary/Compare's built-in rules.
func (it *Interp) binaryExpr(e *ast.BinaryExpr, env *Environment) (machine.Value, error) {
	if e.Op == token.AND || e.Op == token.OR {
		l, err := it.eval(e.Left, env)
		if err != nil {
			return nil, err
		}
		truthy := machine.Truth(l)
		if e.Op == token.AND && !truthy {
			return l, nil
		}
		if e.Op == token.OR && truthy {
			return l, nil
		}
		return it.eval(e.Right, env)
	}

	l, err := it.eval(e.Left, env)
	if err != nil {
		return nil, err
	}
	r, err := it.eval(e.Right, env)
	if err != nil {
		return nil, err
	}

	if in, ok := l.(*Instance); ok {
		if m, ok := in.Class.Lookup("operator" + e.Op.String()); ok {
			return m.Bind(in).CallInternal(nil, machine.NewTuple([]machine.Value{r}))
		}
	}

	switch e.Op {
	case token.EQEQ, token.BANGEQ, token.LT, token.LE, token.GT, token.GE:
		ok, err := machine.Compare(e.Op, l, r)
		return machine.Bool(ok), err
	default:
		return machine.Binary(e.Op, l, r)
	}
}

func (it *Interp) incDec(target ast.Expr, env *Environment, inc, prefix bool) (machine.Value, error) {
	old, err := it.eval(target, env)
	if err != nil {
		return nil, err
	}
	delta := machine.Value(machine.Int(1))
	if !inc {
		delta = machine.Int(-1)
	}
	nv, err := machine.Binary(token.PLUS, old, delta)
	if err != nil {
		return nil, err
	}
	if err := it.store(target, env, nv); err != nil {
		return nil, err
	}
	if prefix {
		return nv, nil
	}
	return old, nil
}

func (it *Interp) assignExpr(e *ast.AssignExpr, env *Environment) (machine.Value, error) {
	v, err := it.eval(e.Value, env)
	if err != nil {
		return nil, err
	}
	if e.Op != token.EQ {
		old, err := it.eval(e.Target, env)
		if err != nil {
			return nil, err
		}
		v, err = machine.Binary(e.Op, old, v)
		if err != nil {
			return nil, err
		}
	}
	if err := it.store(e.Target, env, v); err != nil {
		return nil, err
	}
	return v, nil
}

// store assigns v to an assignable expression (identifier, field selector
// or index), mirroring ast.IsAssignable's accepted shapes.
func (it *Interp) store(target ast.Expr, env *Environment, v machine.Value) error {
	switch t := target.(type) {
	case *ast.IdentExpr:
		if !env.Assign(t.Name, v) {
			return fmt.Errorf("undefined name %q", t.Name)
		}
		return nil
	case *ast.DotExpr:
		x, err := it.eval(t.Left, env)
		if err != nil {
			return err
		}
		return machine.SetField(x, t.Member, v)
	case *ast.IndexExpr:
		x, err := it.eval(t.Prefix, env)
		if err != nil {
			return err
		}
		i, err := it.eval(t.Low, env)
		if err != nil {
			return err
		}
		return machine.SetIndex(x, i, v)
	case *ast.ParenExpr:
		return it.store(t.Expr, env, v)
	default:
		return fmt.Errorf("interp: %T is not assignable", target)
	}
}

func (it *Interp) callExpr(e *ast.CallExpr, env *Environment) (machine.Value, error) {
	args := make([]machine.Value, len(e.Args))
	for i, a := range e.Args {
		v, err := it.eval(a, env)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	if dot, ok := e.Fun.(*ast.DotExpr); ok {
		recv, err := it.eval(dot.Left, env)
		if err != nil {
			return nil, err
		}
		callee, err := machine.GetAttr(recv, dot.Member)
		if err != nil {
			return nil, err
		}
		return it.invoke(callee, args)
	}
	if base, ok := e.Fun.(*ast.BaseExpr); ok {
		callee, err := it.eval(base, env)
		if err != nil {
			return nil, err
		}
		return it.invoke(callee, args)
	}

	if id, ok := e.Fun.(*ast.IdentExpr); ok {
		if v, ok := env.Get(id.Name); ok {
			if cls, ok := v.(*Class); ok {
				return it.construct(cls, args)
			}
		}
	}

	callee, err := it.eval(e.Fun, env)
	if err != nil {
		return nil, err
	}
	if cls, ok := callee.(*Class); ok {
		return it.construct(cls, args)
	}
	return it.invoke(callee, args)
}

func (it *Interp) invoke(callee machine.Value, args []machine.Value) (machine.Value, error) {
	c, ok := callee.(machine.Callable)
	if !ok {
		return nil, fmt.Errorf("invalid call of non-function (%s)", callee.Type())
	}
	return c.CallInternal(nil, machine.NewTuple(args))
}

// construct allocates a fresh Instance, runs field initializers (evaluated
// against a scope where "this" and the class's own members are visible)
// and then the constructor, if any.
func (it *Interp) construct(cls *Class, args []machine.Value) (machine.Value, error) {
	in := newInstance(cls)

	for cl := cls; cl != nil; cl = cl.Super {
		env := NewEnvironment(cl.fieldEnv)
		env.Define("this", in)
		env.Define("__class__", cl)
		for name, init := range cl.fieldInits {
			v, err := it.eval(init, env)
			if err != nil {
				return nil, err
			}
			in.Fields[name] = v
		}
	}

	if ctor, ok := cls.Lookup("constructor"); ok {
		if _, err := ctor.Bind(in).CallInternal(nil, machine.NewTuple(args)); err != nil {
			return nil, err
		}
	} else if len(args) != 0 {
		return nil, fmt.Errorf("%s takes 0 argument(s), got %d", cls.Name, len(args))
	}
	return in, nil
}
