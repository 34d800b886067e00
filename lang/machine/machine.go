// Package machine implements the virtual machine that executes the
// bytecode-compiled form of the source code. It also provides the runtime
// representation of the various builtin values.
package machine

import (
	"context"
	"fmt"

	"github.com/vellum-lang/vellum/lang/compiler"
	"github.com/vellum-lang/vellum/lang/token"
)

// iteratorValue boxes an Iterator so the peek-not-pop ITER_INIT/ITER_NEXT
// protocol can keep it on the operand stack like any other value; no
// vellum-level operation ever observes one directly.
type iteratorValue struct {
	it Iterator
}

func (*iteratorValue) String() string { return "iterator" }
func (*iteratorValue) Type() string   { return "iterator" }

// run executes fn's compiled body with the given positional arguments. It is
// the sole caller of the bytecode interpreter loop; a nested vellum call
// (CALL/INVOKE/SUPER_INVOKE) re-enters run through Call, so Go's own call
// stack mirrors vellum's, and the only per-call state this function must
// keep alive for the collector (fn, ip, slotBase) lives in the Frame that
// Call already pushed.
func run(th *Thread, fn *Function, args *Tuple) (Value, error) {
	fcode := fn.Funcode

	if th.DisableRecursion {
		for _, fr := range th.frames[:len(th.frames)-1] {
			if ffn, ok := fr.callable.(*Function); ok && ffn.Funcode == fcode {
				return nil, fmt.Errorf("function %s called recursively", fn.Name())
			}
		}
	}

	nargs := 0
	if args != nil {
		nargs = args.Len()
	}
	if nargs != fcode.NumParams {
		return nil, fmt.Errorf("%s takes %d argument(s), got %d", fn.Name(), fcode.NumParams, nargs)
	}

	fr := th.frames[len(th.frames)-1]
	slotBase := len(th.stack)
	fr.slotBase = slotBase

	for i := 0; i < nargs; i++ {
		th.stack = append(th.stack, args.Index(i))
	}

	defer func() {
		th.stack = th.stack[:slotBase]
	}()

	code := fcode.Code
	ip := 0

	local := func(i int) Value { return th.stack[slotBase+i] }
	setLocal := func(i int, v Value) { th.stack[slotBase+i] = v }
	push := func(v Value) { th.stack = append(th.stack, v) }
	pop := func() Value {
		n := len(th.stack) - 1
		v := th.stack[n]
		th.stack = th.stack[:n]
		return v
	}
	peek := func() Value { return th.stack[len(th.stack)-1] }
	readU8 := func() int {
		v := int(code[ip])
		ip++
		return v
	}
	readU16 := func() int {
		v := int(code[ip])<<8 | int(code[ip+1])
		ip += 2
		return v
	}

	this := func() *Instance {
		return local(0).(*Instance)
	}

	for {
		th.steps++
		if th.steps >= th.maxSteps || th.cancelled.Load() {
			th.ctxCancel()
			return nil, th.evalError(fmt.Errorf("thread cancelled: %s", context.Cause(th.ctx)))
		}
		fr.ip = ip

		word := compiler.Opcode(uint32(code[ip])<<24 | uint32(code[ip+1])<<16 | uint32(code[ip+2])<<8 | uint32(code[ip+3]))
		ip += 4
		op := word.Main()
		sec := word.Secondary()

		switch op {
		case compiler.NOP:

		case compiler.CONSTANT:
			push(fn.Module.Constants[readU16()])
		case compiler.CONSTANT_NIL:
			push(Nil)
		case compiler.CONSTANT_TRUE:
			push(True)
		case compiler.CONSTANT_FALSE:
			push(False)

		case compiler.POP:
			pop()
		case compiler.POP_N:
			n := readU8()
			th.stack = th.stack[:len(th.stack)-n]
		case compiler.DUP:
			push(peek())

		case compiler.GET_LOCAL:
			push(local(readU16()))
		case compiler.SET_LOCAL:
			setLocal(readU16(), peek())
		case compiler.GET_LOCAL_CELL:
			push(local(readU16()).(*cell).v)
		case compiler.SET_LOCAL_CELL:
			local(readU16()).(*cell).v = peek()
		case compiler.GET_UPVALUE:
			push(fn.Upvalues[readU16()].v)
		case compiler.SET_UPVALUE:
			fn.Upvalues[readU16()].v = peek()

		case compiler.GET_GLOBAL:
			name := fcode.Prog.Names[readU16()]
			v, ok := th.globals[name]
			if !ok {
				return nil, th.evalError(fmt.Errorf("undefined name %q", name))
			}
			push(v)
		case compiler.SET_GLOBAL:
			name := fcode.Prog.Names[readU16()]
			if _, ok := th.globals[name]; !ok {
				return nil, th.evalError(fmt.Errorf("undefined name %q", name))
			}
			th.globals[name] = peek()
		case compiler.DEFINE_GLOBAL:
			name := fcode.Prog.Names[readU16()]
			th.globals[name] = pop()
		case compiler.GET_PREDECLARED:
			name := fcode.Prog.Names[readU16()]
			if v, ok := th.Predeclared[name]; ok {
				push(v)
			} else if v, ok := Universe[name]; ok {
				push(v)
			} else {
				return nil, th.evalError(fmt.Errorf("undefined name %q", name))
			}

		case compiler.GET_PROPERTY:
			name := fcode.Prog.Names[readU16()]
			x := pop()
			v, err := getAttr(x, name)
			if err != nil {
				return nil, th.evalError(err)
			}
			push(v)
		case compiler.SET_PROPERTY:
			name := fcode.Prog.Names[readU16()]
			x := pop()
			v := peek()
			if err := setField(x, name, v); err != nil {
				return nil, th.evalError(err)
			}
		case compiler.GET_SUPER:
			name := fcode.Prog.Names[readU16()]
			m, err := resolveSuper(fn, name)
			if err != nil {
				return nil, th.evalError(err)
			}
			push(&BoundMethod{Receiver: this(), Method: m})
		case compiler.MAKE_CELL:
			push(th.newCell(pop()))

		case compiler.EQUAL:
			y, x := pop(), pop()
			eq, err := Compare(token.EQEQ, x, y)
			if err != nil {
				return nil, th.evalError(err)
			}
			push(Bool(eq))
		case compiler.GREATER, compiler.LESS, compiler.GREATER_EQUAL, compiler.LESS_EQUAL:
			y, x := pop(), pop()
			r, err := Compare(compareToken(op), x, y)
			if err != nil {
				return nil, th.evalError(err)
			}
			push(Bool(r))

		case compiler.ADD, compiler.SUBTRACT, compiler.MULTIPLY, compiler.DIVIDE, compiler.POW, compiler.MOD:
			y, x := pop(), pop()
			v, err := Binary(arithToken(op), x, y)
			if err != nil {
				return nil, th.evalError(err)
			}
			push(v)

		case compiler.INC, compiler.DEC:
			delta := Value(Int(1))
			if op == compiler.DEC {
				delta = Int(-1)
			}
			if err := execIncDec(th, fn, sec, delta, readU16, local, setLocal, push); err != nil {
				return nil, th.evalError(err)
			}

		case compiler.NOT:
			push(Bool(!Truth(pop())))
		case compiler.NEGATE:
			v, err := Unary(token.MINUS, pop())
			if err != nil {
				return nil, th.evalError(err)
			}
			push(v)
		case compiler.PRINT:
			fmt.Fprintln(th.stdout, pop().String())

		case compiler.JUMP:
			ip += readU16()
		case compiler.JUMP_IF_FALSE:
			off := readU16()
			if !Truth(peek()) {
				ip += off
			}
		case compiler.LOOP:
			ip -= readU16()

		case compiler.CALL:
			argc := readU8()
			callArgs := popArgs(&th.stack, argc)
			callee := pop()
			v, err := Call(th, callee, NewTuple(callArgs))
			if err != nil {
				return nil, err
			}
			push(v)
		case compiler.INVOKE:
			name := fcode.Prog.Names[readU16()]
			argc := readU8()
			callArgs := popArgs(&th.stack, argc)
			receiver := pop()
			callee, err := getAttr(receiver, name)
			if err != nil {
				return nil, th.evalError(err)
			}
			v, err := Call(th, callee, NewTuple(callArgs))
			if err != nil {
				return nil, err
			}
			push(v)
		case compiler.SUPER_INVOKE:
			name := fcode.Prog.Names[readU16()]
			argc := readU8()
			callArgs := popArgs(&th.stack, argc)
			m, err := resolveSuper(fn, name)
			if err != nil {
				return nil, th.evalError(err)
			}
			v, err := Call(th, &BoundMethod{Receiver: this(), Method: m}, NewTuple(callArgs))
			if err != nil {
				return nil, err
			}
			push(v)

		case compiler.CLOSURE:
			funIdx := readU16()
			target := fcode.Prog.Functions[funIdx]
			nup := readU16()
			ups := make([]*cell, nup)
			for i := 0; i < nup; i++ {
				fromLocal := readU8() == 1
				idx := readU16()
				if fromLocal {
					ups[i] = local(idx).(*cell)
				} else {
					ups[i] = fn.Upvalues[idx]
				}
			}
			var owner *Class
			if target.Owner != "" {
				// A method's closure is created while its class is still on top
				// of the stack, before DEFINE_GLOBAL binds the class's name.
				if c, ok := peek().(*Class); ok && c.Name == target.Owner {
					owner = c
				} else if v, ok := th.globals[target.Owner]; ok {
					owner, _ = v.(*Class)
				}
			}
			closure := &Function{Funcode: target, Module: fn.Module, Upvalues: ups, Owner: owner}
			th.newFunction(closure)
			push(closure)
		case compiler.CLOSE_UPVALUE:
			pop()
		case compiler.RETURN:
			return pop(), nil

		case compiler.CLASS:
			def := fcode.Prog.Classes[readU16()]
			push(th.newClass(def.Name, nil, def.FieldSlots))
		case compiler.INHERIT:
			base := pop()
			bc, ok := base.(*Class)
			if !ok {
				return nil, th.evalError(fmt.Errorf("base must be a class, got %s", base.Type()))
			}
			cls := peek().(*Class)
			cls.Super = bc
			cls.FieldSlots = append(append([]string{}, bc.FieldSlots...), cls.FieldSlots...)
		case compiler.METHOD:
			name := fcode.Prog.Names[readU16()]
			m := pop().(*Function)
			peek().(*Class).Methods[name] = m
		case compiler.INSTANCE:
			name := fcode.Prog.Names[readU16()]
			v, ok := th.globals[name]
			if !ok {
				return nil, th.evalError(fmt.Errorf("undefined class %q", name))
			}
			cls, ok := v.(*Class)
			if !ok {
				return nil, th.evalError(fmt.Errorf("%s is not a class", name))
			}
			push(th.newInstance(cls))

		case compiler.MAKE_LIST:
			n := readU16()
			elems := make([]Value, n)
			for i := n - 1; i >= 0; i-- {
				elems[i] = pop()
			}
			push(NewList(elems))
		case compiler.MAP_INIT:
			n := readU16()
			type pair struct{ k, v Value }
			pairs := make([]pair, n)
			for i := n - 1; i >= 0; i-- {
				pairs[i] = pair{k: th.stack[len(th.stack)-2], v: th.stack[len(th.stack)-1]}
				th.stack = th.stack[:len(th.stack)-2]
			}
			m := NewMap(n)
			for _, p := range pairs {
				if err := m.SetKey(p.k, p.v); err != nil {
					return nil, th.evalError(err)
				}
			}
			push(m)
		case compiler.CONTAINER_GET:
			i, x := pop(), pop()
			v, err := getIndex(x, i)
			if err != nil {
				return nil, th.evalError(err)
			}
			push(v)
		case compiler.CONTAINER_SET:
			v, i, x := pop(), pop(), pop()
			if err := setIndex(x, i, v); err != nil {
				return nil, th.evalError(err)
			}
			push(v)
		case compiler.CONTAINER_GET_RANGE:
			hi, lo, x := pop(), pop(), pop()
			v, err := getRange(x, lo, hi)
			if err != nil {
				return nil, th.evalError(err)
			}
			push(v)
		case compiler.ITER_INIT:
			it, err := Iterate(pop())
			if err != nil {
				return nil, th.evalError(err)
			}
			push(&iteratorValue{it: it})
		case compiler.ITER_NEXT:
			off := readU16()
			iv := peek().(*iteratorValue)
			var v Value
			if iv.it.Next(&v) {
				push(v)
			} else {
				iv.it.Done()
				ip += off
			}

		default:
			return nil, th.evalError(fmt.Errorf("unimplemented opcode %s", op))
		}
	}
}

// popArgs pops the top n values off *stack in left-to-right call order.
func popArgs(stack *[]Value, n int) []Value {
	s := *stack
	args := make([]Value, n)
	copy(args, s[len(s)-n:])
	*stack = s[:len(s)-n]
	return args
}

// resolveSuper looks up name starting at fn's owner's superclass: the class
// the method currently executing was lexically declared on, not the
// receiver's dynamic class, so an override further down the chain doesn't
// shadow what base.method means here.
func resolveSuper(fn *Function, name string) (*Function, error) {
	if fn.Owner == nil || fn.Owner.Super == nil {
		return nil, fmt.Errorf("base used outside a method with a superclass")
	}
	m, ok := fn.Owner.Super.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%s has no method %q", fn.Owner.Super.Name, name)
	}
	return m, nil
}

func compareToken(op compiler.MainOp) token.Token {
	switch op {
	case compiler.GREATER:
		return token.GT
	case compiler.LESS:
		return token.LT
	case compiler.GREATER_EQUAL:
		return token.GE
	default:
		return token.LE
	}
}

func arithToken(op compiler.MainOp) token.Token {
	switch op {
	case compiler.ADD:
		return token.PLUS
	case compiler.SUBTRACT:
		return token.MINUS
	case compiler.MULTIPLY:
		return token.STAR
	case compiler.DIVIDE:
		return token.SLASH
	case compiler.POW:
		return token.STARSTAR
	default:
		return token.PERCENT
	}
}

// execIncDec implements the INC/DEC opcodes: read the operand the secondary
// bits select, apply delta, store the result back, and push whichever of
// old/new value the prefix/postfix bit calls for.
func execIncDec(
	th *Thread, fn *Function, sec uint16, delta Value,
	readU16 func() int, local func(int) Value, setLocal func(int, Value), push func(Value),
) error {
	var old Value
	var store func(Value)

	switch {
	case sec&compiler.SecOpLocal != 0:
		idx := readU16()
		old = local(idx)
		store = func(v Value) { setLocal(idx, v) }
	case sec&compiler.SecOpGlobal != 0:
		name := fn.Funcode.Prog.Names[readU16()]
		v, ok := th.globals[name]
		if !ok {
			return fmt.Errorf("undefined name %q", name)
		}
		old = v
		store = func(v Value) { th.globals[name] = v }
	case sec&compiler.SecOpUpvalue != 0:
		idx := readU16()
		c := fn.Upvalues[idx]
		old = c.v
		store = func(v Value) { c.v = v }
	default:
		return fmt.Errorf("inc/dec: no operand kind set")
	}

	nv, err := Binary(token.PLUS, old, delta)
	if err != nil {
		return err
	}
	store(nv)

	if sec&compiler.SecOpPrefix != 0 {
		push(nv)
	} else {
		push(old)
	}
	return nil
}
