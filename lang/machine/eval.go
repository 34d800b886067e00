package machine

import (
	"fmt"

	"github.com/vellum-lang/vellum/lang/token"
)

// EvalError decorates an error raised while a thread was running a program
// with the call stack active at the point of failure, so a driver can print
// a backtrace without threading frame state through every returned error.
type EvalError struct {
	Msg       string
	Backtrace []string
}

func (e *EvalError) Error() string { return e.Msg }

// evalError wraps err (unless it is already an *EvalError) with the
// thread's current call stack.
func (th *Thread) evalError(err error) *EvalError {
	bt := make([]string, len(th.frames))
	for i, fr := range th.frames {
		bt[len(bt)-1-i] = fr.Name()
	}
	return &EvalError{Msg: err.Error(), Backtrace: bt}
}

type truther interface{ Truth() bool }

// Truth reports whether v is considered true in a boolean context. nil and
// false are the only falsy values unless v defines its own Truth method
// (e.g. 0 and "" are falsy too).
func Truth(v Value) bool {
	if v == Value(Nil) {
		return false
	}
	if t, ok := v.(truther); ok {
		return t.Truth()
	}
	return true
}

// Compare evaluates a comparison operator (==, !=, <, <=, >, >=) between x
// and y. Equality is always defined, even across mismatched types (they are
// simply never equal); ordering requires both operands to share an Ordered
// type.
func Compare(op token.Token, x, y Value) (bool, error) {
	switch op {
	case token.EQEQ, token.BANGEQ:
		eq, err := valuesEqual(x, y)
		if err != nil {
			return false, err
		}
		if op == token.BANGEQ {
			eq = !eq
		}
		return eq, nil
	case token.LT, token.LE, token.GT, token.GE:
		if x.Type() != y.Type() {
			return false, fmt.Errorf("cannot compare %s and %s", x.Type(), y.Type())
		}
		ord, ok := x.(Ordered)
		if !ok {
			return false, fmt.Errorf("%s values are not ordered", x.Type())
		}
		c, err := ord.Cmp(y)
		if err != nil {
			return false, err
		}
		switch op {
		case token.LT:
			return c < 0, nil
		case token.LE:
			return c <= 0, nil
		case token.GT:
			return c > 0, nil
		default:
			return c >= 0, nil
		}
	default:
		return false, fmt.Errorf("not a comparison operator: %s", op)
	}
}

func valuesEqual(x, y Value) (bool, error) {
	if x.Type() != y.Type() {
		return false, nil
	}
	if he, ok := x.(HasEqual); ok {
		return he.Equals(y)
	}
	if ord, ok := x.(Ordered); ok {
		c, err := ord.Cmp(y)
		if err != nil {
			return false, err
		}
		return c == 0, nil
	}
	return x == y, nil
}

// Binary evaluates a binary arithmetic/concatenation operator. Operand
// types that implement HasBinary get first refusal (e.g. a future
// user-extensible numeric type); vellum's own classes never reach this
// path, since the resolver statically dispatches every instance operator
// overload (see resolver.OperatorBinding) straight to a method INVOKE.
func Binary(op token.Token, x, y Value) (Value, error) {
	if hb, ok := x.(HasBinary); ok {
		if v, err := hb.Binary(op, y, Left); v != nil || err != nil {
			return v, err
		}
	}
	if hb, ok := y.(HasBinary); ok {
		if v, err := hb.Binary(op, x, Right); v != nil || err != nil {
			return v, err
		}
	}

	switch xv := x.(type) {
	case Int:
		switch yv := y.(type) {
		case Int:
			return intArith(op, xv, yv)
		case Float:
			return floatArith(op, Float(xv), yv)
		}
	case Float:
		switch yv := y.(type) {
		case Float:
			return floatArith(op, xv, yv)
		case Int:
			return floatArith(op, xv, Float(yv))
		}
	case String:
		if yv, ok := y.(String); ok && op == token.PLUS {
			return xv.Concat(yv), nil
		}
	}
	return nil, fmt.Errorf("unsupported operand types for %s: %s and %s", op, x.Type(), y.Type())
}

func intArith(op token.Token, x, y Int) (Value, error) {
	switch op {
	case token.PLUS:
		return x + y, nil
	case token.MINUS:
		return x - y, nil
	case token.STAR:
		return x * y, nil
	case token.SLASH:
		if y == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		if x%y == 0 {
			return x / y, nil
		}
		return Float(x) / Float(y), nil
	case token.PERCENT:
		if y == 0 {
			return nil, fmt.Errorf("modulo by zero")
		}
		m := x % y
		if (m < 0) != (y < 0) && m != 0 {
			m += y
		}
		return m, nil
	case token.STARSTAR:
		return intPow(x, y), nil
	}
	return nil, fmt.Errorf("unsupported operator for int: %s", op)
}

func intPow(x, y Int) Value {
	if y < 0 {
		return floatPow(Float(x), Float(y))
	}
	var result Int = 1
	for ; y > 0; y-- {
		result *= x
	}
	return result
}

func floatArith(op token.Token, x, y Float) (Value, error) {
	switch op {
	case token.PLUS:
		return x + y, nil
	case token.MINUS:
		return x - y, nil
	case token.STAR:
		return x * y, nil
	case token.SLASH:
		return x / y, nil
	case token.PERCENT:
		return Float(floatMod(float64(x), float64(y))), nil
	case token.STARSTAR:
		return floatPow(x, y), nil
	}
	return nil, fmt.Errorf("unsupported operator for float: %s", op)
}

func floatMod(x, y float64) float64 {
	m := x - y*float64(int64(x/y))
	if (m < 0) != (y < 0) && m != 0 {
		m += y
	}
	return m
}

func floatPow(x, y Float) Value {
	result := 1.0
	base, exp := float64(x), float64(y)
	neg := exp < 0
	if neg {
		exp = -exp
	}
	for i := 0; i < int(exp); i++ {
		result *= base
	}
	if neg {
		result = 1 / result
	}
	return Float(result)
}

// Unary evaluates a unary operator (! or -).
func Unary(op token.Token, x Value) (Value, error) {
	if hu, ok := x.(HasUnary); ok {
		if v, err := hu.Unary(op); v != nil || err != nil {
			return v, err
		}
	}
	switch op {
	case token.BANG:
		return Bool(!Truth(x)), nil
	case token.MINUS:
		switch xv := x.(type) {
		case Int:
			return -xv, nil
		case Float:
			return -xv, nil
		}
	}
	return nil, fmt.Errorf("unsupported operand type for %s: %s", op, x.Type())
}

// normIndex adjusts a negative index (x[-1] means the last element) and
// bounds-checks the result against n, the container's length.
func normIndex(i, n int) (int, error) {
	orig := i
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("index out of range: %d (length %d)", orig, n)
	}
	return i, nil
}

// getIndex evaluates x[i] for any Indexable or Mapping value.
func getIndex(x, i Value) (Value, error) {
	switch xv := x.(type) {
	case Indexable:
		n, ok := i.(Int)
		if !ok {
			return nil, fmt.Errorf("%s index must be an int, not %s", x.Type(), i.Type())
		}
		idx, err := normIndex(int(n), xv.Len())
		if err != nil {
			return nil, err
		}
		return xv.Index(idx), nil
	case Mapping:
		v, found, err := xv.Get(i)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("key not found: %s", i)
		}
		return v, nil
	}
	return nil, fmt.Errorf("%s is not indexable", x.Type())
}

// setIndex evaluates x[i] = v.
func setIndex(x, i, v Value) error {
	switch xv := x.(type) {
	case HasSetIndex:
		n, ok := i.(Int)
		if !ok {
			return fmt.Errorf("%s index must be an int, not %s", x.Type(), i.Type())
		}
		idx, err := normIndex(int(n), xv.Len())
		if err != nil {
			return err
		}
		return xv.SetIndex(idx, v)
	case HasSetKey:
		return xv.SetKey(i, v)
	}
	return fmt.Errorf("%s does not support item assignment", x.Type())
}

// getRange evaluates a slice expression x[lo:hi]; either bound may be Nil,
// meaning "from the start"/"to the end" respectively.
func getRange(x, lo, hi Value) (Value, error) {
	xv, ok := x.(Indexable)
	if !ok {
		return nil, fmt.Errorf("%s is not sliceable", x.Type())
	}
	n := xv.Len()
	start, end := 0, n
	if lo != Value(Nil) {
		i, ok := lo.(Int)
		if !ok {
			return nil, fmt.Errorf("slice bound must be an int, not %s", lo.Type())
		}
		start = clampSlice(int(i), n)
	}
	if hi != Value(Nil) {
		i, ok := hi.(Int)
		if !ok {
			return nil, fmt.Errorf("slice bound must be an int, not %s", hi.Type())
		}
		end = clampSlice(int(i), n)
	}
	if end < start {
		end = start
	}
	switch xv := x.(type) {
	case String:
		return xv[start:end], nil
	case *List:
		elems := make([]Value, end-start)
		for i := start; i < end; i++ {
			elems[i-start] = xv.Index(i)
		}
		return NewList(elems), nil
	default:
		return nil, fmt.Errorf("%s is not sliceable", x.Type())
	}
}

func clampSlice(i, n int) int {
	if i < 0 {
		i += n
	}
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

// getAttr evaluates x.name for a plain property read.
func getAttr(x Value, name string) (Value, error) {
	ha, ok := x.(HasAttrs)
	if !ok {
		return nil, fmt.Errorf("%s has no attribute %q", x.Type(), name)
	}
	v, err := ha.Attr(name)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, NoSuchAttrError(fmt.Sprintf("%s has no attribute %q", x.Type(), name))
	}
	return v, nil
}

// setField evaluates x.name = v.
func setField(x Value, name string, v Value) error {
	hs, ok := x.(HasSetField)
	if !ok {
		return fmt.Errorf("%s has no assignable attribute %q", x.Type(), name)
	}
	return hs.SetField(name, v)
}

// Iterate opens an Iterator over x, for use by for-in loops and ITER_INIT.
func Iterate(x Value) (Iterator, error) {
	it, ok := x.(Iterable)
	if !ok {
		return nil, fmt.Errorf("%s is not iterable", x.Type())
	}
	return it.Iterate(), nil
}
