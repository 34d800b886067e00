package machine

import (
	"fmt"
	"time"
)

// Builtin wraps a Go function as a Callable, for native functions exposed to
// a program through Thread.Predeclared (e.g. clock, len, str, type). Unlike
// Function and BoundMethod it is never heap-allocated: a native has no
// fields a user program can observe or that the collector needs to trace,
// so it lives as an ordinary Go value.
type Builtin struct {
	name string
	fn   func(th *Thread, args *Tuple) (Value, error)
}

var (
	_ Value    = (*Builtin)(nil)
	_ Callable = (*Builtin)(nil)
)

func (b *Builtin) String() string { return fmt.Sprintf("<native fn %s>", b.name) }
func (b *Builtin) Type() string   { return "builtin" }
func (b *Builtin) Name() string   { return b.name }
func (b *Builtin) CallInternal(th *Thread, args *Tuple) (Value, error) {
	return b.fn(th, args)
}

func newBuiltin(name string, fn func(th *Thread, args *Tuple) (Value, error)) *Builtin {
	return &Builtin{name: name, fn: fn}
}

func checkArgc(name string, args *Tuple, want int) error {
	if args.Len() != want {
		return fmt.Errorf("%s: takes %d argument(s), got %d", name, want, args.Len())
	}
	return nil
}

// NativeFunctions returns the clock/len/str/type builtins, by the name a
// program refers to them with. A host embedding merges this (or a subset of
// it) into Thread.Predeclared; it is never wired in automatically, so an
// embedding that wants a smaller surface (e.g. no wall-clock access in a
// sandboxed evaluation) can omit entries freely.
func NativeFunctions() map[string]Value {
	return map[string]Value{
		"clock": newBuiltin("clock", nativeClock),
		"len":   newBuiltin("len", nativeLen),
		"str":   newBuiltin("str", nativeStr),
		"type":  newBuiltin("type", nativeType),
	}
}

// nativeClock returns the number of seconds since an unspecified epoch (the
// process start), as a Float: vellum programs use it only for relative
// timing (benchmarks, rate limiting), never wall-clock display.
func nativeClock(_ *Thread, args *Tuple) (Value, error) {
	if err := checkArgc("clock", args, 0); err != nil {
		return nil, err
	}
	return Float(float64(time.Since(processStart)) / float64(time.Second)), nil
}

var processStart = time.Now()

func nativeLen(_ *Thread, args *Tuple) (Value, error) {
	if err := checkArgc("len", args, 1); err != nil {
		return nil, err
	}
	x := args.Index(0)
	if seq, ok := x.(Sequence); ok {
		return Int(seq.Len()), nil
	}
	if idx, ok := x.(Indexable); ok {
		return Int(idx.Len()), nil
	}
	return nil, fmt.Errorf("len: %s has no length", x.Type())
}

func nativeStr(_ *Thread, args *Tuple) (Value, error) {
	if err := checkArgc("str", args, 1); err != nil {
		return nil, err
	}
	x := args.Index(0)
	if s, ok := x.(String); ok {
		return s, nil
	}
	return String(x.String()), nil
}

func nativeType(_ *Thread, args *Tuple) (Value, error) {
	if err := checkArgc("type", args, 1); err != nil {
		return nil, err
	}
	return String(args.Index(0).Type()), nil
}
