package machine

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/vellum-lang/vellum/lang/compiler"
	"github.com/vellum-lang/vellum/lang/heap"
)

// Thread holds the state of one execution session: the operand stack, the
// call frames, the global bindings and the heap they are all allocated
// from. RunProgram may be called more than once on the same Thread (the
// repl command does exactly that, one call per line of input); globals and
// the heap persist across calls, only the per-call cancellation context is
// reset.
type Thread struct {
	// Name is an optional name that describes the thread, mostly for debugging.
	Name string

	// Stdout, Stderr and Stdin are the standard I/O abstractions for the thread.
	// If nil, os.Stdout, os.Stderr and os.Stdin are used, respectively.
	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader

	// MaxSteps is the maximum number of "steps", a deliberately unspecified
	// measure of machine execution time, before the thread is cancelled. A value
	// <= 0 means no limit.
	MaxSteps int

	// DisableRecursion prevents recursive execution of functions when set to
	// true. It incurs a small performance cost for the runtime verification on
	// each function call but can be a useful safety check when executing
	// untrusted code. If a recursive call is detected when set to true, the
	// thread is cancelled.
	DisableRecursion bool

	// MaxCallStackDepth limits the number of nested function calls. If the limit
	// is reached, the thread is cancelled. A value <= 0 means no limit.
	MaxCallStackDepth int

	// MaxCompareDepth limits the number of nested comparison depth for compound
	// types to prevent comparing cyclic values. A value <= 0 means no limit.
	MaxCompareDepth int

	// Load is an optional function value to call to load modules.
	Load func(*Thread, string) (Value, error)

	// Predeclared is the set of predeclared identifiers and their assigned
	// values. Predeclared identifiers are like the Universe identifiers in
	// that they are available to all programs automatically and cannot be
	// assigned to; unlike Universe, they vary per embedding (e.g. the native
	// functions the running command wires up).
	Predeclared map[string]Value

	// GCThreshold is the heap's initial byte-estimate collection threshold.
	// A value <= 0 uses a small default, suitable for tests and short-lived
	// scripts; a long-running embedding should raise it.
	GCThreshold int

	// GCStress, when true, forces a collection on every single heap
	// allocation instead of waiting for the threshold. Costly; intended for
	// flushing out a missed GC root during development.
	GCStress bool

	ctx       context.Context
	ctxCancel func()
	cancelled atomic.Bool
	running   atomic.Bool

	steps, maxSteps uint64
	maxCompareDepth uint64

	stdout io.Writer
	stderr io.Writer
	stdin  io.Reader

	heap    *heap.Heap
	stack   []Value
	frames  []*Frame
	globals map[string]Value
}

// RunProgram executes p's top-level code to completion and returns its
// result (the value of the implicit return at the end of the chunk).
func (th *Thread) RunProgram(ctx context.Context, p *compiler.Program) (Value, error) {
	if th.running.Swap(true) {
		return nil, fmt.Errorf("thread %s is already executing a program", th.Name)
	}
	defer th.running.Store(false)

	th.init()

	runCtx, cancel := context.WithCancel(ctx)
	th.ctx = runCtx
	th.ctxCancel = cancel
	th.cancelled.Store(false)
	th.steps = 0
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-runCtx.Done():
			th.cancelled.Store(true)
		case <-done:
		}
	}()
	defer cancel()

	mod := &Module{Program: p, Constants: convertConstants(p.Constants)}
	top := &Function{Funcode: p.Toplevel, Module: mod}
	th.newFunction(top)

	return Call(th, top, NilaryTuple)
}

func convertConstants(raw []interface{}) []Value {
	vals := make([]Value, len(raw))
	for i, c := range raw {
		switch c := c.(type) {
		case int64:
			vals[i] = Int(c)
		case string:
			vals[i] = String(c)
		case float64:
			vals[i] = Float(c)
		default:
			panic(fmt.Sprintf("machine: unexpected constant %T: %[1]v", c))
		}
	}
	return vals
}

func (th *Thread) init() {
	if th.globals != nil {
		return // already initialized
	}
	if th.MaxSteps <= 0 {
		th.maxSteps-- // (MaxUint64)
	} else {
		th.maxSteps = uint64(th.MaxSteps)
	}
	if th.MaxCompareDepth <= 0 {
		th.maxCompareDepth-- // (MaxUint64)
	} else {
		th.maxCompareDepth = uint64(th.MaxCompareDepth)
	}
	if th.Stdout != nil {
		th.stdout = th.Stdout
	} else {
		th.stdout = os.Stdout
	}
	if th.Stderr != nil {
		th.stderr = th.Stderr
	} else {
		th.stderr = os.Stderr
	}
	if th.Stdin != nil {
		th.stdin = th.Stdin
	} else {
		th.stdin = os.Stdin
	}

	threshold := th.GCThreshold
	if threshold <= 0 {
		threshold = 1 << 16
	}
	th.heap = heap.New(threshold)
	th.heap.Stress = th.GCStress
	th.globals = map[string]Value{}
}
