package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"
	"github.com/vellum-lang/vellum/lang/interp"
	"github.com/vellum-lang/vellum/lang/machine"
	"github.com/vellum-lang/vellum/lang/parser"
	"github.com/vellum-lang/vellum/lang/resolver"
	"github.com/vellum-lang/vellum/lang/scanner"
)

// Classic executes a single source file with the tree-walking evaluator
// (lang/interp) instead of the bytecode machine, under the same 65/67 exit
// code convention as Run.
func (c *Cmd) Classic(ctx context.Context, stdio mainer.Stdio, args []string) error {
	if len(args) != 1 {
		return &codedError{code: exitCompileError, err: fmt.Errorf("classic: exactly one source file is required, got %d", len(args))}
	}

	fs, chunks, perr := parser.ParseFiles(ctx, args[0])
	if perr != nil {
		scanner.PrintError(stdio.Stderr, perr)
		return &codedError{code: exitCompileError, err: perr}
	}
	if _, rerr := resolver.ResolveFiles(ctx, fs, chunks, isPredeclared); rerr != nil {
		scanner.PrintError(stdio.Stderr, rerr)
		return &codedError{code: exitCompileError, err: rerr}
	}

	it := interp.New(machine.NativeFunctions())
	it.Stdout, it.Stderr = stdio.Stdout, stdio.Stderr

	if err := it.Run(ctx, chunks[0]); err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return &codedError{code: exitRuntimeError, err: err}
	}
	return nil
}
