package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"
	"github.com/vellum-lang/vellum/internal/config"
	"github.com/vellum-lang/vellum/lang/compiler"
	"github.com/vellum-lang/vellum/lang/machine"
	"github.com/vellum-lang/vellum/lang/parser"
	"github.com/vellum-lang/vellum/lang/resolver"
	"github.com/vellum-lang/vellum/lang/scanner"
)

// Run compiles and executes a single source file on a fresh bytecode
// thread. A compile-time failure (parse or resolve error) exits 65; a
// failure raised while the program runs exits 67 — the conventional
// EX_DATAERR/EX_NOUSER split a Unix CLI uses to let a caller script tell
// "your program is wrong" from "it failed at runtime" apart.
func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	if len(args) != 1 {
		return &codedError{code: exitCompileError, err: fmt.Errorf("run: exactly one source file is required, got %d", len(args))}
	}

	prog, err := compileFile(ctx, stdio, args[0])
	if err != nil {
		return &codedError{code: exitCompileError, err: err}
	}

	rt, err := config.Load()
	if err != nil {
		return &codedError{code: exitCompileError, err: err}
	}

	th := &machine.Thread{
		Name:              args[0],
		Stdout:            stdio.Stdout,
		Stderr:            stdio.Stderr,
		Stdin:             stdio.Stdin,
		MaxSteps:          rt.MaxSteps,
		MaxCallStackDepth: rt.MaxCallStackDepth,
		MaxCompareDepth:   rt.MaxCompareDepth,
		GCThreshold:       rt.GCThreshold,
		GCStress:          rt.GCStress,
		DisableRecursion:  rt.DisableRecursion,
		Predeclared:       machine.NativeFunctions(),
	}

	if _, err := th.RunProgram(ctx, prog); err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return &codedError{code: exitRuntimeError, err: err}
	}
	return nil
}

// compileFile runs the parse/resolve/codegen pipeline over a single source
// file, printing any parse or resolve error to stderr before returning it.
func compileFile(ctx context.Context, stdio mainer.Stdio, file string) (*compiler.Program, error) {
	fs, chunks, perr := parser.ParseFiles(ctx, file)
	if perr != nil {
		scanner.PrintError(stdio.Stderr, perr)
		return nil, perr
	}

	res, rerr := resolver.ResolveFiles(ctx, fs, chunks, isPredeclared)
	if rerr != nil {
		scanner.PrintError(stdio.Stderr, rerr)
		return nil, rerr
	}

	return compiler.Compile(fs, chunks[0], res), nil
}
