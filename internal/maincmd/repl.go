package maincmd

import (
	"bufio"
	"context"
	"fmt"

	"github.com/mna/mainer"
	"github.com/vellum-lang/vellum/internal/config"
	"github.com/vellum-lang/vellum/lang/compiler"
	"github.com/vellum-lang/vellum/lang/machine"
	"github.com/vellum-lang/vellum/lang/parser"
	"github.com/vellum-lang/vellum/lang/resolver"
	"github.com/vellum-lang/vellum/lang/scanner"
	"github.com/vellum-lang/vellum/lang/token"
)

// Repl runs an interactive read-eval-print loop against the bytecode
// machine: it reads one line at a time from stdio.Stdin, compiles it as its
// own chunk and runs it on a single persistent Thread, so a top-level var
// or fn declared on one line stays visible on the next. A parse/resolve
// error or a runtime error is printed and the loop continues; only EOF on
// stdin or a cancelled context ends the session.
func (c *Cmd) Repl(ctx context.Context, stdio mainer.Stdio, args []string) error {
	rt, err := config.Load()
	if err != nil {
		return &codedError{code: exitCompileError, err: err}
	}

	th := &machine.Thread{
		Name:              "repl",
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

	fset := token.NewFileSet()
	sess := resolver.NewSession(isPredeclared)

	fmt.Fprintln(stdio.Stdout, "vellum repl — enter an expression or statement, Ctrl-D to quit")
	sc := bufio.NewScanner(stdio.Stdin)
	for line := 1; ; line++ {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		fmt.Fprint(stdio.Stdout, "> ")
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				fmt.Fprintln(stdio.Stderr, err)
			}
			return nil
		}

		src := sc.Text()
		if src == "" {
			continue
		}

		name := fmt.Sprintf("<repl:%d>", line)
		chunk, perr := parser.ParseChunk(fset, name, []byte(src))
		if perr != nil {
			scanner.PrintError(stdio.Stderr, perr)
			continue
		}

		res, rerr := sess.ResolveChunk(ctx, fset, chunk)
		if rerr != nil {
			scanner.PrintError(stdio.Stderr, rerr)
			continue
		}

		prog := compiler.Compile(fset, chunk, res)
		v, err := th.RunProgram(ctx, prog)
		if err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			continue
		}
		if v != nil && v != machine.Value(machine.Nil) {
			fmt.Fprintln(stdio.Stdout, v.String())
		}
	}
}
