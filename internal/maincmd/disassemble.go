package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"
	"github.com/vellum-lang/vellum/lang/compiler"
)

// Disassemble compiles a single source file and prints its bytecode as
// pseudo-assembly, one Funcode per function. A compile error exits 65, the
// same convention run and classic use.
func (c *Cmd) Disassemble(ctx context.Context, stdio mainer.Stdio, args []string) error {
	if len(args) != 1 {
		return &codedError{code: exitCompileError, err: fmt.Errorf("disassemble: exactly one source file is required, got %d", len(args))}
	}

	prog, err := compileFile(ctx, stdio, args[0])
	if err != nil {
		return &codedError{code: exitCompileError, err: err}
	}

	fmt.Fprint(stdio.Stdout, compiler.Dasm(prog))
	return nil
}
