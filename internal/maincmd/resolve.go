package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"
	"github.com/vellum-lang/vellum/lang/ast"
	"github.com/vellum-lang/vellum/lang/machine"
	"github.com/vellum-lang/vellum/lang/parser"
	"github.com/vellum-lang/vellum/lang/resolver"
	"github.com/vellum-lang/vellum/lang/scanner"
	"github.com/vellum-lang/vellum/lang/token"
)

func (c *Cmd) Resolve(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return ResolveFiles(ctx, stdio, token.PosLong, "", args...)
}

func ResolveFiles(ctx context.Context, stdio mainer.Stdio,
	posMode token.PosMode, nodeFmt string, files ...string) error {
	printer := ast.Printer{
		Output:  stdio.Stdout,
		Pos:     posMode,
		NodeFmt: nodeFmt,
	}
	fs, chunks, perr := parser.ParseFiles(ctx, files...)
	if perr != nil {
		// cannot resolve AST if parsing has errors
		scanner.PrintError(stdio.Stderr, perr)
		return perr
	}

	_, rerr := resolver.ResolveFiles(ctx, fs, chunks, isPredeclared)
	for _, ch := range chunks {
		start, _ := ch.Span()
		file := fs.File(start)
		if err := printer.Print(ch, file); err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			return err
		}
	}
	if rerr != nil {
		scanner.PrintError(stdio.Stderr, rerr)
	}
	return rerr
}

// isPredeclared reports the names available to every chunk without an
// explicit import: the builtin primitive type names, the runtime universe
// (true/false/nil), and every native function run/classic/repl wire up as
// Thread.Predeclared — a name the resolver doesn't also recognize here
// would compile to a GET_PREDECLARED that resolves to nothing at runtime.
func isPredeclared(name string) bool {
	switch name {
	case "int", "float", "bool", "string", "any", "void":
		return true
	}
	if predeclaredUniverse[name] {
		return true
	}
	_, ok := nativeNames[name]
	return ok
}

var predeclaredUniverse = map[string]bool{
	"true": true, "false": true, "nil": true,
}

var nativeNames = machine.NativeFunctions()
