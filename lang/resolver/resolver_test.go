package resolver_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vellum-lang/vellum/lang/ast"
	"github.com/vellum-lang/vellum/lang/parser"
	"github.com/vellum-lang/vellum/lang/resolver"
	"github.com/vellum-lang/vellum/lang/token"
	"github.com/vellum-lang/vellum/lang/types"
)

func mustResolve(t *testing.T, src string) (*ast.Chunk, *resolver.Result) {
	t.Helper()
	fs := token.NewFileSet()
	ch, err := parser.ParseChunk(fs, "test.vlm", []byte(src))
	require.NoError(t, err)
	res, err := resolver.ResolveFiles(context.Background(), fs, []*ast.Chunk{ch}, nil)
	require.NoError(t, err)
	return ch, res
}

func TestResolveVarTypeInference(t *testing.T) {
	ch, res := mustResolve(t, `var x = 1; var y = x + 2;`)
	y := ch.Block.Stmts[1].(*ast.VarStmt)
	require.Equal(t, types.Int, res.Types[y.Init])
}

func TestResolveUndefinedNameIsError(t *testing.T) {
	fs := token.NewFileSet()
	ch, err := parser.ParseChunk(fs, "t.vlm", []byte(`var x = y;`))
	require.NoError(t, err)
	_, err = resolver.ResolveFiles(context.Background(), fs, []*ast.Chunk{ch}, nil)
	require.Error(t, err)
}

func TestResolveUpvalueCapture(t *testing.T) {
	ch, res := mustResolve(t, `
		fun counter() {
			var n = 0;
			fun inc() { n = n + 1; return n; }
			return inc;
		}
	`)
	outer := ch.Block.Stmts[0].(*ast.FuncStmt)
	innerFn := outer.Body.Stmts[1].(*ast.FuncStmt)
	fn := res.Functions[innerFn]
	require.NotNil(t, fn)
	require.Len(t, fn.FreeVars, 1)
}

func TestResolveClassWithBaseAndConstructor(t *testing.T) {
	ch, res := mustResolve(t, `
		class Animal {
			var name;
			constructor(name) { this.name = name; }
		}
		class Dog : Animal {
			fun speak() { return this.name; }
		}
	`)
	dog := ch.Block.Stmts[1].(*ast.ClassStmt)
	class := res.Classes[dog]
	require.NotNil(t, class)
	require.Len(t, class.Super, 1)
	require.Equal(t, "Animal", class.Super[0].Name)
}

func TestResolveOverloadDispatch(t *testing.T) {
	ch, res := mustResolve(t, `
		fun speak(x: int) { return 1; }
		fun speak(x: string) { return 2; }
		var r = speak(1);
	`)
	call := ch.Block.Stmts[2].(*ast.VarStmt).Init.(*ast.CallExpr)
	cb := res.Calls[call]
	require.NotNil(t, cb)
	require.Equal(t, types.Int, cb.ArgTypes[0])
}

func TestResolveBreakOutsideLoopIsError(t *testing.T) {
	fs := token.NewFileSet()
	ch, err := parser.ParseChunk(fs, "t.vlm", []byte(`break;`))
	require.NoError(t, err)
	_, err = resolver.ResolveFiles(context.Background(), fs, []*ast.Chunk{ch}, nil)
	require.Error(t, err)
}
