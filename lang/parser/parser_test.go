package parser_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vellum-lang/vellum/lang/ast"
	"github.com/vellum-lang/vellum/lang/parser"
	"github.com/vellum-lang/vellum/lang/token"
)

func mustParse(t *testing.T, src string) *ast.Chunk {
	t.Helper()
	fs := token.NewFileSet()
	ch, err := parser.ParseChunk(fs, "test.vlm", []byte(src))
	require.NoError(t, err)
	return ch
}

func TestParseVarStmt(t *testing.T) {
	ch := mustParse(t, `var x = 1; const y: int = 2;`)
	require.Len(t, ch.Block.Stmts, 2)

	v1 := ch.Block.Stmts[0].(*ast.VarStmt)
	require.Equal(t, "x", v1.Name)
	require.False(t, v1.Const)

	v2 := ch.Block.Stmts[1].(*ast.VarStmt)
	require.Equal(t, "y", v2.Name)
	require.True(t, v2.Const)
	require.Equal(t, "int", ast.String(v2.Type))
}

func TestParseIfElse(t *testing.T) {
	ch := mustParse(t, `if (x > 0) { print x; } else if (x < 0) { print -1; } else { print 0; }`)
	require.Len(t, ch.Block.Stmts, 1)
	ifs := ch.Block.Stmts[0].(*ast.IfStmt)
	require.NotNil(t, ifs.Cond)
	elseIf, ok := ifs.Else.(*ast.IfStmt)
	require.True(t, ok)
	require.NotNil(t, elseIf.Else)
}

func TestParseWhileAndFor(t *testing.T) {
	ch := mustParse(t, `
		while (true) { print 1; }
		for (var i = 0; i < 10; i++) { print i; }
		for (x in xs) { print x; }
	`)
	require.Len(t, ch.Block.Stmts, 3)
	require.IsType(t, &ast.WhileStmt{}, ch.Block.Stmts[0])

	forStmt := ch.Block.Stmts[1].(*ast.ForStmt)
	require.NotNil(t, forStmt.Init)
	require.NotNil(t, forStmt.Cond)
	require.NotNil(t, forStmt.Post)

	forIn := ch.Block.Stmts[2].(*ast.ForInStmt)
	require.Equal(t, "x", forIn.Name)
}

func TestParseClassWithBaseAndOperator(t *testing.T) {
	ch := mustParse(t, `
		class Vector : Base {
			var x;
			var y;
			constructor(x, y) { this.x = x; this.y = y; }
			operator +(other) { return this; }
			fun length() { return this.x; }
		}
	`)
	require.Len(t, ch.Block.Stmts, 1)
	cls := ch.Block.Stmts[0].(*ast.ClassStmt)
	require.Equal(t, "Vector", cls.Name)
	require.Equal(t, "Base", cls.Base)
	require.NotNil(t, cls.Body.Constructor)
	require.Len(t, cls.Body.Fields, 2)
	require.Len(t, cls.Body.Methods, 1)
	require.Len(t, cls.Body.Operators, 1)
}

func TestParseExpressionPrecedence(t *testing.T) {
	ch := mustParse(t, `var r = 1 + 2 * 3 ** 2;`)
	v := ch.Block.Stmts[0].(*ast.VarStmt)
	bin := v.Init.(*ast.BinaryExpr)
	require.Equal(t, token.PLUS, bin.Op)
	mul := bin.Right.(*ast.BinaryExpr)
	require.Equal(t, token.STAR, mul.Op)
	pow := mul.Right.(*ast.BinaryExpr)
	require.Equal(t, token.STARSTAR, pow.Op)
}

func TestParseTernaryAndComma(t *testing.T) {
	ch := mustParse(t, `var a = (1, 2, x > 0 ? 1 : -1);`)
	v := ch.Block.Stmts[0].(*ast.VarStmt)
	paren := v.Init.(*ast.ParenExpr)
	comma := paren.Expr.(*ast.CommaExpr)
	require.Len(t, comma.Exprs, 3)
	require.IsType(t, &ast.TernaryExpr{}, comma.Exprs[2])
}

func TestParseListMapIndexSlice(t *testing.T) {
	ch := mustParse(t, `
		var xs = [1, 2, 3];
		var m = {"a": 1, "b": 2};
		var first = xs[0];
		var slice = xs[1:];
	`)
	require.Len(t, ch.Block.Stmts, 4)
	require.IsType(t, &ast.ListExpr{}, ch.Block.Stmts[0].(*ast.VarStmt).Init)
	require.IsType(t, &ast.MapExpr{}, ch.Block.Stmts[1].(*ast.VarStmt).Init)

	idx := ch.Block.Stmts[2].(*ast.VarStmt).Init.(*ast.IndexExpr)
	require.Nil(t, idx.High)

	slice := ch.Block.Stmts[3].(*ast.VarStmt).Init.(*ast.IndexExpr)
	require.NotEqual(t, token.NoPos, slice.Colon)
	require.Nil(t, slice.High)
}

func TestParsePrefixPostfixIncDec(t *testing.T) {
	ch := mustParse(t, `var a = ++x; var b = x--;`)
	un := ch.Block.Stmts[0].(*ast.VarStmt).Init.(*ast.UnaryExpr)
	require.Equal(t, token.PLUSPLUS, un.Op)
	post := ch.Block.Stmts[1].(*ast.VarStmt).Init.(*ast.PostfixExpr)
	require.Equal(t, token.MINUSMINUS, post.Op)
}

func TestParseBaseCall(t *testing.T) {
	ch := mustParse(t, `
		class Dog : Animal {
			fun speak() { return base.speak(); }
		}
	`)
	cls := ch.Block.Stmts[0].(*ast.ClassStmt)
	method := cls.Body.Methods[0]
	ret := method.Body.Stmts[0].(*ast.ReturnStmt)
	call := ret.Value.(*ast.CallExpr)
	require.IsType(t, &ast.BaseExpr{}, call.Fun)
}

func TestParseErrorRecoversWithBadStmt(t *testing.T) {
	fs := token.NewFileSet()
	ch, err := parser.ParseChunk(fs, "bad.vlm", []byte(`var x = ; var y = 2;`))
	require.Error(t, err)
	require.Len(t, ch.Block.Stmts, 2)
	require.IsType(t, &ast.BadStmt{}, ch.Block.Stmts[0])
	v := ch.Block.Stmts[1].(*ast.VarStmt)
	require.Equal(t, "y", v.Name)
}

func TestParseBreakContinue(t *testing.T) {
	ch := mustParse(t, `while (true) { break; continue; }`)
	w := ch.Block.Stmts[0].(*ast.WhileStmt)
	require.IsType(t, &ast.BreakStmt{}, w.Body.Stmts[0])
	require.IsType(t, &ast.ContinueStmt{}, w.Body.Stmts[1])
}
