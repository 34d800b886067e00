package scanner_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vellum-lang/vellum/lang/scanner"
	"github.com/vellum-lang/vellum/lang/token"
)

func scanAll(t *testing.T, src string) ([]token.Token, []token.Value, []string) {
	t.Helper()

	fs := token.NewFileSet()
	f := fs.AddFile("test.vlm", -1, len(src))

	var errs []string
	var s scanner.Scanner
	s.Init(f, []byte(src), func(pos token.Position, msg string) {
		errs = append(errs, msg)
	})

	var toks []token.Token
	var vals []token.Value
	for {
		var v token.Value
		tok := s.Scan(&v)
		toks = append(toks, tok)
		vals = append(vals, v)
		if tok == token.EOF {
			break
		}
	}
	return toks, vals, errs
}

func TestScanPunctuationAndOperators(t *testing.T) {
	toks, _, errs := scanAll(t, `+ - * / % ** ++ -- ! != = == > >= < <= ? : , . ; -> ( ) { } [ ] |`)
	require.Empty(t, errs)
	want := []token.Token{
		token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT, token.STARSTAR,
		token.PLUSPLUS, token.MINUSMINUS, token.BANG, token.BANGEQ, token.EQ, token.EQEQ,
		token.GT, token.GE, token.LT, token.LE, token.QUESTION, token.COLON, token.COMMA,
		token.DOT, token.SEMI, token.ARROW, token.LPAREN, token.RPAREN, token.LBRACE,
		token.RBRACE, token.LBRACK, token.RBRACK, token.PIPE, token.EOF,
	}
	require.Equal(t, want, toks)
}

func TestScanKeywordsAndIdents(t *testing.T) {
	toks, vals, errs := scanAll(t, `class base this and or var fooBar _x1`)
	require.Empty(t, errs)
	require.Equal(t, []token.Token{
		token.CLASS, token.BASE, token.THIS, token.AND, token.OR, token.VAR,
		token.IDENT, token.IDENT, token.EOF,
	}, toks)
	require.Equal(t, "fooBar", vals[6].Raw)
	require.Equal(t, "_x1", vals[7].Raw)
}

func TestScanNumbers(t *testing.T) {
	toks, vals, errs := scanAll(t, `123 1_000 3.14 2. .5 1e10 1.5e-3`)
	require.Empty(t, errs)
	require.Equal(t, []token.Token{
		token.INT, token.INT, token.FLOAT, token.FLOAT, token.FLOAT, token.FLOAT, token.FLOAT, token.EOF,
	}, toks)
	require.EqualValues(t, 123, vals[0].Int)
	require.EqualValues(t, 1000, vals[1].Int)
	require.InDelta(t, 3.14, vals[2].Float, 0.0001)
}

func TestScanStrings(t *testing.T) {
	toks, vals, errs := scanAll(t, `"hello" 'world' "a\nb" "\x41"`)
	require.Empty(t, errs)
	require.Equal(t, []token.Token{token.STRING, token.STRING, token.STRING, token.STRING, token.EOF}, toks)
	require.Equal(t, "hello", vals[0].String)
	require.Equal(t, "world", vals[1].String)
	require.Equal(t, "a\nb", vals[2].String)
	require.Equal(t, "A", vals[3].String)
}

func TestScanUnterminatedString(t *testing.T) {
	_, _, errs := scanAll(t, `"abc`)
	require.Len(t, errs, 1)
	require.Contains(t, errs[0], "not terminated")
}

func TestScanComments(t *testing.T) {
	toks, _, errs := scanAll(t, "// line comment\nvar /* block */ x")
	require.Empty(t, errs)
	require.Equal(t, []token.Token{token.VAR, token.IDENT, token.EOF}, toks)
}

func TestScanIllegalCharacter(t *testing.T) {
	_, _, errs := scanAll(t, "@")
	require.Len(t, errs, 1)
	require.Contains(t, errs[0], "illegal character")
}
