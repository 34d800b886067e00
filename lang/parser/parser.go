// Package parser implements the parser that transforms source code into an
// abstract syntax tree (AST).
package parser

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/vellum-lang/vellum/lang/ast"
	"github.com/vellum-lang/vellum/lang/scanner"
	"github.com/vellum-lang/vellum/lang/token"
)

// ParseFiles parses each of the given source files and returns the fileset
// along with the resulting ASTs and any error encountered. The error, if
// non-nil, is a scanner.ErrorList, or ctx.Err() if ctx is done before every
// file is parsed.
func ParseFiles(ctx context.Context, files ...string) (*token.FileSet, []*ast.Chunk, error) {
	if len(files) == 0 {
		return nil, nil, nil
	}

	var p parser
	res := make([]*ast.Chunk, 0, len(files))
	fs := token.NewFileSet()

	for _, file := range files {
		select {
		case <-ctx.Done():
			return fs, res, ctx.Err()
		default:
		}

		b, err := os.ReadFile(file)
		if err != nil {
			p.errors.Add(token.Position{Filename: file}, err.Error())
			continue
		}

		p.init(fs, file, b)
		ch := p.parseChunk()
		ch.Name = file
		res = append(res, ch)
	}
	p.errors.Sort()
	return fs, res, p.errors.Err()
}

// ParseChunk parses a single chunk of source from src and adds it to fset
// under filename, for position reporting. The error, if non-nil, is
// guaranteed to be a scanner.ErrorList.
func ParseChunk(fset *token.FileSet, filename string, src []byte) (*ast.Chunk, error) {
	var p parser
	p.init(fset, filename, src)
	ch := p.parseChunk()
	ch.Name = filename
	return ch, p.errors.Err()
}

// parser parses source files and generates an AST using recursive-descent
// with precedence climbing for expressions.
type parser struct {
	scanner scanner.Scanner
	errors  scanner.ErrorList
	file    *token.File

	tok token.Token
	val token.Value
}

func (p *parser) init(fset *token.FileSet, filename string, src []byte) {
	p.file = fset.AddFile(filename, -1, len(src))
	p.scanner.Init(p.file, src, p.errors.Add)
	p.advance()
}

func (p *parser) advance() {
	p.tok = p.scanner.Scan(&p.val)
}

var errPanicMode = errors.New("panic")

// expect reports an error and panics with errPanicMode (recovered at the
// statement level, yielding a BadStmt) unless the current token is one of
// toks, in which case it is consumed and its position returned.
func (p *parser) expect(toks ...token.Token) token.Pos {
	pos := p.val.Pos

	var ok bool
	for _, tok := range toks {
		if p.tok == tok {
			ok = true
			break
		}
	}

	if !ok {
		var buf strings.Builder
		for i, tok := range toks {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(tok.GoString())
		}
		lbl := buf.String()
		if len(toks) > 1 {
			lbl = "one of " + lbl
		}
		p.errorExpected(pos, lbl)
		panic(errPanicMode)
	}

	p.advance()
	return pos
}

func (p *parser) error(pos token.Pos, msg string) {
	p.errors.Add(p.file.Position(pos), msg)
}

func (p *parser) errorExpected(pos token.Pos, msg string) {
	msg = "expected " + msg
	if pos == p.val.Pos {
		switch lit := p.tok.Literal(p.val); lit {
		case "":
			msg += ", found " + p.tok.GoString()
		default:
			msg += ", found " + lit
		}
	}
	p.error(pos, msg)
}

func tokenIn(t token.Token, toks ...token.Token) bool {
	for _, tok := range toks {
		if t == tok {
			return true
		}
	}
	return false
}

// syncToks are tokens that are safe synchronization points after a parse
// error: each starts a new statement, so panic-mode recovery stops there.
var syncToks = map[token.Token]bool{
	token.SEMI:     true,
	token.RBRACE:   true,
	token.VAR:      true,
	token.CONST:    true,
	token.FUN:      true,
	token.CLASS:    true,
	token.IF:       true,
	token.WHILE:    true,
	token.FOR:      true,
	token.RETURN:   true,
	token.PRINT:    true,
	token.BREAK:    true,
	token.CONTINUE: true,
}

func (p *parser) syncAfterError() token.Pos {
	for p.tok != token.EOF {
		if syncToks[p.tok] {
			if p.tok == token.SEMI {
				pos := p.val.Pos
				p.advance()
				return pos + 1
			}
			return p.val.Pos
		}
		p.advance()
	}
	return p.val.Pos
}
