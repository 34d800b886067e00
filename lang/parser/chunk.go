package parser

import (
	"github.com/vellum-lang/vellum/lang/ast"
	"github.com/vellum-lang/vellum/lang/token"
)

func (p *parser) parseChunk() *ast.Chunk {
	var chunk ast.Chunk
	lbrace := p.val.Pos
	var stmts []ast.Stmt
	for p.tok != token.EOF {
		if stmt := p.parseStmt(); stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	chunk.Block = &ast.Block{Lbrace: lbrace, Stmts: stmts, Rbrace: p.val.Pos}
	chunk.EOF = p.expect(token.EOF)
	return &chunk
}

func (p *parser) parseBlock() *ast.Block {
	var block ast.Block
	block.Lbrace = p.expect(token.LBRACE)

	var ending ast.Stmt
	var endingReported bool
	for !tokenIn(p.tok, token.RBRACE, token.EOF) {
		if stmt := p.parseStmt(); stmt != nil {
			if ending != nil {
				if !endingReported {
					pos, _ := stmt.Span()
					p.errorExpected(pos, "end of block")
					endingReported = true
				}
			} else if stmt.BlockEnding() {
				ending = stmt
			}
			block.Stmts = append(block.Stmts, stmt)
		}
	}
	block.Rbrace = p.expect(token.RBRACE)
	return &block
}

// parseStmt returns nil for a statement to ignore (the empty `;` statement).
func (p *parser) parseStmt() (stmt ast.Stmt) {
	start := p.val.Pos

	defer func() {
		if err := recover(); err != nil {
			if err == errPanicMode {
				stmt = &ast.BadStmt{From: start, To: p.syncAfterError()}
				return
			}
			panic(err)
		}
	}()

	switch p.tok {
	case token.SEMI:
		p.advance()
		return nil
	case token.VAR, token.CONST:
		return p.parseVarStmt()
	case token.FUN:
		return p.parseFuncStmt()
	case token.CLASS:
		return p.parseClassStmt()
	case token.IF:
		return p.parseIfStmt()
	case token.WHILE:
		return p.parseWhileStmt()
	case token.FOR:
		return p.parseForStmt()
	case token.RETURN:
		return p.parseReturnStmt()
	case token.PRINT:
		return p.parsePrintStmt()
	case token.BREAK:
		return p.parseBreakStmt()
	case token.CONTINUE:
		return p.parseContinueStmt()
	case token.LBRACE:
		return p.parseBlock()
	default:
		return p.parseExprStmt()
	}
}

func (p *parser) parseIdentExpr() *ast.IdentExpr {
	var exp ast.IdentExpr
	exp.Name = p.val.Raw
	exp.NamePos = p.expect(token.IDENT)
	return &exp
}
