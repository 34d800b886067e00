package parser

import (
	"github.com/vellum-lang/vellum/lang/ast"
	"github.com/vellum-lang/vellum/lang/token"
)

func (p *parser) parseVarStmt() *ast.VarStmt {
	var stmt ast.VarStmt
	stmt.VarPos = p.val.Pos
	stmt.Const = p.tok == token.CONST
	p.expect(token.VAR, token.CONST)

	stmt.NamePos = p.val.Pos
	stmt.Name = p.val.Raw
	p.expect(token.IDENT)

	if p.tok == token.COLON {
		p.advance()
		stmt.Type = p.parseTypeExpr()
	}

	if p.tok == token.EQ {
		stmt.Eq = p.expect(token.EQ)
		stmt.Init = p.parseExprNoComma()
	} else if stmt.Const {
		p.errorExpected(p.val.Pos, "'=' (const requires an initializer)")
	}
	stmt.Semi = p.expect(token.SEMI)
	return &stmt
}

func (p *parser) parseFuncSignature() *ast.FuncSignature {
	var sig ast.FuncSignature
	sig.Lparen = p.expect(token.LPAREN)

	for p.tok != token.RPAREN && p.tok != token.EOF {
		var param ast.Param
		param.NamePos = p.val.Pos
		param.Name = p.val.Raw
		p.expect(token.IDENT)
		if p.tok == token.COLON {
			p.advance()
			param.Type = p.parseTypeExpr()
		}
		sig.Params = append(sig.Params, param)
		if p.tok == token.COMMA {
			p.advance()
		} else {
			break
		}
	}
	sig.Rparen = p.expect(token.RPAREN)

	if p.tok == token.ARROW {
		sig.Arrow = p.expect(token.ARROW)
		sig.RetType = p.parseTypeExpr()
	}
	return &sig
}

func (p *parser) parseTypeExpr() ast.TypeExpr {
	first := p.parseNamedOrGenericTypeExpr()
	if p.tok != token.PIPE {
		return first
	}
	alts := []ast.TypeExpr{first}
	for p.tok == token.PIPE {
		p.advance()
		alts = append(alts, p.parseNamedOrGenericTypeExpr())
	}
	return &ast.UnionTypeExpr{Alts: alts}
}

func (p *parser) parseNamedOrGenericTypeExpr() ast.TypeExpr {
	namePos := p.val.Pos
	name := p.val.Raw
	p.expect(token.IDENT)

	if p.tok != token.LBRACK {
		return &ast.NamedTypeExpr{NamePos: namePos, Name: name}
	}

	var gen ast.GenericTypeExpr
	gen.NamePos = namePos
	gen.Name = name
	gen.Lbrack = p.expect(token.LBRACK)
	gen.Args = append(gen.Args, p.parseTypeExpr())
	for p.tok == token.COMMA {
		p.advance()
		gen.Args = append(gen.Args, p.parseTypeExpr())
	}
	gen.Rbrack = p.expect(token.RBRACK)
	return &gen
}

func (p *parser) parseFuncStmt() *ast.FuncStmt {
	var stmt ast.FuncStmt
	stmt.FunPos = p.expect(token.FUN)
	stmt.NamePos = p.val.Pos
	stmt.Name = p.val.Raw
	p.expect(token.IDENT)
	stmt.Sig = p.parseFuncSignature()
	stmt.Body = p.parseBlock()
	return &stmt
}

func (p *parser) parseClassStmt() *ast.ClassStmt {
	var stmt ast.ClassStmt
	stmt.ClassPos = p.expect(token.CLASS)
	stmt.NamePos = p.val.Pos
	stmt.Name = p.val.Raw
	p.expect(token.IDENT)

	if p.tok == token.COLON {
		p.advance()
		stmt.BasePos = p.val.Pos
		stmt.Base = p.val.Raw
		p.expect(token.IDENT)
	}

	stmt.Body = p.parseClassBody()
	return &stmt
}

func (p *parser) parseClassBody() *ast.ClassBody {
	var body ast.ClassBody
	body.Lbrace = p.expect(token.LBRACE)

	for !tokenIn(p.tok, token.RBRACE, token.EOF) {
		switch p.tok {
		case token.VAR, token.CONST:
			body.Fields = append(body.Fields, p.parseVarStmt())

		case token.OPERATOR:
			opPos := p.expect(token.OPERATOR)
			op := p.tok
			if !p.tok.IsIncDec() && !tokenIn(p.tok, token.PLUS, token.MINUS, token.STAR, token.SLASH,
				token.PERCENT, token.STARSTAR, token.EQEQ, token.BANGEQ, token.LT, token.LE, token.GT, token.GE) {
				p.errorExpected(p.val.Pos, "operator symbol")
			}
			p.advance()
			sig := p.parseFuncSignature()
			decl := &ast.OperatorDecl{OpPos: opPos, Op: op, Sig: sig, Body: p.parseBlock()}
			body.Operators = append(body.Operators, decl)

		case token.CONSTRUCTOR:
			funPos := p.expect(token.CONSTRUCTOR)
			sig := p.parseFuncSignature()
			body.Constructor = &ast.FuncStmt{FunPos: funPos, Name: "constructor", Sig: sig, Body: p.parseBlock()}

		case token.FUN:
			body.Methods = append(body.Methods, p.parseFuncStmt())

		default:
			p.expect(token.VAR, token.CONST, token.FUN, token.CONSTRUCTOR, token.OPERATOR)
		}
	}
	body.Rbrace = p.expect(token.RBRACE)
	return &body
}

func (p *parser) parseIfStmt() *ast.IfStmt {
	var stmt ast.IfStmt
	stmt.IfPos = p.expect(token.IF)
	p.expect(token.LPAREN)
	stmt.Cond = p.parseExpr()
	p.expect(token.RPAREN)
	stmt.Then = p.parseBlock()

	if p.tok == token.ELSE {
		p.advance()
		if p.tok == token.IF {
			stmt.Else = p.parseIfStmt()
		} else {
			stmt.Else = p.parseBlock()
		}
	}
	return &stmt
}

func (p *parser) parseWhileStmt() *ast.WhileStmt {
	var stmt ast.WhileStmt
	stmt.WhilePos = p.expect(token.WHILE)
	p.expect(token.LPAREN)
	stmt.Cond = p.parseExpr()
	p.expect(token.RPAREN)
	stmt.Body = p.parseBlock()
	return &stmt
}

// parseForStmt disambiguates between a C-style three-clause for loop and a
// `for (name in iterable)` foreach loop by looking for the `in` keyword
// after the first identifier.
func (p *parser) parseForStmt() ast.Stmt {
	forPos := p.expect(token.FOR)
	p.expect(token.LPAREN)

	if p.tok == token.IDENT {
		namePos, name := p.val.Pos, p.val.Raw
		// speculatively scan one token ahead to disambiguate `name in iterable`
		// from the start of a normal for-init expression.
		snap := p.scanner.Snapshot()
		savedTok, savedVal := p.tok, p.val
		p.advance()
		if p.tok == token.IN {
			p.advance()
			in := p.parseExpr()
			p.expect(token.RPAREN)
			body := p.parseBlock()
			return &ast.ForInStmt{ForPos: forPos, NamePos: namePos, Name: name, In: in, Body: body}
		}
		p.scanner.Restore(snap)
		p.tok, p.val = savedTok, savedVal
	}

	return p.parseForThreePartStmt(forPos)
}

func (p *parser) parseForThreePartStmt(forPos token.Pos) *ast.ForStmt {
	var stmt ast.ForStmt
	stmt.ForPos = forPos

	if p.tok == token.SEMI {
		p.advance()
	} else if tokenIn(p.tok, token.VAR, token.CONST) {
		stmt.Init = p.parseVarStmt()
	} else {
		x := p.parseExpr()
		semi := p.expect(token.SEMI)
		stmt.Init = &ast.ExprStmt{X: x, Semi: semi}
	}

	if p.tok != token.SEMI {
		stmt.Cond = p.parseExpr()
	}
	p.expect(token.SEMI)

	if p.tok != token.RPAREN {
		stmt.Post = p.parseExpr()
	}
	p.expect(token.RPAREN)
	stmt.Body = p.parseBlock()
	return &stmt
}

func (p *parser) parseReturnStmt() *ast.ReturnStmt {
	var stmt ast.ReturnStmt
	stmt.ReturnPos = p.expect(token.RETURN)
	if p.tok != token.SEMI {
		stmt.Value = p.parseExpr()
	}
	stmt.Semi = p.expect(token.SEMI)
	return &stmt
}

func (p *parser) parsePrintStmt() *ast.PrintStmt {
	var stmt ast.PrintStmt
	stmt.PrintPos = p.expect(token.PRINT)
	stmt.Value = p.parseExpr()
	stmt.Semi = p.expect(token.SEMI)
	return &stmt
}

func (p *parser) parseBreakStmt() *ast.BreakStmt {
	var stmt ast.BreakStmt
	stmt.BreakPos = p.expect(token.BREAK)
	stmt.Semi = p.expect(token.SEMI)
	return &stmt
}

func (p *parser) parseContinueStmt() *ast.ContinueStmt {
	var stmt ast.ContinueStmt
	stmt.ContinuePos = p.expect(token.CONTINUE)
	stmt.Semi = p.expect(token.SEMI)
	return &stmt
}

func (p *parser) parseExprStmt() *ast.ExprStmt {
	x := p.parseExpr()
	semi := p.expect(token.SEMI)
	return &ast.ExprStmt{X: x, Semi: semi}
}
