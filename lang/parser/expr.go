package parser

import (
	"github.com/vellum-lang/vellum/lang/ast"
	"github.com/vellum-lang/vellum/lang/token"
)

// parseExpr parses a full expression, including the comma and assignment
// operators at the lowest precedence.
func (p *parser) parseExpr() ast.Expr {
	return p.parseCommaExpr()
}

// parseExprNoComma parses an expression without consuming top-level commas;
// used anywhere a comma is itself significant syntax (call args, list/map
// elements, for-loop clauses).
func (p *parser) parseExprNoComma() ast.Expr {
	return p.parseAssignExpr()
}

func (p *parser) parseCommaExpr() ast.Expr {
	first := p.parseAssignExpr()
	if p.tok != token.COMMA {
		return first
	}
	exprs := []ast.Expr{first}
	for p.tok == token.COMMA {
		p.advance()
		exprs = append(exprs, p.parseAssignExpr())
	}
	return &ast.CommaExpr{Exprs: exprs}
}

func (p *parser) parseAssignExpr() ast.Expr {
	left := p.parseTernaryExpr()
	if p.tok != token.EQ {
		return left
	}
	opPos := p.expect(token.EQ)
	if !ast.IsAssignable(ast.Unwrap(left)) {
		start, _ := left.Span()
		p.errorExpected(start, "assignable expression")
	}
	value := p.parseAssignExpr()
	return &ast.AssignExpr{Target: left, OpPos: opPos, Op: token.EQ, Value: value}
}

func (p *parser) parseTernaryExpr() ast.Expr {
	cond := p.parseOrExpr()
	if p.tok != token.QUESTION {
		return cond
	}
	q := p.expect(token.QUESTION)
	then := p.parseAssignExpr()
	colon := p.expect(token.COLON)
	els := p.parseAssignExpr()
	return &ast.TernaryExpr{Cond: cond, Question: q, Then: then, Colon: colon, Else: els}
}

func (p *parser) parseOrExpr() ast.Expr {
	left := p.parseAndExpr()
	for p.tok == token.OR {
		opPos := p.expect(token.OR)
		right := p.parseAndExpr()
		left = &ast.BinaryExpr{Left: left, OpPos: opPos, Op: token.OR, Right: right}
	}
	return left
}

func (p *parser) parseAndExpr() ast.Expr {
	left := p.parseEqualityExpr()
	for p.tok == token.AND {
		opPos := p.expect(token.AND)
		right := p.parseEqualityExpr()
		left = &ast.BinaryExpr{Left: left, OpPos: opPos, Op: token.AND, Right: right}
	}
	return left
}

func (p *parser) parseEqualityExpr() ast.Expr {
	left := p.parseComparisonExpr()
	for tokenIn(p.tok, token.EQEQ, token.BANGEQ) {
		op := p.tok
		opPos := p.expect(op)
		right := p.parseComparisonExpr()
		left = &ast.BinaryExpr{Left: left, OpPos: opPos, Op: op, Right: right}
	}
	return left
}

func (p *parser) parseComparisonExpr() ast.Expr {
	left := p.parseAdditiveExpr()
	for tokenIn(p.tok, token.LT, token.LE, token.GT, token.GE) {
		op := p.tok
		opPos := p.expect(op)
		right := p.parseAdditiveExpr()
		left = &ast.BinaryExpr{Left: left, OpPos: opPos, Op: op, Right: right}
	}
	return left
}

func (p *parser) parseAdditiveExpr() ast.Expr {
	left := p.parseMultiplicativeExpr()
	for tokenIn(p.tok, token.PLUS, token.MINUS) {
		op := p.tok
		opPos := p.expect(op)
		right := p.parseMultiplicativeExpr()
		left = &ast.BinaryExpr{Left: left, OpPos: opPos, Op: op, Right: right}
	}
	return left
}

func (p *parser) parseMultiplicativeExpr() ast.Expr {
	left := p.parsePowerExpr()
	for tokenIn(p.tok, token.STAR, token.SLASH, token.PERCENT) {
		op := p.tok
		opPos := p.expect(op)
		right := p.parsePowerExpr()
		left = &ast.BinaryExpr{Left: left, OpPos: opPos, Op: op, Right: right}
	}
	return left
}

// parsePowerExpr parses `**`, which is right-associative and binds tighter
// than unary minus on its left operand but allows a unary right operand
// (`2 ** -3`).
func (p *parser) parsePowerExpr() ast.Expr {
	left := p.parseUnaryExpr()
	if p.tok != token.STARSTAR {
		return left
	}
	opPos := p.expect(token.STARSTAR)
	right := p.parsePowerExpr()
	return &ast.BinaryExpr{Left: left, OpPos: opPos, Op: token.STARSTAR, Right: right}
}

func (p *parser) parseUnaryExpr() ast.Expr {
	if tokenIn(p.tok, token.MINUS, token.BANG, token.PLUSPLUS, token.MINUSMINUS) {
		op := p.tok
		opPos := p.expect(op)
		var x ast.Expr
		if op.IsIncDec() {
			x = p.parseUnaryExpr()
		} else {
			x = p.parsePowerExpr()
		}
		return &ast.UnaryExpr{OpPos: opPos, Op: op, X: x}
	}
	return p.parsePostfixExpr()
}

func (p *parser) parsePostfixExpr() ast.Expr {
	x := p.parseCallOrSuffixExpr()
	for p.tok.IsIncDec() {
		op := p.tok
		opPos := p.expect(op)
		x = &ast.PostfixExpr{X: x, Op: op, OpPos: opPos}
	}
	return x
}

func (p *parser) parseCallOrSuffixExpr() ast.Expr {
	x := p.parsePrimaryExpr()
loop:
	for {
		switch p.tok {
		case token.DOT:
			x = p.parseDotExpr(x)
		case token.LBRACK:
			x = p.parseIndexExpr(x)
		case token.LPAREN:
			x = p.parseCallExpr(x)
		default:
			break loop
		}
	}
	return x
}

func (p *parser) parseDotExpr(left ast.Expr) ast.Expr {
	dot := p.expect(token.DOT)
	member := p.val.Raw
	p.expect(token.IDENT)
	return &ast.DotExpr{Left: left, Dot: dot, Member: member}
}

func (p *parser) parseIndexExpr(prefix ast.Expr) ast.Expr {
	var expr ast.IndexExpr
	expr.Prefix = prefix
	expr.Lbrack = p.expect(token.LBRACK)

	if p.tok != token.COLON {
		expr.Low = p.parseExprNoComma()
	}
	if p.tok == token.COLON {
		expr.Colon = p.expect(token.COLON)
		if p.tok != token.RBRACK {
			expr.High = p.parseExprNoComma()
		}
	}
	expr.Rbrack = p.expect(token.RBRACK)
	return &expr
}

func (p *parser) parseCallExpr(fun ast.Expr) ast.Expr {
	var expr ast.CallExpr
	expr.Fun = fun
	expr.Lparen = p.expect(token.LPAREN)
	if p.tok != token.RPAREN {
		expr.Args = append(expr.Args, p.parseExprNoComma())
		for p.tok == token.COMMA {
			p.advance()
			expr.Args = append(expr.Args, p.parseExprNoComma())
		}
	}
	expr.Rparen = p.expect(token.RPAREN)
	return &expr
}

func (p *parser) parsePrimaryExpr() ast.Expr {
	switch p.tok {
	case token.INT:
		lit := &ast.LiteralExpr{ValuePos: p.val.Pos, Kind: ast.IntLit, Raw: p.val.Raw, Value: p.val.Int}
		p.advance()
		lit.ValueEnd = p.val.Pos
		return lit

	case token.FLOAT:
		lit := &ast.LiteralExpr{ValuePos: p.val.Pos, Kind: ast.FloatLit, Raw: p.val.Raw, Value: p.val.Float}
		p.advance()
		lit.ValueEnd = p.val.Pos
		return lit

	case token.STRING:
		lit := &ast.LiteralExpr{ValuePos: p.val.Pos, Kind: ast.StringLit, Raw: p.val.Raw, Value: p.val.String}
		p.advance()
		lit.ValueEnd = p.val.Pos
		return lit

	case token.TRUE, token.FALSE:
		pos := p.val.Pos
		v := p.tok == token.TRUE
		p.advance()
		return &ast.LiteralExpr{ValuePos: pos, ValueEnd: p.val.Pos, Kind: ast.BoolLit, Value: v}

	case token.NIL:
		pos := p.val.Pos
		p.advance()
		return &ast.LiteralExpr{ValuePos: pos, ValueEnd: p.val.Pos, Kind: ast.NilLit}

	case token.IDENT:
		return p.parseIdentExpr()

	case token.THIS:
		pos := p.expect(token.THIS)
		return &ast.ThisExpr{ThisPos: pos}

	case token.BASE:
		basePos := p.expect(token.BASE)
		dot := p.expect(token.DOT)
		member := p.val.Raw
		p.expect(token.IDENT)
		return &ast.BaseExpr{BasePos: basePos, Dot: dot, Member: member}

	case token.LPAREN:
		lparen := p.expect(token.LPAREN)
		inner := p.parseExpr()
		rparen := p.expect(token.RPAREN)
		return &ast.ParenExpr{Lparen: lparen, Expr: inner, Rparen: rparen}

	case token.LBRACK:
		return p.parseListExpr()

	case token.LBRACE:
		return p.parseMapExpr()

	case token.FUN:
		return p.parseFuncExpr()

	default:
		pos := p.val.Pos
		p.errorExpected(pos, "expression")
		panic(errPanicMode)
	}
}

func (p *parser) parseListExpr() ast.Expr {
	var expr ast.ListExpr
	expr.Lbrack = p.expect(token.LBRACK)
	for p.tok != token.RBRACK && p.tok != token.EOF {
		expr.Elems = append(expr.Elems, p.parseExprNoComma())
		if p.tok == token.COMMA {
			p.advance()
		} else {
			break
		}
	}
	expr.Rbrack = p.expect(token.RBRACK)
	return &expr
}

func (p *parser) parseMapExpr() ast.Expr {
	var expr ast.MapExpr
	expr.Lbrace = p.expect(token.LBRACE)
	for p.tok != token.RBRACE && p.tok != token.EOF {
		key := p.parseExprNoComma()
		colon := p.expect(token.COLON)
		value := p.parseExprNoComma()
		expr.Elems = append(expr.Elems, ast.KeyVal{Key: key, Colon: colon, Value: value})
		if p.tok == token.COMMA {
			p.advance()
		} else {
			break
		}
	}
	expr.Rbrace = p.expect(token.RBRACE)
	return &expr
}

func (p *parser) parseFuncExpr() ast.Expr {
	funPos := p.expect(token.FUN)
	sig := p.parseFuncSignature()
	body := p.parseBlock()
	return &ast.FuncExpr{FunPos: funPos, Sig: sig, Body: body}
}
