package ast

import (
	"fmt"

	"github.com/vellum-lang/vellum/lang/token"
)

func (*VarStmt) BlockEnding() bool      { return false }
func (*FuncStmt) BlockEnding() bool     { return false }
func (*ClassStmt) BlockEnding() bool    { return false }
func (*IfStmt) BlockEnding() bool       { return false }
func (*WhileStmt) BlockEnding() bool    { return false }
func (*ForStmt) BlockEnding() bool      { return false }
func (*ForInStmt) BlockEnding() bool    { return false }
func (*ReturnStmt) BlockEnding() bool   { return true }
func (*PrintStmt) BlockEnding() bool    { return false }
func (*ExprStmt) BlockEnding() bool     { return false }
func (*BreakStmt) BlockEnding() bool    { return true }
func (*ContinueStmt) BlockEnding() bool { return true }
func (*BadStmt) BlockEnding() bool      { return false }

// Param is a single function parameter: a name and an optional declared
// type (nil when the resolver should infer it from usage/overload context).
type Param struct {
	NamePos token.Pos
	Name    string
	Type    TypeExpr // may be nil
}

// FuncSignature is the parameter list and optional return type shared by
// FuncStmt, FuncExpr and method declarations inside a ClassBody.
type FuncSignature struct {
	Lparen  token.Pos
	Params  []Param
	Rparen  token.Pos
	Arrow   token.Pos // NoPos if there is no declared return type
	RetType TypeExpr  // may be nil
}

func (n *FuncSignature) Format(f fmt.State, verb rune) {
	format(f, verb, n, "signature", map[string]int{"params": len(n.Params)})
}
func (n *FuncSignature) Span() (start, end token.Pos) {
	if n.RetType != nil {
		_, end = n.RetType.Span()
	} else {
		end = n.Rparen + 1
	}
	return n.Lparen, end
}
func (n *FuncSignature) Walk(v Visitor) {
	for _, p := range n.Params {
		if p.Type != nil {
			Walk(v, p.Type)
		}
	}
	if n.RetType != nil {
		Walk(v, n.RetType)
	}
}

// VarStmt is a `var name = init;` (or `const name = init;`) declaration.
type VarStmt struct {
	VarPos  token.Pos
	Const   bool
	NamePos token.Pos
	Name    string
	Type    TypeExpr // may be nil
	Eq      token.Pos
	Init    Expr // may be nil
	Semi    token.Pos
}

func (n *VarStmt) Format(f fmt.State, verb rune) {
	kw := "var"
	if n.Const {
		kw = "const"
	}
	format(f, verb, n, kw+" "+n.Name, nil)
}
func (n *VarStmt) Span() (start, end token.Pos) { return n.VarPos, n.Semi + 1 }
func (n *VarStmt) Walk(v Visitor) {
	if n.Type != nil {
		Walk(v, n.Type)
	}
	if n.Init != nil {
		Walk(v, n.Init)
	}
}

// FuncStmt is a named function declaration: `fun name(params) { ... }`.
type FuncStmt struct {
	FunPos  token.Pos
	NamePos token.Pos
	Name    string
	Sig     *FuncSignature
	Body    *Block
}

func (n *FuncStmt) Format(f fmt.State, verb rune) {
	format(f, verb, n, "fun "+n.Name, map[string]int{"params": len(n.Sig.Params)})
}
func (n *FuncStmt) Span() (start, end token.Pos) {
	_, end = n.Body.Span()
	return n.FunPos, end
}
func (n *FuncStmt) Walk(v Visitor) {
	Walk(v, n.Sig)
	Walk(v, n.Body)
}

// OperatorDecl is an operator-overload method inside a class body, e.g.
// `operator +(other) { ... }`.
type OperatorDecl struct {
	OpPos token.Pos
	Op    token.Token
	Sig   *FuncSignature
	Body  *Block
}

func (n *OperatorDecl) Format(f fmt.State, verb rune) {
	format(f, verb, n, "operator "+n.Op.String(), nil)
}
func (n *OperatorDecl) Span() (start, end token.Pos) {
	_, end = n.Body.Span()
	return n.OpPos, end
}
func (n *OperatorDecl) Walk(v Visitor) {
	Walk(v, n.Sig)
	Walk(v, n.Body)
}

// ClassBody holds the member declarations of a class: fields, the optional
// constructor, methods (in declaration order, overloads of one name not
// grouped) and operator overloads.
type ClassBody struct {
	Lbrace      token.Pos
	Fields      []*VarStmt
	Constructor *FuncStmt // nil if the class has no explicit constructor
	Methods     []*FuncStmt
	Operators   []*OperatorDecl
	Rbrace      token.Pos
}

func (n *ClassBody) Format(f fmt.State, verb rune) {
	format(f, verb, n, "class-body", map[string]int{
		"fields": len(n.Fields), "methods": len(n.Methods), "operators": len(n.Operators),
	})
}
func (n *ClassBody) Span() (start, end token.Pos) { return n.Lbrace, n.Rbrace + 1 }
func (n *ClassBody) Walk(v Visitor) {
	for _, fld := range n.Fields {
		Walk(v, fld)
	}
	if n.Constructor != nil {
		Walk(v, n.Constructor)
	}
	for _, m := range n.Methods {
		Walk(v, m)
	}
	for _, op := range n.Operators {
		Walk(v, op)
	}
}

// ClassStmt is a class declaration, with an optional base class.
type ClassStmt struct {
	ClassPos token.Pos
	NamePos  token.Pos
	Name     string
	BasePos  token.Pos // NoPos if there is no base class
	Base     string
	Body     *ClassBody
}

func (n *ClassStmt) Format(f fmt.State, verb rune) {
	lbl := "class " + n.Name
	if n.Base != "" {
		lbl += " : " + n.Base
	}
	format(f, verb, n, lbl, nil)
}
func (n *ClassStmt) Span() (start, end token.Pos) {
	_, end = n.Body.Span()
	return n.ClassPos, end
}
func (n *ClassStmt) Walk(v Visitor) { Walk(v, n.Body) }

// IfStmt is an `if (cond) then [else els]` statement.
type IfStmt struct {
	IfPos token.Pos
	Cond  Expr
	Then  *Block
	Else  Stmt // *Block or *IfStmt (else-if chain), may be nil
}

func (n *IfStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "if", nil) }
func (n *IfStmt) Span() (start, end token.Pos) {
	if n.Else != nil {
		_, end = n.Else.Span()
	} else {
		_, end = n.Then.Span()
	}
	return n.IfPos, end
}
func (n *IfStmt) Walk(v Visitor) {
	Walk(v, n.Cond)
	Walk(v, n.Then)
	if n.Else != nil {
		Walk(v, n.Else)
	}
}

// WhileStmt is a `while (cond) body` loop.
type WhileStmt struct {
	WhilePos token.Pos
	Cond     Expr
	Body     *Block
}

func (n *WhileStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "while", nil) }
func (n *WhileStmt) Span() (start, end token.Pos) {
	_, end = n.Body.Span()
	return n.WhilePos, end
}
func (n *WhileStmt) Walk(v Visitor) {
	Walk(v, n.Cond)
	Walk(v, n.Body)
}

// ForStmt is a C-style `for (init; cond; post) body` loop. Init, Cond and
// Post are each individually optional.
type ForStmt struct {
	ForPos token.Pos
	Init   Stmt // *VarStmt, *ExprStmt, or nil
	Cond   Expr // may be nil
	Post   Expr // may be nil
	Body   *Block
}

func (n *ForStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "for", nil) }
func (n *ForStmt) Span() (start, end token.Pos) {
	_, end = n.Body.Span()
	return n.ForPos, end
}
func (n *ForStmt) Walk(v Visitor) {
	if n.Init != nil {
		Walk(v, n.Init)
	}
	if n.Cond != nil {
		Walk(v, n.Cond)
	}
	if n.Post != nil {
		Walk(v, n.Post)
	}
	Walk(v, n.Body)
}

// ForInStmt is a `for (name in iterable) body` foreach loop.
type ForInStmt struct {
	ForPos  token.Pos
	NamePos token.Pos
	Name    string
	In      Expr
	Body    *Block
}

func (n *ForInStmt) Format(f fmt.State, verb rune) {
	format(f, verb, n, "for-in "+n.Name, nil)
}
func (n *ForInStmt) Span() (start, end token.Pos) {
	_, end = n.Body.Span()
	return n.ForPos, end
}
func (n *ForInStmt) Walk(v Visitor) {
	Walk(v, n.In)
	Walk(v, n.Body)
}

// ReturnStmt is a `return [value];` statement.
type ReturnStmt struct {
	ReturnPos token.Pos
	Value     Expr // may be nil
	Semi      token.Pos
}

func (n *ReturnStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "return", nil) }
func (n *ReturnStmt) Span() (start, end token.Pos)  { return n.ReturnPos, n.Semi + 1 }
func (n *ReturnStmt) Walk(v Visitor) {
	if n.Value != nil {
		Walk(v, n.Value)
	}
}

// PrintStmt is a `print expr;` statement.
type PrintStmt struct {
	PrintPos token.Pos
	Value    Expr
	Semi     token.Pos
}

func (n *PrintStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "print", nil) }
func (n *PrintStmt) Span() (start, end token.Pos)  { return n.PrintPos, n.Semi + 1 }
func (n *PrintStmt) Walk(v Visitor)                { Walk(v, n.Value) }

// ExprStmt is an expression evaluated for its side effects, e.g. a call or
// an assignment.
type ExprStmt struct {
	X    Expr
	Semi token.Pos
}

func (n *ExprStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "expr-stmt", nil) }
func (n *ExprStmt) Span() (start, end token.Pos)  { start, _ = n.X.Span(); return start, n.Semi + 1 }
func (n *ExprStmt) Walk(v Visitor)                { Walk(v, n.X) }

// BreakStmt is a `break;` statement, valid only inside a loop body.
type BreakStmt struct {
	BreakPos token.Pos
	Semi     token.Pos
}

func (n *BreakStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "break", nil) }
func (n *BreakStmt) Span() (start, end token.Pos)  { return n.BreakPos, n.Semi + 1 }
func (n *BreakStmt) Walk(Visitor)                  {}

// ContinueStmt is a `continue;` statement, valid only inside a loop body.
type ContinueStmt struct {
	ContinuePos token.Pos
	Semi        token.Pos
}

func (n *ContinueStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "continue", nil) }
func (n *ContinueStmt) Span() (start, end token.Pos)  { return n.ContinuePos, n.Semi + 1 }
func (n *ContinueStmt) Walk(Visitor)                  {}

// BadStmt is a placeholder for a syntactically invalid statement, produced
// during panic-mode error recovery.
type BadStmt struct {
	From, To token.Pos
}

func (n *BadStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "bad-stmt", nil) }
func (n *BadStmt) Span() (start, end token.Pos)  { return n.From, n.To }
func (n *BadStmt) Walk(Visitor)                  {}
