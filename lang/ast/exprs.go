package ast

import (
	"fmt"

	"github.com/vellum-lang/vellum/lang/token"
)

func (*IdentExpr) expr()   {}
func (*LiteralExpr) expr() {}
func (*ThisExpr) expr()    {}
func (*BaseExpr) expr()    {}
func (*ParenExpr) expr()   {}
func (*ListExpr) expr()    {}
func (*MapExpr) expr()     {}
func (*IndexExpr) expr()   {}
func (*CallExpr) expr()    {}
func (*DotExpr) expr()     {}
func (*UnaryExpr) expr()   {}
func (*PostfixExpr) expr() {}
func (*BinaryExpr) expr()  {}
func (*TernaryExpr) expr() {}
func (*CommaExpr) expr()   {}
func (*AssignExpr) expr()  {}
func (*FuncExpr) expr()    {}
func (*BadExpr) expr()     {}

// IdentExpr is a bare identifier reference, e.g. `x`.
type IdentExpr struct {
	NamePos token.Pos
	Name    string
}

func (n *IdentExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "ident "+n.Name, nil) }
func (n *IdentExpr) Span() (start, end token.Pos) {
	return n.NamePos, n.NamePos + token.Pos(len(n.Name))
}
func (n *IdentExpr) Walk(Visitor) {}

// LiteralKind distinguishes the scalar literal kinds.
type LiteralKind int

const (
	IntLit LiteralKind = iota
	FloatLit
	StringLit
	BoolLit
	NilLit
)

// LiteralExpr is a scalar constant: an int, float, string, bool or nil.
type LiteralExpr struct {
	ValuePos token.Pos
	ValueEnd token.Pos
	Kind     LiteralKind
	Raw      string
	Value    interface{} // int64 | float64 | string | bool | nil
}

func (n *LiteralExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, fmt.Sprintf("literal %v", n.Value), nil)
}
func (n *LiteralExpr) Span() (start, end token.Pos) { return n.ValuePos, n.ValueEnd }
func (n *LiteralExpr) Walk(Visitor)                 {}

// ThisExpr is a `this` reference inside a method body.
type ThisExpr struct {
	ThisPos token.Pos
}

func (n *ThisExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "this", nil) }
func (n *ThisExpr) Span() (start, end token.Pos)  { return n.ThisPos, n.ThisPos + 4 }
func (n *ThisExpr) Walk(Visitor)                  {}

// BaseExpr is a `base.member` super-call reference.
type BaseExpr struct {
	BasePos token.Pos
	Dot     token.Pos
	Member  string
}

func (n *BaseExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "base."+n.Member, nil)
}
func (n *BaseExpr) Span() (start, end token.Pos) {
	return n.BasePos, n.Dot + token.Pos(len(n.Member)) + 1
}
func (n *BaseExpr) Walk(Visitor) {}

// ParenExpr is a parenthesized expression, kept in the tree so source spans
// and pretty-printing round-trip precisely.
type ParenExpr struct {
	Lparen token.Pos
	Expr   Expr
	Rparen token.Pos
}

func (n *ParenExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "paren", nil) }
func (n *ParenExpr) Span() (start, end token.Pos)  { return n.Lparen, n.Rparen + 1 }
func (n *ParenExpr) Walk(v Visitor)                { Walk(v, n.Expr) }

// ListExpr is a list literal, e.g. `[1, 2, 3]`.
type ListExpr struct {
	Lbrack token.Pos
	Elems  []Expr
	Rbrack token.Pos
}

func (n *ListExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "list", map[string]int{"elems": len(n.Elems)})
}
func (n *ListExpr) Span() (start, end token.Pos) { return n.Lbrack, n.Rbrack + 1 }
func (n *ListExpr) Walk(v Visitor) {
	for _, e := range n.Elems {
		Walk(v, e)
	}
}

// KeyVal is a single `key: value` entry of a MapExpr.
type KeyVal struct {
	Key   Expr
	Colon token.Pos
	Value Expr
}

// MapExpr is a map literal, e.g. `{"a": 1, "b": 2}`.
type MapExpr struct {
	Lbrace token.Pos
	Elems  []KeyVal
	Rbrace token.Pos
}

func (n *MapExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "map", map[string]int{"elems": len(n.Elems)})
}
func (n *MapExpr) Span() (start, end token.Pos) { return n.Lbrace, n.Rbrace + 1 }
func (n *MapExpr) Walk(v Visitor) {
	for _, kv := range n.Elems {
		Walk(v, kv.Key)
		Walk(v, kv.Value)
	}
}

// IndexExpr is a container index or slice, e.g. `xs[0]` or `xs[1:3]`. High
// is non-nil only for a slice expression.
type IndexExpr struct {
	Prefix Expr
	Lbrack token.Pos
	Low    Expr      // may be nil (e.g. `xs[:3]`)
	Colon  token.Pos // NoPos unless this is a slice
	High   Expr      // nil unless this is a slice
	Rbrack token.Pos
}

func (n *IndexExpr) Format(f fmt.State, verb rune) {
	lbl := "index"
	if n.Colon != token.NoPos {
		lbl = "slice"
	}
	format(f, verb, n, lbl, nil)
}
func (n *IndexExpr) Span() (start, end token.Pos) {
	start, _ = n.Prefix.Span()
	return start, n.Rbrack + 1
}
func (n *IndexExpr) Walk(v Visitor) {
	Walk(v, n.Prefix)
	if n.Low != nil {
		Walk(v, n.Low)
	}
	if n.High != nil {
		Walk(v, n.High)
	}
}

// CallExpr is a function or method call, e.g. `f(1, 2)`.
type CallExpr struct {
	Fun    Expr
	Lparen token.Pos
	Args   []Expr
	Rparen token.Pos
}

func (n *CallExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "call", map[string]int{"args": len(n.Args)})
}
func (n *CallExpr) Span() (start, end token.Pos) {
	start, _ = n.Fun.Span()
	return start, n.Rparen + 1
}
func (n *CallExpr) Walk(v Visitor) {
	Walk(v, n.Fun)
	for _, a := range n.Args {
		Walk(v, a)
	}
}

// DotExpr is a field/method selector, e.g. `obj.field`.
type DotExpr struct {
	Left   Expr
	Dot    token.Pos
	Member string
}

func (n *DotExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "dot ."+n.Member, nil) }
func (n *DotExpr) Span() (start, end token.Pos) {
	start, _ = n.Left.Span()
	return start, n.Dot + token.Pos(len(n.Member)) + 1
}
func (n *DotExpr) Walk(v Visitor) { Walk(v, n.Left) }

// UnaryExpr is a prefix operator application: `-x`, `!x`, `++x`, `--x`.
type UnaryExpr struct {
	OpPos token.Pos
	Op    token.Token
	X     Expr
}

func (n *UnaryExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "unary "+n.Op.String(), nil)
}
func (n *UnaryExpr) Span() (start, end token.Pos) {
	_, end = n.X.Span()
	return n.OpPos, end
}
func (n *UnaryExpr) Walk(v Visitor) { Walk(v, n.X) }

// PostfixExpr is a postfix operator application: `x++`, `x--`.
type PostfixExpr struct {
	X     Expr
	Op    token.Token
	OpPos token.Pos
}

func (n *PostfixExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "postfix "+n.Op.String(), nil)
}
func (n *PostfixExpr) Span() (start, end token.Pos) {
	start, _ = n.X.Span()
	return start, n.OpPos + 2
}
func (n *PostfixExpr) Walk(v Visitor) { Walk(v, n.X) }

// BinaryExpr is an infix binary operator application.
type BinaryExpr struct {
	Left  Expr
	OpPos token.Pos
	Op    token.Token
	Right Expr
}

func (n *BinaryExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "binary "+n.Op.String(), nil)
}
func (n *BinaryExpr) Span() (start, end token.Pos) {
	start, _ = n.Left.Span()
	_, end = n.Right.Span()
	return start, end
}
func (n *BinaryExpr) Walk(v Visitor) {
	Walk(v, n.Left)
	Walk(v, n.Right)
}

// TernaryExpr is the `cond ? then : els` conditional operator.
type TernaryExpr struct {
	Cond     Expr
	Question token.Pos
	Then     Expr
	Colon    token.Pos
	Else     Expr
}

func (n *TernaryExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "ternary", nil) }
func (n *TernaryExpr) Span() (start, end token.Pos) {
	start, _ = n.Cond.Span()
	_, end = n.Else.Span()
	return start, end
}
func (n *TernaryExpr) Walk(v Visitor) {
	Walk(v, n.Cond)
	Walk(v, n.Then)
	Walk(v, n.Else)
}

// CommaExpr is the comma operator, e.g. `a, b, c`: each operand is evaluated
// left to right and the expression yields the value of the last one.
type CommaExpr struct {
	Exprs []Expr
}

func (n *CommaExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "comma", map[string]int{"exprs": len(n.Exprs)})
}
func (n *CommaExpr) Span() (start, end token.Pos) {
	start, _ = n.Exprs[0].Span()
	_, end = n.Exprs[len(n.Exprs)-1].Span()
	return start, end
}
func (n *CommaExpr) Walk(v Visitor) {
	for _, e := range n.Exprs {
		Walk(v, e)
	}
}

// AssignExpr is a (possibly compound) assignment: `x = v`, `x += v`, etc.
// Op is EQ for a plain assignment, or the corresponding binary operator
// token (PLUS, MINUS, ...) for a compound one.
type AssignExpr struct {
	Target Expr
	OpPos  token.Pos
	Op     token.Token
	Value  Expr
}

func (n *AssignExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "assign "+n.Op.String(), nil)
}
func (n *AssignExpr) Span() (start, end token.Pos) {
	start, _ = n.Target.Span()
	_, end = n.Value.Span()
	return start, end
}
func (n *AssignExpr) Walk(v Visitor) {
	Walk(v, n.Target)
	Walk(v, n.Value)
}

// FuncExpr is an anonymous function literal, e.g. `fun(x) { return x; }`.
type FuncExpr struct {
	FunPos token.Pos
	Sig    *FuncSignature
	Body   *Block
}

func (n *FuncExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "func", map[string]int{"params": len(n.Sig.Params)})
}
func (n *FuncExpr) Span() (start, end token.Pos) {
	_, end = n.Body.Span()
	return n.FunPos, end
}
func (n *FuncExpr) Walk(v Visitor) {
	Walk(v, n.Sig)
	Walk(v, n.Body)
}

// BadExpr is a placeholder for a syntactically invalid expression,
// produced during panic-mode error recovery so that parsing can continue
// and the rest of the file is still checked.
type BadExpr struct {
	From, To token.Pos
}

func (n *BadExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "bad-expr", nil) }
func (n *BadExpr) Span() (start, end token.Pos)  { return n.From, n.To }
func (n *BadExpr) Walk(Visitor)                  {}
