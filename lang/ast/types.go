package ast

import (
	"fmt"
	"strings"

	"github.com/vellum-lang/vellum/lang/token"
)

// TypeExpr is a node appearing in type-annotation position: a parameter
// type, a return type, or a field/variable declared type.
type TypeExpr interface {
	Node
	typeExpr()
}

func (*NamedTypeExpr) typeExpr()   {}
func (*GenericTypeExpr) typeExpr() {}
func (*UnionTypeExpr) typeExpr()   {}

// NamedTypeExpr is a bare type name: `int`, `string`, `Animal`, `any`.
type NamedTypeExpr struct {
	NamePos token.Pos
	Name    string
}

func (n *NamedTypeExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "type "+n.Name, nil) }
func (n *NamedTypeExpr) Span() (start, end token.Pos) {
	return n.NamePos, n.NamePos + token.Pos(len(n.Name))
}
func (n *NamedTypeExpr) Walk(Visitor) {}

// GenericTypeExpr is a parameterized type: `list[int]`, `map[string, int]`.
type GenericTypeExpr struct {
	NamePos token.Pos
	Name    string
	Lbrack  token.Pos
	Args    []TypeExpr
	Rbrack  token.Pos
}

func (n *GenericTypeExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "generic-type "+n.Name, map[string]int{"args": len(n.Args)})
}
func (n *GenericTypeExpr) Span() (start, end token.Pos) { return n.NamePos, n.Rbrack + 1 }
func (n *GenericTypeExpr) Walk(v Visitor) {
	for _, a := range n.Args {
		Walk(v, a)
	}
}

// UnionTypeExpr is a `T1 | T2 | ...` union type.
type UnionTypeExpr struct {
	Alts []TypeExpr
}

func (n *UnionTypeExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "union-type", map[string]int{"alts": len(n.Alts)})
}
func (n *UnionTypeExpr) Span() (start, end token.Pos) {
	start, _ = n.Alts[0].Span()
	_, end = n.Alts[len(n.Alts)-1].Span()
	return start, end
}
func (n *UnionTypeExpr) Walk(v Visitor) {
	for _, a := range n.Alts {
		Walk(v, a)
	}
}

// String renders a TypeExpr back to source-like text, used in diagnostics.
func String(t TypeExpr) string {
	switch t := t.(type) {
	case *NamedTypeExpr:
		return t.Name
	case *GenericTypeExpr:
		parts := make([]string, len(t.Args))
		for i, a := range t.Args {
			parts[i] = String(a)
		}
		return t.Name + "[" + strings.Join(parts, ", ") + "]"
	case *UnionTypeExpr:
		parts := make([]string, len(t.Alts))
		for i, a := range t.Alts {
			parts[i] = String(a)
		}
		return strings.Join(parts, " | ")
	default:
		return "<invalid type>"
	}
}
