// Package ast defines the types that represent the abstract syntax tree
// (AST) of the vellum language: a tagged union of statement and expression
// node types, connected by a Visitor-based Walk, plus a pretty-printer used
// by the `parse` and `resolve` CLI commands.
package ast

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vellum-lang/vellum/lang/token"
)

// Node represents any node in the AST.
type Node interface {
	// Every Node implements fmt.Formatter so it can print a description of
	// itself. Only the 'v' and 's' verbs are supported; '#' prints child
	// counts, a width truncates or left-pads (right-pads with '-').
	fmt.Formatter

	// Span reports the start and end position of the node.
	Span() (start, end token.Pos)

	// Walk enters each child node to implement the Visitor pattern.
	Walk(v Visitor)
}

// Expr represents an expression in the AST.
type Expr interface {
	Node
	expr()
}

// Stmt represents a statement in the AST.
type Stmt interface {
	Node
	// BlockEnding reports whether the statement may only appear as the last
	// statement of a block (return, break or continue).
	BlockEnding() bool
}

// Chunk is the root of a parsed source file.
type Chunk struct {
	Name  string // filename, may be empty if not backed by a file
	Block *Block
	EOF   token.Pos
}

// Block is a brace-delimited sequence of statements.
type Block struct {
	Lbrace token.Pos
	Stmts  []Stmt
	Rbrace token.Pos
}

func (n *Chunk) Format(f fmt.State, verb rune) {
	lbl := "chunk"
	if n.Name != "" {
		lbl += " " + n.Name
	}
	format(f, verb, n, lbl, nil)
}
func (n *Chunk) Span() (start, end token.Pos) {
	if n.Block != nil {
		return n.Block.Span()
	}
	return n.EOF, n.EOF
}
func (n *Chunk) Walk(v Visitor) {
	if n.Block != nil {
		Walk(v, n.Block)
	}
}

func (n *Block) Format(f fmt.State, verb rune) {
	format(f, verb, n, "block", map[string]int{"stmts": len(n.Stmts)})
}
func (n *Block) Span() (start, end token.Pos) { return n.Lbrace, n.Rbrace }
func (n *Block) Walk(v Visitor) {
	for _, s := range n.Stmts {
		Walk(v, s)
	}
}
func (n *Block) BlockEnding() bool { return false }

// format implements the common fmt.Formatter body shared by every node: it
// renders label, optionally padded/truncated to a requested width, and
// appends a "{k=v, ...}" child-count suffix when the '#' flag is set.
func format(f fmt.State, verb rune, n Node, label string, counts map[string]int) {
	if verb != 'v' && verb != 's' {
		fmt.Fprintf(f, "%%!%c(%T)", verb, n)
		return
	}

	label = strings.ReplaceAll(label, "\n", "⏎")
	label = strings.ReplaceAll(label, "\t", "⭾")

	if w, ok := f.Width(); ok {
		minus := f.Flag('-')
		runes := []rune(label)
		switch {
		case len(runes) >= w:
			runes = runes[:w]
		case minus:
			runes = append(runes, []rune(strings.Repeat(" ", w-len(runes)))...)
		default:
			runes = append([]rune(strings.Repeat(" ", w-len(runes))), runes...)
		}
		label = string(runes)
	}

	fmt.Fprint(f, label)
	if f.Flag('#') && len(counts) > 0 {
		keys := make([]string, 0, len(counts))
		for k := range counts {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Fprint(f, " {")
		for i, k := range keys {
			if i > 0 {
				fmt.Fprint(f, ", ")
			}
			fmt.Fprintf(f, "%s=%d", k, counts[k])
		}
		fmt.Fprint(f, "}")
	}
}

// Unwrap returns the expression inside nested ParenExpr wrappers.
func Unwrap(e Expr) Expr {
	for {
		pe, ok := e.(*ParenExpr)
		if !ok {
			return e
		}
		e = pe.Expr
	}
}

// IsAssignable reports whether e is a valid assignment target: an
// identifier, a field selector, or a container index, recursively.
func IsAssignable(e Expr) bool {
	switch e := e.(type) {
	case *IdentExpr:
		return true
	case *DotExpr:
		return IsAssignable(Unwrap(e.Left))
	case *IndexExpr:
		return e.High == nil && IsAssignable(Unwrap(e.Prefix))
	default:
		return false
	}
}
