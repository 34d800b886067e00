package resolver

import (
	"fmt"

	"github.com/vellum-lang/vellum/lang/ast"
	"github.com/vellum-lang/vellum/lang/types"
)

// Scope classifies how a name was bound.
type Scope uint8

const (
	Undefined   Scope = iota // name is not defined
	Local                    // name is local to its function
	Cell                     // name is function-local but captured by a nested function
	Free                     // name is a cell of some enclosing function
	Global                   // name is declared at chunk (top-level) scope
	Predeclared              // name is provided to the environment (native bindings)
)

var scopeNames = [...]string{
	Undefined:   "undefined",
	Local:       "local",
	Cell:        "cell",
	Free:        "free",
	Global:      "global",
	Predeclared: "predeclared",
}

func (s Scope) String() string {
	if int(s) >= len(scopeNames) {
		return fmt.Sprintf("<invalid Scope %d>", s)
	}
	return scopeNames[s]
}

// Binding ties together every reference to one declared name.
type Binding struct {
	Scope Scope
	Const bool
	Name  string
	Type  types.Type

	// Index records the position in the enclosing function's Locals (when
	// Scope==Local or Cell) or FreeVars (when Scope==Free).
	Index int

	Decl ast.Node

	// Overloads is non-nil when this binding names a (possibly single-arm)
	// overloaded function, so a call site can dispatch on argument types.
	Overloads *types.OverloadSet
}

// FuncKind distinguishes how a function body should typecheck `this`,
// `base`, and the implicit constructor return.
type FuncKind uint8

const (
	FuncNone FuncKind = iota
	FuncFunction
	FuncMethod
	FuncConstructor
)

// ClassKind tracks whether the current scope is inside a class body, and
// whether that class has a base (so `base.member` is legal).
type ClassKind uint8

const (
	ClassNone ClassKind = iota
	ClassPlain
	ClassInherited
)

// Function collects one function/method/chunk's locals and captured cells,
// used by the compiler to size call frames and emit closure-creation code.
type Function struct {
	Definition ast.Node
	Kind       FuncKind
	Locals     []*Binding
	FreeVars   []*Binding
	Params     []types.Type
	Return     types.Type // nil until inferred, for a still-resolving recursive function

	loopDepth int
}

// CallBinding records the result of overload dispatch for one call site.
type CallBinding struct {
	Overload *types.Overload
	ArgTypes []types.Type
}

// OperatorBinding records that a binary expression was rewritten into a
// method call on its left operand (operator overloading).
type OperatorBinding struct {
	Method *types.Overload
}
