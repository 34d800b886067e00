// Package interp implements a tree-walking evaluator of the resolved AST,
// as an alternative to the lang/compiler + lang/machine bytecode pipeline:
// the classic command runs a script straight off its parse tree instead of
// compiling it first, trading the VM's speed for a shorter path from
// source to result. It shares its runtime value representation
// (lang/machine.Value and friends) with the bytecode machine, so a host
// embedding sees identical types, truthiness and arithmetic from either
// evaluator.
package interp

import "github.com/vellum-lang/vellum/lang/machine"

// Environment is one lexical scope's variable bindings, chained to its
// enclosing scope. Unlike the bytecode compiler's slot-indexed locals,
// the tree-walking evaluator resolves a name by walking this chain at
// every reference, trading the compiler's upfront slot analysis for a
// much simpler evaluator with no Cells/Upvalues bookkeeping to get right.
type Environment struct {
	vars      map[string]machine.Value
	enclosing *Environment
}

// NewEnvironment creates a scope chained to enclosing, which may be nil for
// the outermost (global) scope.
func NewEnvironment(enclosing *Environment) *Environment {
	return &Environment{vars: map[string]machine.Value{}, enclosing: enclosing}
}

// Define introduces name in this scope, shadowing any binding of the same
// name in an enclosing scope.
func (e *Environment) Define(name string, v machine.Value) {
	e.vars[name] = v
}

// Get looks up name, walking outward through enclosing scopes.
func (e *Environment) Get(name string) (machine.Value, bool) {
	for env := e; env != nil; env = env.enclosing {
		if v, ok := env.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Assign sets an already-declared name, walking outward through enclosing
// scopes to find the one that declared it. It reports false if name was
// never declared anywhere in the chain.
func (e *Environment) Assign(name string, v machine.Value) bool {
	for env := e; env != nil; env = env.enclosing {
		if _, ok := env.vars[name]; ok {
			env.vars[name] = v
			return true
		}
	}
	return false
}
