package resolver

import (
	"github.com/vellum-lang/vellum/lang/ast"
	"github.com/vellum-lang/vellum/lang/token"
	"github.com/vellum-lang/vellum/lang/types"
)

// bind declares a new name in the current block. Redeclaring a name already
// bound in the same block is an error (shadowing is only legal in a child
// block).
func (r *resolver) bind(pos token.Pos, name string, isConst bool, typ types.Type, decl ast.Node) *Binding {
	if _, ok := r.env.bindings[name]; ok {
		r.errorf(pos, "already declared in this block: %s", name)
	}

	scope := Local
	if r.env.parent == nil {
		scope = Global
	}
	bdg := &Binding{Scope: scope, Const: isConst, Name: name, Type: typ, Decl: decl}
	if scope == Local {
		bdg.Index = len(r.env.fn.Locals)
		r.env.fn.Locals = append(r.env.fn.Locals, bdg)
	}
	r.env.bindings[name] = bdg
	if scope == Global {
		r.globals[name] = bdg
	}
	return bdg
}

// use resolves an identifier reference, walking the scope chain outward.
// Crossing a function boundary to reach the defining scope promotes that
// binding to a Cell and records it in the current function's FreeVars only,
// binding the name there as Free; the compiler's resolveUpvalue threads the
// capture through any intermediate functions.
func (r *resolver) use(ident *ast.IdentExpr) *Binding {
	startFn := r.env.fn
	for env := r.env; env != nil; env = env.parent {
		bdg := env.bindings[ident.Name]
		if bdg == nil {
			continue
		}
		if env.fn != startFn {
			if bdg.Scope == Local {
				bdg.Scope = Cell
			}
			ix := len(r.env.fn.FreeVars)
			r.env.fn.FreeVars = append(r.env.fn.FreeVars, bdg)
			bdg = &Binding{Scope: Free, Index: ix, Name: bdg.Name, Const: bdg.Const, Type: bdg.Type, Decl: bdg.Decl, Overloads: bdg.Overloads}
			r.env.bindings[ident.Name] = bdg
		}
		r.result.Idents[ident] = bdg
		return bdg
	}

	if r.isPredeclared(ident.Name) {
		bdg, ok := r.globals[ident.Name]
		if !ok {
			bdg = &Binding{Scope: Predeclared, Name: ident.Name, Type: types.Any}
			r.globals[ident.Name] = bdg
		}
		r.result.Idents[ident] = bdg
		return bdg
	}

	r.errorf(ident.NamePos, "undefined: %s", ident.Name)
	bdg := &Binding{Scope: Undefined, Name: ident.Name, Type: types.Any}
	r.result.Idents[ident] = bdg
	return bdg
}
