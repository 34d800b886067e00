package resolver

import (
	"github.com/vellum-lang/vellum/lang/ast"
	"github.com/vellum-lang/vellum/lang/types"
)

// classStmt resolves a class declaration: its base, fields, constructor,
// methods and operator overloads. The class's own types.Class was already
// created (empty) by declareTopLevel so members can recursively refer to
// it; here we fill it in.
func (r *resolver) classStmt(stmt *ast.ClassStmt) {
	class := r.classes[stmt.Name]
	if class == nil {
		class = &types.Class{Name: stmt.Name, Fields: map[string]types.Type{}, Methods: map[string]*types.OverloadSet{}}
		r.classes[stmt.Name] = class
	}
	r.result.Classes[stmt] = class

	kind := ClassPlain
	if stmt.Base != "" {
		if stmt.Base == stmt.Name {
			r.errorf(stmt.BasePos, "class cannot inherit from itself: %s", stmt.Name)
		} else if base, ok := r.classes[stmt.Base]; ok {
			class.Super = []*types.Class{base}
			kind = ClassInherited
		} else {
			r.errorf(stmt.BasePos, "undefined base class: %s", stmt.Base)
		}
	}

	blk := &block{fn: &Function{Definition: stmt, Kind: FuncNone}, class: &classEnv{kind: kind}, classKind: kind}
	r.push(blk)

	for _, f := range stmt.Body.Fields {
		var declared types.Type
		if f.Type != nil {
			declared = r.resolveTypeExpr(f.Type)
		}
		var initType types.Type = types.Any
		if f.Init != nil {
			initType = r.expr(f.Init)
		}
		typ := declared
		if typ == nil {
			typ = initType
		}
		class.Fields[f.Name] = typ
		r.bind(f.NamePos, f.Name, f.Const, typ, f)
	}

	selfType := types.Type(&types.Instance{Class: class})

	if stmt.Body.Constructor != nil {
		set := types.NewOverloadSet("constructor")
		r.resolveFuncDecl(set, stmt.Body.Constructor.NamePos, "constructor", stmt.Body.Constructor,
			stmt.Body.Constructor.Sig, stmt.Body.Constructor.Body, FuncConstructor, selfType)
		class.Methods["constructor"] = set
	} else {
		// synthesize a default zero-arg constructor
		set := types.NewOverloadSet("constructor")
		_, _ = set.Insert(nil, nil, selfType)
		class.Methods["constructor"] = set
	}

	for _, m := range stmt.Body.Methods {
		set := class.Methods[m.Name]
		if set == nil {
			set = types.NewOverloadSet(m.Name)
			class.Methods[m.Name] = set
		}
		r.resolveFuncDecl(set, m.NamePos, m.Name, m, m.Sig, m.Body, FuncMethod, selfType)
	}

	for _, op := range stmt.Body.Operators {
		sym := operatorSymbols[op.Op]
		set := class.Methods[sym]
		if set == nil {
			set = types.NewOverloadSet(sym)
			class.Methods[sym] = set
		}
		r.resolveFuncDecl(set, op.OpPos, sym, op, op.Sig, op.Body, FuncMethod, selfType)
	}

	r.pop()

	// the class name itself is bound at the enclosing (global) scope so it
	// can be referenced as a constructor callee.
	if _, ok := r.env.bindings[stmt.Name]; !ok {
		r.bind(stmt.NamePos, stmt.Name, true, selfType, stmt)
	}
}
