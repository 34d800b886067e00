package resolver

import (
	"github.com/vellum-lang/vellum/lang/ast"
	"github.com/vellum-lang/vellum/lang/types"
)

var builtinPrimitives = map[string]types.Type{
	"int":    types.Int,
	"float":  types.Float,
	"bool":   types.Bool,
	"string": types.StringT,
	"nil":    types.Nil,
	"any":    types.Any,
	"void":   types.Void,
}

// resolveTypeExpr converts a parsed type annotation into a types.Type. An
// unknown class name is reported and resolved to Any so the rest of the
// pass can continue.
func (r *resolver) resolveTypeExpr(t ast.TypeExpr) types.Type {
	if t == nil {
		return types.Any
	}
	switch t := t.(type) {
	case *ast.NamedTypeExpr:
		if p, ok := builtinPrimitives[t.Name]; ok {
			return p
		}
		if c, ok := r.classes[t.Name]; ok {
			return &types.Instance{Class: c}
		}
		r.errorf(t.NamePos, "undefined type: %s", t.Name)
		return types.Any

	case *ast.GenericTypeExpr:
		switch t.Name {
		case "list":
			if len(t.Args) != 1 {
				r.errorf(t.NamePos, "list requires exactly one type argument")
				return types.Any
			}
			return &types.List{Elem: r.resolveTypeExpr(t.Args[0])}
		case "map":
			if len(t.Args) != 2 {
				r.errorf(t.NamePos, "map requires exactly two type arguments")
				return types.Any
			}
			return &types.Map{Key: r.resolveTypeExpr(t.Args[0]), Value: r.resolveTypeExpr(t.Args[1])}
		default:
			r.errorf(t.NamePos, "unknown generic type: %s", t.Name)
			return types.Any
		}

	case *ast.UnionTypeExpr:
		alts := make([]types.Type, len(t.Alts))
		for i, a := range t.Alts {
			alts[i] = r.resolveTypeExpr(a)
		}
		return types.NewUnion(alts...)

	default:
		return types.Any
	}
}
