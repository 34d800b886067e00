package resolver

import (
	"github.com/vellum-lang/vellum/lang/ast"
	"github.com/vellum-lang/vellum/lang/token"
	"github.com/vellum-lang/vellum/lang/types"
)

// comparisonOps and arithmeticOps classify binary operators for typechecking
// without a long type switch at every call site.
var arithmeticOps = map[token.Token]bool{
	token.PLUS: true, token.MINUS: true, token.STAR: true,
	token.SLASH: true, token.PERCENT: true, token.STARSTAR: true,
}
var comparisonOps = map[token.Token]bool{
	token.LT: true, token.LE: true, token.GT: true, token.GE: true,
	token.EQEQ: true, token.BANGEQ: true,
}

// expr typechecks an expression and returns its result type, recording it
// and any bindings/overload decisions along the way. On a type error it
// logs a diagnostic and carries on; where it has no better type to give (no
// matching overload, a wrong argument count, `this`/`base` outside a class)
// it returns Any so resolution can proceed.
func (r *resolver) expr(e ast.Expr) types.Type {
	t := r.exprType(e)
	r.result.Types[e] = t
	return t
}

func (r *resolver) exprType(e ast.Expr) types.Type {
	switch e := e.(type) {
	case *ast.LiteralExpr:
		switch e.Kind {
		case ast.IntLit:
			return types.Int
		case ast.FloatLit:
			return types.Float
		case ast.StringLit:
			return types.StringT
		case ast.BoolLit:
			return types.Bool
		default:
			return types.Nil
		}

	case *ast.IdentExpr:
		return r.use(e).Type

	case *ast.ThisExpr:
		if r.currentClassKind() == ClassNone {
			r.errorf(e.ThisPos, "this outside a class")
			return types.Any
		}
		if bdg := r.lookupThis(); bdg != nil {
			return bdg.Type
		}
		return types.Any

	case *ast.BaseExpr:
		if r.currentClassKind() != ClassInherited {
			r.errorf(e.BasePos, "base without an inherited class")
			return types.Any
		}
		return types.Any

	case *ast.ParenExpr:
		return r.expr(e.Expr)

	case *ast.ListExpr:
		var elem types.Type
		for _, el := range e.Elems {
			t := r.expr(el)
			if elem == nil {
				elem = t
			} else {
				elem = types.Intersect(elem, t)
			}
		}
		if elem == nil {
			elem = types.Any
		}
		return &types.List{Elem: elem}

	case *ast.MapExpr:
		var key, val types.Type
		for _, kv := range e.Elems {
			kt := r.expr(kv.Key)
			vt := r.expr(kv.Value)
			if key == nil {
				key, val = kt, vt
			} else {
				key, val = types.Intersect(key, kt), types.Intersect(val, vt)
			}
		}
		if key == nil {
			key, val = types.Any, types.Any
		}
		return &types.Map{Key: key, Value: val}

	case *ast.IndexExpr:
		prefixType := r.expr(e.Prefix)
		if e.Low != nil {
			r.expr(e.Low)
		}
		if e.Colon != token.NoPos {
			if e.High != nil {
				r.expr(e.High)
			}
			return prefixType // slicing a list/string yields the same container type
		}
		switch t := prefixType.(type) {
		case *types.List:
			return t.Elem
		case *types.Map:
			return t.Value
		default:
			return types.Any
		}

	case *ast.CallExpr:
		return r.callExpr(e)

	case *ast.DotExpr:
		leftType := r.expr(e.Left)
		return r.memberType(leftType, e.Member)

	case *ast.UnaryExpr:
		xt := r.expr(e.X)
		if e.Op.IsIncDec() {
			if !ast.IsAssignable(ast.Unwrap(e.X)) {
				start, _ := e.X.Span()
				r.errorf(start, "operand of %s must be assignable", e.Op)
			}
			return xt
		}
		return xt

	case *ast.PostfixExpr:
		xt := r.expr(e.X)
		if !ast.IsAssignable(ast.Unwrap(e.X)) {
			start, _ := e.X.Span()
			r.errorf(start, "operand of %s must be assignable", e.Op)
		}
		return xt

	case *ast.BinaryExpr:
		return r.binaryExpr(e)

	case *ast.TernaryExpr:
		r.expr(e.Cond)
		thenType := r.expr(e.Then)
		elseType := r.expr(e.Else)
		return types.Intersect(thenType, elseType)

	case *ast.CommaExpr:
		var last types.Type = types.Any
		for _, sub := range e.Exprs {
			last = r.expr(sub)
		}
		return last

	case *ast.AssignExpr:
		if !ast.IsAssignable(ast.Unwrap(e.Target)) {
			start, _ := e.Target.Span()
			r.errorf(start, "left side of assignment is not assignable")
		}
		targetType := r.expr(e.Target)
		valueType := r.expr(e.Value)
		if id, ok := ast.Unwrap(e.Target).(*ast.IdentExpr); ok {
			if bdg, ok := r.result.Idents[id]; ok && bdg.Const {
				r.errorf(e.OpPos, "cannot assign to const: %s", id.Name)
			}
		}
		if targetType != nil && !types.Unify(targetType, valueType) {
			r.errorf(e.OpPos, "cannot assign %s to %s", valueType, targetType)
		}
		return valueType

	case *ast.FuncExpr:
		set := types.NewOverloadSet("")
		fn := r.resolveFuncDecl(set, e.FunPos, "", e, e.Sig, e.Body, FuncFunction, nil)
		return &types.Callable{Params: fn.Params, Return: fn.Return}

	case *ast.BadExpr:
		return types.Any

	default:
		return types.Any
	}
}

// lookupThis finds the `this` binding in the current (or an enclosing,
// within the same function) scope.
func (r *resolver) lookupThis() *Binding {
	fn := r.env.fn
	for b := r.env; b != nil && b.fn == fn; b = b.parent {
		if bdg, ok := b.bindings["this"]; ok {
			return bdg
		}
	}
	return nil
}

// memberType looks up a field or method's static type on a class instance.
// Dynamic/unknown members fall back to Any rather than failing the pass.
func (r *resolver) memberType(recv types.Type, member string) types.Type {
	inst, ok := recv.(*types.Instance)
	if !ok {
		return types.Any
	}
	for _, c := range inst.Class.Ancestors() {
		if ft, ok := c.Fields[member]; ok {
			return ft
		}
		if ms, ok := c.Methods[member]; ok && len(ms.All()) > 0 {
			return ms.All()[0].Type
		}
	}
	return types.Any
}

func (r *resolver) callExpr(e *ast.CallExpr) types.Type {
	argTypes := make([]types.Type, len(e.Args))
	for i, a := range e.Args {
		argTypes[i] = r.expr(a)
	}

	switch fun := e.Fun.(type) {
	case *ast.IdentExpr:
		bdg := r.use(fun)
		if bdg.Overloads != nil {
			return r.dispatch(e, bdg.Overloads, argTypes)
		}
		if c, ok := r.classes[fun.Name]; ok {
			// calling a class name constructs an instance
			return &types.Instance{Class: c}
		}
		if cal, ok := bdg.Type.(*types.Callable); ok {
			return r.checkPositional(e, cal, argTypes)
		}
		return types.Any

	case *ast.DotExpr:
		leftType := r.expr(fun.Left)
		if inst, ok := leftType.(*types.Instance); ok {
			for _, c := range inst.Class.Ancestors() {
				if ms, ok := c.Methods[fun.Member]; ok {
					return r.dispatch(e, ms, argTypes)
				}
			}
		}
		return types.Any

	case *ast.BaseExpr:
		if r.currentClassKind() != ClassInherited {
			r.errorf(fun.BasePos, "base without an inherited class")
		}
		return types.Any

	default:
		r.expr(e.Fun)
		return types.Any
	}
}

func (r *resolver) dispatch(call *ast.CallExpr, set *types.OverloadSet, argTypes []types.Type) types.Type {
	ov, ok := set.Resolve(argTypes)
	if !ok {
		start, _ := call.Span()
		r.errorf(start, "no matching overload for %s", set.Name)
		return types.Any
	}
	r.result.Calls[call] = &CallBinding{Overload: ov, ArgTypes: argTypes}
	if ov.Type.Return == nil {
		return types.Void
	}
	return ov.Type.Return
}

func (r *resolver) checkPositional(call *ast.CallExpr, cal *types.Callable, argTypes []types.Type) types.Type {
	if len(cal.Params) != len(argTypes) {
		start, _ := call.Span()
		r.errorf(start, "expected %d arguments, got %d", len(cal.Params), len(argTypes))
		return types.Any
	}
	for i, p := range cal.Params {
		if !types.Unify(p, argTypes[i]) {
			start, _ := call.Args[i].Span()
			r.errorf(start, "argument %d: cannot use %s as %s", i+1, argTypes[i], p)
		}
	}
	if cal.Return == nil {
		return types.Void
	}
	return cal.Return
}

// operatorSymbols maps a binary token to the method name an operator
// overload is declared under (`operator +(other) {...}` registers "+").
var operatorSymbols = map[token.Token]string{
	token.PLUS: "+", token.MINUS: "-", token.STAR: "*", token.SLASH: "/",
	token.PERCENT: "%", token.STARSTAR: "**", token.EQEQ: "==", token.BANGEQ: "!=",
	token.LT: "<", token.LE: "<=", token.GT: ">", token.GE: ">=",
	token.PLUSPLUS: "++", token.MINUSMINUS: "--",
}

func (r *resolver) binaryExpr(e *ast.BinaryExpr) types.Type {
	leftType := r.expr(e.Left)
	rightType := r.expr(e.Right)

	if e.Op == token.AND || e.Op == token.OR {
		return types.Bool
	}

	if inst, ok := leftType.(*types.Instance); ok {
		if sym, ok := operatorSymbols[e.Op]; ok {
			for _, c := range inst.Class.Ancestors() {
				if ms, ok := c.Methods[sym]; ok {
					if ov, ok := ms.Resolve([]types.Type{rightType}); ok {
						r.result.Operators[e] = &OperatorBinding{Method: ov}
						if ov.Type.Return == nil {
							return types.Void
						}
						return ov.Type.Return
					}
				}
			}
		}
	}

	switch {
	case comparisonOps[e.Op]:
		return types.Bool
	case arithmeticOps[e.Op]:
		if leftType == types.StringT || rightType == types.StringT {
			if e.Op == token.PLUS {
				return types.StringT
			}
		}
		if leftType == types.Float || rightType == types.Float {
			return types.Float
		}
		return types.Int
	default:
		return types.Any
	}
}
