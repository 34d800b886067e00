package resolver

import (
	"github.com/vellum-lang/vellum/lang/ast"
	"github.com/vellum-lang/vellum/lang/token"
	"github.com/vellum-lang/vellum/lang/types"
)

// resolveFuncDecl resolves one overload of a (possibly overloaded)
// function/method/constructor: it inserts the signature into set, then
// resolves the body in a fresh function scope with params (and `this`, for
// methods) bound ahead of the first statement.
func (r *resolver) resolveFuncDecl(set *types.OverloadSet, namePos token.Pos, name string,
	decl any, sig *ast.FuncSignature, body *ast.Block, kind FuncKind, thisType types.Type) *Function {

	params := make([]types.Type, len(sig.Params))
	for i, p := range sig.Params {
		params[i] = r.resolveTypeExpr(p.Type)
	}
	var declaredRet types.Type
	if sig.RetType != nil {
		declaredRet = r.resolveTypeExpr(sig.RetType)
	}

	ov, err := set.Insert(params, decl, declaredRet)
	switch err {
	case types.ErrRedefined:
		r.errorf(namePos, "redefined symbol: %s", name)
	case types.ErrTooManyParams:
		r.errorf(namePos, "too many params: %s", name)
	}

	fn := &Function{Kind: kind, Params: params, Return: declaredRet}
	if node, ok := decl.(ast.Node); ok {
		fn.Definition = node
		r.result.Functions[node] = fn
	}

	blk := &block{fn: fn}
	r.push(blk)
	if thisType != nil {
		r.bind(token.NoPos, "this", true, thisType, nil)
	}
	for i, p := range sig.Params {
		r.bind(p.NamePos, p.Name, false, params[i], nil)
	}
	r.block(body, false)
	r.pop()

	if fn.Return == nil {
		fn.Return = types.Void
	}
	if ov != nil {
		ov.Type.Return = fn.Return
	}
	return fn
}
