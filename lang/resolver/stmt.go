package resolver

import (
	"github.com/vellum-lang/vellum/lang/ast"
	"github.com/vellum-lang/vellum/lang/token"
	"github.com/vellum-lang/vellum/lang/types"
)

func (r *resolver) block(b *ast.Block, isLoop bool) {
	blk := &block{isLoop: isLoop}
	r.push(blk)
	if isLoop {
		r.env.fn.loopDepth++
	}
	for _, s := range b.Stmts {
		r.stmt(s)
	}
	if isLoop {
		r.env.fn.loopDepth--
	}
	r.pop()
}

func (r *resolver) stmt(stmt ast.Stmt) {
	switch stmt := stmt.(type) {
	case *ast.VarStmt:
		var declared types.Type
		if stmt.Type != nil {
			declared = r.resolveTypeExpr(stmt.Type)
		}
		var initType types.Type = types.Any
		if stmt.Init != nil {
			initType = r.expr(stmt.Init)
			if declared != nil && !types.Unify(declared, initType) {
				r.errorf(stmt.NamePos, "cannot assign %s to declared type %s", initType, declared)
			}
		}
		typ := declared
		if typ == nil {
			typ = initType
		}
		r.bind(stmt.NamePos, stmt.Name, stmt.Const, typ, stmt)

	case *ast.FuncStmt:
		var set *types.OverloadSet
		if r.env == r.root {
			set = r.globalOverloads[stmt.Name]
		}
		if set == nil {
			set = types.NewOverloadSet(stmt.Name)
			if r.env != r.root {
				bdg := r.bind(stmt.NamePos, stmt.Name, true, types.Any, stmt)
				bdg.Overloads = set
			} else {
				r.globalOverloads[stmt.Name] = set
			}
		}
		r.resolveFuncDecl(set, stmt.NamePos, stmt.Name, stmt, stmt.Sig, stmt.Body, FuncFunction, nil)

	case *ast.ClassStmt:
		r.classStmt(stmt)

	case *ast.IfStmt:
		r.expr(stmt.Cond)
		r.block(stmt.Then, false)
		switch els := stmt.Else.(type) {
		case nil:
		case *ast.IfStmt:
			r.stmt(els)
		case *ast.Block:
			r.block(els, false)
		}

	case *ast.WhileStmt:
		r.expr(stmt.Cond)
		r.block(stmt.Body, true)

	case *ast.ForStmt:
		r.push(new(block))
		if stmt.Init != nil {
			r.stmt(stmt.Init)
		}
		if stmt.Cond != nil {
			r.expr(stmt.Cond)
		}
		if stmt.Post != nil {
			r.expr(stmt.Post)
		}
		r.block(stmt.Body, true)
		r.pop()

	case *ast.ForInStmt:
		iterType := r.expr(stmt.In)
		r.push(new(block))
		elemType := types.Any
		switch it := types.KindOf(iterType); it {
		case types.KindList:
			elemType = iterType.(*types.List).Elem
		case types.KindMap:
			elemType = iterType.(*types.Map).Key
		}
		r.bind(stmt.NamePos, stmt.Name, false, elemType, stmt)
		r.block(stmt.Body, true)
		r.pop()

	case *ast.ReturnStmt:
		if r.env.fn.Kind == FuncNone {
			r.errorf(stmt.ReturnPos, "return outside a function")
		}
		var t types.Type = types.Void
		if stmt.Value != nil {
			t = r.expr(stmt.Value)
		}
		if r.env.fn.Return == nil {
			r.env.fn.Return = t
		} else {
			r.env.fn.Return = types.Intersect(r.env.fn.Return, t)
		}

	case *ast.PrintStmt:
		r.expr(stmt.Value)

	case *ast.ExprStmt:
		r.expr(stmt.X)

	case *ast.BreakStmt:
		if r.loopDepth() == 0 {
			r.errorf(stmt.BreakPos, "break outside a loop")
		}

	case *ast.ContinueStmt:
		if r.loopDepth() == 0 {
			r.errorf(stmt.ContinuePos, "continue outside a loop")
		}

	case *ast.BadStmt:
		// produced by panic-mode parser recovery; nothing to resolve

	default:
		r.errorf(token.NoPos, "resolver: unhandled statement %T", stmt)
	}
}

// loopDepth counts enclosing loop blocks within the current function only;
// a loop in an outer function does not make break/continue valid here.
func (r *resolver) loopDepth() int {
	fn := r.env.fn
	depth := 0
	for b := r.env; b != nil && b.fn == fn; b = b.parent {
		if b.isLoop {
			depth++
		}
	}
	return depth
}
