// Package resolver performs a single depth-first pass over a parsed chunk:
// it declares and binds names, walks the scope tree to capture free
// variables as cells/upvalues, typechecks expressions against the type
// lattice in lang/types, resolves overloaded calls and operator overloads,
// and builds class types. Failures are accumulated and reported; they never
// abort the pass, so a single bad statement does not prevent the rest of the
// chunk from being resolved.
//
// Much of the scope/binding/free-variable-capture machinery below is
// adapted from a Starlark-style resolver: a linked stack of blocks, each
// tagged with the Function it belongs to, with locals promoted to cells the
// moment a nested function closes over them.
package resolver

import (
	"context"
	"fmt"

	"github.com/vellum-lang/vellum/lang/ast"
	"github.com/vellum-lang/vellum/lang/scanner"
	"github.com/vellum-lang/vellum/lang/token"
	"github.com/vellum-lang/vellum/lang/types"
)

// Result is the output of a successful (or partially successful) resolve
// pass: every side table the compiler needs, keyed by AST node identity.
type Result struct {
	Idents    map[*ast.IdentExpr]*Binding
	Calls     map[*ast.CallExpr]*CallBinding
	Operators map[*ast.BinaryExpr]*OperatorBinding
	Classes   map[*ast.ClassStmt]*types.Class
	Functions map[ast.Node]*Function
	Types     map[ast.Expr]types.Type
}

func newResult() *Result {
	return &Result{
		Idents:    make(map[*ast.IdentExpr]*Binding),
		Calls:     make(map[*ast.CallExpr]*CallBinding),
		Operators: make(map[*ast.BinaryExpr]*OperatorBinding),
		Classes:   make(map[*ast.ClassStmt]*types.Class),
		Functions: make(map[ast.Node]*Function),
		Types:     make(map[ast.Expr]types.Type),
	}
}

// ResolveFiles resolves every chunk produced by a successful parse, sharing
// one global scope across all of them (as if they were concatenated), and
// returns the accumulated bindings/types or a scanner.ErrorList.
func ResolveFiles(ctx context.Context, fset *token.FileSet, chunks []*ast.Chunk, isPredeclared func(name string) bool) (*Result, error) {
	sess := NewSession(isPredeclared)
	result := newResult()
	for _, ch := range chunks {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}
		res, err := sess.resolveChunk(fset, ch, result)
		if err != nil {
			return res, err
		}
	}
	return result, nil
}

// Session resolves a sequence of chunks against one persistent global scope,
// each building on every name the previous ones declared: the repl command
// keeps one Session for its whole run so a `var` or `fun` declared on one
// line is visible when resolving the next.
type Session struct {
	globals         map[string]*Binding
	globalOverloads map[string]*types.OverloadSet
	classes         map[string]*types.Class
	isPredeclared   func(name string) bool
}

// NewSession creates a Session with an empty global scope.
func NewSession(isPredeclared func(name string) bool) *Session {
	if isPredeclared == nil {
		isPredeclared = func(string) bool { return false }
	}
	return &Session{
		globals:         make(map[string]*Binding),
		globalOverloads: make(map[string]*types.OverloadSet),
		classes:         make(map[string]*types.Class),
		isPredeclared:   isPredeclared,
	}
}

// ResolveChunk resolves chunk against the session's accumulated global
// scope, extending it with whatever chunk newly declares.
func (sess *Session) ResolveChunk(ctx context.Context, fset *token.FileSet, chunk *ast.Chunk) (*Result, error) {
	select {
	case <-ctx.Done():
		return newResult(), ctx.Err()
	default:
	}
	return sess.resolveChunk(fset, chunk, newResult())
}

func (sess *Session) resolveChunk(fset *token.FileSet, ch *ast.Chunk, result *Result) (*Result, error) {
	r := &resolver{result: result, classes: sess.classes}
	r.isPredeclared = sess.isPredeclared
	r.globals = sess.globals
	r.globalOverloads = sess.globalOverloads

	start, _ := ch.Span()
	r.file = fset.File(start)

	chunkFn := &Function{Definition: ch, Kind: FuncNone}
	r.result.Functions[ch] = chunkFn
	blk := &block{fn: chunkFn, bindings: r.globals}
	r.push(blk)
	r.declareTopLevel(ch.Block)
	for _, s := range ch.Block.Stmts {
		r.stmt(s)
	}
	r.pop()

	r.errors.Sort()
	return r.result, r.errors.Err()
}

type resolver struct {
	file   *token.File
	errors scanner.ErrorList
	result *Result

	env  *block
	root *block

	globals         map[string]*Binding
	globalOverloads map[string]*types.OverloadSet
	classes         map[string]*types.Class

	isPredeclared func(name string) bool
}

func (r *resolver) errorf(p token.Pos, format string, args ...any) {
	r.errors.Add(r.file.Position(p), fmt.Sprintf(format, args...))
}

// declareTopLevel pre-declares every top-level function and class name so
// forward references (mutual recursion, a class referencing a sibling
// declared later) resolve. Overloaded top-level functions are merged into
// one OverloadSet per name.
func (r *resolver) declareTopLevel(b *ast.Block) {
	for _, s := range b.Stmts {
		switch s := s.(type) {
		case *ast.FuncStmt:
			r.declareFuncName(s.NamePos, s.Name)
		case *ast.ClassStmt:
			if _, ok := r.classes[s.Name]; !ok {
				r.classes[s.Name] = &types.Class{Name: s.Name, Fields: map[string]types.Type{}, Methods: map[string]*types.OverloadSet{}}
			}
		}
	}
}

func (r *resolver) declareFuncName(pos token.Pos, name string) {
	set, ok := r.globalOverloads[name]
	if !ok {
		set = types.NewOverloadSet(name)
		r.globalOverloads[name] = set
	}
	if _, ok := r.globals[name]; !ok {
		r.globals[name] = &Binding{Scope: Global, Name: name, Const: true, Overloads: set}
	}
}
