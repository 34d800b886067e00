// Package compiler takes a parsed and resolved AST and compiles it to the
// bytecode the lang/machine package's VM loop executes. It also provides a
// disassembler (see asm.go) that renders a compiled Program as human-
// readable pseudo-assembly, for the disassemble command and for inspecting
// what codegen emitted.
package compiler

import (
	"encoding/binary"
	"fmt"

	"github.com/vellum-lang/vellum/lang/ast"
	"github.com/vellum-lang/vellum/lang/resolver"
	"github.com/vellum-lang/vellum/lang/token"
)

// Compile turns one resolved chunk into a Program the machine package's VM
// loop can run. Unlike a CFG-and-linearize codegen that must defer stack
// accounting to a separate pass, this walks the resolved AST directly in
// one recursive-descent pass: the resolver has already decided every
// name's storage kind and every call's dispatch target by the time
// Compile runs, so codegen never resolves anything itself, only translates.
func Compile(fset *token.FileSet, chunk *ast.Chunk, res *resolver.Result) *Program {
	start, _ := chunk.Span()
	file := fset.File(start)

	prog := &Program{Filename: file.Name()}
	cc := &compiler{fset: fset, file: file, res: res, prog: prog,
		classNames: map[string]bool{}, declName: map[ast.Node]string{}}
	cc.preScan(chunk.Block)

	topRfn := res.Functions[chunk]
	top := &fnState{rfn: topRfn, code: &Funcode{Prog: prog, Name: "<toplevel>", Pos: cc.pos(start)},
		localSet: localSetOf(topRfn), upvalIdx: map[*resolver.Binding]int{}}
	prog.Toplevel = top.code
	cc.fn = top
	cc.allocFrame(topRfn)
	for _, s := range chunk.Block.Stmts {
		cc.stmt(s)
	}
	cc.emit1(CONSTANT_NIL)
	cc.emit1(RETURN)
	cc.finishFunc(top)

	return prog
}

func localSetOf(rfn *resolver.Function) map[*resolver.Binding]bool {
	set := make(map[*resolver.Binding]bool, len(rfn.Locals))
	for _, b := range rfn.Locals {
		set[b] = true
	}
	return set
}

type compiler struct {
	fset *token.FileSet
	file *token.File
	res  *resolver.Result
	prog *Program

	// classNames records every top-level class name, so a CallExpr whose
	// callee is a bare identifier matching one of them compiles as
	// construction rather than an ordinary call.
	classNames map[string]bool
	classDefs  map[string]int // class name -> index into prog.Classes

	// declName gives the (possibly mangled, e.g. "name$2") storage name for
	// every overloaded top-level function and class member declaration, so
	// a statically-dispatched call site can look up the right global or
	// method slot. See preScan/preScanClass.
	declName map[ast.Node]string

	// fieldDecl records every class field's declaring *ast.VarStmt. A
	// method body may reference a field by its bare name rather than
	// through `this.field`; the resolver has no special case for this, so
	// it records the reference the same way it would a closure over an
	// enclosing scope's variable (crossing from the method's Function into
	// the class body's synthetic one counts, to the resolver, as crossing
	// a function boundary). Recognizing the declaration here lets codegen
	// desugar that access to this.field instead of chasing a nonexistent
	// upvalue chain.
	fieldDecl map[ast.Node]bool

	fn *fnState
}

// fnState is the codegen-time counterpart of a resolver.Function: one per
// function/method/constructor/chunk-top-level being compiled, linked to its
// lexically enclosing fnState so nested closures can chain upvalue lookups.
type fnState struct {
	parent   *fnState
	rfn      *resolver.Function
	code     *Funcode
	localSet map[*resolver.Binding]bool
	upvalIdx map[*resolver.Binding]int
	owner    string // class name, if this is a method/constructor

	loops []*loopCtx
}

type loopCtx struct {
	breakJumps    []int
	continueJumps []int
}

func (cc *compiler) pos(p token.Pos) Position {
	pp := cc.file.Position(p)
	return Position{Filename: cc.file.Name(), Line: pp.Line, Col: pp.Column}
}

// --- emission helpers -------------------------------------------------

func (cc *compiler) code() *Funcode { return cc.fn.code }

func (cc *compiler) emit1(op MainOp) {
	var word [4]byte
	binary.BigEndian.PutUint32(word[:], uint32(ComposeOpcode(0, uint16(op))))
	cc.code().Code = append(cc.code().Code, word[:]...)
}

func (cc *compiler) emit1Sec(op MainOp, secondary uint16) {
	var word [4]byte
	binary.BigEndian.PutUint32(word[:], uint32(ComposeOpcode(secondary, uint16(op))))
	cc.code().Code = append(cc.code().Code, word[:]...)
}

func (cc *compiler) emitU8(v int) {
	cc.code().Code = append(cc.code().Code, byte(v))
}

func (cc *compiler) emitU16(v int) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(v))
	cc.code().Code = append(cc.code().Code, b[:]...)
}

func (cc *compiler) emitOpU16(op MainOp, v int) {
	cc.emit1(op)
	cc.emitU16(v)
}

func (cc *compiler) emitConstant(v interface{}) {
	idx := cc.constIndex(v)
	cc.emitOpU16(CONSTANT, idx)
}

func (cc *compiler) constIndex(v interface{}) int {
	for i, c := range cc.prog.Constants {
		if c == v {
			return i
		}
	}
	idx := len(cc.prog.Constants)
	cc.prog.Constants = append(cc.prog.Constants, v)
	return idx
}

func (cc *compiler) nameIndex(name string) int {
	for i, n := range cc.prog.Names {
		if n == name {
			return i
		}
	}
	idx := len(cc.prog.Names)
	cc.prog.Names = append(cc.prog.Names, name)
	return idx
}

func (cc *compiler) emitName(op MainOp, name string) {
	cc.emitOpU16(op, cc.nameIndex(name))
}

// emitJump emits op followed by a placeholder u16 operand and returns the
// offset of that operand, to be fixed up by patchJump once the jump's
// target address is known.
func (cc *compiler) emitJump(op MainOp) int {
	cc.emit1(op)
	off := len(cc.code().Code)
	cc.emitU16(0xFFFF)
	return off
}

func (cc *compiler) patchJump(off int) {
	cc.patchJumpTo(off, len(cc.code().Code))
}

// patchJumpTo patches a forward jump at off to land exactly at target
// (used when the target was recorded earlier than the code currently at
// the end, e.g. a loop's continue target before its post-step runs).
func (cc *compiler) patchJumpTo(off, target int) {
	dist := target - (off + 2)
	binary.BigEndian.PutUint16(cc.code().Code[off:off+2], uint16(dist))
}

func (cc *compiler) loopTarget() int { return len(cc.code().Code) }

func (cc *compiler) emitLoop(target int) {
	cc.emit1(LOOP)
	dist := len(cc.code().Code) + 2 - target
	cc.emitU16(dist)
}

// --- pre-scan: overload name mangling -----------------------------------

var opSymbols = map[token.Token]string{
	token.PLUS: "+", token.MINUS: "-", token.STAR: "*", token.SLASH: "/",
	token.PERCENT: "%", token.STARSTAR: "**", token.EQEQ: "==", token.BANGEQ: "!=",
	token.LT: "<", token.LE: "<=", token.GT: ">", token.GE: ">=",
}

func mangle(name string, n int) string {
	if n <= 1 {
		return name
	}
	return fmt.Sprintf("%s$%d", name, n)
}

// preScan walks the chunk's top-level declarations once, before any body is
// compiled, assigning every overloaded function/method/operator a distinct
// storage name (the first overload of a name keeps it unmangled) and
// recording every class's field layout. This has to happen up front
// because a call site anywhere in the chunk may reference a declaration
// compiled later.
func (cc *compiler) preScan(b *ast.Block) {
	counts := map[string]int{}
	for _, s := range b.Stmts {
		switch s := s.(type) {
		case *ast.FuncStmt:
			counts[s.Name]++
			cc.declName[s] = mangle(s.Name, counts[s.Name])
		case *ast.ClassStmt:
			cc.classNames[s.Name] = true
			cc.preScanClass(s)
		}
	}
}

func (cc *compiler) preScanClass(s *ast.ClassStmt) {
	b := s.Body
	counts := map[string]int{}
	for _, m := range b.Methods {
		counts[m.Name]++
		cc.declName[m] = mangle(m.Name, counts[m.Name])
	}
	opCounts := map[string]int{}
	for _, op := range b.Operators {
		sym := opSymbols[op.Op]
		opCounts[sym]++
		cc.declName[op] = mangle(sym, opCounts[sym])
	}
	if b.Constructor != nil {
		cc.declName[b.Constructor] = "constructor"
	}

	fields := make([]string, len(b.Fields))
	if cc.fieldDecl == nil {
		cc.fieldDecl = map[ast.Node]bool{}
	}
	for i, f := range b.Fields {
		fields[i] = f.Name
		cc.fieldDecl[f] = true
	}
	if cc.classDefs == nil {
		cc.classDefs = map[string]int{}
	}
	cc.classDefs[s.Name] = len(cc.prog.Classes)
	cc.prog.Classes = append(cc.prog.Classes, &ClassDef{Name: s.Name, FieldSlots: fields})
}

// declNameOf resolves a resolved overload's AST decl node (an
// *ast.FuncStmt, *ast.OperatorDecl, or nil for a synthesized default
// constructor) to its storage name, falling back to fallback when decl
// carries no mangled name of its own (e.g. it's outside this chunk, or nil).
func (cc *compiler) declNameOf(decl any, fallback string) string {
	if decl == nil {
		return fallback
	}
	if n, ok := decl.(ast.Node); ok {
		if name, ok := cc.declName[n]; ok {
			return name
		}
	}
	return fallback
}

// --- function entry / upvalues ------------------------------------------

// allocFrame emits the function-entry prologue: boxing any Cell-scope
// parameter in place, then pre-allocating every remaining local slot
// (nil, or nil-in-a-cell) for the lifetime of the call. Locals are never
// popped until RETURN, regardless of which nested blocks actually run, so a
// sibling block's distinct resolver-assigned slot index never desyncs from
// the frame's real stack height.
func (cc *compiler) allocFrame(rfn *resolver.Function) {
	code := cc.code()
	numIncoming := len(rfn.Params)
	if rfn.Kind == resolver.FuncMethod || rfn.Kind == resolver.FuncConstructor {
		numIncoming++ // this is bound ahead of the declared params
	}
	code.NumParams = numIncoming
	for i := 0; i < numIncoming; i++ {
		if rfn.Locals[i].Scope == resolver.Cell {
			cc.emitOpU16(GET_LOCAL, i)
			cc.emit1(MAKE_CELL)
			cc.emitOpU16(SET_LOCAL, i)
			cc.emit1(POP)
		}
	}
	for i := numIncoming; i < len(rfn.Locals); i++ {
		cc.emit1(CONSTANT_NIL)
		if rfn.Locals[i].Scope == resolver.Cell {
			cc.emit1(MAKE_CELL)
		}
	}
	for i, b := range rfn.Locals {
		code.Locals = append(code.Locals, Binding{Name: b.Name, Pos: cc.pos(declPos(b))})
		if b.Scope == resolver.Cell {
			code.Cells = append(code.Cells, i)
		}
	}
}

func declPos(b *resolver.Binding) token.Pos {
	if b.Decl == nil {
		return token.NoPos
	}
	start, _ := b.Decl.Span()
	return start
}

func (cc *compiler) finishFunc(fn *fnState) {
	// MaxStack is advisory (the machine uses it to presize a frame's slice
	// of th.stack); a generous static bound avoids tracking exact depth
	// through every branch of a single-pass emitter.
	fn.code.MaxStack = len(fn.code.Locals) + 64
}

// describeCapture says how fn's own CLOSURE instruction should capture bdg
// (the true declaring, Cell-scope binding a nested function closes over):
// directly off fn's own locals if bdg lives there, or chained through fn's
// own upvalue list (synthesizing an entry if the resolver never recorded
// one at this level, since it only ever records one hop, into the
// innermost function that actually uses the name).
func describeCapture(fn *fnState, bdg *resolver.Binding) UpvalueDesc {
	if fn.localSet[bdg] {
		return UpvalueDesc{FromLocal: true, Index: bdg.Index}
	}
	return UpvalueDesc{FromLocal: false, Index: resolveUpvalue(fn, bdg)}
}

// resolveUpvalue ensures fn itself captures bdg, returning the (cached)
// index into fn.code.Upvalues.
func resolveUpvalue(fn *fnState, bdg *resolver.Binding) int {
	if idx, ok := fn.upvalIdx[bdg]; ok {
		return idx
	}
	desc := describeCapture(fn.parent, bdg)
	idx := len(fn.code.Upvalues)
	fn.code.Upvalues = append(fn.code.Upvalues, desc)
	fn.upvalIdx[bdg] = idx
	return idx
}

// --- statements -----------------------------------------------------------

func (cc *compiler) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.VarStmt:
		cc.varStmt(s)
	case *ast.FuncStmt:
		cc.funcStmt(s)
	case *ast.ClassStmt:
		cc.classStmt(s)
	case *ast.IfStmt:
		cc.ifStmt(s)
	case *ast.WhileStmt:
		cc.whileStmt(s)
	case *ast.ForStmt:
		cc.forStmt(s)
	case *ast.ForInStmt:
		cc.forInStmt(s)
	case *ast.ReturnStmt:
		if s.Value != nil {
			cc.expr(s.Value)
		} else {
			cc.emit1(CONSTANT_NIL)
		}
		cc.emit1(RETURN)
	case *ast.PrintStmt:
		cc.expr(s.Value)
		cc.emit1(PRINT)
	case *ast.ExprStmt:
		cc.expr(s.X)
		cc.emit1(POP)
	case *ast.BreakStmt:
		lp := cc.fn.loops[len(cc.fn.loops)-1]
		lp.breakJumps = append(lp.breakJumps, cc.emitJump(JUMP))
	case *ast.ContinueStmt:
		lp := cc.fn.loops[len(cc.fn.loops)-1]
		lp.continueJumps = append(lp.continueJumps, cc.emitJump(JUMP))
	case *ast.BadStmt:
		// produced only by panic-mode parser recovery; nothing to compile
	default:
		panic(fmt.Sprintf("compiler: unhandled statement %T", s))
	}
}

func (cc *compiler) block(b *ast.Block) {
	for _, s := range b.Stmts {
		cc.stmt(s)
	}
}

func (cc *compiler) varStmt(s *ast.VarStmt) {
	bdg := cc.bindingOf(s)
	if bdg.Scope == resolver.Global {
		if s.Init != nil {
			cc.expr(s.Init)
		} else {
			cc.emit1(CONSTANT_NIL)
		}
		cc.emitName(DEFINE_GLOBAL, s.Name)
		return
	}
	if s.Init == nil {
		return // slot already holds nil (or a cell wrapping nil) from the prologue
	}
	cc.expr(s.Init)
	cc.storeLocal(bdg)
	cc.emit1(POP)
}

// bindingOf finds the Binding a VarStmt/ForInStmt declared. The resolver
// doesn't keep a direct Stmt->Binding map, but every local's Decl points
// back to its declaring statement and locals are unique per function, so a
// linear scan of the current function's own Locals (never more than a few
// dozen entries) finds it.
func (cc *compiler) bindingOf(decl ast.Node) *resolver.Binding {
	for _, b := range cc.fn.rfn.Locals {
		if b.Decl == decl {
			return b
		}
	}
	panic("compiler: declaration not found among this function's locals")
}

func (cc *compiler) ifStmt(s *ast.IfStmt) {
	cc.expr(s.Cond)
	thenJump := cc.emitJump(JUMP_IF_FALSE)
	cc.emit1(POP)
	cc.block(s.Then)
	if s.Else == nil {
		cc.patchJump(thenJump)
		cc.emit1(POP)
		return
	}
	elseJump := cc.emitJump(JUMP)
	cc.patchJump(thenJump)
	cc.emit1(POP)
	switch els := s.Else.(type) {
	case *ast.IfStmt:
		cc.ifStmt(els)
	case *ast.Block:
		cc.block(els)
	}
	cc.patchJump(elseJump)
}

func (cc *compiler) whileStmt(s *ast.WhileStmt) {
	lp := &loopCtx{}
	cc.fn.loops = append(cc.fn.loops, lp)

	loopStart := cc.loopTarget()
	cc.expr(s.Cond)
	exitJump := cc.emitJump(JUMP_IF_FALSE)
	cc.emit1(POP)
	cc.block(s.Body)

	contTarget := cc.loopTarget()
	for _, off := range lp.continueJumps {
		cc.patchJumpTo(off, contTarget)
	}
	cc.emitLoop(loopStart)
	cc.patchJump(exitJump)
	cc.emit1(POP)
	for _, off := range lp.breakJumps {
		cc.patchJumpTo(off, cc.loopTarget())
	}

	cc.fn.loops = cc.fn.loops[:len(cc.fn.loops)-1]
}

func (cc *compiler) forStmt(s *ast.ForStmt) {
	if s.Init != nil {
		cc.stmt(s.Init)
	}
	lp := &loopCtx{}
	cc.fn.loops = append(cc.fn.loops, lp)

	loopStart := cc.loopTarget()
	var exitJump int
	hasCond := s.Cond != nil
	if hasCond {
		cc.expr(s.Cond)
		exitJump = cc.emitJump(JUMP_IF_FALSE)
		cc.emit1(POP)
	}
	cc.block(s.Body)

	contTarget := cc.loopTarget()
	for _, off := range lp.continueJumps {
		cc.patchJumpTo(off, contTarget)
	}
	if s.Post != nil {
		cc.expr(s.Post)
		cc.emit1(POP)
	}
	cc.emitLoop(loopStart)
	if hasCond {
		cc.patchJump(exitJump)
		cc.emit1(POP)
	}
	for _, off := range lp.breakJumps {
		cc.patchJumpTo(off, cc.loopTarget())
	}

	cc.fn.loops = cc.fn.loops[:len(cc.fn.loops)-1]
}

func (cc *compiler) forInStmt(s *ast.ForInStmt) {
	cc.expr(s.In)
	cc.emit1(ITER_INIT)

	lp := &loopCtx{}
	cc.fn.loops = append(cc.fn.loops, lp)

	loopStart := cc.loopTarget()
	exitJump := cc.emitJump(ITER_NEXT)
	bdg := cc.bindingOf(s)
	cc.storeLocal(bdg)
	cc.emit1(POP)
	cc.block(s.Body)

	contTarget := cc.loopTarget()
	for _, off := range lp.continueJumps {
		cc.patchJumpTo(off, contTarget)
	}
	cc.emitLoop(loopStart)
	cc.patchJump(exitJump)
	cc.emit1(POP) // drop the exhausted iterator
	for _, off := range lp.breakJumps {
		cc.patchJumpTo(off, cc.loopTarget())
	}

	cc.fn.loops = cc.fn.loops[:len(cc.fn.loops)-1]
}

// --- functions and classes ------------------------------------------------

func (cc *compiler) funcStmt(s *ast.FuncStmt) {
	rfn := cc.res.Functions[s]
	name := cc.declNameOf(s, s.Name)
	idx := cc.compileFunction(rfn, name, "", s)
	cc.emitClosure(idx)

	if cc.isTopLevel() {
		cc.emitName(DEFINE_GLOBAL, name)
		return
	}
	bdg := cc.bindingOf(s)
	cc.storeLocal(bdg)
	cc.emit1(POP)
}

func (cc *compiler) isTopLevel() bool { return cc.fn.parent == nil }

func (cc *compiler) classStmt(s *ast.ClassStmt) {
	defIdx := cc.classDefs[s.Name]
	cc.emitOpU16(CLASS, defIdx)

	if s.Base != "" {
		cc.emitName(GET_GLOBAL, s.Base)
		cc.emit1(INHERIT)
	}

	idx := cc.compileConstructor(s)
	cc.emitClosure(idx)
	cc.emitName(METHOD, "constructor")

	for _, m := range s.Body.Methods {
		rfn := cc.res.Functions[m]
		name := cc.declName[m]
		idx := cc.compileFunction(rfn, name, s.Name, m)
		cc.emitClosure(idx)
		cc.emitName(METHOD, name)
	}
	for _, op := range s.Body.Operators {
		rfn := cc.res.Functions[op]
		name := cc.declName[op]
		idx := cc.compileFunction(rfn, name, s.Name, op)
		cc.emitClosure(idx)
		cc.emitName(METHOD, name)
	}

	cc.emitName(DEFINE_GLOBAL, s.Name)
}

// emitClosure emits CLOSURE for the function compiled at prog.Functions[idx],
// followed by its upvalue descriptor pairs, each already expressed relative
// to the currently-compiling (enclosing) function.
func (cc *compiler) emitClosure(idx int) {
	fc := cc.prog.Functions[idx]
	cc.emitOpU16(CLOSURE, idx)
	cc.emitU16(len(fc.Upvalues))
	for _, up := range fc.Upvalues {
		if up.FromLocal {
			cc.emitU8(1)
		} else {
			cc.emitU8(0)
		}
		cc.emitU16(up.Index)
	}
}

// compileFunction compiles one overload's body into its own Funcode,
// appends it to prog.Functions and returns its index. The upvalue
// descriptors it accumulates along the way are already expressed relative
// to the currently-compiling function, since that's exactly what its
// fnState's parent is set to.
func (cc *compiler) compileFunction(rfn *resolver.Function, name, owner string, declSpan ast.Node) int {
	start, _ := declSpan.Span()
	code := &Funcode{Prog: cc.prog, Name: name, Owner: owner, Pos: cc.pos(start)}
	fn := &fnState{parent: cc.fn, rfn: rfn, code: code,
		localSet: localSetOf(rfn), upvalIdx: map[*resolver.Binding]int{}, owner: owner}

	outer := cc.fn
	cc.fn = fn
	cc.allocFrame(rfn)
	cc.block(bodyOf(declSpan))
	cc.emit1(CONSTANT_NIL)
	cc.emit1(RETURN)
	cc.finishFunc(fn)
	cc.fn = outer

	idx := len(cc.prog.Functions)
	cc.prog.Functions = append(cc.prog.Functions, code)
	return idx
}

func bodyOf(n ast.Node) *ast.Block {
	switch n := n.(type) {
	case *ast.FuncStmt:
		return n.Body
	case *ast.OperatorDecl:
		return n.Body
	case *ast.FuncExpr:
		return n.Body
	}
	panic(fmt.Sprintf("compiler: %T has no body", n))
}

// compileConstructor compiles a class's constructor, explicit or
// synthesized, with every field that carries an initializer assigned to
// `this` before the user's own constructor body (if any) runs — field
// initializers aren't part of the resolved constructor body, so this
// prologue is the only place they're ever emitted.
func (cc *compiler) compileConstructor(s *ast.ClassStmt) int {
	ctor := s.Body.Constructor
	var rfn *resolver.Function
	var declSpan ast.Node = s
	if ctor != nil {
		rfn = cc.res.Functions[ctor]
		declSpan = ctor
	} else {
		rfn = &resolver.Function{Kind: resolver.FuncConstructor,
			Locals: []*resolver.Binding{{Name: "this", Scope: resolver.Local, Index: 0}}}
	}

	start, _ := declSpan.Span()
	code := &Funcode{Prog: cc.prog, Name: "constructor", Owner: s.Name, Pos: cc.pos(start)}
	fn := &fnState{parent: cc.fn, rfn: rfn, code: code,
		localSet: localSetOf(rfn), upvalIdx: map[*resolver.Binding]int{}, owner: s.Name}

	outer := cc.fn
	cc.fn = fn
	cc.allocFrame(rfn)
	for _, f := range s.Body.Fields {
		if f.Init == nil {
			continue
		}
		cc.loadThis()
		cc.expr(f.Init)
		cc.emitName(SET_PROPERTY, f.Name)
		cc.emit1(POP)
	}
	if ctor != nil {
		cc.block(ctor.Body)
	}
	cc.emit1(CONSTANT_NIL)
	cc.emit1(RETURN)
	cc.finishFunc(fn)
	cc.fn = outer

	idx := len(cc.prog.Functions)
	cc.prog.Functions = append(cc.prog.Functions, code)
	return idx
}

// --- name storage: load/store -------------------------------------------

func (cc *compiler) loadLocal(bdg *resolver.Binding) {
	if bdg.Scope == resolver.Cell {
		cc.emitOpU16(GET_LOCAL_CELL, bdg.Index)
	} else {
		cc.emitOpU16(GET_LOCAL, bdg.Index)
	}
}

func (cc *compiler) storeLocal(bdg *resolver.Binding) {
	if bdg.Scope == resolver.Cell {
		cc.emitOpU16(SET_LOCAL_CELL, bdg.Index)
	} else {
		cc.emitOpU16(SET_LOCAL, bdg.Index)
	}
}

// loadIdent compiles a read of an identifier already resolved by the
// resolver, dispatching on its (possibly synthesized Free) binding.
func (cc *compiler) loadIdent(ident *ast.IdentExpr) {
	bdg := cc.res.Idents[ident]
	if cc.fieldDecl[bdg.Decl] {
		cc.loadThis()
		cc.emitName(GET_PROPERTY, bdg.Name)
		return
	}
	switch bdg.Scope {
	case resolver.Local, resolver.Cell:
		cc.loadLocal(bdg)
	case resolver.Global:
		cc.emitName(GET_GLOBAL, bdg.Name)
	case resolver.Predeclared:
		cc.emitName(GET_PREDECLARED, bdg.Name)
	case resolver.Free:
		orig := cc.fn.rfn.FreeVars[bdg.Index]
		switch {
		case cc.fieldDecl[orig.Decl]:
			cc.loadThis()
			cc.emitName(GET_PROPERTY, orig.Name)
		case orig.Scope == resolver.Global:
			cc.emitName(GET_GLOBAL, orig.Name)
		case orig.Scope == resolver.Predeclared:
			cc.emitName(GET_PREDECLARED, orig.Name)
		default: // Cell
			cc.emitOpU16(GET_UPVALUE, resolveUpvalue(cc.fn, orig))
		}
	default:
		cc.emit1(CONSTANT_NIL)
	}
}

func (cc *compiler) storeIdent(ident *ast.IdentExpr) {
	bdg := cc.res.Idents[ident]
	switch bdg.Scope {
	case resolver.Local, resolver.Cell:
		cc.storeLocal(bdg)
	case resolver.Global:
		cc.emitName(SET_GLOBAL, bdg.Name)
	case resolver.Free:
		// Implicit (bare-name) field stores are rewritten by the caller
		// (assignExpr/incDec) into an explicit this.field sequence before
		// reaching here, since SET_PROPERTY needs the receiver pushed
		// *before* the value; see identField.
		orig := cc.fn.rfn.FreeVars[bdg.Index]
		if orig.Scope == resolver.Global {
			cc.emitName(SET_GLOBAL, orig.Name)
		} else { // Cell (predeclared names are never assignable)
			cc.emitOpU16(SET_UPVALUE, resolveUpvalue(cc.fn, orig))
		}
	}
}

// identField reports whether ident is an implicit (bare-name) reference to
// an enclosing class's field, so assignment and inc/dec can desugar it to
// the same this.field sequence an explicit DotExpr target would use.
func (cc *compiler) identField(ident *ast.IdentExpr) (string, bool) {
	bdg := cc.res.Idents[ident]
	if cc.fieldDecl[bdg.Decl] {
		return bdg.Name, true
	}
	if bdg.Scope != resolver.Free {
		return "", false
	}
	orig := cc.fn.rfn.FreeVars[bdg.Index]
	if cc.fieldDecl[orig.Decl] {
		return orig.Name, true
	}
	return "", false
}

// --- expressions -----------------------------------------------------------

func (cc *compiler) expr(e ast.Expr) {
	switch e := e.(type) {
	case *ast.LiteralExpr:
		cc.literal(e)
	case *ast.IdentExpr:
		cc.loadIdent(e)
	case *ast.ThisExpr:
		cc.loadThis()
	case *ast.BaseExpr:
		cc.emitName(GET_SUPER, e.Member)
	case *ast.ParenExpr:
		cc.expr(e.Expr)
	case *ast.ListExpr:
		for _, el := range e.Elems {
			cc.expr(el)
		}
		cc.emitOpU16(MAKE_LIST, len(e.Elems))
	case *ast.MapExpr:
		for _, kv := range e.Elems {
			cc.expr(kv.Key)
			cc.expr(kv.Value)
		}
		cc.emitOpU16(MAP_INIT, len(e.Elems))
	case *ast.IndexExpr:
		cc.indexExpr(e)
	case *ast.CallExpr:
		cc.callExpr(e)
	case *ast.DotExpr:
		cc.expr(e.Left)
		cc.emitName(GET_PROPERTY, e.Member)
	case *ast.UnaryExpr:
		cc.unaryExpr(e)
	case *ast.PostfixExpr:
		cc.incDec(e.X, e.Op, false)
	case *ast.BinaryExpr:
		cc.binaryExpr(e)
	case *ast.TernaryExpr:
		cc.ternaryExpr(e)
	case *ast.CommaExpr:
		for i, sub := range e.Exprs {
			cc.expr(sub)
			if i != len(e.Exprs)-1 {
				cc.emit1(POP)
			}
		}
	case *ast.AssignExpr:
		cc.assignExpr(e)
	case *ast.FuncExpr:
		rfn := cc.res.Functions[e]
		idx := cc.compileFunction(rfn, "", cc.fn.owner, e)
		cc.emitClosure(idx)
	case *ast.BadExpr:
		cc.emit1(CONSTANT_NIL)
	default:
		panic(fmt.Sprintf("compiler: unhandled expression %T", e))
	}
}

// loadThis compiles a read of `this`. ThisExpr carries no *ast.IdentExpr of
// its own to key resolver.Idents by, so it goes through the same Local/
// Cell/Free dispatch as any other name by locating the binding directly.
func (cc *compiler) loadThis() {
	for _, b := range cc.fn.rfn.Locals {
		if b.Name == "this" {
			cc.loadLocal(b)
			return
		}
	}
	for _, b := range cc.fn.rfn.FreeVars {
		if b.Name == "this" {
			cc.emitOpU16(GET_UPVALUE, resolveUpvalue(cc.fn, b))
			return
		}
	}
	panic("compiler: this referenced outside a method")
}

func (cc *compiler) literal(e *ast.LiteralExpr) {
	switch e.Kind {
	case ast.IntLit, ast.FloatLit, ast.StringLit:
		cc.emitConstant(e.Value)
	case ast.BoolLit:
		if e.Value.(bool) {
			cc.emit1(CONSTANT_TRUE)
		} else {
			cc.emit1(CONSTANT_FALSE)
		}
	default:
		cc.emit1(CONSTANT_NIL)
	}
}

func (cc *compiler) indexExpr(e *ast.IndexExpr) {
	cc.expr(e.Prefix)
	if e.Colon != token.NoPos {
		if e.Low != nil {
			cc.expr(e.Low)
		} else {
			cc.emit1(CONSTANT_NIL)
		}
		if e.High != nil {
			cc.expr(e.High)
		} else {
			cc.emit1(CONSTANT_NIL)
		}
		cc.emit1(CONTAINER_GET_RANGE)
		return
	}
	cc.expr(e.Low)
	cc.emit1(CONTAINER_GET)
}

func (cc *compiler) unaryExpr(e *ast.UnaryExpr) {
	if e.Op.IsIncDec() {
		cc.incDec(e.X, e.Op, true)
		return
	}
	cc.expr(e.X)
	switch e.Op {
	case token.BANG:
		cc.emit1(NOT)
	case token.MINUS:
		cc.emit1(NEGATE)
	}
}

// incDec compiles ++/-- for x, prefix or postfix. A simple identifier
// target gets the dedicated INC/DEC opcode, which alone knows prefix vs.
// postfix; a property or index target desugars into a get/combine/set
// sequence that always yields the post-update value, since that sequence
// has no spare stack slot to also stash the pre-update value for a postfix
// expression's result. This is a deliberate scope reduction: only simple
// identifiers keep the prefix/postfix distinction.
func (cc *compiler) incDec(x ast.Expr, op token.Token, prefix bool) {
	target := ast.Unwrap(x)
	delta := ADD
	if op == token.MINUSMINUS {
		delta = SUBTRACT
	}

	if id, ok := target.(*ast.IdentExpr); ok {
		if name, ok := cc.identField(id); ok {
			cc.loadThis()
			cc.emit1(DUP)
			cc.emitName(GET_PROPERTY, name)
			cc.emitConstant(int64(1))
			cc.emit1(delta)
			cc.emitName(SET_PROPERTY, name)
			return
		}
		bdg := cc.res.Idents[id]
		sec := uint16(0)
		if prefix {
			sec |= SecOpPrefix
		} else {
			sec |= SecOpPostfix
		}
		scope, idx := cc.incDecOperand(bdg)
		sec |= scope
		mainOp := INC
		if op == token.MINUSMINUS {
			mainOp = DEC
		}
		cc.emit1Sec(mainOp, sec)
		cc.emitU16(idx)
		return
	}

	switch t := target.(type) {
	case *ast.DotExpr:
		cc.expr(t.Left)
		cc.emit1(DUP)
		cc.emitName(GET_PROPERTY, t.Member)
		cc.emitConstant(int64(1))
		cc.emit1(delta)
		cc.emitName(SET_PROPERTY, t.Member)
	case *ast.IndexExpr:
		cc.expr(t.Prefix)
		cc.expr(t.Low)
		cc.expr(t.Prefix)
		cc.expr(t.Low)
		cc.emit1(CONTAINER_GET)
		cc.emitConstant(int64(1))
		cc.emit1(delta)
		cc.emit1(CONTAINER_SET)
	}
}

// incDecOperand reports which secondary flag and operand INC/DEC should use
// for bdg: a local slot, a global name (interned in the Names pool), or a
// closure upvalue.
func (cc *compiler) incDecOperand(bdg *resolver.Binding) (uint16, int) {
	switch bdg.Scope {
	case resolver.Local, resolver.Cell:
		return SecOpLocal, bdg.Index
	case resolver.Global:
		return SecOpGlobal, cc.nameIndex(bdg.Name)
	case resolver.Free:
		orig := cc.fn.rfn.FreeVars[bdg.Index]
		if orig.Scope == resolver.Global {
			return SecOpGlobal, cc.nameIndex(orig.Name)
		}
		return SecOpUpvalue, resolveUpvalue(cc.fn, orig)
	}
	return SecOpGlobal, cc.nameIndex(bdg.Name)
}

func (cc *compiler) ternaryExpr(e *ast.TernaryExpr) {
	cc.expr(e.Cond)
	elseJump := cc.emitJump(JUMP_IF_FALSE)
	cc.emit1(POP)
	cc.expr(e.Then)
	endJump := cc.emitJump(JUMP)
	cc.patchJump(elseJump)
	cc.emit1(POP)
	cc.expr(e.Else)
	cc.patchJump(endJump)
}

func (cc *compiler) binaryExpr(e *ast.BinaryExpr) {
	if e.Op == token.AND {
		cc.expr(e.Left)
		endJump := cc.emitJump(JUMP_IF_FALSE)
		cc.emit1(POP)
		cc.expr(e.Right)
		cc.patchJump(endJump)
		return
	}
	if e.Op == token.OR {
		cc.expr(e.Left)
		elseJump := cc.emitJump(JUMP_IF_FALSE)
		endJump := cc.emitJump(JUMP)
		cc.patchJump(elseJump)
		cc.emit1(POP)
		cc.expr(e.Right)
		cc.patchJump(endJump)
		return
	}

	if ob, ok := cc.res.Operators[e]; ok {
		cc.expr(e.Left)
		cc.expr(e.Right)
		name := cc.declNameOf(ob.Method.Decl, opSymbols[e.Op])
		cc.emitName(INVOKE, name)
		cc.emitU8(1)
		return
	}

	cc.expr(e.Left)
	cc.expr(e.Right)
	switch e.Op {
	case token.PLUS:
		cc.emit1(ADD)
	case token.MINUS:
		cc.emit1(SUBTRACT)
	case token.STAR:
		cc.emit1(MULTIPLY)
	case token.SLASH:
		cc.emit1(DIVIDE)
	case token.PERCENT:
		cc.emit1(MOD)
	case token.STARSTAR:
		cc.emit1(POW)
	case token.EQEQ:
		cc.emit1(EQUAL)
	case token.BANGEQ:
		cc.emit1(EQUAL)
		cc.emit1(NOT)
	case token.LT:
		cc.emit1(LESS)
	case token.LE:
		cc.emit1(LESS_EQUAL)
	case token.GT:
		cc.emit1(GREATER)
	case token.GE:
		cc.emit1(GREATER_EQUAL)
	}
}

func (cc *compiler) assignExpr(e *ast.AssignExpr) {
	target := ast.Unwrap(e.Target)

	switch t := target.(type) {
	case *ast.IdentExpr:
		if name, ok := cc.identField(t); ok {
			cc.loadThis()
			if e.Op == token.EQ {
				cc.expr(e.Value)
			} else {
				cc.emit1(DUP)
				cc.emitName(GET_PROPERTY, name)
				cc.expr(e.Value)
				cc.emitArith(e.Op)
			}
			cc.emitName(SET_PROPERTY, name)
			break
		}
		if e.Op == token.EQ {
			cc.expr(e.Value)
		} else {
			cc.loadIdent(t)
			cc.expr(e.Value)
			cc.emitArith(e.Op)
		}
		cc.storeIdent(t)

	case *ast.DotExpr:
		cc.expr(t.Left)
		if e.Op == token.EQ {
			cc.expr(e.Value)
		} else {
			cc.emit1(DUP)
			cc.emitName(GET_PROPERTY, t.Member)
			cc.expr(e.Value)
			cc.emitArith(e.Op)
		}
		cc.emitName(SET_PROPERTY, t.Member)

	case *ast.IndexExpr:
		cc.expr(t.Prefix)
		cc.expr(t.Low)
		if e.Op == token.EQ {
			cc.expr(e.Value)
		} else {
			cc.expr(t.Prefix)
			cc.expr(t.Low)
			cc.emit1(CONTAINER_GET)
			cc.expr(e.Value)
			cc.emitArith(e.Op)
		}
		cc.emit1(CONTAINER_SET)
	}
}

func (cc *compiler) emitArith(op token.Token) {
	switch op {
	case token.PLUS:
		cc.emit1(ADD)
	case token.MINUS:
		cc.emit1(SUBTRACT)
	case token.STAR:
		cc.emit1(MULTIPLY)
	case token.SLASH:
		cc.emit1(DIVIDE)
	case token.PERCENT:
		cc.emit1(MOD)
	case token.STARSTAR:
		cc.emit1(POW)
	}
}

// --- calls -----------------------------------------------------------------

func (cc *compiler) callExpr(e *ast.CallExpr) {
	switch fun := e.Fun.(type) {
	case *ast.IdentExpr:
		if cc.classNames[fun.Name] {
			cc.constructCall(fun.Name, e.Args)
			return
		}
		if cb, ok := cc.res.Calls[e]; ok {
			name := cc.declNameOf(cb.Overload.Decl, fun.Name)
			for _, a := range e.Args {
				cc.expr(a)
			}
			cc.emitName(INVOKE, name)
			cc.emitU8(len(e.Args))
			return
		}
		// A first-class call through a variable holding a closure.
		cc.loadIdent(fun)
		for _, a := range e.Args {
			cc.expr(a)
		}
		cc.emit1(CALL)
		cc.emitU8(len(e.Args))

	case *ast.DotExpr:
		cc.expr(fun.Left)
		for _, a := range e.Args {
			cc.expr(a)
		}
		name := fun.Member
		if cb, ok := cc.res.Calls[e]; ok {
			name = cc.declNameOf(cb.Overload.Decl, fun.Member)
		}
		cc.emitName(INVOKE, name)
		cc.emitU8(len(e.Args))

	case *ast.BaseExpr:
		for _, a := range e.Args {
			cc.expr(a)
		}
		cc.emitName(SUPER_INVOKE, fun.Member)
		cc.emitU8(len(e.Args))

	default:
		cc.expr(e.Fun)
		for _, a := range e.Args {
			cc.expr(a)
		}
		cc.emit1(CALL)
		cc.emitU8(len(e.Args))
	}
}

// constructCall compiles `ClassName(args...)`: materialize a fresh
// instance, then invoke its constructor for effect and discard the
// constructor's own return value, leaving just the instance.
func (cc *compiler) constructCall(className string, args []ast.Expr) {
	cc.emitName(INSTANCE, className)
	cc.emit1(DUP)
	for _, a := range args {
		cc.expr(a)
	}
	cc.emitName(INVOKE, "constructor")
	cc.emitU8(len(args))
	cc.emit1(POP)
}
