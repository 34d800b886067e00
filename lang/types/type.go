// Package types implements the static type lattice used by the resolver to
// typecheck expressions and to dispatch overloaded functions and methods.
//
// A Type is one of: Any, Void, a Primitive (integer, floating, boolean, nil,
// string), a *Class, a *Callable, an *Instance (wrapping a *Class), a *Union
// of alternatives, or a *List/*Map specialization.
package types

import (
	"fmt"
	"strings"
)

// Type is implemented by every member of the lattice.
type Type interface {
	fmt.Stringer
	id() int // used only to order primitives for the promotion rule
}

// Kind classifies a Type without a type switch, for callers that just need
// to branch on shape (e.g. the resolver's for-in element typing).
type Kind int

const (
	KindAny Kind = iota
	KindVoid
	KindPrimitive
	KindClass
	KindInstance
	KindCallable
	KindUnion
	KindList
	KindMap
)

func KindOf(t Type) Kind {
	switch t.(type) {
	case anyType:
		return KindAny
	case voidType:
		return KindVoid
	case Primitive:
		return KindPrimitive
	case *Class:
		return KindClass
	case *Instance:
		return KindInstance
	case *Callable:
		return KindCallable
	case *Union:
		return KindUnion
	case *List:
		return KindList
	case *Map:
		return KindMap
	default:
		return KindAny
	}
}

type anyType struct{}

func (anyType) String() string { return "any" }
func (anyType) id() int        { return -1 }

// Any accepts every other type and is accepted by nothing but itself.
var Any Type = anyType{}

type voidType struct{}

func (voidType) String() string { return "void" }
func (voidType) id() int        { return -2 }

// Void is the return type of a function that never produces a value.
var Void Type = voidType{}

// Primitive is an integer, floating, boolean, nil, or string scalar. The id
// fixes the small-integer promotion order referenced by Unify: a narrower
// primitive (lower id) may stand in for a wider one (higher id), mirroring
// Go's own untyped-constant promotion rules.
type Primitive struct {
	name string
	rank int
}

func (p Primitive) String() string { return p.name }
func (p Primitive) id() int        { return p.rank }

var (
	Bool    = Primitive{name: "bool", rank: 0}
	Nil     = Primitive{name: "nil", rank: 0}
	Int     = Primitive{name: "int", rank: 1}
	Float   = Primitive{name: "float", rank: 2}
	StringT = Primitive{name: "string", rank: 3}
)

// Class is a named class type: its super list (direct bases, vellum supports
// single inheritance so this has at most one element, kept as a slice to
// mirror the ancestor-chain language in the design notes), its field types,
// and its method table (name -> overloaded metatype).
type Class struct {
	Name    string
	Super   []*Class
	Fields  map[string]Type
	Methods map[string]*OverloadSet
	rank    int
}

func (c *Class) String() string { return c.Name }
func (c *Class) id() int        { return c.rank }

// Ancestors returns c and every transitive base, closest first.
func (c *Class) Ancestors() []*Class {
	out := []*Class{c}
	for _, s := range c.Super {
		out = append(out, s.Ancestors()...)
	}
	return out
}

// IsSubclassOf reports whether c's ancestor chain contains base.
func (c *Class) IsSubclassOf(base *Class) bool {
	for _, a := range c.Ancestors() {
		if a == base {
			return true
		}
	}
	return false
}

// Instance wraps a Class: it distinguishes "a value of this class" from "the
// class object itself" (the latter is referenced directly as *Class, e.g.
// when a class name is used as a constructor callee).
type Instance struct {
	Class *Class
}

func (i *Instance) String() string { return i.Class.Name }
func (i *Instance) id() int        { return i.Class.rank }

// Callable is a function or method signature: ordered parameter types and a
// return type. Return may be nil while the resolver is still inferring it
// for a recursive definition (deferred return-type inference).
type Callable struct {
	Params []Type
	Return Type
}

func (c *Callable) String() string {
	parts := make([]string, len(c.Params))
	for i, p := range c.Params {
		parts[i] = p.String()
	}
	ret := "void"
	if c.Return != nil {
		ret = c.Return.String()
	}
	return "fun(" + strings.Join(parts, ", ") + ") -> " + ret
}
func (c *Callable) id() int { return 0 }

// Union is a flat set of alternative types.
type Union struct {
	Alts []Type
}

func (u *Union) String() string {
	parts := make([]string, len(u.Alts))
	for i, a := range u.Alts {
		parts[i] = a.String()
	}
	return strings.Join(parts, " | ")
}
func (u *Union) id() int { return 0 }

// Flatten returns the union with nested unions inlined and duplicates
// removed, preserving first-seen order.
func Flatten(alts []Type) []Type {
	var out []Type
	seen := map[string]bool{}
	var add func(t Type)
	add = func(t Type) {
		if u, ok := t.(*Union); ok {
			for _, a := range u.Alts {
				add(a)
			}
			return
		}
		key := t.String()
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, t)
	}
	for _, a := range alts {
		add(a)
	}
	return out
}

// NewUnion builds a (flattened) union type; a union of one alternative
// collapses to that alternative.
func NewUnion(alts ...Type) Type {
	flat := Flatten(alts)
	if len(flat) == 1 {
		return flat[0]
	}
	return &Union{Alts: flat}
}

// List is the list[T] specialization.
type List struct {
	Elem Type
}

func (l *List) String() string { return "list[" + l.Elem.String() + "]" }
func (l *List) id() int        { return 0 }

// Map is the map[K,V] specialization.
type Map struct {
	Key, Value Type
}

func (m *Map) String() string { return "map[" + m.Key.String() + ", " + m.Value.String() + "]" }
func (m *Map) id() int        { return 0 }

// unwrap strips an Instance wrapper, returning the underlying Class type
// directly; unify compares class shapes, not instance-ness, on either side.
func unwrap(t Type) Type {
	if inst, ok := t.(*Instance); ok {
		return inst.Class
	}
	return t
}

// Unify is the subtype test: it returns true iff derived is assignable where
// base is expected.
func Unify(base, derived Type) bool {
	base, derived = unwrap(base), unwrap(derived)

	if _, ok := base.(anyType); ok {
		return true
	}
	if _, ok := base.(voidType); ok {
		return false
	}
	if du, ok := derived.(*Union); ok {
		for _, alt := range du.Alts {
			if !Unify(base, alt) {
				return false
			}
		}
		return true
	}
	if bu, ok := base.(*Union); ok {
		for _, alt := range bu.Alts {
			if Unify(alt, derived) {
				return true
			}
		}
		return false
	}

	switch b := base.(type) {
	case Primitive:
		d, ok := derived.(Primitive)
		return ok && d.id() <= b.id()
	case *Class:
		d, ok := derived.(*Class)
		return ok && d.IsSubclassOf(b)
	case *Callable:
		d, ok := derived.(*Callable)
		if !ok || len(d.Params) != len(b.Params) {
			return false
		}
		for i := range b.Params {
			// parameters are contravariant: the derived callable must accept
			// everything the base callable's parameter accepts.
			if !Unify(d.Params[i], b.Params[i]) {
				return false
			}
		}
		if b.Return == nil || d.Return == nil {
			return true
		}
		return Unify(b.Return, d.Return)
	case *List:
		d, ok := derived.(*List)
		return ok && Unify(b.Elem, d.Elem)
	case *Map:
		d, ok := derived.(*Map)
		return ok && Unify(b.Key, d.Key) && Unify(b.Value, d.Value)
	default:
		return base.String() == derived.String()
	}
}

// Intersect returns the most-derived common supertype of a and b, or Any
// when neither side is assignable to the other. Used to type ternary
// expressions and to merge branches flowing into the same join point.
func Intersect(a, b Type) Type {
	if Unify(a, b) {
		return a
	}
	if Unify(b, a) {
		return b
	}
	if ca, ok := unwrap(a).(*Class); ok {
		if cb, ok := unwrap(b).(*Class); ok {
			for _, anc := range ca.Ancestors() {
				if cb.IsSubclassOf(anc) {
					return anc
				}
			}
		}
	}
	return Any
}

// distance measures how far derived is promoted past param under Unify; used
// to pick the closest-matching overload. Lower is a better match. Returns -1
// when arg is not assignable to param at all.
func distance(param, arg Type) int {
	if !Unify(param, arg) {
		return -1
	}
	pu, au := unwrap(param), unwrap(arg)
	switch p := pu.(type) {
	case Primitive:
		a, ok := au.(Primitive)
		if !ok {
			return -1
		}
		return p.id() - a.id()
	case *Class:
		a, ok := au.(*Class)
		if !ok {
			return -1
		}
		for i, anc := range a.Ancestors() {
			if anc == p {
				return i
			}
		}
		return -1
	default:
		if pu.String() == au.String() {
			return 0
		}
		return 1
	}
}
