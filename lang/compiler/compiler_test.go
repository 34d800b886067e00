package compiler_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vellum-lang/vellum/lang/compiler"
	"github.com/vellum-lang/vellum/lang/machine"
	"github.com/vellum-lang/vellum/lang/parser"
	"github.com/vellum-lang/vellum/lang/resolver"
	"github.com/vellum-lang/vellum/lang/token"
)

func isPredeclared(name string) bool {
	switch name {
	case "int", "float", "bool", "string", "any", "void", "true", "false", "nil":
		return true
	}
	_, ok := machine.NativeFunctions()[name]
	return ok
}

// compile parses, resolves and compiles src as a single chunk, returning the
// Program for inspection via Dasm.
func compile(t *testing.T, src string) *compiler.Program {
	t.Helper()

	fset := token.NewFileSet()
	chunk, perr := parser.ParseChunk(fset, "test.vl", []byte(src))
	require.NoError(t, perr)

	res, rerr := resolver.NewSession(isPredeclared).ResolveChunk(context.Background(), fset, chunk)
	require.NoError(t, rerr)

	return compiler.Compile(fset, chunk, res)
}

func TestCompileArithmeticEmitsBinaryOps(t *testing.T) {
	p := compile(t, `var x = 1 + 2 * 3;`)
	dasm := compiler.Dasm(p)
	assert.Contains(t, dasm, "multiply")
	assert.Contains(t, dasm, "add")
	assert.Contains(t, dasm, "define_global")
}

func TestCompileGlobalVsLocal(t *testing.T) {
	p := compile(t, `
		var g = 1;
		fun f() {
			var l = 2;
			return l + g;
		}
	`)
	dasm := compiler.Dasm(p)
	assert.Contains(t, dasm, "get_local")
	assert.Contains(t, dasm, "get_global")
}

func TestCompileClosureCapturesUpvalue(t *testing.T) {
	p := compile(t, `
		fun outer() {
			var n = 0;
			fun inner() {
				n = n + 1;
				return n;
			}
			return inner;
		}
	`)
	dasm := compiler.Dasm(p)
	assert.Contains(t, dasm, "closure")
	assert.Contains(t, dasm, "get_local_cell")
	assert.Contains(t, dasm, "set_local_cell")
	assert.Contains(t, dasm, "get_upvalue")
}

func TestCompileIfElseEmitsJumps(t *testing.T) {
	p := compile(t, `
		var x = 0;
		if (x < 1) {
			x = 1;
		} else {
			x = 2;
		}
	`)
	dasm := compiler.Dasm(p)
	assert.Contains(t, dasm, "jump_if_false")
	assert.Contains(t, dasm, "jump")
}

func TestCompileWhileLoopEmitsLoop(t *testing.T) {
	p := compile(t, `
		var i = 0;
		while (i < 10) {
			i = i + 1;
		}
	`)
	dasm := compiler.Dasm(p)
	assert.Contains(t, dasm, "loop")
	assert.Contains(t, dasm, "jump_if_false")
}

func TestCompileForInEmitsIterOps(t *testing.T) {
	p := compile(t, `
		for (x in [1, 2, 3]) {
			print x;
		}
	`)
	dasm := compiler.Dasm(p)
	assert.Contains(t, dasm, "iter_init")
	assert.Contains(t, dasm, "iter_next")
	assert.Contains(t, dasm, "print")
}

func TestCompileClassEmitsClassOps(t *testing.T) {
	p := compile(t, `
		class Animal {
			fun speak() {
				return "...";
			}
		}
		class Dog: Animal {
			fun speak() {
				return "woof " + base.speak();
			}
		}
	`)
	dasm := compiler.Dasm(p)
	assert.Contains(t, dasm, "class")
	assert.Contains(t, dasm, "inherit")
	assert.Contains(t, dasm, "method")
	assert.Contains(t, dasm, "get_super")
	require.Len(t, p.Classes, 2)
	assert.Equal(t, "Animal", p.Classes[0].Name)
	assert.Equal(t, "Dog", p.Classes[1].Name)
}

func TestCompileConstructorAndInstance(t *testing.T) {
	p := compile(t, `
		class Counter {
			var count;
			constructor() {
				this.count = 0;
			}
		}
		var c = Counter();
	`)
	dasm := compiler.Dasm(p)
	assert.Contains(t, dasm, "instance")
	assert.Contains(t, dasm, "set_property")
}

func TestCompileListAndMapLiterals(t *testing.T) {
	p := compile(t, `
		var xs = [1, 2, 3];
		var m = {"a": 1, "b": 2};
		xs[0] = m["a"];
	`)
	dasm := compiler.Dasm(p)
	assert.Contains(t, dasm, "make_list")
	assert.Contains(t, dasm, "map_init")
	assert.Contains(t, dasm, "container_get")
	assert.Contains(t, dasm, "container_set")
}

func TestCompileIncDecSecondaryBits(t *testing.T) {
	p := compile(t, `
		var i = 0;
		i++;
		--i;
	`)
	dasm := compiler.Dasm(p)
	assert.Contains(t, dasm, "inc")
	assert.Contains(t, dasm, "dec")
	assert.Contains(t, dasm, "sec=0xa") // i++: Postfix|Global
	assert.Contains(t, dasm, "sec=0x9") // --i: Prefix|Global
}

func TestCompileCallAndInvoke(t *testing.T) {
	p := compile(t, `
		fun add(a, b) {
			return a + b;
		}
		class Box {
			var v;
			constructor(v) {
				this.v = v;
			}
			fun get() {
				return this.v;
			}
		}
		var b = Box(add(1, 2));
		b.get();
	`)
	dasm := compiler.Dasm(p)
	assert.Contains(t, dasm, "call")
	assert.Contains(t, dasm, "invoke")
}

func TestCompilePredeclaredNative(t *testing.T) {
	p := compile(t, `
		var n = len([1, 2, 3]);
	`)
	dasm := compiler.Dasm(p)
	assert.Contains(t, dasm, "get_predeclared")
}
