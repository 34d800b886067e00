package interp

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

// runChunk parses and resolves src, then runs it on a fresh Interp seeded
// with the native functions, returning the interpreter (for global
// inspection) and anything it printed.
func runChunk(t *testing.T, src string) (*Interp, *bytes.Buffer, error) {
	t.Helper()

	fset := token.NewFileSet()
	chunk, perr := parser.ParseChunk(fset, "test.vl", []byte(src))
	require.NoError(t, perr)

	_, rerr := resolver.NewSession(isPredeclared).ResolveChunk(context.Background(), fset, chunk)
	require.NoError(t, rerr)

	var out bytes.Buffer
	it := New(machine.NativeFunctions())
	it.Stdout = &out
	err := it.Run(context.Background(), chunk)
	return it, &out, err
}

func TestRunVarAndPrint(t *testing.T) {
	it, out, err := runChunk(t, `
		var x = 1 + 2 * 3;
		print x;
	`)
	require.NoError(t, err)
	assert.Equal(t, "7\n", out.String())
	v, ok := it.globals.Get("x")
	require.True(t, ok)
	assert.Equal(t, machine.Int(7), v)
}

func TestRunIfElse(t *testing.T) {
	_, out, err := runChunk(t, `
		var x = 0;
		if (1 < 2) {
			x = 10;
		} else {
			x = 20;
		}
		print x;
	`)
	require.NoError(t, err)
	assert.Equal(t, "10\n", out.String())
}

func TestRunWhileLoop(t *testing.T) {
	_, out, err := runChunk(t, `
		var i = 0;
		var sum = 0;
		while (i < 5) {
			sum = sum + i;
			i = i + 1;
		}
		print sum;
	`)
	require.NoError(t, err)
	assert.Equal(t, "10\n", out.String())
}

func TestRunForInOverList(t *testing.T) {
	_, out, err := runChunk(t, `
		var sum = 0;
		for (x in [1, 2, 3]) {
			sum = sum + x;
		}
		print sum;
	`)
	require.NoError(t, err)
	assert.Equal(t, "6\n", out.String())
}

func TestRunBreakContinue(t *testing.T) {
	_, out, err := runChunk(t, `
		var sum = 0;
		var i = 0;
		while (i < 10) {
			i = i + 1;
			if (i == 3) {
				continue;
			}
			if (i == 6) {
				break;
			}
			sum = sum + i;
		}
		print sum;
	`)
	require.NoError(t, err)
	assert.Equal(t, "12\n", out.String())
}

func TestRunFunctionClosure(t *testing.T) {
	_, out, err := runChunk(t, `
		fun makeCounter() {
			var count = 0;
			fun inc() {
				count = count + 1;
				return count;
			}
			return inc;
		}
		var c = makeCounter();
		c();
		c();
		print c();
	`)
	require.NoError(t, err)
	assert.Equal(t, "3\n", out.String())
}

func TestRunRecursion(t *testing.T) {
	_, out, err := runChunk(t, `
		fun fib(n) {
			if (n < 2) {
				return n;
			}
			return fib(n - 1) + fib(n - 2);
		}
		print fib(10);
	`)
	require.NoError(t, err)
	assert.Equal(t, "55\n", out.String())
}

func TestRunClassInstanceMethod(t *testing.T) {
	_, out, err := runChunk(t, `
		class Counter {
			var count;
			constructor() {
				this.count = 0;
			}
			fun inc() {
				this.count = this.count + 1;
				return this.count;
			}
		}
		var c = Counter();
		c.inc();
		print c.inc();
	`)
	require.NoError(t, err)
	assert.Equal(t, "2\n", out.String())
}

func TestRunClassInheritanceAndBase(t *testing.T) {
	_, out, err := runChunk(t, `
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
		var d = Dog();
		print d.speak();
	`)
	require.NoError(t, err)
	assert.Equal(t, "\"woof ...\"\n", out.String())
}

// runUnresolved parses src but skips resolution, so interp's own dynamic
// checks (undefined name/base class) run unguarded by the resolver's static
// pass — this is how an embedder driving interp.Run directly, without
// lang/resolver in front of it, would see these errors surface.
func runUnresolved(t *testing.T, src string) error {
	t.Helper()

	fset := token.NewFileSet()
	chunk, perr := parser.ParseChunk(fset, "test.vl", []byte(src))
	require.NoError(t, perr)

	it := New(machine.NativeFunctions())
	var out bytes.Buffer
	it.Stdout = &out
	return it.Run(context.Background(), chunk)
}

func TestRunClassUndefinedBase(t *testing.T) {
	err := runUnresolved(t, `
		class Dog: Animal {
		}
	`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undefined base class")
}

func TestRunListIndexAndMutation(t *testing.T) {
	_, out, err := runChunk(t, `
		var xs = [1, 2, 3];
		xs[1] = 20;
		print xs[1];
	`)
	require.NoError(t, err)
	assert.Equal(t, "20\n", out.String())
}

func TestRunMapIteration(t *testing.T) {
	_, out, err := runChunk(t, `
		var m = {"a": 1, "b": 2, "c": 3};
		var sum = 0;
		for (k in m) {
			sum = sum + m[k];
		}
		print sum;
	`)
	require.NoError(t, err)
	assert.Equal(t, "6\n", out.String())
}

func TestRunNativeLenAndType(t *testing.T) {
	_, out, err := runChunk(t, `
		print len([1, 2, 3]);
		print type(1);
	`)
	require.NoError(t, err)
	assert.Equal(t, "3\n\"int\"\n", out.String())
}

func TestRunTopLevelReturnIsError(t *testing.T) {
	err := runUnresolved(t, `return 1;`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "return used outside a function")
}

func TestRunUndefinedNameIsError(t *testing.T) {
	err := runUnresolved(t, `print y;`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undefined name")
}
