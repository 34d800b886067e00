package machine_test

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

// run parses, resolves and compiles src as a single chunk, then executes it
// on a fresh Thread seeded with the native functions, returning the
// top-level chunk's result.
func run(t *testing.T, src string) (machine.Value, error) {
	t.Helper()

	fset := token.NewFileSet()
	chunk, perr := parser.ParseChunk(fset, "test.vl", []byte(src))
	require.NoError(t, perr)

	rres, rerr := resolver.NewSession(isPredeclared).ResolveChunk(context.Background(), fset, chunk)
	require.NoError(t, rerr)

	prog := compiler.Compile(fset, chunk, rres)

	th := &machine.Thread{Predeclared: machine.NativeFunctions()}
	return th.RunProgram(context.Background(), prog)
}

func TestArithmetic(t *testing.T) {
	v, err := run(t, `
		var x = 1 + 2 * 3;
		return x;
	`)
	require.NoError(t, err)
	assert.Equal(t, machine.Int(7), v)
}

func TestStringConcat(t *testing.T) {
	v, err := run(t, `
		var s = "foo" + "bar";
		return s;
	`)
	require.NoError(t, err)
	assert.Equal(t, machine.String("foobar"), v)
}

func TestIfElse(t *testing.T) {
	v, err := run(t, `
		var x = 0;
		if (1 < 2) {
			x = 10;
		} else {
			x = 20;
		}
		return x;
	`)
	require.NoError(t, err)
	assert.Equal(t, machine.Int(10), v)
}

func TestWhileLoop(t *testing.T) {
	v, err := run(t, `
		var i = 0;
		var sum = 0;
		while (i < 5) {
			sum = sum + i;
			i = i + 1;
		}
		return sum;
	`)
	require.NoError(t, err)
	assert.Equal(t, machine.Int(10), v)
}

func TestForLoop(t *testing.T) {
	v, err := run(t, `
		var sum = 0;
		for (var i = 0; i < 5; i = i + 1) {
			sum = sum + i;
		}
		return sum;
	`)
	require.NoError(t, err)
	assert.Equal(t, machine.Int(10), v)
}

func TestForIn(t *testing.T) {
	v, err := run(t, `
		var sum = 0;
		for (x in [1, 2, 3]) {
			sum = sum + x;
		}
		return sum;
	`)
	require.NoError(t, err)
	assert.Equal(t, machine.Int(6), v)
}

func TestFunctionClosure(t *testing.T) {
	v, err := run(t, `
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
		return c();
	`)
	require.NoError(t, err)
	assert.Equal(t, machine.Int(3), v)
}

func TestRecursion(t *testing.T) {
	v, err := run(t, `
		fun fib(n) {
			if (n < 2) {
				return n;
			}
			return fib(n - 1) + fib(n - 2);
		}
		return fib(10);
	`)
	require.NoError(t, err)
	assert.Equal(t, machine.Int(55), v)
}

func TestClassInstanceMethod(t *testing.T) {
	v, err := run(t, `
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
		return c.inc();
	`)
	require.NoError(t, err)
	assert.Equal(t, machine.Int(2), v)
}

func TestClassInheritance(t *testing.T) {
	v, err := run(t, `
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
		return d.speak();
	`)
	require.NoError(t, err)
	assert.Equal(t, machine.String("woof ..."), v)
}

func TestListIndexAndMutation(t *testing.T) {
	v, err := run(t, `
		var xs = [1, 2, 3];
		xs[1] = 20;
		return xs[1];
	`)
	require.NoError(t, err)
	assert.Equal(t, machine.Int(20), v)
}

func TestMapIteration(t *testing.T) {
	v, err := run(t, `
		var m = {"a": 1, "b": 2, "c": 3};
		var sum = 0;
		for (k in m) {
			sum = sum + m[k];
		}
		return sum;
	`)
	require.NoError(t, err)
	assert.Equal(t, machine.Int(6), v)
}

func TestTernaryAndLogical(t *testing.T) {
	v, err := run(t, `
		var x = 5;
		return (x > 0 and x < 10) ? "in range" : "out of range";
	`)
	require.NoError(t, err)
	assert.Equal(t, machine.String("in range"), v)
}

func TestBreakContinue(t *testing.T) {
	v, err := run(t, `
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
		return sum;
	`)
	require.NoError(t, err)
	assert.Equal(t, machine.Int(1+2+4+5), v)
}

func TestRuntimeError(t *testing.T) {
	_, err := run(t, `
		var x = 1;
		return x.field;
	`)
	assert.Error(t, err)
}

func TestNativeLenAndType(t *testing.T) {
	v, err := run(t, `
		return len([1, 2, 3]);
	`)
	require.NoError(t, err)
	assert.Equal(t, machine.Int(3), v)

	v, err = run(t, `
		return type(1);
	`)
	require.NoError(t, err)
	assert.Equal(t, machine.String("int"), v)
}
