package machine_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corvid-lang/corvid/lang/compiler"
	"github.com/corvid-lang/corvid/lang/gc"
	"github.com/corvid-lang/corvid/lang/machine"
	"github.com/corvid-lang/corvid/lang/natives"
)

// run compiles and interprets src against a fresh heap/VM and returns
// stdout. It fails the test immediately on a compile or runtime error.
func run(t *testing.T, src string) string {
	t.Helper()
	heap := gc.New(gc.DefaultConfig())
	fn, err := compiler.Compile([]byte(src), heap)
	require.NoError(t, err)

	var out, errOut bytes.Buffer
	vm := machine.New(nil, heap, machine.DefaultConfig(), &out, &errOut)
	natives.Register(natives.Env{Alloc: vm.Alloc, Intern: vm.InternString}, vm.Globals)

	err = vm.Interpret(fn)
	require.NoError(t, err, "stderr: %s", errOut.String())
	return out.String()
}

// runErr is like run but expects a runtime error and returns its message.
func runErr(t *testing.T, src string) string {
	t.Helper()
	heap := gc.New(gc.DefaultConfig())
	fn, err := compiler.Compile([]byte(src), heap)
	require.NoError(t, err)

	var out, errOut bytes.Buffer
	vm := machine.New(nil, heap, machine.DefaultConfig(), &out, &errOut)
	natives.Register(natives.Env{Alloc: vm.Alloc, Intern: vm.InternString}, vm.Globals)

	err = vm.Interpret(fn)
	require.Error(t, err)
	return err.Error()
}

// print's comma form concatenates each value with no separator, only the
// final value getting a trailing newline (printStmt: every value but the
// last is OP_PRINT, only the last is OP_PRINTLN).
func TestArithmeticAndPrint(t *testing.T) {
	out := run(t, `print 1 + 2, 3 * 4;`)
	require.Equal(t, "312\n", out)
}

func TestIntegerOverflowPromotesToReal(t *testing.T) {
	out := run(t, `print 9223372036854775807 + 1;`)
	require.Equal(t, "9.223372036854776e+18\n", out)
}

func TestStringConcatAndListConcat(t *testing.T) {
	out := run(t, `print "foo" + "bar";
print [1, 2] + [3];`)
	require.Equal(t, "foobar\n[1, 2, 3]\n", out)
}

func TestVarAndWhileLoop(t *testing.T) {
	src := `
var i = 0;
var sum = 0;
while (i < 5) {
	sum = sum + i;
	i = i + 1;
}
print sum;
`
	out := run(t, src)
	require.Equal(t, "10\n", out)
}

func TestFunctionClosureUpvalue(t *testing.T) {
	src := `
fun counter() {
	var n = 0;
	fun inc() {
		n = n + 1;
		return n;
	}
	return inc;
}
var c = counter();
print c(), c(), c();
`
	out := run(t, src)
	require.Equal(t, "123\n", out)
}

func TestClassesAndMethods(t *testing.T) {
	src := `
class Point {
	init(x, y) {
		this.x = x;
		this.y = y;
	}
	sum() {
		return this.x + this.y;
	}
}
var p = Point(3, 4);
print p.sum();
`
	out := run(t, src)
	require.Equal(t, "7\n", out)
}

func TestIndexAndSlice(t *testing.T) {
	src := `
var xs = [10, 20, 30, 40];
print xs[1], xs[-1];
print xs[1:3];
`
	out := run(t, src)
	require.Equal(t, "2040\n[20, 30]\n", out)
}

func TestHandleCatchesRuntimeError(t *testing.T) {
	src := `
fun boom() {
	return 1 / 0;
}
fun fallback() {
	return -1;
}
print handle(fallback() : boom());
`
	out := run(t, src)
	require.Equal(t, "-1\n", out)
}

func TestHandlePropagatesOnSuccess(t *testing.T) {
	src := `
fun ok() { return 42; }
fun fallback() { return -1; }
print handle(fallback() : ok());
`
	out := run(t, src)
	require.Equal(t, "42\n", out)
}

func TestDynvarBindsAndReadsGlobal(t *testing.T) {
	out := run(t, `print dynvar(x = 1 : x + 1);`)
	require.Equal(t, "2\n", out)
}

func TestDivideByZeroIsRuntimeError(t *testing.T) {
	msg := runErr(t, `print 1 / 0;`)
	require.Contains(t, msg, "divi")
}

func TestStringLessThanStringIsTypeError(t *testing.T) {
	msg := runErr(t, `print "a" < "b";`)
	require.NotEmpty(t, msg)
}

func TestNativeLengthAndType(t *testing.T) {
	out := run(t, `print length([1, 2, 3]), length("abcd"), type(1);`)
	require.Equal(t, "34int\n", out)
}

func TestIteratorWalksInstanceFields(t *testing.T) {
	src := `
class Pair {
	init(a, b) {
		this.a = a;
		this.b = b;
	}
}
var p = Pair(1, 2);
var it = iterate(p);
var total = 0;
while (advance(it)) {
	total = total + it.val;
}
print total;
`
	out := run(t, src)
	require.Equal(t, "3\n", out)
}
