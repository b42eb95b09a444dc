package natives_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corvid-lang/corvid/lang/compiler"
	"github.com/corvid-lang/corvid/lang/gc"
	"github.com/corvid-lang/corvid/lang/machine"
	"github.com/corvid-lang/corvid/lang/natives"
)

func run(t *testing.T, src string) string {
	t.Helper()
	heap := gc.New(gc.DefaultConfig())
	fn, err := compiler.Compile([]byte(src), heap)
	require.NoError(t, err)

	var out, errOut bytes.Buffer
	vm := machine.New(nil, heap, machine.DefaultConfig(), &out, &errOut)
	natives.Register(natives.Env{Alloc: vm.Alloc, Intern: vm.InternString}, vm.Globals)

	require.NoError(t, vm.Interpret(fn), "stderr: %s", errOut.String())
	return out.String()
}

func TestPushPopAndNum(t *testing.T) {
	out := run(t, `
var xs = [1, 2];
push(xs, 3);
print xs;
print pop(xs);
print num("42") + num("1.5");
`)
	require.Equal(t, "[1, 2, 3]\n3\n43.5\n", out)
}

func TestStrRendersLikeDisplay(t *testing.T) {
	out := run(t, `print str([1, 2]);`)
	require.Equal(t, "[1, 2]\n", out)
}

func TestPopEmptyListIsRuntimeError(t *testing.T) {
	heap := gc.New(gc.DefaultConfig())
	fn, err := compiler.Compile([]byte(`pop([]);`), heap)
	require.NoError(t, err)

	var out, errOut bytes.Buffer
	vm := machine.New(nil, heap, machine.DefaultConfig(), &out, &errOut)
	natives.Register(natives.Env{Alloc: vm.Alloc, Intern: vm.InternString}, vm.Globals)

	err = vm.Interpret(fn)
	require.Error(t, err)
}
