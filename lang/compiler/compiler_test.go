package compiler_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corvid-lang/corvid/lang/compiler"
	"github.com/corvid-lang/corvid/lang/disasm"
	"github.com/corvid-lang/corvid/lang/gc"
)

func compile(t *testing.T, src string) *bytes.Buffer {
	t.Helper()
	heap := gc.New(gc.DefaultConfig())
	fn, err := compiler.Compile([]byte(src), heap)
	require.NoError(t, err)
	var buf bytes.Buffer
	disasm.Disassemble(&buf, fn, "script")
	return &buf
}

func TestCompileEmitsArgMarkForListLiteral(t *testing.T) {
	out := compile(t, `var xs = [1, 2, 3];`)
	require.Contains(t, out.String(), "ARGMARK")
	require.Contains(t, out.String(), "LIST")
}

func TestCompileEmitsArgMarkForCallArguments(t *testing.T) {
	out := compile(t, `fun f(a, b) { return a; } f(1, 2);`)
	require.Contains(t, out.String(), "ARGMARK")
	require.Contains(t, out.String(), "CALL")
}

func TestCompileEmitsUnpackForSpreadArgument(t *testing.T) {
	out := compile(t, `fun f(..a) { return a; } var xs = [1, 2]; f(..xs);`)
	require.Contains(t, out.String(), "UNPACK")
	require.Contains(t, out.String(), "VCALL")
}

func TestCompileEmitsGetSetUpvalue(t *testing.T) {
	out := compile(t, `
fun outer() {
	var n = 0;
	fun inner() {
		n = n + 1;
		return n;
	}
	return inner;
}
`)
	s := out.String()
	require.Contains(t, s, "GET_UPVALUE")
	require.Contains(t, s, "SET_UPVALUE")
	require.Contains(t, s, "CLOSURE")
}

func TestUnterminatedStringReportsCompileError(t *testing.T) {
	heap := gc.New(gc.DefaultConfig())
	_, err := compiler.Compile([]byte(`print "unterminated;`), heap)
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 1")
}

func TestBreakOutsideLoopIsCompileError(t *testing.T) {
	heap := gc.New(gc.DefaultConfig())
	_, err := compiler.Compile([]byte(`break;`), heap)
	require.Error(t, err)
}

func TestTopLevelExprWithoutSemicolonEmitsPrintQ(t *testing.T) {
	out := compile(t, `1 + 2`)
	require.Contains(t, out.String(), "PRINTQ")
}

func TestTopLevelExprWithSemicolonEmitsPop(t *testing.T) {
	out := compile(t, `1 + 2;`)
	require.Contains(t, out.String(), "POP")
	require.NotContains(t, out.String(), "PRINTQ")
}
