package object

import "fmt"

// maxConstants is the number of indexes a one-byte constant-pool operand
// (CONSTANT and friends) can address; AddConstant caps a function's pool at
// maxConstants-1 (255) entries.
const maxConstants = 256

// lineRun is one run-length-encoded entry of a Chunk's line table: every
// byte at Offset and after (until the next run) was emitted while compiling
// source line Line.
type lineRun struct {
	Offset int
	Line   int
}

// Chunk is a compiled function's bytecode: the instruction stream, a
// run-length line table for error reporting, and a deduplicated constant
// pool. Code is append-only except for two-byte jump offsets patched by
// their emitter.
type Chunk struct {
	Code      []byte
	lines     []lineRun
	Constants []Value
}

// Write appends a single byte to the chunk, recording it as having been
// emitted on the given source line.
func (c *Chunk) Write(b byte, line int) int {
	off := len(c.Code)
	c.Code = append(c.Code, b)
	if len(c.lines) == 0 || c.lines[len(c.lines)-1].Line != line {
		c.lines = append(c.lines, lineRun{Offset: off, Line: line})
	}
	return off
}

// GetLine returns the source line that produced the instruction at the
// given code offset, binary-searching the run-length line table.
func (c *Chunk) GetLine(offset int) int {
	lo, hi := 0, len(c.lines)-1
	best := 0
	for lo <= hi {
		mid := (lo + hi) / 2
		if c.lines[mid].Offset <= offset {
			best = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	if len(c.lines) == 0 {
		return 0
	}
	return c.lines[best].Line
}

// AddConstant interns v into the constant pool, deduplicating by structural
// equality (reals by numeric value, strings by intern identity — which for
// an interned string table means pointer identity already holds). Returns
// the byte index, or an error if the pool would exceed 255 entries.
func (c *Chunk) AddConstant(v Value) (byte, error) {
	for i, existing := range c.Constants {
		if constantEqual(existing, v) {
			return byte(i), nil
		}
	}
	if len(c.Constants) >= maxConstants-1 {
		return 0, fmt.Errorf("too many constants in one function (max %d)", maxConstants-1)
	}
	c.Constants = append(c.Constants, v)
	return byte(len(c.Constants) - 1), nil
}

func constantEqual(a, b Value) bool {
	switch av := a.(type) {
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv
	case *Real:
		bv, ok := b.(*Real)
		return ok && av.Val == bv.Val
	case *String:
		bv, ok := b.(*String)
		return ok && av == bv
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Nil:
		_, ok := b.(Nil)
		return ok
	default:
		return a == b
	}
}
