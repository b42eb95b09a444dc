// Package disasm renders compiled bytecode back into a human-readable
// instruction stream: one line per opcode, with its operand decoded. It is
// the one external collaborator both the `compile` command's disassembly
// output and the virtual machine's --trace flag depend on (§1, §4.3
// "Dispatch... optionally trace").
package disasm

import (
	"fmt"
	"io"

	"github.com/corvid-lang/corvid/lang/compiler"
	"github.com/corvid-lang/corvid/lang/object"
)

// Disassemble writes every instruction in fn's chunk (and recursively, every
// nested function constant) to w under the given name.
func Disassemble(w io.Writer, fn *object.Function, name string) {
	fmt.Fprintf(w, "== %s ==\n", name)
	chunk := fn.Chunk
	for offset := 0; offset < len(chunk.Code); {
		line, next := Instruction(w, chunk, offset)
		_ = line
		offset = next
	}
	for _, c := range chunk.Constants {
		if nested, ok := c.(*object.Function); ok {
			nestedName := nested.Name
			if nestedName == "" {
				nestedName = "<lambda>"
			}
			Disassemble(w, nested, nestedName)
		}
	}
}

// Instruction writes the single instruction at offset to w, returning the
// source line it was compiled from and the offset of the next instruction.
func Instruction(w io.Writer, chunk *object.Chunk, offset int) (line, next int) {
	line = chunk.GetLine(offset)
	fmt.Fprintf(w, "%04d %4d ", offset, line)

	op := compiler.Opcode(chunk.Code[offset])
	switch op {
	case compiler.OP_CONSTANT, compiler.OP_GET_GLOBAL, compiler.OP_DEF_GLOBAL,
		compiler.OP_SET_GLOBAL, compiler.OP_GET_PROPERTY, compiler.OP_SET_PROPERTY,
		compiler.OP_GET_SUPER, compiler.OP_CLASS, compiler.OP_METHOD, compiler.OP_CALL_BIND:
		return line, constantInstruction(w, op, chunk, offset)

	case compiler.OP_INT, compiler.OP_GET_LOCAL, compiler.OP_SET_LOCAL,
		compiler.OP_GET_UPVALUE, compiler.OP_SET_UPVALUE, compiler.OP_CALL,
		compiler.OP_VCALL, compiler.OP_LIST, compiler.OP_VLIST:
		return line, byteInstruction(w, op, chunk, offset)

	case compiler.OP_INVOKE, compiler.OP_VINVOKE, compiler.OP_SUPER_INVOKE, compiler.OP_VSUPER_INVOKE:
		return line, invokeInstruction(w, op, chunk, offset)

	case compiler.OP_JUMP, compiler.OP_JUMP_OR, compiler.OP_JUMP_AND,
		compiler.OP_JUMP_TRUE, compiler.OP_JUMP_FALSE:
		return line, jumpInstruction(w, op, 1, chunk, offset)
	case compiler.OP_LOOP:
		return line, jumpInstruction(w, op, -1, chunk, offset)

	case compiler.OP_CLOSURE:
		return line, closureInstruction(w, chunk, offset)

	default:
		fmt.Fprintln(w, op)
		return line, offset + 1
	}
}

func constantInstruction(w io.Writer, op compiler.Opcode, chunk *object.Chunk, offset int) int {
	idx := chunk.Code[offset+1]
	fmt.Fprintf(w, "%-16s %4d '%s'\n", op, idx, chunk.Constants[idx].String())
	return offset + 2
}

func byteInstruction(w io.Writer, op compiler.Opcode, chunk *object.Chunk, offset int) int {
	operand := chunk.Code[offset+1]
	fmt.Fprintf(w, "%-16s %4d\n", op, operand)
	return offset + 2
}

func invokeInstruction(w io.Writer, op compiler.Opcode, chunk *object.Chunk, offset int) int {
	idx := chunk.Code[offset+1]
	argCount := chunk.Code[offset+2]
	fmt.Fprintf(w, "%-16s (%d args) %4d '%s'\n", op, argCount, idx, chunk.Constants[idx].String())
	return offset + 3
}

func jumpInstruction(w io.Writer, op compiler.Opcode, sign int, chunk *object.Chunk, offset int) int {
	jump := int(uint16(chunk.Code[offset+1])<<8 | uint16(chunk.Code[offset+2]))
	target := offset + 3 + sign*jump
	fmt.Fprintf(w, "%-16s %4d -> %d\n", op, offset, target)
	return offset + 3
}

func closureInstruction(w io.Writer, chunk *object.Chunk, offset int) int {
	idx := chunk.Code[offset+1]
	offset += 2
	fn, _ := chunk.Constants[idx].(*object.Function)
	fmt.Fprintf(w, "%-16s %4d '%s'\n", compiler.OP_CLOSURE, idx, chunk.Constants[idx].String())
	if fn == nil {
		return offset
	}
	for i := 0; i < fn.UpvalueCnt; i++ {
		b := chunk.Code[offset]
		offset++
		isLocal := "upvalue"
		if b&0x80 != 0 {
			isLocal = "local"
		}
		fmt.Fprintf(w, "%04d      |                     %s %d\n", offset-1, isLocal, b&^0x80)
	}
	return offset
}
