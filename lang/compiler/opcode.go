// Package compiler implements the Language's single-pass Pratt compiler: it
// turns a token stream from lang/scanner directly into bytecode, resolving
// lexical scope and capturing upvalues as it goes, with no separate AST or
// resolution pass.
package compiler

// Opcode is one bytecode instruction's tag byte.
type Opcode byte

//nolint:revive
const (
	OP_CONSTANT Opcode = iota
	OP_NIL
	OP_TRUE
	OP_FALSE
	OP_ZERO
	OP_INT // u1: small unsigned int literal, 0..255

	OP_POP
	OP_SWAP
	OP_DUP

	OP_GET_LOCAL // u1
	OP_SET_LOCAL // u1

	OP_GET_GLOBAL  // c1
	OP_DEF_GLOBAL  // c1
	OP_SET_GLOBAL  // c1

	OP_GET_UPVALUE // u1
	OP_SET_UPVALUE // u1
	OP_CLOSE_UPVALUE

	OP_GET_PROPERTY // c1
	OP_SET_PROPERTY // c1
	OP_GET_SUPER    // c1

	OP_EQUAL
	OP_LESS
	OP_ADD
	OP_SUB
	OP_MUL
	OP_DIV
	OP_MOD
	OP_NOT
	OP_NEG

	OP_PRINT
	OP_PRINTLN
	OP_PRINTQ

	OP_JUMP       // u2
	OP_JUMP_OR    // u2
	OP_JUMP_AND   // u2
	OP_JUMP_TRUE  // u2
	OP_JUMP_FALSE // u2
	OP_LOOP       // u2

	OP_CALL  // u1: argCount
	OP_CALL0
	OP_CALL1
	OP_CALL2
	OP_VCALL // u1: base argCount before the unpacked tail

	OP_INVOKE        // c1 u1
	OP_VINVOKE       // c1 u1
	OP_SUPER_INVOKE  // c1 u1
	OP_VSUPER_INVOKE // c1 u1

	OP_CLOSURE // c1 <upvalue bytes...>
	OP_RETURN
	OP_RETURN_NIL

	OP_CLASS   // c1
	OP_INHERIT
	OP_METHOD  // c1

	OP_LIST  // u1
	OP_VLIST // u1
	OP_GET_INDEX
	OP_SET_INDEX
	OP_GET_SLICE

	OP_GET_ITVAL
	OP_SET_ITVAL
	OP_GET_ITKEY

	// OP_ARGMARK pushes a fresh runtime arg-count sentinel (§4.2 "UNPACK...
	// updates arg-count sentinel"); every VCALL/VLIST-eligible argument or
	// list-element list starts with one, OP_UNPACK adds to the innermost
	// sentinel, and the terminating CALL/VCALL/LIST/VLIST opcode consumes it.
	OP_ARGMARK
	OP_UNPACK

	OP_CALL_HAND
	OP_CALL_BIND // c1

	maxOpcode
)

var opcodeNames = [...]string{
	OP_CONSTANT:      "CONSTANT",
	OP_NIL:           "NIL",
	OP_TRUE:          "TRUE",
	OP_FALSE:         "FALSE",
	OP_ZERO:          "ZERO",
	OP_INT:           "INT",
	OP_POP:           "POP",
	OP_SWAP:          "SWAP",
	OP_DUP:           "DUP",
	OP_GET_LOCAL:     "GET_LOCAL",
	OP_SET_LOCAL:     "SET_LOCAL",
	OP_GET_GLOBAL:    "GET_GLOBAL",
	OP_DEF_GLOBAL:    "DEF_GLOBAL",
	OP_SET_GLOBAL:    "SET_GLOBAL",
	OP_GET_UPVALUE:   "GET_UPVALUE",
	OP_SET_UPVALUE:   "SET_UPVALUE",
	OP_CLOSE_UPVALUE: "CLOSE_UPVALUE",
	OP_GET_PROPERTY:  "GET_PROPERTY",
	OP_SET_PROPERTY:  "SET_PROPERTY",
	OP_GET_SUPER:     "GET_SUPER",
	OP_EQUAL:         "EQUAL",
	OP_LESS:          "LESS",
	OP_ADD:           "ADD",
	OP_SUB:           "SUB",
	OP_MUL:           "MUL",
	OP_DIV:           "DIV",
	OP_MOD:           "MOD",
	OP_NOT:           "NOT",
	OP_NEG:           "NEG",
	OP_PRINT:         "PRINT",
	OP_PRINTLN:       "PRINTLN",
	OP_PRINTQ:        "PRINTQ",
	OP_JUMP:          "JUMP",
	OP_JUMP_OR:       "JUMP_OR",
	OP_JUMP_AND:      "JUMP_AND",
	OP_JUMP_TRUE:     "JUMP_TRUE",
	OP_JUMP_FALSE:    "JUMP_FALSE",
	OP_LOOP:          "LOOP",
	OP_CALL:          "CALL",
	OP_CALL0:         "CALL0",
	OP_CALL1:         "CALL1",
	OP_CALL2:         "CALL2",
	OP_VCALL:         "VCALL",
	OP_INVOKE:        "INVOKE",
	OP_VINVOKE:       "VINVOKE",
	OP_SUPER_INVOKE:  "SUPER_INVOKE",
	OP_VSUPER_INVOKE: "VSUPER_INVOKE",
	OP_CLOSURE:       "CLOSURE",
	OP_RETURN:        "RETURN",
	OP_RETURN_NIL:    "RETURN_NIL",
	OP_CLASS:         "CLASS",
	OP_INHERIT:       "INHERIT",
	OP_METHOD:        "METHOD",
	OP_LIST:          "LIST",
	OP_VLIST:         "VLIST",
	OP_GET_INDEX:     "GET_INDEX",
	OP_SET_INDEX:     "SET_INDEX",
	OP_GET_SLICE:     "GET_SLICE",
	OP_GET_ITVAL:     "GET_ITVAL",
	OP_SET_ITVAL:     "SET_ITVAL",
	OP_GET_ITKEY:     "GET_ITKEY",
	OP_ARGMARK:       "ARGMARK",
	OP_UNPACK:        "UNPACK",
	OP_CALL_HAND:     "CALL_HAND",
	OP_CALL_BIND:     "CALL_BIND",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return "UNKNOWN_OPCODE"
}
