package machine

import (
	"fmt"

	"github.com/corvid-lang/corvid/lang/disasm"
)

// traceInstruction prints the current stack contents followed by the
// disassembly of the instruction about to execute, to stderr, when
// cfg.Trace is set (§4.3 "Dispatch... optionally trace").
func (vm *VM) traceInstruction(fr *frame) {
	fmt.Fprint(vm.stderr, "          ")
	for _, v := range vm.stack {
		fmt.Fprintf(vm.stderr, "[ %s ]", FormatValue(v, FlagMachine|FlagCompact))
	}
	fmt.Fprintln(vm.stderr)
	disasm.Instruction(vm.stderr, fr.closure.Fn.Chunk, fr.ip)
}
