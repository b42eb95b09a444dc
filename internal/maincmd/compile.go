package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/corvid-lang/corvid/lang/compiler"
	"github.com/corvid-lang/corvid/lang/disasm"
	"github.com/corvid-lang/corvid/lang/gc"
)

// Compile compiles each file and writes its disassembled bytecode to
// stdout, per the `compile` command (§1 external collaborator: the
// disassembler).
func (c *Cmd) Compile(_ context.Context, stdio mainer.Stdio, args []string) error {
	cfg := gc.DefaultConfig()
	cfg.StressGC = c.StressGC

	var failed bool
	for _, path := range args {
		src, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			failed = true
			continue
		}

		heap := gc.New(cfg)
		fn, err := compiler.Compile(src, heap)
		if err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			failed = true
			continue
		}
		disasm.Disassemble(stdio.Stdout, fn, path)
	}
	if failed {
		return fmt.Errorf("compile failed")
	}
	return nil
}
