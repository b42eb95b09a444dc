package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/corvid-lang/corvid/lang/compiler"
	"github.com/corvid-lang/corvid/lang/gc"
	"github.com/corvid-lang/corvid/lang/machine"
	"github.com/corvid-lang/corvid/lang/natives"
)

// Run compiles and executes each file in turn, per the `run` command.
func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	var failed bool
	for _, path := range args {
		src, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			failed = true
			continue
		}
		if err := c.runSource(ctx, stdio, src); err != nil {
			failed = true
		}
	}
	if failed {
		return fmt.Errorf("run failed")
	}
	return nil
}

// runSource compiles and interprets one source file, printing any compile
// or runtime error to stderr (§7 "Error Handling Design").
func (c *Cmd) runSource(ctx context.Context, stdio mainer.Stdio, src []byte) error {
	gcCfg := gc.DefaultConfig()
	gcCfg.StressGC = c.StressGC
	heap := gc.New(gcCfg)

	fn, err := compiler.Compile(src, heap)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	vmCfg := machine.DefaultConfig()
	vmCfg.Trace = c.Trace
	vm := machine.New(ctx, heap, vmCfg, stdio.Stdout, stdio.Stderr)
	natives.Register(natives.Env{Alloc: vm.Alloc, Intern: vm.InternString}, vm.Globals)

	if err := vm.Interpret(fn); err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	return nil
}
