package maincmd

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/corvid-lang/corvid/lang/compiler"
	"github.com/corvid-lang/corvid/lang/gc"
	"github.com/corvid-lang/corvid/lang/machine"
	"github.com/corvid-lang/corvid/lang/natives"
)

// Repl runs an interactive read-eval-print loop reading lines from stdin
// until EOF (§6 "Driver / CLI"). It ignores args. A single VM and heap
// persist across lines, so globals defined on one line are visible on the
// next. The compiler itself (exprStmt) gives an unterminated
// top-level expression PRINTQ semantics, so the REPL just feeds each line
// through unchanged.
func (c *Cmd) Repl(ctx context.Context, stdio mainer.Stdio, _ []string) error {
	gcCfg := gc.DefaultConfig()
	gcCfg.StressGC = c.StressGC
	heap := gc.New(gcCfg)

	vmCfg := machine.DefaultConfig()
	vmCfg.Trace = c.Trace
	vm := machine.New(ctx, heap, vmCfg, stdio.Stdout, stdio.Stderr)
	natives.Register(natives.Env{Alloc: vm.Alloc, Intern: vm.InternString}, vm.Globals)

	sc := bufio.NewScanner(os.Stdin)
	fmt.Fprint(stdio.Stdout, "> ")
	for sc.Scan() {
		line := sc.Text()

		fn, err := compiler.Compile([]byte(line), heap)
		if err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			fmt.Fprint(stdio.Stdout, "> ")
			continue
		}
		if err := vm.Interpret(fn); err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			if _, fatal := err.(*machine.FatalError); fatal {
				return err
			}
		}
		fmt.Fprint(stdio.Stdout, "> ")
	}
	return sc.Err()
}
