package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/corvid-lang/corvid/lang/scanner"
)

func (c *Cmd) Tokenize(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return TokenizeFiles(ctx, stdio, args...)
}

// TokenizeFiles scans each named file fully and prints every token, one per
// line, in the form "line N: TOKEN_KIND lexeme".
func TokenizeFiles(ctx context.Context, stdio mainer.Stdio, files ...string) error {
	toksByFile, err := scanner.ScanFiles(ctx, files...)
	for _, toks := range toksByFile {
		for _, tok := range toks {
			fmt.Fprintf(stdio.Stdout, "line %d: %s", tok.Value.Line, tok.Token)
			if lit := literalOf(tok); lit != "" {
				fmt.Fprintf(stdio.Stdout, " %s", lit)
			}
			fmt.Fprintln(stdio.Stdout)
		}
	}
	if err != nil {
		scanner.PrintError(stdio.Stderr, err)
	}
	return err
}

func literalOf(tv scanner.TokenAndValue) string {
	if tv.Value.Raw != "" {
		return tv.Value.Raw
	}
	return ""
}
