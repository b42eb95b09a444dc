package scanner

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corvid-lang/corvid/lang/token"
)

func scanAll(t *testing.T, src string) ([]token.Token, []token.Value) {
	t.Helper()
	var s Scanner
	var errs []string
	s.Init([]byte(src), func(line int, msg string) { errs = append(errs, msg) })

	var toks []token.Token
	var vals []token.Value
	for {
		var v token.Value
		tok := s.Scan(&v)
		toks = append(toks, tok)
		vals = append(vals, v)
		if tok == token.EOF {
			break
		}
	}
	require.Empty(t, errs)
	return toks, vals
}

func TestScanPunctAndKeywords(t *testing.T) {
	toks, _ := scanAll(t, `var x = 1 + 2; if (x) { print x; } else { print nil; }`)
	want := []token.Token{
		token.VAR, token.IDENT, token.EQ, token.INT, token.PLUS, token.INT, token.SEMI,
		token.IF, token.LPAREN, token.IDENT, token.RPAREN, token.LBRACE,
		token.PRINT, token.IDENT, token.SEMI, token.RBRACE,
		token.ELSE, token.LBRACE, token.PRINT, token.NIL, token.SEMI, token.RBRACE,
		token.EOF,
	}
	require.Equal(t, want, toks)
}

func TestScanNumbers(t *testing.T) {
	toks, vals := scanAll(t, `0 255 1.5 1e10 2.5e-3 %1010 $ff`)
	require.Equal(t, []token.Token{
		token.INT, token.INT, token.REAL, token.REAL, token.REAL, token.INT, token.INT, token.EOF,
	}, toks)
	require.Equal(t, int64(0), vals[0].Int)
	require.Equal(t, int64(255), vals[1].Int)
	require.Equal(t, 1.5, vals[2].Real)
	require.Equal(t, int64(10), vals[5].Int)
	require.Equal(t, int64(255), vals[6].Int)
}

func TestScanString(t *testing.T) {
	toks, vals := scanAll(t, `"hello\nworld"`)
	require.Equal(t, []token.Token{token.STRING, token.EOF}, toks)
	require.Equal(t, "hello\nworld", vals[0].Str)
}

func TestScanOperators(t *testing.T) {
	toks, _ := scanAll(t, `.. -> == != <= >= < >`)
	require.Equal(t, []token.Token{
		token.DOTDOT, token.ARROW, token.EQEQ, token.BANGEQ, token.LE, token.GE, token.LT, token.GT, token.EOF,
	}, toks)
}

func TestScanComment(t *testing.T) {
	toks, _ := scanAll(t, "var x = 1 // trailing comment\nprint x;")
	require.Equal(t, []token.Token{
		token.VAR, token.IDENT, token.EQ, token.INT, token.PRINT, token.IDENT, token.SEMI, token.EOF,
	}, toks)
}

func TestScanError(t *testing.T) {
	var s Scanner
	var errs []string
	s.Init([]byte("`"), func(line int, msg string) { errs = append(errs, msg) })
	var v token.Value
	tok := s.Scan(&v)
	require.Equal(t, token.ERROR, tok)
	require.NotEmpty(t, errs)
}
