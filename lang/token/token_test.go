package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenString(t *testing.T) {
	for tok := Token(0); tok < maxToken; tok++ {
		require.NotEmpty(t, tok.String(), "token %d missing a string representation", tok)
	}
}

func TestGoString(t *testing.T) {
	require.Equal(t, "'+'", PLUS.GoString())
	require.Equal(t, "'->'", ARROW.GoString())
	require.Equal(t, "identifier", IDENT.GoString())
	require.Equal(t, "fun", FUN.GoString())
}

func TestIsKeyword(t *testing.T) {
	require.True(t, FUN.IsKeyword())
	require.True(t, DYNVAR.IsKeyword())
	require.False(t, IDENT.IsKeyword())
	require.False(t, PLUS.IsKeyword())
	require.False(t, EOF.IsKeyword())
}

func TestLookup(t *testing.T) {
	for word, tok := range Keywords {
		require.Equal(t, tok, Lookup(word))
	}
	require.Equal(t, IDENT, Lookup("notAKeyword"))
	require.Equal(t, IDENT, Lookup(""))
}
