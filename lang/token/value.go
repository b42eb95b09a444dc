package token

// Value carries the decoded literal payload for a scanned token, alongside
// its raw lexeme and source line. Only the fields relevant to tok.Token are
// populated.
type Value struct {
	Raw  string // the literal source text of the token
	Line int    // 1-based source line the token starts on

	Int  int64   // populated for INT
	Real float64 // populated for REAL
	Str  string  // populated for STRING (decoded); an ERROR token carries only Raw, its message goes to the scanner's error handler
}
