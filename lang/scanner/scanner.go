// Package scanner implements the Language's lexical scanner: the external
// collaborator that turns a source buffer into a stream of tokens for the
// compiler to consume. It never sees the parser's grammar; it only knows
// about characters, keywords and literal syntax.
package scanner

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/corvid-lang/corvid/lang/token"
)

// Error is a single scanning error, tied to a source file and line.
type Error struct {
	File string
	Line int
	Msg  string
}

func (e *Error) Error() string {
	if e.File == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

// ErrorList accumulates scanning errors across one or more files.
type ErrorList []*Error

// Add appends a new error to the list.
func (l *ErrorList) Add(file string, line int, msg string) {
	*l = append(*l, &Error{File: file, Line: line, Msg: msg})
}

// Sort orders the errors by file then line.
func (l ErrorList) Sort() {
	sort.Slice(l, func(i, j int) bool {
		if l[i].File != l[j].File {
			return l[i].File < l[j].File
		}
		return l[i].Line < l[j].Line
	})
}

func (l ErrorList) Error() string {
	var sb strings.Builder
	for i, e := range l {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(e.Error())
	}
	return sb.String()
}

// Err returns l as an error, or nil if l is empty.
func (l ErrorList) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

// PrintError writes every error in err (an ErrorList, a single *Error, or any
// other error) to w, one per line.
func PrintError(w io.Writer, err error) {
	if el, ok := err.(ErrorList); ok {
		for _, e := range el {
			fmt.Fprintln(w, e.Error())
		}
		return
	}
	fmt.Fprintln(w, err.Error())
}

// TokenAndValue pairs a scanned token kind with its literal value.
type TokenAndValue struct {
	Token token.Token
	Value token.Value
}

// ScanFiles tokenizes each named file fully and returns the resulting token
// streams, grouped by file (same index as the input). The returned error, if
// non-nil, is an ErrorList.
func ScanFiles(_ context.Context, files ...string) ([][]TokenAndValue, error) {
	if len(files) == 0 {
		return nil, nil
	}

	var el ErrorList
	out := make([][]TokenAndValue, len(files))
	for i, file := range files {
		b, err := os.ReadFile(file)
		if err != nil {
			el.Add(file, 0, err.Error())
			continue
		}

		var s Scanner
		s.Init(b, func(line int, msg string) { el.Add(file, line, msg) })
		var val token.Value
		for {
			tok := s.Scan(&val)
			out[i] = append(out[i], TokenAndValue{Token: tok, Value: val})
			if tok == token.EOF {
				break
			}
		}
	}
	el.Sort()
	return out, el.Err()
}

// Scanner tokenizes a single source buffer.
type Scanner struct {
	src []byte
	err func(line int, msg string)

	start int // byte offset of the token currently being scanned
	cur   int // byte offset of the next unread byte
	line  int
}

// Init prepares s to scan src from the beginning. errHandler, if non-nil, is
// invoked for every scanning error encountered (illegal characters,
// unterminated strings, malformed numbers).
func (s *Scanner) Init(src []byte, errHandler func(line int, msg string)) {
	s.src = src
	s.err = errHandler
	s.start = 0
	s.cur = 0
	s.line = 1
}

func (s *Scanner) atEnd() bool { return s.cur >= len(s.src) }

func (s *Scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.src[s.cur]
}

func (s *Scanner) peekNext() byte {
	if s.cur+1 >= len(s.src) {
		return 0
	}
	return s.src[s.cur+1]
}

func (s *Scanner) advance() byte {
	b := s.src[s.cur]
	s.cur++
	return b
}

func (s *Scanner) match(want byte) bool {
	if s.atEnd() || s.src[s.cur] != want {
		return false
	}
	s.cur++
	return true
}

func (s *Scanner) lexeme() string { return string(s.src[s.start:s.cur]) }

func (s *Scanner) errorf(format string, args ...any) {
	if s.err != nil {
		s.err(s.line, fmt.Sprintf(format, args...))
	}
}

func (s *Scanner) skipWhitespace() {
	for {
		switch c := s.peek(); c {
		case ' ', '\t', '\r':
			s.cur++
		case '\n':
			s.line++
			s.cur++
		case '/':
			if s.peekNext() == '/' {
				for !s.atEnd() && s.peek() != '\n' {
					s.cur++
				}
				continue
			}
			return
		default:
			return
		}
	}
}

// Scan returns the next token, populating val with its literal payload.
func (s *Scanner) Scan(val *token.Value) token.Token {
	s.skipWhitespace()
	s.start = s.cur
	*val = token.Value{Line: s.line}

	if s.atEnd() {
		return token.EOF
	}

	c := s.advance()
	switch {
	case isLetter(c):
		return s.identifier(val)
	case isDigit(c) || (c == '$' && isHex(s.peek())) || (c == '%' && isBinary(s.peek())):
		return s.number(val, c)
	}

	switch c {
	case '(':
		return s.punct(val, token.LPAREN)
	case ')':
		return s.punct(val, token.RPAREN)
	case '{':
		return s.punct(val, token.LBRACE)
	case '}':
		return s.punct(val, token.RBRACE)
	case '[':
		return s.punct(val, token.LBRACK)
	case ']':
		return s.punct(val, token.RBRACK)
	case ',':
		return s.punct(val, token.COMMA)
	case ';':
		return s.punct(val, token.SEMI)
	case '+':
		return s.punct(val, token.PLUS)
	case '*':
		return s.punct(val, token.STAR)
	case '/':
		return s.punct(val, token.SLASH)
	case '%':
		return s.punct(val, token.PERCENT)
	case ':':
		return s.punct(val, token.COLON)
	case '!':
		if s.match('=') {
			return s.punct(val, token.BANGEQ)
		}
		return s.punct(val, token.BANG)
	case '=':
		if s.match('=') {
			return s.punct(val, token.EQEQ)
		}
		return s.punct(val, token.EQ)
	case '<':
		if s.match('=') {
			return s.punct(val, token.LE)
		}
		return s.punct(val, token.LT)
	case '>':
		if s.match('=') {
			return s.punct(val, token.GE)
		}
		return s.punct(val, token.GT)
	case '.':
		if s.match('.') {
			return s.punct(val, token.DOTDOT)
		}
		return s.punct(val, token.DOT)
	case '-':
		if s.match('>') {
			return s.punct(val, token.ARROW)
		}
		return s.punct(val, token.MINUS)
	case '"':
		return s.string(val)
	default:
		s.errorf("unexpected character %q", c)
		val.Raw = string(c)
		return token.ERROR
	}
}

func (s *Scanner) punct(val *token.Value, tok token.Token) token.Token {
	val.Raw = s.lexeme()
	return tok
}

func (s *Scanner) identifier(val *token.Value) token.Token {
	for isLetter(s.peek()) || isDigit(s.peek()) {
		s.cur++
	}
	lit := s.lexeme()
	val.Raw = lit
	return token.Lookup(lit)
}

func (s *Scanner) number(val *token.Value, first byte) token.Token {
	isReal := false
	switch first {
	case '%':
		for isBinary(s.peek()) {
			s.cur++
		}
	case '$':
		for isHex(s.peek()) {
			s.cur++
		}
	default:
		for isDigit(s.peek()) {
			s.cur++
		}
		if s.peek() == '.' && isDigit(s.peekNext()) {
			isReal = true
			s.cur++ // consume '.'
			for isDigit(s.peek()) {
				s.cur++
			}
		}
		if s.peek() == 'e' || s.peek() == 'E' {
			isReal = true
			s.cur++
			if s.peek() == '+' || s.peek() == '-' {
				s.cur++
			}
			digits := 0
			for isDigit(s.peek()) {
				s.cur++
				digits++
			}
			if digits == 0 {
				s.errorf("empty exponent part")
				val.Raw = s.lexeme()
				return token.ERROR
			}
		}
	}

	if isAlnum(s.peek()) {
		s.errorf("invalid digit %q", s.peek())
		val.Raw = s.lexeme()
		return token.ERROR
	}

	lit := s.lexeme()
	val.Raw = lit
	if isReal {
		f, err := parseReal(lit)
		if err != nil {
			s.errorf("malformed real literal %q", lit)
			return token.ERROR
		}
		val.Real = f
		return token.REAL
	}
	n, err := parseInt(lit)
	if err != nil {
		s.errorf("malformed integer literal %q", lit)
		return token.ERROR
	}
	val.Int = n
	return token.INT
}

func (s *Scanner) string(val *token.Value) token.Token {
	var sb strings.Builder
	for !s.atEnd() && s.peek() != '"' {
		c := s.advance()
		if c == '\n' {
			s.line++
			sb.WriteByte(c)
			continue
		}
		if c == '\\' && !s.atEnd() {
			switch e := s.advance(); e {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			default:
				sb.WriteByte('\\')
				sb.WriteByte(e)
			}
			continue
		}
		sb.WriteByte(c)
	}
	if s.atEnd() {
		s.errorf("unterminated string")
		val.Raw = s.lexeme()
		return token.ERROR
	}
	s.cur++ // closing quote
	val.Raw = s.lexeme()
	val.Str = sb.String()
	return token.STRING
}

func isLetter(c byte) bool {
	return c == '_' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || c >= utf8.RuneSelf
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func isAlnum(c byte) bool {
	return isLetter(c) || isDigit(c) || (c >= utf8.RuneSelf && unicode.IsLetter(rune(c)))
}

func isBinary(c byte) bool { return c == '0' || c == '1' }

func isHex(c byte) bool {
	return isDigit(c) || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}
