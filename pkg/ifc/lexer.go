package ifc

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/pkg/errors"
	"github.com/tdewolff/parse/v2"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokKeyword
	tokRef
	tokInt
	tokReal
	tokString
	tokEnum
	tokBinary
	tokOmitted
	tokDerived
	tokLParen
	tokRParen
	tokComma
	tokSemicolon
	tokEquals
)

var tokenNames = map[tokenKind]string{
	tokEOF:       "end of file",
	tokKeyword:   "keyword",
	tokRef:       "instance reference",
	tokInt:       "integer",
	tokReal:      "real",
	tokString:    "string",
	tokEnum:      "enumeration",
	tokBinary:    "binary",
	tokOmitted:   "$",
	tokDerived:   "*",
	tokLParen:    "(",
	tokRParen:    ")",
	tokComma:     ",",
	tokSemicolon: ";",
	tokEquals:    "=",
}

func (k tokenKind) String() string {
	return tokenNames[k]
}

type token struct {
	kind   tokenKind
	text   []byte
	offset int
}

// lexer splits ISO 10303-21 clear text into tokens.
type lexer struct {
	r   *parse.Input
	src []byte
}

func newLexer(src []byte) *lexer {
	return &lexer{r: parse.NewInputBytes(src), src: src}
}

// errorf reports a syntax error at offset with its line and column.
func (l *lexer) errorf(offset int, format string, args ...interface{}) error {
	line, col, _ := parse.Position(bytes.NewReader(l.src), offset)

	return errors.Wrapf(ErrSyntax, "line %d col %d: %s", line, col, fmt.Sprintf(format, args...))
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isLetter(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c == '_'
}

// skip drops white space and /* */ comments.
func (l *lexer) skip() error {
	for {
		c := l.r.Peek(0)
		switch {
		case isSpace(c):
			l.r.Move(1)
		case c == '/' && l.r.Peek(1) == '*':
			start := l.r.Offset()
			l.r.Move(2)
			for !(l.r.Peek(0) == '*' && l.r.Peek(1) == '/') {
				if l.r.Peek(0) == 0 && l.r.Err() != nil {
					return l.errorf(start, "unterminated comment")
				}
				l.r.Move(1)
			}
			l.r.Move(2)
		default:
			l.r.Skip()

			return nil
		}
	}
}

func (l *lexer) next() (token, error) {
	err := l.skip()
	if err != nil {
		return token{}, err
	}

	start := l.r.Offset()
	c := l.r.Peek(0)
	switch {
	case c == 0 && l.r.Err() != nil:
		return token{kind: tokEOF, offset: start}, nil
	case isLetter(c):
		for c = l.r.Peek(0); isLetter(c) || isDigit(c) || c == '-'; c = l.r.Peek(0) {
			l.r.Move(1)
		}

		return token{kind: tokKeyword, text: l.r.Shift(), offset: start}, nil
	case c == '#':
		l.r.Move(1)
		if !isDigit(l.r.Peek(0)) {
			return token{}, l.errorf(start, "expected digits after #")
		}
		for isDigit(l.r.Peek(0)) {
			l.r.Move(1)
		}

		return token{kind: tokRef, text: l.r.Shift(), offset: start}, nil
	case isDigit(c) || c == '-' || c == '+' || c == '.' && isDigit(l.r.Peek(1)):
		return l.number(start)
	case c == '\'':
		return l.str(start)
	case c == '.':
		l.r.Move(1)
		for c = l.r.Peek(0); isLetter(c) || isDigit(c); c = l.r.Peek(0) {
			l.r.Move(1)
		}
		if l.r.Peek(0) != '.' {
			return token{}, l.errorf(start, "unterminated enumeration")
		}
		l.r.Move(1)

		return token{kind: tokEnum, text: l.r.Shift(), offset: start}, nil
	case c == '"':
		l.r.Move(1)
		for l.r.Peek(0) != '"' {
			if l.r.Peek(0) == 0 && l.r.Err() != nil {
				return token{}, l.errorf(start, "unterminated binary")
			}
			l.r.Move(1)
		}
		l.r.Move(1)

		return token{kind: tokBinary, text: l.r.Shift(), offset: start}, nil
	}

	kind, ok := map[byte]tokenKind{
		'$': tokOmitted,
		'*': tokDerived,
		'(': tokLParen,
		')': tokRParen,
		',': tokComma,
		';': tokSemicolon,
		'=': tokEquals,
	}[c]
	if !ok {
		return token{}, l.errorf(start, "unexpected character %q", c)
	}
	l.r.Move(1)

	return token{kind: kind, text: l.r.Shift(), offset: start}, nil
}

func (l *lexer) number(start int) (token, error) {
	kind := tokInt
	if c := l.r.Peek(0); c == '-' || c == '+' {
		l.r.Move(1)
	}
	digits := 0
	for isDigit(l.r.Peek(0)) {
		l.r.Move(1)
		digits++
	}
	if l.r.Peek(0) == '.' {
		kind = tokReal
		l.r.Move(1)
		for isDigit(l.r.Peek(0)) {
			l.r.Move(1)
			digits++
		}
	}
	if digits == 0 {
		return token{}, l.errorf(start, "malformed number")
	}
	if c := l.r.Peek(0); c == 'E' || c == 'e' {
		kind = tokReal
		l.r.Move(1)
		if c := l.r.Peek(0); c == '-' || c == '+' {
			l.r.Move(1)
		}
		if !isDigit(l.r.Peek(0)) {
			return token{}, l.errorf(start, "malformed exponent")
		}
		for isDigit(l.r.Peek(0)) {
			l.r.Move(1)
		}
	}

	return token{kind: kind, text: l.r.Shift(), offset: start}, nil
}

func (l *lexer) str(start int) (token, error) {
	l.r.Move(1)
	for {
		c := l.r.Peek(0)
		if c == 0 && l.r.Err() != nil {
			return token{}, l.errorf(start, "unterminated string")
		}
		l.r.Move(1)
		if c != '\'' {
			continue
		}
		// '' is an escaped quote
		if l.r.Peek(0) == '\'' {
			l.r.Move(1)

			continue
		}

		return token{kind: tokString, text: l.r.Shift(), offset: start}, nil
	}
}

// decodeString turns a quoted STEP string into UTF-8. It handles doubled
// quotes, \\, \X\hh (ISO 8859-1) and \X2\...\X0\ (UTF-16) directives.
func decodeString(raw []byte) string {
	s := string(raw[1 : len(raw)-1])
	s = strings.ReplaceAll(s, "''", "'")
	if !strings.Contains(s, `\`) {
		return s
	}

	var sb strings.Builder
	for i := 0; i < len(s); {
		switch {
		case strings.HasPrefix(s[i:], `\X2\`):
			end := strings.Index(s[i+4:], `\X0\`)
			if end < 0 {
				sb.WriteString(s[i:])

				return sb.String()
			}
			hex := s[i+4 : i+4+end]
			units := make([]uint16, 0, len(hex)/4)
			for j := 0; j+4 <= len(hex); j += 4 {
				v, err := strconv.ParseUint(hex[j:j+4], 16, 16)
				if err != nil {
					break
				}
				units = append(units, uint16(v))
			}
			sb.WriteString(string(utf16.Decode(units)))
			i += 4 + end + 4
		case strings.HasPrefix(s[i:], `\X\`) && i+5 <= len(s):
			v, err := strconv.ParseUint(s[i+3:i+5], 16, 8)
			if err != nil {
				sb.WriteByte(s[i])
				i++

				continue
			}
			sb.WriteRune(rune(v))
			i += 5
		case strings.HasPrefix(s[i:], `\\`):
			sb.WriteByte('\\')
			i += 2
		default:
			sb.WriteByte(s[i])
			i++
		}
	}

	return sb.String()
}
