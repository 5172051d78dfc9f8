package ifc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lexAll(t *testing.T, src string) []token {
	t.Helper()

	l := newLexer([]byte(src))
	var res []token
	for {
		tok, err := l.next()
		require.NoError(t, err)
		res = append(res, tok)
		if tok.kind == tokEOF {
			return res
		}
	}
}

func TestLexerTokens(t *testing.T) {
	t.Parallel()

	toks := lexAll(t, "#12=IFCWALL('a''b',$,*,.T.,-1.5E2,42,\"0A\"); /* done */\n")

	kinds := make([]tokenKind, 0, len(toks))
	for _, tok := range toks {
		kinds = append(kinds, tok.kind)
	}
	assert.Equal(t, []tokenKind{
		tokRef, tokEquals, tokKeyword, tokLParen,
		tokString, tokComma, tokOmitted, tokComma, tokDerived, tokComma,
		tokEnum, tokComma, tokReal, tokComma, tokInt, tokComma, tokBinary,
		tokRParen, tokSemicolon, tokEOF,
	}, kinds)

	assert.Equal(t, "#12", string(toks[0].text))
	assert.Equal(t, "IFCWALL", string(toks[2].text))
	assert.Equal(t, "'a''b'", string(toks[4].text))
	assert.Equal(t, ".T.", string(toks[10].text))
	assert.Equal(t, "-1.5E2", string(toks[12].text))
	assert.Equal(t, 4, toks[2].offset)
}

func TestLexerKeywordWithDashes(t *testing.T) {
	t.Parallel()

	toks := lexAll(t, "END-ISO-10303-21;")
	require.Len(t, toks, 3)
	assert.Equal(t, "END-ISO-10303-21", string(toks[0].text))
}

func TestLexerErrors(t *testing.T) {
	t.Parallel()

	tcs := map[string]string{
		"unterminated string":  "\n'abc",
		"unterminated comment": "\n/* abc",
		"unterminated enum":    "\n.T",
		"bad reference":        "\n#A",
		"bad character":        "\n@",
		"bad exponent":         "\n1.0E",
	}

	for name, src := range tcs {
		src := src
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			l := newLexer([]byte(src))
			_, err := l.next()
			require.ErrorIs(t, err, ErrSyntax)
			assert.Contains(t, err.Error(), "line 2 col 1")
		})
	}
}

func TestDecodeString(t *testing.T) {
	t.Parallel()

	tcs := map[string]string{
		`'abc'`:              "abc",
		`''`:                 "",
		`'it''s'`:            "it's",
		`'K\X2\00FC\X0\che'`: "Küche",
		`'Gr\X\F6\X\DFe'`:    "Größe",
		`'a\\b'`:             `a\b`,
		`'\X2\00E4'`:         `\X2\00E4`,
	}

	for raw, want := range tcs {
		assert.Equal(t, want, decodeString([]byte(raw)), raw)
	}
}
