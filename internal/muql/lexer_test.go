package muql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lex(t *testing.T, src string) []Token {
	t.Helper()
	tokens, err := NewLexer(src).Tokenize()
	require.NoError(t, err)
	return tokens
}

func tokenTypes(tokens []Token) []TokenType {
	types := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		types[i] = tok.Type
	}
	return types
}

func TestLexer_Keywords_AreIdents(t *testing.T) {
	t.Parallel()
	tokens := lex(t, "SELECT * FROM functions")
	assert.Equal(t,
		[]TokenType{TOKEN_IDENT, TOKEN_STAR, TOKEN_IDENT, TOKEN_IDENT, TOKEN_EOF},
		tokenTypes(tokens),
	)
	assert.Equal(t, "SELECT", tokens[0].Lexeme)
}

func TestLexer_Operators(t *testing.T) {
	t.Parallel()
	tests := []struct {
		src  string
		want TokenType
	}{
		{"=", TOKEN_EQ},
		{"==", TOKEN_EQ},
		{"!=", TOKEN_NEQ},
		{"<>", TOKEN_NEQ},
		{">", TOKEN_GT},
		{"<", TOKEN_LT},
		{">=", TOKEN_GTE},
		{"<=", TOKEN_LTE},
		{"&", TOKEN_AMP},
		{"|", TOKEN_PIPE},
	}
	for _, tt := range tests {
		tokens := lex(t, tt.src)
		require.Len(t, tokens, 2, "source %q", tt.src)
		assert.Equal(t, tt.want, tokens[0].Type, "source %q", tt.src)
	}
}

func TestLexer_TerseConditionWithoutSpaces(t *testing.T) {
	t.Parallel()
	tokens := lex(t, "fn c>50")
	assert.Equal(t,
		[]TokenType{TOKEN_IDENT, TOKEN_IDENT, TOKEN_GT, TOKEN_NUMBER, TOKEN_EOF},
		tokenTypes(tokens),
	)
	assert.Equal(t, "50", tokens[3].Lexeme)
}

func TestLexer_QuotedStrings(t *testing.T) {
	t.Parallel()
	for _, src := range []string{`'cache'`, `"cache"`} {
		tokens := lex(t, src)
		require.Len(t, tokens, 2)
		assert.Equal(t, TOKEN_STRING, tokens[0].Type)
		assert.Equal(t, "cache", tokens[0].Lexeme)
	}
}

func TestLexer_UnterminatedString(t *testing.T) {
	t.Parallel()
	_, err := NewLexer(`'oops`).Tokenize()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unterminated")
}

func TestLexer_IdentCharset(t *testing.T) {
	t.Parallel()
	// Identifiers double as unquoted strings: qualified names, paths, ids.
	for _, src := range []string{"Db.connect", "app/db.py", "module:app/db.py", "snake_case", "@route"} {
		tokens := lex(t, src)
		require.Len(t, tokens, 2, "source %q", src)
		assert.Equal(t, TOKEN_IDENT, tokens[0].Type)
		assert.Equal(t, src, tokens[0].Lexeme)
	}
}

func TestLexer_PositionTracking(t *testing.T) {
	t.Parallel()
	tokens := lex(t, "SELECT *\nFROM functions")
	assert.Equal(t, 1, tokens[0].Line)
	assert.Equal(t, 1, tokens[0].Column)
	assert.Equal(t, 2, tokens[2].Line) // FROM
	assert.Equal(t, 1, tokens[2].Column)
	assert.Equal(t, 6, tokens[3].Column) // functions
}

func TestLexer_UnexpectedCharacter(t *testing.T) {
	t.Parallel()
	_, err := NewLexer("SELECT ; FROM").Tokenize()
	require.Error(t, err)
	perr, ok := err.(*ParseError)
	require.True(t, ok)
	assert.Equal(t, 1, perr.Line)
	assert.Equal(t, 8, perr.Column)
}
