package muql

import "fmt"

// TokenType represents the type of a lexical token in a MUQL query.
type TokenType int

const (
	TOKEN_EOF TokenType = iota
	TOKEN_IDENT
	TOKEN_NUMBER
	TOKEN_STRING // quoted literal

	// Operators
	TOKEN_EQ      // =
	TOKEN_NEQ     // !=
	TOKEN_GT      // >
	TOKEN_LT      // <
	TOKEN_GTE     // >=
	TOKEN_LTE     // <=
	TOKEN_AMP     // & (terse AND)
	TOKEN_PIPE    // | (terse OR)
	TOKEN_STAR    // *
	TOKEN_COMMA   // ,
	TOKEN_LPAREN  // (
	TOKEN_RPAREN  // )
	TOKEN_LBRACKET // [
	TOKEN_RBRACKET // ]
)

// String returns a printable name for the token type.
func (t TokenType) String() string {
	switch t {
	case TOKEN_EOF:
		return "EOF"
	case TOKEN_IDENT:
		return "IDENT"
	case TOKEN_NUMBER:
		return "NUMBER"
	case TOKEN_STRING:
		return "STRING"
	case TOKEN_EQ:
		return "="
	case TOKEN_NEQ:
		return "!="
	case TOKEN_GT:
		return ">"
	case TOKEN_LT:
		return "<"
	case TOKEN_GTE:
		return ">="
	case TOKEN_LTE:
		return "<="
	case TOKEN_AMP:
		return "&"
	case TOKEN_PIPE:
		return "|"
	case TOKEN_STAR:
		return "*"
	case TOKEN_COMMA:
		return ","
	case TOKEN_LPAREN:
		return "("
	case TOKEN_RPAREN:
		return ")"
	case TOKEN_LBRACKET:
		return "["
	case TOKEN_RBRACKET:
		return "]"
	default:
		return "UNKNOWN"
	}
}

// Token is a single lexical token with its source position.
//
// MUQL keywords are not reserved at the lexing stage: identifiers double
// as unquoted string literals, so the parser matches keywords
// case-insensitively in context instead.
type Token struct {
	Type   TokenType
	Lexeme string
	Line   int
	Column int
}

// String returns a string representation of the token.
func (t Token) String() string {
	return fmt.Sprintf("%s(%s) [%d:%d]", t.Type, t.Lexeme, t.Line, t.Column)
}

// ParseError is a lexical or syntactic error with source position.
// No partial AST accompanies a ParseError: a failed parse is fail-closed.
type ParseError struct {
	Message string
	Line    int
	Column  int
	Near    string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Near != "" {
		return fmt.Sprintf("parse error at %d:%d near %q: %s", e.Line, e.Column, e.Near, e.Message)
	}
	return fmt.Sprintf("parse error at %d:%d: %s", e.Line, e.Column, e.Message)
}
