package muql

import "fmt"

// Lexer tokenizes MUQL source text. Both the verbose and the terse
// dialect share this lexer; the dialects differ only in which
// identifiers the parser treats as keywords and aliases.
type Lexer struct {
	source string
	pos    int
	line   int
	col    int
}

// NewLexer creates a lexer over the given query text.
func NewLexer(source string) *Lexer {
	return &Lexer{source: source, line: 1, col: 1}
}

// Tokenize scans the whole input and returns the token stream terminated
// by an EOF token.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TOKEN_EOF {
			return tokens, nil
		}
	}
}

func (l *Lexer) next() (Token, error) {
	l.skipWhitespace()
	if l.pos >= len(l.source) {
		return l.token(TOKEN_EOF, ""), nil
	}

	line, col := l.line, l.col
	c := l.source[l.pos]

	switch c {
	case '*':
		l.advance()
		return Token{Type: TOKEN_STAR, Lexeme: "*", Line: line, Column: col}, nil
	case ',':
		l.advance()
		return Token{Type: TOKEN_COMMA, Lexeme: ",", Line: line, Column: col}, nil
	case '(':
		l.advance()
		return Token{Type: TOKEN_LPAREN, Lexeme: "(", Line: line, Column: col}, nil
	case ')':
		l.advance()
		return Token{Type: TOKEN_RPAREN, Lexeme: ")", Line: line, Column: col}, nil
	case '[':
		l.advance()
		return Token{Type: TOKEN_LBRACKET, Lexeme: "[", Line: line, Column: col}, nil
	case ']':
		l.advance()
		return Token{Type: TOKEN_RBRACKET, Lexeme: "]", Line: line, Column: col}, nil
	case '&':
		l.advance()
		return Token{Type: TOKEN_AMP, Lexeme: "&", Line: line, Column: col}, nil
	case '|':
		l.advance()
		return Token{Type: TOKEN_PIPE, Lexeme: "|", Line: line, Column: col}, nil
	case '=':
		l.advance()
		// Accept both = and == as equality.
		if l.peek() == '=' {
			l.advance()
		}
		return Token{Type: TOKEN_EQ, Lexeme: "=", Line: line, Column: col}, nil
	case '!':
		l.advance()
		if l.peek() != '=' {
			return Token{}, &ParseError{Message: "expected '=' after '!'", Line: line, Column: col, Near: "!"}
		}
		l.advance()
		return Token{Type: TOKEN_NEQ, Lexeme: "!=", Line: line, Column: col}, nil
	case '>':
		l.advance()
		if l.peek() == '=' {
			l.advance()
			return Token{Type: TOKEN_GTE, Lexeme: ">=", Line: line, Column: col}, nil
		}
		return Token{Type: TOKEN_GT, Lexeme: ">", Line: line, Column: col}, nil
	case '<':
		l.advance()
		if l.peek() == '=' {
			l.advance()
			return Token{Type: TOKEN_LTE, Lexeme: "<=", Line: line, Column: col}, nil
		}
		if l.peek() == '>' {
			l.advance()
			return Token{Type: TOKEN_NEQ, Lexeme: "!=", Line: line, Column: col}, nil
		}
		return Token{Type: TOKEN_LT, Lexeme: "<", Line: line, Column: col}, nil
	case '\'', '"':
		return l.lexString(c)
	}

	if isDigit(c) {
		return l.lexNumber(), nil
	}
	if isIdentStart(c) {
		return l.lexIdent(), nil
	}

	return Token{}, &ParseError{
		Message: fmt.Sprintf("unexpected character %q", string(c)),
		Line:    line, Column: col, Near: string(c),
	}
}

func (l *Lexer) lexString(quote byte) (Token, error) {
	line, col := l.line, l.col
	l.advance() // opening quote
	start := l.pos
	for l.pos < len(l.source) && l.source[l.pos] != quote {
		if l.source[l.pos] == '\n' {
			return Token{}, &ParseError{Message: "unterminated string literal", Line: line, Column: col}
		}
		l.advance()
	}
	if l.pos >= len(l.source) {
		return Token{}, &ParseError{Message: "unterminated string literal", Line: line, Column: col}
	}
	text := l.source[start:l.pos]
	l.advance() // closing quote
	return Token{Type: TOKEN_STRING, Lexeme: text, Line: line, Column: col}, nil
}

func (l *Lexer) lexNumber() Token {
	line, col := l.line, l.col
	start := l.pos
	for l.pos < len(l.source) && isDigit(l.source[l.pos]) {
		l.advance()
	}
	return Token{Type: TOKEN_NUMBER, Lexeme: l.source[start:l.pos], Line: line, Column: col}
}

// lexIdent scans an identifier. Identifiers double as unquoted string
// values, so the character set is wide: dots for qualified names,
// slashes for file paths, colons for node ids.
func (l *Lexer) lexIdent() Token {
	line, col := l.line, l.col
	start := l.pos
	for l.pos < len(l.source) && isIdentPart(l.source[l.pos]) {
		l.advance()
	}
	return Token{Type: TOKEN_IDENT, Lexeme: l.source[start:l.pos], Line: line, Column: col}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.source) {
		switch l.source[l.pos] {
		case ' ', '\t', '\r', '\n':
			l.advance()
		default:
			return
		}
	}
}

func (l *Lexer) advance() {
	if l.pos < len(l.source) {
		if l.source[l.pos] == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
		l.pos++
	}
}

func (l *Lexer) peek() byte {
	if l.pos < len(l.source) {
		return l.source[l.pos]
	}
	return 0
}

func (l *Lexer) token(t TokenType, lexeme string) Token {
	return Token{Type: t, Lexeme: lexeme, Line: l.line, Column: l.col}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '@' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c) || c == '.' || c == '/' || c == ':' || c == '-'
}
