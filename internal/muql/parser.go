package muql

import (
	"fmt"
	"strconv"
	"strings"
)

// Parser transforms a MUQL token stream into a single Query AST node.
// Keywords are matched case-insensitively; the terse dialect's aliases
// resolve through the tables in aliases.go, so `fn c>50` and
// `SELECT * FROM functions WHERE complexity > 50` yield identical ASTs.
type Parser struct {
	tokens  []Token
	current int
}

// Parse lexes and parses one MUQL query. On failure it returns a
// *ParseError identifying the offending token and position; no partial
// AST is ever returned.
func Parse(source string) (Query, error) {
	if strings.TrimSpace(source) == "" {
		return nil, &ParseError{Message: "empty query", Line: 1, Column: 1}
	}
	tokens, err := NewLexer(source).Tokenize()
	if err != nil {
		return nil, err
	}
	p := &Parser{tokens: tokens}
	q, err := p.parseQuery()
	if err != nil {
		return nil, err
	}
	if !p.isAtEnd() {
		return nil, p.errorf("unexpected trailing input")
	}
	return q, nil
}

func (p *Parser) parseQuery() (Query, error) {
	tok := p.peek()
	if tok.Type != TOKEN_IDENT {
		return nil, p.errorf("expected a query keyword or table name")
	}

	switch strings.ToLower(tok.Lexeme) {
	case "select":
		p.advance()
		return p.parseSelect()
	case "describe":
		p.advance()
		return p.parseDescribe()
	case "show":
		p.advance()
		if p.checkKeyword("tables") || p.checkKeyword("columns") {
			return p.parseDescribe()
		}
		return p.parseShowVerbose()
	case "find":
		p.advance()
		return p.parseFind()
	case "path":
		p.advance()
		return p.parsePathVerbose()
	case "analyze":
		p.advance()
		return p.parseAnalyze()

	// Terse command aliases, recognized only in leading position.
	case "d":
		p.advance()
		return p.parseShowTerse(ShowDependencies)
	case "r":
		p.advance()
		return p.parseShowTerse(ShowDependents)
	case "p":
		p.advance()
		return p.parsePathTerse()
	case "a":
		p.advance()
		return p.parseAnalyze()
	}

	// A bare table name (or its alias) opens an implicit SELECT *.
	if table, ok := tableAliases[strings.ToLower(tok.Lexeme)]; ok {
		p.advance()
		return p.parseImplicitSelect(table)
	}

	return nil, p.errorf("expected a query keyword or table name")
}

// =============================================================================
// SELECT
// =============================================================================

func (p *Parser) parseSelect() (Query, error) {
	q := &SelectQuery{}

	if err := p.parseProjection(q); err != nil {
		return nil, err
	}
	if !p.matchKeyword("from") {
		return nil, p.errorf("expected FROM")
	}
	table, err := p.parseTable()
	if err != nil {
		return nil, err
	}
	q.Table = table

	return p.parseSelectTail(q)
}

// parseImplicitSelect handles the terse form: the table is already
// consumed and any remaining tokens are WHERE conditions.
func (p *Parser) parseImplicitSelect(table string) (Query, error) {
	q := &SelectQuery{Table: table, Fields: []string{"*"}}
	if p.isAtEnd() {
		return q, nil
	}
	where, err := p.parseWhere()
	if err != nil {
		return nil, err
	}
	q.Where = where
	return p.parseSelectClauses(q)
}

func (p *Parser) parseProjection(q *SelectQuery) error {
	if p.match(TOKEN_STAR) {
		q.Fields = []string{"*"}
		return nil
	}

	// Aggregate: COUNT(*), AVG(complexity), ...
	if p.check(TOKEN_IDENT) && aggregates[strings.ToLower(p.peek().Lexeme)] && p.peekNext().Type == TOKEN_LPAREN {
		q.Aggregate = strings.ToLower(p.advance().Lexeme)
		p.advance() // (
		if p.match(TOKEN_STAR) {
			if q.Aggregate != AggCount {
				return p.errorf("only COUNT accepts *")
			}
			q.AggregateField = "*"
		} else {
			field, err := p.parseField()
			if err != nil {
				return err
			}
			q.AggregateField = field
		}
		if !p.match(TOKEN_RPAREN) {
			return p.errorf("expected ) to close aggregate")
		}
		return nil
	}

	// Explicit field list.
	for {
		field, err := p.parseField()
		if err != nil {
			return err
		}
		q.Fields = append(q.Fields, field)
		if !p.match(TOKEN_COMMA) {
			return nil
		}
	}
}

func (p *Parser) parseSelectTail(q *SelectQuery) (Query, error) {
	if p.matchKeyword("where") {
		where, err := p.parseWhere()
		if err != nil {
			return nil, err
		}
		q.Where = where
	}
	return p.parseSelectClauses(q)
}

func (p *Parser) parseSelectClauses(q *SelectQuery) (Query, error) {
	for {
		switch {
		case p.matchKeyword("order"):
			if !p.matchKeyword("by") {
				return nil, p.errorf("expected BY after ORDER")
			}
			field, err := p.parseField()
			if err != nil {
				return nil, err
			}
			q.OrderBy = field
			if p.matchKeyword("desc") {
				q.OrderDesc = true
			} else {
				p.matchKeyword("asc")
			}
		case p.matchKeyword("limit"):
			n, err := p.parseNumber("LIMIT")
			if err != nil {
				return nil, err
			}
			q.Limit = n
		default:
			return q, nil
		}
	}
}

// =============================================================================
// WHERE
// =============================================================================

func (p *Parser) parseWhere() (*Where, error) {
	w := &Where{}
	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}
	w.Conds = append(w.Conds, cond)

	for {
		var op BoolOp
		switch {
		case p.match(TOKEN_AMP), p.matchKeyword("and"):
			op = BoolAnd
		case p.match(TOKEN_PIPE), p.matchKeyword("or"):
			op = BoolOr
		default:
			return w, nil
		}
		cond, err := p.parseCondition()
		if err != nil {
			return nil, err
		}
		w.Ops = append(w.Ops, op)
		w.Conds = append(w.Conds, cond)
	}
}

func (p *Parser) parseCondition() (Condition, error) {
	field, err := p.parseField()
	if err != nil {
		return Condition{}, err
	}

	var op CompareOp
	switch {
	case p.match(TOKEN_EQ):
		op = OpEq
	case p.match(TOKEN_NEQ):
		op = OpNeq
	case p.match(TOKEN_GT):
		op = OpGt
	case p.match(TOKEN_LT):
		op = OpLt
	case p.match(TOKEN_GTE):
		op = OpGte
	case p.match(TOKEN_LTE):
		op = OpLte
	case p.matchKeyword("like"):
		op = OpLike
	case p.matchKeyword("contains"):
		op = OpContains
	case p.matchKeyword("in"):
		op = OpIn
	default:
		return Condition{}, p.errorf("expected a comparison operator")
	}

	if op == OpIn {
		list, err := p.parseList()
		if err != nil {
			return Condition{}, err
		}
		return Condition{Field: field, Op: op, Value: Literal{Kind: LiteralList, List: list}}, nil
	}

	value, err := p.parseLiteral()
	if err != nil {
		return Condition{}, err
	}
	return Condition{Field: field, Op: op, Value: value}, nil
}

func (p *Parser) parseList() ([]string, error) {
	closing := TOKEN_RPAREN
	switch {
	case p.match(TOKEN_LPAREN):
	case p.match(TOKEN_LBRACKET):
		closing = TOKEN_RBRACKET
	default:
		return nil, p.errorf("expected ( or [ to open list")
	}

	var list []string
	for {
		tok := p.peek()
		switch tok.Type {
		case TOKEN_IDENT, TOKEN_STRING, TOKEN_NUMBER:
			list = append(list, tok.Lexeme)
			p.advance()
		default:
			return nil, p.errorf("expected a list element")
		}
		if p.match(TOKEN_COMMA) {
			continue
		}
		if !p.match(closing) {
			return nil, p.errorf("expected %s to close list", closing)
		}
		return list, nil
	}
}

func (p *Parser) parseLiteral() (Literal, error) {
	tok := p.peek()
	switch tok.Type {
	case TOKEN_NUMBER:
		p.advance()
		n, err := strconv.Atoi(tok.Lexeme)
		if err != nil {
			return Literal{}, p.errorAt(tok, "invalid number")
		}
		return Literal{Kind: LiteralNumber, Number: n}, nil
	case TOKEN_STRING, TOKEN_IDENT:
		p.advance()
		return Literal{Kind: LiteralString, Text: tok.Lexeme}, nil
	}
	return Literal{}, p.errorf("expected a value")
}

// =============================================================================
// SHOW / PATH / ANALYZE / FIND / DESCRIBE
// =============================================================================

func (p *Parser) parseShowVerbose() (Query, error) {
	tok := p.peek()
	if tok.Type != TOKEN_IDENT {
		return nil, p.errorf("expected a SHOW direction")
	}
	direction, ok := showDirections[strings.ToLower(tok.Lexeme)]
	if !ok {
		return nil, p.errorf("unknown SHOW direction %q", tok.Lexeme)
	}
	p.advance()

	if !p.matchKeyword("of") {
		return nil, p.errorf("expected OF")
	}
	target, err := p.parseName("target")
	if err != nil {
		return nil, err
	}

	q := &ShowQuery{Direction: direction, Target: target}
	if p.matchKeyword("depth") {
		n, err := p.parseNumber("DEPTH")
		if err != nil {
			return nil, err
		}
		q.Depth = n
	}
	if p.matchKeyword("where") {
		kinds, err := p.parseEdgeFilter()
		if err != nil {
			return nil, err
		}
		q.EdgeKinds = kinds
	}
	return q, nil
}

func (p *Parser) parseShowTerse(direction string) (Query, error) {
	target, err := p.parseName("target")
	if err != nil {
		return nil, err
	}
	q := &ShowQuery{Direction: direction, Target: target}
	if p.check(TOKEN_NUMBER) {
		n, err := p.parseNumber("depth")
		if err != nil {
			return nil, err
		}
		q.Depth = n
	}
	return q, nil
}

func (p *Parser) parsePathVerbose() (Query, error) {
	if !p.matchKeyword("from") {
		return nil, p.errorf("expected FROM")
	}
	from, err := p.parseName("source")
	if err != nil {
		return nil, err
	}
	if !p.matchKeyword("to") {
		return nil, p.errorf("expected TO")
	}
	to, err := p.parseName("destination")
	if err != nil {
		return nil, err
	}

	q := &PathQuery{From: from, To: to}
	if p.matchKeyword("max") {
		if !p.matchKeyword("depth") {
			return nil, p.errorf("expected DEPTH after MAX")
		}
		n, err := p.parseNumber("MAX DEPTH")
		if err != nil {
			return nil, err
		}
		q.MaxDepth = n
	} else if p.matchKeyword("depth") {
		n, err := p.parseNumber("DEPTH")
		if err != nil {
			return nil, err
		}
		q.MaxDepth = n
	}
	if p.matchKeyword("where") {
		kinds, err := p.parseEdgeFilter()
		if err != nil {
			return nil, err
		}
		q.EdgeKinds = kinds
	}
	return q, nil
}

func (p *Parser) parsePathTerse() (Query, error) {
	from, err := p.parseName("source")
	if err != nil {
		return nil, err
	}
	to, err := p.parseName("destination")
	if err != nil {
		return nil, err
	}
	q := &PathQuery{From: from, To: to}
	if p.check(TOKEN_NUMBER) {
		n, err := p.parseNumber("depth")
		if err != nil {
			return nil, err
		}
		q.MaxDepth = n
	}
	return q, nil
}

func (p *Parser) parseAnalyze() (Query, error) {
	tok := p.peek()
	if tok.Type != TOKEN_IDENT {
		return nil, p.errorf("expected an analysis name")
	}
	p.advance()
	q := &AnalyzeQuery{Analysis: strings.ToLower(tok.Lexeme)}

	if p.matchKeyword("of") {
		scope, err := p.parseName("scope")
		if err != nil {
			return nil, err
		}
		q.Scope = scope
	}
	if p.check(TOKEN_NUMBER) {
		n, err := p.parseNumber("threshold")
		if err != nil {
			return nil, err
		}
		q.Threshold = n
		q.HasThreshold = true
	}
	return q, nil
}

func (p *Parser) parseFind() (Query, error) {
	table, err := p.parseTable()
	if err != nil {
		return nil, err
	}
	q := &FindQuery{Table: table}

	tok := p.peek()
	if tok.Type != TOKEN_IDENT {
		return nil, p.errorf("expected a FIND relation")
	}
	switch strings.ToLower(tok.Lexeme) {
	case "calling":
		p.advance()
		q.Relation = RelCalling
	case "called":
		p.advance()
		if !p.matchKeyword("by") {
			return nil, p.errorf("expected BY after CALLED")
		}
		q.Relation = RelCalledBy
	case "importing":
		p.advance()
		q.Relation = RelImporting
	case "imported":
		p.advance()
		if !p.matchKeyword("by") {
			return nil, p.errorf("expected BY after IMPORTED")
		}
		q.Relation = RelImportedBy
	case "extending", "inheriting":
		p.advance()
		q.Relation = RelExtending
	case "implementing":
		p.advance()
		q.Relation = RelImplementing
	case "using":
		p.advance()
		q.Relation = RelUsing
	case "with":
		p.advance()
		switch {
		case p.matchKeyword("decorator"):
			q.Relation = RelDecorator
		case p.matchKeyword("annotation"):
			q.Relation = RelAnnotation
		default:
			return nil, p.errorf("expected DECORATOR or ANNOTATION after WITH")
		}
	default:
		return nil, p.errorf("unknown FIND relation %q", tok.Lexeme)
	}

	arg, err := p.parseName("argument")
	if err != nil {
		return nil, err
	}
	q.Argument = arg
	return q, nil
}

func (p *Parser) parseDescribe() (Query, error) {
	switch {
	case p.matchKeyword("tables"):
		return &DescribeQuery{}, nil
	case p.matchKeyword("columns"):
		if !p.matchKeyword("from") {
			return nil, p.errorf("expected FROM after COLUMNS")
		}
		table, err := p.parseTable()
		if err != nil {
			return nil, err
		}
		return &DescribeQuery{Columns: true, Table: table}, nil
	}
	return nil, p.errorf("expected TABLES or COLUMNS")
}

// parseEdgeFilter parses `edge = kind` or `edge IN (k1, k2)` after WHERE
// on SHOW/PATH queries.
func (p *Parser) parseEdgeFilter() ([]string, error) {
	if !p.matchKeyword("edge") && !p.matchKeyword("edge_type") {
		return nil, p.errorf("expected edge filter (edge = kind)")
	}
	switch {
	case p.match(TOKEN_EQ):
		tok := p.peek()
		if tok.Type != TOKEN_IDENT && tok.Type != TOKEN_STRING {
			return nil, p.errorf("expected an edge kind")
		}
		p.advance()
		return []string{strings.ToLower(tok.Lexeme)}, nil
	case p.matchKeyword("in"):
		list, err := p.parseList()
		if err != nil {
			return nil, err
		}
		for i := range list {
			list[i] = strings.ToLower(list[i])
		}
		return list, nil
	}
	return nil, p.errorf("expected = or IN in edge filter")
}

// =============================================================================
// Shared pieces
// =============================================================================

func (p *Parser) parseTable() (string, error) {
	tok := p.peek()
	if tok.Type != TOKEN_IDENT {
		return "", p.errorf("expected a table name")
	}
	table, ok := tableAliases[strings.ToLower(tok.Lexeme)]
	if !ok {
		return "", p.errorf("unknown table %q", tok.Lexeme)
	}
	p.advance()
	return table, nil
}

func (p *Parser) parseField() (string, error) {
	tok := p.peek()
	if tok.Type != TOKEN_IDENT {
		return "", p.errorf("expected a field name")
	}
	field, ok := fieldAliases[strings.ToLower(tok.Lexeme)]
	if !ok {
		return "", p.errorf("unknown field %q", tok.Lexeme)
	}
	p.advance()
	return field, nil
}

// parseName accepts an identifier or quoted string as a node name/id.
func (p *Parser) parseName(what string) (string, error) {
	tok := p.peek()
	if tok.Type != TOKEN_IDENT && tok.Type != TOKEN_STRING {
		return "", p.errorf("expected a %s name", what)
	}
	p.advance()
	return tok.Lexeme, nil
}

func (p *Parser) parseNumber(clause string) (int, error) {
	tok := p.peek()
	if tok.Type != TOKEN_NUMBER {
		return 0, p.errorf("expected a number after %s", clause)
	}
	p.advance()
	n, err := strconv.Atoi(tok.Lexeme)
	if err != nil {
		return 0, p.errorAt(tok, "invalid number")
	}
	return n, nil
}

// Token manipulation helpers.

func (p *Parser) isAtEnd() bool {
	return p.peek().Type == TOKEN_EOF
}

func (p *Parser) peek() Token {
	if p.current >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.current]
}

func (p *Parser) peekNext() Token {
	if p.current+1 >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.current+1]
}

func (p *Parser) advance() Token {
	tok := p.peek()
	if !p.isAtEnd() {
		p.current++
	}
	return tok
}

func (p *Parser) check(t TokenType) bool {
	return p.peek().Type == t
}

func (p *Parser) match(t TokenType) bool {
	if p.check(t) {
		p.advance()
		return true
	}
	return false
}

// checkKeyword reports whether the current token is the given keyword,
// without consuming it.
func (p *Parser) checkKeyword(kw string) bool {
	tok := p.peek()
	return tok.Type == TOKEN_IDENT && strings.EqualFold(tok.Lexeme, kw)
}

// matchKeyword consumes the current token if it is the given keyword.
func (p *Parser) matchKeyword(kw string) bool {
	if p.checkKeyword(kw) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) errorf(format string, args ...any) *ParseError {
	return p.errorAt(p.peek(), fmt.Sprintf(format, args...))
}

func (p *Parser) errorAt(tok Token, msg string) *ParseError {
	near := tok.Lexeme
	if tok.Type == TOKEN_EOF {
		near = "end of query"
	}
	return &ParseError{Message: msg, Line: tok.Line, Column: tok.Column, Near: near}
}
