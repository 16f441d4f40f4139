package hquery

import (
	"strconv"
	"strings"

	"github.com/kaptinlin/hquery/pkg/lex"
)

// JoinKind classifies how a joined root combines with the rows seen so
// far (§4.5).
type JoinKind int

const (
	JoinPlain JoinKind = iota // bare JOIN, same semantics as INNER JOIN
	JoinInner
	JoinCross
)

// JoinClause is one JOIN of the restricted SQL dialect: CROSS JOIN
// carries no ON predicate, INNER JOIN (and bare JOIN) require one.
type JoinClause struct {
	Kind JoinKind
	Root string
	On   *WhereNode
}

// SQLQuery is a parsed restricted-SQL statement (§4.5).
type SQLQuery struct {
	SelectAll bool
	Select    []string // qualified "root.path" identifiers, empty when SelectAll
	From      string
	FromPath  []string // optional index-path suffix fixing index values during traversal
	Joins     []JoinClause
	Where     *WhereNode
}

// WhereKind tags a WhereNode.
type WhereKind int

const (
	WhereCompare WhereKind = iota
	WhereAnd
	WhereOr
	WhereNot
)

// WhereNode is one node of a parsed WHERE/ON predicate: a comparison
// between two qualified identifiers or an identifier and a literal, or a
// boolean combination of sub-predicates (§4.5).
type WhereNode struct {
	Kind     WhereKind
	Children []*WhereNode

	LHS        string
	RHSIdent   string
	RHSLiteral Value
	hasLiteral bool
}

// Eval resolves every identifier against row (the FROM root's bare index
// names and flat paths, plus "<root>.indexes.<idx>" / "<root>.<path>" keys
// for a joined root -> Value map) using typed Value
// equality (§4.5 — never the case-folded string comparison the
// Flattener's non-index filters use).
func (n *WhereNode) Eval(row map[string]Value) (bool, error) {
	if n == nil {
		return true, nil
	}
	switch n.Kind {
	case WhereAnd:
		for _, c := range n.Children {
			ok, err := c.Eval(row)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case WhereOr:
		for _, c := range n.Children {
			ok, err := c.Eval(row)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case WhereNot:
		ok, err := n.Children[0].Eval(row)
		return !ok, err
	case WhereCompare:
		lv, ok := row[n.LHS]
		if !ok {
			return false, newQueryError(ErrUnknownReference, "sql", "unknown_reference",
				"unknown reference '{ref}'", map[string]any{"ref": n.LHS})
		}
		var rv Value
		if n.hasLiteral {
			rv = n.RHSLiteral
		} else {
			rv, ok = row[n.RHSIdent]
			if !ok {
				return false, newQueryError(ErrUnknownReference, "sql", "unknown_reference",
					"unknown reference '{ref}'", map[string]any{"ref": n.RHSIdent})
			}
		}
		return lv.Equal(rv), nil
	default:
		return false, nil
	}
}

// === Tokenizer ===

type sqlTokKind int

const (
	sqlIdent sqlTokKind = iota
	sqlString
	sqlNumber
	sqlTrue
	sqlFalse
	sqlNull
	sqlSelect
	sqlFrom
	sqlJoin
	sqlInner
	sqlCross
	sqlOn
	sqlWhere
	sqlAnd
	sqlOr
	sqlNot
	sqlStar
	sqlComma
	sqlDot
	sqlEquals
	sqlLParen
	sqlRParen
)

type sqlTok struct {
	kind sqlTokKind
	text string
}

var sqlKeywords = map[string]sqlTokKind{
	"SELECT": sqlSelect,
	"FROM":   sqlFrom,
	"JOIN":   sqlJoin,
	"INNER":  sqlInner,
	"CROSS":  sqlCross,
	"ON":     sqlOn,
	"WHERE":  sqlWhere,
	"AND":    sqlAnd,
	"OR":     sqlOr,
	"NOT":    sqlNot,
	"TRUE":   sqlTrue,
	"FALSE":  sqlFalse,
	"NULL":   sqlNull,
}

// tokenizeSQL lexes a SQL statement, merging adjacent digit-dot-digit
// token runs back into a single decimal literal (the raw scanner treats
// '.' as a standalone punctuation token, since it also separates
// qualified identifiers).
func tokenizeSQL(query string) []sqlTok {
	raw := lex.Scanner(query, "(),.=*")
	var toks []sqlTok
	for i := 0; i < len(raw); i++ {
		t := raw[i]
		if t.Quoted {
			toks = append(toks, sqlTok{kind: sqlString, text: t.Text})
			continue
		}
		if isDigitRun(t.Text) && i+2 < len(raw) && raw[i+1].Text == "." && !raw[i+1].Quoted && isDigitRun(raw[i+2].Text) {
			toks = append(toks, sqlTok{kind: sqlNumber, text: t.Text + "." + raw[i+2].Text})
			i += 2
			continue
		}
		switch t.Text {
		case "(":
			toks = append(toks, sqlTok{kind: sqlLParen, text: t.Text})
		case ")":
			toks = append(toks, sqlTok{kind: sqlRParen, text: t.Text})
		case ",":
			toks = append(toks, sqlTok{kind: sqlComma, text: t.Text})
		case ".":
			toks = append(toks, sqlTok{kind: sqlDot, text: t.Text})
		case "=":
			toks = append(toks, sqlTok{kind: sqlEquals, text: t.Text})
		case "*":
			toks = append(toks, sqlTok{kind: sqlStar, text: t.Text})
		default:
			if kw, ok := sqlKeywords[strings.ToUpper(t.Text)]; ok {
				toks = append(toks, sqlTok{kind: kw, text: t.Text})
			} else if isDigitRun(t.Text) || isSignedDigitRun(t.Text) {
				toks = append(toks, sqlTok{kind: sqlNumber, text: t.Text})
			} else {
				toks = append(toks, sqlTok{kind: sqlIdent, text: t.Text})
			}
		}
	}
	return toks
}

func isDigitRun(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isSignedDigitRun(s string) bool {
	return len(s) > 1 && s[0] == '-' && isDigitRun(s[1:])
}

// === Parser ===

type sqlParser struct {
	toks []sqlTok
	pos  int
}

func (p *sqlParser) peek() (sqlTok, bool) {
	if p.pos >= len(p.toks) {
		return sqlTok{}, false
	}
	return p.toks[p.pos], true
}

func (p *sqlParser) expect(kind sqlTokKind, what string) (sqlTok, error) {
	t, ok := p.peek()
	if !ok || t.kind != kind {
		return sqlTok{}, newQueryError(ErrSQLSyntax, "sql", "sql_syntax", "expected {what}", map[string]any{"what": what})
	}
	p.pos++
	return t, nil
}

// ParseSQL parses the restricted SQL dialect (§4.5):
//
//	SELECT (* | qualified_ident (, qualified_ident)*)
//	FROM root[.index_value]*
//	(JOIN | INNER JOIN | CROSS JOIN) root [ON predicate]
//	[WHERE predicate]
func ParseSQL(query string) (*SQLQuery, error) {
	p := &sqlParser{toks: tokenizeSQL(query)}

	if _, err := p.expect(sqlSelect, "SELECT"); err != nil {
		return nil, err
	}
	q := &SQLQuery{}
	if t, ok := p.peek(); ok && t.kind == sqlStar {
		p.pos++
		q.SelectAll = true
	} else {
		for {
			ident, err := p.parseQualifiedIdent()
			if err != nil {
				return nil, err
			}
			q.Select = append(q.Select, ident)
			t, ok := p.peek()
			if !ok || t.kind != sqlComma {
				break
			}
			p.pos++
		}
	}

	if _, err := p.expect(sqlFrom, "FROM"); err != nil {
		return nil, err
	}
	fromIdent, err := p.parseQualifiedIdent()
	if err != nil {
		return nil, err
	}
	parts := strings.Split(fromIdent, ".")
	q.From = parts[0]
	q.FromPath = parts[1:]

	for {
		t, ok := p.peek()
		if !ok {
			break
		}
		var kind JoinKind
		switch t.kind {
		case sqlJoin:
			kind = JoinPlain
			p.pos++
		case sqlInner:
			p.pos++
			if _, err := p.expect(sqlJoin, "JOIN"); err != nil {
				return nil, err
			}
			kind = JoinInner
		case sqlCross:
			p.pos++
			if _, err := p.expect(sqlJoin, "JOIN"); err != nil {
				return nil, err
			}
			kind = JoinCross
		default:
			goto afterJoins
		}

		{
			root, err := p.parseQualifiedIdent()
			if err != nil {
				return nil, err
			}
			jc := JoinClause{Kind: kind, Root: root}
			if nt, ok := p.peek(); ok && nt.kind == sqlOn {
				p.pos++
				on, err := p.parseWhereExpr()
				if err != nil {
					return nil, err
				}
				jc.On = on
			}
			if jc.Kind == JoinCross && jc.On != nil {
				return nil, newQueryError(ErrJoinSyntax, "sql", "join_syntax", "CROSS JOIN must not carry an ON clause", nil)
			}
			if jc.Kind != JoinCross && jc.On == nil {
				return nil, newQueryError(ErrJoinSyntax, "sql", "join_syntax", "JOIN requires an ON clause", nil)
			}
			q.Joins = append(q.Joins, jc)
		}
	}
afterJoins:

	if t, ok := p.peek(); ok && t.kind == sqlWhere {
		p.pos++
		where, err := p.parseWhereExpr()
		if err != nil {
			return nil, err
		}
		q.Where = where
	}

	if p.pos != len(p.toks) {
		return nil, newQueryError(ErrSQLSyntax, "sql", "sql_syntax", "unexpected token near position {pos}", map[string]any{"pos": p.pos})
	}
	return q, nil
}

func (p *sqlParser) parseQualifiedIdent() (string, error) {
	t, err := p.expect(sqlIdent, "identifier")
	if err != nil {
		return "", err
	}
	parts := []string{t.text}
	for {
		nt, ok := p.peek()
		if !ok || nt.kind != sqlDot {
			break
		}
		p.pos++
		seg, err := p.expect(sqlIdent, "identifier")
		if err != nil {
			return "", err
		}
		parts = append(parts, seg.text)
	}
	return strings.Join(parts, "."), nil
}

// parseWhereExpr implements the same precedence as the boolean query
// grammar (OR lowest, AND next, NOT highest), over comparisons instead
// of terms.
func (p *sqlParser) parseWhereExpr() (*WhereNode, error) {
	left, err := p.parseWhereTerm()
	if err != nil {
		return nil, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.kind != sqlOr {
			return left, nil
		}
		p.pos++
		right, err := p.parseWhereTerm()
		if err != nil {
			return nil, err
		}
		left = &WhereNode{Kind: WhereOr, Children: []*WhereNode{left, right}}
	}
}

func (p *sqlParser) parseWhereTerm() (*WhereNode, error) {
	left, err := p.parseWhereFactor()
	if err != nil {
		return nil, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.kind != sqlAnd {
			return left, nil
		}
		p.pos++
		right, err := p.parseWhereFactor()
		if err != nil {
			return nil, err
		}
		left = &WhereNode{Kind: WhereAnd, Children: []*WhereNode{left, right}}
	}
}

func (p *sqlParser) parseWhereFactor() (*WhereNode, error) {
	t, ok := p.peek()
	if ok && t.kind == sqlNot {
		p.pos++
		inner, err := p.parseWhereFactor()
		if err != nil {
			return nil, err
		}
		return &WhereNode{Kind: WhereNot, Children: []*WhereNode{inner}}, nil
	}
	if ok && t.kind == sqlLParen {
		p.pos++
		inner, err := p.parseWhereExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(sqlRParen, ")"); err != nil {
			return nil, err
		}
		return inner, nil
	}
	return p.parseComparison()
}

func (p *sqlParser) parseComparison() (*WhereNode, error) {
	lhs, err := p.parseQualifiedIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(sqlEquals, "'='"); err != nil {
		return nil, err
	}
	t, ok := p.peek()
	if !ok {
		return nil, newQueryError(ErrSQLSyntax, "sql", "sql_syntax", "expected value after '='", nil)
	}
	cmp := &WhereNode{Kind: WhereCompare, LHS: lhs}
	switch t.kind {
	case sqlString:
		p.pos++
		cmp.RHSLiteral = Str(t.text)
		cmp.hasLiteral = true
	case sqlNumber:
		p.pos++
		cmp.RHSLiteral = parseNumberLiteral(t.text)
		cmp.hasLiteral = true
	case sqlTrue:
		p.pos++
		cmp.RHSLiteral = Bool(true)
		cmp.hasLiteral = true
	case sqlFalse:
		p.pos++
		cmp.RHSLiteral = Bool(false)
		cmp.hasLiteral = true
	case sqlNull:
		p.pos++
		cmp.RHSLiteral = Null()
		cmp.hasLiteral = true
	case sqlIdent:
		rhs, err := p.parseQualifiedIdent()
		if err != nil {
			return nil, err
		}
		cmp.RHSIdent = rhs
	default:
		return nil, newQueryError(ErrSQLSyntax, "sql", "sql_syntax", "expected value after '='", nil)
	}
	return cmp, nil
}

// parseNumberLiteral parses a SQL numeric literal into a Value,
// preferring an exact int representation over float (mirrors the
// original engine's literal parser).
func parseNumberLiteral(s string) Value {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(i)
	}
	f, _ := strconv.ParseFloat(s, 64)
	return Float(f)
}
