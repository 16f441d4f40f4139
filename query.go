package hquery

import (
	"strings"

	"github.com/kaptinlin/hquery/pkg/lex"
)

// NodeKind tags a QueryNode (§9 design note: "a pair of tagged
// variants... And/Or/Not/Term" — here one kind enum over a single node
// type, since every variant shares the same children shape).
type NodeKind int

const (
	NodeTerm NodeKind = iota
	NodeAnd
	NodeOr
	NodeNot
)

// QueryNode is one node of a parsed boolean query AST (§4.3).
type QueryNode struct {
	Kind     NodeKind
	Term     string
	Children []*QueryNode
}

func termNode(s string) *QueryNode { return &QueryNode{Kind: NodeTerm, Term: s} }
func notNode(c *QueryNode) *QueryNode {
	return &QueryNode{Kind: NodeNot, Children: []*QueryNode{c}}
}
func andNode(a, b *QueryNode) *QueryNode {
	return &QueryNode{Kind: NodeAnd, Children: []*QueryNode{a, b}}
}
func orNode(a, b *QueryNode) *QueryNode {
	return &QueryNode{Kind: NodeOr, Children: []*QueryNode{a, b}}
}

// Eval walks the AST, resolving each TERM leaf through match.
func (n *QueryNode) Eval(match func(term string) bool) bool {
	if n == nil {
		return true
	}
	switch n.Kind {
	case NodeTerm:
		return match(n.Term)
	case NodeNot:
		return !n.Children[0].Eval(match)
	case NodeAnd:
		for _, c := range n.Children {
			if !c.Eval(match) {
				return false
			}
		}
		return true
	case NodeOr:
		for _, c := range n.Children {
			if c.Eval(match) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

type queryTokKind int

const (
	qtTerm queryTokKind = iota
	qtAnd
	qtOr
	qtNot
	qtLParen
	qtRParen
)

type queryTok struct {
	kind queryTokKind
	text string
}

// tokenizeQuery lexes a boolean query string into classified tokens,
// recognising the case-insensitive keywords AND/OR/NOT and treating
// quoted spans as literal terms regardless of their content.
func tokenizeQuery(qs string) []queryTok {
	raw := lex.Scanner(qs, "()")
	toks := make([]queryTok, 0, len(raw))
	for _, t := range raw {
		if !t.Quoted {
			switch strings.ToUpper(t.Text) {
			case "AND":
				toks = append(toks, queryTok{kind: qtAnd, text: t.Text})
				continue
			case "OR":
				toks = append(toks, queryTok{kind: qtOr, text: t.Text})
				continue
			case "NOT":
				toks = append(toks, queryTok{kind: qtNot, text: t.Text})
				continue
			case "(":
				toks = append(toks, queryTok{kind: qtLParen, text: t.Text})
				continue
			case ")":
				toks = append(toks, queryTok{kind: qtRParen, text: t.Text})
				continue
			}
		}
		toks = append(toks, queryTok{kind: qtTerm, text: t.Text})
	}
	return toks
}

// insertImplicitAnd inserts an AND token between any adjacent pair of
// tokens where the left token can end a primary (TERM or RPAREN) and the
// right token can start one (TERM, LPAREN, or NOT) — covering queries
// like `foo bar` and `foo (bar or baz)` written without an explicit
// operator (§4.3).
func insertImplicitAnd(toks []queryTok) []queryTok {
	if len(toks) == 0 {
		return toks
	}
	out := make([]queryTok, 0, len(toks)*2)
	for i, t := range toks {
		if i > 0 {
			prev := toks[i-1]
			leftEnds := prev.kind == qtTerm || prev.kind == qtRParen
			rightStarts := t.kind == qtTerm || t.kind == qtLParen || t.kind == qtNot
			if leftEnds && rightStarts {
				out = append(out, queryTok{kind: qtAnd})
			}
		}
		out = append(out, t)
	}
	return out
}

// ParseQuery parses a boolean free-text query string into an AST per the
// grammar:
//
//	expr   ::= term (OR term)*
//	term   ::= factor (AND factor)*
//	factor ::= NOT factor | primary
//	primary ::= TERM | "(" expr ")"
func ParseQuery(qs string) (*QueryNode, error) {
	toks := insertImplicitAnd(tokenizeQuery(qs))
	if len(toks) == 0 {
		return nil, newQueryError(ErrQuerySyntax, "query", "query_syntax", "empty query", nil)
	}
	p := &queryParser{toks: toks}
	node, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.toks) {
		return nil, newQueryError(ErrQuerySyntax, "query", "query_syntax", "unexpected token near position {pos}", map[string]any{"pos": p.pos})
	}
	return node, nil
}

type queryParser struct {
	toks []queryTok
	pos  int
}

func (p *queryParser) peek() (queryTok, bool) {
	if p.pos >= len(p.toks) {
		return queryTok{}, false
	}
	return p.toks[p.pos], true
}

func (p *queryParser) parseExpr() (*QueryNode, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.kind != qtOr {
			return left, nil
		}
		p.pos++
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = orNode(left, right)
	}
}

func (p *queryParser) parseTerm() (*QueryNode, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.kind != qtAnd {
			return left, nil
		}
		p.pos++
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = andNode(left, right)
	}
}

func (p *queryParser) parseFactor() (*QueryNode, error) {
	t, ok := p.peek()
	if ok && t.kind == qtNot {
		p.pos++
		inner, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return notNode(inner), nil
	}
	return p.parsePrimary()
}

func (p *queryParser) parsePrimary() (*QueryNode, error) {
	t, ok := p.peek()
	if !ok {
		return nil, newQueryError(ErrQuerySyntax, "query", "query_syntax", "unexpected end of query", nil)
	}
	switch t.kind {
	case qtTerm:
		p.pos++
		return termNode(t.text), nil
	case qtLParen:
		p.pos++
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		close, ok := p.peek()
		if !ok || close.kind != qtRParen {
			return nil, newQueryError(ErrQuerySyntax, "query", "query_syntax", "missing closing parenthesis", nil)
		}
		p.pos++
		return inner, nil
	default:
		return nil, newQueryError(ErrQuerySyntax, "query", "query_syntax", "unexpected token '{token}'", map[string]any{"token": t.text})
	}
}
