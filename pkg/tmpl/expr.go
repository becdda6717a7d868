package tmpl

import (
	"fmt"
	"strconv"
	"strings"
)

// The expression language is deliberately small: literals, identifiers,
// property access, indexing, calls, unary !/-, the usual binary
// arithmetic/comparison/logic operators, and the ternary. Expressions
// resolve against the supplied context map only; there is no ambient
// scope and no code execution.

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

type lexer struct {
	src  string
	pos  int
	toks []token
}

func lex(src string) ([]token, error) {
	l := &lexer{src: src}
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			l.pos++
		case isIdentStart(c):
			start := l.pos
			for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
				l.pos++
			}
			l.toks = append(l.toks, token{kind: tokIdent, text: l.src[start:l.pos], pos: start})
		case c >= '0' && c <= '9':
			start := l.pos
			for l.pos < len(l.src) && (l.src[l.pos] >= '0' && l.src[l.pos] <= '9' || l.src[l.pos] == '.') {
				l.pos++
			}
			f, err := strconv.ParseFloat(l.src[start:l.pos], 64)
			if err != nil {
				return nil, fmt.Errorf("tmpl: bad number %q at %d", l.src[start:l.pos], start)
			}
			l.toks = append(l.toks, token{kind: tokNumber, num: f, pos: start})
		case c == '\'' || c == '"':
			s, err := l.lexString(c)
			if err != nil {
				return nil, err
			}
			l.toks = append(l.toks, token{kind: tokString, text: s})
		default:
			op, err := l.lexPunct()
			if err != nil {
				return nil, err
			}
			l.toks = append(l.toks, token{kind: tokPunct, text: op})
		}
	}
	l.toks = append(l.toks, token{kind: tokEOF, pos: len(src)})
	return l.toks, nil
}

func (l *lexer) lexString(quote byte) (string, error) {
	start := l.pos
	l.pos++
	var b strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == quote {
			l.pos++
			return b.String(), nil
		}
		if c == '\\' && l.pos+1 < len(l.src) {
			l.pos++
			switch l.src[l.pos] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(l.src[l.pos])
			}
			l.pos++
			continue
		}
		b.WriteByte(c)
		l.pos++
	}
	return "", fmt.Errorf("tmpl: unterminated string at %d", start)
}

var twoBytePuncts = []string{"==", "!=", "<=", ">=", "&&", "||"}

func (l *lexer) lexPunct() (string, error) {
	if l.pos+1 < len(l.src) {
		two := l.src[l.pos : l.pos+2]
		for _, p := range twoBytePuncts {
			if two == p {
				l.pos += 2
				return p, nil
			}
		}
	}
	c := l.src[l.pos]
	switch c {
	case '+', '-', '*', '/', '%', '!', '<', '>', '?', ':', '.', ',', '(', ')', '[', ']':
		l.pos++
		return string(c), nil
	}
	return "", fmt.Errorf("tmpl: unexpected character %q at %d", c, l.pos)
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// AST

type exprNode interface {
	eval(data map[string]any) (any, error)
}

type litNode struct{ v any }
type identNode struct{ name string }
type memberNode struct {
	obj  exprNode
	name string
}
type indexNode struct{ obj, index exprNode }
type callNode struct {
	callee exprNode
	args   []exprNode
}
type unaryNode struct {
	op string
	x  exprNode
}
type binaryNode struct {
	op   string
	l, r exprNode
}
type condNode struct{ cond, then, els exprNode }

// Parser: recursive descent, precedence low to high.

type parser struct {
	toks []token
	pos  int
}

// parseExpr parses a single complete expression.
func parseExpr(src string) (exprNode, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	n, err := p.ternary()
	if err != nil {
		return nil, err
	}
	if !p.at(tokEOF, "") {
		return nil, fmt.Errorf("tmpl: trailing input at %d in %q", p.cur().pos, src)
	}
	return n, nil
}

func (p *parser) cur() token { return p.toks[p.pos] }

func (p *parser) at(kind tokenKind, text string) bool {
	t := p.cur()
	return t.kind == kind && (text == "" || t.text == text)
}

func (p *parser) eatPunct(text string) bool {
	if p.at(tokPunct, text) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expectPunct(text string) error {
	if !p.eatPunct(text) {
		return fmt.Errorf("tmpl: expected %q at %d", text, p.cur().pos)
	}
	return nil
}

func (p *parser) ternary() (exprNode, error) {
	cond, err := p.or()
	if err != nil {
		return nil, err
	}
	if !p.eatPunct("?") {
		return cond, nil
	}
	then, err := p.ternary()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(":"); err != nil {
		return nil, err
	}
	els, err := p.ternary()
	if err != nil {
		return nil, err
	}
	return &condNode{cond: cond, then: then, els: els}, nil
}

func (p *parser) binaryLevel(ops []string, next func() (exprNode, error)) (exprNode, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for {
		matched := ""
		for _, op := range ops {
			if p.at(tokPunct, op) {
				matched = op
				break
			}
		}
		if matched == "" {
			return left, nil
		}
		p.pos++
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: matched, l: left, r: right}
	}
}

func (p *parser) or() (exprNode, error) {
	return p.binaryLevel([]string{"||"}, p.and)
}

func (p *parser) and() (exprNode, error) {
	return p.binaryLevel([]string{"&&"}, p.equality)
}

func (p *parser) equality() (exprNode, error) {
	return p.binaryLevel([]string{"==", "!="}, p.comparison)
}

func (p *parser) comparison() (exprNode, error) {
	return p.binaryLevel([]string{"<=", ">=", "<", ">"}, p.additive)
}

func (p *parser) additive() (exprNode, error) {
	return p.binaryLevel([]string{"+", "-"}, p.multiplicative)
}

func (p *parser) multiplicative() (exprNode, error) {
	return p.binaryLevel([]string{"*", "/", "%"}, p.unary)
}

func (p *parser) unary() (exprNode, error) {
	if p.at(tokPunct, "!") || p.at(tokPunct, "-") {
		op := p.cur().text
		p.pos++
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &unaryNode{op: op, x: x}, nil
	}
	return p.postfix()
}

func (p *parser) postfix() (exprNode, error) {
	n, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.eatPunct("."):
			t := p.cur()
			if t.kind != tokIdent {
				return nil, fmt.Errorf("tmpl: expected property name at %d", t.pos)
			}
			p.pos++
			n = &memberNode{obj: n, name: t.text}
		case p.eatPunct("["):
			idx, err := p.ternary()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct("]"); err != nil {
				return nil, err
			}
			n = &indexNode{obj: n, index: idx}
		case p.eatPunct("("):
			var args []exprNode
			if !p.at(tokPunct, ")") {
				for {
					arg, err := p.ternary()
					if err != nil {
						return nil, err
					}
					args = append(args, arg)
					if !p.eatPunct(",") {
						break
					}
				}
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			n = &callNode{callee: n, args: args}
		default:
			return n, nil
		}
	}
}

func (p *parser) primary() (exprNode, error) {
	t := p.cur()
	switch t.kind {
	case tokNumber:
		p.pos++
		return &litNode{v: t.num}, nil
	case tokString:
		p.pos++
		return &litNode{v: t.text}, nil
	case tokIdent:
		p.pos++
		switch t.text {
		case "true":
			return &litNode{v: true}, nil
		case "false":
			return &litNode{v: false}, nil
		case "null", "undefined":
			return &litNode{v: nil}, nil
		}
		return &identNode{name: t.text}, nil
	case tokPunct:
		if t.text == "(" {
			p.pos++
			inner, err := p.ternary()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			return inner, nil
		}
	}
	return nil, fmt.Errorf("tmpl: unexpected token at %d", t.pos)
}
