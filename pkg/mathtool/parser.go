package mathtool

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// node is one vertex of a parsed expression tree.
type node struct {
	kind  nodeKind
	value float64 // kindNumber
	name  string  // kindIdent
	op    byte    // kindBinary
	left  *node
	right *node
}

type nodeKind int

const (
	kindNumber nodeKind = iota
	kindIdent
	kindBinary
	kindNegate
)

type token struct {
	kind  tokenKind
	value float64
	text  string
}

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokEOF
)

func lex(input string) ([]token, error) {
	var tokens []token
	runes := []rune(strings.ReplaceAll(input, "**", "^"))

	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case unicode.IsDigit(r) || r == '.':
			start := i
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				i++
			}
			value, err := strconv.ParseFloat(string(runes[start:i]), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid number %q", string(runes[start:i]))
			}
			tokens = append(tokens, token{kind: tokNumber, value: value})
		case unicode.IsLetter(r) || r == '_':
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_') {
				i++
			}
			tokens = append(tokens, token{kind: tokIdent, text: string(runes[start:i])})
		case r == '(':
			tokens = append(tokens, token{kind: tokLParen})
			i++
		case r == ')':
			tokens = append(tokens, token{kind: tokRParen})
			i++
		case strings.ContainsRune("+-*/^", r):
			tokens = append(tokens, token{kind: tokOp, text: string(r)})
			i++
		default:
			return nil, fmt.Errorf("unexpected character %q", string(r))
		}
	}

	tokens = append(tokens, token{kind: tokEOF})
	return tokens, nil
}

// parser is a small recursive-descent parser over arithmetic expressions
// with implicit multiplication (2x, 3(x+1)) and right-associative powers.
type parser struct {
	tokens []token
	pos    int
}

func parse(input string) (*node, error) {
	if strings.TrimSpace(input) == "" {
		return nil, fmt.Errorf("empty expression")
	}
	tokens, err := lex(input)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, fmt.Errorf("unexpected trailing input")
	}
	return expr, nil
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) parseExpr() (*node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.text != "+" && t.text != "-") {
			return left, nil
		}
		p.next()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &node{kind: kindBinary, op: t.text[0], left: left, right: right}
	}
}

func (p *parser) parseTerm() (*node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		switch {
		case t.kind == tokOp && (t.text == "*" || t.text == "/"):
			p.next()
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = &node{kind: kindBinary, op: t.text[0], left: left, right: right}
		case t.kind == tokIdent || t.kind == tokLParen:
			// Implicit multiplication: 2x, 3(x+1), x(x-2).
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = &node{kind: kindBinary, op: '*', left: left, right: right}
		default:
			return left, nil
		}
	}
}

func (p *parser) parseUnary() (*node, error) {
	t := p.peek()
	if t.kind == tokOp && t.text == "-" {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &node{kind: kindNegate, left: operand}, nil
	}
	if t.kind == tokOp && t.text == "+" {
		p.next()
		return p.parseUnary()
	}
	return p.parsePower()
}

func (p *parser) parsePower() (*node, error) {
	base, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	t := p.peek()
	if t.kind == tokOp && t.text == "^" {
		p.next()
		// Right associative: x^2^3 == x^(2^3).
		exponent, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &node{kind: kindBinary, op: '^', left: base, right: exponent}, nil
	}
	return base, nil
}

func (p *parser) parseAtom() (*node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return &node{kind: kindNumber, value: t.value}, nil
	case tokIdent:
		return &node{kind: kindIdent, name: t.text}, nil
	case tokLParen:
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		return expr, nil
	default:
		return nil, fmt.Errorf("unexpected token")
	}
}
