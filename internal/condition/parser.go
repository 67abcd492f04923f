package condition

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Grammar, lowest precedence first:
//
//	or      = and { "OR" and }
//	and     = unary { "AND" unary }
//	unary   = "NOT" unary | "(" or ")" | compare
//	compare = sum [ op sum ]
//	sum     = product { ("+" | "-") product }
//	product = operand { ("*" | "/") operand }
//	operand = field | string | number | bool
type parser struct {
	tokens []token
	pos    int
}

// Parse compiles a boolean expression.
func Parse(src string) (Expr, error) {
	return parseAll(src, (*parser).or)
}

// ParseFormula compiles an arithmetic operand such as "payload.amount * 0.05".
func ParseFormula(src string) (Operand, error) {
	return parseAll(src, (*parser).sum)
}

func parseAll[T any](src string, rule func(*parser) (T, error)) (T, error) {
	var zero T
	tokens, err := tokenize(src)
	if err != nil {
		return zero, err
	}
	p := &parser{tokens: tokens}
	out, err := rule(p)
	if err != nil {
		return zero, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return zero, fmt.Errorf("unexpected token %q at position %d", t.val, t.pos)
	}
	return out, nil
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) next() token {
	t := p.tokens[p.pos]
	p.pos++
	return t
}

func (p *parser) isKeyword(kw string) bool {
	t := p.peek()
	return t.kind == tokWord && strings.EqualFold(t.val, kw)
}

// chain parses a left-associative sequence of sub-rules joined by operators
// accepted by match.
func chain[T any](p *parser, sub func(*parser) (T, error), match func(token) bool, join func(token, T, T) T) (T, error) {
	left, err := sub(p)
	if err != nil {
		return left, err
	}
	for match(p.peek()) {
		op := p.next()
		right, err := sub(p)
		if err != nil {
			return left, err
		}
		left = join(op, left, right)
	}
	return left, nil
}

func keyword(kw string) func(token) bool {
	return func(t token) bool { return t.kind == tokWord && strings.EqualFold(t.val, kw) }
}

func arith(ops string) func(token) bool {
	return func(t token) bool { return t.kind == tokArith && strings.Contains(ops, t.val) }
}

func joinLogic(op LogicOp) func(token, Expr, Expr) Expr {
	return func(_ token, l, r Expr) Expr { return &LogicalExpr{Op: op, Left: l, Right: r} }
}

func joinArith(t token, l, r Operand) Operand {
	return &Arith{Op: t.val[0], Left: l, Right: r}
}

func (p *parser) or() (Expr, error) {
	return chain(p, (*parser).and, keyword("OR"), joinLogic(Or))
}

func (p *parser) and() (Expr, error) {
	return chain(p, (*parser).unary, keyword("AND"), joinLogic(And))
}

func (p *parser) unary() (Expr, error) {
	switch {
	case p.isKeyword("NOT"):
		p.next()
		inner, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &NotExpr{Expr: inner}, nil
	case p.peek().kind == tokLParen:
		p.next()
		inner, err := p.or()
		if err != nil {
			return nil, err
		}
		if t := p.next(); t.kind != tokRParen {
			return nil, fmt.Errorf("expected \")\" at position %d, got %q", t.pos, t.val)
		}
		return inner, nil
	}
	return p.compare()
}

func (p *parser) compare() (Expr, error) {
	left, err := p.sum()
	if err != nil {
		return nil, err
	}

	var op Operator
	switch t := p.peek(); {
	case t.kind == tokOp:
		op = Operator(t.val)
	case p.isKeyword("contains"):
		op = OpContains
	case p.isKeyword("matches"):
		op = OpMatches
	default:
		return &TruthExpr{Operand: left}, nil
	}
	p.next()

	right, err := p.sum()
	if err != nil {
		return nil, err
	}
	e := &CompareExpr{Left: left, Op: op, Right: right}
	if lit, ok := right.(*Literal); ok && op == OpMatches {
		pattern, ok := lit.Value.(string)
		if !ok {
			return nil, fmt.Errorf("matches: pattern must be a string, got %T", lit.Value)
		}
		if e.re, err = regexp.Compile(pattern); err != nil {
			return nil, fmt.Errorf("matches: invalid regex %q: %w", pattern, err)
		}
	}
	return e, nil
}

func (p *parser) sum() (Operand, error) {
	return chain(p, (*parser).product, arith("+-"), joinArith)
}

func (p *parser) product() (Operand, error) {
	return chain(p, (*parser).operand, arith("*/"), joinArith)
}

func (p *parser) operand() (Operand, error) {
	t := p.peek()
	switch t.kind {
	case tokString:
		p.next()
		return &Literal{Value: t.val}, nil
	case tokNumber:
		p.next()
		f, err := strconv.ParseFloat(t.val, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q at position %d", t.val, t.pos)
		}
		return &Literal{Value: f}, nil
	case tokBool:
		p.next()
		return &Literal{Value: t.val == "true"}, nil
	case tokWord:
		if isReserved(t.val) {
			return nil, fmt.Errorf("expected operand at position %d, got keyword %q", t.pos, t.val)
		}
		p.next()
		return &Field{Path: strings.Split(t.val, ".")}, nil
	case tokEOF:
		return nil, fmt.Errorf("unexpected end of expression")
	}
	return nil, fmt.Errorf("expected operand at position %d, got %q", t.pos, t.val)
}
