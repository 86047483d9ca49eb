package symbolic

import (
	"fmt"
	"math/big"
	"strings"
)

// SyntaxError describes where and why Parse rejected its input.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at position %d: %s", e.Pos, e.Msg)
}

// maxParseDepth bounds nesting so hostile input cannot exhaust the stack.
const maxParseDepth = 200

var functions = map[string]func(Expr) Expr{
	"sin": SinOf, "cos": CosOf, "tan": TanOf,
	"cot": CotOf, "sec": SecOf, "csc": CscOf,
	"asin": AsinOf, "acos": AcosOf, "atan": AtanOf,
	"acot": AcotOf, "asec": AsecOf, "acsc": AcscOf,
	"arcsin": AsinOf, "arccos": AcosOf, "arctan": AtanOf,
	"sinh": SinhOf, "cosh": CoshOf, "tanh": TanhOf,
	"exp": ExpOf, "ln": LnOf, "log": LnOf,
	"sqrt": SqrtOf, "cbrt": CbrtOf,
	"abs": AbsOf, "sign": SignOf, "floor": FloorOf, "ceil": CeilOf,
}

var constants = map[string]Expr{
	"pi": Pi,
	"e":  E,
}

// IsFunctionName reports whether name is callable in the grammar.
func IsFunctionName(name string) bool {
	_, ok := functions[name]
	return ok
}

// Parse reads the canonical grammar:
//
//	expr   := term (('+' | '-') term)*
//	term   := unary (('*' | '/') unary)*
//	unary  := ('-' | '+') unary | power
//	power  := atom (('**' | '^') unary)?
//	atom   := number | name | name '(' expr ')' | '(' expr ')'
//
// Whitespace between tokens is ignored. "log" is the natural logarithm.
func Parse(text string) (Expr, error) {
	p := &parser{src: text}
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil, p.errorf("empty expression")
	}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, p.errorf("unexpected %q", p.src[p.pos])
	}
	return e.Simplify(), nil
}

// MustParse is Parse for known-good literals; it panics on error.
func MustParse(text string) Expr {
	e, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return e
}

type parser struct {
	src   string
	pos   int
	depth int
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return &SyntaxError{Pos: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && strings.IndexByte(" \t\r\n", p.src[p.pos]) >= 0 {
		p.pos++
	}
}

func (p *parser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) hasPrefix(s string) bool {
	p.skipSpace()
	return strings.HasPrefix(p.src[p.pos:], s)
}

func (p *parser) parseExpr() (Expr, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxParseDepth {
		return nil, p.errorf("expression nested too deeply")
	}

	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek() {
		case '+':
			p.pos++
			right, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			left = AddOf(left, right)
		case '-':
			p.pos++
			right, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			left = AddOf(left, MulOf(N(-1), right))
		default:
			return left, nil
		}
	}
}

func (p *parser) parseTerm() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.hasPrefix("**"):
			return nil, p.errorf("unexpected '**'")
		case p.peek() == '*':
			p.pos++
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = MulOf(left, right)
		case p.peek() == '/':
			p.pos++
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = MulOf(left, PowOf(right, N(-1)))
		default:
			return left, nil
		}
	}
}

func (p *parser) parseUnary() (Expr, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxParseDepth {
		return nil, p.errorf("expression nested too deeply")
	}

	switch p.peek() {
	case '-':
		p.pos++
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return MulOf(N(-1), operand), nil
	case '+':
		p.pos++
		return p.parseUnary()
	}
	return p.parsePower()
}

func (p *parser) parsePower() (Expr, error) {
	base, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	switch {
	case p.hasPrefix("**"):
		p.pos += 2
	case p.peek() == '^':
		p.pos++
	default:
		return base, nil
	}
	exp, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return PowOf(base, exp), nil
}

func (p *parser) parseAtom() (Expr, error) {
	c := p.peek()
	switch {
	case c == 0:
		return nil, p.errorf("unexpected end of input")
	case c == '(':
		p.pos++
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.peek() != ')' {
			return nil, p.errorf("missing ')'")
		}
		p.pos++
		return inner, nil
	case isDigit(c) || c == '.':
		return p.parseNumber()
	case isLetter(c):
		return p.parseName()
	}
	return nil, p.errorf("unexpected %q", c)
}

func (p *parser) parseNumber() (Expr, error) {
	start := p.pos
	for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
		p.pos++
	}
	if p.pos < len(p.src) && p.src[p.pos] == '.' {
		p.pos++
		for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
			p.pos++
		}
	}
	lit := p.src[start:p.pos]
	if lit == "." {
		p.pos = start
		return nil, p.errorf("malformed number")
	}
	r, ok := new(big.Rat).SetString(lit)
	if !ok {
		p.pos = start
		return nil, p.errorf("malformed number %q", lit)
	}
	return &Num{val: r}, nil
}

func (p *parser) parseName() (Expr, error) {
	start := p.pos
	for p.pos < len(p.src) && (isLetter(p.src[p.pos]) || isDigit(p.src[p.pos])) {
		p.pos++
	}
	name := p.src[start:p.pos]
	if p.peek() == '(' {
		fn, ok := functions[name]
		if !ok {
			p.pos = start
			return nil, p.errorf("unknown function %q", name)
		}
		p.pos++
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.peek() != ')' {
			return nil, p.errorf("missing ')' after %s argument", name)
		}
		p.pos++
		return fn(arg), nil
	}
	if c, ok := constants[name]; ok {
		return c, nil
	}
	if _, ok := functions[name]; ok {
		p.pos = start
		return nil, p.errorf("function %q needs an argument", name)
	}
	return S(name), nil
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
