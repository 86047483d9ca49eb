// Package parser turns sanitized text into an expression of the single
// variable x.
package parser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/njchilds90/integrand/internal/mathtext"
	"github.com/njchilds90/integrand/symbolic"
)

// Var is the only free variable an expression may use.
const Var = "x"

// ParseError reports any failure to turn text into an expression.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string { return "parse error: " + e.Reason }

// Expression is a parsed function of x. Only Parse produces it.
type Expression struct {
	expr symbolic.Expr
}

// Expr returns the underlying algebra tree.
func (e *Expression) Expr() symbolic.Expr { return e.expr }

func (e *Expression) String() string { return e.expr.String() }
func (e *Expression) LaTeX() string  { return e.expr.LaTeX() }

// Parse never retries; every failure, including a panic inside the engine,
// comes back as a *ParseError.
func Parse(text mathtext.Text) (expr *Expression, err error) {
	defer func() {
		if r := recover(); r != nil {
			expr, err = nil, &ParseError{Reason: fmt.Sprint(r)}
		}
	}()

	e, perr := symbolic.Parse(text.String())
	if perr != nil {
		return nil, &ParseError{Reason: perr.Error()}
	}
	if extra := foreignSymbols(e); len(extra) > 0 {
		return nil, &ParseError{Reason: fmt.Sprintf("unknown symbol %s; only %s is allowed", strings.Join(extra, ", "), Var)}
	}
	return &Expression{expr: e}, nil
}

func foreignSymbols(e symbolic.Expr) []string {
	var out []string
	for name := range symbolic.FreeSymbols(e) {
		if name != Var {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
