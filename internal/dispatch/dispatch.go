// Package dispatch selects an integration strategy for a parsed expression
// and builds the uniform result record.
package dispatch

import (
	"context"
	"fmt"
	"math"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/njchilds90/integrand/internal/parser"
	"github.com/njchilds90/integrand/internal/sample"
	"github.com/njchilds90/integrand/symbolic"
)

const (
	DefaultGridPoints = 400
	variable          = parser.Var
)

// DefaultWindow is the x-range sampled for indefinite integrals.
var DefaultWindow = [2]float64{-10, 10}

// ============================================================
// State machine
// ============================================================

// State is a dispatcher phase. Each request walks one path from Idle to
// Done or Failed.
type State int

const (
	Idle State = iota
	Validating
	DispatchIndefinite
	DispatchDefiniteSigned
	DispatchDefiniteArea
	Done
	Failed
)

var stateNames = [...]string{
	"idle", "validating", "dispatch_indefinite", "dispatch_definite_signed",
	"dispatch_definite_area", "done", "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

var transitions = map[State][]State{
	Idle:                   {Validating, Failed},
	Validating:             {DispatchIndefinite, DispatchDefiniteSigned, DispatchDefiniteArea, Failed},
	DispatchIndefinite:     {Done, Failed},
	DispatchDefiniteSigned: {Done, Failed},
	DispatchDefiniteArea:   {Done, Failed},
}

// CanTransition reports whether the machine may move from one state to
// another. Done and Failed are terminal.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type machine struct {
	state  State
	logger *zerolog.Logger
}

func (m *machine) advance(to State) error {
	if !CanTransition(m.state, to) {
		return errors.Errorf("illegal dispatcher transition %s -> %s", m.state, to)
	}
	m.logger.Debug().Stringer("from", m.state).Stringer("to", to).Msg("dispatcher transition")
	m.state = to
	return nil
}

// fail moves to Failed and returns err unchanged.
func (m *machine) fail(err error) error {
	m.logger.Debug().Stringer("from", m.state).Err(err).Msg("dispatcher failed")
	m.state = Failed
	return err
}

// ============================================================
// Dispatcher
// ============================================================

// Dispatcher runs integration requests. The zero value uses
// DefaultGridPoints and DefaultWindow. It holds no per-request state and is
// safe for concurrent use.
type Dispatcher struct {
	GridPoints int
	Window     [2]float64
}

func (d *Dispatcher) gridPoints() int {
	if d.GridPoints < 2 {
		return DefaultGridPoints
	}
	return d.GridPoints
}

func (d *Dispatcher) window() (float64, float64) {
	if d.Window[0] >= d.Window[1] {
		return DefaultWindow[0], DefaultWindow[1]
	}
	return d.Window[0], d.Window[1]
}

// Dispatch validates req and runs the strategy its mode selects. Errors are
// *parser.ParseError, ErrInvalidBounds (wrapped) or *IntegrationError.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (*Record, error) {
	m := &machine{state: Idle, logger: zerolog.Ctx(ctx)}

	if req.Expression == nil {
		return nil, m.fail(&parser.ParseError{Reason: "no parsed expression"})
	}
	if err := m.advance(Validating); err != nil {
		return nil, m.fail(err)
	}

	var next State
	switch req.Mode {
	case Indefinite:
		next = DispatchIndefinite
	case DefiniteSigned:
		next = DispatchDefiniteSigned
	case DefiniteAbsoluteArea:
		next = DispatchDefiniteArea
	default:
		return nil, m.fail(errors.Errorf("unknown mode %s", req.Mode))
	}
	if req.Mode != Indefinite {
		if err := req.Bounds.validate(); err != nil {
			return nil, m.fail(err)
		}
	}
	if err := m.advance(next); err != nil {
		return nil, m.fail(err)
	}

	rec := &Record{
		Mode:            req.Mode,
		Integrand:       req.Expression.String(),
		ExpressionLaTeX: req.Expression.LaTeX(),
	}
	if req.Bounds != nil && req.Mode != Indefinite {
		b := *req.Bounds
		rec.Bounds = &b
	}

	var err error
	switch next {
	case DispatchIndefinite:
		err = d.indefinite(req.Expression, rec)
	case DispatchDefiniteSigned:
		err = d.signed(req.Expression, rec)
	case DispatchDefiniteArea:
		err = d.area(req.Expression, rec)
	}
	if err != nil {
		return nil, m.fail(err)
	}
	if err := m.advance(Done); err != nil {
		return nil, m.fail(err)
	}
	m.logger.Debug().
		Stringer("mode", rec.Mode).
		Str("integrand", rec.Integrand).
		Int("grid", len(rec.Grid)).
		Msg("dispatch complete")
	return rec, nil
}

func (d *Dispatcher) indefinite(expr *parser.Expression, rec *Record) error {
	anti, ok := symbolic.Integrate(expr.Expr(), variable)
	if !ok {
		return &IntegrationError{Reason: fmt.Sprintf("no closed-form antiderivative found for %s", expr)}
	}
	latex := anti.LaTeX()
	rec.Antiderivative = anti.String()
	rec.ValueLaTeX = &latex

	lo, hi := d.window()
	rec.Grid = sample.Sample(
		symbolic.Lambdify(expr.Expr(), variable),
		symbolic.Lambdify(anti, variable),
		sample.Linspace(lo, hi, d.gridPoints()),
	)
	return nil
}

// signed evaluates F(b) - F(a). The grid is checked for poles of f inside
// the interval first; F(b) - F(a) is only trusted when F settles at each.
func (d *Dispatcher) signed(expr *parser.Expression, rec *Record) error {
	b := rec.Bounds
	anti, ok := symbolic.Integrate(expr.Expr(), variable)
	if !ok {
		return &IntegrationError{Reason: fmt.Sprintf("no closed-form antiderivative found for %s", expr)}
	}
	value := symbolic.Between(anti, variable, symbolic.Decimal(b.Lower), symbolic.Decimal(b.Upper))
	v, err := symbolic.Float(value)
	if err != nil {
		return &IntegrationError{Reason: errors.Wrapf(err, "evaluating %s", value).Error()}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &IntegrationError{Reason: fmt.Sprintf("integral over [%g, %g] is not finite", b.Lower, b.Upper)}
	}

	n := d.gridPoints()
	fn := symbolic.Lambdify(expr.Expr(), variable)
	grid := sample.Sample(fn, nil, sample.Linspace(b.Lower, b.Upper, n))
	h := (b.Upper - b.Lower) / float64(n-1)
	antiFn := symbolic.Lambdify(anti, variable)
	for _, x := range sample.Poles(fn, grid) {
		if !sample.Settles(antiFn, x, h) {
			return &IntegrationError{Reason: fmt.Sprintf("%s diverges near x=%.6g inside [%g, %g]", expr, x, b.Lower, b.Upper)}
		}
	}

	latex := value.LaTeX()
	rec.ValueLaTeX = &latex
	rec.Numeric = &v
	rec.Grid = grid
	return nil
}

// area integrates |f| numerically. Points where f is undefined are skipped.
func (d *Dispatcher) area(expr *parser.Expression, rec *Record) error {
	b := rec.Bounds
	rec.Grid = sample.Sample(symbolic.Lambdify(expr.Expr(), variable), nil, sample.Linspace(b.Lower, b.Upper, d.gridPoints()))
	v, valid := sample.Trapezoid(rec.Grid, true)
	if valid < 2 {
		return &IntegrationError{Reason: fmt.Sprintf("%s is undefined on too much of [%g, %g]", expr, b.Lower, b.Upper)}
	}
	rec.Numeric = &v
	return nil
}
