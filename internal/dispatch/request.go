package dispatch

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/njchilds90/integrand/internal/parser"
	"github.com/njchilds90/integrand/internal/sample"
)

// ErrInvalidBounds is returned for missing, non-numeric, non-finite or
// unordered bounds.
var ErrInvalidBounds = errors.New("invalid bounds")

// IntegrationError reports that the engine found no closed form or that
// evaluating the result failed. It is terminal for the request.
type IntegrationError struct {
	Reason string
}

func (e *IntegrationError) Error() string { return "integration failed: " + e.Reason }

// Mode selects the integration strategy.
type Mode int

const (
	Indefinite Mode = iota
	DefiniteSigned
	DefiniteAbsoluteArea
)

var modeNames = [...]string{"indefinite", "definite", "area"}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseMode accepts the String form of a mode, plus a few aliases.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "indefinite":
		return Indefinite, nil
	case "definite", "signed", "definite-signed":
		return DefiniteSigned, nil
	case "area", "absolute", "definite-area":
		return DefiniteAbsoluteArea, nil
	}
	return 0, errors.Errorf("unknown mode %q", s)
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Mode) UnmarshalText(b []byte) error {
	parsed, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Bounds is a closed interval with Lower <= Upper.
type Bounds struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// NewBounds orders a and b.
func NewBounds(a, b float64) Bounds {
	if a > b {
		a, b = b, a
	}
	return Bounds{Lower: a, Upper: b}
}

// ParseBounds parses user-entered bound text and orders the result.
func ParseBounds(lower, upper string) (Bounds, error) {
	a, err := ParseBound(lower)
	if err != nil {
		return Bounds{}, errors.Wrap(err, "lower")
	}
	b, err := ParseBound(upper)
	if err != nil {
		return Bounds{}, errors.Wrap(err, "upper")
	}
	return NewBounds(a, b), nil
}

// ParseBound parses one bound. Non-numeric or non-finite text is
// ErrInvalidBounds.
func ParseBound(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.Wrapf(ErrInvalidBounds, "bound %q is not a finite number", s)
	}
	return v, nil
}

func (b *Bounds) validate() error {
	switch {
	case b == nil:
		return errors.Wrap(ErrInvalidBounds, "bounds are required for definite integrals")
	case math.IsNaN(b.Lower) || math.IsInf(b.Lower, 0) || math.IsNaN(b.Upper) || math.IsInf(b.Upper, 0):
		return errors.Wrapf(ErrInvalidBounds, "bounds [%g, %g] are not finite", b.Lower, b.Upper)
	case b.Lower > b.Upper:
		return errors.Wrapf(ErrInvalidBounds, "lower bound %g exceeds upper bound %g", b.Lower, b.Upper)
	}
	return nil
}

// Request is one integration job. Bounds must be set unless Mode is
// Indefinite.
type Request struct {
	Expression *parser.Expression
	Mode       Mode
	Bounds     *Bounds
}

// Record is the result of one successful dispatch. It is never mutated
// after Dispatch returns it.
type Record struct {
	Mode   Mode    `json:"mode"`
	Bounds *Bounds `json:"bounds,omitempty"`
	// Integrand is f in the canonical grammar.
	Integrand       string `json:"integrand"`
	ExpressionLaTeX string `json:"expression_latex"`
	// ValueLaTeX is the antiderivative (indefinite) or the exact value
	// (signed); absent for area.
	ValueLaTeX     *string        `json:"value_latex,omitempty"`
	Antiderivative string         `json:"antiderivative,omitempty"`
	Numeric        *float64       `json:"numeric,omitempty"`
	Grid           []sample.Point `json:"grid"`
}
