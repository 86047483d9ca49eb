package dispatch

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/integrand/internal/mathtext"
	"github.com/njchilds90/integrand/internal/parser"
)

func mustExpr(t *testing.T, raw string) *parser.Expression {
	t.Helper()
	text, err := mathtext.Canonicalize(raw)
	require.NoError(t, err)
	expr, err := parser.Parse(text)
	require.NoError(t, err)
	return expr
}

func bounds(a, b float64) *Bounds {
	bb := NewBounds(a, b)
	return &bb
}

func TestIndefinite(t *testing.T) {
	var d Dispatcher
	rec, err := d.Dispatch(context.Background(), Request{Expression: mustExpr(t, "x**2"), Mode: Indefinite})
	require.NoError(t, err)

	assert.Equal(t, "x**3/3", rec.Antiderivative)
	require.NotNil(t, rec.ValueLaTeX)
	assert.Equal(t, `\frac{x^{3}}{3}`, *rec.ValueLaTeX)
	assert.Equal(t, "x^{2}", rec.ExpressionLaTeX)
	assert.Nil(t, rec.Numeric)
	assert.Nil(t, rec.Bounds)

	require.Len(t, rec.Grid, DefaultGridPoints)
	first, last := rec.Grid[0], rec.Grid[len(rec.Grid)-1]
	assert.Equal(t, -10.0, first.X)
	assert.Equal(t, 10.0, last.X)
	require.NotNil(t, last.Anti)
	assert.InDelta(t, 100, last.F.Y, 1e-9)
	assert.InDelta(t, 1000.0/3, last.Anti.Y, 1e-9)
}

func TestIndefiniteIgnoresBounds(t *testing.T) {
	d := Dispatcher{GridPoints: 11, Window: [2]float64{0, 1}}
	rec, err := d.Dispatch(context.Background(), Request{Expression: mustExpr(t, "cos(x)"), Mode: Indefinite, Bounds: bounds(3, 4)})
	require.NoError(t, err)
	assert.Equal(t, "sin(x)", rec.Antiderivative)
	assert.Nil(t, rec.Bounds)
	require.Len(t, rec.Grid, 11)
	assert.Equal(t, 0.0, rec.Grid[0].X)
	assert.Equal(t, 1.0, rec.Grid[10].X)
}

func TestDefiniteSigned(t *testing.T) {
	var d Dispatcher
	rec, err := d.Dispatch(context.Background(), Request{Expression: mustExpr(t, "x**2"), Mode: DefiniteSigned, Bounds: bounds(0, 2)})
	require.NoError(t, err)

	require.NotNil(t, rec.Numeric)
	assert.InDelta(t, 8.0/3, *rec.Numeric, 1e-12)
	require.NotNil(t, rec.ValueLaTeX)
	assert.Equal(t, `\frac{8}{3}`, *rec.ValueLaTeX)
	assert.Empty(t, rec.Antiderivative)
	require.Len(t, rec.Grid, DefaultGridPoints)
	assert.Equal(t, 0.0, rec.Grid[0].X)
	assert.Equal(t, 2.0, rec.Grid[len(rec.Grid)-1].X)
	assert.Nil(t, rec.Grid[0].Anti)
}

// The two definite modes must disagree on an odd function.
func TestAreaDiffersFromSigned(t *testing.T) {
	var d Dispatcher
	expr := mustExpr(t, "x")

	signed, err := d.Dispatch(context.Background(), Request{Expression: expr, Mode: DefiniteSigned, Bounds: bounds(-1, 1)})
	require.NoError(t, err)
	assert.InDelta(t, 0, *signed.Numeric, 1e-12)

	area, err := d.Dispatch(context.Background(), Request{Expression: expr, Mode: DefiniteAbsoluteArea, Bounds: bounds(-1, 1)})
	require.NoError(t, err)
	require.NotNil(t, area.Numeric)
	assert.InDelta(t, 1.0, *area.Numeric, 1e-4)
	assert.Nil(t, area.ValueLaTeX)
}

func TestAreaSkipsUndefinedPoints(t *testing.T) {
	d := Dispatcher{GridPoints: 101}
	rec, err := d.Dispatch(context.Background(), Request{Expression: mustExpr(t, "ln(x)"), Mode: DefiniteAbsoluteArea, Bounds: bounds(0, 1)})
	require.NoError(t, err)
	assert.NotNil(t, rec.Grid[0].F.Err)
	for _, p := range rec.Grid[1:] {
		assert.True(t, p.F.Valid())
	}
	assert.InDelta(t, 1.0, *rec.Numeric, 0.1)
}

func TestAreaTooFewValidPoints(t *testing.T) {
	var d Dispatcher
	_, err := d.Dispatch(context.Background(), Request{Expression: mustExpr(t, "ln(x)"), Mode: DefiniteAbsoluteArea, Bounds: bounds(-2, -1)})
	var ierr *IntegrationError
	assert.ErrorAs(t, err, &ierr)
}

func TestIntegrationFailures(t *testing.T) {
	var d Dispatcher
	tests := []struct {
		name string
		req  Request
	}{
		{"no closed form", Request{Expression: mustExpr(t, "exp(x**2)"), Mode: Indefinite}},
		{"no closed form definite", Request{Expression: mustExpr(t, "sin(x)/x"), Mode: DefiniteSigned, Bounds: bounds(1, 2)}},
		{"undefined at bound", Request{Expression: mustExpr(t, "1/x"), Mode: DefiniteSigned, Bounds: bounds(0, 1)}},
		{"odd pole inside", Request{Expression: mustExpr(t, "1/x"), Mode: DefiniteSigned, Bounds: bounds(-1, 1)}},
		{"even pole inside", Request{Expression: mustExpr(t, "x**(-2)"), Mode: DefiniteSigned, Bounds: bounds(-1, 1)}},
		{"tangent pole inside", Request{Expression: mustExpr(t, "tan(x)"), Mode: DefiniteSigned, Bounds: bounds(0, 3)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := d.Dispatch(context.Background(), tt.req)
			assert.Nil(t, rec)
			var ierr *IntegrationError
			require.ErrorAs(t, err, &ierr)
			assert.NotEmpty(t, ierr.Reason)
		})
	}
}

func TestSignedPoleOnGridPoint(t *testing.T) {
	d := Dispatcher{GridPoints: 5}
	_, err := d.Dispatch(context.Background(), Request{Expression: mustExpr(t, "1/x"), Mode: DefiniteSigned, Bounds: bounds(-1, 1)})
	var ierr *IntegrationError
	require.ErrorAs(t, err, &ierr)
	assert.Contains(t, ierr.Reason, "diverges near x=0")
}

func TestSignedWithoutPoles(t *testing.T) {
	var d Dispatcher
	tests := []struct {
		expr string
		a, b float64
		want float64
	}{
		{"tan(x)", 0, 1, -math.Log(math.Cos(1))},
		{"1/(x**2 + 1)", -5, 5, 2 * math.Atan(5)},
		{"1/x", 1, 2, math.Ln2},
		{"exp(x)*cos(x)", 0, math.Pi, -(math.Exp(math.Pi) + 1) / 2},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			rec, err := d.Dispatch(context.Background(), Request{Expression: mustExpr(t, tt.expr), Mode: DefiniteSigned, Bounds: bounds(tt.a, tt.b)})
			require.NoError(t, err)
			assert.InDelta(t, tt.want, *rec.Numeric, 1e-9)
		})
	}
}

func TestMissingExpression(t *testing.T) {
	var d Dispatcher
	_, err := d.Dispatch(context.Background(), Request{Mode: Indefinite})
	var perr *parser.ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestBoundsGuard(t *testing.T) {
	var d Dispatcher
	expr := mustExpr(t, "x")
	tests := []struct {
		name   string
		bounds *Bounds
	}{
		{"missing", nil},
		{"reversed", &Bounds{Lower: 5, Upper: 1}},
		{"nan", &Bounds{Lower: math.NaN(), Upper: 1}},
		{"infinite", &Bounds{Lower: 0, Upper: math.Inf(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, mode := range []Mode{DefiniteSigned, DefiniteAbsoluteArea} {
				_, err := d.Dispatch(context.Background(), Request{Expression: expr, Mode: mode, Bounds: tt.bounds})
				assert.True(t, errors.Is(err, ErrInvalidBounds), "mode %s: %v", mode, err)
			}
		})
	}
}

func TestCallerSwapsBounds(t *testing.T) {
	b := NewBounds(5, 1)
	assert.Equal(t, Bounds{Lower: 1, Upper: 5}, b)

	parsed, err := ParseBounds(" 5 ", "1")
	require.NoError(t, err)
	assert.Equal(t, b, parsed)

	var d Dispatcher
	rec, err := d.Dispatch(context.Background(), Request{Expression: mustExpr(t, "x"), Mode: DefiniteSigned, Bounds: &parsed})
	require.NoError(t, err)
	assert.InDelta(t, 12, *rec.Numeric, 1e-12)
}

func TestParseBoundsRejectsText(t *testing.T) {
	for _, in := range [][2]string{{"zero", "1"}, {"0", ""}, {"0", "inf"}, {"NaN", "1"}} {
		_, err := ParseBounds(in[0], in[1])
		assert.ErrorIs(t, err, ErrInvalidBounds, "%q", in)
	}
}

func TestDispatchIsPure(t *testing.T) {
	var d Dispatcher
	for _, req := range []Request{
		{Expression: mustExpr(t, "x*sin(x)"), Mode: Indefinite},
		{Expression: mustExpr(t, "x**2"), Mode: DefiniteSigned, Bounds: bounds(0, 2)},
		{Expression: mustExpr(t, "ln(x)"), Mode: DefiniteAbsoluteArea, Bounds: bounds(0, 3)},
	} {
		first, err := d.Dispatch(context.Background(), req)
		require.NoError(t, err)
		second, err := d.Dispatch(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}
}

func TestTransitionTable(t *testing.T) {
	allowed := [][2]State{
		{Idle, Validating},
		{Validating, DispatchIndefinite},
		{Validating, DispatchDefiniteSigned},
		{Validating, DispatchDefiniteArea},
		{DispatchIndefinite, Done},
		{DispatchDefiniteArea, Failed},
	}
	for _, tr := range allowed {
		assert.True(t, CanTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}
	rejected := [][2]State{
		{Idle, DispatchIndefinite},
		{Idle, Done},
		{Validating, Done},
		{DispatchIndefinite, DispatchDefiniteSigned},
		{Done, Idle},
		{Failed, Validating},
	}
	for _, tr := range rejected {
		assert.False(t, CanTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}
}

func TestModeText(t *testing.T) {
	for _, m := range []Mode{Indefinite, DefiniteSigned, DefiniteAbsoluteArea} {
		got, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseMode("sideways")
	assert.Error(t, err)

	var req struct{ Mode Mode }
	require.NoError(t, json.Unmarshal([]byte(`{"Mode":"area"}`), &req))
	assert.Equal(t, DefiniteAbsoluteArea, req.Mode)
}
