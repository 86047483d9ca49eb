package sample

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/integrand/symbolic"
)

func TestLinspace(t *testing.T) {
	assert.Equal(t, []float64{0, 0.5, 1, 1.5, 2}, Linspace(0, 2, 5))
	assert.Equal(t, []float64{3}, Linspace(3, 7, 1))

	grid := Linspace(-10, 10, 400)
	require.Len(t, grid, 400)
	assert.Equal(t, -10.0, grid[0])
	assert.Equal(t, 10.0, grid[399])
}

func TestSampleIsolatesDomainErrors(t *testing.T) {
	fn := symbolic.Lambdify(symbolic.MustParse("ln(x)"), "x")
	grid := []float64{-1, 0, 1, 2}

	points := Sample(fn, nil, grid)
	require.Len(t, points, 4)
	for i, p := range points {
		assert.Equal(t, i, p.Index)
		assert.Equal(t, grid[i], p.X)
		assert.Nil(t, p.Anti)
	}
	assert.NotNil(t, points[0].F.Err)
	assert.NotNil(t, points[1].F.Err)
	assert.Equal(t, 1, points[1].F.Err.Index)
	assert.True(t, math.IsNaN(points[1].F.Float()))
	assert.True(t, points[2].F.Valid())
	assert.InDelta(t, 0, points[2].F.Y, 1e-12)
	assert.InDelta(t, math.Ln2, points[3].F.Y, 1e-12)
}

func TestSampleWithAntiderivative(t *testing.T) {
	fn := symbolic.Lambdify(symbolic.MustParse("x**2"), "x")
	anti := symbolic.Lambdify(symbolic.MustParse("x**3/3"), "x")

	points := Sample(fn, anti, []float64{0, 3})
	require.Len(t, points, 2)
	require.NotNil(t, points[1].Anti)
	assert.InDelta(t, 9, points[1].F.Y, 1e-12)
	assert.InDelta(t, 9, points[1].Anti.Y, 1e-12)
}

func TestSeqIsSinglePass(t *testing.T) {
	seq := Seq(func(x float64) (float64, error) { return x, nil }, []float64{1, 2, 3})

	var first []float64
	for p := range seq {
		first = append(first, p.F.Y)
		if len(first) == 2 {
			break
		}
	}
	assert.Equal(t, []float64{1, 2}, first)

	var rest []float64
	for p := range seq {
		rest = append(rest, p.F.Y)
	}
	assert.Equal(t, []float64{3}, rest)

	for range seq {
		t.Fatal("exhausted sequence yielded again")
	}
}

func TestSampleRecoversPanics(t *testing.T) {
	points := Sample(func(x float64) (float64, error) {
		if x == 1 {
			panic("boom")
		}
		return x, nil
	}, nil, []float64{0, 1, 2})
	require.NotNil(t, points[1].F.Err)
	assert.Equal(t, "boom", points[1].F.Err.Reason)
	assert.True(t, points[2].F.Valid())
}

func TestTrapezoid(t *testing.T) {
	identity := func(x float64) (float64, error) { return x, nil }
	points := Sample(identity, nil, Linspace(-1, 1, 401))

	signed, n := Trapezoid(points, false)
	assert.Equal(t, 401, n)
	assert.InDelta(t, 0, signed, 1e-9)

	area, _ := Trapezoid(points, true)
	assert.InDelta(t, 1, area, 1e-4)
}

func TestTrapezoidSkipsFailedPairs(t *testing.T) {
	points := []Point{
		{Index: 0, X: 0, F: Value{Y: 1}},
		{Index: 1, X: 1, F: Value{Y: 1}},
		{Index: 2, X: 2, F: Value{Err: &SampleError{Index: 2, X: 2}}},
		{Index: 3, X: 3, F: Value{Y: 1}},
		{Index: 4, X: 4, F: Value{Y: 1}},
	}
	sum, n := Trapezoid(points, true)
	assert.Equal(t, 4, n)
	assert.InDelta(t, 2, sum, 1e-12)
}
