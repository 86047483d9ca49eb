// Package sample evaluates a numeric function over a grid, isolating
// failures per point.
package sample

import (
	"fmt"
	"iter"
	"math"

	"github.com/njchilds90/integrand/symbolic"
)

// SampleError records a grid point where evaluation failed. It never aborts
// a sampling pass.
type SampleError struct {
	Index  int
	X      float64
	Reason string
}

func (e *SampleError) Error() string {
	return fmt.Sprintf("sample %d at x=%g: %s", e.Index, e.X, e.Reason)
}

// Value is either a finite Y or an Err.
type Value struct {
	Y   float64      `json:"y"`
	Err *SampleError `json:"error,omitempty"`
}

// Valid reports whether the value holds a finite number.
func (v Value) Valid() bool { return v.Err == nil }

// Float returns Y, or NaN when the point failed.
func (v Value) Float() float64 {
	if v.Err != nil {
		return math.NaN()
	}
	return v.Y
}

// Point is one grid sample. Anti is set only when an antiderivative was
// sampled alongside f.
type Point struct {
	Index int     `json:"index"`
	X     float64 `json:"x"`
	F     Value   `json:"f"`
	Anti  *Value  `json:"anti,omitempty"`
}

// Linspace returns n evenly spaced values from lo to hi inclusive. n < 2
// yields just lo.
func Linspace(lo, hi float64, n int) []float64 {
	if n < 2 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}

// Seq lazily evaluates fn at each grid value. The sequence is single pass:
// ranging over it a second time yields nothing.
func Seq(fn symbolic.NumericFunc, grid []float64) iter.Seq[Point] {
	next := 0
	return func(yield func(Point) bool) {
		for next < len(grid) {
			i := next
			next++
			if !yield(Point{Index: i, X: grid[i], F: eval(fn, i, grid[i])}) {
				return
			}
		}
	}
}

// Sample evaluates fn over the whole grid. When anti is non-nil it is
// evaluated at the same points.
func Sample(fn, anti symbolic.NumericFunc, grid []float64) []Point {
	points := make([]Point, 0, len(grid))
	for p := range Seq(fn, grid) {
		if anti != nil {
			v := eval(anti, p.Index, p.X)
			p.Anti = &v
		}
		points = append(points, p)
	}
	return points
}

func eval(fn symbolic.NumericFunc, i int, x float64) (v Value) {
	defer func() {
		if r := recover(); r != nil {
			v = Value{Err: &SampleError{Index: i, X: x, Reason: fmt.Sprint(r)}}
		}
	}()
	y, err := fn(x)
	switch {
	case err != nil:
		return Value{Err: &SampleError{Index: i, X: x, Reason: err.Error()}}
	case math.IsNaN(y) || math.IsInf(y, 0):
		return Value{Err: &SampleError{Index: i, X: x, Reason: "not a finite number"}}
	}
	return Value{Y: y}
}

// Trapezoid integrates f over consecutive pairs of valid points, taking |f|
// when abs is set. Pairs touching a failed point are skipped. It returns
// the sum and the number of valid points.
func Trapezoid(points []Point, abs bool) (float64, int) {
	var sum float64
	valid := 0
	for i, p := range points {
		if !p.F.Valid() {
			continue
		}
		valid++
		if i == 0 || !points[i-1].F.Valid() {
			continue
		}
		prev := points[i-1]
		a, b := prev.F.Y, p.F.Y
		if abs {
			a, b = math.Abs(a), math.Abs(b)
		}
		sum += (p.X - prev.X) * (a + b) / 2
	}
	return sum, valid
}
