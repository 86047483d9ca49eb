package sample

import (
	"math"

	"github.com/njchilds90/integrand/symbolic"
)

const (
	// refineSteps bounds bisection and peak refinement per interval.
	refineSteps = 200
	// blowup is how much |f| must grow under refinement to count as a pole.
	blowup = 1e3
)

// Poles returns the interior x values at which fn appears to be unbounded,
// given points sampled from fn in ascending x order. A candidate is a grid
// point where fn failed, a sign change whose bracket grows in magnitude
// under bisection, or a local peak of |fn| that keeps growing when refined.
// Candidates within a hair of either end are left to the caller.
func Poles(fn symbolic.NumericFunc, points []Point) []float64 {
	n := len(points)
	if n < 2 {
		return nil
	}
	lo, hi := points[0].X, points[n-1].X
	edge := (hi - lo) * 1e-9
	var out []float64
	add := func(x float64) {
		if x-lo <= edge || hi-x <= edge {
			return
		}
		if k := len(out); k > 0 && math.Abs(out[k-1]-x) <= edge {
			return
		}
		out = append(out, x)
	}

	for i := 0; i < n; i++ {
		p := points[i]
		if !p.F.Valid() {
			add(p.X)
			continue
		}
		if i+1 < n && points[i+1].F.Valid() && p.F.Y*points[i+1].F.Y < 0 {
			if x, ok := signChangePole(fn, p, points[i+1]); ok {
				add(x)
			}
		}
		if i == 0 || i == n-1 || !points[i-1].F.Valid() || !points[i+1].F.Valid() {
			continue
		}
		y, l, r := math.Abs(p.F.Y), math.Abs(points[i-1].F.Y), math.Abs(points[i+1].F.Y)
		if y >= l && y >= r && (y > l || y > r) {
			if x, ok := peakPole(fn, points[i-1].X, points[i+1].X, y); ok {
				add(x)
			}
		}
	}
	return out
}

// signChangePole bisects the sign change between a and b. A root makes |f|
// shrink toward zero; a pole makes it grow past both ends.
func signChangePole(fn symbolic.NumericFunc, a, b Point) (float64, bool) {
	x0, x1 := a.X, b.X
	y0, y1 := a.F.Y, b.F.Y
	for range refineSteps {
		m := x0 + (x1-x0)/2
		if m <= x0 || m >= x1 {
			break
		}
		v := eval(fn, 0, m)
		if !v.Valid() {
			return m, true
		}
		if v.Y == 0 {
			return 0, false
		}
		if (v.Y < 0) == (y0 < 0) {
			x0, y0 = m, v.Y
		} else {
			x1, y1 = m, v.Y
		}
	}
	grown := math.Min(math.Abs(y0), math.Abs(y1)) > math.Max(math.Abs(a.F.Y), math.Abs(b.F.Y))
	return x0 + (x1-x0)/2, grown
}

// peakPole maximizes |f| on [x0, x1] by ternary search. A smooth peak stays
// near peak; a pole runs away from it.
func peakPole(fn symbolic.NumericFunc, x0, x1, peak float64) (float64, bool) {
	best, at := peak, x0+(x1-x0)/2
	for range refineSteps {
		m1 := x0 + (x1-x0)/3
		m2 := x1 - (x1-x0)/3
		if m1 <= x0 || m2 >= x1 || m1 >= m2 {
			break
		}
		v1, v2 := eval(fn, 0, m1), eval(fn, 0, m2)
		if !v1.Valid() {
			return m1, true
		}
		if !v2.Valid() {
			return m2, true
		}
		a1, a2 := math.Abs(v1.Y), math.Abs(v2.Y)
		if a1 > best {
			best, at = a1, m1
		}
		if a2 > best {
			best, at = a2, m2
		}
		if a1 < a2 {
			x0 = m1
		} else {
			x1 = m2
		}
	}
	return at, best > blowup*math.Max(peak, 1)
}

// Settles reports whether anti stays finite and continuous around x, where
// h is the grid spacing. An antiderivative that is undefined near x, grows
// as x is approached or jumps across x means the integral over x diverges.
func Settles(anti symbolic.NumericFunc, x, h float64) bool {
	near, far := h*1e-9, h*1e-3
	var v [4]float64
	for i, at := range []float64{x - far, x - near, x + near, x + far} {
		p := eval(anti, i, at)
		if !p.Valid() {
			return false
		}
		v[i] = p.Y
	}
	if math.Abs(v[1]) > math.Abs(v[0])+1 || math.Abs(v[2]) > math.Abs(v[3])+1 {
		return false
	}
	scale := 1 + math.Max(math.Abs(v[0]), math.Abs(v[3]))
	return math.Abs(v[2]-v[1]) <= 1e-6*scale
}
