package symbolic

// ============================================================
// Differentiation
// ============================================================

func Diff(expr Expr, varName string) Expr {
	return expr.Diff(varName).Simplify()
}

func Diff2(expr Expr, varName string) Expr {
	return Diff(Diff(expr, varName), varName)
}

// ============================================================
// Expansion
// ============================================================

func Expand(e Expr) Expr { return expandExpr(e).Simplify() }

func expandExpr(e Expr) Expr {
	switch v := e.(type) {
	case *Mul:
		expanded := make([]Expr, len(v.factors))
		for i, f := range v.factors {
			expanded[i] = expandExpr(f)
		}
		for i, f := range expanded {
			if a, ok := f.(*Add); ok {
				rest := make([]Expr, 0, len(expanded)-1)
				for j, ef := range expanded {
					if j != i {
						rest = append(rest, ef)
					}
				}
				terms := make([]Expr, len(a.terms))
				for k, t := range a.terms {
					terms[k] = expandExpr(MulOf(append([]Expr{t}, rest...)...))
				}
				return expandExpr(AddOf(terms...))
			}
		}
		return MulOf(expanded...)
	case *Add:
		newTerms := make([]Expr, len(v.terms))
		for i, t := range v.terms {
			newTerms[i] = expandExpr(t)
		}
		return AddOf(newTerms...)
	case *Pow:
		base := expandExpr(v.base)
		if _, isAdd := base.(*Add); !isAdd {
			return PowOf(base, expandExpr(v.exp))
		}
		if n, ok := v.exp.(*Num); ok && n.IsInteger() {
			exp := n.val.Num().Int64()
			if exp >= 0 && exp <= 10 {
				result := Expr(N(1))
				for i := int64(0); i < exp; i++ {
					result = distribute(result, base)
				}
				return result
			}
		}
		return PowOf(base, expandExpr(v.exp))
	}
	return e
}

// distribute multiplies two sums term by term. Multiplying the sums whole
// would fold them back into a power.
func distribute(a, b Expr) Expr {
	at, bt := sumTerms(a), sumTerms(b)
	terms := make([]Expr, 0, len(at)*len(bt))
	for _, s := range at {
		for _, u := range bt {
			terms = append(terms, expandExpr(MulOf(s, u)))
		}
	}
	return AddOf(terms...)
}

func sumTerms(e Expr) []Expr {
	if a, ok := e.(*Add); ok {
		return a.terms
	}
	return []Expr{e}
}

// ============================================================
// Free Symbols
// ============================================================

// FreeSymbols returns the variable names in e. Named constants are not
// variables.
func FreeSymbols(e Expr) map[string]struct{} {
	result := map[string]struct{}{}
	collectSymbols(e, result)
	return result
}

func collectSymbols(e Expr, out map[string]struct{}) {
	switch v := e.(type) {
	case *Sym:
		out[v.name] = struct{}{}
	case *Add:
		for _, t := range v.terms {
			collectSymbols(t, out)
		}
	case *Mul:
		for _, f := range v.factors {
			collectSymbols(f, out)
		}
	case *Pow:
		collectSymbols(v.base, out)
		collectSymbols(v.exp, out)
	case *Func:
		collectSymbols(v.arg, out)
	}
}

func dependsOn(e Expr, varName string) bool {
	switch v := e.(type) {
	case *Sym:
		return v.name == varName
	case *Add:
		for _, t := range v.terms {
			if dependsOn(t, varName) {
				return true
			}
		}
	case *Mul:
		for _, f := range v.factors {
			if dependsOn(f, varName) {
				return true
			}
		}
	case *Pow:
		return dependsOn(v.base, varName) || dependsOn(v.exp, varName)
	case *Func:
		return dependsOn(v.arg, varName)
	}
	return false
}

// ============================================================
// Polynomial utilities
// ============================================================

func Degree(expr Expr, varName string) int {
	expr = expr.Simplify()
	switch v := expr.(type) {
	case *Sym:
		if v.name == varName {
			return 1
		}
		return 0
	case *Pow:
		if sym, ok := v.base.(*Sym); ok && sym.name == varName {
			if n, ok2 := v.exp.(*Num); ok2 && n.IsInteger() {
				return int(n.val.Num().Int64())
			}
		}
		return 0
	case *Add:
		maxDeg := 0
		for _, t := range v.terms {
			if d := Degree(t, varName); d > maxDeg {
				maxDeg = d
			}
		}
		return maxDeg
	case *Mul:
		totalDeg := 0
		for _, f := range v.factors {
			totalDeg += Degree(f, varName)
		}
		return totalDeg
	}
	return 0
}

type PolyCoeffsResult map[int]Expr

// PolyCoeffs maps each power of varName to its coefficient. The result is
// only meaningful when IsPolynomial reports true.
func PolyCoeffs(expr Expr, varName string) PolyCoeffsResult {
	result := PolyCoeffsResult{}
	extractCoeffs(expr.Simplify(), varName, result)
	return result
}

func extractCoeffs(e Expr, varName string, out PolyCoeffsResult) {
	switch v := e.(type) {
	case *Sym:
		if v.name == varName {
			addCoeff(out, 1, N(1))
		} else {
			addCoeff(out, 0, v)
		}
	case *Pow:
		if sym, ok := v.base.(*Sym); ok && sym.name == varName {
			if n, ok2 := v.exp.(*Num); ok2 && n.IsInteger() {
				addCoeff(out, int(n.val.Num().Int64()), N(1))
				return
			}
		}
		addCoeff(out, 0, e)
	case *Mul:
		deg := 0
		coeffFactors := []Expr{}
		for _, f := range v.factors {
			if d := Degree(f, varName); d > 0 {
				deg += d
			} else {
				coeffFactors = append(coeffFactors, f)
			}
		}
		addCoeff(out, deg, MulOf(coeffFactors...))
	case *Add:
		for _, t := range v.terms {
			extractCoeffs(t, varName, out)
		}
	default:
		addCoeff(out, 0, e)
	}
}

func addCoeff(out PolyCoeffsResult, deg int, val Expr) {
	if existing, ok := out[deg]; ok {
		out[deg] = AddOf(existing, val)
	} else {
		out[deg] = val.Simplify()
	}
}

// IsPolynomial reports whether expr is a polynomial in varName with
// non-negative integer powers only.
func IsPolynomial(expr Expr, varName string) bool {
	switch v := expr.Simplify().(type) {
	case *Num, *Const:
		return true
	case *Sym:
		return true
	case *Pow:
		if !dependsOn(v, varName) {
			return true
		}
		n, ok := v.exp.(*Num)
		return ok && n.IsInteger() && !n.IsNegative() && IsPolynomial(v.base, varName)
	case *Add:
		for _, t := range v.terms {
			if !IsPolynomial(t, varName) {
				return false
			}
		}
		return true
	case *Mul:
		for _, f := range v.factors {
			if !IsPolynomial(f, varName) {
				return false
			}
		}
		return true
	case *Func:
		return !dependsOn(v, varName)
	}
	return false
}

// quadratic returns a, b, c with expr = a*x**2 + b*x + c when all three are
// exact numbers and a is non-zero.
func quadratic(expr Expr, varName string) (a, b, c *Num, ok bool) {
	if !IsPolynomial(expr, varName) {
		return nil, nil, nil, false
	}
	expr = Expand(expr)
	if Degree(expr, varName) != 2 {
		return nil, nil, nil, false
	}
	coeffs := PolyCoeffs(expr, varName)
	get := func(d int) (*Num, bool) {
		e, present := coeffs[d]
		if !present {
			return N(0), true
		}
		n, isNum := e.(*Num)
		return n, isNum
	}
	var okA, okB, okC bool
	a, okA = get(2)
	b, okB = get(1)
	c, okC = get(0)
	if !okA || !okB || !okC || a.IsZero() {
		return nil, nil, nil, false
	}
	return a, b, c, true
}
