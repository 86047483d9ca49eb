package symbolic

// ============================================================
// Integration (rule-based)
// ============================================================

// maxIntegrateDepth bounds rule recursion (parts, substitution, expansion).
const maxIntegrateDepth = 10

// substVar names the integration variable of a substituted integral. The
// parser never produces identifiers containing '_'.
const substVar = "_u"

// Integrate returns an antiderivative of expr with respect to varName. The
// constant of integration is omitted. ok is false when no rule applies.
func Integrate(expr Expr, varName string) (Expr, bool) {
	result, ok := integrate(expr.Simplify(), varName, maxIntegrateDepth)
	if !ok {
		return nil, false
	}
	return result.Simplify(), true
}

// DefiniteIntegral evaluates F(upper) - F(lower) exactly, where F is the
// antiderivative found by Integrate. It does not detect singularities of
// expr inside the interval.
func DefiniteIntegral(expr Expr, varName string, lower, upper Expr) (Expr, bool) {
	anti, ok := Integrate(expr, varName)
	if !ok {
		return nil, false
	}
	return Between(anti, varName, lower, upper), true
}

// Between returns anti(upper) - anti(lower).
func Between(anti Expr, varName string, lower, upper Expr) Expr {
	return AddOf(Sub(anti, varName, upper), MulOf(N(-1), Sub(anti, varName, lower)))
}

func integrate(expr Expr, x string, depth int) (Expr, bool) {
	if depth <= 0 {
		return nil, false
	}
	if !dependsOn(expr, x) {
		return MulOf(expr, S(x)), true
	}
	switch v := expr.(type) {
	case *Sym:
		return MulOf(F(1, 2), PowOf(v, N(2))), true
	case *Add:
		terms := make([]Expr, len(v.terms))
		for i, t := range v.terms {
			it, ok := integrate(t, x, depth-1)
			if !ok {
				return nil, false
			}
			terms[i] = it
		}
		return AddOf(terms...), true
	case *Mul:
		return integrateMul(v, x, depth)
	case *Pow:
		return integratePow(v, x, depth)
	case *Func:
		return integrateFunc(v, x)
	}
	return nil, false
}

// linearCoeff returns a when u = a*x + b with a non-zero and free of x.
func linearCoeff(u Expr, x string) (Expr, bool) {
	d := Diff(u, x)
	if dependsOn(d, x) || isNumEqual(d, 0) {
		return nil, false
	}
	return d, true
}

func oneMinusSquare(u Expr) Expr { return AddOf(N(1), MulOf(N(-1), PowOf(u, N(2)))) }
func onePlusSquare(u Expr) Expr  { return AddOf(N(1), PowOf(u, N(2))) }

// integrateFunc handles f(a*x + b) for every elementary function with a
// closed-form antiderivative.
func integrateFunc(f *Func, x string) (Expr, bool) {
	u := f.arg
	a, ok := linearCoeff(u, x)
	if !ok {
		return nil, false
	}
	var anti Expr
	switch f.name {
	case "sin":
		anti = MulOf(N(-1), CosOf(u))
	case "cos":
		anti = SinOf(u)
	case "tan":
		anti = MulOf(N(-1), LnOf(AbsOf(CosOf(u))))
	case "cot":
		anti = LnOf(AbsOf(SinOf(u)))
	case "sec":
		anti = LnOf(AbsOf(AddOf(SecOf(u), TanOf(u))))
	case "csc":
		anti = MulOf(N(-1), LnOf(AbsOf(AddOf(CscOf(u), CotOf(u)))))
	case "exp":
		anti = ExpOf(u)
	case "ln":
		anti = AddOf(MulOf(u, LnOf(u)), MulOf(N(-1), u))
	case "sinh":
		anti = CoshOf(u)
	case "cosh":
		anti = SinhOf(u)
	case "tanh":
		anti = LnOf(CoshOf(u))
	case "asin":
		anti = AddOf(MulOf(u, AsinOf(u)), SqrtOf(oneMinusSquare(u)))
	case "acos":
		anti = AddOf(MulOf(u, AcosOf(u)), MulOf(N(-1), SqrtOf(oneMinusSquare(u))))
	case "atan":
		anti = AddOf(MulOf(u, AtanOf(u)), MulOf(F(-1, 2), LnOf(onePlusSquare(u))))
	case "acot":
		anti = AddOf(MulOf(u, AcotOf(u)), MulOf(F(1, 2), LnOf(onePlusSquare(u))))
	case "abs":
		anti = MulOf(F(1, 2), u, AbsOf(u))
	case "sign":
		anti = AbsOf(u)
	default:
		return nil, false
	}
	return MulOf(PowOf(a, N(-1)), anti), true
}

func integratePow(p *Pow, x string, depth int) (Expr, bool) {
	base, exp := p.base, p.exp
	if !dependsOn(exp, x) {
		if a, ok := linearCoeff(base, x); ok {
			if isNumEqual(exp, -1) {
				return MulOf(PowOf(a, N(-1)), LnOf(AbsOf(base))), true
			}
			n1 := AddOf(exp, N(1))
			return MulOf(PowOf(MulOf(a, n1), N(-1)), PowOf(base, n1)), true
		}
	}
	if !dependsOn(base, x) {
		if a, ok := linearCoeff(exp, x); ok {
			return MulOf(p, PowOf(MulOf(a, LnOf(base)), N(-1))), true
		}
		return integrateBySubstitution([]Expr{p}, x, depth)
	}
	n, isNum := exp.(*Num)
	if !isNum {
		return nil, false
	}
	if fn, ok := base.(*Func); ok {
		if r, ok := integrateTrigPower(fn, n, x); ok {
			return r, true
		}
	}
	if r, ok := integrateQuadraticPower(base, n, x); ok {
		return r, true
	}
	if _, isAdd := base.(*Add); isAdd && n.IsInteger() && n.IsPositive() {
		if expanded := Expand(p); !expanded.Equal(p) {
			return integrate(expanded, x, depth-1)
		}
	}
	return nil, false
}

// integrateTrigPower covers squares and reciprocals of trigonometric and
// hyperbolic functions of a linear argument.
func integrateTrigPower(fn *Func, n *Num, x string) (Expr, bool) {
	u := fn.arg
	a, ok := linearCoeff(u, x)
	if !ok {
		return nil, false
	}
	k := PowOf(a, N(-1))
	X := S(x)
	twice := MulOf(N(2), u)
	switch {
	case n.Equal(N(2)):
		switch fn.name {
		case "sin":
			return AddOf(MulOf(F(1, 2), X), MulOf(F(-1, 4), k, SinOf(twice))), true
		case "cos":
			return AddOf(MulOf(F(1, 2), X), MulOf(F(1, 4), k, SinOf(twice))), true
		case "tan":
			return AddOf(MulOf(k, TanOf(u)), MulOf(N(-1), X)), true
		case "cot":
			return AddOf(MulOf(N(-1), k, CotOf(u)), MulOf(N(-1), X)), true
		case "sec":
			return MulOf(k, TanOf(u)), true
		case "csc":
			return MulOf(N(-1), k, CotOf(u)), true
		case "sinh":
			return AddOf(MulOf(F(1, 4), k, SinhOf(twice)), MulOf(F(-1, 2), X)), true
		case "cosh":
			return AddOf(MulOf(F(1, 4), k, SinhOf(twice)), MulOf(F(1, 2), X)), true
		}
	case n.IsNegOne():
		reciprocal := map[string]string{
			"sin": "csc", "cos": "sec", "tan": "cot",
			"cot": "tan", "sec": "cos", "csc": "sin",
		}
		if name, ok := reciprocal[fn.name]; ok {
			return integrateFunc(funcOf(name, u), x)
		}
	case n.Equal(N(-2)):
		switch fn.name {
		case "sin":
			return integrateTrigPower(funcOf("csc", u), N(2), x)
		case "cos":
			return integrateTrigPower(funcOf("sec", u), N(2), x)
		}
	}
	return nil, false
}

// integrateQuadraticPower handles (a*x**2 + b*x + c)**-1 and **(-1/2) by
// completing the square: a*u**2 + k with u = x + b/(2a).
func integrateQuadraticPower(base Expr, n *Num, x string) (Expr, bool) {
	a, b, c, ok := quadratic(base, x)
	if !ok {
		return nil, false
	}
	u := AddOf(S(x), numDiv(b, numMul(N(2), a)))
	k := numSub(c, numDiv(numMul(b, b), numMul(N(4), a)))
	half := F(1, 2)

	switch {
	case n.IsNegOne():
		sign, A, K := N(1), a, k
		if a.IsNegative() {
			sign, A, K = N(-1), numNeg(a), numNeg(k)
		}
		switch {
		case K.IsZero():
			return MulOf(sign, N(-1), numRecip(A), PowOf(u, N(-1))), true
		case K.IsPositive():
			return MulOf(sign, PowOf(numMul(A, K), F(-1, 2)), AtanOf(MulOf(u, PowOf(numDiv(A, K), half)))), true
		default:
			negK := numNeg(K)
			sa, sk := PowOf(A, half), PowOf(negK, half)
			ratio := MulOf(
				AddOf(MulOf(sa, u), MulOf(N(-1), sk)),
				PowOf(AddOf(MulOf(sa, u), sk), N(-1)),
			)
			return MulOf(sign, half, PowOf(numMul(A, negK), F(-1, 2)), LnOf(AbsOf(ratio))), true
		}
	case n.Equal(F(-1, 2)):
		switch {
		case a.IsNegative() && k.IsPositive():
			A := numNeg(a)
			return MulOf(PowOf(A, F(-1, 2)), AsinOf(MulOf(u, PowOf(numDiv(A, k), half)))), true
		case a.IsPositive() && !k.IsZero():
			sa := PowOf(a, half)
			return MulOf(PowOf(a, F(-1, 2)), LnOf(AbsOf(AddOf(MulOf(sa, u), PowOf(base, half))))), true
		}
	}
	return nil, false
}

func integrateMul(m *Mul, x string, depth int) (Expr, bool) {
	var consts, deps []Expr
	for _, f := range m.factors {
		if dependsOn(f, x) {
			deps = append(deps, f)
		} else {
			consts = append(consts, f)
		}
	}
	if len(consts) > 0 {
		inner, ok := integrate(MulOf(deps...), x, depth-1)
		if !ok {
			return nil, false
		}
		return MulOf(append(consts, inner)...), true
	}
	if IsPolynomial(m, x) {
		if expanded := Expand(m); !expanded.Equal(m) {
			return integrate(expanded, x, depth-1)
		}
	}
	if r, ok := integrateExpTrig(deps, x); ok {
		return r, true
	}
	if r, ok := integrateBySubstitution(deps, x, depth); ok {
		return r, true
	}
	if r, ok := integrateByParts(deps, x, depth); ok {
		return r, true
	}
	if expanded := Expand(m); !expanded.Equal(m) {
		return integrate(expanded, x, depth-1)
	}
	return nil, false
}

// integrateExpTrig closes the cyclic parts integral of exp(p)*sin(q) and
// exp(p)*cos(q) with p = a*x + c and q = b*x + d:
//
//	exp(p)*sin(q) -> exp(p)*(a*sin(q) - b*cos(q))/(a**2 + b**2)
//	exp(p)*cos(q) -> exp(p)*(a*cos(q) + b*sin(q))/(a**2 + b**2)
func integrateExpTrig(deps []Expr, x string) (Expr, bool) {
	if len(deps) != 2 {
		return nil, false
	}
	var e, t *Func
	for _, f := range deps {
		fn, ok := f.(*Func)
		if !ok {
			return nil, false
		}
		switch fn.name {
		case "exp":
			e = fn
		case "sin", "cos":
			t = fn
		}
	}
	if e == nil || t == nil {
		return nil, false
	}
	a, ok := linearCoeff(e.arg, x)
	if !ok {
		return nil, false
	}
	b, ok := linearCoeff(t.arg, x)
	if !ok {
		return nil, false
	}
	sin, cos := SinOf(t.arg), CosOf(t.arg)
	var cyc Expr
	if t.name == "sin" {
		cyc = AddOf(MulOf(a, sin), MulOf(N(-1), b, cos))
	} else {
		cyc = AddOf(MulOf(a, cos), MulOf(b, sin))
	}
	norm := AddOf(PowOf(a, N(2)), PowOf(b, N(2)))
	return MulOf(ExpOf(e.arg), cyc, PowOf(norm, N(-1))), true
}

type substitution struct {
	inner Expr // g(x)
	outer Expr // h(u), integrated with respect to substVar
}

func substitutionCandidates(f Expr, x string) []substitution {
	u := S(substVar)
	var out []substitution
	switch v := f.(type) {
	case *Func:
		out = append(out, substitution{inner: v.arg, outer: funcOf(v.name, u)})
	case *Pow:
		if !dependsOn(v.exp, x) {
			out = append(out, substitution{inner: v.base, outer: PowOf(u, v.exp)})
		}
		if !dependsOn(v.base, x) {
			out = append(out, substitution{inner: v.exp, outer: PowOf(v.base, u)})
		}
	}
	return append(out, substitution{inner: f, outer: u})
}

// integrateBySubstitution recognizes h(g(x))*c*g'(x). The remaining factors
// divided by g'(x) must leave a constant.
func integrateBySubstitution(deps []Expr, x string, depth int) (Expr, bool) {
	for i, f := range deps {
		rest := make([]Expr, 0, len(deps)-1)
		rest = append(rest, deps[:i]...)
		rest = append(rest, deps[i+1:]...)
		restExpr := MulOf(rest...)
		for _, cand := range substitutionCandidates(f, x) {
			if s, ok := cand.inner.(*Sym); ok && s.name == x {
				continue
			}
			if !dependsOn(cand.inner, x) {
				continue
			}
			dg := Diff(cand.inner, x)
			if isNumEqual(dg, 0) {
				continue
			}
			ratio := MulOf(restExpr, PowOf(dg, N(-1)))
			if dependsOn(ratio, x) {
				continue
			}
			outer, ok := integrate(cand.outer.Simplify(), substVar, depth-1)
			if !ok {
				continue
			}
			return MulOf(ratio, Sub(outer, substVar, cand.inner)), true
		}
	}
	return nil, false
}

func isLogLike(f Expr, x string) bool {
	fn, ok := f.(*Func)
	if !ok {
		return false
	}
	switch fn.name {
	case "ln", "asin", "acos", "atan", "acot":
		_, linear := linearCoeff(fn.arg, x)
		return linear
	}
	return false
}

// integrateByParts picks u by the LIATE order (logarithmic or inverse
// trigonometric first, then polynomial) and integrates the rest as dv.
func integrateByParts(deps []Expr, x string, depth int) (Expr, bool) {
	pick := -1
	for i, f := range deps {
		if isLogLike(f, x) {
			pick = i
			break
		}
	}
	if pick < 0 {
		for i, f := range deps {
			if IsPolynomial(f, x) {
				pick = i
				break
			}
		}
	}
	if pick < 0 {
		return nil, false
	}
	u := deps[pick]
	rest := make([]Expr, 0, len(deps)-1)
	rest = append(rest, deps[:pick]...)
	rest = append(rest, deps[pick+1:]...)

	v, ok := integrate(MulOf(rest...), x, depth-1)
	if !ok {
		return nil, false
	}
	remaining, ok := integrate(Expand(MulOf(Diff(u, x), v)), x, depth-1)
	if !ok {
		return nil, false
	}
	return AddOf(MulOf(u, v), MulOf(N(-1), remaining)), true
}
