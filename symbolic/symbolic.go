// Package symbolic provides the deterministic symbolic math kernel used by
// the integral solver.
//
// Design goals:
//   - Exact rational arithmetic (math/big.Rat)
//   - Deterministic simplification and stable output
//   - String() output in the canonical grammar, so Parse(e.String()) round-trips
//   - LaTeX rendering for display
package symbolic

import (
	"fmt"
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"
)

// ============================================================
// Core Interface
// ============================================================

type Expr interface {
	Simplify() Expr
	String() string
	LaTeX() string
	Sub(varName string, value Expr) Expr
	Diff(varName string) Expr
	Eval() (*Num, bool)
	Equal(other Expr) bool
	exprType() string
	toJSON() map[string]interface{}
}

// ============================================================
// Num: exact rational number
// ============================================================

type Num struct{ val *big.Rat }

func N(n int64) *Num { return &Num{val: new(big.Rat).SetInt64(n)} }
func F(p, q int64) *Num {
	if q == 0 {
		panic("symbolic: denominator is zero")
	}
	return &Num{val: new(big.Rat).SetFrac(big.NewInt(p), big.NewInt(q))}
}

// NFloat converts f exactly, keeping every binary digit. f must be finite.
func NFloat(f float64) *Num {
	r := new(big.Rat)
	if r.SetFloat64(f) == nil {
		panic("symbolic: non-finite float " + strconv.FormatFloat(f, 'g', -1, 64))
	}
	return &Num{val: r}
}

// Decimal converts f through its shortest decimal form, so 0.1 becomes 1/10.
// f must be finite.
func Decimal(f float64) *Num {
	r, ok := new(big.Rat).SetString(strconv.FormatFloat(f, 'g', -1, 64))
	if !ok {
		return NFloat(f)
	}
	return &Num{val: r}
}

func (n *Num) Simplify() Expr        { return n }
func (n *Num) Sub(string, Expr) Expr { return n }
func (n *Num) Diff(string) Expr      { return N(0) }
func (n *Num) Eval() (*Num, bool)    { return n, true }
func (n *Num) Equal(other Expr) bool { o, ok := other.(*Num); return ok && n.val.Cmp(o.val) == 0 }
func (n *Num) exprType() string      { return "num" }
func (n *Num) Float64() float64      { f, _ := n.val.Float64(); return f }
func (n *Num) IsZero() bool          { return n.val.Sign() == 0 }
func (n *Num) IsOne() bool           { return n.val.Cmp(new(big.Rat).SetInt64(1)) == 0 }
func (n *Num) IsNegOne() bool        { return n.val.Cmp(new(big.Rat).SetInt64(-1)) == 0 }
func (n *Num) IsInteger() bool       { return n.val.IsInt() }
func (n *Num) IsPositive() bool      { return n.val.Sign() > 0 }
func (n *Num) IsNegative() bool      { return n.val.Sign() < 0 }

func (n *Num) String() string {
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	return n.val.RatString()
}

func (n *Num) LaTeX() string {
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	sign := ""
	v := new(big.Rat).Set(n.val)
	if v.Sign() < 0 {
		sign = "-"
		v.Neg(v)
	}
	return fmt.Sprintf("%s\\frac{%s}{%s}", sign, v.Num().String(), v.Denom().String())
}

func (n *Num) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "num", "value": n.String()}
}

func numAdd(a, b *Num) *Num { return &Num{val: new(big.Rat).Add(a.val, b.val)} }
func numSub(a, b *Num) *Num { return &Num{val: new(big.Rat).Sub(a.val, b.val)} }
func numMul(a, b *Num) *Num { return &Num{val: new(big.Rat).Mul(a.val, b.val)} }
func numNeg(a *Num) *Num    { return &Num{val: new(big.Rat).Neg(a.val)} }
func numRecip(a *Num) *Num {
	if a.IsZero() {
		panic("symbolic: division by zero")
	}
	return &Num{val: new(big.Rat).Inv(a.val)}
}
func numDiv(a, b *Num) *Num { return numMul(a, numRecip(b)) }
func numAbs(a *Num) *Num {
	r := new(big.Rat).Set(a.val)
	if r.Sign() < 0 {
		r.Neg(r)
	}
	return &Num{val: r}
}

// numPowInt raises a to a small integer power. a must be non-zero when e < 0.
func numPowInt(a *Num, e int64) *Num {
	neg := e < 0
	if neg {
		e = -e
	}
	result := N(1)
	for i := int64(0); i < e; i++ {
		result = numMul(result, a)
	}
	if neg {
		return numRecip(result)
	}
	return result
}

// intRoot returns the exact q-th root of a non-negative integer.
func intRoot(n *big.Int, q int64) (*big.Int, bool) {
	if n.Sign() < 0 {
		return nil, false
	}
	if n.Sign() == 0 {
		return new(big.Int), true
	}
	if q == 2 {
		r := new(big.Int).Sqrt(n)
		return r, new(big.Int).Mul(r, r).Cmp(n) == 0
	}
	f, _ := new(big.Float).SetInt(n).Float64()
	if math.IsInf(f, 0) {
		return nil, false
	}
	guess := big.NewInt(int64(math.Round(math.Pow(f, 1/float64(q)))))
	for _, c := range []*big.Int{guess, new(big.Int).Sub(guess, big.NewInt(1)), new(big.Int).Add(guess, big.NewInt(1))} {
		if c.Sign() < 0 {
			continue
		}
		if new(big.Int).Exp(c, big.NewInt(q), nil).Cmp(n) == 0 {
			return c, true
		}
	}
	return nil, false
}

// numRationalPow folds base^(p/q) when the q-th root of base is rational.
func numRationalPow(base, exp *Num) (*Num, bool) {
	if base.IsNegative() || !exp.val.Denom().IsInt64() || !exp.val.Num().IsInt64() {
		return nil, false
	}
	p := exp.val.Num().Int64()
	q := exp.val.Denom().Int64()
	if q > 12 || p > 20 || p < -20 {
		return nil, false
	}
	if base.IsZero() {
		if p < 0 {
			return nil, false
		}
		return N(0), true
	}
	rn, ok := intRoot(base.val.Num(), q)
	if !ok {
		return nil, false
	}
	rd, ok := intRoot(base.val.Denom(), q)
	if !ok {
		return nil, false
	}
	root := &Num{val: new(big.Rat).SetFrac(rn, rd)}
	return numPowInt(root, p), true
}

// ============================================================
// Sym: symbolic variable
// ============================================================

type Sym struct{ name string }

func S(name string) *Sym      { return &Sym{name: name} }
func (s *Sym) Simplify() Expr { return s }
func (s *Sym) String() string { return s.name }
func (s *Sym) LaTeX() string  { return s.name }
func (s *Sym) Eval() (*Num, bool) {
	return nil, false
}
func (s *Sym) Equal(other Expr) bool { o, ok := other.(*Sym); return ok && s.name == o.name }
func (s *Sym) exprType() string      { return "sym" }
func (s *Sym) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "sym", "name": s.name}
}
func (s *Sym) Sub(varName string, value Expr) Expr {
	if s.name == varName {
		return value
	}
	return s
}
func (s *Sym) Diff(varName string) Expr {
	if s.name == varName {
		return N(1)
	}
	return N(0)
}

// ============================================================
// Const: named real constant (pi, e)
// ============================================================

type Const struct {
	name  string
	latex string
	value float64
}

var (
	Pi = &Const{name: "pi", latex: `\pi`, value: math.Pi}
	E  = &Const{name: "e", latex: "e", value: math.E}
)

func (c *Const) Simplify() Expr        { return c }
func (c *Const) String() string        { return c.name }
func (c *Const) LaTeX() string         { return c.latex }
func (c *Const) Sub(string, Expr) Expr { return c }
func (c *Const) Diff(string) Expr      { return N(0) }
func (c *Const) Eval() (*Num, bool)    { return NFloat(c.value), true }
func (c *Const) Equal(other Expr) bool { o, ok := other.(*Const); return ok && c.name == o.name }
func (c *Const) exprType() string      { return "const" }
func (c *Const) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "const", "name": c.name}
}

// ============================================================
// Add: sum of terms
// ============================================================

type Add struct{ terms []Expr }

func AddOf(terms ...Expr) Expr { return (&Add{terms: terms}).Simplify() }

func (a *Add) Simplify() Expr {
	flat := make([]Expr, 0, len(a.terms))
	for _, t := range a.terms {
		s := t.Simplify()
		if inner, ok := s.(*Add); ok {
			flat = append(flat, inner.terms...)
		} else {
			flat = append(flat, s)
		}
	}

	// Like terms share everything but their numeric coefficient.
	type likeTerms struct {
		rest  Expr
		coeff *Num
	}
	numAccum := N(0)
	groups := []*likeTerms{}
	byKey := map[string]*likeTerms{}
	for _, t := range flat {
		if v, ok := t.(*Num); ok {
			numAccum = numAdd(numAccum, v)
			continue
		}
		coeff, rest := extractCoefficient(t)
		key := rest.String()
		if g, ok := byKey[key]; ok {
			g.coeff = numAdd(g.coeff, coeff)
			continue
		}
		g := &likeTerms{rest: rest, coeff: coeff}
		byKey[key] = g
		groups = append(groups, g)
	}

	result := make([]Expr, 0, len(groups)+1)
	for _, g := range groups {
		switch {
		case g.coeff.IsZero():
			continue
		case g.coeff.IsOne():
			result = append(result, g.rest)
		default:
			result = append(result, MulOf(g.coeff, g.rest))
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return termDegree(result[i]) > termDegree(result[j])
	})
	if !numAccum.IsZero() {
		result = append(result, numAccum)
	}
	if len(result) == 0 {
		return N(0)
	}
	if len(result) == 1 {
		return result[0]
	}
	return &Add{terms: result}
}

// termDegree orders sum terms by descending polynomial degree for display.
func termDegree(e Expr) float64 {
	switch v := e.(type) {
	case *Sym:
		return 1
	case *Pow:
		if n, ok := v.exp.(*Num); ok {
			return n.Float64() * termDegree(v.base)
		}
	case *Mul:
		total := 0.0
		for _, f := range v.factors {
			total += termDegree(f)
		}
		return total
	case *Add:
		best := 0.0
		for _, t := range v.terms {
			if d := termDegree(t); d > best {
				best = d
			}
		}
		return best
	}
	return 0
}

func isNegativeTerm(e Expr) bool {
	switch v := e.(type) {
	case *Num:
		return v.IsNegative()
	case *Mul:
		if len(v.factors) > 0 {
			if c, ok := v.factors[0].(*Num); ok {
				return c.IsNegative()
			}
		}
	}
	return false
}

func (a *Add) String() string {
	if len(a.terms) == 0 {
		return "0"
	}
	var b strings.Builder
	for i, t := range a.terms {
		switch {
		case i == 0:
			b.WriteString(t.String())
		case isNegativeTerm(t):
			b.WriteString(" - ")
			b.WriteString(MulOf(N(-1), t).String())
		default:
			b.WriteString(" + ")
			b.WriteString(t.String())
		}
	}
	return b.String()
}

func (a *Add) LaTeX() string {
	var b strings.Builder
	for i, t := range a.terms {
		switch {
		case i == 0:
			b.WriteString(t.LaTeX())
		case isNegativeTerm(t):
			b.WriteString(" - ")
			b.WriteString(MulOf(N(-1), t).LaTeX())
		default:
			b.WriteString(" + ")
			b.WriteString(t.LaTeX())
		}
	}
	return b.String()
}

func (a *Add) Sub(varName string, value Expr) Expr {
	newTerms := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		newTerms[i] = t.Sub(varName, value)
	}
	return AddOf(newTerms...)
}

func (a *Add) Diff(varName string) Expr {
	dTerms := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		dTerms[i] = t.Diff(varName)
	}
	return AddOf(dTerms...)
}

func (a *Add) Eval() (*Num, bool) {
	acc := N(0)
	for _, t := range a.terms {
		v, ok := t.Eval()
		if !ok {
			return nil, false
		}
		acc = numAdd(acc, v)
	}
	return acc, true
}

func (a *Add) Equal(other Expr) bool {
	o, ok := other.(*Add)
	if !ok || len(a.terms) != len(o.terms) {
		return false
	}
	for i := range a.terms {
		if !a.terms[i].Equal(o.terms[i]) {
			return false
		}
	}
	return true
}

func (a *Add) exprType() string { return "add" }
func (a *Add) toJSON() map[string]interface{} {
	ts := make([]map[string]interface{}, len(a.terms))
	for i, t := range a.terms {
		ts[i] = t.toJSON()
	}
	return map[string]interface{}{"type": "add", "terms": ts}
}

// ============================================================
// Mul: product of factors
// ============================================================

type Mul struct{ factors []Expr }

func MulOf(factors ...Expr) Expr { return (&Mul{factors: factors}).Simplify() }

// asPower views any factor as base^exp so like bases can be merged.
func asPower(e Expr) (base, exp Expr) {
	switch v := e.(type) {
	case *Pow:
		return v.base, v.exp
	case *Func:
		if v.name == "exp" {
			return E, v.arg
		}
	}
	return e, N(1)
}

func factorRank(e Expr) int {
	switch v := e.(type) {
	case *Sym, *Const:
		return 0
	case *Pow:
		if _, ok := v.base.(*Sym); ok {
			return 1
		}
		return 3
	case *Func:
		return 2
	}
	return 4
}

func (m *Mul) Simplify() Expr {
	flat := make([]Expr, 0, len(m.factors))
	for _, f := range m.factors {
		s := f.Simplify()
		if inner, ok := s.(*Mul); ok {
			flat = append(flat, inner.factors...)
		} else {
			flat = append(flat, s)
		}
	}

	type likeBase struct {
		base Expr
		exps []Expr
	}
	coeff := N(1)
	groups := []*likeBase{}
	byKey := map[string]*likeBase{}
	for _, f := range flat {
		if v, ok := f.(*Num); ok {
			coeff = numMul(coeff, v)
			continue
		}
		base, exp := asPower(f)
		key := base.String()
		if g, ok := byKey[key]; ok {
			g.exps = append(g.exps, exp)
			continue
		}
		g := &likeBase{base: base, exps: []Expr{exp}}
		byKey[key] = g
		groups = append(groups, g)
	}
	if coeff.IsZero() {
		return N(0)
	}

	others := []Expr{}
	for _, g := range groups {
		var exp Expr
		if len(g.exps) == 1 {
			exp = g.exps[0]
		} else {
			exp = AddOf(g.exps...)
		}
		switch p := PowOf(g.base, exp).(type) {
		case *Num:
			coeff = numMul(coeff, p)
		case *Mul:
			for _, f := range p.factors {
				if n, ok := f.(*Num); ok {
					coeff = numMul(coeff, n)
				} else {
					others = append(others, f)
				}
			}
		default:
			others = append(others, p)
		}
	}
	if coeff.IsZero() {
		return N(0)
	}
	if len(others) == 0 {
		return coeff
	}

	// Precompute sort keys to avoid repeated String() calls in comparator.
	type keyed struct {
		e    Expr
		rank int
		key  string
	}
	ks := make([]keyed, len(others))
	for i, e := range others {
		ks[i] = keyed{e: e, rank: factorRank(e), key: e.String()}
	}
	sort.Slice(ks, func(i, j int) bool {
		if ks[i].rank != ks[j].rank {
			return ks[i].rank < ks[j].rank
		}
		return ks[i].key < ks[j].key
	})
	sortedOthers := make([]Expr, len(ks))
	for i := range ks {
		sortedOthers[i] = ks[i].e
	}
	others = sortedOthers

	if coeff.IsOne() {
		if len(others) == 1 {
			return others[0]
		}
		return &Mul{factors: others}
	}
	return &Mul{factors: append([]Expr{coeff}, others...)}
}

// split separates a product into sign, numerator and denominator parts.
// Factors with a negative numeric exponent move to the denominator.
func (m *Mul) split() (negative bool, coeff *Num, num, den []Expr) {
	coeff = N(1)
	for _, f := range m.factors {
		if n, ok := f.(*Num); ok {
			coeff = numMul(coeff, n)
			continue
		}
		if p, ok := f.(*Pow); ok {
			if en, ok2 := p.exp.(*Num); ok2 && en.IsNegative() {
				den = append(den, PowOf(p.base, numNeg(en)))
				continue
			}
		}
		num = append(num, f)
	}
	if coeff.IsNegative() {
		negative = true
		coeff = numNeg(coeff)
	}
	return negative, coeff, num, den
}

func (m *Mul) String() string {
	if len(m.factors) == 0 {
		return "1"
	}
	negative, coeff, num, den := m.split()
	var numParts, denParts []string
	if !coeff.val.Num().IsInt64() || coeff.val.Num().Int64() != 1 || len(num) == 0 {
		numParts = append(numParts, coeff.val.Num().String())
	}
	for _, f := range num {
		if _, isAdd := f.(*Add); isAdd {
			numParts = append(numParts, "("+f.String()+")")
		} else {
			numParts = append(numParts, f.String())
		}
	}
	if !coeff.val.IsInt() {
		denParts = append(denParts, coeff.val.Denom().String())
	}
	for _, f := range den {
		switch f.(type) {
		case *Add, *Mul:
			denParts = append(denParts, "("+f.String()+")")
		default:
			denParts = append(denParts, f.String())
		}
	}
	s := strings.Join(numParts, "*")
	if len(denParts) > 0 {
		d := strings.Join(denParts, "*")
		if len(denParts) > 1 {
			d = "(" + d + ")"
		}
		s += "/" + d
	}
	if negative {
		return "-" + s
	}
	return s
}

func (m *Mul) LaTeX() string {
	negative, coeff, num, den := m.split()
	var numParts, denParts []string
	if !coeff.val.Num().IsInt64() || coeff.val.Num().Int64() != 1 || len(num) == 0 {
		numParts = append(numParts, coeff.val.Num().String())
	}
	for _, f := range num {
		if _, isAdd := f.(*Add); isAdd {
			numParts = append(numParts, "\\left("+f.LaTeX()+"\\right)")
		} else {
			numParts = append(numParts, f.LaTeX())
		}
	}
	if !coeff.val.IsInt() {
		denParts = append(denParts, coeff.val.Denom().String())
	}
	for _, f := range den {
		if _, isAdd := f.(*Add); isAdd && len(den) > 1 {
			denParts = append(denParts, "\\left("+f.LaTeX()+"\\right)")
		} else {
			denParts = append(denParts, f.LaTeX())
		}
	}
	s := strings.Join(numParts, " ")
	if len(denParts) > 0 {
		s = "\\frac{" + s + "}{" + strings.Join(denParts, " ") + "}"
	}
	if negative {
		return "-" + s
	}
	return s
}

func (m *Mul) Sub(varName string, value Expr) Expr {
	newFactors := make([]Expr, len(m.factors))
	for i, f := range m.factors {
		newFactors[i] = f.Sub(varName, value)
	}
	return MulOf(newFactors...)
}

func (m *Mul) Diff(varName string) Expr {
	terms := make([]Expr, len(m.factors))
	for i, fi := range m.factors {
		dfi := fi.Diff(varName)
		others := make([]Expr, 0, len(m.factors)-1)
		for j, fj := range m.factors {
			if j != i {
				others = append(others, fj)
			}
		}
		if len(others) == 0 {
			terms[i] = dfi
		} else {
			terms[i] = MulOf(append([]Expr{dfi}, others...)...)
		}
	}
	return AddOf(terms...)
}

func (m *Mul) Eval() (*Num, bool) {
	acc := N(1)
	for _, f := range m.factors {
		v, ok := f.Eval()
		if !ok {
			return nil, false
		}
		acc = numMul(acc, v)
	}
	return acc, true
}

func (m *Mul) Equal(other Expr) bool {
	o, ok := other.(*Mul)
	if !ok || len(m.factors) != len(o.factors) {
		return false
	}
	for i := range m.factors {
		if !m.factors[i].Equal(o.factors[i]) {
			return false
		}
	}
	return true
}

func (m *Mul) exprType() string { return "mul" }
func (m *Mul) toJSON() map[string]interface{} {
	fs := make([]map[string]interface{}, len(m.factors))
	for i, f := range m.factors {
		fs[i] = f.toJSON()
	}
	return map[string]interface{}{"type": "mul", "factors": fs}
}

// ============================================================
// Pow: base^exponent
// ============================================================

type Pow struct{ base, exp Expr }

func PowOf(base, exp Expr) Expr { return (&Pow{base: base, exp: exp}).Simplify() }

func (p *Pow) Simplify() Expr {
	base := p.base.Simplify()
	exp := p.exp.Simplify()

	if en, ok := exp.(*Num); ok && en.IsZero() {
		return N(1)
	}
	if en, ok := exp.(*Num); ok && en.IsOne() {
		return base
	}
	if c, ok := base.(*Const); ok && c == E {
		return ExpOf(exp)
	}

	// Handle 0^exp carefully.
	if bn, ok := base.(*Num); ok && bn.IsZero() {
		if en, ok2 := exp.(*Num); ok2 {
			// 0^0 is indeterminate; 0^negative is division by zero.
			if en.IsZero() || en.IsNegative() {
				return &Pow{base: base, exp: exp}
			}
		}
		return N(0)
	}

	if bn, ok := base.(*Num); ok && bn.IsOne() {
		return N(1)
	}
	if bn, ok := base.(*Num); ok {
		if en, ok2 := exp.(*Num); ok2 {
			if en.IsInteger() {
				e := en.val.Num().Int64()
				if en.val.Num().IsInt64() && e >= -20 && e <= 20 {
					return numPowInt(bn, e)
				}
			} else if r, ok3 := numRationalPow(bn, en); ok3 {
				return r
			}
		}
	}
	if en, ok := exp.(*Num); ok && en.IsInteger() {
		switch b := base.(type) {
		case *Pow:
			return PowOf(b.base, MulOf(b.exp, en))
		case *Mul:
			// (a*b)^n = a^n * b^n holds for integer n.
			fs := make([]Expr, len(b.factors))
			for i, f := range b.factors {
				fs[i] = PowOf(f, en)
			}
			return MulOf(fs...)
		}
	}
	if fn, ok := base.(*Func); ok && fn.name == "exp" {
		if _, isNum := exp.(*Num); isNum {
			return ExpOf(MulOf(exp, fn.arg))
		}
	}
	return &Pow{base: base, exp: exp}
}

func (p *Pow) String() string {
	baseStr := p.base.String()
	expStr := p.exp.String()
	switch b := p.base.(type) {
	case *Add, *Mul, *Pow:
		baseStr = "(" + baseStr + ")"
	case *Num:
		if !b.IsInteger() || b.IsNegative() {
			baseStr = "(" + baseStr + ")"
		}
	}
	switch e := p.exp.(type) {
	case *Sym, *Const, *Func:
	case *Num:
		if !e.IsInteger() || e.IsNegative() {
			expStr = "(" + expStr + ")"
		}
	default:
		expStr = "(" + expStr + ")"
	}
	return baseStr + "**" + expStr
}

func (p *Pow) LaTeX() string {
	if en, ok := p.exp.(*Num); ok {
		switch {
		case en.Equal(F(1, 2)):
			return "\\sqrt{" + p.base.LaTeX() + "}"
		case en.Equal(F(1, 3)):
			return "\\sqrt[3]{" + p.base.LaTeX() + "}"
		case en.IsNegative():
			return "\\frac{1}{" + PowOf(p.base, numNeg(en)).LaTeX() + "}"
		}
	}
	baseStr := p.base.LaTeX()
	switch b := p.base.(type) {
	case *Add, *Mul, *Pow, *Func:
		baseStr = "\\left(" + baseStr + "\\right)"
	case *Num:
		if !b.IsInteger() || b.IsNegative() {
			baseStr = "\\left(" + baseStr + "\\right)"
		}
	}
	return baseStr + "^{" + p.exp.LaTeX() + "}"
}

func (p *Pow) Sub(varName string, value Expr) Expr {
	return PowOf(p.base.Sub(varName, value), p.exp.Sub(varName, value))
}

func (p *Pow) Diff(varName string) Expr {
	du := p.base.Diff(varName)
	dv := p.exp.Diff(varName)
	if !dependsOn(p.exp, varName) {
		newExp := AddOf(p.exp, N(-1))
		return MulOf(p.exp, PowOf(p.base, newExp), du)
	}
	if !dependsOn(p.base, varName) {
		return MulOf(PowOf(p.base, p.exp), LnOf(p.base), dv)
	}
	logTerm := MulOf(dv, LnOf(p.base))
	divTerm := MulOf(p.exp, du, PowOf(p.base, N(-1)))
	return MulOf(PowOf(p.base, p.exp), AddOf(logTerm, divTerm))
}

func (p *Pow) Eval() (*Num, bool) {
	b, ok1 := p.base.Eval()
	e, ok2 := p.exp.Eval()
	if ok1 && ok2 {
		pf := realPow(b.Float64(), e)
		if math.IsNaN(pf) || math.IsInf(pf, 0) {
			return nil, false
		}
		return NFloat(pf), true
	}
	return nil, false
}

func (p *Pow) Equal(other Expr) bool {
	o, ok := other.(*Pow)
	return ok && p.base.Equal(o.base) && p.exp.Equal(o.exp)
}

func (p *Pow) exprType() string { return "pow" }
func (p *Pow) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "pow", "base": p.base.toJSON(), "exp": p.exp.toJSON()}
}

// ============================================================
// Func: named function applications
// ============================================================

type Func struct {
	name string
	arg  Expr
}

func funcOf(name string, arg Expr) *Func { return &Func{name: name, arg: arg} }

func SinOf(arg Expr) Expr   { return funcOf("sin", arg).Simplify() }
func CosOf(arg Expr) Expr   { return funcOf("cos", arg).Simplify() }
func TanOf(arg Expr) Expr   { return funcOf("tan", arg).Simplify() }
func CotOf(arg Expr) Expr   { return funcOf("cot", arg).Simplify() }
func SecOf(arg Expr) Expr   { return funcOf("sec", arg).Simplify() }
func CscOf(arg Expr) Expr   { return funcOf("csc", arg).Simplify() }
func ExpOf(arg Expr) Expr   { return funcOf("exp", arg).Simplify() }
func LnOf(arg Expr) Expr    { return funcOf("ln", arg).Simplify() }
func SqrtOf(arg Expr) Expr  { return PowOf(arg, F(1, 2)) }
func CbrtOf(arg Expr) Expr  { return PowOf(arg, F(1, 3)) }
func AbsOf(arg Expr) Expr   { return funcOf("abs", arg).Simplify() }
func AsinOf(arg Expr) Expr  { return funcOf("asin", arg).Simplify() }
func AcosOf(arg Expr) Expr  { return funcOf("acos", arg).Simplify() }
func AtanOf(arg Expr) Expr  { return funcOf("atan", arg).Simplify() }
func AcotOf(arg Expr) Expr  { return funcOf("acot", arg).Simplify() }
func AsecOf(arg Expr) Expr  { return funcOf("asec", arg).Simplify() }
func AcscOf(arg Expr) Expr  { return funcOf("acsc", arg).Simplify() }
func SinhOf(arg Expr) Expr  { return funcOf("sinh", arg).Simplify() }
func CoshOf(arg Expr) Expr  { return funcOf("cosh", arg).Simplify() }
func TanhOf(arg Expr) Expr  { return funcOf("tanh", arg).Simplify() }
func FloorOf(arg Expr) Expr { return funcOf("floor", arg).Simplify() }
func CeilOf(arg Expr) Expr  { return funcOf("ceil", arg).Simplify() }
func SignOf(arg Expr) Expr  { return funcOf("sign", arg).Simplify() }

// Simplify folds a function only when the result is exact; anything else
// stays symbolic and is evaluated numerically on demand.
func (f *Func) Simplify() Expr {
	arg := f.arg.Simplify()
	if n, ok := arg.(*Num); ok {
		switch f.name {
		case "sin", "tan", "asin", "atan", "sinh", "tanh":
			if n.IsZero() {
				return N(0)
			}
		case "cos", "cosh", "exp":
			if n.IsZero() {
				return N(1)
			}
		case "acos":
			if n.IsOne() {
				return N(0)
			}
		case "ln":
			if n.IsOne() {
				return N(0)
			}
		case "abs":
			return numAbs(n)
		case "sign":
			return N(int64(n.val.Sign()))
		case "floor", "ceil":
			q, r := new(big.Int).QuoRem(n.val.Num(), n.val.Denom(), new(big.Int))
			if f.name == "floor" && r.Sign() < 0 {
				q.Sub(q, big.NewInt(1))
			}
			if f.name == "ceil" && r.Sign() > 0 {
				q.Add(q, big.NewInt(1))
			}
			return &Num{val: new(big.Rat).SetInt(q)}
		}
	}
	switch f.name {
	case "ln":
		if c, ok := arg.(*Const); ok && c == E {
			return N(1)
		}
		if inner, ok := arg.(*Func); ok && inner.name == "exp" {
			return inner.arg
		}
	case "exp":
		if inner, ok := arg.(*Func); ok && inner.name == "ln" {
			return inner.arg
		}
	case "abs":
		if inner, ok := arg.(*Func); ok && inner.name == "abs" {
			return inner
		}
		if m, ok := arg.(*Mul); ok && len(m.factors) >= 2 {
			if coeff, ok2 := m.factors[0].(*Num); ok2 && coeff.IsNegative() {
				rest := append([]Expr{numNeg(coeff)}, m.factors[1:]...)
				return AbsOf(MulOf(rest...))
			}
		}
	}
	return &Func{name: f.name, arg: arg}
}

func (f *Func) String() string { return f.name + "(" + f.arg.String() + ")" }

func (f *Func) LaTeX() string {
	switch f.name {
	case "sin", "cos", "tan", "cot", "sec", "csc", "exp", "ln", "sinh", "cosh", "tanh":
		return "\\" + f.name + "\\left(" + f.arg.LaTeX() + "\\right)"
	case "asin":
		return "\\arcsin\\left(" + f.arg.LaTeX() + "\\right)"
	case "acos":
		return "\\arccos\\left(" + f.arg.LaTeX() + "\\right)"
	case "atan":
		return "\\arctan\\left(" + f.arg.LaTeX() + "\\right)"
	case "abs":
		return "\\left|" + f.arg.LaTeX() + "\\right|"
	case "floor":
		return "\\lfloor " + f.arg.LaTeX() + " \\rfloor"
	case "ceil":
		return "\\lceil " + f.arg.LaTeX() + " \\rceil"
	}
	return "\\operatorname{" + f.name + "}\\left(" + f.arg.LaTeX() + "\\right)"
}

func (f *Func) Sub(varName string, value Expr) Expr {
	return funcOf(f.name, f.arg.Sub(varName, value)).Simplify()
}

func (f *Func) Diff(varName string) Expr {
	du := f.arg.Diff(varName)
	u := f.arg
	oneMinusSq := AddOf(N(1), MulOf(N(-1), PowOf(u, N(2))))
	var outer Expr
	switch f.name {
	case "sin":
		outer = CosOf(u)
	case "cos":
		outer = MulOf(N(-1), SinOf(u))
	case "tan":
		outer = PowOf(SecOf(u), N(2))
	case "cot":
		outer = MulOf(N(-1), PowOf(CscOf(u), N(2)))
	case "sec":
		outer = MulOf(SecOf(u), TanOf(u))
	case "csc":
		outer = MulOf(N(-1), CscOf(u), CotOf(u))
	case "exp":
		outer = ExpOf(u)
	case "ln":
		outer = PowOf(u, N(-1))
	case "asin":
		outer = PowOf(oneMinusSq, F(-1, 2))
	case "acos":
		outer = MulOf(N(-1), PowOf(oneMinusSq, F(-1, 2)))
	case "atan":
		outer = PowOf(AddOf(N(1), PowOf(u, N(2))), N(-1))
	case "acot":
		outer = MulOf(N(-1), PowOf(AddOf(N(1), PowOf(u, N(2))), N(-1)))
	case "asec":
		outer = PowOf(MulOf(AbsOf(u), SqrtOf(AddOf(PowOf(u, N(2)), N(-1)))), N(-1))
	case "acsc":
		outer = MulOf(N(-1), PowOf(MulOf(AbsOf(u), SqrtOf(AddOf(PowOf(u, N(2)), N(-1)))), N(-1)))
	case "sinh":
		outer = CoshOf(u)
	case "cosh":
		outer = SinhOf(u)
	case "tanh":
		outer = AddOf(N(1), MulOf(N(-1), PowOf(TanhOf(u), N(2))))
	case "abs":
		outer = SignOf(u)
	case "sign", "floor", "ceil":
		return N(0)
	default:
		return MulOf(funcOf("D["+f.name+"]", u), du)
	}
	return MulOf(outer, du).Simplify()
}

func (f *Func) Eval() (*Num, bool) {
	n, ok := f.arg.Eval()
	if !ok {
		return nil, false
	}
	v, err := applyFunc(f.name, n.Float64())
	if err != nil {
		return nil, false
	}
	return NFloat(v), true
}

func (f *Func) Equal(other Expr) bool {
	o, ok := other.(*Func)
	return ok && f.name == o.name && f.arg.Equal(o.arg)
}

func (f *Func) exprType() string { return "func" }
func (f *Func) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "func", "name": f.name, "arg": f.arg.toJSON()}
}

func isNumEqual(e Expr, v int64) bool {
	n, ok := e.(*Num)
	return ok && n.Equal(N(v))
}

func extractCoefficient(e Expr) (*Num, Expr) {
	if m, ok := e.(*Mul); ok && len(m.factors) >= 2 {
		if coeff, ok2 := m.factors[0].(*Num); ok2 {
			rest := m.factors[1:]
			if len(rest) == 1 {
				return coeff, rest[0]
			}
			return coeff, &Mul{factors: rest}
		}
	}
	return N(1), e
}

// ============================================================
// Top-level convenience functions
// ============================================================

func Simplify(e Expr) Expr { return e.Simplify() }
func String(e Expr) string { return e.String() }
func LaTeX(e Expr) string  { return e.LaTeX() }

func Sub(expr Expr, varName string, value Expr) Expr {
	return expr.Sub(varName, value).Simplify()
}
