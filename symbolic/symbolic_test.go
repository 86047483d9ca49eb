package symbolic_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/njchilds90/integrand/symbolic"
)

// ============================================================
// Num tests
// ============================================================

func TestNum_Integer(t *testing.T) {
	n := symbolic.N(42)
	if n.String() != "42" {
		t.Errorf("want 42, got %s", n.String())
	}
}

func TestNum_Rational(t *testing.T) {
	n := symbolic.F(1, 3)
	if n.String() != "1/3" {
		t.Errorf("want 1/3, got %s", n.String())
	}
}

func TestNum_LaTeX_Rational(t *testing.T) {
	n := symbolic.F(2, 5)
	if n.LaTeX() != `\frac{2}{5}` {
		t.Errorf("want \\frac{2}{5}, got %s", n.LaTeX())
	}
}

func TestNum_LaTeX_NegativeRational(t *testing.T) {
	n := symbolic.F(-2, 5)
	if n.LaTeX() != `-\frac{2}{5}` {
		t.Errorf("want -\\frac{2}{5}, got %s", n.LaTeX())
	}
}

func TestNum_Diff_IsZero(t *testing.T) {
	result := symbolic.N(5).Diff("x")
	if symbolic.String(result) != "0" {
		t.Errorf("d/dx(5) should be 0, got %s", symbolic.String(result))
	}
}

func TestNum_Eval(t *testing.T) {
	n, ok := symbolic.N(7).Eval()
	if !ok || n.String() != "7" {
		t.Errorf("Num.Eval() should succeed with same value")
	}
}

func TestDecimal(t *testing.T) {
	cases := map[float64]string{
		0.1:  "1/10",
		2.5:  "5/2",
		-3:   "-3",
		1e-3: "1/1000",
	}
	for in, want := range cases {
		if got := symbolic.Decimal(in).String(); got != want {
			t.Errorf("Decimal(%v): want %s, got %s", in, want, got)
		}
	}
}

// ============================================================
// Sym and Const tests
// ============================================================

func TestSym_String(t *testing.T) {
	x := symbolic.S("x")
	if x.String() != "x" {
		t.Errorf("want x, got %s", x.String())
	}
}

func TestSym_Sub_Match(t *testing.T) {
	result := symbolic.S("x").Sub("x", symbolic.N(5))
	if symbolic.String(result) != "5" {
		t.Errorf("want 5, got %s", symbolic.String(result))
	}
}

func TestSym_Sub_NoMatch(t *testing.T) {
	result := symbolic.S("y").Sub("x", symbolic.N(5))
	if symbolic.String(result) != "y" {
		t.Errorf("want y, got %s", symbolic.String(result))
	}
}

func TestSym_Diff_Self(t *testing.T) {
	if symbolic.String(symbolic.S("x").Diff("x")) != "1" {
		t.Error("d/dx(x) should be 1")
	}
}

func TestSym_Diff_Other(t *testing.T) {
	if symbolic.String(symbolic.S("y").Diff("x")) != "0" {
		t.Error("d/dx(y) should be 0")
	}
}

func TestConst_Rendering(t *testing.T) {
	if symbolic.Pi.String() != "pi" || symbolic.Pi.LaTeX() != `\pi` {
		t.Errorf("pi renders as %s / %s", symbolic.Pi.String(), symbolic.Pi.LaTeX())
	}
	if symbolic.String(symbolic.LnOf(symbolic.E)) != "1" {
		t.Errorf("ln(e) should be 1, got %s", symbolic.String(symbolic.LnOf(symbolic.E)))
	}
	if symbolic.String(symbolic.PowOf(symbolic.E, symbolic.S("x"))) != "exp(x)" {
		t.Errorf("e**x should be exp(x), got %s", symbolic.String(symbolic.PowOf(symbolic.E, symbolic.S("x"))))
	}
}

// ============================================================
// Add tests
// ============================================================

func TestAdd_Simple(t *testing.T) {
	expr := symbolic.AddOf(symbolic.S("x"), symbolic.N(3))
	if symbolic.String(expr) != "x + 3" {
		t.Errorf("want 'x + 3', got %s", symbolic.String(expr))
	}
}

func TestAdd_CollapseToZero(t *testing.T) {
	expr := symbolic.AddOf(symbolic.N(1), symbolic.N(-1))
	if symbolic.String(expr) != "0" {
		t.Errorf("want 0, got %s", symbolic.String(expr))
	}
}

func TestAdd_LikeTerms(t *testing.T) {
	expr := symbolic.AddOf(symbolic.S("x"), symbolic.S("x"))
	if symbolic.String(expr) != "2*x" {
		t.Errorf("want '2*x', got %s", symbolic.String(expr))
	}
}

func TestAdd_Subtraction(t *testing.T) {
	x := symbolic.S("x")
	expr := symbolic.AddOf(symbolic.PowOf(x, symbolic.N(2)), symbolic.MulOf(symbolic.N(-3), x))
	if symbolic.String(expr) != "x**2 - 3*x" {
		t.Errorf("want 'x**2 - 3*x', got %s", symbolic.String(expr))
	}
}

func TestAdd_Diff(t *testing.T) {
	// d/dx(x^2 + 3x + 1) = 2x + 3
	x := symbolic.S("x")
	expr := symbolic.AddOf(symbolic.PowOf(x, symbolic.N(2)), symbolic.MulOf(symbolic.N(3), x), symbolic.N(1))
	d := symbolic.Diff(expr, "x")
	if symbolic.String(d) != "2*x + 3" {
		t.Errorf("d/dx(x^2+3x+1) should be 2*x + 3, got %s", symbolic.String(d))
	}
}

func TestAdd_SingleTerm(t *testing.T) {
	expr := symbolic.AddOf(symbolic.N(5))
	if symbolic.String(expr) != "5" {
		t.Errorf("single-term Add should unwrap, got %s", symbolic.String(expr))
	}
}

// ============================================================
// Mul tests
// ============================================================

func TestMul_Simple(t *testing.T) {
	expr := symbolic.MulOf(symbolic.N(3), symbolic.S("x"))
	if symbolic.String(expr) != "3*x" {
		t.Errorf("want '3*x', got %s", symbolic.String(expr))
	}
}

func TestMul_ZeroCollapse(t *testing.T) {
	expr := symbolic.MulOf(symbolic.N(0), symbolic.S("x"))
	if symbolic.String(expr) != "0" {
		t.Errorf("0*x should be 0, got %s", symbolic.String(expr))
	}
}

func TestMul_OneElide(t *testing.T) {
	expr := symbolic.MulOf(symbolic.N(1), symbolic.S("x"))
	if symbolic.String(expr) != "x" {
		t.Errorf("1*x should be x, got %s", symbolic.String(expr))
	}
}

func TestMul_CombinesLikeBases(t *testing.T) {
	x := symbolic.S("x")
	expr := symbolic.MulOf(x, x, symbolic.PowOf(x, symbolic.N(-1)))
	if symbolic.String(expr) != "x" {
		t.Errorf("x*x/x should be x, got %s", symbolic.String(expr))
	}
}

func TestMul_Fraction(t *testing.T) {
	x := symbolic.S("x")
	expr := symbolic.MulOf(symbolic.F(1, 3), symbolic.PowOf(x, symbolic.N(3)))
	if symbolic.String(expr) != "x**3/3" {
		t.Errorf("want x**3/3, got %s", symbolic.String(expr))
	}
	if expr.LaTeX() != `\frac{x^{3}}{3}` {
		t.Errorf("want \\frac{x^{3}}{3}, got %s", expr.LaTeX())
	}
}

func TestMul_ProductRule(t *testing.T) {
	// d/dx(x * x) = 2x
	x := symbolic.S("x")
	d := symbolic.Diff(symbolic.MulOf(x, x), "x")
	if symbolic.String(d) != "2*x" {
		t.Errorf("d/dx(x*x) should be 2*x, got %s", symbolic.String(d))
	}
}

// ============================================================
// Pow tests
// ============================================================

func TestPow_Simple(t *testing.T) {
	expr := symbolic.PowOf(symbolic.S("x"), symbolic.N(2))
	if symbolic.String(expr) != "x**2" {
		t.Errorf("want x**2, got %s", symbolic.String(expr))
	}
}

func TestPow_ZeroExp(t *testing.T) {
	expr := symbolic.PowOf(symbolic.S("x"), symbolic.N(0))
	if symbolic.String(expr) != "1" {
		t.Errorf("x^0 should be 1, got %s", symbolic.String(expr))
	}
}

func TestPow_OneExp(t *testing.T) {
	expr := symbolic.PowOf(symbolic.S("x"), symbolic.N(1))
	if symbolic.String(expr) != "x" {
		t.Errorf("x^1 should be x, got %s", symbolic.String(expr))
	}
}

func TestPow_NumericEval(t *testing.T) {
	expr := symbolic.PowOf(symbolic.N(2), symbolic.N(3))
	if symbolic.String(expr) != "8" {
		t.Errorf("2^3 should be 8, got %s", symbolic.String(expr))
	}
}

func TestPow_ExactRoots(t *testing.T) {
	if got := symbolic.String(symbolic.SqrtOf(symbolic.F(9, 4))); got != "3/2" {
		t.Errorf("sqrt(9/4) should be 3/2, got %s", got)
	}
	if got := symbolic.String(symbolic.CbrtOf(symbolic.N(27))); got != "3" {
		t.Errorf("cbrt(27) should be 3, got %s", got)
	}
	if got := symbolic.String(symbolic.SqrtOf(symbolic.N(2))); got != "2**(1/2)" {
		t.Errorf("sqrt(2) should stay symbolic, got %s", got)
	}
}

func TestPow_Diff_PowerRule(t *testing.T) {
	// d/dx(x^3) = 3*x^2
	d := symbolic.Diff(symbolic.PowOf(symbolic.S("x"), symbolic.N(3)), "x")
	if symbolic.String(d) != "3*x**2" {
		t.Errorf("d/dx(x^3) should be 3*x**2, got %s", symbolic.String(d))
	}
}

func TestPow_LaTeX(t *testing.T) {
	x := symbolic.S("x")
	cases := []struct {
		expr symbolic.Expr
		want string
	}{
		{symbolic.PowOf(x, symbolic.N(2)), "x^{2}"},
		{symbolic.SqrtOf(x), `\sqrt{x}`},
		{symbolic.CbrtOf(x), `\sqrt[3]{x}`},
		{symbolic.PowOf(x, symbolic.N(-1)), `\frac{1}{x}`},
	}
	for _, c := range cases {
		if got := c.expr.LaTeX(); got != c.want {
			t.Errorf("want %s, got %s", c.want, got)
		}
	}
}

// ============================================================
// Func tests
// ============================================================

func TestFunc_Sin_String(t *testing.T) {
	expr := symbolic.SinOf(symbolic.S("x"))
	if symbolic.String(expr) != "sin(x)" {
		t.Errorf("want sin(x), got %s", symbolic.String(expr))
	}
}

func TestFunc_Sin_Diff(t *testing.T) {
	d := symbolic.Diff(symbolic.SinOf(symbolic.S("x")), "x")
	if symbolic.String(d) != "cos(x)" {
		t.Errorf("d/dx(sin(x)) should be cos(x), got %s", symbolic.String(d))
	}
}

func TestFunc_Cos_Diff(t *testing.T) {
	d := symbolic.Diff(symbolic.CosOf(symbolic.S("x")), "x")
	if symbolic.String(d) != "-sin(x)" {
		t.Errorf("d/dx(cos(x)) should be -sin(x), got %s", symbolic.String(d))
	}
}

func TestFunc_Exp_Diff(t *testing.T) {
	d := symbolic.Diff(symbolic.ExpOf(symbolic.S("x")), "x")
	if symbolic.String(d) != "exp(x)" {
		t.Errorf("d/dx(exp(x)) should be exp(x), got %s", symbolic.String(d))
	}
}

func TestFunc_Ln_Diff(t *testing.T) {
	d := symbolic.Diff(symbolic.LnOf(symbolic.S("x")), "x")
	if symbolic.String(d) != "x**(-1)" {
		t.Errorf("d/dx(ln(x)) should be x**(-1), got %s", symbolic.String(d))
	}
}

func TestFunc_ExactFolding(t *testing.T) {
	if symbolic.String(symbolic.SinOf(symbolic.N(0))) != "0" {
		t.Errorf("sin(0) should fold to 0")
	}
	if symbolic.String(symbolic.AbsOf(symbolic.N(-4))) != "4" {
		t.Errorf("abs(-4) should fold to 4")
	}
	// Inexact values stay symbolic.
	if symbolic.String(symbolic.SinOf(symbolic.N(1))) != "sin(1)" {
		t.Errorf("sin(1) should stay symbolic, got %s", symbolic.String(symbolic.SinOf(symbolic.N(1))))
	}
}

func TestFunc_LaTeX(t *testing.T) {
	x := symbolic.S("x")
	if l := symbolic.SinOf(x).LaTeX(); l != `\sin\left(x\right)` {
		t.Errorf("got %s", l)
	}
	if l := symbolic.AbsOf(x).LaTeX(); l != `\left|x\right|` {
		t.Errorf("got %s", l)
	}
	if l := symbolic.AtanOf(x).LaTeX(); l != `\arctan\left(x\right)` {
		t.Errorf("got %s", l)
	}
}

// ============================================================
// Expand / FreeSymbols / Degree tests
// ============================================================

func TestExpand_Distribution(t *testing.T) {
	// (x+1)*(x+2) => x^2 + 3x + 2
	x := symbolic.S("x")
	expr := symbolic.MulOf(
		symbolic.AddOf(x, symbolic.N(1)),
		symbolic.AddOf(x, symbolic.N(2)),
	)
	if got := symbolic.String(symbolic.Expand(expr)); got != "x**2 + 3*x + 2" {
		t.Errorf("expanded (x+1)(x+2) should be x**2 + 3*x + 2, got %s", got)
	}
}

func TestFreeSymbols(t *testing.T) {
	expr := symbolic.AddOf(symbolic.S("x"), symbolic.MulOf(symbolic.S("y"), symbolic.N(2)), symbolic.Pi)
	syms := symbolic.FreeSymbols(expr)
	if _, ok := syms["x"]; !ok {
		t.Error("expected x in free symbols")
	}
	if _, ok := syms["y"]; !ok {
		t.Error("expected y in free symbols")
	}
	if len(syms) != 2 {
		t.Errorf("expected 2 free symbols, got %d", len(syms))
	}
}

func TestFreeSymbols_Constant(t *testing.T) {
	syms := symbolic.FreeSymbols(symbolic.N(5))
	if len(syms) != 0 {
		t.Errorf("constant should have no free symbols, got %d", len(syms))
	}
}

func TestDegree(t *testing.T) {
	x := symbolic.S("x")
	if symbolic.Degree(x, "x") != 1 {
		t.Error("degree of x should be 1")
	}
	if symbolic.Degree(symbolic.PowOf(x, symbolic.N(2)), "x") != 2 {
		t.Error("degree of x^2 should be 2")
	}
	if symbolic.Degree(symbolic.N(7), "x") != 0 {
		t.Error("degree of 7 should be 0")
	}
}

func TestPolyCoeffs(t *testing.T) {
	// 3x^2 + 2x + 1
	x := symbolic.S("x")
	expr := symbolic.AddOf(
		symbolic.MulOf(symbolic.N(3), symbolic.PowOf(x, symbolic.N(2))),
		symbolic.MulOf(symbolic.N(2), x),
		symbolic.N(1),
	)
	coeffs := symbolic.PolyCoeffs(expr, "x")
	want := map[int]string{2: "3", 1: "2", 0: "1"}
	for deg, w := range want {
		if got := symbolic.String(coeffs[deg]); got != w {
			t.Errorf("coeff of x^%d: want %s, got %s", deg, w, got)
		}
	}
}

// ============================================================
// JSON Serialization tests
// ============================================================

func TestToJSON_Num(t *testing.T) {
	j, err := symbolic.ToJSON(symbolic.N(3))
	if err != nil {
		t.Fatalf("ToJSON error: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(j), &m); err != nil {
		t.Fatal(err)
	}
	if m["type"] != "num" {
		t.Errorf("expected type=num, got %v", m["type"])
	}
}

func TestToJSON_Add(t *testing.T) {
	expr := symbolic.AddOf(symbolic.S("x"), symbolic.Pi)
	j, err := symbolic.ToJSON(expr)
	if err != nil {
		t.Fatalf("ToJSON error: %v", err)
	}
	if !strings.Contains(j, `"add"`) || !strings.Contains(j, `"const"`) {
		t.Errorf("JSON for x + pi should contain add and const nodes, got: %s", j)
	}
}

// ============================================================
// Higher-order derivative tests
// ============================================================

func TestDiff2(t *testing.T) {
	// d^2/dx^2(x^3) = 6x
	d2 := symbolic.Diff2(symbolic.PowOf(symbolic.S("x"), symbolic.N(3)), "x")
	if symbolic.String(d2) != "6*x" {
		t.Errorf("second derivative of x^3 should be 6*x, got %s", symbolic.String(d2))
	}
}

// ============================================================
// Equal tests
// ============================================================

func TestEqual_NumTrue(t *testing.T) {
	if !symbolic.N(3).Equal(symbolic.N(3)) {
		t.Error("N(3) should equal N(3)")
	}
}

func TestEqual_NumFalse(t *testing.T) {
	if symbolic.N(3).Equal(symbolic.N(4)) {
		t.Error("N(3) should not equal N(4)")
	}
}

func TestEqual_CrossType(t *testing.T) {
	if symbolic.N(1).Equal(symbolic.S("x")) {
		t.Error("N(1) should not equal S(x)")
	}
}

// ============================================================
// Determinism test
// ============================================================

func TestDeterminism(t *testing.T) {
	for i := 0; i < 10; i++ {
		expr := symbolic.AddOf(symbolic.S("z"), symbolic.S("a"), symbolic.S("m"), symbolic.N(1))
		result := symbolic.String(expr)
		expected := symbolic.String(symbolic.AddOf(symbolic.S("z"), symbolic.S("a"), symbolic.S("m"), symbolic.N(1)))
		if result != expected {
			t.Errorf("non-deterministic output on iteration %d: %s != %s", i, result, expected)
		}
	}
}
