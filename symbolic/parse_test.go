package symbolic_test

import (
	"errors"
	"math"
	"testing"

	"github.com/njchilds90/integrand/symbolic"
)

func TestParse_Canonical(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"x**2 + 3*x + 2", "x**2 + 3*x + 2"},
		{"x^2", "x**2"},
		{"2^3", "8"},
		{"2.5*x", "5*x/2"},
		{"-x**2", "-x**2"},
		{"2**-1", "1/2"},
		{"sqrt(x)", "x**(1/2)"},
		{"log(x)", "ln(x)"},
		{"e**x", "exp(x)"},
		{"sin(pi*x)", "sin(pi*x)"},
		{"(x - 1)*(x + 1)", "(x + 1)*(x - 1)"},
		{" x  +  1 ", "x + 1"},
		{"x - x", "0"},
	}
	for _, c := range cases {
		e, err := symbolic.Parse(c.in)
		if err != nil {
			t.Errorf("Parse(%q): %v", c.in, err)
			continue
		}
		if got := e.String(); got != c.want {
			t.Errorf("Parse(%q): want %s, got %s", c.in, c.want, got)
		}
	}
}

// String output must parse back to the same expression.
func TestParse_RoundTrip(t *testing.T) {
	inputs := []string{
		"x**2 + 3*x + 2",
		"sin(2*x)",
		"-cos(x)",
		"x**3/3",
		"ln(abs(x))",
		"2*x**(3/2)/3",
		"exp(-x)",
		"atan(x/2)/2",
		"x*exp(x) - exp(x)",
		"1/(x**2 + 1)",
		"(2*x + 1)**4/8",
		"2**x/ln(2)",
	}
	for _, in := range inputs {
		first := symbolic.MustParse(in)
		second, err := symbolic.Parse(first.String())
		if err != nil {
			t.Errorf("reparse of %q (%s): %v", in, first.String(), err)
			continue
		}
		if first.String() != second.String() {
			t.Errorf("round trip of %q: %s != %s", in, first.String(), second.String())
		}
	}
}

func TestParse_Errors(t *testing.T) {
	for _, in := range []string{"", "   ", "2*", "(x+1", "foo(x)", "x+*2", "sin", "x)", "3x", "."} {
		_, err := symbolic.Parse(in)
		if err == nil {
			t.Errorf("Parse(%q) should fail", in)
			continue
		}
		var syn *symbolic.SyntaxError
		if !errors.As(err, &syn) {
			t.Errorf("Parse(%q): want *SyntaxError, got %T", in, err)
		}
	}
}

func TestParse_DeepNesting(t *testing.T) {
	in := ""
	for i := 0; i < 500; i++ {
		in += "("
	}
	in += "x"
	for i := 0; i < 500; i++ {
		in += ")"
	}
	if _, err := symbolic.Parse(in); err == nil {
		t.Error("deeply nested input should be rejected")
	}
}

func TestFloat(t *testing.T) {
	v, err := symbolic.Float(symbolic.MustParse("2*pi"))
	if err != nil || math.Abs(v-2*math.Pi) > 1e-15 {
		t.Errorf("2*pi: got %v, %v", v, err)
	}
	if _, err := symbolic.Float(symbolic.MustParse("ln(0)")); err == nil {
		t.Error("ln(0) should fail")
	} else {
		var de *symbolic.DomainError
		if !errors.As(err, &de) || de.Func != "ln" {
			t.Errorf("ln(0): want DomainError for ln, got %v", err)
		}
	}
	if _, err := symbolic.Float(symbolic.S("x")); err == nil {
		t.Error("free symbol should not evaluate")
	}
}

func TestLambdify(t *testing.T) {
	f := symbolic.Lambdify(symbolic.MustParse("cbrt(x)"), "x")
	v, err := f(-8)
	if err != nil || math.Abs(v+2) > 1e-12 {
		t.Errorf("cbrt(-8): got %v, %v", v, err)
	}

	inv := symbolic.Lambdify(symbolic.MustParse("1/x"), "x")
	if _, err := inv(0); err == nil {
		t.Error("1/x at 0 should fail")
	}
	if v, err := inv(4); err != nil || v != 0.25 {
		t.Errorf("1/x at 4: got %v, %v", v, err)
	}

	root := symbolic.Lambdify(symbolic.MustParse("sqrt(x)"), "x")
	if _, err := root(-1); err == nil {
		t.Error("sqrt(-1) should fail")
	}
}
