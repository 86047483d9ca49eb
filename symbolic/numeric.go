package symbolic

import (
	"fmt"
	"math"
	"math/big"

	"github.com/pkg/errors"
)

// DomainError reports a function evaluated outside its real domain, or a
// result that is not a finite real number.
type DomainError struct {
	Func string
	Arg  float64
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s is undefined at %g", e.Func, e.Arg)
}

// NumericFunc evaluates an expression at a single point.
type NumericFunc func(x float64) (float64, error)

// Float evaluates a closed expression to a float64.
func Float(e Expr) (float64, error) {
	return evalFloat(e, "", 0, false)
}

// Lambdify compiles e into a float function of varName. Any other free
// symbol makes every call fail.
func Lambdify(e Expr, varName string) NumericFunc {
	e = e.Simplify()
	return func(x float64) (float64, error) {
		return evalFloat(e, varName, x, true)
	}
}

func evalFloat(e Expr, varName string, x float64, bound bool) (float64, error) {
	switch v := e.(type) {
	case *Num:
		return v.Float64(), nil
	case *Const:
		return v.value, nil
	case *Sym:
		if bound && v.name == varName {
			return x, nil
		}
		return 0, errors.Errorf("unbound symbol %q", v.name)
	case *Add:
		sum := 0.0
		for _, t := range v.terms {
			f, err := evalFloat(t, varName, x, bound)
			if err != nil {
				return 0, err
			}
			sum += f
		}
		return finite("add", sum, sum)
	case *Mul:
		prod := 1.0
		for _, f := range v.factors {
			g, err := evalFloat(f, varName, x, bound)
			if err != nil {
				return 0, err
			}
			prod *= g
		}
		return finite("mul", prod, prod)
	case *Pow:
		b, err := evalFloat(v.base, varName, x, bound)
		if err != nil {
			return 0, err
		}
		if n, ok := v.exp.(*Num); ok {
			return finite("pow", b, realPow(b, n))
		}
		ev, err := evalFloat(v.exp, varName, x, bound)
		if err != nil {
			return 0, err
		}
		return finite("pow", b, math.Pow(b, ev))
	case *Func:
		a, err := evalFloat(v.arg, varName, x, bound)
		if err != nil {
			return 0, err
		}
		return applyFunc(v.name, a)
	}
	return 0, errors.Errorf("cannot evaluate %T", e)
}

func finite(op string, arg, r float64) (float64, error) {
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, &DomainError{Func: op, Arg: arg}
	}
	return r, nil
}

// realPow takes the real branch of odd roots, so (-8)**(1/3) is -2.
func realPow(b float64, e *Num) float64 {
	ev := e.Float64()
	if b < 0 && !e.IsInteger() && e.val.Denom().Bit(0) == 1 {
		r := math.Pow(-b, ev)
		if new(big.Int).Abs(e.val.Num()).Bit(0) == 1 {
			return -r
		}
		return r
	}
	return math.Pow(b, ev)
}

func applyFunc(name string, a float64) (float64, error) {
	var r float64
	switch name {
	case "sin":
		r = math.Sin(a)
	case "cos":
		r = math.Cos(a)
	case "tan":
		r = math.Tan(a)
	case "cot":
		r = 1 / math.Tan(a)
	case "sec":
		r = 1 / math.Cos(a)
	case "csc":
		r = 1 / math.Sin(a)
	case "exp":
		r = math.Exp(a)
	case "ln":
		if a <= 0 {
			return 0, &DomainError{Func: name, Arg: a}
		}
		r = math.Log(a)
	case "asin", "acos":
		if a < -1 || a > 1 {
			return 0, &DomainError{Func: name, Arg: a}
		}
		if name == "asin" {
			r = math.Asin(a)
		} else {
			r = math.Acos(a)
		}
	case "atan":
		r = math.Atan(a)
	case "acot":
		if a == 0 {
			r = math.Pi / 2
		} else {
			r = math.Atan(1 / a)
		}
	case "asec", "acsc":
		if a > -1 && a < 1 {
			return 0, &DomainError{Func: name, Arg: a}
		}
		if name == "asec" {
			r = math.Acos(1 / a)
		} else {
			r = math.Asin(1 / a)
		}
	case "sinh":
		r = math.Sinh(a)
	case "cosh":
		r = math.Cosh(a)
	case "tanh":
		r = math.Tanh(a)
	case "abs":
		r = math.Abs(a)
	case "sign":
		switch {
		case a > 0:
			r = 1
		case a < 0:
			r = -1
		}
	case "floor":
		r = math.Floor(a)
	case "ceil":
		r = math.Ceil(a)
	default:
		return 0, errors.Errorf("unknown function %q", name)
	}
	return finite(name, a, r)
}
