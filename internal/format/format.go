// Package format renders a dispatch record as display LaTeX, a spoken
// sentence, or a plot bundle. Every function here is pure.
package format

import (
	"fmt"
	"math"
	"strconv"

	"github.com/njchilds90/integrand/internal/dispatch"
)

// Display returns the LaTeX statement of the result.
func Display(rec *dispatch.Record) string {
	switch rec.Mode {
	case dispatch.Indefinite:
		return `\int ` + rec.ExpressionLaTeX + `\,dx = ` + deref(rec.ValueLaTeX) + ` + C`
	case dispatch.DefiniteSigned:
		return limits(rec.Bounds) + ` ` + rec.ExpressionLaTeX + `\,dx = ` + deref(rec.ValueLaTeX)
	case dispatch.DefiniteAbsoluteArea:
		return limits(rec.Bounds) + ` \left|` + rec.ExpressionLaTeX + `\right|\,dx \approx ` + strconv.FormatFloat(numeric(rec), 'f', 4, 64)
	}
	return ""
}

// Spoken returns the sentence narrated after a successful solve.
func Spoken(rec *dispatch.Record) string {
	switch rec.Mode {
	case dispatch.DefiniteSigned:
		return fmt.Sprintf("The definite integral from %s to %s is approximately %.2f.",
			Number(rec.Bounds.Lower), Number(rec.Bounds.Upper), numeric(rec))
	case dispatch.DefiniteAbsoluteArea:
		return fmt.Sprintf("The total bounded area is approximately %.2f.", numeric(rec))
	}
	return "The indefinite integral has been computed successfully."
}

// Number prints a bound the way a person would say it: "2", "-0.5".
func Number(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func limits(b *dispatch.Bounds) string {
	if b == nil {
		return `\int`
	}
	return `\int_{` + Number(b.Lower) + `}^{` + Number(b.Upper) + `}`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func numeric(rec *dispatch.Record) float64 {
	if rec.Numeric == nil {
		return math.NaN()
	}
	return *rec.Numeric
}
