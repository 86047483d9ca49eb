// Package mathtext rewrites spoken phrases, OCR glyphs and free-form
// notation into the canonical expression grammar.
//
// Rewriting is literal substring replacement driven by a fixed priority
// table. Known limitations:
//
//   - A word that merely contains a phrase is rewritten too: "cover"
//     becomes "c/" because of the "over" entry.
//   - Function openers leave their "(" unclosed. Sanitize appends one ")"
//     when "(" outnumbers ")"; nested or multiple unclosed calls are not
//     balanced.
package mathtext

import (
	"strings"
	"unicode"
)

// Rule is one literal rewrite.
type Rule struct {
	Phrase      string
	Replacement string
}

// Phrases is applied in order, one full replacement pass per entry. An entry
// must never be a substring of a later entry, otherwise it would consume
// part of the longer phrase first.
var Phrases = []Rule{
	// Function openers.
	{"arc cosecant of", "acsc("},
	{"arc secant of", "asec("},
	{"arc cotangent of", "acot("},
	{"arc tangent of", "atan("},
	{"arc cosine of", "acos("},
	{"arc sine of", "asin("},
	{"cosecant of", "csc("},
	{"secant of", "sec("},
	{"cotangent of", "cot("},
	{"tangent of", "tan("},
	{"cosine of", "cos("},
	{"sine of", "sin("},
	{"sin of", "sin("},
	{"cos of", "cos("},
	{"tan of", "tan("},
	{"cot of", "cot("},
	{"sec of", "sec("},
	{"csc of", "csc("},
	{"square root of", "sqrt("},
	{"squareroot of", "sqrt("},
	{"cube root of", "cbrt("},
	{"cuberoot of", "cbrt("},
	{"natural log of", "ln("},
	{"logarithm of", "log("},
	{"log of", "log("},
	{"ln of", "ln("},
	{"e to the power of", "exp("},
	{"exponential of", "exp("},
	{"exponent of", "exp("},
	{"absolute value of", "abs("},

	// Binary operators.
	{"multiplied by", "*"},
	{"times", "*"},
	{"divided by", "/"},
	{"divide by", "/"},
	{"over", "/"},
	{"raised to the power of", "**"},
	{"to the power of", "**"},
	{"power of", "**"},
	{"raised to", "**"},
	{"squared", "**2"},
	{"cubed", "**3"},
	{"plus", "+"},
	{"minus", "-"},
}

// glyphs covers notation symbols and characters OCR engines commonly emit.
var glyphs = strings.NewReplacer(
	"√", "sqrt(",
	"∛", "cbrt(",
	"^", "**",
	"×", "*",
	"·", "*",
	"∗", "*",
	"÷", "/",
	"∕", "/",
	"−", "-",
	"–", "-",
	"—", "-",
	"²", "**2",
	"³", "**3",
	"π", "pi",
)

// Normalize rewrites raw text toward the canonical grammar. It is total and
// deterministic and leaves canonical input unchanged. The result may still
// hold unclosed function openers; see Sanitize.
func Normalize(raw string) string {
	s := strings.ToLower(raw)
	for _, r := range Phrases {
		s = strings.ReplaceAll(s, r.Phrase, r.Replacement)
	}
	s = glyphs.Replace(s)
	s = stripSpace(s)
	return insertProducts(s)
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// insertProducts makes juxtaposition explicit: a digit or ")" followed by a
// letter or "(" gets a "*" between them, so "2x" becomes "2*x".
func insertProducts(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)
	var prev rune
	for i, r := range s {
		if i > 0 && (unicode.IsDigit(prev) || prev == ')') && (unicode.IsLetter(r) || r == '(') {
			b.WriteByte('*')
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}
