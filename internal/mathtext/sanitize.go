package mathtext

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/njchilds90/integrand/symbolic"
)

// ErrEmptyExpression is returned when nothing is left to parse.
var ErrEmptyExpression = errors.New("expression is empty")

// Text is sanitized expression text: non-empty and free of whitespace. Only
// Sanitize produces it.
type Text struct{ s string }

func (t Text) String() string { return t.s }

var opener = regexp.MustCompile(`[a-z]+\(`)

// Sanitize strips whitespace, rejects empty input and closes a trailing
// function opener: when the text holds a known "name(" and has more "(" than
// ")", exactly one ")" is appended. Deeper nesting is left unbalanced.
func Sanitize(candidate string) (Text, error) {
	s := stripSpace(candidate)
	if s == "" {
		return Text{}, ErrEmptyExpression
	}
	if hasOpener(s) && strings.Count(s, "(") > strings.Count(s, ")") {
		s += ")"
	}
	return Text{s: s}, nil
}

func hasOpener(s string) bool {
	for _, m := range opener.FindAllString(s, -1) {
		if symbolic.IsFunctionName(strings.TrimSuffix(m, "(")) {
			return true
		}
	}
	return false
}

// Canonicalize runs Normalize then Sanitize.
func Canonicalize(raw string) (Text, error) {
	return Sanitize(Normalize(raw))
}
