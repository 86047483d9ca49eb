// Package input captures where an expression came from before it enters the
// normalization pipeline.
package input

import (
	"strings"

	"github.com/pkg/errors"
)

// Source identifies the channel an expression arrived through.
type Source int

const (
	SourceTyped Source = iota
	SourceOCR
	SourceSpoken
)

var sourceNames = map[Source]string{
	SourceTyped:  "typed",
	SourceOCR:    "ocr",
	SourceSpoken: "spoken",
}

func (s Source) String() string {
	if name, ok := sourceNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseSource maps "typed", "ocr" or "spoken" (any case) to a Source. The
// empty string means typed input.
func ParseSource(name string) (Source, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return SourceTyped, nil
	}
	for s, n := range sourceNames {
		if n == name {
			return s, nil
		}
	}
	return SourceTyped, errors.Errorf("unknown input source %q", name)
}

// sentenceEnd is trimmed from the end of spoken transcripts.
const sentenceEnd = ".,?! "

// Raw is an expression exactly as captured. It is a value type and never
// modified after construction.
type Raw struct {
	Source Source
	Text   string
}

func Typed(text string) Raw  { return Raw{Source: SourceTyped, Text: text} }
func OCR(text string) Raw    { return Raw{Source: SourceOCR, Text: text} }
func Spoken(text string) Raw { return Raw{Source: SourceSpoken, Text: text} }

// Candidate applies the cleanup each channel needs before phrase
// normalization. OCR output loses its line breaks. Spoken transcripts are
// lowercased and lose the sentence punctuation transcription adds at the end.
func (r Raw) Candidate() string {
	switch r.Source {
	case SourceOCR:
		s := strings.TrimSpace(r.Text)
		s = strings.ReplaceAll(s, "\r", "")
		return strings.ReplaceAll(s, "\n", "")
	case SourceSpoken:
		s := strings.TrimRight(strings.TrimSpace(r.Text), sentenceEnd)
		return strings.ToLower(strings.TrimSpace(s))
	}
	return r.Text
}
