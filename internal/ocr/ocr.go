// Package ocr extracts expression text from images through a vision model.
package ocr

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// Prompt asks the engine for the bare expression in the canonical grammar.
const Prompt = "Read the mathematical function of x in this image. " +
	"Reply with only the expression in plain text using + - * / ** and " +
	"function calls such as sin(x), ln(x), sqrt(x). No words, no LaTeX, no code fences."

// ErrUnsupportedImage is returned for bytes that are not a decodable image.
var ErrUnsupportedImage = errors.New("unsupported image format")

// Extractor returns whatever text an OCR engine reads in an image. The text
// may be empty or garbled; callers normalize it before parsing.
type Extractor interface {
	ExtractText(ctx context.Context, image []byte) (string, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(ctx context.Context, image []byte) (string, error)

func (f ExtractorFunc) ExtractText(ctx context.Context, image []byte) (string, error) {
	return f(ctx, image)
}

// Clean strips code fences and joins lines so the result is a single
// candidate expression.
func Clean(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
	return strings.TrimSpace(s)
}

// MIMEType sniffs the image type of b. Only types vision engines accept
// are reported; anything else is ErrUnsupportedImage.
func MIMEType(b []byte) (string, error) {
	mime := http.DetectContentType(b)
	switch mime {
	case "image/png", "image/jpeg", "image/webp", "image/gif":
		return mime, nil
	}
	return "", errors.Wrapf(ErrUnsupportedImage, "detected %s", mime)
}
