package ocr

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

// DefaultGeminiModel is used when Gemini.Model is empty.
const DefaultGeminiModel = "gemini-1.5-flash"

// Gemini reads images with a Google Gemini model. A client is opened per
// call.
type Gemini struct {
	APIKey string
	Model  string
}

func NewGemini(apiKey, model string) *Gemini {
	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultGeminiModel
	}
	return &Gemini{APIKey: strings.TrimSpace(apiKey), Model: model}
}

func (g *Gemini) ExtractText(ctx context.Context, image []byte) (string, error) {
	if g.APIKey == "" {
		return "", errors.New("gemini ocr: API key is empty")
	}
	mime, err := MIMEType(image)
	if err != nil {
		return "", err
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(g.APIKey))
	if err != nil {
		return "", errors.Wrap(err, "gemini ocr")
	}
	defer cl.Close()

	m := cl.GenerativeModel(g.Model)
	m.GenerationConfig = genai.GenerationConfig{Temperature: ptrFloat32(0)}

	resp, err := m.GenerateContent(ctx, genai.Text(Prompt), &genai.Blob{MIMEType: mime, Data: image})
	if err != nil {
		return "", errors.Wrap(err, "gemini ocr")
	}
	return Clean(firstText(resp)), nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
