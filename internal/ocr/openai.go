package ocr

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/pkg/errors"
)

// DefaultOpenAIModel is used when NewOpenAI gets no model.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAI reads images with a vision-capable chat completion model.
type OpenAI struct {
	client openai.Client
	model  string
}

// NewOpenAI builds an engine for apiKey. An empty baseURL means the public
// API.
func NewOpenAI(apiKey, baseURL, model string) *OpenAI {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if model = strings.TrimSpace(model); model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAI{client: openai.NewClient(opts...), model: model}
}

func (o *OpenAI) ExtractText(ctx context.Context, image []byte) (string, error) {
	mime, err := MIMEType(image)
	if err != nil {
		return "", err
	}
	dataURL := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(image)

	msg := openai.ChatCompletionMessageParamUnion{
		OfUser: &openai.ChatCompletionUserMessageParam{
			Content: openai.ChatCompletionUserMessageParamContentUnion{
				OfArrayOfContentParts: []openai.ChatCompletionContentPartUnionParam{
					{OfText: &openai.ChatCompletionContentPartTextParam{Text: Prompt}},
					{OfImageURL: &openai.ChatCompletionContentPartImageParam{
						ImageURL: openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL, Detail: "auto"},
					}},
				},
			},
		},
	}
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{msg},
	})
	if err != nil {
		return "", errors.Wrap(err, "openai ocr")
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return Clean(resp.Choices[0].Message.Content), nil
}
