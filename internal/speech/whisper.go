package speech

import (
	"bytes"
	"context"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/pkg/errors"
)

// Whisper transcribes audio with the OpenAI transcription endpoint.
type Whisper struct {
	client openai.Client
	model  string
}

// NewWhisper builds a transcriber for apiKey. An empty model means
// whisper-1.
func NewWhisper(apiKey, baseURL, model string) *Whisper {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if model = strings.TrimSpace(model); model == "" {
		model = "whisper-1"
	}
	return &Whisper{client: openai.NewClient(opts...), model: model}
}

func (w *Whisper) Transcribe(ctx context.Context, audio Audio) (string, error) {
	name, ctype := audio.Filename, audio.ContentType
	if name == "" {
		name = "speech.wav"
	}
	if ctype == "" {
		ctype = "audio/wav"
	}
	resp, err := w.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:     openai.File(bytes.NewReader(audio.Data), name, ctype),
		Model:    openai.AudioModel(w.model),
		Language: openai.String("en"),
	})
	if err != nil {
		return "", errors.Wrap(err, "whisper")
	}
	return strings.TrimSpace(resp.Text), nil
}
