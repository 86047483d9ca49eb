// Package speech captures a spoken expression and turns it into text.
package speech

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/njchilds90/integrand/internal/input"
)

// Status messages announced around a voice capture.
const (
	MsgListening    = "Listening..."
	MsgRecorded     = "Expression recorded successfully."
	MsgUnrecognized = "Sorry, I didn't catch that."
	MsgServiceError = "There was a problem with the recognition service."
)

// ErrSpeechUnrecognized means audio was captured but held no usable speech.
var ErrSpeechUnrecognized = errors.New("speech not recognized")

// SpeechServiceError wraps a failure of the recording device or the
// transcription service.
type SpeechServiceError struct {
	Op  string
	Err error
}

func (e *SpeechServiceError) Error() string {
	return fmt.Sprintf("speech service: %s: %v", e.Op, e.Err)
}

func (e *SpeechServiceError) Unwrap() error { return e.Err }

// Audio is one captured utterance.
type Audio struct {
	Data        []byte
	Filename    string
	ContentType string
}

// Recorder blocks until one utterance has been captured.
type Recorder interface {
	Record(ctx context.Context) (Audio, error)
}

// Transcriber converts audio to text. An empty result means no speech.
type Transcriber interface {
	Transcribe(ctx context.Context, audio Audio) (string, error)
}

// Listener runs one capture and transcription. Its errors end the voice
// flow only; callers fall back to typed input.
type Listener struct {
	Recorder    Recorder
	Transcriber Transcriber
}

// Listen returns the transcript as spoken input, or ErrSpeechUnrecognized,
// or a *SpeechServiceError.
func (l *Listener) Listen(ctx context.Context) (input.Raw, error) {
	log := zerolog.Ctx(ctx)

	audio, err := l.Recorder.Record(ctx)
	if err != nil {
		return input.Raw{}, &SpeechServiceError{Op: "record", Err: err}
	}
	if len(audio.Data) == 0 {
		return input.Raw{}, ErrSpeechUnrecognized
	}
	log.Debug().Int("bytes", len(audio.Data)).Msg("audio captured")

	text, err := l.Transcriber.Transcribe(ctx, audio)
	if err != nil {
		return input.Raw{}, &SpeechServiceError{Op: "transcribe", Err: err}
	}
	if strings.TrimSpace(text) == "" {
		return input.Raw{}, ErrSpeechUnrecognized
	}
	raw := input.Spoken(text)
	log.Info().Str("transcript", raw.Candidate()).Msg("speech recognized")
	return raw, nil
}

// Announcer voices status sentences. *narrate.Announcer satisfies it.
type Announcer interface {
	Announce(ctx context.Context, text string)
}

// ListenAloud is Listen with its status sentences passed to say and spoken
// through a, which may be nil. When a can Wait, the listening prompt is
// finished before recording starts so it is not captured.
func (l *Listener) ListenAloud(ctx context.Context, a Announcer, say func(string)) (input.Raw, error) {
	announce := func(msg string) {
		say(msg)
		if a != nil {
			a.Announce(ctx, msg)
		}
	}
	announce(MsgListening)
	if w, ok := a.(interface{ Wait() }); ok {
		w.Wait()
	}
	raw, err := l.Listen(ctx)
	announce(Message(err))
	return raw, err
}

// Message picks the status sentence for the outcome of Listen.
func Message(err error) string {
	var svc *SpeechServiceError
	switch {
	case err == nil:
		return MsgRecorded
	case errors.As(err, &svc):
		return MsgServiceError
	}
	return MsgUnrecognized
}
