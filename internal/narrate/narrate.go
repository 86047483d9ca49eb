// Package narrate speaks result summaries aloud. Narration never affects a
// result: failures are logged and dropped.
package narrate

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// DefaultRate is the speaking rate in words per minute.
const DefaultRate = 170

// ErrBusy means the speech engine is already in use.
var ErrBusy = errors.New("speech engine busy")

// Narrator speaks text and returns once speech has finished.
type Narrator interface {
	Speak(ctx context.Context, text string) error
}

// NarratorFunc adapts a function to Narrator.
type NarratorFunc func(ctx context.Context, text string) error

func (f NarratorFunc) Speak(ctx context.Context, text string) error { return f(ctx, text) }

// Silent discards everything.
var Silent Narrator = NarratorFunc(func(context.Context, string) error { return nil })

// CommandNarrator drives a text-to-speech program such as espeak. The
// engine is held for the whole utterance; a concurrent Speak gets ErrBusy
// instead of queueing.
type CommandNarrator struct {
	Command string
	Rate    int

	mu sync.Mutex
}

// NewCommandNarrator defaults to espeak at DefaultRate.
func NewCommandNarrator(command string, rate int) *CommandNarrator {
	if command == "" {
		command = "espeak"
	}
	if rate <= 0 {
		rate = DefaultRate
	}
	return &CommandNarrator{Command: command, Rate: rate}
}

func (n *CommandNarrator) Speak(ctx context.Context, text string) error {
	if !n.mu.TryLock() {
		return ErrBusy
	}
	defer n.mu.Unlock()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, n.Command, "-s", strconv.Itoa(n.Rate), text)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return errors.Wrapf(err, "%s: %s", n.Command, msg)
		}
		return errors.Wrap(err, n.Command)
	}
	return nil
}

// Announcer speaks in the background.
type Announcer struct {
	Narrator Narrator

	wg sync.WaitGroup
}

// Announce starts speaking text and returns immediately. The logger in ctx
// receives a warning when the engine is busy and an error for any other
// failure. Cancelling ctx does not stop the utterance.
func (a *Announcer) Announce(ctx context.Context, text string) {
	if a == nil || a.Narrator == nil || strings.TrimSpace(text) == "" {
		return
	}
	ctx = context.WithoutCancel(ctx)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		log := zerolog.Ctx(ctx)
		err := a.Narrator.Speak(ctx, text)
		switch {
		case err == nil:
		case errors.Is(err, ErrBusy):
			log.Warn().Msg("Speech engine was busy, skipping voice output")
		default:
			log.Error().Err(err).Msg("speech error")
		}
	}()
}

// Wait blocks until every started announcement has finished.
func (a *Announcer) Wait() {
	if a != nil {
		a.wg.Wait()
	}
}
