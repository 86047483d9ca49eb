package narrate

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandNarratorBusy(t *testing.T) {
	n := NewCommandNarrator("sh", 0)
	assert.Equal(t, DefaultRate, n.Rate)

	n.mu.Lock()
	err := n.Speak(context.Background(), "hello")
	n.mu.Unlock()
	assert.ErrorIs(t, err, ErrBusy)
}

func TestCommandNarratorRunsCommand(t *testing.T) {
	// "true" ignores its arguments.
	n := NewCommandNarrator("true", 200)
	require.NoError(t, n.Speak(context.Background(), "The total bounded area is approximately 1.00."))

	n = NewCommandNarrator("false", 0)
	err := n.Speak(context.Background(), "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrBusy)

	// The engine is released after a failure.
	n.Command = "true"
	assert.NoError(t, n.Speak(context.Background(), "x"))
}

func TestAnnouncerLogsFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"busy", ErrBusy, `"level":"warn"`},
		{"other", errors.New("no audio device"), "no audio device"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := zerolog.New(&buf)
			ctx := logger.WithContext(context.Background())

			a := &Announcer{Narrator: NarratorFunc(func(context.Context, string) error { return tt.err })}
			a.Announce(ctx, "hello")
			a.Wait()
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestAnnounceDoesNotBlock(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	var spoken []string
	a := &Announcer{Narrator: NarratorFunc(func(_ context.Context, text string) error {
		<-release
		mu.Lock()
		spoken = append(spoken, text)
		mu.Unlock()
		return nil
	})}

	done := make(chan struct{})
	go func() {
		a.Announce(context.Background(), "first")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Announce blocked on the narrator")
	}

	close(release)
	a.Wait()
	assert.Equal(t, []string{"first"}, spoken)
}

func TestAnnounceSkipsEmpty(t *testing.T) {
	called := false
	a := &Announcer{Narrator: NarratorFunc(func(context.Context, string) error { called = true; return nil })}
	a.Announce(context.Background(), "  ")
	a.Wait()
	assert.False(t, called)

	var nilAnnouncer *Announcer
	nilAnnouncer.Announce(context.Background(), "x")
	nilAnnouncer.Wait()
}

func TestAnnounceSurvivesCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var got error
	a := &Announcer{Narrator: NarratorFunc(func(ctx context.Context, _ string) error {
		got = ctx.Err()
		return nil
	})}
	cancel()
	a.Announce(ctx, "x")
	a.Wait()
	assert.NoError(t, got)
}
