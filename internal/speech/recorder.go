package speech

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// DefaultRecordArgs capture five seconds of 16 kHz mono WAV on stdout.
var DefaultRecordArgs = []string{"-q", "-f", "S16_LE", "-r", "16000", "-c", "1", "-d", "5", "-t", "wav", "-"}

// CommandRecorder runs an external capture program and takes its stdout as
// WAV audio.
type CommandRecorder struct {
	Command string
	Args    []string
	Timeout time.Duration
}

// NewCommandRecorder defaults to arecord with DefaultRecordArgs.
func NewCommandRecorder(command string, args ...string) *CommandRecorder {
	if command == "" {
		command = "arecord"
	}
	if len(args) == 0 {
		args = DefaultRecordArgs
	}
	return &CommandRecorder{Command: command, Args: args, Timeout: 15 * time.Second}
}

func (r *CommandRecorder) Record(ctx context.Context) (Audio, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.Command, r.Args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return Audio{}, errors.Wrapf(err, "%s: %s", r.Command, msg)
		}
		return Audio{}, errors.Wrap(err, r.Command)
	}
	return Audio{Data: stdout.Bytes(), Filename: "speech.wav", ContentType: "audio/wav"}, nil
}

// FileRecorder replays a recorded file.
type FileRecorder struct {
	Path string
}

func (r FileRecorder) Record(context.Context) (Audio, error) {
	data, err := os.ReadFile(r.Path)
	if err != nil {
		return Audio{}, errors.Wrap(err, "read recording")
	}
	return Audio{Data: data, Filename: filepath.Base(r.Path), ContentType: contentType(r.Path)}, nil
}

func contentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return "audio/mpeg"
	case ".m4a":
		return "audio/mp4"
	case ".ogg":
		return "audio/ogg"
	case ".flac":
		return "audio/flac"
	case ".webm":
		return "audio/webm"
	}
	return "audio/wav"
}
