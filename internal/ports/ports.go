package ports

import (
	"context"
	"io"

	"voicedesk/internal/domain"
)

// AudioConfig describes how the microphone should be captured.
type AudioConfig struct {
	SampleRate  int
	Channels    int
	Backend     string
	Command     string
	InputFormat string
	InputDevice string

	// Capture-side DSP constraints. Honored by backends that support them;
	// raw backends ignore what they cannot express.
	EchoCancellation bool
	NoiseSuppression bool
	AutoGainControl  bool
}

// AudioSession is a live capture session delivering s16le PCM bytes.
// Stop releases the underlying device and is idempotent; reads after Stop
// return io.EOF.
type AudioSession interface {
	io.ReadCloser
	Stop() error
}

// AudioCapture creates microphone capture sessions.
type AudioCapture interface {
	Start(ctx context.Context, cfg AudioConfig) (AudioSession, error)
}

// StreamingConfig describes provider-agnostic streaming settings.
type StreamingConfig struct {
	SampleRate            int
	Encoding              string
	EndUtteranceSilenceMs int
}

// StreamingSession is an active duplex transcription session.
//
// SendAudio outside the Open/Streaming states is a dropped no-op, not an
// error: audio callbacks may race slightly ahead of teardown. Events is
// closed only after every received transcript has been delivered, so a final
// transcript that raced a close is observed before the closure is.
type StreamingSession interface {
	SendAudio(chunk []byte) error
	CloseSend() error
	Events() <-chan domain.TranscriptEvent
	State() domain.SessionState
	Wait() error
	Close() error
}

// TranscriptionProvider starts streaming transcription sessions. Each call
// authenticates with a fresh short-lived token.
type TranscriptionProvider interface {
	StartStreaming(ctx context.Context, cfg StreamingConfig) (StreamingSession, error)
}

// TokenProvider supplies a short-lived streaming credential per session.
type TokenProvider interface {
	Token(ctx context.Context) (domain.RealtimeToken, error)
}

// TokenIssuer mints short-lived credentials using the long-lived provider
// secret. Only the token service side ever holds one.
type TokenIssuer interface {
	IssueToken(ctx context.Context, expiresInSeconds int) (domain.RealtimeToken, error)
}

// EventSink receives recorder state and transcript events for the front-end.
type EventSink interface {
	RecorderStateChanged(state domain.RecorderState)
	PartialTranscript(text string)
	FinalTranscript(text string)
	RecorderError(kind domain.ErrorKind, detail string)
}

// Assistant is the chat boundary: it accepts submitted text and streams the
// reply through onDelta, returning the full reply once complete.
type Assistant interface {
	Submit(ctx context.Context, input string, onDelta func(string)) (string, error)
}

// Extractor is the content/extraction boundary used by assistant tools.
type Extractor interface {
	Extract(ctx context.Context, prompt string) (string, error)
}
