package domain

import "errors"

// SessionState models the transcription session lifecycle.
type SessionState string

const (
	SessionIdle       SessionState = "idle"
	SessionConnecting SessionState = "connecting"
	SessionOpen       SessionState = "open"
	SessionStreaming  SessionState = "streaming"
	SessionClosing    SessionState = "closing"
	SessionClosed     SessionState = "closed"
	SessionErrored    SessionState = "errored"
)

// ErrorKind classifies recorder-visible failures.
type ErrorKind string

const (
	ErrorDevice    ErrorKind = "device"
	ErrorAuth      ErrorKind = "auth"
	ErrorNetwork   ErrorKind = "network"
	ErrorTransport ErrorKind = "transport_warning"
)

// Error attaches an ErrorKind to an underlying failure so the recorder can
// classify provider and capture errors without string matching.
type Error struct {
	Kind ErrorKind
	Err  error
}

func NewError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the ErrorKind from err, falling back when err carries none.
func KindOf(err error, fallback ErrorKind) ErrorKind {
	var kinded *Error
	if errors.As(err, &kinded) {
		return kinded.Kind
	}
	return fallback
}

// TranscriptKind identifies whether a stream event is partial or final text.
type TranscriptKind string

const (
	TranscriptPartial TranscriptKind = "partial"
	TranscriptFinal   TranscriptKind = "final"
)

// TranscriptEvent is a tagged recognition result for the current utterance.
// A partial supersedes prior partials; a final closes the utterance.
type TranscriptEvent struct {
	Kind TranscriptKind `json:"kind"`
	Text string         `json:"text"`
}

// RealtimeToken is a short-lived credential for one streaming session.
// Tokens are single-use: a session never reuses a previous attempt's token.
type RealtimeToken struct {
	Token            string `json:"token"`
	ExpiresInSeconds int    `json:"expiresInSeconds"`
}

// RecorderState is the recorder snapshot exposed to the front-end.
type RecorderState struct {
	IsRecording     bool   `json:"isRecording"`
	IsConnecting    bool   `json:"isConnecting"`
	PartialText     string `json:"partialText"`
	TranscribedText string `json:"transcribedText"`
	LastError       string `json:"lastError,omitempty"`
	AttemptID       string `json:"attemptId,omitempty"`
}
