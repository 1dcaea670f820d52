package usecase

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"voicedesk/internal/domain"
	"voicedesk/internal/ports"
)

// Config controls recording behavior.
type Config struct {
	Audio          ports.AudioConfig
	Streaming      ports.StreamingConfig
	ChunkDuration  time.Duration
	ReadBufferSize int
}

// Recorder orchestrates microphone capture and streaming transcription.
//
// It owns RecorderState exclusively: capture and session goroutines report
// through channels and callbacks, never by touching state directly. At most
// one capture session and one streaming session exist at a time; starting
// while active tears the previous attempt down first.
type Recorder struct {
	audio    ports.AudioCapture
	provider ports.TranscriptionProvider
	events   ports.EventSink
	logger   *log.Logger
	cfg      Config

	mu          sync.Mutex
	state       domain.RecorderState
	current     *activeRecording
	connecting  bool
	pendingStop bool
}

type activeRecording struct {
	id         string
	cancel     context.CancelFunc
	audio      ports.AudioSession
	stream     ports.StreamingSession
	audioDone  chan struct{}
	eventsDone chan struct{}
}

func NewRecorder(
	audio ports.AudioCapture,
	provider ports.TranscriptionProvider,
	events ports.EventSink,
	logger *log.Logger,
	cfg Config,
) *Recorder {
	if cfg.ChunkDuration <= 0 {
		cfg.ChunkDuration = 100 * time.Millisecond
	}
	if cfg.ReadBufferSize < 256 {
		cfg.ReadBufferSize = 4096
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Recorder{
		audio:    audio,
		provider: provider,
		events:   events,
		logger:   logger,
		cfg:      cfg,
	}
}

// Toggle starts or stops recording based on the current state.
func (r *Recorder) Toggle(ctx context.Context) error {
	if r.State().IsRecording {
		return r.Stop()
	}
	return r.Start(ctx)
}

// Start begins a new recording attempt. The streaming session must reach
// Open before any audio is forwarded, so the session is established first
// and the microphone only afterwards. Any failure settles the recorder back
// to a clean idle state with LastError set.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.connecting {
		r.mu.Unlock()
		return nil
	}
	previous := r.current
	r.current = nil
	r.connecting = true
	r.pendingStop = false
	attempt := uuid.NewString()
	r.state.IsConnecting = true
	r.state.IsRecording = false
	r.state.LastError = ""
	r.state.AttemptID = attempt
	snap := r.state
	r.mu.Unlock()

	r.events.RecorderStateChanged(snap)

	if previous != nil {
		r.teardown(previous)
	}

	sessionCtx, cancel := context.WithCancel(ctx)

	stream, err := r.provider.StartStreaming(sessionCtx, r.cfg.Streaming)
	if err != nil {
		cancel()
		return r.failStart(err, domain.ErrorNetwork)
	}

	// A stop issued while connect was in flight must still close the
	// session now that it is open; losing it would orphan a live stream.
	r.mu.Lock()
	if r.pendingStop {
		r.pendingStop = false
		r.connecting = false
		r.state.IsConnecting = false
		snap = r.state
		r.mu.Unlock()
		_ = stream.Close()
		cancel()
		r.events.RecorderStateChanged(snap)
		return nil
	}
	r.mu.Unlock()

	mic, err := r.audio.Start(sessionCtx, r.cfg.Audio)
	if err != nil {
		_ = stream.Close()
		cancel()
		return r.failStart(err, domain.ErrorDevice)
	}

	active := &activeRecording{
		id:         attempt,
		cancel:     cancel,
		audio:      mic,
		stream:     stream,
		audioDone:  make(chan struct{}),
		eventsDone: make(chan struct{}),
	}

	r.mu.Lock()
	// A stop can also land while the microphone is being acquired; check
	// again before activating, or the attempt would outlive the stop.
	if r.pendingStop {
		r.pendingStop = false
		r.connecting = false
		r.state.IsConnecting = false
		snap = r.state
		r.mu.Unlock()
		_ = mic.Stop()
		_ = stream.Close()
		cancel()
		r.events.RecorderStateChanged(snap)
		return nil
	}
	r.current = active
	r.connecting = false
	r.state.IsConnecting = false
	r.state.IsRecording = true
	snap = r.state
	r.mu.Unlock()

	go r.consumeTranscripts(active)
	go r.pumpAudio(active)

	r.logger.Printf("recorder: attempt %s recording", attempt)
	r.events.RecorderStateChanged(snap)
	return nil
}

// Stop ends the active recording. The microphone is released before the
// session is closed so no fresh capture can race a half-closed stream.
// Calling Stop with nothing active is a no-op.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	if r.connecting {
		r.pendingStop = true
		r.state.IsConnecting = false
		r.state.IsRecording = false
		snap := r.state
		r.mu.Unlock()
		r.events.RecorderStateChanged(snap)
		return nil
	}

	active := r.current
	r.current = nil
	if active == nil {
		r.mu.Unlock()
		return nil
	}
	r.state.IsRecording = false
	snap := r.state
	r.mu.Unlock()

	r.events.RecorderStateChanged(snap)

	if err := active.audio.Stop(); err != nil {
		r.events.RecorderError(domain.ErrorTransport, "failed to release microphone cleanly: "+err.Error())
	}
	<-active.audioDone

	_ = active.stream.Close()
	// Drain remaining transcript events before returning: a final that
	// arrived in the same tick as the close still lands in state.
	<-active.eventsDone
	active.cancel()

	r.logger.Printf("recorder: attempt %s stopped", active.id)
	return nil
}

// State returns a snapshot of the recorder state.
func (r *Recorder) State() domain.RecorderState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// TakeTranscript returns the accumulated transcript and clears it; used when
// the text is handed off to the chat input.
func (r *Recorder) TakeTranscript() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	text := r.state.TranscribedText
	r.state.TranscribedText = ""
	r.state.PartialText = ""
	return text
}

func (r *Recorder) failStart(err error, fallback domain.ErrorKind) error {
	kind := domain.KindOf(err, fallback)

	r.mu.Lock()
	r.connecting = false
	r.pendingStop = false
	r.state.IsConnecting = false
	r.state.IsRecording = false
	r.state.LastError = err.Error()
	snap := r.state
	r.mu.Unlock()

	r.events.RecorderError(kind, err.Error())
	r.events.RecorderStateChanged(snap)
	return err
}

func (r *Recorder) teardown(active *activeRecording) {
	active.cancel()
	_ = active.audio.Stop()
	_ = active.stream.Close()
	<-active.audioDone
	<-active.eventsDone
}

func (r *Recorder) consumeTranscripts(active *activeRecording) {
	defer close(active.eventsDone)

	for event := range active.stream.Events() {
		switch event.Kind {
		case domain.TranscriptPartial:
			r.mu.Lock()
			r.state.PartialText = event.Text
			r.mu.Unlock()
			r.events.PartialTranscript(event.Text)
		case domain.TranscriptFinal:
			r.mu.Lock()
			r.state.TranscribedText = mergeFinal(r.state.TranscribedText, event.Text)
			r.state.PartialText = ""
			r.mu.Unlock()
			r.events.FinalTranscript(event.Text)
		}
	}

	if err := active.stream.Wait(); err != nil {
		r.events.RecorderError(domain.KindOf(err, domain.ErrorNetwork), err.Error())
		go r.stopFailed(active, err)
	}
}

// stopFailed tears down a recording whose session died underneath it. The
// attempt is fatal; the user retries manually.
func (r *Recorder) stopFailed(active *activeRecording, cause error) {
	r.mu.Lock()
	if r.current != active {
		r.mu.Unlock()
		return
	}
	r.current = nil
	r.state.IsRecording = false
	r.state.LastError = cause.Error()
	snap := r.state
	r.mu.Unlock()

	_ = active.audio.Stop()
	<-active.audioDone
	active.cancel()

	r.logger.Printf("recorder: attempt %s failed: %v", active.id, cause)
	r.events.RecorderStateChanged(snap)
}
