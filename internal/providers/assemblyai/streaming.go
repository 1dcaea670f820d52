package assemblyai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"voicedesk/internal/domain"
	"voicedesk/internal/ports"
)

// Config controls the AssemblyAI realtime endpoint.
type Config struct {
	APIBaseURL string
}

// Provider implements ports.TranscriptionProvider against AssemblyAI's
// realtime websocket. Every StartStreaming call fetches a fresh short-lived
// token from the configured TokenProvider; tokens are never reused.
type Provider struct {
	cfg    Config
	tokens ports.TokenProvider
	logger *log.Logger
}

func NewProvider(cfg Config, tokens ports.TokenProvider, logger *log.Logger) *Provider {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultAPIBase
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Provider{cfg: cfg, tokens: tokens, logger: logger}
}

func (p *Provider) StartStreaming(ctx context.Context, cfg ports.StreamingConfig) (ports.StreamingSession, error) {
	token, err := p.tokens.Token(ctx)
	if err != nil {
		return nil, domain.NewError(domain.ErrorAuth, fmt.Errorf("failed to obtain realtime token: %w", err))
	}

	wsURL, err := buildRealtimeURL(p.cfg.APIBaseURL, cfg, token.Token)
	if err != nil {
		return nil, domain.NewError(domain.ErrorNetwork, err)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, domain.NewError(domain.ErrorNetwork, fmt.Errorf("failed to connect to AssemblyAI websocket: %w", err))
	}

	session := &streamingSession{
		conn:   conn,
		cfg:    cfg,
		logger: p.logger,
		state:  domain.SessionOpen,
		events: make(chan domain.TranscriptEvent, 64),
		audio:  make(chan []byte, 32),
		ctrl:   make(chan []byte, 4),
		done:   make(chan struct{}),
	}

	session.wg.Add(2)
	go session.readLoop()
	go session.writeLoop()
	go func() {
		session.wg.Wait()
		session.setState(domain.SessionClosed)
		close(session.events)
		close(session.done)
		_ = conn.Close()
	}()

	go func() {
		<-ctx.Done()
		_ = session.Close()
	}()

	return session, nil
}

type streamingSession struct {
	conn   *websocket.Conn
	cfg    ports.StreamingConfig
	logger *log.Logger

	events chan domain.TranscriptEvent
	audio  chan []byte
	ctrl   chan []byte
	done   chan struct{}

	wg sync.WaitGroup

	stateMu sync.Mutex
	state   domain.SessionState

	errMu          sync.Mutex
	err            error
	closeRequested bool

	closeSendOnce sync.Once
	closeOnce     sync.Once
	sendMu        sync.RWMutex
	sendClosed    bool
}

// SendAudio forwards one chunk. Outside the Open/Streaming states the chunk
// is dropped with a warning rather than an error: capture callbacks may race
// a teardown by a few chunks, and that must not crash the pipeline.
func (s *streamingSession) SendAudio(chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}

	s.sendMu.RLock()
	closed := s.sendClosed
	s.sendMu.RUnlock()
	if closed {
		s.logger.Printf("assemblyai: dropping %d-byte chunk, session is %s", len(chunk), s.State())
		return nil
	}

	copied := append([]byte(nil), chunk...)
	select {
	case s.audio <- copied:
		s.markStreaming()
		return nil
	case <-s.done:
		s.logger.Printf("assemblyai: dropping %d-byte chunk, session is %s", len(chunk), s.State())
		return nil
	}
}

// CloseSend initiates a graceful close: buffered audio drains, the terminate
// handshake is sent, and the session stays open for trailing transcripts
// until the server confirms termination.
func (s *streamingSession) CloseSend() error {
	s.closeSendOnce.Do(func() {
		s.setState(domain.SessionClosing)
		s.sendMu.Lock()
		s.sendClosed = true
		close(s.audio)
		s.sendMu.Unlock()
	})
	return nil
}

func (s *streamingSession) Events() <-chan domain.TranscriptEvent {
	return s.events
}

func (s *streamingSession) State() domain.SessionState {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.state
}

func (s *streamingSession) Wait() error {
	<-s.done
	return s.waitErr()
}

// Close force-closes the connection, discarding unsent audio. Transcripts
// already received are still delivered before Events closes.
func (s *streamingSession) Close() error {
	s.closeOnce.Do(func() {
		// Read and write errors from tearing the connection down under the
		// loops are not session failures.
		s.errMu.Lock()
		s.closeRequested = true
		s.errMu.Unlock()
		_ = s.CloseSend()
		_ = s.conn.Close()
	})
	<-s.done
	return s.waitErr()
}

func (s *streamingSession) setState(state domain.SessionState) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if s.state == domain.SessionErrored {
		return
	}
	if s.state == domain.SessionClosed && state != domain.SessionErrored {
		return
	}
	s.state = state
}

func (s *streamingSession) markStreaming() {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if s.state == domain.SessionOpen {
		s.state = domain.SessionStreaming
	}
}

func (s *streamingSession) waitErr() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *streamingSession) setErr(err error) {
	if err == nil {
		return
	}
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	) {
		return
	}

	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.closeRequested {
		return
	}
	if s.err == nil {
		s.err = err
		s.stateMu.Lock()
		s.state = domain.SessionErrored
		s.stateMu.Unlock()
	}
}

func (s *streamingSession) writeLoop() {
	defer s.wg.Done()

	for {
		select {
		case msg := <-s.ctrl:
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.setErr(fmt.Errorf("failed to send session config: %w", err))
				return
			}
		case chunk, ok := <-s.audio:
			if !ok {
				if err := s.conn.WriteMessage(websocket.TextMessage, []byte(`{"terminate_session":true}`)); err != nil {
					s.setErr(fmt.Errorf("failed to terminate stream: %w", err))
				}
				return
			}
			if err := s.conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
				s.setErr(fmt.Errorf("failed to send audio: %w", err))
				return
			}
		}
	}
}

func (s *streamingSession) readLoop() {
	defer s.wg.Done()

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			s.setErr(fmt.Errorf("failed to read provider event: %w", err))
			return
		}

		var msg realtimeMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.logger.Printf("assemblyai: skipping malformed frame: %v", err)
			continue
		}

		switch msg.MessageType {
		case "SessionBegins":
			s.logger.Printf("assemblyai: session opened id=%s", msg.SessionID)
			if s.cfg.EndUtteranceSilenceMs > 0 {
				s.sendConfig(fmt.Sprintf(`{"end_utterance_silence_threshold":%d}`, s.cfg.EndUtteranceSilenceMs))
			}
		case "PartialTranscript":
			if text := strings.TrimSpace(msg.Text); text != "" {
				s.emit(domain.TranscriptEvent{Kind: domain.TranscriptPartial, Text: text})
			}
		case "FinalTranscript":
			if text := strings.TrimSpace(msg.Text); text != "" {
				s.emit(domain.TranscriptEvent{Kind: domain.TranscriptFinal, Text: text})
			}
		case "SessionTerminated":
			return
		default:
			// A frame-level error is a warning, not a session failure;
			// fatal conditions arrive as a websocket close.
			if msg.Error != "" {
				s.logger.Printf("assemblyai: transport warning: %s", msg.Error)
			}
		}
	}
}

func (s *streamingSession) sendConfig(msg string) {
	select {
	case s.ctrl <- []byte(msg):
	case <-s.done:
	default:
		s.logger.Printf("assemblyai: dropping session config update")
	}
}

func (s *streamingSession) emit(event domain.TranscriptEvent) {
	select {
	case s.events <- event:
	case <-s.done:
	default:
	}
}

type realtimeMessage struct {
	MessageType string `json:"message_type"`
	SessionID   string `json:"session_id"`
	Text        string `json:"text"`
	Error       string `json:"error"`
}

func buildRealtimeURL(base string, cfg ports.StreamingConfig, token string) (string, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		base = defaultAPIBase
	}
	if strings.HasPrefix(base, "https://") {
		base = "wss://" + strings.TrimPrefix(base, "https://")
	} else if strings.HasPrefix(base, "http://") {
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	base = strings.TrimRight(base, "/")

	realtimeURL, err := url.Parse(base + "/v2/realtime/ws")
	if err != nil {
		return "", fmt.Errorf("invalid AssemblyAI base URL: %w", err)
	}

	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Encoding == "" {
		cfg.Encoding = "pcm_s16le"
	}

	query := realtimeURL.Query()
	query.Set("sample_rate", strconv.Itoa(cfg.SampleRate))
	query.Set("encoding", cfg.Encoding)
	query.Set("token", token)
	realtimeURL.RawQuery = query.Encode()
	return realtimeURL.String(), nil
}
