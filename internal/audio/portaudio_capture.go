package audio

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/gordonklaus/portaudio"

	"voicedesk/internal/ports"
)

// PortAudioCapture opens the default input device through PortAudio. Unlike
// the ffmpeg backend it needs no subprocess, but it also exposes no
// capture-side DSP, so the constraint flags in AudioConfig are ignored.
type PortAudioCapture struct{}

func NewPortAudioCapture() *PortAudioCapture {
	return &PortAudioCapture{}
}

func (c *PortAudioCapture) Start(_ context.Context, cfg ports.AudioConfig) (ports.AudioSession, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	// 20 ms native frames; the framer downstream re-cuts to the transport
	// chunk duration.
	frames := cfg.SampleRate / 50
	if frames < 64 {
		frames = 64
	}
	buffer := make([]int16, frames*cfg.Channels)

	stream, err := portaudio.OpenDefaultStream(cfg.Channels, 0, float64(cfg.SampleRate), frames, buffer)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to start input stream: %w", err)
	}

	return &portaudioSession{stream: stream, buffer: buffer}, nil
}

type portaudioSession struct {
	stream *portaudio.Stream
	buffer []int16

	mu      sync.Mutex
	pending []byte
	stopped bool

	stopOnce sync.Once
	stopErr  error
}

func (s *portaudioSession) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		if s.stopped {
			return 0, io.EOF
		}
		if err := s.stream.Read(); err != nil {
			return 0, err
		}
		s.pending = EncodeS16LE(s.buffer)
	}

	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

func (s *portaudioSession) Close() error {
	return s.Stop()
}

func (s *portaudioSession) Stop() error {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		s.mu.Unlock()

		if err := s.stream.Stop(); err != nil {
			s.stopErr = err
		}
		if err := s.stream.Close(); err != nil && s.stopErr == nil {
			s.stopErr = err
		}
		if err := portaudio.Terminate(); err != nil && s.stopErr == nil {
			s.stopErr = err
		}
	})
	return s.stopErr
}
