package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ASSEMBLYAI_API_KEY", "")
	t.Setenv("VOICEDESK_SAMPLE_RATE", "")
	t.Setenv("VOICEDESK_CHUNK_MS", "")
	t.Setenv("TOKEN_TTL_SECONDS", "")
	t.Setenv("VOICEDESK_AUDIO_BACKEND", "")
	t.Setenv("TOKEN_SERVICE_ADDR", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Audio.SampleRate != 16000 {
		t.Fatalf("unexpected sample rate: %d", cfg.Audio.SampleRate)
	}
	if cfg.Audio.Channels != 1 {
		t.Fatalf("unexpected channels: %d", cfg.Audio.Channels)
	}
	if cfg.Audio.Backend != "ffmpeg" {
		t.Fatalf("unexpected backend: %q", cfg.Audio.Backend)
	}
	if cfg.Recorder.ChunkDuration != 100*time.Millisecond {
		t.Fatalf("unexpected chunk duration: %s", cfg.Recorder.ChunkDuration)
	}
	if cfg.AssemblyAI.TokenTTLSeconds != 480 {
		t.Fatalf("unexpected token ttl: %d", cfg.AssemblyAI.TokenTTLSeconds)
	}
	if cfg.AssemblyAI.EndUtteranceSilenceMs != 1000 {
		t.Fatalf("unexpected end utterance threshold: %d", cfg.AssemblyAI.EndUtteranceSilenceMs)
	}
	if cfg.HTTP.Addr != ":8943" {
		t.Fatalf("unexpected token service addr: %q", cfg.HTTP.Addr)
	}
	if !cfg.Audio.NoiseSuppression || !cfg.Audio.EchoCancellation || !cfg.Audio.AutoGainControl {
		t.Fatalf("expected capture DSP defaults on: %+v", cfg.Audio)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ASSEMBLYAI_API_KEY", "  key-123  ")
	t.Setenv("VOICEDESK_SAMPLE_RATE", "44100")
	t.Setenv("VOICEDESK_CHUNK_MS", "250")
	t.Setenv("VOICEDESK_AUDIO_BACKEND", "portaudio")
	t.Setenv("VOICEDESK_NOISE_SUPPRESSION", "off")
	t.Setenv("TOKEN_ENDPOINT", "http://localhost:8943/api/token")
	t.Setenv("OPENAI_MODEL", "gpt-4o")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.AssemblyAI.APIKey != "key-123" {
		t.Fatalf("expected trimmed api key, got %q", cfg.AssemblyAI.APIKey)
	}
	if cfg.Audio.SampleRate != 44100 {
		t.Fatalf("unexpected sample rate: %d", cfg.Audio.SampleRate)
	}
	if cfg.Recorder.ChunkDuration != 250*time.Millisecond {
		t.Fatalf("unexpected chunk duration: %s", cfg.Recorder.ChunkDuration)
	}
	if cfg.Audio.Backend != "portaudio" {
		t.Fatalf("unexpected backend: %q", cfg.Audio.Backend)
	}
	if cfg.Audio.NoiseSuppression {
		t.Fatalf("expected noise suppression off")
	}
	if cfg.AssemblyAI.TokenEndpoint != "http://localhost:8943/api/token" {
		t.Fatalf("unexpected token endpoint: %q", cfg.AssemblyAI.TokenEndpoint)
	}
	if cfg.Chat.Model != "gpt-4o" {
		t.Fatalf("unexpected model: %q", cfg.Chat.Model)
	}
}

func TestLoadInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("VOICEDESK_SAMPLE_RATE", "fast")
	t.Setenv("VOICEDESK_CHUNK_MS", "-50")
	t.Setenv("TOKEN_TTL_SECONDS", "0")
	t.Setenv("VOICEDESK_READ_BUFFER", "12")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Audio.SampleRate != 16000 {
		t.Fatalf("unexpected sample rate: %d", cfg.Audio.SampleRate)
	}
	if cfg.Recorder.ChunkDuration != 100*time.Millisecond {
		t.Fatalf("unexpected chunk duration: %s", cfg.Recorder.ChunkDuration)
	}
	if cfg.AssemblyAI.TokenTTLSeconds != 480 {
		t.Fatalf("unexpected token ttl: %d", cfg.AssemblyAI.TokenTTLSeconds)
	}
	if cfg.Recorder.ReadBufferSize != 4096 {
		t.Fatalf("unexpected read buffer: %d", cfg.Recorder.ReadBufferSize)
	}
}

func TestEnvOrDefaultBool(t *testing.T) {
	t.Setenv("VOICEDESK_TEST_FLAG", "Yes")
	if !envOrDefaultBool("VOICEDESK_TEST_FLAG", false) {
		t.Fatalf("expected yes to parse as true")
	}
	t.Setenv("VOICEDESK_TEST_FLAG", "0")
	if envOrDefaultBool("VOICEDESK_TEST_FLAG", true) {
		t.Fatalf("expected 0 to parse as false")
	}
	t.Setenv("VOICEDESK_TEST_FLAG", "maybe")
	if !envOrDefaultBool("VOICEDESK_TEST_FLAG", true) {
		t.Fatalf("expected fallback for unparsable value")
	}
}
