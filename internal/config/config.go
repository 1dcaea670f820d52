package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config stores runtime configuration for the voice desk.
type Config struct {
	AssemblyAI AssemblyAIConfig
	Audio      AudioConfig
	Recorder   RecorderConfig
	Chat       ChatConfig
	Research   ResearchConfig
	HTTP       HTTPConfig
}

type AssemblyAIConfig struct {
	APIKey                string
	APIBaseURL            string
	TokenTTLSeconds       int
	TokenEndpoint         string
	EndUtteranceSilenceMs int
}

type AudioConfig struct {
	Backend          string
	FFmpegCommand    string
	InputFormat      string
	InputDevice      string
	SampleRate       int
	Channels         int
	EchoCancellation bool
	NoiseSuppression bool
	AutoGainControl  bool
}

type RecorderConfig struct {
	ChunkDuration  time.Duration
	ReadBufferSize int
}

type ChatConfig struct {
	OpenAIAPIKey string
	Model        string
	SystemPrompt string
}

type ResearchConfig struct {
	APIKey     string
	APIBaseURL string
	TargetURL  string
}

type HTTPConfig struct {
	Addr string
}

// Load resolves configuration from a .env file (when present) and
// environment variables, with defensive fallbacks on invalid values.
//
// One sample rate is threaded through capture, framing, and the streaming
// session so the components cannot drift apart.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AssemblyAI: AssemblyAIConfig{
			APIKey:                strings.TrimSpace(os.Getenv("ASSEMBLYAI_API_KEY")),
			APIBaseURL:            envOrDefault("ASSEMBLYAI_API_BASE", "https://api.assemblyai.com"),
			TokenTTLSeconds:       envOrDefaultInt("TOKEN_TTL_SECONDS", 480),
			TokenEndpoint:         strings.TrimSpace(os.Getenv("TOKEN_ENDPOINT")),
			EndUtteranceSilenceMs: envOrDefaultInt("VOICEDESK_END_UTTERANCE_MS", 1000),
		},
		Audio: AudioConfig{
			Backend:          envOrDefault("VOICEDESK_AUDIO_BACKEND", "ffmpeg"),
			FFmpegCommand:    envOrDefault("VOICEDESK_FFMPEG_COMMAND", "ffmpeg"),
			InputFormat:      envOrDefault("VOICEDESK_AUDIO_INPUT_FORMAT", "pulse"),
			InputDevice:      envOrDefault("VOICEDESK_AUDIO_INPUT_DEVICE", "default"),
			SampleRate:       envOrDefaultInt("VOICEDESK_SAMPLE_RATE", 16000),
			Channels:         envOrDefaultInt("VOICEDESK_CHANNELS", 1),
			EchoCancellation: envOrDefaultBool("VOICEDESK_ECHO_CANCELLATION", true),
			NoiseSuppression: envOrDefaultBool("VOICEDESK_NOISE_SUPPRESSION", true),
			AutoGainControl:  envOrDefaultBool("VOICEDESK_AUTO_GAIN", true),
		},
		Recorder: RecorderConfig{
			ChunkDuration:  time.Duration(envOrDefaultInt("VOICEDESK_CHUNK_MS", 100)) * time.Millisecond,
			ReadBufferSize: envOrDefaultInt("VOICEDESK_READ_BUFFER", 4096),
		},
		Chat: ChatConfig{
			OpenAIAPIKey: strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
			Model:        strings.TrimSpace(os.Getenv("OPENAI_MODEL")),
			SystemPrompt: strings.TrimSpace(os.Getenv("VOICEDESK_SYSTEM_PROMPT")),
		},
		Research: ResearchConfig{
			APIKey:     strings.TrimSpace(os.Getenv("FIRECRAWL_API_KEY")),
			APIBaseURL: envOrDefault("FIRECRAWL_API_BASE", "https://api.firecrawl.dev"),
			TargetURL:  strings.TrimSpace(os.Getenv("RESEARCH_URL")),
		},
		HTTP: HTTPConfig{
			Addr: envOrDefault("TOKEN_SERVICE_ADDR", ":8943"),
		},
	}

	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.AssemblyAI.TokenTTLSeconds <= 0 {
		cfg.AssemblyAI.TokenTTLSeconds = 480
	}
	if cfg.Recorder.ChunkDuration <= 0 {
		cfg.Recorder.ChunkDuration = 100 * time.Millisecond
	}
	if cfg.Recorder.ReadBufferSize < 256 {
		cfg.Recorder.ReadBufferSize = 4096
	}

	return cfg, nil
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
