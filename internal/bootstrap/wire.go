package bootstrap

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"voicedesk/internal/audio"
	"voicedesk/internal/chat"
	"voicedesk/internal/config"
	"voicedesk/internal/httpapi"
	"voicedesk/internal/ports"
	"voicedesk/internal/providers/assemblyai"
	"voicedesk/internal/research"
	"voicedesk/internal/token"
	"voicedesk/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Recorder  *usecase.Recorder
	Assistant ports.Assistant
	Router    *fiber.App
	Config    config.Config
}

// Build wires all backend dependencies for the current runtime.
func Build(events ports.EventSink, logger *log.Logger) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}
	if logger == nil {
		logger = log.Default()
	}

	if cfg.AssemblyAI.APIKey == "" && cfg.AssemblyAI.TokenEndpoint == "" {
		return Services{}, errors.New("either ASSEMBLYAI_API_KEY or TOKEN_ENDPOINT must be configured")
	}

	issuer := assemblyai.NewTokenIssuer(cfg.AssemblyAI.APIKey, cfg.AssemblyAI.APIBaseURL, cfg.AssemblyAI.TokenTTLSeconds)

	var tokens ports.TokenProvider = issuer
	if cfg.AssemblyAI.TokenEndpoint != "" {
		tokens = token.NewClient(cfg.AssemblyAI.TokenEndpoint)
	}

	provider := assemblyai.NewProvider(
		assemblyai.Config{APIBaseURL: cfg.AssemblyAI.APIBaseURL},
		tokens,
		logger,
	)

	capture := buildCapture(cfg.Audio)

	recorder := usecase.NewRecorder(capture, provider, events, logger, usecase.Config{
		Audio: ports.AudioConfig{
			SampleRate:       cfg.Audio.SampleRate,
			Channels:         cfg.Audio.Channels,
			Backend:          cfg.Audio.Backend,
			Command:          cfg.Audio.FFmpegCommand,
			InputFormat:      cfg.Audio.InputFormat,
			InputDevice:      cfg.Audio.InputDevice,
			EchoCancellation: cfg.Audio.EchoCancellation,
			NoiseSuppression: cfg.Audio.NoiseSuppression,
			AutoGainControl:  cfg.Audio.AutoGainControl,
		},
		Streaming: ports.StreamingConfig{
			SampleRate:            cfg.Audio.SampleRate,
			Encoding:              "pcm_s16le",
			EndUtteranceSilenceMs: cfg.AssemblyAI.EndUtteranceSilenceMs,
		},
		ChunkDuration:  cfg.Recorder.ChunkDuration,
		ReadBufferSize: cfg.Recorder.ReadBufferSize,
	})

	var assistant ports.Assistant
	if cfg.Chat.OpenAIAPIKey != "" {
		var extractor ports.Extractor
		if cfg.Research.APIKey != "" && cfg.Research.TargetURL != "" {
			extractor = research.NewClient(research.Config{
				APIKey:     cfg.Research.APIKey,
				APIBaseURL: cfg.Research.APIBaseURL,
				TargetURL:  cfg.Research.TargetURL,
			})
		}
		assistant = chat.NewClient(cfg.Chat.OpenAIAPIKey, chat.Config{
			Model:        cfg.Chat.Model,
			SystemPrompt: cfg.Chat.SystemPrompt,
		}, extractor, logger)
	}

	var router *fiber.App
	if cfg.HTTP.Addr != "" && cfg.AssemblyAI.APIKey != "" {
		router = httpapi.NewRouter(httpapi.RouterConfig{
			TokenTTLSeconds: cfg.AssemblyAI.TokenTTLSeconds,
		}, issuer, logger)
	}

	return Services{
		Recorder:  recorder,
		Assistant: assistant,
		Router:    router,
		Config:    cfg,
	}, nil
}

func buildCapture(cfg config.AudioConfig) ports.AudioCapture {
	if cfg.Backend == "portaudio" {
		return audio.NewPortAudioCapture()
	}
	return audio.NewFFmpegCapture(cfg.FFmpegCommand)
}
