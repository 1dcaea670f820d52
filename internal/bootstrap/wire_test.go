package bootstrap

import (
	"testing"

	"voicedesk/internal/domain"
)

func TestBuildWithDirectAPIKey(t *testing.T) {
	t.Setenv("ASSEMBLYAI_API_KEY", "test-key")
	t.Setenv("TOKEN_ENDPOINT", "")
	t.Setenv("OPENAI_API_KEY", "")

	services, err := Build(noopEventSink{}, nil)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if services.Recorder == nil {
		t.Fatalf("expected recorder")
	}
	if services.Router == nil {
		t.Fatalf("expected token service router when the api key is held locally")
	}
	if services.Assistant != nil {
		t.Fatalf("expected no assistant without OPENAI_API_KEY")
	}
}

func TestBuildWithTokenEndpointOnly(t *testing.T) {
	t.Setenv("ASSEMBLYAI_API_KEY", "")
	t.Setenv("TOKEN_ENDPOINT", "http://localhost:8943/api/token")
	t.Setenv("OPENAI_API_KEY", "")

	services, err := Build(noopEventSink{}, nil)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if services.Recorder == nil {
		t.Fatalf("expected recorder")
	}
	if services.Router != nil {
		t.Fatalf("token service must not run without the provider api key")
	}
}

func TestBuildRequiresCredentialSource(t *testing.T) {
	t.Setenv("ASSEMBLYAI_API_KEY", "")
	t.Setenv("TOKEN_ENDPOINT", "")

	if _, err := Build(noopEventSink{}, nil); err == nil {
		t.Fatalf("expected build error without credentials")
	}
}

func TestBuildWiresAssistant(t *testing.T) {
	t.Setenv("ASSEMBLYAI_API_KEY", "test-key")
	t.Setenv("OPENAI_API_KEY", "openai-key")
	t.Setenv("TOKEN_ENDPOINT", "")

	services, err := Build(noopEventSink{}, nil)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if services.Assistant == nil {
		t.Fatalf("expected assistant with OPENAI_API_KEY")
	}
}

type noopEventSink struct{}

func (noopEventSink) RecorderStateChanged(_ domain.RecorderState) {}
func (noopEventSink) PartialTranscript(_ string)                  {}
func (noopEventSink) FinalTranscript(_ string)                    {}
func (noopEventSink) RecorderError(_ domain.ErrorKind, _ string)  {}
