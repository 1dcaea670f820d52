package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"voicedesk/internal/domain"
)

type stubIssuer struct {
	token  domain.RealtimeToken
	err    error
	gotTTL int
	calls  int
}

func (s *stubIssuer) IssueToken(_ context.Context, expiresInSeconds int) (domain.RealtimeToken, error) {
	s.calls++
	s.gotTTL = expiresInSeconds
	if s.err != nil {
		return domain.RealtimeToken{}, s.err
	}
	return s.token, nil
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestTokenEndpointIssuesToken(t *testing.T) {
	t.Parallel()

	issuer := &stubIssuer{token: domain.RealtimeToken{Token: "tmp-abc", ExpiresInSeconds: 300}}
	app := NewRouter(RouterConfig{TokenTTLSeconds: 300}, issuer, discardLogger())

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/token", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	var tok domain.RealtimeToken
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if tok.Token != "tmp-abc" || tok.ExpiresInSeconds != 300 {
		t.Fatalf("unexpected token payload: %+v", tok)
	}
	if issuer.gotTTL != 300 {
		t.Fatalf("unexpected ttl passed to issuer: %d", issuer.gotTTL)
	}
}

func TestTokenEndpointDefaultsTTL(t *testing.T) {
	t.Parallel()

	issuer := &stubIssuer{token: domain.RealtimeToken{Token: "tmp-abc", ExpiresInSeconds: 480}}
	app := NewRouter(RouterConfig{}, issuer, discardLogger())

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/token", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if issuer.gotTTL != 480 {
		t.Fatalf("expected default ttl 480, got %d", issuer.gotTTL)
	}
}

func TestTokenEndpointIssuerFailure(t *testing.T) {
	t.Parallel()

	issuer := &stubIssuer{err: errors.New("upstream down")}
	app := NewRouter(RouterConfig{}, issuer, discardLogger())

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/token", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if body["error"] == "" {
		t.Fatalf("expected error message in body")
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	app := NewRouter(RouterConfig{}, &stubIssuer{}, discardLogger())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}
