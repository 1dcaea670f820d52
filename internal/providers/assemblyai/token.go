package assemblyai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"voicedesk/internal/domain"
)

const (
	defaultAPIBase  = "https://api.assemblyai.com"
	defaultTokenTTL = 480
)

// TokenIssuer mints short-lived realtime tokens using the long-lived API
// key. It lives on the server side of the token boundary; the key never
// travels further than the requests this type makes.
type TokenIssuer struct {
	apiKey     string
	apiBaseURL string
	defaultTTL int
	httpClient *http.Client
}

func NewTokenIssuer(apiKey, apiBaseURL string, defaultTTL int) *TokenIssuer {
	if apiBaseURL == "" {
		apiBaseURL = defaultAPIBase
	}
	if defaultTTL <= 0 {
		defaultTTL = defaultTokenTTL
	}
	return &TokenIssuer{
		apiKey:     apiKey,
		apiBaseURL: strings.TrimRight(apiBaseURL, "/"),
		defaultTTL: defaultTTL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// IssueToken requests a temporary realtime token valid for expiresInSeconds.
func (i *TokenIssuer) IssueToken(ctx context.Context, expiresInSeconds int) (domain.RealtimeToken, error) {
	if strings.TrimSpace(i.apiKey) == "" {
		return domain.RealtimeToken{}, errors.New("ASSEMBLYAI_API_KEY is not configured")
	}
	if expiresInSeconds <= 0 {
		expiresInSeconds = i.defaultTTL
	}

	body, err := json.Marshal(map[string]int{"expires_in": expiresInSeconds})
	if err != nil {
		return domain.RealtimeToken{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.apiBaseURL+"/v2/realtime/token", bytes.NewReader(body))
	if err != nil {
		return domain.RealtimeToken{}, err
	}
	req.Header.Set("Authorization", i.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return domain.RealtimeToken{}, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.RealtimeToken{}, fmt.Errorf("failed to read token response: %w", err)
	}

	var decoded struct {
		Token string `json:"token"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return domain.RealtimeToken{}, fmt.Errorf("failed to decode token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || decoded.Token == "" {
		message := decoded.Error
		if message == "" {
			message = strings.TrimSpace(string(payload))
		}
		return domain.RealtimeToken{}, fmt.Errorf("token request rejected (status %d): %s", resp.StatusCode, message)
	}

	return domain.RealtimeToken{Token: decoded.Token, ExpiresInSeconds: expiresInSeconds}, nil
}

// Token implements ports.TokenProvider for single-binary deployments where
// the issuer is wired directly instead of through the token service.
func (i *TokenIssuer) Token(ctx context.Context) (domain.RealtimeToken, error) {
	return i.IssueToken(ctx, i.defaultTTL)
}
