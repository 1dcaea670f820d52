// Package token fetches short-lived streaming credentials from the token
// service, keeping the provider secret on the server side of that boundary.
package token

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"voicedesk/internal/domain"
)

// Client implements ports.TokenProvider against the token service endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

func NewClient(endpoint string) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Token(ctx context.Context) (domain.RealtimeToken, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, nil)
	if err != nil {
		return domain.RealtimeToken{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.RealtimeToken{}, fmt.Errorf("token endpoint unreachable: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.RealtimeToken{}, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return domain.RealtimeToken{}, fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var tok domain.RealtimeToken
	if err := json.Unmarshal(payload, &tok); err != nil {
		return domain.RealtimeToken{}, fmt.Errorf("failed to decode token response: %w", err)
	}
	if tok.Token == "" {
		return domain.RealtimeToken{}, fmt.Errorf("token endpoint returned an empty token")
	}
	return tok, nil
}
