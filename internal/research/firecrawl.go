// Package research implements the content/extraction boundary against the
// Firecrawl extract API.
package research

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
)

const (
	defaultAPIBase      = "https://api.firecrawl.dev"
	defaultPrompt       = "Extract the overview, features, why, results, and faq from the page."
	defaultPollInterval = 2 * time.Second
	maxPollAttempts     = 30
)

// Config controls the Firecrawl client.
type Config struct {
	APIKey       string
	APIBaseURL   string
	TargetURL    string
	PollInterval time.Duration
}

// Client extracts structured content from the configured target URL.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultAPIBase
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type extractResponse struct {
	Success bool            `json:"success"`
	ID      string          `json:"id"`
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// Extract runs an extraction with the given prompt, polling the job until it
// completes. The result is the raw extracted JSON document.
func (c *Client) Extract(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return "", errors.New("FIRECRAWL_API_KEY is not configured")
	}
	if c.cfg.TargetURL == "" {
		return "", errors.New("research target URL is not configured")
	}
	if strings.TrimSpace(prompt) == "" {
		prompt = defaultPrompt
	}

	body, err := json.Marshal(map[string]any{
		"urls":   []string{c.cfg.TargetURL},
		"prompt": prompt,
	})
	if err != nil {
		return "", err
	}

	resp, err := c.do(ctx, http.MethodPost, "/v1/extract", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	if result, done := finished(resp); done {
		return result, nil
	}
	jobID := resp.ID
	if jobID == "" {
		return "", fmt.Errorf("extract request rejected: %s", resp.Error)
	}

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()
	for attempt := 0; attempt < maxPollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}

		resp, err = c.do(ctx, http.MethodGet, "/v1/extract/"+jobID, nil)
		if err != nil {
			return "", err
		}
		if result, done := finished(resp); done {
			return result, nil
		}
		if resp.Status == "failed" || resp.Error != "" {
			return "", fmt.Errorf("extract job failed: %s", resp.Error)
		}
	}
	return "", errors.New("extract job did not complete in time")
}

func finished(resp *extractResponse) (string, bool) {
	if len(resp.Data) > 0 && (resp.Status == "" || resp.Status == "completed") {
		return string(resp.Data), true
	}
	return "", false
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*extractResponse, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.APIBaseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extract request failed: %w", err)
	}
	defer httpResp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(httpResp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read extract response: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("extract endpoint returned status %d: %s", httpResp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var decoded extractResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode extract response: %w", err)
	}
	return &decoded, nil
}
