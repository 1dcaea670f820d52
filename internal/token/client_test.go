package token

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientFetchesToken(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"token": "tmp-xyz", "expiresInSeconds": 480})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	tok, err := client.Token(context.Background())
	if err != nil {
		t.Fatalf("token fetch failed: %v", err)
	}
	if tok.Token != "tmp-xyz" {
		t.Fatalf("unexpected token: %q", tok.Token)
	}
	if tok.ExpiresInSeconds != 480 {
		t.Fatalf("unexpected ttl: %d", tok.ExpiresInSeconds)
	}
}

func TestClientRejectsNon200(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL).Token(context.Background()); err == nil {
		t.Fatalf("expected error on non-200 response")
	}
}

func TestClientRejectsEmptyToken(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"token": ""})
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL).Token(context.Background()); err == nil {
		t.Fatalf("expected error on empty token")
	}
}

func TestClientUnreachableEndpoint(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	if _, err := NewClient(srv.URL).Token(context.Background()); err == nil {
		t.Fatalf("expected error for unreachable endpoint")
	}
}
