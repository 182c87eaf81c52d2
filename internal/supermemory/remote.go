package supermemory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lewisedginton/persona_chatbot/pkg/logger"
)

// RemoteProvider talks to a Supermemory-style HTTP API.
type RemoteProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        logger.Logger
}

// RemoteConfig holds configuration for the remote provider.
type RemoteConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Logger  logger.Logger
}

// NewRemoteProvider creates a provider backed by the remote memory API.
func NewRemoteProvider(cfg RemoteConfig) (*RemoteProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &RemoteProvider{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		log:        cfg.Logger,
	}, nil
}

// Add stores content under the given scope.
func (p *RemoteProvider) Add(ctx context.Context, content, scope string) error {
	body := map[string]any{
		"content":      content,
		"containerTag": scope,
	}
	return p.post(ctx, "/v3/documents", body, nil)
}

// Search returns memories matching the query within the given scope.
func (p *RemoteProvider) Search(ctx context.Context, query, scope string, limit int) ([]Result, error) {
	body := map[string]any{
		"q":            query,
		"containerTag": scope,
		"limit":        limit,
	}

	var resp struct {
		Results []Result `json:"results"`
	}
	if err := p.post(ctx, "/v3/search", body, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// Profile returns the provider's static and dynamic profile for the scope.
func (p *RemoteProvider) Profile(ctx context.Context, scope, query string) (Profile, error) {
	body := map[string]any{
		"containerTag": scope,
		"q":            query,
	}

	var profile Profile
	if err := p.post(ctx, "/v3/profile", body, &profile); err != nil {
		return Profile{}, err
	}
	return profile, nil
}

func (p *RemoteProvider) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("memory API request: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("memory API returned status %d for %s", resp.StatusCode, path)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
