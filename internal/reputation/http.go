package reputation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ppiankov/safelink/internal/util"
)

// maxResponseBytes caps how much of a verdict response is read
const maxResponseBytes = 1 << 20

// HTTPProvider posts the URL to a JSON reputation endpoint
type HTTPProvider struct {
	client   *http.Client
	endpoint string
	apiKey   string
	agent    string
}

// NewHTTPProvider creates a provider for a JSON endpoint
func NewHTTPProvider(config Config) (*HTTPProvider, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("reputation base URL is required")
	}

	return &HTTPProvider{
		client:   util.NewHTTPClient(config.HTTP, config.timeout(), 0),
		endpoint: config.BaseURL,
		apiKey:   config.APIKey,
		agent:    config.HTTP.UserAgent,
	}, nil
}

// Name returns the provider name
func (p *HTTPProvider) Name() string {
	return "http"
}

// Check posts {"url": rawURL} and decodes the verdict
func (p *HTTPProvider) Check(ctx context.Context, rawURL string) (*Verdict, error) {
	body, err := json.Marshal(map[string]string{"url": rawURL})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if p.agent != "" {
		req.Header.Set("User-Agent", p.agent)
	}
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reputation request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("reputation service returned HTTP %d", resp.StatusCode)
	}

	var verdict Verdict
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&verdict); err != nil {
		return nil, fmt.Errorf("decode verdict: %w", err)
	}

	return &verdict, nil
}
