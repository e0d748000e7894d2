package textsource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/verte-zerg/speedtype/internal/model"
)

const defaultHTTPTimeout = 15 * time.Second

type textRequest struct {
	Difficulty model.Difficulty `json:"difficulty"`
	Type       model.TextType   `json:"type"`
	WordCount  int              `json:"wordCount"`
}

type textResponse struct {
	Content string `json:"content"`
	Error   string `json:"error,omitempty"`
}

// HTTPProvider fetches texts from a remote generation endpoint.
type HTTPProvider struct {
	Endpoint string
	Client   *http.Client
}

// NewHTTPProvider returns a provider for endpoint with a default timeout.
func NewHTTPProvider(endpoint string) *HTTPProvider {
	return &HTTPProvider{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: defaultHTTPTimeout},
	}
}

// FetchText implements Provider.
func (p *HTTPProvider) FetchText(ctx context.Context, difficulty model.Difficulty, textType model.TextType) (string, error) {
	body, err := json.Marshal(textRequest{
		Difficulty: difficulty,
		Type:       textType,
		WordCount:  difficulty.WordCount(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode text request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch text: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("unexpected text endpoint status: %s", resp.Status)
	}
	var payload textResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode text response: %w", err)
	}
	if payload.Content == "" {
		return "", ErrEmptyText
	}
	return payload.Content, nil
}
