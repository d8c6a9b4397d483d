// Package embedding turns text into fixed-dimension vectors through an
// external embedding service. The same Embedder must be used at index and
// query time: mismatched embedding models silently degrade relevance with no
// error signal, so the embedder is constructed once and injected, never
// resolved ambiently.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Embedder produces one vector per input text, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// Config holds embedding client construction options.
type Config struct {
	// URL is the embedding service endpoint.
	URL string `mapstructure:"url"`
	// Model is the embedding model identifier sent with each request.
	Model string `mapstructure:"model"`
	// Dimension is the vector width the service produces (e.g. 768).
	Dimension int `mapstructure:"dimension"`
	// Timeout bounds each embedding request.
	Timeout time.Duration `mapstructure:"timeout"`
}

// Client calls an HTTP embedding service.
type Client struct {
	httpClient *http.Client
	url        string
	model      string
	dimension  int
}

// embedRequest is the service request payload.
type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// embedResponse is the service response payload.
type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// NewClient creates an embedding client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		url:        cfg.URL,
		model:      cfg.Model,
		dimension:  cfg.Dimension,
	}
}

// Dimension returns the configured vector width.
func (c *Client) Dimension() int { return c.dimension }

// Embed sends texts to the service and returns one vector per text.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	payload, marshalErr := json.Marshal(embedRequest{Model: c.model, Input: texts})
	if marshalErr != nil {
		return nil, fmt.Errorf("embed: marshal request: %w", marshalErr)
	}

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if reqErr != nil {
		return nil, fmt.Errorf("embed: create request: %w", reqErr)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, doErr := c.httpClient.Do(req)
	if doErr != nil {
		return nil, fmt.Errorf("embed: request: %w", doErr)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("embed: service returned %d: %s", resp.StatusCode, string(body))
	}

	var decoded embedResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&decoded); decodeErr != nil {
		return nil, fmt.Errorf("embed: decode response: %w", decodeErr)
	}

	if len(decoded.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embed: got %d vectors for %d texts", len(decoded.Embeddings), len(texts))
	}

	return decoded.Embeddings, nil
}
