// Package vision scores images against natural-language prompts using a
// CLIP-style embedding backend reached over HTTP.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/veridian-labs/docsift/internal/common"
)

// Embedder maps images and texts into one shared vector space.
type Embedder interface {
	EmbedImage(ctx context.Context, data []byte) ([]float64, error)
	EmbedTexts(ctx context.Context, texts []string) ([][]float64, error)
}

type ClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client is an Embedder backed by an HTTP inference service exposing
// /embed/image and /embed/text. The model is loaded once by that service;
// the client holds no mutable state and is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *slog.Logger
}

func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		logger:     logger,
	}
}

type embedImageRequest struct {
	ImageB64 string `json:"image_b64"`
}

type embedTextRequest struct {
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

func (c *Client) EmbedImage(ctx context.Context, data []byte) ([]float64, error) {
	resp, err := c.post(ctx, "/embed/image", embedImageRequest{
		ImageB64: base64.StdEncoding.EncodeToString(data),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("embed image: empty response")
	}
	return resp.Embeddings[0], nil
}

func (c *Client) EmbedTexts(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := c.post(ctx, "/embed/text", embedTextRequest{Input: texts})
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embed text: got %d embeddings for %d inputs", len(resp.Embeddings), len(texts))
	}
	return resp.Embeddings, nil
}

func (c *Client) post(ctx context.Context, path string, body any) (*embedResponse, error) {
	bs, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(bs))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("vision.http.send_error", "path", path, "error", err)
		return nil, common.NewAppError("VISION_UNAVAILABLE", "embedding backend unreachable", common.ErrModelUnavailable)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("vision.http.response",
		"path", path,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		var er embedResponse
		if err := json.Unmarshal(raw, &er); err == nil && er.Error != "" {
			return nil, fmt.Errorf("embedding backend: %s (status %d)", er.Error, resp.StatusCode)
		}
		if resp.StatusCode == http.StatusServiceUnavailable {
			return nil, common.NewAppError("VISION_UNAVAILABLE", "embedding backend not ready", common.ErrModelUnavailable)
		}
		return nil, fmt.Errorf("embedding backend: status %d", resp.StatusCode)
	}

	var out embedResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}
