// Package insight delivers completed farm records to the insight service.
package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/MikeSquared-Agency/agriform/internal/dialogue"
)

// maxResponseBytes caps how much of the service's answer is kept.
const maxResponseBytes = 1 << 20

type Client struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

func NewClient(url string, logger *slog.Logger) *Client {
	return &Client{
		url:    url,
		client: &http.Client{Timeout: 60 * time.Second},
		logger: logger,
	}
}

// Submit posts the record as JSON and returns the service's response body
// untouched. The body must be valid JSON.
func (c *Client) Submit(ctx context.Context, rec dialogue.Record) (json.RawMessage, error) {
	body, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("insight call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("insight error %d: %s", resp.StatusCode, string(respBody))
	}
	if !json.Valid(respBody) {
		return nil, fmt.Errorf("insight response is not JSON")
	}

	c.logger.Info("insight received", "status", resp.StatusCode, "bytes", len(respBody))
	return json.RawMessage(respBody), nil
}
