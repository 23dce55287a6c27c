// Package validator judges whether a free-text answer makes sense for the
// question it answers, either through a remote HTTP endpoint or an LLM.
package validator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Request is the body sent to a remote validator.
type Request struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Response is the body a remote validator returns.
type Response struct {
	Valid bool `json:"valid"`
}

// HTTP calls a remote validation endpoint.
type HTTP struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

func NewHTTP(url string, logger *slog.Logger) *HTTP {
	return &HTTP{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

// Validate posts the question and answer and returns the verdict.
func (h *HTTP) Validate(ctx context.Context, question, answer string) (bool, error) {
	body, err := json.Marshal(Request{Question: question, Answer: answer})
	if err != nil {
		return false, fmt.Errorf("marshal validation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("validator call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("validator error %d: %s", resp.StatusCode, string(respBody))
	}

	var out Response
	if err := json.Unmarshal(respBody, &out); err != nil {
		return false, fmt.Errorf("parse validator response: %w", err)
	}

	h.logger.Debug("answer validated", "valid", out.Valid)
	return out.Valid, nil
}
