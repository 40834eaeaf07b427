// Package proposal is the client for the external edit-proposal
// service: it sends the slot dictionary plus an instruction and gets
// back a list of proposed edits. One blocking call with a bounded
// timeout; any failure (timeout, non-success status, malformed body,
// explicit error field) fails the whole request and yields zero edits.
// Retrying is the caller's decision, never the client's.
package proposal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ferrostack/pagemend/slotdict"
)

// acceptedKeys is the explicit allow-list of top-level response keys
// proposed edits may arrive under. Checked in order; anything else is
// a malformed response, not a fallback.
var acceptedKeys = []string{"edits", "changes", "results"}

// Request is the proposal-service request body.
type Request struct {
	Dictionary       []slotdict.Entry      `json:"dictionary"`
	ImageSlots       []slotdict.ImageEntry `json:"image_slots"`
	Instruction      string                `json:"instruction"`
	EditCapabilities []string              `json:"edit_capabilities"`
}

// Config configures the client.
type Config struct {
	// URL is the proposal endpoint. Required.
	URL string `yaml:"url"`
	// APIKey, when set, is sent as a bearer token.
	APIKey string `yaml:"api_key"`
	// Timeout bounds the whole call (default 60s).
	Timeout time.Duration `yaml:"timeout"`
}

// Client calls the proposal service over HTTP.
type Client struct {
	cfg    Config
	hc     *http.Client
	logger *slog.Logger
}

// New creates a Client with a shared persistent HTTP client.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg: cfg,
		hc: &http.Client{
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// Propose sends one request and returns the raw proposed edits. The
// items are untrusted; validation belongs to the edits normalizer.
func (c *Client) Propose(ctx context.Context, req Request) ([]any, error) {
	if c.cfg.URL == "" {
		return nil, fmt.Errorf("proposal: no endpoint configured")
	}
	if req.EditCapabilities == nil {
		req.EditCapabilities = []string{"text", "url", "image"}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("proposal: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("proposal: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	start := time.Now()
	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("proposal: call: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("proposal: read response: %w", err)
	}
	c.logger.Debug("proposal call finished",
		"status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("proposal: service returned %d", resp.StatusCode)
	}
	return parseResponse(data)
}

// parseResponse extracts the edit list from a response body. An
// explicit error field always wins; otherwise the first accepted key
// holding an array is used.
func parseResponse(data []byte) ([]any, error) {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("proposal: malformed response: %w", err)
	}
	if raw, ok := body["error"]; ok {
		var msg string
		if err := json.Unmarshal(raw, &msg); err == nil && msg != "" {
			return nil, fmt.Errorf("proposal: service error: %s", msg)
		}
	}
	for _, key := range acceptedKeys {
		raw, ok := body[key]
		if !ok {
			continue
		}
		var edits []any
		if err := json.Unmarshal(raw, &edits); err != nil {
			return nil, fmt.Errorf("proposal: %s is not an array: %w", key, err)
		}
		return edits, nil
	}
	return nil, fmt.Errorf("proposal: response has no edit list (accepted keys: edits, changes, results)")
}
