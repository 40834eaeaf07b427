// Package invalidate notifies the rendering layer that a page's
// derived artifacts are stale. Invalidation is best-effort by
// contract: the mutation session logs failures and never lets them
// surface to the caller.
package invalidate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// Invalidator drops derived artifacts for one page key.
type Invalidator interface {
	Invalidate(ctx context.Context, pageKey string) error
}

// Nop ignores invalidations (no render cache configured).
type Nop struct{}

func (Nop) Invalidate(context.Context, string) error { return nil }

// Redis deletes the rendered-page cache entry from redis.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis connects to addr and deletes keys of the form
// "<prefix><pageKey>". An empty prefix defaults to "rendered:".
func NewRedis(addr, prefix string) *Redis {
	if prefix == "" {
		prefix = "rendered:"
	}
	return &Redis{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		prefix: prefix,
	}
}

func (r *Redis) Invalidate(ctx context.Context, pageKey string) error {
	if err := r.client.Del(ctx, r.prefix+pageKey).Err(); err != nil {
		return fmt.Errorf("invalidate: redis del: %w", err)
	}
	return nil
}

// Close releases the redis connection.
func (r *Redis) Close() error { return r.client.Close() }

// Webhook POSTs the page key to an external invalidation endpoint.
type Webhook struct {
	url string
	hc  *http.Client
}

// NewWebhook builds a webhook invalidator. The timeout is short; a
// slow cache hook never holds up a mutation response.
func NewWebhook(url string) *Webhook {
	return &Webhook{
		url: url,
		hc:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (w *Webhook) Invalidate(ctx context.Context, pageKey string) error {
	body, err := json.Marshal(map[string]string{"page_key": pageKey})
	if err != nil {
		return fmt.Errorf("invalidate: marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("invalidate: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := w.hc.Do(req)
	if err != nil {
		return fmt.Errorf("invalidate: webhook POST: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("invalidate: webhook returned %d", resp.StatusCode)
	}
	return nil
}

// Multi fans an invalidation out to several targets, attempting every
// one and joining whatever failed.
type Multi []Invalidator

func (m Multi) Invalidate(ctx context.Context, pageKey string) error {
	var errs []error
	for _, inv := range m {
		if err := inv.Invalidate(ctx, pageKey); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
