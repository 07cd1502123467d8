package checker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// maxWebhookBody caps how much of a webhook response body is retained
// for the audit log.
const maxWebhookBody = 64 * 1024

// WebhookClient delivers trigger notifications to user-supplied URLs.
// All outbound calls share one rate limiter so a run with many firing
// alerts cannot flood receivers.
type WebhookClient struct {
	client  *http.Client
	limiter *rate.Limiter
}

// NewWebhookClient creates a webhook client with the given per-request
// timeout. limiter may be nil to disable rate limiting.
func NewWebhookClient(timeout time.Duration, limiter *rate.Limiter) *WebhookClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &WebhookClient{
		client:  &http.Client{Timeout: timeout},
		limiter: limiter,
	}
}

// Send POSTs the payload as JSON to url and returns the response status
// and body. A non-2xx status is not an error; only a request that could
// not be completed (DNS failure, timeout, connection refused) returns one.
func (c *WebhookClient) Send(ctx context.Context, url string, payload any) (int, string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, "", fmt.Errorf("rate limit wait: %w", err)
		}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return 0, "", fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return 0, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxWebhookBody))
	if err != nil {
		// The status arrived even if the body read failed.
		return resp.StatusCode, "", nil
	}

	return resp.StatusCode, string(body), nil
}
