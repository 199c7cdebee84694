// Package webhook delivers finished results to a caller-supplied URL.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"call-insights-go/internal/logger"
	"call-insights-go/internal/types"
)

const DefaultTimeout = 10 * time.Second

type Client struct {
	http    *http.Client
	timeout time.Duration
}

// New returns a sender. A nil httpClient means http.DefaultClient.
func New(httpClient *http.Client, timeout time.Duration) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{http: httpClient, timeout: timeout}
}

// Deliver posts r as JSON once. There is no retry; the caller logs the error
// and keeps the result it already has.
func (c *Client) Deliver(ctx context.Context, url string, r types.AnalysisResult) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if id := logger.JobID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	}
	logger.ForJob(ctx, logger.Component("webhook")).WithField("status", resp.StatusCode).Info("result delivered")
	return nil
}
