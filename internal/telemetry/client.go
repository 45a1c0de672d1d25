package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client posts payloads to the metrics endpoint.
type Client struct {
	Endpoint string
	HTTP     *http.Client
}

// NewClient returns a Client with its own timeout.
func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{Endpoint: endpoint, HTTP: &http.Client{Timeout: timeout}}
}

// SendInstallationAttempt posts p as JSON. A nil payload sends nothing.
func (c *Client) SendInstallationAttempt(ctx context.Context, p *Payload) error {
	if p == nil {
		return nil
	}
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal telemetry payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build telemetry request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("failed to POST telemetry to %s: %w", c.Endpoint, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("telemetry endpoint answered HTTP status %d", resp.StatusCode)
	}
	return nil
}

// Reporter assembles and sends one report per installer run.
type Reporter struct {
	Enabled   bool
	Assembler *Assembler
	Client    *Client
}

// Report sends the outcome of mode. It is a no-op when telemetry is disabled.
func (r *Reporter) Report(ctx context.Context, mode string, code int) error {
	if !r.Enabled {
		return nil
	}
	return r.Client.SendInstallationAttempt(ctx, r.Assembler.Assemble(ctx, mode, code))
}
