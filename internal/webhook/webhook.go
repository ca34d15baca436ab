// Package webhook delivers completed scan results to caller-provided URLs.
// Delivery failures are reported to the caller but never fail the scan
// itself.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/presence-scanner/internal/model"
	"github.com/sells-group/presence-scanner/internal/resilience"
)

const defaultTimeout = 15 * time.Second

// Deliverer posts scan results to webhook URLs with retry on transient
// failures.
type Deliverer struct {
	client *http.Client
	policy resilience.Policy
}

// Option customizes a Deliverer.
type Option func(*Deliverer)

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(d *Deliverer) { d.client = c }
}

// WithPolicy overrides the retry policy.
func WithPolicy(p resilience.Policy) Option {
	return func(d *Deliverer) { d.policy = p }
}

// New creates a Deliverer with default timeout and retry policy.
func New(opts ...Option) *Deliverer {
	d := &Deliverer{
		client: &http.Client{Timeout: defaultTimeout},
		policy: resilience.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Deliver posts the result as JSON to url. Responses with retryable status
// codes are retried under the policy; anything else is a permanent failure.
func (d *Deliverer) Deliver(ctx context.Context, url string, result *model.ScanResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "webhook: marshal result")
	}

	p := d.policy
	if p.OnRetry == nil {
		p.OnRetry = resilience.LogRetries("webhook", "deliver")
	}

	err = resilience.Do(ctx, p, func(ctx context.Context) error {
		return d.post(ctx, url, payload)
	})
	if err != nil {
		return eris.Wrapf(err, "webhook: deliver to %s", url)
	}

	zap.L().Info("webhook delivered",
		zap.String("url", url),
		zap.String("scan_id", result.ScanID),
	)
	return nil
}

func (d *Deliverer) post(ctx context.Context, url string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return resilience.Transient(err, 0)
	}
	defer resp.Body.Close() //nolint:errcheck
	io.Copy(io.Discard, resp.Body) //nolint:errcheck

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	statusErr := eris.Errorf("status %d", resp.StatusCode)
	if resilience.RetryableStatus(resp.StatusCode) {
		return resilience.Transient(statusErr, resp.StatusCode)
	}
	return statusErr
}
