// Package insights forwards dashboard analysis requests to the upstream
// language-model completion API, shielding the browser from the API key
// and from transient upstream rate limiting.
package insights

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/okian/huddle/pkg/logger"
	"github.com/okian/huddle/pkg/metrics"
)

const (
	defaultEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.5-pro:generateContent"

	defaultMaxAttempts = 4
	defaultBackoff     = time.Second
)

// Option applies a configuration option to the Proxy.
type Option func(*Proxy)

// WithEndpoint overrides the upstream completion endpoint.
func WithEndpoint(endpoint string) Option {
	return func(p *Proxy) {
		if endpoint != "" {
			p.endpoint = endpoint
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(p *Proxy) {
		if hc != nil {
			p.http = hc
		}
	}
}

// WithMaxAttempts bounds how many times one request is tried.
func WithMaxAttempts(n int) Option {
	return func(p *Proxy) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// WithBackoff sets the initial retry delay. The delay doubles per retry.
func WithBackoff(d time.Duration) Option {
	return func(p *Proxy) {
		if d >= 0 {
			p.backoff = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(p *Proxy) {
		if log != nil {
			p.log = log
		}
	}
}

// Proxy relays completion requests upstream with the server-held API key.
type Proxy struct {
	endpoint    string
	apiKey      string
	http        *http.Client
	maxAttempts int
	backoff     time.Duration
	log         logger.Logger
}

// NewProxy creates a completion proxy authenticated with the given key.
func NewProxy(apiKey string, opts ...Option) *Proxy {
	p := &Proxy{
		endpoint:    defaultEndpoint,
		apiKey:      apiKey,
		http:        &http.Client{Timeout: 60 * time.Second},
		maxAttempts: defaultMaxAttempts,
		backoff:     defaultBackoff,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Result is the upstream's terminal answer, relayed verbatim.
type Result struct {
	StatusCode int
	Body       []byte
}

// Forward relays one request body upstream. Rate-limit answers (429) are
// retried with exponential backoff up to the attempt bound; every other
// status is terminal and passed through as-is, success or not. The key is
// injected as a query parameter and never appears in the relayed body.
func (p *Proxy) Forward(ctx context.Context, body []byte) (Result, error) {
	u := p.endpoint + "?key=" + url.QueryEscape(p.apiKey)

	delay := p.backoff
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		res, err := p.post(ctx, u, body)
		if err != nil {
			return Result{}, err
		}
		if res.StatusCode != http.StatusTooManyRequests {
			metrics.RecordProxyRequest(strconv.Itoa(res.StatusCode))
			return res, nil
		}

		if attempt == p.maxAttempts {
			break
		}
		metrics.RecordProxyRetry()
		if p.log != nil {
			p.log.Warn(ctx, "upstream rate limited, backing off",
				logger.Int("attempt", attempt),
				logger.Duration("delay", delay))
		}
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	metrics.RecordProxyRequest(strconv.Itoa(http.StatusTooManyRequests))
	return Result{}, fmt.Errorf("%w: rate limited after %d attempts", ErrRateLimited, p.maxAttempts)
}

// post performs one upstream attempt.
func (p *Proxy) post(ctx context.Context, u string, body []byte) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return Result{StatusCode: resp.StatusCode, Body: respBody}, nil
}
