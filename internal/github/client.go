// Package github fetches repository statistics from the GitHub REST API.
package github

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/huangsam/riskscan/internal/contract"
	"github.com/huangsam/riskscan/internal/metrics"
	"golang.org/x/sync/semaphore"
)

// Defaults for the statistics client.
const (
	DefaultBaseURL      = "https://api.github.com"
	DefaultMaxAttempts  = 5
	DefaultPendingDelay = 2 * time.Second
	DefaultNetworkDelay = 1 * time.Second
	DefaultTimeout      = 30 * time.Second

	acceptHeader = "application/vnd.github.v3+json"
	userAgent    = "riskscan"
	maxBodyBytes = 32 << 20
)

// Options configures a Client. Zero values fall back to the defaults above.
type Options struct {
	BaseURL      string
	Token        string
	Concurrency  int
	MaxAttempts  int
	PendingDelay time.Duration
	NetworkDelay time.Duration
	HTTPClient   *http.Client
	Metrics      *metrics.Metrics
}

// Client talks to the statistics endpoints. It owns its HTTP client and its
// concurrency gate; one gate is shared by every request the client makes.
type Client struct {
	baseURL      string
	token        string
	http         *http.Client
	gate         *semaphore.Weighted
	maxAttempts  int
	pendingDelay time.Duration
	networkDelay time.Duration
	metrics      *metrics.Metrics
}

var _ contract.StatsFetcher = &Client{} // Compile-time check

// NewClient builds a Client from options.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = contract.DefaultConcurrency
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.PendingDelay <= 0 {
		opts.PendingDelay = DefaultPendingDelay
	}
	if opts.NetworkDelay <= 0 {
		opts.NetworkDelay = DefaultNetworkDelay
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	}

	return &Client{
		baseURL:      opts.BaseURL,
		token:        opts.Token,
		http:         opts.HTTPClient,
		gate:         semaphore.NewWeighted(int64(opts.Concurrency)),
		maxAttempts:  opts.MaxAttempts,
		pendingDelay: opts.PendingDelay,
		networkDelay: opts.NetworkDelay,
		metrics:      opts.Metrics,
	}
}

// Close releases idle connections held by the client.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// repoURL builds an API URL under /repos/{owner}/{repo}.
func (c *Client) repoURL(owner, repo, suffix string) string {
	return fmt.Sprintf("%s/repos/%s/%s/%s", c.baseURL, url.PathEscape(owner), url.PathEscape(repo), suffix)
}

// roundTrip performs a single GET while holding one slot of the gate.
// The slot is released before returning, so callers never sleep while holding it.
func (c *Client) roundTrip(ctx context.Context, target string) (int, []byte, error) {
	if err := c.gate.Acquire(ctx, 1); err != nil {
		return 0, nil, err
	}
	defer c.gate.Release(1)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request for %s: %w", target, err)
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return resp.StatusCode, body, nil
}

// sleep waits for d or until ctx is done. It reports whether the full delay elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
