// Package registry discovers popular packages on npm, PyPI and Maven Central
// and maps them onto the GitHub repositories that host their source.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/huangsam/riskscan/internal/contract"
	"golang.org/x/time/rate"
)

// Sentinel errors that abort discovery instead of degrading it.
var (
	ErrMissingAPIKey = errors.New("a Libraries.io API key is required for maven discovery")
	ErrUnauthorized  = errors.New("libraries.io rejected the API key")
)

const (
	// DefaultTimeout bounds each registry request.
	DefaultTimeout = 30 * time.Second

	// DefaultConcurrency bounds parallel detail lookups per registry.
	DefaultConcurrency = 10

	maxDescriptionLen = 200
	maxBodyBytes      = 64 << 20
)

// Options configures a registry source. Zero values fall back to defaults.
type Options struct {
	Cache       contract.CacheStore
	HTTPClient  *http.Client
	Concurrency int

	// RateLimit paces requests to the registry. Zero selects the registry's own default.
	RateLimit rate.Limit
}

func (o Options) withDefaults(defaultRate rate.Limit) Options {
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.RateLimit == 0 {
		o.RateLimit = defaultRate
	}
	return o
}

// getBody performs a paced GET and returns the status code and body.
func getBody(ctx context.Context, client *http.Client, limiter *rate.Limiter, target string) (int, []byte, error) {
	if err := limiter.Wait(ctx); err != nil {
		return 0, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request for %s: %w", target, err)
	}
	req.Header.Set("User-Agent", "riskscan")

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read %s: %w", target, err)
	}
	return resp.StatusCode, body, nil
}

// getJSON performs a paced GET and decodes a 200 response into v.
// Non-200 statuses are returned without an error so callers can branch on them.
func getJSON(ctx context.Context, client *http.Client, limiter *rate.Limiter, target string, v any) (int, error) {
	code, body, err := getBody(ctx, client, limiter, target)
	if err != nil || code != http.StatusOK {
		return code, err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return code, fmt.Errorf("failed to decode %s: %w", target, err)
	}
	return code, nil
}

// truncateDescription keeps descriptions short enough for the cache and tables.
func truncateDescription(s string) string {
	runes := []rune(s)
	if len(runes) > maxDescriptionLen {
		return string(runes[:maxDescriptionLen])
	}
	return s
}
