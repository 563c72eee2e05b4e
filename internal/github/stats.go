package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/huangsam/riskscan/internal/metrics"
	"github.com/huangsam/riskscan/schema"
)

// participationResponse is the body of /stats/participation.
type participationResponse struct {
	All   []int `json:"all"`
	Owner []int `json:"owner"`
}

// contributorStats is one entry of /stats/contributors.
type contributorStats struct {
	Total  int `json:"total"`
	Author *struct {
		Login string `json:"login"`
	} `json:"author"`
}

// errNoWeeklySeries marks a participation reply that carries no "all" series.
var errNoWeeklySeries = errors.New("participation reply has no weekly series")

// FetchParticipation returns the 52-week commit series for a repository, oldest week first.
// A reply without a series is an upstream error, not a year of zero commits.
func (c *Client) FetchParticipation(ctx context.Context, identifier string) ([]int, schema.FetchOutcome) {
	var weekly []int
	outcome := c.fetchStats(ctx, metrics.SignalParticipation, identifier, "stats/participation", func(body []byte) error {
		if len(bytes.TrimSpace(body)) == 0 {
			return errNoWeeklySeries
		}
		var resp participationResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return err
		}
		if len(resp.All) == 0 {
			return errNoWeeklySeries
		}
		weekly = resp.All
		return nil
	})
	if !outcome.Status.Available() {
		return nil, outcome
	}
	return weekly, outcome
}

// FetchContributors returns the commit total of every contributor to a repository.
func (c *Client) FetchContributors(ctx context.Context, identifier string) ([]int, schema.FetchOutcome) {
	var totals []int
	outcome := c.fetchStats(ctx, metrics.SignalContributors, identifier, "stats/contributors", func(body []byte) error {
		if len(bytes.TrimSpace(body)) == 0 {
			return nil
		}
		var resp []contributorStats
		if err := json.Unmarshal(body, &resp); err != nil {
			return err
		}
		totals = make([]int, 0, len(resp))
		for _, s := range resp {
			totals = append(totals, s.Total)
		}
		return nil
	})
	if !outcome.Status.Available() {
		return nil, outcome
	}
	if totals == nil {
		totals = []int{}
	}
	return totals, outcome
}

// fetchStats applies the retry policy shared by both statistics endpoints.
//
// 202 means the statistics are still being computed: wait attempt*pendingDelay and
// poll again. Transport errors wait networkDelay and try again. Everything else is
// terminal on first sight. The decode callback runs for 200 and 204 and sees an
// empty body for the latter.
func (c *Client) fetchStats(ctx context.Context, signal, identifier, suffix string, decode func([]byte) error) schema.FetchOutcome {
	start := time.Now()
	attempts := 0
	outcome := func() schema.FetchOutcome {
		owner, repo, ok := schema.SplitIdentifier(identifier)
		if !ok {
			return schema.Failed(schema.FetchNotFound, 0, fmt.Errorf("invalid repository identifier %q", identifier))
		}
		target := c.repoURL(owner, repo, suffix)

		var lastErr error
		for attempt := 1; attempt <= c.maxAttempts; attempt++ {
			attempts = attempt
			code, body, err := c.roundTrip(ctx, target)
			if err != nil {
				lastErr = err
				if ctx.Err() != nil {
					return schema.Failed(schema.FetchNetworkError, 0, ctx.Err())
				}
				if attempt < c.maxAttempts && !sleep(ctx, c.networkDelay) {
					return schema.Failed(schema.FetchNetworkError, 0, ctx.Err())
				}
				continue
			}

			switch code {
			case http.StatusOK, http.StatusNoContent:
				if code == http.StatusNoContent {
					body = nil
				}
				if err := decode(body); err != nil {
					return schema.Failed(schema.FetchUpstreamError, code, fmt.Errorf("failed to decode %s for %s: %w", signal, identifier, err))
				}
				return schema.Succeeded(code)
			case http.StatusAccepted:
				if attempt == c.maxAttempts {
					return schema.Failed(schema.FetchPendingCalculation, code, nil)
				}
				if !sleep(ctx, time.Duration(attempt)*c.pendingDelay) {
					return schema.Failed(schema.FetchNetworkError, code, ctx.Err())
				}
			case http.StatusNotFound:
				return schema.Failed(schema.FetchNotFound, code, nil)
			case http.StatusForbidden, http.StatusTooManyRequests:
				return schema.Failed(schema.FetchRateLimited, code, nil)
			default:
				return schema.Failed(schema.FetchUpstreamError, code, fmt.Errorf("unexpected status %d for %s", code, identifier))
			}
		}
		return schema.Failed(schema.FetchNetworkError, 0, lastErr)
	}()

	c.metrics.ObserveFetch(signal, outcome.Status, attempts, time.Since(start))
	return outcome
}
