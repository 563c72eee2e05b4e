//go:build integration

// Package integration contains integration tests for riskscan.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags integration ./integration
// Or use: make test-integration
package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/huangsam/riskscan/core"
	"github.com/huangsam/riskscan/internal/contract"
	"github.com/huangsam/riskscan/internal/github"
	"github.com/huangsam/riskscan/internal/iocache"
	"github.com/huangsam/riskscan/internal/metrics"
	"github.com/huangsam/riskscan/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedStores serves a single snapshot store without the process-wide manager.
type fixedStores struct {
	snapshot contract.SnapshotStore
}

func (f fixedStores) GetRegistryCache() contract.CacheStore     { return nil }
func (f fixedStores) GetSnapshotStore() contract.SnapshotStore { return f.snapshot }

// fakeGitHub serves the two statistics endpoints. The participation series
// answers 202 once before the data is ready.
func fakeGitHub(t *testing.T, weekly map[string][]int, contributors map[string][]int) *httptest.Server {
	t.Helper()
	var pending atomic.Bool
	pending.Store(true)

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/repos/"), "/")
		if len(parts) != 4 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		repo := parts[0] + "/" + parts[1]

		switch parts[3] {
		case "participation":
			series, ok := weekly[repo]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			if pending.CompareAndSwap(true, false) {
				w.WriteHeader(http.StatusAccepted)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string][]int{"all": series})
		case "contributors":
			totals, ok := contributors[repo]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			body := make([]map[string]int, 0, len(totals))
			for _, total := range totals {
				body = append(body, map[string]int{"total": total})
			}
			_ = json.NewEncoder(w).Encode(body)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

// TestScanVerification scans against a fake GitHub and verifies the persisted report.
func TestScanVerification(t *testing.T) {
	ctx := context.Background()
	declining := append(slices.Repeat([]int{5}, 39), slices.Repeat([]int{1}, 13)...)
	steady := slices.Repeat([]int{10}, 52)

	srv := fakeGitHub(t,
		map[string][]int{"octo/declining": declining, "octo/steady": steady},
		map[string][]int{"octo/declining": {90, 5, 5}, "octo/steady": {20, 20, 20, 20, 20, 20, 20, 20, 20, 20}},
	)
	defer srv.Close()

	store, err := iocache.NewSnapshotStore(schema.SQLiteBackend, filepath.Join(t.TempDir(), "risk_report.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	m := metrics.New()
	client := github.NewClient(github.Options{
		BaseURL:      srv.URL,
		Concurrency:  4,
		PendingDelay: 10 * time.Millisecond,
		NetworkDelay: 10 * time.Millisecond,
		Metrics:      m,
	})
	defer func() { _ = client.Close() }()

	cfg := &contract.Config{Concurrency: 4, ResultLimit: 10}
	p := &core.Pipeline{Stats: client, Stores: fixedStores{snapshot: store}, Metrics: m}

	result, err := p.ExecuteManualScan(ctx, cfg, []string{"octo/declining", "https://github.com/octo/steady", "octo/missing"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, schema.ScanSummary{ReposRequested: 3, ReposScored: 2, ReposUnavailable: 1}, result.Summary)

	rows, err := core.GetReport(ctx, store, schema.ReportQuery{SortBy: schema.SortByScore, Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	top := rows[0]
	assert.Equal(t, "octo/declining", top.Repo)
	assert.Equal(t, 208, top.TotalCommits)
	assert.Equal(t, 13, top.RecentCommits)
	assert.Equal(t, 65, top.OlderCommits)
	assert.Equal(t, 5, top.RiskVelocity)
	assert.Equal(t, 5, top.RiskConcentration)
	assert.InDelta(t, 8.5, top.TotalRiskScore, 1e-9)
	assert.Equal(t, schema.RiskCritical, top.RiskLevel)

	assert.Equal(t, "octo/steady", rows[1].Repo)
	assert.Equal(t, schema.RiskLow, rows[1].RiskLevel)

	runs, err := core.GetScanRuns(ctx, store, 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, schema.ManualSource, runs[0].Source)
	assert.Equal(t, 1, runs[0].ReposUnavailable)

	// A second scan of the same repo replaces its row instead of adding one.
	_, err = p.ExecuteManualScan(ctx, cfg, []string{"octo/declining"})
	require.NoError(t, err)
	rows, err = core.GetReport(ctx, store, schema.ReportQuery{SortBy: schema.SortByName})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

// TestCLIVerification checks the commands that run without network access.
func TestCLIVerification(t *testing.T) {
	dir := t.TempDir()
	noStores := []string{"--cache-backend", "none", "--store-backend", "none"}

	out, err := runRiskscan(t, dir, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "riskscan CLI")

	out, err = runRiskscan(t, dir, append([]string{"metrics"}, noStores...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "VELOCITY_RATIO")
	assert.Contains(t, out, "BUS_FACTOR")

	out, err = runRiskscan(t, dir, append([]string{"report", "--output", "json"}, noStores...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "[]")

	_, err = runRiskscan(t, dir, append([]string{"report", "--min-level", "severe"}, noStores...)...)
	assert.Error(t, err)

	_, err = runRiskscan(t, dir, "scan-maven", "--store-backend", "none", "--libraries-io-api-key", "")
	assert.Error(t, err)
}
