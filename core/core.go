// Package core has core logic for scanning, scoring and ranking repositories.
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/riskscan/internal/contract"
	"github.com/huangsam/riskscan/internal/metrics"
	"github.com/huangsam/riskscan/internal/registry"
	"github.com/huangsam/riskscan/schema"
)

// Pipeline wires the collaborators of a scan. Stats is required; Stores and
// Metrics may be nil, in which case nothing is persisted or recorded.
type Pipeline struct {
	Stats   contract.StatsFetcher
	Stores  contract.StoreManager
	Metrics *metrics.Metrics
}

// ExecuteSearchScan discovers repositories with the GitHub search API and scans them.
func (p *Pipeline) ExecuteSearchScan(ctx context.Context, cfg *contract.Config) (*schema.ScanResult, error) {
	contract.LogInfo("Searching GitHub for %q (limit %d)...", cfg.Query, cfg.ResultLimit)
	repos, err := p.Stats.SearchRepositories(ctx, cfg.Query, cfg.ResultLimit)
	if err != nil {
		return nil, err
	}
	contract.LogInfo("Found %d repositories", len(repos))
	return p.ScanRepos(ctx, cfg, schema.SearchSource, repos)
}

// ExecuteRegistryScan discovers popular packages from one registry, keeps those
// hosted on GitHub with enough popularity, and scans their repositories.
func (p *Pipeline) ExecuteRegistryScan(ctx context.Context, cfg *contract.Config, src contract.RegistrySource) (*schema.ScanResult, error) {
	pkgs, err := src.DiscoverPopularPackages(ctx, cfg.ResultLimit, cfg.UseCache)
	if err != nil {
		return nil, fmt.Errorf("failed to discover %s packages: %w", src.Name(), err)
	}

	filtered, skipped := src.FilterByPopularity(pkgs, cfg.MinPopularity)
	p.Metrics.ObserveDiscovery(src.Name(), len(pkgs), skipped)
	contract.LogInfo("Kept %d of %d %s packages (%d skipped: no GitHub repo or popularity below %d)",
		len(filtered), len(pkgs), src.Name(), skipped, cfg.MinPopularity)

	repos := src.ToRepoRefs(filtered)
	if len(repos) == 0 {
		contract.LogInfo("No %s packages with GitHub repositories found.", src.Name())
		result := emptyResult(registrySource(src.Name()))
		result.PackagesSkipped = skipped
		return result, nil
	}
	if len(repos) < len(filtered) {
		contract.LogInfo("Merged %d packages into %d repositories", len(filtered), len(repos))
	}

	result, err := p.ScanRepos(ctx, cfg, registrySource(src.Name()), repos)
	if err != nil {
		return nil, err
	}
	result.PackagesSkipped = skipped
	return result, nil
}

// ExecuteManualScan scans repositories named on the command line. Each argument
// may be "owner/repo" or any GitHub URL form; anything else is rejected.
func (p *Pipeline) ExecuteManualScan(ctx context.Context, cfg *contract.Config, args []string) (*schema.ScanResult, error) {
	repos, err := ParseRepoArgs(args)
	if err != nil {
		return nil, err
	}
	return p.ScanRepos(ctx, cfg, schema.ManualSource, repos)
}

// ParseRepoArgs resolves user-supplied repository references, dropping duplicates.
func ParseRepoArgs(args []string) ([]schema.RepoRef, error) {
	seen := make(map[string]struct{}, len(args))
	repos := make([]schema.RepoRef, 0, len(args))
	for _, arg := range args {
		id, ok := registry.ParseGitHubURL(arg)
		if !ok {
			return nil, fmt.Errorf("%q is not a GitHub repository (expected owner/repo)", arg)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		repos = append(repos, schema.NewRepoRef(id, ""))
	}
	return repos, nil
}

// ScanRepos fetches, scores and persists one batch of repositories.
// An empty batch is a valid outcome: nothing is fetched or recorded.
// Per-repo fetch failures only lower the scored count; a failed store write
// aborts the scan. When cfg.BatchTimeout is set, fetches still running at the
// deadline end as unavailable and whatever completed is scored.
func (p *Pipeline) ScanRepos(ctx context.Context, cfg *contract.Config, source schema.ScanSource, repos []schema.RepoRef) (*schema.ScanResult, error) {
	if len(repos) == 0 {
		contract.LogInfo("No repositories to scan.")
		return emptyResult(source), nil
	}

	store := p.snapshotStore()
	runID := beginScan(store, source, cfg, len(repos))

	fetchCtx := ctx
	if cfg.BatchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, cfg.BatchTimeout)
		defer cancel()
	}

	contract.LogInfo("Fetching statistics for %d repositories (concurrency %d)...", len(repos), cfg.Concurrency)
	start := time.Now()
	records := p.Stats.FetchBatch(fetchCtx, repos)
	if errors.Is(fetchCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		contract.LogWarn("Batch deadline reached", fmt.Errorf("stopped outstanding fetches after %s", cfg.BatchTimeout))
	}

	scored := ScoreRecords(records)
	unavailable := countUnavailable(records)
	p.Metrics.ObserveScan(len(scored), unavailable)
	contract.LogInfo("Scored %d of %d repositories in %s (%d with unavailable data)",
		len(scored), len(repos), time.Since(start).Round(time.Millisecond), unavailable)

	if store != nil {
		if err := store.Upsert(ctx, scored); err != nil {
			return nil, fmt.Errorf("failed to write risk report: %w", err)
		}
	}

	summary := schema.ScanSummary{
		ReposRequested:   len(repos),
		ReposScored:      len(scored),
		ReposUnavailable: unavailable,
	}
	endScan(store, runID, summary)

	return &schema.ScanResult{
		RunID:   runID,
		Source:  source,
		Repos:   scored,
		Summary: summary,
	}, nil
}

// emptyResult is the result of a scan that had nothing to fetch.
func emptyResult(source schema.ScanSource) *schema.ScanResult {
	return &schema.ScanResult{Source: source, Repos: []schema.ScoredRepo{}}
}

// snapshotStore returns the configured store or nil.
func (p *Pipeline) snapshotStore() contract.SnapshotStore {
	if p.Stores == nil {
		return nil
	}
	return p.Stores.GetSnapshotStore()
}

// beginScan records the start of a run. Tracking failures are only warned about.
func beginScan(store contract.SnapshotStore, source schema.ScanSource, cfg *contract.Config, requested int) string {
	if store == nil {
		return ""
	}
	params := map[string]any{
		"query":          cfg.Query,
		"limit":          cfg.ResultLimit,
		"min_popularity": cfg.MinPopularity,
		"concurrency":    cfg.Concurrency,
		"use_cache":      cfg.UseCache,
		"batch_timeout":  cfg.BatchTimeout.String(),
		"requested":      requested,
	}
	runID, err := store.BeginScan(source, time.Now(), params)
	if err != nil {
		contract.LogWarn("Scan run tracking initialization failed", err)
		return ""
	}
	return runID
}

// endScan finalizes a run started by beginScan.
func endScan(store contract.SnapshotStore, runID string, summary schema.ScanSummary) {
	if store == nil || runID == "" {
		return
	}
	if err := store.EndScan(runID, time.Now(), summary); err != nil {
		contract.LogWarn("Failed to finalize scan run tracking", err)
	}
}

// registrySource maps a registry onto the scan source that reads from it.
func registrySource(reg schema.Registry) schema.ScanSource {
	switch reg {
	case schema.NPMRegistry:
		return schema.NPMSource
	case schema.PyPIRegistry:
		return schema.PyPISource
	case schema.MavenRegistry:
		return schema.MavenSource
	default:
		return schema.ScanSource(reg)
	}
}
