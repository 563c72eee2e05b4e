package cmd

import (
	"time"

	"github.com/huangsam/riskscan/core"
	"github.com/huangsam/riskscan/internal/contract"
	"github.com/huangsam/riskscan/internal/github"
	"github.com/huangsam/riskscan/internal/outwriter"
	"github.com/huangsam/riskscan/internal/registry"
	"github.com/huangsam/riskscan/schema"
	"github.com/spf13/cobra"
)

// newPipeline wires the GitHub client, the stores and the metrics sink.
func newPipeline() *core.Pipeline {
	if cfg.GitHubToken == "" {
		contract.LogInfo("No GitHub token configured. Unauthenticated requests are limited to 60 per hour.")
	}
	return &core.Pipeline{
		Stats: github.NewClient(github.Options{
			Token:       cfg.GitHubToken,
			Concurrency: cfg.Concurrency,
			Metrics:     scanMetrics,
		}),
		Stores:  storeManager,
		Metrics: scanMetrics,
	}
}

// registryOptions builds the shared options for a registry source.
func registryOptions() registry.Options {
	return registry.Options{
		Cache:       storeManager.GetRegistryCache(),
		Concurrency: cfg.Concurrency,
	}
}

// runRegistryScan discovers packages from src, then scans and prints their repositories.
func runRegistryScan(src contract.RegistrySource) error {
	defer func() { _ = src.Close() }()
	p := newPipeline()
	defer func() { _ = p.Stats.Close() }()

	start := time.Now()
	result, err := p.ExecuteRegistryScan(rootCtx, cfg, src)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteScan(result, cfg, time.Since(start))
}

// scanCmd scores repositories given on the command line or found by search.
var scanCmd = &cobra.Command{
	Use:   "scan [repos...]",
	Short: "Score GitHub repositories by maintainer risk",
	Long: `Fetch weekly commit activity and contributor statistics for GitHub
repositories and score them for maintainer risk.

With arguments, each argument is a repository as owner/repo or any GitHub
URL form (https, git+https, git@). Without arguments, repositories are
discovered with the GitHub search API using --query.

Scores are written to the snapshot store, replacing earlier rows for the
same repository, and the riskiest results are printed.

Examples:
  # Score specific repositories
  riskscan scan lodash/lodash https://github.com/expressjs/express

  # Score the 200 most starred Go repositories
  riskscan scan --query "language:go stars:>5000" --limit 200

  # Write the full result to JSON
  riskscan scan vuejs/vue --output json --output-file vue.json`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, args []string) error {
		p := newPipeline()
		defer func() { _ = p.Stats.Close() }()

		start := time.Now()
		var (
			result *schema.ScanResult
			err    error
		)
		if len(args) > 0 {
			result, err = p.ExecuteManualScan(rootCtx, cfg, args)
		} else {
			result, err = p.ExecuteSearchScan(rootCtx, cfg)
		}
		if err != nil {
			return err
		}
		return outwriter.NewOutWriter().WriteScan(result, cfg, time.Since(start))
	},
}

// scanNPMCmd scores the repositories behind popular npm packages.
var scanNPMCmd = &cobra.Command{
	Use:   "scan-npm",
	Short: "Score the repositories behind the most downloaded npm packages",
	Long: `Discover popular npm packages, resolve their GitHub repositories, and
score those repositories for maintainer risk.

Popularity is weekly downloads. Packages without a GitHub repository or
below --min-popularity are skipped. When several packages share a
repository, the most popular one is kept.

Examples:
  # Scan the top 1000 npm packages (default)
  riskscan scan-npm

  # A quick pass over the top 100 with a higher threshold
  riskscan scan-npm --limit 100 --min-popularity 1000000`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return runRegistryScan(registry.NewNPM(registryOptions()))
	},
}

// scanPyPICmd scores the repositories behind popular PyPI packages.
var scanPyPICmd = &cobra.Command{
	Use:   "scan-pypi",
	Short: "Score the repositories behind the most downloaded PyPI packages",
	Long: `Discover popular PyPI packages from the public top-packages list, resolve
their GitHub repositories from project metadata, and score those
repositories for maintainer risk.

Popularity is monthly downloads.

Examples:
  # Scan the top 1000 PyPI packages (default)
  riskscan scan-pypi

  # Only packages with at least a million monthly downloads
  riskscan scan-pypi --min-popularity 1000000`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return runRegistryScan(registry.NewPyPI(registryOptions()))
	},
}

// scanMavenCmd scores the repositories behind widely depended-on Maven artifacts.
var scanMavenCmd = &cobra.Command{
	Use:   "scan-maven",
	Short: "Score the repositories behind the most depended-on Maven artifacts",
	Long: `Discover popular Maven artifacts through Libraries.io, resolve their
GitHub repositories from the POM, and score those repositories for
maintainer risk.

Popularity is the number of dependent repositories. A Libraries.io API
key is required, via --libraries-io-api-key or LIBRARIES_IO_API_KEY.

Examples:
  LIBRARIES_IO_API_KEY=... riskscan scan-maven --limit 200`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		if cfg.LibrariesIOAPIKey == "" {
			return registry.ErrMissingAPIKey
		}
		return runRegistryScan(registry.NewMaven(cfg.LibrariesIOAPIKey, registryOptions()))
	},
}
