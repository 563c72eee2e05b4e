package registry

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/huangsam/riskscan/internal/contract"
	"github.com/huangsam/riskscan/schema"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	pypiLanguage    = "Python"
	pypiDefaultRate = rate.Limit(20)
)

// pypiSourceKeys are the project_urls keys checked first, in priority order.
var pypiSourceKeys = []string{"Source", "Source Code", "Repository", "GitHub", "Homepage", "Code"}

type pypiTopPackages struct {
	Rows []struct {
		Project       string `json:"project"`
		DownloadCount int64  `json:"download_count"`
	} `json:"rows"`
}

type pypiProject struct {
	Info struct {
		Version     string            `json:"version"`
		Summary     string            `json:"summary"`
		HomePage    string            `json:"home_page"`
		ProjectURLs map[string]string `json:"project_urls"`
	} `json:"info"`
}

// PyPI discovers popular packages from the published top-packages dataset and
// the PyPI JSON API.
type PyPI struct {
	TopPackagesURL string
	APIURL         string

	http        *http.Client
	cache       contract.CacheStore
	limiter     *rate.Limiter
	concurrency int
}

var _ contract.RegistrySource = &PyPI{} // Compile-time check

// NewPyPI creates a PyPI source.
func NewPyPI(opts Options) *PyPI {
	opts = opts.withDefaults(pypiDefaultRate)
	return &PyPI{
		TopPackagesURL: "https://hugovk.github.io/top-pypi-packages/top-pypi-packages-30-days.min.json",
		APIURL:         "https://pypi.org/pypi",
		http:           opts.HTTPClient,
		cache:          opts.Cache,
		limiter:        rate.NewLimiter(opts.RateLimit, opts.Concurrency),
		concurrency:    opts.Concurrency,
	}
}

// Name returns the PyPI registry.
func (p *PyPI) Name() schema.Registry { return schema.PyPIRegistry }

// Close releases idle connections.
func (p *PyPI) Close() error {
	p.http.CloseIdleConnections()
	return nil
}

// DiscoverPopularPackages returns up to maxResults packages ordered by monthly downloads.
// Packages whose details cannot be fetched are left out.
func (p *PyPI) DiscoverPopularPackages(ctx context.Context, maxResults int, useCache bool) ([]schema.Package, error) {
	key := CacheKey(schema.PyPIRegistry, maxResults)
	if useCache {
		if pkgs, ok := loadCached(p.cache, key); ok {
			contract.LogInfo("Loaded %d pypi packages from cache", len(pkgs))
			return pkgs, nil
		}
	}

	contract.LogInfo("Fetching top %d pypi packages...", maxResults)
	var top pypiTopPackages
	code, err := getJSON(ctx, p.http, p.limiter, p.TopPackagesURL, &top)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch top pypi packages: %w", err)
	}
	if code != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch top pypi packages: status %d", code)
	}
	rows := top.Rows
	if len(rows) > maxResults {
		rows = rows[:maxResults]
	}

	details := make([]*schema.Package, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, row := range rows {
		g.Go(func() error {
			pkg, err := p.fetchDetails(gctx, row.Project, row.DownloadCount)
			if gctx.Err() != nil {
				return gctx.Err()
			}
			if err != nil {
				contract.LogWarn(fmt.Sprintf("pypi lookup failed for %s", row.Project), err)
			}
			details[i] = pkg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pkgs := make([]schema.Package, 0, len(details))
	for _, d := range details {
		if d != nil {
			pkgs = append(pkgs, *d)
		}
	}
	contract.LogInfo("Fetched details for %d pypi packages", len(pkgs))

	if useCache {
		storeCached(p.cache, key, pkgs)
	}
	return pkgs, nil
}

// FilterByPopularity keeps packages with a repository and at least minPopularity monthly downloads.
func (p *PyPI) FilterByPopularity(pkgs []schema.Package, minPopularity int64) ([]schema.Package, int) {
	return filterGitHubPackages(pkgs, minPopularity)
}

// ToRepoRefs converts packages into repositories to fetch.
func (p *PyPI) ToRepoRefs(pkgs []schema.Package) []schema.RepoRef {
	return toRepoRefs(pkgs, schema.PyPIRegistry, pypiLanguage)
}

// fetchDetails reads one project from the JSON API. A non-200 yields nil.
func (p *PyPI) fetchDetails(ctx context.Context, name string, downloads int64) (*schema.Package, error) {
	var proj pypiProject
	target := strings.TrimSuffix(p.APIURL, "/") + "/" + url.PathEscape(name) + "/json"
	code, err := getJSON(ctx, p.http, p.limiter, target, &proj)
	if err != nil || code != http.StatusOK {
		return nil, err
	}

	info := proj.Info
	return &schema.Package{
		Name:          name,
		Version:       info.Version,
		Description:   truncateDescription(info.Summary),
		RepositoryURL: sourceURL(info.ProjectURLs),
		Homepage:      info.HomePage,
		GitHubRepo:    resolvePyPIRepo(info.ProjectURLs, info.HomePage),
		Popularity:    downloads,
		Language:      pypiLanguage,
		Registry:      schema.PyPIRegistry,
	}, nil
}

// resolvePyPIRepo checks the well-known project_urls keys, then home_page,
// then every remaining project_urls value in key order.
func resolvePyPIRepo(projectURLs map[string]string, homePage string) string {
	for _, key := range pypiSourceKeys {
		if repo, ok := ParseGitHubURL(projectURLs[key]); ok {
			return repo
		}
	}
	if repo, ok := ParseGitHubURL(homePage); ok {
		return repo
	}
	keys := make([]string, 0, len(projectURLs))
	for k := range projectURLs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if repo, ok := ParseGitHubURL(projectURLs[k]); ok {
			return repo
		}
	}
	return ""
}

// sourceURL returns the first well-known source link for display.
func sourceURL(projectURLs map[string]string) string {
	for _, key := range pypiSourceKeys {
		if u := projectURLs[key]; u != "" {
			return u
		}
	}
	return ""
}
