package registry

import (
	"cmp"
	"context"
	"encoding/json"
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
	npmPageSize    = 250
	npmMinPerTerm  = 250
	npmOverfetch   = 100
	npmLanguage    = "JavaScript"
	npmDefaultRate = rate.Limit(10)
)

// npmSearchTerms are broad keywords. The search API needs a text query, so
// several terms are combined to reach a diverse set of popular packages.
var npmSearchTerms = []string{
	"keywords:javascript",
	"keywords:typescript",
	"keywords:nodejs",
	"keywords:react",
	"keywords:vue",
	"keywords:util",
	"keywords:cli",
	"keywords:library",
}

type npmSearchResponse struct {
	Objects []struct {
		Package struct {
			Name        string `json:"name"`
			Version     string `json:"version"`
			Description string `json:"description"`
			Links       struct {
				Repository string `json:"repository"`
				Homepage   string `json:"homepage"`
			} `json:"links"`
		} `json:"package"`
		Downloads struct {
			Weekly int64 `json:"weekly"`
		} `json:"downloads"`
	} `json:"objects"`
}

// npmPackument is the subset of a registry document used for repository lookups.
// Repository is either an object with a url or a plain string.
type npmPackument struct {
	Repository json.RawMessage `json:"repository"`
	Homepage   string          `json:"homepage"`
}

// NPM discovers popular packages from the npm registry search API.
type NPM struct {
	SearchURL   string
	RegistryURL string

	http        *http.Client
	cache       contract.CacheStore
	limiter     *rate.Limiter
	concurrency int
}

var _ contract.RegistrySource = &NPM{} // Compile-time check

// NewNPM creates an npm source.
func NewNPM(opts Options) *NPM {
	opts = opts.withDefaults(npmDefaultRate)
	return &NPM{
		SearchURL:   "https://registry.npmjs.org/-/v1/search",
		RegistryURL: "https://registry.npmjs.org",
		http:        opts.HTTPClient,
		cache:       opts.Cache,
		limiter:     rate.NewLimiter(opts.RateLimit, 1),
		concurrency: opts.Concurrency,
	}
}

// Name returns the npm registry.
func (n *NPM) Name() schema.Registry { return schema.NPMRegistry }

// Close releases idle connections.
func (n *NPM) Close() error {
	n.http.CloseIdleConnections()
	return nil
}

// DiscoverPopularPackages returns up to maxResults packages ordered by weekly downloads.
func (n *NPM) DiscoverPopularPackages(ctx context.Context, maxResults int, useCache bool) ([]schema.Package, error) {
	key := CacheKey(schema.NPMRegistry, maxResults)
	if useCache {
		if pkgs, ok := loadCached(n.cache, key); ok {
			contract.LogInfo("Loaded %d npm packages from cache", len(pkgs))
			return pkgs, nil
		}
	}

	contract.LogInfo("Fetching top %d npm packages...", maxResults)
	pkgs, err := n.searchPopular(ctx, maxResults)
	if err != nil {
		return nil, err
	}
	contract.LogInfo("Found %d unique npm packages", len(pkgs))

	if err := n.resolveRepos(ctx, pkgs); err != nil {
		return nil, err
	}

	if useCache {
		storeCached(n.cache, key, pkgs)
	}
	return pkgs, nil
}

// FilterByPopularity keeps packages with a repository and at least minPopularity weekly downloads.
func (n *NPM) FilterByPopularity(pkgs []schema.Package, minPopularity int64) ([]schema.Package, int) {
	return filterGitHubPackages(pkgs, minPopularity)
}

// ToRepoRefs converts packages into repositories to fetch.
func (n *NPM) ToRepoRefs(pkgs []schema.Package) []schema.RepoRef {
	return toRepoRefs(pkgs, schema.NPMRegistry, npmLanguage)
}

// searchPopular runs every search term, dedupes by package name, and keeps the
// maxResults most downloaded.
func (n *NPM) searchPopular(ctx context.Context, maxResults int) ([]schema.Package, error) {
	perTerm := max(npmMinPerTerm, maxResults/len(npmSearchTerms)+npmOverfetch)
	results := make([][]schema.Package, len(npmSearchTerms))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n.concurrency)
	for i, term := range npmSearchTerms {
		g.Go(func() error {
			pkgs, err := n.searchTerm(gctx, term, perTerm)
			results[i] = pkgs
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var pkgs []schema.Package
	for _, termPkgs := range results {
		for _, p := range termPkgs {
			if _, dup := seen[p.Name]; dup {
				continue
			}
			seen[p.Name] = struct{}{}
			pkgs = append(pkgs, p)
		}
	}

	slices.SortStableFunc(pkgs, func(a, b schema.Package) int {
		return cmp.Compare(b.Popularity, a.Popularity)
	})
	if len(pkgs) > maxResults {
		pkgs = pkgs[:maxResults]
	}
	return pkgs, nil
}

// searchTerm pages through one term until its budget is met or results run out.
// Upstream failures end the term early; only cancellation is returned as an error.
func (n *NPM) searchTerm(ctx context.Context, term string, budget int) ([]schema.Package, error) {
	var pkgs []schema.Package
	for from := 0; len(pkgs) < budget; from += npmPageSize {
		params := url.Values{}
		params.Set("text", term)
		params.Set("size", fmt.Sprint(min(npmPageSize, budget-len(pkgs))))
		params.Set("from", fmt.Sprint(from))
		params.Set("popularity", "1.0")
		params.Set("quality", "0.0")
		params.Set("maintenance", "0.0")

		var resp npmSearchResponse
		code, err := getJSON(ctx, n.http, n.limiter, n.SearchURL+"?"+params.Encode(), &resp)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err != nil {
			contract.LogWarn(fmt.Sprintf("npm search failed for %q", term), err)
			break
		}
		if code != http.StatusOK {
			contract.LogWarn(fmt.Sprintf("npm search failed for %q", term), fmt.Errorf("status %d", code))
			break
		}
		if len(resp.Objects) == 0 {
			break
		}

		for _, obj := range resp.Objects {
			if obj.Package.Name == "" {
				continue
			}
			pkgs = append(pkgs, schema.Package{
				Name:          obj.Package.Name,
				Version:       obj.Package.Version,
				Description:   truncateDescription(obj.Package.Description),
				RepositoryURL: obj.Package.Links.Repository,
				Homepage:      obj.Package.Links.Homepage,
				Popularity:    obj.Downloads.Weekly,
				Language:      npmLanguage,
				Registry:      schema.NPMRegistry,
			})
		}
	}
	return pkgs, nil
}

// resolveRepos fills GitHubRepo in place. Packages without a repository link in
// the search results are looked up in the registry document.
func (n *NPM) resolveRepos(ctx context.Context, pkgs []schema.Package) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n.concurrency)

	for i := range pkgs {
		p := &pkgs[i]
		if p.RepositoryURL != "" {
			p.GitHubRepo = firstGitHubRepo(p.RepositoryURL, p.Homepage)
			continue
		}
		g.Go(func() error {
			doc, err := n.lookup(gctx, p.Name)
			if gctx.Err() != nil {
				return gctx.Err()
			}
			if err != nil {
				contract.LogWarn(fmt.Sprintf("npm lookup failed for %s", p.Name), err)
			}
			if doc != nil {
				if repoURL := doc.repositoryURL(); repoURL != "" {
					p.RepositoryURL = repoURL
				}
				if p.Homepage == "" {
					p.Homepage = doc.Homepage
				}
			}
			p.GitHubRepo = firstGitHubRepo(p.RepositoryURL, p.Homepage)
			return nil
		})
	}
	return g.Wait()
}

// lookup fetches the registry document for one package. A non-200 yields nil.
func (n *NPM) lookup(ctx context.Context, name string) (*npmPackument, error) {
	var doc npmPackument
	target := strings.TrimSuffix(n.RegistryURL, "/") + "/" + url.PathEscape(name)
	code, err := getJSON(ctx, n.http, n.limiter, target, &doc)
	if err != nil || code != http.StatusOK {
		return nil, err
	}
	return &doc, nil
}

// repositoryURL reads the repository field in either of its published shapes.
func (d *npmPackument) repositoryURL() string {
	if len(d.Repository) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(d.Repository, &s); err == nil {
		return s
	}
	var obj struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(d.Repository, &obj); err == nil {
		return obj.URL
	}
	return ""
}
