package registry

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/huangsam/riskscan/internal/contract"
	"github.com/huangsam/riskscan/schema"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	mavenPageSize      = 100
	mavenMaxPOMLookups = 100
	mavenLanguage      = "Java"

	// Libraries.io allows 60 requests per minute.
	mavenDefaultRate = rate.Limit(1)
	pomDefaultRate   = rate.Limit(20)

	// DefaultRateLimitWait is how long to back off after a 429 from Libraries.io.
	DefaultRateLimitWait = 60 * time.Second
)

type librariesIOProject struct {
	Name                string `json:"name"`
	LatestReleaseNumber string `json:"latest_release_number"`
	Description         string `json:"description"`
	Language            string `json:"language"`
	Homepage            string `json:"homepage"`
	RepositoryURL       string `json:"repository_url"`
	DependentsCount     int64  `json:"dependents_count"`
}

// pomProject is the subset of a POM that can point at a source repository.
// Field tags carry no namespace so both namespaced and bare POMs decode.
type pomProject struct {
	URL string `xml:"url"`
	SCM struct {
		URL                 string `xml:"url"`
		Connection          string `xml:"connection"`
		DeveloperConnection string `xml:"developerConnection"`
	} `xml:"scm"`
	IssueManagement struct {
		URL string `xml:"url"`
	} `xml:"issueManagement"`
}

// Maven discovers popular artifacts through Libraries.io, ranked by dependents,
// and falls back to Maven Central POM files for repository links.
type Maven struct {
	LibrariesIOURL  string
	MavenCentralURL string
	RateLimitWait   time.Duration

	apiKey      string
	http        *http.Client
	cache       contract.CacheStore
	limiter     *rate.Limiter
	pomLimiter  *rate.Limiter
	concurrency int
}

var _ contract.RegistrySource = &Maven{} // Compile-time check

// NewMaven creates a Maven source authenticated with a Libraries.io API key.
func NewMaven(apiKey string, opts Options) *Maven {
	opts = opts.withDefaults(mavenDefaultRate)
	pomRate := pomDefaultRate
	if opts.RateLimit > pomRate {
		pomRate = opts.RateLimit
	}
	return &Maven{
		LibrariesIOURL:  "https://libraries.io/api",
		MavenCentralURL: "https://repo1.maven.org/maven2",
		RateLimitWait:   DefaultRateLimitWait,
		apiKey:          strings.TrimSpace(apiKey),
		http:            opts.HTTPClient,
		cache:           opts.Cache,
		limiter:         rate.NewLimiter(opts.RateLimit, 1),
		pomLimiter:      rate.NewLimiter(pomRate, 1),
		concurrency:     opts.Concurrency,
	}
}

// Name returns the Maven registry.
func (m *Maven) Name() schema.Registry { return schema.MavenRegistry }

// Close releases idle connections.
func (m *Maven) Close() error {
	m.http.CloseIdleConnections()
	return nil
}

// DiscoverPopularPackages returns up to maxResults artifacts ordered by dependents count.
func (m *Maven) DiscoverPopularPackages(ctx context.Context, maxResults int, useCache bool) ([]schema.Package, error) {
	key := CacheKey(schema.MavenRegistry, maxResults)
	if useCache {
		if pkgs, ok := loadCached(m.cache, key); ok {
			contract.LogInfo("Loaded %d maven packages from cache", len(pkgs))
			return pkgs, nil
		}
	}
	if m.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	contract.LogInfo("Fetching top %d maven packages from Libraries.io...", maxResults)
	pkgs, err := m.searchPopular(ctx, maxResults)
	if err != nil {
		return nil, err
	}
	contract.LogInfo("Found %d maven packages", len(pkgs))

	if err := m.resolveFromPOMs(ctx, pkgs); err != nil {
		return nil, err
	}

	if useCache {
		storeCached(m.cache, key, pkgs)
	}
	return pkgs, nil
}

// FilterByPopularity keeps packages with a repository and at least minPopularity dependents.
func (m *Maven) FilterByPopularity(pkgs []schema.Package, minPopularity int64) ([]schema.Package, int) {
	return filterGitHubPackages(pkgs, minPopularity)
}

// ToRepoRefs converts packages into repositories to fetch.
func (m *Maven) ToRepoRefs(pkgs []schema.Package) []schema.RepoRef {
	return toRepoRefs(pkgs, schema.MavenRegistry, mavenLanguage)
}

// searchPopular pages through Libraries.io until maxResults are collected.
func (m *Maven) searchPopular(ctx context.Context, maxResults int) ([]schema.Package, error) {
	var pkgs []schema.Package
	for page := 1; len(pkgs) < maxResults; {
		params := url.Values{}
		params.Set("api_key", m.apiKey)
		params.Set("platforms", "Maven")
		params.Set("sort", "dependents_count")
		params.Set("per_page", fmt.Sprint(min(mavenPageSize, maxResults-len(pkgs))))
		params.Set("page", fmt.Sprint(page))
		target := strings.TrimSuffix(m.LibrariesIOURL, "/") + "/search?" + params.Encode()

		var projects []librariesIOProject
		code, err := getJSON(ctx, m.http, m.limiter, target, &projects)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err != nil {
			contract.LogWarn("Libraries.io search failed", err)
			break
		}

		switch code {
		case http.StatusOK:
		case http.StatusUnauthorized:
			return nil, ErrUnauthorized
		case http.StatusTooManyRequests:
			contract.LogInfo("Rate limited by Libraries.io. Waiting %s...", m.RateLimitWait)
			if !sleep(ctx, m.RateLimitWait) {
				return nil, ctx.Err()
			}
			continue
		default:
			contract.LogWarn("Libraries.io search stopped", fmt.Errorf("status %d", code))
			return trimPackages(pkgs, maxResults), nil
		}

		if len(projects) == 0 {
			break
		}
		for _, proj := range projects {
			language := proj.Language
			if language == "" {
				language = mavenLanguage
			}
			pkgs = append(pkgs, schema.Package{
				Name:          proj.Name,
				Version:       proj.LatestReleaseNumber,
				Description:   truncateDescription(proj.Description),
				RepositoryURL: proj.RepositoryURL,
				Homepage:      proj.Homepage,
				GitHubRepo:    firstGitHubRepo(proj.RepositoryURL),
				Popularity:    proj.DependentsCount,
				Language:      language,
				Registry:      schema.MavenRegistry,
			})
		}
		page++
	}
	return trimPackages(pkgs, maxResults), nil
}

// resolveFromPOMs fills GitHubRepo from Maven Central POMs for a bounded number
// of unresolved group:artifact coordinates.
func (m *Maven) resolveFromPOMs(ctx context.Context, pkgs []schema.Package) error {
	var pending []*schema.Package
	for i := range pkgs {
		if pkgs[i].GitHubRepo == "" && strings.Contains(pkgs[i].Name, ":") {
			pending = append(pending, &pkgs[i])
		}
	}
	if len(pending) > mavenMaxPOMLookups {
		pending = pending[:mavenMaxPOMLookups]
	}
	if len(pending) == 0 {
		return nil
	}
	contract.LogInfo("Resolving repositories from POM files for %d packages...", len(pending))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)
	for _, p := range pending {
		if p.Version == "" {
			continue
		}
		g.Go(func() error {
			code, body, err := getBody(gctx, m.http, m.pomLimiter, m.pomURL(p.Name, p.Version))
			if gctx.Err() != nil {
				return gctx.Err()
			}
			if err != nil || code != http.StatusOK {
				return nil
			}
			if repo, ok := ParseGitHubFromPOM(body); ok {
				p.GitHubRepo = repo
			}
			return nil
		})
	}
	return g.Wait()
}

// pomURL builds the Maven Central path for group:artifact at version.
func (m *Maven) pomURL(coordinate, version string) string {
	group, artifact, _ := strings.Cut(coordinate, ":")
	groupPath := strings.ReplaceAll(group, ".", "/")
	return fmt.Sprintf("%s/%s/%s/%s/%s-%s.pom",
		strings.TrimSuffix(m.MavenCentralURL, "/"), groupPath, artifact, version, artifact, version)
}

// ParseGitHubFromPOM finds a GitHub repository in POM XML. It checks the scm url,
// connection and developerConnection, then a project url mentioning github,
// then the issue tracker url.
func ParseGitHubFromPOM(data []byte) (string, bool) {
	var pom pomProject
	if err := xml.Unmarshal(data, &pom); err != nil {
		return "", false
	}

	candidates := []string{pom.SCM.URL, pom.SCM.Connection, pom.SCM.DeveloperConnection}
	if strings.Contains(strings.ToLower(pom.URL), "github") {
		candidates = append(candidates, pom.URL)
	}
	candidates = append(candidates, pom.IssueManagement.URL)

	repo := firstGitHubRepo(candidates...)
	return repo, repo != ""
}

func trimPackages(pkgs []schema.Package, n int) []schema.Package {
	if len(pkgs) > n {
		return pkgs[:n]
	}
	return pkgs
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
