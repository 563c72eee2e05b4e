package schema

import "strings"

// UnknownLanguage is used when a repository's primary language cannot be resolved.
const UnknownLanguage = "Unknown"

// RepoRef identifies a single repository to analyze.
// Identifier is the "owner/repo" form and is the global key for every downstream record.
type RepoRef struct {
	Identifier string       `json:"identifier"`
	Language   string       `json:"language"`
	Package    *PackageMeta `json:"package,omitempty"`
}

// PackageMeta is optional enrichment attached to a repository discovered through a registry.
// Popularity is registry-specific: weekly downloads for npm, monthly downloads for
// pypi, dependents count for maven. It is never compared across registries.
type PackageMeta struct {
	Registry    Registry `json:"registry"`
	PackageName string   `json:"package_name"`
	Popularity  int64    `json:"popularity"`
}

// Package is one discovered registry package together with whatever repository
// metadata the registry exposed. Lists of these are what the registry cache stores.
type Package struct {
	Name          string   `json:"name"`
	Version       string   `json:"version,omitempty"`
	Description   string   `json:"description,omitempty"`
	RepositoryURL string   `json:"repository_url,omitempty"`
	Homepage      string   `json:"homepage,omitempty"`
	GitHubRepo    string   `json:"github_repo,omitempty"`
	Popularity    int64    `json:"popularity"`
	Language      string   `json:"language,omitempty"`
	Registry      Registry `json:"registry"`
}

// HasGitHubRepo reports whether the package resolved to a GitHub repository.
func (p Package) HasGitHubRepo() bool {
	return p.GitHubRepo != ""
}

// NewRepoRef builds a RepoRef, normalizing an empty language to UnknownLanguage.
func NewRepoRef(identifier, language string) RepoRef {
	if strings.TrimSpace(language) == "" {
		language = UnknownLanguage
	}
	return RepoRef{Identifier: identifier, Language: language}
}

// SplitIdentifier splits "owner/repo" into its two halves.
// It returns false when the identifier is not of that form.
func SplitIdentifier(identifier string) (owner, repo string, ok bool) {
	owner, repo, found := strings.Cut(identifier, "/")
	if !found || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", false
	}
	return owner, repo, true
}
