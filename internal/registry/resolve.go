package registry

import (
	"regexp"
	"strings"
)

var (
	// githubHostPattern finds owner/repo after a github.com host in any URL form.
	githubHostPattern = regexp.MustCompile(`(?i)(?:^|[/@.+:])github\.com[:/]+([^/\s:]+)/([^/\s#?]+)`)

	// bareRepoPattern matches a plain "owner/repo" reference.
	bareRepoPattern = regexp.MustCompile(`^([\w.-]+)/([\w.-]+)$`)
)

// ParseGitHubURL extracts "owner/repo" from the repository references that
// registries publish. It accepts:
//
//	https://github.com/owner/repo
//	git+https://github.com/owner/repo.git
//	git://github.com/owner/repo.git
//	git@github.com:owner/repo.git
//	github:owner/repo
//	owner/repo
//
// Trailing ".git", slashes, fragments and queries are dropped. Other hosts yield false.
func ParseGitHubURL(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}

	if rest, ok := strings.CutPrefix(s, "github:"); ok {
		owner, repo, found := strings.Cut(rest, "/")
		if !found {
			return "", false
		}
		repo, _, _ = strings.Cut(repo, "/")
		return joinRepo(owner, repo)
	}

	if m := githubHostPattern.FindStringSubmatch(s); m != nil {
		return joinRepo(m[1], m[2])
	}
	if m := bareRepoPattern.FindStringSubmatch(s); m != nil {
		return joinRepo(m[1], m[2])
	}
	return "", false
}

// joinRepo cleans the repo half and rejects empty halves.
func joinRepo(owner, repo string) (string, bool) {
	if i := strings.IndexAny(repo, "#?"); i >= 0 {
		repo = repo[:i]
	}
	repo = strings.TrimSuffix(strings.TrimSuffix(repo, "/"), ".git")
	if owner == "" || repo == "" || owner == "." || repo == "." {
		return "", false
	}
	return owner + "/" + repo, true
}

// firstGitHubRepo returns the first candidate that resolves, or "".
func firstGitHubRepo(candidates ...string) string {
	for _, c := range candidates {
		if repo, ok := ParseGitHubURL(c); ok {
			return repo
		}
	}
	return ""
}
