package registry

import "github.com/huangsam/riskscan/schema"

// filterGitHubPackages keeps packages with a resolved repository and enough popularity.
func filterGitHubPackages(pkgs []schema.Package, minPopularity int64) ([]schema.Package, int) {
	filtered := make([]schema.Package, 0, len(pkgs))
	skipped := 0
	for _, p := range pkgs {
		if !p.HasGitHubRepo() || p.Popularity < minPopularity {
			skipped++
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered, skipped
}

// toRepoRefs maps packages onto repositories. Several packages can live in one
// repository; the first package seen wins.
func toRepoRefs(pkgs []schema.Package, registry schema.Registry, defaultLanguage string) []schema.RepoRef {
	seen := make(map[string]struct{}, len(pkgs))
	refs := make([]schema.RepoRef, 0, len(pkgs))
	for _, p := range pkgs {
		if !p.HasGitHubRepo() {
			continue
		}
		if _, dup := seen[p.GitHubRepo]; dup {
			continue
		}
		seen[p.GitHubRepo] = struct{}{}

		language := p.Language
		if language == "" {
			language = defaultLanguage
		}
		ref := schema.NewRepoRef(p.GitHubRepo, language)
		ref.Package = &schema.PackageMeta{
			Registry:    registry,
			PackageName: p.Name,
			Popularity:  p.Popularity,
		}
		refs = append(refs, ref)
	}
	return refs
}
