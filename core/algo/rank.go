package algo

import (
	"sort"

	"github.com/huangsam/riskscan/schema"
)

// RankByRisk orders scored repositories by total risk score, highest first.
// Ties keep their incoming order so repeated runs over the same input agree.
func RankByRisk(repos []schema.ScoredRepo) []schema.ScoredRepo {
	sort.SliceStable(repos, func(i, j int) bool {
		return repos[i].TotalRiskScore > repos[j].TotalRiskScore
	})
	return repos
}

// SortRepos orders repositories by the given key. Every ordering is stable.
func SortRepos(repos []schema.ScoredRepo, key schema.SortKey) []schema.ScoredRepo {
	switch key {
	case schema.SortByContributors:
		sort.SliceStable(repos, func(i, j int) bool {
			return derefInt(repos[i].ContributorCount) < derefInt(repos[j].ContributorCount)
		})
	case schema.SortByName:
		sort.SliceStable(repos, func(i, j int) bool {
			return repos[i].Repo < repos[j].Repo
		})
	case schema.SortByPopularity:
		sort.SliceStable(repos, func(i, j int) bool {
			return repos[i].Popularity > repos[j].Popularity
		})
	default:
		return RankByRisk(repos)
	}
	return repos
}

// LimitRepos returns at most limit repositories. A non-positive limit keeps all.
func LimitRepos(repos []schema.ScoredRepo, limit int) []schema.ScoredRepo {
	if limit > 0 && len(repos) > limit {
		return repos[:limit]
	}
	return repos
}

func derefInt(v *int) int {
	if v == nil {
		return -1
	}
	return *v
}
