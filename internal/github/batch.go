package github

import (
	"context"
	"sync"

	"github.com/huangsam/riskscan/schema"
)

// FetchBatch fetches both statistics signals for every repository.
// The result has one record per input, in input order; a repository whose
// fetches failed is still present with the failure recorded on it.
// Cancelling ctx ends outstanding fetches as network errors.
func (c *Client) FetchBatch(ctx context.Context, repos []schema.RepoRef) []schema.ActivityRecord {
	records := make([]schema.ActivityRecord, len(repos))

	var wg sync.WaitGroup
	for i, repo := range repos {
		wg.Go(func() {
			records[i] = c.fetchRepo(ctx, repo)
		})
	}
	wg.Wait()

	return records
}

// fetchRepo issues the two independent fetches for one repository concurrently.
func (c *Client) fetchRepo(ctx context.Context, repo schema.RepoRef) schema.ActivityRecord {
	rec := schema.ActivityRecord{Repo: repo}

	var wg sync.WaitGroup
	wg.Go(func() {
		rec.WeeklyCommits, rec.Activity = c.FetchParticipation(ctx, repo.Identifier)
	})
	wg.Go(func() {
		rec.Contributions, rec.Contributors = c.FetchContributors(ctx, repo.Identifier)
	})
	wg.Wait()

	return rec
}
