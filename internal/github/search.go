package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/huangsam/riskscan/internal/contract"
	"github.com/huangsam/riskscan/schema"
)

// searchPageSize is the largest page the search API serves.
const searchPageSize = 100

// searchResponse is the body of /search/repositories.
type searchResponse struct {
	TotalCount int `json:"total_count"`
	Items      []struct {
		FullName string  `json:"full_name"`
		Language *string `json:"language"`
	} `json:"items"`
}

// SearchRepositories pages through repository search results, most starred first,
// until maxResults are collected or a page comes back short.
func (c *Client) SearchRepositories(ctx context.Context, query string, maxResults int) ([]schema.RepoRef, error) {
	perPage := min(searchPageSize, maxResults)
	var repos []schema.RepoRef

	for page := 1; len(repos) < maxResults; page++ {
		params := url.Values{}
		params.Set("q", query)
		params.Set("sort", "stars")
		params.Set("order", "desc")
		params.Set("per_page", fmt.Sprint(perPage))
		params.Set("page", fmt.Sprint(page))
		target := c.baseURL + "/search/repositories?" + params.Encode()

		code, body, err := c.roundTrip(ctx, target)
		if err == nil && code != http.StatusOK {
			err = fmt.Errorf("search returned status %d", code)
		}
		if err != nil {
			if len(repos) == 0 {
				return nil, fmt.Errorf("failed to search repositories for %q: %w", query, err)
			}
			contract.LogWarn(fmt.Sprintf("Search stopped at page %d", page), err)
			break
		}

		var resp searchResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("failed to decode search results: %w", err)
		}
		for _, item := range resp.Items {
			language := ""
			if item.Language != nil {
				language = *item.Language
			}
			repos = append(repos, schema.NewRepoRef(item.FullName, language))
			if len(repos) >= maxResults {
				break
			}
		}
		if len(resp.Items) < perPage {
			break
		}
	}

	return repos, nil
}
