package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/huangsam/riskscan/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type searchItem struct {
	FullName string  `json:"full_name"`
	Language *string `json:"language"`
}

func TestSearchRepositoriesPages(t *testing.T) {
	goLang := "Go"
	var pages []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/repositories", r.URL.Path)
		assert.Equal(t, "stars:>1000", r.URL.Query().Get("q"))
		assert.Equal(t, "stars", r.URL.Query().Get("sort"))
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		pages = append(pages, page)

		items := make([]searchItem, 100)
		for i := range items {
			items[i] = searchItem{FullName: "org/repo" + strconv.Itoa((page-1)*100+i)}
			if i%2 == 0 {
				items[i].Language = &goLang
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"total_count": 5000, "items": items})
	}))
	defer srv.Close()

	repos, err := newTestClient(srv, 4).SearchRepositories(context.Background(), "stars:>1000", 150)
	require.NoError(t, err)
	require.Len(t, repos, 150)
	assert.Equal(t, []int{1, 2}, pages)
	assert.Equal(t, "org/repo0", repos[0].Identifier)
	assert.Equal(t, "Go", repos[0].Language)
	assert.Equal(t, schema.UnknownLanguage, repos[1].Language)
	assert.Equal(t, "org/repo149", repos[149].Identifier)
}

func TestSearchRepositoriesShortPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"total_count": 2, "items": [{"full_name": "a/b"}, {"full_name": "c/d"}]}`))
	}))
	defer srv.Close()

	repos, err := newTestClient(srv, 4).SearchRepositories(context.Background(), "topic:cli", 10)
	require.NoError(t, err)
	assert.Len(t, repos, 2)
}

func TestSearchRepositoriesFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	_, err := newTestClient(srv, 4).SearchRepositories(context.Background(), "bad::query", 10)
	assert.Error(t, err)
}
