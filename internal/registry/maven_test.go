package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestMaven(srv *httptest.Server, apiKey string, cache *memCache) *Maven {
	opts := Options{RateLimit: rate.Inf}
	if cache != nil {
		opts.Cache = cache
	}
	m := NewMaven(apiKey, opts)
	m.LibrariesIOURL = srv.URL + "/api"
	m.MavenCentralURL = srv.URL + "/maven2"
	m.RateLimitWait = time.Millisecond
	return m
}

func TestMavenDiscoverPopularPackages(t *testing.T) {
	var searches atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("api_key"))
		assert.Equal(t, "Maven", r.URL.Query().Get("platforms"))
		assert.Equal(t, "dependents_count", r.URL.Query().Get("sort"))
		n := searches.Add(1)
		switch {
		case n == 1:
			w.WriteHeader(http.StatusTooManyRequests)
		case r.URL.Query().Get("page") == "1":
			_, _ = w.Write([]byte(`[
				{"name": "com.google.guava:guava", "latest_release_number": "33.0", "repository_url": "https://github.com/google/guava", "dependents_count": 5000},
				{"name": "org.apache.commons:commons-lang3", "latest_release_number": "3.14.0", "repository_url": "", "dependents_count": 4000, "language": ""},
				{"name": "org.jetbrains.kotlin:kotlin-stdlib", "latest_release_number": "", "dependents_count": 3000, "language": "Kotlin"}
			]`))
		default:
			_, _ = w.Write([]byte(`[]`))
		}
	})
	mux.HandleFunc("/maven2/org/apache/commons/commons-lang3/3.14.0/commons-lang3-3.14.0.pom", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<project><scm><url>https://github.com/apache/commons-lang</url></scm></project>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cache := newMemCache()
	pkgs, err := newTestMaven(srv, "secret", cache).DiscoverPopularPackages(context.Background(), 10, true)
	require.NoError(t, err)
	require.Len(t, pkgs, 3)

	assert.Equal(t, "google/guava", pkgs[0].GitHubRepo)
	assert.Equal(t, int64(5000), pkgs[0].Popularity)
	assert.Equal(t, "Java", pkgs[0].Language)
	assert.Equal(t, "apache/commons-lang", pkgs[1].GitHubRepo, "resolved from POM")
	assert.Empty(t, pkgs[2].GitHubRepo, "no version means no POM lookup")
	assert.Equal(t, "Kotlin", pkgs[2].Language)
	assert.Equal(t, 1, cache.sets)
}

func TestMavenRequiresAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("no request expected")
	}))
	defer srv.Close()

	_, err := newTestMaven(srv, "  ", nil).DiscoverPopularPackages(context.Background(), 10, false)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestMavenUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	cache := newMemCache()
	_, err := newTestMaven(srv, "bad", cache).DiscoverPopularPackages(context.Background(), 10, true)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 0, cache.sets)
}

func TestMavenOtherStatusStopsPaging(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	pkgs, err := newTestMaven(srv, "secret", nil).DiscoverPopularPackages(context.Background(), 10, false)
	require.NoError(t, err)
	assert.Empty(t, pkgs)
}

func TestMavenPOMURL(t *testing.T) {
	m := NewMaven("k", Options{})
	assert.Equal(t,
		"https://repo1.maven.org/maven2/com/google/guava/guava/33.0/guava-33.0.pom",
		m.pomURL("com.google.guava:guava", "33.0"))
}
