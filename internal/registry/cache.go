package registry

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/riskscan/internal/contract"
	"github.com/huangsam/riskscan/schema"
)

const (
	// CacheTTL is how long a discovered package list stays fresh.
	CacheTTL = 7 * 24 * time.Hour

	// currentCacheVersion defines the version of the cached package layout.
	currentCacheVersion = 1
)

// CacheKey names the cache entry for one registry and discovery size.
func CacheKey(registry schema.Registry, maxResults int) string {
	return fmt.Sprintf("%s_popular_%d", registry, maxResults)
}

// loadCached returns a fresh cached package list. Any failure is a miss.
func loadCached(store contract.CacheStore, key string) ([]schema.Package, bool) {
	if store == nil {
		return nil, false
	}
	data, version, ts, err := store.Get(key)
	if err != nil || version != currentCacheVersion {
		return nil, false
	}
	if time.Since(time.Unix(ts, 0)) > CacheTTL {
		return nil, false
	}
	var pkgs []schema.Package
	if err := json.Unmarshal(data, &pkgs); err != nil || len(pkgs) == 0 {
		return nil, false
	}
	return pkgs, true
}

// storeCached writes a non-empty package list. Failures are reported, not returned.
func storeCached(store contract.CacheStore, key string, pkgs []schema.Package) {
	if store == nil || len(pkgs) == 0 {
		return
	}
	data, err := json.Marshal(pkgs)
	if err != nil {
		contract.LogWarn("Could not encode registry cache entry", err)
		return
	}
	if err := store.Set(key, data, currentCacheVersion, time.Now().Unix()); err != nil {
		contract.LogWarn("Could not save registry cache entry", err)
		return
	}
	contract.LogInfo("Cached %d packages under %s", len(pkgs), key)
}
