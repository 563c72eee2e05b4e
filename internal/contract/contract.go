// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/riskscan/schema"
)

// StatsFetcher retrieves repository statistics from the upstream statistics API.
// This allows the scan pipeline to be tested without network access.
type StatsFetcher interface {
	// FetchBatch fetches both statistics signals for every repo and returns
	// exactly one record per input repo. Per-repo failures are recorded on the
	// record, never returned as an error.
	FetchBatch(ctx context.Context, repos []schema.RepoRef) []schema.ActivityRecord

	// SearchRepositories discovers repositories matching a search query.
	SearchRepositories(ctx context.Context, query string, maxResults int) ([]schema.RepoRef, error)

	// Close releases the underlying HTTP resources.
	Close() error
}

// RegistrySource discovers popular packages from one package registry and maps
// them onto GitHub repositories.
type RegistrySource interface {
	// Name returns the registry this source reads from.
	Name() schema.Registry

	// DiscoverPopularPackages returns up to maxResults packages ranked by popularity,
	// with GitHub repositories resolved where possible.
	DiscoverPopularPackages(ctx context.Context, maxResults int, useCache bool) ([]schema.Package, error)

	// FilterByPopularity keeps packages with a resolved GitHub repository and
	// popularity at or above the threshold. It also returns how many were skipped.
	FilterByPopularity(pkgs []schema.Package, minPopularity int64) ([]schema.Package, int)

	// ToRepoRefs converts packages to repositories, keeping the first package per repo.
	ToRepoRefs(pkgs []schema.Package) []schema.RepoRef

	// Close releases the underlying HTTP resources.
	Close() error
}

// StoreManager defines the interface for managing the persistence stores.
// This allows the persistence layer to be mocked for testing.
type StoreManager interface {
	GetRegistryCache() CacheStore
	GetSnapshotStore() SnapshotStore
}

// CacheStore defines the interface for registry cache storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// SnapshotStore defines the interface for the persisted risk report.
type SnapshotStore interface {
	// Upsert writes rows keyed by repo, replacing any existing row for the same repo.
	// UpdatedAt is stamped on each row with the write time.
	Upsert(ctx context.Context, rows []schema.ScoredRepo) error

	// List reads rows from the persisted report.
	List(ctx context.Context, query schema.ReportQuery) ([]schema.ScoredRepo, error)

	// BeginScan records the start of a scan run and returns its unique ID.
	BeginScan(source schema.ScanSource, startTime time.Time, configParams map[string]any) (string, error)

	// EndScan records the completion of a scan run.
	EndScan(runID string, endTime time.Time, summary schema.ScanSummary) error

	// ListScanRuns returns recorded scan runs, newest first.
	ListScanRuns(ctx context.Context, limit int) ([]schema.ScanRunRecord, error)

	// GetStatus returns status information about the snapshot store.
	GetStatus() (schema.SnapshotStatus, error)

	// Close closes the underlying connection.
	Close() error
}
