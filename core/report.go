package core

import (
	"context"
	"errors"

	"github.com/huangsam/riskscan/core/algo"
	"github.com/huangsam/riskscan/internal/contract"
	"github.com/huangsam/riskscan/schema"
)

// ErrNoStore is returned when a read needs the snapshot store but none is configured.
var ErrNoStore = errors.New("no snapshot store configured (store-backend is none)")

// ReportQueryFromConfig builds the report query described by the report flags.
func ReportQueryFromConfig(cfg *contract.Config) schema.ReportQuery {
	return schema.ReportQuery{
		Filter:   cfg.Filter,
		MinLevel: cfg.MinLevel,
		Registry: cfg.RegistryFilter,
		SortBy:   cfg.SortBy,
		Limit:    cfg.ResultLimit,
	}
}

// GetReport reads the persisted risk report. The store does the filtering and
// ordering; the rows are re-sorted here so every backend agrees on ties.
func GetReport(ctx context.Context, store contract.SnapshotStore, query schema.ReportQuery) ([]schema.ScoredRepo, error) {
	if store == nil {
		return nil, ErrNoStore
	}
	rows, err := store.List(ctx, query)
	if err != nil {
		return nil, err
	}
	rows = algo.SortRepos(rows, query.SortBy)
	return algo.LimitRepos(rows, query.Limit), nil
}

// GetScanRuns lists recorded scan runs, newest first.
func GetScanRuns(ctx context.Context, store contract.SnapshotStore, limit int) ([]schema.ScanRunRecord, error) {
	if store == nil {
		return nil, ErrNoStore
	}
	return store.ListScanRuns(ctx, limit)
}
