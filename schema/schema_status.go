package schema

import "time"

// CacheStatus represents the status of the registry cache store.
type CacheStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalEntries    int       `json:"total_entries"`
	LastEntryTime   time.Time `json:"last_entry_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// SnapshotStatus represents the status of the snapshot store.
type SnapshotStatus struct {
	Backend        string            `json:"backend"`
	Connected      bool              `json:"connected"`
	TotalRepos     int               `json:"total_repos"`
	LastUpdated    time.Time         `json:"last_updated"`
	OldestUpdated  time.Time         `json:"oldest_updated"`
	LevelCounts    map[RiskLevel]int `json:"level_counts"`
	RegistryCounts map[Registry]int  `json:"registry_counts"`
	TotalScanRuns  int               `json:"total_scan_runs"`
	LastScanRun    *ScanRunRecord    `json:"last_scan_run,omitempty"`
	TableSizes     map[string]int64  `json:"table_sizes"`
}
