package schema

import "time"

// ScoredRepo is the persisted unit, one row per repository identifier.
// Pointer fields are nullable: nil means "no contributor data", which is
// distinct from a well-distributed repository.
type ScoredRepo struct {
	Repo     string `json:"repo"`
	Language string `json:"language"`

	PackageName string   `json:"package_name,omitempty"`
	Popularity  int64    `json:"popularity"`
	Registry    Registry `json:"registry"`

	TotalCommits  int     `json:"total_commits"`
	RecentCommits int     `json:"recent_commits"`
	OlderCommits  int     `json:"older_commits"`
	VelocityRatio float64 `json:"velocity_ratio"`

	GiniCoefficient          *float64 `json:"gini_coefficient"`
	Top1Share                *float64 `json:"top1_share"`
	Top3Share                *float64 `json:"top3_share"`
	ContributorCount         *int     `json:"contributor_count"`
	ContributorDataAvailable bool     `json:"contributor_data_available"`

	RiskVelocity      int     `json:"risk_velocity"`
	RiskGini          int     `json:"risk_gini"`
	RiskConcentration int     `json:"risk_concentration"`
	RiskBusFactor     float64 `json:"risk_bus_factor"`

	TotalRiskScore float64   `json:"total_risk_score"`
	RiskLevel      RiskLevel `json:"risk_level"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ReportQuery narrows and orders a read of the persisted snapshot.
type ReportQuery struct {
	Filter   string    // case-insensitive substring over repo, package and language
	MinLevel RiskLevel // empty means no level filter
	Registry Registry  // empty means all registries
	SortBy   SortKey
	Limit    int // 0 means no limit
}

// ScanSummary is recorded when a scan run finishes.
type ScanSummary struct {
	ReposRequested   int `json:"repos_requested"`
	ReposScored      int `json:"repos_scored"`
	ReposUnavailable int `json:"repos_unavailable"`
}

// ScanRunRecord represents a row from the scan_runs table.
type ScanRunRecord struct {
	RunID            string     `json:"run_id"`
	Source           ScanSource `json:"source"`
	StartTime        time.Time  `json:"start_time"`
	EndTime          *time.Time `json:"end_time"`
	RunDurationMs    *int64     `json:"run_duration_ms"`
	ReposRequested   int        `json:"repos_requested"`
	ReposScored      int        `json:"repos_scored"`
	ReposUnavailable int        `json:"repos_unavailable"`
	ConfigParams     *string    `json:"config_params"`
}

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 {
	return &v
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}

// ScanResult is what one scan produced, ready for rendering.
type ScanResult struct {
	RunID   string       `json:"run_id,omitempty"`
	Source  ScanSource   `json:"source"`
	Repos   []ScoredRepo `json:"repos"`
	Summary ScanSummary  `json:"summary"`

	// PackagesSkipped counts registry packages dropped by the GitHub and popularity filter.
	PackagesSkipped int `json:"packages_skipped"`
}

// MetricDefinition documents one scoring component for the metrics command.
type MetricDefinition struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Formula     string   `json:"formula"`
	Buckets     []string `json:"buckets"`
}
