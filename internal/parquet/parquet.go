// Package parquet provides data structures and functions for exporting the
// risk snapshot to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/riskscan/schema"
	"github.com/parquet-go/parquet-go"
)

// ScanRun represents a single recorded scan run.
// This struct maps to the scan_runs database table.
type ScanRun struct {
	// RunID is the UUID of the scan run
	RunID string `parquet:"run_id,snappy"`

	// Source is how the run discovered repositories (github, npm, pypi, maven, manual)
	Source string `parquet:"source,snappy,dict"`

	// StartTime is when the scan began
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the scan completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int64 `parquet:"run_duration_ms,optional,snappy"`

	ReposRequested   int32 `parquet:"repos_requested,snappy"`
	ReposScored      int32 `parquet:"repos_scored,snappy"`
	ReposUnavailable int32 `parquet:"repos_unavailable,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// RiskReportRow is one repository of the persisted risk report.
// This struct maps to the risk_report database table.
type RiskReportRow struct {
	Repo        string  `parquet:"repo,snappy"`
	Language    string  `parquet:"language,snappy,dict"`
	PackageName *string `parquet:"package_name,optional,snappy"`
	Popularity  int64   `parquet:"popularity,snappy"`
	Registry    string  `parquet:"registry,snappy,dict"`

	TotalCommits  int32   `parquet:"total_commits,snappy"`
	RecentCommits int32   `parquet:"recent_commits,snappy"`
	OlderCommits  int32   `parquet:"older_commits,snappy"`
	VelocityRatio float64 `parquet:"velocity_ratio,snappy"`

	// Contributor fields are null when the contributors signal was unavailable
	GiniCoefficient          *float64 `parquet:"gini_coefficient,optional,snappy"`
	Top1Share                *float64 `parquet:"top1_share,optional,snappy"`
	Top3Share                *float64 `parquet:"top3_share,optional,snappy"`
	ContributorCount         *int32   `parquet:"contributor_count,optional,snappy"`
	ContributorDataAvailable bool     `parquet:"contributor_data_available,snappy"`

	RiskVelocity      int32   `parquet:"risk_velocity,snappy"`
	RiskGini          int32   `parquet:"risk_gini,snappy"`
	RiskConcentration int32   `parquet:"risk_concentration,snappy"`
	RiskBusFactor     float64 `parquet:"risk_bus_factor,snappy"`

	TotalRiskScore float64   `parquet:"total_risk_score,snappy"`
	RiskLevel      string    `parquet:"risk_level,snappy,dict"`
	UpdatedAt      time.Time `parquet:"updated_at,snappy"`
}

// writeParquet writes rows to outputPath using the schema inferred from T.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	// Close flushes the row group and footer
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return file.Close()
}

// WriteScanRunsParquet writes a slice of ScanRun structs to a Parquet file.
func WriteScanRunsParquet(data []ScanRun, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteRiskReportParquet writes a slice of RiskReportRow structs to a Parquet file.
func WriteRiskReportParquet(data []RiskReportRow, outputPath string) error {
	return writeParquet(data, outputPath)
}

// ConvertScanRunRecords converts schema.ScanRunRecord to ScanRun for Parquet export.
func ConvertScanRunRecords(records []schema.ScanRunRecord) []ScanRun {
	result := make([]ScanRun, len(records))
	for i, record := range records {
		result[i] = ScanRun{
			RunID:            record.RunID,
			Source:           string(record.Source),
			StartTime:        record.StartTime,
			EndTime:          record.EndTime,
			RunDurationMs:    record.RunDurationMs,
			ReposRequested:   int32(record.ReposRequested),
			ReposScored:      int32(record.ReposScored),
			ReposUnavailable: int32(record.ReposUnavailable),
			ConfigParams:     record.ConfigParams,
		}
	}
	return result
}

// ConvertScoredRepos converts schema.ScoredRepo to RiskReportRow for Parquet export.
func ConvertScoredRepos(records []schema.ScoredRepo) []RiskReportRow {
	result := make([]RiskReportRow, len(records))
	for i, r := range records {
		row := RiskReportRow{
			Repo:                     r.Repo,
			Language:                 r.Language,
			Popularity:               r.Popularity,
			Registry:                 string(r.Registry),
			TotalCommits:             int32(r.TotalCommits),
			RecentCommits:            int32(r.RecentCommits),
			OlderCommits:             int32(r.OlderCommits),
			VelocityRatio:            r.VelocityRatio,
			GiniCoefficient:          r.GiniCoefficient,
			Top1Share:                r.Top1Share,
			Top3Share:                r.Top3Share,
			ContributorDataAvailable: r.ContributorDataAvailable,
			RiskVelocity:             int32(r.RiskVelocity),
			RiskGini:                 int32(r.RiskGini),
			RiskConcentration:        int32(r.RiskConcentration),
			RiskBusFactor:            r.RiskBusFactor,
			TotalRiskScore:           r.TotalRiskScore,
			RiskLevel:                string(r.RiskLevel),
			UpdatedAt:                r.UpdatedAt,
		}
		if r.PackageName != "" {
			name := r.PackageName
			row.PackageName = &name
		}
		if r.ContributorCount != nil {
			n := int32(*r.ContributorCount)
			row.ContributorCount = &n
		}
		result[i] = row
	}
	return result
}
