package parquet

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/riskscan/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleScanRuns() []schema.ScanRunRecord {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Second)
	duration := end.Sub(start).Milliseconds()
	config := `{"source":"npm","limit":100}`

	return []schema.ScanRunRecord{
		{
			RunID:            "7c4f0b52-6d1d-4f0e-9a52-0d8f5d2f9f10",
			Source:           schema.NPMSource,
			StartTime:        start,
			EndTime:          &end,
			RunDurationMs:    &duration,
			ReposRequested:   100,
			ReposScored:      93,
			ReposUnavailable: 7,
			ConfigParams:     &config,
		},
		{
			RunID:     "0e5a0f9e-3b58-4a0d-8d53-1f2f4d6b8c11",
			Source:    schema.ManualSource,
			StartTime: start.Add(time.Hour),
			// Still running
		},
	}
}

func sampleScoredRepos() []schema.ScoredRepo {
	updated := time.Date(2026, 3, 1, 10, 1, 30, 0, time.UTC)
	return []schema.ScoredRepo{
		{
			Repo:                     "expressjs/express",
			Language:                 "JavaScript",
			PackageName:              "express",
			Popularity:               30000000,
			Registry:                 schema.NPMRegistry,
			TotalCommits:             52,
			RecentCommits:            4,
			OlderCommits:             48,
			VelocityRatio:            1.0 / 3,
			GiniCoefficient:          schema.Float64Ptr(0.81),
			Top1Share:                schema.Float64Ptr(0.62),
			Top3Share:                schema.Float64Ptr(0.9),
			ContributorCount:         schema.IntPtr(12),
			ContributorDataAvailable: true,
			RiskVelocity:             3,
			RiskGini:                 3,
			RiskConcentration:        2,
			RiskBusFactor:            0.5,
			TotalRiskScore:           8.5,
			RiskLevel:                schema.RiskCritical,
			UpdatedAt:                updated,
		},
		{
			Repo:          "octo/widget",
			Language:      schema.UnknownLanguage,
			Registry:      schema.NoRegistry,
			TotalCommits:  10,
			RecentCommits: 5,
			OlderCommits:  5,
			VelocityRatio: 3,
			RiskLevel:     schema.RiskLow,
			UpdatedAt:     updated,
		},
	}
}

func TestScanRunStructTags(t *testing.T) {
	s := parquet.SchemaOf(new(ScanRun))
	require.NotNil(t, s)

	for _, colName := range []string{
		"run_id", "source", "start_time", "end_time", "run_duration_ms",
		"repos_requested", "repos_scored", "repos_unavailable", "config_params",
	} {
		_, ok := s.Lookup(colName)
		require.True(t, ok, "Column %s should exist in schema", colName)
	}
}

func TestRiskReportRowStructTags(t *testing.T) {
	s := parquet.SchemaOf(new(RiskReportRow))
	require.NotNil(t, s)

	for _, colName := range []string{
		"repo", "language", "package_name", "popularity", "registry",
		"total_commits", "recent_commits", "older_commits", "velocity_ratio",
		"gini_coefficient", "top1_share", "top3_share", "contributor_count", "contributor_data_available",
		"risk_velocity", "risk_gini", "risk_concentration", "risk_bus_factor",
		"total_risk_score", "risk_level", "updated_at",
	} {
		_, ok := s.Lookup(colName)
		require.True(t, ok, "Column %s should exist in schema", colName)
	}
}

func readAll[T any](t *testing.T, path string) []T {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	reader := parquet.NewGenericReader[T](file)
	defer reader.Close()

	rows := make([]T, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		require.NoError(t, err)
	}
	return rows[:n]
}

func TestWriteScanRunsParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "scan_runs.parquet")
	data := ConvertScanRunRecords(sampleScanRuns())

	require.NoError(t, WriteScanRunsParquet(data, outputPath))

	readData := readAll[ScanRun](t, outputPath)
	require.Len(t, readData, len(data))

	assert.Equal(t, "npm", readData[0].Source)
	assert.Equal(t, int32(93), readData[0].ReposScored)
	require.NotNil(t, readData[0].EndTime)
	assert.WithinDuration(t, *data[0].EndTime, *readData[0].EndTime, time.Nanosecond)
	require.NotNil(t, readData[0].RunDurationMs)
	assert.Equal(t, int64(90000), *readData[0].RunDurationMs)
	require.NotNil(t, readData[0].ConfigParams)

	// Nullable fields survive as nil
	assert.Nil(t, readData[1].EndTime)
	assert.Nil(t, readData[1].RunDurationMs)
	assert.Nil(t, readData[1].ConfigParams)
}

func TestWriteRiskReportParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "risk_report.parquet")
	data := ConvertScoredRepos(sampleScoredRepos())

	require.NoError(t, WriteRiskReportParquet(data, outputPath))

	readData := readAll[RiskReportRow](t, outputPath)
	require.Len(t, readData, 2)

	express := readData[0]
	assert.Equal(t, "expressjs/express", express.Repo)
	require.NotNil(t, express.PackageName)
	assert.Equal(t, "express", *express.PackageName)
	require.NotNil(t, express.GiniCoefficient)
	assert.InDelta(t, 0.81, *express.GiniCoefficient, 1e-9)
	require.NotNil(t, express.ContributorCount)
	assert.Equal(t, int32(12), *express.ContributorCount)
	assert.Equal(t, "CRITICAL", express.RiskLevel)
	assert.InDelta(t, 8.5, express.TotalRiskScore, 1e-9)

	// No contributor data means null columns, not zeros
	widget := readData[1]
	assert.Nil(t, widget.PackageName)
	assert.Nil(t, widget.GiniCoefficient)
	assert.Nil(t, widget.Top1Share)
	assert.Nil(t, widget.ContributorCount)
	assert.False(t, widget.ContributorDataAvailable)
}

func TestWriteParquet_EmptyData(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "empty.parquet")

	require.NoError(t, WriteRiskReportParquet([]RiskReportRow{}, outputPath))

	info, err := os.Stat(outputPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0), "Output file should contain schema even if empty")
}

func TestWriteParquet_InvalidPath(t *testing.T) {
	err := WriteScanRunsParquet(ConvertScanRunRecords(sampleScanRuns()), "/nonexistent/directory/output.parquet")
	require.Error(t, err)
}
