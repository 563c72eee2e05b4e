package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/riskscan/internal/contract"
	"github.com/huangsam/riskscan/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRepos() []schema.ScoredRepo {
	return []schema.ScoredRepo{
		{
			Repo:                     "lodash/lodash",
			Language:                 "JavaScript",
			Registry:                 schema.NPMRegistry,
			PackageName:              "lodash",
			Popularity:               52_000_000,
			TotalCommits:             208,
			RecentCommits:            13,
			OlderCommits:             65,
			VelocityRatio:            0.2,
			GiniCoefficient:          schema.Float64Ptr(0.5667),
			Top1Share:                schema.Float64Ptr(0.9),
			Top3Share:                schema.Float64Ptr(1.0),
			ContributorCount:         schema.IntPtr(3),
			ContributorDataAvailable: true,
			TotalRiskScore:           8.5,
			RiskLevel:                schema.RiskCritical,
			UpdatedAt:                time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		{
			Repo:           "octo/widget",
			Language:       "Go",
			Registry:       schema.NoRegistry,
			VelocityRatio:  1.5,
			TotalRiskScore: 4,
			RiskLevel:      schema.RiskMedium,
		},
	}
}

func testConfig(output schema.OutputMode, file string) *contract.Config {
	return &contract.Config{
		Output:       output,
		OutputFile:   file,
		Precision:    2,
		Width:        200,
		Concurrency:  20,
		StoreBackend: schema.SQLiteBackend,
	}
}

func TestWriteRepoTable(t *testing.T) {
	var buf bytes.Buffer
	cfg := testConfig(schema.TextOut, "")
	require.NoError(t, writeRepoTable(&buf, sampleRepos(), cfg, createFormatter(2)))

	out := buf.String()
	assert.Contains(t, out, "lodash/lodash")
	assert.Contains(t, out, "52,000,000")
	assert.Contains(t, out, "CRITICAL")
	assert.Contains(t, out, "8.50")
	assert.Contains(t, out, "0.57")

	// The repo without contributor data shows placeholders, not zeros.
	var widgetLine string
	for line := range strings.SplitSeq(out, "\n") {
		if strings.Contains(line, "octo/widget") {
			widgetLine = line
		}
	}
	require.NotEmpty(t, widgetLine)
	assert.Contains(t, widgetLine, missingValue)
	assert.NotContains(t, widgetLine, "0.00")
}

func TestWriteRepoCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeRepoCSV(&buf, sampleRepos(), createFormatter(3)))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "rank", records[0][0])
	assert.Equal(t, []string{"1", "lodash/lodash", "JavaScript", "npm", "lodash", "52000000"}, records[1][:6])
	assert.Equal(t, "0.567", records[1][10])
	assert.Equal(t, "2026-01-02T03:04:05Z", records[1][17])

	// Nullable columns are empty cells.
	assert.Equal(t, "", records[2][10])
	assert.Equal(t, "", records[2][13])
	assert.Equal(t, "false", records[2][14])
}

func TestWriteRepoJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeRepoJSON(&buf, sampleRepos()))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, 1.0, decoded[0]["rank"])
	assert.Equal(t, "lodash/lodash", decoded[0]["repo"])
	assert.Nil(t, decoded[1]["gini_coefficient"])
}

func TestPrintScanResultTableRespectsTop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.txt")
	cfg := testConfig(schema.TextOut, path)
	cfg.TopN = 1

	result := &schema.ScanResult{
		Source:          schema.NPMSource,
		Repos:           sampleRepos(),
		Summary:         schema.ScanSummary{ReposRequested: 5, ReposScored: 2, ReposUnavailable: 3},
		PackagesSkipped: 7,
	}
	require.NoError(t, NewOutWriter().WriteScan(result, cfg, 1500*time.Millisecond))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "lodash/lodash")
	assert.NotContains(t, out, "octo/widget")
	assert.Contains(t, out, "Showing top 1 of 2 scored repositories (requested: 5, unavailable data: 3)")
	assert.Contains(t, out, "Skipped 7 npm packages")
	assert.Contains(t, out, "Scan completed in 1.5s with concurrency 20. Store backend: sqlite")
}

func TestPrintScanResultJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.json")
	result := &schema.ScanResult{RunID: "run-1", Source: schema.SearchSource, Repos: sampleRepos()}
	require.NoError(t, PrintScanResult(result, testConfig(schema.JSONOut, path), time.Second))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded schema.ScanResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "run-1", decoded.RunID)
	assert.Len(t, decoded.Repos, 2)
}

func TestPrintReportCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	require.NoError(t, NewOutWriter().WriteReport(sampleRepos(), testConfig(schema.CSVOut, path)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "rank,repo,language"))
	assert.Contains(t, string(data), "octo/widget")
}

func TestPrintScanRuns(t *testing.T) {
	end := time.Date(2026, 3, 1, 10, 5, 0, 0, time.UTC)
	ms := int64(300000)
	params := `{"limit":10}`
	runs := []schema.ScanRunRecord{
		{
			RunID:            "0f8fad5b-d9cb-469f-a165-70867728950e",
			Source:           schema.PyPISource,
			StartTime:        time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
			EndTime:          &end,
			RunDurationMs:    &ms,
			ReposRequested:   10,
			ReposScored:      8,
			ReposUnavailable: 2,
			ConfigParams:     &params,
		},
		{RunID: "short", Source: schema.ManualSource, StartTime: time.Now()},
	}

	var table bytes.Buffer
	require.NoError(t, writeScanRunsTable(&table, runs))
	assert.Contains(t, table.String(), "0f8fad5b")
	assert.NotContains(t, table.String(), "469f")
	assert.Contains(t, table.String(), "5m0s")
	assert.Contains(t, table.String(), "Showing 2 scan runs")

	var csvBuf bytes.Buffer
	require.NoError(t, writeScanRunsCSV(&csvBuf, runs))
	records, err := csv.NewReader(&csvBuf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "300000", records[1][4])
	assert.Equal(t, `{"limit":10}`, records[1][8])
	assert.Equal(t, "", records[2][3])

	path := filepath.Join(t.TempDir(), "runs.json")
	require.NoError(t, NewOutWriter().WriteScanRuns(runs, testConfig(schema.JSONOut, path)))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"run_duration_ms": 300000`)
}

func TestGetMaxTableRepoWidth(t *testing.T) {
	tests := []struct {
		width    int
		expected int
	}{
		{width: 60, expected: minRepoWidth},
		{width: 140, expected: 30},
		{width: 400, expected: maxRepoWidth},
	}
	for _, tt := range tests {
		cfg := &contract.Config{Width: tt.width}
		assert.Equal(t, tt.expected, GetMaxTableRepoWidth(cfg))
	}
}

func TestFormatHelpers(t *testing.T) {
	fmtFloat := createFormatter(1)
	assert.Equal(t, "3.1", fmtFloat(3.14159))
	assert.Equal(t, missingValue, formatOptionalFloat(nil, fmtFloat))
	assert.Equal(t, "0.5", formatOptionalFloat(schema.Float64Ptr(0.5), fmtFloat))
	assert.Equal(t, missingValue, formatOptionalInt(nil))
	assert.Equal(t, "4", formatOptionalInt(schema.IntPtr(4)))
	assert.Equal(t, missingValue, formatPopularity(schema.ScoredRepo{Registry: schema.NoRegistry, Popularity: 10}))
	assert.Equal(t, "1,234", formatPopularity(schema.ScoredRepo{Registry: schema.MavenRegistry, Popularity: 1234}))
	assert.Equal(t, "HIGH", levelLabel(schema.RiskHigh, false))
	assert.Equal(t, "8", shortRunID("8"))
	assert.Equal(t, missingValue, formatRunDuration(nil))
}

func TestWriteMetricsText(t *testing.T) {
	defs := []schema.MetricDefinition{
		{Name: "velocity_ratio", Description: "Recent versus older activity.", Formula: "recent / (older + 0.001)", Buckets: []string{"<0.25 -> 5"}},
		{Name: "bus_factor", Description: "Dependence on few people.", Formula: "(gini + concentration) / 2"},
	}

	var buf bytes.Buffer
	require.NoError(t, writeMetricsText(&buf, defs))
	out := buf.String()
	assert.Contains(t, out, "VELOCITY_RATIO")
	assert.Contains(t, out, "Formula: recent / (older + 0.001)")
	assert.Contains(t, out, "    <0.25 -> 5")
	assert.Contains(t, out, "BUS_FACTOR")

	path := filepath.Join(t.TempDir(), "metrics.csv")
	require.NoError(t, PrintMetricsDefinitions(defs, testConfig(schema.CSVOut, path)))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "velocity_ratio,Recent versus older activity.")
}
