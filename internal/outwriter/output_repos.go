package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/riskscan/internal/contract"
	"github.com/huangsam/riskscan/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// PrintScanResult outputs a scan, dispatching based on the output format configured.
// The table shows the TopN riskiest repositories; CSV and JSON carry every row.
func PrintScanResult(result *schema.ScanResult, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFormatter(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRepoCSV(w, result.Repos, fmtFloat)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			shown := result.Repos
			if cfg.TopN > 0 && len(shown) > cfg.TopN {
				shown = shown[:cfg.TopN]
			}
			if err := writeRepoTable(w, shown, cfg, fmtFloat); err != nil {
				return err
			}
			return writeScanFooter(w, result, len(shown), cfg, duration)
		}, "Wrote table")
	}
}

// PrintReport outputs rows read from the persisted report.
func PrintReport(rows []schema.ScoredRepo, cfg *contract.Config) error {
	fmtFloat := createFormatter(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRepoJSON(w, rows)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRepoCSV(w, rows, fmtFloat)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			if err := writeRepoTable(w, rows, cfg, fmtFloat); err != nil {
				return err
			}
			_, err := fmt.Fprintf(w, "Showing %d repositories from the %s store\n", len(rows), cfg.StoreBackend)
			return err
		}, "Wrote table")
	}
}

// writeRepoTable generates and writes the human-readable table.
func writeRepoTable(w io.Writer, rows []schema.ScoredRepo, cfg *contract.Config, fmtFloat func(float64) string) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{
		"Rank", "Repo", "Score", "Level", "Velocity", "Gini", "Top1", "Contrib",
		"Language", "Registry", "Package", "Popularity",
	})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	repoWidth := GetMaxTableRepoWidth(cfg)
	data := make([][]string, 0, len(rows))
	for i, r := range rows {
		data = append(data, []string{
			strconv.Itoa(i + 1),
			contract.TruncateText(r.Repo, repoWidth),
			fmtFloat(r.TotalRiskScore),
			levelLabel(r.RiskLevel, cfg.UseColors),
			fmtFloat(r.VelocityRatio),
			formatOptionalFloat(r.GiniCoefficient, fmtFloat),
			formatOptionalFloat(r.Top1Share, fmtFloat),
			formatOptionalInt(r.ContributorCount),
			contract.TruncateText(r.Language, 12),
			string(r.Registry),
			contract.TruncateText(orMissing(r.PackageName), 24),
			formatPopularity(r),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeScanFooter prints the run summary under the scan table.
func writeScanFooter(w io.Writer, result *schema.ScanResult, shown int, cfg *contract.Config, duration time.Duration) error {
	s := result.Summary
	if _, err := fmt.Fprintf(w, "Showing top %d of %d scored repositories (requested: %d, unavailable data: %d)\n",
		shown, s.ReposScored, s.ReposRequested, s.ReposUnavailable); err != nil {
		return err
	}
	if result.PackagesSkipped > 0 {
		if _, err := fmt.Fprintf(w, "Skipped %d %s packages without a GitHub repository or below the popularity threshold\n",
			result.PackagesSkipped, result.Source); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Scan completed in %v with concurrency %d. Store backend: %s\n",
		duration.Round(time.Millisecond), cfg.Concurrency, cfg.StoreBackend)
	return err
}

// writeRepoCSV writes rows in CSV format. Missing contributor data is an empty cell.
func writeRepoCSV(w io.Writer, rows []schema.ScoredRepo, fmtFloat func(float64) string) error {
	header := []string{
		"rank",
		"repo",
		"language",
		"registry",
		"package_name",
		"popularity",
		"total_commits",
		"recent_commits",
		"older_commits",
		"velocity_ratio",
		"gini_coefficient",
		"top1_share",
		"top3_share",
		"contributor_count",
		"contributor_data_available",
		"total_risk_score",
		"risk_level",
		"updated_at",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for i, r := range rows {
			contributors := ""
			if r.ContributorCount != nil {
				contributors = strconv.Itoa(*r.ContributorCount)
			}
			updated := ""
			if !r.UpdatedAt.IsZero() {
				updated = r.UpdatedAt.UTC().Format(time.RFC3339)
			}
			rec := []string{
				strconv.Itoa(i + 1),
				r.Repo,
				r.Language,
				string(r.Registry),
				r.PackageName,
				strconv.FormatInt(r.Popularity, 10),
				strconv.Itoa(r.TotalCommits),
				strconv.Itoa(r.RecentCommits),
				strconv.Itoa(r.OlderCommits),
				fmtFloat(r.VelocityRatio),
				csvOptionalFloat(r.GiniCoefficient, fmtFloat),
				csvOptionalFloat(r.Top1Share, fmtFloat),
				csvOptionalFloat(r.Top3Share, fmtFloat),
				contributors,
				strconv.FormatBool(r.ContributorDataAvailable),
				fmtFloat(r.TotalRiskScore),
				string(r.RiskLevel),
				updated,
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeRepoJSON writes rows in JSON format with their rank.
func writeRepoJSON(w io.Writer, rows []schema.ScoredRepo) error {
	type JSONRepo struct {
		Rank int `json:"rank"`
		schema.ScoredRepo
	}

	output := make([]JSONRepo, len(rows))
	for i, r := range rows {
		output[i] = JSONRepo{Rank: i + 1, ScoredRepo: r}
	}
	return writeJSON(w, output)
}
