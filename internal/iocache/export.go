package iocache

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/riskscan/internal/contract"
	"github.com/huangsam/riskscan/internal/parquet"
	"github.com/huangsam/riskscan/schema"
)

// ExecuteSnapshotExport writes the risk report and the scan history to Parquet files
// named <outputFile>.risk_report.parquet and <outputFile>.scan_runs.parquet.
func ExecuteSnapshotExport(ctx context.Context, w io.Writer, store contract.SnapshotStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("snapshot store is not initialized")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get snapshot status: %w", err)
	}
	if status.TotalRepos == 0 && status.TotalScanRuns == 0 {
		return errors.New("no snapshot data found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)

	repos, err := store.List(ctx, schema.ReportQuery{SortBy: schema.SortByScore})
	if err != nil {
		return fmt.Errorf("failed to retrieve risk report: %w", err)
	}
	runs, err := store.ListScanRuns(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to retrieve scan runs: %w", err)
	}

	reportFile := outputFile + ".risk_report.parquet"
	if err := parquet.WriteRiskReportParquet(parquet.ConvertScoredRepos(repos), reportFile); err != nil {
		return fmt.Errorf("failed to write risk report: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d repos to: %s\n", len(repos), reportFile)

	runsFile := outputFile + ".scan_runs.parquet"
	if err := parquet.WriteScanRunsParquet(parquet.ConvertScanRunRecords(runs), runsFile); err != nil {
		return fmt.Errorf("failed to write scan runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d scan runs to: %s\n", len(runs), runsFile)

	_, _ = fmt.Fprintln(w, "\nExport complete! The Parquet files can be read with DuckDB, Pandas (via pyarrow) or Apache Spark.")
	return nil
}
