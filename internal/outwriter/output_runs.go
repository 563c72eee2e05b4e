package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/huangsam/riskscan/internal/contract"
	"github.com/huangsam/riskscan/schema"
	"github.com/olekukonko/tablewriter"
)

// PrintScanRuns outputs recorded scan runs, newest first.
func PrintScanRuns(runs []schema.ScanRunRecord, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, runs)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeScanRunsCSV(w, runs)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeScanRunsTable(w, runs)
		}, "Wrote table")
	}
}

// writeScanRunsTable renders runs with relative start times.
func writeScanRunsTable(w io.Writer, runs []schema.ScanRunRecord) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Run", "Source", "Started", "Duration", "Requested", "Scored", "Unavailable"})

	data := make([][]string, 0, len(runs))
	for _, r := range runs {
		data = append(data, []string{
			shortRunID(r.RunID),
			string(r.Source),
			humanize.Time(r.StartTime),
			formatRunDuration(r.RunDurationMs),
			strconv.Itoa(r.ReposRequested),
			strconv.Itoa(r.ReposScored),
			strconv.Itoa(r.ReposUnavailable),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Showing %d scan runs\n", len(runs))
	return err
}

// writeScanRunsCSV writes runs in CSV format.
func writeScanRunsCSV(w io.Writer, runs []schema.ScanRunRecord) error {
	header := []string{
		"run_id", "source", "start_time", "end_time", "run_duration_ms",
		"repos_requested", "repos_scored", "repos_unavailable", "config_params",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range runs {
			end := ""
			if r.EndTime != nil {
				end = r.EndTime.UTC().Format(time.RFC3339)
			}
			duration := ""
			if r.RunDurationMs != nil {
				duration = strconv.FormatInt(*r.RunDurationMs, 10)
			}
			params := ""
			if r.ConfigParams != nil {
				params = *r.ConfigParams
			}
			rec := []string{
				r.RunID,
				string(r.Source),
				r.StartTime.UTC().Format(time.RFC3339),
				end,
				duration,
				strconv.Itoa(r.ReposRequested),
				strconv.Itoa(r.ReposScored),
				strconv.Itoa(r.ReposUnavailable),
				params,
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// shortRunID keeps the first block of a UUID for table display.
func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatRunDuration renders a run duration, or "-" for runs that never finished.
func formatRunDuration(ms *int64) string {
	if ms == nil {
		return missingValue
	}
	return (time.Duration(*ms) * time.Millisecond).String()
}
