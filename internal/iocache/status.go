package iocache

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/huangsam/riskscan/schema"
)

const statusTimeFormat = "2006-01-02 15:04:05"

// PrintCacheStatus prints registry cache status information.
func PrintCacheStatus(w io.Writer, status schema.CacheStatus) {
	_, _ = fmt.Fprintf(w, "Cache Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Total Entries: %d\n", status.TotalEntries)
	if status.TotalEntries > 0 {
		_, _ = fmt.Fprintf(w, "Last Entry: %s (%s)\n", status.LastEntryTime.Format(statusTimeFormat), humanize.Time(status.LastEntryTime))
		_, _ = fmt.Fprintf(w, "Oldest Entry: %s (%s)\n", status.OldestEntryTime.Format(statusTimeFormat), humanize.Time(status.OldestEntryTime))
	}
	_, _ = fmt.Fprintf(w, "Size: %s\n", humanize.Bytes(uint64(max(status.TableSizeBytes, 0))))
}

// PrintSnapshotStatus prints snapshot store status information.
func PrintSnapshotStatus(w io.Writer, status schema.SnapshotStatus) {
	_, _ = fmt.Fprintf(w, "Snapshot Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Total Repos: %s\n", humanize.Comma(int64(status.TotalRepos)))
	if status.TotalRepos > 0 {
		_, _ = fmt.Fprintf(w, "Last Updated: %s (%s)\n", status.LastUpdated.Format(statusTimeFormat), humanize.Time(status.LastUpdated))
		_, _ = fmt.Fprintf(w, "Oldest Updated: %s (%s)\n", status.OldestUpdated.Format(statusTimeFormat), humanize.Time(status.OldestUpdated))
		_, _ = fmt.Fprintln(w, "Risk Levels:")
		for _, level := range []schema.RiskLevel{schema.RiskCritical, schema.RiskHigh, schema.RiskMedium, schema.RiskLow} {
			_, _ = fmt.Fprintf(w, "  %s: %d\n", level, status.LevelCounts[level])
		}
		_, _ = fmt.Fprintln(w, "Registries:")
		for _, reg := range slices.Sorted(maps.Keys(status.RegistryCounts)) {
			_, _ = fmt.Fprintf(w, "  %s: %d\n", reg, status.RegistryCounts[reg])
		}
	}
	_, _ = fmt.Fprintf(w, "Total Scan Runs: %d\n", status.TotalScanRuns)
	if run := status.LastScanRun; run != nil {
		_, _ = fmt.Fprintf(w, "Last Scan Run: %s (%s, %s)\n", run.RunID, run.Source, humanize.Time(run.StartTime))
	}
	_, _ = fmt.Fprintln(w, "Table Sizes:")
	for _, table := range slices.Sorted(maps.Keys(status.TableSizes)) {
		_, _ = fmt.Fprintf(w, "  %s: %d rows\n", table, status.TableSizes[table])
	}
}
