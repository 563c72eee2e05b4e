// Package outwriter has output and writer logic.
package outwriter

import (
	"time"

	"github.com/huangsam/riskscan/internal/contract"
	"github.com/huangsam/riskscan/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the commands.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteScan prints the outcome of one scan using the configured output format.
func (ow *OutWriter) WriteScan(result *schema.ScanResult, cfg *contract.Config, duration time.Duration) error {
	return PrintScanResult(result, cfg, duration)
}

// WriteReport prints rows read from the persisted risk report.
func (ow *OutWriter) WriteReport(rows []schema.ScoredRepo, cfg *contract.Config) error {
	return PrintReport(rows, cfg)
}

// WriteScanRuns prints recorded scan runs.
func (ow *OutWriter) WriteScanRuns(runs []schema.ScanRunRecord, cfg *contract.Config) error {
	return PrintScanRuns(runs, cfg)
}

// WriteMetrics prints the scoring definitions using the configured output format.
func (ow *OutWriter) WriteMetrics(defs []schema.MetricDefinition, cfg *contract.Config) error {
	return PrintMetricsDefinitions(defs, cfg)
}
