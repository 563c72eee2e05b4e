package iocache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/riskscan/internal/contract"
	"github.com/huangsam/riskscan/internal/metrics"
	"github.com/huangsam/riskscan/schema"
)

// Table names for the persisted snapshot.
const (
	riskReportTable = "risk_report"
	scanRunsTable   = "scan_runs"
	stagingTable    = "risk_report_staging"
	repoIndexName   = "idx_risk_report_repo"
)

// Lock retry defaults for snapshot writes.
const (
	DefaultWriteAttempts   = 5
	DefaultWriteRetryDelay = time.Second
)

// ErrStoreLocked is returned when a snapshot write keeps hitting lock conflicts.
var ErrStoreLocked = errors.New("snapshot store is locked")

// SnapshotStoreImpl implements the SnapshotStore interface.
type SnapshotStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
	connStr string
	metrics *metrics.Metrics

	maxAttempts int
	retryDelay  time.Duration
}

var _ contract.SnapshotStore = &SnapshotStoreImpl{} // Compile-time check

// NewSnapshotStore creates a new SnapshotStore with the specified backend.
// The scan_runs table is created on open. The risk_report table is created
// by the first write, shaped after the staging table.
func NewSnapshotStore(backend schema.DatabaseBackend, connStr string) (*SnapshotStoreImpl, error) {
	store := &SnapshotStoreImpl{
		backend:     backend,
		connStr:     connStr,
		maxAttempts: DefaultWriteAttempts,
		retryDelay:  DefaultWriteRetryDelay,
	}
	if backend == schema.NoneBackend {
		return store, nil
	}

	db, err := openDB(backend, connStr, contract.GetSnapshotDBFilePath())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize snapshot store: %w", err)
	}
	if _, err := db.Exec(getCreateScanRunsQuery(backend)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table %s: %w", scanRunsTable, err)
	}
	store.db = db
	return store, nil
}

// SetMetrics attaches collectors for write and retry counts.
func (ss *SnapshotStoreImpl) SetMetrics(m *metrics.Metrics) {
	ss.metrics = m
}

// getCreateScanRunsQuery returns the CREATE TABLE query for scan_runs.
func getCreateScanRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(scanRunsTable, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id CHAR(36) PRIMARY KEY,
				source VARCHAR(32) NOT NULL,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms BIGINT,
				repos_requested INT NOT NULL DEFAULT 0,
				repos_scored INT NOT NULL DEFAULT 0,
				repos_unavailable INT NOT NULL DEFAULT 0,
				config_params TEXT
			)`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id TEXT PRIMARY KEY,
				source TEXT NOT NULL,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms BIGINT,
				repos_requested INTEGER NOT NULL DEFAULT 0,
				repos_scored INTEGER NOT NULL DEFAULT 0,
				repos_unavailable INTEGER NOT NULL DEFAULT 0,
				config_params TEXT
			)`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id TEXT PRIMARY KEY,
				source TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				repos_requested INTEGER NOT NULL DEFAULT 0,
				repos_scored INTEGER NOT NULL DEFAULT 0,
				repos_unavailable INTEGER NOT NULL DEFAULT 0,
				config_params TEXT
			)`, quotedTableName)
	}
}

// BeginScan records the start of a scan run and returns its ID.
func (ss *SnapshotStoreImpl) BeginScan(source schema.ScanSource, startTime time.Time, configParams map[string]any) (string, error) {
	if ss.db == nil {
		return "", nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config params: %w", err)
	}

	runID := uuid.NewString()
	query := fmt.Sprintf(`INSERT INTO %s (run_id, source, start_time, config_params) VALUES (%s)`,
		quoteTableName(scanRunsTable, ss.backend), placeholders(ss.backend, 1, 4))
	if _, err := ss.db.Exec(query, runID, string(source), formatTime(startTime, ss.backend), string(configJSON)); err != nil {
		return "", fmt.Errorf("failed to insert scan run: %w", err)
	}
	return runID, nil
}

// EndScan records the completion of a scan run.
func (ss *SnapshotStoreImpl) EndScan(runID string, endTime time.Time, summary schema.ScanSummary) error {
	if ss.db == nil || runID == "" {
		return nil
	}

	quotedTableName := quoteTableName(scanRunsTable, ss.backend)

	var start dbTime
	query := fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`, quotedTableName, placeholder(ss.backend, 1))
	if err := ss.db.QueryRow(query, runID).Scan(&start); err != nil {
		return fmt.Errorf("failed to get start_time for scan run %s: %w", runID, err)
	}
	durationMs := endTime.Sub(start.Time).Milliseconds()

	p := func(n int) string { return placeholder(ss.backend, n) }
	update := fmt.Sprintf(`UPDATE %s SET end_time = %s, run_duration_ms = %s, repos_requested = %s, repos_scored = %s, repos_unavailable = %s WHERE run_id = %s`,
		quotedTableName, p(1), p(2), p(3), p(4), p(5), p(6))
	_, err := ss.db.Exec(update, formatTime(endTime, ss.backend), durationMs,
		summary.ReposRequested, summary.ReposScored, summary.ReposUnavailable, runID)
	if err != nil {
		return fmt.Errorf("failed to update scan run: %w", err)
	}
	return nil
}

// ListScanRuns returns scan runs newest first. A limit of 0 returns all runs.
func (ss *SnapshotStoreImpl) ListScanRuns(ctx context.Context, limit int) ([]schema.ScanRunRecord, error) {
	if ss.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, source, start_time, end_time, run_duration_ms, repos_requested, repos_scored, repos_unavailable, config_params
		FROM %s ORDER BY start_time DESC`, quoteTableName(scanRunsTable, ss.backend))
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := ss.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []schema.ScanRunRecord
	for rows.Next() {
		var (
			rec        schema.ScanRunRecord
			source     string
			start, end dbTime
		)
		if err := rows.Scan(&rec.RunID, &source, &start, &end, &rec.RunDurationMs,
			&rec.ReposRequested, &rec.ReposScored, &rec.ReposUnavailable, &rec.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan scan run: %w", err)
		}
		rec.Source = schema.ScanSource(source)
		rec.StartTime = start.Time
		rec.EndTime = end.Ptr()
		records = append(records, rec)
	}
	return records, rows.Err()
}

// reportTableExists reports whether the first write has created risk_report yet.
func (ss *SnapshotStoreImpl) reportTableExists(ctx context.Context) (bool, error) {
	var query string
	switch ss.backend {
	case schema.MySQLBackend:
		query = "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?"
	case schema.PostgreSQLBackend:
		query = "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1"
	default:
		query = "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?"
	}
	var n int
	if err := ss.db.QueryRowContext(ctx, query, riskReportTable).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close closes the underlying DB connection.
func (ss *SnapshotStoreImpl) Close() error {
	if ss.db != nil {
		return ss.db.Close()
	}
	return nil
}

// GetStatus returns status information about the snapshot store.
func (ss *SnapshotStoreImpl) GetStatus() (schema.SnapshotStatus, error) {
	status := schema.SnapshotStatus{
		Backend:        string(ss.backend),
		Connected:      ss.db != nil,
		LevelCounts:    map[schema.RiskLevel]int{},
		RegistryCounts: map[schema.Registry]int{},
		TableSizes:     map[string]int64{},
	}
	if ss.db == nil {
		return status, nil
	}
	ctx := context.Background()

	runsTable := quoteTableName(scanRunsTable, ss.backend)
	if err := ss.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", runsTable)).Scan(&status.TotalScanRuns); err != nil {
		return status, fmt.Errorf("failed to count scan runs: %w", err)
	}
	status.TableSizes[scanRunsTable] = int64(status.TotalScanRuns)
	if status.TotalScanRuns > 0 {
		runs, err := ss.ListScanRuns(ctx, 1)
		if err != nil {
			return status, err
		}
		if len(runs) > 0 {
			status.LastScanRun = &runs[0]
		}
	}

	exists, err := ss.reportTableExists(ctx)
	if err != nil {
		return status, fmt.Errorf("failed to check %s: %w", riskReportTable, err)
	}
	if !exists {
		return status, nil
	}

	reportTable := quoteTableName(riskReportTable, ss.backend)
	if err := ss.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", reportTable)).Scan(&status.TotalRepos); err != nil {
		return status, fmt.Errorf("failed to count repos: %w", err)
	}
	status.TableSizes[riskReportTable] = int64(status.TotalRepos)
	if status.TotalRepos == 0 {
		return status, nil
	}

	var last, oldest dbTime
	row := ss.db.QueryRow(fmt.Sprintf("SELECT MAX(updated_at), MIN(updated_at) FROM %s", reportTable))
	if err := row.Scan(&last, &oldest); err != nil {
		return status, fmt.Errorf("failed to get update times: %w", err)
	}
	status.LastUpdated = last.Time
	status.OldestUpdated = oldest.Time

	if err := ss.countBy(reportTable, "risk_level", func(k string, n int) {
		status.LevelCounts[schema.RiskLevel(k)] = n
	}); err != nil {
		return status, err
	}
	if err := ss.countBy(reportTable, "registry", func(k string, n int) {
		status.RegistryCounts[schema.Registry(k)] = n
	}); err != nil {
		return status, err
	}

	return status, nil
}

// countBy runs a GROUP BY count over one column and feeds each bucket to fn.
func (ss *SnapshotStoreImpl) countBy(table, column string, fn func(string, int)) error {
	rows, err := ss.db.Query(fmt.Sprintf("SELECT %s, COUNT(*) FROM %s GROUP BY %s", column, table, column))
	if err != nil {
		return fmt.Errorf("failed to count by %s: %w", column, err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var key sql.NullString
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		fn(key.String, n)
	}
	return rows.Err()
}
