package iocache

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/riskscan/internal/contract"
	"github.com/huangsam/riskscan/schema"
)

// reportColumns is the column order shared by staging, risk_report and reads.
var reportColumns = []string{
	"repo", "language", "package_name", "popularity", "registry",
	"total_commits", "recent_commits", "older_commits", "velocity_ratio",
	"gini_coefficient", "top1_share", "top3_share", "contributor_count", "contributor_data_available",
	"risk_velocity", "risk_gini", "risk_concentration", "risk_bus_factor",
	"total_risk_score", "risk_level", "updated_at",
}

// sqlExecer is satisfied by *sql.Conn and *sql.Tx.
type sqlExecer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Upsert writes rows keyed by repo and stamps UpdatedAt on each of them.
// Lock conflicts are retried with linear backoff before ErrStoreLocked is returned.
func (ss *SnapshotStoreImpl) Upsert(ctx context.Context, rows []schema.ScoredRepo) error {
	if ss.db == nil || len(rows) == 0 {
		return nil
	}

	now := time.Now().UTC()
	for i := range rows {
		rows[i].UpdatedAt = now
	}
	batch := dedupeByRepo(rows)

	for attempt := 1; ; attempt++ {
		err := ss.writeOnce(ctx, batch)
		if err == nil {
			ss.metrics.ObserveSnapshotWrite(len(batch))
			return nil
		}
		if !isLockError(err) {
			return fmt.Errorf("failed to write %s: %w", riskReportTable, err)
		}
		if attempt >= ss.maxAttempts {
			return fmt.Errorf("%w after %d attempts: %w", ErrStoreLocked, attempt, err)
		}
		ss.metrics.ObserveSnapshotRetry()
		contract.LogWarn(fmt.Sprintf("snapshot write locked (attempt %d/%d)", attempt, ss.maxAttempts), err)
		if err := sleepCtx(ctx, time.Duration(attempt)*ss.retryDelay); err != nil {
			return err
		}
	}
}

// dedupeByRepo keeps the last row for each repo, in first-seen order.
func dedupeByRepo(rows []schema.ScoredRepo) []schema.ScoredRepo {
	index := make(map[string]int, len(rows))
	out := make([]schema.ScoredRepo, 0, len(rows))
	for _, r := range rows {
		if i, ok := index[r.Repo]; ok {
			out[i] = r
			continue
		}
		index[r.Repo] = len(out)
		out = append(out, r)
	}
	return out
}

// writeOnce stages the rows in a temporary table and merges them into risk_report.
// Every step shares one connection because temporary tables are per-session.
// MySQL commits DDL implicitly, so its table and index are ensured before the
// transaction opens; the other backends keep all steps inside it.
func (ss *SnapshotStoreImpl) writeOnce(ctx context.Context, rows []schema.ScoredRepo) (err error) {
	conn, err := ss.db.Conn(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ddlOutsideTx := ss.backend == schema.MySQLBackend
	if ddlOutsideTx {
		if err := ss.createStaging(ctx, conn); err != nil {
			return err
		}
		if err := ss.ensureReportTable(ctx, conn); err != nil {
			return err
		}
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if !ddlOutsideTx {
		if err := ss.createStaging(ctx, tx); err != nil {
			return err
		}
	}
	if err := ss.insertStaging(ctx, tx, rows); err != nil {
		return err
	}
	if !ddlOutsideTx {
		if err := ss.ensureReportTable(ctx, tx); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, ss.mergeQuery()); err != nil {
		return fmt.Errorf("failed to merge staged rows: %w", err)
	}
	if _, err := tx.ExecContext(ctx, ss.dropStagingQuery()); err != nil {
		return fmt.Errorf("failed to drop staging table: %w", err)
	}
	return tx.Commit()
}

// createStaging creates an empty temporary staging table, dropping any leftover.
func (ss *SnapshotStoreImpl) createStaging(ctx context.Context, q sqlExecer) error {
	if _, err := q.ExecContext(ctx, ss.dropStagingQuery()); err != nil {
		return fmt.Errorf("failed to drop stale staging table: %w", err)
	}
	if _, err := q.ExecContext(ctx, getCreateStagingQuery(ss.backend)); err != nil {
		return fmt.Errorf("failed to create staging table: %w", err)
	}
	return nil
}

func (ss *SnapshotStoreImpl) dropStagingQuery() string {
	switch ss.backend {
	case schema.MySQLBackend:
		return "DROP TEMPORARY TABLE IF EXISTS " + stagingTable
	case schema.PostgreSQLBackend:
		return "DROP TABLE IF EXISTS pg_temp." + stagingTable
	default:
		return "DROP TABLE IF EXISTS temp." + stagingTable
	}
}

// getCreateStagingQuery returns the staging DDL. Its column types become
// the types of risk_report when the first write creates it.
func getCreateStagingQuery(backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend:
		return `CREATE TEMPORARY TABLE ` + stagingTable + ` (
			repo VARCHAR(255) NOT NULL,
			language VARCHAR(64),
			package_name VARCHAR(255),
			popularity BIGINT,
			registry VARCHAR(16),
			total_commits INT,
			recent_commits INT,
			older_commits INT,
			velocity_ratio DOUBLE,
			gini_coefficient DOUBLE,
			top1_share DOUBLE,
			top3_share DOUBLE,
			contributor_count INT,
			contributor_data_available BOOLEAN,
			risk_velocity INT,
			risk_gini INT,
			risk_concentration INT,
			risk_bus_factor DOUBLE,
			total_risk_score DOUBLE,
			risk_level VARCHAR(16),
			updated_at DATETIME(6)
		)`

	case schema.PostgreSQLBackend:
		return `CREATE TEMPORARY TABLE ` + stagingTable + ` (
			repo TEXT NOT NULL,
			language TEXT,
			package_name TEXT,
			popularity BIGINT,
			registry TEXT,
			total_commits INTEGER,
			recent_commits INTEGER,
			older_commits INTEGER,
			velocity_ratio DOUBLE PRECISION,
			gini_coefficient DOUBLE PRECISION,
			top1_share DOUBLE PRECISION,
			top3_share DOUBLE PRECISION,
			contributor_count INTEGER,
			contributor_data_available BOOLEAN,
			risk_velocity INTEGER,
			risk_gini INTEGER,
			risk_concentration INTEGER,
			risk_bus_factor DOUBLE PRECISION,
			total_risk_score DOUBLE PRECISION,
			risk_level TEXT,
			updated_at TIMESTAMPTZ
		)`

	default: // SQLite
		return `CREATE TEMP TABLE ` + stagingTable + ` (
			repo TEXT NOT NULL,
			language TEXT,
			package_name TEXT,
			popularity INTEGER,
			registry TEXT,
			total_commits INTEGER,
			recent_commits INTEGER,
			older_commits INTEGER,
			velocity_ratio REAL,
			gini_coefficient REAL,
			top1_share REAL,
			top3_share REAL,
			contributor_count INTEGER,
			contributor_data_available INTEGER,
			risk_velocity INTEGER,
			risk_gini INTEGER,
			risk_concentration INTEGER,
			risk_bus_factor REAL,
			total_risk_score REAL,
			risk_level TEXT,
			updated_at TEXT
		)`
	}
}

// insertStaging loads rows into the staging table with one prepared statement.
func (ss *SnapshotStoreImpl) insertStaging(ctx context.Context, tx *sql.Tx, rows []schema.ScoredRepo) error {
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		stagingTable, strings.Join(reportColumns, ", "), placeholders(ss.backend, 1, len(reportColumns)))
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare staging insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, ss.rowArgs(r)...); err != nil {
			return fmt.Errorf("failed to stage %s: %w", r.Repo, err)
		}
	}
	return nil
}

// rowArgs flattens a row in reportColumns order.
func (ss *SnapshotStoreImpl) rowArgs(r schema.ScoredRepo) []any {
	var packageName any
	if r.PackageName != "" {
		packageName = r.PackageName
	}
	registry := r.Registry
	if registry == "" {
		registry = schema.NoRegistry
	}
	return []any{
		r.Repo, r.Language, packageName, r.Popularity, string(registry),
		r.TotalCommits, r.RecentCommits, r.OlderCommits, r.VelocityRatio,
		r.GiniCoefficient, r.Top1Share, r.Top3Share, r.ContributorCount, r.ContributorDataAvailable,
		r.RiskVelocity, r.RiskGini, r.RiskConcentration, r.RiskBusFactor,
		r.TotalRiskScore, string(r.RiskLevel), formatTime(r.UpdatedAt, ss.backend),
	}
}

// ensureReportTable creates risk_report from the staging shape and its unique repo index.
func (ss *SnapshotStoreImpl) ensureReportTable(ctx context.Context, q sqlExecer) error {
	table := quoteTableName(riskReportTable, ss.backend)
	cols := strings.Join(reportColumns, ", ")

	var create string
	switch ss.backend {
	case schema.PostgreSQLBackend:
		create = fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s AS SELECT %s FROM %s WITH NO DATA", table, cols, stagingTable)
	case schema.MySQLBackend:
		create = fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s AS SELECT %s FROM %s WHERE 1 = 0", table, cols, stagingTable)
	default:
		create = fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s AS SELECT %s FROM temp.%s WHERE 0", table, cols, stagingTable)
	}
	if _, err := q.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("failed to create %s: %w", riskReportTable, err)
	}

	if ss.backend == schema.MySQLBackend {
		// MySQL has no CREATE INDEX IF NOT EXISTS
		var n int
		check := "SELECT COUNT(*) FROM information_schema.statistics WHERE table_schema = DATABASE() AND table_name = ? AND index_name = ?"
		if err := q.QueryRowContext(ctx, check, riskReportTable, repoIndexName).Scan(&n); err != nil {
			return fmt.Errorf("failed to check index %s: %w", repoIndexName, err)
		}
		if n > 0 {
			return nil
		}
		if _, err := q.ExecContext(ctx, fmt.Sprintf("CREATE UNIQUE INDEX %s ON %s (repo)", repoIndexName, table)); err != nil {
			return fmt.Errorf("failed to create index %s: %w", repoIndexName, err)
		}
		return nil
	}

	if _, err := q.ExecContext(ctx, fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (repo)", repoIndexName, table)); err != nil {
		return fmt.Errorf("failed to create index %s: %w", repoIndexName, err)
	}
	return nil
}

// mergeQuery copies staged rows into risk_report, replacing rows with the same repo.
func (ss *SnapshotStoreImpl) mergeQuery() string {
	table := quoteTableName(riskReportTable, ss.backend)
	cols := strings.Join(reportColumns, ", ")

	switch ss.backend {
	case schema.MySQLBackend:
		return fmt.Sprintf("REPLACE INTO %s (%s) SELECT %s FROM %s", table, cols, cols, stagingTable)
	case schema.PostgreSQLBackend:
		sets := make([]string, 0, len(reportColumns)-1)
		for _, c := range reportColumns[1:] {
			sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", c, c))
		}
		return fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s ON CONFLICT (repo) DO UPDATE SET %s",
			table, cols, cols, stagingTable, strings.Join(sets, ", "))
	default:
		return fmt.Sprintf("INSERT OR REPLACE INTO %s (%s) SELECT %s FROM temp.%s", table, cols, cols, stagingTable)
	}
}
