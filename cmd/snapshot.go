package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/riskscan/core"
	"github.com/huangsam/riskscan/internal/contract"
	"github.com/huangsam/riskscan/internal/iocache"
	"github.com/huangsam/riskscan/internal/outwriter"
	"github.com/huangsam/riskscan/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// snapshotBackend resolves and validates the snapshot store settings from Viper.
func snapshotBackend(cmd *cobra.Command) (schema.DatabaseBackend, string, error) {
	if err := bindFlags(cmd); err != nil {
		return "", "", err
	}
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}

	backend := schema.DatabaseBackend(viper.GetString("store-backend"))
	if backend == "" {
		backend = schema.NoneBackend
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", "", fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	connStr := viper.GetString("store-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// snapshotSetup loads minimal configuration needed for snapshot operations.
// This is used by commands that need the store without full shared setup.
func snapshotSetup(cmd *cobra.Command, _ []string) error {
	backend, connStr, err := snapshotBackend(cmd)
	if err != nil {
		return err
	}

	// Initialize only the snapshot store for these commands
	if err := iocache.InitStores(iocache.StoreOptions{
		StoreBackend: backend,
		StoreConnStr: connStr,
		Metrics:      scanMetrics,
	}); err != nil {
		return fmt.Errorf("failed to initialize snapshot store: %w", err)
	}

	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// snapshotMigrateSetup resolves the store settings without opening the store,
// allowing migrations to run on a fresh database.
func snapshotMigrateSetup(cmd *cobra.Command, _ []string) error {
	backend, connStr, err := snapshotBackend(cmd)
	if err != nil {
		return err
	}
	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr
	return nil
}

// snapshotCmd focused on snapshot store management.
//
// Note: most snapshot subcommands use minimal initialization (snapshotSetup)
// instead of sharedSetup. They only need the store, not scan settings.
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Manage the persisted risk report and scan history",
	Long: `Manage the snapshot store that holds the risk report and the scan run history.

Every scan upserts its scored repositories into the risk report and records
a scan run with its configuration and summary counts.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show snapshot statistics
  runs    - List recent scan runs
  export  - Export data to Parquet for analytics
  clear   - Remove the risk report and scan history
  migrate - Run database schema migrations

Examples:
  # Check snapshot status
  riskscan snapshot status

  # Export for analysis in pandas/DuckDB
  riskscan snapshot export --output-file riskscan-data`,
}

// snapshotClearCmd clears the snapshot data.
var snapshotClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the risk report and all scan history",
	Long: `Delete the risk report and every recorded scan run.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the snapshot tables

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  riskscan snapshot export --output-file backup
  riskscan snapshot clear`,
	PreRunE: snapshotMigrateSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := iocache.ClearSnapshot(cfg.StoreBackend, cfg.StoreDBConnect); err != nil {
			return fmt.Errorf("failed to clear snapshot data: %w", err)
		}
		fmt.Println("Snapshot data cleared successfully.")
		return nil
	},
}

// snapshotStatusCmd shows snapshot status.
var snapshotStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display snapshot statistics and connection details",
	Long: `Show information about the snapshot store.

Displays:
- Backend type and connection status
- Number of repositories in the risk report, by level and registry
- Number of scan runs and the latest scan time
- Schema migration version

Examples:
  riskscan snapshot status`,
	PreRunE: snapshotSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		status, err := iocache.Manager.GetSnapshotStore().GetStatus()
		if err != nil {
			return fmt.Errorf("failed to get snapshot status: %w", err)
		}
		iocache.PrintSnapshotStatus(os.Stdout, status)
		return nil
	},
}

// snapshotRunsCmd lists recent scan runs.
var snapshotRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent scan runs, newest first",
	Long: `List recorded scan runs with their source, duration and summary counts.

Runs that never finished have no duration.

Examples:
  riskscan snapshot runs --limit 10
  riskscan snapshot runs --output json`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		runs, err := core.GetScanRuns(rootCtx, storeManager.GetSnapshotStore(), cfg.ResultLimit)
		if err != nil {
			return err
		}
		return outwriter.NewOutWriter().WriteScanRuns(runs, cfg)
	},
}

// snapshotExportCmd exports snapshot data to Parquet files.
var snapshotExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the risk report and scan history to Parquet",
	Long: `Export all snapshot data to Parquet format for use with analytics tools.

Exports two datasets:
- <output-file>.risk_report.parquet - one row per scored repository
- <output-file>.scan_runs.parquet   - one row per scan run

Requires: --output-file parameter

Examples:
  riskscan snapshot export --output-file riskscan
  duckdb -c "SELECT repo, total_risk_score FROM 'riskscan.risk_report.parquet' ORDER BY 2 DESC LIMIT 10"`,
	PreRunE: snapshotSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := iocache.ExecuteSnapshotExport(rootCtx, os.Stdout, iocache.Manager.GetSnapshotStore(), cfg.OutputFile); err != nil {
			return fmt.Errorf("failed to export snapshot data: %w", err)
		}
		return nil
	},
}

// snapshotMigrateCmd runs database migrations for the snapshot store.
var snapshotMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the snapshot store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  riskscan snapshot migrate

  # Rollback to initial state
  riskscan snapshot migrate --target-version 0`,
	PreRunE: snapshotMigrateSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateSnapshot(os.Stdout, cfg.StoreBackend, cfg.StoreDBConnect, targetVersion); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		return nil
	},
}
