// Package cmd defines the command-line interface for riskscan.
package cmd

import (
	"github.com/huangsam/riskscan/internal/contract"
	"github.com/huangsam/riskscan/schema"
	"github.com/spf13/cobra"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(scanNPMCmd)
	rootCmd.AddCommand(scanPyPICmd)
	rootCmd.AddCommand(scanMavenCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(mcpCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the snapshot subcommands to the parent snapshot command
	snapshotCmd.AddCommand(snapshotClearCmd)
	snapshotCmd.AddCommand(snapshotStatusCmd)
	snapshotCmd.AddCommand(snapshotExportCmd)
	snapshotCmd.AddCommand(snapshotMigrateCmd)
	snapshotCmd.AddCommand(snapshotRunsCmd)

	// Persistent flags are bound to Viper in sharedSetup for the command being run
	rootCmd.PersistentFlags().String("github-token", "", "GitHub token for the statistics API (prefer GITHUB_TOKEN)")
	rootCmd.PersistentFlags().IntP("concurrency", "c", contract.DefaultConcurrency, "Maximum number of concurrent GitHub requests")
	rootCmd.PersistentFlags().IntP("limit", "l", contract.DefaultResultLimit, "Number of repositories to scan or rows to display")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().Int("top", contract.DefaultTopN, "Number of rows in the scan summary table (0 = all)")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.FileBackend), "Registry cache backend: file or sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for a mysql/postgresql registry cache")
	rootCmd.PersistentFlags().String("cache-dir", "", "Directory for the file registry cache (default is the user cache directory)")
	rootCmd.PersistentFlags().String("store-backend", string(schema.SQLiteBackend), "Snapshot store backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("store-db-connect", "", "Database connection string for the snapshot store (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("batch-timeout", "", "Deadline for fetching a whole batch, e.g. 10m (empty = none)")
	rootCmd.PersistentFlags().String("metrics-file", "", "Write Prometheus metrics in text format to this path on exit")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")

	// Search scan flags
	scanCmd.Flags().String("query", contract.DefaultQuery, "GitHub search query used when no repositories are given")
	scanCmd.Flags().Bool("no-cache", false, "Ignore cached registry responses")

	// Registry scan flags. A local "limit" shadows the persistent one.
	addRegistryFlags(scanNPMCmd, contract.DefaultNPMLimit, contract.DefaultNPMMinPopularity, "weekly downloads")
	addRegistryFlags(scanPyPICmd, contract.DefaultPyPILimit, contract.DefaultPyPIMinPopularity, "monthly downloads")
	addRegistryFlags(scanMavenCmd, contract.DefaultMavenLimit, contract.DefaultMavenMinDependent, "dependent repositories")
	scanMavenCmd.Flags().String("libraries-io-api-key", "", "Libraries.io API key (prefer LIBRARIES_IO_API_KEY)")

	// Report flags
	reportCmd.Flags().StringP("filter", "f", "", "Only show repositories whose name contains this text")
	reportCmd.Flags().String("min-level", "", "Only show repositories at or above this level: LOW, MEDIUM, HIGH, CRITICAL")
	reportCmd.Flags().String("sort", string(schema.SortByScore), "Sort order: score or contributors or name or popularity")
	reportCmd.Flags().String("registry", "", "Only show repositories from this registry: npm, pypi, maven, none")

	// Snapshot migrate flags
	snapshotMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
}

// addRegistryFlags registers the discovery flags shared by the registry scans.
func addRegistryFlags(cmd *cobra.Command, limit int, minPopularity int64, unit string) {
	cmd.Flags().IntP("limit", "l", limit, "Number of top packages to discover")
	cmd.Flags().Int64("min-popularity", minPopularity, "Minimum popularity ("+unit+") for a package to be scanned")
	cmd.Flags().Bool("no-cache", false, "Ignore cached registry responses")
}
