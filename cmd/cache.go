package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/riskscan/internal/contract"
	"github.com/huangsam/riskscan/internal/iocache"
	"github.com/huangsam/riskscan/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cacheBackend resolves and validates the registry cache settings from Viper.
func cacheBackend(cmd *cobra.Command) error {
	if err := bindFlags(cmd); err != nil {
		return err
	}
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend := schema.DatabaseBackend(viper.GetString("cache-backend"))
	if _, ok := schema.ValidCacheBackends[backend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be file, sqlite, mysql, postgresql, none", backend)
	}
	connStr := viper.GetString("cache-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr
	cfg.CacheDir = viper.GetString("cache-dir")
	return nil
}

// cacheSetup loads minimal configuration needed for cache operations
// and opens the registry cache.
func cacheSetup(cmd *cobra.Command, _ []string) error {
	if err := cacheBackend(cmd); err != nil {
		return err
	}
	if err := iocache.InitStores(iocache.StoreOptions{
		CacheBackend: cfg.CacheBackend,
		CacheConnStr: cfg.CacheDBConnect,
		CacheDir:     cfg.CacheDir,
	}); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	return nil
}

// cacheCmd focused on cache management.
//
// Note: Cache subcommands use minimal initialization instead of the full
// sharedSetup. They never contact GitHub or a registry.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the registry response cache",
	Long: `Manage the cache of registry responses that speeds up repeated registry scans.

Discovered package lists are cached for 7 days, keyed by registry and list size.

Supported backends: File (default), SQLite, MySQL, PostgreSQL, or None

Subcommands:
  status - Show cache statistics and connection info
  clear  - Remove all cached data

Examples:
  riskscan cache status
  riskscan cache clear`,
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached registry responses",
	Long: `Delete all cached registry responses from the configured backend.

For File: Removes the cache entries from the cache directory
For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the cache table

Examples:
  # Clear the file cache (default)
  riskscan cache clear

  # Clear a MySQL cache (set connection string via env variable)
  RISKSCAN_CACHE_BACKEND=mysql RISKSCAN_CACHE_DB_CONNECT="..." riskscan cache clear`,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return cacheBackend(cmd)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := iocache.ClearCache(cfg.CacheBackend, cfg.CacheDir, cfg.CacheDBConnect); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		fmt.Println("Cache cleared successfully.")
		return nil
	},
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics and connection details",
	Long: `Show information about the registry cache.

Displays:
- Backend type and connection status
- Total number of cached entries
- Last and oldest cache entry timestamps
- Cache size on disk

Examples:
  riskscan cache status`,
	PreRunE: cacheSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		store := iocache.Manager.GetRegistryCache()
		if store == nil {
			fmt.Println("Registry cache is disabled.")
			return nil
		}
		status, err := store.GetStatus()
		if err != nil {
			return fmt.Errorf("failed to get cache status: %w", err)
		}
		iocache.PrintCacheStatus(os.Stdout, status)
		return nil
	},
}
