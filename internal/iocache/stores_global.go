package iocache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/huangsam/riskscan/internal/contract"
	"github.com/huangsam/riskscan/internal/metrics"
	"github.com/huangsam/riskscan/schema"
)

// Global Manager instance for main logic.
var (
	Manager   = &StoreManagerImpl{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// StoreOptions selects the backends for InitStores. An empty backend skips that store.
type StoreOptions struct {
	CacheBackend schema.DatabaseBackend
	CacheConnStr string
	CacheDir     string

	StoreBackend schema.DatabaseBackend
	StoreConnStr string

	Metrics *metrics.Metrics
}

// NewRegistryCache opens the registry cache for the backend.
func NewRegistryCache(backend schema.DatabaseBackend, connStr, cacheDir string) (contract.CacheStore, error) {
	if backend == schema.FileBackend {
		return NewFileCacheStore(cacheDirOrDefault(cacheDir))
	}
	return NewCacheStore(RegistryCacheTable, backend, connStr, contract.GetCacheDBFilePath(cacheDir))
}

// InitStores initializes the global manager with the registry cache and the snapshot store.
func InitStores(opts StoreOptions) error {
	var initErr error

	initOnce.Do(func() {
		var cache contract.CacheStore
		if opts.CacheBackend != "" {
			var err error
			cache, err = NewRegistryCache(opts.CacheBackend, opts.CacheConnStr, opts.CacheDir)
			if err != nil {
				initErr = fmt.Errorf("failed to initialize registry cache: %w", err)
				return
			}
		}

		var snapshot contract.SnapshotStore
		if opts.StoreBackend != "" {
			store, err := NewSnapshotStore(opts.StoreBackend, opts.StoreConnStr)
			if err != nil {
				if cache != nil {
					_ = cache.Close()
				}
				initErr = fmt.Errorf("failed to initialize snapshot store: %w", err)
				return
			}
			store.SetMetrics(opts.Metrics)
			snapshot = store
		}

		Manager.Lock()
		defer Manager.Unlock()
		Manager.cache = cache
		Manager.snapshot = snapshot
	})

	return initErr
}

// CloseStores should be called on application shutdown.
func CloseStores() {
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.cache != nil {
			_ = Manager.cache.Close()
		}
		if Manager.snapshot != nil {
			_ = Manager.snapshot.Close()
		}
	})
}

func cacheDirOrDefault(dir string) string {
	if dir == "" {
		return contract.GetCacheDir()
	}
	return dir
}

// ClearCache clears the registry cache for the specified backend.
// For the file backend, it removes the cache files from cacheDir.
// For SQLite, it deletes the database file.
// For SQL backends (MySQL/PostgreSQL), it drops the table.
// For NoneBackend, it does nothing.
func ClearCache(backend schema.DatabaseBackend, cacheDir, connStr string) error {
	switch backend {
	case schema.FileBackend:
		return (&FileCacheStore{dir: cacheDirOrDefault(cacheDir)}).clear()

	case schema.SQLiteBackend:
		dbFilePath := connStr
		if dbFilePath == "" {
			dbFilePath = contract.GetCacheDBFilePath(cacheDir)
		}
		return removeSQLiteFile(dbFilePath)

	case schema.MySQLBackend, schema.PostgreSQLBackend:
		return clearSQLTables(backend, connStr, RegistryCacheTable)

	case schema.NoneBackend:
		return nil

	default:
		return fmt.Errorf("unsupported cache backend for clearing: %s", backend)
	}
}

// ClearSnapshot clears the risk report and scan history for the specified backend.
// For SQLite, it deletes the database file.
// For SQL backends (MySQL/PostgreSQL), it drops the snapshot and migration tables.
// For NoneBackend, it does nothing.
func ClearSnapshot(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		dbFilePath := connStr
		if dbFilePath == "" {
			dbFilePath = contract.GetSnapshotDBFilePath()
		}
		return removeSQLiteFile(dbFilePath)

	case schema.MySQLBackend, schema.PostgreSQLBackend:
		return clearSQLTables(backend, connStr, riskReportTable, scanRunsTable, "schema_migrations")

	case schema.NoneBackend:
		return nil

	default:
		return fmt.Errorf("unsupported snapshot backend for clearing: %s", backend)
	}
}

// removeSQLiteFile deletes a SQLite database along with its WAL side files.
func removeSQLiteFile(path string) error {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		// Remove the file; ignore if it doesn't exist
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", p, err)
		}
	}
	return nil
}

// clearSQLTables connects to the SQL database and drops the tables if they exist.
func clearSQLTables(backend schema.DatabaseBackend, connStr string, tables ...string) error {
	driver, err := driverName(backend)
	if err != nil {
		return err
	}
	db, err := sql.Open(driver, connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", backend, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping %s database: %w", backend, err)
	}

	for _, table := range tables {
		if err := validateTableName(table); err != nil {
			return err
		}
		query := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteTableName(table, backend))
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return nil
}
