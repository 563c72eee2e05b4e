package contract

import (
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/riskscan/schema"
)

// Default values for configuration.
const (
	DefaultConcurrency = 20
	DefaultResultLimit = 100
	MaxResultLimit     = 5000
	DefaultPrecision   = 2
	DefaultTopN        = 20
	DefaultQuery       = "stars:>1000"
)

// Per-registry defaults for discovery size and minimum popularity.
// Popularity units differ per registry, so the thresholds do too.
const (
	DefaultNPMLimit          = 1000
	DefaultNPMMinPopularity  = 10000 // weekly downloads
	DefaultPyPILimit         = 1000
	DefaultPyPIMinPopularity = 100000 // monthly downloads
	DefaultMavenLimit        = 500
	DefaultMavenMinDependent = 100 // dependents count
)

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration for a scan or report.
// This struct is the "final, validated" config.
type Config struct {
	GitHubToken       string // Please use env var as this is plaintext
	Concurrency       int
	ResultLimit       int
	Query             string
	MinPopularity     int64
	UseCache          bool
	LibrariesIOAPIKey string // Please use env var as this is plaintext
	BatchTimeout      time.Duration

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext
	CacheDir       string

	StoreBackend   schema.DatabaseBackend
	StoreDBConnect string // Please use env var as this is plaintext

	Output      schema.OutputMode
	OutputFile  string
	Precision   int
	TopN        int
	Width       int // Terminal width override (0 = auto-detect)
	UseColors   bool
	MetricsFile string

	// Report-only settings.
	Filter         string
	MinLevel       schema.RiskLevel
	SortBy         schema.SortKey
	RegistryFilter schema.Registry
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	GitHubToken    string `mapstructure:"github-token"`
	Concurrency    int    `mapstructure:"concurrency"`
	Output         string `mapstructure:"output"`
	OutputFile     string `mapstructure:"output-file"`
	Precision      int    `mapstructure:"precision"`
	Top            int    `mapstructure:"top"`
	Width          int    `mapstructure:"width"`
	Color          string `mapstructure:"color"`
	CacheBackend   string `mapstructure:"cache-backend"`
	CacheDBConnect string `mapstructure:"cache-db-connect"`
	CacheDir       string `mapstructure:"cache-dir"`
	StoreBackend   string `mapstructure:"store-backend"`
	StoreDBConnect string `mapstructure:"store-db-connect"`
	BatchTimeout   string `mapstructure:"batch-timeout"`
	MetricsFile    string `mapstructure:"metrics-file"`

	// --- Fields from the scan command flags ---
	Limit             int    `mapstructure:"limit"`
	Query             string `mapstructure:"query"`
	MinPopularity     int64  `mapstructure:"min-popularity"`
	NoCache           bool   `mapstructure:"no-cache"`
	LibrariesIOAPIKey string `mapstructure:"libraries-io-api-key"`

	// --- Fields from reportCmd.Flags() ---
	Filter   string `mapstructure:"filter"`
	MinLevel string `mapstructure:"min-level"`
	Sort     string `mapstructure:"sort"`
	Registry string `mapstructure:"registry"`
}

// Clone returns a copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateScanInputs(cfg, input); err != nil {
		return err
	}
	if err := validateReportInputs(cfg, input); err != nil {
		return err
	}
	return validateBackendConfigs(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend, schema.FileBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

// validateSimpleInputs processes and validates output and concurrency fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.GitHubToken = strings.TrimSpace(input.GitHubToken)
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.MetricsFile = input.MetricsFile

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be greater than 0 (received %d)", input.Concurrency)
	}
	cfg.Concurrency = input.Concurrency

	if input.Precision < 1 || input.Precision > 4 {
		return fmt.Errorf("precision must be between 1 and 4 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	if input.Top < 0 {
		return fmt.Errorf("top must not be negative (received %d)", input.Top)
	}
	cfg.TopN = input.Top

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json", input.Output)
	}

	return nil
}

// validateScanInputs processes the discovery and fetch related fields.
func validateScanInputs(cfg *Config, input *ConfigRawInput) error {
	if input.Limit <= 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit must be greater than 0 and cannot exceed %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	if input.MinPopularity < 0 {
		return fmt.Errorf("min-popularity must not be negative (received %d)", input.MinPopularity)
	}
	cfg.MinPopularity = input.MinPopularity

	cfg.Query = strings.TrimSpace(input.Query)
	if cfg.Query == "" {
		cfg.Query = DefaultQuery
	}
	cfg.UseCache = !input.NoCache
	cfg.LibrariesIOAPIKey = strings.TrimSpace(input.LibrariesIOAPIKey)

	timeout, err := parseBatchTimeout(input.BatchTimeout)
	if err != nil {
		return err
	}
	cfg.BatchTimeout = timeout

	return nil
}

// validateReportInputs processes the read-only report fields.
func validateReportInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.Filter = strings.TrimSpace(input.Filter)

	cfg.MinLevel = ""
	if input.MinLevel != "" {
		level, ok := schema.ParseRiskLevel(input.MinLevel)
		if !ok {
			return fmt.Errorf("invalid min-level '%s'. must be LOW, MEDIUM, HIGH, CRITICAL", input.MinLevel)
		}
		cfg.MinLevel = level
	}

	cfg.SortBy = schema.SortByScore
	if input.Sort != "" {
		cfg.SortBy = schema.SortKey(strings.ToLower(input.Sort))
		if _, ok := schema.ValidSortKeys[cfg.SortBy]; !ok {
			return fmt.Errorf("invalid sort '%s'. must be score, contributors, name, popularity", input.Sort)
		}
	}

	cfg.RegistryFilter = ""
	if input.Registry != "" {
		reg := schema.Registry(strings.ToLower(input.Registry))
		switch reg {
		case schema.NPMRegistry, schema.PyPIRegistry, schema.MavenRegistry, schema.NoRegistry:
			cfg.RegistryFilter = reg
		default:
			return fmt.Errorf("invalid registry '%s'. must be npm, pypi, maven, none", input.Registry)
		}
	}

	return nil
}

// validateBackendConfigs validates registry cache and snapshot store configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Registry Cache Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidCacheBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be file, sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return fmt.Errorf("cache-db-connect: %w", err)
	}
	cfg.CacheDir = input.CacheDir
	if cfg.CacheDir == "" {
		cfg.CacheDir = GetCacheDir()
	}

	// --- Snapshot Store Validation ---
	cfg.StoreBackend = schema.DatabaseBackend(strings.ToLower(input.StoreBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.StoreBackend]; !ok {
		return fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, none", input.StoreBackend)
	}
	cfg.StoreDBConnect = input.StoreDBConnect
	if err := ValidateDatabaseConnectionString(cfg.StoreBackend, cfg.StoreDBConnect); err != nil {
		return fmt.Errorf("store-db-connect: %w", err)
	}

	// The cache and the snapshot must not share a SQLite file.
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.StoreBackend == schema.SQLiteBackend {
		cachePath := cfg.CacheDBConnect
		if cachePath == "" {
			cachePath = GetCacheDBFilePath(cfg.CacheDir)
		}
		storePath := cfg.StoreDBConnect
		if storePath == "" {
			storePath = GetSnapshotDBFilePath()
		}
		if cachePath == storePath {
			return fmt.Errorf("registry cache and snapshot store must use different SQLite database files. Both resolve to %q", cachePath)
		}
	}

	return nil
}

// parseBatchTimeout accepts Go duration strings. Empty or "0" disables the deadline.
func parseBatchTimeout(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid batch-timeout '%s': %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("batch-timeout must not be negative (received %s)", s)
	}
	return d, nil
}
