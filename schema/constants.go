package schema

import "strings"

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching and snapshots.
	DatabaseBackend string

	// Registry identifies the package registry a repository was discovered through.
	Registry string

	// ScanSource identifies how a scan discovered its repositories.
	ScanSource string

	// RiskLevel is the discrete category assigned to a total risk score.
	RiskLevel string

	// SortKey selects the ordering used by report listings.
	SortKey string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"

	// FileBackend stores each registry cache entry as its own JSON file.
	// It is only valid for the registry cache.
	FileBackend DatabaseBackend = "file"
)

// All registries supported.
const (
	NPMRegistry   Registry = "npm"
	PyPIRegistry  Registry = "pypi"
	MavenRegistry Registry = "maven"
	NoRegistry    Registry = "none"
)

// All scan sources supported.
const (
	SearchSource ScanSource = "github"
	NPMSource    ScanSource = "npm"
	PyPISource   ScanSource = "pypi"
	MavenSource  ScanSource = "maven"
	ManualSource ScanSource = "manual"
)

// All risk levels, lowest first.
const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// All report sort keys supported.
const (
	SortByScore        SortKey = "score" // default
	SortByContributors SortKey = "contributors"
	SortByName         SortKey = "name"
	SortByPopularity   SortKey = "popularity"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:  {},
	TextOut: {},
	JSONOut: {},
}

// ValidDatabaseBackends lists all valid snapshot store backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidCacheBackends lists all valid registry cache backends.
var ValidCacheBackends = map[DatabaseBackend]struct{}{
	FileBackend:       {},
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidSortKeys lists all valid report sort keys.
var ValidSortKeys = map[SortKey]struct{}{
	SortByScore:        {},
	SortByContributors: {},
	SortByName:         {},
	SortByPopularity:   {},
}

// riskLevelRank orders levels for minimum-level filtering.
var riskLevelRank = map[RiskLevel]int{
	RiskLow:      0,
	RiskMedium:   1,
	RiskHigh:     2,
	RiskCritical: 3,
}

// AtLeast reports whether l is at or above other.
// Unknown levels never satisfy the comparison.
func (l RiskLevel) AtLeast(other RiskLevel) bool {
	a, ok := riskLevelRank[l]
	if !ok {
		return false
	}
	b, ok := riskLevelRank[other]
	if !ok {
		return false
	}
	return a >= b
}

// ParseRiskLevel validates a user-supplied risk level, ignoring case.
func ParseRiskLevel(s string) (RiskLevel, bool) {
	l := RiskLevel(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := riskLevelRank[l]
	return l, ok
}
