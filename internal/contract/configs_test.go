package contract

import (
	"testing"
	"time"

	"github.com/huangsam/riskscan/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validInput returns a raw input that passes validation, for tests to tweak.
func validInput() *ConfigRawInput {
	return &ConfigRawInput{
		Concurrency:  DefaultConcurrency,
		Output:       "text",
		Precision:    DefaultPrecision,
		Top:          DefaultTopN,
		Color:        "yes",
		CacheBackend: string(schema.FileBackend),
		StoreBackend: string(schema.SQLiteBackend),
		Limit:        DefaultResultLimit,
	}
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError bool
	}{
		{"valid minimal config", func(*ConfigRawInput) {}, false},
		{"invalid limit (zero)", func(in *ConfigRawInput) { in.Limit = 0 }, true},
		{"invalid limit (negative)", func(in *ConfigRawInput) { in.Limit = -1 }, true},
		{"invalid limit (too large)", func(in *ConfigRawInput) { in.Limit = MaxResultLimit + 1 }, true},
		{"invalid concurrency (zero)", func(in *ConfigRawInput) { in.Concurrency = 0 }, true},
		{"invalid precision (zero)", func(in *ConfigRawInput) { in.Precision = 0 }, true},
		{"invalid precision (too high)", func(in *ConfigRawInput) { in.Precision = 5 }, true},
		{"invalid output format", func(in *ConfigRawInput) { in.Output = "xml" }, true},
		{"parquet is not a report format", func(in *ConfigRawInput) { in.Output = "parquet" }, true},
		{"invalid color", func(in *ConfigRawInput) { in.Color = "maybe" }, true},
		{"negative top", func(in *ConfigRawInput) { in.Top = -1 }, true},
		{"negative min popularity", func(in *ConfigRawInput) { in.MinPopularity = -5 }, true},
		{"invalid batch timeout", func(in *ConfigRawInput) { in.BatchTimeout = "soon" }, true},
		{"negative batch timeout", func(in *ConfigRawInput) { in.BatchTimeout = "-1s" }, true},
		{"invalid cache backend", func(in *ConfigRawInput) { in.CacheBackend = "redis" }, true},
		{"file backend is not a store backend", func(in *ConfigRawInput) { in.StoreBackend = "file" }, true},
		{"mysql store without connection string", func(in *ConfigRawInput) { in.StoreBackend = "mysql" }, true},
		{"postgresql cache without connection string", func(in *ConfigRawInput) { in.CacheBackend = "postgresql" }, true},
		{"invalid min level", func(in *ConfigRawInput) { in.MinLevel = "severe" }, true},
		{"invalid sort", func(in *ConfigRawInput) { in.Sort = "stars" }, true},
		{"invalid registry", func(in *ConfigRawInput) { in.Registry = "cargo" }, true},
		{
			name: "same sqlite file for cache and store",
			mutate: func(in *ConfigRawInput) {
				in.CacheBackend = "sqlite"
				in.CacheDBConnect = "shared.db"
				in.StoreDBConnect = "shared.db"
			},
			expectError: true,
		},
		{
			name: "valid mysql store",
			mutate: func(in *ConfigRawInput) {
				in.StoreBackend = "mysql"
				in.StoreDBConnect = "root:secret@tcp(localhost:3306)/riskscan"
			},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(input)
			cfg := &Config{}
			err := ProcessAndValidate(cfg, input)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProcessAndValidatePopulatesConfig(t *testing.T) {
	input := validInput()
	input.GitHubToken = "  ghp_token  "
	input.Output = "JSON"
	input.NoCache = true
	input.BatchTimeout = "90s"
	input.MinLevel = "high"
	input.Sort = "Popularity"
	input.Registry = "NPM"
	input.MinPopularity = 500
	input.Query = ""

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))

	assert.Equal(t, "ghp_token", cfg.GitHubToken)
	assert.Equal(t, schema.JSONOut, cfg.Output)
	assert.False(t, cfg.UseCache)
	assert.Equal(t, 90*time.Second, cfg.BatchTimeout)
	assert.Equal(t, schema.RiskHigh, cfg.MinLevel)
	assert.Equal(t, schema.SortByPopularity, cfg.SortBy)
	assert.Equal(t, schema.NPMRegistry, cfg.RegistryFilter)
	assert.Equal(t, int64(500), cfg.MinPopularity)
	assert.Equal(t, DefaultQuery, cfg.Query)
	assert.NotEmpty(t, cfg.CacheDir)
	assert.True(t, cfg.UseColors)
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		name    string
		backend schema.DatabaseBackend
		connStr string
		wantErr bool
	}{
		{"sqlite empty", schema.SQLiteBackend, "", false},
		{"file empty", schema.FileBackend, "", false},
		{"none empty", schema.NoneBackend, "", false},
		{"mysql valid", schema.MySQLBackend, "u:p@tcp(localhost:3306)/db", false},
		{"mysql missing tcp", schema.MySQLBackend, "u:p@localhost/db", true},
		{"mysql missing db", schema.MySQLBackend, "u:p@tcp(localhost:3306)", true},
		{"postgres valid", schema.PostgreSQLBackend, "host=localhost dbname=riskscan", false},
		{"postgres missing host", schema.PostgreSQLBackend, "dbname=riskscan", true},
		{"postgres missing dbname", schema.PostgreSQLBackend, "host=localhost", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.connStr)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{ResultLimit: 10, Filter: "react"}
	clone := cfg.Clone()
	clone.ResultLimit = 99
	assert.Equal(t, 10, cfg.ResultLimit)
	assert.Equal(t, "react", clone.Filter)
}
