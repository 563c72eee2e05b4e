package iocache

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/huangsam/riskscan/schema"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTableName(t *testing.T) {
	tests := []struct {
		name    string
		table   string
		wantErr bool
	}{
		{"simple", "risk_report", false},
		{"leading underscore", "_staging", false},
		{"with digits", "cache2", false},
		{"empty", "", true},
		{"leading digit", "1table", true},
		{"hyphen", "risk-report", true},
		{"injection", "x; DROP TABLE y", true},
		{"space", "risk report", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTableName(tt.table)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQuoteTableName(t *testing.T) {
	assert.Equal(t, "`risk_report`", quoteTableName("risk_report", schema.MySQLBackend))
	assert.Equal(t, `"risk_report"`, quoteTableName("risk_report", schema.PostgreSQLBackend))
	assert.Equal(t, `"risk_report"`, quoteTableName("risk_report", schema.SQLiteBackend))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "?, ?, ?", placeholders(schema.SQLiteBackend, 1, 3))
	assert.Equal(t, "?, ?", placeholders(schema.MySQLBackend, 4, 2))
	assert.Equal(t, "$2, $3, $4", placeholders(schema.PostgreSQLBackend, 2, 3))
}

func TestDriverName(t *testing.T) {
	for backend, want := range map[schema.DatabaseBackend]string{
		schema.SQLiteBackend:     "sqlite",
		schema.MySQLBackend:      "mysql",
		schema.PostgreSQLBackend: "pgx",
	} {
		got, err := driverName(backend)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := driverName(schema.FileBackend)
	assert.Error(t, err)
}

func TestIsLockError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("syntax error"), false},
		{"sqlite message", errors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{"mysql lock wait", &mysql.MySQLError{Number: 1205}, true},
		{"mysql deadlock wrapped", fmt.Errorf("merge: %w", &mysql.MySQLError{Number: 1213}), true},
		{"mysql duplicate", &mysql.MySQLError{Number: 1062}, false},
		{"pg deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"pg lock not available", &pgconn.PgError{Code: "55P03"}, true},
		{"pg unique violation", &pgconn.PgError{Code: "23505"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isLockError(tt.err))
		})
	}
}

func TestDBTimeScan(t *testing.T) {
	want := time.Date(2026, 5, 4, 3, 2, 1, 123456000, time.UTC)

	var d dbTime
	require.NoError(t, d.Scan(want.Format(time.RFC3339Nano)))
	assert.True(t, d.Valid)
	assert.True(t, want.Equal(d.Time))

	require.NoError(t, d.Scan([]byte("2026-05-04 03:02:01.123456")))
	assert.True(t, want.Equal(d.Time))

	require.NoError(t, d.Scan(want))
	assert.True(t, want.Equal(d.Time))

	require.NoError(t, d.Scan(nil))
	assert.False(t, d.Valid)
	assert.Nil(t, d.Ptr())

	assert.Error(t, d.Scan("yesterday"))
	assert.Error(t, d.Scan(42))
}

func TestFormatTime(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 6, time.FixedZone("X", 3600))
	assert.Equal(t, "2026-01-02T02:04:05.000000006Z", formatTime(ts, schema.SQLiteBackend))
	assert.Equal(t, ts.UTC(), formatTime(ts, schema.PostgreSQLBackend))
}
