package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/fatih/color"
	"github.com/huangsam/riskscan/schema"
)

// Color variables for console output.
var (
	CriticalColor = color.New(color.FgRed, color.Bold)     // CriticalColor represents standard danger.
	HighColor     = color.New(color.FgMagenta, color.Bold) // HighColor represents strong, distinct warning.
	MediumColor   = color.New(color.FgYellow)              // MediumColor represents standard caution, not bold.
	LowColor      = color.New(color.FgGreen)               // LowColor represents a healthy signal.
)

// GetColorLabel returns a colored risk level for console output (table).
func GetColorLabel(level schema.RiskLevel) string {
	text := string(level)

	switch level {
	case schema.RiskCritical:
		return CriticalColor.Sprint(text)
	case schema.RiskHigh:
		return HighColor.Sprint(text)
	case schema.RiskMedium:
		return MediumColor.Sprint(text)
	default: // LOW
		return LowColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path means os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// quiet silences LogInfo when the process speaks a protocol over stdio.
var quiet atomic.Bool

// SetQuiet toggles informational logging.
func SetQuiet(q bool) {
	quiet.Store(q)
}

// LogInfo prints a progress line to stderr.
func LogInfo(format string, args ...any) {
	if quiet.Load() {
		return
	}
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetSnapshotDBFilePath returns the default SQLite file for the risk report.
// It lives in the working directory so readers can find it next to the scan.
func GetSnapshotDBFilePath() string {
	return "risk_report.db"
}

// GetCacheDir returns the default directory for registry cache entries.
func GetCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "riskscan")
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".riskscan_cache"
	}
	return filepath.Join(homeDir, ".cache", "riskscan")
}

// GetCacheDBFilePath returns the path to the SQLite DB file for the registry cache
// when the sqlite cache backend is selected.
func GetCacheDBFilePath(cacheDir string) string {
	if cacheDir == "" {
		cacheDir = GetCacheDir()
	}
	return filepath.Join(cacheDir, "registry_cache.db")
}

// TruncateText truncates a string to a maximum width with an ellipsis suffix.
// Requires maxWidth > 3 so the ellipsis leaves room for content.
func TruncateText(s string, maxWidth int) string {
	runes := []rune(s)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return s
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
