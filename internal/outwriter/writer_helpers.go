package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/huangsam/riskscan/internal/contract"
	"github.com/huangsam/riskscan/schema"
)

// missingValue is shown for nullable columns that have no data.
const missingValue = "-"

// writeWithFile handles the common pattern of opening a file, writing to it, and cleaning up.
// It accepts a writer function that takes an io.Writer and returns an error.
func writeWithFile(outputFile string, writer func(io.Writer) error, successMsg string) error {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	// Only close if it's not stdout
	if file != os.Stdout {
		defer func() { _ = file.Close() }()
	}

	if err := writer(file); err != nil {
		return err
	}

	if file != os.Stdout {
		contract.LogInfo("%s to %s", successMsg, outputFile)
	}
	return nil
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeCSVWithHeader handles the common pattern of creating a CSV writer,
// writing a header, and writing data rows.
func writeCSVWithHeader(w io.Writer, header []string, writeRows func(*csv.Writer) error) error {
	csvWriter := csv.NewWriter(w)

	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := writeRows(csvWriter); err != nil {
		return err
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// createFormatter returns the float formatter for the configured precision.
func createFormatter(precision int) func(float64) string {
	return func(v float64) string {
		return strconv.FormatFloat(v, 'f', precision, 64)
	}
}

// formatOptionalFloat renders a nullable float, or "-" when there is no data.
func formatOptionalFloat(v *float64, fmtFloat func(float64) string) string {
	if v == nil {
		return missingValue
	}
	return fmtFloat(*v)
}

// formatOptionalInt renders a nullable int, or "-" when there is no data.
func formatOptionalInt(v *int) string {
	if v == nil {
		return missingValue
	}
	return strconv.Itoa(*v)
}

// csvOptionalFloat renders a nullable float for CSV, where no data is an empty cell.
func csvOptionalFloat(v *float64, fmtFloat func(float64) string) string {
	if v == nil {
		return ""
	}
	return fmtFloat(*v)
}

// formatPopularity renders a registry popularity with thousands separators.
func formatPopularity(r schema.ScoredRepo) string {
	if r.Registry == schema.NoRegistry || r.Registry == "" {
		return missingValue
	}
	return humanize.Comma(r.Popularity)
}

// levelLabel returns the risk level, colored when colors are enabled.
func levelLabel(level schema.RiskLevel, useColors bool) string {
	if useColors {
		return contract.GetColorLabel(level)
	}
	return string(level)
}

// orMissing replaces an empty string with "-".
func orMissing(s string) string {
	if s == "" {
		return missingValue
	}
	return s
}
