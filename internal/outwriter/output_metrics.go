package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/huangsam/riskscan/internal/contract"
	"github.com/huangsam/riskscan/schema"
)

// PrintMetricsDefinitions outputs the scoring definitions using the configured format.
func PrintMetricsDefinitions(defs []schema.MetricDefinition, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, defs)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"name", "description", "formula", "buckets"}, func(cw *csv.Writer) error {
				for _, d := range defs {
					if err := cw.Write([]string{d.Name, d.Description, d.Formula, strings.Join(d.Buckets, "|")}); err != nil {
						return err
					}
				}
				return nil
			})
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeMetricsText(w, defs)
		}, "Wrote text")
	}
}

// writeMetricsText prints one block per scoring component.
func writeMetricsText(w io.Writer, defs []schema.MetricDefinition) error {
	if _, err := fmt.Fprintln(w, "Maintainer risk scoring"); err != nil {
		return err
	}
	for _, d := range defs {
		if _, err := fmt.Fprintf(w, "\n%s\n  %s\n  Formula: %s\n", strings.ToUpper(d.Name), d.Description, d.Formula); err != nil {
			return err
		}
		for _, b := range d.Buckets {
			if _, err := fmt.Fprintf(w, "    %s\n", b); err != nil {
				return err
			}
		}
	}
	return nil
}
