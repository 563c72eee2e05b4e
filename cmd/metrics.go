package cmd

import (
	"github.com/huangsam/riskscan/core/algo"
	"github.com/huangsam/riskscan/internal/outwriter"
	"github.com/spf13/cobra"
)

// metricsCmd displays the formal definitions of the risk signals.
var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Display formulas and thresholds for every risk signal",
	Long: `Show the formal definitions, formulas and bucket thresholds behind the
risk score.

No GitHub requests are made. This is purely informational.

Examples:
  riskscan metrics
  riskscan metrics --output json`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return outwriter.NewOutWriter().WriteMetrics(algo.Definitions(), cfg)
	},
}
