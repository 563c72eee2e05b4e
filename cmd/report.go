package cmd

import (
	"github.com/huangsam/riskscan/core"
	"github.com/huangsam/riskscan/internal/outwriter"
	"github.com/spf13/cobra"
)

// reportCmd reads the persisted risk report without touching the network.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show the persisted risk report",
	Long: `Read scored repositories from the snapshot store.

The report holds the latest score for every repository ever scanned,
whichever scan produced it. No GitHub requests are made.

Examples:
  # The riskiest repositories across all scans
  riskscan report --limit 50

  # Critical npm repositories as CSV
  riskscan report --registry npm --min-level CRITICAL --output csv

  # Repositories with the fewest contributors whose name mentions "yaml"
  riskscan report --filter yaml --sort contributors`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		rows, err := core.GetReport(rootCtx, storeManager.GetSnapshotStore(), core.ReportQueryFromConfig(cfg))
		if err != nil {
			return err
		}
		return outwriter.NewOutWriter().WriteReport(rows, cfg)
	},
}
