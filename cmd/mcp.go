package cmd

import (
	"github.com/huangsam/riskscan/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the riskscan MCP server",
	Long: `Launch an MCP server over stdio that lets AI agents read the risk report,
score repositories and list scan runs through standard tools.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		p := newPipeline()
		defer func() { _ = p.Stats.Close() }()
		return mcp.StartMCPServer(rootCtx, cfg, storeManager, p)
	},
}
