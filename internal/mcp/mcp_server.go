// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/riskscan/core"
	"github.com/huangsam/riskscan/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// maxScoreRepos bounds how many repositories one score_repositories call may fetch.
const maxScoreRepos = 50

// NewMCPServer initializes and configures the riskscan MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager, pipeline *core.Pipeline) *server.MCPServer {
	s := server.NewMCPServer(
		"riskscan Maintainer Risk Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg:  baseCfg,
		mgr:      mgr,
		pipeline: pipeline,
	}

	// --- 1. Tool: get_risk_report ---
	s.AddTool(mcp.NewTool("get_risk_report",
		mcp.WithDescription("List repositories from the persisted maintainer risk report, riskiest first by default."),
		mcp.WithString("filter", mcp.Description("Case-insensitive substring matched against repo, package name and language.")),
		mcp.WithString("min_level", mcp.Description("Only include repositories at or above this risk level."), mcp.Enum("LOW", "MEDIUM", "HIGH", "CRITICAL")),
		mcp.WithString("registry", mcp.Description("Only include repositories discovered through this registry."), mcp.Enum("npm", "pypi", "maven", "none")),
		mcp.WithString("sort", mcp.Description("Sort order. Defaults to 'score'."), mcp.Enum("score", "contributors", "name", "popularity")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of results returned.")),
	), h.handleGetRiskReport)

	// --- 2. Tool: score_repositories ---
	s.AddTool(mcp.NewTool("score_repositories",
		mcp.WithDescription("Fetch GitHub statistics for the given repositories, score their maintainer risk and store the result."),
		mcp.WithString("repos", mcp.Description("Comma-separated list of owner/repo identifiers or GitHub URLs."), mcp.Required()),
	), h.handleScoreRepositories)

	// --- 3. Tool: get_scan_runs ---
	s.AddTool(mcp.NewTool("get_scan_runs",
		mcp.WithDescription("List recorded scan runs, newest first."),
		mcp.WithNumber("limit", mcp.Description("Limit the number of runs returned. Defaults to 20.")),
	), h.handleGetScanRuns)

	return s
}

// StartMCPServer starts the riskscan MCP server on stdio.
// Progress logging is silenced so that stdout only carries the protocol.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager, pipeline *core.Pipeline) error {
	contract.SetQuiet(true)
	defer contract.SetQuiet(false)

	s := NewMCPServer(baseCfg, mgr, pipeline)
	return server.ServeStdio(s)
}
