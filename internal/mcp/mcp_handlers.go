package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/huangsam/riskscan/core"
	"github.com/huangsam/riskscan/internal/contract"
	"github.com/huangsam/riskscan/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// defaultRunLimit is used when get_scan_runs has no limit.
const defaultRunLimit = 20

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg  *contract.Config
	mgr      contract.StoreManager
	pipeline *core.Pipeline
}

func (h *toolHandler) snapshotStore() contract.SnapshotStore {
	if h.mgr == nil {
		return nil
	}
	return h.mgr.GetSnapshotStore()
}

func (h *toolHandler) handleGetRiskReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := schema.ReportQuery{
		Filter: strings.TrimSpace(request.GetString("filter", "")),
		SortBy: schema.SortByScore,
		Limit:  h.baseCfg.ResultLimit,
	}
	if l := request.GetString("min_level", ""); l != "" {
		level, ok := schema.ParseRiskLevel(l)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("invalid min_level '%s'. must be LOW, MEDIUM, HIGH, CRITICAL", l)), nil
		}
		query.MinLevel = level
	}
	if r := request.GetString("registry", ""); r != "" {
		reg := schema.Registry(strings.ToLower(r))
		switch reg {
		case schema.NPMRegistry, schema.PyPIRegistry, schema.MavenRegistry, schema.NoRegistry:
			query.Registry = reg
		default:
			return mcp.NewToolResultError(fmt.Sprintf("invalid registry '%s'. must be npm, pypi, maven, none", r)), nil
		}
	}
	if s := request.GetString("sort", ""); s != "" {
		key := schema.SortKey(strings.ToLower(s))
		if _, ok := schema.ValidSortKeys[key]; !ok {
			return mcp.NewToolResultError(fmt.Sprintf("invalid sort '%s'. must be score, contributors, name, popularity", s)), nil
		}
		query.SortBy = key
	}
	if l := request.GetInt("limit", 0); l > 0 {
		query.Limit = l
	}

	rows, err := core.GetReport(ctx, h.snapshotStore(), query)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("report failed: %v", err)), nil
	}
	if rows == nil {
		rows = []schema.ScoredRepo{}
	}
	return jsonResult(rows)
}

func (h *toolHandler) handleScoreRepositories(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args []string
	for part := range strings.SplitSeq(request.GetString("repos", ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			args = append(args, part)
		}
	}
	if len(args) == 0 {
		return mcp.NewToolResultError("repos is required (comma-separated owner/repo list)"), nil
	}
	if len(args) > maxScoreRepos {
		return mcp.NewToolResultError(fmt.Sprintf("at most %d repositories can be scored per call (received %d)", maxScoreRepos, len(args))), nil
	}
	if h.pipeline == nil {
		return mcp.NewToolResultError("scoring is not available: no statistics client configured"), nil
	}

	result, err := h.pipeline.ExecuteManualScan(ctx, h.baseCfg.Clone(), args)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("scan failed: %v", err)), nil
	}
	return jsonResult(result)
}

func (h *toolHandler) handleGetScanRuns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", defaultRunLimit)
	if limit <= 0 {
		limit = defaultRunLimit
	}

	runs, err := core.GetScanRuns(ctx, h.snapshotStore(), limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing scan runs failed: %v", err)), nil
	}
	if runs == nil {
		runs = []schema.ScanRunRecord{}
	}
	return jsonResult(runs)
}

// jsonResult wraps an indented JSON document as a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
