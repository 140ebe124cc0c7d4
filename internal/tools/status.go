package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/heffrey78/lifecycle-mcp-sub000/internal/store"
)

// ─── GetProjectStatusTool ────────────────────────────────────────────────────

// GetProjectStatusTool handles the get_project_status MCP tool.
type GetProjectStatusTool struct {
	store *store.Store
}

// NewGetProjectStatusTool creates the tool.
func NewGetProjectStatusTool(st *store.Store) *GetProjectStatusTool {
	return &GetProjectStatusTool{store: st}
}

// Definition returns the MCP tool definition for registration.
func (t *GetProjectStatusTool) Definition() mcp.Tool {
	return mcp.NewTool("get_project_status",
		mcp.WithDescription("Status breakdown for requirements, tasks, and architecture decisions."),
	)
}

// Handle processes the get_project_status tool call.
func (t *GetProjectStatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := t.store.GetProjectStatus()
	if err != nil {
		return nil, err
	}
	return jsonResult(status)
}

// ─── GetProjectMetricsTool ───────────────────────────────────────────────────

// GetProjectMetricsTool handles the get_project_metrics MCP tool.
type GetProjectMetricsTool struct {
	store *store.Store
}

// NewGetProjectMetricsTool creates the tool.
func NewGetProjectMetricsTool(st *store.Store) *GetProjectMetricsTool {
	return &GetProjectMetricsTool{store: st}
}

// Definition returns the MCP tool definition for registration.
func (t *GetProjectMetricsTool) Definition() mcp.Tool {
	return mcp.NewTool("get_project_metrics",
		mcp.WithDescription("Priority and type breakdowns plus completion percentages for the project."),
	)
}

// Handle processes the get_project_metrics tool call.
func (t *GetProjectMetricsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	metrics, err := t.store.GetProjectMetrics()
	if err != nil {
		return nil, err
	}
	return jsonResult(metrics)
}
