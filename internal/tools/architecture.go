package tools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/heffrey78/lifecycle-mcp-sub000/internal/lifecycle"
	"github.com/heffrey78/lifecycle-mcp-sub000/internal/store"
)

// ─── CreateArchitectureDecisionTool ──────────────────────────────────────────

// CreateArchitectureDecisionTool handles the
// create_architecture_decision MCP tool.
type CreateArchitectureDecisionTool struct {
	store *store.Store
}

// NewCreateArchitectureDecisionTool creates the tool.
func NewCreateArchitectureDecisionTool(st *store.Store) *CreateArchitectureDecisionTool {
	return &CreateArchitectureDecisionTool{store: st}
}

// Definition returns the MCP tool definition for registration.
func (t *CreateArchitectureDecisionTool) Definition() mcp.Tool {
	return mcp.NewTool("create_architecture_decision",
		mcp.WithDescription(
			"Record an Architecture Decision Record (ADR) linked to the "+
				"requirements it addresses. New decisions start in status Proposed.",
		),
		stringList("requirement_ids",
			mcp.Required(),
			mcp.Description("Requirement IDs this decision addresses"),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Short decision title"),
		),
		mcp.WithString("context",
			mcp.Required(),
			mcp.Description("Problem context that forced a decision"),
		),
		mcp.WithString("decision",
			mcp.Required(),
			mcp.Description("The decision outcome"),
		),
		stringList("decision_drivers",
			mcp.Description("Forces that shaped the decision"),
		),
		stringList("considered_options",
			mcp.Description("Alternatives that were evaluated"),
		),
		mcp.WithObject("consequences",
			mcp.Description("Consequences keyed by kind, e.g. {\"positive\": ..., \"negative\": ...}"),
		),
		stringList("authors",
			mcp.Description("Decision authors (default: MCP User)"),
		),
	)
}

// Handle processes the create_architecture_decision tool call.
func (t *CreateArchitectureDecisionTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	created, err := t.store.CreateArchitectureDecision(store.CreateArchitectureParams{
		RequirementIDs:    stringListArg(req, "requirement_ids"),
		Title:             req.GetString("title", ""),
		Context:           req.GetString("context", ""),
		Decision:          req.GetString("decision", ""),
		DecisionDrivers:   stringListArg(req, "decision_drivers"),
		ConsideredOptions: stringListArg(req, "considered_options"),
		Consequences:      objectArg(req, "consequences"),
		Authors:           stringListArg(req, "authors"),
	})
	return storeResult(created, err)
}

// ─── UpdateArchitectureStatusTool ────────────────────────────────────────────

// UpdateArchitectureStatusTool handles the update_architecture_status
// MCP tool. Architecture decisions have a free vocabulary rather than
// a transition graph.
type UpdateArchitectureStatusTool struct {
	store *store.Store
}

// NewUpdateArchitectureStatusTool creates the tool.
func NewUpdateArchitectureStatusTool(st *store.Store) *UpdateArchitectureStatusTool {
	return &UpdateArchitectureStatusTool{store: st}
}

// Definition returns the MCP tool definition for registration.
func (t *UpdateArchitectureStatusTool) Definition() mcp.Tool {
	return mcp.NewTool("update_architecture_status",
		mcp.WithDescription(
			"Set an architecture decision's status. Valid statuses: "+
				strings.Join(lifecycle.ArchitectureStatuses(), ", ")+".",
		),
		mcp.WithString("architecture_id",
			mcp.Required(),
			mcp.Description("Architecture ID, e.g. ADR-0001"),
		),
		mcp.WithString("new_status",
			mcp.Required(),
			mcp.Description("Target status"),
		),
		mcp.WithString("comment",
			mcp.Description("Optional review comment recorded with the change"),
		),
	)
}

// Handle processes the update_architecture_status tool call.
func (t *UpdateArchitectureStatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("architecture_id", "")
	newStatus := req.GetString("new_status", "")
	if id == "" || newStatus == "" {
		return mcp.NewToolResultError("'architecture_id' and 'new_status' are required"), nil
	}

	updated, err := t.store.UpdateArchitectureStatus(id, newStatus, req.GetString("comment", ""))
	return storeResult(updated, err)
}

// ─── AddArchitectureReviewTool ───────────────────────────────────────────────

// AddArchitectureReviewTool handles the add_architecture_review MCP tool.
type AddArchitectureReviewTool struct {
	store *store.Store
}

// NewAddArchitectureReviewTool creates the tool.
func NewAddArchitectureReviewTool(st *store.Store) *AddArchitectureReviewTool {
	return &AddArchitectureReviewTool{store: st}
}

// Definition returns the MCP tool definition for registration.
func (t *AddArchitectureReviewTool) Definition() mcp.Tool {
	return mcp.NewTool("add_architecture_review",
		mcp.WithDescription("Append a review comment to an architecture decision without changing its status."),
		mcp.WithString("architecture_id",
			mcp.Required(),
			mcp.Description("Architecture ID"),
		),
		mcp.WithString("comment",
			mcp.Required(),
			mcp.Description("Review comment"),
		),
		mcp.WithString("reviewer",
			mcp.Description("Reviewer name (default: MCP User)"),
		),
	)
}

// Handle processes the add_architecture_review tool call.
func (t *AddArchitectureReviewTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("architecture_id", "")
	comment := req.GetString("comment", "")
	if id == "" || comment == "" {
		return mcp.NewToolResultError("'architecture_id' and 'comment' are required"), nil
	}

	if err := t.store.AddArchitectureReview(id, req.GetString("reviewer", ""), comment); err != nil {
		if domainError(err) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return nil, err
	}
	return mcp.NewToolResultText("Review added to " + id), nil
}

// ─── QueryArchitectureDecisionsTool ──────────────────────────────────────────

// QueryArchitectureDecisionsTool handles the
// query_architecture_decisions MCP tool.
type QueryArchitectureDecisionsTool struct {
	store *store.Store
}

// NewQueryArchitectureDecisionsTool creates the tool.
func NewQueryArchitectureDecisionsTool(st *store.Store) *QueryArchitectureDecisionsTool {
	return &QueryArchitectureDecisionsTool{store: st}
}

// Definition returns the MCP tool definition for registration.
func (t *QueryArchitectureDecisionsTool) Definition() mcp.Tool {
	return mcp.NewTool("query_architecture_decisions",
		mcp.WithDescription("List architecture decisions, optionally filtered by status, type, or linked requirement."),
		mcp.WithString("status", mcp.Description("Filter by status")),
		mcp.WithString("type", mcp.Description("Filter by record type, e.g. ADR")),
		mcp.WithString("requirement_id", mcp.Description("Only decisions addressing this requirement")),
	)
}

// Handle processes the query_architecture_decisions tool call.
func (t *QueryArchitectureDecisionsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	decisions, err := t.store.QueryArchitectureDecisions(store.QueryArchitectureFilter{
		Status:        req.GetString("status", ""),
		Type:          req.GetString("type", ""),
		RequirementID: req.GetString("requirement_id", ""),
	})
	if err != nil {
		return nil, err
	}
	if len(decisions) == 0 {
		return mcp.NewToolResultText("No architecture decisions found."), nil
	}
	return jsonResult(decisions)
}

// ─── GetArchitectureDetailsTool ──────────────────────────────────────────────

// GetArchitectureDetailsTool handles the get_architecture_details MCP tool.
type GetArchitectureDetailsTool struct {
	store *store.Store
}

// NewGetArchitectureDetailsTool creates the tool.
func NewGetArchitectureDetailsTool(st *store.Store) *GetArchitectureDetailsTool {
	return &GetArchitectureDetailsTool{store: st}
}

// Definition returns the MCP tool definition for registration.
func (t *GetArchitectureDetailsTool) Definition() mcp.Tool {
	return mcp.NewTool("get_architecture_details",
		mcp.WithDescription("Full architecture decision report with linked requirements, review history, and lifecycle events."),
		mcp.WithString("architecture_id",
			mcp.Required(),
			mcp.Description("Architecture ID"),
		),
	)
}

// Handle processes the get_architecture_details tool call.
func (t *GetArchitectureDetailsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("architecture_id", "")
	if id == "" {
		return mcp.NewToolResultError("'architecture_id' is required"), nil
	}
	details, err := t.store.GetArchitectureDetails(id)
	return storeResult(details, err)
}
