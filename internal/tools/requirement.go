package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/heffrey78/lifecycle-mcp-sub000/internal/advisor"
	"github.com/heffrey78/lifecycle-mcp-sub000/internal/lifecycle"
	"github.com/heffrey78/lifecycle-mcp-sub000/internal/store"
)

// ─── CreateRequirementTool ───────────────────────────────────────────────────

// CreateRequirementTool handles the create_requirement MCP tool.
// When the decomposition advisor recommends splitting the requirement,
// it creates a parent plus linked children instead of a single row.
type CreateRequirementTool struct {
	store   *store.Store
	advisor *advisor.Advisor
}

// NewCreateRequirementTool creates the tool. advisor may be nil,
// which disables decomposition suggestions.
func NewCreateRequirementTool(st *store.Store, adv *advisor.Advisor) *CreateRequirementTool {
	return &CreateRequirementTool{store: st, advisor: adv}
}

// Definition returns the MCP tool definition for registration.
func (t *CreateRequirementTool) Definition() mcp.Tool {
	return mcp.NewTool("create_requirement",
		mcp.WithDescription(
			"Create a new requirement. Complex requirements may be automatically "+
				"decomposed into a parent requirement with linked sub-requirements.",
		),
		mcp.WithString("type",
			mcp.Required(),
			mcp.Description("Requirement type: FUNC, NFUNC, TECH, BUS, INTF"),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Short requirement title"),
		),
		mcp.WithString("priority",
			mcp.Required(),
			mcp.Description("Priority: P0, P1, P2, P3"),
		),
		mcp.WithString("current_state",
			mcp.Required(),
			mcp.Description("What exists today"),
		),
		mcp.WithString("desired_state",
			mcp.Required(),
			mcp.Description("What should exist when the requirement is validated"),
		),
		stringList("functional_requirements",
			mcp.Description("Individual functional statements"),
		),
		stringList("acceptance_criteria",
			mcp.Description("Conditions that prove the requirement is met"),
		),
		mcp.WithString("business_value",
			mcp.Description("Why this requirement matters"),
		),
		mcp.WithString("risk_level",
			mcp.Description("Risk level: High, Medium (default), Low"),
		),
		mcp.WithString("author",
			mcp.Description("Requirement author (default: MCP User)"),
		),
	)
}

// Handle processes the create_requirement tool call.
func (t *CreateRequirementTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := store.CreateRequirementParams{
		Type:                   req.GetString("type", ""),
		Title:                  req.GetString("title", ""),
		Priority:               req.GetString("priority", ""),
		CurrentState:           req.GetString("current_state", ""),
		DesiredState:           req.GetString("desired_state", ""),
		FunctionalRequirements: stringListArg(req, "functional_requirements"),
		AcceptanceCriteria:     stringListArg(req, "acceptance_criteria"),
		BusinessValue:          req.GetString("business_value", ""),
		RiskLevel:              req.GetString("risk_level", ""),
		Author:                 req.GetString("author", ""),
	}

	analysis := t.advisor.Analyze(ctx, advisor.Request{
		Type:                   params.Type,
		Title:                  params.Title,
		CurrentState:           params.CurrentState,
		DesiredState:           params.DesiredState,
		FunctionalRequirements: params.FunctionalRequirements,
		AcceptanceCriteria:     params.AcceptanceCriteria,
	})
	if analysis == nil {
		created, err := t.store.CreateRequirement(params)
		if err != nil {
			if domainError(err) {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return nil, err
		}
		return jsonResult(created)
	}

	params.ComplexityScore = &analysis.ComplexityScore
	params.ScopeAssessment = analysis.ScopeAssessment
	params.DecompositionSource = "llm_automatic"

	children := make([]store.ChildRequirement, 0, len(analysis.Suggestions))
	for _, s := range analysis.Suggestions {
		children = append(children, store.ChildRequirement{
			Type:         s.Type,
			Title:        s.Title,
			CurrentState: s.CurrentState,
			DesiredState: s.DesiredState,
			Rationale:    s.Rationale,
		})
	}

	result, err := t.store.CreateDecomposition(params, children)
	if err != nil {
		if domainError(err) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Requirement decomposed into %d sub-requirements.\n\n", len(result.ChildIDs))
	fmt.Fprintf(&b, "Parent: %s\n", result.ParentID)
	for _, id := range result.ChildIDs {
		fmt.Fprintf(&b, "Child:  %s\n", id)
	}
	fmt.Fprintf(&b, "\nComplexity score: %d (%s)\n", analysis.ComplexityScore, analysis.ScopeAssessment)
	return mcp.NewToolResultText(b.String()), nil
}

// ─── UpdateRequirementStatusTool ─────────────────────────────────────────────

// UpdateRequirementStatusTool handles the update_requirement_status
// MCP tool.
type UpdateRequirementStatusTool struct {
	store *store.Store
}

// NewUpdateRequirementStatusTool creates the tool.
func NewUpdateRequirementStatusTool(st *store.Store) *UpdateRequirementStatusTool {
	return &UpdateRequirementStatusTool{store: st}
}

// Definition returns the MCP tool definition for registration.
func (t *UpdateRequirementStatusTool) Definition() mcp.Tool {
	return mcp.NewTool("update_requirement_status",
		mcp.WithDescription(
			"Move a requirement through its lifecycle. Valid transitions follow "+
				"the state machine; moving to Validated requires every linked task "+
				"to be Complete.",
		),
		mcp.WithString("requirement_id",
			mcp.Required(),
			mcp.Description("Requirement ID, e.g. REQ-0001-FUNC-00"),
		),
		mcp.WithString("new_status",
			mcp.Required(),
			mcp.Description("Target status: "+strings.Join(lifecycle.RequirementStatuses(), ", ")),
		),
		mcp.WithString("comment",
			mcp.Description("Optional review comment recorded with the transition"),
		),
	)
}

// Handle processes the update_requirement_status tool call.
func (t *UpdateRequirementStatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("requirement_id", "")
	newStatus := req.GetString("new_status", "")
	if id == "" || newStatus == "" {
		return mcp.NewToolResultError("'requirement_id' and 'new_status' are required"), nil
	}

	updated, err := t.store.UpdateRequirementStatus(id, newStatus, req.GetString("comment", ""))
	return storeResult(updated, err)
}

// ─── QueryRequirementsTool ───────────────────────────────────────────────────

// QueryRequirementsTool handles the query_requirements MCP tool.
type QueryRequirementsTool struct {
	store *store.Store
}

// NewQueryRequirementsTool creates the tool.
func NewQueryRequirementsTool(st *store.Store) *QueryRequirementsTool {
	return &QueryRequirementsTool{store: st}
}

// Definition returns the MCP tool definition for registration.
func (t *QueryRequirementsTool) Definition() mcp.Tool {
	return mcp.NewTool("query_requirements",
		mcp.WithDescription("List requirements, optionally filtered by status, type, priority, or text search."),
		mcp.WithString("status", mcp.Description("Filter by lifecycle status")),
		mcp.WithString("type", mcp.Description("Filter by requirement type")),
		mcp.WithString("priority", mcp.Description("Filter by priority")),
		mcp.WithString("search_text", mcp.Description("Case-insensitive match against title and states")),
	)
}

// Handle processes the query_requirements tool call.
func (t *QueryRequirementsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reqs, err := t.store.QueryRequirements(store.QueryRequirementsFilter{
		Status:     req.GetString("status", ""),
		Type:       req.GetString("type", ""),
		Priority:   req.GetString("priority", ""),
		SearchText: req.GetString("search_text", ""),
	})
	if err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		return mcp.NewToolResultText("No requirements found."), nil
	}
	return jsonResult(reqs)
}

// ─── GetRequirementDetailsTool ───────────────────────────────────────────────

// GetRequirementDetailsTool handles the get_requirement_details MCP tool.
type GetRequirementDetailsTool struct {
	store *store.Store
}

// NewGetRequirementDetailsTool creates the tool.
func NewGetRequirementDetailsTool(st *store.Store) *GetRequirementDetailsTool {
	return &GetRequirementDetailsTool{store: st}
}

// Definition returns the MCP tool definition for registration.
func (t *GetRequirementDetailsTool) Definition() mcp.Tool {
	return mcp.NewTool("get_requirement_details",
		mcp.WithDescription(
			"Full requirement report: linked tasks, architecture decisions, "+
				"parent/child decomposition, review history, and lifecycle events.",
		),
		mcp.WithString("requirement_id",
			mcp.Required(),
			mcp.Description("Requirement ID"),
		),
	)
}

// Handle processes the get_requirement_details tool call.
func (t *GetRequirementDetailsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("requirement_id", "")
	if id == "" {
		return mcp.NewToolResultError("'requirement_id' is required"), nil
	}
	details, err := t.store.GetRequirementDetails(id)
	return storeResult(details, err)
}

// ─── TraceRequirementTool ────────────────────────────────────────────────────

// TraceRequirementTool handles the trace_requirement MCP tool.
type TraceRequirementTool struct {
	store *store.Store
}

// NewTraceRequirementTool creates the tool.
func NewTraceRequirementTool(st *store.Store) *TraceRequirementTool {
	return &TraceRequirementTool{store: st}
}

// Definition returns the MCP tool definition for registration.
func (t *TraceRequirementTool) Definition() mcp.Tool {
	return mcp.NewTool("trace_requirement",
		mcp.WithDescription(
			"Walk a requirement's decomposition tree, reporting tasks and "+
				"architecture decisions at every level.",
		),
		mcp.WithString("requirement_id",
			mcp.Required(),
			mcp.Description("Root requirement ID"),
		),
	)
}

// Handle processes the trace_requirement tool call.
func (t *TraceRequirementTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("requirement_id", "")
	if id == "" {
		return mcp.NewToolResultError("'requirement_id' is required"), nil
	}
	trace, err := t.store.TraceRequirement(id)
	return storeResult(trace, err)
}
