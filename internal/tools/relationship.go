package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/heffrey78/lifecycle-mcp-sub000/internal/lifecycle"
	"github.com/heffrey78/lifecycle-mcp-sub000/internal/store"
)

// ─── CreateRelationshipTool ──────────────────────────────────────────────────

// CreateRelationshipTool handles the create_relationship MCP tool.
type CreateRelationshipTool struct {
	store *store.Store
}

// NewCreateRelationshipTool creates the tool.
func NewCreateRelationshipTool(st *store.Store) *CreateRelationshipTool {
	return &CreateRelationshipTool{store: st}
}

// Definition returns the MCP tool definition for registration.
func (t *CreateRelationshipTool) Definition() mcp.Tool {
	return mcp.NewTool("create_relationship",
		mcp.WithDescription(
			"Create a typed relationship between two entities (requirements, "+
				"tasks, architecture decisions). Entity types come from the ID "+
				"prefix; symmetric calls like task-implements-requirement are "+
				"normalized to the canonical direction.",
		),
		mcp.WithString("source_id",
			mcp.Required(),
			mcp.Description("Source entity ID (REQ-, TASK-, ADR-, TDD- prefix)"),
		),
		mcp.WithString("target_id",
			mcp.Required(),
			mcp.Description("Target entity ID"),
		),
		mcp.WithString("relationship_type",
			mcp.Required(),
			mcp.Description("Relationship type: "+strings.Join(lifecycle.RelationshipTypes(), ", ")),
		),
	)
}

// Handle processes the create_relationship tool call.
func (t *CreateRelationshipTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sourceID := req.GetString("source_id", "")
	targetID := req.GetString("target_id", "")
	relType := req.GetString("relationship_type", "")
	if sourceID == "" || targetID == "" || relType == "" {
		return mcp.NewToolResultError("'source_id', 'target_id', and 'relationship_type' are required"), nil
	}

	rel, err := t.store.CreateRelationship(sourceID, targetID, relType)
	return storeResult(rel, err)
}

// ─── DeleteRelationshipTool ──────────────────────────────────────────────────

// DeleteRelationshipTool handles the delete_relationship MCP tool.
type DeleteRelationshipTool struct {
	store *store.Store
}

// NewDeleteRelationshipTool creates the tool.
func NewDeleteRelationshipTool(st *store.Store) *DeleteRelationshipTool {
	return &DeleteRelationshipTool{store: st}
}

// Definition returns the MCP tool definition for registration.
func (t *DeleteRelationshipTool) Definition() mcp.Tool {
	return mcp.NewTool("delete_relationship",
		mcp.WithDescription(
			"Delete relationships between two entities, in either direction. "+
				"Without a relationship_type, every relationship for the pair is removed.",
		),
		mcp.WithString("source_id",
			mcp.Required(),
			mcp.Description("One endpoint of the relationship"),
		),
		mcp.WithString("target_id",
			mcp.Required(),
			mcp.Description("The other endpoint"),
		),
		mcp.WithString("relationship_type",
			mcp.Description("Only delete relationships of this type"),
		),
	)
}

// Handle processes the delete_relationship tool call.
func (t *DeleteRelationshipTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sourceID := req.GetString("source_id", "")
	targetID := req.GetString("target_id", "")
	if sourceID == "" || targetID == "" {
		return mcp.NewToolResultError("'source_id' and 'target_id' are required"), nil
	}

	deleted, err := t.store.DeleteRelationship(sourceID, targetID, req.GetString("relationship_type", ""))
	if err != nil {
		if domainError(err) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return nil, err
	}
	if deleted == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No relationships found between %s and %s.", sourceID, targetID)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted %d relationship(s) between %s and %s.", deleted, sourceID, targetID)), nil
}

// ─── QueryRelationshipsTool ──────────────────────────────────────────────────

// QueryRelationshipsTool handles the query_relationships MCP tool.
type QueryRelationshipsTool struct {
	store *store.Store
}

// NewQueryRelationshipsTool creates the tool.
func NewQueryRelationshipsTool(st *store.Store) *QueryRelationshipsTool {
	return &QueryRelationshipsTool{store: st}
}

// Definition returns the MCP tool definition for registration.
func (t *QueryRelationshipsTool) Definition() mcp.Tool {
	return mcp.NewTool("query_relationships",
		mcp.WithDescription("List relationships touching one entity, with direction filters."),
		mcp.WithString("entity_id",
			mcp.Required(),
			mcp.Description("Entity ID to query"),
		),
		mcp.WithString("relationship_type",
			mcp.Description("Only relationships of this type"),
		),
		mcp.WithBoolean("include_incoming",
			mcp.Description("Include relationships targeting this entity (default true)"),
		),
		mcp.WithBoolean("include_outgoing",
			mcp.Description("Include relationships originating from this entity (default true)"),
		),
	)
}

// Handle processes the query_relationships tool call.
func (t *QueryRelationshipsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entityID := req.GetString("entity_id", "")
	if entityID == "" {
		return mcp.NewToolResultError("'entity_id' is required"), nil
	}

	rels, err := t.store.QueryRelationships(
		entityID,
		req.GetString("relationship_type", ""),
		boolArg(req, "include_incoming", true),
		boolArg(req, "include_outgoing", true),
	)
	if err != nil {
		return nil, err
	}
	if len(rels) == 0 {
		return mcp.NewToolResultText("No relationships found for " + entityID + "."), nil
	}
	return jsonResult(rels)
}

// ─── GetEntityRelationshipsTool ──────────────────────────────────────────────

// GetEntityRelationshipsTool handles the get_entity_relationships MCP tool.
type GetEntityRelationshipsTool struct {
	store *store.Store
}

// NewGetEntityRelationshipsTool creates the tool.
func NewGetEntityRelationshipsTool(st *store.Store) *GetEntityRelationshipsTool {
	return &GetEntityRelationshipsTool{store: st}
}

// Definition returns the MCP tool definition for registration.
func (t *GetEntityRelationshipsTool) Definition() mcp.Tool {
	return mcp.NewTool("get_entity_relationships",
		mcp.WithDescription("Group every relationship touching an entity by type, with directions."),
		mcp.WithString("entity_id",
			mcp.Required(),
			mcp.Description("Entity ID to report on"),
		),
	)
}

// Handle processes the get_entity_relationships tool call.
func (t *GetEntityRelationshipsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entityID := req.GetString("entity_id", "")
	if entityID == "" {
		return mcp.NewToolResultError("'entity_id' is required"), nil
	}
	report, err := t.store.GetEntityRelationships(entityID)
	return storeResult(report, err)
}

// ─── QueryAllRelationshipsTool ───────────────────────────────────────────────

// QueryAllRelationshipsTool handles the query_all_relationships MCP tool.
type QueryAllRelationshipsTool struct {
	store *store.Store
}

// NewQueryAllRelationshipsTool creates the tool.
func NewQueryAllRelationshipsTool(st *store.Store) *QueryAllRelationshipsTool {
	return &QueryAllRelationshipsTool{store: st}
}

// Definition returns the MCP tool definition for registration.
func (t *QueryAllRelationshipsTool) Definition() mcp.Tool {
	return mcp.NewTool("query_all_relationships",
		mcp.WithDescription(
			"Project-wide relationship graph: nodes and typed edges, optionally "+
				"restricted to certain entity types.",
		),
		stringList("entity_types",
			mcp.Description("Entity types to include: requirement, task, architecture (default all)"),
		),
	)
}

// Handle processes the query_all_relationships tool call.
func (t *QueryAllRelationshipsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	graph, err := t.store.QueryAllRelationships(stringListArg(req, "entity_types"))
	if err != nil {
		return nil, err
	}
	return jsonResult(graph)
}
