package tools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/heffrey78/lifecycle-mcp-sub000/internal/githubsync"
	"github.com/heffrey78/lifecycle-mcp-sub000/internal/lifecycle"
	"github.com/heffrey78/lifecycle-mcp-sub000/internal/store"
)

// ─── CreateTaskTool ──────────────────────────────────────────────────────────

// CreateTaskTool handles the create_task MCP tool. When a GitHub
// syncer is configured, each new task is mirrored to an issue on a
// best-effort basis.
type CreateTaskTool struct {
	store  *store.Store
	syncer *githubsync.Syncer
}

// NewCreateTaskTool creates the tool. syncer may be nil.
func NewCreateTaskTool(st *store.Store, syncer *githubsync.Syncer) *CreateTaskTool {
	return &CreateTaskTool{store: st, syncer: syncer}
}

// Definition returns the MCP tool definition for registration.
func (t *CreateTaskTool) Definition() mcp.Tool {
	return mcp.NewTool("create_task",
		mcp.WithDescription(
			"Create an implementation task linked to one or more requirements. "+
				"Every linked requirement must already be approved for implementation.",
		),
		stringList("requirement_ids",
			mcp.Required(),
			mcp.Description("Requirement IDs this task implements"),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Short task title"),
		),
		mcp.WithString("priority",
			mcp.Required(),
			mcp.Description("Priority: P0, P1, P2, P3"),
		),
		mcp.WithString("effort",
			mcp.Description("Effort estimate: XS, S, M, L, XL"),
		),
		mcp.WithString("user_story",
			mcp.Description("User story the task delivers"),
		),
		stringList("acceptance_criteria",
			mcp.Description("Conditions that prove the task is done"),
		),
		mcp.WithString("parent_task_id",
			mcp.Description("Parent task ID when creating a subtask"),
		),
		mcp.WithString("assignee",
			mcp.Description("Person responsible for the task"),
		),
	)
}

// Handle processes the create_task tool call.
func (t *CreateTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	task, err := t.store.CreateTask(store.CreateTaskParams{
		RequirementIDs:     stringListArg(req, "requirement_ids"),
		Title:              req.GetString("title", ""),
		Priority:           req.GetString("priority", ""),
		Effort:             req.GetString("effort", ""),
		UserStory:          req.GetString("user_story", ""),
		AcceptanceCriteria: stringListArg(req, "acceptance_criteria"),
		ParentTaskID:       req.GetString("parent_task_id", ""),
		Assignee:           req.GetString("assignee", ""),
	})
	if err != nil {
		if domainError(err) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return nil, err
	}

	// Issue creation must never fail the task.
	t.syncer.MirrorTask(ctx, *task)

	created, err := t.store.GetTask(task.ID)
	if err != nil {
		return nil, err
	}
	return jsonResult(created)
}

// ─── UpdateTaskStatusTool ────────────────────────────────────────────────────

// UpdateTaskStatusTool handles the update_task_status MCP tool. When a
// GitHub syncer is configured, the status and assignee change is
// pushed to the mirrored issue on a best-effort basis.
type UpdateTaskStatusTool struct {
	store  *store.Store
	syncer *githubsync.Syncer
}

// NewUpdateTaskStatusTool creates the tool. syncer may be nil.
func NewUpdateTaskStatusTool(st *store.Store, syncer *githubsync.Syncer) *UpdateTaskStatusTool {
	return &UpdateTaskStatusTool{store: st, syncer: syncer}
}

// Definition returns the MCP tool definition for registration.
func (t *UpdateTaskStatusTool) Definition() mcp.Tool {
	return mcp.NewTool("update_task_status",
		mcp.WithDescription(
			"Set a task's status ("+strings.Join(lifecycle.TaskStatuses(), ", ")+
				") and optionally reassign it. Completing a task updates progress "+
				"counters on every linked requirement.",
		),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("Task ID, e.g. TASK-0001-00-00"),
		),
		mcp.WithString("new_status",
			mcp.Required(),
			mcp.Description("Target status"),
		),
		mcp.WithString("comment",
			mcp.Description("Optional review comment recorded with the change"),
		),
		mcp.WithString("assignee",
			mcp.Description("New assignee, if reassigning"),
		),
	)
}

// Handle processes the update_task_status tool call.
func (t *UpdateTaskStatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("task_id", "")
	newStatus := req.GetString("new_status", "")
	if id == "" || newStatus == "" {
		return mcp.NewToolResultError("'task_id' and 'new_status' are required"), nil
	}

	updated, err := t.store.UpdateTaskStatus(id, newStatus, req.GetString("comment", ""), req.GetString("assignee", ""))
	if err != nil {
		if domainError(err) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return nil, err
	}

	// The mirror push must never fail the status change.
	t.syncer.PushTask(ctx, *updated)

	return jsonResult(updated)
}

// ─── QueryTasksTool ──────────────────────────────────────────────────────────

// QueryTasksTool handles the query_tasks MCP tool.
type QueryTasksTool struct {
	store *store.Store
}

// NewQueryTasksTool creates the tool.
func NewQueryTasksTool(st *store.Store) *QueryTasksTool {
	return &QueryTasksTool{store: st}
}

// Definition returns the MCP tool definition for registration.
func (t *QueryTasksTool) Definition() mcp.Tool {
	return mcp.NewTool("query_tasks",
		mcp.WithDescription("List tasks, optionally filtered by status, priority, assignee, or linked requirement."),
		mcp.WithString("status", mcp.Description("Filter by task status")),
		mcp.WithString("priority", mcp.Description("Filter by priority")),
		mcp.WithString("assignee", mcp.Description("Filter by assignee")),
		mcp.WithString("requirement_id", mcp.Description("Only tasks linked to this requirement")),
	)
}

// Handle processes the query_tasks tool call.
func (t *QueryTasksTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tasks, err := t.store.QueryTasks(store.QueryTasksFilter{
		Status:        req.GetString("status", ""),
		Priority:      req.GetString("priority", ""),
		Assignee:      req.GetString("assignee", ""),
		RequirementID: req.GetString("requirement_id", ""),
	})
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return mcp.NewToolResultText("No tasks found."), nil
	}
	return jsonResult(tasks)
}

// ─── GetTaskDetailsTool ──────────────────────────────────────────────────────

// GetTaskDetailsTool handles the get_task_details MCP tool.
type GetTaskDetailsTool struct {
	store *store.Store
}

// NewGetTaskDetailsTool creates the tool.
func NewGetTaskDetailsTool(st *store.Store) *GetTaskDetailsTool {
	return &GetTaskDetailsTool{store: st}
}

// Definition returns the MCP tool definition for registration.
func (t *GetTaskDetailsTool) Definition() mcp.Tool {
	return mcp.NewTool("get_task_details",
		mcp.WithDescription("Full task report: parent task, subtasks, linked requirements, review history, and lifecycle events."),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("Task ID"),
		),
	)
}

// Handle processes the get_task_details tool call.
func (t *GetTaskDetailsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("task_id", "")
	if id == "" {
		return mcp.NewToolResultError("'task_id' is required"), nil
	}
	details, err := t.store.GetTaskDetails(id)
	return storeResult(details, err)
}

// ─── SyncTaskFromGitHubTool ──────────────────────────────────────────────────

// SyncTaskFromGitHubTool handles the sync_task_from_github MCP tool.
type SyncTaskFromGitHubTool struct {
	syncer *githubsync.Syncer
}

// NewSyncTaskFromGitHubTool creates the tool. syncer may be nil when
// the GitHub integration is disabled.
func NewSyncTaskFromGitHubTool(syncer *githubsync.Syncer) *SyncTaskFromGitHubTool {
	return &SyncTaskFromGitHubTool{syncer: syncer}
}

// Definition returns the MCP tool definition for registration.
func (t *SyncTaskFromGitHubTool) Definition() mcp.Tool {
	return mcp.NewTool("sync_task_from_github",
		mcp.WithDescription(
			"Pull the mirrored GitHub issue for a task and apply any remote "+
				"state change (closed issues complete the task, reopened issues "+
				"pull a Complete task back to In Progress).",
		),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("Task ID to sync"),
		),
	)
}

// Handle processes the sync_task_from_github tool call.
func (t *SyncTaskFromGitHubTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t.syncer == nil {
		return mcp.NewToolResultError("GitHub integration is not enabled"), nil
	}
	id := req.GetString("task_id", "")
	if id == "" {
		return mcp.NewToolResultError("'task_id' is required"), nil
	}

	result, err := t.syncer.SyncTask(ctx, id)
	return storeResult(result, err)
}

// ─── BulkSyncGitHubTasksTool ─────────────────────────────────────────────────

// BulkSyncGitHubTasksTool handles the bulk_sync_github_tasks MCP tool.
type BulkSyncGitHubTasksTool struct {
	syncer *githubsync.Syncer
}

// NewBulkSyncGitHubTasksTool creates the tool. syncer may be nil when
// the GitHub integration is disabled.
func NewBulkSyncGitHubTasksTool(syncer *githubsync.Syncer) *BulkSyncGitHubTasksTool {
	return &BulkSyncGitHubTasksTool{syncer: syncer}
}

// Definition returns the MCP tool definition for registration.
func (t *BulkSyncGitHubTasksTool) Definition() mcp.Tool {
	return mcp.NewTool("bulk_sync_github_tasks",
		mcp.WithDescription(
			"Sync every task that mirrors a GitHub issue. Per-task failures are "+
				"reported in the result instead of aborting the run.",
		),
	)
}

// Handle processes the bulk_sync_github_tasks tool call.
func (t *BulkSyncGitHubTasksTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t.syncer == nil {
		return mcp.NewToolResultError("GitHub integration is not enabled"), nil
	}

	results, err := t.syncer.BulkSync(ctx)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("No tasks with GitHub issues to sync."), nil
	}
	return jsonResult(results)
}
