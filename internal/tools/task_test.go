package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/heffrey78/lifecycle-mcp-sub000/internal/lifecycle"
)

func TestCreateTaskTool(t *testing.T) {
	st := newToolStore(t)
	req := approvedRequirement(t, st)
	tool := NewCreateTaskTool(st, nil)

	result, err := tool.Handle(context.Background(), makeReq(map[string]any{
		"requirement_ids": []any{req.ID},
		"title":           "Implement the thing",
		"priority":        "P1",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}
	if !strings.Contains(getResultText(result), "TASK-0001-00-00") {
		t.Errorf("result should contain the task ID, got: %s", getResultText(result))
	}
}

func TestCreateTaskTool_UnapprovedRequirement(t *testing.T) {
	st := newToolStore(t)
	req := newRequirement(t, st) // still Draft
	tool := NewCreateTaskTool(st, nil)

	result, err := tool.Handle(context.Background(), makeReq(map[string]any{
		"requirement_ids": []any{req.ID},
		"title":           "Too early",
		"priority":        "P1",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("draft requirement should reject task creation")
	}
	if !strings.Contains(getResultText(result), req.ID) {
		t.Errorf("error should name the offending requirement, got: %s", getResultText(result))
	}
}

func TestUpdateTaskStatusTool(t *testing.T) {
	st := newToolStore(t)
	req := approvedRequirement(t, st)
	task, err := st.CreateTask(storeTaskParams(req.ID, "Work item"))
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	tool := NewUpdateTaskStatusTool(st, nil)

	result, err := tool.Handle(context.Background(), makeReq(map[string]any{
		"task_id": task.ID, "new_status": lifecycle.TaskInProgress, "assignee": "sam",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}

	updated, err := st.GetTask(task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if updated.Status != lifecycle.TaskInProgress || updated.Assignee != "sam" {
		t.Errorf("task = %s/%s, want In Progress/sam", updated.Status, updated.Assignee)
	}

	result, err = tool.Handle(context.Background(), makeReq(map[string]any{
		"task_id": task.ID, "new_status": "Nonsense",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("invalid status should produce a tool error")
	}
}

func TestQueryTasksTool(t *testing.T) {
	st := newToolStore(t)
	req := approvedRequirement(t, st)
	if _, err := st.CreateTask(storeTaskParams(req.ID, "Findable")); err != nil {
		t.Fatalf("create task: %v", err)
	}
	tool := NewQueryTasksTool(st)

	result, err := tool.Handle(context.Background(), makeReq(map[string]any{
		"requirement_id": req.ID,
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !strings.Contains(getResultText(result), "Findable") {
		t.Errorf("query should list the task, got: %s", getResultText(result))
	}

	result, err = tool.Handle(context.Background(), makeReq(map[string]any{
		"status": lifecycle.TaskComplete,
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if getResultText(result) != "No tasks found." {
		t.Errorf("empty match should say so, got: %s", getResultText(result))
	}
}

func TestGetTaskDetailsTool(t *testing.T) {
	st := newToolStore(t)
	req := approvedRequirement(t, st)
	task, err := st.CreateTask(storeTaskParams(req.ID, "Parent work"))
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	tool := NewGetTaskDetailsTool(st)

	result, err := tool.Handle(context.Background(), makeReq(map[string]any{
		"task_id": task.ID,
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	text := getResultText(result)
	if !strings.Contains(text, task.ID) || !strings.Contains(text, req.ID) {
		t.Errorf("details should include task and requirement IDs, got: %s", text)
	}

	result, err = tool.Handle(context.Background(), makeReq(map[string]any{
		"task_id": "TASK-9999-00-00",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("unknown task should produce a tool error")
	}
}

func TestGitHubSyncToolsDisabled(t *testing.T) {
	syncTool := NewSyncTaskFromGitHubTool(nil)
	result, err := syncTool.Handle(context.Background(), makeReq(map[string]any{
		"task_id": "TASK-0001-00-00",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) || !strings.Contains(getResultText(result), "not enabled") {
		t.Errorf("disabled sync should report so, got: %s", getResultText(result))
	}

	bulkTool := NewBulkSyncGitHubTasksTool(nil)
	result, err = bulkTool.Handle(context.Background(), makeReq(nil))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Error("disabled bulk sync should report so")
	}
}
