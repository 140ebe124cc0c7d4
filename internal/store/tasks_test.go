package store_test

import (
	"errors"
	"testing"

	"github.com/heffrey78/lifecycle-mcp-sub000/internal/lifecycle"
	"github.com/heffrey78/lifecycle-mcp-sub000/internal/store"
)

func TestCreateTask_RequiresApprovedRequirement(t *testing.T) {
	s := newTestStore(t)
	draft := newRequirement(t, s, "FUNC")

	_, err := s.CreateTask(store.CreateTaskParams{
		RequirementIDs: []string{draft.ID},
		Title:          "Too early",
		Priority:       "P1",
	})
	var unapproved *lifecycle.UnapprovedRequirementsError
	if !errors.As(err, &unapproved) {
		t.Fatalf("error = %v, want UnapprovedRequirementsError", err)
	}
	if len(unapproved.Requirements) != 1 || unapproved.Requirements[0].Status != lifecycle.ReqDraft {
		t.Errorf("unapproved = %+v", unapproved.Requirements)
	}
}

func TestCreateTask_MissingRequirement(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CreateTask(store.CreateTaskParams{
		RequirementIDs: []string{"REQ-9999-FUNC-00"},
		Title:          "Orphan",
		Priority:       "P1",
	})
	var notFound *lifecycle.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("error = %v, want NotFoundError", err)
	}
}

func TestCreateTask_Numbering(t *testing.T) {
	s := newTestStore(t)
	req := approvedRequirement(t, s)

	root1 := newTask(t, s, []string{req.ID}, "First")
	root2 := newTask(t, s, []string{req.ID}, "Second")
	if root1.ID != "TASK-0001-00-00" {
		t.Errorf("first root id = %s, want TASK-0001-00-00", root1.ID)
	}
	if root2.ID != "TASK-0002-00-00" {
		t.Errorf("second root id = %s, want TASK-0002-00-00", root2.ID)
	}

	// Subtasks inherit the parent's task number and count up within it.
	sub1, err := s.CreateTask(store.CreateTaskParams{
		RequirementIDs: []string{req.ID},
		Title:          "Subtask one",
		Priority:       "P2",
		ParentTaskID:   root1.ID,
	})
	if err != nil {
		t.Fatalf("create subtask: %v", err)
	}
	sub2, err := s.CreateTask(store.CreateTaskParams{
		RequirementIDs: []string{req.ID},
		Title:          "Subtask two",
		Priority:       "P2",
		ParentTaskID:   root1.ID,
	})
	if err != nil {
		t.Fatalf("create subtask: %v", err)
	}
	if sub1.ID != "TASK-0001-01-00" {
		t.Errorf("first subtask id = %s, want TASK-0001-01-00", sub1.ID)
	}
	if sub2.ID != "TASK-0001-02-00" {
		t.Errorf("second subtask id = %s, want TASK-0001-02-00", sub2.ID)
	}
}

func TestCreateTask_MissingParent(t *testing.T) {
	s := newTestStore(t)
	req := approvedRequirement(t, s)

	_, err := s.CreateTask(store.CreateTaskParams{
		RequirementIDs: []string{req.ID},
		Title:          "Orphan subtask",
		Priority:       "P1",
		ParentTaskID:   "TASK-9999-00-00",
	})
	var notFound *lifecycle.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("error = %v, want NotFoundError", err)
	}
}

func TestUpdateTaskStatus_RefreshesRequirementCounters(t *testing.T) {
	s := newTestStore(t)
	req := approvedRequirement(t, s)
	task1 := newTask(t, s, []string{req.ID}, "One")
	newTask(t, s, []string{req.ID}, "Two")

	got, _ := s.GetRequirement(req.ID)
	if got.TaskCount != 2 || got.TasksCompleted != 0 {
		t.Fatalf("counters = %d/%d, want 2/0", got.TasksCompleted, got.TaskCount)
	}

	if _, err := s.UpdateTaskStatus(task1.ID, lifecycle.TaskComplete, "", ""); err != nil {
		t.Fatalf("complete task: %v", err)
	}

	got, _ = s.GetRequirement(req.ID)
	if got.TaskCount != 2 || got.TasksCompleted != 1 {
		t.Errorf("counters = %d/%d, want 1/2", got.TasksCompleted, got.TaskCount)
	}
}

func TestUpdateTaskStatus_InvalidStatus(t *testing.T) {
	s := newTestStore(t)
	req := approvedRequirement(t, s)
	task := newTask(t, s, []string{req.ID}, "One")

	_, err := s.UpdateTaskStatus(task.ID, "Done", "", "")
	var verr *lifecycle.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
}

func TestUpdateTaskStatus_SetsAssignee(t *testing.T) {
	s := newTestStore(t)
	req := approvedRequirement(t, s)
	task := newTask(t, s, []string{req.ID}, "One")

	updated, err := s.UpdateTaskStatus(task.ID, lifecycle.TaskInProgress, "", "alice")
	if err != nil {
		t.Fatalf("update task: %v", err)
	}
	if updated.Status != lifecycle.TaskInProgress || updated.Assignee != "alice" {
		t.Errorf("task = %+v", updated)
	}
}

func TestQueryTasks_Filters(t *testing.T) {
	s := newTestStore(t)
	req := approvedRequirement(t, s)
	other := approvedRequirement(t, s)
	task := newTask(t, s, []string{req.ID}, "One")
	newTask(t, s, []string{other.ID}, "Two")

	if _, err := s.UpdateTaskStatus(task.ID, lifecycle.TaskInProgress, "", "bob"); err != nil {
		t.Fatalf("update task: %v", err)
	}

	byStatus, err := s.QueryTasks(store.QueryTasksFilter{Status: lifecycle.TaskInProgress})
	if err != nil {
		t.Fatalf("query by status: %v", err)
	}
	if len(byStatus) != 1 || byStatus[0].ID != task.ID {
		t.Errorf("by status = %+v", byStatus)
	}

	byReq, err := s.QueryTasks(store.QueryTasksFilter{RequirementID: other.ID})
	if err != nil {
		t.Fatalf("query by requirement: %v", err)
	}
	if len(byReq) != 1 || byReq[0].Title != "Two" {
		t.Errorf("by requirement = %+v", byReq)
	}

	byAssignee, err := s.QueryTasks(store.QueryTasksFilter{Assignee: "bob"})
	if err != nil {
		t.Fatalf("query by assignee: %v", err)
	}
	if len(byAssignee) != 1 {
		t.Errorf("by assignee = %+v", byAssignee)
	}
}

func TestGetTaskDetails_Hierarchy(t *testing.T) {
	s := newTestStore(t)
	req := approvedRequirement(t, s)
	root := newTask(t, s, []string{req.ID}, "Root")
	sub, err := s.CreateTask(store.CreateTaskParams{
		RequirementIDs: []string{req.ID},
		Title:          "Child",
		Priority:       "P1",
		ParentTaskID:   root.ID,
	})
	if err != nil {
		t.Fatalf("create subtask: %v", err)
	}

	rootDetails, err := s.GetTaskDetails(root.ID)
	if err != nil {
		t.Fatalf("root details: %v", err)
	}
	if len(rootDetails.Subtasks) != 1 || rootDetails.Subtasks[0].ID != sub.ID {
		t.Errorf("root subtasks = %+v", rootDetails.Subtasks)
	}
	if len(rootDetails.Requirements) != 1 || rootDetails.Requirements[0].ID != req.ID {
		t.Errorf("root requirements = %+v", rootDetails.Requirements)
	}

	subDetails, err := s.GetTaskDetails(sub.ID)
	if err != nil {
		t.Fatalf("sub details: %v", err)
	}
	if subDetails.Parent == nil || subDetails.Parent.ID != root.ID {
		t.Errorf("sub parent = %+v", subDetails.Parent)
	}
}

func TestGetTaskDetails_IncludesAuditLog(t *testing.T) {
	s := newTestStore(t)
	req := approvedRequirement(t, s)
	task := newTask(t, s, []string{req.ID}, "One")

	if _, err := s.UpdateTaskStatus(task.ID, lifecycle.TaskInProgress, "", "alice"); err != nil {
		t.Fatalf("update task: %v", err)
	}

	details, err := s.GetTaskDetails(task.ID)
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if len(details.Events) != 2 {
		t.Fatalf("events = %d, want 2", len(details.Events))
	}
	if details.Events[0].EventType != "created" {
		t.Errorf("first event = %s, want created", details.Events[0].EventType)
	}
	change := details.Events[1]
	if change.EventType != "status_changed" || change.ToValue != lifecycle.TaskInProgress || change.Actor != "alice" {
		t.Errorf("status event = %+v", change)
	}
}

func TestSetTaskGitHubIssue(t *testing.T) {
	s := newTestStore(t)
	req := approvedRequirement(t, s)
	task := newTask(t, s, []string{req.ID}, "Mirrored")

	if err := s.SetTaskGitHubIssue(task.ID, "42", "https://github.com/o/r/issues/42", "abc123"); err != nil {
		t.Fatalf("set github issue: %v", err)
	}

	got, _ := s.GetTask(task.ID)
	if got.GitHubIssueNumber != "42" || got.GitHubETag != "abc123" {
		t.Errorf("task github fields = %+v", got)
	}

	mirrored, err := s.TasksWithGitHubIssues()
	if err != nil {
		t.Fatalf("tasks with issues: %v", err)
	}
	if len(mirrored) != 1 || mirrored[0].ID != task.ID {
		t.Errorf("mirrored = %+v", mirrored)
	}

	if err := s.SetTaskGitHubIssue("TASK-9999-00-00", "1", "u", ""); err == nil {
		t.Error("expected error for unknown task")
	}
}
