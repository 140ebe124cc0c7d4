package githubsync

import (
	"context"
	"fmt"
	"log"
	"slices"
	"strings"

	"github.com/heffrey78/lifecycle-mcp-sub000/internal/lifecycle"
	"github.com/heffrey78/lifecycle-mcp-sub000/internal/store"
)

// Syncer reconciles lifecycle tasks with their mirrored issues.
type Syncer struct {
	store  *store.Store
	client *Client
}

// NewSyncer wires a syncer over a store and a gh client.
func NewSyncer(st *store.Store, client *Client) *Syncer {
	return &Syncer{store: st, client: client}
}

// SyncResult describes what one sync pass did to one task.
type SyncResult struct {
	TaskID     string `json:"task_id"`
	Issue      string `json:"issue"`
	Action     string `json:"action"`
	FromStatus string `json:"from_status,omitempty"`
	ToStatus   string `json:"to_status,omitempty"`
	Conflict   bool   `json:"conflict,omitempty"`
	Error      string `json:"error,omitempty"`
}

// MirrorTask creates an issue for a freshly created task and records
// the link. Errors are logged and swallowed so task creation never
// fails on the mirror.
func (s *Syncer) MirrorTask(ctx context.Context, task store.Task) {
	if s == nil || s.client == nil {
		return
	}

	title := fmt.Sprintf("%s: %s", task.ID, task.Title)
	labels := []string{strings.ToLower(task.Priority)}
	if task.Effort != "" {
		labels = append(labels, "effort-"+strings.ToLower(task.Effort))
	}

	issue, err := s.client.CreateIssue(ctx, title, issueBody(task), labels)
	if err != nil {
		log.Printf("WARNING: github mirror for %s failed: %v", task.ID, err)
		return
	}
	etag := Fingerprint(issue)
	if err := s.store.SetTaskGitHubIssue(task.ID, fmt.Sprint(issue.Number), issue.URL, etag); err != nil {
		log.Printf("WARNING: recording github issue for %s failed: %v", task.ID, err)
	}
}

func issueBody(task store.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Lifecycle task %s\n\n", task.ID)
	fmt.Fprintf(&b, "**Priority:** %s\n", task.Priority)
	if task.Effort != "" {
		fmt.Fprintf(&b, "**Effort:** %s\n", task.Effort)
	}
	if task.UserStory != "" {
		fmt.Fprintf(&b, "\n## User Story\n\n%s\n", task.UserStory)
	}
	if len(task.AcceptanceCriteria) > 0 {
		b.WriteString("\n## Acceptance Criteria\n\n")
		for _, c := range task.AcceptanceCriteria {
			fmt.Fprintf(&b, "- [ ] %s\n", c)
		}
	}
	return b.String()
}

// PushTask pushes a local status or assignee change out to the
// mirrored issue. Completing a task closes the issue; any other status
// reopens it. Like MirrorTask this is best-effort: failures are logged
// and never fail the local change. The push is fingerprint-guarded: if
// the issue changed remotely since the last sync, nothing is pushed so
// the remote edit can be pulled first.
func (s *Syncer) PushTask(ctx context.Context, task store.Task) {
	if s == nil || s.client == nil || task.GitHubIssueNumber == "" {
		return
	}

	issue, err := s.client.ViewIssue(ctx, task.GitHubIssueNumber)
	if err != nil {
		log.Printf("WARNING: github push for %s failed: %v", task.ID, err)
		return
	}
	if task.GitHubETag != "" && Fingerprint(issue) != task.GitHubETag {
		log.Printf("WARNING: github push for %s skipped: issue #%s changed remotely, pull it first",
			task.ID, task.GitHubIssueNumber)
		return
	}

	pushed := false
	if want := IssueStateForTask(task.Status); want != issue.State {
		if want == "closed" {
			err = s.client.CloseIssue(ctx, task.GitHubIssueNumber)
		} else {
			err = s.client.ReopenIssue(ctx, task.GitHubIssueNumber)
		}
		if err != nil {
			log.Printf("WARNING: github push for %s failed: %v", task.ID, err)
			return
		}
		pushed = true
	}
	if task.Assignee != "" && !slices.Contains(issue.Assignees, task.Assignee) {
		if err := s.client.AssignIssue(ctx, task.GitHubIssueNumber, task.Assignee); err != nil {
			log.Printf("WARNING: github assignee push for %s failed: %v", task.ID, err)
		} else {
			pushed = true
		}
	}
	if !pushed {
		return
	}

	// Re-read so the stored fingerprint covers our own edit and the
	// next pull does not mistake it for a remote change.
	refreshed, err := s.client.ViewIssue(ctx, task.GitHubIssueNumber)
	if err != nil {
		log.Printf("WARNING: github refresh for %s failed: %v", task.ID, err)
		return
	}
	if err := s.store.SetTaskGitHubSync(task.ID, Fingerprint(refreshed)); err != nil {
		log.Printf("WARNING: recording github sync for %s failed: %v", task.ID, err)
	}
}

// SyncTask pulls the mirrored issue for one task and applies any
// remote state change. A fingerprint match against the stored etag
// means nothing changed remotely; a mismatch while the task also moved
// locally is reported as a conflict and left untouched.
func (s *Syncer) SyncTask(ctx context.Context, taskID string) (*SyncResult, error) {
	task, err := s.store.GetTask(taskID)
	if err != nil {
		return nil, err
	}
	if task.GitHubIssueNumber == "" {
		return &SyncResult{TaskID: taskID, Action: "no_issue"}, nil
	}
	return s.syncOne(ctx, *task)
}

// BulkSync runs SyncTask over every mirrored task. Per-task failures
// are reported in the result slice, not returned as errors.
func (s *Syncer) BulkSync(ctx context.Context) ([]SyncResult, error) {
	tasks, err := s.store.TasksWithGitHubIssues()
	if err != nil {
		return nil, err
	}

	results := make([]SyncResult, 0, len(tasks))
	for _, task := range tasks {
		res, err := s.syncOne(ctx, task)
		if err != nil {
			results = append(results, SyncResult{
				TaskID: task.ID,
				Issue:  task.GitHubIssueNumber,
				Action: "error",
				Error:  err.Error(),
			})
			continue
		}
		results = append(results, *res)
	}
	return results, nil
}

func (s *Syncer) syncOne(ctx context.Context, task store.Task) (*SyncResult, error) {
	issue, err := s.client.ViewIssue(ctx, task.GitHubIssueNumber)
	if err != nil {
		return nil, err
	}

	res := &SyncResult{TaskID: task.ID, Issue: task.GitHubIssueNumber}
	etag := Fingerprint(issue)
	if etag == task.GitHubETag {
		res.Action = "unchanged"
		return res, nil
	}

	want := TaskStatusFromIssue(issue.State, task.Status)
	if want == task.Status {
		// Remote edit that does not affect status. An assignee change
		// still lands on the task.
		if err := s.applyAssignee(task, issue); err != nil {
			return nil, err
		}
		if err := s.store.SetTaskGitHubSync(task.ID, etag); err != nil {
			return nil, err
		}
		res.Action = "refreshed"
		return res, nil
	}

	// Reopening an issue whose task already reached Complete means the
	// two sides disagree on doneness. The remote wins, but the result
	// is flagged so a reviewer can see the task was pulled back.
	if task.Status == lifecycle.TaskComplete && issue.State == "open" {
		res.Conflict = true
	}

	comment := fmt.Sprintf("Synced from GitHub issue #%s (%s)", task.GitHubIssueNumber, issue.State)
	if _, err := s.store.UpdateTaskStatus(task.ID, want, comment, ""); err != nil {
		return nil, err
	}
	if err := s.applyAssignee(task, issue); err != nil {
		return nil, err
	}
	if err := s.store.SetTaskGitHubSync(task.ID, etag); err != nil {
		return nil, err
	}
	res.Action = "updated"
	res.FromStatus = task.Status
	res.ToStatus = want
	return res, nil
}

// applyAssignee copies the issue's first assignee onto the task. GitHub
// allows multiple assignees; tasks track one, so the first wins. No
// remote assignee clears the local one.
func (s *Syncer) applyAssignee(task store.Task, issue *Issue) error {
	remote := ""
	if len(issue.Assignees) > 0 {
		remote = issue.Assignees[0]
	}
	if remote == task.Assignee {
		return nil
	}
	return s.store.SetTaskAssignee(task.ID, remote)
}
