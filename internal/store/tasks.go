package store

import (
	"database/sql"
	"fmt"

	"github.com/heffrey78/lifecycle-mcp-sub000/internal/lifecycle"
)

// ─── Types ───────────────────────────────────────────────────────────────────

// Task is a lifecycle task row.
type Task struct {
	ID                 string   `json:"id"`
	TaskNumber         int      `json:"task_number"`
	SubtaskNumber      int      `json:"subtask_number"`
	Version            int      `json:"version"`
	Title              string   `json:"title"`
	Status             string   `json:"status"`
	Priority           string   `json:"priority"`
	Effort             string   `json:"effort,omitempty"`
	UserStory          string   `json:"user_story,omitempty"`
	AcceptanceCriteria []string `json:"acceptance_criteria,omitempty"`
	ParentTaskID       string   `json:"parent_task_id,omitempty"`
	Assignee           string   `json:"assignee,omitempty"`
	GitHubIssueNumber  string   `json:"github_issue_number,omitempty"`
	GitHubIssueURL     string   `json:"github_issue_url,omitempty"`
	GitHubETag         string   `json:"github_etag,omitempty"`
	GitHubLastSync     string   `json:"github_last_sync,omitempty"`
	CreatedAt          string   `json:"created_at"`
	UpdatedAt          string   `json:"updated_at"`
}

// CreateTaskParams holds input for creating a task.
type CreateTaskParams struct {
	RequirementIDs     []string `json:"requirement_ids"`
	Title              string   `json:"title"`
	Priority           string   `json:"priority"`
	Effort             string   `json:"effort,omitempty"`
	UserStory          string   `json:"user_story,omitempty"`
	AcceptanceCriteria []string `json:"acceptance_criteria,omitempty"`
	ParentTaskID       string   `json:"parent_task_id,omitempty"`
	Assignee           string   `json:"assignee,omitempty"`
}

func (p *CreateTaskParams) validate() error {
	var missing []string
	if len(p.RequirementIDs) == 0 {
		missing = append(missing, "requirement_ids")
	}
	if p.Title == "" {
		missing = append(missing, "title")
	}
	if p.Priority == "" {
		missing = append(missing, "priority")
	}
	if len(missing) > 0 {
		return lifecycle.MissingParams(missing...)
	}
	if !lifecycle.ValidPriority(p.Priority) {
		return &lifecycle.ValidationError{Message: fmt.Sprintf("invalid priority %q", p.Priority)}
	}
	if p.Effort != "" && !lifecycle.ValidEffort(p.Effort) {
		return &lifecycle.ValidationError{Message: fmt.Sprintf("invalid effort %q", p.Effort)}
	}
	return nil
}

// QueryTasksFilter narrows QueryTasks. Zero values match all.
type QueryTasksFilter struct {
	Status        string `json:"status,omitempty"`
	Priority      string `json:"priority,omitempty"`
	Assignee      string `json:"assignee,omitempty"`
	RequirementID string `json:"requirement_id,omitempty"`
}

const taskColumns = `
	id, task_number, subtask_number, version, title, status, priority,
	effort, user_story, acceptance_criteria, parent_task_id, assignee,
	github_issue_number, github_issue_url, github_etag, github_last_sync,
	created_at, updated_at`

func scanTask(row interface{ Scan(...any) error }) (Task, error) {
	var t Task
	var effort, userStory, criteria, parentID, assignee sql.NullString
	var ghNumber, ghURL, ghETag, ghSync sql.NullString
	err := row.Scan(
		&t.ID, &t.TaskNumber, &t.SubtaskNumber, &t.Version, &t.Title, &t.Status, &t.Priority,
		&effort, &userStory, &criteria, &parentID, &assignee,
		&ghNumber, &ghURL, &ghETag, &ghSync,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return Task{}, err
	}
	t.Effort = fromNull(effort)
	t.UserStory = fromNull(userStory)
	t.AcceptanceCriteria = unmarshalList(criteria)
	t.ParentTaskID = fromNull(parentID)
	t.Assignee = fromNull(assignee)
	t.GitHubIssueNumber = fromNull(ghNumber)
	t.GitHubIssueURL = fromNull(ghURL)
	t.GitHubETag = fromNull(ghETag)
	t.GitHubLastSync = fromNull(ghSync)
	return t, nil
}

// ─── Create ──────────────────────────────────────────────────────────────────

// CreateTask creates a task linked to one or more requirements. Every
// linked requirement must have reached an approved status. Root tasks
// take the next global task number with subtask 00; subtasks inherit
// the parent's task number and take the next subtask number under that
// parent.
func (s *Store) CreateTask(p CreateTaskParams) (*Task, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	var id string
	err := s.withTx(func(tx *sql.Tx) error {
		var unapproved []lifecycle.RequirementStatusRef
		for _, reqID := range p.RequirementIDs {
			var status string
			err := tx.QueryRow("SELECT status FROM requirements WHERE id = ?", reqID).Scan(&status)
			if err == sql.ErrNoRows {
				return &lifecycle.NotFoundError{Kind: lifecycle.KindRequirement, ID: reqID}
			}
			if err != nil {
				return fmt.Errorf("store: read requirement status: %w", err)
			}
			if !lifecycle.RequirementAcceptsTasks(status) {
				unapproved = append(unapproved, lifecycle.RequirementStatusRef{ID: reqID, Status: status})
			}
		}
		if len(unapproved) > 0 {
			return &lifecycle.UnapprovedRequirementsError{Requirements: unapproved}
		}

		taskNumber, err := nextID(tx, "tasks", "task_number", "")
		if err != nil {
			return err
		}
		subtaskNumber := 0
		if p.ParentTaskID != "" {
			var parentNumber int
			err := tx.QueryRow("SELECT task_number FROM tasks WHERE id = ?", p.ParentTaskID).Scan(&parentNumber)
			if err == sql.ErrNoRows {
				return &lifecycle.NotFoundError{Kind: lifecycle.KindTask, ID: p.ParentTaskID}
			}
			if err != nil {
				return fmt.Errorf("store: read parent task: %w", err)
			}
			taskNumber = parentNumber
			subtaskNumber, err = nextID(tx, "tasks", "subtask_number", "parent_task_id = ?", p.ParentTaskID)
			if err != nil {
				return err
			}
		}

		id = fmt.Sprintf("TASK-%04d-%02d-00", taskNumber, subtaskNumber)

		now := nowUTC()
		_, err = tx.Exec(`
			INSERT INTO tasks (
				id, task_number, subtask_number, version, title, status, priority,
				effort, user_story, acceptance_criteria, parent_task_id, assignee,
				created_at, updated_at
			) VALUES (?, ?, ?, 0, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, taskNumber, subtaskNumber, p.Title, lifecycle.TaskNotStarted, p.Priority,
			nullable(p.Effort), nullable(p.UserStory), marshalList(p.AcceptanceCriteria),
			nullable(p.ParentTaskID), nullable(p.Assignee),
			now, now)
		if err != nil {
			return fmt.Errorf("store: insert task: %w", err)
		}

		for _, reqID := range p.RequirementIDs {
			if _, err := tx.Exec(
				"INSERT INTO requirement_tasks (requirement_id, task_id) VALUES (?, ?)",
				reqID, id); err != nil {
				return fmt.Errorf("store: link task to requirement: %w", err)
			}
		}
		if err := refreshTaskCounts(tx, p.RequirementIDs); err != nil {
			return err
		}

		logEvent(tx, "task", id, "created", "", "", p.Assignee)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetTask(id)
}

// refreshTaskCounts recomputes the task progress counters on the given
// requirements from the join table.
func refreshTaskCounts(tx *sql.Tx, requirementIDs []string) error {
	for _, reqID := range requirementIDs {
		_, err := tx.Exec(`
			UPDATE requirements SET
				task_count = (
					SELECT COUNT(*) FROM requirement_tasks WHERE requirement_id = ?),
				tasks_completed = (
					SELECT COUNT(*) FROM requirement_tasks rt
					JOIN tasks t ON t.id = rt.task_id
					WHERE rt.requirement_id = ? AND t.status = ?)
			WHERE id = ?`,
			reqID, reqID, lifecycle.TaskComplete, reqID)
		if err != nil {
			return fmt.Errorf("store: refresh task counts: %w", err)
		}
	}
	return nil
}

// ─── Status ──────────────────────────────────────────────────────────────────

// UpdateTaskStatus sets a task's status and refreshes the progress
// counters on every linked requirement. Tasks have no transition
// graph; any valid status may follow any other.
func (s *Store) UpdateTaskStatus(id, newStatus, comment, assignee string) (*Task, error) {
	if id == "" || newStatus == "" {
		return nil, lifecycle.MissingParams("task_id", "new_status")
	}
	if !lifecycle.ValidTaskStatus(newStatus) {
		return nil, &lifecycle.ValidationError{Message: fmt.Sprintf("invalid task status %q", newStatus)}
	}

	err := s.withTx(func(tx *sql.Tx) error {
		var current string
		err := tx.QueryRow("SELECT status FROM tasks WHERE id = ?", id).Scan(&current)
		if err == sql.ErrNoRows {
			return &lifecycle.NotFoundError{Kind: lifecycle.KindTask, ID: id}
		}
		if err != nil {
			return fmt.Errorf("store: read task status: %w", err)
		}

		if assignee != "" {
			_, err = tx.Exec(
				"UPDATE tasks SET status = ?, assignee = ?, updated_at = ? WHERE id = ?",
				newStatus, assignee, nowUTC(), id)
		} else {
			_, err = tx.Exec(
				"UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?",
				newStatus, nowUTC(), id)
		}
		if err != nil {
			return fmt.Errorf("store: update task status: %w", err)
		}

		reqIDs, err := linkedRequirementIDs(tx, id)
		if err != nil {
			return err
		}
		if err := refreshTaskCounts(tx, reqIDs); err != nil {
			return err
		}

		logEvent(tx, "task", id, "status_changed", current, newStatus, assignee)
		if comment != "" {
			addReview(tx, "task", id, "MCP User", comment)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetTask(id)
}

// SetTaskAssignee overwrites a task's assignee. An empty assignee
// clears it. No-op when the value already matches.
func (s *Store) SetTaskAssignee(id, assignee string) error {
	return s.withTx(func(tx *sql.Tx) error {
		var current sql.NullString
		err := tx.QueryRow("SELECT assignee FROM tasks WHERE id = ?", id).Scan(&current)
		if err == sql.ErrNoRows {
			return &lifecycle.NotFoundError{Kind: lifecycle.KindTask, ID: id}
		}
		if err != nil {
			return fmt.Errorf("store: read task assignee: %w", err)
		}
		if fromNull(current) == assignee {
			return nil
		}

		if _, err := tx.Exec(
			"UPDATE tasks SET assignee = ?, updated_at = ? WHERE id = ?",
			nullable(assignee), nowUTC(), id); err != nil {
			return fmt.Errorf("store: set task assignee: %w", err)
		}
		logEvent(tx, "task", id, "assignee_changed", fromNull(current), assignee, "")
		return nil
	})
}

func linkedRequirementIDs(tx *sql.Tx, taskID string) ([]string, error) {
	rows, err := tx.Query(
		"SELECT requirement_id FROM requirement_tasks WHERE task_id = ?", taskID)
	if err != nil {
		return nil, fmt.Errorf("store: linked requirements: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store: scan requirement id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ─── Read ────────────────────────────────────────────────────────────────────

// GetTask returns a single task by ID.
func (s *Store) GetTask(id string) (*Task, error) {
	row := s.db.QueryRow("SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, &lifecycle.NotFoundError{Kind: lifecycle.KindTask, ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("store: get task: %w", err)
	}
	return &t, nil
}

// QueryTasks returns tasks matching the filter, ordered by identifier.
func (s *Store) QueryTasks(f QueryTasksFilter) ([]Task, error) {
	q := newFilter()
	q.eq("status", f.Status)
	q.eq("priority", f.Priority)
	q.eq("assignee", f.Assignee)
	if f.RequirementID != "" {
		q.raw("id IN (SELECT task_id FROM requirement_tasks WHERE requirement_id = ?)", f.RequirementID)
	}

	rows, err := s.db.Query(
		"SELECT "+taskColumns+" FROM tasks"+q.where()+" ORDER BY id", q.args...)
	if err != nil {
		return nil, fmt.Errorf("store: query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// TaskDetails is a task with its hierarchy and linked requirements.
type TaskDetails struct {
	Task
	Parent       *LinkedEntity    `json:"parent,omitempty"`
	Subtasks     []LinkedEntity   `json:"subtasks,omitempty"`
	Requirements []LinkedEntity   `json:"requirements,omitempty"`
	Reviews      []Review         `json:"reviews,omitempty"`
	Events       []LifecycleEvent `json:"events,omitempty"`
}

// GetTaskDetails returns the task with its parent, subtasks, linked
// requirements, reviews, and the lifecycle audit log.
func (s *Store) GetTaskDetails(id string) (*TaskDetails, error) {
	task, err := s.GetTask(id)
	if err != nil {
		return nil, err
	}
	d := &TaskDetails{Task: *task}

	if task.ParentTaskID != "" {
		parents, err := s.linkedEntities(
			"SELECT id, title, status FROM tasks WHERE id = ?", task.ParentTaskID)
		if err != nil {
			return nil, err
		}
		if len(parents) > 0 {
			d.Parent = &parents[0]
		}
	}

	d.Subtasks, err = s.linkedEntities(
		"SELECT id, title, status FROM tasks WHERE parent_task_id = ? ORDER BY id", id)
	if err != nil {
		return nil, err
	}

	d.Requirements, err = s.linkedEntities(`
		SELECT r.id, r.title, r.status
		FROM requirements r JOIN requirement_tasks rt ON r.id = rt.requirement_id
		WHERE rt.task_id = ? ORDER BY r.id`, id)
	if err != nil {
		return nil, err
	}

	d.Reviews, err = s.ListReviews("task", id)
	if err != nil {
		return nil, err
	}

	d.Events, err = s.ListEvents("task", id)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// ─── GitHub mirror metadata ──────────────────────────────────────────────────

// SetTaskGitHubIssue records the mirrored issue for a task.
func (s *Store) SetTaskGitHubIssue(taskID, issueNumber, issueURL, etag string) error {
	return s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			UPDATE tasks SET github_issue_number = ?, github_issue_url = ?,
				github_etag = ?, github_last_sync = ?, updated_at = ?
			WHERE id = ?`,
			issueNumber, issueURL, nullable(etag), nowUTC(), nowUTC(), taskID)
		if err != nil {
			return fmt.Errorf("store: set github issue: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &lifecycle.NotFoundError{Kind: lifecycle.KindTask, ID: taskID}
		}
		return nil
	})
}

// SetTaskGitHubSync records the fingerprint of the last observed issue state.
func (s *Store) SetTaskGitHubSync(taskID, etag string) error {
	return s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(
			"UPDATE tasks SET github_etag = ?, github_last_sync = ? WHERE id = ?",
			etag, nowUTC(), taskID)
		if err != nil {
			return fmt.Errorf("store: set github sync: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &lifecycle.NotFoundError{Kind: lifecycle.KindTask, ID: taskID}
		}
		return nil
	})
}

// TasksWithGitHubIssues returns every task that mirrors a GitHub issue.
func (s *Store) TasksWithGitHubIssues() ([]Task, error) {
	rows, err := s.db.Query(
		"SELECT " + taskColumns + " FROM tasks WHERE github_issue_number IS NOT NULL ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("store: tasks with github issues: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}
