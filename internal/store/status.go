package store

import (
	"fmt"

	"github.com/heffrey78/lifecycle-mcp-sub000/internal/lifecycle"
)

// ─── Project status & metrics ────────────────────────────────────────────────

// ProjectStatus summarizes entity counts by status.
type ProjectStatus struct {
	Requirements      map[string]int `json:"requirements"`
	Tasks             map[string]int `json:"tasks"`
	Architecture      map[string]int `json:"architecture"`
	RequirementsTotal int            `json:"requirements_total"`
	TasksTotal        int            `json:"tasks_total"`
	ArchitectureTotal int            `json:"architecture_total"`
}

// GetProjectStatus counts every entity by status.
func (s *Store) GetProjectStatus() (*ProjectStatus, error) {
	status := &ProjectStatus{}
	var err error

	if status.Requirements, status.RequirementsTotal, err = s.countBy("requirements", "status"); err != nil {
		return nil, err
	}
	if status.Tasks, status.TasksTotal, err = s.countBy("tasks", "status"); err != nil {
		return nil, err
	}
	if status.Architecture, status.ArchitectureTotal, err = s.countBy("architecture", "status"); err != nil {
		return nil, err
	}
	return status, nil
}

// ProjectMetrics breaks the project down by priority and type and
// reports completion percentages.
type ProjectMetrics struct {
	RequirementsByPriority map[string]int `json:"requirements_by_priority"`
	RequirementsByType     map[string]int `json:"requirements_by_type"`
	TasksByPriority        map[string]int `json:"tasks_by_priority"`
	RequirementsValidated  int            `json:"requirements_validated"`
	RequirementsTotal      int            `json:"requirements_total"`
	TasksComplete          int            `json:"tasks_complete"`
	TasksTotal             int            `json:"tasks_total"`
	RequirementCompletion  float64        `json:"requirement_completion_pct"`
	TaskCompletion         float64        `json:"task_completion_pct"`
}

// GetProjectMetrics computes priority/type breakdowns and completion
// percentages. A requirement counts as complete once Validated; a task
// once Complete.
func (s *Store) GetProjectMetrics() (*ProjectMetrics, error) {
	m := &ProjectMetrics{}
	var err error

	if m.RequirementsByPriority, m.RequirementsTotal, err = s.countBy("requirements", "priority"); err != nil {
		return nil, err
	}
	if m.RequirementsByType, _, err = s.countBy("requirements", "type"); err != nil {
		return nil, err
	}
	if m.TasksByPriority, m.TasksTotal, err = s.countBy("tasks", "priority"); err != nil {
		return nil, err
	}

	reqByStatus, _, err := s.countBy("requirements", "status")
	if err != nil {
		return nil, err
	}
	m.RequirementsValidated = reqByStatus[lifecycle.ReqValidated]

	taskByStatus, _, err := s.countBy("tasks", "status")
	if err != nil {
		return nil, err
	}
	m.TasksComplete = taskByStatus[lifecycle.TaskComplete]

	if m.RequirementsTotal > 0 {
		m.RequirementCompletion = 100 * float64(m.RequirementsValidated) / float64(m.RequirementsTotal)
	}
	if m.TasksTotal > 0 {
		m.TaskCompletion = 100 * float64(m.TasksComplete) / float64(m.TasksTotal)
	}
	return m, nil
}

// countBy groups a table by one column. Column names are package
// literals, never user input.
func (s *Store) countBy(table, column string) (map[string]int, int, error) {
	rows, err := s.db.Query(fmt.Sprintf(
		"SELECT %s, COUNT(*) FROM %s GROUP BY %s", column, table, column))
	if err != nil {
		return nil, 0, fmt.Errorf("store: count %s by %s: %w", table, column, err)
	}
	defer rows.Close()

	counts := map[string]int{}
	total := 0
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, 0, fmt.Errorf("store: scan count: %w", err)
		}
		counts[key] = n
		total += n
	}
	return counts, total, rows.Err()
}
