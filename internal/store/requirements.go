package store

import (
	"database/sql"
	"fmt"

	"github.com/heffrey78/lifecycle-mcp-sub000/internal/lifecycle"
)

// ─── Types ───────────────────────────────────────────────────────────────────

// Requirement is a lifecycle requirement row.
type Requirement struct {
	ID                     string   `json:"id"`
	RequirementNumber      int      `json:"requirement_number"`
	Type                   string   `json:"type"`
	Version                int      `json:"version"`
	Title                  string   `json:"title"`
	Status                 string   `json:"status"`
	Priority               string   `json:"priority"`
	CurrentState           string   `json:"current_state,omitempty"`
	DesiredState           string   `json:"desired_state,omitempty"`
	FunctionalRequirements []string `json:"functional_requirements,omitempty"`
	AcceptanceCriteria     []string `json:"acceptance_criteria,omitempty"`
	BusinessValue          string   `json:"business_value,omitempty"`
	RiskLevel              string   `json:"risk_level,omitempty"`
	Author                 string   `json:"author,omitempty"`
	TaskCount              int      `json:"task_count"`
	TasksCompleted         int      `json:"tasks_completed"`
	ComplexityScore        *int     `json:"complexity_score,omitempty"`
	ScopeAssessment        string   `json:"scope_assessment,omitempty"`
	DecompositionSource    string   `json:"decomposition_source,omitempty"`
	DecompositionLevel     int      `json:"decomposition_level"`
	CreatedAt              string   `json:"created_at"`
	UpdatedAt              string   `json:"updated_at"`
}

// CreateRequirementParams holds input for creating a requirement.
type CreateRequirementParams struct {
	Type                   string   `json:"type"`
	Title                  string   `json:"title"`
	Priority               string   `json:"priority"`
	CurrentState           string   `json:"current_state"`
	DesiredState           string   `json:"desired_state"`
	FunctionalRequirements []string `json:"functional_requirements,omitempty"`
	AcceptanceCriteria     []string `json:"acceptance_criteria,omitempty"`
	BusinessValue          string   `json:"business_value,omitempty"`
	RiskLevel              string   `json:"risk_level,omitempty"`
	Author                 string   `json:"author,omitempty"`

	// Decomposition metadata, set by the advisor path.
	ComplexityScore     *int   `json:"complexity_score,omitempty"`
	ScopeAssessment     string `json:"scope_assessment,omitempty"`
	DecompositionSource string `json:"decomposition_source,omitempty"`
	DecompositionLevel  int    `json:"decomposition_level,omitempty"`
}

func (p *CreateRequirementParams) validate() error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"type", p.Type},
		{"title", p.Title},
		{"priority", p.Priority},
		{"current_state", p.CurrentState},
		{"desired_state", p.DesiredState},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return lifecycle.MissingParams(missing...)
	}
	if !lifecycle.ValidRequirementType(p.Type) {
		return &lifecycle.ValidationError{Message: fmt.Sprintf("invalid requirement type %q", p.Type)}
	}
	if !lifecycle.ValidPriority(p.Priority) {
		return &lifecycle.ValidationError{Message: fmt.Sprintf("invalid priority %q", p.Priority)}
	}
	if p.RiskLevel != "" && !lifecycle.ValidRiskLevel(p.RiskLevel) {
		return &lifecycle.ValidationError{Message: fmt.Sprintf("invalid risk level %q", p.RiskLevel)}
	}
	return nil
}

// QueryRequirementsFilter narrows QueryRequirements. Zero values match all.
type QueryRequirementsFilter struct {
	Status     string `json:"status,omitempty"`
	Type       string `json:"type,omitempty"`
	Priority   string `json:"priority,omitempty"`
	SearchText string `json:"search_text,omitempty"`
}

const requirementColumns = `
	id, requirement_number, type, version, title, status, priority,
	current_state, desired_state, functional_requirements, acceptance_criteria,
	business_value, risk_level, author, task_count, tasks_completed,
	complexity_score, scope_assessment, decomposition_source, decomposition_level,
	created_at, updated_at`

func scanRequirement(row interface{ Scan(...any) error }) (Requirement, error) {
	var r Requirement
	var currentState, desiredState, funcReqs, criteria sql.NullString
	var businessValue, riskLevel, author sql.NullString
	var scopeAssessment, decompositionSource sql.NullString
	var complexity sql.NullInt64
	err := row.Scan(
		&r.ID, &r.RequirementNumber, &r.Type, &r.Version, &r.Title, &r.Status, &r.Priority,
		&currentState, &desiredState, &funcReqs, &criteria,
		&businessValue, &riskLevel, &author, &r.TaskCount, &r.TasksCompleted,
		&complexity, &scopeAssessment, &decompositionSource, &r.DecompositionLevel,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return Requirement{}, err
	}
	r.CurrentState = fromNull(currentState)
	r.DesiredState = fromNull(desiredState)
	r.FunctionalRequirements = unmarshalList(funcReqs)
	r.AcceptanceCriteria = unmarshalList(criteria)
	r.BusinessValue = fromNull(businessValue)
	r.RiskLevel = fromNull(riskLevel)
	r.Author = fromNull(author)
	if complexity.Valid {
		n := int(complexity.Int64)
		r.ComplexityScore = &n
	}
	r.ScopeAssessment = fromNull(scopeAssessment)
	r.DecompositionSource = fromNull(decompositionSource)
	return r, nil
}

// ─── Create ──────────────────────────────────────────────────────────────────

// CreateRequirement allocates the next requirement number for the type
// and inserts the requirement as Draft.
func (s *Store) CreateRequirement(p CreateRequirementParams) (*Requirement, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	var id string
	err := s.withTx(func(tx *sql.Tx) error {
		var err error
		id, err = createRequirement(tx, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetRequirement(id)
}

// createRequirement inserts one requirement inside tx and returns its
// ID. Shared by the single-creation and decomposition paths.
func createRequirement(tx *sql.Tx, p CreateRequirementParams) (string, error) {
	n, err := nextID(tx, "requirements", "requirement_number", "type = ?", p.Type)
	if err != nil {
		return "", err
	}
	id := fmt.Sprintf("REQ-%04d-%s-00", n, p.Type)

	author := p.Author
	if author == "" {
		author = "MCP User"
	}
	risk := p.RiskLevel
	if risk == "" {
		risk = "Medium"
	}

	var complexity any
	if p.ComplexityScore != nil {
		complexity = *p.ComplexityScore
	}

	now := nowUTC()
	_, err = tx.Exec(`
		INSERT INTO requirements (
			id, requirement_number, type, version, title, status, priority,
			current_state, desired_state, functional_requirements, acceptance_criteria,
			business_value, risk_level, author,
			complexity_score, scope_assessment, decomposition_source, decomposition_level,
			created_at, updated_at
		) VALUES (?, ?, ?, 0, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, n, p.Type, p.Title, lifecycle.ReqDraft, p.Priority,
		p.CurrentState, p.DesiredState, marshalList(p.FunctionalRequirements), marshalList(p.AcceptanceCriteria),
		nullable(p.BusinessValue), risk, author,
		complexity, nullable(p.ScopeAssessment), nullable(p.DecompositionSource), p.DecompositionLevel,
		now, now)
	if err != nil {
		return "", fmt.Errorf("store: insert requirement: %w", err)
	}

	logEvent(tx, "requirement", id, "created", "", "", author)
	return id, nil
}

// ─── Status ──────────────────────────────────────────────────────────────────

// UpdateRequirementStatus moves a requirement through the lifecycle
// graph. Transitions to Validated are gated on every linked task being
// Complete; that check runs before the transition table so the caller
// learns about blocking tasks even when the move itself would be legal.
func (s *Store) UpdateRequirementStatus(id, newStatus, comment string) (*Requirement, error) {
	if id == "" || newStatus == "" {
		return nil, lifecycle.MissingParams("requirement_id", "new_status")
	}

	err := s.withTx(func(tx *sql.Tx) error {
		var current string
		err := tx.QueryRow("SELECT status FROM requirements WHERE id = ?", id).Scan(&current)
		if err == sql.ErrNoRows {
			return &lifecycle.NotFoundError{Kind: lifecycle.KindRequirement, ID: id}
		}
		if err != nil {
			return fmt.Errorf("store: read requirement status: %w", err)
		}

		if newStatus == lifecycle.ReqValidated {
			incomplete, err := incompleteTasks(tx, id)
			if err != nil {
				return err
			}
			if len(incomplete) > 0 {
				return &lifecycle.IncompleteTasksError{RequirementID: id, Tasks: incomplete}
			}
		}

		if err := lifecycle.ValidateRequirementTransition(current, newStatus); err != nil {
			return err
		}

		if _, err := tx.Exec(
			"UPDATE requirements SET status = ?, updated_at = ? WHERE id = ?",
			newStatus, nowUTC(), id); err != nil {
			return fmt.Errorf("store: update requirement status: %w", err)
		}

		logEvent(tx, "requirement", id, "status_changed", current, newStatus, "")
		if comment != "" {
			addReview(tx, "requirement", id, "MCP User", comment)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetRequirement(id)
}

// incompleteTasks returns the linked tasks that are not Complete.
func incompleteTasks(tx *sql.Tx, requirementID string) ([]lifecycle.TaskRef, error) {
	rows, err := tx.Query(`
		SELECT t.id, t.title, t.status
		FROM tasks t
		JOIN requirement_tasks rt ON t.id = rt.task_id
		WHERE rt.requirement_id = ? AND t.status != ?
		ORDER BY t.id`,
		requirementID, lifecycle.TaskComplete)
	if err != nil {
		return nil, fmt.Errorf("store: incomplete tasks: %w", err)
	}
	defer rows.Close()

	var tasks []lifecycle.TaskRef
	for rows.Next() {
		var t lifecycle.TaskRef
		if err := rows.Scan(&t.ID, &t.Title, &t.Status); err != nil {
			return nil, fmt.Errorf("store: scan incomplete task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// ─── Read ────────────────────────────────────────────────────────────────────

// GetRequirement returns a single requirement by ID.
func (s *Store) GetRequirement(id string) (*Requirement, error) {
	row := s.db.QueryRow(
		"SELECT "+requirementColumns+" FROM requirements WHERE id = ?", id)
	r, err := scanRequirement(row)
	if err == sql.ErrNoRows {
		return nil, &lifecycle.NotFoundError{Kind: lifecycle.KindRequirement, ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("store: get requirement: %w", err)
	}
	return &r, nil
}

// QueryRequirements returns requirements matching the filter, ordered
// by identifier.
func (s *Store) QueryRequirements(f QueryRequirementsFilter) ([]Requirement, error) {
	q := newFilter()
	q.eq("status", f.Status)
	q.eq("type", f.Type)
	q.eq("priority", f.Priority)
	q.like("title", f.SearchText)

	rows, err := s.db.Query(
		"SELECT "+requirementColumns+" FROM requirements"+q.where()+" ORDER BY id", q.args...)
	if err != nil {
		return nil, fmt.Errorf("store: query requirements: %w", err)
	}
	defer rows.Close()

	var reqs []Requirement
	for rows.Next() {
		r, err := scanRequirement(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan requirement: %w", err)
		}
		reqs = append(reqs, r)
	}
	return reqs, rows.Err()
}

// LinkedEntity is a compact view of an entity linked to another.
type LinkedEntity struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

// RequirementDetails is a requirement with its linked entities,
// decomposition hierarchy, and review trail.
type RequirementDetails struct {
	Requirement
	Tasks        []LinkedEntity   `json:"tasks,omitempty"`
	Architecture []LinkedEntity   `json:"architecture,omitempty"`
	Parents      []LinkedEntity   `json:"parents,omitempty"`
	Children     []LinkedEntity   `json:"children,omitempty"`
	Reviews      []Review         `json:"reviews,omitempty"`
	Events       []LifecycleEvent `json:"events,omitempty"`
}

// GetRequirementDetails returns the requirement with linked tasks,
// architecture documents, decomposition parents/children, reviews, and
// the lifecycle audit log.
func (s *Store) GetRequirementDetails(id string) (*RequirementDetails, error) {
	req, err := s.GetRequirement(id)
	if err != nil {
		return nil, err
	}
	d := &RequirementDetails{Requirement: *req}

	d.Tasks, err = s.linkedEntities(`
		SELECT t.id, t.title, t.status
		FROM tasks t JOIN requirement_tasks rt ON t.id = rt.task_id
		WHERE rt.requirement_id = ? ORDER BY t.id`, id)
	if err != nil {
		return nil, err
	}

	d.Architecture, err = s.linkedEntities(`
		SELECT a.id, a.title, a.status
		FROM architecture a JOIN requirement_architecture ra ON a.id = ra.architecture_id
		WHERE ra.requirement_id = ? ORDER BY a.id`, id)
	if err != nil {
		return nil, err
	}

	// Decomposition: a child row points at its parent with type 'parent'.
	d.Parents, err = s.linkedEntities(`
		SELECT r.id, r.title, r.status
		FROM requirements r JOIN requirement_dependencies rd ON r.id = rd.depends_on_requirement_id
		WHERE rd.requirement_id = ? AND rd.dependency_type = 'parent' ORDER BY r.id`, id)
	if err != nil {
		return nil, err
	}

	d.Children, err = s.linkedEntities(`
		SELECT r.id, r.title, r.status
		FROM requirements r JOIN requirement_dependencies rd ON r.id = rd.requirement_id
		WHERE rd.depends_on_requirement_id = ? AND rd.dependency_type = 'parent' ORDER BY r.id`, id)
	if err != nil {
		return nil, err
	}

	d.Reviews, err = s.ListReviews("requirement", id)
	if err != nil {
		return nil, err
	}

	d.Events, err = s.ListEvents("requirement", id)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Store) linkedEntities(query string, args ...any) ([]LinkedEntity, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: linked entities: %w", err)
	}
	defer rows.Close()

	var linked []LinkedEntity
	for rows.Next() {
		var e LinkedEntity
		if err := rows.Scan(&e.ID, &e.Title, &e.Status); err != nil {
			return nil, fmt.Errorf("store: scan linked entity: %w", err)
		}
		linked = append(linked, e)
	}
	return linked, rows.Err()
}

// RequirementTrace is the full implementation trail of a requirement.
type RequirementTrace struct {
	Requirement  Requirement        `json:"requirement"`
	Tasks        []LinkedEntity     `json:"tasks,omitempty"`
	Architecture []LinkedEntity     `json:"architecture,omitempty"`
	Children     []RequirementTrace `json:"children,omitempty"`
}

// TraceRequirement walks a requirement's linked tasks and architecture
// plus its decomposition subtree, depth-first.
func (s *Store) TraceRequirement(id string) (*RequirementTrace, error) {
	return s.traceRequirement(id, map[string]bool{})
}

func (s *Store) traceRequirement(id string, seen map[string]bool) (*RequirementTrace, error) {
	if seen[id] {
		return nil, nil
	}
	seen[id] = true

	d, err := s.GetRequirementDetails(id)
	if err != nil {
		return nil, err
	}
	trace := &RequirementTrace{
		Requirement:  d.Requirement,
		Tasks:        d.Tasks,
		Architecture: d.Architecture,
	}
	for _, child := range d.Children {
		sub, err := s.traceRequirement(child.ID, seen)
		if err != nil {
			return nil, err
		}
		if sub != nil {
			trace.Children = append(trace.Children, *sub)
		}
	}
	return trace, nil
}

// ─── Decomposition ───────────────────────────────────────────────────────────

// ChildRequirement describes one suggested sub-requirement.
type ChildRequirement struct {
	Type         string `json:"type"`
	Title        string `json:"title"`
	CurrentState string `json:"current_state,omitempty"`
	DesiredState string `json:"desired_state,omitempty"`
	Rationale    string `json:"rationale,omitempty"`
}

// DecompositionResult reports the IDs created by CreateDecomposition.
type DecompositionResult struct {
	ParentID string   `json:"parent_id"`
	ChildIDs []string `json:"child_ids"`
}

// CreateDecomposition creates a parent requirement plus one child per
// suggestion, all in a single transaction. Children inherit the
// parent's priority, author, risk level, functional requirements, and
// acceptance criteria, and are linked to the parent with a 'parent'
// dependency.
func (s *Store) CreateDecomposition(p CreateRequirementParams, children []ChildRequirement) (*DecompositionResult, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return nil, &lifecycle.ValidationError{Message: "decomposition requires at least one child"}
	}

	result := &DecompositionResult{}
	err := s.withTx(func(tx *sql.Tx) error {
		parent := p
		parent.Title = p.Title + " (Parent)"
		parentID, err := createRequirement(tx, parent)
		if err != nil {
			return err
		}
		result.ParentID = parentID

		for i, child := range children {
			cp := CreateRequirementParams{
				Type:                   child.Type,
				Title:                  child.Title,
				Priority:               p.Priority,
				CurrentState:           fmt.Sprintf("Sub-requirement %d of %s: %s", i+1, parentID, orDefault(child.CurrentState, p.CurrentState)),
				DesiredState:           orDefault(child.DesiredState, p.DesiredState),
				FunctionalRequirements: p.FunctionalRequirements,
				AcceptanceCriteria:     p.AcceptanceCriteria,
				BusinessValue:          p.BusinessValue,
				RiskLevel:              p.RiskLevel,
				Author:                 p.Author,
				DecompositionSource:    p.DecompositionSource,
				DecompositionLevel:     p.DecompositionLevel + 1,
			}
			if cp.Type == "" {
				cp.Type = p.Type
			}
			if err := cp.validate(); err != nil {
				return err
			}
			childID, err := createRequirement(tx, cp)
			if err != nil {
				return err
			}
			result.ChildIDs = append(result.ChildIDs, childID)

			if _, err := tx.Exec(`
				INSERT INTO requirement_dependencies (requirement_id, depends_on_requirement_id, dependency_type)
				VALUES (?, ?, 'parent')`,
				childID, parentID); err != nil {
				return fmt.Errorf("store: link decomposed requirement: %w", err)
			}
			logEvent(tx, "requirement", childID, "created_parent_relationship", "", parentID, "")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
