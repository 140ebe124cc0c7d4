package store

import (
	"database/sql"
	"fmt"

	"github.com/heffrey78/lifecycle-mcp-sub000/internal/lifecycle"
)

// ─── Types ───────────────────────────────────────────────────────────────────

// Architecture is an architecture decision record row.
type Architecture struct {
	ID                string         `json:"id"`
	Type              string         `json:"type"`
	Title             string         `json:"title"`
	Status            string         `json:"status"`
	Context           string         `json:"context,omitempty"`
	DecisionDrivers   []string       `json:"decision_drivers,omitempty"`
	ConsideredOptions []string       `json:"considered_options,omitempty"`
	DecisionOutcome   string         `json:"decision_outcome,omitempty"`
	Consequences      map[string]any `json:"consequences,omitempty"`
	Authors           []string       `json:"authors,omitempty"`
	CreatedAt         string         `json:"created_at"`
	UpdatedAt         string         `json:"updated_at"`
}

// CreateArchitectureParams holds input for creating an ADR.
type CreateArchitectureParams struct {
	RequirementIDs    []string       `json:"requirement_ids"`
	Title             string         `json:"title"`
	Context           string         `json:"context"`
	Decision          string         `json:"decision"`
	DecisionDrivers   []string       `json:"decision_drivers,omitempty"`
	ConsideredOptions []string       `json:"considered_options,omitempty"`
	Consequences      map[string]any `json:"consequences,omitempty"`
	Authors           []string       `json:"authors,omitempty"`
}

func (p *CreateArchitectureParams) validate() error {
	var missing []string
	if len(p.RequirementIDs) == 0 {
		missing = append(missing, "requirement_ids")
	}
	if p.Title == "" {
		missing = append(missing, "title")
	}
	if p.Context == "" {
		missing = append(missing, "context")
	}
	if p.Decision == "" {
		missing = append(missing, "decision")
	}
	if len(missing) > 0 {
		return lifecycle.MissingParams(missing...)
	}
	return nil
}

// QueryArchitectureFilter narrows QueryArchitectureDecisions.
type QueryArchitectureFilter struct {
	Status        string `json:"status,omitempty"`
	Type          string `json:"type,omitempty"`
	RequirementID string `json:"requirement_id,omitempty"`
}

const architectureColumns = `
	id, type, title, status, context, decision_drivers, considered_options,
	decision_outcome, consequences, authors, created_at, updated_at`

func scanArchitecture(row interface{ Scan(...any) error }) (Architecture, error) {
	var a Architecture
	var context, drivers, options, outcome, consequences, authors sql.NullString
	err := row.Scan(
		&a.ID, &a.Type, &a.Title, &a.Status, &context, &drivers, &options,
		&outcome, &consequences, &authors, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return Architecture{}, err
	}
	a.Context = fromNull(context)
	a.DecisionDrivers = unmarshalList(drivers)
	a.ConsideredOptions = unmarshalList(options)
	a.DecisionOutcome = fromNull(outcome)
	a.Consequences = unmarshalObject(consequences)
	a.Authors = unmarshalList(authors)
	return a, nil
}

// ─── Create ──────────────────────────────────────────────────────────────────

// CreateArchitectureDecision allocates the next ADR number, inserts the
// record as Proposed, and links it to each requirement with an
// 'addresses' relationship.
func (s *Store) CreateArchitectureDecision(p CreateArchitectureParams) (*Architecture, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	authors := p.Authors
	if len(authors) == 0 {
		authors = []string{"MCP User"}
	}

	var id string
	err := s.withTx(func(tx *sql.Tx) error {
		for _, reqID := range p.RequirementIDs {
			ref := lifecycle.EntityRef{Kind: lifecycle.KindRequirement, ID: reqID}
			if err := entityExists(tx, ref); err != nil {
				return err
			}
		}

		// ADR numbers come from the identifier itself: ADR-NNNN.
		var n int
		err := tx.QueryRow(`
			SELECT COALESCE(MAX(CAST(SUBSTR(id, 5, 4) AS INTEGER)), 0) + 1
			FROM architecture WHERE type = 'ADR'`).Scan(&n)
		if err != nil {
			return fmt.Errorf("store: next adr number: %w", err)
		}
		id = fmt.Sprintf("ADR-%04d", n)

		now := nowUTC()
		_, err = tx.Exec(`
			INSERT INTO architecture (
				id, type, title, status, context, decision_drivers, considered_options,
				decision_outcome, consequences, authors, created_at, updated_at
			) VALUES (?, 'ADR', ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, p.Title, lifecycle.ArchProposed, p.Context,
			marshalList(p.DecisionDrivers), marshalList(p.ConsideredOptions),
			p.Decision, marshalObject(p.Consequences), marshalList(authors),
			now, now)
		if err != nil {
			return fmt.Errorf("store: insert architecture decision: %w", err)
		}

		for _, reqID := range p.RequirementIDs {
			if _, err := tx.Exec(`
				INSERT INTO requirement_architecture (requirement_id, architecture_id, relationship_type)
				VALUES (?, ?, 'addresses')`,
				reqID, id); err != nil {
				return fmt.Errorf("store: link architecture to requirement: %w", err)
			}
		}

		logEvent(tx, "architecture", id, "created", "", "", authors[0])
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetArchitecture(id)
}

// ─── Status ──────────────────────────────────────────────────────────────────

// UpdateArchitectureStatus sets an architecture document's status.
// Architecture documents have no transition graph; the new status only
// needs to be in the canonical vocabulary.
func (s *Store) UpdateArchitectureStatus(id, newStatus, comment string) (*Architecture, error) {
	if id == "" || newStatus == "" {
		return nil, lifecycle.MissingParams("architecture_id", "new_status")
	}
	if !lifecycle.ValidArchitectureStatus(newStatus) {
		return nil, &lifecycle.ValidationError{Message: fmt.Sprintf("invalid architecture status %q", newStatus)}
	}

	err := s.withTx(func(tx *sql.Tx) error {
		var current string
		err := tx.QueryRow("SELECT status FROM architecture WHERE id = ?", id).Scan(&current)
		if err == sql.ErrNoRows {
			return &lifecycle.NotFoundError{Kind: lifecycle.KindArchitecture, ID: id}
		}
		if err != nil {
			return fmt.Errorf("store: read architecture status: %w", err)
		}

		if _, err := tx.Exec(
			"UPDATE architecture SET status = ?, updated_at = ? WHERE id = ?",
			newStatus, nowUTC(), id); err != nil {
			return fmt.Errorf("store: update architecture status: %w", err)
		}

		logEvent(tx, "architecture", id, "status_changed", current, newStatus, "")
		if comment != "" {
			addReview(tx, "architecture", id, "MCP User", comment)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetArchitecture(id)
}

// AddArchitectureReview appends a review comment to an architecture document.
func (s *Store) AddArchitectureReview(id, reviewer, comment string) error {
	if id == "" || comment == "" {
		return lifecycle.MissingParams("architecture_id", "comment")
	}
	if reviewer == "" {
		reviewer = "MCP User"
	}
	return s.withTx(func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRow("SELECT 1 FROM architecture WHERE id = ?", id).Scan(&exists)
		if err == sql.ErrNoRows {
			return &lifecycle.NotFoundError{Kind: lifecycle.KindArchitecture, ID: id}
		}
		if err != nil {
			return fmt.Errorf("store: read architecture: %w", err)
		}
		addReview(tx, "architecture", id, reviewer, comment)
		logEvent(tx, "architecture", id, "reviewed", "", "", reviewer)
		return nil
	})
}

// ─── Read ────────────────────────────────────────────────────────────────────

// GetArchitecture returns a single architecture document by ID.
func (s *Store) GetArchitecture(id string) (*Architecture, error) {
	row := s.db.QueryRow("SELECT "+architectureColumns+" FROM architecture WHERE id = ?", id)
	a, err := scanArchitecture(row)
	if err == sql.ErrNoRows {
		return nil, &lifecycle.NotFoundError{Kind: lifecycle.KindArchitecture, ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("store: get architecture: %w", err)
	}
	return &a, nil
}

// QueryArchitectureDecisions returns architecture documents matching
// the filter, ordered by identifier.
func (s *Store) QueryArchitectureDecisions(f QueryArchitectureFilter) ([]Architecture, error) {
	q := newFilter()
	q.eq("status", f.Status)
	q.eq("type", f.Type)
	if f.RequirementID != "" {
		q.raw("id IN (SELECT architecture_id FROM requirement_architecture WHERE requirement_id = ?)", f.RequirementID)
	}

	rows, err := s.db.Query(
		"SELECT "+architectureColumns+" FROM architecture"+q.where()+" ORDER BY id", q.args...)
	if err != nil {
		return nil, fmt.Errorf("store: query architecture: %w", err)
	}
	defer rows.Close()

	var decisions []Architecture
	for rows.Next() {
		a, err := scanArchitecture(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan architecture: %w", err)
		}
		decisions = append(decisions, a)
	}
	return decisions, rows.Err()
}

// ArchitectureDetails is an architecture document with its linked
// requirements, review trail, and audit log.
type ArchitectureDetails struct {
	Architecture
	Requirements []LinkedEntity   `json:"requirements,omitempty"`
	Reviews      []Review         `json:"reviews,omitempty"`
	Events       []LifecycleEvent `json:"events,omitempty"`
}

// GetArchitectureDetails returns the document with linked requirements,
// reviews, and the lifecycle audit log.
func (s *Store) GetArchitectureDetails(id string) (*ArchitectureDetails, error) {
	arch, err := s.GetArchitecture(id)
	if err != nil {
		return nil, err
	}
	d := &ArchitectureDetails{Architecture: *arch}

	d.Requirements, err = s.linkedEntities(`
		SELECT r.id, r.title, r.status
		FROM requirements r JOIN requirement_architecture ra ON r.id = ra.requirement_id
		WHERE ra.architecture_id = ? ORDER BY r.id`, id)
	if err != nil {
		return nil, err
	}

	d.Reviews, err = s.ListReviews("architecture", id)
	if err != nil {
		return nil, err
	}

	d.Events, err = s.ListEvents("architecture", id)
	if err != nil {
		return nil, err
	}
	return d, nil
}
