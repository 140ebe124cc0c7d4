package store

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/heffrey78/lifecycle-mcp-sub000/internal/lifecycle"
)

// ─── Types ───────────────────────────────────────────────────────────────────

// Relationship is one stored edge, enriched with endpoint titles for
// display. Edges always read in canonical direction.
type Relationship struct {
	SourceID    string `json:"source_id"`
	SourceType  string `json:"source_type"`
	SourceTitle string `json:"source_title"`
	TargetID    string `json:"target_id"`
	TargetType  string `json:"target_type"`
	TargetTitle string `json:"target_title"`
	Type        string `json:"type"`
}

// DirectedRelationship is a relationship viewed from one entity's
// perspective.
type DirectedRelationship struct {
	Relationship
	Direction string `json:"direction"` // "outgoing" or "incoming"
}

// ─── Create ──────────────────────────────────────────────────────────────────

// CreateRelationship validates, normalizes, and stores an edge between
// two entities. Both endpoints must exist; the (source, target, type)
// triple must not already be stored.
func (s *Store) CreateRelationship(sourceID, targetID, relType string) (*Relationship, error) {
	if sourceID == "" || targetID == "" || relType == "" {
		return nil, lifecycle.MissingParams("source_id", "target_id", "relationship_type")
	}

	source, err := lifecycle.ParseEntityID(sourceID)
	if err != nil {
		return nil, err
	}
	target, err := lifecycle.ParseEntityID(targetID)
	if err != nil {
		return nil, err
	}
	link, err := lifecycle.ResolveLink(source, target, relType)
	if err != nil {
		return nil, err
	}

	err = s.withTx(func(tx *sql.Tx) error {
		for _, ref := range []lifecycle.EntityRef{link.Source, link.Target} {
			if err := entityExists(tx, ref); err != nil {
				return err
			}
		}

		exists, err := linkExists(tx, link)
		if err != nil {
			return err
		}
		if exists {
			return &lifecycle.AlreadyExistsError{
				SourceID: link.Source.ID, TargetID: link.Target.ID, Type: link.Type,
			}
		}

		if err := insertLink(tx, link); err != nil {
			return err
		}
		logEvent(tx, "relationship", link.Source.ID+"-"+link.Target.ID, "created", "", link.Type, "")
		return nil
	})
	if err != nil {
		return nil, err
	}

	rels, err := s.relationshipsForPair(link.Source.ID, link.Target.ID, link.Type)
	if err != nil {
		return nil, err
	}
	if len(rels) == 0 {
		return nil, fmt.Errorf("store: relationship not found after insert")
	}
	return &rels[0], nil
}

func entityExists(tx *sql.Tx, ref lifecycle.EntityRef) error {
	table := map[lifecycle.EntityKind]string{
		lifecycle.KindRequirement:  "requirements",
		lifecycle.KindTask:         "tasks",
		lifecycle.KindArchitecture: "architecture",
	}[ref.Kind]

	var one int
	err := tx.QueryRow("SELECT 1 FROM "+table+" WHERE id = ?", ref.ID).Scan(&one)
	if err == sql.ErrNoRows {
		return &lifecycle.NotFoundError{Kind: ref.Kind, ID: ref.ID}
	}
	if err != nil {
		return fmt.Errorf("store: entity lookup: %w", err)
	}
	return nil
}

func linkExists(tx *sql.Tx, link lifecycle.Link) (bool, error) {
	var query string
	var args []any
	switch {
	case link.Source.Kind == lifecycle.KindRequirement && link.Target.Kind == lifecycle.KindTask:
		query = "SELECT 1 FROM requirement_tasks WHERE requirement_id = ? AND task_id = ?"
		args = []any{link.Source.ID, link.Target.ID}
	case link.Source.Kind == lifecycle.KindRequirement && link.Target.Kind == lifecycle.KindArchitecture:
		query = "SELECT 1 FROM requirement_architecture WHERE requirement_id = ? AND architecture_id = ? AND relationship_type = ?"
		args = []any{link.Source.ID, link.Target.ID, link.Type}
	case link.Source.Kind == lifecycle.KindTask:
		query = "SELECT 1 FROM task_dependencies WHERE task_id = ? AND depends_on_task_id = ? AND dependency_type = ?"
		args = []any{link.Source.ID, link.Target.ID, link.Type}
	default:
		query = "SELECT 1 FROM requirement_dependencies WHERE requirement_id = ? AND depends_on_requirement_id = ? AND dependency_type = ?"
		args = []any{link.Source.ID, link.Target.ID, link.Type}
	}

	var one int
	err := tx.QueryRow(query, args...).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: relationship lookup: %w", err)
	}
	return true, nil
}

func insertLink(tx *sql.Tx, link lifecycle.Link) error {
	var err error
	switch {
	case link.Source.Kind == lifecycle.KindRequirement && link.Target.Kind == lifecycle.KindTask:
		_, err = tx.Exec(
			"INSERT INTO requirement_tasks (requirement_id, task_id) VALUES (?, ?)",
			link.Source.ID, link.Target.ID)
		if err == nil {
			err = refreshTaskCounts(tx, []string{link.Source.ID})
		}
	case link.Source.Kind == lifecycle.KindRequirement && link.Target.Kind == lifecycle.KindArchitecture:
		_, err = tx.Exec(
			"INSERT INTO requirement_architecture (requirement_id, architecture_id, relationship_type) VALUES (?, ?, ?)",
			link.Source.ID, link.Target.ID, link.Type)
	case link.Source.Kind == lifecycle.KindTask:
		_, err = tx.Exec(
			"INSERT INTO task_dependencies (task_id, depends_on_task_id, dependency_type) VALUES (?, ?, ?)",
			link.Source.ID, link.Target.ID, link.Type)
	default:
		_, err = tx.Exec(
			"INSERT INTO requirement_dependencies (requirement_id, depends_on_requirement_id, dependency_type) VALUES (?, ?, ?)",
			link.Source.ID, link.Target.ID, link.Type)
	}
	if err != nil {
		return fmt.Errorf("store: insert relationship: %w", err)
	}
	return nil
}

// ─── Delete ──────────────────────────────────────────────────────────────────

// DeleteRelationship removes the edges between two entities in either
// orientation. With relType set, only edges of that type go; without
// it, every edge for the pair goes. Returns how many rows were deleted.
func (s *Store) DeleteRelationship(sourceID, targetID, relType string) (int, error) {
	if sourceID == "" || targetID == "" {
		return 0, lifecycle.MissingParams("source_id", "target_id")
	}
	source, err := lifecycle.ParseEntityID(sourceID)
	if err != nil {
		return 0, err
	}
	target, err := lifecycle.ParseEntityID(targetID)
	if err != nil {
		return 0, err
	}

	var deleted int64
	err = s.withTx(func(tx *sql.Tx) error {
		kinds := map[lifecycle.EntityKind]bool{source.Kind: true, target.Kind: true}
		a, b := source.ID, target.ID

		del := func(query string, args ...any) error {
			res, err := tx.Exec(query, args...)
			if err != nil {
				return fmt.Errorf("store: delete relationship: %w", err)
			}
			n, _ := res.RowsAffected()
			deleted += n
			return nil
		}

		if kinds[lifecycle.KindRequirement] && kinds[lifecycle.KindTask] {
			if relType == "" || relType == lifecycle.RelImplements {
				if err := del(`
					DELETE FROM requirement_tasks
					WHERE (requirement_id = ? AND task_id = ?) OR (requirement_id = ? AND task_id = ?)`,
					a, b, b, a); err != nil {
					return err
				}
				reqID := a
				if source.Kind == lifecycle.KindTask {
					reqID = b
				}
				if err := refreshTaskCounts(tx, []string{reqID}); err != nil {
					return err
				}
			}
		}
		if kinds[lifecycle.KindRequirement] && kinds[lifecycle.KindArchitecture] {
			q := `DELETE FROM requirement_architecture
				WHERE ((requirement_id = ? AND architecture_id = ?) OR (requirement_id = ? AND architecture_id = ?))`
			args := []any{a, b, b, a}
			if relType != "" {
				q += " AND relationship_type = ?"
				args = append(args, relType)
			}
			if err := del(q, args...); err != nil {
				return err
			}
		}
		if source.Kind == lifecycle.KindTask && target.Kind == lifecycle.KindTask {
			q := `DELETE FROM task_dependencies
				WHERE ((task_id = ? AND depends_on_task_id = ?) OR (task_id = ? AND depends_on_task_id = ?))`
			args := []any{a, b, b, a}
			if relType != "" {
				q += " AND dependency_type = ?"
				args = append(args, relType)
			}
			if err := del(q, args...); err != nil {
				return err
			}
		}
		if source.Kind == lifecycle.KindRequirement && target.Kind == lifecycle.KindRequirement {
			q := `DELETE FROM requirement_dependencies
				WHERE ((requirement_id = ? AND depends_on_requirement_id = ?) OR (requirement_id = ? AND depends_on_requirement_id = ?))`
			args := []any{a, b, b, a}
			if relType != "" {
				q += " AND dependency_type = ?"
				args = append(args, relType)
			}
			if err := del(q, args...); err != nil {
				return err
			}
		}

		if deleted > 0 {
			logEvent(tx, "relationship", a+"-"+b, "deleted", "", relType, "")
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(deleted), nil
}

// ─── Query ───────────────────────────────────────────────────────────────────

// allRelationshipsQuery reads every edge across the four join tables in
// canonical direction, with endpoint titles.
const allRelationshipsQuery = `
	SELECT rt.requirement_id, 'requirement', r.title, rt.task_id, 'task', t.title, 'implements'
	FROM requirement_tasks rt
	JOIN requirements r ON r.id = rt.requirement_id
	JOIN tasks t ON t.id = rt.task_id
	UNION ALL
	SELECT ra.requirement_id, 'requirement', r.title, ra.architecture_id, 'architecture', a.title, ra.relationship_type
	FROM requirement_architecture ra
	JOIN requirements r ON r.id = ra.requirement_id
	JOIN architecture a ON a.id = ra.architecture_id
	UNION ALL
	SELECT td.task_id, 'task', t1.title, td.depends_on_task_id, 'task', t2.title, td.dependency_type
	FROM task_dependencies td
	JOIN tasks t1 ON t1.id = td.task_id
	JOIN tasks t2 ON t2.id = td.depends_on_task_id
	UNION ALL
	SELECT rd.requirement_id, 'requirement', r1.title, rd.depends_on_requirement_id, 'requirement', r2.title, rd.dependency_type
	FROM requirement_dependencies rd
	JOIN requirements r1 ON r1.id = rd.requirement_id
	JOIN requirements r2 ON r2.id = rd.depends_on_requirement_id`

// AllRelationships returns every stored edge.
func (s *Store) AllRelationships() ([]Relationship, error) {
	rows, err := s.db.Query(allRelationshipsQuery)
	if err != nil {
		return nil, fmt.Errorf("store: all relationships: %w", err)
	}
	defer rows.Close()

	var rels []Relationship
	for rows.Next() {
		var r Relationship
		if err := rows.Scan(&r.SourceID, &r.SourceType, &r.SourceTitle,
			&r.TargetID, &r.TargetType, &r.TargetTitle, &r.Type); err != nil {
			return nil, fmt.Errorf("store: scan relationship: %w", err)
		}
		rels = append(rels, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(rels, func(i, j int) bool {
		if rels[i].SourceID != rels[j].SourceID {
			return rels[i].SourceID < rels[j].SourceID
		}
		if rels[i].TargetID != rels[j].TargetID {
			return rels[i].TargetID < rels[j].TargetID
		}
		return rels[i].Type < rels[j].Type
	})
	return rels, nil
}

// QueryRelationships returns the edges touching entityID, optionally
// filtered by relationship type and direction.
func (s *Store) QueryRelationships(entityID, relType string, includeIncoming, includeOutgoing bool) ([]Relationship, error) {
	all, err := s.AllRelationships()
	if err != nil {
		return nil, err
	}

	var rels []Relationship
	for _, r := range all {
		if relType != "" && r.Type != relType {
			continue
		}
		if entityID != "" {
			outgoing := r.SourceID == entityID && includeOutgoing
			incoming := r.TargetID == entityID && includeIncoming
			if !outgoing && !incoming {
				continue
			}
		}
		rels = append(rels, r)
	}
	return rels, nil
}

func (s *Store) relationshipsForPair(sourceID, targetID, relType string) ([]Relationship, error) {
	all, err := s.AllRelationships()
	if err != nil {
		return nil, err
	}
	var rels []Relationship
	for _, r := range all {
		if r.SourceID == sourceID && r.TargetID == targetID && r.Type == relType {
			rels = append(rels, r)
		}
	}
	return rels, nil
}

// EntityRelationships is every edge touching one entity, grouped by
// relationship type with directions resolved.
type EntityRelationships struct {
	EntityID string                            `json:"entity_id"`
	Total    int                               `json:"total"`
	ByType   map[string][]DirectedRelationship `json:"by_type"`
}

// GetEntityRelationships groups an entity's edges by type, tagging each
// with its direction relative to the entity.
func (s *Store) GetEntityRelationships(entityID string) (*EntityRelationships, error) {
	if entityID == "" {
		return nil, lifecycle.MissingParams("entity_id")
	}
	if _, err := lifecycle.ParseEntityID(entityID); err != nil {
		return nil, err
	}

	all, err := s.AllRelationships()
	if err != nil {
		return nil, err
	}

	result := &EntityRelationships{EntityID: entityID, ByType: map[string][]DirectedRelationship{}}
	for _, r := range all {
		switch entityID {
		case r.SourceID:
			result.ByType[r.Type] = append(result.ByType[r.Type], DirectedRelationship{Relationship: r, Direction: "outgoing"})
			result.Total++
		case r.TargetID:
			result.ByType[r.Type] = append(result.ByType[r.Type], DirectedRelationship{Relationship: r, Direction: "incoming"})
			result.Total++
		}
	}
	return result, nil
}

// GraphNode is one vertex of the relationship graph.
type GraphNode struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title"`
}

// GraphEdge is one edge of the relationship graph.
type GraphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
}

// RelationshipGraph is the node/edge form used for visualization.
type RelationshipGraph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// QueryAllRelationships builds the relationship graph, keeping only
// edges whose endpoints are both in entityTypes. An empty set means
// every type.
func (s *Store) QueryAllRelationships(entityTypes []string) (*RelationshipGraph, error) {
	include := map[string]bool{}
	for _, t := range entityTypes {
		include[t] = true
	}
	all, err := s.AllRelationships()
	if err != nil {
		return nil, err
	}

	graph := &RelationshipGraph{}
	seen := map[string]bool{}
	for _, r := range all {
		if len(include) > 0 && (!include[r.SourceType] || !include[r.TargetType]) {
			continue
		}
		for _, n := range []GraphNode{
			{ID: r.SourceID, Type: r.SourceType, Title: r.SourceTitle},
			{ID: r.TargetID, Type: r.TargetType, Title: r.TargetTitle},
		} {
			if !seen[n.ID] {
				seen[n.ID] = true
				graph.Nodes = append(graph.Nodes, n)
			}
		}
		graph.Edges = append(graph.Edges, GraphEdge{Source: r.SourceID, Target: r.TargetID, Type: r.Type})
	}
	return graph, nil
}
