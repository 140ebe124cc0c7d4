package export

import (
	"fmt"
	"strings"

	"github.com/heffrey78/lifecycle-mcp-sub000/internal/store"
)

// DiagramType selects what a diagram shows.
type DiagramType string

const (
	DiagramRequirements DiagramType = "requirements"
	DiagramTasks        DiagramType = "tasks"
	DiagramArchitecture DiagramType = "architecture"
	DiagramFullProject  DiagramType = "full_project"
	DiagramDependencies DiagramType = "dependencies"
)

// DiagramTypes returns the valid diagram types in display order.
func DiagramTypes() []DiagramType {
	return []DiagramType{
		DiagramRequirements, DiagramTasks, DiagramArchitecture,
		DiagramFullProject, DiagramDependencies,
	}
}

// ValidDiagramType reports whether t names a known diagram.
func ValidDiagramType(t DiagramType) bool {
	for _, known := range DiagramTypes() {
		if t == known {
			return true
		}
	}
	return false
}

var requirementStatusFill = map[string]string{
	"Draft":        "fill:#ff9999",
	"Under Review": "fill:#ffcc99",
	"Approved":     "fill:#99ccff",
	"Ready":        "fill:#99ff99",
	"Implemented":  "fill:#ccffcc",
	"Validated":    "fill:#99ff99",
	"Deprecated":   "fill:#cccccc",
}

var taskStatusFill = map[string]string{
	"Not Started": "fill:#ff9999",
	"In Progress": "fill:#ffcc99",
	"Blocked":     "fill:#ff6666",
	"Complete":    "fill:#99ff99",
	"Abandoned":   "fill:#cccccc",
}

var architectureStatusFill = map[string]string{
	"Proposed":   "fill:#ffcc99",
	"Accepted":   "fill:#99ff99",
	"Rejected":   "fill:#ff9999",
	"Deprecated": "fill:#cccccc",
	"Superseded": "fill:#cccccc",
}

// Diagram builds the mermaid source for one diagram type, optionally
// scoped to specific requirements. Returns "" when there is no data
// to draw.
func (e *Exporter) Diagram(typ DiagramType, requirementIDs []string, includeRelationships bool) (string, error) {
	switch typ {
	case DiagramRequirements:
		return e.requirementsDiagram(requirementIDs)
	case DiagramTasks:
		return e.tasksDiagram(requirementIDs)
	case DiagramArchitecture:
		return e.architectureDiagram(requirementIDs)
	case DiagramFullProject:
		return e.fullProjectDiagram(requirementIDs, includeRelationships)
	case DiagramDependencies:
		return e.dependenciesDiagram(requirementIDs)
	default:
		return "", fmt.Errorf("export: invalid diagram type %q", typ)
	}
}

// WrapMermaid fences mermaid source for embedding in markdown.
func WrapMermaid(content string) string {
	return "```mermaid\n" + content + "\n```"
}

// DiagramFilename builds a timestamped filename for a diagram; .mmd
// for raw mermaid, .md when fenced for markdown.
func DiagramFilename(typ DiagramType, markdown bool) string {
	ext := ".mmd"
	if markdown {
		ext = ".md"
	}
	name := strings.ReplaceAll(string(typ), "_", "-")
	return fmt.Sprintf("%s-diagram-%s%s", name, timeNow().Format("2006-01-02-150405"), ext)
}

// nodeID turns an entity ID into a mermaid-safe node identifier.
func nodeID(id string) string {
	return strings.ReplaceAll(id, "-", "_")
}

func shortTitle(title string, max int) string {
	if len(title) > max {
		return title[:max] + "..."
	}
	return title
}

func fill(m map[string]string, status string) string {
	if f, ok := m[status]; ok {
		return f
	}
	return "fill:#ffffff"
}

func (e *Exporter) scopedRequirements(ids []string) ([]store.Requirement, error) {
	reqs, err := e.store.QueryRequirements(store.QueryRequirementsFilter{})
	if err != nil {
		return nil, err
	}
	return filterByID(reqs, ids, func(r store.Requirement) string { return r.ID }), nil
}

// scopedTasks returns all tasks, or only those linked to the given
// requirements when ids is non-empty.
func (e *Exporter) scopedTasks(ids []string) ([]store.Task, error) {
	if len(ids) == 0 {
		return e.store.QueryTasks(store.QueryTasksFilter{})
	}
	seen := map[string]bool{}
	var tasks []store.Task
	for _, id := range ids {
		linked, err := e.store.QueryTasks(store.QueryTasksFilter{RequirementID: id})
		if err != nil {
			return nil, err
		}
		for _, t := range linked {
			if !seen[t.ID] {
				seen[t.ID] = true
				tasks = append(tasks, t)
			}
		}
	}
	return tasks, nil
}

func (e *Exporter) scopedArchitecture(ids []string) ([]store.Architecture, error) {
	if len(ids) == 0 {
		return e.store.QueryArchitectureDecisions(store.QueryArchitectureFilter{})
	}
	seen := map[string]bool{}
	var decisions []store.Architecture
	for _, id := range ids {
		linked, err := e.store.QueryArchitectureDecisions(store.QueryArchitectureFilter{RequirementID: id})
		if err != nil {
			return nil, err
		}
		for _, a := range linked {
			if !seen[a.ID] {
				seen[a.ID] = true
				decisions = append(decisions, a)
			}
		}
	}
	return decisions, nil
}

func filterByID[T any](items []T, ids []string, id func(T) string) []T {
	if len(ids) == 0 {
		return items
	}
	want := map[string]bool{}
	for _, v := range ids {
		want[v] = true
	}
	var out []T
	for _, item := range items {
		if want[id(item)] {
			out = append(out, item)
		}
	}
	return out
}

func (e *Exporter) requirementsDiagram(ids []string) (string, error) {
	reqs, err := e.scopedRequirements(ids)
	if err != nil {
		return "", err
	}
	if len(reqs) == 0 {
		return "", nil
	}

	var b strings.Builder
	b.WriteString("flowchart TD\n")

	var typeOrder []string
	seenType := map[string]bool{}
	for _, r := range reqs {
		if !seenType[r.Type] {
			seenType[r.Type] = true
			typeOrder = append(typeOrder, r.Type)
		}
	}
	for _, t := range typeOrder {
		fmt.Fprintf(&b, "    %s[%s Requirements]\n", t, t)
	}
	for _, r := range reqs {
		node := nodeID(r.ID)
		fmt.Fprintf(&b, "    %s[\"%s<br/>%s\"]\n", node, r.ID, shortTitle(r.Title, 30))
		fmt.Fprintf(&b, "    %s --> %s\n", r.Type, node)
		fmt.Fprintf(&b, "    style %s %s\n", node, fill(requirementStatusFill, r.Status))
	}
	return b.String(), nil
}

func (e *Exporter) tasksDiagram(ids []string) (string, error) {
	tasks, err := e.scopedTasks(ids)
	if err != nil {
		return "", err
	}
	if len(tasks) == 0 {
		return "", nil
	}

	var b strings.Builder
	b.WriteString("flowchart TD\n")
	for _, t := range tasks {
		node := nodeID(t.ID)
		fmt.Fprintf(&b, "    %s[\"%s<br/>%s\"]\n", node, t.ID, shortTitle(t.Title, 30))
		fmt.Fprintf(&b, "    style %s %s\n", node, fill(taskStatusFill, t.Status))
		if t.ParentTaskID != "" {
			fmt.Fprintf(&b, "    %s --> %s\n", nodeID(t.ParentTaskID), node)
		}
	}
	return b.String(), nil
}

func (e *Exporter) architectureDiagram(ids []string) (string, error) {
	decisions, err := e.scopedArchitecture(ids)
	if err != nil {
		return "", err
	}
	if len(decisions) == 0 {
		return "", nil
	}

	var b strings.Builder
	b.WriteString("flowchart TD\n")
	for _, a := range decisions {
		node := nodeID(a.ID)
		fmt.Fprintf(&b, "    %s[\"%s<br/>%s\"]\n", node, a.ID, shortTitle(a.Title, 30))
		fmt.Fprintf(&b, "    style %s %s\n", node, fill(architectureStatusFill, a.Status))
	}
	return b.String(), nil
}

func (e *Exporter) fullProjectDiagram(ids []string, includeRelationships bool) (string, error) {
	reqs, err := e.scopedRequirements(ids)
	if err != nil {
		return "", err
	}
	tasks, err := e.scopedTasks(ids)
	if err != nil {
		return "", err
	}
	decisions, err := e.scopedArchitecture(ids)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("flowchart TD\n")
	b.WriteString("    Requirements[Requirements]\n")
	b.WriteString("    Tasks[Tasks]\n")
	b.WriteString("    Architecture[Architecture]\n")

	drawn := map[string]bool{}
	for _, r := range capSlice(reqs, 10) {
		node := nodeID(r.ID)
		drawn[r.ID] = true
		fmt.Fprintf(&b, "    %s[\"%s<br/>%s\"]\n", node, r.ID, shortTitle(r.Title, 20))
		fmt.Fprintf(&b, "    Requirements --> %s\n", node)
	}
	for _, t := range capSlice(tasks, 10) {
		node := nodeID(t.ID)
		drawn[t.ID] = true
		fmt.Fprintf(&b, "    %s[\"%s<br/>%s\"]\n", node, t.ID, shortTitle(t.Title, 20))
		fmt.Fprintf(&b, "    Tasks --> %s\n", node)
	}
	for _, a := range capSlice(decisions, 5) {
		node := nodeID(a.ID)
		drawn[a.ID] = true
		fmt.Fprintf(&b, "    %s[\"%s<br/>%s\"]\n", node, a.ID, shortTitle(a.Title, 20))
		fmt.Fprintf(&b, "    Architecture --> %s\n", node)
	}

	if includeRelationships {
		rels, err := e.store.AllRelationships()
		if err != nil {
			return "", err
		}
		for _, rel := range rels {
			if rel.Type != "implements" {
				continue
			}
			if !drawn[rel.SourceID] || !drawn[rel.TargetID] {
				continue
			}
			fmt.Fprintf(&b, "    %s -.-> %s\n", nodeID(rel.SourceID), nodeID(rel.TargetID))
		}
	}
	return b.String(), nil
}

func (e *Exporter) dependenciesDiagram(ids []string) (string, error) {
	rels, err := e.store.AllRelationships()
	if err != nil {
		return "", err
	}

	inScope := map[string]bool{}
	if len(ids) > 0 {
		tasks, err := e.scopedTasks(ids)
		if err != nil {
			return "", err
		}
		for _, t := range tasks {
			inScope[t.ID] = true
		}
	}

	var b strings.Builder
	b.WriteString("flowchart TD\n")
	edges := 0
	for _, rel := range rels {
		if rel.SourceType != "task" || rel.TargetType != "task" {
			continue
		}
		if len(ids) > 0 && !inScope[rel.SourceID] && !inScope[rel.TargetID] {
			continue
		}
		// Dependency edges point from prerequisite to dependent.
		fmt.Fprintf(&b, "    %s --> %s\n", nodeID(rel.TargetID), nodeID(rel.SourceID))
		edges++
	}
	if edges == 0 {
		return "flowchart TD\n    NoDeps[No task dependencies found]\n", nil
	}
	return b.String(), nil
}

func capSlice[T any](items []T, max int) []T {
	if len(items) > max {
		return items[:max]
	}
	return items
}
