// Package export renders project documentation as markdown files and
// builds mermaid diagram strings for requirements, tasks, and
// architecture decisions.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/heffrey78/lifecycle-mcp-sub000/internal/store"
)

var timeNow = time.Now

// Exporter reads from the store and writes markdown artifacts.
type Exporter struct {
	store *store.Store
}

// New creates an exporter over a store.
func New(st *store.Store) *Exporter {
	return &Exporter{store: st}
}

// DocumentationOptions selects which documents ProjectDocumentation
// writes and where.
type DocumentationOptions struct {
	ProjectName         string `json:"project_name"`
	OutputDir           string `json:"output_directory"`
	IncludeRequirements bool   `json:"include_requirements"`
	IncludeTasks        bool   `json:"include_tasks"`
	IncludeArchitecture bool   `json:"include_architecture"`
}

// ProjectDocumentation writes one markdown file per selected section
// and returns the filenames written. Sections with no data are
// skipped rather than written empty.
func (e *Exporter) ProjectDocumentation(opts DocumentationOptions) ([]string, error) {
	if opts.ProjectName == "" {
		opts.ProjectName = "project"
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("export: create output directory: %w", err)
	}

	var files []string
	write := func(suffix, content string) error {
		if content == "" {
			return nil
		}
		name := fmt.Sprintf("%s-%s.md", opts.ProjectName, suffix)
		if err := os.WriteFile(filepath.Join(opts.OutputDir, name), []byte(content), 0o644); err != nil {
			return fmt.Errorf("export: write %s: %w", name, err)
		}
		files = append(files, name)
		return nil
	}

	if opts.IncludeRequirements {
		content, err := e.RequirementsMarkdown(opts.ProjectName)
		if err != nil {
			return nil, err
		}
		if err := write("requirements", content); err != nil {
			return nil, err
		}
	}
	if opts.IncludeTasks {
		content, err := e.TasksMarkdown(opts.ProjectName)
		if err != nil {
			return nil, err
		}
		if err := write("tasks", content); err != nil {
			return nil, err
		}
	}
	if opts.IncludeArchitecture {
		content, err := e.ArchitectureMarkdown(opts.ProjectName)
		if err != nil {
			return nil, err
		}
		if err := write("architecture", content); err != nil {
			return nil, err
		}
	}
	return files, nil
}

func header(projectName, section string) string {
	return fmt.Sprintf("# %s - %s\n\nGenerated on: %s\n\n",
		projectName, section, timeNow().Format("2006-01-02 15:04:05"))
}

func bulletList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "**%s**:\n", heading)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

// RequirementsMarkdown renders every requirement grouped by type,
// with a summary table up front. Returns "" when there are none.
func (e *Exporter) RequirementsMarkdown(projectName string) (string, error) {
	reqs, err := e.store.QueryRequirements(store.QueryRequirementsFilter{})
	if err != nil {
		return "", err
	}
	if len(reqs) == 0 {
		return "", nil
	}

	var b strings.Builder
	b.WriteString(header(projectName, "Requirements Documentation"))

	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"ID", "Title", "Status", "Priority", "Tasks"})
	for _, r := range reqs {
		tw.AppendRow(table.Row{r.ID, r.Title, r.Status, r.Priority,
			fmt.Sprintf("%d/%d", r.TasksCompleted, r.TaskCount)})
	}
	b.WriteString(tw.RenderMarkdown())
	b.WriteString("\n\n")

	byType := map[string][]store.Requirement{}
	var typeOrder []string
	for _, r := range reqs {
		if _, ok := byType[r.Type]; !ok {
			typeOrder = append(typeOrder, r.Type)
		}
		byType[r.Type] = append(byType[r.Type], r)
	}

	for _, reqType := range typeOrder {
		fmt.Fprintf(&b, "## %s Requirements\n\n", reqType)
		for _, r := range byType[reqType] {
			fmt.Fprintf(&b, "### %s: %s\n\n", r.ID, r.Title)
			fmt.Fprintf(&b, "- **Status**: %s\n", r.Status)
			fmt.Fprintf(&b, "- **Priority**: %s\n", r.Priority)
			fmt.Fprintf(&b, "- **Risk Level**: %s\n", r.RiskLevel)
			fmt.Fprintf(&b, "- **Author**: %s\n", r.Author)
			fmt.Fprintf(&b, "- **Created**: %s\n", r.CreatedAt)
			fmt.Fprintf(&b, "- **Updated**: %s\n\n", r.UpdatedAt)
			fmt.Fprintf(&b, "**Current State**: %s\n\n", r.CurrentState)
			fmt.Fprintf(&b, "**Desired State**: %s\n\n", r.DesiredState)
			if r.BusinessValue != "" {
				fmt.Fprintf(&b, "**Business Value**: %s\n\n", r.BusinessValue)
			}
			bulletList(&b, "Functional Requirements", r.FunctionalRequirements)
			bulletList(&b, "Acceptance Criteria", r.AcceptanceCriteria)
			b.WriteString("---\n\n")
		}
	}
	return b.String(), nil
}

// TasksMarkdown renders every task grouped by status with linked
// requirements. Returns "" when there are none.
func (e *Exporter) TasksMarkdown(projectName string) (string, error) {
	tasks, err := e.store.QueryTasks(store.QueryTasksFilter{})
	if err != nil {
		return "", err
	}
	if len(tasks) == 0 {
		return "", nil
	}

	var b strings.Builder
	b.WriteString(header(projectName, "Tasks Documentation"))

	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"ID", "Title", "Status", "Priority", "Assignee"})
	for _, t := range tasks {
		tw.AppendRow(table.Row{t.ID, t.Title, t.Status, t.Priority, orText(t.Assignee, "Unassigned")})
	}
	b.WriteString(tw.RenderMarkdown())
	b.WriteString("\n\n")

	byStatus := map[string][]store.Task{}
	var statusOrder []string
	for _, t := range tasks {
		if _, ok := byStatus[t.Status]; !ok {
			statusOrder = append(statusOrder, t.Status)
		}
		byStatus[t.Status] = append(byStatus[t.Status], t)
	}

	for _, status := range statusOrder {
		fmt.Fprintf(&b, "## %s Tasks\n\n", status)
		for _, t := range byStatus[status] {
			fmt.Fprintf(&b, "### %s: %s\n\n", t.ID, t.Title)
			fmt.Fprintf(&b, "- **Status**: %s\n", t.Status)
			fmt.Fprintf(&b, "- **Priority**: %s\n", t.Priority)
			fmt.Fprintf(&b, "- **Effort**: %s\n", orText(t.Effort, "Not specified"))
			fmt.Fprintf(&b, "- **Assignee**: %s\n", orText(t.Assignee, "Unassigned"))
			fmt.Fprintf(&b, "- **Created**: %s\n", t.CreatedAt)
			fmt.Fprintf(&b, "- **Updated**: %s\n\n", t.UpdatedAt)
			if t.UserStory != "" {
				fmt.Fprintf(&b, "**User Story**: %s\n\n", t.UserStory)
			}
			bulletList(&b, "Acceptance Criteria", t.AcceptanceCriteria)

			details, err := e.store.GetTaskDetails(t.ID)
			if err != nil {
				return "", err
			}
			if len(details.Requirements) > 0 {
				b.WriteString("**Linked Requirements**:\n")
				for _, req := range details.Requirements {
					fmt.Fprintf(&b, "- %s: %s\n", req.ID, req.Title)
				}
				b.WriteString("\n")
			}
			b.WriteString("---\n\n")
		}
	}
	return b.String(), nil
}

// ArchitectureMarkdown renders every architecture decision with its
// linked requirements. Returns "" when there are none.
func (e *Exporter) ArchitectureMarkdown(projectName string) (string, error) {
	decisions, err := e.store.QueryArchitectureDecisions(store.QueryArchitectureFilter{})
	if err != nil {
		return "", err
	}
	if len(decisions) == 0 {
		return "", nil
	}

	var b strings.Builder
	b.WriteString(header(projectName, "Architecture Documentation"))

	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"ID", "Title", "Status"})
	for _, a := range decisions {
		tw.AppendRow(table.Row{a.ID, a.Title, a.Status})
	}
	b.WriteString(tw.RenderMarkdown())
	b.WriteString("\n\n")

	for _, a := range decisions {
		fmt.Fprintf(&b, "## %s: %s\n\n", a.ID, a.Title)
		fmt.Fprintf(&b, "- **Type**: %s\n", a.Type)
		fmt.Fprintf(&b, "- **Status**: %s\n", a.Status)
		fmt.Fprintf(&b, "- **Created**: %s\n", a.CreatedAt)
		fmt.Fprintf(&b, "- **Updated**: %s\n\n", a.UpdatedAt)
		if len(a.Authors) > 0 {
			fmt.Fprintf(&b, "- **Authors**: %s\n\n", strings.Join(a.Authors, ", "))
		}
		fmt.Fprintf(&b, "### Context\n%s\n\n", a.Context)
		fmt.Fprintf(&b, "### Decision\n%s\n\n", a.DecisionOutcome)
		if len(a.DecisionDrivers) > 0 {
			b.WriteString("### Decision Drivers\n")
			for _, d := range a.DecisionDrivers {
				fmt.Fprintf(&b, "- %s\n", d)
			}
			b.WriteString("\n")
		}
		if len(a.ConsideredOptions) > 0 {
			b.WriteString("### Considered Options\n")
			for _, o := range a.ConsideredOptions {
				fmt.Fprintf(&b, "- %s\n", o)
			}
			b.WriteString("\n")
		}
		if len(a.Consequences) > 0 {
			b.WriteString("### Consequences\n")
			for _, key := range sortedKeys(a.Consequences) {
				fmt.Fprintf(&b, "**%s**: %v\n", titleCase(key), a.Consequences[key])
			}
			b.WriteString("\n")
		}

		details, err := e.store.GetArchitectureDetails(a.ID)
		if err != nil {
			return "", err
		}
		if len(details.Requirements) > 0 {
			b.WriteString("### Linked Requirements\n")
			for _, req := range details.Requirements {
				fmt.Fprintf(&b, "- %s: %s\n", req.ID, req.Title)
			}
			b.WriteString("\n")
		}
		b.WriteString("---\n\n")
	}
	return b.String(), nil
}

func orText(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
