package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/heffrey78/lifecycle-mcp-sub000/internal/export"
	"github.com/heffrey78/lifecycle-mcp-sub000/internal/store"
)

func TestExportProjectDocumentationTool(t *testing.T) {
	st := newToolStore(t)
	newRequirement(t, st)
	tool := NewExportProjectDocumentationTool(export.New(st))
	dir := t.TempDir()

	result, err := tool.Handle(context.Background(), makeReq(map[string]any{
		"project_name":     "demo",
		"output_directory": dir,
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	text := getResultText(result)
	if !strings.Contains(text, "demo-requirements.md") {
		t.Errorf("expected requirements file in listing, got: %s", text)
	}
	if _, err := os.Stat(filepath.Join(dir, "demo-requirements.md")); err != nil {
		t.Errorf("requirements file not written: %v", err)
	}
}

func TestExportProjectDocumentationToolEmpty(t *testing.T) {
	st := newToolStore(t)
	tool := NewExportProjectDocumentationTool(export.New(st))

	result, err := tool.Handle(context.Background(), makeReq(map[string]any{
		"output_directory": t.TempDir(),
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if got := getResultText(result); got != "No data found to export." {
		t.Errorf("unexpected empty-store text: %s", got)
	}
}

func TestCreateArchitecturalDiagramsTool(t *testing.T) {
	st := newToolStore(t)
	req := newRequirement(t, st)
	tool := NewCreateArchitecturalDiagramsTool(export.New(st))

	result, err := tool.Handle(context.Background(), makeReq(map[string]any{
		"diagram_type": "requirements",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	text := getResultText(result)
	if !strings.Contains(text, "flowchart TD") {
		t.Errorf("expected mermaid output, got: %s", text)
	}
	if !strings.Contains(text, strings.ReplaceAll(req.ID, "-", "_")) {
		t.Errorf("expected requirement node, got: %s", text)
	}
	if strings.Contains(text, "```") {
		t.Errorf("plain mermaid output should not be fenced, got: %s", text)
	}
}

func TestCreateArchitecturalDiagramsToolMarkdownFormat(t *testing.T) {
	st := newToolStore(t)
	newRequirement(t, st)
	tool := NewCreateArchitecturalDiagramsTool(export.New(st))

	result, err := tool.Handle(context.Background(), makeReq(map[string]any{
		"diagram_type":  "requirements",
		"output_format": "markdown_with_mermaid",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !strings.Contains(getResultText(result), "```mermaid") {
		t.Errorf("expected fenced mermaid block, got: %s", getResultText(result))
	}
}

func TestCreateArchitecturalDiagramsToolValidation(t *testing.T) {
	st := newToolStore(t)
	tool := NewCreateArchitecturalDiagramsTool(export.New(st))

	result, err := tool.Handle(context.Background(), makeReq(map[string]any{
		"diagram_type": "directory_structure",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Error("expected a tool error for an unknown diagram type")
	}

	result, err = tool.Handle(context.Background(), makeReq(map[string]any{
		"output_format": "html",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Error("expected a tool error for an unknown output format")
	}

	result, err = tool.Handle(context.Background(), makeReq(map[string]any{
		"output_path": "../outside",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) || getResultText(result) != "invalid output path" {
		t.Errorf("expected path rejection, got: %s", getResultText(result))
	}
}

func TestCreateArchitecturalDiagramsToolSavesFile(t *testing.T) {
	st := newToolStore(t)
	req := approvedRequirement(t, st)
	if _, err := st.CreateTask(store.CreateTaskParams{
		RequirementIDs: []string{req.ID},
		Title:          "Diagrammed",
		Priority:       "P1",
	}); err != nil {
		t.Fatalf("create task: %v", err)
	}
	tool := NewCreateArchitecturalDiagramsTool(export.New(st))
	dir := t.TempDir()

	result, err := tool.Handle(context.Background(), makeReq(map[string]any{
		"output_path": dir,
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	text := getResultText(result)
	if !strings.Contains(text, "Diagram saved to ") {
		t.Fatalf("expected save confirmation, got: %s", text)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one saved diagram, got %d entries", len(entries))
	}
	name := entries[0].Name()
	if !strings.HasPrefix(name, "full-project-diagram-") || !strings.HasSuffix(name, ".mmd") {
		t.Errorf("unexpected diagram filename: %s", name)
	}
}
