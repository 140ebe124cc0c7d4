package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/heffrey78/lifecycle-mcp-sub000/internal/export"
)

// ─── ExportProjectDocumentationTool ──────────────────────────────────────────

// ExportProjectDocumentationTool handles the
// export_project_documentation MCP tool.
type ExportProjectDocumentationTool struct {
	exporter *export.Exporter
}

// NewExportProjectDocumentationTool creates the tool.
func NewExportProjectDocumentationTool(exporter *export.Exporter) *ExportProjectDocumentationTool {
	return &ExportProjectDocumentationTool{exporter: exporter}
}

// Definition returns the MCP tool definition for registration.
func (t *ExportProjectDocumentationTool) Definition() mcp.Tool {
	return mcp.NewTool("export_project_documentation",
		mcp.WithDescription("Export project documentation (requirements, tasks, architecture) as markdown files."),
		mcp.WithString("project_name",
			mcp.Description("Name used in exported filenames (default: project)"),
		),
		mcp.WithString("output_directory",
			mcp.Description("Directory for the exported files (default: current directory)"),
		),
		mcp.WithBoolean("include_requirements",
			mcp.Description("Export the requirements document (default true)"),
		),
		mcp.WithBoolean("include_tasks",
			mcp.Description("Export the tasks document (default true)"),
		),
		mcp.WithBoolean("include_architecture",
			mcp.Description("Export the architecture document (default true)"),
		),
	)
}

// Handle processes the export_project_documentation tool call.
func (t *ExportProjectDocumentationTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	files, err := t.exporter.ProjectDocumentation(export.DocumentationOptions{
		ProjectName:         req.GetString("project_name", "project"),
		OutputDir:           req.GetString("output_directory", "."),
		IncludeRequirements: boolArg(req, "include_requirements", true),
		IncludeTasks:        boolArg(req, "include_tasks", true),
		IncludeArchitecture: boolArg(req, "include_architecture", true),
	})
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return mcp.NewToolResultText("No data found to export."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Exported %d file(s):\n", len(files))
	for _, f := range files {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ─── CreateArchitecturalDiagramsTool ─────────────────────────────────────────

// CreateArchitecturalDiagramsTool handles the
// create_architectural_diagrams MCP tool.
type CreateArchitecturalDiagramsTool struct {
	exporter *export.Exporter
}

// NewCreateArchitecturalDiagramsTool creates the tool.
func NewCreateArchitecturalDiagramsTool(exporter *export.Exporter) *CreateArchitecturalDiagramsTool {
	return &CreateArchitecturalDiagramsTool{exporter: exporter}
}

// Definition returns the MCP tool definition for registration.
func (t *CreateArchitecturalDiagramsTool) Definition() mcp.Tool {
	return mcp.NewTool("create_architectural_diagrams",
		mcp.WithDescription("Generate a mermaid diagram of the project, optionally saved to a file."),
		mcp.WithString("diagram_type",
			mcp.Description("Diagram type: requirements, tasks, architecture, full_project (default), dependencies"),
		),
		stringList("requirement_ids",
			mcp.Description("Restrict the diagram to these requirements"),
		),
		mcp.WithBoolean("include_relationships",
			mcp.Description("Draw relationship edges (default true)"),
		),
		mcp.WithString("output_format",
			mcp.Description("mermaid (default) or markdown_with_mermaid"),
		),
		mcp.WithString("output_path",
			mcp.Description("Directory to save the diagram file; empty to skip saving"),
		),
	)
}

// Handle processes the create_architectural_diagrams tool call.
func (t *CreateArchitecturalDiagramsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	diagramType := export.DiagramType(req.GetString("diagram_type", string(export.DiagramFullProject)))
	if !export.ValidDiagramType(diagramType) {
		return mcp.NewToolResultError(fmt.Sprintf("invalid diagram type %q", diagramType)), nil
	}

	outputFormat := req.GetString("output_format", "mermaid")
	if outputFormat != "mermaid" && outputFormat != "markdown_with_mermaid" {
		return mcp.NewToolResultError(fmt.Sprintf("invalid output format %q", outputFormat)), nil
	}

	content, err := t.exporter.Diagram(diagramType,
		stringListArg(req, "requirement_ids"),
		boolArg(req, "include_relationships", true))
	if err != nil {
		return nil, err
	}
	if content == "" {
		return mcp.NewToolResultText(fmt.Sprintf("No data found for %s diagram.", diagramType)), nil
	}

	markdown := outputFormat == "markdown_with_mermaid"
	if markdown {
		content = export.WrapMermaid(content)
	}

	if outputPath := req.GetString("output_path", ""); outputPath != "" {
		if strings.Contains(outputPath, "..") {
			return mcp.NewToolResultError("invalid output path"), nil
		}
		if err := os.MkdirAll(outputPath, 0o755); err != nil {
			return nil, fmt.Errorf("tools: create diagram directory: %w", err)
		}
		file := filepath.Join(outputPath, export.DiagramFilename(diagramType, markdown))
		if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
			return nil, fmt.Errorf("tools: write diagram: %w", err)
		}
		return mcp.NewToolResultText(fmt.Sprintf("Diagram saved to %s\n\n%s", file, content)), nil
	}
	return mcp.NewToolResultText(content), nil
}
