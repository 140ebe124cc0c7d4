// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it opens the database, decides which
// optional subsystems (decomposition advisor, GitHub mirror) are
// available, and injects them into the tools. No business logic lives
// here — only wiring.
package server

import (
	"context"
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/heffrey78/lifecycle-mcp-sub000/internal/advisor"
	"github.com/heffrey78/lifecycle-mcp-sub000/internal/config"
	"github.com/heffrey78/lifecycle-mcp-sub000/internal/export"
	"github.com/heffrey78/lifecycle-mcp-sub000/internal/githubsync"
	"github.com/heffrey78/lifecycle-mcp-sub000/internal/interview"
	"github.com/heffrey78/lifecycle-mcp-sub000/internal/store"
	"github.com/heffrey78/lifecycle-mcp-sub000/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// tool is the shape every MCP tool in this server follows.
type tool interface {
	Definition() mcp.Tool
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// register adds each tool's definition and handler to the server.
func register(s *server.MCPServer, ts ...tool) {
	for _, t := range ts {
		s.AddTool(t.Definition(), t.Handle)
	}
}

// New creates and configures the MCP server with every lifecycle tool
// registered. This is the single place where all dependencies are
// resolved.
//
// The returned cleanup function closes the database connection and
// must be called on shutdown (typically via defer). It is always
// non-nil and safe to call.
func New(cfg *config.Config) (*server.MCPServer, func(), error) {
	// --- Create shared dependencies ---

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return nil, noop, fmt.Errorf("opening database: %w", err)
	}
	cleanup := func() {
		if err := st.Close(); err != nil {
			log.Printf("WARNING: database close: %v", err)
		}
	}

	adv := newAdvisor(cfg)
	syncer := newSyncer(cfg, st)
	exporter := export.New(st)
	sessions := interview.NewStore(0)

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"lifecycle-mcp",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register requirement tools ---

	register(s,
		tools.NewCreateRequirementTool(st, adv),
		tools.NewUpdateRequirementStatusTool(st),
		tools.NewQueryRequirementsTool(st),
		tools.NewGetRequirementDetailsTool(st),
		tools.NewTraceRequirementTool(st),
	)

	// --- Register task tools ---
	//
	// The GitHub-specific tools are registered even when the mirror is
	// disabled; they answer with a clear error instead of vanishing
	// from the tool list.

	register(s,
		tools.NewCreateTaskTool(st, syncer),
		tools.NewUpdateTaskStatusTool(st, syncer),
		tools.NewQueryTasksTool(st),
		tools.NewGetTaskDetailsTool(st),
		tools.NewSyncTaskFromGitHubTool(syncer),
		tools.NewBulkSyncGitHubTasksTool(syncer),
	)

	// --- Register architecture tools ---

	register(s,
		tools.NewCreateArchitectureDecisionTool(st),
		tools.NewUpdateArchitectureStatusTool(st),
		tools.NewAddArchitectureReviewTool(st),
		tools.NewQueryArchitectureDecisionsTool(st),
		tools.NewGetArchitectureDetailsTool(st),
	)

	// --- Register relationship tools ---

	register(s,
		tools.NewCreateRelationshipTool(st),
		tools.NewDeleteRelationshipTool(st),
		tools.NewQueryRelationshipsTool(st),
		tools.NewGetEntityRelationshipsTool(st),
		tools.NewQueryAllRelationshipsTool(st),
	)

	// --- Register status, export, and interview tools ---

	register(s,
		tools.NewGetProjectStatusTool(st),
		tools.NewGetProjectMetricsTool(st),
		tools.NewExportProjectDocumentationTool(exporter),
		tools.NewCreateArchitecturalDiagramsTool(exporter),
		tools.NewStartRequirementInterviewTool(sessions),
		tools.NewContinueRequirementInterviewTool(sessions, st),
		tools.NewStartArchitecturalConversationTool(sessions),
		tools.NewContinueArchitecturalConversationTool(sessions, st),
	)

	return s, cleanup, nil
}

// newAdvisor builds the decomposition advisor. Without an API key the
// advisor runs with a nil client, which means every analysis falls
// back to single-requirement creation.
func newAdvisor(cfg *config.Config) *advisor.Advisor {
	if cfg.OpenAIAPIKey == "" {
		log.Printf("WARNING: decomposition analysis disabled: OPENAI_API_KEY not set")
		return advisor.New(nil)
	}
	return advisor.New(advisor.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel))
}

// newSyncer builds the GitHub issue mirror, or returns nil when the
// integration is disabled or misconfigured. Tools treat a nil syncer
// as "integration off".
func newSyncer(cfg *config.Config, st *store.Store) *githubsync.Syncer {
	if !cfg.GitHubEnabled {
		return nil
	}
	if problems := cfg.ValidateGitHub(); len(problems) > 0 {
		for _, p := range problems {
			log.Printf("WARNING: GitHub integration disabled: %s", p)
		}
		return nil
	}
	client := githubsync.NewClient(cfg.GitHubRepo)
	if !client.Available(context.Background()) {
		log.Printf("WARNING: GitHub integration disabled: gh CLI unavailable or not authenticated")
		return nil
	}
	return githubsync.NewSyncer(st, client)
}

// noop is the cleanup returned when setup fails before the database
// is open.
func noop() {}

// serverInstructions returns the system instructions that tell the AI
// how to drive the lifecycle tools.
func serverInstructions() string {
	return `You have access to lifecycle-mcp, a requirements and project
lifecycle management server. It tracks requirements, implementation
tasks, and architecture decisions in a shared database and enforces
the lifecycle rules between them.

## Core model
- Requirements capture WHAT must change: current state, desired state,
  business value, acceptance criteria. IDs look like REQ-0001-FUNC-00.
- Tasks capture HOW a requirement gets implemented. IDs look like
  TASK-0001-00-00; subtasks take the parent's number with a subtask
  suffix.
- Architecture decisions (ADR-0001) record choices addressing one or
  more requirements.

## Lifecycle rules the server enforces
- Requirements move Draft -> Under Review -> Approved -> Architecture ->
  Ready -> Implemented -> Validated, with Deprecated reachable from any
  state. Invalid jumps are rejected.
- A requirement cannot reach Validated while it has incomplete tasks.
- Tasks can only be created for requirements that are Approved or
  further along.
- Relationships are typed and validated: requirements implement tasks,
  architecture addresses requirements, tasks depend on / block /
  inform / require other tasks.

## Typical workflows
- New work: create_requirement (or start_requirement_interview for a
  guided intake), move it through review with
  update_requirement_status, then create_task for the implementation.
- Complex requirements are decomposed automatically on creation when
  the analysis subsystem is enabled; otherwise they are created as a
  single requirement.
- Record decisions with create_architecture_decision or through
  start_architectural_conversation.
- Inspect state with query_* and get_*_details tools,
  trace_requirement for end-to-end traceability, and
  get_project_status / get_project_metrics for rollups.
- Produce documents with export_project_documentation and diagrams
  with create_architectural_diagrams.

## Important rules
- Always pass real content, never placeholders.
- Check get_requirement_details before forcing status changes; the
  blocking tasks are listed there.
- When GitHub integration is enabled, tasks mirror to issues
  automatically; use sync_task_from_github / bulk_sync_github_tasks to
  pull remote changes back.`
}
