package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/heffrey78/lifecycle-mcp-sub000/internal/interview"
	"github.com/heffrey78/lifecycle-mcp-sub000/internal/store"
)

func formatQuestions(sessionID string, questions []interview.Question) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\n\n", sessionID)
	for _, q := range questions {
		fmt.Fprintf(&b, "- %s: %s\n", q.Key, q.Prompt)
	}
	b.WriteString("\nAnswer with the continue tool, passing answers keyed by question key.")
	return b.String()
}

// answersArg extracts a string-to-string answers object.
func answersArg(req mcp.CallToolRequest, key string) map[string]string {
	raw := objectArg(req, key)
	if raw == nil {
		return nil
	}
	answers := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			answers[k] = s
		}
	}
	return answers
}

// splitLines turns a newline-separated answer into list items.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// ─── StartRequirementInterviewTool ───────────────────────────────────────────

// StartRequirementInterviewTool handles the
// start_requirement_interview MCP tool.
type StartRequirementInterviewTool struct {
	sessions *interview.Store
}

// NewStartRequirementInterviewTool creates the tool.
func NewStartRequirementInterviewTool(sessions *interview.Store) *StartRequirementInterviewTool {
	return &StartRequirementInterviewTool{sessions: sessions}
}

// Definition returns the MCP tool definition for registration.
func (t *StartRequirementInterviewTool) Definition() mcp.Tool {
	return mcp.NewTool("start_requirement_interview",
		mcp.WithDescription(
			"Start a guided interview that gathers a requirement step by step. "+
				"Returns a session ID and the first round of questions; completing "+
				"the interview creates the requirement.",
		),
		mcp.WithString("project_context",
			mcp.Description("Background about the project or feature area"),
		),
		mcp.WithString("stakeholder_role",
			mcp.Description("Role of the person being interviewed"),
		),
	)
}

// Handle processes the start_requirement_interview tool call.
func (t *StartRequirementInterviewTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	session, questions := t.sessions.Start(interview.KindRequirement, map[string]string{
		"project_context":  req.GetString("project_context", ""),
		"stakeholder_role": req.GetString("stakeholder_role", ""),
	})
	return mcp.NewToolResultText(formatQuestions(session.ID, questions)), nil
}

// ─── ContinueRequirementInterviewTool ────────────────────────────────────────

// ContinueRequirementInterviewTool handles the
// continue_requirement_interview MCP tool. The final round creates
// the requirement from the gathered answers.
type ContinueRequirementInterviewTool struct {
	sessions *interview.Store
	store    *store.Store
}

// NewContinueRequirementInterviewTool creates the tool.
func NewContinueRequirementInterviewTool(sessions *interview.Store, st *store.Store) *ContinueRequirementInterviewTool {
	return &ContinueRequirementInterviewTool{sessions: sessions, store: st}
}

// Definition returns the MCP tool definition for registration.
func (t *ContinueRequirementInterviewTool) Definition() mcp.Tool {
	return mcp.NewTool("continue_requirement_interview",
		mcp.WithDescription("Answer the current round of interview questions. Completing the interview creates the requirement."),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Interview session ID"),
		),
		mcp.WithObject("answers",
			mcp.Required(),
			mcp.Description("Answers keyed by question key"),
		),
	)
}

// Handle processes the continue_requirement_interview tool call.
func (t *ContinueRequirementInterviewTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := req.GetString("session_id", "")
	if sessionID == "" {
		return mcp.NewToolResultError("'session_id' is required"), nil
	}

	outcome, err := t.sessions.Continue(sessionID, answersArg(req, "answers"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !outcome.Complete {
		return mcp.NewToolResultText(formatQuestions(sessionID, outcome.Questions)), nil
	}

	answers := outcome.Answers
	created, err := t.store.CreateRequirement(store.CreateRequirementParams{
		Type:                   orDefault(answers["type"], "FUNC"),
		Title:                  orDefault(answers["title"], "Requirement from Interview"),
		Priority:               orDefault(answers["priority"], "P2"),
		CurrentState:           orDefault(answers["current_state"], "Current state not specified"),
		DesiredState:           orDefault(answers["desired_state"], "Desired state not specified"),
		BusinessValue:          answers["business_value"],
		FunctionalRequirements: splitLines(answers["functional_requirements"]),
		AcceptanceCriteria:     splitLines(answers["acceptance_criteria"]),
		RiskLevel:              answers["risk_level"],
		Author:                 "Interview Session " + sessionID,
	})
	if err != nil {
		if domainError(err) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return nil, err
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Interview %s complete. Created requirement %s: %s", sessionID, created.ID, created.Title)), nil
}

// ─── StartArchitecturalConversationTool ──────────────────────────────────────

// StartArchitecturalConversationTool handles the
// start_architectural_conversation MCP tool.
type StartArchitecturalConversationTool struct {
	sessions *interview.Store
}

// NewStartArchitecturalConversationTool creates the tool.
func NewStartArchitecturalConversationTool(sessions *interview.Store) *StartArchitecturalConversationTool {
	return &StartArchitecturalConversationTool{sessions: sessions}
}

// Definition returns the MCP tool definition for registration.
func (t *StartArchitecturalConversationTool) Definition() mcp.Tool {
	return mcp.NewTool("start_architectural_conversation",
		mcp.WithDescription(
			"Start a guided conversation that gathers an architecture decision. "+
				"Provide requirement_ids to have the completed conversation recorded "+
				"as an ADR addressing those requirements.",
		),
		mcp.WithString("project_context",
			mcp.Description("Background about the system under discussion"),
		),
		stringList("requirement_ids",
			mcp.Description("Requirements the eventual decision addresses"),
		),
	)
}

// Handle processes the start_architectural_conversation tool call.
func (t *StartArchitecturalConversationTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	session, questions := t.sessions.Start(interview.KindArchitecture, map[string]string{
		"project_context": req.GetString("project_context", ""),
		"requirement_ids": strings.Join(stringListArg(req, "requirement_ids"), ","),
	})
	return mcp.NewToolResultText(formatQuestions(session.ID, questions)), nil
}

// ─── ContinueArchitecturalConversationTool ───────────────────────────────────

// ContinueArchitecturalConversationTool handles the
// continue_architectural_conversation MCP tool.
type ContinueArchitecturalConversationTool struct {
	sessions *interview.Store
	store    *store.Store
}

// NewContinueArchitecturalConversationTool creates the tool.
func NewContinueArchitecturalConversationTool(sessions *interview.Store, st *store.Store) *ContinueArchitecturalConversationTool {
	return &ContinueArchitecturalConversationTool{sessions: sessions, store: st}
}

// Definition returns the MCP tool definition for registration.
func (t *ContinueArchitecturalConversationTool) Definition() mcp.Tool {
	return mcp.NewTool("continue_architectural_conversation",
		mcp.WithDescription(
			"Answer the current round of the architectural conversation. When "+
				"requirements were attached at the start, completion records the "+
				"decision as an ADR; otherwise the gathered decision is returned "+
				"as a draft.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Conversation session ID"),
		),
		mcp.WithObject("responses",
			mcp.Required(),
			mcp.Description("Responses keyed by question key"),
		),
	)
}

// Handle processes the continue_architectural_conversation tool call.
func (t *ContinueArchitecturalConversationTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := req.GetString("session_id", "")
	if sessionID == "" {
		return mcp.NewToolResultError("'session_id' is required"), nil
	}

	session, ok := t.sessions.Get(sessionID)
	if !ok {
		return mcp.NewToolResultError((&interview.ErrSessionNotFound{ID: sessionID}).Error()), nil
	}
	requirementIDs := splitComma(session.Context["requirement_ids"])

	outcome, err := t.sessions.Continue(sessionID, answersArg(req, "responses"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !outcome.Complete {
		return mcp.NewToolResultText(formatQuestions(sessionID, outcome.Questions)), nil
	}

	answers := outcome.Answers
	if len(requirementIDs) == 0 {
		var b strings.Builder
		fmt.Fprintf(&b, "Conversation %s complete. Draft decision:\n\n", sessionID)
		fmt.Fprintf(&b, "Title: %s\n", answers["title"])
		fmt.Fprintf(&b, "Context: %s\n", answers["context"])
		fmt.Fprintf(&b, "Decision: %s\n", answers["decision"])
		b.WriteString("\nNo requirements were attached; use create_architecture_decision to record it.")
		return mcp.NewToolResultText(b.String()), nil
	}

	created, err := t.store.CreateArchitectureDecision(store.CreateArchitectureParams{
		RequirementIDs:    requirementIDs,
		Title:             orDefault(answers["title"], "Decision from Conversation"),
		Context:           orDefault(answers["context"], "Context not specified"),
		Decision:          orDefault(answers["decision"], "Decision not specified"),
		DecisionDrivers:   splitLines(answers["decision_drivers"]),
		ConsideredOptions: splitLines(answers["considered_options"]),
		Consequences:      consequencesObject(answers["consequences"]),
		Authors:           []string{"Conversation Session " + sessionID},
	})
	if err != nil {
		if domainError(err) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return nil, err
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Conversation %s complete. Created %s: %s", sessionID, created.ID, created.Title)), nil
}

func splitComma(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func consequencesObject(s string) map[string]any {
	if s == "" {
		return nil
	}
	return map[string]any{"summary": s}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
