package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/heffrey78/lifecycle-mcp-sub000/internal/interview"
	"github.com/heffrey78/lifecycle-mcp-sub000/internal/store"
)

// sessionIDFromText reads the session ID out of a question listing.
func sessionIDFromText(t *testing.T, text string) string {
	t.Helper()
	line, _, _ := strings.Cut(text, "\n")
	id := strings.TrimPrefix(line, "Session: ")
	if id == line || id == "" {
		t.Fatalf("no session ID in: %s", text)
	}
	return id
}

func TestStartRequirementInterviewTool(t *testing.T) {
	sessions := interview.NewStore(0)
	tool := NewStartRequirementInterviewTool(sessions)

	result, err := tool.Handle(context.Background(), makeReq(map[string]any{
		"project_context":  "A search feature",
		"stakeholder_role": "Product owner",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	text := getResultText(result)
	if !strings.Contains(text, "Session: ") {
		t.Fatalf("expected a session ID, got: %s", text)
	}
	for _, key := range []string{"title", "type", "priority"} {
		if !strings.Contains(text, "- "+key+":") {
			t.Errorf("first round should ask for %q, got: %s", key, text)
		}
	}
}

func TestContinueRequirementInterviewToolToCompletion(t *testing.T) {
	st := newToolStore(t)
	sessions := interview.NewStore(0)
	start := NewStartRequirementInterviewTool(sessions)
	cont := NewContinueRequirementInterviewTool(sessions, st)

	result, err := start.Handle(context.Background(), makeReq(nil))
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	id := sessionIDFromText(t, getResultText(result))

	rounds := []map[string]any{
		{"title": "Fast product search", "type": "FUNC", "priority": "P1"},
		{
			"current_state":  "Search scans every row.",
			"desired_state":  "Search answers from an index.",
			"business_value": "Retains users who search.",
		},
		{
			"functional_requirements": "Index on write\nQuery the index",
			"acceptance_criteria":     "p95 under 100ms",
			"risk_level":              "Medium",
		},
	}
	var text string
	for i, answers := range rounds {
		result, err = cont.Handle(context.Background(), makeReq(map[string]any{
			"session_id": id,
			"answers":    answers,
		}))
		if err != nil {
			t.Fatalf("continue round %d failed: %v", i+1, err)
		}
		if isErrorResult(result) {
			t.Fatalf("continue round %d errored: %s", i+1, getResultText(result))
		}
		text = getResultText(result)
	}

	if !strings.Contains(text, "complete") || !strings.Contains(text, "REQ-0001-FUNC-00") {
		t.Fatalf("expected a created requirement, got: %s", text)
	}
	req, err := st.GetRequirement("REQ-0001-FUNC-00")
	if err != nil {
		t.Fatalf("get requirement: %v", err)
	}
	if req.Title != "Fast product search" || req.Priority != "P1" {
		t.Errorf("unexpected requirement: %s / %s", req.Title, req.Priority)
	}
	if req.Author != "Interview Session "+id {
		t.Errorf("unexpected author: %q", req.Author)
	}
	if len(req.FunctionalRequirements) != 2 {
		t.Errorf("list answers should split on newlines, got: %v", req.FunctionalRequirements)
	}
}

func TestContinueRequirementInterviewToolDefaults(t *testing.T) {
	st := newToolStore(t)
	sessions := interview.NewStore(0)
	start := NewStartRequirementInterviewTool(sessions)
	cont := NewContinueRequirementInterviewTool(sessions, st)

	result, err := start.Handle(context.Background(), makeReq(nil))
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	id := sessionIDFromText(t, getResultText(result))

	var text string
	for i := 0; i < 3; i++ {
		result, err = cont.Handle(context.Background(), makeReq(map[string]any{
			"session_id": id,
			"answers":    map[string]any{},
		}))
		if err != nil {
			t.Fatalf("continue round %d failed: %v", i+1, err)
		}
		text = getResultText(result)
	}
	if !strings.Contains(text, "Requirement from Interview") {
		t.Fatalf("expected the default title, got: %s", text)
	}

	reqs, err := st.QueryRequirements(store.QueryRequirementsFilter{})
	if err != nil {
		t.Fatalf("query requirements: %v", err)
	}
	if len(reqs) != 1 {
		t.Fatalf("expected one requirement, got %d", len(reqs))
	}
	if reqs[0].Type != "FUNC" || reqs[0].Priority != "P2" {
		t.Errorf("unexpected defaults: %s / %s", reqs[0].Type, reqs[0].Priority)
	}
	if reqs[0].CurrentState != "Current state not specified" {
		t.Errorf("unexpected current state: %q", reqs[0].CurrentState)
	}
}

func TestContinueRequirementInterviewToolUnknownSession(t *testing.T) {
	st := newToolStore(t)
	cont := NewContinueRequirementInterviewTool(interview.NewStore(0), st)

	result, err := cont.Handle(context.Background(), makeReq(map[string]any{
		"session_id": "deadbeef",
		"answers":    map[string]any{},
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected a tool error for an unknown session")
	}
}

func architecturalAnswers() []map[string]any {
	return []map[string]any{
		{"title": "Pick a message broker", "context": "Events must fan out to workers."},
		{"decision_drivers": "Operational simplicity", "considered_options": "NATS\nKafka"},
		{"decision": "Use NATS.", "consequences": "Simple ops, at-most-once by default."},
	}
}

func TestContinueArchitecturalConversationToolCreatesDecision(t *testing.T) {
	st := newToolStore(t)
	req := newRequirement(t, st)
	sessions := interview.NewStore(0)
	start := NewStartArchitecturalConversationTool(sessions)
	cont := NewContinueArchitecturalConversationTool(sessions, st)

	result, err := start.Handle(context.Background(), makeReq(map[string]any{
		"requirement_ids": []any{req.ID},
	}))
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	id := sessionIDFromText(t, getResultText(result))

	var text string
	for i, responses := range architecturalAnswers() {
		result, err = cont.Handle(context.Background(), makeReq(map[string]any{
			"session_id": id,
			"responses":  responses,
		}))
		if err != nil {
			t.Fatalf("continue round %d failed: %v", i+1, err)
		}
		if isErrorResult(result) {
			t.Fatalf("continue round %d errored: %s", i+1, getResultText(result))
		}
		text = getResultText(result)
	}

	if !strings.Contains(text, "ADR-0001") {
		t.Fatalf("expected a created decision, got: %s", text)
	}
	adr, err := st.GetArchitecture("ADR-0001")
	if err != nil {
		t.Fatalf("get architecture: %v", err)
	}
	if adr.Title != "Pick a message broker" {
		t.Errorf("unexpected title: %q", adr.Title)
	}
	if len(adr.Authors) != 1 || adr.Authors[0] != "Conversation Session "+id {
		t.Errorf("unexpected authors: %v", adr.Authors)
	}
	if adr.Consequences["summary"] != "Simple ops, at-most-once by default." {
		t.Errorf("unexpected consequences: %v", adr.Consequences)
	}

	details, err := st.GetArchitectureDetails(adr.ID)
	if err != nil {
		t.Fatalf("get details: %v", err)
	}
	if len(details.Requirements) != 1 || details.Requirements[0].ID != req.ID {
		t.Errorf("decision should address the attached requirement, got: %v", details.Requirements)
	}
}

func TestContinueArchitecturalConversationToolDraft(t *testing.T) {
	st := newToolStore(t)
	sessions := interview.NewStore(0)
	start := NewStartArchitecturalConversationTool(sessions)
	cont := NewContinueArchitecturalConversationTool(sessions, st)

	result, err := start.Handle(context.Background(), makeReq(nil))
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	id := sessionIDFromText(t, getResultText(result))

	var text string
	for i, responses := range architecturalAnswers() {
		result, err = cont.Handle(context.Background(), makeReq(map[string]any{
			"session_id": id,
			"responses":  responses,
		}))
		if err != nil {
			t.Fatalf("continue round %d failed: %v", i+1, err)
		}
		text = getResultText(result)
	}

	if !strings.Contains(text, "Draft decision:") {
		t.Fatalf("expected a draft, got: %s", text)
	}
	if !strings.Contains(text, "create_architecture_decision") {
		t.Errorf("draft should point at the recording tool, got: %s", text)
	}

	decisions, err := st.QueryArchitectureDecisions(store.QueryArchitectureFilter{})
	if err != nil {
		t.Fatalf("query decisions: %v", err)
	}
	if len(decisions) != 0 {
		t.Errorf("no decision should be recorded without requirements, got %d", len(decisions))
	}
}
