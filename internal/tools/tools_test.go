package tools

import (
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/heffrey78/lifecycle-mcp-sub000/internal/lifecycle"
	"github.com/heffrey78/lifecycle-mcp-sub000/internal/store"
)

// --- Test helpers ---

func newToolStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "lifecycle.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// makeReq builds a CallToolRequest with the given arguments.
func makeReq(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// isErrorResult checks if the result is a tool error.
func isErrorResult(result *mcp.CallToolResult) bool {
	return result != nil && result.IsError
}

// getResultText extracts the text content from a CallToolResult.
func getResultText(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// newRequirement creates a Draft requirement directly in the store.
func newRequirement(t *testing.T, st *store.Store) *store.Requirement {
	t.Helper()
	req, err := st.CreateRequirement(store.CreateRequirementParams{
		Type: "FUNC", Title: "Test requirement", Priority: "P1",
		CurrentState: "nothing", DesiredState: "something",
	})
	if err != nil {
		t.Fatalf("create requirement: %v", err)
	}
	return req
}

// approvedRequirement creates a requirement and walks it to Approved.
func approvedRequirement(t *testing.T, st *store.Store) *store.Requirement {
	t.Helper()
	req := newRequirement(t, st)
	for _, status := range []string{lifecycle.ReqUnderReview, lifecycle.ReqApproved} {
		if _, err := st.UpdateRequirementStatus(req.ID, status, ""); err != nil {
			t.Fatalf("advance requirement to %s: %v", status, err)
		}
	}
	req, err := st.GetRequirement(req.ID)
	if err != nil {
		t.Fatalf("reload requirement: %v", err)
	}
	return req
}

// newArchitectureDecision creates a Proposed decision linked to a
// fresh requirement.
func newArchitectureDecision(t *testing.T, st *store.Store) *store.Architecture {
	t.Helper()
	req := newRequirement(t, st)
	adr, err := st.CreateArchitectureDecision(store.CreateArchitectureParams{
		RequirementIDs: []string{req.ID},
		Title:          "Embed the datastore",
		Context:        "The server should run without external services.",
		Decision:       "Use an embedded database file.",
	})
	if err != nil {
		t.Fatalf("create architecture decision: %v", err)
	}
	return adr
}

// storeTaskParams builds minimal task creation params.
func storeTaskParams(reqID, title string) store.CreateTaskParams {
	return store.CreateTaskParams{
		RequirementIDs: []string{reqID},
		Title:          title,
		Priority:       "P1",
	}
}

// --- Argument helpers ---

func TestStringListArg(t *testing.T) {
	req := makeReq(map[string]any{
		"ids":   []any{"a", "b", 3.0, "c"},
		"other": "not a list",
	})
	got := stringListArg(req, "ids")
	if len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Errorf("stringListArg = %v, want [a b c]", got)
	}
	if stringListArg(req, "other") != nil {
		t.Error("non-list argument should yield nil")
	}
	if stringListArg(req, "missing") != nil {
		t.Error("missing argument should yield nil")
	}
}

func TestBoolArg(t *testing.T) {
	req := makeReq(map[string]any{"b": true})
	if !boolArg(req, "b", false) {
		t.Error("boolArg should read true")
	}
	if !boolArg(req, "missing", true) {
		t.Error("boolArg should fall back to default")
	}
}
