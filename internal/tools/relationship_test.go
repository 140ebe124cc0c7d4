package tools

import (
	"context"
	"strings"
	"testing"
)

func TestCreateRelationshipTool(t *testing.T) {
	st := newToolStore(t)
	req := approvedRequirement(t, st)
	task, err := st.CreateTask(storeTaskParams(req.ID, "Linked work"))
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	other, err := st.CreateTask(storeTaskParams(req.ID, "Other work"))
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	tool := NewCreateRelationshipTool(st)

	result, err := tool.Handle(context.Background(), makeReq(map[string]any{
		"source_id": task.ID, "target_id": other.ID, "relationship_type": "depends",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}
	if !strings.Contains(getResultText(result), "depends") {
		t.Errorf("result should describe the link, got: %s", getResultText(result))
	}

	// Duplicate is a domain error.
	result, err = tool.Handle(context.Background(), makeReq(map[string]any{
		"source_id": task.ID, "target_id": other.ID, "relationship_type": "depends",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("duplicate relationship should produce a tool error")
	}
}

func TestCreateRelationshipTool_InvalidCombination(t *testing.T) {
	st := newToolStore(t)
	req := approvedRequirement(t, st)
	task, err := st.CreateTask(storeTaskParams(req.ID, "Work"))
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	tool := NewCreateRelationshipTool(st)

	// task -> requirement only allows implements.
	result, err := tool.Handle(context.Background(), makeReq(map[string]any{
		"source_id": task.ID, "target_id": req.ID, "relationship_type": "refines",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("disallowed combination should produce a tool error")
	}

	result, err = tool.Handle(context.Background(), makeReq(map[string]any{
		"source_id": "XYZ-0001", "target_id": req.ID, "relationship_type": "relates",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("unknown ID prefix should produce a tool error")
	}
}

func TestDeleteRelationshipTool(t *testing.T) {
	st := newToolStore(t)
	reqA := approvedRequirement(t, st)
	reqB := approvedRequirement(t, st)
	if _, err := st.CreateRelationship(reqA.ID, reqB.ID, "refines"); err != nil {
		t.Fatalf("create relationship: %v", err)
	}
	tool := NewDeleteRelationshipTool(st)

	result, err := tool.Handle(context.Background(), makeReq(map[string]any{
		"source_id": reqB.ID, "target_id": reqA.ID,
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !strings.Contains(getResultText(result), "Deleted 1 relationship") {
		t.Errorf("delete should report the count, got: %s", getResultText(result))
	}

	result, err = tool.Handle(context.Background(), makeReq(map[string]any{
		"source_id": reqA.ID, "target_id": reqB.ID,
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !strings.Contains(getResultText(result), "No relationships found") {
		t.Errorf("re-delete should find nothing, got: %s", getResultText(result))
	}
}

func TestQueryRelationshipsTool(t *testing.T) {
	st := newToolStore(t)
	req := approvedRequirement(t, st)
	task, err := st.CreateTask(storeTaskParams(req.ID, "Linked"))
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	tool := NewQueryRelationshipsTool(st)

	result, err := tool.Handle(context.Background(), makeReq(map[string]any{
		"entity_id": req.ID,
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	text := getResultText(result)
	if !strings.Contains(text, task.ID) || !strings.Contains(text, "implements") {
		t.Errorf("query should surface the implements link, got: %s", text)
	}

	// Outgoing-only from the task's perspective excludes the canonical
	// requirement->task edge.
	result, err = tool.Handle(context.Background(), makeReq(map[string]any{
		"entity_id": task.ID, "include_incoming": false,
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if getResultText(result) != "No relationships found for "+task.ID+"." {
		t.Errorf("direction filter should exclude incoming edges, got: %s", getResultText(result))
	}
}

func TestGetEntityRelationshipsTool(t *testing.T) {
	st := newToolStore(t)
	req := approvedRequirement(t, st)
	if _, err := st.CreateTask(storeTaskParams(req.ID, "Grouped")); err != nil {
		t.Fatalf("create task: %v", err)
	}
	tool := NewGetEntityRelationshipsTool(st)

	result, err := tool.Handle(context.Background(), makeReq(map[string]any{
		"entity_id": req.ID,
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	text := getResultText(result)
	if !strings.Contains(text, "\"implements\"") {
		t.Errorf("grouping should key by type, got: %s", text)
	}
}

func TestQueryAllRelationshipsTool(t *testing.T) {
	st := newToolStore(t)
	req := approvedRequirement(t, st)
	task, err := st.CreateTask(storeTaskParams(req.ID, "Graphed"))
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	other := newRequirement(t, st)
	if _, err := st.CreateRelationship(other.ID, req.ID, "refines"); err != nil {
		t.Fatalf("create relationship: %v", err)
	}
	tool := NewQueryAllRelationshipsTool(st)

	result, err := tool.Handle(context.Background(), makeReq(map[string]any{
		"entity_types": []any{"requirement"},
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	text := getResultText(result)
	if strings.Contains(text, task.ID) {
		t.Errorf("requirement-only graph should exclude tasks, got: %s", text)
	}
	if !strings.Contains(text, req.ID) {
		t.Errorf("graph should include the requirement node, got: %s", text)
	}
}
