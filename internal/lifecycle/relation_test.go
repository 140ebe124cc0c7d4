package lifecycle_test

import (
	"errors"
	"testing"

	"github.com/heffrey78/lifecycle-mcp-sub000/internal/lifecycle"
)

func mustRef(t *testing.T, id string) lifecycle.EntityRef {
	t.Helper()
	ref, err := lifecycle.ParseEntityID(id)
	if err != nil {
		t.Fatalf("ParseEntityID(%q): %v", id, err)
	}
	return ref
}

func TestResolveLink_CanonicalDirection(t *testing.T) {
	req := mustRef(t, "REQ-0001-FUNC-00")
	task := mustRef(t, "TASK-0001-00-00")

	link, err := lifecycle.ResolveLink(req, task, lifecycle.RelImplements)
	if err != nil {
		t.Fatalf("ResolveLink: %v", err)
	}
	if link.Source.ID != req.ID || link.Target.ID != task.ID {
		t.Errorf("link = %s -> %s, want %s -> %s", link.Source.ID, link.Target.ID, req.ID, task.ID)
	}
}

func TestResolveLink_ReversedImplementsNormalized(t *testing.T) {
	req := mustRef(t, "REQ-0001-FUNC-00")
	task := mustRef(t, "TASK-0001-00-00")

	link, err := lifecycle.ResolveLink(task, req, lifecycle.RelImplements)
	if err != nil {
		t.Fatalf("ResolveLink: %v", err)
	}
	if link.Source.ID != req.ID || link.Target.ID != task.ID {
		t.Errorf("reversed implements not normalized: %s -> %s", link.Source.ID, link.Target.ID)
	}
}

func TestResolveLink_ReversedAddressesNormalized(t *testing.T) {
	req := mustRef(t, "REQ-0002-TECH-00")
	adr := mustRef(t, "ADR-0001")

	link, err := lifecycle.ResolveLink(adr, req, lifecycle.RelAddresses)
	if err != nil {
		t.Fatalf("ResolveLink: %v", err)
	}
	if link.Source.ID != req.ID || link.Target.ID != adr.ID {
		t.Errorf("reversed addresses not normalized: %s -> %s", link.Source.ID, link.Target.ID)
	}
}

func TestResolveLink_TaskToTaskTypes(t *testing.T) {
	a := mustRef(t, "TASK-0001-00-00")
	b := mustRef(t, "TASK-0002-00-00")

	for _, relType := range []string{"depends", "blocks", "informs", "requires"} {
		if _, err := lifecycle.ResolveLink(a, b, relType); err != nil {
			t.Errorf("ResolveLink(task, task, %s): %v", relType, err)
		}
	}
	if _, err := lifecycle.ResolveLink(a, b, lifecycle.RelImplements); err == nil {
		t.Error("ResolveLink(task, task, implements) succeeded, want error")
	}
}

func TestResolveLink_RequirementToRequirementTypes(t *testing.T) {
	a := mustRef(t, "REQ-0001-FUNC-00")
	b := mustRef(t, "REQ-0002-FUNC-00")

	for _, relType := range []string{"depends", "parent", "refines", "conflicts", "relates"} {
		if _, err := lifecycle.ResolveLink(a, b, relType); err != nil {
			t.Errorf("ResolveLink(req, req, %s): %v", relType, err)
		}
	}
}

func TestResolveLink_DisallowedCombination(t *testing.T) {
	req := mustRef(t, "REQ-0001-FUNC-00")
	task := mustRef(t, "TASK-0001-00-00")

	_, err := lifecycle.ResolveLink(req, task, lifecycle.RelBlocks)
	var invalid *lifecycle.InvalidRelationshipError
	if !errors.As(err, &invalid) {
		t.Fatalf("error = %v, want InvalidRelationshipError", err)
	}
}
