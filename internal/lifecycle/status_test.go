package lifecycle_test

import (
	"errors"
	"testing"

	"github.com/heffrey78/lifecycle-mcp-sub000/internal/lifecycle"
)

func TestCanTransitionRequirement_FullGraph(t *testing.T) {
	allowed := map[string][]string{
		lifecycle.ReqDraft:        {lifecycle.ReqUnderReview, lifecycle.ReqDeprecated},
		lifecycle.ReqUnderReview:  {lifecycle.ReqDraft, lifecycle.ReqApproved, lifecycle.ReqDeprecated},
		lifecycle.ReqApproved:     {lifecycle.ReqArchitecture, lifecycle.ReqReady, lifecycle.ReqDeprecated},
		lifecycle.ReqArchitecture: {lifecycle.ReqReady, lifecycle.ReqApproved},
		lifecycle.ReqReady:        {lifecycle.ReqImplemented, lifecycle.ReqDeprecated},
		lifecycle.ReqImplemented:  {lifecycle.ReqValidated, lifecycle.ReqReady},
		lifecycle.ReqValidated:    {lifecycle.ReqDeprecated},
		lifecycle.ReqDeprecated:   {},
	}

	for _, from := range lifecycle.RequirementStatuses() {
		want := map[string]bool{}
		for _, to := range allowed[from] {
			want[to] = true
		}
		for _, to := range lifecycle.RequirementStatuses() {
			if got := lifecycle.CanTransitionRequirement(from, to); got != want[to] {
				t.Errorf("CanTransitionRequirement(%s, %s) = %v, want %v", from, to, got, want[to])
			}
		}
	}
}

func TestValidateRequirementTransition_Rejected(t *testing.T) {
	err := lifecycle.ValidateRequirementTransition(lifecycle.ReqDraft, lifecycle.ReqValidated)
	var invalid *lifecycle.InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("error = %v, want InvalidTransitionError", err)
	}
	if invalid.From != lifecycle.ReqDraft || invalid.To != lifecycle.ReqValidated {
		t.Errorf("error endpoints = %s -> %s", invalid.From, invalid.To)
	}
}

func TestValidateRequirementTransition_UnknownTarget(t *testing.T) {
	if err := lifecycle.ValidateRequirementTransition(lifecycle.ReqDraft, "Done"); err == nil {
		t.Fatal("expected error for unknown target status")
	}
}

func TestRequirementAcceptsTasks(t *testing.T) {
	accepts := map[string]bool{
		lifecycle.ReqApproved:     true,
		lifecycle.ReqArchitecture: true,
		lifecycle.ReqReady:        true,
		lifecycle.ReqImplemented:  true,
		lifecycle.ReqValidated:    true,
	}
	for _, s := range lifecycle.RequirementStatuses() {
		if got := lifecycle.RequirementAcceptsTasks(s); got != accepts[s] {
			t.Errorf("RequirementAcceptsTasks(%s) = %v, want %v", s, got, accepts[s])
		}
	}
}

func TestValidTaskStatus(t *testing.T) {
	for _, s := range lifecycle.TaskStatuses() {
		if !lifecycle.ValidTaskStatus(s) {
			t.Errorf("ValidTaskStatus(%s) = false", s)
		}
	}
	if lifecycle.ValidTaskStatus("Done") {
		t.Error("ValidTaskStatus(Done) = true")
	}
}

func TestValidArchitectureStatus_UnionVocabulary(t *testing.T) {
	for _, s := range []string{"Proposed", "Accepted", "Superseded", "Draft", "Under Review", "Implemented"} {
		if !lifecycle.ValidArchitectureStatus(s) {
			t.Errorf("ValidArchitectureStatus(%s) = false", s)
		}
	}
	if lifecycle.ValidArchitectureStatus("Pending") {
		t.Error("ValidArchitectureStatus(Pending) = true")
	}
}
