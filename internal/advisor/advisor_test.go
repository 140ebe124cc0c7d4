package advisor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/heffrey78/lifecycle-mcp-sub000/internal/advisor"
)

type stubClient struct {
	analysis *advisor.Analysis
	err      error
}

func (c *stubClient) Analyze(ctx context.Context, req advisor.Request) (*advisor.Analysis, error) {
	return c.analysis, c.err
}

func validAnalysis() *advisor.Analysis {
	return &advisor.Analysis{
		ComplexityScore:    8,
		ScopeAssessment:    "epic",
		NeedsDecomposition: true,
		Suggestions: []advisor.Suggestion{
			{Type: "FUNC", Title: "Part one"},
			{Type: "FUNC", Title: "Part two"},
		},
	}
}

func TestAnalyze_NilClientDeclines(t *testing.T) {
	a := advisor.New(nil)
	if got := a.Analyze(context.Background(), advisor.Request{Title: "x"}); got != nil {
		t.Errorf("analysis = %+v, want nil", got)
	}
}

func TestAnalyze_ClientErrorDeclines(t *testing.T) {
	a := advisor.New(&stubClient{err: errors.New("backend down")})
	if got := a.Analyze(context.Background(), advisor.Request{Title: "x"}); got != nil {
		t.Errorf("analysis = %+v, want nil", got)
	}
}

func TestAnalyze_NoSuggestionsDeclines(t *testing.T) {
	analysis := validAnalysis()
	analysis.Suggestions = nil
	a := advisor.New(&stubClient{analysis: analysis})
	if got := a.Analyze(context.Background(), advisor.Request{Title: "x"}); got != nil {
		t.Errorf("analysis = %+v, want nil", got)
	}
}

func TestAnalyze_InvalidScoreDeclines(t *testing.T) {
	for _, score := range []int{0, 11, -3} {
		analysis := validAnalysis()
		analysis.ComplexityScore = score
		a := advisor.New(&stubClient{analysis: analysis})
		if got := a.Analyze(context.Background(), advisor.Request{Title: "x"}); got != nil {
			t.Errorf("score %d: analysis = %+v, want nil", score, got)
		}
	}
}

func TestAnalyze_InvalidScopeDeclines(t *testing.T) {
	analysis := validAnalysis()
	analysis.ScopeAssessment = "huge"
	a := advisor.New(&stubClient{analysis: analysis})
	if got := a.Analyze(context.Background(), advisor.Request{Title: "x"}); got != nil {
		t.Errorf("analysis = %+v, want nil", got)
	}
}

func TestAnalyze_ValidAnalysisPassesThrough(t *testing.T) {
	a := advisor.New(&stubClient{analysis: validAnalysis()})
	got := a.Analyze(context.Background(), advisor.Request{Title: "x"})
	if got == nil {
		t.Fatal("analysis = nil, want value")
	}
	if len(got.Suggestions) != 2 || got.ComplexityScore != 8 {
		t.Errorf("analysis = %+v", got)
	}
}
