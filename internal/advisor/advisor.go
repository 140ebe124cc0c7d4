// Package advisor analyzes requirement scope and suggests
// decompositions. The analysis backend is an LLM; everything about it
// is advisory. Callers must treat a nil analysis as "create the
// requirement as-is" — the advisor being absent, slow, or wrong can
// never block requirement creation.
package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/heffrey78/lifecycle-mcp-sub000/internal/lifecycle"
)

// Request describes the requirement to analyze.
type Request struct {
	Type                   string   `json:"type"`
	Title                  string   `json:"title"`
	CurrentState           string   `json:"current_state"`
	DesiredState           string   `json:"desired_state"`
	FunctionalRequirements []string `json:"functional_requirements,omitempty"`
	AcceptanceCriteria     []string `json:"acceptance_criteria,omitempty"`
}

// Suggestion is one proposed sub-requirement.
type Suggestion struct {
	Type         string `json:"type"`
	Title        string `json:"title"`
	CurrentState string `json:"current_state,omitempty"`
	DesiredState string `json:"desired_state,omitempty"`
	Rationale    string `json:"rationale,omitempty"`
}

// Analysis is the advisor's verdict on one requirement.
type Analysis struct {
	ComplexityScore    int          `json:"complexity_score"`
	ScopeAssessment    string       `json:"scope_assessment"`
	NeedsDecomposition bool         `json:"needs_decomposition"`
	Suggestions        []Suggestion `json:"suggested_sub_requirements,omitempty"`
}

// Client produces decomposition analyses. Implementations may fail or
// time out; the Advisor absorbs that.
type Client interface {
	Analyze(ctx context.Context, req Request) (*Analysis, error)
}

// ─── Advisor ─────────────────────────────────────────────────────────────────

// Advisor wraps a Client with the fallback policy: any failure mode
// (no client, error, timeout, empty or invalid result) collapses to
// "no decomposition".
type Advisor struct {
	client  Client
	timeout time.Duration
}

// New creates an Advisor over client. client may be nil, which
// produces an advisor that always declines to decompose.
func New(client Client) *Advisor {
	return &Advisor{client: client, timeout: 30 * time.Second}
}

// Analyze returns a usable decomposition analysis, or nil when the
// requirement should be created as a single record. Never returns an
// error: advisory failure is not a caller concern beyond the nil.
func (a *Advisor) Analyze(ctx context.Context, req Request) *Analysis {
	if a == nil || a.client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	analysis, err := a.client.Analyze(ctx, req)
	if err != nil || analysis == nil {
		return nil
	}
	if !analysis.NeedsDecomposition || len(analysis.Suggestions) == 0 {
		return nil
	}
	if analysis.ComplexityScore < 1 || analysis.ComplexityScore > 10 {
		return nil
	}
	if !lifecycle.ValidScopeAssessment(analysis.ScopeAssessment) {
		return nil
	}
	return analysis
}

// ─── OpenAI client ───────────────────────────────────────────────────────────

// OpenAIClient analyzes requirements with a chat completion model.
type OpenAIClient struct {
	client openai.Client
	model  string
}

// NewOpenAIClient creates a client authenticated with apiKey. model
// may be empty to use the default.
func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}
	return &OpenAIClient{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

const analysisSystemPrompt = `You analyze software requirements for scope and complexity.
Respond with a single JSON object and nothing else:
{
  "complexity_score": <1-10>,
  "scope_assessment": "single_feature" | "multiple_features" | "complex_workflow" | "epic",
  "needs_decomposition": <boolean>,
  "suggested_sub_requirements": [
    {"type": "FUNC|NFUNC|TECH|BUS|INTF", "title": "...", "current_state": "...", "desired_state": "...", "rationale": "..."}
  ]
}
Only set needs_decomposition when the requirement clearly bundles several
independently deliverable features. Each suggestion must be implementable on
its own.`

// Analyze sends the requirement to the model and parses its JSON verdict.
func (c *OpenAIClient) Analyze(ctx context.Context, req Request) (*Analysis, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Type: %s\nTitle: %s\nCurrent state: %s\nDesired state: %s\n",
		req.Type, req.Title, req.CurrentState, req.DesiredState)
	if len(req.FunctionalRequirements) > 0 {
		fmt.Fprintf(&b, "Functional requirements:\n- %s\n", strings.Join(req.FunctionalRequirements, "\n- "))
	}
	if len(req.AcceptanceCriteria) > 0 {
		fmt.Fprintf(&b, "Acceptance criteria:\n- %s\n", strings.Join(req.AcceptanceCriteria, "\n- "))
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(analysisSystemPrompt),
			openai.UserMessage(b.String()),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("advisor: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("advisor: empty completion")
	}

	return parseAnalysis(resp.Choices[0].Message.Content)
}

// parseAnalysis tolerates models that wrap the JSON in code fences or
// surrounding prose.
func parseAnalysis(content string) (*Analysis, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("advisor: no JSON object in completion")
	}

	var a Analysis
	if err := json.Unmarshal([]byte(content[start:end+1]), &a); err != nil {
		return nil, fmt.Errorf("advisor: parse analysis: %w", err)
	}
	return &a, nil
}
