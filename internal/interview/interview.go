// Package interview runs guided elicitation sessions for requirements
// and architecture decisions. Sessions live in an explicit in-memory
// store with expiry, keyed by opaque IDs, so concurrent conversations
// never share state and abandoned sessions age out.
package interview

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind selects the interview script.
type Kind string

const (
	KindRequirement  Kind = "requirement"
	KindArchitecture Kind = "architecture"
)

// Question is one prompt in an interview stage. Key names the answer
// slot the reply fills.
type Question struct {
	Key    string `json:"key"`
	Prompt string `json:"prompt"`
}

// Session is one in-flight interview.
type Session struct {
	ID         string            `json:"id"`
	Kind       Kind              `json:"kind"`
	Stage      int               `json:"stage"`
	Context    map[string]string `json:"context,omitempty"`
	Answers    map[string]string `json:"answers"`
	LastActive time.Time         `json:"last_active"`
}

// Outcome reports where a session stands after an exchange.
type Outcome struct {
	SessionID string            `json:"session_id"`
	Complete  bool              `json:"complete"`
	Questions []Question        `json:"questions,omitempty"`
	Answers   map[string]string `json:"answers,omitempty"`
}

// ErrSessionNotFound reports an unknown or expired session ID.
type ErrSessionNotFound struct {
	ID string
}

func (e *ErrSessionNotFound) Error() string {
	return fmt.Sprintf("interview session %s not found or expired", e.ID)
}

// ─── Scripts ─────────────────────────────────────────────────────────────────

var requirementStages = [][]Question{
	{
		{Key: "title", Prompt: "What is a short title for this requirement?"},
		{Key: "type", Prompt: "What type is it? (FUNC, NFUNC, TECH, BUS, INTF)"},
		{Key: "priority", Prompt: "What priority? (P0, P1, P2, P3)"},
	},
	{
		{Key: "current_state", Prompt: "Describe the current state: what is missing or broken today?"},
		{Key: "desired_state", Prompt: "Describe the desired state once this requirement is met."},
		{Key: "business_value", Prompt: "What is the business value of closing that gap?"},
	},
	{
		{Key: "functional_requirements", Prompt: "List the functional requirements, one per line."},
		{Key: "acceptance_criteria", Prompt: "List the acceptance criteria, one per line."},
		{Key: "risk_level", Prompt: "What is the risk level? (High, Medium, Low)"},
	},
}

var architectureStages = [][]Question{
	{
		{Key: "title", Prompt: "What decision needs to be made?"},
		{Key: "context", Prompt: "What is the technical and business context forcing this decision?"},
	},
	{
		{Key: "decision_drivers", Prompt: "What forces drive the decision? One per line."},
		{Key: "considered_options", Prompt: "Which options were considered? One per line."},
	},
	{
		{Key: "decision", Prompt: "What is the chosen outcome, and why?"},
		{Key: "consequences", Prompt: "What are the consequences, good and bad?"},
	},
}

func stagesFor(kind Kind) [][]Question {
	if kind == KindArchitecture {
		return architectureStages
	}
	return requirementStages
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store holds live sessions. Safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewStore creates a session store whose sessions expire after ttl of
// inactivity.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Store{
		sessions: map[string]*Session{},
		ttl:      ttl,
		now:      time.Now,
	}
}

// Start opens a session of the given kind and returns it with the
// first stage's questions.
func (st *Store) Start(kind Kind, context map[string]string) (*Session, []Question) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.pruneLocked()

	s := &Session{
		ID:         uuid.NewString()[:8],
		Kind:       kind,
		Context:    context,
		Answers:    map[string]string{},
		LastActive: st.now(),
	}
	st.sessions[s.ID] = s
	return s, stagesFor(kind)[0]
}

// Get returns an active session by ID.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.pruneLocked()
	s, ok := st.sessions[id]
	return s, ok
}

// Continue records answers for the session's current stage and either
// returns the next stage's questions or marks the session complete.
// Completed sessions are removed from the store.
func (st *Store) Continue(id string, answers map[string]string) (*Outcome, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.pruneLocked()

	s, ok := st.sessions[id]
	if !ok {
		return nil, &ErrSessionNotFound{ID: id}
	}

	for k, v := range answers {
		if v != "" {
			s.Answers[k] = v
		}
	}
	s.Stage++
	s.LastActive = st.now()

	stages := stagesFor(s.Kind)
	if s.Stage >= len(stages) {
		delete(st.sessions, id)
		return &Outcome{SessionID: id, Complete: true, Answers: s.Answers}, nil
	}
	return &Outcome{SessionID: id, Questions: stages[s.Stage]}, nil
}

func (st *Store) pruneLocked() {
	cutoff := st.now().Add(-st.ttl)
	for id, s := range st.sessions {
		if s.LastActive.Before(cutoff) {
			delete(st.sessions, id)
		}
	}
}
