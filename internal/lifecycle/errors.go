package lifecycle

import (
	"fmt"
	"strings"
)

// Domain failures are typed values so callers can branch with
// errors.As and tool handlers can render each kind distinctly.

// ValidationError reports missing or malformed input fields.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// MissingParams builds a ValidationError listing required fields that
// were absent from a request.
func MissingParams(fields ...string) *ValidationError {
	return &ValidationError{Message: "missing required parameters: " + strings.Join(fields, ", ")}
}

// NotFoundError reports a lookup against an entity that does not exist.
type NotFoundError struct {
	Kind EntityKind
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// InvalidEntityIDError reports an identifier whose prefix maps to no
// known entity kind.
type InvalidEntityIDError struct {
	ID string
}

func (e *InvalidEntityIDError) Error() string {
	return fmt.Sprintf("invalid entity ID %q: unknown prefix", e.ID)
}

// InvalidTransitionError reports a requirement status move the
// transition graph does not allow.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

// TaskRef identifies a task blocking a requirement from validation.
type TaskRef struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

// IncompleteTasksError reports a Validated transition blocked by tasks
// that are not Complete. It carries every offending task so the caller
// can list them.
type IncompleteTasksError struct {
	RequirementID string
	Tasks         []TaskRef
}

func (e *IncompleteTasksError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "cannot validate %s: %d task(s) incomplete:", e.RequirementID, len(e.Tasks))
	for _, t := range e.Tasks {
		fmt.Fprintf(&b, "\n- %s: %s (%s)", t.ID, t.Title, t.Status)
	}
	return b.String()
}

// RequirementStatusRef identifies a requirement blocking task creation.
type RequirementStatusRef struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// UnapprovedRequirementsError reports task creation against
// requirements that have not reached an approved state.
type UnapprovedRequirementsError struct {
	Requirements []RequirementStatusRef
}

func (e *UnapprovedRequirementsError) Error() string {
	var b strings.Builder
	b.WriteString("cannot create tasks for unapproved requirements:")
	for _, r := range e.Requirements {
		fmt.Fprintf(&b, "\n- %s (status: %s)", r.ID, r.Status)
	}
	fmt.Fprintf(&b, "\nrequirements must be in one of: %s", strings.Join(TaskReadyStatuses(), ", "))
	return b.String()
}

// AlreadyExistsError reports a duplicate relationship.
type AlreadyExistsError struct {
	SourceID string
	TargetID string
	Type     string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("relationship already exists: %s -> %s (%s)", e.SourceID, e.TargetID, e.Type)
}

// InvalidRelationshipError reports a (source kind, target kind, type)
// combination outside the allow-list.
type InvalidRelationshipError struct {
	SourceKind EntityKind
	TargetKind EntityKind
	Type       string
}

func (e *InvalidRelationshipError) Error() string {
	return fmt.Sprintf("invalid relationship: %s -> %s (%s)", e.SourceKind, e.TargetKind, e.Type)
}
