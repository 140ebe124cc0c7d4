package lifecycle

// ─── Requirement lifecycle ───────────────────────────────────────────────────

// Requirement statuses. The graph below is the only way a requirement
// moves between them.
const (
	ReqDraft        = "Draft"
	ReqUnderReview  = "Under Review"
	ReqApproved     = "Approved"
	ReqArchitecture = "Architecture"
	ReqReady        = "Ready"
	ReqImplemented  = "Implemented"
	ReqValidated    = "Validated"
	ReqDeprecated   = "Deprecated"
)

// requirementTransitions maps each status to the statuses it may move to.
// Deprecated is terminal. Validated additionally requires every linked
// task to be Complete; that gate is checked by the caller before this
// table is consulted.
var requirementTransitions = map[string][]string{
	ReqDraft:        {ReqUnderReview, ReqDeprecated},
	ReqUnderReview:  {ReqDraft, ReqApproved, ReqDeprecated},
	ReqApproved:     {ReqArchitecture, ReqReady, ReqDeprecated},
	ReqArchitecture: {ReqReady, ReqApproved},
	ReqReady:        {ReqImplemented, ReqDeprecated},
	ReqImplemented:  {ReqValidated, ReqReady},
	ReqValidated:    {ReqDeprecated},
	ReqDeprecated:   {},
}

// RequirementStatuses lists every valid requirement status.
func RequirementStatuses() []string {
	return []string{
		ReqDraft, ReqUnderReview, ReqApproved, ReqArchitecture,
		ReqReady, ReqImplemented, ReqValidated, ReqDeprecated,
	}
}

// ValidRequirementStatus reports whether s is a known requirement status.
func ValidRequirementStatus(s string) bool {
	_, ok := requirementTransitions[s]
	return ok
}

// CanTransitionRequirement reports whether from -> to is an allowed move.
func CanTransitionRequirement(from, to string) bool {
	for _, next := range requirementTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateRequirementTransition checks from -> to against the transition
// graph and returns a typed error naming both endpoints on failure.
func ValidateRequirementTransition(from, to string) error {
	if !ValidRequirementStatus(to) {
		return &InvalidTransitionError{From: from, To: to}
	}
	if !CanTransitionRequirement(from, to) {
		return &InvalidTransitionError{From: from, To: to}
	}
	return nil
}

// TaskReadyStatuses are the requirement statuses that permit task
// creation against the requirement.
var taskReadyStatuses = map[string]bool{
	ReqApproved:     true,
	ReqArchitecture: true,
	ReqReady:        true,
	ReqImplemented:  true,
	ReqValidated:    true,
}

// RequirementAcceptsTasks reports whether a requirement in the given
// status may have tasks created against it.
func RequirementAcceptsTasks(status string) bool {
	return taskReadyStatuses[status]
}

// TaskReadyStatuses lists the requirement statuses that permit task
// creation, in lifecycle order.
func TaskReadyStatuses() []string {
	return []string{ReqApproved, ReqArchitecture, ReqReady, ReqImplemented, ReqValidated}
}

// ─── Task status ─────────────────────────────────────────────────────────────

const (
	TaskNotStarted = "Not Started"
	TaskInProgress = "In Progress"
	TaskBlocked    = "Blocked"
	TaskComplete   = "Complete"
	TaskAbandoned  = "Abandoned"
)

var taskStatuses = map[string]bool{
	TaskNotStarted: true,
	TaskInProgress: true,
	TaskBlocked:    true,
	TaskComplete:   true,
	TaskAbandoned:  true,
}

// ValidTaskStatus reports whether s is a known task status. Tasks have
// no transition graph; any valid status may follow any other.
func ValidTaskStatus(s string) bool {
	return taskStatuses[s]
}

// TaskStatuses lists every valid task status.
func TaskStatuses() []string {
	return []string{TaskNotStarted, TaskInProgress, TaskBlocked, TaskComplete, TaskAbandoned}
}

// ─── Architecture status ─────────────────────────────────────────────────────

// Architecture statuses accept both the ADR vocabulary (Proposed,
// Accepted, Rejected, Superseded) and the document review vocabulary
// (Draft, Under Review, Approved, Implemented). Both appear in real
// databases, so the canonical set is their union. There is no
// transition graph for architecture documents.
const (
	ArchProposed    = "Proposed"
	ArchAccepted    = "Accepted"
	ArchRejected    = "Rejected"
	ArchDeprecated  = "Deprecated"
	ArchSuperseded  = "Superseded"
	ArchDraft       = "Draft"
	ArchUnderReview = "Under Review"
	ArchApproved    = "Approved"
	ArchImplemented = "Implemented"
)

var architectureStatuses = map[string]bool{
	ArchProposed:    true,
	ArchAccepted:    true,
	ArchRejected:    true,
	ArchDeprecated:  true,
	ArchSuperseded:  true,
	ArchDraft:       true,
	ArchUnderReview: true,
	ArchApproved:    true,
	ArchImplemented: true,
}

// ValidArchitectureStatus reports whether s is a known architecture status.
func ValidArchitectureStatus(s string) bool {
	return architectureStatuses[s]
}

// ArchitectureStatuses lists every valid architecture status.
func ArchitectureStatuses() []string {
	return []string{
		ArchProposed, ArchAccepted, ArchRejected, ArchDeprecated, ArchSuperseded,
		ArchDraft, ArchUnderReview, ArchApproved, ArchImplemented,
	}
}

// ─── Shared vocabularies ─────────────────────────────────────────────────────

var requirementTypes = map[string]bool{
	"FUNC": true, "NFUNC": true, "TECH": true, "BUS": true, "INTF": true,
}

// ValidRequirementType reports whether t is a known requirement type.
func ValidRequirementType(t string) bool {
	return requirementTypes[t]
}

// RequirementTypes lists the valid requirement type codes.
func RequirementTypes() []string {
	return []string{"FUNC", "NFUNC", "TECH", "BUS", "INTF"}
}

var priorities = map[string]bool{"P0": true, "P1": true, "P2": true, "P3": true}

// ValidPriority reports whether p is one of P0..P3.
func ValidPriority(p string) bool {
	return priorities[p]
}

var efforts = map[string]bool{"XS": true, "S": true, "M": true, "L": true, "XL": true}

// ValidEffort reports whether e is a known T-shirt effort size.
func ValidEffort(e string) bool {
	return efforts[e]
}

var riskLevels = map[string]bool{"High": true, "Medium": true, "Low": true}

// ValidRiskLevel reports whether r is a known risk level.
func ValidRiskLevel(r string) bool {
	return riskLevels[r]
}

// Scope assessments produced by requirement decomposition analysis.
const (
	ScopeSingleFeature    = "single_feature"
	ScopeMultipleFeatures = "multiple_features"
	ScopeComplexWorkflow  = "complex_workflow"
	ScopeEpic             = "epic"
)

var scopeAssessments = map[string]bool{
	ScopeSingleFeature:    true,
	ScopeMultipleFeatures: true,
	ScopeComplexWorkflow:  true,
	ScopeEpic:             true,
}

// ValidScopeAssessment reports whether s is a known scope classification.
func ValidScopeAssessment(s string) bool {
	return scopeAssessments[s]
}
