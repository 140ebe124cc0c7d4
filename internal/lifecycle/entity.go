// Package lifecycle holds the pure domain rules of the lifecycle server:
// entity identity, status vocabularies, the requirement state machine,
// and the relationship allow-list. It has no persistence and no I/O so
// every rule is testable in isolation.
package lifecycle

import "strings"

// EntityKind classifies a lifecycle entity by its identifier prefix.
type EntityKind string

const (
	KindRequirement  EntityKind = "requirement"
	KindTask         EntityKind = "task"
	KindArchitecture EntityKind = "architecture"
)

// EntityRef is a resolved entity identifier. IDs are opaque strings on
// the wire; resolving the kind happens exactly once, at the boundary,
// so the rest of the system never re-parses prefixes.
type EntityRef struct {
	Kind EntityKind `json:"kind"`
	ID   string     `json:"id"`
}

// ParseEntityID resolves an identifier to its entity kind from the
// prefix. REQ- is a requirement, TASK- a task, ADR- or TDD- an
// architecture document. Anything else is a hard error, never a guess.
func ParseEntityID(id string) (EntityRef, error) {
	switch {
	case strings.HasPrefix(id, "REQ-"):
		return EntityRef{Kind: KindRequirement, ID: id}, nil
	case strings.HasPrefix(id, "TASK-"):
		return EntityRef{Kind: KindTask, ID: id}, nil
	case strings.HasPrefix(id, "ADR-"), strings.HasPrefix(id, "TDD-"):
		return EntityRef{Kind: KindArchitecture, ID: id}, nil
	default:
		return EntityRef{}, &InvalidEntityIDError{ID: id}
	}
}
