package lifecycle

// ─── Relationship types ──────────────────────────────────────────────────────

// Relationship type names as they appear on the wire.
const (
	RelImplements = "implements"
	RelAddresses  = "addresses"
	RelDepends    = "depends"
	RelBlocks     = "blocks"
	RelInforms    = "informs"
	RelRequires   = "requires"
	RelParent     = "parent"
	RelRefines    = "refines"
	RelConflicts  = "conflicts"
	RelRelates    = "relates"
)

// RelationshipTypes lists every relationship type the engine accepts.
func RelationshipTypes() []string {
	return []string{
		RelImplements, RelAddresses, RelDepends, RelBlocks, RelInforms,
		RelRequires, RelParent, RelRefines, RelConflicts, RelRelates,
	}
}

// Link is a relationship resolved to its canonical storage direction.
// Requirement->task "implements" and requirement->architecture
// "addresses" are the canonical forms; the symmetric calls are accepted
// and flipped here so the store only ever sees one direction per pair
// of kinds.
type Link struct {
	Source EntityRef `json:"source"`
	Target EntityRef `json:"target"`
	Type   string    `json:"type"`
}

type kindPair struct {
	source EntityKind
	target EntityKind
}

// allowedLinks is the full allow-list: which relationship types each
// ordered pair of entity kinds admits, after direction normalization.
var allowedLinks = map[kindPair]map[string]bool{
	{KindRequirement, KindTask}: {
		RelImplements: true,
	},
	{KindRequirement, KindArchitecture}: {
		RelAddresses: true,
	},
	{KindTask, KindTask}: {
		RelDepends:  true,
		RelBlocks:   true,
		RelInforms:  true,
		RelRequires: true,
	},
	{KindRequirement, KindRequirement}: {
		RelDepends:   true,
		RelParent:    true,
		RelRefines:   true,
		RelConflicts: true,
		RelRelates:   true,
	},
}

// ResolveLink validates a (source, target, type) triple against the
// allow-list and returns the link in canonical direction. Task->
// requirement "implements" and architecture->requirement "addresses"
// are normalized by swapping endpoints; every other disallowed
// combination is rejected.
func ResolveLink(source, target EntityRef, relType string) (Link, error) {
	// Symmetric forms: accept and flip to the canonical direction.
	if source.Kind == KindTask && target.Kind == KindRequirement && relType == RelImplements {
		source, target = target, source
	}
	if source.Kind == KindArchitecture && target.Kind == KindRequirement && relType == RelAddresses {
		source, target = target, source
	}

	types, ok := allowedLinks[kindPair{source.Kind, target.Kind}]
	if !ok || !types[relType] {
		return Link{}, &InvalidRelationshipError{
			SourceKind: source.Kind,
			TargetKind: target.Kind,
			Type:       relType,
		}
	}

	return Link{Source: source, Target: target, Type: relType}, nil
}
