package model

// Claim represents an atomic factual statement that requires external
// evidence before it may appear in generated text. Claims are produced
// upstream (by a planner or an outline extractor) and are never mutated
// by the pipeline, only referenced.
type Claim struct {
	ID         string     `json:"id"`                   // Unique claim identifier
	Content    string     `json:"content"`              // The claim text itself
	Chapter    int        `json:"chapter"`              // Owning chapter number
	Section    int        `json:"section"`              // Owning section number
	Subsection int        `json:"subsection,omitempty"` // Owning subsection, 0 if none
	Type       ClaimType  `json:"claim_type,omitempty"` // Nature of the claim
	Importance Importance `json:"importance"`           // Verification priority tier
}

// ClaimType categorizes the nature of the claim
type ClaimType string

const (
	ClaimTypeStatistic       ClaimType = "statistic"        // Numeric/quantitative assertions
	ClaimTypeResearchFinding ClaimType = "research_finding" // Results attributed to studies
	ClaimTypeDefinition      ClaimType = "definition"       // Definitional claims
	ClaimTypeAttribution     ClaimType = "attribution"      // Claims about who did/created something
	ClaimTypeHistorical      ClaimType = "historical"       // Claims about past events
	ClaimTypeTechnical       ClaimType = "technical"        // Claims about how something works
)

// Importance ranks how much a claim matters to the document
type Importance string

const (
	ImportanceCritical Importance = "critical"
	ImportanceHigh     Importance = "high"
	ImportanceMedium   Importance = "medium"
	ImportanceLow      Importance = "low"
)

// Rank returns a numeric ordering for importance tiers (higher = more
// important). Unknown tiers rank below "low" so they fall under any
// configured floor.
func (i Importance) Rank() int {
	switch i {
	case ImportanceCritical:
		return 4
	case ImportanceHigh:
		return 3
	case ImportanceMedium:
		return 2
	case ImportanceLow:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether the importance meets the given floor.
func (i Importance) AtLeast(floor Importance) bool {
	return i.Rank() >= floor.Rank()
}
