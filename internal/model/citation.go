package model

// VerifiedCitation is the accepted pairing of a claim with supporting
// evidence. Created only when a claim passes the accept/reject policy;
// one-to-one with its claim and immutable once created.
type VerifiedCitation struct {
	ID              string  `json:"id"`
	ClaimID         string  `json:"claim_id"`
	SourceURL       string  `json:"source_url"`
	Confidence      float64 `json:"confidence"`       // Verifier-reported, in [0,1]
	SupportingQuote string  `json:"supporting_quote"` // Quote backing the claim
	CitationText    string  `json:"citation_text"`    // Short in-text form, e.g. "Vaswani, 2017"
	FullReference   string  `json:"full_reference"`   // Bibliography entry
}

// UnverifiedClaim records a claim the pipeline could not back with an
// acceptable citation, and why. A terminal outcome for this run; a fresh
// run over the persisted ledger may attempt it again.
type UnverifiedClaim struct {
	ClaimID    string     `json:"claim_id"`
	Content    string     `json:"content"`
	Importance Importance `json:"importance"`
	Reason     string     `json:"reason"`
	Confidence float64    `json:"confidence,omitempty"` // Best confidence seen, if any
}

// AllowedClaim is one entry of a section's closed claim set: the claim
// text with its mandatory citation and quote.
type AllowedClaim struct {
	ClaimText       string     `json:"claim_text"`
	CitationText    string     `json:"citation_text"`
	SupportingQuote string     `json:"supporting_quote"`
	Importance      Importance `json:"importance"`
}

// CitationContext is the per-section constraint object handed to the
// downstream writer. Derived from claims and verified citations on
// demand; never the source of truth.
type CitationContext struct {
	Chapter        int            `json:"chapter"`
	Section        int            `json:"section"`
	AllowedClaims  []AllowedClaim `json:"allowed_claims"`
	CitationFormat string         `json:"citation_format"`
	References     []string       `json:"references"` // Deduplicated, sorted
}
