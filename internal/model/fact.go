package model

// Span marks a byte range in the original draft text
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Tier identifies which extraction stage produced a fact
type Tier string

const (
	TierPattern   Tier = "pattern"   // Tier-1 regex/grammar families
	TierKnowledge Tier = "knowledge" // Tier-1.5 ontology inference
	TierNeural    Tier = "neural"    // Tier-2 semantic matcher
)

// Origin records the stage and the rule or verb category that produced a fact
type Origin struct {
	Tier Tier   `json:"tier"`
	Rule string `json:"rule,omitempty"`
}

// ExtractedFact is one atomic claim pulled out of text.
// Normalized is a deterministic function of Value (see normalize.Value).
type ExtractedFact struct {
	Slot       string `json:"slot"`       // Canonical slot name (lowercase identifier)
	Value      string `json:"value"`      // Raw value as it appeared in the source text
	Normalized string `json:"normalized"` // Comparison form: lowercased, article-stripped
	Span       Span   `json:"span"`       // Offsets into the original text, for rewrites
	Origin     Origin `json:"origin"`
}

// VerbCategory classifies the semantics of an ontology verb phrase
type VerbCategory string

const (
	VerbAdoption    VerbCategory = "adoption"
	VerbMigration   VerbCategory = "migration"
	VerbDeprecation VerbCategory = "deprecation"
	VerbTentative   VerbCategory = "tentative"
	VerbCapability  VerbCategory = "capability"
	VerbLimitation  VerbCategory = "limitation"
	VerbAssignment  VerbCategory = "assignment"
	VerbRequirement VerbCategory = "requirement"
	VerbPreference  VerbCategory = "preference"
	VerbCreation    VerbCategory = "creation"
)

// Knowledge-fact confidence levels. Tentative statements ("considering
// switching to Rust") score lower than confirmed ones.
const (
	ConfidenceTentative = 0.5
	ConfidenceConfirmed = 1.0
)

// KnowledgeFact is a Tier-1.5 inference: a recognized entity combined with
// the semantics of the nearest ontology verb.
type KnowledgeFact struct {
	Entity       string       `json:"entity"`         // Canonical entity name from the taxonomy
	Category     string       `json:"category"`       // Taxonomy category (e.g. "database")
	Slot         string       `json:"slot"`           // Slot the category maps to via the alias table
	VerbCategory VerbCategory `json:"verb_category"`
	ClauseIndex  int          `json:"clause_index"`   // Position of the clause in the source text
	Confidence   float64      `json:"confidence"`     // ConfidenceTentative or ConfidenceConfirmed
	From         string       `json:"from,omitempty"` // Migration only: the entity being left behind
}
