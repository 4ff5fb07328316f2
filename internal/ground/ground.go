// Package ground matches draft claims against memory-asserted values and
// rewrites hallucinated spans in strict mode.
package ground

import (
	"context"
	"regexp"
	"strings"

	"github.com/ppiankov/groundcheck/internal/model"
	"github.com/ppiankov/groundcheck/internal/semantic"
)

// Matching strategy names, in cascade order.
const (
	StrategyExact         = "exact"
	StrategyNormalization = "normalization"
	StrategyFuzzy         = "fuzzy"
	StrategySynonym       = "synonym"
	StrategyEmbedding     = "embedding"
)

// Support records which memory grounds a claim and how the match was made.
type Support struct {
	MemoryID string  `json:"memory_id"`
	Strategy string  `json:"strategy"`
	Score    float64 `json:"score"`
}

// MemValue is one value asserted for a slot by a memory.
type MemValue struct {
	Raw        string // As extracted from the memory text
	Normalized string
	MemoryID   string
	Trust      float64
}

// abbreviations expands well-known short forms before comparison so that
// "NYC" grounds against "New York City".
var abbreviations = map[string]string{
	"nyc": "new york city",
	"la":  "los angeles",
	"sf":  "san francisco",
	"dc":  "washington dc",
	"uk":  "united kingdom",
	"us":  "united states",
	"usa": "united states",
	"ml":  "machine learning",
	"ai":  "artificial intelligence",
	"js":  "javascript",
	"ts":  "typescript",
	"py":  "python",
	"swe": "software engineer",
	"pm":  "product manager",
	"ds":  "data scientist",
	"phd": "doctorate",
	"mit": "massachusetts institute of technology",
}

// synonyms are slot-scoped groups: two values in the same group match.
var synonyms = map[string][][]string{
	"occupation": {
		{"software engineer", "software developer", "programmer", "coder", "dev"},
		{"data scientist", "ml engineer", "machine learning engineer"},
		{"product manager", "product lead"},
		{"teacher", "instructor", "educator", "professor", "lecturer"},
		{"doctor", "physician", "medical doctor"},
		{"lawyer", "attorney", "legal counsel"},
	},
	"title": {
		{"software engineer", "software developer", "programmer", "coder", "dev"},
		{"product manager", "product lead"},
	},
	"degree": {
		{"bachelors", "ba", "bs", "bachelor of arts", "bachelor of science", "undergraduate degree"},
		{"masters", "ma", "ms", "master of arts", "master of science", "graduate degree"},
		{"phd", "doctorate", "doctoral degree"},
	},
	"employer": {
		{"self-employed", "self employed", "freelance", "freelancer", "independent"},
	},
}

var wordRe = regexp.MustCompile(`[a-z0-9]+`)

// Grounder runs the five-strategy matching cascade.
type Grounder struct {
	cfg     model.VerifyConfig
	matcher semantic.Matcher // nil when neural is off
}

// NewGrounder creates a grounder. matcher may be nil; the embedding
// strategy is skipped without it.
func NewGrounder(cfg model.VerifyConfig, matcher semantic.Matcher) *Grounder {
	return &Grounder{cfg: cfg, matcher: matcher}
}

// Find matches the claim value against the candidate memory values,
// trying each strategy in order and stopping at the first success. A nil
// return means the claim is unsupported. Matcher failures downgrade: the
// embedding strategy simply reports no match.
func (g *Grounder) Find(ctx context.Context, claim model.ExtractedFact, candidates []MemValue) *Support {
	if len(candidates) == 0 {
		return nil
	}
	claimNorm := claim.Normalized

	for _, c := range candidates {
		if claimNorm != "" && claimNorm == c.Normalized {
			return &Support{MemoryID: c.MemoryID, Strategy: StrategyExact, Score: 1.0}
		}
	}

	claimExpanded := expand(claimNorm)
	for _, c := range candidates {
		if claimExpanded != "" && claimExpanded == expand(c.Normalized) {
			return &Support{MemoryID: c.MemoryID, Strategy: StrategyNormalization, Score: 0.95}
		}
	}

	for _, c := range candidates {
		if g.fuzzyMatch(claimNorm, c.Normalized) {
			return &Support{MemoryID: c.MemoryID, Strategy: StrategyFuzzy, Score: 0.85}
		}
	}

	for _, c := range candidates {
		if synonymMatch(claim.Slot, claimNorm, c.Normalized) {
			return &Support{MemoryID: c.MemoryID, Strategy: StrategySynonym, Score: 0.8}
		}
	}

	if g.matcher != nil {
		for _, c := range candidates {
			sim, err := g.matcher.Similarity(ctx, claim.Value, c.Raw)
			if err != nil {
				continue
			}
			if sim >= g.cfg.EmbeddingThreshold {
				return &Support{MemoryID: c.MemoryID, Strategy: StrategyEmbedding, Score: sim}
			}
		}
	}
	return nil
}

// expand rewrites each word through the abbreviation table and strips
// residual punctuation.
func expand(norm string) string {
	if norm == "" {
		return ""
	}
	words := wordRe.FindAllString(strings.ToLower(norm), -1)
	for i, w := range words {
		if full, ok := abbreviations[w]; ok {
			words[i] = full
		}
	}
	return strings.Join(words, " ")
}

// fuzzyMatch allows edit distance <= max(base, len/divisor) on the longer
// of the two strings.
func (g *Grounder) fuzzyMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	tolerance := g.cfg.FuzzyBase
	if d := longest / g.cfg.FuzzyDivisor; d > tolerance {
		tolerance = d
	}
	return levenshtein(a, b) <= tolerance
}

func synonymMatch(slot, a, b string) bool {
	groups, ok := synonyms[slot]
	if !ok {
		return false
	}
	for _, group := range groups {
		inA, inB := false, false
		for _, term := range group {
			if term == a {
				inA = true
			}
			if term == b {
				inB = true
			}
		}
		if inA && inB {
			return true
		}
	}
	return false
}

// levenshtein computes edit distance with the rolling single-row variant.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			best := prev[j-1] + cost
			if v := prev[j] + 1; v < best {
				best = v
			}
			if v := curr[j-1] + 1; v < best {
				best = v
			}
			curr[j] = best
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// Substitution replaces one span of the draft.
type Substitution struct {
	Span        model.Span
	Replacement string
}

// Rewrite applies substitutions to the draft in a single pass, right to
// left so earlier offsets stay valid. The replacement's first character
// adopts the casing of the span it replaces.
func Rewrite(draft string, subs []Substitution) string {
	ordered := make([]Substitution, len(subs))
	copy(ordered, subs)
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && ordered[j].Span.Start > ordered[j-1].Span.Start; j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}

	out := draft
	for _, sub := range ordered {
		s, e := sub.Span.Start, sub.Span.End
		if s < 0 || e > len(out) || s >= e {
			continue
		}
		replacement := matchCase(out[s:e], sub.Replacement)
		out = out[:s] + replacement + out[e:]
	}
	return out
}

// matchCase copies the original span's first-character casing onto the
// replacement.
func matchCase(original, replacement string) string {
	if original == "" || replacement == "" {
		return replacement
	}
	first := original[0]
	switch {
	case first >= 'A' && first <= 'Z':
		return strings.ToUpper(replacement[:1]) + replacement[1:]
	case first >= 'a' && first <= 'z':
		return strings.ToLower(replacement[:1]) + replacement[1:]
	}
	return replacement
}
