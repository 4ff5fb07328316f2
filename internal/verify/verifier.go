// Package verify wires the extraction, contradiction, grounding, and
// scoring stages into the public verification pipeline.
package verify

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ppiankov/groundcheck/internal/contradict"
	"github.com/ppiankov/groundcheck/internal/extract"
	"github.com/ppiankov/groundcheck/internal/ground"
	"github.com/ppiankov/groundcheck/internal/model"
	"github.com/ppiankov/groundcheck/internal/ontology"
	"github.com/ppiankov/groundcheck/internal/score"
	"github.com/ppiankov/groundcheck/internal/semantic"
)

// historicalPrefixes let a claim like previous_employer resolve against the
// canonical employer slot in memories.
var historicalPrefixes = []string{"previous_", "prior_", "former_"}

// Verifier is the GroundCheck pipeline. It is safe for concurrent use: all
// state is immutable after construction and each Verify call is pure over
// its inputs.
type Verifier struct {
	cfg       *model.Config
	tables    *ontology.Tables
	tier1     *extract.Tier1
	knowledge *extract.Knowledge
	engine    *contradict.Engine
	grounder  *ground.Grounder
	scorer    *score.Scorer
	matcher   semantic.Matcher
}

// Option customizes verifier construction.
type Option func(*Verifier)

// WithMatcher injects the semantic matcher required when neural is enabled.
func WithMatcher(m semantic.Matcher) Option {
	return func(v *Verifier) { v.matcher = m }
}

// New builds a verifier from the configuration. The ontology tables load
// once here; a missing table or a missing matcher under neural mode is a
// construction error.
func New(cfg *model.Config, opts ...Option) (*Verifier, error) {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}

	tables, err := ontology.Load(cfg.Ontology.VerbPath, cfg.Ontology.TaxonomyPath)
	if err != nil {
		return nil, err
	}

	v := &Verifier{
		cfg:       cfg,
		tables:    tables,
		tier1:     extract.NewTier1(),
		knowledge: extract.NewKnowledge(tables),
		scorer:    score.NewScorer(),
	}
	for _, opt := range opts {
		opt(v)
	}

	if cfg.Verify.Neural && v.matcher == nil {
		return nil, fmt.Errorf("%w: neural mode requires an injected matcher", model.ErrSemanticUnavailable)
	}

	v.engine = contradict.NewEngine(cfg.Verify, v.matcher, v.extractWithEvidence)
	v.grounder = ground.NewGrounder(cfg.Verify, v.matcher)
	return v, nil
}

// ExtractClaims runs Tier-1 and Tier-1.5 over the text and returns the
// merged slot -> fact map.
func (v *Verifier) ExtractClaims(text string) map[string]model.ExtractedFact {
	merged, _ := extract.Merge(v.tier1.Extract(text), v.knowledge.Extract(text))
	return merged
}

// extractWithEvidence returns every asserted fact in the text, including
// Tier-1.5 values displaced by a Tier-1 fact on the same slot. The
// contradiction engine needs those to see intra-text conflicts.
func (v *Verifier) extractWithEvidence(text string) []model.ExtractedFact {
	merged, evidence := extract.Merge(v.tier1.Extract(text), v.knowledge.Extract(text))
	slots := make([]string, 0, len(merged))
	for slot := range merged {
		slots = append(slots, slot)
	}
	sort.Strings(slots)

	facts := make([]model.ExtractedFact, 0, len(merged)+len(evidence))
	for _, slot := range slots {
		facts = append(facts, merged[slot])
	}
	return append(facts, evidence...)
}

// ExtractKnowledgeFacts exposes the raw Tier-1.5 inference results.
func (v *Verifier) ExtractKnowledgeFacts(text string) []model.KnowledgeFact {
	return v.knowledge.Extract(text)
}

// FindSupport searches the memories for one that supports the claim.
// Returns nil when the claim is unsupported.
func (v *Verifier) FindSupport(ctx context.Context, claim model.ExtractedFact, memories []model.Memory) *ground.Support {
	index := v.indexMemories(memories)
	return v.grounder.Find(ctx, claim, v.candidatesFor(claim.Slot, index))
}

// Verify checks the draft against the memories and returns the full report.
// mode selects strict (rewrite) or permissive (report-only) behavior.
func (v *Verifier) Verify(ctx context.Context, draft string, memories []model.Memory, mode model.Mode) (*model.VerificationReport, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: unknown mode %q", model.ErrInputMalformed, mode)
	}
	for _, mem := range memories {
		if !mem.Valid() {
			return nil, fmt.Errorf("%w: memory %q has empty text or trust outside [0,1]", model.ErrInputMalformed, mem.ID)
		}
	}

	report := &model.VerificationReport{
		Original:       draft,
		Passed:         true,
		Confidence:     1.0,
		Hallucinations: []string{},
		GroundingMap:   map[string]string{},
		FactsExtracted: map[string]model.ExtractedFact{},
		FactsSupported: map[string]model.ExtractedFact{},
	}

	claims := v.ExtractClaims(draft)
	if len(claims) == 0 {
		// Nothing extractable is not an error: the draft makes no checkable
		// assertions.
		return report, nil
	}
	report.FactsExtracted = claims

	index := v.indexMemories(memories)
	memTrust := make(map[string]float64, len(memories))
	for _, mem := range memories {
		memTrust[mem.ID] = mem.Trust
	}

	contradictions := v.engine.Detect(ctx, memories)
	report.ContradictionDetails = contradictions
	for _, d := range contradictions {
		if d.TrustGap() >= v.cfg.Verify.TrustGapThreshold {
			report.RequiresDisclosure = true
		}
	}

	slots := make([]string, 0, len(claims))
	for slot := range claims {
		slots = append(slots, slot)
	}
	sort.Strings(slots)

	var scored []score.Claim
	for _, slot := range slots {
		claim := claims[slot]
		candidates := v.candidatesFor(slot, index)

		support := v.grounder.Find(ctx, claim, candidates)
		if support == nil {
			report.GroundingMap[slot] = ""
			report.Hallucinations = append(report.Hallucinations, claim.Value)
			scored = append(scored, score.Claim{
				ContradictorTrust: maxTrust(candidates),
			})
			continue
		}

		report.GroundingMap[slot] = support.MemoryID
		report.FactsSupported[slot] = claim
		scored = append(scored, score.Claim{
			Grounded:     true,
			SupportTrust: memTrust[support.MemoryID],
		})
	}

	contradictedDraftSlot := false
	for _, d := range contradictions {
		if _, ok := claims[d.Slot]; ok {
			contradictedDraftSlot = true
			break
		}
	}

	report.Passed = len(report.Hallucinations) == 0 && !contradictedDraftSlot
	report.Confidence = v.scorer.Confidence(scored)

	if mode == model.ModeStrict && !report.Passed {
		report.Corrected = v.correct(draft, claims, slots, report, index, contradictions)
	}
	return report, nil
}

// correct rewrites hallucinated spans with grounded values. Returns "" when
// no substitution is possible.
func (v *Verifier) correct(
	draft string,
	claims map[string]model.ExtractedFact,
	slots []string,
	report *model.VerificationReport,
	index map[string][]ground.MemValue,
	contradictions []model.ContradictionDetail,
) string {
	var subs []ground.Substitution
	for _, slot := range slots {
		if report.GroundingMap[slot] != "" {
			continue
		}
		claim := claims[slot]
		if claim.Span.End <= claim.Span.Start {
			// Knowledge-tier facts carry no source span to rewrite
			continue
		}
		candidates := v.candidatesFor(slot, index)
		if len(candidates) == 0 {
			continue
		}

		replacement := candidates[0]
		if conflicting(candidates) {
			// Memories disagree on the grounded value: take the most
			// trusted one and flag the conflict to the caller.
			replacement = mostTrustedCandidate(slot, candidates, contradictions)
			report.RequiresDisclosure = true
		}
		subs = append(subs, ground.Substitution{Span: claim.Span, Replacement: replacement.Raw})
	}

	if len(subs) == 0 {
		return ""
	}
	return ground.Rewrite(draft, subs)
}

// indexMemories extracts facts from every memory once and groups the
// asserted values by slot, preserving memory list order so earlier memories
// win ties.
func (v *Verifier) indexMemories(memories []model.Memory) map[string][]ground.MemValue {
	index := make(map[string][]ground.MemValue)
	seen := make(map[string]bool)
	for _, mem := range memories {
		facts := v.ExtractClaims(mem.Text)
		factSlots := make([]string, 0, len(facts))
		for slot := range facts {
			factSlots = append(factSlots, slot)
		}
		sort.Strings(factSlots)
		for _, slot := range factSlots {
			fact := facts[slot]
			key := mem.ID + "\x00" + slot + "\x00" + fact.Normalized
			if seen[key] {
				continue
			}
			seen[key] = true
			index[slot] = append(index[slot], ground.MemValue{
				Raw:        fact.Value,
				Normalized: fact.Normalized,
				MemoryID:   mem.ID,
				Trust:      mem.Trust,
			})
		}
	}
	return index
}

// candidatesFor returns the memory values for a slot, falling back through
// the historical prefixes.
func (v *Verifier) candidatesFor(slot string, index map[string][]ground.MemValue) []ground.MemValue {
	if values, ok := index[slot]; ok {
		return values
	}
	for _, prefix := range historicalPrefixes {
		if strings.HasPrefix(slot, prefix) {
			if values, ok := index[strings.TrimPrefix(slot, prefix)]; ok {
				return values
			}
		}
	}
	return nil
}

func maxTrust(candidates []ground.MemValue) float64 {
	var max float64
	for _, c := range candidates {
		if c.Trust > max {
			max = c.Trust
		}
	}
	return max
}

func conflicting(candidates []ground.MemValue) bool {
	for _, c := range candidates[1:] {
		if c.Normalized != candidates[0].Normalized {
			return true
		}
	}
	return false
}

// mostTrustedCandidate prefers the candidate matching the contradiction
// engine's resolution for the slot, then the highest trust.
func mostTrustedCandidate(slot string, candidates []ground.MemValue, contradictions []model.ContradictionDetail) ground.MemValue {
	for _, d := range contradictions {
		if d.Slot != slot {
			continue
		}
		for _, c := range candidates {
			if c.Normalized == d.MostTrustedValue {
				return c
			}
		}
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Trust > best.Trust {
			best = c
		}
	}
	return best
}
