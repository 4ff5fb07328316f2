// Package contradict finds slots where the supplied memories disagree with
// each other and resolves which value should win.
package contradict

import (
	"context"
	"sort"

	"github.com/ppiankov/groundcheck/internal/model"
	"github.com/ppiankov/groundcheck/internal/semantic"
)

// knownExclusiveSlots can hold at most one value per subject: two memories
// asserting different values always conflict.
var knownExclusiveSlots = map[string]bool{
	// Personal profile
	"employer": true, "location": true, "name": true, "title": true,
	"occupation": true, "coffee": true, "favorite_color": true,
	"favorite_food": true, "pet": true, "school": true,
	"undergrad_school": true, "masters_school": true, "graduation_year": true,
	"degree": true, "major": true, "minor": true,
	// Demographics and biometrics
	"age": true, "birthday": true, "birth_year": true, "height": true,
	"weight": true, "diet": true, "relationship": true,
	// Financial
	"salary": true, "budget": true,
	// Technical / infrastructure, current state
	"database": true, "os": true, "editor": true, "framework": true,
	"frontend": true, "backend": true, "cloud": true, "api_url": true,
	"api_style": true, "architecture": true, "orchestration": true,
	"vcs": true, "timeout": true, "port": true, "max_retries": true,
}

// additiveSlots legitimately hold many values at once and are never flagged.
var additiveSlots = map[string]bool{
	"skill": true, "hobby": true, "language": true, "tool": true,
	"library": true, "dependency": true, "feature": true,
	"requirement": true, "programming_language": true, "goal": true,
	"likes": true, "testing": true, "project": true,
}

// Recommended actions, fixed per slot category.
const (
	actionExclusive = "keep the most trusted value and confirm the change with the user"
	actionDynamic   = "values may be incompatible; prefer the most recent assertion"
)

// Extractor turns memory text into facts. Supplied by the verifier so the
// engine sees the same extraction the draft gets — including the merger's
// retained evidence facts, which may put two values on one slot.
type Extractor func(text string) []model.ExtractedFact

// Engine detects and resolves contradictions between memories.
type Engine struct {
	cfg     model.VerifyConfig
	matcher semantic.Matcher // nil when neural is off
	extract Extractor
}

// NewEngine creates a contradiction engine. matcher may be nil.
func NewEngine(cfg model.VerifyConfig, matcher semantic.Matcher, extract Extractor) *Engine {
	return &Engine{cfg: cfg, matcher: matcher, extract: extract}
}

// IsExclusive reports whether a slot is known-exclusive.
func IsExclusive(slot string) bool {
	return knownExclusiveSlots[slot]
}

// IsAdditive reports whether multiple values are legitimate for a slot.
func IsAdditive(slot string) bool {
	return additiveSlots[slot]
}

// memFact is one (memory, slot, value) assertion.
type memFact struct {
	value string // Normalized
	mem   model.Memory
	text  string // Source memory text, for entailment checks
}

// Detect returns one ContradictionDetail per slot whose memories disagree,
// sorted by slot name for determinism.
func (e *Engine) Detect(ctx context.Context, memories []model.Memory) []model.ContradictionDetail {
	bySlot := make(map[string][]memFact)
	seen := make(map[string]map[string]bool) // slot -> memID+value

	for _, mem := range memories {
		for _, fact := range e.extract(mem.Text) {
			if fact.Normalized == "" {
				continue
			}
			slot := fact.Slot
			key := mem.ID + "\x00" + fact.Normalized
			if seen[slot] == nil {
				seen[slot] = make(map[string]bool)
			}
			if seen[slot][key] {
				continue
			}
			seen[slot][key] = true
			bySlot[slot] = append(bySlot[slot], memFact{value: fact.Normalized, mem: mem, text: mem.Text})
		}
	}

	slots := make([]string, 0, len(bySlot))
	for slot := range bySlot {
		slots = append(slots, slot)
	}
	sort.Strings(slots)

	var details []model.ContradictionDetail
	for _, slot := range slots {
		if additiveSlots[slot] {
			continue
		}
		facts := bySlot[slot]
		distinct := distinctValues(facts)
		if len(distinct) < 2 {
			continue
		}
		if !knownExclusiveSlots[slot] && !e.dynamicConflict(ctx, facts) {
			continue
		}
		details = append(details, e.resolve(slot, facts, distinct))
	}
	return details
}

// dynamicConflict decides whether a dynamic slot's differing values really
// conflict. Without a matcher, differing normalized values are conflicts.
// With one, the memory texts must contradict with enough confidence.
func (e *Engine) dynamicConflict(ctx context.Context, facts []memFact) bool {
	if e.matcher == nil {
		return true
	}
	result, err := e.matcher.Entails(ctx, facts[0].text, facts[1].text)
	if err != nil {
		// Matcher failure downgrades to slot-based detection
		return true
	}
	return result.Label == semantic.Contradicts && result.Confidence >= e.cfg.ContradictionThreshold
}

func (e *Engine) resolve(slot string, facts []memFact, distinct []string) model.ContradictionDetail {
	detail := model.ContradictionDetail{
		Slot:   slot,
		Values: distinct,
		Action: actionDynamic,
	}
	if knownExclusiveSlots[slot] {
		detail.Action = actionExclusive
	}

	for _, f := range facts {
		detail.MemoryIDs = append(detail.MemoryIDs, f.mem.ID)
		detail.Timestamps = append(detail.Timestamps, f.mem.Timestamp)
		detail.TrustScores = append(detail.TrustScores, f.mem.Trust)
	}

	detail.MostTrustedValue = mostTrusted(facts)
	detail.MostRecentValue = mostRecent(facts)
	return detail
}

// mostTrusted picks the value with highest trust; ties break toward the
// larger timestamp, then toward the earlier list position.
func mostTrusted(facts []memFact) string {
	best := 0
	for i := 1; i < len(facts); i++ {
		if facts[i].mem.Trust > facts[best].mem.Trust {
			best = i
			continue
		}
		if facts[i].mem.Trust == facts[best].mem.Trust &&
			tsValue(facts[i].mem) > tsValue(facts[best].mem) {
			best = i
		}
	}
	return facts[best].value
}

// mostRecent picks the value with the largest timestamp; memories without
// timestamps lose to any timestamped one. Ties break toward higher trust,
// then earlier list position.
func mostRecent(facts []memFact) string {
	best := 0
	for i := 1; i < len(facts); i++ {
		ti, tb := tsValue(facts[i].mem), tsValue(facts[best].mem)
		if ti > tb {
			best = i
			continue
		}
		if ti == tb && facts[i].mem.Trust > facts[best].mem.Trust {
			best = i
		}
	}
	return facts[best].value
}

func tsValue(m model.Memory) int64 {
	if m.Timestamp == nil {
		return -1 << 62
	}
	return *m.Timestamp
}

func distinctValues(facts []memFact) []string {
	seen := make(map[string]bool)
	var values []string
	for _, f := range facts {
		if !seen[f.value] {
			seen[f.value] = true
			values = append(values, f.value)
		}
	}
	return values
}
