package extract

import (
	"github.com/ppiankov/groundcheck/internal/model"
	"github.com/ppiankov/groundcheck/internal/normalize"
)

// Merge unions Tier-1 and Tier-1.5 output into a single slot -> fact map.
// Tier-1 wins on conflict. A knowledge fact whose slot already carries a
// pattern fact with the same normalized value is a duplicate and dropped; one
// with a different value is returned separately as contradiction evidence,
// never as a second claim on the same slot.
func Merge(tier1 map[string]model.ExtractedFact, knowledge []model.KnowledgeFact) (map[string]model.ExtractedFact, []model.ExtractedFact) {
	merged := make(map[string]model.ExtractedFact, len(tier1))
	for slot, fact := range tier1 {
		merged[slot] = fact
	}

	var evidence []model.ExtractedFact
	best := make(map[string]float64)

	for _, kf := range knowledge {
		// Negative assertions are not claims about the current state.
		if kf.VerbCategory == model.VerbDeprecation || kf.VerbCategory == model.VerbLimitation {
			continue
		}
		fact := model.ExtractedFact{
			Slot:       kf.Slot,
			Value:      kf.Entity,
			Normalized: normalize.Value(kf.Entity),
			Origin:     model.Origin{Tier: model.TierKnowledge, Rule: string(kf.VerbCategory)},
		}

		existing, taken := merged[kf.Slot]
		if !taken {
			merged[kf.Slot] = fact
			best[kf.Slot] = kf.Confidence
			continue
		}

		if existing.Origin.Tier == model.TierKnowledge {
			// Two knowledge facts on one slot: keep the more confident one.
			if kf.Confidence > best[kf.Slot] {
				merged[kf.Slot] = fact
				best[kf.Slot] = kf.Confidence
			} else if existing.Normalized != fact.Normalized {
				evidence = append(evidence, fact)
			}
			continue
		}

		// Tier-1 owns the slot. Same value: duplicate. Different value:
		// evidence for the contradiction engine.
		if existing.Normalized != fact.Normalized {
			evidence = append(evidence, fact)
		}
	}
	return merged, evidence
}
