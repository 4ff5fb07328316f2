// Package score computes the trust-weighted confidence for a verification.
package score

// Claim is the scoring view of one draft claim: whether it was grounded,
// the trust of its best supporting memory, and for hallucinated claims the
// highest trust among memories contradicting it (0 when none exists).
type Claim struct {
	Grounded          bool
	SupportTrust      float64
	ContradictorTrust float64
}

// Scorer aggregates claim-level evidence into a confidence score.
type Scorer struct{}

// NewScorer creates a scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Confidence implements
//
//	C = (sum grounded trust - sum hallucinated weight) / (sum all weights)
//
// clamped to [0, 1]. A grounded claim contributes the trust of its best
// supporting memory. A hallucinated claim weighs 1.0 in the denominator and
// subtracts the trust of its strongest contradicting memory, or 1.0 when no
// memory contradicts it. No claims at all means full confidence.
func (s *Scorer) Confidence(claims []Claim) float64 {
	if len(claims) == 0 {
		return 1.0
	}

	var positive, negative, total float64
	for _, c := range claims {
		if c.Grounded {
			positive += c.SupportTrust
			total += c.SupportTrust
			continue
		}
		weight := c.ContradictorTrust
		if weight == 0 {
			weight = 1.0
		}
		negative += weight
		total += 1.0
	}

	if total == 0 {
		return 1.0
	}
	confidence := (positive - negative) / total
	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}
