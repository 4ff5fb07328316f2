package extract

import (
	"regexp"
	"strings"

	"github.com/ppiankov/groundcheck/internal/clause"
	"github.com/ppiankov/groundcheck/internal/model"
	"github.com/ppiankov/groundcheck/internal/normalize"
	"github.com/ppiankov/groundcheck/internal/ontology"
)

// Negative-sentiment tokens: an entity near one of these reads as abandoned
// even without an ontology verb.
var negativeContext = regexp.MustCompile(`(?i)\b(?:disaster|failed|broke|broken|nightmare|headache|mess|fiasco|terrible|awful|unstable|unreliable)\b`)

// Tentative cues downgrade adoption and migration to intent.
var tentativeLead = regexp.MustCompile(`(?i)\b(?:considering|might|may|thinking about|possibly)\b`)

// Hedged or uncertain clauses carry no extractable assertion.
var skipClause = regexp.MustCompile(`(?i)^\s*(?:i\s+(?:don'?t|do\s+not)\s+(?:know|think|remember|recall)|not\s+sure\s+(?:if|about|whether)|i\s+wonder|maybe\s+we\s+should)`)

// Arrow migrations: "MySQL -> Postgres".
var arrowRe = regexp.MustCompile(`(?:->|→)`)

const (
	maxEntityWindow = 4
	maxVerbWindow   = 3
)

// span of a recognized hit inside a clause, in token indices.
type hit struct {
	first, last int // Token range, inclusive
	start, end  int // Byte range in the clause
}

type entityHit struct {
	hit
	entity ontology.Entity
}

type verbHit struct {
	hit
	phrase   string
	category model.VerbCategory
}

// Knowledge is the Tier-1.5 extractor: it infers facts that the pattern
// families miss by combining the verb ontology with the entity taxonomy.
type Knowledge struct {
	tables *ontology.Tables
}

// NewKnowledge creates a knowledge extractor over the given tables.
func NewKnowledge(tables *ontology.Tables) *Knowledge {
	return &Knowledge{tables: tables}
}

// Extract runs the inference pipeline per clause and returns all facts in
// clause order.
func (e *Knowledge) Extract(text string) []model.KnowledgeFact {
	var all []model.KnowledgeFact
	if strings.TrimSpace(text) == "" {
		return all
	}

	var prevVerb *verbHit
	for _, cl := range clause.Split(text) {
		if isQuestion(cl.Text) || skipClause.MatchString(cl.Text) {
			prevVerb = nil
			continue
		}

		tokens := normalize.Tokenize(cl.Text)
		entities := e.findEntities(cl.Text, tokens)
		verbs := e.findVerbs(tokens)

		// An entity whose span overlaps a verb phrase is a false hit:
		// "go" inside "go with" is not the Go language.
		entities = dropOverlapping(entities, verbs)

		if len(entities) == 0 {
			if len(verbs) > 0 {
				prevVerb = &verbs[0]
			}
			continue
		}

		if len(verbs) == 0 {
			switch {
			case negativeContext.MatchString(cl.Text):
				for _, ent := range entities {
					all = append(all, e.fact(ent, model.VerbDeprecation, cl.Index, model.ConfidenceConfirmed, ""))
				}
				prevVerb = nil
			case prevVerb != nil:
				// Verb-context inheritance: "we use X for CI, Y for builds"
				for _, ent := range entities {
					all = append(all, e.fact(ent, prevVerb.category, cl.Index, model.ConfidenceConfirmed, ""))
				}
			}
			continue
		}

		all = append(all, e.inferClause(cl, entities, verbs)...)
		prevVerb = &verbs[0]
	}
	return all
}

// inferClause routes entities to verbs and applies migration fusion and the
// tentative override.
func (e *Knowledge) inferClause(cl clause.Clause, entities []entityHit, verbs []verbHit) []model.KnowledgeFact {
	tentative := false
	working := verbs[:0:0]
	for _, v := range verbs {
		if v.category == model.VerbTentative {
			tentative = true
			continue
		}
		working = append(working, v)
	}
	if !tentative && tentativeLead.MatchString(cl.Text) {
		tentative = true
	}

	if len(working) == 0 {
		// Only tentative cues: every entity is an unconfirmed assertion.
		var facts []model.KnowledgeFact
		for _, ent := range entities {
			facts = append(facts, e.fact(ent, model.VerbTentative, cl.Index, model.ConfidenceTentative, ""))
		}
		return facts
	}

	// Migration fusion first: a from/to pair becomes a single fact and
	// suppresses the standalone adoption and deprecation it implies.
	var facts []model.KnowledgeFact
	migrated := map[string]bool{}
	for _, v := range working {
		if v.category != model.VerbMigration {
			continue
		}
		from, to := e.migrationEndpoints(cl.Text, v, entities)
		if to == nil {
			continue
		}
		f := e.fact(*to, model.VerbMigration, cl.Index, model.ConfidenceConfirmed, "")
		if from != nil {
			f.From = from.entity.Canonical
			migrated[from.entity.Canonical] = true
		}
		migrated[to.entity.Canonical] = true
		if tentative {
			f.VerbCategory = model.VerbTentative
			f.Confidence = model.ConfidenceTentative
		}
		facts = append(facts, f)
	}

	// Standard routing: each remaining verb takes the nearest entity to its
	// right, falling back to the nearest on the left; entities left over
	// join their nearest verb.
	claimed := make([]bool, len(entities))
	for i := range entities {
		if migrated[entities[i].entity.Canonical] {
			claimed[i] = true
		}
	}
	type pairing struct {
		verb model.VerbCategory
		ent  entityHit
	}
	var pairs []pairing
	for _, v := range working {
		if v.category == model.VerbMigration {
			continue
		}
		idx := nearestEntity(v, entities, claimed)
		if idx < 0 {
			continue
		}
		claimed[idx] = true
		pairs = append(pairs, pairing{v.category, entities[idx]})
	}
	for i, ent := range entities {
		if claimed[i] {
			continue
		}
		if v := nearestVerb(ent, working); v != nil && v.category != model.VerbMigration {
			pairs = append(pairs, pairing{v.category, ent})
		}
	}

	for _, p := range pairs {
		category := p.verb
		confidence := model.ConfidenceConfirmed
		if tentative && (category == model.VerbAdoption || category == model.VerbMigration) {
			category = model.VerbTentative
			confidence = model.ConfidenceTentative
		}
		facts = append(facts, e.fact(p.ent, category, cl.Index, confidence, ""))
	}
	return facts
}

// migrationEndpoints decides which entity is being left and which adopted,
// using "from"/"to" keywords, arrow syntax, or position.
func (e *Knowledge) migrationEndpoints(text string, v verbHit, entities []entityHit) (from, to *entityHit) {
	if len(entities) == 0 {
		return nil, nil
	}
	if len(entities) == 1 {
		return nil, &entities[0]
	}

	lower := strings.ToLower(text)

	if loc := arrowRe.FindStringIndex(text); loc != nil {
		// "X -> Y": source before the arrow, target after
		var before, after *entityHit
		for i := range entities {
			ent := &entities[i]
			if ent.end <= loc[0] && (before == nil || ent.start > before.start) {
				before = ent
			}
			if ent.start >= loc[1] && (after == nil || ent.start < after.start) {
				after = ent
			}
		}
		if after != nil {
			return before, after
		}
	}

	fromPos := strings.Index(lower, " from ")
	toPos := strings.Index(lower, " to ")
	if fromPos >= 0 && toPos >= 0 {
		from = entityAfter(entities, fromPos+6)
		to = entityAfter(entities, toPos+4)
		if from != nil && to != nil && from != to {
			return from, to
		}
	}

	// No cue: entity after the verb is the target, entity before the source.
	var before, after *entityHit
	for i := range entities {
		ent := &entities[i]
		if ent.start >= v.end && (after == nil || ent.start < after.start) {
			after = ent
		}
		if ent.end <= v.start && (before == nil || ent.start > before.start) {
			before = ent
		}
	}
	if after == nil {
		after = &entities[len(entities)-1]
	}
	if before == after {
		before = nil
	}
	return before, after
}

// entityAfter returns the first entity starting at or past pos.
func entityAfter(entities []entityHit, pos int) *entityHit {
	var best *entityHit
	for i := range entities {
		ent := &entities[i]
		if ent.start >= pos && (best == nil || ent.start < best.start) {
			best = ent
		}
	}
	return best
}

func (e *Knowledge) fact(ent entityHit, category model.VerbCategory, clauseIndex int, confidence float64, from string) model.KnowledgeFact {
	return model.KnowledgeFact{
		Entity:       ent.entity.Canonical,
		Category:     ent.entity.Category,
		Slot:         e.tables.SlotFor(ent.entity.Category),
		VerbCategory: category,
		ClauseIndex:  clauseIndex,
		Confidence:   confidence,
		From:         from,
	}
}

// findEntities scans token windows of length 4 down to 1 against the
// taxonomy. Longer windows win; a token joins at most one entity.
func (e *Knowledge) findEntities(text string, tokens []normalize.Token) []entityHit {
	var found []entityHit
	used := make([]bool, len(tokens))

	for window := maxEntityWindow; window >= 1; window-- {
		for i := 0; i+window <= len(tokens); i++ {
			if anyUsed(used, i, i+window) {
				continue
			}
			phrase := text[tokens[i].Start:tokens[i+window-1].End]
			entity, ok := e.tables.LookupEntity(phrase)
			if !ok {
				continue
			}
			found = append(found, entityHit{
				hit: hit{
					first: i, last: i + window - 1,
					start: tokens[i].Start, end: tokens[i+window-1].End,
				},
				entity: entity,
			})
			markUsed(used, i, i+window)
		}
	}

	// Restore left-to-right order after the window sweep
	sortHitsByStart(found)
	return found
}

// findVerbs scans token windows of length 3 down to 1 against the ontology.
func (e *Knowledge) findVerbs(tokens []normalize.Token) []verbHit {
	var found []verbHit
	used := make([]bool, len(tokens))

	for window := maxVerbWindow; window >= 1; window-- {
		for i := 0; i+window <= len(tokens); i++ {
			if anyUsed(used, i, i+window) {
				continue
			}
			words := make([]string, 0, window)
			for j := i; j < i+window; j++ {
				words = append(words, strings.ToLower(tokens[j].Text))
			}
			phrase := strings.Join(words, " ")
			category, ok := e.tables.VerbCategory(phrase)
			if !ok {
				continue
			}
			found = append(found, verbHit{
				hit: hit{
					first: i, last: i + window - 1,
					start: tokens[i].Start, end: tokens[i+window-1].End,
				},
				phrase:   phrase,
				category: category,
			})
			markUsed(used, i, i+window)
		}
	}

	sortVerbsByStart(found)
	return found
}

func anyUsed(used []bool, from, to int) bool {
	for i := from; i < to; i++ {
		if used[i] {
			return true
		}
	}
	return false
}

func markUsed(used []bool, from, to int) {
	for i := from; i < to; i++ {
		used[i] = true
	}
}

func dropOverlapping(entities []entityHit, verbs []verbHit) []entityHit {
	if len(verbs) == 0 {
		return entities
	}
	kept := entities[:0]
	for _, ent := range entities {
		overlaps := false
		for _, v := range verbs {
			if ent.start < v.end && v.start < ent.end {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, ent)
		}
	}
	return kept
}

// nearestEntity picks the closest unclaimed entity to the right of the verb,
// falling back to the closest on the left.
func nearestEntity(v verbHit, entities []entityHit, claimed []bool) int {
	best, bestDist := -1, -1
	for i, ent := range entities {
		if claimed[i] || ent.start < v.end {
			continue
		}
		d := ent.start - v.end
		if best == -1 || d < bestDist {
			best, bestDist = i, d
		}
	}
	if best >= 0 {
		return best
	}
	for i, ent := range entities {
		if claimed[i] || ent.end > v.start {
			continue
		}
		d := v.start - ent.end
		if best == -1 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// nearestVerb returns the verb whose span is closest to the entity.
func nearestVerb(ent entityHit, verbs []verbHit) *verbHit {
	var best *verbHit
	bestDist := -1
	for i := range verbs {
		v := &verbs[i]
		var d int
		switch {
		case ent.start >= v.end:
			d = ent.start - v.end
		case ent.end <= v.start:
			d = v.start - ent.end
		default:
			d = 0
		}
		if best == nil || d < bestDist {
			best, bestDist = v, d
		}
	}
	return best
}

func sortHitsByStart(hits []entityHit) {
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].start < hits[j-1].start; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}
}

func sortVerbsByStart(hits []verbHit) {
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].start < hits[j-1].start; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}
}
