package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ppiankov/groundcheck/internal/clause"
	"github.com/ppiankov/groundcheck/internal/model"
	"github.com/ppiankov/groundcheck/internal/normalize"
)

// slotLexicon maps noun-phrase surfaces to canonical slot names for the
// named-slot copular family. Multi-word surfaces are matched longest-first.
var slotLexicon = map[string]string{
	"name":                   "name",
	"employer":               "employer",
	"company":                "employer",
	"location":               "location",
	"city":                   "location",
	"hometown":               "location",
	"title":                  "title",
	"role":                   "title",
	"job title":              "title",
	"occupation":             "occupation",
	"job":                    "occupation",
	"age":                    "age",
	"school":                 "school",
	"university":             "school",
	"degree":                 "degree",
	"major":                  "major",
	"minor":                  "minor",
	"favorite color":         "favorite_color",
	"favourite color":        "favorite_color",
	"favorite food":          "favorite_food",
	"coffee":                 "coffee",
	"coffee preference":      "coffee",
	"hobby":                  "hobby",
	"pet":                    "pet",
	"project":                "project",
	"graduation year":        "graduation_year",
	"programming experience": "programming_experience",
	"team size":              "team_size",
	"budget":                 "budget",
	"salary":                 "salary",
	"height":                 "height",
	"weight":                 "weight",
	"diet":                   "diet",
	"birthday":               "birthday",
	"editor":                 "editor",
	"database":               "database",
	"framework":              "framework",
	"frontend":               "frontend",
	"backend":                "backend",
	"cloud":                  "cloud",
	"stack":                  "stack",
	"os":                     "os",
	"operating system":       "os",
	"timeout":                "timeout",
	"port":                   "port",
	"max retries":            "max_retries",
	"api url":                "api_url",
	"goal":                   "goal",
	"language":               "programming_language",
	"favorite language":      "programming_language",
}

// subjectBlocklist rejects subjects that are too generic to carry a fact,
// plus question words so interrogatives never extract.
var subjectBlocklist = map[string]bool{
	"it": true, "this": true, "that": true, "there": true,
	"he": true, "she": true, "they": true, "we": true, "you": true, "i": true,
	"thing": true, "stuff": true, "problem": true, "issue": true,
	"point": true, "question": true, "answer": true, "fact": true,
	"truth": true, "reason": true, "way": true, "idea": true,
	"what": true, "who": true, "why": true, "when": true, "where": true,
	"how": true, "which": true,
}

var questionLead = []string{
	"what ", "where ", "when ", "why ", "how ", "who ", "which ", "whose ",
	"do ", "does ", "did ", "can ", "could ", "should ", "would ",
	"is ", "are ", "am ", "was ", "were ", "tell me ",
}

// Profile idioms: first/second/third-person phrasings that assert a named
// slot without the copular shape the lexicon rule expects.
var (
	reName         = regexp.MustCompile(`\b(?:[Mm]y name is|[Yy]our name is|[Uu]ser'?s name is|[Cc]all me|(?:is|am|are)\s+named|[Ii]'?m called)\s+([A-Z][A-Za-z'-]+(?:\s+[A-Z][A-Za-z'-]+){0,2})`)
	reEmployer     = regexp.MustCompile(`\b(?:[Ii]|[Yy]ou|[Uu]ser|[Hh]e|[Ss]he|[Tt]hey)\s+(?:currently\s+)?(?:works?\s+(?:at|for)|(?:is|am|are)\s+employed\s+(?:by|at))\s+([A-Z][\w&.'-]*(?:\s+[A-Z][\w&.'-]*)*)`)
	reEmployerCont = regexp.MustCompile(`\band\s+works?\s+(?:at|for)\s+([A-Z][\w&.'-]*(?:\s+[A-Z][\w&.'-]*)*)`)
	reLocation     = regexp.MustCompile(`\b(?:lives?|living|resides?|based|settled|moved\s+to)\s+(?:in\s+)?([A-Z][A-Za-z.'-]*(?:\s+[A-Z][A-Za-z.'-]*)*)`)
	reAge          = regexp.MustCompile(`\b(?:[Ii]'?m|[Ii] am|[Yy]ou are|[Yy]ou'?re|[Uu]ser is|[Hh]e is|[Ss]he is)\s+(\d{1,3})(?:\s+years?\s+old)?\b`)
	reSchool       = regexp.MustCompile(`\b(?:graduated\s+from|studied\s+at|attends?|went\s+to)\s+([A-Z][A-Za-z.'-]*(?:\s+[A-Z][A-Za-z.'-]*)*)`)
	reGradYear     = regexp.MustCompile(`\bgraduated\b.*?\bin\s+((?:19|20)\d\d)\b`)
)

type profileRule struct {
	name string
	slot string
	re   *regexp.Regexp
}

var profileRules = []profileRule{
	{"name", "name", reName},
	{"employer", "employer", reEmployer},
	{"employer_cont", "employer", reEmployerCont},
	{"location", "location", reLocation},
	{"age", "age", reAge},
	{"school", "school", reSchool},
	{"graduation_year", "graduation_year", reGradYear},
}

// Generic families 2-9. Each rule captures (subject, value) unless the slot
// is fixed. The first matching rule consumes the clause.
type genericRule struct {
	name string
	re   *regexp.Regexp
}

var genericRules = []genericRule{
	{name: "config", re: regexp.MustCompile(`(?i)\b((?:[a-z][a-z_]*\s+){0,2}[a-z][a-z_]*)\s+(?:is\s+set\s+to|is\s+configured\s+(?:as|to)|equals|=)\s+(.+)$`)},
	{name: "passive", re: regexp.MustCompile(`(?i)\b([a-z][a-z' ]{0,30}?)\s+(?:is|are)\s+(?:handled|managed|done|performed|served|implemented|achieved|provided)\s+(?:via|by|through|using|with)\s+(.+)$`)},
	{name: "prescriptive", re: regexp.MustCompile(`(?i)\b((?:[a-z][a-z_]*\s+){0,2}[a-z][a-z_]*)\s+(?:should\s+be|must\s+be|needs?\s+to\s+be|has\s+to\s+be|ought\s+to\s+be)\s+(.+)$`)},
	{name: "requirement", re: regexp.MustCompile(`(?i)\b(?:the\s+|our\s+|my\s+|their\s+)?([a-z][a-z' ]{0,30}?)\s+(?:requires?|needs?|demands?|mandates?)\s+(.+)$`)},
	{name: "verb", re: regexp.MustCompile(`(?i)\b(?:the\s+|our\s+|my\s+|their\s+)?([a-z][a-z' ]{0,30}?)\s+(?:uses?|handles?|supports?|runs?|manufactures?|chose|picked|selected|provides?|utilizes?|leverages?|relies\s+on|is\s+powered\s+by)\s+(.+)$`)},
	{name: "bare_copular", re: regexp.MustCompile(`(?i)^((?:[a-z][a-z_]*\s+){0,2}[a-z][a-z_]*)\s+(?:is|are|was|were)\s+(.+)$`)},
	{name: "have", re: regexp.MustCompile(`(?i)\b(?:the\s+|our\s+|my\s+|their\s+)?([a-z][a-z' ]{0,30}?)\s+(?:has|have)\s+(.+)$`)},
}

var (
	reDecision   = regexp.MustCompile(`(?i)\b(?:we|they|i|the team)\s+(?:agreed|decided|chose|picked|opted|committed)\s+(?:to\s+)?(?:use\s+|go\s+with\s+|adopt\s+|implement\s+|switch\s+to\s+)?(.+)$`)
	reImperative = regexp.MustCompile(`^(?:[Aa]lways|[Nn]ever)\s+(?:[a-z]+)\s+(.+)$`)

	reAPIStyle     = regexp.MustCompile(`(?i)\b(?:REST|GraphQL|SOAP|gRPC)\b`)
	reArchitecture = regexp.MustCompile(`(?i)arch|pattern|micro|mono`)

	// Values opening with these belong to a later, more specific family.
	reDeferredValue = regexp.MustCompile(`(?i)^(?:set\s+to|configured|handled|managed|done|performed|served|implemented|provided)\b`)
	// Values opening with a continuation word are not facts.
	reContinuation = regexp.MustCompile(`(?i)^(?:that|not|also|just|still|always|never|really|very|to)\b`)

	reValueCut   = regexp.MustCompile(`(?i)\s+\b(?:and|but|though|however|which|because|so)\b\s`)
	reNonSlot    = regexp.MustCompile(`[^a-z0-9_]+`)
	reLeadOpener = regexp.MustCompile(`(?i)^(?:my|your|our|his|her|their|the|a|an)\s+`)
)

// lexiconRe is built from slotLexicon at init: the named-slot copular family.
var lexiconRe = buildLexiconRe()

func buildLexiconRe() *regexp.Regexp {
	surfaces := make([]string, 0, len(slotLexicon))
	for s := range slotLexicon {
		surfaces = append(surfaces, s)
	}
	// Longest surface first so "favorite language" beats "language"
	sort.Slice(surfaces, func(i, j int) bool {
		if len(surfaces[i]) != len(surfaces[j]) {
			return len(surfaces[i]) > len(surfaces[j])
		}
		return surfaces[i] < surfaces[j]
	})
	for i, s := range surfaces {
		surfaces[i] = regexp.QuoteMeta(s)
	}
	return regexp.MustCompile(
		`(?i)\b(?:my|your|our|their|his|her|the|user'?s)\s+(` +
			strings.Join(surfaces, "|") +
			`)\s+(?:is|am|are|was|were)\s+(.+)$`)
}

// Tier1 extracts facts with the nine pattern families over split clauses.
type Tier1 struct{}

// NewTier1 creates the pattern extractor.
func NewTier1() *Tier1 {
	return &Tier1{}
}

// Extract returns one fact per slot, keyed by slot name. The first clause to
// claim a slot wins; later clauses never overwrite it.
func (e *Tier1) Extract(text string) map[string]model.ExtractedFact {
	facts := make(map[string]model.ExtractedFact)
	if strings.TrimSpace(text) == "" {
		return facts
	}

	for _, cl := range clause.Split(text) {
		if isQuestion(cl.Text) {
			continue
		}
		e.extractClause(cl, facts)
	}
	return facts
}

func (e *Tier1) extractClause(cl clause.Clause, facts map[string]model.ExtractedFact) {
	consumed := false

	// Family 1: named-slot copular via the lexicon. The only family allowed
	// to emit multiple facts from one clause.
	for _, m := range lexiconRe.FindAllStringSubmatchIndex(cl.Text, -1) {
		surface := strings.ToLower(cl.Text[m[2]:m[3]])
		slot, ok := slotLexicon[surface]
		if !ok || reDeferredValue.MatchString(cl.Text[m[4]:m[5]]) {
			continue
		}
		if e.store(facts, slot, cl, m[4], m[5], "named_slot") {
			consumed = true
		}
	}

	// Profile idioms are part of family 1 in spirit: they name the slot.
	for _, rule := range profileRules {
		m := rule.re.FindStringSubmatchIndex(cl.Text)
		if m == nil {
			continue
		}
		if e.store(facts, rule.slot, cl, m[2], m[3], rule.name) {
			consumed = true
		}
	}
	if consumed {
		return
	}

	// Family 6: decision. Runs before the generic subject-value rules
	// because its subject pronouns are blocklisted there.
	if m := reDecision.FindStringSubmatchIndex(cl.Text); m != nil {
		value := trimValue(cl.Text[m[2]:m[3]])
		slot := "decision"
		switch {
		case reAPIStyle.MatchString(value):
			slot = "api_style"
		case reArchitecture.MatchString(value):
			slot = "architecture"
		}
		if e.store(facts, slot, cl, m[2], m[3], "decision") {
			return
		}
	}

	// Family 7b: leading Always/Never imperative.
	if m := reImperative.FindStringSubmatchIndex(cl.Text); m != nil {
		if e.store(facts, "policy", cl, m[2], m[3], "prescriptive") {
			return
		}
	}

	// Families 2-9, first match consumes the clause.
	for _, rule := range genericRules {
		m := rule.re.FindStringSubmatchIndex(cl.Text)
		if m == nil {
			continue
		}
		subject := cl.Text[m[2]:m[3]]
		value := cl.Text[m[4]:m[5]]
		if rule.name == "bare_copular" && reDeferredValue.MatchString(value) {
			continue
		}
		slot := slotify(subject)
		if slot == "" || subjectBlocklist[slot] {
			continue
		}
		if lexSlot, ok := slotLexicon[strings.ReplaceAll(slot, "_", " ")]; ok {
			slot = lexSlot
		}
		if e.store(facts, slot, cl, m[4], m[5], rule.name) {
			return
		}
	}
}

// store validates and records a fact whose value occupies cl.Text[vs:ve].
// Returns true when the fact was accepted.
func (e *Tier1) store(facts map[string]model.ExtractedFact, slot string, cl clause.Clause, vs, ve int, rule string) bool {
	raw := cl.Text[vs:ve]
	value := trimValue(raw)
	if value == "" || reContinuation.MatchString(value) {
		return false
	}
	if _, exists := facts[slot]; exists {
		return false
	}
	// The trimmed value always prefixes the raw capture, so the span start
	// is exact and the end shrinks with the trim.
	start := cl.Start + vs + strings.Index(raw, value[:1])
	facts[slot] = model.ExtractedFact{
		Slot:       slot,
		Value:      value,
		Normalized: normalize.Value(value),
		Span:       model.Span{Start: start, End: start + len(value)},
		Origin:     model.Origin{Tier: model.TierPattern, Rule: rule},
	}
	return true
}

// trimValue cleans a raw value capture: cut at trailing conjunctions,
// strip sentence punctuation while keeping decimals, collapse whitespace.
func trimValue(v string) string {
	if loc := reValueCut.FindStringIndex(v); loc != nil {
		v = v[:loc[0]]
	}
	v = strings.TrimSpace(v)
	// Trailing period is sentence punctuation unless preceded by a digit
	// with a digit after it, which cannot happen at end-of-string.
	v = strings.TrimRight(v, ".,;:!?")
	return strings.Join(strings.Fields(v), " ")
}

// slotify turns a free-text subject into a slot identifier.
func slotify(subject string) string {
	subject = reLeadOpener.ReplaceAllString(strings.TrimSpace(subject), "")
	subject = strings.ToLower(strings.TrimSpace(subject))
	subject = reNonSlot.ReplaceAllString(subject, "_")
	return strings.Trim(subject, "_")
}

// isQuestion rejects interrogative clauses before extraction.
func isQuestion(text string) bool {
	t := strings.TrimSpace(text)
	if t == "" {
		return true
	}
	if strings.Contains(t, "?") {
		return true
	}
	lower := strings.ToLower(t)
	for _, lead := range questionLead {
		if strings.HasPrefix(lower, lead) {
			return true
		}
	}
	return false
}
