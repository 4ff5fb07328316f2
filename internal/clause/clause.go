// Package clause breaks sentences into sub-clauses so the extractors can
// treat each asserted fact independently. Splitting never crosses a
// sentence boundary.
package clause

import (
	"strings"

	"github.com/ppiankov/groundcheck/internal/normalize"
)

// Clause is one sub-clause with its 0-based ordinal and the byte offset of
// its first character in the original text.
type Clause struct {
	Text  string
	Index int
	Start int
}

// Coordinating conjunctions split a sentence only when what follows looks
// like a full clause (noun phrase + verb), so "cats and dogs" stays whole.
var coordinating = map[string]bool{"and": true, "or": true, "but": true}

// Temporal subordinators always open a new clause: "went with X after the
// Y disaster" carries two separate assertions.
var subordinating = map[string]bool{"after": true, "before": true, "since": true}

// clauseVerbs is the lookahead set used to decide whether a conjunction
// joins two full clauses.
var clauseVerbs = map[string]bool{
	"is": true, "are": true, "was": true, "were": true, "am": true,
	"has": true, "have": true, "had": true,
	"uses": true, "use": true, "used": true, "runs": true, "run": true,
	"needs": true, "need": true, "requires": true, "require": true,
	"supports": true, "handles": true, "works": true, "work": true,
	"lives": true, "live": true, "went": true, "go": true, "goes": true,
	"chose": true, "picked": true, "selected": true, "decided": true,
	"moved": true, "migrated": true, "switched": true, "dropped": true,
	"should": true, "must": true, "will": true, "can": true, "cannot": true,
	"prefers": true, "prefer": true, "likes": true, "like": true,
}

// Split decomposes text into clauses. Boundaries are sentence terminators,
// semicolons, commas outside quoted spans and balanced parentheses, temporal
// subordinators, and coordinating conjunctions that join full clauses.
func Split(text string) []Clause {
	var clauses []Clause
	start := 0
	depth := 0
	inQuote := false

	flush := func(end int) {
		raw := text[start:end]
		trimmed := strings.TrimSpace(raw)
		trimmed = strings.TrimRight(trimmed, ".!?;,")
		trimmed = strings.TrimSpace(trimmed)
		if len(trimmed) >= 2 {
			offset := start + strings.Index(raw, trimmed[:1])
			clauses = append(clauses, Clause{Text: trimmed, Index: len(clauses), Start: offset})
		}
		start = end
	}

	i := 0
	for i < len(text) {
		c := text[i]
		switch c {
		case '"':
			inQuote = !inQuote
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		case '.':
			// Decimal periods sit directly between digits; sentence periods
			// are followed by space or end-of-text.
			if i+1 >= len(text) || text[i+1] == ' ' || text[i+1] == '\n' || text[i+1] == '\t' {
				i++
				flush(i)
				continue
			}
		case '!', '?', ';':
			i++
			flush(i)
			continue
		case ',':
			if !inQuote && depth == 0 {
				i++
				flush(i)
				continue
			}
		case ' ':
			word, wordEnd := nextWord(text, i+1)
			lower := strings.ToLower(word)
			if subordinating[lower] && !inQuote && depth == 0 {
				flush(i)
				i = wordEnd
				start = wordEnd
				continue
			}
			if coordinating[lower] && !inQuote && depth == 0 && startsClause(text[wordEnd:]) {
				flush(i)
				i = wordEnd
				start = wordEnd
				continue
			}
		}
		i++
	}
	flush(len(text))

	if len(clauses) == 0 {
		trimmed := strings.TrimSpace(text)
		if trimmed != "" {
			clauses = append(clauses, Clause{Text: trimmed, Index: 0, Start: 0})
		}
	}
	return clauses
}

// nextWord returns the word beginning at or after pos and the offset just
// past it.
func nextWord(text string, pos int) (string, int) {
	for pos < len(text) && text[pos] == ' ' {
		pos++
	}
	end := pos
	for end < len(text) && text[end] != ' ' && text[end] != ',' && text[end] != '.' {
		end++
	}
	return text[pos:end], end
}

// startsClause reports whether the text opens with a noun phrase followed by
// a verb within a short window — the heuristic for "full clause follows".
func startsClause(text string) bool {
	tokens := normalize.Tokenize(text)
	if len(tokens) == 0 {
		return false
	}
	limit := 5
	if len(tokens) < limit {
		limit = len(tokens)
	}
	// First token must be able to head a noun phrase: reject an immediate verb
	// ("and live in Seattle" continues the current clause's subject).
	first := strings.ToLower(tokens[0].Text)
	if clauseVerbs[first] {
		return false
	}
	for _, tok := range tokens[1:limit] {
		if clauseVerbs[strings.ToLower(tok.Text)] {
			return true
		}
	}
	return false
}
