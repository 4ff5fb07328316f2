// Package normalize provides the canonical text forms used throughout the
// verification pipeline. Every comparison in the extractor, contradiction
// engine, and grounder goes through Value, so it must be deterministic:
// the same input always yields the same output.
package normalize

import (
	"strings"
	"unicode"
)

// Articles and possessive pronouns stripped from the head of noun phrases
// during value normalization.
var stripWords = map[string]bool{
	"a": true, "an": true, "the": true,
	"my": true, "your": true, "our": true, "their": true,
	"his": true, "her": true, "its": true,
}

// Token is one unit of the source text with its byte offsets preserved.
// Offsets refer to the original string, so downstream rewrites can
// substitute spans without re-searching.
type Token struct {
	Text  string
	Start int
	End   int
}

// Tokenize splits text into offset-carrying tokens. Decimal numerics like
// "99.9%" and "v3.11" stay single tokens: internal periods between
// alphanumerics are kept, sentence punctuation is trimmed.
func Tokenize(text string) []Token {
	var tokens []Token
	i := 0
	n := len(text)
	for i < n {
		// Skip whitespace and standalone punctuation
		if !isWordByte(text[i]) {
			i++
			continue
		}
		start := i
		for i < n {
			c := text[i]
			if isWordByte(c) {
				i++
				continue
			}
			// Internal period/hash/plus glued between word bytes stays in
			// the token ("v3.11", "c++", "c#", "fly.io").
			if (c == '.' || c == '#' || c == '+' || c == '\'' || c == '-' || c == '_' || c == '/') &&
				i+1 < n && isWordByte(text[i+1]) {
				i++
				continue
			}
			if c == '%' || c == '+' || c == '#' {
				i++
			}
			break
		}
		tokens = append(tokens, Token{Text: text[start:i], Start: start, End: i})
	}
	return tokens
}

func isWordByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c >= 0x80
}

// Value normalizes a raw extracted value for comparison: lowercase, leading
// articles and possessives stripped, the articles a/an/the dropped wherever
// they occur, whitespace collapsed, sentence punctuation removed while
// decimal periods survive.
func Value(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = trimPunct(f)
		if f == "" {
			continue
		}
		// Possessives are stripped only while the noun phrase is still
		// opening; articles are dropped at any position
		if len(out) == 0 && stripWords[f] {
			continue
		}
		if stripWords[f] && len(f) <= 3 && isArticle(f) {
			continue
		}
		out = append(out, f)
	}
	return strings.Join(out, " ")
}

func isArticle(f string) bool {
	return f == "a" || f == "an" || f == "the"
}

// Text lowercases and collapses whitespace without touching anything else.
// Used for whole-sentence comparison where article stripping would distort
// phrase structure.
func Text(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// trimPunct removes leading and trailing punctuation from a token while
// keeping internal periods ("v3.11") and trailing percent signs ("99.9%").
func trimPunct(s string) string {
	start := 0
	for start < len(s) && isTrimmable(rune(s[start])) {
		start++
	}
	end := len(s)
	for end > start {
		r := rune(s[end-1])
		if r == '%' {
			break
		}
		// A trailing period after a digit is sentence punctuation too:
		// decimals always have a digit after the period.
		if isTrimmable(r) || r == '.' {
			end--
			continue
		}
		break
	}
	return s[start:end]
}

func isTrimmable(r rune) bool {
	switch r {
	case '.', ',', ';', ':', '!', '?', '"', '\'', '(', ')', '[', ']', '{', '}':
		return true
	}
	return unicode.IsSpace(r)
}
