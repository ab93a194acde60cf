// Package diff marks word-level differences between an original and a
// rewritten text.
//
// The comparison is set-membership, not positional alignment: a token is
// marked only when the exact string appears nowhere on the other side, so a
// word that moved or changed repetition count is never marked. That
// understates similarity compared to an edit-distance diff; the weaker
// semantics are intentional and relied on by the display layer.
package diff

import "unicode"

// Mark annotates one span of a diffed text.
type Mark int

// Span marks. Whitespace spans are always None.
const (
	None Mark = iota
	Removed
	Added
)

// Span is one token of the input, either a maximal run of non-whitespace or
// a maximal run of whitespace, reproduced verbatim. Concatenating the Text of
// a side's spans reconstructs that input byte-for-byte.
type Span struct {
	Text string
	Mark Mark
}

// Compute annotates both texts. Original tokens absent from the rewritten
// side are Removed; rewritten tokens absent from the original side are Added.
// Deterministic for given inputs.
func Compute(original, rewritten string) (orig, rew []Span) {
	origTokens := tokenize(original)
	rewTokens := tokenize(rewritten)

	origSet := wordSet(origTokens)
	rewSet := wordSet(rewTokens)

	orig = annotate(origTokens, rewSet, Removed)
	rew = annotate(rewTokens, origSet, Added)
	return orig, rew
}

// Reconstruct concatenates a span sequence back into the source text.
func Reconstruct(spans []Span) string {
	var n int
	for _, s := range spans {
		n += len(s.Text)
	}
	out := make([]byte, 0, n)
	for _, s := range spans {
		out = append(out, s.Text...)
	}
	return string(out)
}

// tokenize splits text into alternating runs of non-whitespace and
// whitespace, both kept verbatim.
func tokenize(text string) []string {
	var tokens []string
	runes := []rune(text)
	start := 0
	for i := 0; i <= len(runes); i++ {
		boundary := i == len(runes) ||
			(i > start && unicode.IsSpace(runes[i]) != unicode.IsSpace(runes[start]))
		if boundary && i > start {
			tokens = append(tokens, string(runes[start:i]))
			start = i
		}
	}
	return tokens
}

func isWhitespace(token string) bool {
	for _, r := range token {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

func wordSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if !isWhitespace(t) {
			set[t] = struct{}{}
		}
	}
	return set
}

func annotate(tokens []string, other map[string]struct{}, absent Mark) []Span {
	spans := make([]Span, 0, len(tokens))
	for _, t := range tokens {
		mark := None
		if !isWhitespace(t) {
			if _, ok := other[t]; !ok {
				mark = absent
			}
		}
		spans = append(spans, Span{Text: t, Mark: mark})
	}
	return spans
}
