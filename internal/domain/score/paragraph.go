// Package score grades the paragraphs of a rewritten text using the
// verification metrics that rode along with it.
package score

import (
	"math"
	"regexp"
	"strings"
	"unicode"
)

// Severity buckets for a paragraph grade.
const (
	SeverityGood = "good"
	SeverityWarn = "warn"
	SeverityBad  = "bad"
)

// Labels assigned by the grading policy.
const (
	LabelAIPhrase      = "AI Phrase"
	LabelUniform       = "Uniform"
	LabelLongSentences = "Long sentences"
	LabelNatural       = "Natural"
)

// Grading thresholds.
const (
	previewRunes        = 80
	uniformVarianceMax  = 5  // below this, sentence lengths read as machine-uniform
	uniformMinSentences = 2  // uniformity only means something past this many sentences
	longSentenceAvg     = 25 // average words per sentence above this reads as run-on
)

var paragraphBreak = regexp.MustCompile(`\n{2,}`)

// Paragraph is the grade for one paragraph, in input order.
type Paragraph struct {
	Index         int    `json:"index"`
	Preview       string `json:"preview"`
	WordCount     int    `json:"word_count"`
	SentenceCount int    `json:"sentence_count"`
	AvgSentenceLen int   `json:"avg_sentence_length"`
	Label         string `json:"label"`
	Severity      string `json:"severity"`
}

// Paragraphs splits rewritten text on blank lines and grades each paragraph.
// Single-paragraph input returns nil: the comparison between paragraphs is
// the whole point, so the analysis is skipped entirely. flaggedPhrases is the
// (possibly nil) ai_phrases list from the metrics bundle, matched
// case-insensitively as substrings.
func Paragraphs(rewritten string, flaggedPhrases []string) []Paragraph {
	var paras []string
	for _, p := range paragraphBreak.Split(rewritten, -1) {
		if strings.TrimSpace(p) != "" {
			paras = append(paras, p)
		}
	}
	if len(paras) < 2 {
		return nil
	}

	lowered := make([]string, len(flaggedPhrases))
	for i, p := range flaggedPhrases {
		lowered[i] = strings.ToLower(p)
	}

	out := make([]Paragraph, 0, len(paras))
	for i, para := range paras {
		out = append(out, grade(i, para, lowered))
	}
	return out
}

func grade(index int, para string, flagged []string) Paragraph {
	words := strings.Fields(para)
	sentences := splitSentences(para)

	avg := len(words)
	if len(sentences) > 0 {
		avg = roundDiv(len(words), len(sentences))
	}

	variance := 0
	if len(sentences) > 1 {
		var sum float64
		for _, s := range sentences {
			d := float64(len(strings.Fields(s)) - avg)
			sum += d * d
		}
		variance = int(math.Round(sum / float64(len(sentences))))
	}

	label, severity := LabelNatural, SeverityGood
	switch {
	case containsAny(strings.ToLower(para), flagged):
		label, severity = LabelAIPhrase, SeverityBad
	case variance < uniformVarianceMax && len(sentences) > uniformMinSentences:
		label, severity = LabelUniform, SeverityWarn
	case avg > longSentenceAvg:
		label, severity = LabelLongSentences, SeverityWarn
	}

	return Paragraph{
		Index:          index,
		Preview:        preview(para),
		WordCount:      len(words),
		SentenceCount:  len(sentences),
		AvgSentenceLen: avg,
		Label:          label,
		Severity:       severity,
	}
}

// splitSentences segments at boundaries where '.', '!' or '?' is followed by
// whitespace. Trimmed empty segments are discarded.
func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if (r == '.' || r == '!' || r == '?') &&
			i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
				sentences = append(sentences, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func containsAny(lowered string, phrases []string) bool {
	for _, p := range phrases {
		if p != "" && strings.Contains(lowered, p) {
			return true
		}
	}
	return false
}

func preview(para string) string {
	runes := []rune(para)
	if len(runes) <= previewRunes {
		return para
	}
	return string(runes[:previewRunes]) + "..."
}

func roundDiv(a, b int) int {
	return int(math.Round(float64(a) / float64(b)))
}
