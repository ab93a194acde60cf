// Package model contains domain models passed between layers.
package model

import "time"

// Action identifies which processing mode produced a result.
type Action string

// Supported actions.
const (
	ActionClean   Action = "clean"
	ActionRewrite Action = "rewrite"
)

// Strength selects how aggressively the upstream pipeline rewrites text.
type Strength string

// Supported rewrite strengths.
const (
	StrengthLight      Strength = "light"
	StrengthMedium     Strength = "medium"
	StrengthAggressive Strength = "aggressive"
)

// Change describes one transformation applied by the pipeline.
type Change struct {
	Description string `json:"description"`
	TextBefore  string `json:"text_before,omitempty"`
	TextAfter   string `json:"text_after,omitempty"`
}

// Result is the final bundle delivered by a terminal done event, or by the
// non-streaming clean path (in which case only CleanText and Changes are set).
type Result struct {
	CleanText        string   `json:"clean_text"`
	RewrittenText    string   `json:"rewritten_text,omitempty"`
	Changes          []Change `json:"changes,omitempty"`
	RewrittenMetrics *Metrics `json:"rewritten_metrics,omitempty"`
}

// Metrics bundles the per-category readings computed by the pipeline's
// verification pass. Every category is optional: a nil pointer means the
// category was not computed, which is distinct from a zero reading.
type Metrics struct {
	SentenceVariance   *SentenceVariance   `json:"sentence_variance,omitempty"`
	AIPhrases          *AIPhrases          `json:"ai_phrases,omitempty"`
	Hedging            *Hedging            `json:"hedging,omitempty"`
	VerbFrequency      *VerbFrequency      `json:"verb_frequency,omitempty"`
	Repetition         *Repetition         `json:"repetition,omitempty"`
	PunctuationProfile *PunctuationProfile `json:"punctuation_profile,omitempty"`
}

// SentenceVariance categorizes sentence-length burstiness.
type SentenceVariance struct {
	Category string `json:"category,omitempty"` // "burstive", "moderate", "uniform"
}

// AIPhrases reports formulaic phrases detected in the text.
type AIPhrases struct {
	Count   int      `json:"count"`
	Phrases []string `json:"phrases,omitempty"`
}

// Hedging reports the density of hedging/filler constructions.
type Hedging struct {
	FillerDensity float64 `json:"filler_density"`
}

// VerbFrequency reports the density of verbs characteristic of machine text.
type VerbFrequency struct {
	AIVerbDensity float64 `json:"ai_verb_density"`
}

// Repetition reports repeated keyphrases.
type Repetition struct {
	Count int `json:"count"`
}

// PunctuationProfile reports how rigidly structured the punctuation is.
type PunctuationProfile struct {
	StructureRatio float64 `json:"structure_ratio"`
}

// FlaggedPhrases returns the flagged phrase list, or nil when the ai_phrases
// category was not computed.
func (m *Metrics) FlaggedPhrases() []string {
	if m == nil || m.AIPhrases == nil {
		return nil
	}
	return m.AIPhrases.Phrases
}

// HistoryEntry is a candidate session record. The app layer produces entries
// and hands them to the history store verbatim; nothing in the core reads
// stored entries back.
type HistoryEntry struct {
	ID         string
	ActionType Action
	InputText  string
	OutputText string
	CreatedAt  time.Time
}
