// Package simstream emulates the humanizer pipeline service: it scripts and
// serves the NDJSON event sequence a real pipeline run would stream, so the
// client can be exercised end to end without the upstream service.
package simstream

import (
	"encoding/json"
	"math/rand"
	"strings"

	loremgen "github.com/bozaro/golorem"

	"github.com/unhype/unhype/internal/domain/model"
)

// Default generation constants.
const (
	defaultChunkWords = 6
	defaultSeed       = 42
	scoreMax          = 10.0
)

// Generator scripts pipeline runs. Deterministic for a given seed, so tests
// can assert on scripted output.
type Generator struct {
	lorem      *loremgen.Lorem
	rng        *rand.Rand
	chunkWords int
	failAtStep string // emit an error event when this step is reached
	noiseEvery int    // inject a malformed line every n-th event, 0 = never
	omitScore  bool
}

// GenOption applies a configuration option to the Generator.
type GenOption func(*Generator)

// WithChunkWords sets how many words each chunk event carries.
func WithChunkWords(n int) GenOption {
	return func(g *Generator) {
		if n > 0 {
			g.chunkWords = n
		}
	}
}

// WithFailAtStep makes the script fail with an error event at the named step
// instead of completing.
func WithFailAtStep(step string) GenOption {
	return func(g *Generator) {
		g.failAtStep = step
	}
}

// WithNoiseEvery interleaves a malformed line after every n-th event, to
// exercise the client's framing-noise tolerance.
func WithNoiseEvery(n int) GenOption {
	return func(g *Generator) {
		if n > 0 {
			g.noiseEvery = n
		}
	}
}

// WithoutScore drops the trailing ai_score event from the script.
func WithoutScore() GenOption {
	return func(g *Generator) {
		g.omitScore = true
	}
}

// WithSeed makes the run reproducible under a specific seed.
func WithSeed(seed int64) GenOption {
	return func(g *Generator) {
		g.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // simulation, not crypto
	}
}

// NewGenerator creates a generator with configuration options.
func NewGenerator(opts ...GenOption) *Generator {
	g := &Generator{
		lorem:      loremgen.New(),
		rng:        rand.New(rand.NewSource(defaultSeed)), //nolint:gosec // deterministic simulation
		chunkWords: defaultChunkWords,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CleanText simulates the sanitization pass: collapse runs of blank lines and
// trim trailing whitespace per line. The pipeline's real cleaning is opaque
// to the client; any stable transformation works here.
func (g *Generator) CleanText(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, l := range lines {
		l = strings.TrimRight(l, " \t")
		if strings.TrimSpace(l) == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, l)
	}
	return strings.TrimRight(strings.Join(out, "\n"), "\n")
}

// RewriteText simulates the rewrite: one generated paragraph per input
// paragraph, so the output keeps the original's shape.
func (g *Generator) RewriteText(cleanText string) string {
	count := len(strings.Split(cleanText, "\n\n"))
	if count < 1 {
		count = 1
	}
	paras := make([]string, count)
	for i := range paras {
		paras[i] = g.lorem.Paragraph(2, 5)
	}
	return strings.Join(paras, "\n\n")
}

// Script produces the full run as NDJSON lines, each without the trailing
// newline. The sequence mirrors a real run: clean stage with its text,
// analyzed, rewritten text as word chunks, humanizing, verifying, done,
// then the supplementary ai_score.
func (g *Generator) Script(text string) []string {
	cleanText := g.CleanText(text)
	rewritten := g.RewriteText(cleanText)

	var lines []string
	emit := func(typ string, data any) {
		lines = append(lines, wireLine(typ, data))
		if g.noiseEvery > 0 && len(lines)%g.noiseEvery == 0 {
			lines = append(lines, `{"type": "stage", truncated garbage`)
		}
	}

	emit("stage", map[string]string{"step": "clean", "clean_text": cleanText})
	if g.failAtStep == "clean" {
		emit("error", "simulated failure at clean")
		return lines
	}

	emit("stage", map[string]string{"step": "analyzed"})
	if g.failAtStep == "analyzed" {
		emit("error", "simulated failure at analyzed")
		return lines
	}

	for _, chunk := range g.chunks(rewritten) {
		emit("chunk", chunk)
	}

	emit("stage", map[string]string{"step": "humanizing"})
	if g.failAtStep == "humanizing" {
		emit("error", "simulated failure at humanizing")
		return lines
	}

	emit("stage", map[string]string{"step": "verifying"})
	if g.failAtStep == "verifying" {
		emit("error", "simulated failure at verifying")
		return lines
	}

	emit("done", model.Result{
		CleanText:     cleanText,
		RewrittenText: rewritten,
		Changes: []model.Change{
			{Description: "Normalized whitespace and blank lines"},
			{Description: "Applied AI rewriting", TextBefore: cleanText, TextAfter: rewritten},
		},
		RewrittenMetrics: g.metrics(rewritten),
	})

	if !g.omitScore {
		emit("ai_score", map[string]float64{"score": g.aiScore()})
	}
	return lines
}

// chunks splits text into word groups, preserving all whitespace so the
// concatenated chunks reproduce the text exactly.
func (g *Generator) chunks(text string) []string {
	var out []string
	var current strings.Builder
	words := 0

	flush := func() {
		if current.Len() > 0 {
			out = append(out, current.String())
			current.Reset()
			words = 0
		}
	}

	inSpace := false
	for _, r := range text {
		isSpace := r == ' ' || r == '\t' || r == '\n' || r == '\r'
		if inSpace && !isSpace {
			words++
			if words >= g.chunkWords {
				flush()
			}
		}
		inSpace = isSpace
		current.WriteRune(r)
	}
	flush()
	return out
}

func (g *Generator) metrics(rewritten string) *model.Metrics {
	words := len(strings.Fields(rewritten))
	density := 0.01 + g.rng.Float64()*0.02
	return &model.Metrics{
		SentenceVariance:   &model.SentenceVariance{Category: "moderate"},
		AIPhrases:          &model.AIPhrases{Count: 0},
		Hedging:            &model.Hedging{FillerDensity: density},
		VerbFrequency:      &model.VerbFrequency{AIVerbDensity: float64(words%7) / 100},
		Repetition:         &model.Repetition{Count: 0},
		PunctuationProfile: &model.PunctuationProfile{StructureRatio: 0.4 + g.rng.Float64()*0.3},
	}
}

func (g *Generator) aiScore() float64 {
	// Mostly-human scores with one decimal, like the real critique returns.
	return float64(int(g.rng.Float64()*scoreMax*10)) / 10
}

func wireLine(typ string, data any) string {
	payload, err := json.Marshal(struct {
		Type string `json:"type"`
		Data any    `json:"data"`
	}{Type: typ, Data: data})
	if err != nil {
		// Only reachable with unmarshalable data, which the scripts never use.
		return `{"type":"error","data":"script marshal failure"}`
	}
	return string(payload)
}
