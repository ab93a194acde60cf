package stream

import (
	"context"
	"time"

	"github.com/unhype/unhype/internal/domain/event"
	"github.com/unhype/unhype/internal/domain/model"
	"github.com/unhype/unhype/pkg/logger"
	"github.com/unhype/unhype/pkg/metrics"
)

// State enumerates the session lifecycle.
type State int

// Session states. Done and Failed are terminal: events arriving afterwards
// are no-ops, with ai_score as the one permitted late delivery.
const (
	StateIdle State = iota
	StateStreaming
	StateDone
	StateFailed
)

// String returns the lowercase state name used in logs and metrics labels.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Observer receives session notifications. Implementations are invoked
// synchronously in event-arrival order and must not retain the Result
// pointer's slices past the call if they mutate them.
type Observer interface {
	// OnStage announces a new pipeline stage. The payload carries the stage's
	// intermediate output when it has one (clean_text on the clean step).
	OnStage(step string, payload event.Stage)

	// OnChunk delivers the full accumulated output after each appended
	// fragment, suitable for a live typing display.
	OnChunk(fullText string)

	// OnDone delivers the final result bundle, exactly once per session.
	OnDone(result model.Result)

	// OnError delivers a terminal failure message, exactly once per session.
	// Partial output accumulated before the failure must be discarded.
	OnError(message string)

	// OnLateScore delivers the supplementary ai_score whenever it arrives,
	// possibly after OnDone. It never changes the terminal outcome.
	OnLateScore(score float64)
}

// Session is the per-request state machine. It is owned by a single transport
// read loop; consumption is synchronous and strictly ordered, so no internal
// locking is needed. Callers that abandon a request mark the session inert
// with Abandon so late chunks from a stale transport cannot mutate a
// superseded display.
type Session struct {
	state     State
	abandoned bool

	partial   []byte // accumulating chunk output
	cleanText string // from the clean stage, visible before completion
	result    *model.Result
	failure   string
	score     *float64

	currentStage string // last announced step, for stage timing
	stageStart   time.Time

	observer Observer
	log      logger.Logger
}

// NewSession creates a session in the idle state reporting to observer.
func NewSession(observer Observer) *Session {
	return &Session{
		state:    StateIdle,
		observer: observer,
		log:      logger.Get().Named("session"),
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// Terminal reports whether the session reached done or failed.
func (s *Session) Terminal() bool {
	return s.state == StateDone || s.state == StateFailed
}

// Abandoned reports whether the caller walked away from this session.
func (s *Session) Abandoned() bool { return s.abandoned }

// CleanText returns the sanitized text once the clean stage announced it.
func (s *Session) CleanText() string { return s.cleanText }

// PartialOutput returns the output accumulated from chunk events so far.
func (s *Session) PartialOutput() string { return string(s.partial) }

// Result returns the final bundle after a done transition, else nil.
func (s *Session) Result() *model.Result { return s.result }

// Failure returns the terminal error message after a failed transition.
func (s *Session) Failure() string { return s.failure }

// Score returns the supplementary ai_score if one arrived.
func (s *Session) Score() (float64, bool) {
	if s.score == nil {
		return 0, false
	}
	return *s.score, true
}

// Abandon marks the session inert. Every subsequent event, including
// terminal ones and late scores, becomes a no-op.
func (s *Session) Abandon() {
	s.abandoned = true
}

// HandleEvent consumes one parsed event. Events with unrecognized types are
// skipped; events after a terminal state are ignored, except ai_score which
// is layered onto the finalized display.
func (s *Session) HandleEvent(ctx context.Context, ev event.Event) {
	if s.abandoned {
		return
	}
	metrics.RecordEvent(string(ev.Type))

	// ai_score bypasses the terminal gate: it may arrive before or after
	// done and must update the display in place either way.
	if ev.Type == event.TypeAIScore {
		s.handleScore(ctx, ev)
		return
	}

	if s.Terminal() {
		s.log.Debug(ctx, "event after terminal state ignored",
			logger.String("type", string(ev.Type)),
			logger.String("state", s.state.String()),
		)
		return
	}
	if !ev.Known() {
		s.log.Debug(ctx, "unrecognized event type skipped",
			logger.String("type", string(ev.Type)),
		)
		return
	}

	if s.state == StateIdle {
		s.state = StateStreaming
	}

	switch ev.Type {
	case event.TypeStage:
		s.handleStage(ctx, ev)
	case event.TypeChunk:
		s.handleChunk(ctx, ev)
	case event.TypeDone:
		s.handleDone(ctx, ev)
	case event.TypeError:
		s.fail(ctx, ev.ErrorMessage())
	}
}

// Fail synthesizes a terminal failure for transport-level errors (the byte
// stream aborting before a terminal event). It is a no-op once the session
// is already terminal or abandoned, preserving the single-terminal guarantee.
func (s *Session) Fail(ctx context.Context, message string) {
	if s.abandoned || s.Terminal() {
		return
	}
	s.fail(ctx, message)
}

func (s *Session) handleStage(ctx context.Context, ev event.Event) {
	stage, err := ev.StageData()
	if err != nil {
		s.log.Warn(ctx, "stage payload not decodable, skipping", logger.Error(err))
		return
	}
	if stage.CleanText != "" {
		s.cleanText = stage.CleanText
	}
	s.closeStage()
	s.currentStage = stage.Step
	s.stageStart = time.Now()
	s.log.Debug(ctx, "pipeline stage", logger.String("step", stage.Step))
	s.observer.OnStage(stage.Step, stage)
}

func (s *Session) handleChunk(ctx context.Context, ev event.Event) {
	text, err := ev.ChunkText()
	if err != nil {
		s.log.Warn(ctx, "chunk payload not decodable, skipping", logger.Error(err))
		return
	}
	s.partial = append(s.partial, text...)
	metrics.RecordChunkBytes(len(text))
	s.observer.OnChunk(string(s.partial))
}

func (s *Session) handleDone(ctx context.Context, ev event.Event) {
	result, err := ev.DoneResult()
	if err != nil {
		// A done event whose bundle cannot be decoded leaves nothing to
		// display; treat it as an upstream failure rather than hanging.
		s.log.Warn(ctx, "done payload not decodable", logger.Error(err))
		s.fail(ctx, "pipeline returned an unreadable result")
		return
	}
	s.closeStage()
	s.state = StateDone
	s.result = &result
	metrics.RecordSessionOutcome("done")
	s.observer.OnDone(result)
}

func (s *Session) fail(ctx context.Context, message string) {
	s.closeStage()
	s.state = StateFailed
	s.failure = message
	s.partial = nil // the caller's view reverts to its pre-processing state
	metrics.RecordSessionOutcome("failed")
	s.log.Info(ctx, "session failed", logger.String("message", message))
	s.observer.OnError(message)
}

// closeStage observes how long the announced stage ran, up to the next stage
// announcement or the terminal transition.
func (s *Session) closeStage() {
	if s.currentStage == "" {
		return
	}
	metrics.RecordStageDuration(s.currentStage, time.Since(s.stageStart).Seconds())
	s.currentStage = ""
}

func (s *Session) handleScore(ctx context.Context, ev event.Event) {
	data, err := ev.ScoreData()
	if err != nil {
		s.log.Warn(ctx, "ai_score payload not decodable, skipping", logger.Error(err))
		return
	}
	// A score for a failed session has nothing to attach to.
	if s.state == StateFailed {
		return
	}
	if s.state == StateIdle {
		s.state = StateStreaming
	}
	v := data.Score
	s.score = &v
	s.observer.OnLateScore(v)
}
