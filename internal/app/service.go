// Package app provides the core service that orchestrates the transport,
// the stream session, the analytic engines, and history persistence.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/unhype/unhype/internal/adapters/history"
	"github.com/unhype/unhype/internal/adapters/transport"
	"github.com/unhype/unhype/internal/domain/diff"
	"github.com/unhype/unhype/internal/domain/model"
	"github.com/unhype/unhype/internal/domain/score"
	"github.com/unhype/unhype/internal/domain/stream"
	"github.com/unhype/unhype/pkg/logger"
	"github.com/unhype/unhype/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultHistoryLimit = 20
)

// Service implements the processing operations exposed to the CLI.
type Service struct {
	client       *transport.Client
	history      *history.Store // nil disables history
	historyLimit int

	log logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithTransport sets the pipeline service client.
func WithTransport(client *transport.Client) Option {
	return func(s *Service) {
		if client != nil {
			s.client = client
		}
	}
}

// WithHistory sets the history store. Without one, entries are dropped.
func WithHistory(store *history.Store) Option {
	return func(s *Service) {
		s.history = store
	}
}

// WithHistoryLimit caps how many entries History returns.
func WithHistoryLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.historyLimit = limit
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		historyLimit: defaultHistoryLimit,
		log:          logger.Get().Named("app"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Clean runs the non-streaming clean-only mode and records a history entry.
func (s *Service) Clean(ctx context.Context, text string) (model.Result, error) {
	if strings.TrimSpace(text) == "" {
		return model.Result{}, ErrEmptyInput
	}

	start := time.Now()
	result, err := s.client.Clean(ctx, text, model.StrengthMedium)
	if err != nil {
		metrics.RecordRequestDuration(string(model.ActionClean), "error", time.Since(start).Seconds())
		return model.Result{}, fmt.Errorf("clean: %w", err)
	}
	metrics.RecordRequestDuration(string(model.ActionClean), "ok", time.Since(start).Seconds())

	s.record(ctx, model.ActionClean, text, result.CleanText)
	return result, nil
}

// Rewrite runs the streaming mode. The observer receives stage, chunk, done,
// error and late-score notifications as they arrive; the terminal result (or
// failure) is also returned once the stream closes. Empty input is rejected
// before any session exists.
func (s *Service) Rewrite(ctx context.Context, text string, strength model.Strength, observer stream.Observer) (*model.Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}
	if strength == "" {
		strength = model.StrengthMedium
	}

	sess := stream.NewSession(observer)

	start := time.Now()
	if err := s.client.Rewrite(ctx, text, strength, sess); err != nil {
		metrics.RecordRequestDuration(string(model.ActionRewrite), "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("rewrite: %w", err)
	}

	switch sess.State() {
	case stream.StateDone:
		metrics.RecordRequestDuration(string(model.ActionRewrite), "ok", time.Since(start).Seconds())
		result := sess.Result()
		output := result.RewrittenText
		if output == "" {
			output = result.CleanText
		}
		s.record(ctx, model.ActionRewrite, text, output)
		return result, nil
	case stream.StateFailed:
		metrics.RecordRequestDuration(string(model.ActionRewrite), "failed", time.Since(start).Seconds())
		return nil, fmt.Errorf("%w: %s", ErrPipelineFailed, sess.Failure())
	default:
		// Only reachable for an abandoned session.
		metrics.RecordRequestDuration(string(model.ActionRewrite), "abandoned", time.Since(start).Seconds())
		return nil, ErrAbandoned
	}
}

// Analysis carries the comparative analytics computed from a final result.
type Analysis struct {
	Original   []diff.Span
	Rewritten  []diff.Span
	Paragraphs []score.Paragraph
}

// Analyze computes the word-set diff and the paragraph grades. Pure: no I/O,
// deterministic for given inputs.
func Analyze(original, rewritten string, m *model.Metrics) Analysis {
	orig, rew := diff.Compute(original, rewritten)
	return Analysis{
		Original:   orig,
		Rewritten:  rew,
		Paragraphs: score.Paragraphs(rewritten, m.FlaggedPhrases()),
	}
}

// History lists recent session entries, newest first.
func (s *Service) History(ctx context.Context) ([]model.HistoryEntry, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.Recent(ctx, s.historyLimit)
}

// record hands a candidate entry to the history store. Failures are logged
// and swallowed: losing a history row must never fail the processing run.
func (s *Service) record(ctx context.Context, action model.Action, input, output string) {
	if s.history == nil {
		return
	}
	entry := model.HistoryEntry{
		ActionType: action,
		InputText:  input,
		OutputText: output,
	}
	if err := s.history.Append(ctx, entry); err != nil {
		s.log.Warn(ctx, "history entry not saved", logger.Error(err))
	}
}
