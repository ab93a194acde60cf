package app_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/unhype/unhype/internal/adapters/history"
	"github.com/unhype/unhype/internal/adapters/transport"
	"github.com/unhype/unhype/internal/app"
	"github.com/unhype/unhype/internal/domain/diff"
	"github.com/unhype/unhype/internal/domain/event"
	"github.com/unhype/unhype/internal/domain/model"
	"github.com/unhype/unhype/internal/domain/score"
	"github.com/unhype/unhype/internal/simstream"
)

const serviceSample = "First paragraph of input text here.\n\nSecond paragraph of input text here."

type nopObserver struct{}

func (nopObserver) OnStage(string, event.Stage) {}
func (nopObserver) OnChunk(string)              {}
func (nopObserver) OnDone(model.Result)         {}
func (nopObserver) OnError(string)              {}
func (nopObserver) OnLateScore(float64)         {}

func newService(t *testing.T, simOpts ...simstream.SrvOption) (*app.Service, *history.Store) {
	t.Helper()

	sim := simstream.NewServer(simOpts...)
	srv := httptest.NewServer(sim.Handler())
	t.Cleanup(srv.Close)

	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open history store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	svc := app.New(
		app.WithTransport(transport.NewClient(srv.URL)),
		app.WithHistory(store),
		app.WithHistoryLimit(10),
	)
	return svc, store
}

func TestServiceClean(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service wired to the simulator", t, func() {
		svc, _ := newService(t)

		Convey("When cleaning text", func() {
			result, err := svc.Clean(ctx, "messy   text \n\n\n here")

			Convey("Then a result comes back and history records the run", func() {
				So(err, ShouldBeNil)
				So(result.CleanText, ShouldNotBeEmpty)

				entries, err := svc.History(ctx)
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 1)
				So(entries[0].ActionType, ShouldEqual, model.ActionClean)
				So(entries[0].OutputText, ShouldEqual, result.CleanText)
			})
		})

		Convey("When cleaning empty input", func() {
			_, err := svc.Clean(ctx, "  \n ")

			Convey("Then the request is rejected locally", func() {
				So(errors.Is(err, app.ErrEmptyInput), ShouldBeTrue)
			})
		})
	})
}

func TestServiceRewrite(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service wired to the simulator", t, func() {
		svc, _ := newService(t)

		Convey("When rewriting text", func() {
			result, err := svc.Rewrite(ctx, serviceSample, model.StrengthMedium, nopObserver{})

			Convey("Then the terminal result is returned and recorded", func() {
				So(err, ShouldBeNil)
				So(result, ShouldNotBeNil)
				So(result.RewrittenText, ShouldNotBeEmpty)
				So(result.RewrittenMetrics, ShouldNotBeNil)

				entries, histErr := svc.History(ctx)
				So(histErr, ShouldBeNil)
				So(entries, ShouldHaveLength, 1)
				So(entries[0].ActionType, ShouldEqual, model.ActionRewrite)
				So(entries[0].InputText, ShouldEqual, serviceSample)
				So(entries[0].OutputText, ShouldEqual, result.RewrittenText)
			})
		})

		Convey("When rewriting empty input", func() {
			_, err := svc.Rewrite(ctx, "", model.StrengthMedium, nopObserver{})

			Convey("Then validation fails before any request", func() {
				So(errors.Is(err, app.ErrEmptyInput), ShouldBeTrue)
			})
		})
	})

	Convey("Given a simulator scripted to fail", t, func() {
		svc, _ := newService(t, simstream.WithGenerator(
			simstream.NewGenerator(simstream.WithFailAtStep("analyzed")),
		))

		Convey("When rewriting text", func() {
			_, err := svc.Rewrite(ctx, serviceSample, model.StrengthMedium, nopObserver{})

			Convey("Then the failure surfaces and nothing is recorded", func() {
				So(errors.Is(err, app.ErrPipelineFailed), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "analyzed")

				entries, histErr := svc.History(ctx)
				So(histErr, ShouldBeNil)
				So(entries, ShouldBeEmpty)
			})
		})
	})
}

func TestServiceHistoryDisabled(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service without a history store", t, func() {
		sim := simstream.NewServer()
		srv := httptest.NewServer(sim.Handler())
		defer srv.Close()

		svc := app.New(app.WithTransport(transport.NewClient(srv.URL)))

		Convey("When processing and listing history", func() {
			_, cleanErr := svc.Clean(ctx, "some text")
			entries, histErr := svc.History(ctx)

			Convey("Then processing works and history is simply empty", func() {
				So(cleanErr, ShouldBeNil)
				So(histErr, ShouldBeNil)
				So(entries, ShouldBeEmpty)
			})
		})
	})
}

func TestAnalyze(t *testing.T) {
	Convey("Given a completed run with flagged phrases", t, func() {
		original := "the cat sat"
		rewritten := "First paragraph delves into the topic at hand right now.\n\nSecond paragraph is short."
		m := &model.Metrics{
			AIPhrases: &model.AIPhrases{Count: 1, Phrases: []string{"delves into"}},
		}

		Convey("When analyzing", func() {
			analysis := app.Analyze(original, rewritten, m)

			Convey("Then both diff sides reconstruct their inputs", func() {
				So(diff.Reconstruct(analysis.Original), ShouldEqual, original)
				So(diff.Reconstruct(analysis.Rewritten), ShouldEqual, rewritten)
			})

			Convey("Then the flagged paragraph is graded worst", func() {
				So(analysis.Paragraphs, ShouldHaveLength, 2)
				So(analysis.Paragraphs[0].Label, ShouldEqual, score.LabelAIPhrase)
				So(analysis.Paragraphs[0].Severity, ShouldEqual, score.SeverityBad)
			})
		})

		Convey("When analyzing with nil metrics", func() {
			analysis := app.Analyze(original, rewritten, nil)

			Convey("Then no phrase is flagged but grading still runs", func() {
				So(analysis.Paragraphs, ShouldHaveLength, 2)
				So(analysis.Paragraphs[0].Label, ShouldNotEqual, score.LabelAIPhrase)
			})
		})
	})
}
