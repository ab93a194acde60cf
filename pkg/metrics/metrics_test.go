package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManager(t *testing.T) {
	Convey("Given a manager on its own registry", t, func() {
		reg := prometheus.NewRegistry()
		m := NewManager(
			WithPrometheusRegistry(reg),
			WithNamespace("unhype_test"),
		)

		Convey("When counting framed and malformed lines", func() {
			m.linesFramed.Inc()
			m.linesFramed.Inc()
			m.malformedLines.Inc()

			Convey("Then the counters report the increments", func() {
				So(testutil.ToFloat64(m.linesFramed), ShouldEqual, 2)
				So(testutil.ToFloat64(m.malformedLines), ShouldEqual, 1)
			})
		})

		Convey("When counting events by type", func() {
			m.eventsByType.WithLabelValues("chunk").Inc()
			m.eventsByType.WithLabelValues("chunk").Inc()
			m.eventsByType.WithLabelValues("done").Inc()

			Convey("Then each label is tracked separately", func() {
				So(testutil.ToFloat64(m.eventsByType.WithLabelValues("chunk")), ShouldEqual, 2)
				So(testutil.ToFloat64(m.eventsByType.WithLabelValues("done")), ShouldEqual, 1)
			})
		})

		Convey("When observing request durations", func() {
			m.requestDuration.WithLabelValues("rewrite", "ok").Observe(0.25)

			Convey("Then the histogram is registered and gathered", func() {
				families, err := reg.Gather()
				So(err, ShouldBeNil)
				names := make(map[string]bool, len(families))
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["unhype_test_client_request_duration_seconds"], ShouldBeTrue)
			})
		})
	})

	Convey("Given a disabled manager", t, func() {
		m := NewManager(
			WithPrometheusRegistry(prometheus.NewRegistry()),
			WithMetricsEnabled(false),
		)

		Convey("Then no collectors are created", func() {
			So(m.linesFramed, ShouldBeNil)
			So(m.chunkBytes, ShouldBeNil)
		})
	})
}

func TestPackageHelpers(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording through the package helpers", func() {
			before := testutil.ToFloat64(globalManager.chunkBytes)
			RecordChunkBytes(128)
			RecordLineFramed()
			RecordEvent("stage")
			RecordSessionOutcome("done")
			RecordHistoryAppend()
			RecordHistoryError()
			RecordMalformedLine()
			RecordStageDuration("clean", 0.002)
			RecordRequestDuration("clean", "ok", 0.01)

			Convey("Then the global counters advance", func() {
				So(testutil.ToFloat64(globalManager.chunkBytes)-before, ShouldEqual, 128)
			})
		})
	})
}
