package score_test

import (
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/unhype/unhype/internal/domain/score"
)

func TestParagraphs(t *testing.T) {
	Convey("Given rewritten text to grade", t, func() {
		Convey("When the text has a single paragraph", func() {
			got := score.Paragraphs("Just one paragraph here. Nothing to compare.", nil)

			Convey("Then the analysis is skipped entirely", func() {
				So(got, ShouldBeNil)
			})
		})

		Convey("When the text is empty or only blank lines", func() {
			So(score.Paragraphs("", nil), ShouldBeNil)
			So(score.Paragraphs("\n\n\n", nil), ShouldBeNil)
		})

		Convey("When a paragraph contains a flagged phrase", func() {
			text := "AI phrase paragraph.\n\nSecond paragraph that is quite short."
			got := score.Paragraphs(text, []string{"ai phrase"})

			Convey("Then the offending paragraph is graded bad and the other natural", func() {
				So(got, ShouldHaveLength, 2)
				So(got[0].Label, ShouldEqual, score.LabelAIPhrase)
				So(got[0].Severity, ShouldEqual, score.SeverityBad)
				So(got[1].Label, ShouldEqual, score.LabelNatural)
				So(got[1].Severity, ShouldEqual, score.SeverityGood)
				So(got[1].SentenceCount, ShouldEqual, 1)
			})
		})

		Convey("When flagged phrases are matched", func() {
			text := "It is IMPORTANT TO NOTE that this happens.\n\nAnother paragraph sits here."
			got := score.Paragraphs(text, []string{"important to note"})

			Convey("Then matching is case-insensitive", func() {
				So(got[0].Label, ShouldEqual, score.LabelAIPhrase)
			})
		})

		Convey("When sentence lengths are perfectly uniform across three sentences", func() {
			uniform := "One two three four five. Six seven eight nine ten. More word here word now."
			text := uniform + "\n\nA short tail paragraph."
			got := score.Paragraphs(text, nil)

			Convey("Then the paragraph is graded Uniform", func() {
				So(got[0].SentenceCount, ShouldEqual, 3)
				So(got[0].Label, ShouldEqual, score.LabelUniform)
				So(got[0].Severity, ShouldEqual, score.SeverityWarn)
			})

			Convey("But a flagged phrase takes precedence over uniformity", func() {
				flagged := score.Paragraphs(text, []string{"six seven"})
				So(flagged[0].Label, ShouldEqual, score.LabelAIPhrase)
			})
		})

		Convey("When a paragraph runs one interminable sentence", func() {
			long := strings.Repeat("word ", 40) + "end."
			text := long + "\n\nShort one. Very short! Tiny indeed? Done now."
			got := score.Paragraphs(text, nil)

			Convey("Then the long-sentence warning fires", func() {
				So(got[0].SentenceCount, ShouldEqual, 1)
				So(got[0].AvgSentenceLen, ShouldBeGreaterThan, 25)
				So(got[0].Label, ShouldEqual, score.LabelLongSentences)
				So(got[0].Severity, ShouldEqual, score.SeverityWarn)
			})
		})

		Convey("When a paragraph has no sentence-ending punctuation", func() {
			text := "a bare fragment without punctuation\n\nAnother one also bare"
			got := score.Paragraphs(text, nil)

			Convey("Then the whole paragraph counts as one sentence", func() {
				So(got[0].SentenceCount, ShouldEqual, 1)
				So(got[0].AvgSentenceLen, ShouldEqual, got[0].WordCount)
			})
		})

		Convey("When paragraphs vary naturally", func() {
			text := "Short burst. Then a noticeably longer sentence follows with many more words than before. Tiny.\n\n" +
				"Second paragraph reads fine. It varies a lot in rhythm and percussion across its sentences, doesn't it? Yes."
			got := score.Paragraphs(text, nil)

			Convey("Then both paragraphs grade Natural", func() {
				So(got, ShouldHaveLength, 2)
				So(got[0].Label, ShouldEqual, score.LabelNatural)
				So(got[1].Label, ShouldEqual, score.LabelNatural)
			})
		})

		Convey("When a paragraph is longer than the preview window", func() {
			long := strings.Repeat("filler ", 30)
			text := long + "\n\nSecond paragraph."
			got := score.Paragraphs(text, nil)

			Convey("Then the preview truncates at 80 characters with an ellipsis", func() {
				So(got[0].Preview, ShouldEndWith, "...")
				// 80 runes plus the three-dot ellipsis.
				So(len([]rune(got[0].Preview)), ShouldEqual, 83)
			})
		})

		Convey("When paragraph order matters", func() {
			text := "First paragraph here.\n\nSecond paragraph here.\n\nThird paragraph here."
			got := score.Paragraphs(text, nil)

			Convey("Then indexes follow input order", func() {
				So(got, ShouldHaveLength, 3)
				for i, p := range got {
					So(p.Index, ShouldEqual, i)
				}
			})
		})
	})
}
