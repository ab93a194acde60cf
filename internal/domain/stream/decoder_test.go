package stream_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/unhype/unhype/internal/domain/stream"
)

func decodeAll(chunks [][]byte) []string {
	d := stream.NewFrameDecoder()
	var lines []string
	for _, c := range chunks {
		lines = append(lines, d.Decode(c)...)
	}
	if last, ok := d.Finish(); ok {
		lines = append(lines, last)
	}
	return lines
}

func TestFrameDecoder(t *testing.T) {
	Convey("Given a frame decoder", t, func() {
		Convey("When a single chunk holds several terminated lines", func() {
			lines := decodeAll([][]byte{[]byte("one\ntwo\nthree\n")})

			Convey("Then each line is emitted in order", func() {
				So(lines, ShouldResemble, []string{"one", "two", "three"})
			})
		})

		Convey("When a line is split across two chunks", func() {
			lines := decodeAll([][]byte{
				[]byte(`{"type":"stage"`),
				[]byte(",\"data\":{\"step\":\"clean\"}}\n"),
			})

			Convey("Then the halves reassemble into one line", func() {
				So(lines, ShouldResemble, []string{`{"type":"stage","data":{"step":"clean"}}`})
			})
		})

		Convey("When a multi-byte character is split across chunks", func() {
			text := []byte("héllo wörld\n")
			// Split inside the two-byte encoding of 'é'.
			lines := decodeAll([][]byte{text[:2], text[2:]})

			Convey("Then the character survives reassembly", func() {
				So(lines, ShouldResemble, []string{"héllo wörld"})
			})
		})

		Convey("When the same content arrives under different partitions", func() {
			content := "first line\nsecond wïth ünïcode\nthird\ntail"
			raw := []byte(content)
			want := decodeAll([][]byte{raw})

			Convey("Then every byte-level split yields the identical line sequence", func() {
				for cut := 1; cut < len(raw); cut++ {
					got := decodeAll([][]byte{raw[:cut], raw[cut:]})
					So(got, ShouldResemble, want)
				}
			})

			Convey("And one-byte-at-a-time delivery matches too", func() {
				chunks := make([][]byte, len(raw))
				for i := range raw {
					chunks[i] = raw[i : i+1]
				}
				So(decodeAll(chunks), ShouldResemble, want)
			})
		})

		Convey("When chunks are empty", func() {
			d := stream.NewFrameDecoder()

			Convey("Then nothing is emitted", func() {
				So(d.Decode(nil), ShouldBeNil)
				So(d.Decode([]byte{}), ShouldBeNil)
			})
		})

		Convey("When a chunk is only a newline", func() {
			d := stream.NewFrameDecoder()
			lines := d.Decode([]byte("\n"))

			Convey("Then one empty line is emitted for downstream to skip", func() {
				So(lines, ShouldResemble, []string{""})
			})
		})

		Convey("When consecutive newlines arrive", func() {
			lines := decodeAll([][]byte{[]byte("a\n\n\nb\n")})

			Convey("Then empty lines appear between content lines", func() {
				So(lines, ShouldResemble, []string{"a", "", "", "b"})
			})
		})

		Convey("When the stream ends with an unterminated line", func() {
			d := stream.NewFrameDecoder()
			So(d.Decode([]byte("done\npartial")), ShouldResemble, []string{"done"})

			last, ok := d.Finish()
			Convey("Then Finish flushes the trailing line", func() {
				So(ok, ShouldBeTrue)
				So(last, ShouldEqual, "partial")
			})
		})

		Convey("When the stream ends with only whitespace carried over", func() {
			d := stream.NewFrameDecoder()
			d.Decode([]byte("line\n   \t"))

			_, ok := d.Finish()
			Convey("Then Finish reports nothing to flush", func() {
				So(ok, ShouldBeFalse)
			})
		})
	})
}
