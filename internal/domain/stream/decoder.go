// Package stream contains the incremental line framer and the per-request
// session state machine that consumes framed pipeline events.
package stream

import (
	"bytes"
	"strings"
)

// FrameDecoder reassembles newline-delimited frames from arbitrary byte
// chunks. The carry buffer holds raw bytes, not decoded text, so a chunk
// boundary landing inside a multi-byte UTF-8 sequence is harmless: bytes are
// only ever split at '\n', and conversion to string happens per complete line.
//
// A decoder is forward-only and not restartable; each transport read loop
// owns exactly one.
type FrameDecoder struct {
	carry []byte
}

// NewFrameDecoder returns an empty decoder.
func NewFrameDecoder() *FrameDecoder {
	return &FrameDecoder{}
}

// Decode appends a chunk to the carry buffer and returns every line completed
// by it, in order. Empty chunks return nothing. A chunk of consecutive
// newlines yields empty lines; callers skip those rather than treating them
// as errors. For any way of partitioning the same bytes into chunks, the
// concatenated output is the same line sequence.
func (d *FrameDecoder) Decode(chunk []byte) []string {
	if len(chunk) == 0 {
		return nil
	}
	d.carry = append(d.carry, chunk...)

	var lines []string
	for {
		i := bytes.IndexByte(d.carry, '\n')
		if i < 0 {
			return lines
		}
		lines = append(lines, string(d.carry[:i]))
		d.carry = d.carry[i+1:]
	}
}

// Finish flushes the trailing unterminated line at end-of-stream. The second
// return is false when nothing meaningful remains (empty or all-whitespace
// carry). The decoder must not be fed again afterwards.
func (d *FrameDecoder) Finish() (string, bool) {
	last := strings.TrimSpace(string(d.carry))
	d.carry = nil
	if last == "" {
		return "", false
	}
	return last, true
}
