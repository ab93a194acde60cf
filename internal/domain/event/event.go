// Package event parses newline-delimited pipeline records into typed events.
//
// One line of the wire stream holds one JSON object: {"type": ..., "data": ...}.
// The type tag is an open set; unknown tags still parse so the session layer
// can skip them without treating new event kinds as protocol errors.
package event

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/unhype/unhype/internal/domain/model"
)

// Type tags the wire events this client understands.
type Type string

// Known event types. The set is open: lines carrying other tags parse fine
// and are ignored downstream.
const (
	TypeStage   Type = "stage"
	TypeChunk   Type = "chunk"
	TypeDone    Type = "done"
	TypeError   Type = "error"
	TypeAIScore Type = "ai_score"
)

// Event is one record of the streamed protocol. Data stays raw until a typed
// accessor decodes it, so a payload malformed for one accessor does not stop
// the line from being dispatched.
type Event struct {
	Type Type
	Data json.RawMessage
}

// Known reports whether the event carries a type tag this client dispatches.
func (e Event) Known() bool {
	switch e.Type {
	case TypeStage, TypeChunk, TypeDone, TypeError, TypeAIScore:
		return true
	default:
		return false
	}
}

// Stage is the payload of a stage event. Step names are an open set
// ("clean", "analyzed", "humanizing", "verifying", ...); CleanText rides
// along on the clean step so intermediate output shows before completion.
type Stage struct {
	Step      string `json:"step"`
	CleanText string `json:"clean_text,omitempty"`
}

// Score is the payload of an ai_score event. It arrives independently of the
// terminal event, sometimes after it.
type Score struct {
	Score float64 `json:"score"`
}

type wireEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Parse decodes one framed line into an Event. A line that is not a JSON
// object with a string type tag is an error; callers drop the line and keep
// reading, one bad line never ends a session.
func Parse(line string) (Event, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Event{}, fmt.Errorf("parse event: %w", ErrEmptyLine)
	}
	var w wireEvent
	if err := json.Unmarshal([]byte(line), &w); err != nil {
		return Event{}, fmt.Errorf("parse event: %w: %w", ErrMalformedLine, err)
	}
	if w.Type == "" {
		return Event{}, fmt.Errorf("parse event: %w", ErrMissingType)
	}
	return Event{Type: Type(w.Type), Data: w.Data}, nil
}

// StageData decodes the payload of a stage event.
func (e Event) StageData() (Stage, error) {
	var s Stage
	if err := json.Unmarshal(e.Data, &s); err != nil {
		return Stage{}, fmt.Errorf("stage payload: %w", err)
	}
	return s, nil
}

// ChunkText decodes the payload of a chunk event: a bare string fragment.
func (e Event) ChunkText() (string, error) {
	var s string
	if err := json.Unmarshal(e.Data, &s); err != nil {
		return "", fmt.Errorf("chunk payload: %w", err)
	}
	return s, nil
}

// DoneResult decodes the payload of a done event.
func (e Event) DoneResult() (model.Result, error) {
	var r model.Result
	if err := json.Unmarshal(e.Data, &r); err != nil {
		return model.Result{}, fmt.Errorf("done payload: %w", err)
	}
	return r, nil
}

// ErrorMessage decodes the payload of an error event. The upstream sends a
// bare string; anything else is rendered as-is so the message survives.
func (e Event) ErrorMessage() string {
	var s string
	if err := json.Unmarshal(e.Data, &s); err == nil {
		return s
	}
	return string(e.Data)
}

// ScoreData decodes the payload of an ai_score event.
func (e Event) ScoreData() (Score, error) {
	var s Score
	if err := json.Unmarshal(e.Data, &s); err != nil {
		return Score{}, fmt.Errorf("ai_score payload: %w", err)
	}
	return s, nil
}
