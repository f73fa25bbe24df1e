// Package stream implements the line-delimited chat event protocol spoken on
// POST /chat/stream: every significant line is "data: " followed by a JSON
// record carrying exactly one of "chunk", "done" or "error".
package stream

import (
	"encoding/json"
	"fmt"
)

// DataPrefix marks a significant protocol line.
const DataPrefix = "data: "

// Kind tags an Event.
type Kind int

const (
	KindChunk Kind = iota + 1
	KindDone
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindChunk:
		return "chunk"
	case KindDone:
		return "done"
	case KindError:
		return "error"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Event is one decoded protocol record. Text holds the chunk text for
// KindChunk and the server message for KindError.
type Event struct {
	Kind Kind
	Text string
}

// Chunk returns a text delta event.
func Chunk(text string) Event { return Event{Kind: KindChunk, Text: text} }

// Done returns the completion event.
func Done() Event { return Event{Kind: KindDone} }

// Fail returns an in-band error event.
func Fail(message string) Event { return Event{Kind: KindError, Text: message} }

// Terminal reports whether the event ends its stream.
func (e Event) Terminal() bool {
	return e.Kind == KindDone || e.Kind == KindError
}

// Err returns the in-band failure carried by a KindError event, nil otherwise.
func (e Event) Err() error {
	if e.Kind != KindError {
		return nil
	}
	return &StreamError{Message: e.Text}
}

// StreamError is an error reported by the server inside the stream.
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string {
	return "stream error: " + e.Message
}

// record is the JSON shape of a protocol line payload.
type record struct {
	Chunk *string `json:"chunk,omitempty"`
	Done  bool    `json:"done,omitempty"`
	Error *string `json:"error,omitempty"`
}

// MarshalJSON encodes the event as its wire record.
func (e Event) MarshalJSON() ([]byte, error) {
	var r record
	switch e.Kind {
	case KindChunk:
		text := e.Text
		r.Chunk = &text
	case KindDone:
		r.Done = true
	case KindError:
		msg := e.Text
		r.Error = &msg
	default:
		return nil, fmt.Errorf("stream: cannot encode event of kind %v", e.Kind)
	}
	return json.Marshal(r)
}

// UnmarshalJSON decodes a wire record. A record carrying none of the keys is
// rejected. When several keys are present error wins over done, done over chunk.
func (e *Event) UnmarshalJSON(data []byte) error {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	switch {
	case r.Error != nil:
		*e = Fail(*r.Error)
	case r.Done:
		*e = Done()
	case r.Chunk != nil:
		*e = Chunk(*r.Chunk)
	default:
		return errEmptyRecord
	}
	return nil
}
