package stream

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// ContentType is the media type of an encoded stream.
const ContentType = "text/event-stream"

// Encoder writes Events as "data: {...}" records separated by a blank line,
// flushing after each record when the writer supports it.
type Encoder struct {
	w       io.Writer
	flusher http.Flusher
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	e := &Encoder{w: w}
	if f, ok := w.(http.Flusher); ok {
		e.flusher = f
	}
	return e
}

// Encode writes one record.
func (e *Encoder) Encode(ev Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(e.w, "%s%s\n\n", DataPrefix, b); err != nil {
		return fmt.Errorf("stream: write record: %w", err)
	}
	if e.flusher != nil {
		e.flusher.Flush()
	}
	return nil
}

// WriteChunk encodes a text delta.
func (e *Encoder) WriteChunk(text string) error {
	return e.Encode(Chunk(text))
}
