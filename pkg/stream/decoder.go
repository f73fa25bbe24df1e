package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"contextai-go/pkg/log"
)

var errEmptyRecord = errors.New("record has none of chunk, done, error")

// Decoder turns one response body into a sequence of Events. It is not safe
// for concurrent use and cannot be restarted.
//
// The body is closed exactly once, on whichever exit comes first: a done or
// error record, end of data, a read failure, or an explicit Close.
type Decoder struct {
	body       io.ReadCloser
	lines      *LineReader
	terminated bool
	closed     bool
	closeErr   error
}

// NewDecoder returns a Decoder reading body.
func NewDecoder(body io.ReadCloser) *Decoder {
	return &Decoder{body: body, lines: NewLineReader(body)}
}

// NewDecoderSize is NewDecoder with an explicit read size.
func NewDecoderSize(body io.ReadCloser, size int) *Decoder {
	return &Decoder{body: body, lines: NewLineReaderSize(body, size)}
}

// Next returns the next event. After a terminal event, or when the body ends
// without one, it returns io.EOF. A failing body yields a wrapped read error.
// Lines without the data prefix are ignored; data lines that are not valid
// records are logged and skipped.
func (d *Decoder) Next() (Event, error) {
	for !d.terminated {
		line, err := d.lines.ReadLine()
		if err != nil {
			d.terminated = true
			d.Close()
			if errors.Is(err, io.EOF) {
				return Event{}, io.EOF
			}
			return Event{}, fmt.Errorf("stream: read body: %w", err)
		}

		payload, ok := strings.CutPrefix(line, DataPrefix)
		if !ok {
			continue
		}

		var ev Event
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			log.Warnw("stream: skipping malformed record", "payload", payload, "error", err)
			continue
		}

		if ev.Terminal() {
			d.terminated = true
			d.Close()
		}
		return ev, nil
	}
	return Event{}, io.EOF
}

// Events exposes the decoder as a range-able sequence. The sequence ends
// after a terminal event, at end of data, or after yielding a read error.
// Leaving the loop early closes the body.
func (d *Decoder) Events() iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		defer d.Close()
		for {
			ev, err := d.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(Event{}, err)
				return
			}
			if !yield(ev, nil) || ev.Terminal() {
				return
			}
		}
	}
}

// Close releases the body. It is idempotent.
func (d *Decoder) Close() error {
	if d.closed {
		return d.closeErr
	}
	d.closed = true
	d.terminated = true
	d.closeErr = d.body.Close()
	return d.closeErr
}
