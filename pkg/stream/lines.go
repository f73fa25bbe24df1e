package stream

import (
	"bytes"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const defaultReadSize = 4096

// LineReader reassembles newline-terminated lines from a byte source whose
// reads do not line up with line boundaries. Bytes are decoded as UTF-8
// incrementally, so a multi-byte sequence split across two reads is joined
// before it reaches a line. A trailing fragment without "\n" is held back
// until a later read completes it, and is dropped if the source ends first.
type LineReader struct {
	src     io.Reader
	chunk   []byte
	pending []byte
	lines   []string
	err     error
}

// NewLineReader returns a LineReader over r. Invalid UTF-8 is replaced with
// U+FFFD.
func NewLineReader(r io.Reader) *LineReader {
	return NewLineReaderSize(r, defaultReadSize)
}

// NewLineReaderSize is NewLineReader with an explicit read size.
func NewLineReaderSize(r io.Reader, size int) *LineReader {
	if size <= 0 {
		size = defaultReadSize
	}
	return &LineReader{
		src:   transform.NewReader(r, unicode.UTF8.NewDecoder()),
		chunk: make([]byte, size),
	}
}

// ReadLine returns the next complete line without its terminator (a trailing
// "\r" is trimmed as well). Once the source is exhausted it returns io.EOF;
// any other read failure is returned unchanged and is sticky.
func (lr *LineReader) ReadLine() (string, error) {
	for len(lr.lines) == 0 {
		if lr.err != nil {
			return "", lr.err
		}
		n, err := lr.src.Read(lr.chunk)
		if n > 0 {
			lr.feed(lr.chunk[:n])
		}
		if err != nil {
			// an unterminated record at the end is truncated, never parsed
			lr.pending = nil
			lr.err = err
		}
	}
	line := lr.lines[0]
	lr.lines[0] = ""
	lr.lines = lr.lines[1:]
	return line, nil
}

// Buffered returns the length of the held-back partial line.
func (lr *LineReader) Buffered() int {
	return len(lr.pending)
}

func (lr *LineReader) feed(p []byte) {
	data := append(lr.pending, p...)
	for {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			break
		}
		lr.lines = append(lr.lines, string(bytes.TrimSuffix(data[:i], []byte{'\r'})))
		data = data[i+1:]
	}
	// keep the remainder in a buffer we own; p is reused by the next read
	lr.pending = append(lr.pending[:0:0], data...)
}
