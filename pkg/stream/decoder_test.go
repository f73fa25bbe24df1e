package stream

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// scriptedBody hands out pre-cut byte slices, one per Read.
type scriptedBody struct {
	parts  [][]byte
	err    error
	reads  int
	closed int
}

func newScriptedBody(parts ...string) *scriptedBody {
	b := &scriptedBody{}
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.parts = append(b.parts, []byte(p))
	}
	return b
}

func (b *scriptedBody) Read(p []byte) (int, error) {
	if len(b.parts) == 0 {
		if b.err != nil {
			return 0, b.err
		}
		return 0, io.EOF
	}
	b.reads++
	n := copy(p, b.parts[0])
	if n < len(b.parts[0]) {
		b.parts[0] = b.parts[0][n:]
	} else {
		b.parts = b.parts[1:]
	}
	return n, nil
}

func (b *scriptedBody) Close() error {
	b.closed++
	return nil
}

func collect(t *testing.T, d *Decoder) []Event {
	t.Helper()
	var events []Event
	for ev, err := range d.Events() {
		require.NoError(t, err)
		events = append(events, ev)
	}
	return events
}

func assembled(events []Event) string {
	var sb strings.Builder
	for _, ev := range events {
		if ev.Kind == KindChunk {
			sb.WriteString(ev.Text)
		}
	}
	return sb.String()
}

const wellFormed = "data: {\"chunk\":\"Hé\"}\n\n" +
	": keep-alive\n" +
	"data: {\"chunk\":\"llo 世界 \"}\n\n" +
	"data: {\"chunk\":\"🙂\"}\n\n" +
	"data: {\"done\":true}\n\n"

func TestDecoder_EveryByteSplitMatchesSingleRead(t *testing.T) {
	whole := collect(t, NewDecoder(newScriptedBody(wellFormed)))
	want := assembled(whole)
	require.Equal(t, "Héllo 世界 🙂", want)
	require.Equal(t, KindDone, whole[len(whole)-1].Kind)

	for k := 1; k < len(wellFormed); k++ {
		body := newScriptedBody(wellFormed[:k], wellFormed[k:])
		events := collect(t, NewDecoder(body))
		assert.Equal(t, want, assembled(events), "split at byte %d", k)
		assert.Equal(t, whole, events, "split at byte %d", k)
		assert.Equal(t, 1, body.closed, "split at byte %d", k)
	}
}

func TestDecoder_OneByteReads(t *testing.T) {
	parts := make([]string, 0, len(wellFormed))
	for i := 0; i < len(wellFormed); i++ {
		parts = append(parts, wellFormed[i:i+1])
	}
	events := collect(t, NewDecoderSize(newScriptedBody(parts...), 1))
	assert.Equal(t, "Héllo 世界 🙂", assembled(events))
}

func TestDecoder_SplitAtByteTenYieldsOneChunk(t *testing.T) {
	line := "data: {\"chunk\":\"Hello\"}\n"
	body := newScriptedBody(line[:10], line[10:])
	d := NewDecoder(body)

	ev, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, Chunk("Hello"), ev)
	assert.Zero(t, d.lines.Buffered())

	_, err = d.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestDecoder_IgnoresLinesWithoutDataPrefix(t *testing.T) {
	body := newScriptedBody(
		"event: message\n",
		"id: 7\n",
		"data:{\"chunk\":\"no space\"}\n",
		" data: {\"chunk\":\"indented\"}\n",
		"\n",
		"data: {\"chunk\":\"kept\"}\n",
	)
	events := collect(t, NewDecoder(body))
	assert.Equal(t, []Event{Chunk("kept")}, events)
}

func TestDecoder_SkipsMalformedJSON(t *testing.T) {
	body := newScriptedBody(
		"data: {\"chunk\":\"a\"}\n",
		"data: {not json}\n",
		"data: {\"done\":false}\n",
		"data: {\"chunk\":\"b\"}\n",
		"data: {\"done\":true}\n",
	)
	events := collect(t, NewDecoder(body))
	assert.Equal(t, []Event{Chunk("a"), Chunk("b"), Done()}, events)
}

func TestDecoder_DoneStopsReading(t *testing.T) {
	body := newScriptedBody(
		"data: {\"done\":true}\n",
		"data: {\"chunk\":\"too late\"}\n",
	)
	d := NewDecoder(body)

	ev, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, Done(), ev)
	assert.Equal(t, 1, body.reads)
	assert.Equal(t, 1, body.closed)

	_, err = d.Next()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 1, body.reads)
}

func TestDecoder_ErrorEndsIteration(t *testing.T) {
	body := newScriptedBody(
		"data: {\"chunk\":\"par\"}\n",
		"data: {\"error\":\"Document not found. Please upload it first.\"}\n",
		"data: {\"chunk\":\"tial\"}\n",
	)
	events := collect(t, NewDecoder(body))
	require.Len(t, events, 2)
	assert.Equal(t, Chunk("par"), events[0])
	assert.Equal(t, KindError, events[1].Kind)

	var streamErr *StreamError
	require.ErrorAs(t, events[1].Err(), &streamErr)
	assert.Equal(t, "Document not found. Please upload it first.", streamErr.Message)
	assert.Equal(t, 1, body.closed)
}

func TestDecoder_EOFWithoutTerminalDiscardsPartialLine(t *testing.T) {
	body := newScriptedBody(
		"data: {\"chunk\":\"whole\"}\n",
		"data: {\"chunk\":\"trunc",
	)
	events := collect(t, NewDecoder(body))
	assert.Equal(t, []Event{Chunk("whole")}, events)
	assert.Equal(t, 1, body.closed)
}

func TestDecoder_ReadFailureReleasesBody(t *testing.T) {
	boom := errors.New("connection reset")
	body := newScriptedBody("data: {\"chunk\":\"x\"}\n")
	body.err = boom
	d := NewDecoder(body)

	ev, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, Chunk("x"), ev)

	_, err = d.Next()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, body.closed)
}

func TestDecoder_EarlyBreakClosesBody(t *testing.T) {
	body := newScriptedBody(
		"data: {\"chunk\":\"a\"}\n",
		"data: {\"chunk\":\"b\"}\n",
	)
	d := NewDecoder(body)
	for range d.Events() {
		break
	}
	assert.Equal(t, 1, body.closed)
	assert.NoError(t, d.Close())
	assert.Equal(t, 1, body.closed)
}

func TestDecoder_InvalidUTF8IsReplaced(t *testing.T) {
	body := newScriptedBody("data: {\"chunk\":\"a\xffb\"}\n")
	events := collect(t, NewDecoder(body))
	require.Len(t, events, 1)
	assert.Equal(t, "a�b", events[0].Text)
}

func TestEncoder_WritesFramedRecordsAndFlushes(t *testing.T) {
	rec := httptest.NewRecorder()
	enc := NewEncoder(rec)

	require.NoError(t, enc.WriteChunk("Hi \"there\""))
	require.NoError(t, enc.Encode(Done()))

	assert.Equal(t,
		"data: {\"chunk\":\"Hi \\\"there\\\"\"}\n\ndata: {\"done\":true}\n\n",
		rec.Body.String())
	assert.True(t, rec.Flushed)

	events := collect(t, NewDecoder(io.NopCloser(strings.NewReader(rec.Body.String()))))
	assert.Equal(t, []Event{Chunk("Hi \"there\""), Done()}, events)
}

func TestEncoder_EmptyChunkKeepsKey(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, NewEncoder(rec).WriteChunk(""))
	assert.Equal(t, "data: {\"chunk\":\"\"}\n\n", rec.Body.String())
}
