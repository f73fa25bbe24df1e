package conversation

import (
	"testing"

	"contextai-go/pkg/stream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpret(t *testing.T) {
	tests := []struct {
		name string
		ev   stream.Event
		want Command
	}{
		{name: "chunk appends", ev: stream.Chunk("Hel"), want: Command{Kind: CommandAppend, Text: "Hel"}},
		{name: "done seals", ev: stream.Done(), want: Command{Kind: CommandSeal}},
		{name: "error fails", ev: stream.Fail("boom"), want: Command{Kind: CommandFail}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Interpret(tt.ev)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInterpret_RejectsUnknownKind(t *testing.T) {
	for _, ev := range []stream.Event{{}, {Kind: stream.Kind(42), Text: "x"}} {
		cmd, err := Interpret(ev)
		assert.ErrorIs(t, err, ErrUnknownEvent)
		assert.Zero(t, cmd)
	}
}

func TestMessageApply(t *testing.T) {
	m := Message{ID: 1, Sender: SenderAssistant}
	require.NoError(t, m.Apply(Command{Kind: CommandAppend, Text: "The "}))
	require.NoError(t, m.Apply(Command{Kind: CommandAppend, Text: "answer"}))
	assert.Equal(t, "The answer", m.Text)
	assert.True(t, m.InFlight())

	require.NoError(t, m.Apply(Command{Kind: CommandSeal}))
	assert.False(t, m.InFlight())

	assert.ErrorIs(t, m.Apply(Command{Kind: CommandAppend, Text: "late"}), ErrSealed)
	assert.ErrorIs(t, m.Apply(Command{Kind: CommandFail}), ErrSealed)
	assert.ErrorIs(t, m.Apply(Command{Kind: CommandSeal}), ErrSealed)
	assert.Equal(t, "The answer", m.Text)
}

func TestMessageApply_FailReplacesText(t *testing.T) {
	m := Message{ID: 1, Sender: SenderAssistant, Text: "half an ans"}
	require.NoError(t, m.Apply(Command{Kind: CommandFail}))
	assert.Equal(t, FailureNotice, m.Text)
	assert.True(t, m.Sealed)
}

func TestMessageApply_UnknownCommand(t *testing.T) {
	m := Message{ID: 1}
	assert.Error(t, m.Apply(Command{}))
	assert.False(t, m.Sealed)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Selected()
	assert.False(t, ok)

	assert.True(t, r.Add(Document{ID: "d1", Filename: "a.pdf"}))
	assert.True(t, r.Add(Document{ID: "d2", Filename: "b.pdf"}))
	assert.False(t, r.Add(Document{ID: "d1", Filename: "renamed.pdf"}))
	assert.Equal(t, 2, r.Len())

	list := r.List()
	list[0].Filename = "mutated"
	got, ok := r.Get("d1")
	require.True(t, ok)
	assert.Equal(t, "a.pdf", got.Filename)

	r.Select("d2")
	sel, ok := r.Selected()
	require.True(t, ok)
	assert.Equal(t, "b.pdf", sel.Filename)

	r.Select("missing")
	assert.Equal(t, "missing", r.SelectedID())
	_, ok = r.Selected()
	assert.False(t, ok)
}
