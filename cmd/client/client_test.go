package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"contextai-go/internal/conversation"
	"contextai-go/internal/model"
	"contextai-go/pkg/stream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/documents", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(model.DocumentListResponse{Documents: []model.DocumentInfo{{DocumentID: "d1", FileName: "a.pdf"}}})
	})
	mux.HandleFunc("/chat/stream", func(w http.ResponseWriter, r *http.Request) {
		var req model.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "d1", req.DocumentID)
		w.Header().Set("Content-Type", stream.ContentType)
		enc := stream.NewEncoder(w)
		_ = enc.WriteChunk("The ")
		_ = enc.WriteChunk("answer")
		_ = enc.Encode(stream.Done())
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}, args...))
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&out)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestDocumentsCommand(t *testing.T) {
	srv := newServer(t)
	out, err := run(t, "", "--server", srv.URL, "documents")
	require.NoError(t, err)
	assert.Contains(t, out, "a.pdf")
	assert.Contains(t, out, "d1")
}

func TestChatCommand_StreamsAnswer(t *testing.T) {
	srv := newServer(t)
	out, err := run(t, "What is X?\n/quit\n", "--server", srv.URL, "chat", "--document", "d1")
	require.NoError(t, err)
	assert.Contains(t, out, "Now chatting about a.pdf")
	assert.Contains(t, out, "The answer")
}

func TestChatCommand_UnknownDocument(t *testing.T) {
	srv := newServer(t)
	_, err := run(t, "", "--server", srv.URL, "chat", "--document", "zz")
	assert.Error(t, err)
}

func TestChatCommand_NeedsSelection(t *testing.T) {
	srv := newServer(t)
	out, err := run(t, "hello\n/use d1\n/docs\n", "--server", srv.URL, "chat")
	require.NoError(t, err)
	assert.Contains(t, out, "Select a document")
	assert.Contains(t, out, "Now chatting about a.pdf")
}

func TestRenderer(t *testing.T) {
	var out bytes.Buffer
	r := newRenderer(&out)

	msg := conversation.Message{ID: 2, Sender: conversation.SenderAssistant}
	user := conversation.Message{ID: 1, Sender: conversation.SenderUser, Text: "q", Sealed: true}

	r.observe(conversation.Snapshot{Messages: []conversation.Message{user, msg}})
	msg.Text = "Par"
	r.observe(conversation.Snapshot{Messages: []conversation.Message{user, msg}})
	msg.Text = conversation.FailureNotice
	msg.Sealed = true
	r.observe(conversation.Snapshot{Messages: []conversation.Message{user, msg}})
	r.observe(conversation.Snapshot{Messages: []conversation.Message{user, msg}})

	got := out.String()
	assert.Equal(t, 1, strings.Count(got, "assistant"))
	assert.Equal(t, 1, strings.Count(got, "Par"))
	assert.Equal(t, 1, strings.Count(got, conversation.FailureNotice))
	assert.Equal(t, 2, strings.Count(got, "\n"))
}
