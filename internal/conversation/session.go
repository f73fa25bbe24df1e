package conversation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"contextai-go/internal/model"
	"contextai-go/pkg/log"
	"contextai-go/pkg/stream"
)

// ErrBusy is returned when an upload or send is attempted while another
// network operation of the same session is still running.
var ErrBusy = errors.New("conversation: another request is in progress")

// Transport is the network collaborator the session talks to.
type Transport interface {
	Upload(ctx context.Context, filename string, content []byte) (Document, error)
	ListDocuments(ctx context.Context) ([]Document, error)
	Chat(ctx context.Context, req model.ChatRequest) (model.ChatResponse, error)
	// OpenChatStream returns the response body of POST /chat/stream. A non-2xx
	// status must be reported as an error before any body is returned.
	OpenChatStream(ctx context.Context, req model.ChatRequest) (io.ReadCloser, error)
}

// Snapshot is an immutable copy of the session state handed to observers.
type Snapshot struct {
	Messages   []Message
	Documents  []Document
	SelectedID string
	Busy       bool
}

// Observer is called after every state change with the new state. It runs on
// the goroutine that caused the change and must not block for long.
type Observer func(Snapshot)

// Option configures a Session.
type Option func(*Session)

// WithObserver registers an observer.
func WithObserver(o Observer) Option {
	return func(s *Session) {
		s.observers = append(s.observers, o)
	}
}

// WithStreaming selects between POST /chat/stream (true, the default) and
// the non-streaming POST /chat.
func WithStreaming(enabled bool) Option {
	return func(s *Session) {
		s.streaming = enabled
	}
}

// Session is one conversation: messages, document registry and selection.
// Mutations are atomic with respect to observers and snapshot readers.
type Session struct {
	transport Transport
	streaming bool
	observers []Observer

	mu       sync.Mutex
	registry *Registry
	messages []Message
	nextID   uint64
	busy     bool
}

// NewSession returns an empty session using t for network calls.
func NewSession(t Transport, opts ...Option) *Session {
	s := &Session{
		transport: t,
		streaming: true,
		registry:  NewRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListDocuments returns the registry contents.
func (s *Session) ListDocuments() []Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.List()
}

// Selected returns the selected document, if it is known.
func (s *Session) Selected() (Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Selected()
}

// SelectedID returns the selected document id, "" when nothing is selected.
func (s *Session) SelectedID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.SelectedID()
}

// Messages returns a copy of the message list.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyMessagesLocked()
}

// Busy reports whether a network operation is running.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Snapshot returns the full current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Refresh merges the server's document catalog into the registry.
func (s *Session) Refresh(ctx context.Context) error {
	if err := s.begin(); err != nil {
		return err
	}
	defer s.end()

	docs, err := s.transport.ListDocuments(ctx)
	if err != nil {
		log.Errorf("conversation: failed to load documents: %v", err)
		return err
	}
	s.mutate(func() {
		for _, d := range docs {
			s.registry.Add(d)
		}
	})
	return nil
}

// Upload sends a document for processing. On success the document is added
// and selected and the conversation restarts with a confirmation message.
// On failure the conversation holds a single failure message, the registry is
// untouched and the error is returned.
func (s *Session) Upload(ctx context.Context, filename string, content []byte) (Document, error) {
	if err := s.begin(); err != nil {
		return Document{}, err
	}
	defer s.end()

	s.mutate(func() { s.messages = nil })

	doc, err := s.transport.Upload(ctx, filename, content)
	if err != nil {
		log.Errorf("conversation: upload of %s failed: %v", filename, err)
		s.mutate(func() {
			s.messages = nil
			s.appendLocked(SenderAssistant, UploadFailureNotice, true)
		})
		return Document{}, err
	}

	s.mutate(func() {
		s.registry.Add(doc)
		s.registry.Select(doc.ID)
		s.messages = nil
		s.appendLocked(SenderAssistant, uploadConfirmation(doc.Filename), true)
	})
	log.Infow("conversation: document uploaded", "documentId", doc.ID, "filename", doc.Filename)
	return doc, nil
}

// SelectDocument changes the selection. Choosing a different document clears
// the conversation; choosing the current one leaves it alone.
func (s *Session) SelectDocument(id string) {
	s.mutate(func() {
		if id != s.registry.SelectedID() {
			s.messages = nil
		}
		s.registry.Select(id)
	})
}

// SendMessage asks a question about the selected document. Without a
// selection it does nothing. The user message is visible before the request
// is made; the assistant reply grows as chunks arrive and is always sealed
// when SendMessage returns. Transport failures and in-band stream errors are
// returned after the reply has been replaced with FailureNotice.
func (s *Session) SendMessage(ctx context.Context, text string) error {
	s.mu.Lock()
	docID := s.registry.SelectedID()
	if docID == "" {
		s.mu.Unlock()
		return nil
	}
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	s.busy = true
	s.appendLocked(SenderUser, text, true)
	req := model.ChatRequest{
		Question:    text,
		DocumentID:  docID,
		ChatHistory: s.historyLocked(),
	}
	replyID := s.appendLocked(SenderAssistant, "", false)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
	defer s.end()

	if !s.streaming {
		return s.ask(ctx, replyID, req)
	}
	return s.stream(ctx, replyID, req)
}

func (s *Session) ask(ctx context.Context, replyID uint64, req model.ChatRequest) error {
	resp, err := s.transport.Chat(ctx, req)
	if err != nil {
		log.Errorf("conversation: chat request failed: %v", err)
		s.apply(replyID, Command{Kind: CommandFail})
		return err
	}
	answer := resp.Answer
	if answer == "" {
		answer = resp.Error
	}
	s.apply(replyID, Command{Kind: CommandAppend, Text: answer})
	s.apply(replyID, Command{Kind: CommandSeal})
	return nil
}

func (s *Session) stream(ctx context.Context, replyID uint64, req model.ChatRequest) error {
	body, err := s.transport.OpenChatStream(ctx, req)
	if err != nil {
		log.Errorf("conversation: opening chat stream failed: %v", err)
		s.apply(replyID, Command{Kind: CommandFail})
		return err
	}

	dec := stream.NewDecoder(body)
	for ev, err := range dec.Events() {
		if err != nil {
			log.Errorf("conversation: chat stream broke: %v", err)
			s.apply(replyID, Command{Kind: CommandFail})
			return err
		}
		cmd, err := Interpret(ev)
		if err != nil {
			log.Warnf("conversation: skipping event: %v", err)
			continue
		}
		s.apply(replyID, cmd)
		if ev.Terminal() {
			if streamErr := ev.Err(); streamErr != nil {
				log.Warnf("conversation: server reported %v", streamErr)
				return streamErr
			}
			return nil
		}
	}

	// body ended without done or error: keep what arrived
	s.apply(replyID, Command{Kind: CommandSeal})
	return nil
}

// apply runs cmd against the message with the given id. Commands for a
// message that is gone (the conversation was cleared) are dropped.
func (s *Session) apply(id uint64, cmd Command) {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	if err := s.messages[i].Apply(cmd); err != nil {
		s.mu.Unlock()
		log.Warnf("conversation: dropping command for message %d: %v", id, err)
		return
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

func (s *Session) begin() error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	s.busy = true
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
	return nil
}

func (s *Session) end() {
	s.mutate(func() {
		s.busy = false
		// nothing may stay in flight once an operation returns
		for i := range s.messages {
			if !s.messages[i].Sealed {
				s.messages[i].Sealed = true
			}
		}
	})
}

func (s *Session) mutate(fn func()) {
	s.mu.Lock()
	fn()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

func (s *Session) notify(snap Snapshot) {
	for _, o := range s.observers {
		o(snap)
	}
}

func (s *Session) appendLocked(sender Sender, text string, sealed bool) uint64 {
	s.nextID++
	s.messages = append(s.messages, Message{ID: s.nextID, Sender: sender, Text: text, Sealed: sealed})
	return s.nextID
}

func (s *Session) indexLocked(id uint64) int {
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Session) historyLocked() []model.HistoryMessage {
	history := make([]model.HistoryMessage, 0, len(s.messages))
	for _, m := range s.messages {
		history = append(history, model.HistoryMessage{Sender: string(m.Sender), Text: m.Text})
	}
	return history
}

func (s *Session) copyMessagesLocked() []Message {
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		Messages:   s.copyMessagesLocked(),
		Documents:  s.registry.List(),
		SelectedID: s.registry.SelectedID(),
		Busy:       s.busy,
	}
}

// String renders the transcript, mostly for logs and tests.
func (s Snapshot) String() string {
	var sb strings.Builder
	for _, m := range s.Messages {
		fmt.Fprintf(&sb, "[%s] %s\n", m.Sender, m.Text)
	}
	return sb.String()
}
