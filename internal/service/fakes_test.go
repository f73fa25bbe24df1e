package service

import (
	"context"
	"io"
	"sync"

	"contextai-go/internal/model"
	"contextai-go/internal/repository"
	"contextai-go/pkg/llm"
)

type fakeDocRepo struct {
	docs []model.Document
	err  error
}

func (f *fakeDocRepo) Create(doc *model.Document) error {
	if f.err != nil {
		return f.err
	}
	f.docs = append(f.docs, *doc)
	return nil
}

func (f *fakeDocRepo) FindAll() ([]model.Document, error) { return f.docs, f.err }

func (f *fakeDocRepo) FindByDocumentID(id string) (*model.Document, error) {
	for i := range f.docs {
		if f.docs[i].DocumentID == id {
			return &f.docs[i], nil
		}
	}
	return nil, repository.ErrDocumentNotFound
}

type fakeSearch struct {
	hits  []model.SearchHit
	query string
	topK  int
}

func (f *fakeSearch) SearchDocument(_ context.Context, _ string, query string, topK int) ([]model.SearchHit, error) {
	f.query = query
	f.topK = topK
	return f.hits, nil
}

// fakeLLM answers non-streaming calls from replies in order and streams chunks.
type fakeLLM struct {
	replies   []string
	chatErr   error
	chunks    []string
	streamErr error

	chatCalls [][]llm.Message
	streamed  []llm.Message
}

func (f *fakeLLM) ChatMessages(_ context.Context, messages []llm.Message, _ *llm.GenerationParams) (string, error) {
	f.chatCalls = append(f.chatCalls, messages)
	if f.chatErr != nil {
		return "", f.chatErr
	}
	if len(f.replies) == 0 {
		return "", nil
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r, nil
}

func (f *fakeLLM) StreamChatMessages(_ context.Context, messages []llm.Message, _ *llm.GenerationParams, w llm.ChunkWriter) error {
	f.streamed = messages
	for _, c := range f.chunks {
		if err := w.WriteChunk(c); err != nil {
			return err
		}
	}
	return f.streamErr
}

type fakeConversationRepo struct {
	mu   sync.Mutex
	logs map[string][]model.ChatMessage
}

func (f *fakeConversationRepo) GetConversationHistory(_ context.Context, id string) ([]model.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logs[id], nil
}

func (f *fakeConversationRepo) AppendConversation(_ context.Context, id string, msgs ...model.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.logs == nil {
		f.logs = map[string][]model.ChatMessage{}
	}
	f.logs[id] = append(f.logs[id], msgs...)
	return nil
}

type fakeObjects struct {
	objects map[string][]byte
	removed []string
	err     error
}

func (f *fakeObjects) Remove(_ context.Context, name string) error {
	f.removed = append(f.removed, name)
	delete(f.objects, name)
	return nil
}

func (f *fakeObjects) Put(_ context.Context, name string, r io.Reader, _ int64, _ string) error {
	if f.err != nil {
		return f.err
	}
	b, _ := io.ReadAll(r)
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[name] = b
	return nil
}

type fakeIngester struct {
	chunks    int
	err       error
	ids       []string
	discarded []string
}

func (f *fakeIngester) Discard(id string) {
	f.discarded = append(f.discarded, id)
}

func (f *fakeIngester) Process(_ context.Context, id, _ string, _ []byte) (int, error) {
	f.ids = append(f.ids, id)
	return f.chunks, f.err
}

type fakePublisher struct {
	events []model.DocumentIngestedEvent
	err    error
}

func (f *fakePublisher) PublishDocumentIngested(_ context.Context, ev model.DocumentIngestedEvent) error {
	f.events = append(f.events, ev)
	return f.err
}
