package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"contextai-go/internal/model"
	"contextai-go/internal/repository"
	"contextai-go/pkg/llm"
	"contextai-go/pkg/log"
)

// ErrDocumentNotFound 表示问题指向一个未入库的文档。
var ErrDocumentNotFound = errors.New("document not found")

const (
	reformulatePrompt = "You must reformulate the user's question to be standalone. Look at the chat history to understand context.\n\n" +
		"Rules:\n" +
		"1. If the question refers to 'the first one', 'it', 'that', etc., replace with the specific thing from history\n" +
		"2. If history mentions 'projects' and user asks 'what is the first one about?', change to 'what is the first project about?'\n" +
		"3. If no context is needed, return the question unchanged\n" +
		"4. Do NOT answer the question, only reformulate it\n\n" +
		"Return ONLY the reformulated question, nothing else."

	historySystemPrompt = "You are an assistant for question-answering tasks. " +
		"Use the following pieces of retrieved context to answer the question. " +
		"Consider the chat history for context, but base your answer primarily on the retrieved documents. " +
		"If you don't know the answer, say that you don't know. " +
		"Use three sentences maximum and keep the answer concise.\n\n" +
		"Context: %s"

	singleTurnPrompt = "You are an assistant for question-answering tasks. " +
		"Use the following pieces of retrieved context to answer the question. " +
		"If you don't know the answer, say that you don't know. " +
		"Use three sentences maximum and keep the answer concise.\n\n" +
		"Context: %s\n\n" +
		"Question: %s\n\n" +
		"Answer:"
)

// ChatService 定义了文档问答的接口。
type ChatService interface {
	// Answer 返回完整回答。
	Answer(ctx context.Context, req model.ChatRequest) (string, error)
	// StreamAnswer 将回答的增量依次写入 w。
	StreamAnswer(ctx context.Context, req model.ChatRequest, w llm.ChunkWriter) error
}

type chatService struct {
	docRepo          repository.DocumentRepository
	searchService    SearchService
	llmClient        llm.Client
	conversationRepo repository.ConversationRepository
	topK             int
}

// NewChatService 创建一个新的 ChatService 实例。
func NewChatService(
	docRepo repository.DocumentRepository,
	searchService SearchService,
	llmClient llm.Client,
	conversationRepo repository.ConversationRepository,
	topK int,
) ChatService {
	if topK <= 0 {
		topK = 6
	}
	return &chatService{
		docRepo:          docRepo,
		searchService:    searchService,
		llmClient:        llmClient,
		conversationRepo: conversationRepo,
		topK:             topK,
	}
}

func (s *chatService) Answer(ctx context.Context, req model.ChatRequest) (string, error) {
	messages, err := s.prepare(ctx, req)
	if err != nil {
		return "", err
	}
	answer, err := s.llmClient.ChatMessages(ctx, messages, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}
	s.record(req, answer)
	return answer, nil
}

func (s *chatService) StreamAnswer(ctx context.Context, req model.ChatRequest, w llm.ChunkWriter) error {
	messages, err := s.prepare(ctx, req)
	if err != nil {
		return err
	}

	// 同时转发给调用方并记录完整答案
	var answer strings.Builder
	tee := llm.ChunkWriterFunc(func(text string) error {
		answer.WriteString(text)
		return w.WriteChunk(text)
	})
	if err := s.llmClient.StreamChatMessages(ctx, messages, nil, tee); err != nil {
		return err
	}
	s.record(req, answer.String())
	return nil
}

// prepare 校验文档、改写问题、检索上下文并组装发给 LLM 的消息。
func (s *chatService) prepare(ctx context.Context, req model.ChatRequest) ([]llm.Message, error) {
	if _, err := s.docRepo.FindByDocumentID(req.DocumentID); err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to look up document: %w", err)
	}

	history := historyMessages(req.ChatHistory, req.Question)
	query := req.Question
	if len(history) > 0 {
		query = s.reformulate(ctx, history, req.Question)
	}

	hits, err := s.searchService.SearchDocument(ctx, req.DocumentID, query, s.topK)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve context: %w", err)
	}
	contextText := buildContextText(hits)

	if len(history) == 0 {
		return []llm.Message{{Role: "user", Content: fmt.Sprintf(singleTurnPrompt, contextText, req.Question)}}, nil
	}
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: "system", Content: fmt.Sprintf(historySystemPrompt, contextText)})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: "user", Content: req.Question})
	return messages, nil
}

// reformulate 让 LLM 把依赖上下文的问题改写为独立问题，失败时退回原问题。
func (s *chatService) reformulate(ctx context.Context, history []llm.Message, question string) string {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: "system", Content: reformulatePrompt})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: "user", Content: question})

	out, err := s.llmClient.ChatMessages(ctx, messages, nil)
	if err != nil {
		log.Warnf("[ChatService] 问题改写失败，使用原问题: %v", err)
		return question
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return question
	}
	log.Infof("[ChatService] 问题改写: '%s' -> '%s'", question, out)
	return out
}

// historyMessages 将客户端历史转换为 LLM 消息。客户端通常把当前问题作为
// 最后一条 user 消息一并发送，这条会被去掉，避免问题出现两次。
func historyMessages(history []model.HistoryMessage, question string) []llm.Message {
	if n := len(history); n > 0 && history[n-1].Sender == model.SenderUser && history[n-1].Text == question {
		history = history[:n-1]
	}
	out := make([]llm.Message, 0, len(history))
	for _, h := range history {
		role := "assistant"
		if h.Sender == model.SenderUser {
			role = "user"
		}
		out = append(out, llm.Message{Role: role, Content: h.Text})
	}
	return out
}

func buildContextText(hits []model.SearchHit) string {
	parts := make([]string, 0, len(hits))
	for _, h := range hits {
		parts = append(parts, h.TextContent)
	}
	return strings.Join(parts, "\n\n")
}

// record 将问答追加到文档的对话日志，失败只记录日志。
func (s *chatService) record(req model.ChatRequest, answer string) {
	if answer == "" || s.conversationRepo == nil {
		return
	}
	// 请求可能已结束，使用独立的上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	now := time.Now()
	err := s.conversationRepo.AppendConversation(ctx, req.DocumentID,
		model.ChatMessage{Role: "user", Content: req.Question, Timestamp: now},
		model.ChatMessage{Role: "assistant", Content: answer, Timestamp: now},
	)
	if err != nil {
		log.Errorf("Failed to save conversation history: %v", err)
	}
}
