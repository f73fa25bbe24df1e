package service

import (
	"context"
	"errors"

	"contextai-go/internal/model"
	"contextai-go/internal/repository"
)

// ConversationService 定义了对话记录的查询接口。
type ConversationService interface {
	GetConversationHistory(ctx context.Context, documentID string) ([]model.ChatMessage, error)
}

type conversationService struct {
	docRepo repository.DocumentRepository
	repo    repository.ConversationRepository
}

// NewConversationService 创建一个新的 ConversationService。
func NewConversationService(docRepo repository.DocumentRepository, repo repository.ConversationRepository) ConversationService {
	return &conversationService{docRepo: docRepo, repo: repo}
}

// GetConversationHistory 返回服务端为该文档保存的最近问答。
func (s *conversationService) GetConversationHistory(ctx context.Context, documentID string) ([]model.ChatMessage, error) {
	if _, err := s.docRepo.FindByDocumentID(documentID); err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return s.repo.GetConversationHistory(ctx, documentID)
}
