// Package repository 提供了数据访问层的实现。
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"contextai-go/internal/model"

	"github.com/go-redis/redis/v8"
)

const (
	conversationMaxMessages = 20
	conversationTTL         = 7 * 24 * time.Hour
)

// ConversationRepository 按文档保存服务端的问答记录。
type ConversationRepository interface {
	GetConversationHistory(ctx context.Context, documentID string) ([]model.ChatMessage, error)
	AppendConversation(ctx context.Context, documentID string, messages ...model.ChatMessage) error
}

type redisConversationRepository struct {
	redisClient *redis.Client
}

// NewConversationRepository 创建一个新的 ConversationRepository 实例。
func NewConversationRepository(redisClient *redis.Client) ConversationRepository {
	return &redisConversationRepository{redisClient: redisClient}
}

func conversationKey(documentID string) string {
	return fmt.Sprintf("conversation:document:%s", documentID)
}

// keepLatest 只保留最近 conversationMaxMessages 条。
func keepLatest(messages []model.ChatMessage) []model.ChatMessage {
	if len(messages) > conversationMaxMessages {
		return messages[len(messages)-conversationMaxMessages:]
	}
	return messages
}

// GetConversationHistory 从 Redis 获取对话历史记录。
func (r *redisConversationRepository) GetConversationHistory(ctx context.Context, documentID string) ([]model.ChatMessage, error) {
	jsonData, err := r.redisClient.Get(ctx, conversationKey(documentID)).Result()
	if errors.Is(err, redis.Nil) {
		return []model.ChatMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation history: %w", err)
	}
	var messages []model.ChatMessage
	if err := json.Unmarshal([]byte(jsonData), &messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation history: %w", err)
	}
	return messages, nil
}

// AppendConversation 追加消息并刷新过期时间。
func (r *redisConversationRepository) AppendConversation(ctx context.Context, documentID string, messages ...model.ChatMessage) error {
	history, err := r.GetConversationHistory(ctx, documentID)
	if err != nil {
		return err
	}
	jsonData, err := json.Marshal(keepLatest(append(history, messages...)))
	if err != nil {
		return fmt.Errorf("failed to marshal conversation history: %w", err)
	}
	if err := r.redisClient.Set(ctx, conversationKey(documentID), jsonData, conversationTTL).Err(); err != nil {
		return fmt.Errorf("failed to set conversation history: %w", err)
	}
	return nil
}
