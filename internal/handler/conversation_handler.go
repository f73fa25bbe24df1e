package handler

import (
	"errors"
	"net/http"

	"contextai-go/internal/model"
	"contextai-go/internal/service"
	"contextai-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// ConversationHandler 处理与对话记录相关的 API 请求。
type ConversationHandler struct {
	service service.ConversationService
}

// NewConversationHandler 创建一个新的 ConversationHandler。
func NewConversationHandler(service service.ConversationService) *ConversationHandler {
	return &ConversationHandler{service: service}
}

// GetConversation 处理 GET /documents/:document_id/conversation。
func (h *ConversationHandler) GetConversation(c *gin.Context) {
	documentID := c.Param("document_id")
	history, err := h.service.GetConversationHistory(c.Request.Context(), documentID)
	if errors.Is(err, service.ErrDocumentNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"detail": model.DocumentNotFoundMessage})
		return
	}
	if err != nil {
		log.Errorf("[ConversationHandler] 获取对话记录失败, document_id: %s, error: %v", documentID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to retrieve conversation history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"document_id": documentID, "messages": history})
}
