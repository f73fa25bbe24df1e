package handler

import (
	"net/http"

	"contextai-go/internal/model"
	"contextai-go/internal/service"
	"contextai-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// DocumentHandler 负责文档目录相关的 API。
type DocumentHandler struct {
	docService service.DocumentService
}

// NewDocumentHandler 创建一个新的 DocumentHandler 实例。
func NewDocumentHandler(docService service.DocumentService) *DocumentHandler {
	return &DocumentHandler{docService: docService}
}

// List 处理 GET /documents。
func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.docService.List(c.Request.Context())
	if err != nil {
		log.Error("List documents: failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to list documents"})
		return
	}
	c.JSON(http.StatusOK, model.DocumentListResponse{Documents: docs})
}
