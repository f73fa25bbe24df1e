package handler

import (
	"net/http"
	"strconv"

	"contextai-go/internal/service"
	"contextai-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// SearchHandler 暴露单文档检索，便于排查召回效果。
type SearchHandler struct {
	searchService service.SearchService
	defaultTopK   int
}

// NewSearchHandler 创建一个新的 SearchHandler 实例。
func NewSearchHandler(searchService service.SearchService, defaultTopK int) *SearchHandler {
	return &SearchHandler{searchService: searchService, defaultTopK: defaultTopK}
}

// Search 处理 GET /search?document_id=&query=&top_k=。
func (h *SearchHandler) Search(c *gin.Context) {
	documentID := c.Query("document_id")
	query := c.Query("query")
	if documentID == "" || query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "document_id and query are required"})
		return
	}
	topK, err := strconv.Atoi(c.Query("top_k"))
	if err != nil || topK <= 0 {
		topK = h.defaultTopK
	}

	results, err := h.searchService.SearchDocument(c.Request.Context(), documentID, query, topK)
	if err != nil {
		log.Errorf("[SearchHandler] 检索失败, error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Search failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}
