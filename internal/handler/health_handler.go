// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"
	"time"

	"contextai-go/internal/model"

	"github.com/gin-gonic/gin"
)

// Root 处理 GET /。
func Root(c *gin.Context) {
	c.JSON(http.StatusOK, model.HealthResponse{
		Status:    "ok",
		Message:   "Document chat API is running",
		Timestamp: model.LocalTime(time.Now()),
	})
}

// Health 处理 GET /health。
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, model.HealthResponse{
		Status:    "healthy",
		Timestamp: model.LocalTime(time.Now()),
	})
}
