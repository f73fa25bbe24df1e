package handler

import (
	"fmt"
	"io"
	"net/http"

	"contextai-go/internal/model"
	"contextai-go/internal/service"
	"contextai-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// UploadHandler 负责处理文件上传。
type UploadHandler struct {
	docService service.DocumentService
}

// NewUploadHandler 创建一个新的 UploadHandler 实例。
func NewUploadHandler(docService service.DocumentService) *UploadHandler {
	return &UploadHandler{docService: docService}
}

func uploadFailed(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"detail": fmt.Sprintf("Failed to process file: %v", err)})
}

// Upload 处理 POST /upload，表单字段 file。文件入库完成后才返回。
func (h *UploadHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		log.Warnf("[UploadHandler] 缺少文件字段: %v", err)
		uploadFailed(c, err)
		return
	}
	f, err := header.Open()
	if err != nil {
		uploadFailed(c, err)
		return
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		uploadFailed(c, err)
		return
	}

	doc, err := h.docService.Upload(c.Request.Context(), header.Filename, content)
	if err != nil {
		log.Errorf("[UploadHandler] 处理文件失败, filename: %s, error: %v", header.Filename, err)
		uploadFailed(c, err)
		return
	}

	c.JSON(http.StatusOK, model.UploadResponse{
		Success:    true,
		DocumentID: doc.DocumentID,
		FileName:   doc.FileName,
		Message:    fmt.Sprintf("Successfully uploaded and processed %s", doc.FileName),
	})
}
