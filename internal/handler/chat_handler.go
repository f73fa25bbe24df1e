package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"contextai-go/internal/model"
	"contextai-go/internal/service"
	"contextai-go/pkg/log"
	"contextai-go/pkg/stream"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ChatHandler 负责问答接口：普通 JSON、data: 流与 WebSocket。
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler 创建一个新的 ChatHandler。
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// errorText 是返回给客户端的错误文本。
func errorText(err error) string {
	if errors.Is(err, service.ErrDocumentNotFound) {
		return model.DocumentNotFoundMessage
	}
	return fmt.Sprintf("Error processing question: %v", err)
}

// Chat 处理 POST /chat。
func (h *ChatHandler) Chat(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": fmt.Sprintf("Invalid request: %v", err)})
		return
	}
	log.Infof("[ChatHandler] 收到问题, document_id: %s, history: %d", req.DocumentID, len(req.ChatHistory))

	answer, err := h.chatService.Answer(c.Request.Context(), req)
	if errors.Is(err, service.ErrDocumentNotFound) {
		c.JSON(http.StatusOK, model.ChatResponse{Error: model.DocumentNotFoundMessage})
		return
	}
	if err != nil {
		log.Errorf("[ChatHandler] 生成回答失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": errorText(err)})
		return
	}
	c.JSON(http.StatusOK, model.ChatResponse{Answer: answer})
}

// Stream 处理 POST /chat/stream。响应头发出后的任何错误都以 error 记录结束流。
func (h *ChatHandler) Stream(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": fmt.Sprintf("Invalid request: %v", err)})
		return
	}
	log.Infof("[ChatHandler] 收到流式问题, document_id: %s, history: %d", req.DocumentID, len(req.ChatHistory))

	c.Header("Content-Type", stream.ContentType)
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	enc := stream.NewEncoder(c.Writer)
	if err := h.chatService.StreamAnswer(c.Request.Context(), req, enc); err != nil {
		log.Errorf("[ChatHandler] 流式回答失败: %v", err)
		_ = enc.Encode(stream.Fail(errorText(err)))
		return
	}
	_ = enc.Encode(stream.Done())
}

type wsChunkWriter struct {
	conn *websocket.Conn
}

func (w wsChunkWriter) WriteChunk(text string) error {
	return writeEvent(w.conn, stream.Chunk(text))
}

func writeEvent(conn *websocket.Conn, ev stream.Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, b)
}

// WebSocket 处理 GET /chat/ws。每条文本帧是一个问答请求，回复帧与 data: 流的记录相同。
func (h *ChatHandler) WebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()
	log.Infof("WebSocket 连接已建立: %s", c.ClientIP())

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warnf("从 WebSocket 读取消息失败: %v", err)
			}
			return
		}

		var req model.ChatRequest
		if err := json.Unmarshal(message, &req); err != nil || req.Question == "" || req.DocumentID == "" {
			if writeErr := writeEvent(conn, stream.Fail("Invalid request: question and document_id are required")); writeErr != nil {
				return
			}
			continue
		}

		final := stream.Done()
		if err := h.chatService.StreamAnswer(c.Request.Context(), req, wsChunkWriter{conn: conn}); err != nil {
			log.Errorf("处理 WebSocket 问答失败: %v", err)
			final = stream.Fail(errorText(err))
		}
		if err := writeEvent(conn, final); err != nil {
			return
		}
	}
}
