package handler

import "github.com/gin-gonic/gin"

// Handlers 汇总所有路由用到的处理器。
type Handlers struct {
	Upload       *UploadHandler
	Document     *DocumentHandler
	Chat         *ChatHandler
	Conversation *ConversationHandler
	Search       *SearchHandler
}

// RegisterRoutes 注册全部路由。
func RegisterRoutes(r gin.IRouter, h Handlers) {
	r.GET("/", Root)
	r.GET("/health", Health)

	r.POST("/upload", h.Upload.Upload)
	r.GET("/documents", h.Document.List)
	r.GET("/documents/:document_id/conversation", h.Conversation.GetConversation)
	r.GET("/search", h.Search.Search)

	chat := r.Group("/chat")
	{
		chat.POST("", h.Chat.Chat)
		chat.POST("/stream", h.Chat.Stream)
		chat.GET("/ws", h.Chat.WebSocket)
	}
}
