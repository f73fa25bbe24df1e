package model

// 聊天历史中的发送方。服务端只区分 user 与其他（均视为助手）。
const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

// HistoryMessage 是客户端随问题一起发送的一条历史消息。
type HistoryMessage struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// ChatRequest 是 POST /chat 与 POST /chat/stream 的请求体。
type ChatRequest struct {
	Question    string           `json:"question" binding:"required"`
	DocumentID  string           `json:"document_id" binding:"required"`
	ChatHistory []HistoryMessage `json:"chat_history"`
}

// ChatResponse 是 POST /chat 的响应体，Answer 与 Error 二选一。
type ChatResponse struct {
	Answer string `json:"answer,omitempty"`
	Error  string `json:"error,omitempty"`
}

// DocumentNotFoundMessage 是问题指向未知文档时返回给客户端的文本。
const DocumentNotFoundMessage = "Document not found. Please upload it first."
