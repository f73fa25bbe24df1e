package model

import "time"

// DocumentIngestedEvent 在文档完成入库后发送到 Kafka，供下游消费。
type DocumentIngestedEvent struct {
	Type       string    `json:"type"`
	DocumentID string    `json:"document_id"`
	FileName   string    `json:"file_name"`
	ObjectName string    `json:"object_name"`
	ChunkCount int       `json:"chunk_count"`
	Timestamp  time.Time `json:"timestamp"`
}

// EventDocumentIngested 是 DocumentIngestedEvent.Type 的取值。
const EventDocumentIngested = "document.ingested"
