package model

// EsChunk 定义了存储在 Elasticsearch 中的分块文档结构。
type EsChunk struct {
	VectorID     string    `json:"vector_id"` // 唯一标识：documentId + chunkId
	DocumentID   string    `json:"document_id"`
	FileName     string    `json:"file_name"`
	ChunkID      int       `json:"chunk_id"`
	TextContent  string    `json:"text_content"`
	Vector       []float32 `json:"vector"`
	ModelVersion string    `json:"model_version"`
}

// SearchHit 是一次检索命中的分块。
type SearchHit struct {
	DocumentID  string  `json:"documentId"`
	FileName    string  `json:"fileName"`
	ChunkID     int     `json:"chunkId"`
	TextContent string  `json:"textContent"`
	Score       float64 `json:"score"`
}
