package model

// DocumentChunk 对应于数据库中的 document_chunks 表，保存切块后的原始文本。
type DocumentChunk struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	DocumentID   string `gorm:"type:varchar(36);not null;index"`
	ChunkID      int    `gorm:"not null"`
	TextContent  string `gorm:"type:text"`
	ModelVersion string `gorm:"type:varchar(50)"`
}

func (DocumentChunk) TableName() string {
	return "document_chunks"
}
