package repository

import (
	"contextai-go/internal/model"

	"gorm.io/gorm"
)

// ChunkRepository 定义了对 document_chunks 表的数据操作接口。
type ChunkRepository interface {
	BatchCreate(chunks []*model.DocumentChunk) error
	FindByDocumentID(documentID string) ([]*model.DocumentChunk, error)
	DeleteByDocumentID(documentID string) error
}

type chunkRepository struct {
	db *gorm.DB
}

// NewChunkRepository 创建一个新的 ChunkRepository 实例。
func NewChunkRepository(db *gorm.DB) ChunkRepository {
	return &chunkRepository{db: db}
}

// BatchCreate 批量写入分块，每 100 条一批。
func (r *chunkRepository) BatchCreate(chunks []*model.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	return r.db.CreateInBatches(chunks, 100).Error
}

func (r *chunkRepository) FindByDocumentID(documentID string) ([]*model.DocumentChunk, error) {
	var chunks []*model.DocumentChunk
	err := r.db.Where("document_id = ?", documentID).Order("chunk_id ASC").Find(&chunks).Error
	return chunks, err
}

// DeleteByDocumentID 删除文档的全部分块，入库失败时用于回滚。
func (r *chunkRepository) DeleteByDocumentID(documentID string) error {
	return r.db.Where("document_id = ?", documentID).Delete(&model.DocumentChunk{}).Error
}
