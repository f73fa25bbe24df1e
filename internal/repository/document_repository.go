package repository

import (
	"errors"

	"contextai-go/internal/model"

	"gorm.io/gorm"
)

// ErrDocumentNotFound 表示目录中没有该 document_id。
var ErrDocumentNotFound = errors.New("document not found")

// DocumentRepository 定义了对 documents 表的数据操作接口。
type DocumentRepository interface {
	Create(doc *model.Document) error
	FindAll() ([]model.Document, error)
	FindByDocumentID(documentID string) (*model.Document, error)
}

type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository 创建一个新的 DocumentRepository 实例。
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(doc *model.Document) error {
	return r.db.Create(doc).Error
}

// FindAll 按入库先后返回全部文档。
func (r *documentRepository) FindAll() ([]model.Document, error) {
	var docs []model.Document
	err := r.db.Order("id ASC").Find(&docs).Error
	return docs, err
}

func (r *documentRepository) FindByDocumentID(documentID string) (*model.Document, error) {
	var doc model.Document
	err := r.db.Where("document_id = ?", documentID).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}
