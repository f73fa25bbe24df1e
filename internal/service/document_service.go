package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"contextai-go/internal/model"
	"contextai-go/internal/repository"
	"contextai-go/pkg/log"
	"contextai-go/pkg/storage"
	"contextai-go/pkg/tika"

	"github.com/google/uuid"
)

var (
	// ErrEmptyFile 表示上传的文件没有内容。
	ErrEmptyFile = errors.New("uploaded file is empty")
	// ErrMissingFilename 表示上传时没有文件名。
	ErrMissingFilename = errors.New("uploaded file has no name")
)

// ObjectStore 保存原始文件，由 storage.ObjectStore 实现。
type ObjectStore interface {
	Put(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) error
	Remove(ctx context.Context, objectName string) error
}

// Ingester 把文件处理成可检索的分块，由 pipeline.Processor 实现。
type Ingester interface {
	Process(ctx context.Context, documentID, fileName string, content []byte) (int, error)
	// Discard 删除一个文档已入库的分块。
	Discard(documentID string)
}

// EventPublisher 发布入库事件，由 kafka.Producer 实现。
type EventPublisher interface {
	PublishDocumentIngested(ctx context.Context, ev model.DocumentIngestedEvent) error
}

// DocumentService 定义了文档上传与目录查询的接口。
type DocumentService interface {
	Upload(ctx context.Context, fileName string, content []byte) (*model.Document, error)
	List(ctx context.Context) ([]model.DocumentInfo, error)
}

type documentService struct {
	objects   ObjectStore
	ingester  Ingester
	docRepo   repository.DocumentRepository
	publisher EventPublisher
}

// NewDocumentService 创建一个新的 DocumentService 实例。publisher 可以为 nil。
func NewDocumentService(objects ObjectStore, ingester Ingester, docRepo repository.DocumentRepository, publisher EventPublisher) DocumentService {
	return &documentService{
		objects:   objects,
		ingester:  ingester,
		docRepo:   docRepo,
		publisher: publisher,
	}
}

// Upload 保存原始文件、完成入库并登记到目录。返回时文档已可检索。
func (s *documentService) Upload(ctx context.Context, fileName string, content []byte) (*model.Document, error) {
	fileName = strings.TrimSpace(filepath.Base(fileName))
	if fileName == "" || fileName == "." || fileName == "/" {
		return nil, ErrMissingFilename
	}
	if len(content) == 0 {
		return nil, ErrEmptyFile
	}

	documentID := uuid.NewString()
	objectName := storage.ObjectName(documentID, fileName)
	log.Infof("[DocumentService] 收到上传, document_id: %s, filename: %s, size: %d", documentID, fileName, len(content))

	if err := s.objects.Put(ctx, objectName, bytes.NewReader(content), int64(len(content)), tika.DetectMimeType(fileName)); err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	chunkCount, err := s.ingester.Process(ctx, documentID, fileName, content)
	if err != nil {
		log.Errorf("[DocumentService] 文档入库失败, document_id: %s, error: %v", documentID, err)
		s.removeObject(objectName)
		return nil, err
	}

	doc := &model.Document{
		DocumentID: documentID,
		FileName:   fileName,
		ObjectName: objectName,
		TotalSize:  int64(len(content)),
		ChunkCount: chunkCount,
	}
	if err := s.docRepo.Create(doc); err != nil {
		s.ingester.Discard(documentID)
		s.removeObject(objectName)
		return nil, fmt.Errorf("failed to register document: %w", err)
	}

	s.publish(ctx, doc)
	log.Infof("[DocumentService] 文档入库完成, document_id: %s, chunks: %d", documentID, chunkCount)
	return doc, nil
}

// removeObject 删除未能入库的原始文件。请求可能已被取消，使用独立的 context。
func (s *documentService) removeObject(objectName string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.objects.Remove(ctx, objectName); err != nil {
		log.Warnf("[DocumentService] 删除原始文件失败, object: %s, error: %v", objectName, err)
	}
}

// publish 发送入库事件，失败不影响上传结果。
func (s *documentService) publish(ctx context.Context, doc *model.Document) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.PublishDocumentIngested(ctx, model.DocumentIngestedEvent{
		Type:       model.EventDocumentIngested,
		DocumentID: doc.DocumentID,
		FileName:   doc.FileName,
		ObjectName: doc.ObjectName,
		ChunkCount: doc.ChunkCount,
		Timestamp:  time.Now(),
	})
	if err != nil {
		log.Warnf("[DocumentService] 发送入库事件失败, document_id: %s, error: %v", doc.DocumentID, err)
	}
}

// List 按入库先后返回目录。
func (s *documentService) List(ctx context.Context) ([]model.DocumentInfo, error) {
	docs, err := s.docRepo.FindAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	infos := make([]model.DocumentInfo, 0, len(docs))
	for _, d := range docs {
		infos = append(infos, d.Info())
	}
	return infos, nil
}
