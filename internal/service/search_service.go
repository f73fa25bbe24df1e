// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"fmt"

	"contextai-go/internal/model"
	"contextai-go/pkg/embedding"
	"contextai-go/pkg/log"
)

// VectorSearcher 在单个文档的分块中做向量检索，由 es.Store 实现。
type VectorSearcher interface {
	SearchKNN(ctx context.Context, documentID string, vector []float32, k int) ([]model.SearchHit, error)
}

// SearchService 接口定义了搜索操作。
type SearchService interface {
	SearchDocument(ctx context.Context, documentID, query string, topK int) ([]model.SearchHit, error)
}

type searchService struct {
	embeddingClient embedding.Client
	searcher        VectorSearcher
}

// NewSearchService 创建一个新的 SearchService 实例。
func NewSearchService(embeddingClient embedding.Client, searcher VectorSearcher) SearchService {
	return &searchService{embeddingClient: embeddingClient, searcher: searcher}
}

// SearchDocument 将 query 向量化后，在 documentID 的分块中检索 topK 个。
func (s *searchService) SearchDocument(ctx context.Context, documentID, query string, topK int) ([]model.SearchHit, error) {
	log.Debugf("[SearchService] 检索, document_id: %s, query: '%s', topK: %d", documentID, query, topK)
	vector, err := s.embeddingClient.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	hits, err := s.searcher.SearchKNN(ctx, documentID, vector, topK)
	if err != nil {
		return nil, err
	}
	log.Infof("[SearchService] 检索完成, document_id: %s, 命中 %d 个分块", documentID, len(hits))
	return hits, nil
}
