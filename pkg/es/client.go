// Package es 提供了与 Elasticsearch 交互的客户端功能。
package es

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"contextai-go/internal/config"
	"contextai-go/internal/model"
	"contextai-go/pkg/log"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// Store 封装了分块向量所在的索引。
type Store struct {
	client *elasticsearch.Client
	index  string
}

// NewStore 创建 Elasticsearch 客户端，不做任何网络调用。
func NewStore(esCfg config.ElasticsearchConfig) (*Store, error) {
	addresses := strings.Split(esCfg.Addresses, ",")
	for i := range addresses {
		addresses[i] = strings.TrimSpace(addresses[i])
	}
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: addresses,
		Username:  esCfg.Username,
		Password:  esCfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	})
	if err != nil {
		return nil, err
	}
	return &Store{client: client, index: esCfg.IndexName}, nil
}

// InitES 创建 Store 并确保索引存在。
func InitES(ctx context.Context, esCfg config.ElasticsearchConfig, dims int) (*Store, error) {
	s, err := NewStore(esCfg)
	if err != nil {
		return nil, err
	}
	if err := s.EnsureIndex(ctx, dims); err != nil {
		return nil, err
	}
	return s, nil
}

// Index returns the index name.
func (s *Store) Index() string { return s.index }

func indexMapping(dims int) string {
	vector := map[string]any{
		"type":       "dense_vector",
		"index":      true,
		"similarity": "cosine",
	}
	// dims 为 0 时由第一条写入的文档推断
	if dims > 0 {
		vector["dims"] = dims
	}
	mapping := map[string]any{
		"mappings": map[string]any{
			"properties": map[string]any{
				"vector_id":     map[string]any{"type": "keyword"},
				"document_id":   map[string]any{"type": "keyword"},
				"file_name":     map[string]any{"type": "keyword"},
				"chunk_id":      map[string]any{"type": "integer"},
				"text_content":  map[string]any{"type": "text"},
				"vector":        vector,
				"model_version": map[string]any{"type": "keyword"},
			},
		},
	}
	b, _ := json.Marshal(mapping)
	return string(b)
}

// EnsureIndex 检查索引是否存在，如果不存在则创建它
func (s *Store) EnsureIndex(ctx context.Context, dims int) error {
	res, err := s.client.Indices.Exists([]string{s.index}, s.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		log.Errorf("检查索引是否存在时出错: %v", err)
		return err
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		log.Infof("索引 '%s' 已存在", s.index)
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("检查索引是否存在时收到意外的状态码: %d", res.StatusCode)
	}

	res, err = s.client.Indices.Create(
		s.index,
		s.client.Indices.Create.WithContext(ctx),
		s.client.Indices.Create.WithBody(strings.NewReader(indexMapping(dims))),
	)
	if err != nil {
		log.Errorf("创建索引 '%s' 失败: %v", s.index, err)
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		log.Errorf("创建索引 '%s' 时 Elasticsearch 返回错误: %s", s.index, res.String())
		return errors.New("创建索引时 Elasticsearch 返回错误")
	}

	log.Infof("索引 '%s' 创建成功", s.index)
	return nil
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		Status int `json:"status"`
		Error  struct {
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

// IndexChunks 通过一次 bulk 请求写入所有分块，写入后立即可检索。
func (s *Store) IndexChunks(ctx context.Context, chunks []model.EsChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	for _, c := range chunks {
		meta := map[string]any{"index": map[string]any{"_index": s.index, "_id": c.VectorID}}
		if err := enc.Encode(meta); err != nil {
			return err
		}
		if err := enc.Encode(c); err != nil {
			return err
		}
	}

	req := esapi.BulkRequest{
		Index:   s.index,
		Body:    &body,
		Refresh: "true",
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		log.Errorf("批量索引到 Elasticsearch 出错: %s", res.String())
		return errors.New("failed to index chunks")
	}

	var br bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&br); err != nil {
		return fmt.Errorf("failed to decode bulk response: %w", err)
	}
	if br.Errors {
		for _, item := range br.Items {
			for _, r := range item {
				if r.Status >= 300 {
					return fmt.Errorf("failed to index chunk: %s", r.Error.Reason)
				}
			}
		}
		return errors.New("failed to index chunks")
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Score  float64       `json:"_score"`
			Source model.EsChunk `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func knnQuery(documentID string, vector []float32, k int) map[string]any {
	numCandidates := k * 10
	if numCandidates < 100 {
		numCandidates = 100
	}
	return map[string]any{
		"knn": map[string]any{
			"field":          "vector",
			"query_vector":   vector,
			"k":              k,
			"num_candidates": numCandidates,
			"filter": map[string]any{
				"term": map[string]any{"document_id": documentID},
			},
		},
		"_source": map[string]any{"excludes": []string{"vector"}},
		"size":    k,
	}
}

// SearchKNN 在单个文档的分块中检索与 vector 最相近的 k 个。
func (s *Store) SearchKNN(ctx context.Context, documentID string, vector []float32, k int) ([]model.SearchHit, error) {
	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(knnQuery(documentID, vector, k)); err != nil {
		return nil, err
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(&body),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		log.Errorf("Elasticsearch 检索出错: %s", res.String())
		return nil, fmt.Errorf("search returned status %d", res.StatusCode)
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	hits := make([]model.SearchHit, 0, len(sr.Hits.Hits))
	for _, h := range sr.Hits.Hits {
		hits = append(hits, model.SearchHit{
			DocumentID:  h.Source.DocumentID,
			FileName:    h.Source.FileName,
			ChunkID:     h.Source.ChunkID,
			TextContent: h.Source.TextContent,
			Score:       h.Score,
		})
	}
	return hits, nil
}

// DeleteByDocumentID 删除一个文档的全部分块，索引不存在时视为成功。
func (s *Store) DeleteByDocumentID(ctx context.Context, documentID string) error {
	var body bytes.Buffer
	query := map[string]any{
		"query": map[string]any{
			"term": map[string]any{"document_id": documentID},
		},
	}
	if err := json.NewEncoder(&body).Encode(query); err != nil {
		return err
	}

	res, err := s.client.DeleteByQuery(
		[]string{s.index},
		&body,
		s.client.DeleteByQuery.WithContext(ctx),
		s.client.DeleteByQuery.WithRefresh(true),
		s.client.DeleteByQuery.WithConflicts("proceed"),
	)
	if err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.IsError() {
		log.Errorf("从 Elasticsearch 删除分块出错: %s", res.String())
		return fmt.Errorf("delete by query returned status %d", res.StatusCode)
	}
	return nil
}
