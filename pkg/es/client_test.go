package es

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"contextai-go/internal/config"
	"contextai-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, handler http.HandlerFunc) *Store {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	s, err := NewStore(config.ElasticsearchConfig{Addresses: srv.URL, IndexName: "chunks"})
	require.NoError(t, err)
	return s
}

func TestIndexMapping(t *testing.T) {
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(indexMapping(1536)), &m))
	props := m["mappings"].(map[string]any)["properties"].(map[string]any)
	assert.Equal(t, "keyword", props["document_id"].(map[string]any)["type"])
	assert.EqualValues(t, 1536, props["vector"].(map[string]any)["dims"])

	require.NoError(t, json.Unmarshal([]byte(indexMapping(0)), &m))
	props = m["mappings"].(map[string]any)["properties"].(map[string]any)
	assert.NotContains(t, props["vector"].(map[string]any), "dims")
}

func TestEnsureIndex_CreatesWhenMissing(t *testing.T) {
	var created bool
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			assert.Equal(t, "/chunks", r.URL.Path)
			created = true
			_, _ = w.Write([]byte(`{"acknowledged":true}`))
		}
	})
	require.NoError(t, s.EnsureIndex(context.Background(), 3))
	assert.True(t, created)
}

func TestIndexChunks_Bulk(t *testing.T) {
	var lines int
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chunks/_bulk", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("refresh"))
		sc := bufio.NewScanner(r.Body)
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			lines++
		}
		_, _ = w.Write([]byte(`{"errors":false,"items":[]}`))
	})
	err := s.IndexChunks(context.Background(), []model.EsChunk{
		{VectorID: "d1_0", DocumentID: "d1", ChunkID: 0, TextContent: "a", Vector: []float32{1}},
		{VectorID: "d1_1", DocumentID: "d1", ChunkID: 1, TextContent: "b", Vector: []float32{2}},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, lines)
}

func TestIndexChunks_ItemError(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors":true,"items":[{"index":{"status":400,"error":{"reason":"mapper_parsing_exception"}}}]}`))
	})
	err := s.IndexChunks(context.Background(), []model.EsChunk{{VectorID: "d1_0"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mapper_parsing_exception")
}

func TestSearchKNN_FiltersByDocument(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chunks/_search", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		knn := body["knn"].(map[string]any)
		assert.EqualValues(t, 6, knn["k"])
		assert.EqualValues(t, 100, knn["num_candidates"])
		term := knn["filter"].(map[string]any)["term"].(map[string]any)
		assert.Equal(t, "d1", term["document_id"])

		_, _ = w.Write([]byte(`{"hits":{"hits":[
			{"_score":0.9,"_source":{"document_id":"d1","file_name":"a.pdf","chunk_id":2,"text_content":"X is Y."}}
		]}}`))
	})
	hits, err := s.SearchKNN(context.Background(), "d1", []float32{0.1, 0.2}, 6)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, model.SearchHit{DocumentID: "d1", FileName: "a.pdf", ChunkID: 2, TextContent: "X is Y.", Score: 0.9}, hits[0])
}

func TestDeleteByDocumentID(t *testing.T) {
	var called bool
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chunks/_delete_by_query", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("refresh"))
		assert.Equal(t, "proceed", r.URL.Query().Get("conflicts"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		term := body["query"].(map[string]any)["term"].(map[string]any)
		assert.Equal(t, "doc-1", term["document_id"])
		_, _ = w.Write([]byte(`{"deleted":16}`))
	})
	require.NoError(t, s.DeleteByDocumentID(context.Background(), "doc-1"))
	assert.True(t, called)
}

func TestDeleteByDocumentID_MissingIndex(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"index_not_found_exception"}}`))
	})
	assert.NoError(t, s.DeleteByDocumentID(context.Background(), "doc-1"))
}

func TestDeleteByDocumentID_ServerError(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{}`))
	})
	assert.Error(t, s.DeleteByDocumentID(context.Background(), "doc-1"))
}
