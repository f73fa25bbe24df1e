// Package pipeline 定义了文档入库的核心流程：提取、切块、向量化、索引。
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"contextai-go/internal/config"
	"contextai-go/internal/model"
	"contextai-go/internal/repository"
	"contextai-go/pkg/embedding"
	"contextai-go/pkg/log"
)

const embedBatchSize = 16

var (
	// ErrNoText 表示文件中没有可提取的文本。
	ErrNoText = errors.New("no text could be extracted from the file")
)

// TextExtractor 从原始文件中提取纯文本，由 tika.Client 实现。
type TextExtractor interface {
	ExtractText(ctx context.Context, r io.Reader, fileName string) (string, error)
}

// ChunkIndexer 写入带向量的分块，由 es.Store 实现。
type ChunkIndexer interface {
	IndexChunks(ctx context.Context, chunks []model.EsChunk) error
	DeleteByDocumentID(ctx context.Context, documentID string) error
}

// Processor 封装了文件处理的所有依赖和逻辑。
type Processor struct {
	extractor    TextExtractor
	embedder     embedding.Client
	indexer      ChunkIndexer
	chunkRepo    repository.ChunkRepository
	chunkSize    int
	chunkOverlap int
}

// NewProcessor 创建一个新的 Processor 实例。
func NewProcessor(
	extractor TextExtractor,
	embedder embedding.Client,
	indexer ChunkIndexer,
	chunkRepo repository.ChunkRepository,
	ingestCfg config.IngestConfig,
) *Processor {
	return &Processor{
		extractor:    extractor,
		embedder:     embedder,
		indexer:      indexer,
		chunkRepo:    chunkRepo,
		chunkSize:    ingestCfg.ChunkSize,
		chunkOverlap: ingestCfg.ChunkOverlap,
	}
}

// Process 处理一个已上传的文件，返回写入的分块数。
func (p *Processor) Process(ctx context.Context, documentID, fileName string, content []byte) (int, error) {
	log.Infof("[Processor] 开始处理文件, DocumentID: %s, FileName: %s, Size: %d", documentID, fileName, len(content))

	text, err := p.extractor.ExtractText(ctx, bytes.NewReader(content), fileName)
	if err != nil {
		return 0, fmt.Errorf("使用 Tika 提取文本失败: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return 0, ErrNoText
	}
	log.Infof("[Processor] 文本提取成功, 内容长度: %d 字符", utf8.RuneCountInString(text))

	chunks := SplitText(text, p.chunkSize, p.chunkOverlap)
	log.Infof("[Processor] 文本分块完成, chunkSize: %d, chunkOverlap: %d, 共 %d 个分块", p.chunkSize, p.chunkOverlap, len(chunks))
	if len(chunks) == 0 {
		return 0, ErrNoText
	}

	rows := make([]*model.DocumentChunk, 0, len(chunks))
	for i, c := range chunks {
		rows = append(rows, &model.DocumentChunk{
			DocumentID:   documentID,
			ChunkID:      i,
			TextContent:  c,
			ModelVersion: p.embedder.ModelVersion(),
		})
	}
	if err := p.chunkRepo.BatchCreate(rows); err != nil {
		return 0, fmt.Errorf("批量保存文本分块失败: %w", err)
	}

	if err := p.embedAndIndex(ctx, documentID, fileName, chunks); err != nil {
		p.Discard(documentID)
		return 0, err
	}

	log.Infof("[Processor] 文件处理成功完成, DocumentID: %s", documentID)
	return len(chunks), nil
}

// Discard 删除一个文档已写入的分块行和已索引的分块。每批索引都会立即刷新，
// 入库中途失败时之前的批次已经可被检索。
func (p *Processor) Discard(documentID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := p.indexer.DeleteByDocumentID(ctx, documentID); err != nil {
		log.Warnf("[Processor] 回滚 Elasticsearch 分块失败 (document_id=%s): %v", documentID, err)
	}
	if err := p.chunkRepo.DeleteByDocumentID(documentID); err != nil {
		log.Warnf("[Processor] 回滚 document_chunks 失败 (document_id=%s): %v", documentID, err)
	}
}

func (p *Processor) embedAndIndex(ctx context.Context, documentID, fileName string, chunks []string) error {
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := min(start+embedBatchSize, len(chunks))
		vectors, err := p.embedder.Embed(ctx, chunks[start:end])
		if err != nil {
			return fmt.Errorf("分块 %d-%d 向量化失败: %w", start, end-1, err)
		}

		docs := make([]model.EsChunk, 0, end-start)
		for i, vector := range vectors {
			chunkID := start + i
			docs = append(docs, model.EsChunk{
				VectorID:     fmt.Sprintf("%s_%d", documentID, chunkID),
				DocumentID:   documentID,
				FileName:     fileName,
				ChunkID:      chunkID,
				TextContent:  chunks[chunkID],
				Vector:       vector,
				ModelVersion: p.embedder.ModelVersion(),
			})
		}
		if err := p.indexer.IndexChunks(ctx, docs); err != nil {
			return fmt.Errorf("索引分块 %d-%d 到 Elasticsearch 失败: %w", start, end-1, err)
		}
		log.Debugf("[Processor] 分块 %d-%d 向量化并索引成功", start, end-1)
	}
	return nil
}

// SplitText 将长文本按 rune 窗口切分，相邻分块重叠 chunkOverlap 个字符。
// 窗口末尾优先回退到最近的空白处断开，避免截断单词。
func SplitText(text string, chunkSize, chunkOverlap int) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 || chunkSize <= 0 {
		return nil
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = 0
	}

	var chunks []string
	for start := 0; start < len(runes); {
		end := start + chunkSize
		if end >= len(runes) {
			end = len(runes)
		} else if cut := lastSpace(runes[start:end]); cut > chunkOverlap {
			end = start + cut
		}

		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}
		start = end - chunkOverlap
	}
	return chunks
}

func lastSpace(runes []rune) int {
	for i := len(runes) - 1; i > 0; i-- {
		switch runes[i] {
		case ' ', '\n', '\t', '\r':
			return i
		}
	}
	return -1
}
