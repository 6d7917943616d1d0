package rag

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/aihub/rag-service/internal/errors"
	"github.com/aihub/rag-service/internal/logger"
	"github.com/aihub/rag-service/internal/metrics"
)

const (
	defaultTopK = 5

	// 检索片段之间的上下文分隔符
	contextSeparator = "\n\n---\n\n"

	// 过滤后零命中时的固定回答，不调用生成服务
	noContextAnswer = "No relevant documents found in your accessible knowledge base."

	// 约束生成器只依据提供的上下文作答
	systemPrompt = "You are a helpful assistant that answers questions based on the provided context. " +
		"Only use information from the context below. If the context doesn't contain " +
		"enough information to answer, say so clearly. Cite which source documents " +
		"you drew from."
)

// Pipeline RAG流水线，组合提取、分块、向量化、向量存储与生成
// 所有依赖在启动时构造一次并注入，流水线自身无共享可变状态
type Pipeline struct {
	extractor *ExtractorManager
	chunker   *Chunker
	embedder  Embedder
	generator Generator
	store     VectorStore
}

// NewPipeline 创建RAG流水线
func NewPipeline(extractor *ExtractorManager, chunker *Chunker, embedder Embedder, generator Generator, store VectorStore) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		generator: generator,
		store:     store,
	}
}

// Ingest 文档入库：提取文本 → 分块 → 逐块向量化 → 批量写入
// owner_id取上传者身份，在此一次性设定
// 返回成功写入的chunk数；后续批次失败不回滚已提交批次
func (p *Pipeline) Ingest(ctx context.Context, ownerID int64, filename string, content []byte, contentType string) (int, error) {
	text, err := p.extractor.Extract(content, filename, contentType)
	if err != nil {
		return 0, err
	}
	if strings.TrimSpace(text) == "" {
		return 0, apperrors.NewValidationError("no text could be extracted from the document")
	}

	chunks := p.chunker.Split(text)
	if len(chunks) == 0 {
		return 0, apperrors.NewValidationError("document produced no chunks after processing")
	}

	// 逐块串行调用embedding，约束对后端的并发压力
	records := make([]VectorRecord, 0, len(chunks))
	for _, chunk := range chunks {
		vector, err := p.embedder.Embed(ctx, chunk.Text)
		if err != nil {
			metrics.UpstreamErrors.WithLabelValues("ollama").Inc()
			return 0, fmt.Errorf("embed chunk %d: %w", chunk.Index, err)
		}
		records = append(records, VectorRecord{
			ID:         uuid.NewString(),
			Vector:     vector,
			OwnerID:    ownerID,
			Filename:   filename,
			ChunkIndex: chunk.Index,
			Text:       chunk.Text,
		})
	}

	if err := p.store.Upsert(ctx, records); err != nil {
		metrics.UpstreamErrors.WithLabelValues("qdrant").Inc()
		return 0, err
	}

	metrics.DocumentsIngested.Inc()
	metrics.ChunksEmbedded.Add(float64(len(records)))
	logger.Info("Document ingested",
		zap.Int64("owner_id", ownerID),
		zap.String("filename", filename),
		zap.Int("chunks", len(records)))

	return len(records), nil
}

// Query RAG查询：向量化问题 → 构造RBAC过滤器 → 过滤检索 → 组装上下文 → 生成回答
// 普通用户的每个来源owner_id必然等于调用者身份，admin不受限
func (p *Pipeline) Query(ctx context.Context, question string, callerID int64, role Role, topK int) (*RetrievalResult, error) {
	if topK <= 0 {
		topK = defaultTopK
	}

	queryVector, err := p.embedder.Embed(ctx, question)
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues("ollama").Inc()
		return nil, err
	}

	filter := BuildFilter(role, callerID)
	hits, err := p.store.Search(ctx, queryVector, filter, topK)
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues("qdrant").Inc()
		return nil, err
	}

	metrics.QueriesTotal.WithLabelValues(role.String()).Inc()

	if len(hits) == 0 {
		// 零命中直接返回，不调用生成服务
		metrics.QueriesNoContext.Inc()
		return &RetrievalResult{
			Answer:         noContextAnswer,
			Sources:        []Source{},
			ChunksSearched: 0,
		}, nil
	}

	contextParts := make([]string, 0, len(hits))
	sources := make([]Source, 0, len(hits))
	for _, hit := range hits {
		contextParts = append(contextParts, hit.Text)
		sources = append(sources, Source{
			Filename:   hit.Filename,
			ChunkIndex: hit.ChunkIndex,
			OwnerID:    hit.OwnerID,
			Score:      roundScore(hit.Score),
		})
	}

	prompt := fmt.Sprintf("Context (retrieved documents):\n%s\n\nQuestion: %s\n\nAnswer based on the context above:",
		strings.Join(contextParts, contextSeparator), question)

	answer, err := p.generator.Generate(ctx, prompt, systemPrompt)
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues("ollama").Inc()
		return nil, err
	}

	logger.Debug("Query answered",
		zap.Int64("caller_id", callerID),
		zap.String("role", role.String()),
		zap.Int("chunks_searched", len(hits)))

	return &RetrievalResult{
		Answer:         answer,
		Sources:        sources,
		ChunksSearched: len(hits),
	}, nil
}

// DeleteForOwner 删除指定用户的向量记录，filename为空时清空该用户全部记录
// 过滤器始终绑定被操作用户的身份，而非执行操作的管理员
func (p *Pipeline) DeleteForOwner(ctx context.Context, ownerID int64, filename string) error {
	filter := DeleteFilter{OwnerID: ownerID, Filename: filename}
	if err := p.store.Delete(ctx, filter); err != nil {
		metrics.UpstreamErrors.WithLabelValues("qdrant").Inc()
		return err
	}

	logger.Info("Vectors deleted",
		zap.Int64("owner_id", ownerID),
		zap.String("filename", filename))
	return nil
}

// Stats 集合统计信息，仅供展示，失败时降级为零值
func (p *Pipeline) Stats(ctx context.Context) CollectionStats {
	return p.store.Stats(ctx)
}

// roundScore 相似度分数保留4位小数
func roundScore(score float64) float64 {
	return math.Round(score*10000) / 10000
}
