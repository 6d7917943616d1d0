package rag

import "context"

// Chunk 表示分块后的文本结构，Index为产出顺序（从0开始）
type Chunk struct {
	Index int
	Text  string
}

// VectorRecord 向量库中的一条记录，owner_id在入库时设定且不可变更
type VectorRecord struct {
	ID         string
	Vector     []float32
	OwnerID    int64
	Filename   string
	ChunkIndex int
	Text       string
}

// SearchHit 相似度检索命中结果
type SearchHit struct {
	OwnerID    int64
	Filename   string
	ChunkIndex int
	Text       string
	Score      float64
}

// Source 检索结果引用的来源片段
type Source struct {
	Filename   string  `json:"filename"`
	ChunkIndex int     `json:"chunk_index"`
	OwnerID    int64   `json:"owner_id"`
	Score      float64 `json:"score"`
}

// RetrievalResult RAG查询结果
type RetrievalResult struct {
	Answer         string   `json:"answer"`
	Sources        []Source `json:"sources"`
	ChunksSearched int      `json:"chunks_searched"`
}

// CollectionStats 集合统计信息（仅供展示，失败时降级为零值）
type CollectionStats struct {
	TotalVectors int64  `json:"total_vectors"`
	Status       string `json:"status"`
}

// Embedder 定义文本向量化接口
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator 定义文本生成接口
type Generator interface {
	Generate(ctx context.Context, prompt, system string) (string, error)
}

// VectorStore 定义向量存储接口
type VectorStore interface {
	EnsureCollection(ctx context.Context) error
	Upsert(ctx context.Context, records []VectorRecord) error
	Search(ctx context.Context, vector []float32, filter AccessFilter, limit int) ([]SearchHit, error)
	Delete(ctx context.Context, filter DeleteFilter) error
	Stats(ctx context.Context) CollectionStats
}
