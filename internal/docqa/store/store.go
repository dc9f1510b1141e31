// Package store defines the vector store abstraction and its backends.
package store

import "context"

// Chunk 是检索的基本单元：一段文本加上来源与位置信息。
type Chunk struct {
	// ID 唯一标识（document id + 序号的哈希）。
	ID string

	// DocumentID 所属文档 ID。
	DocumentID string

	// DocumentName 原始文件名。
	DocumentName string

	// Section 所属章节标签（"untitled" 表示未匹配到任何标题）。
	Section string

	// ChunkIndex 文档内的序号；结构化数据块固定为 9999。
	ChunkIndex int

	// ChunkType "text" 或 "structured_data"。
	ChunkType string

	// Content 文本内容。
	Content string

	// Embedding 向量，索引时写入。
	Embedding []float32
}

// Chunk types.
const (
	ChunkTypeText       = "text"
	ChunkTypeStructured = "structured_data"
)

// StructuredChunkIndex is the reserved sequence index for the serialized
// extraction record.
const StructuredChunkIndex = 9999

// SearchResult is a chunk with its normalised similarity score in [0,1].
type SearchResult struct {
	Chunk *Chunk

	// Score 归一化相似度，越大越相关。
	Score float64
}

// CollectionConfig describes a vector collection.
type CollectionConfig struct {
	Name        string
	Description string
	Dimension   int
}

// VectorStore 向量存储接口。实现必须保证：块 ID 在集合内唯一；
// 不存在没有对应块的向量。
type VectorStore interface {
	// CreateCollection 创建集合，已存在时为幂等空操作。
	CreateCollection(ctx context.Context, config *CollectionConfig) error

	// Insert 批量写入块，按块 ID upsert：已有相同 ID 的块被替换，
	// 保证 ID 在集合内唯一。整批成功或整批不可见，不留部分状态。
	Insert(ctx context.Context, collection string, chunks []*Chunk) error

	// Search 返回按归一化相似度降序排列的前 topK 个结果。
	// filter 非空时仅搜索该文档的块。索引为空时返回空切片。
	Search(ctx context.Context, collection string, embedding []float32, topK int, filter *SearchFilter) ([]*SearchResult, error)

	// Count 返回集合内的块数量。
	Count(ctx context.Context, collection string) (int64, error)

	// Close 释放底层资源。
	Close(ctx context.Context) error
}

// SearchFilter narrows a search to one document.
type SearchFilter struct {
	DocumentID string
}
