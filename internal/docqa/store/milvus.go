package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/milvus-io/milvus/client/v2/entity"

	"github.com/loaddesk/loaddesk/pkg/component/milvus"
)

// MilvusStore 基于 Milvus 的向量存储实现。
type MilvusStore struct {
	client *milvus.Client
}

// NewMilvusStore 创建 Milvus 存储实例。
func NewMilvusStore(client *milvus.Client) *MilvusStore {
	return &MilvusStore{client: client}
}

// CreateCollection 创建 Milvus 集合。
func (s *MilvusStore) CreateCollection(ctx context.Context, config *CollectionConfig) error {
	schema := &milvus.CollectionSchema{
		Name:        config.Name,
		Description: config.Description,
		Dimension:   config.Dimension,
		MetaFields: []milvus.MetaField{
			{Name: "chunk_id", DataType: entity.FieldTypeVarChar, MaxLen: 64},
			{Name: "document_id", DataType: entity.FieldTypeVarChar, MaxLen: 64},
			{Name: "document_name", DataType: entity.FieldTypeVarChar, MaxLen: 255},
			{Name: "section", DataType: entity.FieldTypeVarChar, MaxLen: 255},
			{Name: "chunk_index", DataType: entity.FieldTypeInt64},
			{Name: "chunk_type", DataType: entity.FieldTypeVarChar, MaxLen: 32},
			{Name: "content", DataType: entity.FieldTypeVarChar, MaxLen: 65535},
		},
	}
	return s.client.CreateCollection(ctx, schema)
}

// Insert 批量插入块，按 chunk_id upsert：先删除同 ID 的旧条目。
// 主键是自增 ID，块的唯一性由 chunk_id 维护。
func (s *MilvusStore) Insert(ctx context.Context, collection string, chunks []*Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	ids := make([]string, len(chunks))
	for i, chunk := range chunks {
		ids[i] = fmt.Sprintf("%q", chunk.ID)
	}
	expr := fmt.Sprintf("chunk_id in [%s]", strings.Join(ids, ", "))
	if err := s.client.Delete(ctx, collection, expr); err != nil {
		return fmt.Errorf("failed to replace existing chunks: %w", err)
	}

	embeddings := make([][]float32, len(chunks))
	metadata := map[string][]any{
		"chunk_id":      make([]any, len(chunks)),
		"document_id":   make([]any, len(chunks)),
		"document_name": make([]any, len(chunks)),
		"section":       make([]any, len(chunks)),
		"chunk_index":   make([]any, len(chunks)),
		"chunk_type":    make([]any, len(chunks)),
		"content":       make([]any, len(chunks)),
	}

	for i, chunk := range chunks {
		embeddings[i] = chunk.Embedding
		metadata["chunk_id"][i] = chunk.ID
		metadata["document_id"][i] = chunk.DocumentID
		metadata["document_name"][i] = chunk.DocumentName
		metadata["section"][i] = chunk.Section
		metadata["chunk_index"][i] = int64(chunk.ChunkIndex)
		metadata["chunk_type"][i] = chunk.ChunkType
		metadata["content"][i] = chunk.Content
	}

	if _, err := s.client.Insert(ctx, collection, &milvus.InsertData{
		Embeddings: embeddings,
		Metadata:   metadata,
	}); err != nil {
		return fmt.Errorf("failed to insert into milvus: %w", err)
	}
	return nil
}

var outputFields = []string{"chunk_id", "document_id", "document_name", "section", "chunk_index", "chunk_type", "content", "embedding"}

// Search 执行向量相似度搜索。COSINE 度量的分数已在 [-1,1]，归一化到 [0,1]。
func (s *MilvusStore) Search(ctx context.Context, collection string, embedding []float32, topK int, filter *SearchFilter) ([]*SearchResult, error) {
	expr := ""
	if filter != nil && filter.DocumentID != "" {
		expr = fmt.Sprintf("document_id == %q", filter.DocumentID)
	}

	results, err := s.client.Search(ctx, collection, embedding, topK, expr, outputFields)
	if err != nil {
		return nil, fmt.Errorf("failed to search milvus: %w", err)
	}

	searchResults := make([]*SearchResult, 0, len(results))
	for _, r := range results {
		chunk := &Chunk{}
		if v, ok := r.Metadata["chunk_id"].(string); ok {
			chunk.ID = v
		}
		if v, ok := r.Metadata["document_id"].(string); ok {
			chunk.DocumentID = v
		}
		if v, ok := r.Metadata["document_name"].(string); ok {
			chunk.DocumentName = v
		}
		if v, ok := r.Metadata["section"].(string); ok {
			chunk.Section = v
		}
		if v, ok := r.Metadata["chunk_index"].(int64); ok {
			chunk.ChunkIndex = int(v)
		}
		if v, ok := r.Metadata["chunk_type"].(string); ok {
			chunk.ChunkType = v
		}
		if v, ok := r.Metadata["content"].(string); ok {
			chunk.Content = v
		}
		if v, ok := r.Metadata["embedding"].([]float32); ok {
			chunk.Embedding = v
		}

		searchResults = append(searchResults, &SearchResult{
			Chunk: chunk,
			Score: (float64(r.Score) + 1) / 2,
		})
	}

	return searchResults, nil
}

// Count 返回集合统计的实体数量。
func (s *MilvusStore) Count(ctx context.Context, collection string) (int64, error) {
	return s.client.GetCollectionStats(ctx, collection)
}

// Close 关闭 Milvus 连接。
func (s *MilvusStore) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}

var _ VectorStore = (*MilvusStore)(nil)
