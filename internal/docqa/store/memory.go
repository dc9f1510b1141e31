package store

import (
	"context"
	"sort"
	"sync"

	"github.com/loaddesk/loaddesk/internal/pkg/textutil"
	"github.com/loaddesk/loaddesk/pkg/utils/errors"
)

// MemoryStore 进程内向量存储。加锁保护，支持并发读写；
// 生命周期随进程，不做持久化。
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string][]*Chunk
}

// NewMemoryStore 创建内存存储。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string][]*Chunk),
	}
}

// CreateCollection 创建集合，已存在时为空操作。
func (s *MemoryStore) CreateCollection(_ context.Context, config *CollectionConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[config.Name]; !ok {
		s.collections[config.Name] = nil
	}
	return nil
}

// Insert 批量写入块，按 ID upsert。整批原子可见：先校验再写入。
// 重复索引同一块（如重跑结构化抽取）替换旧条目而不是追加。
func (s *MemoryStore) Insert(_ context.Context, collection string, chunks []*Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	incoming := make(map[string]*Chunk, len(chunks))
	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			return errors.ErrIndexFailure.WithMessagef("chunk %s has no embedding", c.ID)
		}
		incoming[c.ID] = c
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.collections[collection]
	for i, c := range existing {
		if replacement, ok := incoming[c.ID]; ok {
			existing[i] = replacement
			delete(incoming, replacement.ID)
		}
	}
	for _, c := range chunks {
		if pending, ok := incoming[c.ID]; ok {
			existing = append(existing, pending)
			delete(incoming, c.ID)
		}
	}
	s.collections[collection] = existing
	return nil
}

// Search 余弦相似度全扫描，返回归一化分数降序的前 topK 个结果。
// 相同分数按插入顺序保持稳定。
func (s *MemoryStore) Search(_ context.Context, collection string, embedding []float32, topK int, filter *SearchFilter) ([]*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunks := s.collections[collection]
	if len(chunks) == 0 || topK <= 0 {
		return []*SearchResult{}, nil
	}

	results := make([]*SearchResult, 0, len(chunks))
	for _, c := range chunks {
		if filter != nil && filter.DocumentID != "" && c.DocumentID != filter.DocumentID {
			continue
		}
		score := textutil.NormalizeCosine(textutil.CosineSimilarity(embedding, c.Embedding))
		results = append(results, &SearchResult{Chunk: c, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Count 返回集合内的块数量。
func (s *MemoryStore) Count(_ context.Context, collection string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.collections[collection])), nil
}

// Close 释放集合内容。
func (s *MemoryStore) Close(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections = make(map[string][]*Chunk)
	return nil
}

var _ VectorStore = (*MemoryStore)(nil)
