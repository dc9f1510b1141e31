package biz

import (
	"context"

	"github.com/loaddesk/loaddesk/internal/docqa/store"
	"github.com/loaddesk/loaddesk/internal/pkg/textutil"
	"github.com/loaddesk/loaddesk/pkg/llm"
	"github.com/loaddesk/loaddesk/pkg/utils/errors"
)

// RetrieverConfig 检索参数。
type RetrieverConfig struct {
	Collection          string
	TopK                int
	FetchKMultiplier    int
	SimilarityThreshold float64
	MMRLambda           float64
}

// Retriever 负责问题向量化与多样性检索。
type Retriever struct {
	store    store.VectorStore
	embedder llm.EmbeddingProvider
	cfg      RetrieverConfig
}

// NewRetriever 创建检索器。
func NewRetriever(vs store.VectorStore, embedder llm.EmbeddingProvider, cfg RetrieverConfig) *Retriever {
	if cfg.FetchKMultiplier < 1 {
		cfg.FetchKMultiplier = 3
	}
	return &Retriever{store: vs, embedder: embedder, cfg: cfg}
}

// Retrieve 向量化问题，超采候选，过滤低于阈值的块，再做 MMR 重排。
// topK <= 0 时使用配置默认值。索引为空时返回空切片。
func (r *Retriever) Retrieve(ctx context.Context, question string, documentID string, topK int) ([]*store.SearchResult, error) {
	if topK <= 0 {
		topK = r.cfg.TopK
	}

	queryVec, err := r.embedder.EmbedSingle(ctx, question)
	if err != nil {
		return nil, errors.ErrEmbeddingFailure.WithCause(err)
	}

	var filter *store.SearchFilter
	if documentID != "" {
		filter = &store.SearchFilter{DocumentID: documentID}
	}

	fetchK := topK * r.cfg.FetchKMultiplier
	candidates, err := r.store.Search(ctx, r.cfg.Collection, queryVec, fetchK, filter)
	if err != nil {
		return nil, errors.ErrSearchFailure.WithCause(err)
	}

	// 阈值过滤
	filtered := candidates[:0]
	for _, c := range candidates {
		if c.Score >= r.cfg.SimilarityThreshold {
			filtered = append(filtered, c)
		}
	}

	return mmrSelect(filtered, topK, r.cfg.MMRLambda), nil
}

// mmrSelect 在候选集上做最大边际相关性选择。
// 候选按相关性降序给出；分数并列时取序号较小的候选，保证确定性。
func mmrSelect(candidates []*store.SearchResult, k int, lambda float64) []*store.SearchResult {
	if len(candidates) <= 1 || k <= 0 {
		if len(candidates) > k {
			return candidates[:k]
		}
		return candidates
	}
	if k > len(candidates) {
		k = len(candidates)
	}

	selected := make([]*store.SearchResult, 0, k)
	picked := make([]bool, len(candidates))

	// 最相关的候选必选
	selected = append(selected, candidates[0])
	picked[0] = true

	for len(selected) < k {
		bestIdx := -1
		bestScore := 0.0

		for i, c := range candidates {
			if picked[i] {
				continue
			}

			maxSim := 0.0
			for _, s := range selected {
				sim := textutil.NormalizeCosine(textutil.CosineSimilarity(c.Chunk.Embedding, s.Chunk.Embedding))
				if sim > maxSim {
					maxSim = sim
				}
			}

			score := lambda*c.Score - (1-lambda)*maxSim
			if bestIdx == -1 || score > bestScore {
				bestIdx = i
				bestScore = score
			}
		}

		if bestIdx == -1 {
			break
		}
		selected = append(selected, candidates[bestIdx])
		picked[bestIdx] = true
	}

	return selected
}
