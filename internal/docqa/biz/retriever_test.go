package biz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loaddesk/loaddesk/internal/docqa/store"
)

func seedStore(t *testing.T, chunks []*store.Chunk) *store.MemoryStore {
	t.Helper()

	ms := store.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, ms.CreateCollection(ctx, &store.CollectionConfig{Name: "test", Dimension: 3}))
	require.NoError(t, ms.Insert(ctx, "test", chunks))
	return ms
}

func testChunk(id, docID string, index int, embedding []float32) *store.Chunk {
	return &store.Chunk{
		ID:         id,
		DocumentID: docID,
		ChunkIndex: index,
		ChunkType:  store.ChunkTypeText,
		Content:    "content " + id,
		Embedding:  embedding,
	}
}

func TestRetrieverThresholdFilter(t *testing.T) {
	ms := seedStore(t, []*store.Chunk{
		testChunk("a", "d1", 0, []float32{1, 0, 0}),
		testChunk("b", "d1", 1, []float32{0, 1, 0}),
		testChunk("c", "d1", 2, []float32{-1, 0, 0}),
	})

	r := NewRetriever(ms, &mockEmbedder{single: []float32{1, 0, 0}}, RetrieverConfig{
		Collection:          "test",
		TopK:                4,
		FetchKMultiplier:    3,
		SimilarityThreshold: 0.5,
		MMRLambda:           0.7,
	})

	results, err := r.Retrieve(context.Background(), "q", "", 0)
	require.NoError(t, err)

	// orthogonal vector normalises to exactly 0.5 and survives; the opposite
	// vector normalises to 0 and is dropped
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Chunk.ID)
	assert.Equal(t, "b", results[1].Chunk.ID)
}

func TestRetrieverDocumentFilter(t *testing.T) {
	ms := seedStore(t, []*store.Chunk{
		testChunk("a", "d1", 0, []float32{1, 0, 0}),
		testChunk("b", "d2", 0, []float32{1, 0, 0}),
	})

	r := NewRetriever(ms, &mockEmbedder{single: []float32{1, 0, 0}}, RetrieverConfig{
		Collection:          "test",
		TopK:                4,
		FetchKMultiplier:    3,
		SimilarityThreshold: 0.5,
		MMRLambda:           0.7,
	})

	results, err := r.Retrieve(context.Background(), "q", "d2", 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b", results[0].Chunk.ID)
}

func TestRetrieverEmptyIndex(t *testing.T) {
	ms := seedStore(t, nil)

	r := NewRetriever(ms, &mockEmbedder{single: []float32{1, 0, 0}}, RetrieverConfig{
		Collection: "test", TopK: 4, FetchKMultiplier: 3, SimilarityThreshold: 0.5, MMRLambda: 0.7,
	})

	results, err := r.Retrieve(context.Background(), "q", "", 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMMRSelect(t *testing.T) {
	t.Run("prefers diversity over near duplicates", func(t *testing.T) {
		// a and b are nearly identical; c is less relevant but orthogonal.
		candidates := []*store.SearchResult{
			{Chunk: testChunk("a", "d", 0, []float32{1, 0, 0}), Score: 0.95},
			{Chunk: testChunk("b", "d", 1, []float32{0.999, 0.04, 0}), Score: 0.94},
			{Chunk: testChunk("c", "d", 2, []float32{0, 1, 0}), Score: 0.80},
		}

		selected := mmrSelect(candidates, 2, 0.7)
		require.Len(t, selected, 2)
		assert.Equal(t, "a", selected[0].Chunk.ID)
		assert.Equal(t, "c", selected[1].Chunk.ID)
	})

	t.Run("ties resolve to the earlier candidate", func(t *testing.T) {
		// b and c have identical relevance and identical similarity to a.
		candidates := []*store.SearchResult{
			{Chunk: testChunk("a", "d", 0, []float32{1, 0, 0}), Score: 0.9},
			{Chunk: testChunk("b", "d", 1, []float32{0, 1, 0}), Score: 0.8},
			{Chunk: testChunk("c", "d", 2, []float32{0, 0, 1}), Score: 0.8},
		}

		selected := mmrSelect(candidates, 2, 0.7)
		require.Len(t, selected, 2)
		assert.Equal(t, "b", selected[1].Chunk.ID)
	})

	t.Run("deterministic across runs", func(t *testing.T) {
		candidates := []*store.SearchResult{
			{Chunk: testChunk("a", "d", 0, []float32{1, 0, 0}), Score: 0.9},
			{Chunk: testChunk("b", "d", 1, []float32{0.8, 0.6, 0}), Score: 0.85},
			{Chunk: testChunk("c", "d", 2, []float32{0, 1, 0}), Score: 0.8},
			{Chunk: testChunk("d", "d", 3, []float32{0, 0, 1}), Score: 0.75},
		}

		first := mmrSelect(candidates, 3, 0.7)
		for i := 0; i < 10; i++ {
			again := mmrSelect(candidates, 3, 0.7)
			require.Len(t, again, len(first))
			for j := range first {
				assert.Equal(t, first[j].Chunk.ID, again[j].Chunk.ID)
			}
		}
	})

	t.Run("k larger than candidates returns all", func(t *testing.T) {
		candidates := []*store.SearchResult{
			{Chunk: testChunk("a", "d", 0, []float32{1, 0, 0}), Score: 0.9},
			{Chunk: testChunk("b", "d", 1, []float32{0, 1, 0}), Score: 0.8},
		}
		assert.Len(t, mmrSelect(candidates, 10, 0.7), 2)
	})

	t.Run("missing embeddings count as dissimilar", func(t *testing.T) {
		candidates := []*store.SearchResult{
			{Chunk: testChunk("a", "d", 0, []float32{1, 0, 0}), Score: 0.9},
			{Chunk: testChunk("b", "d", 1, nil), Score: 0.8},
		}
		selected := mmrSelect(candidates, 2, 0.7)
		require.Len(t, selected, 2)
	})
}
