package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loaddesk/loaddesk/internal/docqa/store"
)

const collection = "test_chunks"

func newStoreWithChunks(t *testing.T, chunks ...*store.Chunk) *store.MemoryStore {
	t.Helper()
	s := store.NewMemoryStore()
	require.NoError(t, s.CreateCollection(context.Background(), &store.CollectionConfig{Name: collection, Dimension: 2}))
	require.NoError(t, s.Insert(context.Background(), collection, chunks))
	return s
}

func chunk(id, docID string, embedding []float32) *store.Chunk {
	return &store.Chunk{
		ID:         id,
		DocumentID: docID,
		ChunkType:  store.ChunkTypeText,
		Content:    "content-" + id,
		Embedding:  embedding,
	}
}

func TestSearchOrdersByScore(t *testing.T) {
	s := newStoreWithChunks(t,
		chunk("a", "doc1", []float32{0, 1}),
		chunk("b", "doc1", []float32{1, 0}),
		chunk("c", "doc1", []float32{0.9, 0.1}),
	)

	results, err := s.Search(context.Background(), collection, []float32{1, 0}, 3, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "b", results[0].Chunk.ID)
	assert.Equal(t, "c", results[1].Chunk.ID)
	assert.Equal(t, "a", results[2].Chunk.ID)

	// normalised scores stay in [0,1]
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, 1.0)
	}
}

func TestSearchTopKBound(t *testing.T) {
	s := newStoreWithChunks(t,
		chunk("a", "doc1", []float32{1, 0}),
		chunk("b", "doc1", []float32{0, 1}),
	)

	results, err := s.Search(context.Background(), collection, []float32{1, 0}, 1, nil)
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, "a", results[0].Chunk.ID)
}

func TestSearchEmptyCollection(t *testing.T) {
	s := store.NewMemoryStore()
	results, err := s.Search(context.Background(), "missing", []float32{1, 0}, 4, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchDocumentFilter(t *testing.T) {
	s := newStoreWithChunks(t,
		chunk("a", "doc1", []float32{1, 0}),
		chunk("b", "doc2", []float32{1, 0}),
	)

	results, err := s.Search(context.Background(), collection, []float32{1, 0}, 10, &store.SearchFilter{DocumentID: "doc2"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b", results[0].Chunk.ID)
}

func TestSearchDeterministic(t *testing.T) {
	s := newStoreWithChunks(t,
		chunk("a", "doc1", []float32{1, 0}),
		chunk("b", "doc1", []float32{1, 0}), // identical embedding, insertion order breaks the tie
		chunk("c", "doc1", []float32{0, 1}),
	)

	first, err := s.Search(context.Background(), collection, []float32{1, 0}, 3, nil)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := s.Search(context.Background(), collection, []float32{1, 0}, 3, nil)
		require.NoError(t, err)
		for j := range first {
			assert.Equal(t, first[j].Chunk.ID, again[j].Chunk.ID)
		}
	}
	assert.Equal(t, "a", first[0].Chunk.ID)
	assert.Equal(t, "b", first[1].Chunk.ID)
}

func TestInsertRejectsMissingEmbedding(t *testing.T) {
	s := store.NewMemoryStore()
	err := s.Insert(context.Background(), collection, []*store.Chunk{
		{ID: "a", Embedding: []float32{1, 0}},
		{ID: "b"}, // missing embedding fails the whole batch
	})
	require.Error(t, err)

	count, err := s.Count(context.Background(), collection)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestInsertReplacesExistingID(t *testing.T) {
	s := newStoreWithChunks(t,
		chunk("a", "doc1", []float32{1, 0}),
		chunk("b", "doc1", []float32{0, 1}),
	)

	updated := chunk("a", "doc1", []float32{0, 1})
	updated.Content = "updated-a"
	require.NoError(t, s.Insert(context.Background(), collection, []*store.Chunk{updated}))

	count, err := s.Count(context.Background(), collection)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count, "re-inserting an existing ID must not grow the index")

	results, err := s.Search(context.Background(), collection, []float32{0, 1}, 10, nil)
	require.NoError(t, err)
	seen := map[string]int{}
	for _, r := range results {
		seen[r.Chunk.ID]++
		if r.Chunk.ID == "a" {
			assert.Equal(t, "updated-a", r.Chunk.Content)
		}
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "chunk %s must appear exactly once", id)
	}
}

func TestCount(t *testing.T) {
	s := newStoreWithChunks(t,
		chunk("a", "doc1", []float32{1, 0}),
		chunk("b", "doc1", []float32{0, 1}),
	)
	count, err := s.Count(context.Background(), collection)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}
