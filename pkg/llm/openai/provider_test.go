package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loaddesk/loaddesk/pkg/llm"
	"github.com/loaddesk/loaddesk/pkg/llm/openai"
)

func newProvider(t *testing.T, baseURL string) *openai.Provider {
	t.Helper()
	p, err := openai.NewProvider(map[string]any{
		"base_url": baseURL,
		"api_key":  "test-key",
		"model":    "test-model",
	})
	require.NoError(t, err)
	return p
}

func TestNewProviderRequiresBaseURLAndModel(t *testing.T) {
	_, err := openai.NewProvider(map[string]any{"model": "m"})
	assert.Error(t, err)

	_, err = openai.NewProvider(map[string]any{"base_url": "http://localhost"})
	assert.Error(t, err)
}

func TestEmbedSortsByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		// out-of-order on purpose
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"index": 1, "embedding": []float32{0, 1}},
				{"index": 0, "embedding": []float32{1, 0}},
			},
		})
	}))
	defer srv.Close()

	p := newProvider(t, srv.URL)
	vecs, err := p.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, []float32{1, 0}, vecs[0])
	assert.Equal(t, []float32{0, 1}, vecs[1])
}

func TestEmbedSizeMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": []map[string]any{}})
	}))
	defer srv.Close()

	p := newProvider(t, srv.URL)
	_, err := p.Embed(context.Background(), []string{"a"})
	assert.ErrorContains(t, err, "size mismatch")
}

func TestGenerateUsesDeterministicDecoding(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "the rate is $500"}},
			},
			"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	}))
	defer srv.Close()

	p := newProvider(t, srv.URL)
	resp, err := p.Generate(context.Background(), "what is the rate?")
	require.NoError(t, err)

	assert.Equal(t, "the rate is $500", resp.Content)
	assert.Equal(t, 15, resp.Usage.TotalTokens)
	assert.Equal(t, float64(0), captured["temperature"])
	assert.Equal(t, 0.9, captured["top_p"])
	assert.Equal(t, float64(1024), captured["max_tokens"])
}

func TestChatEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	p := newProvider(t, srv.URL)
	_, err := p.Chat(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}})
	assert.ErrorContains(t, err, "no choices")
}

func TestRegistryFactories(t *testing.T) {
	for _, name := range []string{"openai", "groq", "ollama"} {
		embed, err := llm.NewEmbeddingProvider(name, map[string]any{
			"base_url": "http://localhost:9999",
			"model":    "m",
		})
		require.NoError(t, err, name)
		assert.NotNil(t, embed)

		chat, err := llm.NewChatProvider(name, map[string]any{
			"base_url": "http://localhost:9999",
			"model":    "m",
		})
		require.NoError(t, err, name)
		assert.NotNil(t, chat)
	}

	_, err := llm.NewChatProvider("nope", nil)
	assert.Error(t, err)
}
