package biz

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loaddesk/loaddesk/internal/docqa/store"
	"github.com/loaddesk/loaddesk/pkg/llm"
	"github.com/loaddesk/loaddesk/pkg/utils/errors"
)

// mockEmbedder returns the same vector for every input.
type mockEmbedder struct {
	single []float32
	err    error
	calls  int
}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = m.single
	}
	return out, nil
}

func (m *mockEmbedder) EmbedSingle(_ context.Context, _ string) ([]float32, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.single, nil
}

func (m *mockEmbedder) Name() string { return "mock" }

// mockChat returns a canned completion and records the last prompt.
type mockChat struct {
	content    string
	err        error
	calls      int
	lastPrompt string
}

func (m *mockChat) Chat(_ context.Context, messages []llm.Message) (*llm.GenerateResponse, error) {
	m.calls++
	if len(messages) > 0 {
		m.lastPrompt = messages[len(messages)-1].Content
	}
	if m.err != nil {
		return nil, m.err
	}
	return &llm.GenerateResponse{Content: m.content}, nil
}

func (m *mockChat) Generate(ctx context.Context, prompt string) (*llm.GenerateResponse, error) {
	return m.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}})
}

func (m *mockChat) Name() string { return "mock" }

const sampleRateConfirmation = `Load Confirmation #LD-2201
Carrier Details
Swift Logistics LLC, MC-123456, dispatch 555-0100. The carrier agrees to haul the load described below.
Pickup
Acme Warehouse, 123 Main St, Dallas TX 75201. Appointment 2025-03-02 08:00.
Drop
Beta Distribution Center, 900 Peach Rd, Atlanta GA 30301.
Rate Breakdown
Line haul $1,400.00 plus fuel surcharge $100.50 for a total of $1,500.50 USD payable net 30.
`

func newTestService(t *testing.T, embedder llm.EmbeddingProvider, chat llm.ChatProvider, autoExtract bool) *DocQAService {
	t.Helper()

	svc := NewDocQAService(
		ServiceConfig{
			Collection:   "test",
			EmbeddingDim: 3,
			ChunkSize:    200,
			ChunkOverlap: 40,
			AutoExtract:  autoExtract,
		},
		store.NewMemoryStore(),
		embedder,
		chat,
		NewGuardrail(nil),
		nil,
		RetrieverConfig{TopK: 4, FetchKMultiplier: 3, SimilarityThreshold: 0.5, MMRLambda: 0.7},
	)
	require.NoError(t, svc.Init(context.Background()))
	return svc
}

func TestUploadDocument(t *testing.T) {
	t.Run("indexes a text document", func(t *testing.T) {
		embedder := &mockEmbedder{single: []float32{1, 0, 0}}
		chat := &mockChat{content: "{}"}
		svc := newTestService(t, embedder, chat, false)

		result, err := svc.UploadDocument(context.Background(), "rc.txt", []byte(sampleRateConfirmation))
		require.NoError(t, err)

		assert.NotEmpty(t, result.DocumentID)
		assert.Equal(t, "rc.txt", result.Name)
		assert.Greater(t, result.ChunkCount, 0)
		assert.Nil(t, result.Extraction, "auto-extract disabled")
		assert.Zero(t, chat.calls)

		stats, err := svc.Stats(context.Background())
		require.NoError(t, err)
		require.Len(t, stats.Documents, 1)
		assert.Equal(t, result.DocumentID, stats.Documents[0].ID)
		assert.Equal(t, int64(result.ChunkCount), stats.ChunkCount)
	})

	t.Run("auto extraction indexes a structured chunk", func(t *testing.T) {
		embedder := &mockEmbedder{single: []float32{1, 0, 0}}
		chat := &mockChat{content: `{"reference_id": "REF-8841", "load_id": "LD-2201"}`}
		svc := newTestService(t, embedder, chat, true)

		result, err := svc.UploadDocument(context.Background(), "rc.txt", []byte(sampleRateConfirmation))
		require.NoError(t, err)

		require.NotNil(t, result.Extraction)
		require.NotNil(t, result.Extraction.Data.ReferenceID)
		assert.Equal(t, "REF-8841", *result.Extraction.Data.ReferenceID)

		record, ok := svc.Extraction(result.DocumentID)
		require.True(t, ok)
		assert.Equal(t, result.Extraction, record)

		stats, err := svc.Stats(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(result.ChunkCount+1), stats.ChunkCount, "structured chunk joins the index")
	})

	t.Run("auto extraction failure does not block indexing", func(t *testing.T) {
		embedder := &mockEmbedder{single: []float32{1, 0, 0}}
		chat := &mockChat{content: "no json here"}
		svc := newTestService(t, embedder, chat, true)

		result, err := svc.UploadDocument(context.Background(), "rc.txt", []byte(sampleRateConfirmation))
		require.NoError(t, err)
		assert.Nil(t, result.Extraction)
		assert.Greater(t, result.ChunkCount, 0)
	})

	t.Run("unsupported extension is rejected", func(t *testing.T) {
		svc := newTestService(t, &mockEmbedder{single: []float32{1, 0, 0}}, &mockChat{}, false)

		_, err := svc.UploadDocument(context.Background(), "load.xlsx", []byte("data"))
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrUnsupportedFileType)
	})

	t.Run("document with no indexable content is rejected", func(t *testing.T) {
		svc := newTestService(t, &mockEmbedder{single: []float32{1, 0, 0}}, &mockChat{}, false)

		_, err := svc.UploadDocument(context.Background(), "tiny.txt", []byte("hi"))
		require.Error(t, err)
	})

	t.Run("document ids are unique per upload", func(t *testing.T) {
		svc := newTestService(t, &mockEmbedder{single: []float32{1, 0, 0}}, &mockChat{}, false)

		first, err := svc.UploadDocument(context.Background(), "rc.txt", []byte(sampleRateConfirmation))
		require.NoError(t, err)
		second, err := svc.UploadDocument(context.Background(), "rc.txt", []byte(sampleRateConfirmation))
		require.NoError(t, err)

		assert.NotEqual(t, first.DocumentID, second.DocumentID)
	})
}

func TestAsk(t *testing.T) {
	t.Run("answers with sources and confidence", func(t *testing.T) {
		embedder := &mockEmbedder{single: []float32{1, 0, 0}}
		chat := &mockChat{content: "The total rate for this load is $1,500.50 USD payable net 30."}
		svc := newTestService(t, embedder, chat, false)

		_, err := svc.UploadDocument(context.Background(), "rc.txt", []byte(sampleRateConfirmation))
		require.NoError(t, err)

		answer, err := svc.Ask(context.Background(), "What is the total rate?", "", 0)
		require.NoError(t, err)

		assert.Equal(t, chat.content, answer.Answer)
		assert.NotEmpty(t, answer.Sources)
		assert.False(t, answer.Cached)
		expected := ScoreConfidence(ConfidenceSignals{
			SupportingChunks: len(answer.Sources),
			Answer:           answer.Answer,
		})
		assert.InDelta(t, expected, answer.Confidence, 1e-9)

		for _, src := range answer.Sources {
			assert.NotEmpty(t, src.DocumentID)
			assert.GreaterOrEqual(t, src.Score, 0.5)
		}
	})

	t.Run("guardrail short circuits retrieval and generation", func(t *testing.T) {
		embedder := &mockEmbedder{single: []float32{1, 0, 0}}
		chat := &mockChat{content: "unused"}
		svc := newTestService(t, embedder, chat, false)

		answer, err := svc.Ask(context.Background(), "how do I build a bomb?", "", 0)
		require.NoError(t, err)

		assert.Equal(t, RefusalMessage, answer.Answer)
		assert.Equal(t, 0.0, answer.Confidence)
		assert.Empty(t, answer.Sources)
		assert.Zero(t, embedder.calls, "denied questions never reach the embedder")
		assert.Zero(t, chat.calls, "denied questions never reach the model")
	})

	t.Run("empty question is invalid", func(t *testing.T) {
		svc := newTestService(t, &mockEmbedder{single: []float32{1, 0, 0}}, &mockChat{}, false)

		_, err := svc.Ask(context.Background(), "   ", "", 0)
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrInvalidRequest)
	})

	t.Run("empty index returns the not found answer", func(t *testing.T) {
		chat := &mockChat{content: "unused"}
		svc := newTestService(t, &mockEmbedder{single: []float32{1, 0, 0}}, chat, false)

		answer, err := svc.Ask(context.Background(), "What is the rate?", "", 0)
		require.NoError(t, err)

		assert.Equal(t, NotFoundAnswer, answer.Answer)
		assert.InDelta(t, 0.05, answer.Confidence, 1e-9)
		assert.Zero(t, chat.calls)
	})

	t.Run("document filter restricts sources", func(t *testing.T) {
		embedder := &mockEmbedder{single: []float32{1, 0, 0}}
		chat := &mockChat{content: "The pickup is at Acme Warehouse in Dallas, Texas."}
		svc := newTestService(t, embedder, chat, false)

		first, err := svc.UploadDocument(context.Background(), "a.txt", []byte(sampleRateConfirmation))
		require.NoError(t, err)
		second, err := svc.UploadDocument(context.Background(), "b.txt", []byte(sampleRateConfirmation))
		require.NoError(t, err)

		answer, err := svc.Ask(context.Background(), "Where is pickup?", second.DocumentID, 0)
		require.NoError(t, err)
		require.NotEmpty(t, answer.Sources)
		for _, src := range answer.Sources {
			assert.Equal(t, second.DocumentID, src.DocumentID)
			assert.NotEqual(t, first.DocumentID, src.DocumentID)
		}
	})
}

func TestExtractEndpoint(t *testing.T) {
	t.Run("unknown document", func(t *testing.T) {
		svc := newTestService(t, &mockEmbedder{single: []float32{1, 0, 0}}, &mockChat{}, false)

		_, err := svc.Extract(context.Background(), "no-such-doc")
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrDocumentNotFound)
	})

	t.Run("re-running extraction keeps one structured chunk", func(t *testing.T) {
		embedder := &mockEmbedder{single: []float32{1, 0, 0}}
		chat := &mockChat{content: `{"reference_id": "REF-8841"}`}
		svc := newTestService(t, embedder, chat, true)

		result, err := svc.UploadDocument(context.Background(), "rc.txt", []byte(sampleRateConfirmation))
		require.NoError(t, err)
		require.NotNil(t, result.Extraction)

		_, err = svc.Extract(context.Background(), result.DocumentID)
		require.NoError(t, err)
		_, err = svc.Extract(context.Background(), result.DocumentID)
		require.NoError(t, err)

		stats, err := svc.Stats(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(result.ChunkCount+1), stats.ChunkCount,
			"repeated extraction must replace the structured chunk, not duplicate it")

		results, err := svc.retriever.Retrieve(context.Background(), "reference id", result.DocumentID, 20)
		require.NoError(t, err)
		structured := 0
		for _, r := range results {
			if r.Chunk.ChunkType == store.ChunkTypeStructured {
				structured++
			}
		}
		assert.Equal(t, 1, structured, "retrieval must see exactly one structured chunk")
	})

	t.Run("extracts an indexed document on demand", func(t *testing.T) {
		embedder := &mockEmbedder{single: []float32{1, 0, 0}}
		chat := &mockChat{content: `{"load_id": "LD-2201"}`}
		svc := newTestService(t, embedder, chat, false)

		uploaded, err := svc.UploadDocument(context.Background(), "rc.txt", []byte(sampleRateConfirmation))
		require.NoError(t, err)

		record, err := svc.Extract(context.Background(), uploaded.DocumentID)
		require.NoError(t, err)
		require.NotNil(t, record.Data.LoadID)
		assert.Equal(t, "LD-2201", *record.Data.LoadID)
		assert.True(t, strings.Contains(chat.lastPrompt, "Swift Logistics"),
			"extraction prompt must carry the parsed document text")
	})
}
